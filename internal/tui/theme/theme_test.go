package theme

import "testing"

func TestByNameFallsBackToDefault(t *testing.T) {
	if got := ByName("no-such-theme"); got.Name != FlexokiDark.Name {
		t.Fatalf("ByName(unknown) = %q, want %q", got.Name, FlexokiDark.Name)
	}
}

func TestThemesDistinguishOverGoal(t *testing.T) {
	for _, th := range All {
		if th.GoalFill == th.GoalOver {
			t.Errorf("theme %s uses the same goal bar colour under and over goal", th.Name)
		}
	}
}

func TestSetActive(t *testing.T) {
	defer SetActive(FlexokiDark.Name)

	SetActive("tokyo-night")
	if Active.Name != "tokyo-night" {
		t.Fatalf("Active = %q, want tokyo-night", Active.Name)
	}
}

func TestGoalColor(t *testing.T) {
	th := ByName("catppuccin-mocha")
	if got := th.GoalColor(false); got != th.GoalFill {
		t.Errorf("under-goal colour = %s, want %s", got, th.GoalFill)
	}
	if got := th.GoalColor(true); got != th.GoalOver {
		t.Errorf("over-goal colour = %s, want %s", got, th.GoalOver)
	}
}
