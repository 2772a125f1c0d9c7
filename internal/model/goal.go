package model

// DefaultGoal is the daily calorie target used when none has been set.
const DefaultGoal = 2000

// Totals holds the values derived from a log's entries and goal.
type Totals struct {
	Total      int     `json:"total"`
	Remaining  int     `json:"remaining"`  // goal - total, negative once over goal
	Percentage float64 `json:"percentage"` // clamped to [0, 100] for progress display
	Over       bool    `json:"over"`       // total exceeds goal
}

// Fraction returns Percentage as a 0-1 value for progress widgets.
func (t Totals) Fraction() float64 {
	return t.Percentage / 100
}
