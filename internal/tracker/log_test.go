package tracker

import (
	"bytes"
	"errors"
	"log/slog"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theirongolddev/kcal/internal/model"
	"github.com/theirongolddev/kcal/internal/store"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 10, 19, 9, 30, 0, 0, time.Local)}
}

func newTestLog(t *testing.T) (*Log, *store.Memory, *fakeClock) {
	t.Helper()
	kv := store.NewMemory()
	clock := newClock()
	return New(store.NewSlot(kv, store.SnapshotKey), WithClock(clock.Now)), kv, clock
}

func no(string) bool { return false }

func TestNew_EmptyStoreUsesDefaults(t *testing.T) {
	l, kv, _ := newTestLog(t)

	assert.Empty(t, l.Entries())
	assert.Equal(t, model.DefaultGoal, l.Goal())
	assert.Equal(t, "2026-10-19", l.Date())
	assert.Zero(t, kv.Puts(), "construction must not persist")
}

func TestAddEntry_TwoMealsAgainstDefaultGoal(t *testing.T) {
	l, _, clock := newTestLog(t)

	oatmeal, err := l.AddEntry("Oatmeal", "350")
	require.NoError(t, err)
	clock.Advance(time.Minute)
	_, err = l.AddEntry("Sandwich", "600")
	require.NoError(t, err)

	tot := l.Totals()
	assert.Equal(t, 950, tot.Total)
	assert.Equal(t, 1050, tot.Remaining)
	assert.InDelta(t, 47.5, tot.Percentage, 1e-9)
	assert.False(t, tot.Over)

	require.NoError(t, l.DeleteEntry(oatmeal.ID))
	tot = l.Totals()
	assert.Equal(t, 600, tot.Total)
	assert.Equal(t, 1400, tot.Remaining)
}

func TestAddEntry_TotalIsSumOfCalories(t *testing.T) {
	l, _, _ := newTestLog(t)

	values := []string{"120", "5", "999", "1", "430"}
	want := 0
	for _, v := range values {
		_, err := l.AddEntry("meal", v)
		require.NoError(t, err)
		n, _ := ParseLenientInt(v)
		want += n
	}
	assert.Equal(t, want, l.Totals().Total)
}

func TestAddEntry_TrimsAndRecordsTime(t *testing.T) {
	l, _, _ := newTestLog(t)

	e, err := l.AddEntry("  Apple \t", "95")
	require.NoError(t, err)
	assert.Equal(t, "Apple", e.Name)
	assert.Equal(t, 95, e.Calories)
	assert.Equal(t, "9:30:00 AM", e.RecordedAt)
}

func TestAddEntry_Rejected(t *testing.T) {
	tests := []struct {
		name     string
		meal     string
		calories string
	}{
		{"empty name", "", "100"},
		{"blank name", "   ", "100"},
		{"negative calories", "Snack", "-5"},
		{"zero calories", "Snack", "0"},
		{"non-numeric calories", "Snack", "lots"},
		{"empty calories", "Snack", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, kv, _ := newTestLog(t)

			_, err := l.AddEntry(tt.meal, tt.calories)
			assert.ErrorIs(t, err, ErrInvalidEntry)
			assert.Empty(t, l.Entries())
			assert.Zero(t, kv.Puts())
		})
	}
}

func TestAddEntry_LenientCalories(t *testing.T) {
	l, _, _ := newTestLog(t)

	e, err := l.AddEntry("Toast", "250kcal")
	require.NoError(t, err)
	assert.Equal(t, 250, e.Calories)
}

func TestAddEntry_IDsIncreaseWithFrozenClock(t *testing.T) {
	l, _, _ := newTestLog(t)

	var last int64
	for i := 0; i < 5; i++ {
		e, err := l.AddEntry("bite", "10")
		require.NoError(t, err)
		assert.Greater(t, e.ID, last)
		last = e.ID
	}
}

func TestDeleteEntry_KeepsOrderAndIgnoresUnknown(t *testing.T) {
	l, kv, _ := newTestLog(t)

	a, _ := l.AddEntry("A", "1")
	b, _ := l.AddEntry("B", "2")
	c, _ := l.AddEntry("C", "3")

	require.NoError(t, l.DeleteEntry(b.ID))
	assert.Equal(t, []model.MealEntry{a, c}, l.Entries())

	puts := kv.Puts()
	require.NoError(t, l.DeleteEntry(424242))
	assert.Equal(t, []model.MealEntry{a, c}, l.Entries())
	assert.Equal(t, puts+1, kv.Puts())
}

func TestResetDay(t *testing.T) {
	l, _, _ := newTestLog(t)
	require.NoError(t, l.SetGoal(1800))
	_, _ = l.AddEntry("A", "100")

	done, err := l.ResetDay(no)
	require.NoError(t, err)
	assert.False(t, done)
	assert.Len(t, l.Entries(), 1)

	done, err = l.ResetDay(nil)
	require.NoError(t, err)
	assert.False(t, done)

	var asked string
	done, err = l.ResetDay(func(p string) bool { asked = p; return true })
	require.NoError(t, err)
	assert.True(t, done)
	assert.Equal(t, ResetPrompt, asked)
	assert.Empty(t, l.Entries())
	assert.Equal(t, 1800, l.Goal())

	_, err = l.AddEntry("Snack", "-5")
	assert.ErrorIs(t, err, ErrInvalidEntry)
	assert.Empty(t, l.Entries())
}

func TestSetGoalText(t *testing.T) {
	tests := []struct {
		raw  string
		want int
	}{
		{"2500", 2500},
		{" 1800 ", 1800},
		{"1500.5", 1500},
		{"abc", 0},
		{"", 0},
		{"-100", -100},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			l, _, _ := newTestLog(t)
			require.NoError(t, l.SetGoalText(tt.raw))
			assert.Equal(t, tt.want, l.Goal())
		})
	}
}

func TestTotals_ZeroGoalStaysFinite(t *testing.T) {
	l, _, _ := newTestLog(t)
	require.NoError(t, l.SetGoalText("abc"))

	tot := l.Totals()
	assert.False(t, math.IsNaN(tot.Percentage) || math.IsInf(tot.Percentage, 0))
	assert.Equal(t, 100.0, tot.Percentage)

	_, _ = l.AddEntry("A", "10")
	tot = l.Totals()
	assert.Equal(t, 100.0, tot.Percentage)
	assert.Equal(t, -10, tot.Remaining)
	assert.True(t, tot.Over)
}

func TestTotals_OverGoal(t *testing.T) {
	l, _, _ := newTestLog(t)
	require.NoError(t, l.SetGoal(500))
	_, _ = l.AddEntry("Feast", "800")

	tot := l.Totals()
	assert.Equal(t, -300, tot.Remaining)
	assert.Equal(t, 100.0, tot.Percentage)
	assert.True(t, tot.Over)
	assert.Equal(t, tot.Remaining, l.Goal()-tot.Total)
}

func TestLines(t *testing.T) {
	l, _, _ := newTestLog(t)

	lines := l.Lines()
	require.Len(t, lines, 1)
	assert.True(t, lines[0].Placeholder)
	assert.Equal(t, EmptyPlaceholder, lines[0].Name)

	a, _ := l.AddEntry("A", "100")
	b, _ := l.AddEntry("B", "200")
	lines = l.Lines()
	require.Len(t, lines, 2)
	assert.Equal(t, a.ID, lines[0].ID)
	assert.Equal(t, b.ID, lines[1].ID)
	assert.False(t, lines[1].Placeholder)
}

func TestPersistence_RoundTripSameDay(t *testing.T) {
	kv := store.NewMemory()
	slot := store.NewSlot(kv, store.SnapshotKey)
	clock := newClock()

	l := New(slot, WithClock(clock.Now))
	_, _ = l.AddEntry("Oatmeal", "350")
	require.NoError(t, l.SetGoal(1900))

	clock.Advance(2 * time.Hour)
	reloaded := New(slot, WithClock(clock.Now))
	assert.Equal(t, l.Entries(), reloaded.Entries())
	assert.Equal(t, 1900, reloaded.Goal())

	// ids keep increasing after a reload
	e, err := reloaded.AddEntry("Lunch", "500")
	require.NoError(t, err)
	assert.Greater(t, e.ID, l.Entries()[0].ID)
}

func TestPersistence_StaleDateKeepsGoal(t *testing.T) {
	slot := store.NewSlot(store.NewMemory(), store.SnapshotKey)
	require.NoError(t, slot.Save(model.Snapshot{
		Entries: []model.MealEntry{{ID: 1, Name: "Old", Calories: 100, RecordedAt: "1:00:00 PM"}},
		Goal:    1700,
		Date:    "2026-10-18",
	}))

	clock := newClock()
	l := New(slot, WithClock(clock.Now))
	assert.Empty(t, l.Entries())
	assert.Equal(t, 1700, l.Goal())
	assert.Equal(t, "2026-10-19", l.Date())
}

func TestPersistence_CorruptSnapshotIsAbsent(t *testing.T) {
	kv := store.NewMemory()
	require.NoError(t, kv.Put(store.SnapshotKey, []byte("garbage")))

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	clock := newClock()
	l := New(store.NewSlot(kv, store.SnapshotKey), WithClock(clock.Now), WithLogger(logger), WithDefaultGoal(2200))
	assert.Empty(t, l.Entries())
	assert.Equal(t, 2200, l.Goal())
	assert.Contains(t, buf.String(), "discarding unreadable snapshot")
}

func TestPersistence_ZeroGoalReloadsAsDefault(t *testing.T) {
	slot := store.NewSlot(store.NewMemory(), store.SnapshotKey)
	clock := newClock()

	l := New(slot, WithClock(clock.Now))
	require.NoError(t, l.SetGoalText("abc"))
	assert.Equal(t, 0, l.Goal())

	reloaded := New(slot, WithClock(clock.Now))
	assert.Equal(t, model.DefaultGoal, reloaded.Goal())
}

func TestPersistence_NegativeGoalIsKept(t *testing.T) {
	slot := store.NewSlot(store.NewMemory(), store.SnapshotKey)
	clock := newClock()

	l := New(slot, WithClock(clock.Now))
	require.NoError(t, l.SetGoalText("-5"))

	reloaded := New(slot, WithClock(clock.Now))
	assert.Equal(t, -5, reloaded.Goal())
	assert.InDelta(t, 100, reloaded.Totals().Percentage, 1e-9)
}

type failingStore struct{}

func (failingStore) Save(model.Snapshot) error     { return errors.New("disk full") }
func (failingStore) Load() (model.Snapshot, error) { return model.Snapshot{}, store.ErrNotFound }

func TestCommit_SaveErrorIsWrappedAfterMutation(t *testing.T) {
	clock := newClock()
	l := New(failingStore{}, WithClock(clock.Now))

	_, err := l.AddEntry("A", "100")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "persisting daily log")
	assert.Len(t, l.Entries(), 1)
}

func TestRollover(t *testing.T) {
	l, _, clock := newTestLog(t)
	require.NoError(t, l.SetGoal(2100))
	_, _ = l.AddEntry("Dinner", "700")

	rolled, err := l.Rollover()
	require.NoError(t, err)
	assert.False(t, rolled)

	clock.Advance(24 * time.Hour)
	rolled, err = l.Rollover()
	require.NoError(t, err)
	assert.True(t, rolled)
	assert.Empty(t, l.Entries())
	assert.Equal(t, 2100, l.Goal())
	assert.Equal(t, "2026-10-20", l.Date())
}

func TestAddEntry_AfterMidnightStartsNewDay(t *testing.T) {
	l, _, clock := newTestLog(t)
	_, _ = l.AddEntry("Late snack", "200")

	clock.Advance(24 * time.Hour)
	_, err := l.AddEntry("Breakfast", "400")
	require.NoError(t, err)

	require.Len(t, l.Entries(), 1)
	assert.Equal(t, "Breakfast", l.Entries()[0].Name)
	assert.Equal(t, "2026-10-20", l.Snapshot().Date)
}

func TestSubscribe(t *testing.T) {
	l, _, _ := newTestLog(t)

	var calls int
	var last model.Totals
	unsubscribe := l.Subscribe(func(_ model.Snapshot, tot model.Totals) {
		calls++
		last = tot
	})

	_, _ = l.AddEntry("A", "300")
	assert.Equal(t, 1, calls)
	assert.Equal(t, 300, last.Total)

	_, _ = l.AddEntry("", "300")
	assert.Equal(t, 1, calls, "rejected entries do not notify")

	unsubscribe()
	_, _ = l.AddEntry("B", "300")
	assert.Equal(t, 1, calls)
}

func TestDisplayDate(t *testing.T) {
	l, _, _ := newTestLog(t)
	assert.Equal(t, "Monday, October 19, 2026", l.DisplayDate())
}
