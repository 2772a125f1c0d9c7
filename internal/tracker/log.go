// Package tracker holds the daily calorie log: its entries, its goal and the
// totals derived from them. It has no UI; surfaces drive it and subscribe to
// its changes.
package tracker

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/theirongolddev/kcal/internal/model"
	"github.com/theirongolddev/kcal/internal/store"
)

// ErrInvalidEntry rejects an entry with an empty name or a calorie amount
// that is not a positive integer.
var ErrInvalidEntry = errors.New("please enter a valid meal name and calorie amount")

// ResetPrompt is the question put to the user before the day is cleared.
const ResetPrompt = "Are you sure you want to reset today's data?"

// EmptyPlaceholder is the single line shown when no meals are logged.
const EmptyPlaceholder = "No meals added yet"

// Store is the durable slot a Log persists into.
type Store interface {
	Save(model.Snapshot) error
	Load() (model.Snapshot, error)
}

// ConfirmFunc asks the user a yes/no question.
type ConfirmFunc func(prompt string) bool

// Listener is called after every change with the new state.
type Listener func(snap model.Snapshot, totals model.Totals)

// Line is one row of the rendered log. A Placeholder line carries no entry.
type Line struct {
	ID          int64
	Name        string
	RecordedAt  string
	Calories    int
	Placeholder bool
}

// Option configures a Log.
type Option func(*Log)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(l *Log) { l.now = now }
}

// WithLogger reports discarded snapshots and day rollovers.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Log) { l.logger = logger }
}

// WithDefaultGoal sets the goal used when no usable snapshot exists.
func WithDefaultGoal(goal int) Option {
	return func(l *Log) {
		if goal > 0 {
			l.defaultGoal = goal
		}
	}
}

// Log is the state of today's calorie log. It is not safe for concurrent use.
type Log struct {
	store       Store
	now         func() time.Time
	logger      *slog.Logger
	defaultGoal int

	entries []model.MealEntry
	goal    int
	date    string
	lastID  int64

	nextSub int
	subs    map[int]Listener
}

// New builds a Log and restores it from st. A missing, corrupt or unreadable
// snapshot yields an empty log with the default goal. A snapshot from another
// day yields an empty log that keeps the snapshot's goal.
func New(st Store, opts ...Option) *Log {
	l := &Log{
		store:       st,
		now:         time.Now,
		defaultGoal: model.DefaultGoal,
		subs:        make(map[int]Listener),
	}
	for _, opt := range opts {
		opt(l)
	}

	l.goal = l.defaultGoal
	l.date = l.today()
	l.restore()
	return l
}

func (l *Log) restore() {
	snap, err := l.store.Load()
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			l.warn("discarding unreadable snapshot", "err", err)
		}
		return
	}

	for _, e := range snap.Entries {
		if e.Calories <= 0 || strings.TrimSpace(e.Name) == "" {
			l.warn("discarding snapshot with invalid entry", "id", e.ID)
			return
		}
	}

	// Only a stored goal of zero reads as unset; a negative goal is kept.
	if snap.Goal != 0 {
		l.goal = snap.Goal
	}

	if snap.Date != l.date {
		l.debug("snapshot is from another day, starting fresh", "snapshot_date", snap.Date, "today", l.date)
		return
	}

	l.entries = append([]model.MealEntry(nil), snap.Entries...)
	for _, e := range l.entries {
		if e.ID > l.lastID {
			l.lastID = e.ID
		}
	}
}

// AddEntry appends a meal. name is trimmed; caloriesRaw is parsed leniently
// and must yield a positive integer. A rejected entry changes nothing and
// returns ErrInvalidEntry.
func (l *Log) AddEntry(name, caloriesRaw string) (model.MealEntry, error) {
	name = strings.TrimSpace(name)
	calories, ok := ParseLenientInt(caloriesRaw)
	if name == "" || !ok || calories <= 0 {
		return model.MealEntry{}, ErrInvalidEntry
	}

	now := l.now()
	l.rollover(now)

	entry := model.MealEntry{
		ID:         l.nextID(now),
		Name:       name,
		Calories:   calories,
		RecordedAt: now.Format(model.TimeLayout),
	}
	l.entries = append(l.entries, entry)

	return entry, l.commit()
}

// DeleteEntry removes the entry with id. An unknown id removes nothing.
func (l *Log) DeleteEntry(id int64) error {
	l.rollover(l.now())

	kept := l.entries[:0]
	for _, e := range l.entries {
		if e.ID != id {
			kept = append(kept, e)
		}
	}
	l.entries = kept

	return l.commit()
}

// ResetDay clears all entries, keeping the goal, if confirm approves
// ResetPrompt. It reports whether the reset happened.
func (l *Log) ResetDay(confirm ConfirmFunc) (bool, error) {
	if confirm == nil || !confirm(ResetPrompt) {
		return false, nil
	}

	l.rollover(l.now())
	l.entries = nil
	return true, l.commit()
}

// SetGoal replaces the daily goal. Any integer is accepted, including zero.
func (l *Log) SetGoal(goal int) error {
	l.rollover(l.now())
	l.goal = goal
	return l.commit()
}

// SetGoalText sets the goal from raw user input. Input that does not start
// with an integer sets the goal to 0 rather than being rejected.
func (l *Log) SetGoalText(raw string) error {
	goal, ok := ParseLenientInt(raw)
	if !ok {
		goal = 0
	}
	return l.SetGoal(goal)
}

// Rollover clears the entries if the calendar day has changed since the log
// was loaded, keeping the goal. It reports whether a rollover happened.
func (l *Log) Rollover() (bool, error) {
	if !l.rollover(l.now()) {
		return false, nil
	}
	return true, l.commit()
}

func (l *Log) rollover(now time.Time) bool {
	today := now.Format(model.DateLayout)
	if today == l.date {
		return false
	}
	l.debug("day changed, clearing entries", "from", l.date, "to", today)
	l.date = today
	l.entries = nil
	return true
}

// nextID derives an id from the creation time, bumped past the last id so
// ids stay unique and increasing when the clock does not advance.
func (l *Log) nextID(now time.Time) int64 {
	id := now.UnixMilli()
	if id <= l.lastID {
		id = l.lastID + 1
	}
	l.lastID = id
	return id
}

func (l *Log) commit() error {
	err := l.store.Save(l.Snapshot())
	l.notify()
	if err != nil {
		return fmt.Errorf("persisting daily log: %w", err)
	}
	return nil
}

// Totals derives total, remaining and percentage from the current state.
func (l *Log) Totals() model.Totals {
	return Derive(l.entries, l.goal)
}

// Derive computes totals for entries against goal. A goal of zero or less
// counts as fully met so the percentage stays finite.
func Derive(entries []model.MealEntry, goal int) model.Totals {
	total := 0
	for _, e := range entries {
		total += e.Calories
	}

	t := model.Totals{
		Total:     total,
		Remaining: goal - total,
		Over:      total > goal,
	}

	if goal <= 0 {
		t.Percentage = 100
		return t
	}

	pct := float64(total) / float64(goal) * 100
	if pct > 100 {
		pct = 100
	}
	if pct < 0 {
		pct = 0
	}
	t.Percentage = pct
	return t
}

// Lines returns the display rows in entry order, or a single placeholder.
func (l *Log) Lines() []Line {
	return LinesOf(l.entries)
}

// LinesOf renders entries as display rows, or the placeholder row when there
// are none.
func LinesOf(entries []model.MealEntry) []Line {
	if len(entries) == 0 {
		return []Line{{Name: EmptyPlaceholder, Placeholder: true}}
	}

	lines := make([]Line, 0, len(entries))
	for _, e := range entries {
		lines = append(lines, Line{
			ID:         e.ID,
			Name:       e.Name,
			RecordedAt: e.RecordedAt,
			Calories:   e.Calories,
		})
	}
	return lines
}

// Snapshot returns a copy of the state as it is persisted.
func (l *Log) Snapshot() model.Snapshot {
	return model.Snapshot{
		Entries: l.Entries(),
		Goal:    l.goal,
		Date:    l.date,
	}
}

// Entries returns a copy of the entries in insertion order.
func (l *Log) Entries() []model.MealEntry {
	out := make([]model.MealEntry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Goal returns the daily calorie goal, which may be zero or negative.
func (l *Log) Goal() int { return l.goal }

// Date returns the day the log holds, formatted with model.DateLayout.
func (l *Log) Date() string { return l.date }

// DisplayDate returns today's date in long form, e.g. "Monday, October 19, 2026".
func (l *Log) DisplayDate() string {
	return l.now().Format(model.DisplayDateLayout)
}

// Subscribe registers fn to run after every change and returns a function
// that unregisters it.
func (l *Log) Subscribe(fn Listener) func() {
	l.nextSub++
	id := l.nextSub
	l.subs[id] = fn
	return func() { delete(l.subs, id) }
}

func (l *Log) notify() {
	if len(l.subs) == 0 {
		return
	}
	snap := l.Snapshot()
	totals := l.Totals()
	for _, fn := range l.subs {
		fn(snap, totals)
	}
}

func (l *Log) today() string {
	return l.now().Format(model.DateLayout)
}

func (l *Log) warn(msg string, args ...any) {
	if l.logger != nil {
		l.logger.Warn(msg, args...)
	}
}

func (l *Log) debug(msg string, args ...any) {
	if l.logger != nil {
		l.logger.Debug(msg, args...)
	}
}
