// Package model defines domain types for kcal meal entries and daily snapshots.
package model

// MealEntry is one logged meal. Entries are immutable once recorded.
type MealEntry struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	Calories   int    `json:"calories"`
	RecordedAt string `json:"recordedAt"` // display-only time of day
}

// Snapshot is the full persisted state of a day's log.
type Snapshot struct {
	Entries []MealEntry `json:"entries"`
	Goal    int         `json:"goal"`
	Date    string      `json:"date"` // compared by equality against today's DateKey
}

// DateLayout formats the calendar day a snapshot belongs to.
const DateLayout = "2006-01-02"

// TimeLayout formats MealEntry.RecordedAt.
const TimeLayout = "3:04:05 PM"

// DisplayDateLayout formats the long date shown above the log.
const DisplayDateLayout = "Monday, January 2, 2006"
