package model

import "time"

// JournalEntry is one day's reflection. At most one row exists per
// (user, entry date); EntryDate carries only the calendar date.
type JournalEntry struct {
	ID                 int64     `json:"id"`
	UserID             int64     `json:"user_id"`
	EntryDate          time.Time `json:"entry_date"`
	Mood               int       `json:"mood"` // 1-10
	Gratitude          string    `json:"gratitude"`
	Highlights         string    `json:"highlights"`
	Challenges         string    `json:"challenges"`
	TomorrowPriorities string    `json:"tomorrow_priorities"`
}
