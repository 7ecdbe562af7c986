package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rdavies/planwell/internal/model"
)

type JournalStore struct {
	db *sql.DB
}

func NewJournalStore(db *sql.DB) *JournalStore {
	return &JournalStore{db: db}
}

func scanEntry(scanner interface{ Scan(...any) error }) (*model.JournalEntry, error) {
	var e model.JournalEntry
	err := scanner.Scan(&e.ID, &e.UserID, &e.EntryDate, &e.Mood, &e.Gratitude, &e.Highlights, &e.Challenges, &e.TomorrowPriorities)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

const entryCols = `id, user_id, entry_date, mood, gratitude, highlights, challenges, tomorrow_priorities`

// entryDay truncates to the calendar date so the UNIQUE(user_id,
// entry_date) constraint compares dates, not instants.
func entryDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func validateMood(mood int) error {
	if mood < 1 || mood > 10 {
		return fmt.Errorf("mood %d out of range 1-10: %w", mood, ErrInvalidState)
	}
	return nil
}

// Create inserts the entry for its date. A second entry for the same
// (user, date) fails with ErrDuplicateEntry and leaves the first intact.
func (s *JournalStore) Create(userID int64, e model.JournalEntry) (*model.JournalEntry, error) {
	if err := validateMood(e.Mood); err != nil {
		return nil, err
	}

	result, err := s.db.Exec(
		`INSERT INTO journal_entries (user_id, entry_date, mood, gratitude, highlights, challenges, tomorrow_priorities)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		userID, entryDay(e.EntryDate), e.Mood, e.Gratitude, e.Highlights, e.Challenges, e.TomorrowPriorities,
	)
	if err != nil {
		return nil, fmt.Errorf("insert journal entry: %w", mapSQLiteErr(err))
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	row := s.db.QueryRow(`SELECT `+entryCols+` FROM journal_entries WHERE id = ? AND user_id = ?`, id, userID)
	created, err := scanEntry(row)
	if err != nil {
		return nil, fmt.Errorf("get journal entry: %w", err)
	}
	return created, nil
}

func (s *JournalStore) GetByDate(userID int64, date time.Time) (*model.JournalEntry, error) {
	row := s.db.QueryRow(
		`SELECT `+entryCols+` FROM journal_entries WHERE user_id = ? AND entry_date = ?`,
		userID, entryDay(date),
	)
	e, err := scanEntry(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get journal entry: %w", err)
	}
	return e, nil
}

func (s *JournalStore) List(userID int64) ([]model.JournalEntry, error) {
	rows, err := s.db.Query(
		`SELECT `+entryCols+` FROM journal_entries WHERE user_id = ? ORDER BY entry_date DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list journal entries: %w", mapSQLiteErr(err))
	}
	defer rows.Close()

	var entries []model.JournalEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan journal entry: %w", err)
		}
		entries = append(entries, *e)
	}
	return entries, rows.Err()
}

// UpdateByDate replaces the entry's fields for the given date. Callers
// wanting upsert semantics check Create's ErrDuplicateEntry and fall
// through to this.
func (s *JournalStore) UpdateByDate(userID int64, date time.Time, e model.JournalEntry) (*model.JournalEntry, error) {
	if err := validateMood(e.Mood); err != nil {
		return nil, err
	}

	result, err := s.db.Exec(
		`UPDATE journal_entries SET mood = ?, gratitude = ?, highlights = ?, challenges = ?, tomorrow_priorities = ?
		 WHERE user_id = ? AND entry_date = ?`,
		e.Mood, e.Gratitude, e.Highlights, e.Challenges, e.TomorrowPriorities,
		userID, entryDay(date),
	)
	if err != nil {
		return nil, fmt.Errorf("update journal entry: %w", mapSQLiteErr(err))
	}
	if err := requireRow(result); err != nil {
		return nil, err
	}
	return s.GetByDate(userID, date)
}

func (s *JournalStore) Delete(userID int64, date time.Time) error {
	result, err := s.db.Exec(
		`DELETE FROM journal_entries WHERE user_id = ? AND entry_date = ?`,
		userID, entryDay(date),
	)
	if err != nil {
		return fmt.Errorf("delete journal entry: %w", mapSQLiteErr(err))
	}
	return requireRow(result)
}
