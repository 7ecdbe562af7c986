package store

import (
	"errors"

	sqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

var (
	// ErrNotFound covers both a missing row and a row owned by another
	// user; callers cannot tell the two apart.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateEntry signals a uniqueness violation, e.g. a second
	// journal entry for the same (user, date).
	ErrDuplicateEntry = errors.New("duplicate entry")

	// ErrInvalidState signals a write that would violate an entity
	// invariant (unknown enum value, progress out of range, ...).
	ErrInvalidState = errors.New("invalid state")

	// ErrBusy signals that the database stayed locked past the bounded
	// wait. The write did not happen; the caller may retry with backoff.
	ErrBusy = errors.New("storage busy")
)

func isBusy(err error) bool {
	var se *sqlite.Error
	if errors.As(err, &se) {
		code := se.Code()
		return code == sqlite3.SQLITE_BUSY || code == sqlite3.SQLITE_LOCKED
	}
	return false
}

func isUniqueViolation(err error) bool {
	var se *sqlite.Error
	if errors.As(err, &se) {
		code := se.Code()
		return code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
	}
	return false
}

// mapSQLiteErr converts driver-level failures into the store's error
// kinds. Errors it does not recognize pass through unchanged.
func mapSQLiteErr(err error) error {
	switch {
	case err == nil:
		return nil
	case isBusy(err):
		return ErrBusy
	case isUniqueViolation(err):
		return ErrDuplicateEntry
	}
	return err
}
