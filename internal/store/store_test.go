package store

import (
	"database/sql"
	"testing"

	"github.com/rdavies/planwell/internal/database"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// testUser provisions a user and returns its id.
func testUser(t *testing.T, db *sql.DB, username string) int64 {
	t.Helper()
	u, err := NewUserStore(db).Create(username, "hunter22", "", "standard")
	if err != nil {
		t.Fatalf("create test user %s: %v", username, err)
	}
	return u.ID
}
