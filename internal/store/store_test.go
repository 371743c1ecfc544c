package store

import (
	"database/sql"
	"testing"

	"github.com/eyeson-app/eyeson/internal/database"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	return db
}
