package db

import (
	"database/sql"
	"testing"
)

// NewTestDB creates a fresh in-memory SQLite database with the schema applied.
func NewTestDB(t *testing.T) *sql.DB {
	t.Helper()

	database, err := Open(":memory:")
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}

	// Each connection to :memory: gets its own database, so keep the pool
	// at a single connection.
	database.SetMaxOpenConns(1)

	if err := EnsureSchema(database); err != nil {
		database.Close()
		t.Fatalf("creating test database schema: %v", err)
	}

	t.Cleanup(func() { database.Close() })

	return database
}
