package storage

import (
	"database/sql"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"
)

// NewTestDB creates an in-memory SQLite database with the full schema.
// Cleanup is registered with t.Cleanup().
//
// Example:
//
//	func TestSomething(t *testing.T) {
//	    db := storage.NewTestDB(t)
//	    // ... test code ...
//	}
func NewTestDB(t testing.TB) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	// Each pooled connection to :memory: is a separate database.
	db.SetMaxOpenConns(1)

	_, err = db.Exec("PRAGMA foreign_keys = ON")
	require.NoError(t, err)

	require.NoError(t, CreateSchema(db))
	return db
}

// NewTestDBFile creates a file-based database in t.TempDir() through Open.
// Use it to test persistence across connections.
func NewTestDBFile(t testing.TB) (*sql.DB, string) {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "nested", "dataset.db")
	db, err := Open(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return db, dbPath
}
