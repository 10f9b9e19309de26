package storage

import (
	"database/sql"
	"fmt"
	"time"
)

// SchemaVersion is written to store_metadata when the schema is created.
const SchemaVersion = "1.0"

// CreateSchema creates all tables and indexes of the dataset store in one
// transaction.
//
// Must be called with SQLite PRAGMA foreign_keys = ON.
func CreateSchema(db *sql.DB) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin schema transaction: %w", err)
	}
	defer tx.Rollback() // Safe to call even after commit

	if _, err := tx.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	tables := []struct {
		name string
		ddl  string
	}{
		{"runs", createRunsTable},
		{"records", createRecordsTable},
		{"store_metadata", createStoreMetadataTable},
	}

	for _, table := range tables {
		if _, err := tx.Exec(table.ddl); err != nil {
			return fmt.Errorf("failed to create %s table: %w", table.name, err)
		}
	}

	for i, idx := range indexes {
		if _, err := tx.Exec(idx); err != nil {
			return fmt.Errorf("failed to create index %d: %w", i+1, err)
		}
	}

	now := time.Now().UTC().Format(time.RFC3339)
	if _, err := tx.Exec(
		`INSERT INTO store_metadata (key, value, updated_at) VALUES ('schema_version', ?, ?)`,
		SchemaVersion, now,
	); err != nil {
		return fmt.Errorf("failed to bootstrap store_metadata: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit schema transaction: %w", err)
	}
	return nil
}

// GetSchemaVersion retrieves the schema version from store_metadata.
// Returns "0" if the table doesn't exist (new database).
func GetSchemaVersion(db *sql.DB) (string, error) {
	var tableExists int
	err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='store_metadata'").Scan(&tableExists)
	if err != nil {
		return "", fmt.Errorf("failed to check store_metadata existence: %w", err)
	}
	if tableExists == 0 {
		return "0", nil
	}

	var version string
	err = db.QueryRow("SELECT value FROM store_metadata WHERE key = 'schema_version'").Scan(&version)
	if err == sql.ErrNoRows {
		return "", fmt.Errorf("schema_version key not found in store_metadata")
	}
	if err != nil {
		return "", fmt.Errorf("failed to query schema version: %w", err)
	}
	return version, nil
}

const createRunsTable = `
CREATE TABLE runs (
    run_id TEXT PRIMARY KEY,                     -- UUID
    kind TEXT NOT NULL,                          -- labeled | all
    started_at TEXT NOT NULL,                    -- ISO 8601
    finished_at TEXT,                            -- NULL while running
    files_total INTEGER NOT NULL DEFAULT 0,
    files_skipped INTEGER NOT NULL DEFAULT 0,
    record_count INTEGER NOT NULL DEFAULT 0,
    error TEXT                                   -- NULL unless the run failed
)
`

const createRecordsTable = `
CREATE TABLE records (
    record_id TEXT PRIMARY KEY,                  -- UUID
    run_id TEXT,
    kind TEXT NOT NULL,
    source TEXT NOT NULL,                        -- Rewritten source id
    function_index INTEGER NOT NULL,
    start_line INTEGER NOT NULL,
    end_line INTEGER NOT NULL,
    function_code TEXT NOT NULL,
    signature TEXT NOT NULL DEFAULT '',
    container TEXT NOT NULL DEFAULT '',
    vulnerability_label TEXT,                    -- NULL for enumerated functions
    anchor INTEGER,                              -- NULL for enumerated functions
    use_of_libraries INTEGER NOT NULL DEFAULT 0,
    use_of_design_patterns INTEGER NOT NULL DEFAULT 0,
    pragma_directives INTEGER NOT NULL DEFAULT 0,
    access_control INTEGER NOT NULL DEFAULT 0,
    num_arithmetic_ops INTEGER NOT NULL DEFAULT 0,
    created_at TEXT NOT NULL,
    FOREIGN KEY (run_id) REFERENCES runs(run_id) ON DELETE SET NULL
)
`

const createStoreMetadataTable = `
CREATE TABLE store_metadata (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL,
    updated_at TEXT NOT NULL
)
`

var indexes = []string{
	"CREATE INDEX idx_records_kind_source ON records(kind, source)",
	"CREATE INDEX idx_records_order ON records(kind, source, function_index, start_line)",
	"CREATE INDEX idx_records_run ON records(run_id)",
	"CREATE INDEX idx_runs_kind ON runs(kind, started_at)",
}
