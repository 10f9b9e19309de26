package storage

import (
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/mvp-joe/openvulns/internal/dataset"
)

var recordColumns = []string{
	"record_id", "run_id", "kind", "source", "function_index", "start_line", "end_line",
	"function_code", "signature", "container", "vulnerability_label", "anchor",
	"use_of_libraries", "use_of_design_patterns", "pragma_directives", "access_control",
	"num_arithmetic_ops", "created_at",
}

// RecordWriter writes dataset records. All writes are transactional.
type RecordWriter struct {
	db *sql.DB
}

// NewRecordWriter creates a RecordWriter.
// DB must have schema already created via CreateSchema().
func NewRecordWriter(db *sql.DB) *RecordWriter {
	return &RecordWriter{db: db}
}

// WriteRecords replaces every record of kind with records.
func (w *RecordWriter) WriteRecords(kind dataset.Kind, runID string, records []dataset.Record) error {
	tx, err := w.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() // Safe to call even after commit

	if _, err := sq.Delete("records").Where(sq.Eq{"kind": string(kind)}).RunWith(tx).Exec(); err != nil {
		return fmt.Errorf("failed to clear %s records: %w", kind, err)
	}

	if err := insertRecords(tx, kind, runID, records); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// WriteRecordsIncremental replaces the records of the given sources only.
// Sources with no records in the update end up with none stored.
func (w *RecordWriter) WriteRecordsIncremental(kind dataset.Kind, runID string, sources []string, records []dataset.Record) error {
	if len(sources) == 0 && len(records) == 0 {
		return nil
	}

	tx, err := w.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	touched := make(map[string]bool, len(sources))
	for _, s := range sources {
		touched[s] = true
	}
	for _, r := range records {
		touched[r.SourceID] = true
	}

	if err := deleteSources(tx, kind, touched); err != nil {
		return err
	}
	if err := insertRecords(tx, kind, runID, records); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// DeleteSources removes every record of kind whose source is listed.
func (w *RecordWriter) DeleteSources(kind dataset.Kind, sources []string) error {
	if len(sources) == 0 {
		return nil
	}

	tx, err := w.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	set := make(map[string]bool, len(sources))
	for _, s := range sources {
		set[s] = true
	}
	if err := deleteSources(tx, kind, set); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func deleteSources(tx *sql.Tx, kind dataset.Kind, sources map[string]bool) error {
	for source := range sources {
		_, err := sq.Delete("records").
			Where(sq.Eq{"kind": string(kind), "source": source}).
			RunWith(tx).
			Exec()
		if err != nil {
			return fmt.Errorf("failed to delete records for %s: %w", source, err)
		}
	}
	return nil
}

func insertRecords(tx *sql.Tx, kind dataset.Kind, runID string, records []dataset.Record) error {
	if len(records) == 0 {
		return nil
	}

	now := time.Now().UTC().Format(time.RFC3339)
	var run interface{}
	if runID != "" {
		run = runID
	}

	for _, r := range records {
		_, err := sq.Insert("records").
			Columns(recordColumns...).
			Values(
				uuid.NewString(),
				run,
				string(kind),
				r.SourceID,
				r.FunctionIndex,
				r.StartLine,
				r.EndLine,
				r.Code,
				r.Signature,
				r.Container,
				nullableString(r.Label),
				nullableInt(r.Anchor),
				r.Features.UsesLibraries,
				r.Features.UsesDesignPatterns,
				r.Features.HasPragma,
				r.Features.HasAccessControl,
				r.Features.ArithmeticOpCount,
				now,
			).
			RunWith(tx).
			Exec()
		if err != nil {
			return fmt.Errorf("failed to insert record %s:%d: %w", r.SourceID, r.FunctionIndex, err)
		}
	}
	return nil
}
