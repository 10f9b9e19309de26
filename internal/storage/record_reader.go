package storage

import (
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/mvp-joe/openvulns/internal/dataset"
)

// RecordReader reads dataset records.
type RecordReader struct {
	db *sql.DB
}

// NewRecordReader creates a RecordReader.
func NewRecordReader(db *sql.DB) *RecordReader {
	return &RecordReader{db: db}
}

func selectRecords() sq.SelectBuilder {
	return sq.Select(
		"source", "function_index", "start_line", "end_line", "function_code",
		"signature", "container", "vulnerability_label", "anchor",
		"use_of_libraries", "use_of_design_patterns", "pragma_directives",
		"access_control", "num_arithmetic_ops",
	).
		From("records").
		OrderBy("source", "function_index", "start_line")
}

// ReadRecords returns every record of kind in dataset order.
func (r *RecordReader) ReadRecords(kind dataset.Kind) ([]dataset.Record, error) {
	rows, err := selectRecords().
		Where(sq.Eq{"kind": string(kind)}).
		RunWith(r.db).
		Query()
	if err != nil {
		return nil, fmt.Errorf("failed to query %s records: %w", kind, err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

// ReadRecordsBySource returns the records of kind extracted from one source.
func (r *RecordReader) ReadRecordsBySource(kind dataset.Kind, source string) ([]dataset.Record, error) {
	rows, err := selectRecords().
		Where(sq.Eq{"kind": string(kind), "source": source}).
		RunWith(r.db).
		Query()
	if err != nil {
		return nil, fmt.Errorf("failed to query records for %s: %w", source, err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

// CountRecords returns the number of records of kind.
func (r *RecordReader) CountRecords(kind dataset.Kind) (int, error) {
	var n int
	err := sq.Select("COUNT(*)").
		From("records").
		Where(sq.Eq{"kind": string(kind)}).
		RunWith(r.db).
		QueryRow().
		Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count %s records: %w", kind, err)
	}
	return n, nil
}

// Sources returns the distinct sources stored for kind, sorted.
func (r *RecordReader) Sources(kind dataset.Kind) ([]string, error) {
	rows, err := sq.Select("DISTINCT source").
		From("records").
		Where(sq.Eq{"kind": string(kind)}).
		OrderBy("source").
		RunWith(r.db).
		Query()
	if err != nil {
		return nil, fmt.Errorf("failed to query sources: %w", err)
	}
	defer rows.Close()

	var sources []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("failed to scan source: %w", err)
		}
		sources = append(sources, s)
	}
	return sources, rows.Err()
}

func scanRecords(rows *sql.Rows) ([]dataset.Record, error) {
	var records []dataset.Record
	for rows.Next() {
		var (
			rec    dataset.Record
			label  sql.NullString
			anchor sql.NullInt64
		)
		err := rows.Scan(
			&rec.SourceID, &rec.FunctionIndex, &rec.StartLine, &rec.EndLine, &rec.Code,
			&rec.Signature, &rec.Container, &label, &anchor,
			&rec.Features.UsesLibraries, &rec.Features.UsesDesignPatterns, &rec.Features.HasPragma,
			&rec.Features.HasAccessControl, &rec.Features.ArithmeticOpCount,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		if label.Valid {
			l := label.String
			rec.Label = &l
		}
		if anchor.Valid {
			rec.Anchor = int(anchor.Int64)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate records: %w", err)
	}
	return records, nil
}
