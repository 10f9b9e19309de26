// Package dataset turns extracted code blocks into dataset rows with a fixed
// column set, and validates and serializes those rows.
package dataset

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"strconv"

	"github.com/mvp-joe/openvulns/internal/features"
	"github.com/mvp-joe/openvulns/internal/scanner"
)

var (
	// ErrColumnMismatch is returned when a header or row does not match Columns.
	ErrColumnMismatch = errors.New("column mismatch")
	// ErrEmptyDataset is returned when a dataset has no rows.
	ErrEmptyDataset = errors.New("empty dataset")
	// ErrUnknownKind is returned for a dataset kind other than labeled or all.
	ErrUnknownKind = errors.New("unknown dataset kind")
)

// Columns is the fixed dataset schema, in order.
var Columns = []string{
	"source",
	"function_index",
	"function_code",
	"vulnerability_label",
	"use_of_libraries",
	"use_of_design_patterns",
	"pragma_directives",
	"access_control",
	"num_arithmetic_ops",
}

// Kind names a dataset: anchored on annotations, or every function.
type Kind string

const (
	KindLabeled Kind = "labeled"
	KindAll     Kind = "all"
)

// ParseKind validates a dataset kind name.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindLabeled, KindAll:
		return Kind(s), nil
	}
	return "", fmt.Errorf("%w: %q (want %q or %q)", ErrUnknownKind, s, KindLabeled, KindAll)
}

// Record is one extracted function with its file-level features.
type Record struct {
	SourceID      string
	FunctionIndex int
	StartLine     int
	EndLine       int
	Code          string
	Signature     string
	Container     string
	Label         *string
	Anchor        int
	Features      features.Vector
}

// Assemble merges a block, its file's features and an optional label into a
// Record. anchor is 0 for enumerated functions.
func Assemble(block scanner.CodeBlock, fv features.Vector, label *string, anchor int) Record {
	return Record{
		SourceID:      block.SourceID,
		FunctionIndex: block.FunctionIndex,
		StartLine:     block.StartLine,
		EndLine:       block.EndLine,
		Code:          block.Text,
		Signature:     block.Signature,
		Container:     block.Container,
		Label:         label,
		Anchor:        anchor,
		Features:      fv,
	}
}

// LabelString returns the label or "" when unset.
func (r Record) LabelString() string {
	if r.Label == nil {
		return ""
	}
	return *r.Label
}

// Row renders the record's values in Columns order. Booleans render as 0 or 1
// and a nil label as an empty cell.
func (r Record) Row() []string {
	return []string{
		r.SourceID,
		strconv.Itoa(r.FunctionIndex),
		r.Code,
		r.LabelString(),
		boolCell(r.Features.UsesLibraries),
		boolCell(r.Features.UsesDesignPatterns),
		boolCell(r.Features.HasPragma),
		boolCell(r.Features.HasAccessControl),
		strconv.Itoa(r.Features.ArithmeticOpCount),
	}
}

func boolCell(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

// Validate checks a dataset's header against Columns, every row's width, and
// that at least one row exists.
func Validate(header []string, rows [][]string) error {
	if !slices.Equal(header, Columns) {
		return fmt.Errorf("%w: got %v, want %v", ErrColumnMismatch, header, Columns)
	}
	if len(rows) == 0 {
		return ErrEmptyDataset
	}
	for i, row := range rows {
		if len(row) != len(Columns) {
			return fmt.Errorf("%w: row %d has %d values, want %d", ErrColumnMismatch, i+1, len(row), len(Columns))
		}
	}
	return nil
}

// Sort orders records by source, then function index, then start line.
func Sort(records []Record) {
	slices.SortStableFunc(records, func(a, b Record) int {
		return cmp.Or(
			cmp.Compare(a.SourceID, b.SourceID),
			cmp.Compare(a.FunctionIndex, b.FunctionIndex),
			cmp.Compare(a.StartLine, b.StartLine),
		)
	})
}
