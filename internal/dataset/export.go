package dataset

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
)

// Format is an export file format.
type Format string

const (
	FormatCSV   Format = "csv"
	FormatJSONL Format = "jsonl"
)

// ParseFormat validates an export format name.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatCSV, FormatJSONL:
		return Format(s), nil
	}
	return "", fmt.Errorf("unknown export format %q (want %q or %q)", s, FormatCSV, FormatJSONL)
}

// Write serializes records to w in the given format.
func Write(w io.Writer, format Format, records []Record) error {
	switch format {
	case FormatCSV:
		return WriteCSV(w, records)
	case FormatJSONL:
		return WriteJSONL(w, records)
	}
	return fmt.Errorf("unknown export format %q", format)
}

// WriteCSV writes a header row followed by one row per record.
func WriteCSV(w io.Writer, records []Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, r := range records {
		if err := cw.Write(r.Row()); err != nil {
			return fmt.Errorf("failed to write row for %s:%d: %w", r.SourceID, r.FunctionIndex, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadCSV reads a dataset previously written by WriteCSV.
func ReadCSV(r io.Reader) ([]string, [][]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	all, err := cr.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read csv: %w", err)
	}
	if len(all) == 0 {
		return nil, nil, nil
	}
	return all[0], all[1:], nil
}

// jsonlRow mirrors Columns; the label is null for enumerated functions.
type jsonlRow struct {
	Source             string  `json:"source"`
	FunctionIndex      int     `json:"function_index"`
	FunctionCode       string  `json:"function_code"`
	VulnerabilityLabel *string `json:"vulnerability_label"`
	UseOfLibraries     int     `json:"use_of_libraries"`
	UseOfDesignPattern int     `json:"use_of_design_patterns"`
	PragmaDirectives   int     `json:"pragma_directives"`
	AccessControl      int     `json:"access_control"`
	NumArithmeticOps   int     `json:"num_arithmetic_ops"`
}

// WriteJSONL writes one JSON object per record, one per line.
func WriteJSONL(w io.Writer, records []Record) error {
	bw := bufio.NewWriter(w)
	enc := json.NewEncoder(bw)
	for _, r := range records {
		row := jsonlRow{
			Source:             r.SourceID,
			FunctionIndex:      r.FunctionIndex,
			FunctionCode:       r.Code,
			VulnerabilityLabel: r.Label,
			UseOfLibraries:     boolInt(r.Features.UsesLibraries),
			UseOfDesignPattern: boolInt(r.Features.UsesDesignPatterns),
			PragmaDirectives:   boolInt(r.Features.HasPragma),
			AccessControl:      boolInt(r.Features.HasAccessControl),
			NumArithmeticOps:   r.Features.ArithmeticOpCount,
		}
		if err := enc.Encode(row); err != nil {
			return fmt.Errorf("failed to encode %s:%d: %w", r.SourceID, r.FunctionIndex, err)
		}
	}
	return bw.Flush()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
