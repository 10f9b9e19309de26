package scanner

import (
	"errors"
	"strings"
)

// ErrAnchorOutOfRange is returned when an anchor does not reference a line of
// the scanned file.
var ErrAnchorOutOfRange = errors.New("anchor out of range")

// CodeBlock is a span of source lines believed to hold one function.
// Line numbers are 1-based and inclusive.
type CodeBlock struct {
	SourceID      string `json:"source"`
	StartLine     int    `json:"start_line"`
	EndLine       int    `json:"end_line"`
	Text          string `json:"text"`
	FunctionIndex int    `json:"function_index"`
	Signature     string `json:"signature,omitempty"`
	Container     string `json:"container,omitempty"`
}

// IsEmpty reports whether the block is the zero value returned for a no-match.
func (b CodeBlock) IsEmpty() bool {
	return b.StartLine == 0 && b.EndLine == 0 && b.Text == ""
}

// LineCount returns the number of lines spanned by the block.
func (b CodeBlock) LineCount() int {
	if b.IsEmpty() {
		return 0
	}
	return b.EndLine - b.StartLine + 1
}

// WithSource returns a copy of b stamped with the given source identifier.
func (b CodeBlock) WithSource(id string) CodeBlock {
	b.SourceID = id
	return b
}

// MatchKind classifies the outcome of an anchored extraction.
type MatchKind int

const (
	// MatchNone means no enclosing function or wrapper was found.
	MatchNone MatchKind = iota
	// MatchEnclosed means the anchor lies inside a function whose braces closed.
	MatchEnclosed
	// MatchDegenerate means the anchor sits at wrapper level; the block is the
	// anchor line alone.
	MatchDegenerate
	// MatchTruncated means the function never closed before end of file.
	MatchTruncated
)

func (k MatchKind) String() string {
	switch k {
	case MatchEnclosed:
		return "enclosed"
	case MatchDegenerate:
		return "degenerate"
	case MatchTruncated:
		return "truncated"
	default:
		return "none"
	}
}

// MarshalText renders the kind by name in JSON output.
func (k MatchKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Match is the result of ExtractAnchored.
type Match struct {
	Anchor int       `json:"anchor"`
	Kind   MatchKind `json:"kind"`
	Block  CodeBlock `json:"block"`
}

// Found reports whether the match produced a block.
func (m Match) Found() bool {
	return m.Kind != MatchNone
}

// SplitLines splits src into lines, keeping each line's terminator so that
// concatenating any span reproduces the original text.
func SplitLines(src string) []string {
	if src == "" {
		return nil
	}
	lines := strings.SplitAfter(src, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// joinSpan concatenates lines[start:end+1] (0-based indexes).
func joinSpan(lines []string, start, end int) string {
	return strings.Join(lines[start:end+1], "")
}
