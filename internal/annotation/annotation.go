// Package annotation reads the "@vulnerable_at_lines" markers that labeled
// corpora place in a file header, and the "// <yes> <report> LABEL" comments
// that name each reported vulnerability.
package annotation

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/mvp-joe/openvulns/internal/rules"
)

// ErrMalformedAnnotation is returned when the marker's list has an entry that
// is not a positive integer.
var ErrMalformedAnnotation = errors.New("malformed annotation")

// Annotation is the parsed marker of one file.
type Annotation struct {
	// Line is the 1-based line carrying the marker, 0 when the file has none.
	Line int

	// Anchors are the reported line numbers, sorted and de-duplicated.
	Anchors []int

	// Contiguous is true when all anchors form a single run of two or more
	// consecutive lines.
	Contiguous bool
}

// Found reports whether the file carried a marker.
func (a Annotation) Found() bool {
	return a.Line > 0
}

// Target is one extraction request: the first anchor of a run plus the label
// read from the report comment above it.
type Target struct {
	Anchor int
	Run    []int
	Label  *string
}

// Scanner extracts annotations using a rule table.
type Scanner struct {
	rules *rules.Rules
}

// New creates a Scanner. A nil table selects rules.Default().
func New(r *rules.Rules) *Scanner {
	if r == nil {
		r = rules.Default()
	}
	return &Scanner{rules: r}
}

// Scan finds the first marker in lines and parses its anchor list.
// A file without a marker yields a zero Annotation and no error.
func (s *Scanner) Scan(lines []string) (Annotation, error) {
	for i, line := range lines {
		m := s.rules.AnnotationMarker.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		anchors, err := parseList(m[1])
		if err != nil {
			return Annotation{}, fmt.Errorf("line %d: %w", i+1, err)
		}
		runs := Runs(anchors)
		return Annotation{
			Line:       i + 1,
			Anchors:    anchors,
			Contiguous: len(runs) == 1 && len(runs[0]) > 1,
		}, nil
	}
	return Annotation{}, nil
}

// Targets returns one Target per contiguous run of anchors, labeled from the
// report comment preceding the run's first line.
func (s *Scanner) Targets(lines []string, a Annotation) []Target {
	runs := Runs(a.Anchors)
	targets := make([]Target, 0, len(runs))
	for _, run := range runs {
		targets = append(targets, Target{
			Anchor: run[0],
			Run:    run,
			Label:  s.Label(lines, run[0]),
		})
	}
	return targets
}

// Label returns the vulnerability label from the line above anchor, or nil
// when that line is not a report comment.
func (s *Scanner) Label(lines []string, anchor int) *string {
	if anchor < 2 || anchor-2 >= len(lines) {
		return nil
	}
	prev := lines[anchor-2]
	loc := s.rules.ReportMarker.FindStringIndex(prev)
	if loc == nil {
		return nil
	}
	label := prev[loc[1]:]
	label = strings.NewReplacer("\t", "", "\n", "", "\r", "").Replace(label)
	label = strings.TrimSpace(label)
	if label == "" {
		return nil
	}
	return &label
}

// Runs sorts and de-duplicates anchors and splits them into maximal runs of
// consecutive integers.
func Runs(anchors []int) [][]int {
	if len(anchors) == 0 {
		return nil
	}
	sorted := normalize(anchors)

	var runs [][]int
	current := []int{sorted[0]}
	for _, a := range sorted[1:] {
		if a == current[len(current)-1]+1 {
			current = append(current, a)
			continue
		}
		runs = append(runs, current)
		current = []int{a}
	}
	return append(runs, current)
}

func normalize(anchors []int) []int {
	out := append([]int(nil), anchors...)
	sort.Ints(out)
	n := 0
	for i, a := range out {
		if i > 0 && a == out[n-1] {
			continue
		}
		out[n] = a
		n++
	}
	return out[:n]
}

func parseList(list string) ([]int, error) {
	list = strings.TrimSpace(list)
	list = strings.TrimSpace(strings.TrimSuffix(list, "*/"))

	var anchors []int
	for _, field := range strings.Split(list, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		n, err := strconv.Atoi(field)
		if err != nil || n < 1 {
			return nil, fmt.Errorf("%w: %q is not a line number", ErrMalformedAnnotation, field)
		}
		anchors = append(anchors, n)
	}
	if len(anchors) == 0 {
		return nil, fmt.Errorf("%w: empty line list", ErrMalformedAnnotation)
	}
	return normalize(anchors), nil
}
