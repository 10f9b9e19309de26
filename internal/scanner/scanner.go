// Package scanner locates function boundaries in Solidity source using
// line-oriented pattern matching and brace counting.
//
// Two entry points share the same line rules: ExtractAnchored resolves the
// function enclosing a reported line, and ExtractAll enumerates every function
// body in a file. Neither builds a syntax tree; braces inside strings and
// comments are counted like any other.
package scanner

import (
	"strings"

	"github.com/mvp-joe/openvulns/internal/rules"
)

// Options configures a Scanner.
type Options struct {
	// Rules is the pattern table. Defaults to rules.Default().
	Rules *rules.Rules

	// MaxBackward caps how many lines the anchored backward scan may walk.
	// Zero means the scan is bounded only by the start of the file.
	MaxBackward int
}

// Scanner is stateless between calls and safe for concurrent use.
type Scanner struct {
	rules       *rules.Rules
	maxBackward int
}

// New creates a Scanner.
func New(opts Options) *Scanner {
	r := opts.Rules
	if r == nil {
		r = rules.Default()
	}
	maxBackward := opts.MaxBackward
	if maxBackward < 0 {
		maxBackward = 0
	}
	return &Scanner{rules: r, maxBackward: maxBackward}
}

// Rules returns the scanner's rule table.
func (s *Scanner) Rules() *rules.Rules {
	return s.rules
}

// lineShape is the brace classification of one line. Transitions are applied
// in field order: leading close, open, trailing close.
type lineShape struct {
	leadingClose  bool
	opens         bool
	trailingClose bool
}

func shapeOf(line string) lineShape {
	t := strings.TrimSpace(line)
	leading := strings.HasPrefix(t, "}")
	return lineShape{
		leadingClose:  leading,
		opens:         strings.Contains(t, "{"),
		trailingClose: strings.HasSuffix(t, "}") && !(leading && len(t) == 1),
	}
}

// block builds a CodeBlock from 0-based inclusive indexes.
func (s *Scanner) block(lines []string, start, end int) CodeBlock {
	return CodeBlock{
		StartLine:     start + 1,
		EndLine:       end + 1,
		Text:          joinSpan(lines, start, end),
		FunctionIndex: start + 1,
		Signature:     s.rules.ExtractSignature(lines[start]),
	}
}
