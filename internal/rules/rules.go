// Package rules holds the pattern table shared by the function-boundary
// scanner, the annotation scanner and the feature extractor.
//
// Every regular expression and keyword the extraction pipeline matches against
// lives here so the heuristics can be read, tuned and tested in one place.
package rules

import (
	"regexp"
	"strings"
)

var (
	signaturePattern      = regexp.MustCompile(`\b(?:function|constructor|modifier|fallback|receive)\b\s*[\w$]*\s*\([^)]*\)`)
	malformedClosePattern = regexp.MustCompile(`^\s*\}\s*function\b`)
	annotationPattern     = regexp.MustCompile(`@vulnerable_at_lines\s*:\s*([^\r\n]*)`)
	reportPattern         = regexp.MustCompile(`//\s*<yes>\s*<report>\s*`)
	arithmeticPattern     = regexp.MustCompile(`\+|-|\*|/`)
	identifierPattern     = regexp.MustCompile(`^[A-Za-z_$][\w$]*`)
)

// Rules is the named rule table used by every line-oriented heuristic.
type Rules struct {
	// DeclarationPrefixes start a function (or function-like) declaration.
	DeclarationPrefixes []string

	// WrapperPrefixes open a contract, library or interface body.
	WrapperPrefixes []string

	// Signature extracts "function name(args)" from a declaration line.
	Signature *regexp.Regexp

	// MalformedClose matches "} function foo() {" on a single line.
	MalformedClose *regexp.Regexp

	// AnnotationMarker matches "@vulnerable_at_lines: 10,11" and captures the list.
	AnnotationMarker *regexp.Regexp

	// ReportMarker matches the "// <yes> <report>" prefix of a label comment.
	ReportMarker *regexp.Regexp

	// Feature tokens.
	LibraryToken          string
	AccessControlToken    string
	PragmaToken           string
	DesignPatternKeywords []string
	ArithmeticOperators   *regexp.Regexp
}

// Default returns the rule table matching the conventions of the labeled and
// unlabeled Solidity corpora.
func Default() *Rules {
	return &Rules{
		DeclarationPrefixes: []string{"function"},
		WrapperPrefixes:     []string{"abstract contract", "contract", "library", "interface"},
		Signature:           signaturePattern,
		MalformedClose:      malformedClosePattern,
		AnnotationMarker:    annotationPattern,
		ReportMarker:        reportPattern,
		LibraryToken:        "import",
		AccessControlToken:  "require",
		PragmaToken:         "pragma",
		DesignPatternKeywords: []string{
			"inheritance",
			"state machine",
			"delegate",
		},
		ArithmeticOperators: arithmeticPattern,
	}
}

// WithDeclarationKeywords returns a copy of r that treats lines beginning with
// any of keywords as declarations. An empty list keeps the current prefixes.
func (r *Rules) WithDeclarationKeywords(keywords []string) *Rules {
	cp := *r
	if len(keywords) == 0 {
		return &cp
	}
	cp.DeclarationPrefixes = append([]string(nil), keywords...)
	return &cp
}

// IsDeclaration reports whether line opens a function declaration: its trimmed
// form begins with a declaration prefix, or it is the malformed
// "} function foo() {" transition.
func (r *Rules) IsDeclaration(line string) bool {
	t := strings.TrimSpace(line)
	for _, prefix := range r.DeclarationPrefixes {
		if hasTokenPrefix(t, prefix) {
			return true
		}
	}
	return r.IsMalformedTransition(line)
}

// IsMalformedTransition reports whether line closes a scope and declares a
// new function on the same line.
func (r *Rules) IsMalformedTransition(line string) bool {
	return r.MalformedClose.MatchString(line)
}

// IsBodilessDeclaration reports whether line is a declaration without a body,
// such as an interface function ending in ";".
func (r *Rules) IsBodilessDeclaration(line string) bool {
	if !r.IsDeclaration(line) || strings.Contains(line, "{") {
		return false
	}
	return strings.HasSuffix(strings.TrimSpace(line), ";")
}

// Wrapper reports whether line opens a wrapper scope and returns the wrapper's
// name when one follows the keyword.
func (r *Rules) Wrapper(line string) (string, bool) {
	t := strings.TrimSpace(line)
	for _, prefix := range r.WrapperPrefixes {
		if hasTokenPrefix(t, prefix) {
			rest := strings.TrimSpace(t[len(prefix):])
			return identifierPattern.FindString(rest), true
		}
	}
	return "", false
}

// ExtractSignature returns the declaration's signature, or "" when the line
// carries no parenthesized argument list.
func (r *Rules) ExtractSignature(line string) string {
	return strings.TrimSpace(r.Signature.FindString(line))
}

// hasTokenPrefix reports whether s starts with prefix followed by a
// non-identifier character (or the end of s).
func hasTokenPrefix(s, prefix string) bool {
	if !strings.HasPrefix(s, prefix) {
		return false
	}
	if len(s) == len(prefix) {
		return true
	}
	c := s[len(prefix)]
	return !(c == '_' || c == '$' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9'))
}
