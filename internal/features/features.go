// Package features computes the per-file signals attached to every extracted
// function record.
package features

import (
	"strings"

	"github.com/mvp-joe/openvulns/internal/rules"
)

// Vector holds the per-file feature signals.
type Vector struct {
	UsesLibraries      bool `json:"use_of_libraries"`
	UsesDesignPatterns bool `json:"use_of_design_patterns"`
	HasPragma          bool `json:"pragma_directives"`
	HasAccessControl   bool `json:"access_control"`
	ArithmeticOpCount  int  `json:"num_arithmetic_ops"`
}

// Extractor computes feature vectors. It holds no state beyond its rules.
type Extractor struct {
	rules *rules.Rules
}

// New creates an Extractor. A nil table selects rules.Default().
func New(r *rules.Rules) *Extractor {
	if r == nil {
		r = rules.Default()
	}
	return &Extractor{rules: r}
}

// Extract computes the feature vector of text. Tokens inside comments and
// strings count like any other text.
func (e *Extractor) Extract(text string) Vector {
	return Vector{
		UsesLibraries:      strings.Contains(text, e.rules.LibraryToken),
		UsesDesignPatterns: containsAny(text, e.rules.DesignPatternKeywords),
		HasPragma:          strings.Contains(text, e.rules.PragmaToken),
		HasAccessControl:   strings.Contains(text, e.rules.AccessControlToken),
		ArithmeticOpCount:  len(e.rules.ArithmeticOperators.FindAllStringIndex(text, -1)),
	}
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}
