package scanner

import "fmt"

// braceCount tracks the opens and closes seen since a function's declaration.
type braceCount struct {
	open  int
	close int
}

func (c braceCount) balanced() bool {
	return c.open > 0 && c.open == c.close
}

// apply advances the count by one line and reports whether the function
// closed on it.
func (c *braceCount) apply(sh lineShape) bool {
	if sh.leadingClose {
		c.close++
		if c.balanced() {
			return true
		}
	}
	if sh.opens {
		c.open++
	}
	if sh.trailingClose {
		c.close++
		if c.balanced() {
			return true
		}
	}
	return false
}

// backwardResult is the outcome of walking up from an anchor.
type backwardResult int

const (
	backwardExhausted backwardResult = iota
	backwardDeclaration
	backwardWrapper
	backwardClosedEarly
)

// ExtractAnchored returns the function block enclosing the 1-based anchor
// line. Anchors at wrapper level, including a wrapper header itself, yield a
// single-line degenerate block; no declaration or wrapper above the anchor
// yields MatchNone.
func (s *Scanner) ExtractAnchored(lines []string, anchor int) (Match, error) {
	if anchor < 1 || anchor > len(lines) {
		return Match{Anchor: anchor}, fmt.Errorf("%w: line %d of %d", ErrAnchorOutOfRange, anchor, len(lines))
	}

	idx := anchor - 1
	var (
		start int
		count braceCount
	)

	bodiless := s.rules.IsBodilessDeclaration(lines[idx])
	if s.rules.IsDeclaration(lines[idx]) && !bodiless {
		start = idx
	} else if _, ok := s.rules.Wrapper(lines[idx]); ok {
		return s.match(lines, anchor, idx, idx, MatchDegenerate), nil
	} else {
		var res backwardResult
		start, count, res = s.scanBackward(lines, idx)
		if bodiless && res != backwardDeclaration {
			// Interface or abstract declaration outside any function body.
			return s.match(lines, anchor, idx, idx, MatchEnclosed), nil
		}
		switch res {
		case backwardExhausted:
			return Match{Anchor: anchor, Kind: MatchNone}, nil
		case backwardWrapper, backwardClosedEarly:
			return s.match(lines, anchor, idx, idx, MatchDegenerate), nil
		}
	}

	for i := idx; i < len(lines); i++ {
		sh := shapeOf(lines[i])
		if i == start && s.rules.IsMalformedTransition(lines[i]) {
			// The leading "}" belongs to the previous function.
			sh.leadingClose = false
		}
		if count.apply(sh) {
			return s.match(lines, anchor, start, i, MatchEnclosed), nil
		}
	}

	return s.match(lines, anchor, start, len(lines)-1, MatchTruncated), nil
}

// scanBackward walks up from idx looking for the nearest declaration. When one
// is found the lines between it and the anchor are replayed so the forward
// scan resumes with the correct counts. If the function already closed before
// the anchor, the anchor sits between functions. Bodiless declarations, such
// as function-type locals, are brace-neutral and do not stop the walk.
func (s *Scanner) scanBackward(lines []string, idx int) (int, braceCount, backwardResult) {
	lowest := 0
	if s.maxBackward > 0 && idx-s.maxBackward > 0 {
		lowest = idx - s.maxBackward
	}

	for j := idx - 1; j >= lowest; j-- {
		line := lines[j]
		if s.rules.IsDeclaration(line) {
			if s.rules.IsBodilessDeclaration(line) {
				continue
			}
			var count braceCount
			for k := j; k < idx; k++ {
				sh := shapeOf(lines[k])
				if k == j && s.rules.IsMalformedTransition(lines[k]) {
					sh.leadingClose = false
				}
				if count.apply(sh) {
					return j, count, backwardClosedEarly
				}
			}
			return j, count, backwardDeclaration
		}
		if _, ok := s.rules.Wrapper(line); ok {
			return j, braceCount{}, backwardWrapper
		}
	}
	return 0, braceCount{}, backwardExhausted
}

func (s *Scanner) match(lines []string, anchor, start, end int, kind MatchKind) Match {
	var b CodeBlock
	if kind == MatchDegenerate {
		b = CodeBlock{
			StartLine:     anchor,
			EndLine:       anchor,
			Text:          lines[anchor-1],
			FunctionIndex: anchor,
		}
	} else {
		b = s.block(lines, start, end)
	}
	b.Container = s.containerAbove(lines, start)
	return Match{Anchor: anchor, Kind: kind, Block: b}
}

// containerAbove returns the name of the nearest wrapper at or above idx.
func (s *Scanner) containerAbove(lines []string, idx int) string {
	for j := idx; j >= 0; j-- {
		if name, ok := s.rules.Wrapper(lines[j]); ok {
			return name
		}
	}
	return ""
}
