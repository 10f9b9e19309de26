package scanner

// enumState is the per-file state of ExtractAll.
type enumState struct {
	inFunction bool
	start      int
	stack      []int

	inWrapper    bool
	wrapperDepth int
	container    string
}

func (st *enumState) begin(i int) {
	st.inFunction = true
	st.start = i
	st.stack = st.stack[:0]
}

// pop removes one scope and reports whether the function's stack emptied.
func (st *enumState) pop() bool {
	if len(st.stack) == 0 {
		return false
	}
	st.stack = st.stack[:len(st.stack)-1]
	return len(st.stack) == 0
}

func (st *enumState) closeWrapper() {
	if !st.inWrapper {
		return
	}
	st.wrapperDepth--
	if st.wrapperDepth <= 0 {
		st.inWrapper = false
		st.wrapperDepth = 0
		st.container = ""
	}
}

// ExtractAll returns every function block in lines, in start-line order.
// Interface declarations without a body produce no block, and a function that
// never closes before end of file is dropped.
func (s *Scanner) ExtractAll(lines []string) []CodeBlock {
	var (
		st     enumState
		blocks []CodeBlock
	)

	emit := func(end int) {
		b := s.block(lines, st.start, end)
		b.Container = st.container
		blocks = append(blocks, b)
		st.inFunction = false
	}

	for i, line := range lines {
		sh := shapeOf(line)

		if name, ok := s.rules.Wrapper(line); ok {
			st.inFunction = false
			st.stack = st.stack[:0]
			st.inWrapper = true
			st.container = name
			st.wrapperDepth = 0
			if sh.opens {
				st.wrapperDepth++
			}
			if sh.trailingClose {
				st.closeWrapper()
			}
			continue
		}

		if sh.leadingClose {
			if st.inFunction {
				if st.pop() {
					emit(i)
				}
			} else {
				st.closeWrapper()
			}
		}

		if s.rules.IsDeclaration(line) && !s.rules.IsBodilessDeclaration(line) {
			st.begin(i)
		}

		if sh.opens {
			if st.inFunction {
				st.stack = append(st.stack, i)
			} else if st.inWrapper {
				st.wrapperDepth++
			}
		}

		if sh.trailingClose {
			if st.inFunction {
				if st.pop() {
					emit(i)
				}
			} else {
				st.closeWrapper()
			}
		}
	}

	return blocks
}
