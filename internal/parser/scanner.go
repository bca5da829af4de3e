package parser

// scanState is the per-scan lexical state. At most one of inString and inChar
// is set at a time.
type scanState struct {
	depth      int
	inString   bool
	inChar     bool
	escapeNext bool
	delimiter  rune
}

// inLiteral reports whether braces are currently inert
func (s *scanState) inLiteral() bool {
	return s.inString || s.inChar
}

// QuoteTrackingPolicy decides how quote characters open and close literals
// during a brace scan. One policy is used for a whole scan.
type QuoteTrackingPolicy interface {
	// observe updates the literal state for r and reports whether r was
	// consumed as a quote transition.
	observe(s *scanState, r rune) bool

	// Name identifies the policy in logs and tests.
	Name() string
}

// independentQuotes tracks double-quoted strings and single-quoted chars as two
// separate flags. A quote of one kind is inert while the other literal is open.
type independentQuotes struct{}

func (independentQuotes) Name() string { return "independent" }

func (independentQuotes) observe(s *scanState, r rune) bool {
	switch r {
	case '"':
		if s.inChar {
			return false
		}
		s.inString = !s.inString
		return true
	case '\'':
		if s.inString {
			return false
		}
		s.inChar = !s.inChar
		return true
	}
	return false
}

// sharedDelimiter tracks one string flag and remembers which quote opened it,
// so only the same quote closes the literal.
type sharedDelimiter struct{}

func (sharedDelimiter) Name() string { return "shared" }

func (sharedDelimiter) observe(s *scanState, r rune) bool {
	if s.inString {
		if r == s.delimiter {
			s.inString = false
			return true
		}
		return false
	}
	if (r == '"' || r == '\'') && !s.inChar {
		s.inString = true
		s.delimiter = r
		return true
	}
	return false
}

var (
	// IndependentQuotes is the Rust-family discipline: '"' and '\'' toggle
	// separate string and char flags.
	IndependentQuotes QuoteTrackingPolicy = independentQuotes{}

	// SharedDelimiter is the C-like discipline used for the JS/TS family: a single
	// string flag closed only by the quote that opened it.
	SharedDelimiter QuoteTrackingPolicy = sharedDelimiter{}
)

// FindMatchingClose returns the offset just past the '}' that balances the '{'
// at openPos. It reports false when openPos does not index '{' or when the
// text ends before depth returns to zero.
func FindMatchingClose(text string, openPos int, policy QuoteTrackingPolicy) (int, bool) {
	if openPos < 0 || openPos >= len(text) || text[openPos] != '{' {
		return 0, false
	}
	if policy == nil {
		policy = SharedDelimiter
	}

	var st scanState
	for i, r := range text[openPos:] {
		if st.escapeNext {
			st.escapeNext = false
			continue
		}
		if r == '\\' {
			st.escapeNext = true
			continue
		}
		if policy.observe(&st, r) || st.inLiteral() {
			continue
		}

		switch r {
		case '{':
			st.depth++
		case '}':
			st.depth--
			if st.depth == 0 {
				return openPos + i + 1, true
			}
		}
	}

	return 0, false
}
