package parser

import (
	"strings"
	"unicode"

	"github.com/dshills/intentcheck/pkg/types"
)

// Locator recovers the source span of one named definition.
// Implementations must be safe for concurrent use.
type Locator interface {
	Locate(content, symbol, filename string) (types.SourceSpan, bool)
}

// HeuristicLocator finds definitions by first-occurrence substring search over
// per-language pattern tables. A symbol mentioned in a comment or string before
// its real definition can produce a false match; this is a known limitation of
// the heuristic and is kept deliberately.
type HeuristicLocator struct{}

// New creates a heuristic locator
func New() *HeuristicLocator {
	return &HeuristicLocator{}
}

var defaultLocator Locator = New()

// Locate finds symbol in content using the default locator
func Locate(content, symbol, filename string) (types.SourceSpan, bool) {
	return defaultLocator.Locate(content, symbol, filename)
}

// Locate returns the span of symbol's definition in content. The language is
// taken from the filename extension; unsupported extensions never match.
func (l *HeuristicLocator) Locate(content, symbol, filename string) (types.SourceSpan, bool) {
	return l.LocateLanguage(content, symbol, DetectLanguage(filename))
}

// LocateLanguage is Locate with an explicit language
func (l *HeuristicLocator) LocateLanguage(content, symbol string, lang types.Language) (types.SourceSpan, bool) {
	rules := rulesFor(lang)
	if rules == nil || symbol == "" || content == "" {
		return types.SourceSpan{}, false
	}

	hit, ok := firstHit(content, symbol, rules)
	if !ok {
		return types.SourceSpan{}, false
	}
	start := absorbDecorations(content, hit, rules)

	var end int
	switch lang.Class() {
	case types.ClassBraceDelimited:
		end, ok = braceEnd(content, hit, rules.quotes)
	case types.ClassIndentationDelimited:
		end, ok = indentEnd(content, hit)
	default:
		ok = false
	}
	if !ok {
		return types.SourceSpan{}, false
	}

	return types.SourceSpan{
		Start:   start,
		End:     end,
		Content: strings.Clone(content[start:end]),
	}, true
}

// firstHit returns the offset of the first pattern, in priority order, that
// occurs anywhere in content. Only its lowest occurrence is considered.
func firstHit(content, symbol string, rules *languageRules) (int, bool) {
	for _, p := range rules.patterns {
		if idx := strings.Index(content, p.render(symbol)); idx >= 0 {
			return idx, true
		}
	}
	return 0, false
}

// absorbDecorations walks backward from hit over contiguous blank and
// decoration lines, starting with the partial line before hit. It returns the
// first non-blank offset of the earliest decoration absorbed, or hit.
func absorbDecorations(content string, hit int, rules *languageRules) int {
	start := hit
	lineEnd := hit
	for {
		lineStart := strings.LastIndexByte(content[:lineEnd], '\n') + 1
		line := content[lineStart:lineEnd]
		trimmed := strings.TrimSpace(line)

		switch {
		case trimmed == "":
		case rules.isDecoration(trimmed):
			start = lineStart + len(line) - len(strings.TrimLeftFunc(line, unicode.IsSpace))
		default:
			return start
		}

		if lineStart == 0 {
			return start
		}
		lineEnd = lineStart - 1
	}
}

// braceEnd finds the first '{' at or after hit and scans to its match
func braceEnd(content string, hit int, policy QuoteTrackingPolicy) (int, bool) {
	rel := strings.IndexByte(content[hit:], '{')
	if rel < 0 {
		return 0, false
	}
	return FindMatchingClose(content, hit+rel, policy)
}

// indentEnd walks the lines after the definition line at hit and returns the
// offset just past the last line belonging to its indented body. Blank lines
// are absorbed; the first non-blank line indented at or below the definition
// line ends the body.
func indentEnd(content string, hit int) (int, bool) {
	lineStart := strings.LastIndexByte(content[:hit], '\n') + 1
	end := nextLine(content, hit)
	base := indentation(content[lineStart:end])

	for pos := end; pos < len(content); {
		next := nextLine(content, pos)
		line := content[pos:next]

		if strings.TrimSpace(line) != "" && indentation(line) <= base {
			break
		}

		end = next
		pos = next
	}

	return end, true
}

// nextLine returns the offset just past the newline ending the line that
// contains pos, or len(content) for the last line.
func nextLine(content string, pos int) int {
	if i := strings.IndexByte(content[pos:], '\n'); i >= 0 {
		return pos + i + 1
	}
	return len(content)
}

// indentation counts leading whitespace characters
func indentation(line string) int {
	n := 0
	for _, r := range line {
		if r == '\n' || !unicode.IsSpace(r) {
			break
		}
		n++
	}
	return n
}
