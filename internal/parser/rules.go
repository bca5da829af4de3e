package parser

import (
	"strings"

	"github.com/dshills/intentcheck/pkg/types"
)

// patternTemplate renders a literal search prefix for a symbol name
type patternTemplate struct {
	prefix string
	suffix string
}

func (p patternTemplate) render(name string) string {
	return p.prefix + name + p.suffix
}

// fnCall builds a template for "<prefix>NAME("
func fnCall(prefix string) patternTemplate {
	return patternTemplate{prefix: prefix, suffix: "("}
}

// languageRules holds everything the locator needs for one language family.
// Patterns are tried in slice order and the first one that occurs wins.
type languageRules struct {
	lang        types.Language
	patterns    []patternTemplate
	decorations []string
	quotes      QuoteTrackingPolicy
}

// isDecoration reports whether a trimmed line is metadata attached to the
// definition that follows it
func (r *languageRules) isDecoration(trimmed string) bool {
	for _, marker := range r.decorations {
		if strings.HasPrefix(trimmed, marker) {
			return true
		}
	}
	return false
}

var rustRules = languageRules{
	lang: types.LangRust,
	patterns: []patternTemplate{
		fnCall("pub async fn "),
		fnCall("pub fn "),
		fnCall("async fn "),
		fnCall("fn "),
		fnCall("pub unsafe fn "),
		fnCall("unsafe fn "),
	},
	decorations: []string{"#[", "///", "//!"},
	quotes:      IndependentQuotes,
}

var javascriptRules = languageRules{
	lang: types.LangJavaScript,
	patterns: []patternTemplate{
		fnCall("async function "),
		fnCall("function "),
		{prefix: "const ", suffix: " = ("},
		{prefix: "let ", suffix: " = ("},
		{prefix: "var ", suffix: " = ("},
		{prefix: "const ", suffix: " = async ("},
		fnCall("export function "),
		fnCall("export async function "),
		fnCall(""), // method definition
	},
	quotes: SharedDelimiter,
}

var pythonRules = languageRules{
	lang: types.LangPython,
	patterns: []patternTemplate{
		fnCall("async def "),
		fnCall("def "),
	},
	decorations: []string{"@", "#"},
}

// rulesFor returns the rule table for a language, or nil when unsupported
func rulesFor(lang types.Language) *languageRules {
	switch lang {
	case types.LangRust:
		return &rustRules
	case types.LangJavaScript:
		return &javascriptRules
	case types.LangPython:
		return &pythonRules
	default:
		return nil
	}
}

// Patterns returns the rendered search patterns for name in priority order.
// It returns nil for unsupported languages.
func Patterns(lang types.Language, name string) []string {
	rules := rulesFor(lang)
	if rules == nil {
		return nil
	}
	out := make([]string, len(rules.patterns))
	for i, p := range rules.patterns {
		out[i] = p.render(name)
	}
	return out
}
