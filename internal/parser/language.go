package parser

import (
	"path"
	"strings"

	"github.com/dshills/intentcheck/pkg/types"
)

// extensionLanguages is the fixed filename suffix table. Matching is exact and
// case-sensitive: "main.RS" is not a Rust file.
var extensionLanguages = map[string]types.Language{
	"rs":  types.LangRust,
	"js":  types.LangJavaScript,
	"jsx": types.LangJavaScript,
	"ts":  types.LangJavaScript,
	"tsx": types.LangJavaScript,
	"py":  types.LangPython,
}

// DetectLanguage maps a filename to its language family from the extension alone
func DetectLanguage(filename string) types.Language {
	ext := path.Ext(strings.ReplaceAll(filename, "\\", "/"))
	if ext == "" {
		return types.LangUnknown
	}
	if lang, ok := extensionLanguages[ext[1:]]; ok {
		return lang
	}
	return types.LangUnknown
}

// IsSourceFile reports whether the locator has rules for the filename
func IsSourceFile(filename string) bool {
	return DetectLanguage(filename).Supported()
}
