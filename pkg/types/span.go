package types

import "errors"

// LanguageClass describes how a language marks block boundaries
type LanguageClass string

const (
	ClassUnknown              LanguageClass = "unknown"
	ClassBraceDelimited       LanguageClass = "brace"
	ClassIndentationDelimited LanguageClass = "indentation"
)

// Language identifies a supported source language family
type Language string

const (
	LangUnknown    Language = "unknown"
	LangRust       Language = "rust"
	LangJavaScript Language = "javascript" // js, jsx, ts, tsx
	LangPython     Language = "python"
)

// Class returns the block-delimiting class of the language
func (l Language) Class() LanguageClass {
	switch l {
	case LangRust, LangJavaScript:
		return ClassBraceDelimited
	case LangPython:
		return ClassIndentationDelimited
	default:
		return ClassUnknown
	}
}

// Supported reports whether the language has locator rules
func (l Language) Supported() bool {
	return l.Class() != ClassUnknown
}

// SourceSpan is a contiguous [Start, End) byte range of a file's content.
// Content holds a copy of the covered text.
type SourceSpan struct {
	Start   int
	End     int
	Content string
}

// Len returns the span length in bytes
func (s SourceSpan) Len() int {
	return s.End - s.Start
}

// Validate checks the span offsets against its content
func (s SourceSpan) Validate() error {
	if s.Start < 0 || s.End < s.Start {
		return errors.New("span start must be non-negative and not after end")
	}
	if len(s.Content) != s.End-s.Start {
		return errors.New("span content length does not match offsets")
	}
	return nil
}
