// Package parser recovers the source text of a single named definition from
// Rust, JavaScript/TypeScript and Python files without building an AST.
//
// # Basic Usage
//
//	span, ok := parser.Locate(content, "add", "src/math.rs")
//	if !ok {
//	    fmt.Println("function not found")
//	    return
//	}
//	fmt.Printf("bytes %d-%d:\n%s\n", span.Start, span.End, span.Content)
//
// # Languages
//
// The language is chosen from the filename extension, exact and case-sensitive:
//   - rs: brace-delimited, Rust rules
//   - js, jsx, ts, tsx: brace-delimited, C-like rules
//   - py: indentation-delimited
//
// Any other extension is never matched.
//
// # Matching
//
// Each language has an ordered list of literal patterns built from the symbol
// name ("pub fn NAME(", "function NAME(", "def NAME(" and so on). The first
// pattern that occurs anywhere in the content wins and only its first
// occurrence is tried. This is a heuristic: a mention of the name in an
// earlier comment can shadow the real definition.
//
// From the hit the locator walks backward over blank lines and decoration
// lines (#[..], ///, //! for Rust; @ and # for Python) so that attributes
// and doc comments are part of the span. JS spans start at the hit.
//
// Brace languages end at the '}' matching the first '{' after the hit, found
// by FindMatchingClose. Python ends before the first non-blank line indented
// at or below the def line.
//
// # Quote Tracking
//
// FindMatchingClose ignores braces inside literals. Two disciplines exist:
//
//	parser.IndependentQuotes // Rust: separate "string" and 'char' flags
//	parser.SharedDelimiter   // JS/TS: one flag, closed by the opening quote
//
// A backslash always skips the next character.
//
// # Errors
//
// There are none. Malformed input, unbalanced braces and unknown symbols all
// report ok == false.
package parser
