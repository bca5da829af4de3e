// Package types provides shared type definitions for intentcheck.
//
// This package defines domain values used across the span extractor, the chunk
// splitter, the git and chat collaborators and the verification pipeline.
//
// # Source Spans
//
// SourceSpan identifies the text of one located definition by byte offsets into
// the file content and carries a copy of that text:
//
//	span := types.SourceSpan{Start: 0, End: 42, Content: content[0:42]}
//	if err := span.Validate(); err != nil {
//	    log.Fatal(err)
//	}
//
// Language is derived from a filename suffix and maps onto a LanguageClass:
//
//	types.LangRust.Class()   // ClassBraceDelimited
//	types.LangPython.Class() // ClassIndentationDelimited
//
// # Chunks
//
// DefinitionChunk is one piece of an oversized file split at definition
// boundaries. A chunk sequence is ordered, non-overlapping and gap-free, so
// concatenating the Content fields reproduces the original text.
//
// # Verification Results
//
// FileChange, CodeAnalysis, RepositoryAnalysisResult, TestTargets and
// IntentVerificationResult describe the inputs and outputs of the verification
// pipeline. All of them carry json and yaml tags so reports can be rendered in
// either format.
package types
