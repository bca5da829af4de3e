package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLanguageClass(t *testing.T) {
	tests := []struct {
		lang      Language
		class     LanguageClass
		supported bool
	}{
		{LangRust, ClassBraceDelimited, true},
		{LangJavaScript, ClassBraceDelimited, true},
		{LangPython, ClassIndentationDelimited, true},
		{LangUnknown, ClassUnknown, false},
		{Language("go"), ClassUnknown, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.lang), func(t *testing.T) {
			assert.Equal(t, tt.class, tt.lang.Class())
			assert.Equal(t, tt.supported, tt.lang.Supported())
		})
	}
}

func TestSourceSpan(t *testing.T) {
	content := "fn a() {}"
	span := SourceSpan{Start: 3, End: 3 + len(content), Content: content}
	assert.Equal(t, len(content), span.Len())
	assert.NoError(t, span.Validate())

	assert.Error(t, SourceSpan{Start: 5, End: 2}.Validate())
	assert.Error(t, SourceSpan{Start: 0, End: 4, Content: "abc"}.Validate())
}

func TestDefinitionChunk(t *testing.T) {
	c := DefinitionChunk{Index: 0, Start: 10, End: 18, Content: "fn a() {"}
	assert.NoError(t, c.ValidateContent())
	assert.False(t, c.IsBlank())
	assert.Equal(t, 2, c.EstimateTokens())
	assert.Equal(t, c.ContentHash(), (&DefinitionChunk{Content: "fn a() {"}).ContentHash())

	blank := DefinitionChunk{Start: 0, End: 3, Content: " \n\t"}
	assert.True(t, blank.IsBlank())

	assert.Error(t, (&DefinitionChunk{}).ValidateContent())
	assert.Error(t, (&DefinitionChunk{Start: 0, End: 9, Content: "short"}).ValidateContent())
}

func TestFileChange(t *testing.T) {
	tests := []struct {
		name       string
		change     FileChange
		analyzable bool
		wantErr    error
	}{
		{"text", FileChange{Path: "a.rs", Status: ChangeModified, Content: "fn a() {}", HasContent: true}, true, nil},
		{"binary", FileChange{Path: "a.png", Status: ChangeAdded, Content: BinaryContent, HasContent: true}, false, nil},
		{"non utf8", FileChange{Path: "a.txt", Status: ChangeAdded, Content: NonUTF8Content, HasContent: true}, false, nil},
		{"deleted", FileChange{Path: "a.rs", Status: ChangeDeleted}, false, nil},
		{"no path", FileChange{Status: ChangeAdded}, false, ErrEmptyPath},
		{"bad status", FileChange{Path: "a.rs", Status: "renamed"}, false, ErrInvalidChange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.analyzable, tt.change.Analyzable())
			if tt.wantErr != nil {
				assert.ErrorIs(t, tt.change.Validate(), tt.wantErr)
			} else {
				assert.NoError(t, tt.change.Validate())
			}
		})
	}
}

func TestConfidenceValidation(t *testing.T) {
	assert.NoError(t, (&CodeAnalysis{Confidence: 1}).Validate())
	assert.ErrorIs(t, (&CodeAnalysis{Confidence: 1.5}).Validate(), ErrInvalidConfidence)
	assert.ErrorIs(t, (&IntentVerificationResult{Confidence: -0.1}).Validate(), ErrInvalidConfidence)
}

func TestTestTargets(t *testing.T) {
	assert.True(t, (&TestTargets{}).IsEmpty())
	assert.False(t, (&TestTargets{Files: []string{"a.rs"}}).IsEmpty())

	withCode := TestTargetsWithCode{
		FunctionContents: []FunctionContent{
			{Name: "add", FilePath: "src/lib.rs", Content: "fn add() {}"},
			{Name: "sub", Error: "function not found in repository"},
		},
		FileContents: []FileContent{
			{Path: "src/lib.rs", Content: "fn add() {}"},
			{Path: "missing.rs", Error: "file not found"},
		},
	}
	assert.Equal(t, 1, withCode.FoundFunctions())
	assert.True(t, withCode.FileContents[0].Found())
	assert.False(t, withCode.FileContents[1].Found())
}
