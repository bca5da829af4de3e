package types

import "fmt"

// ChangeType describes how a file changed between two commits
type ChangeType string

const (
	ChangeAdded    ChangeType = "added"
	ChangeModified ChangeType = "modified"
	ChangeDeleted  ChangeType = "deleted"
)

// Placeholder contents for blobs that cannot be analyzed as text
const (
	BinaryContent  = "[Binary file]"
	NonUTF8Content = "[Non-UTF8 content]"
)

// FileChange is a file added, modified or deleted between two commits
type FileChange struct {
	Path   string     `json:"path" yaml:"path"`
	Status ChangeType `json:"status" yaml:"status"`
	// Content is the newer version; empty for deleted files
	Content    string `json:"content,omitempty" yaml:"content,omitempty"`
	HasContent bool   `json:"has_content" yaml:"has_content"`
	// Patch is a unified diff of the old and new content
	Patch string `json:"patch,omitempty" yaml:"patch,omitempty"`
}

// Analyzable reports whether the change carries text a model can read
func (f *FileChange) Analyzable() bool {
	return f.HasContent && f.Content != BinaryContent && f.Content != NonUTF8Content
}

// Validate checks the change record
func (f *FileChange) Validate() error {
	if f.Path == "" {
		return ErrEmptyPath
	}
	switch f.Status {
	case ChangeAdded, ChangeModified, ChangeDeleted:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrInvalidChange, f.Status)
	}
}

// CodeAnalysis is the model's quality verdict for a piece of code
type CodeAnalysis struct {
	IsGood      bool    `json:"is_good" yaml:"is_good"`
	Description string  `json:"description" yaml:"description"`
	Suggestions string  `json:"suggestions,omitempty" yaml:"suggestions,omitempty"`
	Confidence  float64 `json:"confidence" yaml:"confidence"` // 0.0 to 1.0
}

// Validate checks the confidence range
func (a *CodeAnalysis) Validate() error {
	if a.Confidence < 0 || a.Confidence > 1 {
		return ErrInvalidConfidence
	}
	return nil
}

// FileAnalysisResult is the analysis outcome for one changed file
type FileAnalysisResult struct {
	FilePath   string        `json:"file_path" yaml:"file_path"`
	ChangeType ChangeType    `json:"change_type" yaml:"change_type"`
	Analysis   *CodeAnalysis `json:"analysis,omitempty" yaml:"analysis,omitempty"`
	Error      string        `json:"error,omitempty" yaml:"error,omitempty"`
}

// RepositoryAnalysisResult aggregates the analysis of every changed file
type RepositoryAnalysisResult struct {
	Files           []FileAnalysisResult `json:"files" yaml:"files"`
	IsGood          bool                 `json:"is_good" yaml:"is_good"`
	TotalFiles      int                  `json:"total_files" yaml:"total_files"`
	AnalyzedFiles   int                  `json:"analyzed_files" yaml:"analyzed_files"`
	GoodFiles       int                  `json:"good_files" yaml:"good_files"`
	FilesWithIssues int                  `json:"files_with_issues" yaml:"files_with_issues"`
	RunID           string               `json:"run_id,omitempty" yaml:"run_id,omitempty"`
}

// FileIntentAnalysis records whether one changed file supports the intent
type FileIntentAnalysis struct {
	FilePath        string     `json:"file_path" yaml:"file_path"`
	ChangeType      ChangeType `json:"change_type" yaml:"change_type"`
	SupportsIntent  bool       `json:"supports_intent" yaml:"supports_intent"`
	Reasoning       string     `json:"reasoning" yaml:"reasoning"`
	RelevantChanges []string   `json:"relevant_changes" yaml:"relevant_changes"`
}

// IntentVerificationResult is the overall verdict for an intent
type IntentVerificationResult struct {
	IsIntentFulfilled bool                 `json:"is_intent_fulfilled" yaml:"is_intent_fulfilled"`
	Confidence        float64              `json:"confidence" yaml:"confidence"`
	Explanation       string               `json:"explanation" yaml:"explanation"`
	FilesAnalyzed     []FileIntentAnalysis `json:"files_analyzed" yaml:"files_analyzed"`
	OverallAssessment string               `json:"overall_assessment" yaml:"overall_assessment"`
	Targets           *TestTargetsWithCode `json:"targets,omitempty" yaml:"targets,omitempty"`
	RunID             string               `json:"run_id,omitempty" yaml:"run_id,omitempty"`
}

// Validate checks the confidence range
func (r *IntentVerificationResult) Validate() error {
	if r.Confidence < 0 || r.Confidence > 1 {
		return ErrInvalidConfidence
	}
	return nil
}
