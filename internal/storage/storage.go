package storage

import (
	"context"
	"time"
)

// Storage defines the interface for persisting analysis and verification runs
type Storage interface {
	// Run operations
	CreateRun(ctx context.Context, run *Run) error
	FinishRun(ctx context.Context, run *Run) error
	GetRun(ctx context.Context, id string) (*Run, error)
	ListRuns(ctx context.Context, filter *RunFilter) ([]*Run, error)
	DeleteRun(ctx context.Context, id string) error

	// File result operations
	AddFileResult(ctx context.Context, result *FileResult) error
	ListFileResults(ctx context.Context, runID string) ([]*FileResult, error)

	// Status operations
	GetStatus(ctx context.Context) (*Status, error)

	// Database operations
	Close() error
	BeginTx(ctx context.Context) (Tx, error)
}

// Tx represents a database transaction
type Tx interface {
	Commit() error
	Rollback() error
	Storage // Embed Storage interface for transaction operations
}

// RunKind distinguishes the two pipelines that produce runs
type RunKind string

const (
	KindAnalysis     RunKind = "analysis"
	KindVerification RunKind = "verification"
)

// Run is one analysis or verification of a commit range
type Run struct {
	ID         string // UUID
	Kind       RunKind
	Repo       string
	FromRev    string
	ToRev      string
	TestRepo   string // verification only
	TestRev    string // verification only
	Intent     string // verification only
	Model      string
	Verdict    bool    // is_good or is_intent_fulfilled
	Confidence float64 // 0.0 to 1.0
	Summary    string
	Details    string // Full report as JSON
	CreatedAt  time.Time
	FinishedAt *time.Time // Nullable until the run completes
}

// Finished reports whether the run has a recorded outcome
func (r *Run) Finished() bool {
	return r.FinishedAt != nil
}

// FileResult is the outcome recorded for one changed file in a run
type FileResult struct {
	ID         int64
	RunID      string
	FilePath   string
	ChangeType string
	Verdict    bool // is_good or supports_intent
	Confidence float64
	Reasoning  string
	Error      string
	CreatedAt  time.Time
}

// RunFilter narrows ListRuns
type RunFilter struct {
	Kind  RunKind // Empty matches all kinds
	Repo  string  // Empty matches all repositories
	Limit int     // Zero means DefaultListLimit
}

// DefaultListLimit caps ListRuns when no limit is given
const DefaultListLimit = 50

// Status contains statistics about the run history
type Status struct {
	TotalRuns        int
	AnalysisRuns     int
	VerificationRuns int
	PositiveRuns     int
	FileResults      int
	LastRunAt        time.Time
	DatabaseSizeMB   float64
	SchemaVersion    string
	BuildMode        string
}
