package verifier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/dshills/intentcheck/internal/chat"
	"github.com/dshills/intentcheck/internal/chunker"
	"github.com/dshills/intentcheck/internal/repo"
	"github.com/dshills/intentcheck/internal/storage"
	"github.com/dshills/intentcheck/pkg/types"
)

// Defaults for Config fields left at zero
const (
	DefaultWorkers          = 4
	DefaultSupportThreshold = 0.5
)

// Reasoning recorded for files that are never sent to the model
const (
	ReasonNoContent = "No content available to analyze"
	ReasonBinary    = "Binary or non-UTF8 file, cannot analyze for test intent"
	ReasonDeleted   = "File was deleted, which typically doesn't help tests pass"
)

var (
	// ErrInvalidRequest is returned when a verification request is incomplete
	ErrInvalidRequest = errors.New("invalid verification request")
	// ErrBusy is returned by callers holding a RunLock that is already taken
	ErrBusy = errors.New("verification already in progress")
)

// GitSource reads changes and target code from repositories
type GitSource interface {
	ChangedFiles(ctx context.Context, source, from, to string) ([]types.FileChange, error)
	ReadTargets(ctx context.Context, source, rev string, targets types.TestTargets) (*types.TestTargetsWithCode, error)
}

// gitSource opens the repository for every call
type gitSource struct{}

func (gitSource) ChangedFiles(ctx context.Context, source, from, to string) ([]types.FileChange, error) {
	return repo.ChangedFiles(ctx, source, from, to)
}

func (gitSource) ReadTargets(ctx context.Context, source, rev string, targets types.TestTargets) (*types.TestTargetsWithCode, error) {
	return repo.ReadTargets(ctx, source, rev, targets)
}

// Verifier runs the analysis and verification pipelines: git -> chunk -> chat -> store
type Verifier struct {
	client  chat.Client
	store   storage.Storage // nil disables run history
	chunker *chunker.Chunker
	source  GitSource

	// Worker pool configuration
	workers   int
	threshold float64
}

// Config contains configuration for the verifier
type Config struct {
	Workers          int       // Concurrent model calls (default: 4)
	ChunkLimit       int       // Bytes before a file is split (default: chunker.DefaultChunkLimit)
	SupportThreshold float64   // Share of supporting files needed (default: 0.5)
	Source           GitSource // Defaults to go-git backed access
}

// IntentRequest names the repositories and revisions a verification reads
type IntentRequest struct {
	TestRepo string // Repository holding the test targets
	TestRev  string
	Repo     string // Repository holding the solution
	FromRev  string
	ToRev    string
	Intent   string
}

// Validate checks that every field is present
func (r *IntentRequest) Validate() error {
	fields := []struct{ name, value string }{
		{"test_repo", r.TestRepo},
		{"test_rev", r.TestRev},
		{"repo", r.Repo},
		{"from_rev", r.FromRev},
		{"to_rev", r.ToRev},
		{"intent", r.Intent},
	}

	var missing []string
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrInvalidRequest, strings.Join(missing, ", "))
	}
	return nil
}

// New creates a Verifier. store may be nil.
func New(client chat.Client, store storage.Storage, config *Config) *Verifier {
	if config == nil {
		config = &Config{}
	}

	v := &Verifier{
		client:    client,
		store:     store,
		source:    config.Source,
		workers:   config.Workers,
		threshold: config.SupportThreshold,
	}
	if v.source == nil {
		v.source = gitSource{}
	}
	if v.workers <= 0 {
		v.workers = DefaultWorkers
	}
	if v.threshold <= 0 || v.threshold > 1 {
		v.threshold = DefaultSupportThreshold
	}

	var opts []chunker.Option
	if config.ChunkLimit > 0 {
		opts = append(opts, chunker.WithLimit(config.ChunkLimit))
	}
	v.chunker = chunker.New(opts...)
	return v
}

// ExtractTargets asks the model which functions and files the intent expects to work
func (v *Verifier) ExtractTargets(ctx context.Context, intent string) (*types.TestTargets, error) {
	reply, err := v.client.Complete(ctx, []chat.Message{chat.User(targetExtractionPrompt(intent))})
	if err != nil {
		return nil, fmt.Errorf("target extraction failed: %w", err)
	}
	return ParseTargets(reply)
}

// AnalyzeFileChange asks the model for a quality verdict on one changed file.
// Files over the chunk limit are split at definition boundaries and analyzed
// part by part.
func (v *Verifier) AnalyzeFileChange(ctx context.Context, change *types.FileChange) (*types.CodeAnalysis, error) {
	if !change.HasContent {
		return &types.CodeAnalysis{
			IsGood:      true,
			Description: "[No content to analyze]",
			Confidence:  1.0,
		}, nil
	}
	if !change.Analyzable() {
		return &types.CodeAnalysis{
			IsGood:      true,
			Description: "Skipped binary or unreadable file: " + change.Path,
			Suggestions: "Consider if this binary file should be tracked in version control",
			Confidence:  1.0,
		}, nil
	}

	blocks := v.chunker.ChunkForModel(change.Content)
	if len(blocks) == 0 {
		return &types.CodeAnalysis{
			IsGood:      true,
			Description: "[No content to analyze]",
			Confidence:  1.0,
		}, nil
	}

	replies := make([]string, 0, len(blocks))
	for i, block := range blocks {
		prompt := blockAnalysisPrompt(change.Path, i+1, len(blocks), block)
		reply, err := v.client.Complete(ctx, []chat.Message{chat.User(prompt)})
		if err != nil {
			return nil, fmt.Errorf("analysis of %s part %d/%d failed: %w", change.Path, i+1, len(blocks), err)
		}
		replies = append(replies, reply)
	}

	return CombineAnalyses(replies)
}

// AnalyzeChanges analyzes every non-deleted change concurrently.
// Result order matches change order; failures count as issues.
func (v *Verifier) AnalyzeChanges(ctx context.Context, changes []types.FileChange) (*types.RepositoryAnalysisResult, error) {
	files := make([]types.FileAnalysisResult, len(changes))
	var analyzed, good, failed int32

	err := v.forEach(ctx, len(changes), func(ctx context.Context, i int) {
		change := &changes[i]
		result := types.FileAnalysisResult{FilePath: change.Path, ChangeType: change.Status}
		defer func() { files[i] = result }()

		if change.Status == types.ChangeDeleted {
			return
		}

		analysis, err := v.AnalyzeFileChange(ctx, change)
		if err != nil {
			atomic.AddInt32(&failed, 1)
			result.Error = err.Error()
			log.Warn().Err(err).Str("file", change.Path).Msg("file analysis failed")
			return
		}

		atomic.AddInt32(&analyzed, 1)
		if analysis.IsGood {
			atomic.AddInt32(&good, 1)
		}
		result.Analysis = analysis
	})
	if err != nil {
		return nil, err
	}

	result := &types.RepositoryAnalysisResult{
		Files:         files,
		TotalFiles:    len(changes),
		AnalyzedFiles: int(analyzed),
		GoodFiles:     int(good),
	}
	result.FilesWithIssues = result.AnalyzedFiles - result.GoodFiles
	result.IsGood = result.FilesWithIssues == 0 && failed == 0
	return result, nil
}

// AnalyzeRepository analyzes the changes between two revisions of a repository
func (v *Verifier) AnalyzeRepository(ctx context.Context, source, from, to string) (*types.RepositoryAnalysisResult, error) {
	start := time.Now()

	changes, err := v.source.ChangedFiles(ctx, source, from, to)
	if err != nil {
		return nil, err
	}
	log.Info().Str("repo", source).Str("from", from).Str("to", to).
		Int("files", len(changes)).Msg("analyzing changes")

	result, err := v.AnalyzeChanges(ctx, changes)
	if err != nil {
		return nil, err
	}

	run := &storage.Run{
		Kind:       storage.KindAnalysis,
		Repo:       source,
		FromRev:    from,
		ToRev:      to,
		Verdict:    result.IsGood,
		Confidence: analysisConfidence(result),
		Summary: fmt.Sprintf("%d of %d analyzed files look good",
			result.GoodFiles, result.AnalyzedFiles),
	}
	fileResults := make([]storage.FileResult, len(result.Files))
	for i, f := range result.Files {
		fr := storage.FileResult{FilePath: f.FilePath, ChangeType: string(f.ChangeType), Error: f.Error}
		if f.Analysis != nil {
			fr.Verdict = f.Analysis.IsGood
			fr.Confidence = f.Analysis.Confidence
			fr.Reasoning = f.Analysis.Description
		}
		fileResults[i] = fr
	}
	result.RunID = v.persist(ctx, run, fileResults, result)

	log.Info().Bool("is_good", result.IsGood).Int("analyzed", result.AnalyzedFiles).
		Int("issues", result.FilesWithIssues).Dur("duration", time.Since(start)).Msg("analysis complete")
	return result, nil
}

// AnalyzeFileForIntent asks whether one changed file supports the intent.
// Errors are folded into the returned reasoning.
func (v *Verifier) AnalyzeFileForIntent(ctx context.Context, change *types.FileChange, targets *types.TestTargetsWithCode, intent string) types.FileIntentAnalysis {
	unsupported := func(reason string) types.FileIntentAnalysis {
		return types.FileIntentAnalysis{
			FilePath:        change.Path,
			ChangeType:      change.Status,
			Reasoning:       reason,
			RelevantChanges: []string{},
		}
	}

	switch {
	case change.Status == types.ChangeDeleted:
		return unsupported(ReasonDeleted)
	case !change.HasContent:
		return unsupported(ReasonNoContent)
	case !change.Analyzable():
		return unsupported(ReasonBinary)
	}

	reply, err := v.client.Complete(ctx, intentMessages(change, targets, intent))
	if err != nil {
		log.Warn().Err(err).Str("file", change.Path).Msg("intent analysis failed")
		return unsupported(fmt.Sprintf("Error analyzing file: %v", err))
	}
	return ParseIntentAnalysis(change, reply)
}

// VerifyChanges decides whether changes fulfill the intent given the target code
func (v *Verifier) VerifyChanges(ctx context.Context, changes []types.FileChange, targets *types.TestTargetsWithCode, intent string) (*types.IntentVerificationResult, error) {
	files := make([]types.FileIntentAnalysis, len(changes))
	var supporting int32

	err := v.forEach(ctx, len(changes), func(ctx context.Context, i int) {
		files[i] = v.AnalyzeFileForIntent(ctx, &changes[i], targets, intent)
		if files[i].SupportsIntent {
			atomic.AddInt32(&supporting, 1)
		}
	})
	if err != nil {
		return nil, err
	}

	reply, err := v.client.Complete(ctx, []chat.Message{chat.User(assessmentPrompt(files, targets, intent))})
	if err != nil {
		return nil, fmt.Errorf("overall assessment failed: %w", err)
	}

	result := &types.IntentVerificationResult{
		FilesAnalyzed:     files,
		OverallAssessment: strings.TrimSpace(reply),
		Targets:           targets,
	}
	n := int(supporting)
	ratio := 0.0
	if len(files) > 0 {
		ratio = float64(n) / float64(len(files))
	}
	result.IsIntentFulfilled = n > 0 && ratio >= v.threshold
	result.Confidence = math.Min(ratio*0.7+0.3, 1.0)
	result.Explanation = fmt.Sprintf("%d out of %d changed files support the test intent", n, len(files))
	return result, nil
}

// VerifyIntent extracts targets from the intent, reads their code at the test
// revision, and checks the solution changes against them
func (v *Verifier) VerifyIntent(ctx context.Context, req IntentRequest) (*types.IntentVerificationResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	start := time.Now()

	targets, err := v.ExtractTargets(ctx, req.Intent)
	if err != nil {
		return nil, err
	}
	log.Debug().Strs("functions", targets.Functions).Strs("files", targets.Files).Msg("extracted targets")

	withCode, err := v.source.ReadTargets(ctx, req.TestRepo, req.TestRev, *targets)
	if err != nil {
		return nil, fmt.Errorf("failed to read targets: %w", err)
	}

	changes, err := v.source.ChangedFiles(ctx, req.Repo, req.FromRev, req.ToRev)
	if err != nil {
		return nil, err
	}
	log.Info().Str("repo", req.Repo).Str("from", req.FromRev).Str("to", req.ToRev).
		Int("files", len(changes)).Msg("verifying changes")

	result, err := v.VerifyChanges(ctx, changes, withCode, req.Intent)
	if err != nil {
		return nil, err
	}

	run := &storage.Run{
		Kind:       storage.KindVerification,
		Repo:       req.Repo,
		FromRev:    req.FromRev,
		ToRev:      req.ToRev,
		TestRepo:   req.TestRepo,
		TestRev:    req.TestRev,
		Intent:     req.Intent,
		Verdict:    result.IsIntentFulfilled,
		Confidence: result.Confidence,
		Summary:    result.Explanation,
	}
	fileResults := make([]storage.FileResult, len(result.FilesAnalyzed))
	for i, f := range result.FilesAnalyzed {
		fileResults[i] = storage.FileResult{
			FilePath:   f.FilePath,
			ChangeType: string(f.ChangeType),
			Verdict:    f.SupportsIntent,
			Reasoning:  f.Reasoning,
		}
	}
	result.RunID = v.persist(ctx, run, fileResults, result)

	log.Info().Bool("fulfilled", result.IsIntentFulfilled).Float64("confidence", result.Confidence).
		Dur("duration", time.Since(start)).Msg("verification complete")
	return result, nil
}

// forEach runs fn for indexes [0, n) with at most v.workers in flight
func (v *Verifier) forEach(ctx context.Context, n int, fn func(context.Context, int)) error {
	// Create worker pool with semaphore
	semaphore := make(chan struct{}, v.workers)
	g, gctx := errgroup.WithContext(ctx)

dispatch:
	for i := 0; i < n; i++ {
		select {
		case <-gctx.Done():
			break dispatch
		case semaphore <- struct{}{}:
			// Acquire semaphore
		}

		g.Go(func() error {
			defer func() { <-semaphore }() // Release semaphore
			fn(gctx, i)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

// persist records the run and its file results in one transaction.
// Storage failures are logged and never fail the pipeline.
func (v *Verifier) persist(ctx context.Context, run *storage.Run, files []storage.FileResult, report any) string {
	if v.store == nil {
		return ""
	}
	run.Model = v.client.Model()

	details, err := json.Marshal(report)
	if err != nil {
		log.Warn().Err(err).Msg("failed to encode run details")
	} else {
		run.Details = string(details)
	}

	if err := v.saveRun(ctx, run, files); err != nil {
		log.Warn().Err(err).Str("kind", string(run.Kind)).Msg("failed to record run")
		return ""
	}
	return run.ID
}

func (v *Verifier) saveRun(ctx context.Context, run *storage.Run, files []storage.FileResult) error {
	tx, err := v.store.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := tx.CreateRun(ctx, run); err != nil {
		return err
	}
	for i := range files {
		files[i].RunID = run.ID
		if err := tx.AddFileResult(ctx, &files[i]); err != nil {
			return fmt.Errorf("failed to store file result: %w", err)
		}
	}
	if err := tx.FinishRun(ctx, run); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// analysisConfidence averages the confidence of the analyzed files
func analysisConfidence(result *types.RepositoryAnalysisResult) float64 {
	var total float64
	n := 0
	for _, f := range result.Files {
		if f.Analysis != nil {
			total += f.Analysis.Confidence
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return total / float64(n)
}
