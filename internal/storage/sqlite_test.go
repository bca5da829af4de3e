package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) *SQLiteStorage {
	// Use in-memory database for testing
	storage, err := NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	require.NotNil(t, storage)
	return storage
}

func newAnalysisRun(repo string) *Run {
	return &Run{
		Kind:    KindAnalysis,
		Repo:    repo,
		FromRev: "abc123",
		ToRev:   "def456",
	}
}

func TestNewSQLiteStorage(t *testing.T) {
	storage := setupTestDB(t)
	defer storage.Close()

	assert.NotNil(t, storage.db)
}

func TestNewSQLiteStorage_File(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "runs.db")

	storage, err := NewSQLiteStorage(dbPath)
	require.NoError(t, err)
	require.NoError(t, storage.CreateRun(context.Background(), newAnalysisRun("/repo")))
	require.NoError(t, storage.Close())

	// Reopening must not re-run migrations or lose data
	storage, err = NewSQLiteStorage(dbPath)
	require.NoError(t, err)
	defer storage.Close()

	runs, err := storage.ListRuns(context.Background(), nil)
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

func TestCreateRun(t *testing.T) {
	storage := setupTestDB(t)
	defer storage.Close()
	ctx := context.Background()

	run := newAnalysisRun("/repo")
	require.NoError(t, storage.CreateRun(ctx, run))

	_, err := uuid.Parse(run.ID)
	assert.NoError(t, err, "generated ID should be a UUID")
	assert.False(t, run.CreatedAt.IsZero())
	assert.False(t, run.Finished())

	// Same ID twice
	dup := newAnalysisRun("/repo")
	dup.ID = run.ID
	err = storage.CreateRun(ctx, dup)
	assert.ErrorIs(t, err, ErrAlreadyExists)
}

func TestCreateRun_Invalid(t *testing.T) {
	storage := setupTestDB(t)
	defer storage.Close()
	ctx := context.Background()

	err := storage.CreateRun(ctx, &Run{Kind: "other", Repo: "/r"})
	assert.ErrorIs(t, err, ErrInvalidRun)

	err = storage.CreateRun(ctx, &Run{Kind: KindAnalysis})
	assert.ErrorIs(t, err, ErrInvalidRun)

	err = storage.CreateRun(ctx, &Run{ID: "not-a-uuid", Kind: KindAnalysis, Repo: "/r"})
	assert.ErrorIs(t, err, ErrInvalidRun)
}

func TestFinishAndGetRun(t *testing.T) {
	storage := setupTestDB(t)
	defer storage.Close()
	ctx := context.Background()

	run := &Run{
		Kind:     KindVerification,
		Repo:     "https://example.com/solution.git",
		FromRev:  "a",
		ToRev:    "b",
		TestRepo: "https://example.com/tests.git",
		TestRev:  "c",
		Intent:   "make add work",
	}
	require.NoError(t, storage.CreateRun(ctx, run))

	run.Verdict = true
	run.Confidence = 0.79
	run.Summary = "1 out of 1 changed files support the test intent"
	run.Details = `{"is_intent_fulfilled":true}`
	run.Model = "gpt-3.5-turbo"
	require.NoError(t, storage.FinishRun(ctx, run))
	assert.True(t, run.Finished())

	got, err := storage.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, KindVerification, got.Kind)
	assert.Equal(t, "make add work", got.Intent)
	assert.Equal(t, "c", got.TestRev)
	assert.True(t, got.Verdict)
	assert.InDelta(t, 0.79, got.Confidence, 1e-9)
	assert.Equal(t, run.Summary, got.Summary)
	assert.Equal(t, run.Details, got.Details)
	assert.Equal(t, "gpt-3.5-turbo", got.Model)
	require.NotNil(t, got.FinishedAt)
}

func TestGetRun_NotFound(t *testing.T) {
	storage := setupTestDB(t)
	defer storage.Close()

	_, err := storage.GetRun(context.Background(), uuid.NewString())
	assert.ErrorIs(t, err, ErrNotFound)

	err = storage.FinishRun(context.Background(), &Run{ID: uuid.NewString()})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListRuns(t *testing.T) {
	storage := setupTestDB(t)
	defer storage.Close()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, storage.CreateRun(ctx, newAnalysisRun("/one")))
	}
	require.NoError(t, storage.CreateRun(ctx, newAnalysisRun("/two")))
	last := &Run{Kind: KindVerification, Repo: "/one", Intent: "x"}
	require.NoError(t, storage.CreateRun(ctx, last))

	all, err := storage.ListRuns(ctx, nil)
	require.NoError(t, err)
	require.Len(t, all, 5)
	assert.Equal(t, last.ID, all[0].ID, "newest first")

	one, err := storage.ListRuns(ctx, &RunFilter{Repo: "/one"})
	require.NoError(t, err)
	assert.Len(t, one, 4)

	verifications, err := storage.ListRuns(ctx, &RunFilter{Kind: KindVerification})
	require.NoError(t, err)
	require.Len(t, verifications, 1)
	assert.Equal(t, "x", verifications[0].Intent)

	limited, err := storage.ListRuns(ctx, &RunFilter{Kind: KindAnalysis, Limit: 2})
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestFileResults(t *testing.T) {
	storage := setupTestDB(t)
	defer storage.Close()
	ctx := context.Background()

	run := newAnalysisRun("/repo")
	require.NoError(t, storage.CreateRun(ctx, run))

	inputs := []*FileResult{
		{RunID: run.ID, FilePath: "src/a.rs", ChangeType: "modified", Verdict: true, Confidence: 0.9, Reasoning: "fine"},
		{RunID: run.ID, FilePath: "src/b.rs", ChangeType: "added", Error: "chat provider failed"},
		{RunID: run.ID, FilePath: "old.rs", ChangeType: "deleted"},
	}
	for _, fr := range inputs {
		require.NoError(t, storage.AddFileResult(ctx, fr))
		assert.Greater(t, fr.ID, int64(0))
	}

	results, err := storage.ListFileResults(ctx, run.ID)
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, "src/a.rs", results[0].FilePath)
	assert.True(t, results[0].Verdict)
	assert.Equal(t, "chat provider failed", results[1].Error)
	assert.Equal(t, "deleted", results[2].ChangeType)

	// Unknown run
	err = storage.AddFileResult(ctx, &FileResult{RunID: uuid.NewString(), FilePath: "x", ChangeType: "added"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteRun_Cascades(t *testing.T) {
	storage := setupTestDB(t)
	defer storage.Close()
	ctx := context.Background()

	run := newAnalysisRun("/repo")
	require.NoError(t, storage.CreateRun(ctx, run))
	require.NoError(t, storage.AddFileResult(ctx, &FileResult{RunID: run.ID, FilePath: "a", ChangeType: "added"}))

	require.NoError(t, storage.DeleteRun(ctx, run.ID))

	_, err := storage.GetRun(ctx, run.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	results, err := storage.ListFileResults(ctx, run.ID)
	require.NoError(t, err)
	assert.Empty(t, results)

	assert.ErrorIs(t, storage.DeleteRun(ctx, run.ID), ErrNotFound)
}

func TestGetStatus(t *testing.T) {
	storage := setupTestDB(t)
	defer storage.Close()
	ctx := context.Background()

	status, err := storage.GetStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, status.TotalRuns)
	assert.True(t, status.LastRunAt.IsZero())
	assert.Equal(t, CurrentSchemaVersion, status.SchemaVersion)
	assert.Equal(t, BuildMode, status.BuildMode)

	good := newAnalysisRun("/repo")
	require.NoError(t, storage.CreateRun(ctx, good))
	good.Verdict = true
	require.NoError(t, storage.FinishRun(ctx, good))
	require.NoError(t, storage.AddFileResult(ctx, &FileResult{RunID: good.ID, FilePath: "a", ChangeType: "added"}))
	require.NoError(t, storage.CreateRun(ctx, &Run{Kind: KindVerification, Repo: "/repo"}))

	status, err = storage.GetStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, status.TotalRuns)
	assert.Equal(t, 1, status.AnalysisRuns)
	assert.Equal(t, 1, status.VerificationRuns)
	assert.Equal(t, 1, status.PositiveRuns)
	assert.Equal(t, 1, status.FileResults)
	assert.False(t, status.LastRunAt.IsZero())
}

func TestTransaction(t *testing.T) {
	storage := setupTestDB(t)
	defer storage.Close()
	ctx := context.Background()

	t.Run("rollback discards writes", func(t *testing.T) {
		tx, err := storage.BeginTx(ctx)
		require.NoError(t, err)

		run := newAnalysisRun("/tx")
		require.NoError(t, tx.CreateRun(ctx, run))
		require.NoError(t, tx.AddFileResult(ctx, &FileResult{RunID: run.ID, FilePath: "a", ChangeType: "added"}))
		require.NoError(t, tx.Rollback())

		_, err = storage.GetRun(ctx, run.ID)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("commit persists writes", func(t *testing.T) {
		tx, err := storage.BeginTx(ctx)
		require.NoError(t, err)

		run := newAnalysisRun("/tx")
		require.NoError(t, tx.CreateRun(ctx, run))
		got, err := tx.GetRun(ctx, run.ID)
		require.NoError(t, err)
		assert.Equal(t, run.ID, got.ID)
		require.NoError(t, tx.Commit())

		_, err = storage.GetRun(ctx, run.ID)
		assert.NoError(t, err)
	})

	t.Run("nested transactions rejected", func(t *testing.T) {
		tx, err := storage.BeginTx(ctx)
		require.NoError(t, err)
		defer func() { _ = tx.Rollback() }()

		_, err = tx.BeginTx(ctx)
		assert.Error(t, err)
	})
}

func TestMigrations(t *testing.T) {
	storage := setupTestDB(t)
	defer storage.Close()
	ctx := context.Background()

	// Applying again is a no-op
	require.NoError(t, ApplyMigrations(ctx, storage.db))

	version, err := currentSchemaVersion(ctx, storage.db)
	require.NoError(t, err)
	assert.Equal(t, CurrentSchemaVersion, version.String())

	require.NoError(t, RollbackMigration(ctx, storage.db))
	version, err = currentSchemaVersion(ctx, storage.db)
	require.NoError(t, err)
	assert.Equal(t, "1.0.0", version.String())

	require.NoError(t, ApplyMigrations(ctx, storage.db))
	version, err = currentSchemaVersion(ctx, storage.db)
	require.NoError(t, err)
	assert.Equal(t, CurrentSchemaVersion, version.String())
}
