// Package storage provides SQLite-based persistence for analysis and
// verification run history.
//
// The storage layer manages:
//   - Runs: one row per analysis or intent verification of a commit range
//   - File results: the per-file verdicts that make up a run
//
// # Database Schema
//
// Tables:
//   - schema_version: applied migration versions
//   - runs: UUID id, kind, repository and revisions, intent, model, verdict,
//     confidence, summary and the full JSON report
//   - file_results: per-file verdict, reasoning and error, cascading on run delete
//
// # Basic Usage
//
//	db, err := storage.NewSQLiteStorage(".intentcheck/runs.db")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer db.Close()
//
//	run := &storage.Run{Kind: storage.KindAnalysis, Repo: repoPath, FromRev: "v1", ToRev: "v2"}
//	if err := db.CreateRun(ctx, run); err != nil {
//	    return err
//	}
//	// run.ID is now a fresh UUID
//
//	run.Verdict, run.Summary = true, "all files look good"
//	err = db.FinishRun(ctx, run)
//
// # Transactions
//
// Use transactions to record a run and its file results atomically:
//
//	tx, err := db.BeginTx(ctx)
//	if err != nil {
//	    return err
//	}
//	defer tx.Rollback()
//
//	_ = tx.CreateRun(ctx, run)
//	for _, fr := range results {
//	    _ = tx.AddFileResult(ctx, fr)
//	}
//	return tx.Commit()
//
// # Build Modes
//
// The driver is chosen at compile time:
//   - default / purego: modernc.org/sqlite, no CGO
//   - sqlite_vec tag: github.com/mattn/go-sqlite3 with CGO
//
// # Migrations
//
// Migrations are ordered by semantic version and applied on open. Each
// applied version is recorded in schema_version; RollbackMigration undoes the
// newest one.
//
// # Errors
//
// Lookups of unknown runs return ErrNotFound. Creating a run with an ID that
// already exists returns ErrAlreadyExists.
package storage
