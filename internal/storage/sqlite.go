package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned when a requested entity doesn't exist
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists is returned when trying to create a duplicate entity
	ErrAlreadyExists = errors.New("already exists")
	// ErrInvalidRun is returned when a run is missing required fields
	ErrInvalidRun = errors.New("invalid run")
)

// SQLiteStorage implements the Storage interface using SQLite
type SQLiteStorage struct {
	db *sql.DB
}

// openDatabase opens a SQLite database with appropriate settings
func openDatabase(dbPath string) (*sql.DB, error) {
	db, err := sql.Open(DriverName, dbPath)
	if err != nil {
		return nil, err
	}

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	// SQLite benefits from a single writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return db, nil
}

// NewSQLiteStorage creates a new SQLite storage instance
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	db, err := openDatabase(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := ApplyMigrations(context.Background(), db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

// Close closes the database connection
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// BeginTx starts a new transaction
func (s *SQLiteStorage) BeginTx(ctx context.Context) (Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &sqliteTx{tx: tx, storage: s}, nil
}

// querier is an interface that both *sql.DB and *sql.Tx implement
type querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// sqliteTx wraps a SQL transaction
type sqliteTx struct {
	tx      *sql.Tx
	storage *SQLiteStorage
}

func (t *sqliteTx) Commit() error {
	return t.tx.Commit()
}

func (t *sqliteTx) Rollback() error {
	return t.tx.Rollback()
}

// querier returns the transaction querier
func (t *sqliteTx) querier() querier {
	return t.tx
}

// querier returns the DB querier
func (s *SQLiteStorage) querier() querier {
	return s.db
}

// Run operations

const runColumns = `id, kind, repo, from_rev, to_rev, test_repo, test_rev, intent, model,
	verdict, confidence, summary, details, created_at, finished_at`

// createRunWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) createRunWithQuerier(ctx context.Context, q querier, run *Run) error {
	if run.Kind != KindAnalysis && run.Kind != KindVerification {
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidRun, run.Kind)
	}
	if run.Repo == "" {
		return fmt.Errorf("%w: repository is required", ErrInvalidRun)
	}
	if run.ID == "" {
		run.ID = uuid.NewString()
	} else if _, err := uuid.Parse(run.ID); err != nil {
		return fmt.Errorf("%w: id %q is not a UUID", ErrInvalidRun, run.ID)
	}

	query := `
		INSERT INTO runs (id, kind, repo, from_rev, to_rev, test_repo, test_rev, intent, model, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	now := time.Now().UTC()
	_, err := q.ExecContext(ctx, query,
		run.ID, string(run.Kind), run.Repo, run.FromRev, run.ToRev,
		run.TestRepo, run.TestRev, run.Intent, run.Model, now)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: run %s", ErrAlreadyExists, run.ID)
		}
		return fmt.Errorf("failed to create run: %w", err)
	}

	run.CreatedAt = now
	return nil
}

func (s *SQLiteStorage) CreateRun(ctx context.Context, run *Run) error {
	return s.createRunWithQuerier(ctx, s.querier(), run)
}

// finishRunWithQuerier records the outcome of a run
func (s *SQLiteStorage) finishRunWithQuerier(ctx context.Context, q querier, run *Run) error {
	query := `
		UPDATE runs
		SET verdict = ?, confidence = ?, summary = ?, details = ?, model = ?, finished_at = ?
		WHERE id = ?
	`
	now := time.Now().UTC()
	result, err := q.ExecContext(ctx, query,
		run.Verdict, run.Confidence, run.Summary, run.Details, run.Model, now, run.ID)
	if err != nil {
		return fmt.Errorf("failed to finish run: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}

	run.FinishedAt = &now
	return nil
}

func (s *SQLiteStorage) FinishRun(ctx context.Context, run *Run) error {
	return s.finishRunWithQuerier(ctx, s.querier(), run)
}

// scanner is satisfied by *sql.Row and *sql.Rows
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(sc scanner) (*Run, error) {
	var run Run
	var kind string
	var finishedAt sql.NullTime
	err := sc.Scan(
		&run.ID, &kind, &run.Repo, &run.FromRev, &run.ToRev,
		&run.TestRepo, &run.TestRev, &run.Intent, &run.Model,
		&run.Verdict, &run.Confidence, &run.Summary, &run.Details,
		&run.CreatedAt, &finishedAt,
	)
	if err != nil {
		return nil, err
	}
	run.Kind = RunKind(kind)
	if finishedAt.Valid {
		t := finishedAt.Time
		run.FinishedAt = &t
	}
	return &run, nil
}

// getRunWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) getRunWithQuerier(ctx context.Context, q querier, id string) (*Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs WHERE id = ?`

	run, err := scanRun(q.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return run, nil
}

func (s *SQLiteStorage) GetRun(ctx context.Context, id string) (*Run, error) {
	return s.getRunWithQuerier(ctx, s.querier(), id)
}

// listRunsWithQuerier returns runs newest first
func (s *SQLiteStorage) listRunsWithQuerier(ctx context.Context, q querier, filter *RunFilter) ([]*Run, error) {
	if filter == nil {
		filter = &RunFilter{}
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}

	var where []string
	var args []interface{}
	if filter.Kind != "" {
		where = append(where, "kind = ?")
		args = append(args, string(filter.Kind))
	}
	if filter.Repo != "" {
		where = append(where, "repo = ?")
		args = append(args, filter.Repo)
	}

	query := `SELECT ` + runColumns + ` FROM runs`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC, rowid DESC LIMIT ?"
	args = append(args, limit)

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

func (s *SQLiteStorage) ListRuns(ctx context.Context, filter *RunFilter) ([]*Run, error) {
	return s.listRunsWithQuerier(ctx, s.querier(), filter)
}

// deleteRunWithQuerier removes a run; file results cascade
func (s *SQLiteStorage) deleteRunWithQuerier(ctx context.Context, q querier, id string) error {
	result, err := q.ExecContext(ctx, "DELETE FROM runs WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStorage) DeleteRun(ctx context.Context, id string) error {
	return s.deleteRunWithQuerier(ctx, s.querier(), id)
}

// File result operations

// addFileResultWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) addFileResultWithQuerier(ctx context.Context, q querier, fr *FileResult) error {
	query := `
		INSERT INTO file_results (run_id, file_path, change_type, verdict, confidence, reasoning, error, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	now := time.Now().UTC()
	result, err := q.ExecContext(ctx, query,
		fr.RunID, fr.FilePath, fr.ChangeType, fr.Verdict, fr.Confidence, fr.Reasoning, fr.Error, now)
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("%w: run %s", ErrNotFound, fr.RunID)
		}
		return fmt.Errorf("failed to add file result: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	fr.ID = id
	fr.CreatedAt = now
	return nil
}

func (s *SQLiteStorage) AddFileResult(ctx context.Context, result *FileResult) error {
	return s.addFileResultWithQuerier(ctx, s.querier(), result)
}

// listFileResultsWithQuerier returns results in insertion order
func (s *SQLiteStorage) listFileResultsWithQuerier(ctx context.Context, q querier, runID string) ([]*FileResult, error) {
	query := `
		SELECT id, run_id, file_path, change_type, verdict, confidence, reasoning, error, created_at
		FROM file_results
		WHERE run_id = ?
		ORDER BY id
	`
	rows, err := q.QueryContext(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to list file results: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []*FileResult
	for rows.Next() {
		var fr FileResult
		if err := rows.Scan(&fr.ID, &fr.RunID, &fr.FilePath, &fr.ChangeType,
			&fr.Verdict, &fr.Confidence, &fr.Reasoning, &fr.Error, &fr.CreatedAt); err != nil {
			return nil, err
		}
		results = append(results, &fr)
	}
	return results, rows.Err()
}

func (s *SQLiteStorage) ListFileResults(ctx context.Context, runID string) ([]*FileResult, error) {
	return s.listFileResultsWithQuerier(ctx, s.querier(), runID)
}

// Status operations

// GetStatus summarizes the run history
func (s *SQLiteStorage) GetStatus(ctx context.Context) (*Status, error) {
	return s.getStatusWithQuerier(ctx, s.querier())
}

func (s *SQLiteStorage) getStatusWithQuerier(ctx context.Context, q querier) (*Status, error) {
	status := &Status{BuildMode: BuildMode}

	query := `
		SELECT COUNT(*),
		       COALESCE(SUM(CASE WHEN kind = 'analysis' THEN 1 ELSE 0 END), 0),
		       COALESCE(SUM(CASE WHEN kind = 'verification' THEN 1 ELSE 0 END), 0),
		       COALESCE(SUM(CASE WHEN verdict THEN 1 ELSE 0 END), 0)
		FROM runs
	`
	if err := q.QueryRowContext(ctx, query).Scan(
		&status.TotalRuns, &status.AnalysisRuns, &status.VerificationRuns, &status.PositiveRuns,
	); err != nil {
		return nil, fmt.Errorf("failed to count runs: %w", err)
	}

	if err := q.QueryRowContext(ctx, "SELECT COUNT(*) FROM file_results").Scan(&status.FileResults); err != nil {
		return nil, fmt.Errorf("failed to count file results: %w", err)
	}

	if status.TotalRuns > 0 {
		var last time.Time
		err := q.QueryRowContext(ctx, "SELECT created_at FROM runs ORDER BY created_at DESC LIMIT 1").Scan(&last)
		if err != nil {
			return nil, fmt.Errorf("failed to read last run: %w", err)
		}
		status.LastRunAt = last
	}

	var pageCount, pageSize int64
	if err := q.QueryRowContext(ctx, "PRAGMA page_count").Scan(&pageCount); err == nil {
		if err := q.QueryRowContext(ctx, "PRAGMA page_size").Scan(&pageSize); err == nil {
			status.DatabaseSizeMB = float64(pageCount*pageSize) / (1024 * 1024)
		}
	}

	version, err := currentSchemaVersion(ctx, q)
	if err != nil {
		return nil, err
	}
	status.SchemaVersion = version.String()

	return status, nil
}

func isUniqueViolation(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "PRIMARY KEY")
}

func isForeignKeyViolation(err error) bool {
	return strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}

// Transaction operations
// Each delegates to the querier-based helper so writes stay inside the transaction.

func (t *sqliteTx) CreateRun(ctx context.Context, run *Run) error {
	return t.storage.createRunWithQuerier(ctx, t.querier(), run)
}

func (t *sqliteTx) FinishRun(ctx context.Context, run *Run) error {
	return t.storage.finishRunWithQuerier(ctx, t.querier(), run)
}

func (t *sqliteTx) GetRun(ctx context.Context, id string) (*Run, error) {
	return t.storage.getRunWithQuerier(ctx, t.querier(), id)
}

func (t *sqliteTx) ListRuns(ctx context.Context, filter *RunFilter) ([]*Run, error) {
	return t.storage.listRunsWithQuerier(ctx, t.querier(), filter)
}

func (t *sqliteTx) DeleteRun(ctx context.Context, id string) error {
	return t.storage.deleteRunWithQuerier(ctx, t.querier(), id)
}

func (t *sqliteTx) AddFileResult(ctx context.Context, result *FileResult) error {
	return t.storage.addFileResultWithQuerier(ctx, t.querier(), result)
}

func (t *sqliteTx) ListFileResults(ctx context.Context, runID string) ([]*FileResult, error) {
	return t.storage.listFileResultsWithQuerier(ctx, t.querier(), runID)
}

func (t *sqliteTx) GetStatus(ctx context.Context) (*Status, error) {
	return t.storage.getStatusWithQuerier(ctx, t.querier())
}

func (t *sqliteTx) Close() error {
	// Transactions don't close the underlying connection
	return nil
}

func (t *sqliteTx) BeginTx(ctx context.Context) (Tx, error) {
	// SQLite does not support true nested transactions
	return nil, errors.New("nested transactions not supported")
}
