package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	// DefaultDBDir is the default directory for the run history database
	DefaultDBDir = "~/.intentcheck"
	// DBFileName is the database file created under the database directory
	DBFileName = "runs.db"
)

// ResolveDBPath expands a leading ~ in dir, creates the directory, and
// returns the database file path inside it. Empty dir means DefaultDBDir.
func ResolveDBPath(dir string) (string, error) {
	if dir == "" {
		dir = DefaultDBDir
	}
	if dir == "~" || strings.HasPrefix(dir, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		dir = filepath.Join(home, strings.TrimPrefix(dir, "~"))
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create database directory: %w", err)
	}
	return filepath.Join(dir, DBFileName), nil
}

// Open resolves dir and opens the SQLite store inside it
func Open(dir string) (*SQLiteStorage, error) {
	dbFile, err := ResolveDBPath(dir)
	if err != nil {
		return nil, err
	}
	return NewSQLiteStorage(dbFile)
}
