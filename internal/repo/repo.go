package repo

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/rs/zerolog/log"
)

// Common errors
var (
	ErrEmptySource      = errors.New("repository source is empty")
	ErrRevisionNotFound = errors.New("revision not found")
	ErrFileNotFound     = errors.New("file not found")
)

// Repository is an opened git repository. Remote sources are cloned into a
// temporary directory that Close removes.
type Repository struct {
	repo    *git.Repository
	source  string
	tempDir string
}

// Open opens a local repository path or clones a remote URL
func Open(ctx context.Context, source string) (*Repository, error) {
	if strings.TrimSpace(source) == "" {
		return nil, ErrEmptySource
	}

	if !IsRemote(source) {
		r, err := git.PlainOpenWithOptions(source, &git.PlainOpenOptions{DetectDotGit: true})
		if err != nil {
			return nil, fmt.Errorf("failed to open git repository %s: %w", source, err)
		}
		return &Repository{repo: r, source: source}, nil
	}

	tmpDir, err := os.MkdirTemp("", "intentcheck-clone-*")
	if err != nil {
		return nil, fmt.Errorf("creating temp dir: %w", err)
	}

	log.Info().Str("url", source).Str("dir", tmpDir).Msg("cloning repository")
	r, err := git.PlainCloneContext(ctx, tmpDir, false, &git.CloneOptions{URL: source})
	if err != nil {
		_ = os.RemoveAll(tmpDir)
		return nil, fmt.Errorf("failed to clone %s: %w", source, err)
	}

	return &Repository{repo: r, source: source, tempDir: tmpDir}, nil
}

// IsRemote reports whether source should be cloned rather than opened
func IsRemote(source string) bool {
	return strings.Contains(source, "://") || strings.HasPrefix(source, "git@")
}

// Source returns the path or URL the repository was opened from
func (r *Repository) Source() string {
	return r.source
}

// Close removes any temporary clone
func (r *Repository) Close() error {
	if r.tempDir == "" {
		return nil
	}
	dir := r.tempDir
	r.tempDir = ""
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("failed to remove clone %s: %w", dir, err)
	}
	return nil
}

// commit resolves a revision (hash, branch, tag, HEAD~n) to its commit
func (r *Repository) commit(rev string) (*object.Commit, error) {
	hash, err := r.repo.ResolveRevision(plumbing.Revision(rev))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrRevisionNotFound, rev, err)
	}

	c, err := r.repo.CommitObject(*hash)
	if err != nil {
		return nil, fmt.Errorf("failed to get commit %s: %w", rev, err)
	}
	return c, nil
}

// tree returns the root tree of a revision
func (r *Repository) tree(rev string) (*object.Tree, error) {
	c, err := r.commit(rev)
	if err != nil {
		return nil, err
	}
	t, err := c.Tree()
	if err != nil {
		return nil, fmt.Errorf("failed to get tree for %s: %w", rev, err)
	}
	return t, nil
}

// ResolveRevision returns the full commit hash for rev
func (r *Repository) ResolveRevision(rev string) (string, error) {
	c, err := r.commit(rev)
	if err != nil {
		return "", err
	}
	return c.Hash.String(), nil
}

// File is a blob in a revision's tree
type File struct {
	Path    string
	Content string
	Binary  bool
}

// Files lists every blob at rev in path order
func (r *Repository) Files(ctx context.Context, rev string) ([]File, error) {
	t, err := r.tree(rev)
	if err != nil {
		return nil, err
	}

	var files []File
	err = t.Files().ForEach(func(f *object.File) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		content, binary, err := readBlob(f)
		if err != nil {
			return err
		}
		files = append(files, File{Path: f.Name, Content: content, Binary: binary})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk tree: %w", err)
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}

// ReadFile returns the text of path at rev. Binary and non-UTF-8 blobs
// yield their placeholder content.
func (r *Repository) ReadFile(ctx context.Context, rev, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	t, err := r.tree(rev)
	if err != nil {
		return "", err
	}
	f, err := t.File(path)
	if err != nil {
		if errors.Is(err, object.ErrFileNotFound) {
			return "", fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	content, _, err := textOf(f)
	return content, err
}
