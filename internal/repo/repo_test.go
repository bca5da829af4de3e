package repo

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/intentcheck/pkg/types"
)

// testRepo is a throwaway repository built with go-git
type testRepo struct {
	t    *testing.T
	dir  string
	repo *git.Repository
	wt   *git.Worktree
}

func newTestRepo(t *testing.T) *testRepo {
	t.Helper()

	dir := t.TempDir()
	r, err := git.PlainInit(dir, false)
	require.NoError(t, err)
	wt, err := r.Worktree()
	require.NoError(t, err)

	return &testRepo{t: t, dir: dir, repo: r, wt: wt}
}

func (tr *testRepo) write(path, content string) {
	tr.t.Helper()
	full := filepath.Join(tr.dir, filepath.FromSlash(path))
	require.NoError(tr.t, os.MkdirAll(filepath.Dir(full), 0755))
	require.NoError(tr.t, os.WriteFile(full, []byte(content), 0644))
	_, err := tr.wt.Add(path)
	require.NoError(tr.t, err)
}

func (tr *testRepo) remove(path string) {
	tr.t.Helper()
	_, err := tr.wt.Remove(path)
	require.NoError(tr.t, err)
}

func (tr *testRepo) commit(msg string) string {
	tr.t.Helper()
	hash, err := tr.wt.Commit(msg, &git.CommitOptions{
		Author: &object.Signature{
			Name:  "Test User",
			Email: "test@example.com",
			When:  time.Now(),
		},
	})
	require.NoError(tr.t, err)
	return hash.String()
}

func TestIsRemote(t *testing.T) {
	tests := []struct {
		source string
		want   bool
	}{
		{"https://github.com/acme/widget.git", true},
		{"ssh://git@host/repo.git", true},
		{"git@github.com:acme/widget.git", true},
		{"file:///tmp/repo", true},
		{"/tmp/repo", false},
		{"./repo", false},
	}

	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRemote(tt.source))
		})
	}
}

func TestOpen_Errors(t *testing.T) {
	_, err := Open(context.Background(), "  ")
	assert.ErrorIs(t, err, ErrEmptySource)

	_, err = Open(context.Background(), filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func TestChangedFiles(t *testing.T) {
	tr := newTestRepo(t)
	tr.write("src/a.rs", "fn a() {\n    1\n}\n")
	tr.write("b.py", "def b():\n    pass\n")
	tr.write("gone.txt", "bye\n")
	first := tr.commit("initial")

	tr.write("src/a.rs", "fn a() {\n    2\n}\n")
	tr.write("web/c.js", "function c() {}\n")
	tr.write("img.bin", "PNG\x00\x01\x02")
	tr.write("latin.txt", "caf\xe9\n")
	tr.remove("gone.txt")
	second := tr.commit("change")

	r, err := Open(context.Background(), tr.dir)
	require.NoError(t, err)
	defer r.Close()

	changes, err := r.ChangedFiles(context.Background(), first, second)
	require.NoError(t, err)
	require.Len(t, changes, 5)

	byPath := make(map[string]types.FileChange)
	var order []string
	for _, c := range changes {
		byPath[c.Path] = c
		order = append(order, c.Path)
		assert.NoError(t, c.Validate())
	}
	assert.Equal(t, []string{"gone.txt", "img.bin", "latin.txt", "src/a.rs", "web/c.js"}, order)

	modified := byPath["src/a.rs"]
	assert.Equal(t, types.ChangeModified, modified.Status)
	assert.True(t, modified.HasContent)
	assert.Equal(t, "fn a() {\n    2\n}\n", modified.Content)
	assert.Contains(t, modified.Patch, "--- a/src/a.rs")
	assert.Contains(t, modified.Patch, "-    1")
	assert.Contains(t, modified.Patch, "+    2")

	added := byPath["web/c.js"]
	assert.Equal(t, types.ChangeAdded, added.Status)
	assert.True(t, added.Analyzable())
	assert.Contains(t, added.Patch, "+function c() {}")

	deleted := byPath["gone.txt"]
	assert.Equal(t, types.ChangeDeleted, deleted.Status)
	assert.False(t, deleted.HasContent)
	assert.Empty(t, deleted.Content)
	assert.Contains(t, deleted.Patch, "-bye")

	binary := byPath["img.bin"]
	assert.Equal(t, types.BinaryContent, binary.Content)
	assert.False(t, binary.Analyzable())
	assert.Empty(t, binary.Patch)

	latin := byPath["latin.txt"]
	assert.Equal(t, types.NonUTF8Content, latin.Content)
	assert.False(t, latin.Analyzable())
}

func TestChangedFiles_ByReference(t *testing.T) {
	tr := newTestRepo(t)
	tr.write("main.rs", "fn main() {}\n")
	tr.commit("one")
	tr.write("lib.rs", "pub fn lib() {}\n")
	tr.commit("two")

	changes, err := ChangedFiles(context.Background(), tr.dir, "HEAD~1", "HEAD")
	require.NoError(t, err)
	require.Len(t, changes, 1)
	assert.Equal(t, "lib.rs", changes[0].Path)
	assert.Equal(t, types.ChangeAdded, changes[0].Status)
}

func TestChangedFiles_UnknownRevision(t *testing.T) {
	tr := newTestRepo(t)
	tr.write("main.rs", "fn main() {}\n")
	head := tr.commit("one")

	r, err := Open(context.Background(), tr.dir)
	require.NoError(t, err)

	_, err = r.ChangedFiles(context.Background(), head, "no-such-branch")
	assert.ErrorIs(t, err, ErrRevisionNotFound)
}

func TestResolveRevisionAndReadFile(t *testing.T) {
	tr := newTestRepo(t)
	tr.write("dir/notes.md", "# notes\n")
	head := tr.commit("one")

	r, err := Open(context.Background(), tr.dir)
	require.NoError(t, err)

	full, err := r.ResolveRevision("HEAD")
	require.NoError(t, err)
	assert.Equal(t, head, full)

	content, err := r.ReadFile(context.Background(), "HEAD", "dir/notes.md")
	require.NoError(t, err)
	assert.Equal(t, "# notes\n", content)

	_, err = r.ReadFile(context.Background(), "HEAD", "missing.md")
	assert.ErrorIs(t, err, ErrFileNotFound)
}

func TestReadTargets(t *testing.T) {
	tr := newTestRepo(t)
	tr.write("README.md", "call add( from docs\n")
	tr.write("src/lib.rs", "/// Adds.\npub fn add(a: i32, b: i32) -> i32 {\n    a + b\n}\n")
	tr.write("tools/util.py", "import os\n\n@cache\ndef helper():\n    return os.sep\n")
	tr.write("web/app.ts", "export function render() { return '{'; }\n")
	rev := tr.commit("targets")

	targets := types.TestTargets{
		Functions: []string{"add", "helper", "render", "missing"},
		Files:     []string{"lib.rs", "tools/util.py", "nope.txt"},
	}

	withCode, err := ReadTargets(context.Background(), tr.dir, rev, targets)
	require.NoError(t, err)
	assert.Equal(t, targets, withCode.Targets)

	require.Len(t, withCode.FunctionContents, 4)
	add := withCode.FunctionContents[0]
	assert.True(t, add.Found())
	assert.Equal(t, "src/lib.rs", add.FilePath)
	assert.Equal(t, "/// Adds.\npub fn add(a: i32, b: i32) -> i32 {\n    a + b\n}", add.Content)

	helper := withCode.FunctionContents[1]
	assert.Equal(t, "tools/util.py", helper.FilePath)
	assert.Equal(t, "@cache\ndef helper():\n    return os.sep\n", helper.Content)

	render := withCode.FunctionContents[2]
	assert.Equal(t, "function render() { return '{'; }", render.Content)

	missing := withCode.FunctionContents[3]
	assert.False(t, missing.Found())
	assert.Equal(t, MsgFunctionNotFound, missing.Error)

	require.Len(t, withCode.FileContents, 3)
	assert.Equal(t, "src/lib.rs", withCode.FileContents[0].Path)
	assert.True(t, withCode.FileContents[0].Found())
	assert.Contains(t, withCode.FileContents[0].Content, "pub fn add")
	assert.Equal(t, "tools/util.py", withCode.FileContents[1].Path)
	assert.Equal(t, MsgFileNotFound, withCode.FileContents[2].Error)

	assert.Equal(t, 3, withCode.FoundFunctions())
	assert.Equal(t, 2, withCode.FoundFiles())
}

func TestReadTargets_Cancelled(t *testing.T) {
	tr := newTestRepo(t)
	tr.write("a.rs", "fn a() {}\n")
	tr.commit("one")

	r, err := Open(context.Background(), tr.dir)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = r.ReadTargets(ctx, "HEAD", types.TestTargets{Functions: []string{"a"}})
	assert.ErrorIs(t, err, context.Canceled)
}
