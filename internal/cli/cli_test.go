package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/dshills/intentcheck/internal/chat"
	"github.com/dshills/intentcheck/internal/verifier"
	"github.com/dshills/intentcheck/pkg/types"
)

const libV1 = "use std::fmt;\n\n/// Adds.\nfn add(a: i32, b: i32) -> i32 {\n    a + b\n}\n"

const libV2 = "use std::fmt;\n\n/// Adds.\nfn add(a: i32, b: i32) -> i32 {\n    a.wrapping_add(b)\n}\n"

// testEnv points configuration at a private history and the mock provider
func testEnv(t *testing.T) string {
	t.Helper()
	dbDir := t.TempDir()
	t.Setenv("INTENTCHECK_CHAT_PROVIDER", "mock")
	t.Setenv("INTENTCHECK_STORAGE_DB_PATH", dbDir)
	t.Setenv("INTENTCHECK_STORAGE_ENABLED", "true")
	t.Setenv("OPENAI_API_KEY", "")
	return dbDir
}

// execute runs the command tree with model standing in for the chat provider
func execute(t *testing.T, model chat.Client, args ...string) (string, error) {
	t.Helper()
	if model == nil {
		model = chat.NewMockClient()
	}

	a := &app{newClient: func(chat.Config) (chat.Client, error) { return model, nil }}
	cmd := newRootCommand(a)

	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append([]string{"--color", "never", "--log-level", "error"}, args...))

	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func decode(t *testing.T, out string, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal([]byte(out), v), out)
}

// scriptedModel answers each pipeline prompt; supports decides the intent verdict
func scriptedModel(supports bool) *chat.MockClient {
	m := chat.NewMockClient()
	m.Responder = func(messages []chat.Message) (string, error) {
		prompt := messages[len(messages)-1].Content
		switch {
		case strings.Contains(prompt, "Extract from the following prompt"):
			return `{"functions": ["add"], "files": ["lib.rs"]}`, nil
		case strings.Contains(prompt, "overall assessment"):
			return "  The change keeps add correct.  ", nil
		case strings.Contains(prompt, "CHANGED FILE:"):
			if supports {
				return `{"supports_intent": true, "reasoning": "add now wraps", "relevant_changes": ["wrapping_add"]}`, nil
			}
			return `{"supports_intent": false, "reasoning": "unrelated", "relevant_changes": []}`, nil
		case strings.Contains(prompt, "Analyze the following code block"):
			return `{"is_good": true, "description": "fine", "confidence": 0.8}`, nil
		}
		return "", errors.New("unexpected prompt")
	}
	return m
}

// gitFixture is a two-commit repository: lib.rs changes and notes.txt is added
type gitFixture struct {
	dir    string
	first  string
	second string
}

func newGitFixture(t *testing.T) gitFixture {
	t.Helper()

	dir := t.TempDir()
	r, err := git.PlainInit(dir, false)
	require.NoError(t, err)
	wt, err := r.Worktree()
	require.NoError(t, err)

	write := func(path, content string) {
		full := filepath.Join(dir, filepath.FromSlash(path))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0755))
		require.NoError(t, os.WriteFile(full, []byte(content), 0644))
		_, err := wt.Add(path)
		require.NoError(t, err)
	}
	commit := func(msg string) string {
		hash, err := wt.Commit(msg, &git.CommitOptions{
			Author: &object.Signature{Name: "Test User", Email: "test@example.com", When: time.Now()},
		})
		require.NoError(t, err)
		return hash.String()
	}

	write("src/lib.rs", libV1)
	first := commit("initial")
	write("src/lib.rs", libV2)
	write("notes.txt", "overflow handled\n")
	second := commit("wrap add")

	return gitFixture{dir: dir, first: first, second: second}
}

func TestGlobalFlagValidation(t *testing.T) {
	testEnv(t)

	_, err := execute(t, nil, "--output", "xml", "runs", "status")
	assert.ErrorIs(t, err, ErrInvalidOutput)

	_, err = execute(t, nil, "--color", "sometimes", "runs", "status")
	assert.ErrorIs(t, err, ErrInvalidColor)

	_, err = execute(t, nil, "--log-level", "loud", "runs", "status")
	assert.Error(t, err)
}

func TestLocate(t *testing.T) {
	testEnv(t)
	path := filepath.Join(t.TempDir(), "lib.rs")
	require.NoError(t, os.WriteFile(path, []byte(libV1), 0644))

	t.Run("text", func(t *testing.T) {
		out, err := execute(t, nil, "locate", path, "add")
		require.NoError(t, err)
		assert.Contains(t, out, path+":3 (rust, bytes 15-")
		assert.Contains(t, out, "/// Adds.\nfn add(a: i32, b: i32) -> i32 {\n    a + b\n}\n")
	})

	t.Run("json", func(t *testing.T) {
		out, err := execute(t, nil, "-o", "json", "locate", path, "add")
		require.NoError(t, err)

		var report locateReport
		decode(t, out, &report)
		assert.Equal(t, "rust", report.Language)
		assert.Equal(t, 3, report.Line)
		assert.Equal(t, strings.Index(libV1, "///"), report.Start)
		assert.Equal(t, libV1[report.Start:report.End], report.Content)
		assert.True(t, strings.HasSuffix(report.Content, "}"))
	})

	t.Run("yaml", func(t *testing.T) {
		out, err := execute(t, nil, "-o", "yaml", "locate", path, "add")
		require.NoError(t, err)

		var report locateReport
		require.NoError(t, yaml.Unmarshal([]byte(out), &report))
		assert.Equal(t, "add", report.Name)
		assert.Equal(t, 3, report.Line)
	})

	t.Run("not found", func(t *testing.T) {
		_, err := execute(t, nil, "locate", path, "sub")
		assert.ErrorIs(t, err, ErrFunctionNotFound)
	})

	t.Run("explicit language", func(t *testing.T) {
		txt := filepath.Join(t.TempDir(), "gen.txt")
		require.NoError(t, os.WriteFile(txt, []byte("def main():\n    return 1\n\ndef other():\n    pass\n"), 0644))

		_, err := execute(t, nil, "locate", txt, "main")
		assert.ErrorIs(t, err, ErrUnsupportedLanguage)

		out, err := execute(t, nil, "-o", "json", "locate", "--language", "Python", txt, "main")
		require.NoError(t, err)
		var report locateReport
		decode(t, out, &report)
		assert.Equal(t, "def main():\n    return 1\n\n", report.Content)

		_, err = execute(t, nil, "locate", "--language", "cobol", txt, "main")
		assert.ErrorIs(t, err, ErrUnsupportedLanguage)
	})

	t.Run("from revision", func(t *testing.T) {
		fx := newGitFixture(t)

		out, err := execute(t, nil, "-o", "json", "locate", "--repo", fx.dir, "--rev", fx.first, "src/lib.rs", "add")
		require.NoError(t, err)
		var report locateReport
		decode(t, out, &report)
		assert.Contains(t, report.Content, "a + b")

		out, err = execute(t, nil, "-o", "json", "locate", "--repo", fx.dir, "src/lib.rs", "add")
		require.NoError(t, err)
		decode(t, out, &report)
		assert.Contains(t, report.Content, "wrapping_add")
	})

	t.Run("arguments", func(t *testing.T) {
		_, err := execute(t, nil, "locate", path)
		assert.Error(t, err)
	})
}

func TestSplit(t *testing.T) {
	testEnv(t)
	content := "use x;\n\nfn a() {}\n\nfn b() {}\n"
	path := filepath.Join(t.TempDir(), "small.rs")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	out, err := execute(t, nil, "-o", "json", "split", "--limit", "10", path)
	require.NoError(t, err)

	var report splitReport
	decode(t, out, &report)
	assert.True(t, report.NeedsSplit)
	require.Len(t, report.Chunks, 3)

	var rebuilt strings.Builder
	for i, c := range report.Chunks {
		assert.Equal(t, i, c.Index)
		rebuilt.WriteString(c.Content)
	}
	assert.Equal(t, content, rebuilt.String())
	assert.Equal(t, strings.Index(content, "fn a"), report.Chunks[1].Start)

	// The configured chunk limit applies without --limit
	out, err = execute(t, nil, "-o", "json", "split", path)
	require.NoError(t, err)
	decode(t, out, &report)
	assert.False(t, report.NeedsSplit)
	assert.Len(t, report.Chunks, 1)

	out, err = execute(t, nil, "split", "--limit", "10", path)
	require.NoError(t, err)
	assert.Contains(t, out, "3 chunks")
	assert.Contains(t, out, "fn a() {}")

	_, err = execute(t, nil, "split", "--limit", "0", path)
	assert.ErrorIs(t, err, ErrInvalidLimit)
}

func TestChanges(t *testing.T) {
	testEnv(t)
	fx := newGitFixture(t)

	out, err := execute(t, nil, "-o", "json", "changes", "--patch", fx.dir, fx.first, fx.second)
	require.NoError(t, err)

	var report changesReport
	decode(t, out, &report)
	require.Len(t, report.Changes, 2)
	assert.Equal(t, "notes.txt", report.Changes[0].Path)
	assert.Equal(t, types.ChangeAdded, report.Changes[0].Status)
	assert.Equal(t, "src/lib.rs", report.Changes[1].Path)
	assert.Equal(t, types.ChangeModified, report.Changes[1].Status)
	assert.True(t, report.Changes[1].Analyzable)
	assert.Contains(t, report.Changes[1].Patch, "+    a.wrapping_add(b)")

	out, err = execute(t, nil, "changes", fx.dir, fx.first, fx.second)
	require.NoError(t, err)
	assert.Contains(t, out, "2 files changed")
	assert.Contains(t, out, "A notes.txt")
	assert.Contains(t, out, "M src/lib.rs")

	out, err = execute(t, nil, "changes", fx.dir, fx.second, fx.second)
	require.NoError(t, err)
	assert.Contains(t, out, "No changes")

	_, err = execute(t, nil, "changes", fx.dir, "nope", fx.second)
	assert.Error(t, err)
}

func TestTargets(t *testing.T) {
	testEnv(t)
	fx := newGitFixture(t)

	out, err := execute(t, nil, "-o", "json", "targets", "--function", "add", "--function", "sub", "--file", "lib.rs", fx.dir, fx.second)
	require.NoError(t, err)

	var result types.TestTargetsWithCode
	decode(t, out, &result)
	require.Len(t, result.FunctionContents, 2)
	assert.Equal(t, "src/lib.rs", result.FunctionContents[0].FilePath)
	assert.Contains(t, result.FunctionContents[0].Content, "wrapping_add")
	assert.False(t, result.FunctionContents[1].Found())
	require.Len(t, result.FileContents, 1)
	assert.Equal(t, libV2, result.FileContents[0].Content)

	t.Run("from intent", func(t *testing.T) {
		model := scriptedModel(true)
		out, err := execute(t, model, "targets", "--intent", "add(2, 3) == 5", fx.dir, fx.first)
		require.NoError(t, err)
		assert.Contains(t, out, "✓ function add in src/lib.rs")
		assert.Contains(t, out, "✓ file src/lib.rs")
		assert.Len(t, model.Calls(), 1)
	})

	t.Run("nothing to read", func(t *testing.T) {
		_, err := execute(t, nil, "targets", fx.dir, fx.first)
		assert.ErrorIs(t, err, ErrNoTargets)
	})
}

func TestAnalyzeAndRuns(t *testing.T) {
	testEnv(t)
	fx := newGitFixture(t)

	out, err := execute(t, scriptedModel(true), "-o", "json", "analyze", fx.dir, fx.first, fx.second)
	require.NoError(t, err)

	var result types.RepositoryAnalysisResult
	decode(t, out, &result)
	assert.True(t, result.IsGood)
	assert.Equal(t, 2, result.TotalFiles)
	assert.Equal(t, 2, result.AnalyzedFiles)
	assert.Equal(t, 2, result.GoodFiles)
	require.NotEmpty(t, result.RunID)

	out, err = execute(t, nil, "-o", "json", "runs", "list")
	require.NoError(t, err)
	var runs []runView
	decode(t, out, &runs)
	require.Len(t, runs, 1)
	assert.Equal(t, result.RunID, runs[0].ID)
	assert.True(t, runs[0].Verdict)
	assert.True(t, runs[0].Finished)

	out, err = execute(t, nil, "-o", "json", "runs", "list", "--kind", "verification")
	require.NoError(t, err)
	decode(t, out, &runs)
	assert.Empty(t, runs)

	_, err = execute(t, nil, "runs", "list", "--kind", "other")
	assert.ErrorIs(t, err, ErrInvalidKind)

	out, err = execute(t, nil, "-o", "json", "runs", "show", result.RunID)
	require.NoError(t, err)
	var shown runView
	decode(t, out, &shown)
	assert.Equal(t, fx.dir, shown.Repo)
	assert.Len(t, shown.Files, 2)
	assert.NotNil(t, shown.Details)

	out, err = execute(t, nil, "runs", "show", result.RunID)
	require.NoError(t, err)
	assert.Contains(t, out, "analysis run "+result.RunID)
	assert.Contains(t, out, "✓ src/lib.rs")

	out, err = execute(t, nil, "-o", "json", "runs", "status")
	require.NoError(t, err)
	var status statusView
	decode(t, out, &status)
	assert.Equal(t, 1, status.TotalRuns)
	assert.Equal(t, 1, status.AnalysisRuns)
	assert.Equal(t, 2, status.FileResults)

	out, err = execute(t, nil, "runs", "delete", result.RunID)
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted run")

	_, err = execute(t, nil, "runs", "show", result.RunID)
	assert.Error(t, err)
}

func TestAnalyzeStrict(t *testing.T) {
	testEnv(t)
	fx := newGitFixture(t)

	// Unparseable reviews fail the file
	model := chat.NewMockClient()
	model.Fallback = "looks fine to me"

	out, err := execute(t, model, "analyze", "--strict", fx.dir, fx.first, fx.second)
	assert.ErrorIs(t, err, ErrIssuesFound)
	assert.Contains(t, out, "FAIL 2 files, 0 analyzed, 0 good, 0 with issues, 2 failed")
}

func TestVerify(t *testing.T) {
	testEnv(t)
	fx := newGitFixture(t)

	args := func(extra ...string) []string {
		base := []string{
			"verify",
			"--test-repo", fx.dir, "--test-rev", fx.first,
			"--repo", fx.dir, "--from", fx.first, "--to", fx.second,
			"--intent", "add handles overflow",
		}
		return append(base, extra...)
	}

	t.Run("fulfilled", func(t *testing.T) {
		out, err := execute(t, scriptedModel(true), append([]string{"-o", "json"}, args()...)...)
		require.NoError(t, err)

		var result types.IntentVerificationResult
		decode(t, out, &result)
		assert.True(t, result.IsIntentFulfilled)
		assert.InDelta(t, 1.0, result.Confidence, 1e-9)
		assert.Equal(t, "2 out of 2 changed files support the test intent", result.Explanation)
		assert.Equal(t, "The change keeps add correct.", result.OverallAssessment)
		require.NotNil(t, result.Targets)
		assert.Equal(t, 1, result.Targets.FoundFunctions())
		assert.NotEmpty(t, result.RunID)
	})

	t.Run("text report", func(t *testing.T) {
		out, err := execute(t, scriptedModel(true), args()...)
		require.NoError(t, err)
		assert.Contains(t, out, "FULFILLED (confidence 1.00)")
		assert.Contains(t, out, "✓ function add in src/lib.rs")
		assert.Contains(t, out, "    - wrapping_add")
	})

	t.Run("strict failure", func(t *testing.T) {
		out, err := execute(t, scriptedModel(false), args("--strict")...)
		assert.ErrorIs(t, err, ErrIntentNotFulfilled)
		assert.Contains(t, out, "NOT FULFILLED")
	})

	t.Run("missing flags", func(t *testing.T) {
		model := scriptedModel(true)
		_, err := execute(t, model, "verify", "--repo", fx.dir)
		assert.ErrorIs(t, err, verifier.ErrInvalidRequest)
		assert.Empty(t, model.Calls())
	})
}

func TestHistoryDisabled(t *testing.T) {
	testEnv(t)
	t.Setenv("INTENTCHECK_STORAGE_ENABLED", "false")
	fx := newGitFixture(t)

	_, err := execute(t, nil, "runs", "list")
	assert.ErrorIs(t, err, ErrHistoryDisabled)

	out, err := execute(t, scriptedModel(true), "-o", "json", "analyze", fx.dir, fx.first, fx.second)
	require.NoError(t, err)
	var result types.RepositoryAnalysisResult
	decode(t, out, &result)
	assert.Empty(t, result.RunID)
}

func TestRunVersion(t *testing.T) {
	var buf bytes.Buffer
	cmd := newVersionCmd(&app{})
	cmd.SetOut(&buf)

	require.NoError(t, runVersion(cmd, nil))

	output := buf.String()
	assert.Contains(t, output, "intentcheck ")
	assert.Contains(t, output, "SQLite driver:")
	assert.Contains(t, output, "Go version:")
	assert.Contains(t, output, "OS/Arch:")
}

func TestVersionIgnoresBrokenConfig(t *testing.T) {
	out, err := execute(t, nil, "--config", filepath.Join(t.TempDir(), "missing.yml"), "version")
	require.NoError(t, err)
	assert.Contains(t, out, "intentcheck")

	_, err = execute(t, nil, "--config", filepath.Join(t.TempDir(), "missing.yml"), "runs", "status")
	assert.Error(t, err)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 5))
	assert.Equal(t, "ab...", truncate("abcdefgh", 5))
	assert.Equal(t, "ab", truncate("abcdefgh", 2))
	assert.Equal(t, "fn a() {}", firstLine("\n\n  fn a() {}\n}"))
	assert.Equal(t, "12345678", shortRev("1234567890123456789012345678901234567890"))
	assert.Equal(t, "HEAD", shortRev("HEAD"))
}
