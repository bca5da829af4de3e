package repo

import (
	"context"
	"fmt"
	"sort"
	"unicode/utf8"

	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/utils/merkletrie"
	"github.com/hexops/gotextdiff"
	"github.com/hexops/gotextdiff/myers"
	"github.com/hexops/gotextdiff/span"
	"github.com/rs/zerolog/log"

	"github.com/dshills/intentcheck/pkg/types"
)

// ChangedFiles opens source, diffs two revisions and closes it again
func ChangedFiles(ctx context.Context, source, from, to string) ([]types.FileChange, error) {
	r, err := Open(ctx, source)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := r.Close(); cerr != nil {
			log.Warn().Err(cerr).Msg("cleanup failed")
		}
	}()
	return r.ChangedFiles(ctx, from, to)
}

// ChangedFiles lists files added, modified or deleted between two revisions.
// Added and modified files carry the newer content; deleted files carry none.
// Renames are reported as a deletion plus an addition.
func (r *Repository) ChangedFiles(ctx context.Context, from, to string) ([]types.FileChange, error) {
	fromTree, err := r.tree(from)
	if err != nil {
		return nil, err
	}
	toTree, err := r.tree(to)
	if err != nil {
		return nil, err
	}

	changes, err := fromTree.DiffContext(ctx, toTree)
	if err != nil {
		return nil, fmt.Errorf("failed to diff %s..%s: %w", from, to, err)
	}

	result := make([]types.FileChange, 0, len(changes))
	for _, ch := range changes {
		fc, ok, err := toFileChange(ch)
		if err != nil {
			return nil, err
		}
		if ok {
			result = append(result, fc)
		}
	}

	sort.SliceStable(result, func(i, j int) bool { return result[i].Path < result[j].Path })

	log.Debug().
		Str("from", from).
		Str("to", to).
		Int("files", len(result)).
		Msg("collected changed files")

	return result, nil
}

func toFileChange(ch *object.Change) (types.FileChange, bool, error) {
	action, err := ch.Action()
	if err != nil {
		return types.FileChange{}, false, fmt.Errorf("failed to classify change: %w", err)
	}
	oldFile, newFile, err := ch.Files()
	if err != nil {
		return types.FileChange{}, false, fmt.Errorf("failed to load change files: %w", err)
	}

	var fc types.FileChange
	switch action {
	case merkletrie.Insert:
		fc = types.FileChange{Path: ch.To.Name, Status: types.ChangeAdded}
	case merkletrie.Modify:
		fc = types.FileChange{Path: ch.To.Name, Status: types.ChangeModified}
	case merkletrie.Delete:
		fc = types.FileChange{Path: ch.From.Name, Status: types.ChangeDeleted}
	default:
		return types.FileChange{}, false, nil
	}

	var oldText, newText string
	var oldOK, newOK bool
	if oldFile != nil {
		if oldText, oldOK, err = textOf(oldFile); err != nil {
			return types.FileChange{}, false, err
		}
	} else {
		oldOK = true
	}
	if newFile != nil && fc.Status != types.ChangeDeleted {
		if fc.Content, newOK, err = textOf(newFile); err != nil {
			return types.FileChange{}, false, err
		}
		fc.HasContent = true
		newText = fc.Content
	} else {
		newOK = true
	}

	if oldOK && newOK {
		fc.Patch = unifiedDiff(fc.Path, oldText, newText)
	}

	return fc, true, nil
}

// textOf returns the blob as text, or a placeholder and false when it is
// binary or not valid UTF-8
func textOf(f *object.File) (string, bool, error) {
	content, binary, err := readBlob(f)
	if err != nil {
		return "", false, err
	}
	if binary {
		return types.BinaryContent, false, nil
	}
	if !utf8.ValidString(content) {
		return types.NonUTF8Content, false, nil
	}
	return content, true, nil
}

func readBlob(f *object.File) (string, bool, error) {
	binary, err := f.IsBinary()
	if err != nil {
		return "", false, fmt.Errorf("failed to inspect %s: %w", f.Name, err)
	}
	if binary {
		return "", true, nil
	}
	content, err := f.Contents()
	if err != nil {
		return "", false, fmt.Errorf("failed to get contents of %s: %w", f.Name, err)
	}
	return content, false, nil
}

// unifiedDiff renders old and new text as a unified diff
func unifiedDiff(path, oldText, newText string) string {
	if oldText == newText {
		return ""
	}
	edits := myers.ComputeEdits(span.URIFromPath(path), oldText, newText)
	return fmt.Sprint(gotextdiff.ToUnified("a/"+path, "b/"+path, oldText, edits))
}
