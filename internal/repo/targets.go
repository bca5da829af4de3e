package repo

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/dshills/intentcheck/internal/parser"
	"github.com/dshills/intentcheck/pkg/types"
)

// Messages recorded for targets that could not be read
const (
	MsgFileNotFound     = "file not found"
	MsgFunctionNotFound = "function not found in repository"
)

// ReadTargets opens source and reads targets at rev
func ReadTargets(ctx context.Context, source, rev string, targets types.TestTargets) (*types.TestTargetsWithCode, error) {
	r, err := Open(ctx, source)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := r.Close(); cerr != nil {
			log.Warn().Err(cerr).Msg("cleanup failed")
		}
	}()
	return r.ReadTargets(ctx, rev, targets)
}

// ReadTargets reads the content of each target file and locates each target
// function at rev. Missing targets are recorded with an error message rather
// than failing the call.
func (r *Repository) ReadTargets(ctx context.Context, rev string, targets types.TestTargets) (*types.TestTargetsWithCode, error) {
	files, err := r.Files(ctx, rev)
	if err != nil {
		return nil, err
	}

	result := &types.TestTargetsWithCode{
		Targets:          targets,
		FileContents:     make([]types.FileContent, 0, len(targets.Files)),
		FunctionContents: make([]types.FunctionContent, 0, len(targets.Functions)),
	}

	for _, name := range targets.Files {
		result.FileContents = append(result.FileContents, findFile(files, name))
	}

	for _, name := range targets.Functions {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		fc := findFunction(files, name)
		if !fc.Found() {
			log.Debug().Str("function", name).Str("rev", rev).Msg("target function not found")
		}
		result.FunctionContents = append(result.FunctionContents, fc)
	}

	return result, nil
}

// findFile matches a target by exact path, then by path suffix
func findFile(files []File, target string) types.FileContent {
	want := strings.TrimPrefix(strings.ReplaceAll(target, "\\", "/"), "./")

	match := -1
	for i := range files {
		if files[i].Path == want {
			match = i
			break
		}
	}
	if match < 0 && want != "" {
		for i := range files {
			if strings.HasSuffix(files[i].Path, "/"+want) {
				match = i
				break
			}
		}
	}

	if match < 0 {
		return types.FileContent{Path: target, Error: MsgFileNotFound}
	}

	content := files[match].Content
	if files[match].Binary {
		content = types.BinaryContent
	}
	return types.FileContent{Path: files[match].Path, Content: content}
}

// findFunction locates name in the first supported source file that defines it
func findFunction(files []File, name string) types.FunctionContent {
	for i := range files {
		f := &files[i]
		if f.Binary || !parser.IsSourceFile(f.Path) {
			continue
		}
		if span, ok := parser.Locate(f.Content, name, f.Path); ok {
			return types.FunctionContent{Name: name, FilePath: f.Path, Content: span.Content}
		}
	}
	return types.FunctionContent{Name: name, Error: MsgFunctionNotFound}
}
