package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/dshills/intentcheck/internal/repo"
	"github.com/dshills/intentcheck/pkg/types"
)

// ErrNoTargets is returned when targets has nothing to read
var ErrNoTargets = errors.New("no targets given")

type targetsOptions struct {
	functions []string
	files     []string
	intent    string
}

func newTargetsCmd(a *app) *cobra.Command {
	opts := &targetsOptions{}
	cmd := &cobra.Command{
		Use:   "targets <repo> <rev>",
		Short: "Read the code of target functions and files at a revision",
		Long: `Targets reads the given files and function definitions from the tree at
<rev>. Files match by exact path or by path suffix; functions are located in
the supported source files in path order and the first hit wins.

With --intent, the chat model extracts the targets from a test prompt and
the --function and --file lists are added to what it returns.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTargets(cmd, a, opts, args)
		},
	}

	cmd.Flags().StringSliceVarP(&opts.functions, "function", "f", nil, "function name to read (repeatable)")
	cmd.Flags().StringSliceVar(&opts.files, "file", nil, "file path or suffix to read (repeatable)")
	cmd.Flags().StringVar(&opts.intent, "intent", "", "extract targets from this test prompt with the chat model")
	return cmd
}

func runTargets(cmd *cobra.Command, a *app, opts *targetsOptions, args []string) error {
	ctx := cmd.Context()
	source, rev := args[0], args[1]

	targets := types.TestTargets{
		Functions: append([]string(nil), opts.functions...),
		Files:     append([]string(nil), opts.files...),
	}

	if opts.intent != "" {
		v, cleanup, err := a.pipeline()
		if err != nil {
			return err
		}
		extracted, err := v.ExtractTargets(ctx, opts.intent)
		cleanup()
		if err != nil {
			return err
		}
		targets.Functions = append(targets.Functions, extracted.Functions...)
		targets.Files = append(targets.Files, extracted.Files...)
	}

	if targets.IsEmpty() {
		return fmt.Errorf("%w: use --function, --file or --intent", ErrNoTargets)
	}

	result, err := repo.ReadTargets(ctx, source, rev, targets)
	if err != nil {
		return err
	}

	return a.render(cmd, result, func(w io.Writer, s *styles) error {
		printTargets(w, s, result, true)
		return nil
	})
}

// printTargets writes the target summary, with code when full is set
func printTargets(w io.Writer, s *styles, t *types.TestTargetsWithCode, full bool) {
	for _, fn := range t.FunctionContents {
		if !fn.Found() {
			fmt.Fprintf(w, "%s function %s: %s\n", s.bad.Sprint("✗"), fn.Name, fn.Error)
			continue
		}
		fmt.Fprintf(w, "%s function %s in %s\n", s.good.Sprint("✓"), s.heading.Sprint(fn.Name), s.path.Sprint(fn.FilePath))
		if full {
			fmt.Fprintln(w, fn.Content)
		}
	}
	for _, f := range t.FileContents {
		if !f.Found() {
			fmt.Fprintf(w, "%s file %s: %s\n", s.bad.Sprint("✗"), f.Path, f.Error)
			continue
		}
		fmt.Fprintf(w, "%s file %s %s\n", s.good.Sprint("✓"), s.path.Sprint(f.Path), s.dim.Sprintf("(%d bytes)", len(f.Content)))
		if full {
			fmt.Fprintln(w, f.Content)
		}
	}
}
