package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/dshills/intentcheck/pkg/types"
)

// ErrIssuesFound is returned by analyze --strict when a file has issues
var ErrIssuesFound = errors.New("analysis found issues")

type analyzeOptions struct {
	strict bool
}

func newAnalyzeCmd(a *app) *cobra.Command {
	opts := &analyzeOptions{}
	cmd := &cobra.Command{
		Use:   "analyze <repo> <from> <to>",
		Short: "Review every file changed between two revisions",
		Long: `Analyze sends each added or modified file between <from> and <to> to the chat
model for review. Files larger than the analysis chunk limit are split at
definition boundaries and reviewed part by part. Deleted files are listed but
not reviewed. The run is recorded in the history unless storage is disabled.`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd, a, opts, args)
		},
	}

	cmd.Flags().BoolVar(&opts.strict, "strict", false, "exit with an error when any file has issues")
	return cmd
}

func runAnalyze(cmd *cobra.Command, a *app, opts *analyzeOptions, args []string) error {
	source, from, to := args[0], args[1], args[2]

	v, cleanup, err := a.pipeline()
	if err != nil {
		return err
	}
	defer cleanup()

	result, err := v.AnalyzeRepository(cmd.Context(), source, from, to)
	if err != nil {
		return err
	}

	err = a.render(cmd, result, func(w io.Writer, s *styles) error {
		printAnalysis(w, s, result)
		return nil
	})
	if err != nil {
		return err
	}

	if opts.strict && !result.IsGood {
		return fmt.Errorf("%w: %d with issues, %d failed, of %d files",
			ErrIssuesFound, result.FilesWithIssues, failedFiles(result), result.TotalFiles)
	}
	return nil
}

func printAnalysis(w io.Writer, s *styles, result *types.RepositoryAnalysisResult) {
	for _, f := range result.Files {
		switch {
		case f.Error != "":
			fmt.Fprintf(w, "%s %s %s\n", s.bad.Sprint("!"), s.path.Sprint(f.FilePath), s.dim.Sprint(f.Error))
		case f.Analysis == nil:
			fmt.Fprintf(w, "%s %s %s\n", s.dim.Sprint("-"), s.path.Sprint(f.FilePath), s.dim.Sprintf("(%s)", f.ChangeType))
		default:
			fmt.Fprintf(w, "%s %s %s\n", s.verdict(f.Analysis.IsGood, "✓", "✗"), s.path.Sprint(f.FilePath),
				s.dim.Sprintf("(%s, confidence %.2f)", f.ChangeType, f.Analysis.Confidence))
			fmt.Fprintf(w, "    %s\n", f.Analysis.Description)
			if f.Analysis.Suggestions != "" {
				fmt.Fprintf(w, "    %s %s\n", s.heading.Sprint("Suggestions:"), f.Analysis.Suggestions)
			}
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s %d files, %d analyzed, %d good, %d with issues",
		s.verdict(result.IsGood, "PASS", "FAIL"),
		result.TotalFiles, result.AnalyzedFiles, result.GoodFiles, result.FilesWithIssues)
	if n := failedFiles(result); n > 0 {
		fmt.Fprintf(w, ", %d failed", n)
	}
	fmt.Fprintln(w)
	if result.RunID != "" {
		fmt.Fprintf(w, "%s %s\n", s.dim.Sprint("Run:"), result.RunID)
	}
}

// failedFiles counts files whose review could not be completed
func failedFiles(result *types.RepositoryAnalysisResult) int {
	n := 0
	for _, f := range result.Files {
		if f.Error != "" {
			n++
		}
	}
	return n
}
