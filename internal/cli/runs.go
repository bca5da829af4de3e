package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/dshills/intentcheck/internal/storage"
)

// ErrInvalidKind is returned for an unknown --kind filter
var ErrInvalidKind = errors.New("invalid run kind")

// runView is the structured form of a stored run
type runView struct {
	ID         string           `json:"id" yaml:"id"`
	Kind       storage.RunKind  `json:"kind" yaml:"kind"`
	Repo       string           `json:"repo" yaml:"repo"`
	FromRev    string           `json:"from_rev" yaml:"from_rev"`
	ToRev      string           `json:"to_rev" yaml:"to_rev"`
	TestRepo   string           `json:"test_repo,omitempty" yaml:"test_repo,omitempty"`
	TestRev    string           `json:"test_rev,omitempty" yaml:"test_rev,omitempty"`
	Intent     string           `json:"intent,omitempty" yaml:"intent,omitempty"`
	Model      string           `json:"model" yaml:"model"`
	Verdict    bool             `json:"verdict" yaml:"verdict"`
	Confidence float64          `json:"confidence" yaml:"confidence"`
	Summary    string           `json:"summary" yaml:"summary"`
	CreatedAt  time.Time        `json:"created_at" yaml:"created_at"`
	Finished   bool             `json:"finished" yaml:"finished"`
	Files      []fileResultView `json:"files,omitempty" yaml:"files,omitempty"`
	Details    any              `json:"details,omitempty" yaml:"details,omitempty"`
}

type fileResultView struct {
	FilePath   string  `json:"file_path" yaml:"file_path"`
	ChangeType string  `json:"change_type" yaml:"change_type"`
	Verdict    bool    `json:"verdict" yaml:"verdict"`
	Confidence float64 `json:"confidence" yaml:"confidence"`
	Reasoning  string  `json:"reasoning,omitempty" yaml:"reasoning,omitempty"`
	Error      string  `json:"error,omitempty" yaml:"error,omitempty"`
}

type statusView struct {
	TotalRuns        int       `json:"total_runs" yaml:"total_runs"`
	AnalysisRuns     int       `json:"analysis_runs" yaml:"analysis_runs"`
	VerificationRuns int       `json:"verification_runs" yaml:"verification_runs"`
	PositiveRuns     int       `json:"positive_runs" yaml:"positive_runs"`
	FileResults      int       `json:"file_results" yaml:"file_results"`
	LastRunAt        time.Time `json:"last_run_at,omitempty" yaml:"last_run_at,omitempty"`
	DatabaseSizeMB   float64   `json:"database_size_mb" yaml:"database_size_mb"`
	SchemaVersion    string    `json:"schema_version" yaml:"schema_version"`
	BuildMode        string    `json:"build_mode" yaml:"build_mode"`
}

func newRunView(run *storage.Run) runView {
	return runView{
		ID:         run.ID,
		Kind:       run.Kind,
		Repo:       run.Repo,
		FromRev:    run.FromRev,
		ToRev:      run.ToRev,
		TestRepo:   run.TestRepo,
		TestRev:    run.TestRev,
		Intent:     run.Intent,
		Model:      run.Model,
		Verdict:    run.Verdict,
		Confidence: run.Confidence,
		Summary:    run.Summary,
		CreatedAt:  run.CreatedAt,
		Finished:   run.Finished(),
	}
}

func newRunsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Inspect the analysis and verification history",
		Long: `Runs reads the SQLite history written by analyze, verify and the MCP server.
The database lives in storage.db_path (default ~/.intentcheck/runs.db).`,
	}

	cmd.AddCommand(
		newRunsListCmd(a),
		newRunsShowCmd(a),
		newRunsDeleteCmd(a),
		newRunsStatusCmd(a),
	)
	return cmd
}

func newRunsListCmd(a *app) *cobra.Command {
	filter := &storage.RunFilter{}
	var kind string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			filter.Kind = storage.RunKind(kind)
			return runRunsList(cmd, a, filter)
		},
	}

	cmd.Flags().StringVar(&kind, "kind", "", "only runs of this kind: analysis, verification")
	cmd.Flags().StringVar(&filter.Repo, "repo", "", "only runs for this repository")
	cmd.Flags().IntVarP(&filter.Limit, "limit", "n", storage.DefaultListLimit, "maximum number of runs")
	return cmd
}

func runRunsList(cmd *cobra.Command, a *app, filter *storage.RunFilter) error {
	switch filter.Kind {
	case "", storage.KindAnalysis, storage.KindVerification:
	default:
		return fmt.Errorf("%w: %s (want analysis or verification)", ErrInvalidKind, filter.Kind)
	}
	if filter.Limit < 1 {
		return fmt.Errorf("%w: %d", ErrInvalidLimit, filter.Limit)
	}

	store, err := a.requireStore()
	if err != nil {
		return err
	}
	defer store.Close()

	runs, err := store.ListRuns(cmd.Context(), filter)
	if err != nil {
		return err
	}

	views := make([]runView, len(runs))
	for i, run := range runs {
		views[i] = newRunView(run)
	}

	return a.render(cmd, views, func(w io.Writer, s *styles) error {
		if len(views) == 0 {
			fmt.Fprintln(w, "No runs recorded")
			return nil
		}
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tKIND\tVERDICT\tCONFIDENCE\tREPO\tRANGE\tCREATED")
		for _, v := range views {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%.2f\t%s\t%s..%s\t%s\n",
				v.ID, v.Kind, verdictWord(v), v.Confidence, truncate(v.Repo, 40),
				shortRev(v.FromRev), shortRev(v.ToRev), v.CreatedAt.Local().Format(time.DateTime))
		}
		return tw.Flush()
	})
}

func newRunsShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a run with its per-file results",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRunsShow(cmd, a, args[0])
		},
	}
}

func runRunsShow(cmd *cobra.Command, a *app, id string) error {
	ctx := cmd.Context()

	store, err := a.requireStore()
	if err != nil {
		return err
	}
	defer store.Close()

	run, err := store.GetRun(ctx, id)
	if err != nil {
		return fmt.Errorf("run %s: %w", id, err)
	}
	files, err := store.ListFileResults(ctx, id)
	if err != nil {
		return err
	}

	view := newRunView(run)
	view.Files = make([]fileResultView, len(files))
	for i, f := range files {
		view.Files[i] = fileResultView{
			FilePath:   f.FilePath,
			ChangeType: f.ChangeType,
			Verdict:    f.Verdict,
			Confidence: f.Confidence,
			Reasoning:  f.Reasoning,
			Error:      f.Error,
		}
	}
	if run.Details != "" && a.output != formatText {
		var details any
		if err := json.Unmarshal([]byte(run.Details), &details); err == nil {
			view.Details = details
		}
	}

	return a.render(cmd, view, func(w io.Writer, s *styles) error {
		fmt.Fprintf(w, "%s %s\n", s.heading.Sprintf("%s run", view.Kind), view.ID)
		fmt.Fprintf(w, "  Repository: %s (%s..%s)\n", s.path.Sprint(view.Repo), view.FromRev, view.ToRev)
		if view.TestRepo != "" {
			fmt.Fprintf(w, "  Test:       %s at %s\n", s.path.Sprint(view.TestRepo), view.TestRev)
		}
		if view.Intent != "" {
			fmt.Fprintf(w, "  Intent:     %s\n", view.Intent)
		}
		fmt.Fprintf(w, "  Model:      %s\n", view.Model)
		fmt.Fprintf(w, "  Created:    %s\n", view.CreatedAt.Local().Format(time.DateTime))
		fmt.Fprintf(w, "  Verdict:    %s %s\n", s.verdict(view.Verdict, "positive", "negative"),
			s.dim.Sprintf("(confidence %.2f)", view.Confidence))
		fmt.Fprintf(w, "  Summary:    %s\n", view.Summary)

		if len(view.Files) > 0 {
			fmt.Fprintln(w)
			for _, f := range view.Files {
				fmt.Fprintf(w, "%s %s %s\n", s.verdict(f.Verdict, "✓", "✗"), s.path.Sprint(f.FilePath),
					s.dim.Sprintf("(%s)", f.ChangeType))
				if f.Error != "" {
					fmt.Fprintf(w, "    %s %s\n", s.bad.Sprint("error:"), f.Error)
				} else if f.Reasoning != "" {
					fmt.Fprintf(w, "    %s\n", f.Reasoning)
				}
			}
		}
		return nil
	})
}

func newRunsDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a run and its file results",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.requireStore()
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.DeleteRun(cmd.Context(), args[0]); err != nil {
				return fmt.Errorf("run %s: %w", args[0], err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted run %s\n", args[0])
			return nil
		},
	}
}

func newRunsStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Summarize the run history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.requireStore()
			if err != nil {
				return err
			}
			defer store.Close()

			st, err := store.GetStatus(cmd.Context())
			if err != nil {
				return err
			}

			view := statusView(*st)
			return a.render(cmd, view, func(w io.Writer, s *styles) error {
				fmt.Fprintln(w, s.heading.Sprint("Run history"))
				fmt.Fprintf(w, "  Runs:          %d (%d analysis, %d verification)\n",
					view.TotalRuns, view.AnalysisRuns, view.VerificationRuns)
				fmt.Fprintf(w, "  Positive:      %d\n", view.PositiveRuns)
				fmt.Fprintf(w, "  File results:  %d\n", view.FileResults)
				if !view.LastRunAt.IsZero() {
					fmt.Fprintf(w, "  Last run:      %s\n", view.LastRunAt.Local().Format(time.DateTime))
				}
				fmt.Fprintf(w, "  Database:      %.2f MB, schema %s, %s build\n",
					view.DatabaseSizeMB, view.SchemaVersion, view.BuildMode)
				return nil
			})
		},
	}
}

func verdictWord(v runView) string {
	switch {
	case !v.Finished:
		return "pending"
	case v.Verdict:
		return "positive"
	default:
		return "negative"
	}
}

// shortRev abbreviates full commit hashes
func shortRev(rev string) string {
	if len(rev) == 40 {
		return rev[:8]
	}
	return rev
}
