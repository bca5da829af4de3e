package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/dshills/intentcheck/internal/repo"
	"github.com/dshills/intentcheck/pkg/types"
)

type changesOptions struct {
	patch bool
}

type changeReport struct {
	Path       string           `json:"path" yaml:"path"`
	Status     types.ChangeType `json:"status" yaml:"status"`
	Bytes      int              `json:"bytes" yaml:"bytes"`
	Analyzable bool             `json:"analyzable" yaml:"analyzable"`
	Patch      string           `json:"patch,omitempty" yaml:"patch,omitempty"`
}

type changesReport struct {
	Repo    string         `json:"repo" yaml:"repo"`
	From    string         `json:"from" yaml:"from"`
	To      string         `json:"to" yaml:"to"`
	Changes []changeReport `json:"changes" yaml:"changes"`
}

func newChangesCmd(a *app) *cobra.Command {
	opts := &changesOptions{}
	cmd := &cobra.Command{
		Use:   "changes <repo> <from> <to>",
		Short: "List the files changed between two revisions",
		Long: `Changes diffs the trees of two revisions and lists every added, modified and
deleted file. Binary and non-UTF-8 files are listed but marked as not
analyzable. <repo> is a local path or a remote URL, which is cloned first.`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChanges(cmd, a, opts, args)
		},
	}

	cmd.Flags().BoolVarP(&opts.patch, "patch", "p", false, "include unified diffs")
	return cmd
}

func runChanges(cmd *cobra.Command, a *app, opts *changesOptions, args []string) error {
	source, from, to := args[0], args[1], args[2]

	changes, err := repo.ChangedFiles(cmd.Context(), source, from, to)
	if err != nil {
		return err
	}

	report := changesReport{Repo: source, From: from, To: to, Changes: make([]changeReport, len(changes))}
	for i := range changes {
		ch := &changes[i]
		report.Changes[i] = changeReport{
			Path:       ch.Path,
			Status:     ch.Status,
			Bytes:      len(ch.Content),
			Analyzable: ch.Analyzable(),
		}
		if opts.patch {
			report.Changes[i].Patch = ch.Patch
		}
	}

	return a.render(cmd, report, func(w io.Writer, s *styles) error {
		if len(report.Changes) == 0 {
			fmt.Fprintf(w, "No changes between %s and %s\n", from, to)
			return nil
		}
		fmt.Fprintf(w, "%s\n", s.heading.Sprintf("%d files changed between %s and %s", len(report.Changes), from, to))
		for _, c := range report.Changes {
			note := ""
			if c.Status != types.ChangeDeleted && !c.Analyzable {
				note = s.dim.Sprint(" (not analyzable)")
			}
			fmt.Fprintf(w, "  %s %s%s\n", statusMarker(s, c.Status), s.path.Sprint(c.Path), note)
			if c.Patch != "" {
				fmt.Fprintln(w, c.Patch)
			}
		}
		return nil
	})
}

func statusMarker(s *styles, status types.ChangeType) string {
	switch status {
	case types.ChangeAdded:
		return s.good.Sprint("A")
	case types.ChangeDeleted:
		return s.bad.Sprint("D")
	default:
		return s.heading.Sprint("M")
	}
}
