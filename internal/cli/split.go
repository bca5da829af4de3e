package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dshills/intentcheck/internal/chunker"
)

// ErrInvalidLimit is returned for a non-positive --limit
var ErrInvalidLimit = errors.New("limit must be positive")

type splitOptions struct {
	limit       int
	repo        string
	rev         string
	showContent bool
}

type chunkReport struct {
	Index   int    `json:"index" yaml:"index"`
	Start   int    `json:"start" yaml:"start"`
	End     int    `json:"end" yaml:"end"`
	Tokens  int    `json:"tokens" yaml:"tokens"`
	Content string `json:"content,omitempty" yaml:"content,omitempty"`
}

type splitReport struct {
	File       string        `json:"file" yaml:"file"`
	Size       int           `json:"size" yaml:"size"`
	Limit      int           `json:"limit" yaml:"limit"`
	NeedsSplit bool          `json:"needs_split" yaml:"needs_split"`
	Chunks     []chunkReport `json:"chunks" yaml:"chunks"`
}

func newSplitCmd(a *app) *cobra.Command {
	opts := &splitOptions{}
	cmd := &cobra.Command{
		Use:   "split <file>",
		Short: "Split a source file at definition boundaries",
		Long: `Split cuts a file into chunks that each begin at a top-level definition
(fn, def, class, function, impl, struct, ...). Concatenating the chunks gives
back the original file exactly.

When --limit is not set, the analysis chunk limit from the configuration is
used; files at or under the limit are a single chunk.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSplit(cmd, a, opts, args)
		},
	}

	cmd.Flags().IntVar(&opts.limit, "limit", 0, "size in bytes above which the file is split")
	cmd.Flags().StringVar(&opts.repo, "repo", "", "read the file from this repository (path or URL)")
	cmd.Flags().StringVar(&opts.rev, "rev", "HEAD", "revision to read with --repo")
	cmd.Flags().BoolVar(&opts.showContent, "content", false, "print chunk contents")
	return cmd
}

func runSplit(cmd *cobra.Command, a *app, opts *splitOptions, args []string) error {
	path := args[0]

	limit := opts.limit
	if !cmd.Flags().Changed("limit") {
		limit = a.cfg.Analysis.ChunkLimit
	}
	if limit < 1 {
		return fmt.Errorf("%w: %d", ErrInvalidLimit, limit)
	}

	content, err := readSource(cmd, opts.repo, opts.rev, path)
	if err != nil {
		return err
	}

	chunks := chunker.New(chunker.WithLimit(limit)).Split(content)
	report := splitReport{
		File:       path,
		Size:       len(content),
		Limit:      limit,
		NeedsSplit: len(content) > limit,
		Chunks:     make([]chunkReport, len(chunks)),
	}
	for i := range chunks {
		report.Chunks[i] = chunkReport{
			Index:  chunks[i].Index,
			Start:  chunks[i].Start,
			End:    chunks[i].End,
			Tokens: chunks[i].EstimateTokens(),
		}
		// Structured output always carries the text
		if opts.showContent || a.output != formatText {
			report.Chunks[i].Content = chunks[i].Content
		}
	}

	return a.render(cmd, report, func(w io.Writer, s *styles) error {
		fmt.Fprintf(w, "%s %s\n", s.path.Sprint(report.File),
			s.dim.Sprintf("(%d bytes, limit %d, %d chunks)", report.Size, report.Limit, len(report.Chunks)))
		for _, c := range report.Chunks {
			first := firstLine(content[c.Start:c.End])
			fmt.Fprintf(w, "  %s %6d-%-6d ~%d tokens  %s\n",
				s.heading.Sprintf("#%d", c.Index), c.Start, c.End, c.Tokens, truncate(first, 60))
			if c.Content != "" {
				fmt.Fprintln(w, c.Content)
			}
		}
		return nil
	})
}

// firstLine returns the first non-blank line of text, trimmed
func firstLine(text string) string {
	for _, line := range strings.Split(text, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
