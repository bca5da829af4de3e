package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dshills/intentcheck/internal/parser"
	"github.com/dshills/intentcheck/internal/repo"
	"github.com/dshills/intentcheck/pkg/types"
)

var (
	// ErrUnsupportedLanguage is returned when no locator rules apply
	ErrUnsupportedLanguage = errors.New("unsupported language")
	// ErrFunctionNotFound is returned by locate when the definition is absent
	ErrFunctionNotFound = errors.New("function not found")
)

type locateOptions struct {
	language string
	repo     string
	rev      string
}

// locateReport is the structured form of a locate result
type locateReport struct {
	File     string `json:"file" yaml:"file"`
	Name     string `json:"name" yaml:"name"`
	Language string `json:"language" yaml:"language"`
	Start    int    `json:"start" yaml:"start"`
	End      int    `json:"end" yaml:"end"`
	Line     int    `json:"line" yaml:"line"`
	Content  string `json:"content" yaml:"content"`
}

func newLocateCmd(a *app) *cobra.Command {
	opts := &locateOptions{}
	cmd := &cobra.Command{
		Use:   "locate <file> <function>",
		Short: "Print the definition of a function",
		Long: `Locate finds the first definition of a function in a Rust, JavaScript/TypeScript
or Python file and prints it. Rust doc comments and attributes, and Python
decorators and comments, directly above it are included.

The file is read from disk, or from a git revision when --repo is given.

Examples:
  # Locate in a working tree file
  intentcheck locate src/lib.rs add

  # Locate at a revision, treating the file as Python
  intentcheck locate --repo . --rev HEAD~1 --language python tools/gen.txt main`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLocate(cmd, a, opts, args)
		},
	}

	cmd.Flags().StringVarP(&opts.language, "language", "l", "", "language: rust, javascript, python (default from extension)")
	cmd.Flags().StringVar(&opts.repo, "repo", "", "read the file from this repository (path or URL)")
	cmd.Flags().StringVar(&opts.rev, "rev", "HEAD", "revision to read with --repo")
	return cmd
}

func runLocate(cmd *cobra.Command, a *app, opts *locateOptions, args []string) error {
	path, name := args[0], args[1]

	lang, err := resolveLanguage(opts.language, path)
	if err != nil {
		return err
	}

	content, err := readSource(cmd, opts.repo, opts.rev, path)
	if err != nil {
		return err
	}

	span, found := parser.New().LocateLanguage(content, name, lang)
	if !found {
		return fmt.Errorf("%w: %s in %s", ErrFunctionNotFound, name, path)
	}

	report := locateReport{
		File:     path,
		Name:     name,
		Language: string(lang),
		Start:    span.Start,
		End:      span.End,
		Line:     strings.Count(content[:span.Start], "\n") + 1,
		Content:  span.Content,
	}

	return a.render(cmd, report, func(w io.Writer, s *styles) error {
		fmt.Fprintf(w, "%s %s\n", s.path.Sprintf("%s:%d", report.File, report.Line),
			s.dim.Sprintf("(%s, bytes %d-%d)", report.Language, report.Start, report.End))
		fmt.Fprintln(w, report.Content)
		return nil
	})
}

// resolveLanguage takes the explicit language or detects it from path
func resolveLanguage(language, path string) (types.Language, error) {
	if language != "" {
		lang := types.Language(strings.ToLower(language))
		if !lang.Supported() {
			return "", fmt.Errorf("%w: %s (want rust, javascript or python)", ErrUnsupportedLanguage, language)
		}
		return lang, nil
	}

	lang := parser.DetectLanguage(path)
	if !lang.Supported() {
		return "", fmt.Errorf("%w: cannot detect language of %s, use --language", ErrUnsupportedLanguage, path)
	}
	return lang, nil
}

// readSource returns path from disk, or at rev in source when source is set
func readSource(cmd *cobra.Command, source, rev, path string) (string, error) {
	if source == "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("failed to read %s: %w", path, err)
		}
		return string(data), nil
	}

	ctx := cmd.Context()
	r, err := repo.Open(ctx, source)
	if err != nil {
		return "", err
	}
	defer r.Close()

	return r.ReadFile(ctx, rev, path)
}
