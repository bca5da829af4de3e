package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/dshills/intentcheck/internal/verifier"
	"github.com/dshills/intentcheck/pkg/types"
)

// ErrIntentNotFulfilled is returned by verify --strict for a negative verdict
var ErrIntentNotFulfilled = errors.New("intent not fulfilled")

type verifyOptions struct {
	req    verifier.IntentRequest
	strict bool
}

func newVerifyCmd(a *app) *cobra.Command {
	opts := &verifyOptions{}
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Check whether a commit range fulfils a test intent",
		Long: `Verify asks the chat model which functions and files the test intent needs,
reads them from the test repository at --test-rev, and then judges every file
changed between --from and --to against the intent. The intent is fulfilled
when at least half of the changed files support it.

Example:
  intentcheck verify --test-repo ./tests --test-rev main \
    --repo . --from v1.2.0 --to HEAD \
    --intent "add(2, 3) returns 5 and add handles overflow"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVerify(cmd, a, opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.req.TestRepo, "test-repo", "", "repository holding the test (path or URL)")
	flags.StringVar(&opts.req.TestRev, "test-rev", "HEAD", "revision of the test repository")
	flags.StringVar(&opts.req.Repo, "repo", "", "repository holding the changes (path or URL)")
	flags.StringVar(&opts.req.FromRev, "from", "", "base revision of the change range")
	flags.StringVar(&opts.req.ToRev, "to", "HEAD", "head revision of the change range")
	flags.StringVar(&opts.req.Intent, "intent", "", "test prompt describing the expected behavior")
	flags.BoolVar(&opts.strict, "strict", false, "exit with an error when the intent is not fulfilled")
	return cmd
}

func runVerify(cmd *cobra.Command, a *app, opts *verifyOptions) error {
	// Fail on missing flags before opening anything
	if err := opts.req.Validate(); err != nil {
		return err
	}

	v, cleanup, err := a.pipeline()
	if err != nil {
		return err
	}
	defer cleanup()

	result, err := v.VerifyIntent(cmd.Context(), opts.req)
	if err != nil {
		return err
	}

	err = a.render(cmd, result, func(w io.Writer, s *styles) error {
		printVerification(w, s, result)
		return nil
	})
	if err != nil {
		return err
	}

	if opts.strict && !result.IsIntentFulfilled {
		return fmt.Errorf("%w: %s", ErrIntentNotFulfilled, result.Explanation)
	}
	return nil
}

func printVerification(w io.Writer, s *styles, result *types.IntentVerificationResult) {
	if result.Targets != nil {
		fmt.Fprintln(w, s.heading.Sprint("Targets"))
		printTargets(w, s, result.Targets, false)
		fmt.Fprintln(w)
	}

	fmt.Fprintln(w, s.heading.Sprint("Files"))
	for _, f := range result.FilesAnalyzed {
		fmt.Fprintf(w, "%s %s %s\n", s.verdict(f.SupportsIntent, "✓", "✗"), s.path.Sprint(f.FilePath),
			s.dim.Sprintf("(%s)", f.ChangeType))
		fmt.Fprintf(w, "    %s\n", f.Reasoning)
		for _, change := range f.RelevantChanges {
			fmt.Fprintf(w, "    - %s\n", change)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "%s %s\n", s.verdict(result.IsIntentFulfilled, "FULFILLED", "NOT FULFILLED"),
		s.dim.Sprintf("(confidence %.2f)", result.Confidence))
	fmt.Fprintln(w, result.Explanation)
	if result.OverallAssessment != "" {
		fmt.Fprintln(w)
		fmt.Fprintln(w, result.OverallAssessment)
	}
	if result.RunID != "" {
		fmt.Fprintf(w, "%s %s\n", s.dim.Sprint("Run:"), result.RunID)
	}
}
