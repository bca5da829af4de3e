package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"
)

// Output formats accepted by --output
const (
	formatText = "text"
	formatJSON = "json"
	formatYAML = "yaml"
)

var errorStyle = color.New(color.Bold, color.FgRed)

// styles holds the color formatters for text reports
type styles struct {
	heading *color.Color
	path    *color.Color
	good    *color.Color
	bad     *color.Color
	dim     *color.Color
}

// newStyles creates the text report formatters.
// enabled=false honors --color never and NO_COLOR.
func newStyles(enabled bool) *styles {
	s := &styles{
		heading: color.New(color.Bold),
		path:    color.New(color.FgHiBlue),
		good:    color.New(color.Bold, color.FgGreen),
		bad:     color.New(color.Bold, color.FgRed),
		dim:     color.New(color.Faint),
	}

	if !enabled {
		s.heading.DisableColor()
		s.path.DisableColor()
		s.good.DisableColor()
		s.bad.DisableColor()
		s.dim.DisableColor()
	}

	return s
}

// verdict renders a pass/fail marker
func (s *styles) verdict(ok bool, yes, no string) string {
	if ok {
		return s.good.Sprint(yes)
	}
	return s.bad.Sprint(no)
}

// applyColorMode sets the global color switch from --color
func applyColorMode(mode string) error {
	switch mode {
	case "always":
		color.NoColor = false
	case "never":
		color.NoColor = true
	case "auto":
		// Color only on a TTY and when NO_COLOR is unset
		color.NoColor = !isTerminalFd(os.Stdout.Fd()) || os.Getenv("NO_COLOR") != ""
	default:
		return fmt.Errorf("%w: %s (want auto, always or never)", ErrInvalidColor, mode)
	}
	return nil
}

func isTerminalFd(fd uintptr) bool {
	return term.IsTerminal(int(fd))
}

// render writes v in the selected structured format, or hands the writer to
// text for the human format.
func (a *app) render(cmd *cobra.Command, v any, text func(io.Writer, *styles) error) error {
	out := cmd.OutOrStdout()

	switch a.output {
	case formatJSON:
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case formatYAML:
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return text(out, newStyles(!color.NoColor))
	}
}

// truncate shortens s to at most n bytes for one-line summaries
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	if n <= 3 {
		return s[:n]
	}
	return s[:n-3] + "..."
}
