package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/dshills/intentcheck/internal/chat"
	"github.com/dshills/intentcheck/internal/config"
	"github.com/dshills/intentcheck/internal/storage"
	"github.com/dshills/intentcheck/internal/verifier"
)

var (
	// ErrInvalidOutput is returned for an unknown --output value
	ErrInvalidOutput = errors.New("invalid output format")
	// ErrInvalidColor is returned for an unknown --color value
	ErrInvalidColor = errors.New("invalid color mode")
	// ErrHistoryDisabled is returned by runs subcommands when storage is off
	ErrHistoryDisabled = errors.New("run history is disabled")
)

// app holds the flags and configuration shared by every subcommand
type app struct {
	configFile string
	logLevel   string
	output     string
	colorMode  string

	cfg *config.Config

	// newClient builds the chat client; tests swap in a mock
	newClient func(chat.Config) (chat.Client, error)
}

// NewRootCommand builds the intentcheck command tree
func NewRootCommand() *cobra.Command {
	return newRootCommand(&app{newClient: chat.New})
}

func newRootCommand(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "intentcheck",
		Short: "Locate functions, split sources and verify commits against an intent",
		Long: `intentcheck extracts function definitions from Rust, JavaScript/TypeScript and
Python sources with a lexical heuristic, splits large files at definition
boundaries, and asks a chat model whether the changes between two commits
fulfil what a test intent expects.

Configuration is read from .intentcheck/config.yml (or --config) and
INTENTCHECK_* environment variables. OPENAI_API_KEY supplies the model key.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.configFile, "config", "", "config file (default is .intentcheck/config.yml)")
	flags.StringVar(&a.logLevel, "log-level", "", "log level: trace, debug, info, warn, error")
	flags.StringVarP(&a.output, "output", "o", formatText, "output format: text, json, yaml")
	flags.StringVar(&a.colorMode, "color", "auto", "color output: auto, always, never")

	root.AddCommand(
		newLocateCmd(a),
		newSplitCmd(a),
		newChangesCmd(a),
		newTargetsCmd(a),
		newAnalyzeCmd(a),
		newVerifyCmd(a),
		newRunsCmd(a),
		newServeCmd(a),
		newVersionCmd(a),
	)
	return root
}

// Execute runs the root command with ctx and prints any error to stderr
func Execute(ctx context.Context) error {
	cmd := NewRootCommand()
	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), errorStyle.Sprint("error:"), err)
		return err
	}
	return nil
}

// setup validates global flags, loads configuration and configures logging
func (a *app) setup(cmd *cobra.Command, args []string) error {
	switch a.output {
	case formatText, formatJSON, formatYAML:
	default:
		return fmt.Errorf("%w: %s (want text, json or yaml)", ErrInvalidOutput, a.output)
	}
	if err := applyColorMode(a.colorMode); err != nil {
		return err
	}

	cfg, err := config.LoadConfig(a.configFile)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}
	if err := setupLogging(cmd.ErrOrStderr(), cfg.Log); err != nil {
		return err
	}

	a.cfg = cfg
	log.Debug().Str("provider", cfg.Chat.Provider).Str("model", cfg.Chat.Model).
		Bool("history", cfg.Storage.Enabled).Msg("configuration loaded")
	return nil
}

// setupLogging points the global logger at w. stdout stays free for
// command output and the MCP transport.
func setupLogging(w io.Writer, cfg config.LogConfig) error {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		return fmt.Errorf("%w: %v", config.ErrInvalidLogSettings, err)
	}
	zerolog.SetGlobalLevel(level)

	out := w
	if cfg.Format != "json" {
		out = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen, NoColor: !isTerminal(w)}
	}
	log.Logger = zerolog.New(out).With().Timestamp().Logger()
	return nil
}

// client builds the configured chat client
func (a *app) client() (chat.Client, error) {
	c, err := a.newClient(a.cfg.ChatClient())
	if err != nil {
		return nil, fmt.Errorf("failed to create chat client: %w", err)
	}
	return c, nil
}

// store opens the run history. It returns a nil Storage when history is disabled.
func (a *app) store() (storage.Storage, error) {
	if !a.cfg.Storage.Enabled {
		return nil, nil
	}
	s, err := storage.Open(a.cfg.Storage.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open run history: %w", err)
	}
	return s, nil
}

// requireStore opens the run history for commands that cannot work without it
func (a *app) requireStore() (storage.Storage, error) {
	if !a.cfg.Storage.Enabled {
		return nil, ErrHistoryDisabled
	}
	return a.store()
}

// pipeline wires a verifier over the configured client and history. The
// returned function releases both.
func (a *app) pipeline() (*verifier.Verifier, func(), error) {
	client, err := a.client()
	if err != nil {
		return nil, nil, err
	}
	store, err := a.store()
	if err != nil {
		_ = client.Close()
		return nil, nil, err
	}

	cleanup := func() {
		if store != nil {
			if err := store.Close(); err != nil {
				log.Warn().Err(err).Msg("failed to close run history")
			}
		}
		if err := client.Close(); err != nil {
			log.Warn().Err(err).Msg("failed to close chat client")
		}
	}
	return verifier.New(client, store, a.cfg.Verifier()), cleanup, nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && isTerminalFd(f.Fd())
}
