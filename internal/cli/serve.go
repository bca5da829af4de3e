package cli

import (
	"github.com/spf13/cobra"

	"github.com/dshills/intentcheck/internal/mcp"
)

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the MCP tools over stdio",
		Long: `Serve starts a Model Context Protocol server on stdin/stdout exposing
locate_function, split_content, verify_intent, analyze_changes, list_runs and
get_run. Logs go to stderr so the protocol stream stays clean.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, a)
		},
	}
}

func runServe(cmd *cobra.Command, a *app) error {
	client, err := a.client()
	if err != nil {
		return err
	}
	store, err := a.store()
	if err != nil {
		_ = client.Close()
		return err
	}

	// Serve closes the store and the client on return
	return mcp.NewWithStorage(store, client, a.cfg.Verifier()).Serve(cmd.Context())
}
