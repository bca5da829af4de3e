package cli

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/dshills/intentcheck/internal/mcp"
	"github.com/dshills/intentcheck/internal/storage"
)

var (
	// Version information - typically set via ldflags at build time
	Version   = "dev"
	GitCommit = "unknown"
)

func newVersionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		// Version works without a readable configuration
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
		RunE:              runVersion,
	}
}

func runVersion(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "intentcheck %s\n", Version)
	fmt.Fprintf(out, "Commit: %s\n", GitCommit)
	fmt.Fprintf(out, "MCP server: %s %s\n", mcp.ServerName, mcp.ServerVersion)
	fmt.Fprintf(out, "SQLite driver: %s (%s build)\n", storage.DriverName, storage.BuildMode)
	fmt.Fprintf(out, "Go version: %s\n", runtime.Version())
	fmt.Fprintf(out, "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
	return nil
}
