package mcp

import (
	"context"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog/log"

	"github.com/dshills/intentcheck/internal/chat"
	"github.com/dshills/intentcheck/internal/chunker"
	"github.com/dshills/intentcheck/internal/parser"
	"github.com/dshills/intentcheck/internal/storage"
	"github.com/dshills/intentcheck/internal/verifier"
)

const (
	// ServerName is the MCP server name
	ServerName = "intentcheck"
	// ServerVersion is the current server version
	ServerVersion = "1.0.0"
)

// Server wraps the MCP server with application dependencies
type Server struct {
	mcp      *server.MCPServer
	storage  storage.Storage
	client   chat.Client
	verifier *verifier.Verifier
	locator  *parser.HeuristicLocator
	chunker  *chunker.Chunker

	// Rejects a pipeline run while another one is in flight
	lock verifier.RunLock
}

// NewServer opens the run history under dbPath and creates a server that
// answers with client
func NewServer(dbPath string, client chat.Client, config *verifier.Config) (*Server, error) {
	store, err := storage.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	return NewWithStorage(store, client, config), nil
}

// NewWithStorage creates a server over an opened store. A nil store disables
// run history and the list_runs and get_run tools report it.
func NewWithStorage(store storage.Storage, client chat.Client, config *verifier.Config) *Server {
	var opts []chunker.Option
	if config != nil && config.ChunkLimit > 0 {
		opts = append(opts, chunker.WithLimit(config.ChunkLimit))
	}

	s := &Server{
		mcp:      server.NewMCPServer(ServerName, ServerVersion, server.WithToolCapabilities(false)),
		storage:  store,
		client:   client,
		verifier: verifier.New(client, store, config),
		locator:  parser.New(),
		chunker:  chunker.New(opts...),
	}
	s.registerTools()
	return s
}

// Serve starts the MCP server on stdio and blocks until shutdown
func (s *Server) Serve(ctx context.Context) error {
	defer func() { _ = s.Close() }()

	log.Info().Str("name", ServerName).Str("version", ServerVersion).
		Str("model", s.client.Model()).Msg("serving MCP on stdio")

	// ServeStdio handles SIGINT/SIGTERM itself
	return server.ServeStdio(s.mcp)
}

// Close releases the storage and the chat client
func (s *Server) Close() error {
	var errs []error
	if s.storage != nil {
		if err := s.storage.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := s.client.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// registerTools registers all MCP tools
func (s *Server) registerTools() {
	s.mcp.AddTool(locateFunctionTool(), s.handleLocateFunction)
	s.mcp.AddTool(splitContentTool(), s.handleSplitContent)
	s.mcp.AddTool(verifyIntentTool(), s.handleVerifyIntent)
	s.mcp.AddTool(analyzeChangesTool(), s.handleAnalyzeChanges)
	s.mcp.AddTool(listRunsTool(), s.handleListRuns)
	s.mcp.AddTool(getRunTool(), s.handleGetRun)
}
