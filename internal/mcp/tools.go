package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/rs/zerolog/log"

	"github.com/dshills/intentcheck/internal/chunker"
	"github.com/dshills/intentcheck/internal/parser"
	"github.com/dshills/intentcheck/internal/repo"
	"github.com/dshills/intentcheck/internal/storage"
	"github.com/dshills/intentcheck/internal/verifier"
	"github.com/dshills/intentcheck/pkg/types"
)

// MCP error codes
const (
	ErrorCodeInvalidParams       = -32602 // Invalid method parameters
	ErrorCodeInternalError       = -32603 // Internal JSON-RPC error
	ErrorCodeRepositoryNotFound  = -32001 // Source is not a readable git repository
	ErrorCodeRunInProgress       = -32002 // Another analysis or verification is already running
	ErrorCodeRunNotFound         = -32003 // No run with the given ID
	ErrorCodeUnsupportedLanguage = -32004 // No locator rules for the language
	ErrorCodeRevisionNotFound    = -32005 // Revision does not resolve to a commit
	ErrorCodeHistoryDisabled     = -32006 // Server runs without a run history store
)

// MaxListLimit caps list_runs
const MaxListLimit = 500

// handleLocateFunction handles the locate_function tool invocation
func (s *Server) handleLocateFunction(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	content, ok := args["content"].(string)
	if !ok {
		return nil, missingParam("content")
	}
	name, ok := args["name"].(string)
	if !ok || strings.TrimSpace(name) == "" {
		return nil, missingParam("name")
	}

	lang, err := languageParam(args)
	if err != nil {
		return nil, err
	}

	span, found := s.locator.LocateLanguage(content, name, lang)
	if !found {
		response := map[string]interface{}{
			"found":    false,
			"name":     name,
			"language": string(lang),
			"message":  "function not found",
		}
		return mcp.NewToolResultText(formatJSON(response)), nil
	}

	response := map[string]interface{}{
		"found":    true,
		"name":     name,
		"language": string(lang),
		"start":    span.Start,
		"end":      span.End,
		"length":   span.Len(),
		"content":  span.Content,
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// languageParam resolves the explicit language or detects it from filename
func languageParam(args map[string]interface{}) (types.Language, error) {
	if language := getStringDefault(args, "language", ""); language != "" {
		lang := types.Language(strings.ToLower(language))
		if !lang.Supported() {
			return "", newMCPError(ErrorCodeUnsupportedLanguage, "unsupported language", map[string]interface{}{
				"param":   "language",
				"value":   language,
				"allowed": []string{string(types.LangRust), string(types.LangJavaScript), string(types.LangPython)},
			})
		}
		return lang, nil
	}

	filename := getStringDefault(args, "filename", "")
	if filename == "" {
		return "", newMCPError(ErrorCodeInvalidParams, "filename or language parameter is required", map[string]interface{}{
			"param":  "filename",
			"reason": "missing or empty",
		})
	}

	lang := parser.DetectLanguage(filename)
	if !lang.Supported() {
		return "", newMCPError(ErrorCodeUnsupportedLanguage, "unsupported file type", map[string]interface{}{
			"param": "filename",
			"value": filename,
		})
	}
	return lang, nil
}

// handleSplitContent handles the split_content tool invocation
func (s *Server) handleSplitContent(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	content, ok := args["content"].(string)
	if !ok {
		return nil, missingParam("content")
	}

	limit := getIntDefault(args, "limit", s.chunker.Limit())
	if limit < 1 {
		return nil, newMCPError(ErrorCodeInvalidParams, "limit must be positive", map[string]interface{}{
			"param": "limit",
			"value": limit,
		})
	}
	includeContent := getBoolDefault(args, "include_content", true)

	chunks := chunker.New(chunker.WithLimit(limit)).Split(content)
	items := make([]map[string]interface{}, len(chunks))
	for i := range chunks {
		item := map[string]interface{}{
			"index":  chunks[i].Index,
			"start":  chunks[i].Start,
			"end":    chunks[i].End,
			"tokens": chunks[i].EstimateTokens(),
		}
		if includeContent {
			item["content"] = chunks[i].Content
		}
		items[i] = item
	}

	response := map[string]interface{}{
		"size":        len(content),
		"limit":       limit,
		"needs_split": len(content) > limit,
		"chunk_count": len(chunks),
		"chunks":      items,
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleVerifyIntent handles the verify_intent tool invocation
func (s *Server) handleVerifyIntent(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	req := verifier.IntentRequest{
		TestRepo: getStringDefault(args, "test_repo", ""),
		TestRev:  getStringDefault(args, "test_rev", ""),
		Repo:     getStringDefault(args, "repo", ""),
		FromRev:  getStringDefault(args, "from_rev", ""),
		ToRev:    getStringDefault(args, "to_rev", ""),
		Intent:   getStringDefault(args, "intent", ""),
	}
	if err := req.Validate(); err != nil {
		return nil, newMCPError(ErrorCodeInvalidParams, err.Error(), nil)
	}
	if err := validateSource(req.TestRepo); err != nil {
		return nil, invalidSource("test_repo", err)
	}
	if err := validateSource(req.Repo); err != nil {
		return nil, invalidSource("repo", err)
	}

	if !s.lock.TryAcquire() {
		return nil, newMCPError(ErrorCodeRunInProgress, verifier.ErrBusy.Error(), nil)
	}
	defer s.lock.Release()

	result, err := s.verifier.VerifyIntent(ctx, req)
	if err != nil {
		return nil, pipelineError("verification failed", err)
	}

	return mcp.NewToolResultText(formatJSON(result)), nil
}

// handleAnalyzeChanges handles the analyze_changes tool invocation
func (s *Server) handleAnalyzeChanges(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	source, ok := args["repo"].(string)
	if !ok || source == "" {
		return nil, missingParam("repo")
	}
	from, ok := args["from_rev"].(string)
	if !ok || from == "" {
		return nil, missingParam("from_rev")
	}
	to, ok := args["to_rev"].(string)
	if !ok || to == "" {
		return nil, missingParam("to_rev")
	}
	if err := validateSource(source); err != nil {
		return nil, invalidSource("repo", err)
	}

	if !s.lock.TryAcquire() {
		return nil, newMCPError(ErrorCodeRunInProgress, verifier.ErrBusy.Error(), nil)
	}
	defer s.lock.Release()

	result, err := s.verifier.AnalyzeRepository(ctx, source, from, to)
	if err != nil {
		return nil, pipelineError("analysis failed", err)
	}

	return mcp.NewToolResultText(formatJSON(result)), nil
}

// handleListRuns handles the list_runs tool invocation
func (s *Server) handleListRuns(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if s.storage == nil {
		return nil, historyDisabled()
	}

	// list_runs has no required parameters, so a missing map is fine
	args, _ := request.Params.Arguments.(map[string]interface{})

	filter := &storage.RunFilter{
		Kind:  storage.RunKind(getStringDefault(args, "kind", "")),
		Repo:  getStringDefault(args, "repo", ""),
		Limit: getIntDefault(args, "limit", storage.DefaultListLimit),
	}
	if filter.Kind != "" && filter.Kind != storage.KindAnalysis && filter.Kind != storage.KindVerification {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid kind", map[string]interface{}{
			"param":   "kind",
			"value":   string(filter.Kind),
			"allowed": []string{string(storage.KindAnalysis), string(storage.KindVerification)},
		})
	}
	if filter.Limit < 1 || filter.Limit > MaxListLimit {
		return nil, newMCPError(ErrorCodeInvalidParams, fmt.Sprintf("limit must be between 1 and %d", MaxListLimit), map[string]interface{}{
			"param": "limit",
			"value": filter.Limit,
		})
	}

	runs, err := s.storage.ListRuns(ctx, filter)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to list runs", map[string]interface{}{
			"error": err.Error(),
		})
	}

	items := make([]map[string]interface{}, len(runs))
	for i, run := range runs {
		items[i] = runSummary(run)
	}

	response := map[string]interface{}{
		"count": len(runs),
		"runs":  items,
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleGetRun handles the get_run tool invocation
func (s *Server) handleGetRun(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if s.storage == nil {
		return nil, historyDisabled()
	}

	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	id, ok := args["id"].(string)
	if !ok || id == "" {
		return nil, missingParam("id")
	}

	run, err := s.storage.GetRun(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, newMCPError(ErrorCodeRunNotFound, "run not found", map[string]interface{}{
			"id": id,
		})
	}
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to get run", map[string]interface{}{
			"error": err.Error(),
		})
	}

	files, err := s.storage.ListFileResults(ctx, id)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to get file results", map[string]interface{}{
			"error": err.Error(),
		})
	}

	fileItems := make([]map[string]interface{}, len(files))
	for i, f := range files {
		item := map[string]interface{}{
			"file_path":   f.FilePath,
			"change_type": f.ChangeType,
			"verdict":     f.Verdict,
			"confidence":  f.Confidence,
			"reasoning":   f.Reasoning,
		}
		if f.Error != "" {
			item["error"] = f.Error
		}
		fileItems[i] = item
	}

	response := runSummary(run)
	response["files"] = fileItems
	if run.TestRepo != "" {
		response["test_repo"] = run.TestRepo
		response["test_rev"] = run.TestRev
	}
	if run.Details != "" {
		response["details"] = json.RawMessage(run.Details)
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// runSummary renders the columns shared by list_runs and get_run
func runSummary(run *storage.Run) map[string]interface{} {
	summary := map[string]interface{}{
		"id":         run.ID,
		"kind":       string(run.Kind),
		"repo":       run.Repo,
		"from_rev":   run.FromRev,
		"to_rev":     run.ToRev,
		"model":      run.Model,
		"verdict":    run.Verdict,
		"confidence": run.Confidence,
		"summary":    run.Summary,
		"created_at": run.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		"finished":   run.Finished(),
	}
	if run.Intent != "" {
		summary["intent"] = run.Intent
	}
	return summary
}

// Helper functions

// newMCPError creates a properly formatted MCP error
func newMCPError(code int, message string, data interface{}) error {
	// MCP errors are returned as regular errors, the framework handles encoding
	return &MCPError{
		Code:    code,
		Message: message,
		Data:    data,
	}
}

// MCPError represents an MCP protocol error
type MCPError struct {
	Code    int
	Message string
	Data    interface{}
}

func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

func missingParam(param string) error {
	return newMCPError(ErrorCodeInvalidParams, param+" parameter is required", map[string]interface{}{
		"param":  param,
		"reason": "missing or empty",
	})
}

func historyDisabled() error {
	return newMCPError(ErrorCodeHistoryDisabled, "run history is disabled", nil)
}

func invalidSource(param string, err error) error {
	return newMCPError(ErrorCodeInvalidParams, "invalid repository", map[string]interface{}{
		"param":  param,
		"reason": err.Error(),
	})
}

// pipelineError maps verifier and git failures onto MCP error codes
func pipelineError(message string, err error) error {
	code := ErrorCodeInternalError
	switch {
	case errors.Is(err, verifier.ErrInvalidRequest):
		code = ErrorCodeInvalidParams
	case errors.Is(err, repo.ErrRevisionNotFound):
		code = ErrorCodeRevisionNotFound
	case errors.Is(err, git.ErrRepositoryNotExists):
		code = ErrorCodeRepositoryNotFound
	}

	log.Error().Err(err).Int("code", code).Msg(message)
	return newMCPError(code, message, map[string]interface{}{
		"error": err.Error(),
	})
}

// validateSource checks that a local repository path exists and is a readable
// directory. Remote URLs are left for the clone to validate.
func validateSource(source string) error {
	if source == "" {
		return ErrPathRequired
	}
	if repo.IsRemote(source) {
		return nil
	}

	// Check if path is absolute
	if !filepath.IsAbs(source) {
		return ErrPathNotAbsolute
	}

	// Check if path exists
	info, err := os.Stat(source)
	if os.IsNotExist(err) {
		return ErrPathNotFound
	}
	if err != nil {
		return ErrPathNotReadable
	}

	// Check if it's a directory
	if !info.IsDir() {
		return ErrNotDirectory
	}

	// Check if directory is readable
	f, err := os.Open(source)
	if err != nil {
		return ErrPathNotReadable
	}
	_ = f.Close()

	return nil
}

// formatJSON formats a value as indented JSON
func formatJSON(data interface{}) string {
	bytes, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", data)
	}
	return string(bytes)
}

// getBoolDefault extracts a boolean parameter with a default value
func getBoolDefault(args map[string]interface{}, key string, defaultValue bool) bool {
	if val, ok := args[key].(bool); ok {
		return val
	}
	return defaultValue
}

// getIntDefault extracts an integer parameter with a default value
func getIntDefault(args map[string]interface{}, key string, defaultValue int) int {
	if val, ok := args[key].(float64); ok {
		return int(val)
	}
	if val, ok := args[key].(int); ok {
		return val
	}
	return defaultValue
}

// getStringDefault extracts a string parameter with a default value
func getStringDefault(args map[string]interface{}, key string, defaultValue string) string {
	if val, ok := args[key].(string); ok {
		return val
	}
	return defaultValue
}

// Validation helpers

var (
	ErrPathRequired    = errors.New("path is required")
	ErrPathNotAbsolute = errors.New("path must be absolute")
	ErrPathNotFound    = errors.New("path does not exist")
	ErrPathNotReadable = errors.New("path is not readable")
	ErrNotDirectory    = errors.New("path is not a directory")
)
