package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// revisionProperty describes a git revision parameter
func revisionProperty(description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": description + " (commit hash, branch, tag or expression such as HEAD~1)",
	}
}

// locateFunctionTool returns the tool definition for locate_function
func locateFunctionTool() mcp.Tool {
	return mcp.Tool{
		Name:        "locate_function",
		Description: "Locate the source text of a named function in Rust, JavaScript/TypeScript or Python content",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"content": map[string]interface{}{
					"type":        "string",
					"description": "Full file content to search",
				},
				"name": map[string]interface{}{
					"type":        "string",
					"description": "Function name to locate",
				},
				"filename": map[string]interface{}{
					"type":        "string",
					"description": "File name used to detect the language from its suffix (e.g., 'src/lib.rs')",
				},
				"language": map[string]interface{}{
					"type":        "string",
					"description": "Explicit language, overrides filename detection",
					"enum":        []string{"rust", "javascript", "python"},
				},
			},
			Required: []string{"content", "name"},
		},
	}
}

// splitContentTool returns the tool definition for split_content
func splitContentTool() mcp.Tool {
	return mcp.Tool{
		Name:        "split_content",
		Description: "Split file content at definition boundaries into chunks small enough for a model",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"content": map[string]interface{}{
					"type":        "string",
					"description": "File content to split",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Size in bytes above which content is split",
					"default":     12000,
					"minimum":     1,
				},
				"include_content": map[string]interface{}{
					"type":        "boolean",
					"description": "If true, return chunk text as well as offsets",
					"default":     true,
				},
			},
			Required: []string{"content"},
		},
	}
}

// verifyIntentTool returns the tool definition for verify_intent
func verifyIntentTool() mcp.Tool {
	return mcp.Tool{
		Name:        "verify_intent",
		Description: "Check whether the changes between two commits fulfill a natural-language intent about which tests should pass",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"test_repo": map[string]interface{}{
					"type":        "string",
					"description": "Repository holding the test targets (absolute path or clone URL)",
				},
				"test_rev": revisionProperty("Revision of the test repository to read targets from"),
				"repo": map[string]interface{}{
					"type":        "string",
					"description": "Repository holding the solution (absolute path or clone URL)",
				},
				"from_rev": revisionProperty("Older solution revision"),
				"to_rev":   revisionProperty("Newer solution revision"),
				"intent": map[string]interface{}{
					"type":        "string",
					"description": "Natural-language description of what should work",
				},
			},
			Required: []string{"test_repo", "test_rev", "repo", "from_rev", "to_rev", "intent"},
		},
	}
}

// analyzeChangesTool returns the tool definition for analyze_changes
func analyzeChangesTool() mcp.Tool {
	return mcp.Tool{
		Name:        "analyze_changes",
		Description: "Review the quality of every file changed between two commits",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"repo": map[string]interface{}{
					"type":        "string",
					"description": "Repository to analyze (absolute path or clone URL)",
				},
				"from_rev": revisionProperty("Older revision"),
				"to_rev":   revisionProperty("Newer revision"),
			},
			Required: []string{"repo", "from_rev", "to_rev"},
		},
	}
}

// listRunsTool returns the tool definition for list_runs
func listRunsTool() mcp.Tool {
	return mcp.Tool{
		Name:        "list_runs",
		Description: "List recorded analysis and verification runs, newest first",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"kind": map[string]interface{}{
					"type":        "string",
					"description": "Only list runs of this kind",
					"enum":        []string{"analysis", "verification"},
				},
				"repo": map[string]interface{}{
					"type":        "string",
					"description": "Only list runs for this repository",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of runs to return (1-500)",
					"default":     50,
					"minimum":     1,
					"maximum":     500,
				},
			},
		},
	}
}

// getRunTool returns the tool definition for get_run
func getRunTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_run",
		Description: "Fetch a recorded run with its per-file results",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"id": map[string]interface{}{
					"type":        "string",
					"description": "Run ID (UUID) returned by verify_intent or analyze_changes",
				},
			},
			Required: []string{"id"},
		},
	}
}
