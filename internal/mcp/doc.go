// Package mcp implements the Model Context Protocol (MCP) server for intentcheck.
//
// The MCP server exposes six tools to AI coding assistants:
//   - locate_function: Return the source span of a named function
//   - split_content: Split oversized content at definition boundaries
//   - verify_intent: Judge whether a commit range fulfills a test intent
//   - analyze_changes: Review every file changed in a commit range
//   - list_runs: List recorded runs, newest first
//   - get_run: Fetch one run with its per-file results
//
// # Protocol Overview
//
// MCP is a JSON-RPC 2.0 protocol over stdio transport:
//
//	Client → Server: {"method": "tools/call", "params": {...}}
//	Server → Client: {"result": {...}}
//
// The server is started with:
//
//	intentcheck serve
//
// It then listens on stdin for MCP protocol messages and writes responses to
// stdout. Logs go to stderr.
//
// # Tool: locate_function
//
//	Request:
//	{
//	  "name": "locate_function",
//	  "arguments": {
//	    "content": "fn add(a: i32, b: i32) -> i32 {\n    a + b\n}\n",
//	    "name": "add",
//	    "filename": "src/lib.rs"
//	  }
//	}
//
//	Response:
//	{
//	  "found": true,
//	  "language": "rust",
//	  "start": 0,
//	  "end": 43,
//	  "content": "fn add(a: i32, b: i32) -> i32 {\n    a + b\n}"
//	}
//
// A miss is not an error: the response carries "found": false.
//
// # Tool: verify_intent
//
//	Request:
//	{
//	  "name": "verify_intent",
//	  "arguments": {
//	    "test_repo": "https://github.com/org/tests",
//	    "test_rev": "4f1c2e9",
//	    "repo": "/path/to/solution",
//	    "from_rev": "HEAD~1",
//	    "to_rev": "HEAD",
//	    "intent": "make add and the parser tests pass"
//	  }
//	}
//
// The response is the full verification report, including run_id when the run
// was recorded. Only one verify_intent or analyze_changes call runs at a time;
// a concurrent call fails with -32002.
//
// # Error Handling
//
// Error codes:
//   - -32602: Invalid params (missing/invalid arguments)
//   - -32603: Internal error (model, database, filesystem)
//   - -32001: Repository not found
//   - -32002: Run in progress
//   - -32003: Run not found
//   - -32004: Unsupported language
//   - -32005: Revision not found
//   - -32006: Run history disabled (storage.enabled is false)
//
// # MCP Client Configuration
//
//	{
//	  "mcpServers": {
//	    "intentcheck": {
//	      "command": "/usr/local/bin/intentcheck",
//	      "args": ["serve"],
//	      "env": {
//	        "OPENAI_API_KEY": "your-api-key"
//	      }
//	    }
//	  }
//	}
package mcp
