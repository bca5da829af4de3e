package verifier

import (
	"fmt"
	"strings"

	"github.com/dshills/intentcheck/internal/chat"
	"github.com/dshills/intentcheck/pkg/types"
)

// targetExtractionPrompt asks the model to list the functions and files a
// natural-language request expects to work
func targetExtractionPrompt(intent string) string {
	return fmt.Sprintf(`Extract from the following prompt the list of function names and file names that the user expects to work.

Respond ONLY in this strict JSON format:
{
  "functions": ["..."],
  "files": ["..."]
}

Prompt:
%q
`, intent)
}

// blockAnalysisPrompt asks for a quality verdict on one block of a file
func blockAnalysisPrompt(path string, part, total int, block string) string {
	return fmt.Sprintf(`Analyze the following code block (part %d/%d from file %s) and provide a JSON response with this exact structure:
{
    "is_good": true/false,
    "description": "Brief description of what the code does and its quality",
    "suggestions": "Optional suggestions for improvement or null",
    "confidence": 0.85
}

Code to analyze:
`+"```"+`
%s
`+"```"+`

Focus on:
1. Code quality and best practices
2. Potential bugs or issues
3. Readability and maintainability
4. Security concerns if any

Respond ONLY with valid JSON:`, part, total, path, block)
}

const intentSystemRules = `You are an AI specialized in code analysis for test intent verification.
- Analyze code changes in context of test requirements
- Determine if changes support making tests pass
- Identify relevant changes that fulfill user intent
- Return strict JSON with reasoning
`

const targetsAcknowledgement = "Acknowledged. I will analyze changes in context of these test targets."

// targetContext renders the located target code for the model
func targetContext(targets *types.TestTargetsWithCode) string {
	var b strings.Builder
	b.WriteString("TEST TARGETS:\n\n")
	if targets == nil {
		return b.String()
	}

	if len(targets.FunctionContents) > 0 {
		b.WriteString("Functions that need to work:\n")
		for _, fn := range targets.FunctionContents {
			if fn.Found() {
				path := fn.FilePath
				if path == "" {
					path = "unknown"
				}
				fmt.Fprintf(&b, "- Function '%s' in %s:\n```\n%s\n```\n\n", fn.Name, path, fn.Content)
			} else {
				fmt.Fprintf(&b, "- Function '%s' (not found in codebase)\n", fn.Name)
			}
		}
	}

	if len(targets.FileContents) > 0 {
		b.WriteString("\nFiles that need to work:\n")
		for _, f := range targets.FileContents {
			if f.Found() {
				fmt.Fprintf(&b, "- File '%s': %d bytes\n", f.Path, len(f.Content))
			} else {
				fmt.Fprintf(&b, "- File '%s' (error: %s)\n", f.Path, f.Error)
			}
		}
	}

	return b.String()
}

// fileChangeContext renders one changed file against the intent
func fileChangeContext(change *types.FileChange, intent string) string {
	content := change.Content
	if !change.HasContent {
		content = "[No content]"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "USER INTENT: %q\n\n", intent)
	fmt.Fprintf(&b, "CHANGED FILE: %s\n", change.Path)
	fmt.Fprintf(&b, "CHANGE TYPE: %s\n\n", change.Status)
	fmt.Fprintf(&b, "CODE CHANGES:\n```\n%s\n```\n\n", content)
	if change.Patch != "" {
		fmt.Fprintf(&b, "DIFF:\n```diff\n%s```\n\n", change.Patch)
	}
	b.WriteString("Analyze if these changes support fulfilling the user intent and making the test targets work. ")
	b.WriteString("Respond in JSON format with: supports_intent (bool), reasoning (string), relevant_changes (array), confidence (float).")
	return b.String()
}

// intentMessages builds the conversation for one changed file
func intentMessages(change *types.FileChange, targets *types.TestTargetsWithCode, intent string) []chat.Message {
	return []chat.Message{
		chat.System(intentSystemRules),
		chat.User(targetContext(targets)),
		{Role: chat.RoleAssistant, Content: targetsAcknowledgement},
		chat.User(fileChangeContext(change, intent)),
	}
}

// assessmentPrompt asks for a short overall verdict from the per-file results
func assessmentPrompt(files []types.FileIntentAnalysis, targets *types.TestTargetsWithCode, intent string) string {
	lines := make([]string, len(files))
	for i, fa := range files {
		verdict := "DOES NOT SUPPORT"
		if fa.SupportsIntent {
			verdict = "SUPPORTS"
		}
		lines[i] = fmt.Sprintf("- %s: %s (%s)", fa.FilePath, verdict, fa.Reasoning)
	}

	var t types.TestTargetsWithCode
	if targets != nil {
		t = *targets
	}

	return fmt.Sprintf(`Provide a concise overall assessment of whether the code changes fulfill the test intent.

User Intent: %q
Target Functions: %s (found %d/%d in codebase)
Target Files: %s (found %d/%d)

File Analysis Summary:
%s

Provide a 2-3 sentence assessment covering:
1. Whether the changes are likely to make the specified tests work
2. Key supporting or missing changes
3. Overall confidence in test success

Respond with just the assessment text (no JSON):`,
		intent,
		strings.Join(t.Targets.Functions, ", "), t.FoundFunctions(), len(t.Targets.Functions),
		strings.Join(t.Targets.Files, ", "), t.FoundFiles(), len(t.Targets.Files),
		strings.Join(lines, "\n"),
	)
}
