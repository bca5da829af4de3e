package verifier

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/dshills/intentcheck/pkg/types"
)

// ErrMalformedResponse is returned when a model reply cannot be decoded
var ErrMalformedResponse = errors.New("malformed model response")

const noReasoning = "No reasoning provided"

// ExtractJSON returns the text from the first '{' through the last '}'.
// Replies without such a pair are returned unchanged.
func ExtractJSON(reply string) string {
	start := strings.IndexByte(reply, '{')
	end := strings.LastIndexByte(reply, '}')
	if start >= 0 && end > start {
		return reply[start : end+1]
	}
	return reply
}

// ParseTargets decodes a target extraction reply
func ParseTargets(reply string) (*types.TestTargets, error) {
	var targets types.TestTargets
	if err := json.Unmarshal([]byte(ExtractJSON(reply)), &targets); err != nil {
		return nil, fmt.Errorf("%w: targets: %v", ErrMalformedResponse, err)
	}
	return &targets, nil
}

type analysisReply struct {
	IsGood      bool     `json:"is_good"`
	Description string   `json:"description"`
	Suggestions *string  `json:"suggestions"`
	Confidence  *float64 `json:"confidence"`
}

// ParseAnalysis decodes a code analysis reply. Confidence is clamped to [0, 1].
func ParseAnalysis(reply string) (*types.CodeAnalysis, error) {
	var r analysisReply
	if err := json.Unmarshal([]byte(ExtractJSON(reply)), &r); err != nil {
		return nil, fmt.Errorf("%w: analysis: %v", ErrMalformedResponse, err)
	}

	a := &types.CodeAnalysis{
		IsGood:      r.IsGood,
		Description: r.Description,
		Confidence:  0.5,
	}
	if r.Suggestions != nil {
		a.Suggestions = *r.Suggestions
	}
	if r.Confidence != nil {
		a.Confidence = clamp(*r.Confidence)
	}
	return a, nil
}

// CombineAnalyses merges the replies for the parts of a split file.
// The file is good only when every part is.
func CombineAnalyses(replies []string) (*types.CodeAnalysis, error) {
	if len(replies) == 0 {
		return nil, fmt.Errorf("%w: no analyses to combine", ErrMalformedResponse)
	}
	if len(replies) == 1 {
		return ParseAnalysis(replies[0])
	}

	combined := &types.CodeAnalysis{IsGood: true}
	descriptions := make([]string, 0, len(replies))
	var suggestions []string
	var total float64

	for i, reply := range replies {
		a, err := ParseAnalysis(reply)
		if err != nil {
			return nil, fmt.Errorf("part %d: %w", i+1, err)
		}
		combined.IsGood = combined.IsGood && a.IsGood
		descriptions = append(descriptions, fmt.Sprintf("Part %d/%d: %s", i+1, len(replies), a.Description))
		if a.Suggestions != "" {
			suggestions = append(suggestions, a.Suggestions)
		}
		total += a.Confidence
	}

	combined.Description = strings.Join(descriptions, "\n")
	combined.Suggestions = strings.Join(suggestions, "\n")
	combined.Confidence = total / float64(len(replies))
	return combined, nil
}

// ParseIntentAnalysis decodes a per-file intent reply. When the reply is not
// JSON the verdict falls back to a keyword match and the raw text becomes the
// reasoning.
func ParseIntentAnalysis(change *types.FileChange, reply string) types.FileIntentAnalysis {
	fa := types.FileIntentAnalysis{
		FilePath:        change.Path,
		ChangeType:      change.Status,
		RelevantChanges: []string{},
	}

	var r map[string]any
	if err := json.Unmarshal([]byte(ExtractJSON(reply)), &r); err != nil {
		lower := strings.ToLower(reply)
		fa.SupportsIntent = strings.Contains(lower, "true") ||
			strings.Contains(lower, "yes") ||
			strings.Contains(lower, "supports")
		fa.Reasoning = reply
		return fa
	}

	fa.SupportsIntent, _ = r["supports_intent"].(bool)
	fa.Reasoning = noReasoning
	if s, ok := r["reasoning"].(string); ok {
		fa.Reasoning = s
	}
	changes, _ := r["relevant_changes"].([]any)
	for _, v := range changes {
		if s, ok := v.(string); ok {
			fa.RelevantChanges = append(fa.RelevantChanges, s)
		}
	}
	return fa
}

func clamp(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
