package verifier

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/intentcheck/pkg/types"
)

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name  string
		reply string
		want  string
	}{
		{"bare object", `{"a":1}`, `{"a":1}`},
		{"fenced", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"prose around", `Sure! {"a":{"b":2}} hope that helps`, `{"a":{"b":2}}`},
		{"no braces", "plain text", "plain text"},
		{"reversed braces", "} then {", "} then {"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractJSON(tt.reply))
		})
	}
}

func TestParseTargets(t *testing.T) {
	targets, err := ParseTargets("Here you go:\n```json\n{\"functions\": [\"add\"], \"files\": [\"src/lib.rs\"]}\n```")
	require.NoError(t, err)
	assert.Equal(t, []string{"add"}, targets.Functions)
	assert.Equal(t, []string{"src/lib.rs"}, targets.Files)

	_, err = ParseTargets("I could not find any targets")
	assert.ErrorIs(t, err, ErrMalformedResponse)
}

func TestParseAnalysis(t *testing.T) {
	t.Run("full reply", func(t *testing.T) {
		a, err := ParseAnalysis(`{"is_good": false, "description": "leaks", "suggestions": "close it", "confidence": 0.8}`)
		require.NoError(t, err)
		assert.False(t, a.IsGood)
		assert.Equal(t, "leaks", a.Description)
		assert.Equal(t, "close it", a.Suggestions)
		assert.InDelta(t, 0.8, a.Confidence, 1e-9)
	})

	t.Run("null suggestions", func(t *testing.T) {
		a, err := ParseAnalysis(`{"is_good": true, "description": "fine", "suggestions": null, "confidence": 0.9}`)
		require.NoError(t, err)
		assert.Empty(t, a.Suggestions)
	})

	t.Run("confidence clamped", func(t *testing.T) {
		a, err := ParseAnalysis(`{"is_good": true, "description": "x", "confidence": 7}`)
		require.NoError(t, err)
		assert.Equal(t, 1.0, a.Confidence)

		a, err = ParseAnalysis(`{"is_good": true, "description": "x", "confidence": -2}`)
		require.NoError(t, err)
		assert.Equal(t, 0.0, a.Confidence)
	})

	t.Run("missing confidence", func(t *testing.T) {
		a, err := ParseAnalysis(`{"is_good": true, "description": "x"}`)
		require.NoError(t, err)
		assert.Equal(t, 0.5, a.Confidence)
		assert.NoError(t, a.Validate())
	})

	t.Run("malformed", func(t *testing.T) {
		_, err := ParseAnalysis("the code looks fine")
		assert.ErrorIs(t, err, ErrMalformedResponse)
	})
}

func TestCombineAnalyses(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		_, err := CombineAnalyses(nil)
		assert.ErrorIs(t, err, ErrMalformedResponse)
	})

	t.Run("single reply passes through", func(t *testing.T) {
		a, err := CombineAnalyses([]string{`{"is_good": true, "description": "only", "confidence": 0.6}`})
		require.NoError(t, err)
		assert.Equal(t, "only", a.Description)
		assert.InDelta(t, 0.6, a.Confidence, 1e-9)
	})

	t.Run("multiple parts", func(t *testing.T) {
		a, err := CombineAnalyses([]string{
			`{"is_good": true, "description": "first", "confidence": 0.9}`,
			`{"is_good": false, "description": "second", "suggestions": "fix it", "confidence": 0.5}`,
		})
		require.NoError(t, err)
		assert.False(t, a.IsGood)
		assert.Equal(t, "Part 1/2: first\nPart 2/2: second", a.Description)
		assert.Equal(t, "fix it", a.Suggestions)
		assert.InDelta(t, 0.7, a.Confidence, 1e-9)
	})

	t.Run("bad part", func(t *testing.T) {
		_, err := CombineAnalyses([]string{`{"is_good": true, "description": "ok"}`, "nope"})
		require.ErrorIs(t, err, ErrMalformedResponse)
		assert.Contains(t, err.Error(), "part 2")
	})
}

func TestParseIntentAnalysis(t *testing.T) {
	change := &types.FileChange{Path: "src/lib.rs", Status: types.ChangeModified}

	tests := []struct {
		name     string
		reply    string
		supports bool
		reason   string
		changes  []string
	}{
		{
			name:     "json reply",
			reply:    `{"supports_intent": true, "reasoning": "adds add()", "relevant_changes": ["fn add", 3, "tests"], "confidence": 0.9}`,
			supports: true,
			reason:   "adds add()",
			changes:  []string{"fn add", "tests"},
		},
		{
			name:    "json without reasoning",
			reply:   `{"supports_intent": false}`,
			reason:  noReasoning,
			changes: []string{},
		},
		{
			name:    "wrong field types default",
			reply:   `{"supports_intent": "yes", "reasoning": 12, "relevant_changes": "all"}`,
			reason:  noReasoning,
			changes: []string{},
		},
		{
			name:     "fallback keyword",
			reply:    "Yes, this change SUPPORTS the intent.",
			supports: true,
			reason:   "Yes, this change SUPPORTS the intent.",
			changes:  []string{},
		},
		{
			name:    "fallback negative",
			reply:   "No, unrelated refactor.",
			reason:  "No, unrelated refactor.",
			changes: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fa := ParseIntentAnalysis(change, tt.reply)
			assert.Equal(t, "src/lib.rs", fa.FilePath)
			assert.Equal(t, types.ChangeModified, fa.ChangeType)
			assert.Equal(t, tt.supports, fa.SupportsIntent)
			assert.Equal(t, tt.reason, fa.Reasoning)
			assert.Equal(t, tt.changes, fa.RelevantChanges)
		})
	}
}
