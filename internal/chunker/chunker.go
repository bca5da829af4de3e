package chunker

import (
	"regexp"
	"strings"

	"github.com/dshills/intentcheck/pkg/types"
)

const (
	// DefaultChunkLimit is the content size in bytes above which a file is
	// analyzed in definition chunks instead of whole
	DefaultChunkLimit = 12000

	// TokensPerChar is the heuristic for estimating tokens (chars/4)
	TokensPerChar = 4
)

// definitionPattern recognizes definition introducers at the start of a line.
// It is tuned separately from the locator's pattern tables and intentionally
// has no Python or bare method-call form.
var definitionPattern = regexp.MustCompile(
	`(?m)^(pub\s+)?(async\s+)?(fn\s+\w+|function\s+\w+|const\s+\w+\s*=\s*\(|let\s+\w+\s*=\s*\(|export\s+(async\s+)?function\s+\w+)`,
)

// Chunker splits file content at definition boundaries
type Chunker struct {
	pattern *regexp.Regexp
	limit   int
}

// Option configures a Chunker
type Option func(*Chunker)

// WithLimit sets the size threshold used by ChunkForModel
func WithLimit(limit int) Option {
	return func(c *Chunker) {
		if limit > 0 {
			c.limit = limit
		}
	}
}

// New creates a new Chunker instance
func New(opts ...Option) *Chunker {
	c := &Chunker{
		pattern: definitionPattern,
		limit:   DefaultChunkLimit,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Limit returns the size threshold in bytes
func (c *Chunker) Limit() int {
	return c.limit
}

// Split partitions content into chunks that start at definition boundaries.
// Concatenating the chunk contents in order reproduces content exactly.
// Leading text before the first definition is its own chunk unless it is
// whitespace only, in which case it is merged into the first chunk.
func (c *Chunker) Split(content string) []types.DefinitionChunk {
	if content == "" {
		return nil
	}

	boundaries := []int{0}
	for _, loc := range c.pattern.FindAllStringIndex(content, -1) {
		if loc[0] > 0 {
			boundaries = append(boundaries, loc[0])
		}
	}

	// Whitespace-only preamble joins the first definition
	if len(boundaries) > 1 && strings.TrimSpace(content[:boundaries[1]]) == "" {
		boundaries = append(boundaries[:1], boundaries[2:]...)
	}

	chunks := make([]types.DefinitionChunk, 0, len(boundaries))
	for i, start := range boundaries {
		end := len(content)
		if i+1 < len(boundaries) {
			end = boundaries[i+1]
		}
		chunks = append(chunks, types.DefinitionChunk{
			Index:   i,
			Start:   start,
			End:     end,
			Content: content[start:end],
		})
	}

	return chunks
}

// SplitText is Split returning only the chunk contents
func (c *Chunker) SplitText(content string) []string {
	chunks := c.Split(content)
	texts := make([]string, len(chunks))
	for i := range chunks {
		texts[i] = chunks[i].Content
	}
	return texts
}

// ChunkForModel returns content whole when it fits within the limit and
// definition chunks otherwise. Blank content yields no pieces.
func (c *Chunker) ChunkForModel(content string) []string {
	if strings.TrimSpace(content) == "" {
		return nil
	}
	if len(content) <= c.limit {
		return []string{content}
	}
	return c.SplitText(content)
}

// EstimateTokens estimates model tokens for text using chars/4
func EstimateTokens(text string) int {
	return len(text) / TokensPerChar
}
