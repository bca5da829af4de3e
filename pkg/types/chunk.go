package types

import (
	"crypto/sha256"
	"errors"
	"strings"
)

// DefinitionChunk is one piece of a file split at definition boundaries
type DefinitionChunk struct {
	Index   int // Position in the chunk sequence (0-based)
	Start   int // Byte offset in the original content
	End     int // Exclusive byte offset
	Content string
}

// ValidateContent checks if the chunk content is consistent with its offsets
func (c *DefinitionChunk) ValidateContent() error {
	if c.Content == "" {
		return errors.New("chunk content cannot be empty")
	}

	if c.Start < 0 || c.End < c.Start {
		return errors.New("chunk offsets must be non-negative and ordered")
	}

	if len(c.Content) != c.End-c.Start {
		return errors.New("chunk content length does not match offsets")
	}

	return nil
}

// IsBlank reports whether the chunk holds only whitespace
func (c *DefinitionChunk) IsBlank() bool {
	return strings.TrimSpace(c.Content) == ""
}

// EstimateTokens estimates the number of model tokens in the chunk
// Uses a simple heuristic: characters / 4
func (c *DefinitionChunk) EstimateTokens() int {
	return len(c.Content) / 4
}

// ContentHash computes the SHA-256 hash of the chunk content
func (c *DefinitionChunk) ContentHash() [32]byte {
	return sha256.Sum256([]byte(c.Content))
}
