package chat

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Common errors
var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrProviderFailed    = errors.New("chat provider failed")
	ErrUnsupportedModel  = errors.New("unsupported provider")
	ErrEmptyConversation = errors.New("conversation cannot be empty")
	ErrNoProviderEnabled = errors.New("no chat provider configured")
	ErrMockExhausted     = errors.New("mock has no more responses")
)

// NoResponse is returned in place of an empty completion
const NoResponse = "No response."

// Role is the author of a chat message
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one turn of a chat conversation
type Message struct {
	Role    Role
	Content string
}

// System builds a system message
func System(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

// User builds a user message
func User(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// Client sends conversations to a chat model and returns the reply text
type Client interface {
	// Complete returns the assistant reply for messages
	Complete(ctx context.Context, messages []Message) (string, error)

	// Provider returns the provider name
	Provider() string

	// Model returns the model name
	Model() string

	// Close releases any resources held by the client
	Close() error
}

// ValidateMessages validates a conversation before it is sent
func ValidateMessages(messages []Message) error {
	if len(messages) == 0 {
		return ErrEmptyConversation
	}

	for i, m := range messages {
		switch m.Role {
		case RoleSystem, RoleUser, RoleAssistant:
		default:
			return fmt.Errorf("%w: message %d has unknown role %q", ErrInvalidInput, i, m.Role)
		}
		if strings.TrimSpace(m.Content) == "" {
			return fmt.Errorf("%w: message %d is empty", ErrInvalidInput, i)
		}
	}

	return nil
}

// Cache provides in-memory LRU caching of replies by conversation hash
type Cache struct {
	cache *lru.Cache[string, string]
}

// NewCache creates a new reply cache with LRU eviction
func NewCache(maxLen int) *Cache {
	if maxLen <= 0 {
		maxLen = 1000
	}
	cache, err := lru.New[string, string](maxLen)
	if err != nil {
		cache, _ = lru.New[string, string](1000)
	}
	return &Cache{
		cache: cache,
	}
}

// Get retrieves a cached reply
func (c *Cache) Get(hash string) (string, bool) {
	return c.cache.Get(hash)
}

// Set stores a reply with automatic LRU eviction
func (c *Cache) Set(hash, reply string) {
	c.cache.Add(hash, reply)
}

// Size returns the current cache size
func (c *Cache) Size() int {
	return c.cache.Len()
}

// Clear empties the cache
func (c *Cache) Clear() {
	c.cache.Purge()
}

// ComputeHash computes a SHA-256 key for a conversation sent to model
func ComputeHash(model string, messages []Message) string {
	h := sha256.New()
	h.Write([]byte(model))
	for _, m := range messages {
		h.Write([]byte{0})
		h.Write([]byte(m.Role))
		h.Write([]byte{0})
		h.Write([]byte(m.Content))
	}
	return hex.EncodeToString(h.Sum(nil))
}
