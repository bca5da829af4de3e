package chat

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Config holds chat client configuration
type Config struct {
	Provider    string
	Model       string
	APIKey      string
	BaseURL     string
	Temperature float32
	Timeout     time.Duration
	MaxRetries  int
	CacheSize   int
}

// NewFromEnv creates a client based on environment variables
// Priority:
// 1. INTENTCHECK_CHAT_PROVIDER (openai, mock)
// 2. OPENAI_API_KEY selects openai
// 3. Otherwise ErrNoProviderEnabled
func NewFromEnv() (Client, error) {
	cfg := Config{
		Provider:    DetectProvider(),
		APIKey:      os.Getenv(EnvOpenAIAPIKey),
		Temperature: DefaultTemperature,
		CacheSize:   1000,
	}
	if cfg.Provider == "" {
		return nil, fmt.Errorf("%w: set %s", ErrNoProviderEnabled, EnvOpenAIAPIKey)
	}
	return New(cfg)
}

// New creates a client with explicit configuration
func New(cfg Config) (Client, error) {
	var cache *Cache
	if cfg.CacheSize > 0 {
		cache = NewCache(cfg.CacheSize)
	}

	provider := strings.ToLower(cfg.Provider)
	switch provider {
	case ProviderOpenAI:
		retry := DefaultRetryConfig()
		if cfg.MaxRetries > 0 {
			retry.MaxRetries = cfg.MaxRetries
		}
		return NewOpenAIProvider(OpenAIOptions{
			APIKey:      cfg.APIKey,
			Model:       cfg.Model,
			BaseURL:     cfg.BaseURL,
			Temperature: cfg.Temperature,
			Timeout:     cfg.Timeout,
			Retry:       retry,
		}, cache)
	case ProviderMock:
		return &MockClient{Fallback: NoResponse}, nil
	default:
		return nil, fmt.Errorf("%w: unknown provider %s", ErrUnsupportedModel, cfg.Provider)
	}
}

// DetectProvider returns the provider that would be used based on current environment.
// It returns an empty string when nothing is configured.
func DetectProvider() string {
	provider := os.Getenv("INTENTCHECK_CHAT_PROVIDER")
	if provider != "" {
		return strings.ToLower(provider)
	}

	if os.Getenv(EnvOpenAIAPIKey) != "" {
		return ProviderOpenAI
	}

	return ""
}
