package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/dshills/intentcheck/internal/chat"
)

var (
	// ErrInvalidProvider indicates an unsupported chat provider
	ErrInvalidProvider = errors.New("invalid chat provider")

	// ErrEmptyModel indicates a missing chat model
	ErrEmptyModel = errors.New("empty chat model")

	// ErrInvalidChatSettings indicates out-of-range chat tuning values
	ErrInvalidChatSettings = errors.New("invalid chat settings")

	// ErrInvalidChunkLimit indicates a non-positive chunk limit
	ErrInvalidChunkLimit = errors.New("invalid chunk limit")

	// ErrInvalidWorkers indicates a non-positive worker count
	ErrInvalidWorkers = errors.New("invalid worker count")

	// ErrInvalidThreshold indicates a support threshold outside (0, 1]
	ErrInvalidThreshold = errors.New("invalid support threshold")

	// ErrEmptyDBPath indicates history is enabled without a location
	ErrEmptyDBPath = errors.New("empty database path")

	// ErrInvalidLogSettings indicates an unknown log level or format
	ErrInvalidLogSettings = errors.New("invalid log settings")
)

// Validate checks that the configuration is valid and complete.
// All problems are reported together; errors.Is matches each sentinel.
func Validate(cfg *Config) error {
	var errs []error
	errs = append(errs, validateChat(&cfg.Chat)...)
	errs = append(errs, validateAnalysis(&cfg.Analysis)...)
	errs = append(errs, validateStorage(&cfg.Storage)...)
	errs = append(errs, validateLog(&cfg.Log)...)
	return errors.Join(errs...)
}

func validateChat(cfg *ChatConfig) []error {
	var errs []error

	provider := strings.ToLower(cfg.Provider)
	if provider != chat.ProviderOpenAI && provider != chat.ProviderMock {
		errs = append(errs, fmt.Errorf("%w: must be '%s' or '%s', got '%s'",
			ErrInvalidProvider, chat.ProviderOpenAI, chat.ProviderMock, cfg.Provider))
	}

	if provider == chat.ProviderOpenAI && strings.TrimSpace(cfg.Model) == "" {
		errs = append(errs, fmt.Errorf("%w: model is required", ErrEmptyModel))
	}

	if cfg.Temperature < 0 || cfg.Temperature > 2 {
		errs = append(errs, fmt.Errorf("%w: temperature must be between 0 and 2, got %.2f", ErrInvalidChatSettings, cfg.Temperature))
	}
	if cfg.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("%w: timeout must be positive, got %s", ErrInvalidChatSettings, cfg.Timeout))
	}
	if cfg.MaxRetries < 0 {
		errs = append(errs, fmt.Errorf("%w: max_retries cannot be negative, got %d", ErrInvalidChatSettings, cfg.MaxRetries))
	}
	if cfg.CacheSize < 0 {
		errs = append(errs, fmt.Errorf("%w: cache_size cannot be negative, got %d", ErrInvalidChatSettings, cfg.CacheSize))
	}

	return errs
}

func validateAnalysis(cfg *AnalysisConfig) []error {
	var errs []error

	if cfg.ChunkLimit <= 0 {
		errs = append(errs, fmt.Errorf("%w: chunk_limit must be positive, got %d", ErrInvalidChunkLimit, cfg.ChunkLimit))
	}
	if cfg.Workers <= 0 {
		errs = append(errs, fmt.Errorf("%w: workers must be positive, got %d", ErrInvalidWorkers, cfg.Workers))
	}
	if cfg.SupportThreshold <= 0 || cfg.SupportThreshold > 1 {
		errs = append(errs, fmt.Errorf("%w: support_threshold must be in (0, 1], got %.2f", ErrInvalidThreshold, cfg.SupportThreshold))
	}

	return errs
}

func validateStorage(cfg *StorageConfig) []error {
	if cfg.Enabled && strings.TrimSpace(cfg.DBPath) == "" {
		return []error{fmt.Errorf("%w: db_path is required when history is enabled", ErrEmptyDBPath)}
	}
	return nil
}

func validateLog(cfg *LogConfig) []error {
	var errs []error

	if _, err := zerolog.ParseLevel(strings.ToLower(cfg.Level)); err != nil || cfg.Level == "" {
		errs = append(errs, fmt.Errorf("%w: unknown level '%s'", ErrInvalidLogSettings, cfg.Level))
	}
	if cfg.Format != "console" && cfg.Format != "json" {
		errs = append(errs, fmt.Errorf("%w: format must be 'console' or 'json', got '%s'", ErrInvalidLogSettings, cfg.Format))
	}

	return errs
}
