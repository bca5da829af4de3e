package config

import (
	"time"

	"github.com/dshills/intentcheck/internal/chat"
	"github.com/dshills/intentcheck/internal/chunker"
	"github.com/dshills/intentcheck/internal/verifier"
)

// Config represents the complete intentcheck configuration.
// It can be loaded from .intentcheck/config.yml with environment variable overrides.
type Config struct {
	Chat     ChatConfig     `yaml:"chat" mapstructure:"chat"`
	Analysis AnalysisConfig `yaml:"analysis" mapstructure:"analysis"`
	Storage  StorageConfig  `yaml:"storage" mapstructure:"storage"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// ChatConfig configures the chat model provider.
type ChatConfig struct {
	Provider    string        `yaml:"provider" mapstructure:"provider"` // "openai" or "mock"
	Model       string        `yaml:"model" mapstructure:"model"`
	APIKey      string        `yaml:"api_key" mapstructure:"api_key"`
	BaseURL     string        `yaml:"base_url" mapstructure:"base_url"` // OpenAI-compatible endpoint
	Temperature float64       `yaml:"temperature" mapstructure:"temperature"`
	Timeout     time.Duration `yaml:"timeout" mapstructure:"timeout"`
	MaxRetries  int           `yaml:"max_retries" mapstructure:"max_retries"`
	CacheSize   int           `yaml:"cache_size" mapstructure:"cache_size"` // 0 disables the response cache
}

// AnalysisConfig tunes the verification pipeline.
type AnalysisConfig struct {
	ChunkLimit       int     `yaml:"chunk_limit" mapstructure:"chunk_limit"` // bytes before a file is split
	Workers          int     `yaml:"workers" mapstructure:"workers"`
	SupportThreshold float64 `yaml:"support_threshold" mapstructure:"support_threshold"`
}

// StorageConfig defines where run history is kept.
type StorageConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	DBPath  string `yaml:"db_path" mapstructure:"db_path"` // directory holding runs.db
}

// LogConfig controls the stderr logger.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`   // trace, debug, info, warn, error
	Format string `yaml:"format" mapstructure:"format"` // console or json
}

// Default returns a configuration with sensible defaults.
func Default() *Config {
	return &Config{
		Chat: ChatConfig{
			Provider:    chat.ProviderOpenAI,
			Model:       chat.DefaultOpenAIModel,
			Temperature: chat.DefaultTemperature,
			Timeout:     chat.DefaultTimeout,
			MaxRetries:  chat.DefaultMaxRetries,
			CacheSize:   1000,
		},
		Analysis: AnalysisConfig{
			ChunkLimit:       chunker.DefaultChunkLimit,
			Workers:          verifier.DefaultWorkers,
			SupportThreshold: verifier.DefaultSupportThreshold,
		},
		Storage: StorageConfig{
			Enabled: true,
			DBPath:  "~/.intentcheck",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// ChatClient returns the chat factory configuration
func (c *Config) ChatClient() chat.Config {
	return chat.Config{
		Provider:    c.Chat.Provider,
		Model:       c.Chat.Model,
		APIKey:      c.Chat.APIKey,
		BaseURL:     c.Chat.BaseURL,
		Temperature: float32(c.Chat.Temperature),
		Timeout:     c.Chat.Timeout,
		MaxRetries:  c.Chat.MaxRetries,
		CacheSize:   c.Chat.CacheSize,
	}
}

// Verifier returns the pipeline configuration
func (c *Config) Verifier() *verifier.Config {
	return &verifier.Config{
		Workers:          c.Analysis.Workers,
		ChunkLimit:       c.Analysis.ChunkLimit,
		SupportThreshold: c.Analysis.SupportThreshold,
	}
}
