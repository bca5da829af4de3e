package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/dshills/intentcheck/internal/chat"
)

const (
	// EnvPrefix prefixes every environment override (INTENTCHECK_CHAT_MODEL, ...)
	EnvPrefix = "INTENTCHECK"
	// ConfigDir is searched in the root directory for config.yml
	ConfigDir = ".intentcheck"
)

// Loader provides configuration loading capabilities.
type Loader interface {
	// Load loads configuration from file and environment variables.
	// Priority: defaults → config file → environment variables (env wins)
	Load() (*Config, error)
}

type loader struct {
	rootDir    string
	configFile string
}

// NewLoader creates a loader that searches rootDir/.intentcheck for
// config.yml. A non-empty configFile is read instead and must exist.
func NewLoader(rootDir, configFile string) Loader {
	return &loader{
		rootDir:    rootDir,
		configFile: configFile,
	}
}

// Load loads configuration with the following priority (highest to lowest):
// 1. Environment variables (INTENTCHECK_*, OPENAI_API_KEY for the key)
// 2. Config file (--config, or .intentcheck/config.yml / config.yaml)
// 3. Default values
func (l *loader) Load() (*Config, error) {
	v := viper.New()

	if l.configFile != "" {
		v.SetConfigFile(l.configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(filepath.Join(l.rootDir, ConfigDir))
	}

	// Enable environment variable overrides
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	// Replace . with _ in env var names (e.g., INTENTCHECK_CHAT_PROVIDER)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// The key falls back to the conventional OpenAI variable
	if err := v.BindEnv("chat.api_key", EnvPrefix+"_CHAT_API_KEY", chat.EnvOpenAIAPIKey); err != nil {
		return nil, fmt.Errorf("failed to bind environment: %w", err)
	}

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		// Config file not found is acceptable when searching - we'll use defaults + env vars
		var notFound viper.ConfigFileNotFoundError
		if l.configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// setDefaults configures viper with default values. Every key needs a
// default so AutomaticEnv can override it during Unmarshal.
func setDefaults(v *viper.Viper) {
	defaults := Default()

	// Chat defaults
	v.SetDefault("chat.provider", defaults.Chat.Provider)
	v.SetDefault("chat.model", defaults.Chat.Model)
	v.SetDefault("chat.api_key", defaults.Chat.APIKey)
	v.SetDefault("chat.base_url", defaults.Chat.BaseURL)
	v.SetDefault("chat.temperature", defaults.Chat.Temperature)
	v.SetDefault("chat.timeout", defaults.Chat.Timeout)
	v.SetDefault("chat.max_retries", defaults.Chat.MaxRetries)
	v.SetDefault("chat.cache_size", defaults.Chat.CacheSize)

	// Analysis defaults
	v.SetDefault("analysis.chunk_limit", defaults.Analysis.ChunkLimit)
	v.SetDefault("analysis.workers", defaults.Analysis.Workers)
	v.SetDefault("analysis.support_threshold", defaults.Analysis.SupportThreshold)

	// Storage defaults
	v.SetDefault("storage.enabled", defaults.Storage.Enabled)
	v.SetDefault("storage.db_path", defaults.Storage.DBPath)

	// Log defaults
	v.SetDefault("log.level", defaults.Log.Level)
	v.SetDefault("log.format", defaults.Log.Format)
}

// LoadConfig loads configuration rooted at the current working directory.
func LoadConfig(configFile string) (*Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %w", err)
	}
	return NewLoader(wd, configFile).Load()
}
