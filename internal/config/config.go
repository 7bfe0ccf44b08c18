// Package config provides configuration loading and structs for the kotae pipeline.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Embedding provider names accepted in the config file.
const (
	ProviderOpenAI = "openai"
	ProviderMock   = "mock"
)

// Config holds all configuration for the application.
type Config struct {
	Debug     bool            `yaml:"debug"`
	Server    ServerConfig    `yaml:"server"`
	Store     StoreConfig     `yaml:"store"`
	OpenAI    OpenAIConfig    `yaml:"openai"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Answer    AnswerConfig    `yaml:"answer"`
	Watch     WatchConfig     `yaml:"watch"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// StoreConfig holds the vector store location and dimensionality.
// Artifacts live at <path>.index and <path>.docs.
type StoreConfig struct {
	Path      string `yaml:"path"`
	Dimension int    `yaml:"dimension"`
}

// OpenAIConfig holds credentials shared by the embedding and answer clients.
// The API key is never read from or written to the config file.
type OpenAIConfig struct {
	APIKey  string `yaml:"-"`
	BaseURL string `yaml:"base_url"`
}

// EmbeddingConfig selects and tunes the embedding provider.
type EmbeddingConfig struct {
	Provider  string `yaml:"provider"`
	Model     string `yaml:"model"`
	CacheSize int    `yaml:"cache_size"`
}

// AnswerConfig tunes answer generation and its retry loop.
type AnswerConfig struct {
	Model             string  `yaml:"model"`
	MaxTokens         int     `yaml:"max_tokens"`
	Temperature       float64 `yaml:"temperature"`
	MaxAttempts       int     `yaml:"max_attempts"`
	RetryDelaySeconds int     `yaml:"retry_delay_seconds"`
}

// WatchConfig holds drop-directory auto-ingest settings.
// No directories means watching is disabled.
type WatchConfig struct {
	Directories []string `yaml:"directories"`
}

// Load reads and parses the config file at path, applies defaults, overlays
// environment credentials, and expands paths. Returns an error if the file
// cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)
	ApplyEnv(&cfg)

	configDir := filepath.Dir(path)
	cfg.Store.Path = expandPath(cfg.Store.Path, configDir)
	for i := range cfg.Watch.Directories {
		cfg.Watch.Directories[i] = expandPath(cfg.Watch.Directories[i], configDir)
	}

	return &cfg, nil
}

// Default returns the built-in configuration with environment credentials
// applied. Used when no config file is given.
func Default() *Config {
	var cfg Config
	ApplyDefaults(&cfg)
	ApplyEnv(&cfg)
	cfg.Store.Path = expandPath(cfg.Store.Path, ".")
	return &cfg
}

// ApplyEnv overlays environment credentials onto cfg. A .env file in the
// working directory is honored when present; real environment variables win.
func ApplyEnv(cfg *Config) {
	_ = godotenv.Load()
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.OpenAI.APIKey = v
	}
	if v := os.Getenv("OPENAI_BASE_URL"); v != "" {
		cfg.OpenAI.BaseURL = v
	}
}

// Validate checks that the configuration is usable. A missing API key with
// the openai provider is a startup failure, not a runtime one.
func (c *Config) Validate() error {
	if c.Store.Dimension <= 0 {
		return fmt.Errorf("store.dimension must be positive, got %d", c.Store.Dimension)
	}
	if c.Store.Path == "" {
		return fmt.Errorf("store.path cannot be empty")
	}
	switch c.Embedding.Provider {
	case ProviderOpenAI:
		if c.OpenAI.APIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY is required (set it in the environment or a .env file)")
		}
	case ProviderMock:
	default:
		return fmt.Errorf("unknown embedding provider %q", c.Embedding.Provider)
	}
	return nil
}

// Save writes the config to path. The API key is excluded by its yaml tag.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
