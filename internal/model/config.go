package model

import (
	"os"
	"path/filepath"
	"time"
)

// Config is the complete carbontally configuration
type Config struct {
	Ledger       LedgerConfig       `yaml:"ledger" mapstructure:"ledger"`
	Interpreter  InterpreterConfig  `yaml:"interpreter" mapstructure:"interpreter"`
	LLM          LLMConfig          `yaml:"llm" mapstructure:"llm"`
	Cache        CacheConfig        `yaml:"cache" mapstructure:"cache"`
	RateLimiting RateLimitConfig    `yaml:"rate_limiting" mapstructure:"rate_limiting"`
	Concurrency  ConcurrencyConfig  `yaml:"concurrency" mapstructure:"concurrency"`
	Server       ServerConfig       `yaml:"server" mapstructure:"server"`
	Logging      LoggingConfig      `yaml:"logging" mapstructure:"logging"`
}

// LedgerConfig controls where the per-user ledger is stored
type LedgerConfig struct {
	Path          string `yaml:"path" mapstructure:"path"`                     // sqlite database file
	HistoryLimit  int    `yaml:"history_limit" mapstructure:"history_limit"`   // rows returned by history
	LeaderboardSz int    `yaml:"leaderboard_size" mapstructure:"leaderboard_size"`
}

// InterpreterConfig tunes activity matching
type InterpreterConfig struct {
	FuzzyCutoff float64 `yaml:"fuzzy_cutoff" mapstructure:"fuzzy_cutoff"` // minimum similarity ratio (0-1)
}

// LLMConfig configures the optional reply generator.
// The numeric result never depends on it.
type LLMConfig struct {
	Provider  string `yaml:"provider" mapstructure:"provider"` // openai, anthropic, ollama, "" (disabled)
	Model     string `yaml:"model" mapstructure:"model"`
	APIKey    string `yaml:"-" mapstructure:"api_key"` // never written to disk
	BaseURL   string `yaml:"base_url,omitempty" mapstructure:"base_url"`
	Timeout   int    `yaml:"timeout" mapstructure:"timeout"` // seconds
	MaxTokens int    `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// CacheConfig controls the reply cache
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled" mapstructure:"enabled"`
	Dir       string        `yaml:"dir" mapstructure:"dir"`
	MemoryTTL time.Duration `yaml:"memory_ttl" mapstructure:"memory_ttl"`
	DiskTTL   time.Duration `yaml:"disk_ttl" mapstructure:"disk_ttl"`
}

// RateLimitConfig is applied per user
type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	BurstSize         int     `yaml:"burst_size" mapstructure:"burst_size"`
}

// ConcurrencyConfig controls batch processing
type ConcurrencyConfig struct {
	Workers int `yaml:"workers" mapstructure:"workers"`
}

// ServerConfig configures the HTTP API
type ServerConfig struct {
	Addr string `yaml:"addr" mapstructure:"addr"`
}

// LoggingConfig configures structured logging
type LoggingConfig struct {
	Level string `yaml:"level" mapstructure:"level"`
	File  string `yaml:"file,omitempty" mapstructure:"file"`
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Ledger: LedgerConfig{
			Path:          filepath.Join(dataDir(), "carbon.db"),
			HistoryLimit:  50,
			LeaderboardSz: 20,
		},
		Interpreter: InterpreterConfig{
			FuzzyCutoff: 0.6,
		},
		LLM: LLMConfig{
			Provider:  "", // Disabled by default
			Timeout:   30,
			MaxTokens: 120,
		},
		Cache: CacheConfig{
			Enabled:   true,
			Dir:       filepath.Join(dataDir(), "cache"),
			MemoryTTL: 1 * time.Hour,
			DiskTTL:   7 * 24 * time.Hour,
		},
		RateLimiting: RateLimitConfig{
			RequestsPerSecond: 1.0,
			BurstSize:         1,
		},
		Concurrency: ConcurrencyConfig{
			Workers: 4,
		},
		Server: ServerConfig{
			Addr: "127.0.0.1:5000",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// dataDir returns ~/.carbontally, or a relative directory when home is unknown
func dataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".carbontally"
	}
	return filepath.Join(home, ".carbontally")
}
