package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port string

	// Auth (optional: empty disables the API-key check)
	APIKey string

	// Grammar checker
	GrammarURL     string
	GrammarTimeout time.Duration
	Language       string

	// Reviewer (optional: empty key disables the reviewer)
	AnthropicAPIKey string
	AnthropicModel  string

	// Static correction data
	LexiconPath string

	// Worker pool
	WorkerCount        int
	MaxQueueSize       int
	MaxConcurrentLines int

	// Upload limits
	MaxUploadBytes int64

	// Job state
	JobTTL time.Duration

	// Latency stats window
	StatsWindow time.Duration
}

func Load() Config {
	cfg := Config{
		Port: envOr("PORT", "8090"),

		APIKey: os.Getenv("REDLINE_API_KEY"),

		GrammarURL:     envOr("LT_API_URL", "https://api.languagetool.org/v2/check"),
		GrammarTimeout: envDuration("LT_TIMEOUT", 15*time.Second),
		Language:       envOr("LT_LANGUAGE", "en-US"),

		AnthropicAPIKey: os.Getenv("ANTHROPIC_API_KEY"),
		AnthropicModel:  envOr("ANTHROPIC_MODEL", "claude-sonnet-4-5-20250929"),

		LexiconPath: envOr("LEXICON_PATH", "lexicon.toml"),

		WorkerCount:        envInt("WORKER_COUNT", 4),
		MaxQueueSize:       envInt("MAX_QUEUE_SIZE", 100),
		MaxConcurrentLines: envInt("MAX_CONCURRENT_LINES", 4),

		MaxUploadBytes: envInt64("MAX_UPLOAD_BYTES", 10485760), // 10MB

		JobTTL: envDuration("JOB_TTL", 1*time.Hour),

		StatsWindow: envDuration("STATS_WINDOW", 1*time.Hour),
	}

	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 4
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = 100
	}
	if cfg.MaxConcurrentLines <= 0 {
		cfg.MaxConcurrentLines = 4
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 10485760
	}
	if cfg.GrammarTimeout <= 0 {
		cfg.GrammarTimeout = 15 * time.Second
	}
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = 1 * time.Hour
	}

	return cfg
}

func (c Config) Validate() error {
	if c.GrammarURL == "" {
		return fmt.Errorf("LT_API_URL is required")
	}
	if c.Language == "" {
		return fmt.Errorf("LT_LANGUAGE is required")
	}
	return nil
}

// ReviewerEnabled reports whether the optional reviewer is configured.
func (c Config) ReviewerEnabled() bool {
	return c.AnthropicAPIKey != ""
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
