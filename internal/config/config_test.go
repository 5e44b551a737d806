package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.Port != "8090" {
		t.Errorf("port = %q", cfg.Port)
	}
	if cfg.GrammarURL == "" {
		t.Error("expected default grammar URL")
	}
	if cfg.Language != "en-US" {
		t.Errorf("language = %q", cfg.Language)
	}
	if cfg.WorkerCount != 4 || cfg.MaxQueueSize != 100 {
		t.Errorf("worker pool defaults = %d/%d", cfg.WorkerCount, cfg.MaxQueueSize)
	}
	if cfg.MaxUploadBytes != 10485760 {
		t.Errorf("upload limit = %d", cfg.MaxUploadBytes)
	}
	if cfg.JobTTL != time.Hour {
		t.Errorf("job ttl = %v", cfg.JobTTL)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9999")
	t.Setenv("LT_LANGUAGE", "de-DE")
	t.Setenv("WORKER_COUNT", "2")
	t.Setenv("LT_TIMEOUT", "5s")
	t.Setenv("MAX_UPLOAD_BYTES", "1024")

	cfg := Load()
	if cfg.Port != "9999" {
		t.Errorf("port = %q", cfg.Port)
	}
	if cfg.Language != "de-DE" {
		t.Errorf("language = %q", cfg.Language)
	}
	if cfg.WorkerCount != 2 {
		t.Errorf("workers = %d", cfg.WorkerCount)
	}
	if cfg.GrammarTimeout != 5*time.Second {
		t.Errorf("timeout = %v", cfg.GrammarTimeout)
	}
	if cfg.MaxUploadBytes != 1024 {
		t.Errorf("upload limit = %d", cfg.MaxUploadBytes)
	}
}

func TestLoadClampsInvalidValues(t *testing.T) {
	t.Setenv("WORKER_COUNT", "-3")
	t.Setenv("MAX_QUEUE_SIZE", "0")
	t.Setenv("LT_TIMEOUT", "nonsense")

	cfg := Load()
	if cfg.WorkerCount != 4 {
		t.Errorf("workers = %d, want fallback 4", cfg.WorkerCount)
	}
	if cfg.MaxQueueSize != 100 {
		t.Errorf("queue = %d, want fallback 100", cfg.MaxQueueSize)
	}
	if cfg.GrammarTimeout != 15*time.Second {
		t.Errorf("timeout = %v, want fallback", cfg.GrammarTimeout)
	}
}

func TestValidate(t *testing.T) {
	cfg := Load()
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}

	bad := cfg
	bad.GrammarURL = ""
	if err := bad.Validate(); err == nil {
		t.Error("expected error for missing grammar URL")
	}

	bad = cfg
	bad.Language = ""
	if err := bad.Validate(); err == nil {
		t.Error("expected error for missing language")
	}
}

func TestReviewerEnabled(t *testing.T) {
	var cfg Config
	if cfg.ReviewerEnabled() {
		t.Error("no key means reviewer disabled")
	}
	cfg.AnthropicAPIKey = "sk-test"
	if !cfg.ReviewerEnabled() {
		t.Error("key should enable reviewer")
	}
}
