package config

import (
	"os"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"RATE_LIMIT_PER_MINUTE", "MAX_CONCURRENT_PARSES", "MAX_QUEUE_DEPTH", "MAX_FILE_SIZE_MB", "API_KEYS", "CORS_ORIGINS"} {
		os.Unsetenv(key)
	}
	cfg := Load()
	if cfg.RateLimitPerMinute != 60 {
		t.Errorf("RateLimitPerMinute = %d, want 60", cfg.RateLimitPerMinute)
	}
	if cfg.MaxConcurrentParses != 4 {
		t.Errorf("MaxConcurrentParses = %d, want 4", cfg.MaxConcurrentParses)
	}
	if cfg.MaxQueueDepth != 32 {
		t.Errorf("MaxQueueDepth = %d, want 32", cfg.MaxQueueDepth)
	}
	if len(cfg.APIKeys) != 0 {
		t.Errorf("APIKeys = %v, want empty", cfg.APIKeys)
	}
}

func TestLoadReadsOverrides(t *testing.T) {
	t.Setenv("MAX_CONCURRENT_PARSES", "8")
	t.Setenv("API_KEYS", "a, b ,c")
	cfg := Load()
	if cfg.MaxConcurrentParses != 8 {
		t.Errorf("MaxConcurrentParses = %d, want 8", cfg.MaxConcurrentParses)
	}
	if len(cfg.APIKeys) != 3 || cfg.APIKeys[0] != "a" || cfg.APIKeys[2] != "c" {
		t.Errorf("APIKeys = %v", cfg.APIKeys)
	}
}

func TestRequireGoogleAPIKey(t *testing.T) {
	cfg := Config{}
	if cfg.RequireGoogleAPIKey() {
		t.Error("expected false when GOOGLE_API_KEY is empty")
	}
	cfg.GoogleAPIKey = "key"
	if !cfg.RequireGoogleAPIKey() {
		t.Error("expected true when GOOGLE_API_KEY is set")
	}
}
