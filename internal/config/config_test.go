package config

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestLoadWith_Defaults(t *testing.T) {
	cfg, err := LoadWith(map[string]string{})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.LLMProvider != ProviderOpenAI {
		t.Fatalf("provider: %q", cfg.LLMProvider)
	}
	if cfg.SessionTTL != time.Hour {
		t.Fatalf("ttl: %v", cfg.SessionTTL)
	}
	if cfg.MaxChunkSize != 1600 || cfg.MaxOutputTokens != 2048 {
		t.Fatalf("unexpected limits: chunk=%d tokens=%d", cfg.MaxChunkSize, cfg.MaxOutputTokens)
	}
	if cfg.SessionBackend != BackendMemory {
		t.Fatalf("backend: %q", cfg.SessionBackend)
	}
}

func TestLoadWith_Overrides(t *testing.T) {
	cfg, err := LoadWith(map[string]string{
		"SESSION_TTL":     "30m",
		"SESSION_BACKEND": "redis",
		"TWILIO_FROM":     "whatsapp:+14155238886",
	})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.SessionTTL != 30*time.Minute || cfg.SessionBackend != BackendRedis {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
	if cfg.TwilioFrom != "whatsapp:+14155238886" {
		t.Fatalf("twilio from: %q", cfg.TwilioFrom)
	}
}

func TestLoadWith_BadDuration(t *testing.T) {
	if _, err := LoadWith(map[string]string{"SESSION_TTL": "soon"}); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestRequire(t *testing.T) {
	if err := Require("A", "x", "B", "y"); err != nil {
		t.Fatalf("unexpected: %v", err)
	}
	err := Require("A", "", "B", "y", "C", "  ")
	if !errors.Is(err, ErrConfigurationMissing) {
		t.Fatalf("want ErrConfigurationMissing, got %v", err)
	}
	if !strings.Contains(err.Error(), "A, C") {
		t.Fatalf("missing names not listed: %v", err)
	}
}
