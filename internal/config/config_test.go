package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("GEMINI_MODEL", "")
	t.Setenv("STORE_PREFIX", "")
	t.Setenv("ALLOW_ENGLISH", "")
	t.Setenv("JWT_EXPIRE_HOURS", "")
	t.Setenv("RATE_LIMIT_RPS", "")

	cfg := Load()
	if cfg.GeminiAPIKey != "" {
		t.Fatalf("expected empty api key default, got %q", cfg.GeminiAPIKey)
	}
	if cfg.GeminiModel != "gemini-2.5-flash" {
		t.Fatalf("expected default model, got %q", cfg.GeminiModel)
	}
	if cfg.StorePrefix != "ulss9" {
		t.Fatalf("expected default store prefix ulss9, got %q", cfg.StorePrefix)
	}
	if !cfg.AllowEnglish {
		t.Fatalf("expected english allowed by default")
	}
	if cfg.JWTExpireHours != 24 {
		t.Fatalf("expected 24h token expiry default, got %d", cfg.JWTExpireHours)
	}
	if cfg.RateLimitRPS != 10 {
		t.Fatalf("expected default rate limit 10 rps, got %v", cfg.RateLimitRPS)
	}
}

func TestLoadParsesOverrides(t *testing.T) {
	t.Setenv("STORE_PREFIX", "staging")
	t.Setenv("ALLOW_ENGLISH", "false")
	t.Setenv("JWT_EXPIRE_HOURS", "2")
	t.Setenv("RATE_LIMIT_RPS", "2.5")
	t.Setenv("RESILIENCE_BREAKER_ENABLED", "false")

	cfg := Load()
	if cfg.StorePrefix != "staging" {
		t.Fatalf("expected prefix override, got %q", cfg.StorePrefix)
	}
	if cfg.AllowEnglish {
		t.Fatalf("expected english disabled")
	}
	if cfg.JWTExpireHours != 2 {
		t.Fatalf("expected expiry override, got %d", cfg.JWTExpireHours)
	}
	if cfg.RateLimitRPS != 2.5 {
		t.Fatalf("expected fractional rate limit, got %v", cfg.RateLimitRPS)
	}
	if cfg.ResilienceBreakerEnabled {
		t.Fatalf("expected breaker disabled")
	}
}

func TestLoadIgnoresMalformedNumbers(t *testing.T) {
	t.Setenv("JWT_EXPIRE_HOURS", "not-a-number")
	t.Setenv("RATE_LIMIT_RPS", "fast")

	cfg := Load()
	if cfg.JWTExpireHours != 24 {
		t.Fatalf("malformed int must fall back, got %d", cfg.JWTExpireHours)
	}
	if cfg.RateLimitRPS != 10 {
		t.Fatalf("malformed float must fall back, got %v", cfg.RateLimitRPS)
	}
}
