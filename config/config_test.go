package config

import (
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	for _, k := range []string{"PORT", "JWT_SECRET", "INVOICE_SECRET", "JWT_TTL", "CORS_ORIGINS"} {
		t.Setenv(k, "")
	}

	cfg := LoadConfig()
	if cfg.Port != ":8080" {
		t.Errorf("expected :8080, got %q", cfg.Port)
	}
	if cfg.JWTSecret == "" || cfg.InvoiceSecret != cfg.JWTSecret {
		t.Errorf("expected dev secret shared with invoices, got %q/%q", cfg.JWTSecret, cfg.InvoiceSecret)
	}
	if cfg.JWTTTL != 72*time.Hour {
		t.Errorf("expected 72h token TTL, got %v", cfg.JWTTTL)
	}
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("INVOICE_SECRET", "inv")
	t.Setenv("CACHE_TTL", "5m")
	t.Setenv("RATE_LIMIT_BURST", "3")
	t.Setenv("CORS_ORIGINS", "https://a.example,https://b.example")

	cfg := LoadConfig()
	if cfg.Port != ":9090" {
		t.Errorf("expected :9090, got %q", cfg.Port)
	}
	if cfg.JWTSecret != "s3cret" || cfg.InvoiceSecret != "inv" {
		t.Errorf("secrets not read: %q/%q", cfg.JWTSecret, cfg.InvoiceSecret)
	}
	if cfg.CacheTTL != 5*time.Minute || cfg.RateLimitBurst != 3 {
		t.Errorf("unexpected cache ttl %v burst %d", cfg.CacheTTL, cfg.RateLimitBurst)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "https://b.example" {
		t.Errorf("unexpected origins %v", cfg.CORSOrigins)
	}
}
