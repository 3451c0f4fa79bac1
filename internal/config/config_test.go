package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("FMETA_ENV", "")
	t.Setenv("FMETA_STORE", "")
	t.Setenv("FMETA_JWT_SECRET", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.AppPort != 8080 {
		t.Fatalf("expected default port, got %d", cfg.AppPort)
	}
	if cfg.StoreDriver != StorePostgres {
		t.Fatalf("expected postgres store, got %q", cfg.StoreDriver)
	}
	if cfg.Auth.AccessTTL != 7*24*time.Hour {
		t.Fatalf("expected seven day access tokens, got %v", cfg.Auth.AccessTTL)
	}
	if len(cfg.CORSOrigins) != 1 || cfg.CORSOrigins[0] != "*" {
		t.Fatalf("unexpected cors origins %v", cfg.CORSOrigins)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("FMETA_PORT", "9090")
	t.Setenv("FMETA_STORE", "Memory")
	t.Setenv("FMETA_ACCESS_TTL", "1h")
	t.Setenv("FMETA_CORS_ORIGINS", "https://a.example, ,https://b.example")
	t.Setenv("FMETA_SMTP_PORT", "not-a-number")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.AppPort != 9090 {
		t.Fatalf("expected port override, got %d", cfg.AppPort)
	}
	if cfg.StoreDriver != StoreMemory {
		t.Fatalf("expected memory store, got %q", cfg.StoreDriver)
	}
	if cfg.Auth.AccessTTL != time.Hour {
		t.Fatalf("expected access ttl override, got %v", cfg.Auth.AccessTTL)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "https://b.example" {
		t.Fatalf("unexpected cors origins %v", cfg.CORSOrigins)
	}
	if cfg.Mail.Port != 587 {
		t.Fatalf("expected invalid port to fall back, got %d", cfg.Mail.Port)
	}
}

func TestLoadRejectsDefaultSecretInProduction(t *testing.T) {
	t.Setenv("FMETA_ENV", "production")
	t.Setenv("FMETA_JWT_SECRET", "")

	if _, err := Load(); err == nil {
		t.Fatal("expected production without a secret to fail")
	}

	t.Setenv("FMETA_JWT_SECRET", "a-real-secret")
	if _, err := Load(); err != nil {
		t.Fatalf("expected explicit secret to load, got %v", err)
	}
}

func TestValidateRejectsUnknownStore(t *testing.T) {
	cfg := Config{StoreDriver: "mongo", Auth: AuthConfig{JWTSecret: "x", AccessTTL: time.Hour, RefreshTTL: time.Hour}}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected unknown store to be rejected")
	}
}
