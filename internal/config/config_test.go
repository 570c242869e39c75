package config

import (
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := load(viper.New())
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Server.Port != "8080" {
		t.Errorf("port = %q, want 8080", cfg.Server.Port)
	}
	if cfg.Server.ShutdownTimeout != 10*time.Second {
		t.Errorf("shutdown timeout = %s, want 10s", cfg.Server.ShutdownTimeout)
	}
	if cfg.Server.RequestBodyLimit != 1<<20 {
		t.Errorf("body limit = %d, want %d", cfg.Server.RequestBodyLimit, 1<<20)
	}
	if cfg.Auth.TokenTTL != time.Hour {
		t.Errorf("token ttl = %s, want 1h", cfg.Auth.TokenTTL)
	}
	if cfg.Purchasing.OverReceiptPolicy != "reject" {
		t.Errorf("over-receipt policy = %q, want reject", cfg.Purchasing.OverReceiptPolicy)
	}
	if cfg.Invoicing.DueDays != 30 {
		t.Errorf("due days = %d, want 30", cfg.Invoicing.DueDays)
	}
	if cfg.Cache.Enabled {
		t.Error("cache should be disabled by default")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("RECEIPT_OVER_POLICY", "CLAMP")
	t.Setenv("CACHE_ENABLED", "true")
	t.Setenv("LOG_FORMAT", "json")

	cfg, err := load(viper.New())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != "9090" {
		t.Errorf("port = %q, want 9090", cfg.Server.Port)
	}
	if cfg.Purchasing.OverReceiptPolicy != "clamp" {
		t.Errorf("over-receipt policy = %q, want clamp", cfg.Purchasing.OverReceiptPolicy)
	}
	if !cfg.Cache.Enabled {
		t.Error("expected cache enabled")
	}
	if cfg.Log.Format != "json" {
		t.Errorf("log format = %q, want json", cfg.Log.Format)
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	t.Setenv("RECEIPT_OVER_POLICY", "accept")
	t.Setenv("LOG_FORMAT", "xml")

	_, err := load(viper.New())
	if err == nil {
		t.Fatal("expected error for invalid values")
	}
	for _, key := range []string{"RECEIPT_OVER_POLICY", "LOG_FORMAT"} {
		if !strings.Contains(err.Error(), key) {
			t.Errorf("error %q does not mention %s", err, key)
		}
	}
}

func TestRequireServer(t *testing.T) {
	cfg := &Config{}
	err := cfg.RequireServer()
	if err == nil {
		t.Fatal("expected error for empty config")
	}
	if !strings.Contains(err.Error(), "DATABASE_URL") || !strings.Contains(err.Error(), "JWT_SECRET") {
		t.Errorf("error should name both missing keys, got %q", err)
	}

	cfg.Database.URL = "postgres://localhost/test"
	cfg.Auth.JWTSecret = "secret"
	if err := cfg.RequireServer(); err != nil {
		t.Errorf("RequireServer: %v", err)
	}
}
