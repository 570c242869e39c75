package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Auth       AuthConfig
	Log        LogConfig
	Cache      CacheConfig
	Purchasing PurchasingConfig
	Invoicing  InvoicingConfig
}

type ServerConfig struct {
	Port             string
	ReadTimeout      time.Duration
	WriteTimeout     time.Duration
	ShutdownTimeout  time.Duration
	AllowedOrigins   string
	RequestBodyLimit int64
}

type DatabaseConfig struct {
	URL      string
	MaxConns int32
}

type AuthConfig struct {
	JWTSecret     string
	TokenTTL      time.Duration
	SecureCookies bool
}

type LogConfig struct {
	Level  string
	Format string
}

type CacheConfig struct {
	Enabled             bool
	RedisURL            string
	RedisHost           string
	RedisPort           string
	RedisPassword       string
	RedisDB             int
	InventoryTTLSeconds int
}

type PurchasingConfig struct {
	// OverReceiptPolicy is "reject" or "clamp".
	OverReceiptPolicy string
}

type InvoicingConfig struct {
	DueDays int
}

// Load reads .env (if present), applies defaults and overlays environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return load(viper.New())
}

func load(v *viper.Viper) (*Config, error) {
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("SERVER_READ_TIMEOUT_SECONDS", 15)
	v.SetDefault("SERVER_WRITE_TIMEOUT_SECONDS", 15)
	v.SetDefault("SERVER_SHUTDOWN_TIMEOUT_SECONDS", 10)
	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("REQUEST_BODY_LIMIT_BYTES", 1<<20)
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("DB_MAX_CONNS", 10)
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("JWT_TTL_MINUTES", 60)
	v.SetDefault("SECURE_COOKIES", false)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "console")
	v.SetDefault("CACHE_ENABLED", false)
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("REDIS_HOST", "127.0.0.1")
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("CACHE_INVENTORY_TTL_SECONDS", 30)
	v.SetDefault("RECEIPT_OVER_POLICY", "reject")
	v.SetDefault("INVOICE_DUE_DAYS", 30)

	v.AutomaticEnv()

	cfg := &Config{
		Server: ServerConfig{
			Port:             v.GetString("SERVER_PORT"),
			ReadTimeout:      time.Duration(v.GetInt("SERVER_READ_TIMEOUT_SECONDS")) * time.Second,
			WriteTimeout:     time.Duration(v.GetInt("SERVER_WRITE_TIMEOUT_SECONDS")) * time.Second,
			ShutdownTimeout:  time.Duration(v.GetInt("SERVER_SHUTDOWN_TIMEOUT_SECONDS")) * time.Second,
			AllowedOrigins:   v.GetString("ALLOWED_ORIGINS"),
			RequestBodyLimit: v.GetInt64("REQUEST_BODY_LIMIT_BYTES"),
		},
		Database: DatabaseConfig{
			URL:      v.GetString("DATABASE_URL"),
			MaxConns: v.GetInt32("DB_MAX_CONNS"),
		},
		Auth: AuthConfig{
			JWTSecret:     v.GetString("JWT_SECRET"),
			TokenTTL:      time.Duration(v.GetInt("JWT_TTL_MINUTES")) * time.Minute,
			SecureCookies: v.GetBool("SECURE_COOKIES"),
		},
		Log: LogConfig{
			Level:  v.GetString("LOG_LEVEL"),
			Format: strings.ToLower(v.GetString("LOG_FORMAT")),
		},
		Cache: CacheConfig{
			Enabled:             v.GetBool("CACHE_ENABLED"),
			RedisURL:            v.GetString("REDIS_URL"),
			RedisHost:           v.GetString("REDIS_HOST"),
			RedisPort:           v.GetString("REDIS_PORT"),
			RedisPassword:       v.GetString("REDIS_PASSWORD"),
			RedisDB:             v.GetInt("REDIS_DB"),
			InventoryTTLSeconds: v.GetInt("CACHE_INVENTORY_TTL_SECONDS"),
		},
		Purchasing: PurchasingConfig{
			OverReceiptPolicy: strings.ToLower(v.GetString("RECEIPT_OVER_POLICY")),
		},
		Invoicing: InvoicingConfig{
			DueDays: v.GetInt("INVOICE_DUE_DAYS"),
		},
	}

	if err := cfg.validateValues(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validateValues checks values that are invalid for every entry point.
func (c *Config) validateValues() error {
	var errs []error
	switch c.Log.Format {
	case "console", "json":
	default:
		errs = append(errs, fmt.Errorf("LOG_FORMAT must be console or json, got %q", c.Log.Format))
	}
	switch c.Purchasing.OverReceiptPolicy {
	case "reject", "clamp":
	default:
		errs = append(errs, fmt.Errorf("RECEIPT_OVER_POLICY must be reject or clamp, got %q", c.Purchasing.OverReceiptPolicy))
	}
	if c.Invoicing.DueDays < 0 {
		errs = append(errs, fmt.Errorf("INVOICE_DUE_DAYS cannot be negative, got %d", c.Invoicing.DueDays))
	}
	if c.Database.MaxConns <= 0 {
		errs = append(errs, fmt.Errorf("DB_MAX_CONNS must be positive, got %d", c.Database.MaxConns))
	}
	return errors.Join(errs...)
}

// RequireDatabase reports a missing DATABASE_URL.
func (c *Config) RequireDatabase() error {
	if c.Database.URL == "" {
		return errors.New("DATABASE_URL environment variable not set")
	}
	return nil
}

// RequireServer reports every key the HTTP server cannot start without.
func (c *Config) RequireServer() error {
	var errs []error
	if err := c.RequireDatabase(); err != nil {
		errs = append(errs, err)
	}
	if c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET environment variable not set"))
	}
	return errors.Join(errs...)
}
