package canchannels

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// SiteConfig holds all configuration for a canchannels deployment.
type SiteConfig struct {
	Name string `yaml:"name"` // Site name (default "Can Channels")
	URL  string `yaml:"url"`  // Canonical URL (default "http://localhost:3000")

	Addr         string `yaml:"addr"`          // Listen address (default ":3000")
	DatabasePath string `yaml:"database_path"` // SQLite path (default "data/canchannels.db")
	StaticDir    string `yaml:"static_dir"`    // Static asset dir hosting uploaded blobs (default "public")

	SessionSecret string `yaml:"session_secret"` // Required: cookie session encryption secret
	TokenSecret   string `yaml:"token_secret"`   // Required: session token signing secret
	CookieSecure  bool   `yaml:"cookie_secure"`  // Set true for HTTPS

	// AdminEmail/AdminPassword seed the first admin account on startup when
	// no admin-level profile exists yet.
	AdminEmail    string `yaml:"admin_email"`
	AdminPassword string `yaml:"admin_password"`

	LogMode string `yaml:"log_mode"` // "dev" or "prod" (default "dev")

	// FallbackAdImage/FallbackAdLink are substituted by callers when no
	// active advertisement exists for a requested position.
	FallbackAdImage string `yaml:"fallback_ad_image"`
	FallbackAdLink  string `yaml:"fallback_ad_link"`

	PostCacheTTL   time.Duration `yaml:"post_cache_ttl"`  // Public post cache TTL (default 5min)
	SessionTimeout time.Duration `yaml:"session_timeout"` // Bound on session resumption (default 5s)
	TokenTTL       time.Duration `yaml:"token_ttl"`       // Session token lifetime (default 12h)
}

func (c *SiteConfig) setDefaults() {
	if c.Name == "" {
		c.Name = "Can Channels"
	}
	if c.URL == "" {
		c.URL = "http://localhost:3000"
	}
	if c.Addr == "" {
		c.Addr = ":3000"
	}
	if c.DatabasePath == "" {
		c.DatabasePath = "data/canchannels.db"
	}
	if c.StaticDir == "" {
		c.StaticDir = "public"
	}
	if c.LogMode == "" {
		c.LogMode = "dev"
	}
	if c.FallbackAdImage == "" {
		c.FallbackAdImage = "https://www.svgrepo.com/show/508699/landscape-placeholder.svg"
	}
	if c.FallbackAdLink == "" {
		c.FallbackAdLink = "https://example.com"
	}
	if c.PostCacheTTL == 0 {
		c.PostCacheTTL = 5 * time.Minute
	}
	if c.SessionTimeout == 0 {
		c.SessionTimeout = 5 * time.Second
	}
	if c.TokenTTL == 0 {
		c.TokenTTL = 12 * time.Hour
	}
}

// LoadConfig reads a YAML config file if path is non-empty, then layers
// environment overrides and defaults on top.
func LoadConfig(path string) (SiteConfig, error) {
	var cfg SiteConfig
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config: %w", err)
		}
	}
	cfg.Name = EnvOr("SITE_NAME", cfg.Name)
	cfg.URL = EnvOr("SITE_URL", cfg.URL)
	cfg.Addr = EnvOr("ADDR", cfg.Addr)
	cfg.DatabasePath = EnvOr("DATABASE_PATH", cfg.DatabasePath)
	cfg.StaticDir = EnvOr("STATIC_DIR", cfg.StaticDir)
	cfg.SessionSecret = EnvOr("SESSION_SECRET", cfg.SessionSecret)
	cfg.TokenSecret = EnvOr("TOKEN_SECRET", cfg.TokenSecret)
	cfg.AdminEmail = EnvOr("ADMIN_EMAIL", cfg.AdminEmail)
	cfg.AdminPassword = EnvOr("ADMIN_PASSWORD", cfg.AdminPassword)
	cfg.LogMode = EnvOr("LOG_MODE", cfg.LogMode)
	if os.Getenv("COOKIE_SECURE") == "true" {
		cfg.CookieSecure = true
	}
	cfg.setDefaults()
	return cfg, nil
}

// EnvOr returns the value of the environment variable key, or fallback if empty.
func EnvOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
