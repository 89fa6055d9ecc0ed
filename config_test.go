package canchannels

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Name != "Can Channels" {
		t.Errorf("Name = %q", cfg.Name)
	}
	if cfg.Addr != ":3000" {
		t.Errorf("Addr = %q", cfg.Addr)
	}
	if cfg.PostCacheTTL != 5*time.Minute {
		t.Errorf("PostCacheTTL = %v", cfg.PostCacheTTL)
	}
	if cfg.SessionTimeout != 5*time.Second {
		t.Errorf("SessionTimeout = %v", cfg.SessionTimeout)
	}
	if cfg.TokenTTL != 12*time.Hour {
		t.Errorf("TokenTTL = %v", cfg.TokenTTL)
	}
}

func TestLoadConfigFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte("name: Test Site\naddr: \":8080\"\nsession_secret: file-secret\n")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Name != "Test Site" {
		t.Errorf("Name = %q, want Test Site", cfg.Name)
	}
	if cfg.Addr != ":8080" {
		t.Errorf("Addr = %q, want :8080", cfg.Addr)
	}
	if cfg.SessionSecret != "file-secret" {
		t.Errorf("SessionSecret = %q", cfg.SessionSecret)
	}
	// Unset fields still receive defaults.
	if cfg.DatabasePath != "data/canchannels.db" {
		t.Errorf("DatabasePath = %q", cfg.DatabasePath)
	}
}

func TestLoadConfigEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("name: From File\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("SITE_NAME", "From Env")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Name != "From Env" {
		t.Errorf("Name = %q, want env override", cfg.Name)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected an error for a missing config file")
	}
}
