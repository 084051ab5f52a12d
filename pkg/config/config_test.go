package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNewReturnsDefaults(t *testing.T) {
	cfg := New()
	if cfg.Store.Driver != "memory" {
		t.Fatalf("expected memory store by default, got %q", cfg.Store.Driver)
	}
	if cfg.Fee.DefaultBudget == 0 {
		t.Fatalf("expected a non-zero default fee budget")
	}
	if cfg.Sandbox.MaxCallDepth != 32 {
		t.Fatalf("expected max call depth 32, got %d", cfg.Sandbox.MaxCallDepth)
	}
}

func TestLoadFromFileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yamlContent := "store:\n  driver: postgres\n  dsn: postgres://example\nfee:\n  default_budget: 42\n"
	if err := os.WriteFile(path, []byte(yamlContent), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg := New()
	if err := loadFromFile(path, cfg); err != nil {
		t.Fatalf("loadFromFile: %v", err)
	}
	if cfg.Store.Driver != "postgres" || cfg.Store.DSN != "postgres://example" {
		t.Fatalf("expected overridden store config, got %#v", cfg.Store)
	}
	if cfg.Fee.DefaultBudget != 42 {
		t.Fatalf("expected overridden fee budget 42, got %d", cfg.Fee.DefaultBudget)
	}
	if cfg.Sandbox.MaxCallDepth != 32 {
		t.Fatalf("expected untouched fields to keep their defaults, got %d", cfg.Sandbox.MaxCallDepth)
	}
}

func TestLoadFromFileIgnoresMissingFile(t *testing.T) {
	cfg := New()
	if err := loadFromFile(filepath.Join(t.TempDir(), "missing.yaml"), cfg); err != nil {
		t.Fatalf("expected no error for a missing file, got %v", err)
	}
}
