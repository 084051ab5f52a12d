// Package config loads the engine's process-level configuration:
// store/cache backend selection, the fee table, sandbox limits, and
// the debug HTTP listener — the envdecode+yaml+godotenv layering
// pattern from the teacher's pkg/config/config.go, with every field
// replaced for this domain (no database/Supabase/tracing concerns
// apply to a call-frame engine).
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// StoreConfig selects the SubstateStore backend. Driver is "memory"
// (default) or "postgres"; DSN is only read for the latter.
type StoreConfig struct {
	Driver         string `yaml:"driver" env:"STORE_DRIVER"`
	DSN            string `yaml:"dsn" env:"STORE_DSN"`
	MigrateOnStart bool   `yaml:"migrate_on_start" env:"STORE_MIGRATE_ON_START"`
}

// CacheConfig selects the optional look-aside SubstateCache backend.
// Driver is "memory" (default), "redis", or "none".
type CacheConfig struct {
	Driver  string `yaml:"driver" env:"CACHE_DRIVER"`
	Addr    string `yaml:"addr" env:"CACHE_ADDR"`
	TTLSecs int    `yaml:"ttl_secs" env:"CACHE_TTL_SECS"`
}

// FeeConfig holds a default fee budget and flat per-invocation unit
// prices (spec §1 keeps instruction-level costing out of scope). Nothing
// in this module reads it: the dispatcher charges its own built-in
// per-invocation costs, and txn.Execute funds the Reserve from the
// manifest's FeeBudget.
type FeeConfig struct {
	DefaultBudget     uint64 `yaml:"default_budget" env:"FEE_DEFAULT_BUDGET"`
	NativeCallCost    uint64 `yaml:"native_call_cost" env:"FEE_NATIVE_CALL_COST"`
	BlueprintCallCost uint64 `yaml:"blueprint_call_cost" env:"FEE_BLUEPRINT_CALL_COST"`
}

// SandboxConfig holds a call-depth limit. Nothing in this module reads
// it; a manifest's call depth comes from txn.Manifest.MaxDepth.
type SandboxConfig struct {
	MaxCallDepth int `yaml:"max_call_depth" env:"SANDBOX_MAX_CALL_DEPTH"`
}

// ServerConfig controls the debug HTTP surface (internal/api).
type ServerConfig struct {
	Host string `yaml:"host" env:"SERVER_HOST"`
	Port int    `yaml:"port" env:"SERVER_PORT"`
}

// LoggingConfig controls application logging.
type LoggingConfig struct {
	Level  string `yaml:"level" env:"LOG_LEVEL"`
	Format string `yaml:"format" env:"LOG_FORMAT"`
	Output string `yaml:"output" env:"LOG_OUTPUT"`
}

// Config is the top-level configuration structure.
type Config struct {
	Store   StoreConfig   `yaml:"store"`
	Cache   CacheConfig   `yaml:"cache"`
	Fee     FeeConfig     `yaml:"fee"`
	Sandbox SandboxConfig `yaml:"sandbox"`
	Server  ServerConfig  `yaml:"server"`
	Logging LoggingConfig `yaml:"logging"`
}

// New returns a configuration populated with defaults: an in-memory
// store and cache, a generous fee budget, and depth 32 (the original's
// own default transaction call-depth bound).
func New() *Config {
	return &Config{
		Store: StoreConfig{Driver: "memory", MigrateOnStart: true},
		Cache: CacheConfig{Driver: "memory", TTLSecs: 300},
		Fee: FeeConfig{
			DefaultBudget:     1_000_000,
			NativeCallCost:    10,
			BlueprintCallCost: 100,
		},
		Sandbox: SandboxConfig{MaxCallDepth: 32},
		Server:  ServerConfig{Host: "0.0.0.0", Port: 8080},
		Logging: LoggingConfig{Level: "info", Format: "text", Output: "stdout"},
	}
}

// Load loads configuration from CONFIG_FILE (or ./configs/config.yaml
// if present) and then applies environment-variable overrides.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := New()

	if path := strings.TrimSpace(os.Getenv("CONFIG_FILE")); path != "" {
		if err := loadFromFile(path, cfg); err != nil {
			return nil, err
		}
	} else {
		_ = loadFromFile("configs/config.yaml", cfg)
	}

	if err := envdecode.Decode(cfg); err != nil {
		if !strings.Contains(err.Error(), "none of the target fields were set") {
			return nil, fmt.Errorf("config: decode env: %w", err)
		}
	}

	return cfg, nil
}

func loadFromFile(path string, cfg *Config) error {
	expanded, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(expanded)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return yaml.Unmarshal(data, cfg)
}
