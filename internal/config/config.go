// Package config loads and saves the anggaran TOML configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/theirongolddev/anggaran/internal/reconcile"
)

// Config holds all anggaran configuration.
type Config struct {
	General    GeneralConfig    `toml:"general"`
	Currency   CurrencyConfig   `toml:"currency"`
	Catalog    CatalogConfig    `toml:"catalog"`
	Reconcile  ReconcileConfig  `toml:"reconcile"`
	Daemon     DaemonConfig     `toml:"daemon"`
	Appearance AppearanceConfig `toml:"appearance"`
}

// GeneralConfig holds the working period and data locations.
type GeneralConfig struct {
	Year         int    `toml:"year"`
	PeriodStatus string `toml:"period_status"`
	DataDir      string `toml:"data_dir,omitempty"`
	DBPath       string `toml:"db_path,omitempty"`
}

// CurrencyConfig controls how amounts are printed.
type CurrencyConfig struct {
	Code       string `toml:"code"`
	ShowSymbol bool   `toml:"show_symbol"`
}

// CatalogConfig sizes the account lookup cache.
type CatalogConfig struct {
	CacheSize int `toml:"cache_size"`
}

// ReconcileConfig overrides the built-in recovery rule table when Rules is
// non-empty.
type ReconcileConfig struct {
	Rules []reconcile.Rule `toml:"rules,omitempty"`
}

// DaemonConfig holds report daemon settings.
type DaemonConfig struct {
	Addr         string `toml:"addr"`
	IntervalSecs int    `toml:"interval_secs"`
	EventsBuffer int    `toml:"events_buffer"`
}

// AppearanceConfig holds theme settings.
type AppearanceConfig struct {
	Theme string `toml:"theme"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		General: GeneralConfig{
			PeriodStatus: DefaultPeriodStatus,
		},
		Currency: CurrencyConfig{
			Code:       "IDR",
			ShowSymbol: true,
		},
		Catalog: CatalogConfig{
			CacheSize: 1024,
		},
		Daemon: DaemonConfig{
			Addr:         "127.0.0.1:8790",
			IntervalSecs: 15,
			EventsBuffer: 200,
		},
		Appearance: AppearanceConfig{
			Theme: "flexoki-dark",
		},
	}
}

// ConfigDir returns the XDG-compliant config directory.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "anggaran")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "anggaran")
}

// ConfigPath returns the full path to the config file.
func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.toml")
}

// DataDir returns the directory holding the document database.
func DataDir(cfg Config) string {
	if cfg.General.DataDir != "" {
		return cfg.General.DataDir
	}
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "anggaran")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", "anggaran")
}

// DBPath returns the database path from the ANGGARAN_DB env var, the config,
// or the data directory, in that order.
func DBPath(cfg Config) string {
	if p := os.Getenv("ANGGARAN_DB"); p != "" {
		return p
	}
	if cfg.General.DBPath != "" {
		return cfg.General.DBPath
	}
	return filepath.Join(DataDir(cfg), "anggaran.db")
}

// Load reads the config file, returning defaults if it doesn't exist.
func Load() (Config, error) {
	return LoadFrom(ConfigPath())
}

// LoadFrom reads the config at path, returning defaults if it doesn't exist.
func LoadFrom(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path) //nolint:gosec // path comes from the user's own flag or XDG dir
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}

	return cfg, nil
}

// Save writes the config to the default path.
func Save(cfg Config) error {
	return SaveTo(ConfigPath(), cfg)
}

// SaveTo writes the config to path.
func SaveTo(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600) //nolint:gosec // see LoadFrom
	if err != nil {
		return fmt.Errorf("creating config file: %w", err)
	}
	defer func() { _ = f.Close() }()

	enc := toml.NewEncoder(f)
	return enc.Encode(cfg)
}

// Exists returns true if a config file exists on disk.
func Exists() bool {
	_, err := os.Stat(ConfigPath())
	return err == nil
}

// Rules returns the configured recovery rules, or the built-in table.
func Rules(cfg Config) []reconcile.Rule {
	if len(cfg.Reconcile.Rules) > 0 {
		return cfg.Reconcile.Rules
	}
	return reconcile.DefaultRules()
}
