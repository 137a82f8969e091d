package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNormalizePeriod(t *testing.T) {
	tests := []struct {
		year, status, want string
	}{
		{"2026", "Murni", "2026-Murni"},
		{"2026", "", "2026-Murni"},
		{"2026", "perubahan", "2026-Perubahan"},
		{" 2026 ", " MURNI ", "2026-Murni"},
		{"2026-Perubahan", "", "2026-Perubahan"},
		{"2026-murni", "Perubahan", "2026-Perubahan"},
		{"2026", "Khusus", "2026-Khusus"},
		{"", "Murni", ""},
	}
	for _, tt := range tests {
		if got := NormalizePeriod(tt.year, tt.status); got != tt.want {
			t.Errorf("NormalizePeriod(%q, %q) = %q, want %q", tt.year, tt.status, got, tt.want)
		}
	}
}

func TestPeriod_UsesConfiguredYear(t *testing.T) {
	cfg := DefaultConfig()
	cfg.General.Year = 2025
	cfg.General.PeriodStatus = "perubahan"
	if got := Period(cfg); got != "2025-Perubahan" {
		t.Fatalf("Period = %q, want 2025-Perubahan", got)
	}
}

func TestLoadFrom_MissingFileGivesDefaults(t *testing.T) {
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "none.toml"))
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.Currency.Code != "IDR" || cfg.Catalog.CacheSize != 1024 {
		t.Fatalf("defaults = %+v", cfg)
	}
	if len(Rules(cfg)) == 0 || Rules(cfg)[0].Category != "semen" {
		t.Fatalf("Rules(defaults) = %+v", Rules(cfg))
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")

	cfg := DefaultConfig()
	cfg.General.Year = 2026
	cfg.General.DBPath = "/tmp/anggaran-test.db"
	cfg.Daemon.IntervalSecs = 30
	if err := SaveTo(path, cfg); err != nil {
		t.Fatalf("SaveTo: %v", err)
	}

	got, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if got.General.Year != 2026 || got.General.DBPath != cfg.General.DBPath || got.Daemon.IntervalSecs != 30 {
		t.Fatalf("round trip = %+v", got)
	}
}

func TestLoadFrom_RuleOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	body := strings.Join([]string{
		`[general]`,
		`year = 2026`,
		``,
		`[[reconcile.rules]]`,
		`category = "atk"`,
		`patterns = ['\b(kertas|pulpen)\b']`,
		`keywords = ["alat tulis"]`,
	}, "\n")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	rules := Rules(cfg)
	if len(rules) != 1 || rules[0].Category != "atk" || rules[0].Patterns[0] != `\b(kertas|pulpen)\b` {
		t.Fatalf("Rules = %+v", rules)
	}
	// Unset sections keep their defaults.
	if cfg.Currency.Code != "IDR" {
		t.Fatalf("Currency.Code = %q, want IDR", cfg.Currency.Code)
	}
}

func TestDBPath_EnvOverride(t *testing.T) {
	t.Setenv("ANGGARAN_DB", "/data/custom.db")
	if got := DBPath(DefaultConfig()); got != "/data/custom.db" {
		t.Fatalf("DBPath = %q", got)
	}

	t.Setenv("ANGGARAN_DB", "")
	cfg := DefaultConfig()
	cfg.General.DataDir = "/srv/anggaran"
	if got := DBPath(cfg); got != filepath.Join("/srv/anggaran", "anggaran.db") {
		t.Fatalf("DBPath = %q", got)
	}
}
