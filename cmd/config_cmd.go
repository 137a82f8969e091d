package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/anggaran/internal/config"
	"github.com/theirongolddev/anggaran/internal/source"
	"github.com/theirongolddev/anggaran/internal/store"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show current configuration",
	RunE:  runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func runConfig(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	path := configPath()
	fmt.Printf("  Config file: %s\n", path)
	if _, statErr := os.Stat(path); statErr == nil {
		fmt.Println("  Status: loaded")
	} else {
		fmt.Println("  Status: using defaults (no config file)")
	}
	fmt.Println()

	year := "current year"
	if cfg.General.Year > 0 {
		year = fmt.Sprint(cfg.General.Year)
	}
	fmt.Println("  [General]")
	fmt.Printf("    Year:          %s\n", year)
	fmt.Printf("    Period status: %s\n", cfg.General.PeriodStatus)
	fmt.Printf("    Period:        %s\n", resolvePeriod(cfg))
	if cfg.General.DataDir != "" {
		fmt.Printf("    Import dir:    %s\n", cfg.General.DataDir)
	}
	dbPath := flagDB
	if dbPath == "" {
		dbPath = config.DBPath(cfg)
	}
	fmt.Printf("    Database:      %s\n", dbPath)
	fmt.Println()

	fmt.Println("  [Currency]")
	fmt.Printf("    Code:        %s\n", cfg.Currency.Code)
	fmt.Printf("    Show symbol: %v\n", cfg.Currency.ShowSymbol)
	fmt.Println()

	fmt.Println("  [Catalog]")
	fmt.Printf("    Cache size: %d\n", cfg.Catalog.CacheSize)
	fmt.Println()

	fmt.Println("  [Reconcile]")
	if len(cfg.Reconcile.Rules) > 0 {
		fmt.Printf("    Rules: %d custom\n", len(cfg.Reconcile.Rules))
	} else {
		fmt.Printf("    Rules: %d built-in\n", len(config.Rules(cfg)))
	}
	fmt.Println()

	fmt.Println("  [Daemon]")
	fmt.Printf("    Address:  %s\n", cfg.Daemon.Addr)
	fmt.Printf("    Interval: %ds\n", cfg.Daemon.IntervalSecs)
	fmt.Println()

	fmt.Println("  [Appearance]")
	fmt.Printf("    Theme: %s\n", cfg.Appearance.Theme)
	fmt.Println()

	if st, err := store.Open(dbPath); err == nil {
		if v, err := st.SchemaVersion(); err == nil {
			fmt.Printf("  Schema version: %d\n", v)
		}
		if counts, err := st.Counts(); err == nil {
			for _, c := range source.Collections {
				if n, ok := counts[c]; ok {
					fmt.Printf("    %-16s %d\n", c, n)
				}
			}
		}
		_ = st.Close()
	}

	fmt.Println()
	fmt.Println("  Run `anggaran setup` to reconfigure.")
	return nil
}
