package cmd

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/theirongolddev/anggaran/internal/config"
	"github.com/theirongolddev/anggaran/internal/source"
	"github.com/theirongolddev/anggaran/internal/tui"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Interactive configuration wizard",
	RunE:  runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

func runSetup(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if err := tui.RunSetup(&cfg); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			fmt.Println("  Setup cancelled; nothing saved.")
			return nil
		}
		return err
	}

	path := configPath()
	if err := config.SaveTo(path, cfg); err != nil {
		return err
	}
	fmt.Printf("\n  Saved to %s\n", path)
	fmt.Printf("  Working period: %s\n", config.Period(cfg))

	if cfg.General.DataDir != "" {
		files, err := source.ScanDir(cfg.General.DataDir)
		switch {
		case err != nil:
			fmt.Printf("  Import dir: %v\n", err)
		case len(files) == 0:
			fmt.Printf("  No collection files in %s yet.\n", cfg.General.DataDir)
		default:
			fmt.Printf("  Found %d files in %d collections. Run: anggaran import\n",
				len(files), source.CountCollections(files))
		}
	}
	return nil
}
