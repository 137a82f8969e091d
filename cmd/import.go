package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/anggaran/internal/cli"
	"github.com/theirongolddev/anggaran/internal/config"
	"github.com/theirongolddev/anggaran/internal/pipeline"
)

var flagImportForce bool

var importCmd = &cobra.Command{
	Use:   "import [dir]",
	Short: "Import collection exports (<collection>.json) into the database",
	Long: "Import hierarchy, account code, budget, realization and performance exports.\n" +
		"Files whose size and modification time are unchanged since the last import are skipped.",
	Args: cobra.MaximumNArgs(1),
	RunE: runImport,
}

func init() {
	importCmd.Flags().BoolVar(&flagImportForce, "force", false, "Re-import unchanged files")
	rootCmd.AddCommand(importCmd)
}

func runImport(_ *cobra.Command, args []string) error {
	e, err := openEnv()
	if err != nil {
		return err
	}
	defer func() { _ = e.Close() }()

	dir := e.cfg.General.DataDir
	if len(args) == 1 {
		dir = args[0]
	}
	if dir == "" {
		return fmt.Errorf("no import directory: pass one or set general.data_dir in %s", configPath())
	}

	log := logger().With("dir", dir)
	start := time.Now()

	progressFn := func(current, total int) {
		progress("\r  Importing %s", cli.RenderProgressBar(current, total, 30))
	}

	res, err := pipeline.Import(dir, e.store, flagImportForce, progressFn)
	if err != nil {
		return err
	}
	progress("\n")

	if res.TotalFiles == 0 {
		fmt.Printf("  No collection files found in %s\n", dir)
		return nil
	}

	fmt.Print(cli.RenderTable(cli.Table{
		Title:   "Import",
		Headers: []string{"", "Jumlah"},
		Rows: [][]string{
			{"Files", cli.FormatNumber(int64(res.TotalFiles))},
			{"Collections", cli.FormatNumber(int64(res.Collections))},
			{"Imported", cli.FormatNumber(int64(res.Imported))},
			{"Unchanged", cli.FormatNumber(int64(res.Unchanged))},
			{"Documents", cli.FormatNumber(int64(res.Documents))},
			{"Skipped records", cli.FormatNumber(int64(res.ParseErrors))},
		},
	}))

	for _, msg := range res.Errors {
		log.Warn("file failed", "err", msg)
	}
	log.Info("import finished", "files", res.Imported, "documents", res.Documents, "took", time.Since(start).Round(time.Millisecond))

	if res.FileErrors > 0 {
		fmt.Fprintf(os.Stderr, "\n  %d files could not be imported\n", res.FileErrors)
	}
	if res.Imported > 0 {
		fmt.Printf("\n  Default period: %s (change with --period or %s)\n", config.Period(e.cfg), configPath())
	}
	return nil
}
