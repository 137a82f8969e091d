package cmd

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/anggaran/internal/cli"
	"github.com/theirongolddev/anggaran/internal/pipeline"
)

var (
	flagExportFormat string
	flagExportOut    string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the consolidated report as CSV or XLSX",
	RunE:  runExport,
}

func init() {
	exportCmd.Flags().StringVarP(&flagExportFormat, "format", "f", "", "csv or xlsx (default from --out extension, else csv)")
	exportCmd.Flags().StringVarP(&flagExportOut, "out", "o", "", "Output file (default stdout)")
	rootCmd.AddCommand(exportCmd)
}

func exportFormat(format, out string) (string, error) {
	if format == "" {
		format = strings.TrimPrefix(strings.ToLower(filepath.Ext(out)), ".")
		if format != "xlsx" {
			format = "csv"
		}
	}
	switch format = strings.ToLower(format); format {
	case "csv", "xlsx":
		return format, nil
	}
	return "", fmt.Errorf("unknown export format %q (want csv or xlsx)", format)
}

func runExport(cmd *cobra.Command, _ []string) error {
	format, err := exportFormat(flagExportFormat, flagExportOut)
	if err != nil {
		return err
	}
	if format == "xlsx" && (flagExportOut == "" || flagExportOut == "-") {
		return fmt.Errorf("xlsx export needs --out")
	}

	e, err := openEnv()
	if err != nil {
		return err
	}
	defer func() { _ = e.Close() }()

	snap, err := e.snapshot(cmd.Context())
	if err != nil {
		return err
	}
	rows := pipeline.ToExportRows(snap.Consolidated())

	err = writeOrStdout(flagExportOut, func(w io.Writer) error {
		if format == "xlsx" {
			return cli.WriteXLSX(w, e.period, rows, snap.Details())
		}
		return cli.WriteCSV(w, rows)
	})
	if err != nil {
		return fmt.Errorf("writing export: %w", err)
	}
	if flagExportOut != "" && flagExportOut != "-" {
		progress("  Wrote %s\n", flagExportOut)
	}
	return nil
}
