package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/anggaran/internal/cli"
	"github.com/theirongolddev/anggaran/internal/pipeline"
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Consolidated report for the period",
	RunE:  runSummary,
}

func init() {
	rootCmd.AddCommand(summaryCmd)
}

func runSummary(cmd *cobra.Command, _ []string) error {
	e, err := openEnv()
	if err != nil {
		return err
	}
	defer func() { _ = e.Close() }()

	snap, err := e.snapshot(cmd.Context())
	if err != nil {
		return err
	}

	c := snap.Consolidated()
	if c.BudgetSummary.Count == 0 && c.RealizationSummary.Count == 0 && c.PerformanceSummary.Count == 0 {
		fmt.Printf("\n  No data for period %s.\n", e.period)
		fmt.Println("  Import exports first: anggaran import <dir>")
		return nil
	}

	bs, rs, ps := c.BudgetSummary, c.RealizationSummary, c.PerformanceSummary

	fmt.Println()
	fmt.Println(cli.RenderTitle("LAPORAN ANGGARAN  " + e.period))
	fmt.Println()

	rows := [][]string{
		{"Anggaran", cli.FormatNumber(int64(bs.Count)), ""},
		{"Total Anggaran", e.money.Format(bs.TotalBudget), ""},
		{"Disetujui", e.money.Format(bs.ApprovedBudget), cli.FormatPercent(pipeline.Percentage(bs.ApprovedBudget, bs.TotalBudget))},
		{"Draft", e.money.Format(bs.DraftBudget), cli.FormatPercent(pipeline.Percentage(bs.DraftBudget, bs.TotalBudget))},
		{"---"},
		{"Realisasi", e.money.Format(rs.TotalRealization), cli.FormatPercent(rs.AvgPercentage)},
		{"Pagu Realisasi", e.money.Format(rs.TotalBudget), fmt.Sprintf("%d catatan", rs.Count)},
		{"---"},
		{"Target Kinerja", ps.TotalTarget.String(), ""},
		{"Capaian Kinerja", ps.TotalActual.String(), cli.FormatPercent(ps.AvgPercentage)},
		{"Selesai / Berjalan", fmt.Sprintf("%d / %d", ps.Completed, ps.InProgress), fmt.Sprintf("dari %d", ps.Count)},
	}

	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Ringkasan", "Nilai", "%"},
		Rows:    rows,
	}))

	if bs.Flagged > 0 {
		fmt.Printf("\n  %s %d alokasi (%s) perlu dipilih manual. Run: anggaran reconcile --interactive\n",
			cli.Warn("!"), bs.Flagged, e.money.Format(bs.FlaggedAmount))
	}
	return nil
}
