package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/anggaran/internal/catalog"
	"github.com/theirongolddev/anggaran/internal/cli"
	"github.com/theirongolddev/anggaran/internal/ledger"
	"github.com/theirongolddev/anggaran/internal/model"
)

var (
	flagBudgetShow        string
	flagBudgetSub         string
	flagBudgetStatus      string
	flagBudgetDescription string
	flagBudgetFunding     string
	flagBudgetMovePeriod  string
)

var budgetsCmd = &cobra.Command{
	Use:   "budgets",
	Short: "List the period's budgets with full codes and totals",
	RunE:  runBudgets,
}

var budgetCmd = &cobra.Command{
	Use:   "budget",
	Short: "Create, update or delete a budget",
}

var budgetCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a budget for a sub-activity in the period",
	Args:  cobra.NoArgs,
	RunE:  runBudgetCreate,
}

var budgetUpdateCmd = &cobra.Command{
	Use:   "update <budget-id>",
	Short: "Update budget fields",
	Args:  cobra.ExactArgs(1),
	RunE:  runBudgetUpdate,
}

var budgetDeleteCmd = &cobra.Command{
	Use:   "delete <budget-id>",
	Short: "Delete a budget that no performance record references",
	Args:  cobra.ExactArgs(1),
	RunE:  runBudgetDelete,
}

func init() {
	budgetsCmd.Flags().StringVar(&flagBudgetShow, "show", "", "Show the allocations of one budget")

	for _, c := range []*cobra.Command{budgetCreateCmd, budgetUpdateCmd} {
		c.Flags().StringVar(&flagBudgetSub, "sub", "", "Sub-activity id")
		c.Flags().StringVar(&flagBudgetStatus, "status", "", "draft or approved")
		c.Flags().StringVar(&flagBudgetDescription, "description", "", "Description")
		c.Flags().StringVar(&flagBudgetFunding, "funding", "", "Funding source id")
	}
	_ = budgetCreateCmd.MarkFlagRequired("sub")
	budgetUpdateCmd.Flags().StringVar(&flagBudgetMovePeriod, "move-to", "", "Move the budget to another period")

	budgetCmd.AddCommand(budgetCreateCmd, budgetUpdateCmd, budgetDeleteCmd)
	rootCmd.AddCommand(budgetsCmd, budgetCmd)
}

func runBudgets(cmd *cobra.Command, _ []string) error {
	e, err := openEnv()
	if err != nil {
		return err
	}
	defer func() { _ = e.Close() }()

	if flagBudgetShow != "" {
		return showBudget(e, flagBudgetShow)
	}

	snap, err := e.snapshot(cmd.Context())
	if err != nil {
		return err
	}
	details := snap.Details()
	if len(details) == 0 {
		fmt.Printf("\n  No budgets in period %s.\n", e.period)
		return nil
	}

	rows := make([][]string, 0, len(details))
	for _, d := range details {
		code := d.FullCode
		if code == "" {
			code = cli.Muted("(tanpa kode)")
		}
		flagged := ""
		if d.Flagged > 0 {
			flagged = cli.Warn(strconv.Itoa(d.Flagged))
		}
		rows = append(rows, []string{
			code, d.SubActivityName, statusLabel(d.Status), e.money.Format(d.Total),
			strconv.Itoa(d.Allocations), flagged, cli.Muted(d.BudgetID),
		})
	}

	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Title:       "Anggaran " + e.period,
		Headers:     []string{"Kode", "Sub Kegiatan", "Status", "Total", "Alokasi", "Perlu Dipilih", "ID"},
		Rows:        rows,
		TextColumns: 3,
	}))
	return nil
}

func showBudget(e *env, id string) error {
	l, err := e.openLedger()
	if err != nil {
		return err
	}
	b, err := l.Get(id)
	if err != nil {
		return err
	}
	accounts, err := e.store.Accounts()
	if err != nil {
		return err
	}
	cat := catalog.New(accounts)

	fmt.Println()
	fmt.Printf("  %s  %s  %s  %s\n", cli.Header(b.ID), b.Period, statusLabel(b.Status), e.money.Format(b.TotalAmount))
	fmt.Printf("  Sub-activity: %s\n", b.SubActivityID)
	if b.Description != "" {
		fmt.Printf("  %s\n", cli.Muted(b.Description))
	}
	fmt.Print(renderAllocations(e, cat, b))
	return nil
}

func renderAllocations(e *env, lookup catalog.Lookup, b model.Budget) string {
	rows := make([][]string, len(b.Allocations))
	for i, a := range b.Allocations {
		account := a.AccountCode.String()
		if id, ok := catalog.NormalizeRef(lookup, a.AccountCode); ok {
			if ac, found := lookup.FindByID(id); found {
				account = ac.DisplayCode() + " " + ac.Name
			}
		}
		state := cli.OK(string(a.Resolution))
		switch a.Resolution {
		case model.ResolutionManual:
			state = cli.Warn("pilih manual")
		case model.ResolutionUnchecked:
			state = cli.Muted("-")
		case model.ResolutionRecovered:
			state = cli.OK("recovered " + a.RecoveredVia)
		}
		rows[i] = []string{"#" + strconv.Itoa(i), account, e.money.Format(a.Amount), a.Note, state}
	}
	return cli.RenderTable(cli.Table{
		Headers:     []string{"#", "Rekening", "Jumlah", "Catatan", "Status"},
		Rows:        rows,
		TextColumns: 2,
	})
}

func statusLabel(s model.BudgetStatus) string {
	if s == model.BudgetApproved {
		return cli.OK("disetujui")
	}
	return cli.Warn("draft")
}

func runBudgetCreate(_ *cobra.Command, _ []string) error {
	e, err := openEnv()
	if err != nil {
		return err
	}
	defer func() { _ = e.Close() }()

	status, err := model.ParseBudgetStatus(flagBudgetStatus)
	if err != nil {
		return err
	}
	l, err := e.openLedger()
	if err != nil {
		return err
	}

	b, err := l.CreateBudget(ledger.NewBudget{
		SubActivityID:   flagBudgetSub,
		Period:          e.period,
		FundingSourceID: flagBudgetFunding,
		Description:     flagBudgetDescription,
		Status:          status,
	})
	if err != nil {
		return err
	}
	fmt.Printf("  Created budget %s for %s in %s\n", cli.Header(b.ID), b.SubActivityID, b.Period)
	return nil
}

func runBudgetUpdate(cmd *cobra.Command, args []string) error {
	e, err := openEnv()
	if err != nil {
		return err
	}
	defer func() { _ = e.Close() }()

	var p ledger.BudgetPatch
	flags := cmd.Flags()
	if flags.Changed("sub") {
		p.SubActivityID = &flagBudgetSub
	}
	if flags.Changed("move-to") {
		period := periodArg(e.cfg, flagBudgetMovePeriod)
		p.Period = &period
	}
	if flags.Changed("funding") {
		p.FundingSourceID = &flagBudgetFunding
	}
	if flags.Changed("description") {
		p.Description = &flagBudgetDescription
	}
	if flags.Changed("status") {
		status, err := model.ParseBudgetStatus(flagBudgetStatus)
		if err != nil {
			return err
		}
		p.Status = &status
	}

	l, err := e.openLedger()
	if err != nil {
		return err
	}
	b, err := l.UpdateBudget(args[0], p)
	if err != nil {
		return err
	}
	fmt.Printf("  Updated budget %s (%s, %s)\n", cli.Header(b.ID), b.Period, e.money.Format(b.TotalAmount))
	return nil
}

func runBudgetDelete(_ *cobra.Command, args []string) error {
	e, err := openEnv()
	if err != nil {
		return err
	}
	defer func() { _ = e.Close() }()

	refs, err := e.store.CountPerformancesForBudget(args[0])
	if err != nil {
		return err
	}
	l, err := e.openLedger()
	if err != nil {
		return err
	}
	if err := l.DeleteBudget(args[0], refs); err != nil {
		return err
	}
	fmt.Printf("  Deleted budget %s\n", args[0])
	return nil
}
