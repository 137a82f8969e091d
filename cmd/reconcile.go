package cmd

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/theirongolddev/anggaran/internal/catalog"
	"github.com/theirongolddev/anggaran/internal/cli"
	"github.com/theirongolddev/anggaran/internal/config"
	"github.com/theirongolddev/anggaran/internal/ledger"
	"github.com/theirongolddev/anggaran/internal/model"
	"github.com/theirongolddev/anggaran/internal/tui"
)

var (
	flagReconcileApply       bool
	flagReconcileInteractive bool
)

const pickCandidates = 8

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Normalize allocation account references and recover broken ones",
	Long: "Resolve every allocation of the period against the account catalog.\n" +
		"Unresolvable references are recovered from the allocation note or flagged\n" +
		"for manual selection. Nothing is written without --apply.",
	RunE: runReconcile,
}

func init() {
	reconcileCmd.Flags().BoolVar(&flagReconcileApply, "apply", false, "Write normalized budgets back")
	reconcileCmd.Flags().BoolVarP(&flagReconcileInteractive, "interactive", "i", false, "Pick accounts for flagged allocations (implies --apply)")
	rootCmd.AddCommand(reconcileCmd)
}

func runReconcile(cmd *cobra.Command, _ []string) error {
	e, err := openEnv()
	if err != nil {
		return err
	}
	defer func() { _ = e.Close() }()

	snap, err := e.rawSnapshot(cmd.Context())
	if err != nil {
		return err
	}
	lookup, err := e.lookup(snap)
	if err != nil {
		return err
	}
	reports, totals, err := snap.Reconcile(lookup, config.Rules(e.cfg))
	if err != nil {
		return fmt.Errorf("reconcile rules: %w", err)
	}

	var rows [][]string
	for _, rep := range reports {
		if !rep.Changed() {
			continue
		}
		manual := ""
		if rep.Manual > 0 {
			manual = cli.Warn(strconv.Itoa(rep.Manual))
		}
		rows = append(rows, []string{
			rep.BudgetID, snap.Resolver.ResolveFullCode(budgetSub(snap.Budgets, rep.BudgetID)),
			strconv.Itoa(rep.Resolved), strconv.Itoa(rep.Recovered), manual, e.money.Format(rep.ManualAmount),
		})
	}

	fmt.Println()
	if len(rows) > 0 {
		fmt.Print(cli.RenderTable(cli.Table{
			Title:       "Rekonsiliasi " + e.period,
			Headers:     []string{"Anggaran", "Kode", "Resolved", "Recovered", "Manual", "Nilai Manual"},
			Rows:        rows,
			TextColumns: 2,
		}))
	}
	fmt.Printf("  %d budgets: %d resolved, %d recovered, %d need manual selection (%s)\n",
		totals.Budgets, totals.Resolved, totals.Recovered, totals.Manual, e.money.Format(totals.ManualAmount))

	if !flagReconcileApply && !flagReconcileInteractive {
		if totals.Changed > 0 {
			fmt.Println(cli.Muted("  Dry run. Write the changes with --apply."))
		}
		return nil
	}

	repo := e.store.BudgetRepository()
	for _, b := range snap.Budgets {
		if err := repo.Put(b); err != nil {
			return fmt.Errorf("saving budget %s: %w", b.ID, err)
		}
	}
	fmt.Printf("  %s wrote %d budgets\n", cli.OK("✓"), len(snap.Budgets))

	if !flagReconcileInteractive || totals.Manual == 0 {
		return nil
	}
	return pickManual(e, lookup, snap.Budgets)
}

func budgetSub(budgets []model.Budget, id string) string {
	for _, b := range budgets {
		if b.ID == id {
			return b.SubActivityID
		}
	}
	return ""
}

// pickManual asks for an account for every flagged allocation and applies
// the choice through the ledger, which rejects duplicates.
func pickManual(e *env, lookup catalog.Lookup, budgets []model.Budget) error {
	l := ledger.New(e.store.BudgetRepository(), lookup)
	picked := 0

	for _, b := range budgets {
		for i, a := range b.Allocations {
			if !a.Resolution.Flagged() {
				continue
			}
			candidates := catalog.Suggest(lookup, a.Note, pickCandidates)
			if len(candidates) == 0 {
				all := lookup.All()
				candidates = all[:min(len(all), pickCandidates)]
			}

			fmt.Printf("\n  %s allocation #%d\n", cli.Header(b.ID), i)
			id, err := tui.PickAccount(a, e.money.Format(a.Amount), candidates)
			if errors.Is(err, huh.ErrUserAborted) {
				fmt.Printf("  Stopped; %d allocations assigned\n", picked)
				return nil
			}
			if err != nil {
				return err
			}
			if id == "" {
				continue
			}

			ref := model.IDRef(id)
			if _, err := l.EditAllocation(b.ID, i, ledger.AllocationPatch{AccountCode: &ref}); err != nil {
				fmt.Printf("  %s %v\n", cli.Warn("skipped:"), err)
				if hint := remediation(err); hint != "" {
					fmt.Printf("  %s\n", cli.Muted(hint))
				}
				continue
			}
			picked++
		}
	}
	fmt.Printf("\n  %s %d allocations assigned\n", cli.OK("✓"), picked)
	return nil
}
