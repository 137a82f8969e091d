package pipeline

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/theirongolddev/anggaran/internal/catalog"
	"github.com/theirongolddev/anggaran/internal/model"
	"github.com/theirongolddev/anggaran/internal/reconcile"
)

// ReconcileTotals sums the reports of a reconciliation pass.
type ReconcileTotals struct {
	Budgets      int
	Changed      int
	Resolved     int
	Recovered    int
	Manual       int
	ManualAmount decimal.Decimal
}

// ReconcileAll runs the reconciler over every budget and returns the
// normalized budgets with one report each, in input order.
func ReconcileAll(r *reconcile.Reconciler, budgets []model.Budget) ([]model.Budget, []reconcile.Report, ReconcileTotals) {
	out := make([]model.Budget, len(budgets))
	reports := make([]reconcile.Report, len(budgets))
	totals := ReconcileTotals{ManualAmount: decimal.Zero}

	for i, b := range budgets {
		out[i], reports[i] = r.ReconcileBudget(b)
		rep := reports[i]
		totals.Budgets++
		if rep.Changed() {
			totals.Changed++
		}
		totals.Resolved += rep.Resolved
		totals.Recovered += rep.Recovered
		totals.Manual += rep.Manual
		totals.ManualAmount = totals.ManualAmount.Add(rep.ManualAmount)
	}
	return out, reports, totals
}

// Reconcile replaces the snapshot's budgets with their reconciled form.
// lookup may wrap s.Catalog, for example with a cache; nil uses s.Catalog.
func (s *Snapshot) Reconcile(lookup catalog.Lookup, rules []reconcile.Rule) ([]reconcile.Report, ReconcileTotals, error) {
	if lookup == nil {
		lookup = s.Catalog
	}
	r, err := reconcile.New(lookup, rules)
	if err != nil {
		return nil, ReconcileTotals{}, err
	}
	budgets, reports, totals := ReconcileAll(r, s.Budgets)
	s.Budgets = budgets
	return reports, totals, nil
}

// LoadReconciled loads a period and reconciles its budgets in memory, so
// reports see recovered and flagged allocations without a write. A non-nil
// wrap builds the lookup from the loaded catalog, for example a cache.
func LoadReconciled(ctx context.Context, r Reader, period string, rules []reconcile.Rule, wrap func(*catalog.Catalog) (catalog.Lookup, error)) (*Snapshot, error) {
	s, err := Load(ctx, r, period)
	if err != nil {
		return nil, err
	}
	var lookup catalog.Lookup
	if wrap != nil {
		if lookup, err = wrap(s.Catalog); err != nil {
			return nil, fmt.Errorf("account lookup: %w", err)
		}
	}
	if _, _, err := s.Reconcile(lookup, rules); err != nil {
		return nil, fmt.Errorf("reconcile rules: %w", err)
	}
	return s, nil
}
