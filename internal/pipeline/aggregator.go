// Package pipeline loads planning snapshots, imports collection exports and
// consolidates a period's budgets, realizations and performance records
// into report figures.
package pipeline

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/theirongolddev/anggaran/internal/hierarchy"
	"github.com/theirongolddev/anggaran/internal/model"
)

var hundred = decimal.NewFromInt(100)

// Consolidate summarizes the records tagged with period. Records of other
// periods are ignored. Budget totals are recomputed from allocations, and
// every percentage is 0 when its denominator is not positive.
func Consolidate(period string, budgets []model.Budget, realizations []model.Realization, performances []model.Performance) model.Consolidated {
	out := model.Consolidated{Period: period}

	bs := model.BudgetSummary{
		TotalBudget:    decimal.Zero,
		ApprovedBudget: decimal.Zero,
		DraftBudget:    decimal.Zero,
		FlaggedAmount:  decimal.Zero,
	}
	for _, b := range budgets {
		if b.Period != period {
			continue
		}
		b.Recompute()
		bs.Count++
		bs.TotalBudget = bs.TotalBudget.Add(b.TotalAmount)
		switch b.Status {
		case model.BudgetApproved:
			bs.ApprovedBudget = bs.ApprovedBudget.Add(b.TotalAmount)
		case model.BudgetDraft:
			bs.DraftBudget = bs.DraftBudget.Add(b.TotalAmount)
		}
		n, amount := b.FlaggedAllocations()
		bs.Flagged += n
		bs.FlaggedAmount = bs.FlaggedAmount.Add(amount)
	}
	out.BudgetSummary = bs

	rs := model.RealizationSummary{
		TotalBudget:      decimal.Zero,
		TotalRealization: decimal.Zero,
	}
	for _, r := range realizations {
		if r.Period != period {
			continue
		}
		rs.Count++
		rs.TotalBudget = rs.TotalBudget.Add(r.BudgetAmount)
		rs.TotalRealization = rs.TotalRealization.Add(r.RealizationAmount)
	}
	rs.AvgPercentage = Percentage(rs.TotalRealization, rs.TotalBudget)
	out.RealizationSummary = rs

	ps := model.PerformanceSummary{
		TotalTarget: decimal.Zero,
		TotalActual: decimal.Zero,
	}
	for _, p := range performances {
		if p.Period != period {
			continue
		}
		ps.Count++
		ps.TotalTarget = ps.TotalTarget.Add(p.TargetValue)
		ps.TotalActual = ps.TotalActual.Add(p.ActualValue)
		switch p.Status {
		case model.PerformanceCompleted:
			ps.Completed++
		case model.PerformanceInProgress:
			ps.InProgress++
		case model.PerformancePlanning, model.PerformanceOnHold, model.PerformanceCancelled:
		}
	}
	ps.AvgPercentage = Percentage(ps.TotalActual, ps.TotalTarget)
	out.PerformanceSummary = ps

	return out
}

// Percentage returns part/whole*100, or 0 when whole is not positive.
func Percentage(part, whole decimal.Decimal) float64 {
	if !whole.IsPositive() {
		return 0
	}
	return part.Div(whole).Mul(hundred).InexactFloat64()
}

func countPercentage(part, whole int) float64 {
	if whole <= 0 {
		return 0
	}
	return float64(part) / float64(whole) * 100
}

func formatPercentage(p float64) string {
	return fmt.Sprintf("%.2f", p)
}

// ToExportRows renders a consolidated report as the six export rows in
// fixed order: budget total, approved, draft, realization, performance
// target, performance completed. Cells follow model.ExportHeader.
func ToExportRows(c model.Consolidated) []model.ExportRow {
	bs, rs, ps := c.BudgetSummary, c.RealizationSummary, c.PerformanceSummary

	return []model.ExportRow{
		{
			Category:         "Anggaran Total",
			TotalOrTarget:    bs.TotalBudget.String(),
			RealizedOrActual: "-",
			Percentage:       "-",
			StatusLabel:      fmt.Sprintf("%d anggaran", bs.Count),
		},
		{
			Category:         "Anggaran Disetujui",
			TotalOrTarget:    bs.ApprovedBudget.String(),
			RealizedOrActual: "-",
			Percentage:       formatPercentage(Percentage(bs.ApprovedBudget, bs.TotalBudget)),
			StatusLabel:      "Disetujui",
		},
		{
			Category:         "Anggaran Draft",
			TotalOrTarget:    bs.DraftBudget.String(),
			RealizedOrActual: "-",
			Percentage:       formatPercentage(Percentage(bs.DraftBudget, bs.TotalBudget)),
			StatusLabel:      "Draft",
		},
		{
			Category:         "Realisasi",
			TotalOrTarget:    rs.TotalBudget.String(),
			RealizedOrActual: rs.TotalRealization.String(),
			Percentage:       formatPercentage(rs.AvgPercentage),
			StatusLabel:      "Realisasi",
		},
		{
			Category:         "Target Kinerja",
			TotalOrTarget:    ps.TotalTarget.String(),
			RealizedOrActual: ps.TotalActual.String(),
			Percentage:       formatPercentage(ps.AvgPercentage),
			StatusLabel:      "Capaian",
		},
		{
			Category:         "Kinerja Selesai",
			TotalOrTarget:    fmt.Sprintf("%d", ps.Count),
			RealizedOrActual: fmt.Sprintf("%d", ps.Completed),
			Percentage:       formatPercentage(countPercentage(ps.Completed, ps.Count)),
			StatusLabel:      fmt.Sprintf("Selesai %d / Berjalan %d", ps.Completed, ps.InProgress),
		},
	}
}

// Details lists the budgets of a period with their resolved full codes,
// sorted by full code then budget id. Budgets whose sub-activity is unknown
// have an empty full code and sort first.
func Details(period string, budgets []model.Budget, resolver *hierarchy.Resolver) []model.BudgetDetail {
	var out []model.BudgetDetail
	for _, b := range budgets {
		if period != "" && b.Period != period {
			continue
		}
		b.Recompute()
		flagged, _ := b.FlaggedAllocations()
		d := model.BudgetDetail{
			BudgetID:      b.ID,
			SubActivityID: b.SubActivityID,
			Status:        b.Status,
			Total:         b.TotalAmount,
			Allocations:   len(b.Allocations),
			Flagged:       flagged,
		}
		if resolver != nil {
			if desc, ok := resolver.Describe(b.SubActivityID); ok {
				d.FullCode = desc.FullCode
				d.SubActivityName = desc.SubActivity.Name
			}
		}
		out = append(out, d)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].FullCode != out[j].FullCode {
			return out[i].FullCode < out[j].FullCode
		}
		return out[i].BudgetID < out[j].BudgetID
	})
	return out
}
