package model

import "github.com/shopspring/decimal"

// BudgetSummary aggregates budget totals for a period. Flagged allocations are
// included in the totals and counted separately.
type BudgetSummary struct {
	Count          int
	TotalBudget    decimal.Decimal
	ApprovedBudget decimal.Decimal
	DraftBudget    decimal.Decimal
	Flagged        int
	FlaggedAmount  decimal.Decimal
}

// RealizationSummary aggregates realization records for a period.
type RealizationSummary struct {
	Count            int
	TotalBudget      decimal.Decimal
	TotalRealization decimal.Decimal
	AvgPercentage    float64
}

// PerformanceSummary aggregates performance records for a period.
type PerformanceSummary struct {
	Count         int
	TotalTarget   decimal.Decimal
	TotalActual   decimal.Decimal
	AvgPercentage float64
	Completed     int
	InProgress    int
}

// Consolidated is the full report for one period.
type Consolidated struct {
	Period             string
	BudgetSummary      BudgetSummary
	RealizationSummary RealizationSummary
	PerformanceSummary PerformanceSummary
}

// BudgetDetail is one line of the detailed budget listing.
type BudgetDetail struct {
	BudgetID        string
	SubActivityID   string
	FullCode        string
	SubActivityName string
	Status          BudgetStatus
	Total           decimal.Decimal
	Allocations     int
	Flagged         int
}

// ExportHeader is the fixed column order of exported report rows.
var ExportHeader = []string{"Kategori", "Total Budget", "Realisasi/Pencapaian", "Persentase", "Status"}

// ExportRow is one row of the exported report.
type ExportRow struct {
	Category         string
	TotalOrTarget    string
	RealizedOrActual string
	Percentage       string
	StatusLabel      string
}

// Record returns the row as cells in ExportHeader order.
func (r ExportRow) Record() []string {
	return []string{r.Category, r.TotalOrTarget, r.RealizedOrActual, r.Percentage, r.StatusLabel}
}
