package model

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Realization is an externally maintained spending record for a period.
type Realization struct {
	ID                string          `json:"id"`
	Period            string          `json:"period"`
	BudgetID          string          `json:"budgetId,omitempty"`
	BudgetAmount      decimal.Decimal `json:"budgetAmount"`
	RealizationAmount decimal.Decimal `json:"realizationAmount"`
}

// PerformanceStatus is the progress state of a performance record.
type PerformanceStatus string

const (
	PerformancePlanning   PerformanceStatus = "planning"
	PerformanceInProgress PerformanceStatus = "in_progress"
	PerformanceCompleted  PerformanceStatus = "completed"
	PerformanceOnHold     PerformanceStatus = "on_hold"
	PerformanceCancelled  PerformanceStatus = "cancelled"
)

// ParsePerformanceStatus accepts the closed set of performance statuses.
// Empty means planning.
func ParsePerformanceStatus(s string) (PerformanceStatus, error) {
	switch PerformanceStatus(s) {
	case "", PerformancePlanning:
		return PerformancePlanning, nil
	case PerformanceInProgress, PerformanceCompleted, PerformanceOnHold, PerformanceCancelled:
		return PerformanceStatus(s), nil
	}
	return "", fmt.Errorf("unknown performance status %q", s)
}

// Performance is an externally maintained target/actual record. BudgetID
// links it to the budget it measures.
type Performance struct {
	ID          string            `json:"id"`
	Period      string            `json:"period"`
	BudgetID    string            `json:"budgetId,omitempty"`
	TargetValue decimal.Decimal   `json:"targetValue"`
	ActualValue decimal.Decimal   `json:"actualValue"`
	Status      PerformanceStatus `json:"status"`
}
