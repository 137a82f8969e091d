package model

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// BudgetStatus is the approval state of a budget.
type BudgetStatus string

const (
	BudgetDraft    BudgetStatus = "draft"
	BudgetApproved BudgetStatus = "approved"
)

// ParseBudgetStatus accepts the closed set of budget statuses. Empty means draft.
func ParseBudgetStatus(s string) (BudgetStatus, error) {
	switch BudgetStatus(s) {
	case "", BudgetDraft:
		return BudgetDraft, nil
	case BudgetApproved:
		return BudgetApproved, nil
	}
	return "", fmt.Errorf("unknown budget status %q", s)
}

// Resolution records how an allocation's account reference was settled.
type Resolution string

const (
	ResolutionUnchecked Resolution = ""
	ResolutionResolved  Resolution = "resolved"
	ResolutionRecovered Resolution = "recovered"
	ResolutionManual    Resolution = "needs-manual-selection"
)

// Flagged reports whether the allocation needs a human to pick an account.
func (r Resolution) Flagged() bool { return r == ResolutionManual }

// Allocation is one account-code and amount pair inside a budget.
type Allocation struct {
	AccountCode  Reference       `json:"accountCodeId"`
	Amount       decimal.Decimal `json:"amount"`
	Note         string          `json:"note,omitempty"`
	AllocatedBy  string          `json:"allocatedBy,omitempty"`
	Resolution   Resolution      `json:"resolution,omitempty"`
	RecoveredVia string          `json:"recoveredVia,omitempty"`
}

// Budget is the plan for one sub-activity in one period. TotalAmount is
// derived from Allocations and is recomputed, never trusted from input.
type Budget struct {
	ID              string          `json:"id"`
	SubActivityID   string          `json:"subActivityId"`
	Period          string          `json:"period"`
	FundingSourceID string          `json:"fundingSourceId,omitempty"`
	Allocations     []Allocation    `json:"allocations"`
	Description     string          `json:"description,omitempty"`
	Status          BudgetStatus    `json:"status"`
	TotalAmount     decimal.Decimal `json:"totalAmount"`
	CreatedAt       time.Time       `json:"createdAt,omitempty"`
	UpdatedAt       time.Time       `json:"updatedAt,omitempty"`
}

// Recompute sets TotalAmount to the sum of allocation amounts.
func (b *Budget) Recompute() {
	total := decimal.Zero
	for _, a := range b.Allocations {
		total = total.Add(a.Amount)
	}
	b.TotalAmount = total
}

// FlaggedAllocations counts allocations awaiting manual account selection
// and sums their amounts.
func (b Budget) FlaggedAllocations() (int, decimal.Decimal) {
	n := 0
	amount := decimal.Zero
	for _, a := range b.Allocations {
		if a.Resolution.Flagged() {
			n++
			amount = amount.Add(a.Amount)
		}
	}
	return n, amount
}

// Clone returns a deep copy so callers can mutate allocations freely.
func (b Budget) Clone() Budget {
	out := b
	out.Allocations = make([]Allocation, len(b.Allocations))
	for i, a := range b.Allocations {
		if a.AccountCode.Embedded != nil {
			e := *a.AccountCode.Embedded
			a.AccountCode.Embedded = &e
		}
		out.Allocations[i] = a
	}
	return out
}
