package ledger

import "fmt"

// ValidationError reports a missing or invalid required field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("ledger: invalid %s: %s", e.Field, e.Reason)
}

// DuplicateBudgetError reports an attempt to create a second budget for the
// same sub-activity and period. ExistingID names the budget to edit instead.
type DuplicateBudgetError struct {
	SubActivityID string
	Period        string
	ExistingID    string
}

func (e *DuplicateBudgetError) Error() string {
	return fmt.Sprintf("ledger: budget for sub-activity %s in period %s already exists (%s)",
		e.SubActivityID, e.Period, e.ExistingID)
}

// DuplicateAllocationError reports a second allocation against the same
// account on one budget. ExistingIndex names the allocation to edit instead.
type DuplicateAllocationError struct {
	BudgetID      string
	AccountCodeID string
	ExistingIndex int
}

func (e *DuplicateAllocationError) Error() string {
	return fmt.Sprintf("ledger: budget %s already allocates account %s (allocation #%d)",
		e.BudgetID, e.AccountCodeID, e.ExistingIndex)
}

// NotFoundError reports a missing budget or an out-of-range allocation index.
// Index is -1 when the budget itself is missing.
type NotFoundError struct {
	BudgetID string
	Index    int
}

func (e *NotFoundError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("ledger: budget %s not found", e.BudgetID)
	}
	return fmt.Sprintf("ledger: budget %s has no allocation #%d", e.BudgetID, e.Index)
}

// InUseError reports a delete blocked by dependent performance records.
type InUseError struct {
	BudgetID   string
	References int
}

func (e *InUseError) Error() string {
	return fmt.Sprintf("ledger: budget %s is referenced by %d performance record(s)", e.BudgetID, e.References)
}
