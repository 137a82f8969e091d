// Package ledger owns budgets and their allocations. It enforces one budget
// per sub-activity and period, unique accounts within a budget, and keeps
// each budget's total equal to the sum of its allocations.
//
// The ledger does not lock. Callers must serialize mutations of the same
// budget id; every mutation reads, modifies and rewrites the allocation list.
// Mutations of different budgets may run concurrently.
package ledger

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/theirongolddev/anggaran/internal/catalog"
	"github.com/theirongolddev/anggaran/internal/model"
)

// Ledger applies budget and allocation operations to a Repository.
type Ledger struct {
	repo   Repository
	lookup catalog.Lookup

	now   func() time.Time
	newID func() string
}

// New returns a ledger. lookup may be nil; it is used to normalize embedded
// references by full code and to mark freshly entered ids as resolved.
func New(repo Repository, lookup catalog.Lookup) *Ledger {
	return &Ledger{
		repo:   repo,
		lookup: lookup,
		now:    func() time.Time { return time.Now().UTC() },
		newID:  uuid.NewString,
	}
}

// NewBudget holds the fields of a budget being created.
type NewBudget struct {
	SubActivityID   string
	Period          string
	FundingSourceID string
	Allocations     []model.Allocation
	Description     string
	Status          model.BudgetStatus
}

// BudgetPatch replaces the non-nil fields of a budget.
type BudgetPatch struct {
	SubActivityID   *string
	Period          *string
	FundingSourceID *string
	Description     *string
	Status          *model.BudgetStatus
	Allocations     *[]model.Allocation
}

// AllocationPatch replaces the non-nil fields of an allocation.
type AllocationPatch struct {
	AccountCode *model.Reference
	Amount      *decimal.Decimal
	Note        *string
	AllocatedBy *string
}

// Get returns a budget by id.
func (l *Ledger) Get(id string) (model.Budget, error) {
	b, ok, err := l.repo.Get(id)
	if err != nil {
		return model.Budget{}, fmt.Errorf("loading budget %s: %w", id, err)
	}
	if !ok {
		return model.Budget{}, &NotFoundError{BudgetID: id, Index: -1}
	}
	b.Recompute()
	return b, nil
}

// List returns the budgets of a period with freshly computed totals.
func (l *Ledger) List(period string) ([]model.Budget, error) {
	budgets, err := l.repo.List(period)
	if err != nil {
		return nil, fmt.Errorf("listing budgets: %w", err)
	}
	for i := range budgets {
		budgets[i].Recompute()
	}
	return budgets, nil
}

// CreateBudget stores a new budget. It fails with *DuplicateBudgetError when
// the sub-activity already has a budget in the period.
func (l *Ledger) CreateBudget(nb NewBudget) (model.Budget, error) {
	nb.SubActivityID = strings.TrimSpace(nb.SubActivityID)
	nb.Period = strings.TrimSpace(nb.Period)
	if nb.SubActivityID == "" {
		return model.Budget{}, &ValidationError{Field: "subActivityId", Reason: "required"}
	}
	if nb.Period == "" {
		return model.Budget{}, &ValidationError{Field: "period", Reason: "required"}
	}
	status, err := model.ParseBudgetStatus(string(nb.Status))
	if err != nil {
		return model.Budget{}, &ValidationError{Field: "status", Reason: err.Error()}
	}

	if err := l.ensureUniqueBudget(nb.SubActivityID, nb.Period, ""); err != nil {
		return model.Budget{}, err
	}

	now := l.now()
	b := model.Budget{
		ID:              l.newID(),
		SubActivityID:   nb.SubActivityID,
		Period:          nb.Period,
		FundingSourceID: nb.FundingSourceID,
		Description:     nb.Description,
		Status:          status,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	b.Allocations = make([]model.Allocation, 0, len(nb.Allocations))
	for _, a := range nb.Allocations {
		if err := l.appendAllocation(&b, a); err != nil {
			return model.Budget{}, err
		}
	}

	return l.save(b)
}

// UpdateBudget applies a patch. Replacing the allocation list re-validates
// every allocation; moving the budget onto an occupied sub-activity and
// period is a duplicate.
func (l *Ledger) UpdateBudget(id string, p BudgetPatch) (model.Budget, error) {
	b, err := l.Get(id)
	if err != nil {
		return model.Budget{}, err
	}

	if p.SubActivityID != nil {
		b.SubActivityID = strings.TrimSpace(*p.SubActivityID)
		if b.SubActivityID == "" {
			return model.Budget{}, &ValidationError{Field: "subActivityId", Reason: "required"}
		}
	}
	if p.Period != nil {
		b.Period = strings.TrimSpace(*p.Period)
		if b.Period == "" {
			return model.Budget{}, &ValidationError{Field: "period", Reason: "required"}
		}
	}
	if p.SubActivityID != nil || p.Period != nil {
		if err := l.ensureUniqueBudget(b.SubActivityID, b.Period, b.ID); err != nil {
			return model.Budget{}, err
		}
	}
	if p.FundingSourceID != nil {
		b.FundingSourceID = *p.FundingSourceID
	}
	if p.Description != nil {
		b.Description = *p.Description
	}
	if p.Status != nil {
		status, err := model.ParseBudgetStatus(string(*p.Status))
		if err != nil {
			return model.Budget{}, &ValidationError{Field: "status", Reason: err.Error()}
		}
		b.Status = status
	}
	if p.Allocations != nil {
		b.Allocations = make([]model.Allocation, 0, len(*p.Allocations))
		for _, a := range *p.Allocations {
			if err := l.appendAllocation(&b, a); err != nil {
				return model.Budget{}, err
			}
		}
	}

	b.UpdatedAt = l.now()
	return l.save(b)
}

// DeleteBudget removes a budget. referencingPerformances is the caller's count
// of performance records pointing at the budget; a positive count blocks the
// delete with *InUseError.
func (l *Ledger) DeleteBudget(id string, referencingPerformances int) error {
	if _, err := l.Get(id); err != nil {
		return err
	}
	if referencingPerformances > 0 {
		return &InUseError{BudgetID: id, References: referencingPerformances}
	}
	if err := l.repo.Delete(id); err != nil {
		return fmt.Errorf("deleting budget %s: %w", id, err)
	}
	return nil
}

// AddAllocation appends an allocation. Both the reference and the amount are
// required; the amount must not be negative.
func (l *Ledger) AddAllocation(budgetID string, ref model.Reference, amount decimal.NullDecimal, note, allocatedBy string) (model.Budget, error) {
	if !amount.Valid {
		return model.Budget{}, &ValidationError{Field: "amount", Reason: "required"}
	}
	b, err := l.Get(budgetID)
	if err != nil {
		return model.Budget{}, err
	}
	a := model.Allocation{
		AccountCode: ref,
		Amount:      amount.Decimal,
		Note:        note,
		AllocatedBy: allocatedBy,
	}
	if err := l.appendAllocation(&b, a); err != nil {
		return model.Budget{}, err
	}
	b.UpdatedAt = l.now()
	return l.save(b)
}

// RemoveAllocation deletes the allocation at index.
func (l *Ledger) RemoveAllocation(budgetID string, index int) (model.Budget, error) {
	b, err := l.Get(budgetID)
	if err != nil {
		return model.Budget{}, err
	}
	if index < 0 || index >= len(b.Allocations) {
		return model.Budget{}, &NotFoundError{BudgetID: budgetID, Index: index}
	}
	b.Allocations = append(b.Allocations[:index], b.Allocations[index+1:]...)
	b.UpdatedAt = l.now()
	return l.save(b)
}

// EditAllocation patches the allocation at index. Changing the account is
// checked against the other allocations for duplicates.
func (l *Ledger) EditAllocation(budgetID string, index int, p AllocationPatch) (model.Budget, error) {
	b, err := l.Get(budgetID)
	if err != nil {
		return model.Budget{}, err
	}
	if index < 0 || index >= len(b.Allocations) {
		return model.Budget{}, &NotFoundError{BudgetID: budgetID, Index: index}
	}

	a := b.Allocations[index]
	if p.AccountCode != nil {
		a.AccountCode = *p.AccountCode
		a.Resolution = model.ResolutionUnchecked
		a.RecoveredVia = ""
	}
	if p.Amount != nil {
		a.Amount = *p.Amount
	}
	if p.Note != nil {
		a.Note = *p.Note
	}
	if p.AllocatedBy != nil {
		a.AllocatedBy = *p.AllocatedBy
	}

	if err := l.validateAllocation(b, a, index); err != nil {
		return model.Budget{}, err
	}
	if p.AccountCode != nil {
		a.Resolution = l.initialResolution(a.AccountCode)
	}
	b.Allocations[index] = a
	b.UpdatedAt = l.now()
	return l.save(b)
}

// NormalizedID returns the clean account id of an allocation, if any.
func (l *Ledger) NormalizedID(a model.Allocation) (string, bool) {
	return catalog.NormalizeRef(l.lookup, a.AccountCode)
}

func (l *Ledger) ensureUniqueBudget(subActivityID, period, selfID string) error {
	existing, ok, err := l.repo.FindBySubActivity(subActivityID, period)
	if err != nil {
		return fmt.Errorf("checking existing budget: %w", err)
	}
	if ok && existing.ID != selfID {
		return &DuplicateBudgetError{
			SubActivityID: subActivityID,
			Period:        period,
			ExistingID:    existing.ID,
		}
	}
	return nil
}

func (l *Ledger) appendAllocation(b *model.Budget, a model.Allocation) error {
	if err := l.validateAllocation(*b, a, -1); err != nil {
		return err
	}
	if a.Resolution == model.ResolutionUnchecked {
		a.Resolution = l.initialResolution(a.AccountCode)
	}
	b.Allocations = append(b.Allocations, a)
	return nil
}

// validateAllocation checks a against the budget's allocations, skipping
// position self.
func (l *Ledger) validateAllocation(b model.Budget, a model.Allocation, self int) error {
	// An allocation flagged for manual selection keeps an empty reference
	// until someone picks an account.
	if a.AccountCode.IsZero() && !a.Resolution.Flagged() {
		return &ValidationError{Field: "accountCodeId", Reason: "required"}
	}
	if a.Amount.IsNegative() {
		return &ValidationError{Field: "amount", Reason: "must not be negative"}
	}

	id, ok := catalog.NormalizeRef(l.lookup, a.AccountCode)
	if !ok {
		return nil
	}
	for i, other := range b.Allocations {
		if i == self {
			continue
		}
		if oid, ok := catalog.NormalizeRef(l.lookup, other.AccountCode); ok && oid == id {
			return &DuplicateAllocationError{BudgetID: b.ID, AccountCodeID: id, ExistingIndex: i}
		}
	}
	return nil
}

func (l *Ledger) initialResolution(ref model.Reference) model.Resolution {
	if l.lookup == nil || ref.Kind != model.RefID {
		return model.ResolutionUnchecked
	}
	if _, ok := l.lookup.FindByID(ref.ID); ok {
		return model.ResolutionResolved
	}
	return model.ResolutionUnchecked
}

func (l *Ledger) save(b model.Budget) (model.Budget, error) {
	b.Recompute()
	if err := l.repo.Put(b); err != nil {
		return model.Budget{}, fmt.Errorf("saving budget %s: %w", b.ID, err)
	}
	return b, nil
}
