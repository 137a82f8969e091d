package store

import (
	"github.com/theirongolddev/anggaran/internal/model"
)

// BudgetRepository persists ledger budgets in the store.
type BudgetRepository struct {
	s *Store
}

// BudgetRepository returns the store's budget repository.
func (s *Store) BudgetRepository() *BudgetRepository {
	return &BudgetRepository{s: s}
}

func (r *BudgetRepository) Get(id string) (model.Budget, bool, error) {
	return r.s.Budget(id)
}

func (r *BudgetRepository) FindBySubActivity(subActivityID, period string) (model.Budget, bool, error) {
	return r.s.FindBudget(subActivityID, period)
}

func (r *BudgetRepository) List(period string) ([]model.Budget, error) {
	return r.s.Budgets(period)
}

func (r *BudgetRepository) Put(b model.Budget) error {
	return r.s.Put(BudgetDocument(b))
}

func (r *BudgetRepository) Delete(id string) error {
	return r.s.Delete(model.CollectionBudgets, id)
}
