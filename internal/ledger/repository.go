package ledger

import (
	"sync"

	"github.com/theirongolddev/anggaran/internal/model"
)

// Repository persists budgets for the ledger. Implementations must return
// copies the caller may mutate.
type Repository interface {
	Get(id string) (model.Budget, bool, error)
	FindBySubActivity(subActivityID, period string) (model.Budget, bool, error)
	List(period string) ([]model.Budget, error)
	Put(b model.Budget) error
	Delete(id string) error
}

// MemoryRepository is an in-process Repository. It is safe for concurrent
// use; writes to the same budget still need caller-side serialization.
type MemoryRepository struct {
	mu      sync.RWMutex
	budgets map[string]model.Budget
	order   []string
}

// NewMemoryRepository returns a repository seeded with budgets.
func NewMemoryRepository(seed ...model.Budget) *MemoryRepository {
	r := &MemoryRepository{budgets: make(map[string]model.Budget, len(seed))}
	for _, b := range seed {
		_ = r.Put(b)
	}
	return r
}

func (r *MemoryRepository) Get(id string) (model.Budget, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.budgets[id]
	if !ok {
		return model.Budget{}, false, nil
	}
	return b.Clone(), true, nil
}

func (r *MemoryRepository) FindBySubActivity(subActivityID, period string) (model.Budget, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, id := range r.order {
		b := r.budgets[id]
		if b.SubActivityID == subActivityID && b.Period == period {
			return b.Clone(), true, nil
		}
	}
	return model.Budget{}, false, nil
}

// List returns budgets of a period in insertion order; an empty period lists all.
func (r *MemoryRepository) List(period string) ([]model.Budget, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []model.Budget
	for _, id := range r.order {
		b := r.budgets[id]
		if period == "" || b.Period == period {
			out = append(out, b.Clone())
		}
	}
	return out, nil
}

func (r *MemoryRepository) Put(b model.Budget) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.budgets[b.ID]; !ok {
		r.order = append(r.order, b.ID)
	}
	r.budgets[b.ID] = b.Clone()
	return nil
}

func (r *MemoryRepository) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.budgets[id]; !ok {
		return nil
	}
	delete(r.budgets, id)
	for i, oid := range r.order {
		if oid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}
