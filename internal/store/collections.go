package store

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/theirongolddev/anggaran/internal/model"
)

// NodeDocument wraps a hierarchy node for writing.
func NodeDocument(n model.HierarchyNode) Document {
	return Document{Collection: n.Level.Collection(), ID: n.ID, Ref: n.ParentID, Body: n}
}

// AccountDocument wraps an account code for writing.
func AccountDocument(a model.AccountCode) Document {
	return Document{Collection: model.CollectionAccounts, ID: a.ID, Body: a}
}

// BudgetDocument wraps a budget for writing. The total is recomputed first.
func BudgetDocument(b model.Budget) Document {
	b.Recompute()
	return Document{Collection: model.CollectionBudgets, ID: b.ID, Period: b.Period, Ref: b.SubActivityID, Body: b}
}

// RealizationDocument wraps a realization for writing.
func RealizationDocument(r model.Realization) Document {
	return Document{Collection: model.CollectionRealizations, ID: r.ID, Period: r.Period, Ref: r.BudgetID, Body: r}
}

// PerformanceDocument wraps a performance record for writing.
func PerformanceDocument(p model.Performance) Document {
	return Document{Collection: model.CollectionPerformances, ID: p.ID, Period: p.Period, Ref: p.BudgetID, Body: p}
}

// Nodes returns every hierarchy node, Domain level first, each level in
// insertion order.
func (s *Store) Nodes() ([]model.HierarchyNode, error) {
	var out []model.HierarchyNode
	for _, level := range model.Levels {
		err := s.Query(level.Collection(), "", "", func(body []byte) error {
			var n model.HierarchyNode
			if err := json.Unmarshal(body, &n); err != nil {
				return err
			}
			n.Level = level
			out = append(out, n)
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("loading %s: %w", level.Collection(), err)
		}
	}
	return out, nil
}

// Accounts returns the chart of accounts in insertion order.
func (s *Store) Accounts() ([]model.AccountCode, error) {
	return queryAll[model.AccountCode](s, model.CollectionAccounts, "", "")
}

// Budgets returns the budgets of a period, or all budgets for an empty
// period, with recomputed totals.
func (s *Store) Budgets(period string) ([]model.Budget, error) {
	budgets, err := queryAll[model.Budget](s, model.CollectionBudgets, period, "")
	if err != nil {
		return nil, err
	}
	for i := range budgets {
		budgets[i].Recompute()
	}
	return budgets, nil
}

// Budget returns one budget by id.
func (s *Store) Budget(id string) (model.Budget, bool, error) {
	var b model.Budget
	err := s.Get(model.CollectionBudgets, id, &b)
	if errors.Is(err, ErrNotFound) {
		return model.Budget{}, false, nil
	}
	if err != nil {
		return model.Budget{}, false, fmt.Errorf("loading budget %s: %w", id, err)
	}
	b.Recompute()
	return b, true, nil
}

// FindBudget returns the first budget of a sub-activity in a period.
func (s *Store) FindBudget(subActivityID, period string) (model.Budget, bool, error) {
	budgets, err := queryAll[model.Budget](s, model.CollectionBudgets, period, subActivityID)
	if err != nil {
		return model.Budget{}, false, err
	}
	if len(budgets) == 0 {
		return model.Budget{}, false, nil
	}
	b := budgets[0]
	b.Recompute()
	return b, true, nil
}

// Realizations returns the realization records of a period.
func (s *Store) Realizations(period string) ([]model.Realization, error) {
	return queryAll[model.Realization](s, model.CollectionRealizations, period, "")
}

// Performances returns the performance records of a period.
func (s *Store) Performances(period string) ([]model.Performance, error) {
	return queryAll[model.Performance](s, model.CollectionPerformances, period, "")
}

// CountPerformancesForBudget counts performance records pointing at a budget.
func (s *Store) CountPerformancesForBudget(budgetID string) (int, error) {
	if budgetID == "" {
		return 0, nil
	}
	return s.Count(model.CollectionPerformances, budgetID)
}

func queryAll[T any](s *Store, collection, period, ref string) ([]T, error) {
	var out []T
	err := s.Query(collection, period, ref, func(body []byte) error {
		var v T
		if err := json.Unmarshal(body, &v); err != nil {
			return err
		}
		out = append(out, v)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", collection, err)
	}
	return out, nil
}
