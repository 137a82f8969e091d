package pipeline

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/theirongolddev/anggaran/internal/catalog"
	"github.com/theirongolddev/anggaran/internal/hierarchy"
	"github.com/theirongolddev/anggaran/internal/model"
)

// Reader is the read side of the document store.
type Reader interface {
	Nodes() ([]model.HierarchyNode, error)
	Accounts() ([]model.AccountCode, error)
	Budgets(period string) ([]model.Budget, error)
	Realizations(period string) ([]model.Realization, error)
	Performances(period string) ([]model.Performance, error)
}

// Snapshot is the read-only in-memory state of one period. Index, Resolver
// and Catalog are built from the loaded collections.
type Snapshot struct {
	Period       string
	Nodes        []model.HierarchyNode
	Accounts     []model.AccountCode
	Budgets      []model.Budget
	Realizations []model.Realization
	Performances []model.Performance

	Index    *hierarchy.Index
	Resolver *hierarchy.Resolver
	Catalog  *catalog.Catalog
}

// Load reads the hierarchy, the catalog and the period's records
// concurrently and builds a Snapshot. The first failure cancels the rest.
func Load(ctx context.Context, r Reader, period string) (*Snapshot, error) {
	s := &Snapshot{Period: period}
	g, ctx := errgroup.WithContext(ctx)

	load := func(name string, fn func() error) {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := fn(); err != nil {
				return fmt.Errorf("loading %s: %w", name, err)
			}
			return nil
		})
	}

	load("hierarchy", func() (err error) { s.Nodes, err = r.Nodes(); return })
	load("account codes", func() (err error) { s.Accounts, err = r.Accounts(); return })
	load("budgets", func() (err error) { s.Budgets, err = r.Budgets(period); return })
	load("realizations", func() (err error) { s.Realizations, err = r.Realizations(period); return })
	load("performances", func() (err error) { s.Performances, err = r.Performances(period); return })

	if err := g.Wait(); err != nil {
		return nil, err
	}

	for i := range s.Budgets {
		s.Budgets[i].Recompute()
	}
	s.Index = hierarchy.NewIndex(s.Nodes)
	s.Resolver = hierarchy.NewResolver(s.Index)
	s.Catalog = catalog.New(s.Accounts)
	return s, nil
}

// Consolidated returns the period report.
func (s *Snapshot) Consolidated() model.Consolidated {
	return Consolidate(s.Period, s.Budgets, s.Realizations, s.Performances)
}

// Details returns the period's budget listing.
func (s *Snapshot) Details() []model.BudgetDetail {
	return Details(s.Period, s.Budgets, s.Resolver)
}
