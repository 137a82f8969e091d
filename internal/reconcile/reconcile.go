// Package reconcile repairs allocation account references that arrive as
// embedded objects or as a corrupted placeholder. Each allocation ends up
// resolved, recovered from its note, or flagged for manual selection.
// Nothing here returns an error for bad data; every outcome is a value.
package reconcile

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"

	"github.com/theirongolddev/anggaran/internal/catalog"
	"github.com/theirongolddev/anggaran/internal/model"
)

// Recovery methods recorded on a Result.
const (
	MethodID       = "id"
	MethodEmbedded = "embedded"
	MethodKeyword  = "keyword"
	MethodDirect   = "direct"
	MethodConflict = "conflict"
	MethodRetained = "retained"
)

// minDirectNote is the shortest note used for name-contains-note matching.
const minDirectNote = 4

// Result is the outcome for one allocation.
type Result struct {
	Status        model.Resolution
	AccountCodeID string
	Category      string
	Method        string
}

// Report summarizes a reconciled budget. Retained counts the recovered
// allocations carried over from an earlier pass; they are included in
// Recovered.
type Report struct {
	BudgetID     string
	Resolved     int
	Recovered    int
	Retained     int
	Manual       int
	ManualAmount decimal.Decimal
	Results      []Result
}

// Changed reports whether any allocation needed new recovery or manual work.
func (r Report) Changed() bool { return r.Recovered > r.Retained || r.Manual > 0 }

type entry struct {
	id       string
	name     string
	fullCode string
}

// Reconciler matches references against a catalog snapshot.
type Reconciler struct {
	lookup  catalog.Lookup
	rules   []compiledRule
	entries []entry
}

// New compiles rules and snapshots the catalog entries. A nil rules slice
// uses DefaultRules.
func New(lookup catalog.Lookup, rules []Rule) (*Reconciler, error) {
	if lookup == nil {
		return nil, fmt.Errorf("reconcile: nil catalog")
	}
	if rules == nil {
		rules = DefaultRules()
	}
	compiled, err := compileRules(rules)
	if err != nil {
		return nil, err
	}

	fold := cases.Fold()
	all := lookup.All()
	entries := make([]entry, 0, len(all))
	for _, ac := range all {
		entries = append(entries, entry{
			id:       ac.ID,
			name:     strings.TrimSpace(fold.String(ac.Name)),
			fullCode: strings.TrimSpace(fold.String(ac.DisplayCode())),
		})
	}
	return &Reconciler{lookup: lookup, rules: compiled, entries: entries}, nil
}

// Reconcile decides the account of a single allocation.
func (r *Reconciler) Reconcile(a model.Allocation) Result {
	ref := a.AccountCode
	switch ref.Kind {
	case model.RefID:
		if _, ok := r.lookup.FindByID(ref.ID); ok {
			return Result{Status: model.ResolutionResolved, AccountCodeID: ref.ID, Method: MethodID}
		}
	case model.RefEmbedded:
		if id, ok := catalog.NormalizeRef(r.lookup, ref); ok {
			if _, found := r.lookup.FindByID(id); found {
				return Result{Status: model.ResolutionResolved, AccountCodeID: id, Method: MethodEmbedded}
			}
		}
	}
	return r.recover(a.Note)
}

func (r *Reconciler) recover(note string) Result {
	note = strings.TrimSpace(cases.Fold().String(note))
	if note == "" {
		return Result{Status: model.ResolutionManual}
	}

	category := ""
	for _, rule := range r.rules {
		if !rule.matches(note) {
			continue
		}
		category = rule.Category
		if id, ok := r.pickByRule(rule); ok {
			return Result{Status: model.ResolutionRecovered, AccountCodeID: id, Category: rule.Category, Method: MethodKeyword}
		}
		break
	}

	if id, ok := r.pickDirect(note); ok {
		return Result{Status: model.ResolutionRecovered, AccountCodeID: id, Category: category, Method: MethodDirect}
	}
	return Result{Status: model.ResolutionManual, Category: category}
}

// pickByRule returns the first entry, in catalog order, whose name or full
// code holds a rule keyword. Avoided entries only win when nothing else
// matches; preferred entries win over the rest.
func (r *Reconciler) pickByRule(rule compiledRule) (string, bool) {
	var candidates []entry
	for _, e := range r.entries {
		if containsAny(e.name, rule.keywords) || containsAny(e.fullCode, rule.keywords) {
			candidates = append(candidates, e)
		}
	}
	if len(candidates) == 0 {
		return "", false
	}

	if len(rule.avoid) > 0 {
		var kept []entry
		for _, e := range candidates {
			if !containsAny(e.name, rule.avoid) {
				kept = append(kept, e)
			}
		}
		if len(kept) > 0 {
			candidates = kept
		}
	}
	for _, e := range candidates {
		if containsAny(e.name, rule.prefer) {
			return e.id, true
		}
	}
	return candidates[0].id, true
}

// pickDirect matches the note against entry names and full codes.
func (r *Reconciler) pickDirect(note string) (string, bool) {
	for _, e := range r.entries {
		if e.name != "" && strings.Contains(note, e.name) {
			return e.id, true
		}
		if e.fullCode != "" && strings.Contains(note, e.fullCode) {
			return e.id, true
		}
	}
	if len(note) < minDirectNote {
		return "", false
	}
	for _, e := range r.entries {
		if strings.Contains(e.name, note) {
			return e.id, true
		}
	}
	return "", false
}

// ReconcileBudget returns a copy of b with every allocation reference
// normalized to a plain id or none. The input budget is not modified.
// Resolved references claim their accounts first; a recovery that lands on
// an account already claimed in the budget is left for manual selection.
func (r *Reconciler) ReconcileBudget(b model.Budget) (model.Budget, Report) {
	out := b.Clone()
	rep := Report{
		BudgetID:     b.ID,
		ManualAmount: decimal.Zero,
		Results:      make([]Result, len(out.Allocations)),
	}

	for i, a := range out.Allocations {
		rep.Results[i] = r.retain(a, r.Reconcile(a))
	}

	taken := make(map[string]bool, len(out.Allocations))
	claim := func(i int) {
		res := rep.Results[i]
		if res.AccountCodeID == "" {
			return
		}
		if taken[res.AccountCodeID] {
			rep.Results[i] = Result{Status: model.ResolutionManual, Category: res.Category, Method: MethodConflict}
			return
		}
		taken[res.AccountCodeID] = true
	}
	for i, res := range rep.Results {
		if res.Status == model.ResolutionResolved {
			claim(i)
		}
	}
	for i, res := range rep.Results {
		if res.Status == model.ResolutionRecovered {
			claim(i)
		}
	}

	for i, a := range out.Allocations {
		res := rep.Results[i]
		a.AccountCode = model.IDRef(res.AccountCodeID)
		a.Resolution = res.Status
		switch res.Status {
		case model.ResolutionResolved:
			rep.Resolved++
			a.RecoveredVia = ""
		case model.ResolutionRecovered:
			rep.Recovered++
			if res.Method == MethodRetained {
				rep.Retained++
				break
			}
			a.RecoveredVia = res.Method
			if res.Category != "" {
				a.RecoveredVia = res.Method + ":" + res.Category
			}
		case model.ResolutionManual:
			a.RecoveredVia = ""
			rep.Manual++
			rep.ManualAmount = rep.ManualAmount.Add(a.Amount)
		}
		out.Allocations[i] = a
	}
	out.Recompute()
	return out, rep
}

// retain keeps an earlier recovery when the allocation still points at the
// account it was recovered to, so RecoveredVia survives another pass.
func (r *Reconciler) retain(a model.Allocation, res Result) Result {
	if a.Resolution != model.ResolutionRecovered || res.Status != model.ResolutionResolved || res.Method != MethodID {
		return res
	}
	category := ""
	if _, after, ok := strings.Cut(a.RecoveredVia, ":"); ok {
		category = after
	}
	return Result{
		Status:        model.ResolutionRecovered,
		AccountCodeID: res.AccountCodeID,
		Category:      category,
		Method:        MethodRetained,
	}
}
