package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/theirongolddev/anggaran/internal/catalog"
	"github.com/theirongolddev/anggaran/internal/model"
	"github.com/theirongolddev/anggaran/internal/store"
)

var exportFiles = map[string]string{
	"domains.json":       `[{"_id":"d1","code":"1","name":"Urusan Wajib"}]`,
	"fields.json":        `[{"_id":"f1","code":"03","name":"Pekerjaan Umum","domainId":"d1"}]`,
	"programs.json":      `[{"_id":"p1","code":"02","name":"Program Jalan","fieldId":"f1"}]`,
	"activities.json":    `[{"_id":"a1","code":"2.01","name":"Pembangunan Jalan","programId":"p1"}]`,
	"subactivities.json": `[{"_id":"s1","code":"01","name":"Rehabilitasi Jalan","activityId":"a1"}]`,
	"accountcodes.json": `[
		{"_id":"ac1","code":"03","name":"Bahan Baku - Semen","fullCode":"5.1.2.1.03"},
		{"_id":"ac2","code":"01","name":"Pemeliharaan Gedung","fullCode":"5.1.2.3.01"}
	]`,
	"budgets.json": `[{"_id":"b1","subActivityId":"s1","period":"2026-Murni","status":"approved","allocations":[
		{"accountCodeId":"[object Object]","amount":5000000,"note":"semen dll"},
		{"accountCodeId":{"_id":"ac2"},"amount":1000000}
	]}]`,
	"realizations.json": `[{"_id":"r1","period":"2026-Murni","budgetId":"b1","budgetAmount":1000000,"realizationAmount":750000}]`,
	"performances.json": `[{"_id":"k1","period":"2026-Murni","budgetId":"b1","targetValue":10,"actualValue":5,"status":"in_progress"}]`,
}

func writeExports(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	for name, body := range exportFiles {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o600); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func openStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "anggaran.db"))
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestImport_SkipsUnchangedFiles(t *testing.T) {
	dir := writeExports(t)
	s := openStore(t)

	var mu sync.Mutex
	last := 0
	res, err := Import(dir, s, false, func(current, total int) {
		mu.Lock()
		defer mu.Unlock()
		if current > last {
			last = current
		}
	})
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if res.TotalFiles != 9 || res.Imported != 9 || res.Unchanged != 0 || res.FileErrors != 0 {
		t.Fatalf("first import = %+v", res)
	}
	if res.Documents != 10 || last != 9 {
		t.Fatalf("Documents = %d, last progress = %d", res.Documents, last)
	}

	res, err = Import(dir, s, false, nil)
	if err != nil {
		t.Fatalf("second Import: %v", err)
	}
	if res.Imported != 0 || res.Unchanged != 9 {
		t.Fatalf("second import = %+v, want all unchanged", res)
	}

	// Touching one file re-imports just that file.
	path := filepath.Join(dir, "realizations.json")
	body := `[{"_id":"r1","period":"2026-Murni","budgetAmount":1000000,"realizationAmount":500000}]`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	future := time.Now().Add(time.Minute)
	if err := os.Chtimes(path, future, future); err != nil {
		t.Fatal(err)
	}
	res, err = Import(dir, s, false, nil)
	if err != nil {
		t.Fatalf("third Import: %v", err)
	}
	if res.Imported != 1 || res.Unchanged != 8 {
		t.Fatalf("third import = %+v", res)
	}

	res, err = Import(dir, s, true, nil)
	if err != nil || res.Imported != 9 {
		t.Fatalf("forced import = %+v, %v", res, err)
	}
}

func TestLoadAndReconcileSnapshot(t *testing.T) {
	dir := writeExports(t)
	s := openStore(t)
	if _, err := Import(dir, s, false, nil); err != nil {
		t.Fatalf("Import: %v", err)
	}

	snap, err := Load(context.Background(), s, "2026-Murni")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(snap.Nodes) != 5 || snap.Catalog.Len() != 2 || len(snap.Budgets) != 1 {
		t.Fatalf("snapshot nodes=%d accounts=%d budgets=%d", len(snap.Nodes), snap.Catalog.Len(), len(snap.Budgets))
	}
	if got := snap.Resolver.ResolveFullCode("s1"); got != "1.03.02.2.01.01" {
		t.Fatalf("ResolveFullCode = %q", got)
	}

	reports, totals, err := snap.Reconcile(nil, nil)
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if len(reports) != 1 || totals.Recovered != 1 || totals.Resolved != 1 || totals.Manual != 0 {
		t.Fatalf("totals = %+v", totals)
	}
	if id := snap.Budgets[0].Allocations[0].AccountCode.ID; id != "ac1" {
		t.Fatalf("recovered account = %q, want ac1", id)
	}

	c := snap.Consolidated()
	if c.RealizationSummary.AvgPercentage != 75 {
		t.Fatalf("AvgPercentage = %v, want 75", c.RealizationSummary.AvgPercentage)
	}
	if c.BudgetSummary.Count != 1 || c.BudgetSummary.TotalBudget.String() != "6000000" {
		t.Fatalf("BudgetSummary = %+v", c.BudgetSummary)
	}

	details := snap.Details()
	if len(details) != 1 || details[0].SubActivityName != "Rehabilitasi Jalan" {
		t.Fatalf("Details = %+v", details)
	}
}

func TestLoadReconciled_FlagsUnrecoverableAllocation(t *testing.T) {
	s := openStore(t)
	docs := []store.Document{
		store.AccountDocument(model.AccountCode{ID: "ac1", Code: "03", Name: "Bahan Baku - Semen", FullCode: "5.1.2.1.03"}),
		store.BudgetDocument(model.Budget{
			ID: "b1", SubActivityID: "s1", Period: "2026-Murni", Status: model.BudgetApproved,
			Allocations: []model.Allocation{
				{AccountCode: model.IDRef(model.CorruptedPlaceholder), Amount: decimal.NewFromInt(2_000_000), Note: "zzzz qqqq"},
				{AccountCode: model.IDRef("ac1"), Amount: decimal.NewFromInt(1_000_000)},
			},
		}),
	}
	for _, d := range docs {
		if err := s.Put(d); err != nil {
			t.Fatalf("Put: %v", err)
		}
	}

	snap, err := LoadReconciled(context.Background(), s, "2026-Murni", nil, nil)
	if err != nil {
		t.Fatalf("LoadReconciled: %v", err)
	}
	c := snap.Consolidated()
	if c.BudgetSummary.Flagged != 1 || !c.BudgetSummary.FlaggedAmount.Equal(decimal.NewFromInt(2_000_000)) {
		t.Fatalf("BudgetSummary = %+v, want one flagged allocation of 2000000", c.BudgetSummary)
	}
	if !c.BudgetSummary.TotalBudget.Equal(decimal.NewFromInt(3_000_000)) {
		t.Fatalf("TotalBudget = %s, flagged amount must stay counted", c.BudgetSummary.TotalBudget)
	}
	if details := snap.Details(); len(details) != 1 || details[0].Flagged != 1 {
		t.Fatalf("Details = %+v", details)
	}

	stored, ok, err := s.Budget("b1")
	if err != nil || !ok {
		t.Fatalf("Budget: %v %v", ok, err)
	}
	if stored.Allocations[0].Resolution != model.ResolutionUnchecked {
		t.Fatalf("stored resolution = %q, loading must not write back", stored.Allocations[0].Resolution)
	}
}

func TestLoadReconciled_UsesWrappedLookup(t *testing.T) {
	s := openStore(t)
	wrapped := false
	_, err := LoadReconciled(context.Background(), s, "2026-Murni", nil, func(c *catalog.Catalog) (catalog.Lookup, error) {
		wrapped = true
		return catalog.NewCached(c, 8)
	})
	if err != nil || !wrapped {
		t.Fatalf("LoadReconciled err = %v, wrapped = %v", err, wrapped)
	}
}

func TestImport_EmptyDir(t *testing.T) {
	res, err := Import(t.TempDir(), openStore(t), false, nil)
	if err != nil || res.TotalFiles != 0 {
		t.Fatalf("Import(empty) = %+v, %v", res, err)
	}
}

func TestDocuments_CarriesQueryColumns(t *testing.T) {
	docs := Documents(sourceResult())
	if len(docs) != 2 {
		t.Fatalf("docs = %d, want 2", len(docs))
	}
	if docs[0].Collection != "subactivities" || docs[0].Ref != "a1" {
		t.Fatalf("node doc = %+v", docs[0])
	}
	if docs[1].Collection != model.CollectionBudgets || docs[1].Ref != "s1" || docs[1].Period != "2026-Murni" {
		t.Fatalf("budget doc = %+v", docs[1])
	}
}
