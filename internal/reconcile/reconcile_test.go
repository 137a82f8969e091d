package reconcile

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/theirongolddev/anggaran/internal/catalog"
	"github.com/theirongolddev/anggaran/internal/model"
)

func testCatalog() *catalog.Catalog {
	return catalog.New([]model.AccountCode{
		{ID: "maint", Code: "01", Name: "Pemeliharaan Gedung", FullCode: "5.1.2.3.01"},
		{ID: "raw", Code: "03", Name: "Bahan Baku - Semen", FullCode: "5.1.2.1.03"},
		{ID: "elec", Code: "07", Name: "Belanja Alat Listrik", FullCode: "5.1.2.2.07"},
		{ID: "atk", Code: "01", Name: "Alat Tulis Kantor", FullCode: "5.1.2.1.01"},
	})
}

func mustNew(t *testing.T, rules []Rule) *Reconciler {
	t.Helper()
	r, err := New(testCatalog(), rules)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return r
}

func TestReconcile_CorruptedCementPrefersRawMaterials(t *testing.T) {
	r := mustNew(t, nil)
	res := r.Reconcile(model.Allocation{
		AccountCode: model.IDRef(model.CorruptedPlaceholder),
		Note:        "semen dll",
		Amount:      decimal.NewFromInt(5_000_000),
	})
	if res.Status != model.ResolutionRecovered {
		t.Fatalf("Status = %q, want recovered", res.Status)
	}
	if res.AccountCodeID != "raw" {
		t.Fatalf("AccountCodeID = %s, want raw", res.AccountCodeID)
	}
	if res.Category != "semen" || res.Method != MethodKeyword {
		t.Fatalf("Category/Method = %s/%s, want semen/keyword", res.Category, res.Method)
	}
}

func TestReconcile_AvoidTermLosesEvenWhenFirst(t *testing.T) {
	cat := catalog.New([]model.AccountCode{
		{ID: "maint", Name: "Pemeliharaan Semen Gedung", FullCode: "5.1.2.3.01"},
		{ID: "raw", Name: "Semen Portland", FullCode: "5.1.2.1.03"},
	})
	r, err := New(cat, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	res := r.Reconcile(model.Allocation{AccountCode: model.IDRef(model.CorruptedPlaceholder), Note: "beli semen"})
	if res.AccountCodeID != "raw" {
		t.Fatalf("AccountCodeID = %s, want raw", res.AccountCodeID)
	}
}

func TestReconcile_Paths(t *testing.T) {
	r := mustNew(t, nil)

	tests := []struct {
		name     string
		alloc    model.Allocation
		status   model.Resolution
		id       string
		method   string
		category string
	}{
		{
			name:   "plain id",
			alloc:  model.Allocation{AccountCode: model.IDRef("elec")},
			status: model.ResolutionResolved, id: "elec", method: MethodID,
		},
		{
			name: "embedded internal id",
			alloc: model.Allocation{AccountCode: model.Reference{
				Kind: model.RefEmbedded, Embedded: &model.EmbeddedAccount{InternalID: "maint", Name: "Pemeliharaan Gedung"},
			}},
			status: model.ResolutionResolved, id: "maint", method: MethodEmbedded,
		},
		{
			name: "embedded full code only",
			alloc: model.Allocation{AccountCode: model.Reference{
				Kind: model.RefEmbedded, Embedded: &model.EmbeddedAccount{FullCode: "5.1.2.2.07"},
			}},
			status: model.ResolutionResolved, id: "elec", method: MethodEmbedded,
		},
		{
			name:   "unknown id recovered from note",
			alloc:  model.Allocation{AccountCode: model.IDRef("gone"), Note: "kabel listrik"},
			status: model.ResolutionRecovered, id: "elec", method: MethodKeyword, category: "listrik",
		},
		{
			name:   "category picks first keyword hit",
			alloc:  model.Allocation{AccountCode: model.IDRef(model.CorruptedPlaceholder), Note: "pembelian alat tulis kantor"},
			status: model.ResolutionRecovered, id: "elec", method: MethodKeyword, category: "peralatan",
		},
		{
			name:   "direct name match",
			alloc:  model.Allocation{AccountCode: model.IDRef(model.CorruptedPlaceholder), Note: "Pemeliharaan Gedung kantor camat"},
			status: model.ResolutionRecovered, id: "maint", method: MethodDirect,
		},
		{
			name:   "direct full code match",
			alloc:  model.Allocation{AccountCode: model.IDRef(model.CorruptedPlaceholder), Note: "lihat 5.1.2.1.01"},
			status: model.ResolutionRecovered, id: "atk", method: MethodDirect,
		},
		{
			name:   "empty note",
			alloc:  model.Allocation{AccountCode: model.IDRef(model.CorruptedPlaceholder)},
			status: model.ResolutionManual,
		},
		{
			name:   "nothing matches",
			alloc:  model.Allocation{AccountCode: model.IDRef(model.CorruptedPlaceholder), Note: "honor narasumber"},
			status: model.ResolutionManual,
		},
		{
			name:   "missing reference",
			alloc:  model.Allocation{Note: "xyz"},
			status: model.ResolutionManual,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := r.Reconcile(tt.alloc)
			if got.Status != tt.status {
				t.Fatalf("Status = %q, want %q (%+v)", got.Status, tt.status, got)
			}
			if got.AccountCodeID != tt.id {
				t.Fatalf("AccountCodeID = %q, want %q", got.AccountCodeID, tt.id)
			}
			if tt.method != "" && got.Method != tt.method {
				t.Fatalf("Method = %q, want %q", got.Method, tt.method)
			}
			if got.Category != tt.category {
				t.Fatalf("Category = %q, want %q", got.Category, tt.category)
			}
		})
	}
}

func TestReconcile_Deterministic(t *testing.T) {
	a := model.Allocation{AccountCode: model.IDRef(model.CorruptedPlaceholder), Note: "Semen dan pasir"}
	first := mustNew(t, nil).Reconcile(a)
	for i := 0; i < 20; i++ {
		if got := mustNew(t, nil).Reconcile(a); got != first {
			t.Fatalf("run %d = %+v, want %+v", i, got, first)
		}
	}
}

func TestReconcileBudget_NormalizesAndCountsManual(t *testing.T) {
	r := mustNew(t, nil)
	in := model.Budget{
		ID: "b1",
		Allocations: []model.Allocation{
			{AccountCode: model.IDRef(model.CorruptedPlaceholder), Note: "semen dll", Amount: decimal.NewFromInt(5_000_000)},
			{AccountCode: model.IDRef("raw"), Amount: decimal.NewFromInt(100)},
			{AccountCode: model.IDRef(model.CorruptedPlaceholder), Note: "honor", Amount: decimal.NewFromInt(250)},
			{AccountCode: model.Reference{Kind: model.RefEmbedded, Embedded: &model.EmbeddedAccount{ID: "maint"}}, Amount: decimal.NewFromInt(50)},
		},
		TotalAmount: decimal.NewFromInt(1),
	}

	out, rep := r.ReconcileBudget(in)

	if in.Allocations[0].AccountCode.Kind != model.RefCorrupted {
		t.Fatal("input budget was modified")
	}
	// The plain id claims "raw" first, so the recovered cement line conflicts.
	if rep.Resolved != 2 || rep.Recovered != 0 || rep.Manual != 2 {
		t.Fatalf("report = %+v", rep)
	}
	if rep.Results[0].Method != MethodConflict {
		t.Fatalf("Results[0].Method = %s, want conflict", rep.Results[0].Method)
	}
	if !rep.ManualAmount.Equal(decimal.NewFromInt(5_000_250)) {
		t.Fatalf("ManualAmount = %s, want 5000250", rep.ManualAmount)
	}
	if !out.TotalAmount.Equal(decimal.NewFromInt(5_000_400)) {
		t.Fatalf("TotalAmount = %s, want 5000400", out.TotalAmount)
	}
	for i, a := range out.Allocations {
		if a.AccountCode.Kind != model.RefID && a.AccountCode.Kind != model.RefNone {
			t.Fatalf("allocation %d kind = %s, want id or none", i, a.AccountCode.Kind)
		}
	}
	if out.Allocations[3].AccountCode.ID != "maint" {
		t.Fatalf("embedded allocation id = %s, want maint", out.Allocations[3].AccountCode.ID)
	}
	n, amount := out.FlaggedAllocations()
	if n != 2 || !amount.Equal(rep.ManualAmount) {
		t.Fatalf("FlaggedAllocations = %d, %s", n, amount)
	}
}

func TestReconcileBudget_RecoveredRecordsCategory(t *testing.T) {
	r := mustNew(t, nil)
	out, rep := r.ReconcileBudget(model.Budget{Allocations: []model.Allocation{
		{AccountCode: model.IDRef(model.CorruptedPlaceholder), Note: "semen dll", Amount: decimal.NewFromInt(5_000_000)},
	}})
	if rep.Recovered != 1 {
		t.Fatalf("Recovered = %d, want 1", rep.Recovered)
	}
	a := out.Allocations[0]
	if a.AccountCode.ID != "raw" || a.Resolution != model.ResolutionRecovered || a.RecoveredVia != "keyword:semen" {
		t.Fatalf("allocation = %+v", a)
	}
}

func TestReconcileBudget_SecondPassKeepsRecovery(t *testing.T) {
	r := mustNew(t, nil)
	b := model.Budget{ID: "b1", Allocations: []model.Allocation{
		{AccountCode: model.IDRef(model.CorruptedPlaceholder), Note: "semen dll", Amount: decimal.NewFromInt(5_000_000)},
		{AccountCode: model.IDRef("elec"), Amount: decimal.NewFromInt(1_000_000)},
	}}

	first, rep1 := r.ReconcileBudget(b)
	if !rep1.Changed() || rep1.Retained != 0 {
		t.Fatalf("first report = %+v", rep1)
	}
	second, rep2 := r.ReconcileBudget(first)

	for i := range first.Allocations {
		was, now := first.Allocations[i], second.Allocations[i]
		if was.Resolution != now.Resolution || was.RecoveredVia != now.RecoveredVia || was.AccountCode.ID != now.AccountCode.ID {
			t.Fatalf("allocation %d changed on second pass: %+v -> %+v", i, was, now)
		}
	}
	if got := second.Allocations[0]; got.Resolution != model.ResolutionRecovered || got.RecoveredVia != "keyword:semen" {
		t.Fatalf("recovered allocation after second pass = %+v", got)
	}
	if rep2.Recovered != 1 || rep2.Retained != 1 || rep2.Resolved != 1 || rep2.Changed() {
		t.Fatalf("second report = %+v", rep2)
	}
	if rep2.Results[0].Category != "semen" {
		t.Fatalf("retained category = %q", rep2.Results[0].Category)
	}
}

func TestReconcileBudget_RetainedRecoveryLosesToResolvedClaim(t *testing.T) {
	r := mustNew(t, nil)
	out, rep := r.ReconcileBudget(model.Budget{Allocations: []model.Allocation{
		{AccountCode: model.IDRef("raw"), Resolution: model.ResolutionRecovered, RecoveredVia: "keyword:semen", Amount: decimal.NewFromInt(10)},
		{AccountCode: model.IDRef("raw"), Amount: decimal.NewFromInt(20)},
	}})
	if rep.Manual != 1 || out.Allocations[0].Resolution != model.ResolutionManual || out.Allocations[0].RecoveredVia != "" {
		t.Fatalf("report = %+v, allocation = %+v", rep, out.Allocations[0])
	}
}

func TestCustomRules(t *testing.T) {
	rules := []Rule{{Category: "atk", Patterns: []string{`\b(kertas|pulpen)\b`}, Keywords: []string{"alat tulis"}}}
	r := mustNew(t, rules)
	res := r.Reconcile(model.Allocation{AccountCode: model.IDRef(model.CorruptedPlaceholder), Note: "Kertas A4"})
	if res.AccountCodeID != "atk" || res.Category != "atk" {
		t.Fatalf("Reconcile = %+v, want atk", res)
	}

	if _, err := New(testCatalog(), []Rule{{Category: "bad", Patterns: []string{"("}}}); err == nil {
		t.Fatal("New with invalid pattern should fail")
	}
	if _, err := New(testCatalog(), []Rule{{Patterns: []string{"x"}}}); err == nil {
		t.Fatal("New with empty category should fail")
	}
}
