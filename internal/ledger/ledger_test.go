package ledger

import (
	"errors"
	"fmt"
	"math/rand"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/theirongolddev/anggaran/internal/catalog"
	"github.com/theirongolddev/anggaran/internal/model"
)

func newTestLedger(t *testing.T) (*Ledger, *MemoryRepository) {
	t.Helper()
	repo := NewMemoryRepository()
	cat := catalog.New([]model.AccountCode{
		{ID: "ac1", Code: "03", Name: "Bahan Baku - Semen", FullCode: "5.1.2.1.03"},
		{ID: "ac2", Code: "01", Name: "Pemeliharaan Gedung", FullCode: "5.1.2.3.01"},
		{ID: "ac3", Code: "07", Name: "Belanja Alat Listrik", FullCode: "5.1.2.2.07"},
	})
	l := New(repo, cat)
	seq := 0
	l.newID = func() string {
		seq++
		return fmt.Sprintf("b%d", seq)
	}
	return l, repo
}

func amt(v int64) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.NewFromInt(v))
}

func TestCreateBudget_DuplicateSubActivityPeriod(t *testing.T) {
	l, _ := newTestLedger(t)

	first, err := l.CreateBudget(NewBudget{SubActivityID: "sub1", Period: "2026-Murni"})
	if err != nil {
		t.Fatalf("first CreateBudget: %v", err)
	}

	_, err = l.CreateBudget(NewBudget{SubActivityID: "sub1", Period: "2026-Murni"})
	var dup *DuplicateBudgetError
	if !errors.As(err, &dup) {
		t.Fatalf("second CreateBudget err = %v, want DuplicateBudgetError", err)
	}
	if dup.ExistingID != first.ID {
		t.Fatalf("ExistingID = %s, want %s", dup.ExistingID, first.ID)
	}

	// Same sub-activity in another period is fine.
	if _, err := l.CreateBudget(NewBudget{SubActivityID: "sub1", Period: "2026-Perubahan"}); err != nil {
		t.Fatalf("CreateBudget other period: %v", err)
	}
}

func TestCreateBudget_Validation(t *testing.T) {
	l, _ := newTestLedger(t)

	tests := []struct {
		name  string
		nb    NewBudget
		field string
	}{
		{"missing sub-activity", NewBudget{Period: "2026-Murni"}, "subActivityId"},
		{"missing period", NewBudget{SubActivityID: "sub1"}, "period"},
		{"bad status", NewBudget{SubActivityID: "sub1", Period: "2026-Murni", Status: "closed"}, "status"},
		{"negative amount", NewBudget{SubActivityID: "sub1", Period: "2026-Murni", Allocations: []model.Allocation{
			{AccountCode: model.IDRef("ac1"), Amount: decimal.NewFromInt(-1)},
		}}, "amount"},
		{"missing account", NewBudget{SubActivityID: "sub1", Period: "2026-Murni", Allocations: []model.Allocation{
			{Amount: decimal.NewFromInt(10)},
		}}, "accountCodeId"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := l.CreateBudget(tt.nb)
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("err = %v, want ValidationError", err)
			}
			if ve.Field != tt.field {
				t.Fatalf("Field = %s, want %s", ve.Field, tt.field)
			}
		})
	}
}

func TestCreateBudget_RecomputesTotalAndDefaultsDraft(t *testing.T) {
	l, _ := newTestLedger(t)
	b, err := l.CreateBudget(NewBudget{
		SubActivityID: "sub1",
		Period:        "2026-Murni",
		Allocations: []model.Allocation{
			{AccountCode: model.IDRef("ac1"), Amount: decimal.NewFromInt(5_000_000)},
			{AccountCode: model.IDRef("ac2"), Amount: decimal.NewFromInt(2_500_000)},
		},
	})
	if err != nil {
		t.Fatalf("CreateBudget: %v", err)
	}
	if !b.TotalAmount.Equal(decimal.NewFromInt(7_500_000)) {
		t.Fatalf("TotalAmount = %s, want 7500000", b.TotalAmount)
	}
	if b.Status != model.BudgetDraft {
		t.Fatalf("Status = %s, want draft", b.Status)
	}
	if b.Allocations[0].Resolution != model.ResolutionResolved {
		t.Fatalf("Resolution = %q, want resolved", b.Allocations[0].Resolution)
	}
}

func TestCreateBudget_DuplicateAllocationInInput(t *testing.T) {
	l, _ := newTestLedger(t)
	_, err := l.CreateBudget(NewBudget{
		SubActivityID: "sub1",
		Period:        "2026-Murni",
		Allocations: []model.Allocation{
			{AccountCode: model.IDRef("ac1"), Amount: decimal.NewFromInt(1)},
			{AccountCode: model.Reference{Kind: model.RefEmbedded, Embedded: &model.EmbeddedAccount{FullCode: "5.1.2.1.03"}}, Amount: decimal.NewFromInt(2)},
		},
	})
	var dup *DuplicateAllocationError
	if !errors.As(err, &dup) {
		t.Fatalf("err = %v, want DuplicateAllocationError", err)
	}
	if dup.AccountCodeID != "ac1" || dup.ExistingIndex != 0 {
		t.Fatalf("dup = %+v, want ac1 at 0", dup)
	}
}

func TestAddAllocation(t *testing.T) {
	l, _ := newTestLedger(t)
	b, err := l.CreateBudget(NewBudget{SubActivityID: "sub1", Period: "2026-Murni"})
	if err != nil {
		t.Fatalf("CreateBudget: %v", err)
	}

	b, err = l.AddAllocation(b.ID, model.IDRef("ac1"), amt(1_000), "semen", "operator")
	if err != nil {
		t.Fatalf("AddAllocation: %v", err)
	}
	if len(b.Allocations) != 1 || !b.TotalAmount.Equal(decimal.NewFromInt(1_000)) {
		t.Fatalf("after add: %d allocations, total %s", len(b.Allocations), b.TotalAmount)
	}

	_, err = l.AddAllocation(b.ID, model.IDRef("ac1"), amt(500), "", "")
	var dup *DuplicateAllocationError
	if !errors.As(err, &dup) {
		t.Fatalf("second ac1 err = %v, want DuplicateAllocationError", err)
	}

	_, err = l.AddAllocation(b.ID, model.IDRef("ac2"), decimal.NullDecimal{}, "", "")
	var ve *ValidationError
	if !errors.As(err, &ve) || ve.Field != "amount" {
		t.Fatalf("missing amount err = %v, want ValidationError(amount)", err)
	}

	_, err = l.AddAllocation(b.ID, model.Reference{}, amt(1), "", "")
	if !errors.As(err, &ve) || ve.Field != "accountCodeId" {
		t.Fatalf("missing account err = %v, want ValidationError(accountCodeId)", err)
	}

	_, err = l.AddAllocation("nope", model.IDRef("ac2"), amt(1), "", "")
	var nf *NotFoundError
	if !errors.As(err, &nf) || nf.Index != -1 {
		t.Fatalf("missing budget err = %v, want NotFoundError", err)
	}
}

func TestCorruptedReferencesNeverCollide(t *testing.T) {
	l, _ := newTestLedger(t)
	b, err := l.CreateBudget(NewBudget{SubActivityID: "sub1", Period: "2026-Murni"})
	if err != nil {
		t.Fatalf("CreateBudget: %v", err)
	}
	for i := 0; i < 2; i++ {
		b, err = l.AddAllocation(b.ID, model.IDRef(model.CorruptedPlaceholder), amt(100), "semen dll", "")
		if err != nil {
			t.Fatalf("AddAllocation corrupted #%d: %v", i, err)
		}
	}
	if len(b.Allocations) != 2 {
		t.Fatalf("allocations = %d, want 2", len(b.Allocations))
	}
}

func TestEditAllocation(t *testing.T) {
	l, _ := newTestLedger(t)
	b, err := l.CreateBudget(NewBudget{
		SubActivityID: "sub1",
		Period:        "2026-Murni",
		Allocations: []model.Allocation{
			{AccountCode: model.IDRef("ac1"), Amount: decimal.NewFromInt(100)},
			{AccountCode: model.IDRef("ac2"), Amount: decimal.NewFromInt(200)},
		},
	})
	if err != nil {
		t.Fatalf("CreateBudget: %v", err)
	}

	newAmount := decimal.NewFromInt(150)
	b, err = l.EditAllocation(b.ID, 0, AllocationPatch{Amount: &newAmount})
	if err != nil {
		t.Fatalf("EditAllocation amount: %v", err)
	}
	if !b.TotalAmount.Equal(decimal.NewFromInt(350)) {
		t.Fatalf("TotalAmount = %s, want 350", b.TotalAmount)
	}

	// Re-saving an allocation with its own account is not a duplicate.
	same := model.IDRef("ac1")
	if _, err := l.EditAllocation(b.ID, 0, AllocationPatch{AccountCode: &same}); err != nil {
		t.Fatalf("EditAllocation same account: %v", err)
	}

	taken := model.IDRef("ac2")
	_, err = l.EditAllocation(b.ID, 0, AllocationPatch{AccountCode: &taken})
	var dup *DuplicateAllocationError
	if !errors.As(err, &dup) || dup.ExistingIndex != 1 {
		t.Fatalf("err = %v, want DuplicateAllocationError at 1", err)
	}

	_, err = l.EditAllocation(b.ID, 5, AllocationPatch{Amount: &newAmount})
	var nf *NotFoundError
	if !errors.As(err, &nf) || nf.Index != 5 {
		t.Fatalf("err = %v, want NotFoundError index 5", err)
	}
}

func TestRemoveAllocation(t *testing.T) {
	l, _ := newTestLedger(t)
	b, err := l.CreateBudget(NewBudget{
		SubActivityID: "sub1",
		Period:        "2026-Murni",
		Allocations: []model.Allocation{
			{AccountCode: model.IDRef("ac1"), Amount: decimal.NewFromInt(100)},
			{AccountCode: model.IDRef("ac2"), Amount: decimal.NewFromInt(200)},
		},
	})
	if err != nil {
		t.Fatalf("CreateBudget: %v", err)
	}
	b, err = l.RemoveAllocation(b.ID, 0)
	if err != nil {
		t.Fatalf("RemoveAllocation: %v", err)
	}
	if len(b.Allocations) != 1 || b.Allocations[0].AccountCode.ID != "ac2" {
		t.Fatalf("allocations after remove = %+v", b.Allocations)
	}
	if !b.TotalAmount.Equal(decimal.NewFromInt(200)) {
		t.Fatalf("TotalAmount = %s, want 200", b.TotalAmount)
	}
	if _, err := l.RemoveAllocation(b.ID, -1); err == nil {
		t.Fatal("RemoveAllocation(-1) should fail")
	}
}

func TestUpdateBudget_MoveOntoOccupiedSlot(t *testing.T) {
	l, _ := newTestLedger(t)
	if _, err := l.CreateBudget(NewBudget{SubActivityID: "sub1", Period: "2026-Murni"}); err != nil {
		t.Fatalf("CreateBudget sub1: %v", err)
	}
	b2, err := l.CreateBudget(NewBudget{SubActivityID: "sub2", Period: "2026-Murni"})
	if err != nil {
		t.Fatalf("CreateBudget sub2: %v", err)
	}

	sub := "sub1"
	_, err = l.UpdateBudget(b2.ID, BudgetPatch{SubActivityID: &sub})
	var dup *DuplicateBudgetError
	if !errors.As(err, &dup) {
		t.Fatalf("err = %v, want DuplicateBudgetError", err)
	}

	approved := model.BudgetApproved
	desc := "Pembangunan jalan desa"
	got, err := l.UpdateBudget(b2.ID, BudgetPatch{Status: &approved, Description: &desc})
	if err != nil {
		t.Fatalf("UpdateBudget: %v", err)
	}
	if got.Status != model.BudgetApproved || got.Description != desc {
		t.Fatalf("UpdateBudget result = %+v", got)
	}
}

func TestUpdateBudget_AcceptsFlaggedAllocationsWithoutReference(t *testing.T) {
	l, _ := newTestLedger(t)
	b, err := l.CreateBudget(NewBudget{SubActivityID: "sub1", Period: "2026-Murni"})
	if err != nil {
		t.Fatalf("CreateBudget: %v", err)
	}

	allocs := []model.Allocation{
		{AccountCode: model.IDRef("ac1"), Amount: decimal.NewFromInt(300), Resolution: model.ResolutionRecovered, RecoveredVia: "keyword:semen"},
		{Amount: decimal.NewFromInt(200), Note: "zzzz", Resolution: model.ResolutionManual},
		{Amount: decimal.NewFromInt(100), Note: "qqqq", Resolution: model.ResolutionManual},
	}
	got, err := l.UpdateBudget(b.ID, BudgetPatch{Allocations: &allocs})
	if err != nil {
		t.Fatalf("UpdateBudget with flagged allocations: %v", err)
	}
	if len(got.Allocations) != 3 || !got.TotalAmount.Equal(decimal.NewFromInt(600)) {
		t.Fatalf("after update: %d allocations, total %s", len(got.Allocations), got.TotalAmount)
	}
	if n, amount := got.FlaggedAllocations(); n != 2 || !amount.Equal(decimal.NewFromInt(300)) {
		t.Fatalf("flagged = %d (%s), want 2 (300)", n, amount)
	}

	if _, err := l.CreateBudget(NewBudget{SubActivityID: "sub2", Period: "2026-Murni", Allocations: allocs}); err != nil {
		t.Fatalf("CreateBudget with flagged allocations: %v", err)
	}

	unflagged := []model.Allocation{{Amount: decimal.NewFromInt(10)}}
	_, err = l.UpdateBudget(b.ID, BudgetPatch{Allocations: &unflagged})
	var ve *ValidationError
	if !errors.As(err, &ve) || ve.Field != "accountCodeId" {
		t.Fatalf("unflagged empty reference err = %v, want ValidationError(accountCodeId)", err)
	}
}

func TestDeleteBudget(t *testing.T) {
	l, repo := newTestLedger(t)
	b, err := l.CreateBudget(NewBudget{SubActivityID: "sub1", Period: "2026-Murni"})
	if err != nil {
		t.Fatalf("CreateBudget: %v", err)
	}

	err = l.DeleteBudget(b.ID, 2)
	var inUse *InUseError
	if !errors.As(err, &inUse) || inUse.References != 2 {
		t.Fatalf("err = %v, want InUseError(2)", err)
	}

	if err := l.DeleteBudget(b.ID, 0); err != nil {
		t.Fatalf("DeleteBudget: %v", err)
	}
	if _, ok, _ := repo.Get(b.ID); ok {
		t.Fatal("budget still present after delete")
	}

	err = l.DeleteBudget(b.ID, 0)
	var nf *NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("second delete err = %v, want NotFoundError", err)
	}

	// The slot is free again.
	if _, err := l.CreateBudget(NewBudget{SubActivityID: "sub1", Period: "2026-Murni"}); err != nil {
		t.Fatalf("CreateBudget after delete: %v", err)
	}
}

// Random add/edit/remove sequences must keep the total equal to the sum of
// allocations and never hold two allocations on one account.
func TestRandomOperationsKeepInvariants(t *testing.T) {
	l, repo := newTestLedger(t)
	rng := rand.New(rand.NewSource(42))
	accounts := []string{"ac1", "ac2", "ac3", "x1", "x2"}

	b, err := l.CreateBudget(NewBudget{SubActivityID: "sub1", Period: "2026-Murni"})
	if err != nil {
		t.Fatalf("CreateBudget: %v", err)
	}

	for step := 0; step < 500; step++ {
		switch rng.Intn(3) {
		case 0:
			acct := accounts[rng.Intn(len(accounts))]
			_, _ = l.AddAllocation(b.ID, model.IDRef(acct), amt(rng.Int63n(1_000_000)), "", "")
		case 1:
			cur, _, _ := repo.Get(b.ID)
			if len(cur.Allocations) == 0 {
				continue
			}
			ref := model.IDRef(accounts[rng.Intn(len(accounts))])
			a := decimal.NewFromInt(rng.Int63n(1_000_000))
			_, _ = l.EditAllocation(b.ID, rng.Intn(len(cur.Allocations)), AllocationPatch{AccountCode: &ref, Amount: &a})
		case 2:
			cur, _, _ := repo.Get(b.ID)
			if len(cur.Allocations) == 0 {
				continue
			}
			_, _ = l.RemoveAllocation(b.ID, rng.Intn(len(cur.Allocations)))
		}

		cur, _, _ := repo.Get(b.ID)
		sum := decimal.Zero
		seen := map[string]bool{}
		for _, a := range cur.Allocations {
			sum = sum.Add(a.Amount)
			if seen[a.AccountCode.ID] {
				t.Fatalf("step %d: duplicate account %s", step, a.AccountCode.ID)
			}
			seen[a.AccountCode.ID] = true
		}
		if !cur.TotalAmount.Equal(sum) {
			t.Fatalf("step %d: TotalAmount = %s, sum = %s", step, cur.TotalAmount, sum)
		}
	}
}
