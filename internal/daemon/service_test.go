package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/theirongolddev/anggaran/internal/model"
)

const period = "2026-Murni"

type fakeReader struct {
	budgets      []model.Budget
	realizations []model.Realization
	err          error
}

func (f *fakeReader) Nodes() ([]model.HierarchyNode, error) { return nil, nil }
func (f *fakeReader) Accounts() ([]model.AccountCode, error) {
	return []model.AccountCode{{ID: "ac1", Code: "03", Name: "Bahan Baku - Semen", FullCode: "5.1.2.1.03"}}, nil
}
func (f *fakeReader) Budgets(string) ([]model.Budget, error) { return f.budgets, f.err }
func (f *fakeReader) Realizations(string) ([]model.Realization, error) {
	return f.realizations, nil
}
func (f *fakeReader) Performances(string) ([]model.Performance, error) { return nil, nil }

func budget(id string, amount int64) model.Budget {
	return model.Budget{
		ID: id, SubActivityID: "sub-" + id, Period: period, Status: model.BudgetApproved,
		Allocations: []model.Allocation{{AccountCode: model.IDRef("ac1"), Amount: decimal.NewFromInt(amount)}},
	}
}

func newTestService(r *fakeReader) *Service {
	return New(Config{
		Period:       period,
		Interval:     10 * time.Second,
		EventsBuffer: 10,
		Logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
	}, r)
}

func TestDiffSnapshots(t *testing.T) {
	prev := Snapshot{
		Budgets:          10,
		TotalBudget:      decimal.NewFromInt(1_000_000),
		Flagged:          3,
		Realizations:     4,
		TotalRealization: decimal.RequireFromString("250000.50"),
	}
	curr := Snapshot{
		Budgets:          12,
		TotalBudget:      decimal.NewFromInt(1_250_000),
		Flagged:          1,
		Realizations:     4,
		TotalRealization: decimal.RequireFromString("300000.75"),
		Completed:        2,
	}

	delta := diffSnapshots(prev, curr)
	if delta.Budgets != 2 {
		t.Fatalf("Budgets delta = %d, want 2", delta.Budgets)
	}
	if !delta.TotalBudget.Equal(decimal.NewFromInt(250_000)) {
		t.Fatalf("TotalBudget delta = %s, want 250000", delta.TotalBudget)
	}
	if delta.Flagged != -2 {
		t.Fatalf("Flagged delta = %d, want -2", delta.Flagged)
	}
	if !delta.TotalRealization.Equal(decimal.RequireFromString("50000.25")) {
		t.Fatalf("TotalRealization delta = %s, want 50000.25", delta.TotalRealization)
	}
	if delta.Completed != 2 {
		t.Fatalf("Completed delta = %d, want 2", delta.Completed)
	}
	if delta.isZero() {
		t.Fatal("delta unexpectedly reported as zero")
	}
	if !diffSnapshots(curr, curr).isZero() {
		t.Fatal("identical snapshots produced a non-zero delta")
	}
}

func TestPublishEventRingBuffer(t *testing.T) {
	s := New(Config{
		Period:       period,
		Interval:     10 * time.Second,
		EventsBuffer: 2,
	}, &fakeReader{})

	s.publishEvent(Event{ID: 1})
	s.publishEvent(Event{ID: 2})
	s.publishEvent(Event{ID: 3})

	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.events) != 2 {
		t.Fatalf("events len = %d, want 2", len(s.events))
	}
	if s.events[0].ID != 2 || s.events[1].ID != 3 {
		t.Fatalf("events ring contains IDs [%d, %d], want [2, 3]", s.events[0].ID, s.events[1].ID)
	}
}

func TestPollOnce_PublishesOnlyChanges(t *testing.T) {
	r := &fakeReader{budgets: []model.Budget{budget("b1", 600)}}
	s := newTestService(r)
	ctx := context.Background()

	s.pollOnce(ctx)
	s.pollOnce(ctx)

	s.mu.RLock()
	if len(s.events) != 1 || s.events[0].Type != "snapshot" {
		s.mu.RUnlock()
		t.Fatalf("events after two identical polls = %+v, want one snapshot", s.events)
	}
	s.mu.RUnlock()

	r.budgets = append(r.budgets, budget("b2", 400))
	s.pollOnce(ctx)

	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.events) != 2 {
		t.Fatalf("events = %d, want 2", len(s.events))
	}
	ev := s.events[1]
	if ev.Type != "report_delta" || ev.Delta.Budgets != 1 || !ev.Delta.TotalBudget.Equal(decimal.NewFromInt(400)) {
		t.Fatalf("delta event = %+v", ev)
	}
	if !ev.Snapshot.TotalBudget.Equal(decimal.NewFromInt(1_000)) {
		t.Fatalf("snapshot total = %s, want 1000", ev.Snapshot.TotalBudget)
	}
	if s.pollCount != 3 {
		t.Fatalf("pollCount = %d, want 3", s.pollCount)
	}
}

func TestPollOnce_ReconcilesBeforeConsolidating(t *testing.T) {
	b := budget("b1", 1_000_000)
	b.Allocations = append(b.Allocations, model.Allocation{
		AccountCode: model.IDRef(model.CorruptedPlaceholder), Amount: decimal.NewFromInt(250_000), Note: "zzzz qqqq",
	})
	s := newTestService(&fakeReader{budgets: []model.Budget{b}})
	s.pollOnce(context.Background())

	st := s.snapshotStatus()
	if st.Summary.Flagged != 1 || !st.Summary.FlaggedAmount.Equal(decimal.NewFromInt(250_000)) {
		t.Fatalf("summary = %+v, want the corrupted allocation flagged", st.Summary)
	}
	if !st.Summary.TotalBudget.Equal(decimal.NewFromInt(1_250_000)) {
		t.Fatalf("TotalBudget = %s, want 1250000", st.Summary.TotalBudget)
	}
}

func TestPollOnce_RecordsError(t *testing.T) {
	s := newTestService(&fakeReader{err: errors.New("database is locked")})
	s.pollOnce(context.Background())

	st := s.snapshotStatus()
	if !strings.Contains(st.LastError, "database is locked") {
		t.Fatalf("LastError = %q", st.LastError)
	}
	if st.EventCount != 0 {
		t.Fatalf("EventCount = %d, want 0", st.EventCount)
	}
}

func TestHandler_StatusAndExport(t *testing.T) {
	r := &fakeReader{
		budgets: []model.Budget{budget("b1", 1_000_000)},
		realizations: []model.Realization{{
			ID: "r1", Period: period, BudgetAmount: decimal.NewFromInt(1_000_000), RealizationAmount: decimal.NewFromInt(750_000),
		}},
	}
	s := newTestService(r)
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/v1/export.csv")
	if err != nil {
		t.Fatalf("GET export before poll: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("export before poll = %d, want 503", resp.StatusCode)
	}

	s.pollOnce(context.Background())

	resp, err = http.Get(srv.URL + "/v1/status")
	if err != nil {
		t.Fatalf("GET status: %v", err)
	}
	var st Status
	err = json.NewDecoder(resp.Body).Decode(&st)
	_ = resp.Body.Close()
	if err != nil {
		t.Fatalf("decoding status: %v", err)
	}
	if st.Period != period || st.Summary.Budgets != 1 || st.Summary.RealizationPct != 75 {
		t.Fatalf("status = %+v", st)
	}

	resp, err = http.Get(srv.URL + "/v1/export.csv")
	if err != nil {
		t.Fatalf("GET export: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Fatalf("Content-Type = %q", ct)
	}
	lines := strings.Split(strings.TrimSpace(string(body)), "\n")
	if len(lines) != 7 {
		t.Fatalf("export has %d lines, want header + 6 rows:\n%s", len(lines), body)
	}
	if !strings.HasPrefix(lines[4], "Realisasi,1000000,750000,75.00") {
		t.Fatalf("realization row = %q", lines[4])
	}
}
