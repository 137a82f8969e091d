// Package daemon provides the long-running report service that
// re-consolidates one period on an interval and serves it over HTTP.
package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/theirongolddev/anggaran/internal/cli"
	"github.com/theirongolddev/anggaran/internal/model"
	"github.com/theirongolddev/anggaran/internal/pipeline"
	"github.com/theirongolddev/anggaran/internal/reconcile"
)

// Config controls the daemon runtime behavior.
type Config struct {
	Period       string
	Interval     time.Duration
	Addr         string
	EventsBuffer int
	Logger       *slog.Logger
	// Rules drive the in-memory reconcile before each consolidation; nil
	// uses the built-in table.
	Rules []reconcile.Rule
}

// Snapshot is a compact report state for status/event payloads.
type Snapshot struct {
	At               time.Time       `json:"at"`
	Period           string          `json:"period"`
	Budgets          int             `json:"budgets"`
	TotalBudget      decimal.Decimal `json:"total_budget"`
	ApprovedBudget   decimal.Decimal `json:"approved_budget"`
	DraftBudget      decimal.Decimal `json:"draft_budget"`
	Flagged          int             `json:"flagged"`
	FlaggedAmount    decimal.Decimal `json:"flagged_amount"`
	Realizations     int             `json:"realizations"`
	TotalRealization decimal.Decimal `json:"total_realization"`
	RealizationPct   float64         `json:"realization_pct"`
	Performances     int             `json:"performances"`
	Completed        int             `json:"completed"`
}

// Delta captures snapshot deltas between polls.
type Delta struct {
	Budgets          int             `json:"budgets"`
	TotalBudget      decimal.Decimal `json:"total_budget"`
	Flagged          int             `json:"flagged"`
	Realizations     int             `json:"realizations"`
	TotalRealization decimal.Decimal `json:"total_realization"`
	Completed        int             `json:"completed"`
}

func (d Delta) isZero() bool {
	return d.Budgets == 0 &&
		d.TotalBudget.IsZero() &&
		d.Flagged == 0 &&
		d.Realizations == 0 &&
		d.TotalRealization.IsZero() &&
		d.Completed == 0
}

// Event is emitted whenever the report snapshot changes.
type Event struct {
	ID        int64     `json:"id"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Snapshot  Snapshot  `json:"snapshot"`
	Delta     Delta     `json:"delta"`
}

// Status is served at /v1/status.
type Status struct {
	StartedAt       time.Time `json:"started_at"`
	LastPollAt      time.Time `json:"last_poll_at"`
	PollIntervalSec int       `json:"poll_interval_sec"`
	PollCount       int64     `json:"poll_count"`
	Period          string    `json:"period"`
	Summary         Snapshot  `json:"summary"`
	LastError       string    `json:"last_error,omitempty"`
	EventCount      int       `json:"event_count"`
	SubscriberCount int       `json:"subscriber_count"`
}

// Service provides the daemon runtime and HTTP API.
type Service struct {
	cfg    Config
	reader pipeline.Reader
	log    *slog.Logger

	mu           sync.RWMutex
	startedAt    time.Time
	lastPollAt   time.Time
	pollCount    int64
	lastError    string
	hasSnapshot  bool
	snapshot     Snapshot
	consolidated model.Consolidated
	nextEventID  int64
	events       []Event

	nextSubID int
	subs      map[int]chan Event
}

// New returns a new daemon service reading from r.
func New(cfg Config, r pipeline.Reader) *Service {
	if cfg.Interval < 2*time.Second {
		cfg.Interval = 15 * time.Second
	}
	if cfg.EventsBuffer < 1 {
		cfg.EventsBuffer = 200
	}
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:8790"
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Service{
		cfg:       cfg,
		reader:    r,
		log:       logger.With("component", "daemon", "period", cfg.Period),
		startedAt: time.Now(),
		subs:      make(map[int]chan Event),
	}
}

// Handler returns the HTTP API.
func (s *Service) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /v1/status", s.handleStatus)
	mux.HandleFunc("GET /v1/events", s.handleEvents)
	mux.HandleFunc("GET /v1/stream", s.handleStream)
	mux.HandleFunc("GET /v1/export.csv", s.handleExport)
	return mux
}

// Run starts HTTP endpoints and polling until ctx is canceled.
func (s *Service) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	s.log.Info("listening", "addr", s.cfg.Addr, "interval", s.cfg.Interval)

	// Seed initial snapshot so status is useful immediately.
	s.pollOnce(ctx)

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		case <-ticker.C:
			s.pollOnce(ctx)
		case err := <-errCh:
			return fmt.Errorf("daemon http server: %w", err)
		}
	}
}

func (s *Service) pollOnce(ctx context.Context) {
	start := time.Now()
	snapshot, err := pipeline.LoadReconciled(ctx, s.reader, s.cfg.Period, s.cfg.Rules, nil)
	if err != nil {
		s.mu.Lock()
		s.lastError = err.Error()
		s.lastPollAt = time.Now()
		s.pollCount++
		s.mu.Unlock()
		s.log.Error("poll failed", "err", err)
		return
	}

	c := snapshot.Consolidated()
	s.apply(c, time.Now())
	s.log.Debug("polled", "budgets", c.BudgetSummary.Count, "took", time.Since(start))
}

// apply records a new consolidated report and publishes an event when it
// differs from the previous one.
func (s *Service) apply(c model.Consolidated, now time.Time) {
	snap := snapshotFromReport(c, now)

	var (
		ev      Event
		publish bool
	)

	s.mu.Lock()
	prev := s.snapshot
	prevExists := s.hasSnapshot

	s.hasSnapshot = true
	s.snapshot = snap
	s.consolidated = c
	s.lastPollAt = now
	s.pollCount++
	s.lastError = ""

	if !prevExists {
		s.nextEventID++
		ev = Event{
			ID:        s.nextEventID,
			Type:      "snapshot",
			Timestamp: now,
			Snapshot:  snap,
		}
		publish = true
	} else {
		delta := diffSnapshots(prev, snap)
		if !delta.isZero() {
			s.nextEventID++
			ev = Event{
				ID:        s.nextEventID,
				Type:      "report_delta",
				Timestamp: now,
				Snapshot:  snap,
				Delta:     delta,
			}
			publish = true
		}
	}
	s.mu.Unlock()

	if publish {
		s.publishEvent(ev)
	}
}

func snapshotFromReport(c model.Consolidated, at time.Time) Snapshot {
	b, r, p := c.BudgetSummary, c.RealizationSummary, c.PerformanceSummary
	return Snapshot{
		At:               at,
		Period:           c.Period,
		Budgets:          b.Count,
		TotalBudget:      b.TotalBudget,
		ApprovedBudget:   b.ApprovedBudget,
		DraftBudget:      b.DraftBudget,
		Flagged:          b.Flagged,
		FlaggedAmount:    b.FlaggedAmount,
		Realizations:     r.Count,
		TotalRealization: r.TotalRealization,
		RealizationPct:   pipeline.Percentage(r.TotalRealization, r.TotalBudget),
		Performances:     p.Count,
		Completed:        p.Completed,
	}
}

func diffSnapshots(prev, curr Snapshot) Delta {
	return Delta{
		Budgets:          curr.Budgets - prev.Budgets,
		TotalBudget:      curr.TotalBudget.Sub(prev.TotalBudget),
		Flagged:          curr.Flagged - prev.Flagged,
		Realizations:     curr.Realizations - prev.Realizations,
		TotalRealization: curr.TotalRealization.Sub(prev.TotalRealization),
		Completed:        curr.Completed - prev.Completed,
	}
}

func (s *Service) publishEvent(ev Event) {
	s.mu.Lock()
	s.events = append(s.events, ev)
	if len(s.events) > s.cfg.EventsBuffer {
		s.events = s.events[len(s.events)-s.cfg.EventsBuffer:]
	}

	for _, ch := range s.subs {
		select {
		case ch <- ev:
		default:
		}
	}
	s.mu.Unlock()
}

func (s *Service) snapshotStatus() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return Status{
		StartedAt:       s.startedAt,
		LastPollAt:      s.lastPollAt,
		PollIntervalSec: int(s.cfg.Interval.Seconds()),
		PollCount:       s.pollCount,
		Period:          s.cfg.Period,
		Summary:         s.snapshot,
		LastError:       s.lastError,
		EventCount:      len(s.events),
		SubscriberCount: len(s.subs),
	}
}

func (s *Service) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}

func (s *Service) handleStatus(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(s.snapshotStatus())
}

func (s *Service) handleEvents(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	events := make([]Event, len(s.events))
	copy(events, s.events)
	s.mu.RUnlock()

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(events)
}

func (s *Service) handleExport(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	ready := s.hasSnapshot
	c := s.consolidated
	s.mu.RUnlock()

	if !ready {
		http.Error(w, "report not ready", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "laporan-"+c.Period+".csv"))
	if err := cli.WriteCSV(w, pipeline.ToExportRows(c)); err != nil {
		s.log.Warn("export failed", "err", err)
	}
}

func (s *Service) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := make(chan Event, 16)
	id := s.addSubscriber(ch)
	defer s.removeSubscriber(id)

	// Send current snapshot immediately.
	current := Event{
		Type:      "snapshot",
		Timestamp: time.Now(),
		Snapshot:  s.snapshotStatus().Summary,
	}
	writeSSE(w, current)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev := <-ch:
			writeSSE(w, ev)
			flusher.Flush()
		}
	}
}

func writeSSE(w http.ResponseWriter, ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}
	_, _ = fmt.Fprintf(w, "event: %s\n", ev.Type)
	_, _ = fmt.Fprintf(w, "data: %s\n\n", data)
}

func (s *Service) addSubscriber(ch chan Event) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextSubID++
	id := s.nextSubID
	s.subs[id] = ch
	return id
}

func (s *Service) removeSubscriber(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.subs, id)
}
