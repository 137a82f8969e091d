// Package cmd implements the anggaran CLI commands.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/anggaran/internal/catalog"
	"github.com/theirongolddev/anggaran/internal/cli"
	"github.com/theirongolddev/anggaran/internal/config"
	"github.com/theirongolddev/anggaran/internal/ledger"
	"github.com/theirongolddev/anggaran/internal/pipeline"
	"github.com/theirongolddev/anggaran/internal/store"
)

var (
	flagDB     string
	flagPeriod string
	flagConfig string
	flagQuiet  bool
)

var rootCmd = &cobra.Command{
	Use:           "anggaran",
	Short:         "Regional budget planning CLI",
	Long:          "Plan, reconcile and report regional government budgets per sub-activity and period.",
	RunE:          runSummary,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute is the main entry point called from main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "  %s %v\n", cli.Err("error:"), err)
		if hint := remediation(err); hint != "" {
			fmt.Fprintf(os.Stderr, "  %s\n", cli.Muted(hint))
		}
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagDB, "db", "", "Document database path (default from config or $ANGGARAN_DB)")
	rootCmd.PersistentFlags().StringVarP(&flagPeriod, "period", "P", "", `Budget period, e.g. "2026" or "2026-Perubahan" (default from config)`)
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Config file path")
	rootCmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "Suppress progress output")
}

// env is the shared state most commands need.
type env struct {
	cfg    config.Config
	period string
	store  *store.Store
	money  cli.MoneyFormat
}

func (e *env) Close() error {
	if e.store == nil {
		return nil
	}
	return e.store.Close()
}

func loadConfig() (config.Config, error) {
	if flagConfig != "" {
		return config.LoadFrom(flagConfig)
	}
	return config.Load()
}

func configPath() string {
	if flagConfig != "" {
		return flagConfig
	}
	return config.ConfigPath()
}

// resolvePeriod applies --period over the configured period. A bare year
// takes the configured status.
func resolvePeriod(cfg config.Config) string {
	if flagPeriod == "" {
		return config.Period(cfg)
	}
	return periodArg(cfg, flagPeriod)
}

func periodArg(cfg config.Config, v string) string {
	if strings.Contains(v, "-") {
		return config.NormalizePeriod(v, "")
	}
	return config.NormalizePeriod(v, cfg.General.PeriodStatus)
}

// openEnv loads the config and opens the document store.
func openEnv() (*env, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	path := flagDB
	if path == "" {
		path = config.DBPath(cfg)
	}
	st, err := store.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening database %s: %w", path, err)
	}

	return &env{
		cfg:    cfg,
		period: resolvePeriod(cfg),
		store:  st,
		money:  cli.MoneyFormat{Code: cfg.Currency.Code, Symbol: cfg.Currency.ShowSymbol},
	}, nil
}

// snapshot loads the working period and reconciles it in memory for
// reporting. Nothing is written back.
func (e *env) snapshot(ctx context.Context) (*pipeline.Snapshot, error) {
	start := time.Now()
	snap, err := pipeline.LoadReconciled(ctx, e.store, e.period, config.Rules(e.cfg), e.wrapCatalog)
	if err != nil {
		return nil, err
	}
	e.loaded(snap, start)
	return snap, nil
}

// rawSnapshot loads the period as stored, without the in-memory reconcile.
func (e *env) rawSnapshot(ctx context.Context) (*pipeline.Snapshot, error) {
	start := time.Now()
	snap, err := pipeline.Load(ctx, e.store, e.period)
	if err != nil {
		return nil, err
	}
	e.loaded(snap, start)
	return snap, nil
}

func (e *env) loaded(snap *pipeline.Snapshot, start time.Time) {
	progress("  Loaded %s: %d budgets, %d account codes (%s)\n",
		e.period, len(snap.Budgets), snap.Catalog.Len(), time.Since(start).Round(time.Millisecond))
}

// lookup wraps the snapshot catalog in the configured LRU cache.
func (e *env) lookup(snap *pipeline.Snapshot) (catalog.Lookup, error) {
	return e.wrapCatalog(snap.Catalog)
}

func (e *env) wrapCatalog(c *catalog.Catalog) (catalog.Lookup, error) {
	if e.cfg.Catalog.CacheSize <= 0 {
		return c, nil
	}
	return catalog.NewCached(c, e.cfg.Catalog.CacheSize)
}

// openLedger builds a ledger over the store, normalizing against the
// current catalog.
func (e *env) openLedger() (*ledger.Ledger, error) {
	accounts, err := e.store.Accounts()
	if err != nil {
		return nil, fmt.Errorf("loading account codes: %w", err)
	}
	return ledger.New(e.store.BudgetRepository(), catalog.New(accounts)), nil
}

// logger returns a text logger on stderr; --quiet raises the level to warn.
func logger() *slog.Logger {
	level := slog.LevelInfo
	if flagQuiet {
		level = slog.LevelWarn
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// progress prints to stderr unless --quiet.
func progress(format string, args ...any) {
	if flagQuiet {
		return
	}
	fmt.Fprintf(os.Stderr, format, args...)
}

// remediation suggests the next step for ledger conflicts.
func remediation(err error) string {
	var dupBudget *ledger.DuplicateBudgetError
	var dupAlloc *ledger.DuplicateAllocationError
	var inUse *ledger.InUseError
	var notFound *ledger.NotFoundError

	switch {
	case errors.As(err, &dupBudget):
		return fmt.Sprintf("Edit the existing budget instead: anggaran budget update %s", dupBudget.ExistingID)
	case errors.As(err, &dupAlloc):
		return fmt.Sprintf("Edit allocation #%d instead: anggaran alloc edit %s %d --amount ...",
			dupAlloc.ExistingIndex, dupAlloc.BudgetID, dupAlloc.ExistingIndex)
	case errors.As(err, &inUse):
		return fmt.Sprintf("Remove the %d performance record(s) of this budget first.", inUse.References)
	case errors.As(err, &notFound):
		if notFound.Index >= 0 {
			return fmt.Sprintf("List allocations with: anggaran budgets --show %s", notFound.BudgetID)
		}
		return "List budgets with: anggaran budgets"
	}
	return ""
}

func writeOrStdout(path string, fn func(io.Writer) error) (err error) {
	if path == "" || path == "-" {
		return fn(os.Stdout)
	}
	f, err := os.Create(path) //nolint:gosec // output path is chosen by the local user
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return fn(f)
}
