// Package tui provides the interactive Bubble Tea browser for one budget
// period.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/anggaran/internal/catalog"
	"github.com/theirongolddev/anggaran/internal/cli"
	"github.com/theirongolddev/anggaran/internal/model"
	"github.com/theirongolddev/anggaran/internal/pipeline"
	"github.com/theirongolddev/anggaran/internal/reconcile"
	"github.com/theirongolddev/anggaran/internal/tui/components"
	"github.com/theirongolddev/anggaran/internal/tui/theme"
)

const (
	tabSummary = iota
	tabBudgets
	tabAccounts
)

const (
	minTerminalWidth = 80
	maxContentWidth  = 160
	accountMatches   = 15

	// header (tab bar + gap) and status bar
	chromeHeight = 4
)

// SnapshotLoadedMsg is sent when a period snapshot finishes loading.
type SnapshotLoadedMsg struct {
	Snapshot *pipeline.Snapshot
	Err      error
	LoadTime time.Duration
}

// App is the root Bubble Tea model.
type App struct {
	reader pipeline.Reader
	period string
	money  cli.MoneyFormat
	rules  []reconcile.Rule

	// Data
	snap     *pipeline.Snapshot
	report   model.Consolidated
	details  []model.BudgetDetail
	budgets  map[string]model.Budget
	loaded   bool
	loading  bool
	loadErr  error
	loadTime time.Duration

	// UI state
	width       int
	height      int
	activeTab   int
	showHelp    bool
	showAllocs  bool
	spinner     spinner.Model
	budgetTable table.Model

	search    textinput.Model
	searching bool
	matches   []model.AccountCode
}

// NewApp creates a browser for period backed by r. Budgets are reconciled
// in memory with rules on every load.
func NewApp(r pipeline.Reader, period string, money cli.MoneyFormat, rules []reconcile.Rule) App {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Active.Accent)

	ti := textinput.New()
	ti.Placeholder = "cari nama atau kode rekening"
	ti.CharLimit = 80
	ti.Prompt = "/ "

	return App{
		reader:      r,
		period:      period,
		money:       money,
		rules:       rules,
		loading:     true,
		spinner:     sp,
		search:      ti,
		budgetTable: newBudgetTable(),
	}
}

func newBudgetTable() table.Model {
	t := theme.Active
	tbl := table.New(
		table.WithColumns(budgetColumns(minTerminalWidth)),
		table.WithFocused(true),
	)
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(t.Border).
		BorderBottom(true).
		Foreground(t.Accent).
		Bold(true)
	styles.Selected = styles.Selected.
		Foreground(t.TextPrimary).
		Background(t.SurfaceHover).
		Bold(false)
	tbl.SetStyles(styles)
	return tbl
}

// budgetColumns sizes the detail columns to width; the name column takes
// whatever the fixed columns leave.
func budgetColumns(width int) []table.Column {
	fixed := []int{22, 9, 16, 8, 8}
	name := width - 2*6
	for _, w := range fixed {
		name -= w
	}
	return []table.Column{
		{Title: "Kode", Width: fixed[0]},
		{Title: "Sub Kegiatan", Width: max(name, 12)},
		{Title: "Status", Width: fixed[1]},
		{Title: "Total", Width: fixed[2]},
		{Title: "Alokasi", Width: fixed[3]},
		{Title: "Dipilih", Width: fixed[4]},
	}
}

// Init implements tea.Model.
func (a App) Init() tea.Cmd {
	return tea.Batch(
		tea.EnableMouseCellMotion,
		loadSnapshotCmd(a.reader, a.period, a.rules),
		a.spinner.Tick,
	)
}

// loadSnapshotCmd loads the period off the UI goroutine.
func loadSnapshotCmd(r pipeline.Reader, period string, rules []reconcile.Rule) tea.Cmd {
	return func() tea.Msg {
		start := time.Now()
		snap, err := pipeline.LoadReconciled(context.Background(), r, period, rules, nil)
		return SnapshotLoadedMsg{Snapshot: snap, Err: err, LoadTime: time.Since(start)}
	}
}

func (a *App) applySnapshot(snap *pipeline.Snapshot) {
	a.snap = snap
	a.report = snap.Consolidated()
	a.details = snap.Details()
	a.budgets = make(map[string]model.Budget, len(snap.Budgets))
	for _, b := range snap.Budgets {
		a.budgets[b.ID] = b
	}

	rows := make([]table.Row, len(a.details))
	for i, d := range a.details {
		code := d.FullCode
		if code == "" {
			code = "-"
		}
		flagged := ""
		if d.Flagged > 0 {
			flagged = fmt.Sprintf("%d", d.Flagged)
		}
		rows[i] = table.Row{
			code,
			d.SubActivityName,
			string(d.Status),
			a.money.Format(d.Total),
			fmt.Sprintf("%d", d.Allocations),
			flagged,
		}
	}
	a.budgetTable.SetRows(rows)
	if a.budgetTable.Cursor() >= len(rows) {
		a.budgetTable.SetCursor(max(len(rows)-1, 0))
	}
	a.refreshMatches()
}

func (a *App) refreshMatches() {
	if a.snap == nil {
		a.matches = nil
		return
	}
	q := strings.TrimSpace(a.search.Value())
	if q == "" {
		all := a.snap.Catalog.All()
		a.matches = all[:min(len(all), accountMatches)]
		return
	}
	a.matches = catalog.Suggest(a.snap.Catalog, q, accountMatches)
}

func (a *App) resize(width, height int) {
	a.width = width
	a.height = height
	cw := a.contentWidth()
	a.budgetTable.SetColumns(budgetColumns(cw))
	a.budgetTable.SetWidth(cw)
	a.budgetTable.SetHeight(max(a.height-chromeHeight-a.allocPaneHeight(), 5))
	a.search.Width = min(cw-4, 60)
}

func (a App) allocPaneHeight() int {
	if !a.showAllocs {
		return 0
	}
	return 10
}

// Update implements tea.Model.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.resize(msg.Width, msg.Height)
		return a, nil

	case SnapshotLoadedMsg:
		a.loading = false
		a.loadTime = msg.LoadTime
		a.loadErr = msg.Err
		if msg.Err == nil {
			a.loaded = true
			a.applySnapshot(msg.Snapshot)
		}
		return a, nil

	case spinner.TickMsg:
		if a.loading {
			var cmd tea.Cmd
			a.spinner, cmd = a.spinner.Update(msg)
			return a, cmd
		}
		return a, nil

	case tea.MouseMsg:
		if !a.loaded || a.showHelp {
			return a, nil
		}
		if msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft && msg.Y == 0 {
			if tab := a.tabAtX(msg.X); tab >= 0 {
				a.activeTab = tab
			}
			return a, nil
		}
		if a.activeTab == tabBudgets {
			var cmd tea.Cmd
			a.budgetTable, cmd = a.budgetTable.Update(msg)
			return a, cmd
		}
		return a, nil

	case tea.KeyMsg:
		return a.updateKey(msg)
	}

	if a.searching {
		var cmd tea.Cmd
		a.search, cmd = a.search.Update(msg)
		return a, cmd
	}
	return a, nil
}

func (a App) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	if key == "ctrl+c" {
		return a, tea.Quit
	}

	// Account search intercepts all keys while focused
	if a.searching {
		switch key {
		case "esc", "enter":
			a.searching = false
			a.search.Blur()
			return a, nil
		}
		var cmd tea.Cmd
		a.search, cmd = a.search.Update(msg)
		a.refreshMatches()
		return a, cmd
	}

	if key == "?" {
		a.showHelp = !a.showHelp
		return a, nil
	}
	if a.showHelp {
		a.showHelp = false
		return a, nil
	}

	switch key {
	case "q":
		return a, tea.Quit
	case "ctrl+r":
		if a.loading {
			return a, nil
		}
		a.loading = true
		return a, tea.Batch(loadSnapshotCmd(a.reader, a.period, a.rules), a.spinner.Tick)
	case "tab":
		a.activeTab = (a.activeTab + 1) % len(components.Tabs)
		return a, nil
	case "shift+tab":
		a.activeTab = (a.activeTab + len(components.Tabs) - 1) % len(components.Tabs)
		return a, nil
	}

	if len(msg.Runes) == 1 {
		if idx := components.TabIdxByKey(msg.Runes[0]); idx >= 0 {
			a.activeTab = idx
			return a, nil
		}
	}

	switch a.activeTab {
	case tabBudgets:
		if key == "enter" {
			a.showAllocs = !a.showAllocs
			a.resize(a.width, a.height)
			return a, nil
		}
		var cmd tea.Cmd
		a.budgetTable, cmd = a.budgetTable.Update(msg)
		return a, cmd
	case tabAccounts:
		if key == "/" {
			a.searching = true
			a.search.Focus()
			return a, textinput.Blink
		}
	}
	return a, nil
}

// tabAtX returns the tab index at the given X coordinate, or -1 if none.
// Hitboxes use the same widths as RenderTabBar.
func (a App) tabAtX(x int) int {
	pos := 0
	for i, tab := range components.Tabs {
		tabW := components.TabVisualWidth(tab, i == a.activeTab)
		if x >= pos && x < pos+tabW {
			return i
		}
		pos += tabW + 1
	}
	return -1
}

func (a App) contentWidth() int {
	return min(a.width, maxContentWidth)
}

// selectedBudget returns the budget under the table cursor.
func (a App) selectedBudget() (model.Budget, bool) {
	i := a.budgetTable.Cursor()
	if i < 0 || i >= len(a.details) {
		return model.Budget{}, false
	}
	b, ok := a.budgets[a.details[i].BudgetID]
	return b, ok
}
