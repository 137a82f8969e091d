package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/anggaran/internal/catalog"
	"github.com/theirongolddev/anggaran/internal/cli"
	"github.com/theirongolddev/anggaran/internal/model"
	"github.com/theirongolddev/anggaran/internal/pipeline"
	"github.com/theirongolddev/anggaran/internal/tui/components"
	"github.com/theirongolddev/anggaran/internal/tui/theme"
)

// View implements tea.Model.
func (a App) View() string {
	if a.width == 0 {
		return ""
	}
	if a.width < minTerminalWidth {
		return fmt.Sprintf("\n  Terminal terlalu sempit (%d kolom), minimal %d.\n", a.width, minTerminalWidth)
	}
	if !a.loaded {
		return a.viewLoading()
	}
	if a.showHelp {
		return a.viewHelp()
	}
	return a.viewMain()
}

func (a App) viewLoading() string {
	t := theme.Active

	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderAccent).
		Padding(1, 3)
	logoStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Bold(true)
	mutedStyle := lipgloss.NewStyle().Foreground(t.TextMuted)

	var b strings.Builder
	b.WriteString(logoStyle.Render("◈ anggaran"))
	b.WriteString(mutedStyle.Render(" · " + a.period))
	b.WriteString("\n\n")
	if a.loadErr != nil {
		b.WriteString(lipgloss.NewStyle().Foreground(t.Red).Render("Gagal memuat: " + a.loadErr.Error()))
		b.WriteString("\n\n")
		b.WriteString(mutedStyle.Render("ctrl+r untuk mencoba lagi, q untuk keluar"))
	} else {
		b.WriteString(a.spinner.View())
		b.WriteString(mutedStyle.Render(" Memuat periode..."))
	}

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, cardStyle.Render(b.String()))
}

func (a App) viewHelp() string {
	t := theme.Active
	keyStyle := lipgloss.NewStyle().Foreground(t.Accent).Bold(true).Width(12)
	descStyle := lipgloss.NewStyle().Foreground(t.TextPrimary)

	keys := [][2]string{
		{"r a e", "pindah tab"},
		{"tab", "tab berikutnya"},
		{"j/k", "pilih anggaran"},
		{"enter", "tampilkan alokasi"},
		{"/", "cari rekening"},
		{"ctrl+r", "muat ulang"},
		{"q", "keluar"},
	}
	var b strings.Builder
	for _, k := range keys {
		b.WriteString(keyStyle.Render(k[0]) + descStyle.Render(k[1]) + "\n")
	}
	card := components.ContentCard("Bantuan", strings.TrimRight(b.String(), "\n"), 44)
	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, card)
}

func (a App) viewMain() string {
	cw := a.contentWidth()

	var body string
	switch a.activeTab {
	case tabSummary:
		body = a.viewSummary(cw)
	case tabBudgets:
		body = a.viewBudgets(cw)
	case tabAccounts:
		body = a.viewAccounts(cw)
	}

	info := a.period
	if a.loadTime > 0 {
		info += fmt.Sprintf(" · %s", a.loadTime.Round(time.Millisecond))
	}
	if a.loading {
		info = a.spinner.View() + " " + info
	}
	if a.loadErr != nil {
		info = "gagal memuat ulang: " + a.loadErr.Error()
	}

	bodyHeight := max(a.height-chromeHeight, 1)
	body = lipgloss.NewStyle().Height(bodyHeight).MaxHeight(bodyHeight).Render(body)

	return components.RenderTabBar(a.activeTab, cw) + "\n\n" +
		body + "\n" +
		components.RenderStatusBar(cw, "[?]bantuan  [q]keluar", info)
}

func (a App) viewSummary(cw int) string {
	bs, rs, ps := a.report.BudgetSummary, a.report.RealizationSummary, a.report.PerformanceSummary

	metrics := []components.Metric{
		{Label: "Total Anggaran", Value: cli.FormatAmount(bs.TotalBudget), Note: fmt.Sprintf("%d anggaran", bs.Count)},
		{Label: "Disetujui", Value: cli.FormatAmount(bs.ApprovedBudget), Note: cli.FormatPercent(pipeline.Percentage(bs.ApprovedBudget, bs.TotalBudget))},
		{Label: "Draft", Value: cli.FormatAmount(bs.DraftBudget), Note: cli.FormatPercent(pipeline.Percentage(bs.DraftBudget, bs.TotalBudget))},
		{Label: "Perlu Dipilih", Value: fmt.Sprintf("%d", bs.Flagged), Note: cli.FormatAmount(bs.FlaggedAmount)},
	}

	labelW := 12
	barW := max(components.CardInnerWidth(cw)-labelW-9, 10)
	gauges := strings.Join([]string{
		components.GaugeBar("Realisasi", rs.AvgPercentage, labelW, barW),
		components.GaugeBar("Kinerja", ps.AvgPercentage, labelW, barW),
		components.GaugeBar("Selesai", float64(ps.Completed)/float64(max(ps.Count, 1))*100, labelW, barW),
	}, "\n")

	muted := lipgloss.NewStyle().Foreground(theme.Active.TextMuted)
	facts := muted.Render(fmt.Sprintf(
		"Realisasi %s dari %s  ·  Kinerja %d kegiatan, %d berjalan",
		a.money.Format(rs.TotalRealization), a.money.Format(rs.TotalBudget), ps.Count, ps.InProgress,
	))

	return components.MetricCardRow(metrics, cw) + "\n" +
		components.ContentCard("Capaian", gauges+"\n\n"+facts, cw)
}

func (a App) viewBudgets(cw int) string {
	if len(a.details) == 0 {
		return lipgloss.NewStyle().Foreground(theme.Active.TextMuted).
			Render("  Tidak ada anggaran untuk periode " + a.period)
	}
	out := a.budgetTable.View()
	if a.showAllocs {
		if b, ok := a.selectedBudget(); ok {
			out += "\n" + components.ContentCard("Alokasi", a.renderAllocations(b, a.allocPaneHeight()-3), cw)
		}
	}
	return out
}

// renderAllocations lists at most limit allocations of b with the account
// name when the reference resolves.
func (a App) renderAllocations(b model.Budget, limit int) string {
	t := theme.Active
	okStyle := lipgloss.NewStyle().Foreground(t.Green)
	warnStyle := lipgloss.NewStyle().Foreground(t.Orange)
	muted := lipgloss.NewStyle().Foreground(t.TextMuted)

	if len(b.Allocations) == 0 {
		return muted.Render("belum ada alokasi")
	}

	var lines []string
	for i, al := range b.Allocations {
		if i == limit {
			lines = append(lines, muted.Render(fmt.Sprintf("… %d lainnya", len(b.Allocations)-limit)))
			break
		}
		label := al.AccountCode.String()
		if id, found := catalog.NormalizeRef(a.snap.Catalog, al.AccountCode); found {
			if ac, ok := a.snap.Catalog.FindByID(id); ok {
				label = ac.DisplayCode() + "  " + ac.Name
			}
		}
		mark := okStyle.Render("✓")
		if al.Resolution.Flagged() {
			mark = warnStyle.Render("!")
		}
		lines = append(lines, fmt.Sprintf("%s %-50s %16s  %s", mark, truncate(label, 50), a.money.Format(al.Amount), muted.Render(al.Note)))
	}
	return strings.Join(lines, "\n")
}

func (a App) viewAccounts(cw int) string {
	t := theme.Active
	muted := lipgloss.NewStyle().Foreground(t.TextMuted)
	code := lipgloss.NewStyle().Foreground(t.Accent).Width(18)

	var b strings.Builder
	b.WriteString(a.search.View())
	b.WriteString("\n\n")
	if len(a.matches) == 0 {
		b.WriteString(muted.Render("tidak ada rekening yang cocok"))
	}
	for _, ac := range a.matches {
		b.WriteString(code.Render(ac.DisplayCode()))
		b.WriteString(truncate(ac.Name, cw-24))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(muted.Render(fmt.Sprintf("%d rekening", len(a.snap.Catalog.All()))))
	return components.ContentCard("Kode Rekening", b.String(), cw)
}

func truncate(s string, limit int) string {
	if limit <= 1 || lipgloss.Width(s) <= limit {
		return s
	}
	r := []rune(s)
	if len(r) > limit-1 {
		r = r[:limit-1]
	}
	return string(r) + "…"
}
