package components

import (
	"fmt"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/anggaran/internal/tui/theme"
)

// ColorForPct colors an achievement ratio: low is red, high is green.
func ColorForPct(pct float64) lipgloss.Color {
	t := theme.Active
	switch {
	case pct >= 0.9:
		return t.Green
	case pct >= 0.6:
		return t.Yellow
	case pct >= 0.3:
		return t.Orange
	default:
		return t.Red
	}
}

// GaugeBar renders a labeled bar for a 0-100 percentage such as realization
// or performance achievement. Values outside the range are clamped.
func GaugeBar(label string, pct float64, labelW, barWidth int) string {
	t := theme.Active

	ratio := min(max(pct/100, 0), 1)
	color := ColorForPct(ratio)

	bar := progress.New(
		progress.WithSolidFill(string(color)),
		progress.WithWidth(barWidth),
		progress.WithoutPercentage(),
	)
	bar.EmptyColor = string(t.TextDim)

	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted)
	pctStyle := lipgloss.NewStyle().Foreground(color).Bold(true)

	return labelStyle.Render(fmt.Sprintf("%-*s", labelW, label)) + " " +
		bar.ViewAs(ratio) + " " +
		pctStyle.Render(fmt.Sprintf("%5.1f%%", pct))
}
