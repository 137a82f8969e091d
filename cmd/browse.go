package cmd

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"

	"github.com/theirongolddev/anggaran/internal/config"
	"github.com/theirongolddev/anggaran/internal/tui"
	"github.com/theirongolddev/anggaran/internal/tui/theme"
)

var browseCmd = &cobra.Command{
	Use:     "browse",
	Aliases: []string{"tui"},
	Short:   "Browse the period interactively",
	RunE:    runBrowse,
}

func init() {
	rootCmd.AddCommand(browseCmd)
}

func runBrowse(_ *cobra.Command, _ []string) error {
	e, err := openEnv()
	if err != nil {
		return err
	}
	defer func() { _ = e.Close() }()

	theme.SetActive(e.cfg.Appearance.Theme)

	// Force TrueColor so styled table rows render even when lipgloss
	// would otherwise detect no color support.
	if theme.Active.Name != theme.Terminal.Name {
		lipgloss.SetColorProfile(termenv.TrueColor)
	}

	app := tui.NewApp(e.store, e.period, e.money, config.Rules(e.cfg))
	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithMouseCellMotion())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
