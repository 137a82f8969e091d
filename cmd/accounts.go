package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/anggaran/internal/catalog"
	"github.com/theirongolddev/anggaran/internal/cli"
	"github.com/theirongolddev/anggaran/internal/hierarchy"
	"github.com/theirongolddev/anggaran/internal/model"
)

var flagAccountsLimit int

var accountsCmd = &cobra.Command{
	Use:   "accounts <text>",
	Short: "Search the chart of accounts by name or code",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runAccounts,
}

var codeCmd = &cobra.Command{
	Use:   "code <sub-activity-id>",
	Short: "Resolve the full hierarchical code of a sub-activity",
	Args:  cobra.ExactArgs(1),
	RunE:  runCode,
}

func init() {
	accountsCmd.Flags().IntVarP(&flagAccountsLimit, "limit", "n", 20, "Maximum results")
	rootCmd.AddCommand(accountsCmd, codeCmd)
}

func runAccounts(_ *cobra.Command, args []string) error {
	e, err := openEnv()
	if err != nil {
		return err
	}
	defer func() { _ = e.Close() }()

	accounts, err := e.store.Accounts()
	if err != nil {
		return err
	}
	cat := catalog.New(accounts)
	text := strings.Join(args, " ")

	matches := cat.Search(text)
	fuzzy := false
	if len(matches) == 0 {
		matches = catalog.Suggest(cat, text, flagAccountsLimit)
		fuzzy = true
	}
	if len(matches) > flagAccountsLimit {
		matches = matches[:flagAccountsLimit]
	}
	if len(matches) == 0 {
		fmt.Printf("  No account codes match %q\n", text)
		return nil
	}

	rows := make([][]string, len(matches))
	for i, ac := range matches {
		rows[i] = []string{ac.DisplayCode(), ac.Name, cli.Muted(ac.ID)}
	}
	title := fmt.Sprintf("%d rekening", len(matches))
	if fuzzy {
		title += " (mirip)"
	}
	fmt.Print(cli.RenderTable(cli.Table{
		Title:       title,
		Headers:     []string{"Kode", "Nama", "ID"},
		Rows:        rows,
		TextColumns: 3,
	}))
	return nil
}

func runCode(_ *cobra.Command, args []string) error {
	e, err := openEnv()
	if err != nil {
		return err
	}
	defer func() { _ = e.Close() }()

	nodes, err := e.store.Nodes()
	if err != nil {
		return err
	}
	r := hierarchy.NewResolver(hierarchy.NewIndex(nodes))

	d, ok := r.Describe(args[0])
	if !ok {
		return fmt.Errorf("sub-activity %s not found", args[0])
	}

	fmt.Printf("  %s\n", cli.Header(d.FullCode))
	for _, n := range d.Ancestors {
		fmt.Printf("    %-12s %-8s %s\n", levelLabel(n.Level), n.Code, n.Name)
	}
	fmt.Printf("    %-12s %-8s %s\n", levelLabel(d.SubActivity.Level), d.SubActivity.Code, d.SubActivity.Name)
	if d.Partial {
		fmt.Println(cli.Warn("  Partial code: some ancestors are missing."))
	}
	return nil
}

func levelLabel(l model.Level) string {
	switch l {
	case model.LevelDomain:
		return "Urusan"
	case model.LevelField:
		return "Bidang"
	case model.LevelProgram:
		return "Program"
	case model.LevelActivity:
		return "Kegiatan"
	case model.LevelSubActivity:
		return "Sub Kegiatan"
	}
	return "?"
}
