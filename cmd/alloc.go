package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/theirongolddev/anggaran/internal/catalog"
	"github.com/theirongolddev/anggaran/internal/cli"
	"github.com/theirongolddev/anggaran/internal/ledger"
	"github.com/theirongolddev/anggaran/internal/model"
)

var (
	flagAllocAccount string
	flagAllocAmount  string
	flagAllocNote    string
	flagAllocBy      string
)

var allocCmd = &cobra.Command{
	Use:   "alloc",
	Short: "Add, edit or remove budget allocations",
}

var allocAddCmd = &cobra.Command{
	Use:   "add <budget-id>",
	Short: "Allocate an amount to an account code",
	Args:  cobra.ExactArgs(1),
	RunE:  runAllocAdd,
}

var allocEditCmd = &cobra.Command{
	Use:   "edit <budget-id> <index>",
	Short: "Edit the allocation at index",
	Args:  cobra.ExactArgs(2),
	RunE:  runAllocEdit,
}

var allocRemoveCmd = &cobra.Command{
	Use:   "remove <budget-id> <index>",
	Short: "Remove the allocation at index",
	Args:  cobra.ExactArgs(2),
	RunE:  runAllocRemove,
}

func init() {
	for _, c := range []*cobra.Command{allocAddCmd, allocEditCmd} {
		c.Flags().StringVar(&flagAllocAccount, "account", "", "Account code id or full code")
		c.Flags().StringVar(&flagAllocAmount, "amount", "", `Amount, e.g. 7.500.000 or 1500000,50 (a single dot before three digits is rejected)`)
		c.Flags().StringVar(&flagAllocNote, "note", "", "Free-text note")
		c.Flags().StringVar(&flagAllocBy, "by", "", "Allocated by")
	}
	_ = allocAddCmd.MarkFlagRequired("account")
	_ = allocAddCmd.MarkFlagRequired("amount")

	allocCmd.AddCommand(allocAddCmd, allocEditCmd, allocRemoveCmd)
	rootCmd.AddCommand(allocCmd)
}

// accountRef resolves user input to a catalog id reference. Input may be an
// id or a full code; unknown input is rejected with suggestions.
func accountRef(lookup catalog.Lookup, input string) (model.Reference, error) {
	input = strings.TrimSpace(input)
	if ac, ok := lookup.FindByID(input); ok {
		return model.IDRef(ac.ID), nil
	}
	if ac, ok := lookup.FindByFullCode(input); ok {
		return model.IDRef(ac.ID), nil
	}

	msg := fmt.Sprintf("unknown account code %q", input)
	if s := catalog.Suggest(lookup, input, 3); len(s) > 0 {
		names := make([]string, len(s))
		for i, ac := range s {
			names[i] = fmt.Sprintf("%s (%s)", ac.DisplayCode(), ac.Name)
		}
		msg += "; did you mean " + strings.Join(names, ", ")
	}
	return model.Reference{}, &ledger.ValidationError{Field: "accountCodeId", Reason: msg}
}

func parseAmount(s string) (decimal.Decimal, error) {
	// Accept "7.500.000" and "7500000,50" as typed in Indonesian notation.
	// "1.500" could be either notation and is rejected.
	clean := strings.TrimSpace(s)
	if _, frac, ok := strings.Cut(clean, "."); ok && !strings.ContainsAny(frac, ".,") && len(frac) == 3 {
		return decimal.Zero, &ledger.ValidationError{
			Field:  "amount",
			Reason: fmt.Sprintf("%q is ambiguous; write %s or %s", s, strings.Replace(clean, ".", "", 1), strings.Replace(clean, ".", ",", 1)),
		}
	}
	if strings.Count(clean, ".") > 1 || (strings.Contains(clean, ",") && strings.Contains(clean, ".")) {
		clean = strings.ReplaceAll(clean, ".", "")
	}
	clean = strings.Replace(clean, ",", ".", 1)
	d, err := decimal.NewFromString(clean)
	if err != nil {
		return decimal.Zero, &ledger.ValidationError{Field: "amount", Reason: fmt.Sprintf("%q is not a number", s)}
	}
	return d, nil
}

func parseIndex(s string) (int, error) {
	i, err := strconv.Atoi(strings.TrimPrefix(s, "#"))
	if err != nil {
		return 0, fmt.Errorf("invalid allocation index %q", s)
	}
	return i, nil
}

func runAllocAdd(_ *cobra.Command, args []string) error {
	e, err := openEnv()
	if err != nil {
		return err
	}
	defer func() { _ = e.Close() }()

	accounts, err := e.store.Accounts()
	if err != nil {
		return err
	}
	ref, err := accountRef(catalog.New(accounts), flagAllocAccount)
	if err != nil {
		return err
	}
	amount, err := parseAmount(flagAllocAmount)
	if err != nil {
		return err
	}

	l, err := e.openLedger()
	if err != nil {
		return err
	}
	b, err := l.AddAllocation(args[0], ref, decimal.NewNullDecimal(amount), flagAllocNote, flagAllocBy)
	if err != nil {
		return err
	}
	fmt.Printf("  Allocated %s on %s; total %s\n", e.money.Format(amount), cli.Header(b.ID), e.money.Format(b.TotalAmount))
	return nil
}

func runAllocEdit(cmd *cobra.Command, args []string) error {
	index, err := parseIndex(args[1])
	if err != nil {
		return err
	}
	e, err := openEnv()
	if err != nil {
		return err
	}
	defer func() { _ = e.Close() }()

	var p ledger.AllocationPatch
	flags := cmd.Flags()
	if flags.Changed("account") {
		accounts, err := e.store.Accounts()
		if err != nil {
			return err
		}
		ref, err := accountRef(catalog.New(accounts), flagAllocAccount)
		if err != nil {
			return err
		}
		p.AccountCode = &ref
	}
	if flags.Changed("amount") {
		amount, err := parseAmount(flagAllocAmount)
		if err != nil {
			return err
		}
		p.Amount = &amount
	}
	if flags.Changed("note") {
		p.Note = &flagAllocNote
	}
	if flags.Changed("by") {
		p.AllocatedBy = &flagAllocBy
	}

	l, err := e.openLedger()
	if err != nil {
		return err
	}
	b, err := l.EditAllocation(args[0], index, p)
	if err != nil {
		return err
	}
	fmt.Printf("  Updated allocation #%d on %s; total %s\n", index, cli.Header(b.ID), e.money.Format(b.TotalAmount))
	return nil
}

func runAllocRemove(_ *cobra.Command, args []string) error {
	index, err := parseIndex(args[1])
	if err != nil {
		return err
	}
	e, err := openEnv()
	if err != nil {
		return err
	}
	defer func() { _ = e.Close() }()

	l, err := e.openLedger()
	if err != nil {
		return err
	}
	b, err := l.RemoveAllocation(args[0], index)
	if err != nil {
		return err
	}
	fmt.Printf("  Removed allocation #%d from %s; total %s\n", index, cli.Header(b.ID), e.money.Format(b.TotalAmount))
	return nil
}
