// Package cli provides formatting, rendering and export utilities for
// terminal output.
package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// MoneyFormat formats decimal amounts in a currency's local notation.
type MoneyFormat struct {
	Code   string
	Symbol bool
	// Thousand and Decimal override the separators; empty means the
	// Indonesian "." and ",".
	Thousand string
	Decimal  string
}

// Format renders d with the currency's symbol and minor units.
// Whole amounts are printed without minor units.
// e.g., IDR 7500000 -> "Rp7.500.000", IDR 1234.5 -> "Rp1.234,50"
func (f MoneyFormat) Format(d decimal.Decimal) string {
	code := f.Code
	if code == "" {
		code = "IDR"
	}
	cur := *money.New(0, code).Currency()

	fraction := cur.Fraction
	if d.Equal(d.Truncate(0)) {
		fraction = 0
	}
	grapheme, template := cur.Grapheme, cur.Template
	if !f.Symbol {
		grapheme, template = "", "1"
	}
	thousand, dec := f.Thousand, f.Decimal
	if thousand == "" {
		thousand = "."
	}
	if dec == "" {
		dec = ","
	}
	formatter := money.NewFormatter(fraction, dec, thousand, grapheme, template)
	return formatter.Format(d.Shift(int32(fraction)).Round(0).IntPart())
}

// FormatAmount formats d as a compact rupiah figure with Indonesian
// magnitude suffixes.
// e.g., 1500000 -> "1,5 jt", 2750000000 -> "2,75 M", 950 -> "950"
func FormatAmount(d decimal.Decimal) string {
	abs := d.Abs()
	switch {
	case abs.GreaterThanOrEqual(decimal.New(1, 12)):
		return trimDecimal(d.Shift(-12), 2) + " T"
	case abs.GreaterThanOrEqual(decimal.New(1, 9)):
		return trimDecimal(d.Shift(-9), 2) + " M"
	case abs.GreaterThanOrEqual(decimal.New(1, 6)):
		return trimDecimal(d.Shift(-6), 1) + " jt"
	default:
		return trimDecimal(d, 0)
	}
}

func trimDecimal(d decimal.Decimal, places int32) string {
	s := d.Round(places).String()
	return strings.Replace(s, ".", ",", 1)
}

// FormatNumber adds dot separators to an integer.
// e.g., 1234567 -> "1.234.567"
func FormatNumber(n int64) string {
	if n < 0 {
		return "-" + FormatNumber(-n)
	}

	s := strconv.FormatInt(n, 10)
	if len(s) <= 3 {
		return s
	}

	var result strings.Builder
	remainder := len(s) % 3
	if remainder > 0 {
		result.WriteString(s[:remainder])
	}
	for i := remainder; i < len(s); i += 3 {
		if result.Len() > 0 {
			result.WriteByte('.')
		}
		result.WriteString(s[i : i+3])
	}
	return result.String()
}

// FormatPercent formats a 0-100 percentage.
func FormatPercent(p float64) string {
	return fmt.Sprintf("%.1f%%", p)
}
