// Package currency formats decimal amounts for display.
package currency

import (
	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// DefaultCode is the display currency when none is configured.
const DefaultCode = "LKR"

// Format renders amount using the grapheme, separators and fraction digits of
// the ISO 4217 code. Unknown codes fall back to a plain number.
func Format(amount decimal.Decimal, code string) string {
	// money.New never returns a nil currency, even for unknown codes
	cur := money.New(0, code).Currency()
	minor := amount.Shift(int32(cur.Fraction)).Round(0).IntPart()
	return cur.Formatter().Format(minor)
}

// Known reports whether code is a currency go-money knows about.
func Known(code string) bool {
	return money.GetCurrency(code) != nil
}
