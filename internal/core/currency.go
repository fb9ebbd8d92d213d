// Package core holds the domain types and the pure computations of the
// wallet: currency input parsing, display formatting and aggregation.
package core

import (
	"github.com/Rhymond/go-money"
)

// DefaultCurrency is the ISO code used when none is configured.
const DefaultCurrency = "BRL"

// ParseDigits interprets a raw keystroke sequence as an amount in minor
// units: every non-digit rune is discarded and the remaining digit string is
// read as cents. The function is total over its input; an empty or digit-free
// string yields zero. Leading zeros are insignificant.
//
//	ParseDigits("1234")     -> 12.34
//	ParseDigits("R$ 12,34") -> 12.34
//	ParseDigits("")         -> 0.00
func ParseDigits(raw string) Money {
	var cents int64
	for _, r := range raw {
		if r < '0' || r > '9' {
			continue
		}
		// Saturate instead of overflowing on absurdly long digit runs.
		if cents > (1<<63-1-9)/10 {
			return Money{Cents: 1<<63 - 1}
		}
		cents = cents*10 + int64(r-'0')
	}
	return Money{Cents: cents}
}

// CurrencyFormatter renders cent amounts with the grouping and decimal
// separators of a specific currency, always with two fractional digits.
type CurrencyFormatter struct {
	code      string
	formatter *money.Formatter
	display   *money.Formatter
}

// NewCurrencyFormatter builds a formatter for the given ISO currency code.
// Unknown codes fall back to DefaultCurrency.
func NewCurrencyFormatter(code string) *CurrencyFormatter {
	c := money.GetCurrency(code)
	if c == nil {
		code = DefaultCurrency
		c = money.GetCurrency(code)
	}
	return &CurrencyFormatter{
		code: code,
		// Bare number, e.g. "1.234,56" for BRL or "1,234.56" for USD.
		formatter: money.NewFormatter(c.Fraction, c.Decimal, c.Thousand, "", "1"),
		// With the currency grapheme, e.g. "R$1.234,56".
		display: money.NewFormatter(c.Fraction, c.Decimal, c.Thousand, c.Grapheme, c.Template),
	}
}

// Code returns the ISO currency code in effect.
func (f *CurrencyFormatter) Code() string { return f.code }

// Format returns the locale display string without a currency symbol.
func (f *CurrencyFormatter) Format(m Money) string {
	return f.formatter.Format(m.Cents)
}

// Display returns the locale display string with the currency symbol.
func (f *CurrencyFormatter) Display(m Money) string {
	return f.display.Format(m.Cents)
}
