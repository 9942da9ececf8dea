package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

// CurrencyPlaces is the number of decimal places the API stores
const CurrencyPlaces = 2

// ParseCurrency normalizes user input or API values into a decimal.
// "1.000,50" and "50,00" are read as comma-decimal (pt-BR), anything without a
// comma is read as dot-decimal ("1000.50"). Empty input is zero.
func ParseCurrency(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "R$")
	s = strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\u00a0', '\t':
			return -1
		}
		return r
	}, s)
	if s == "" {
		return decimal.Zero, nil
	}

	if strings.Contains(s, ",") {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// FormatCurrency renders a value the way the UI displays it: "1.234,50"
func FormatCurrency(d decimal.Decimal) string {
	fixed := d.Abs().StringFixed(CurrencyPlaces)
	intPart, fracPart, _ := strings.Cut(fixed, ".")

	var b strings.Builder
	if d.Round(CurrencyPlaces).IsNegative() {
		b.WriteByte('-')
	}
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	b.WriteByte(',')
	b.WriteString(fracPart)
	return b.String()
}

// RoundCents rounds to the API's currency precision
func RoundCents(d decimal.Decimal) decimal.Decimal {
	return d.Round(CurrencyPlaces)
}

// Clamp bounds v to [lo, hi]
func Clamp(v, lo, hi decimal.Decimal) decimal.Decimal {
	if v.LessThan(lo) {
		return lo
	}
	if v.GreaterThan(hi) {
		return hi
	}
	return v
}
