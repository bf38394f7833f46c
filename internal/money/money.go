// Package money formats minor-unit amounts for display and does the integer
// arithmetic used for platform fees.
package money

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var ErrInvalidCurrency = errors.New("invalid currency")

var printer = message.NewPrinter(language.English)

// ParseCurrency returns the canonical upper-case ISO 4217 code.
func ParseCurrency(code string) (string, error) {
	unit, err := currency.ParseISO(strings.ToUpper(strings.TrimSpace(code)))
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidCurrency, code)
	}
	return unit.String(), nil
}

// MinorUnits returns the number of decimal places used by the currency.
func MinorUnits(code string) (int, error) {
	unit, err := currency.ParseISO(strings.ToUpper(strings.TrimSpace(code)))
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidCurrency, code)
	}
	scale, _ := currency.Standard.Rounding(unit)
	return scale, nil
}

// Format renders amountMinor (cents for USD, yen for JPY) with the currency
// symbol, e.g. 123450 USD -> "$1,234.50".
func Format(amountMinor int64, code string) (string, error) {
	unit, err := currency.ParseISO(strings.ToUpper(strings.TrimSpace(code)))
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidCurrency, code)
	}
	scale, _ := currency.Standard.Rounding(unit)

	sign := ""
	if amountMinor < 0 {
		sign = "-"
		amountMinor = -amountMinor
	}
	value := float64(amountMinor) / math.Pow10(scale)
	symbol := printer.Sprint(currency.Symbol(unit))
	return sign + symbol + printer.Sprintf("%.*f", scale, value), nil
}

// ApplyBasisPoints returns amount * bps / 10000, rounded down.
func ApplyBasisPoints(amount int64, bps int) int64 {
	if amount <= 0 || bps <= 0 {
		return 0
	}
	return amount * int64(bps) / 10000
}
