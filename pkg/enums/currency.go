package enums

import (
	"fmt"
	"strings"
)

// Currency is an ISO-4217 code the storefront can price in.
type Currency string

const (
	CurrencyUSD Currency = "USD"
	CurrencyEUR Currency = "EUR"
	CurrencyGBP Currency = "GBP"
	CurrencyINR Currency = "INR"
	CurrencyCAD Currency = "CAD"
	CurrencyAUD Currency = "AUD"
	CurrencyJPY Currency = "JPY"
)

// DefaultCurrency is the hard fallback when neither the request nor config name one.
const DefaultCurrency = CurrencyINR

var validCurrencies = []Currency{
	CurrencyUSD,
	CurrencyEUR,
	CurrencyGBP,
	CurrencyINR,
	CurrencyCAD,
	CurrencyAUD,
	CurrencyJPY,
}

// SupportedCurrencies returns the supported set in display order.
func SupportedCurrencies() []Currency {
	out := make([]Currency, len(validCurrencies))
	copy(out, validCurrencies)
	return out
}

// String implements fmt.Stringer.
func (c Currency) String() string {
	return string(c)
}

// IsValid reports whether the currency is recognized.
func (c Currency) IsValid() bool {
	for _, candidate := range validCurrencies {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseCurrency converts a raw string into a Currency. Matching is case-insensitive.
func ParseCurrency(value string) (Currency, error) {
	normalized := Currency(strings.ToUpper(strings.TrimSpace(value)))
	for _, candidate := range validCurrencies {
		if candidate == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid currency %q", value)
}
