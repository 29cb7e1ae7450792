// Package core provides money parsing and handling utilities.
//
// This file contains the amount filter applied to user input and the
// formatter used by the summary card.
package core

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// ParseAmount keeps only digits and '.' from user text and parses the rest.
//
// The filter mirrors the amount field of the entry form: anything that is
// not a digit or a decimal point is dropped before parsing, so "$1,200.50"
// becomes 1200.50. An input that strips to nothing is 0, not an error.
// More than one decimal point cannot be parsed and yields ErrInvalidAmount.
//
// Examples:
//
//	ParseAmount("50")        -> 50
//	ParseAmount("$12.34")    -> 12.34
//	ParseAmount("-5")        -> 5
//	ParseAmount("")          -> 0
//	ParseAmount("1.2.3")     -> ErrInvalidAmount
func ParseAmount(text string) (decimal.Decimal, error) {
	numeric := StripNonNumeric(text)
	if numeric == "" || numeric == "." {
		return decimal.Zero, nil
	}
	if strings.Count(numeric, ".") > 1 {
		return decimal.Zero, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(numeric)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// StripNonNumeric removes every character other than 0-9 and '.'.
func StripNonNumeric(text string) string {
	return strings.Map(func(r rune) rune {
		if (r >= '0' && r <= '9') || r == '.' {
			return r
		}
		return -1
	}, text)
}

// FormatMoney renders "$12.34" or "-$5.00".
func FormatMoney(d decimal.Decimal) string {
	s := "$" + d.Abs().StringFixed(2)
	if d.IsNegative() {
		return "-" + s
	}
	return s
}

func formatInt(v int64) string {
	return strconv.FormatInt(v, 10)
}
