package core

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in  string
		out string
		ok  bool
	}{
		{"50", "50", true},
		{"12.34", "12.34", true},
		{"$1,200.50", "1200.5", true},
		{"-5", "5", true},
		{" 7 ", "7", true},
		{".5", "0.5", true},
		{"", "0", true},
		{"abc", "0", true},
		{".", "0", true},
		{"1.2.3", "", false},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if !tc.ok {
			if !errors.Is(err, ErrInvalidAmount) {
				t.Fatalf("%q expected ErrInvalidAmount, got %v", tc.in, err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("%q unexpected error %v", tc.in, err)
		}
		if !got.Equal(decimal.RequireFromString(tc.out)) {
			t.Fatalf("%q expected %s, got %s", tc.in, tc.out, got)
		}
	}
}

func TestStripNonNumeric(t *testing.T) {
	if got := StripNonNumeric("a1b2.3c"); got != "12.3" {
		t.Fatalf("got %q", got)
	}
}

func TestFormatMoney(t *testing.T) {
	cases := map[string]string{
		"0":      "$0.00",
		"1150":   "$1150.00",
		"12.345": "$12.35",
		"-5":     "-$5.00",
	}
	for in, want := range cases {
		if got := FormatMoney(decimal.RequireFromString(in)); got != want {
			t.Fatalf("FormatMoney(%s) = %q, want %q", in, got, want)
		}
	}
}
