package core

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestFormatRupees(t *testing.T) {
	cases := []struct {
		in   decimal.Decimal
		want string
	}{
		{decimal.Zero, "₹0"},
		{decimal.NewFromInt(999), "₹999"},
		{decimal.NewFromInt(3500), "₹3,500"},
		{decimal.NewFromInt(100000), "₹1,00,000"},
		{decimal.NewFromInt(1234567), "₹12,34,567"},
		{decimal.NewFromInt(-2500), "-₹2,500"},
		{decimal.RequireFromString("1234.5"), "₹1,234.5"},
		{decimal.RequireFromString("10.12345"), "₹10.123"},
	}
	for _, tc := range cases {
		if got := FormatRupees(tc.in); got != tc.want {
			t.Errorf("FormatRupees(%s) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestFormatRupeesFloat(t *testing.T) {
	if got := FormatRupeesFloat(nil); got != "-" {
		t.Errorf("nil amount = %q, want -", got)
	}
	v := 5000.0
	if got := FormatRupeesFloat(&v); got != "₹5,000" {
		t.Errorf("FormatRupeesFloat(5000) = %q", got)
	}
}

func TestParseAmount(t *testing.T) {
	if !ParseAmount("").IsZero() || !ParseAmount("x").IsZero() {
		t.Fatal("invalid input should parse to zero")
	}
	if ParseAmount(" 42 ").String() != "42" {
		t.Fatal("expected 42")
	}
}
