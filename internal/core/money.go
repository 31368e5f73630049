// Package core provides money parsing and handling utilities.
//
// This file parses the digit-only amount strings entered on the form and
// formats sums in the Indian digit grouping used throughout the portal.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ParseAmount converts an amount string to a decimal. Empty or invalid input
// yields zero.
func ParseAmount(s string) decimal.Decimal {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// FormatRupees renders d with a rupee sign and en-IN grouping, at most three
// fraction digits with trailing zeros dropped.
//
// Examples:
//
//	FormatRupees(decimal.NewFromInt(3500))    -> "₹3,500"
//	FormatRupees(decimal.NewFromInt(1234567)) -> "₹12,34,567"
func FormatRupees(d decimal.Decimal) string {
	neg := d.IsNegative()
	if neg {
		d = d.Neg()
	}
	s := d.Round(3).String()
	intPart, fracPart, _ := strings.Cut(s, ".")

	out := "₹" + groupIndian(intPart)
	if fracPart != "" {
		out += "." + fracPart
	}
	if neg {
		return "-" + out
	}
	return out
}

// FormatRupeesFloat formats an optional stored amount; nil renders as "-".
func FormatRupeesFloat(v *float64) string {
	if v == nil || *v == 0 {
		return "-"
	}
	return FormatRupees(decimal.NewFromFloat(*v))
}

// groupIndian groups the last three digits, then every two.
func groupIndian(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	head, tail := digits[:len(digits)-3], digits[len(digits)-3:]
	var parts []string
	for len(head) > 2 {
		parts = append([]string{head[len(head)-2:]}, parts...)
		head = head[:len(head)-2]
	}
	if head != "" {
		parts = append([]string{head}, parts...)
	}
	return strings.Join(parts, ",") + "," + tail
}
