package core

import "github.com/shopspring/decimal"

// Totals are the principal and returned sums over a set of entries.
type Totals struct {
	Principal decimal.Decimal
	Returned  decimal.Decimal
}

// ComputeTotals sums amounts, counting missing or non-numeric values as zero.
func ComputeTotals(entries []FinancialEntry) Totals {
	t := Totals{Principal: decimal.Zero, Returned: decimal.Zero}
	for _, e := range entries {
		t.Principal = t.Principal.Add(ParseAmount(e.Amount))
		t.Returned = t.Returned.Add(ParseAmount(e.ReturnedAmount))
	}
	return t
}
