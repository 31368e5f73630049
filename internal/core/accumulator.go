package core

import (
	"slices"
	"strings"

	"github.com/google/uuid"
)

// Accumulator holds the entries of one submission batch in insertion order.
// It is not safe for concurrent use; the owning form session serialises access.
type Accumulator struct {
	entries []FinancialEntry
	newID   func() string
}

// NewAccumulator returns an empty accumulator. A nil newID uses random UUIDs.
func NewAccumulator(newID func() string) *Accumulator {
	if newID == nil {
		newID = uuid.NewString
	}
	return &Accumulator{newID: newID}
}

// Add validates the draft and appends it. The list is left untouched on error.
func (a *Accumulator) Add(d EntryDraft, today string) (FinancialEntry, error) {
	if strings.TrimSpace(d.DepositType) == "" {
		return FinancialEntry{}, ErrMissingDepositType
	}
	if strings.TrimSpace(d.Amount) == "" {
		return FinancialEntry{}, ErrMissingAmount
	}
	if d.DepositDate != "" && !IsPastOrToday(d.DepositDate, today) {
		return FinancialEntry{}, ErrFutureDepositDate
	}

	depositType := d.DepositType
	if depositType == DepositOther {
		depositType = strings.TrimSpace(d.OtherDepositType)
		if depositType == "" {
			depositType = DepositOther
		}
	}

	e := FinancialEntry{
		ID:             a.newID(),
		DepositType:    depositType,
		DepositDate:    d.DepositDate,
		AccountNo:      d.AccountNo,
		Amount:         d.Amount,
		ReturnedAmount: d.ReturnedAmount,
	}
	a.entries = append(a.entries, e)
	return e, nil
}

// Remove drops the entry with the given id. Unknown ids are ignored.
func (a *Accumulator) Remove(id string) {
	a.entries = slices.DeleteFunc(a.entries, func(e FinancialEntry) bool {
		return e.ID == id
	})
}

// Entries returns a copy of the accumulated entries.
func (a *Accumulator) Entries() []FinancialEntry {
	return slices.Clone(a.entries)
}

func (a *Accumulator) Len() int {
	return len(a.entries)
}

func (a *Accumulator) Clear() {
	a.entries = nil
}

// Totals is computed from the current list on every call.
func (a *Accumulator) Totals() Totals {
	return ComputeTotals(a.entries)
}
