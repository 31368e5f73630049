package core

import (
	"strings"
	"time"
)

// FilterCriteria are the operator-committed Record Browser filters. Empty
// fields are skipped. From and To are calendar dates in DateLayout.
type FilterCriteria struct {
	Search string
	From   string
	To     string
}

// IsZero reports whether no criterion is set.
func (c FilterCriteria) IsZero() bool {
	return c == FilterCriteria{}
}

// ApplyFilters returns the records matching every set criterion. The input
// slice is never modified. Day bounds are resolved in loc.
func ApplyFilters(records []DepositRecord, c FilterCriteria, loc *time.Location) []DepositRecord {
	if loc == nil {
		loc = time.Local
	}

	query := strings.ToLower(strings.TrimSpace(c.Search))

	var from, to time.Time
	hasFrom, hasTo := false, false
	if c.From != "" {
		if t, err := time.ParseInLocation(DateLayout, c.From, loc); err == nil {
			from, hasFrom = t, true
		}
	}
	if c.To != "" {
		if t, err := time.ParseInLocation(DateLayout, c.To, loc); err == nil {
			to, hasTo = t.AddDate(0, 0, 1).Add(-time.Millisecond), true
		}
	}

	out := make([]DepositRecord, 0, len(records))
	for _, r := range records {
		if query != "" && !matchesSearch(r, query) {
			continue
		}
		if hasFrom && (r.CreatedAt == nil || r.CreatedAt.Before(from)) {
			continue
		}
		if hasTo && (r.CreatedAt == nil || r.CreatedAt.After(to)) {
			continue
		}
		out = append(out, r)
	}
	return out
}

func matchesSearch(r DepositRecord, query string) bool {
	return strings.Contains(strings.ToLower(r.FullName), query) ||
		strings.Contains(r.AccountNo, query) ||
		strings.Contains(r.MobileNo, query) ||
		strings.Contains(strings.ToLower(r.Email), query)
}
