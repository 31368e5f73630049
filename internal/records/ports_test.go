package records

import (
	"testing"
	"time"

	"intake/internal/core"
)

func TestStamp(t *testing.T) {
	now := time.Date(2026, 10, 16, 10, 0, 0, 0, time.FixedZone("IST", 5*3600+1800))

	r := Stamp(core.DepositRecord{FirstName: "Asha"}, now)
	if r.ID == "" {
		t.Fatal("expected generated id")
	}
	if r.CreatedAt == nil || !r.CreatedAt.Equal(now) || r.CreatedAt.Location() != time.UTC {
		t.Fatalf("CreatedAt = %v, want %v in UTC", r.CreatedAt, now)
	}

	earlier := now.Add(-time.Hour)
	kept := Stamp(core.DepositRecord{ID: "fixed", CreatedAt: &earlier}, now)
	if kept.ID != "fixed" || !kept.CreatedAt.Equal(earlier) {
		t.Fatalf("Stamp overwrote caller values: %+v", kept)
	}
}
