package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"intake/internal/core"
	"intake/internal/records"
)

var _ records.Store = (*Store)(nil)
var _ records.Getter = (*Store)(nil)

func TestMemoryStoreCreateAndList(t *testing.T) {
	now := time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)
	s := NewWithClock(func() time.Time { now = now.Add(time.Minute); return now })
	ctx := context.Background()

	id1, err := s.Create(ctx, core.DepositRecord{FirstName: "Asha"})
	if err != nil || id1 == "" {
		t.Fatalf("unexpected create: id=%q err=%v", id1, err)
	}
	id2, err := s.Create(ctx, core.DepositRecord{ID: "given", FirstName: "Ravi"})
	if err != nil || id2 != "given" {
		t.Fatalf("unexpected create: id=%q err=%v", id2, err)
	}

	list, err := s.ListAll(ctx)
	if err != nil {
		t.Fatalf("ListAll: %v", err)
	}
	if len(list) != 2 || list[0].ID != "given" || list[1].ID != id1 {
		t.Fatalf("expected newest first, got %+v", list)
	}

	got, err := s.Get(ctx, id1)
	if err != nil || got.FirstName != "Asha" {
		t.Fatalf("Get: %+v %v", got, err)
	}
	if _, err := s.Get(ctx, "nope"); !errors.Is(err, records.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryStoreFailWrites(t *testing.T) {
	s := New()
	boom := errors.New("boom")
	s.FailWrites(1, boom)

	if _, err := s.Create(context.Background(), core.DepositRecord{}); !errors.Is(err, boom) {
		t.Fatalf("expected injected failure, got %v", err)
	}
	if _, err := s.Create(context.Background(), core.DepositRecord{}); err != nil {
		t.Fatalf("second write should succeed: %v", err)
	}
	if s.Len() != 1 {
		t.Fatalf("Len = %d, want 1", s.Len())
	}
}

func TestMemoryStoreUndatedRecordsSortLast(t *testing.T) {
	ts := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	got := []int{
		compareCreatedDesc(nil, &ts),
		compareCreatedDesc(&ts, nil),
		compareCreatedDesc(nil, nil),
	}
	want := []int{1, -1, 0}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("case %d: got %d want %d", i, got[i], want[i])
		}
	}
}
