package memory

import (
	"context"
	"errors"
	"testing"

	"intake/internal/core"
)

func TestAppend(t *testing.T) {
	s := New()
	ref, err := s.Append(context.Background(), core.DepositRecord{ID: "a"})
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if ref != "Deposits!A2:K2" {
		t.Fatalf("unexpected ref: %s", ref)
	}
	if _, err := s.Append(context.Background(), core.DepositRecord{}); err == nil {
		t.Fatal("expected error for record without id")
	}
	if got := len(s.Records()); got != 1 {
		t.Fatalf("records = %d, want 1", got)
	}
}

func TestFailWith(t *testing.T) {
	s := New()
	boom := errors.New("quota exceeded")
	s.FailWith(boom)
	if _, err := s.Append(context.Background(), core.DepositRecord{ID: "a"}); !errors.Is(err, boom) {
		t.Fatalf("err = %v, want %v", err, boom)
	}
	s.FailWith(nil)
	if _, err := s.Append(context.Background(), core.DepositRecord{ID: "a"}); err != nil {
		t.Fatalf("append after reset: %v", err)
	}
}
