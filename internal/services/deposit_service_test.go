package services

import (
	"context"
	"errors"
	"io"
	"testing"

	"intake/internal/core"
	applog "intake/internal/log"
	"intake/internal/records/memory"
)

type recordingPublisher struct {
	ids []string
	err error
}

func (p *recordingPublisher) PublishDepositSubmitted(_ context.Context, id string) error {
	p.ids = append(p.ids, id)
	return p.err
}

func testLogger() *applog.Logger {
	return applog.New(applog.Config{Output: io.Discard})
}

func TestDepositService_Create(t *testing.T) {
	store := memory.New()
	pub := &recordingPublisher{}
	svc := NewDepositService(store, pub, testLogger())

	id, err := svc.Create(context.Background(), core.DepositRecord{FirstName: "Ann"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if id == "" {
		t.Fatal("expected a record id")
	}
	if len(pub.ids) != 1 || pub.ids[0] != id {
		t.Fatalf("published %v, want [%s]", pub.ids, id)
	}
	if store.Len() != 1 {
		t.Fatalf("stored %d records, want 1", store.Len())
	}
}

func TestDepositService_PublishFailureDoesNotFailWrite(t *testing.T) {
	store := memory.New()
	pub := &recordingPublisher{err: errors.New("circuit breaker is open")}
	svc := NewDepositService(store, pub, testLogger())

	if _, err := svc.Create(context.Background(), core.DepositRecord{}); err != nil {
		t.Fatalf("Create should succeed when publishing fails: %v", err)
	}
	if store.Len() != 1 {
		t.Fatalf("stored %d records, want 1", store.Len())
	}
}

func TestDepositService_StoreFailureSkipsPublish(t *testing.T) {
	store := memory.New()
	store.FailWrites(1, errors.New("disk full"))
	pub := &recordingPublisher{}
	svc := NewDepositService(store, pub, testLogger())

	_, err := svc.Create(context.Background(), core.DepositRecord{})
	if err == nil {
		t.Fatal("expected error")
	}
	if len(pub.ids) != 0 {
		t.Fatalf("published %v after failed write", pub.ids)
	}
}

func TestDepositService_NilPublisher(t *testing.T) {
	svc := NewDepositService(memory.New(), nil, testLogger())
	if _, err := svc.Create(context.Background(), core.DepositRecord{}); err != nil {
		t.Fatalf("Create: %v", err)
	}
}
