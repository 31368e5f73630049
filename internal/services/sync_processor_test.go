package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

type countingSweeper struct {
	calls atomic.Int32
	err   error
}

func (s *countingSweeper) ProcessPending(context.Context) (int, error) {
	s.calls.Add(1)
	return 1, s.err
}

func TestDefaultSyncProcessorConfig(t *testing.T) {
	config := DefaultSyncProcessorConfig()
	if config.PollInterval != time.Minute {
		t.Errorf("expected PollInterval 1m, got %v", config.PollInterval)
	}

	p := NewSyncProcessor(&countingSweeper{}, SyncProcessorConfig{}, testLogger())
	if p.config.PollInterval != time.Minute {
		t.Errorf("zero PollInterval should fall back to the default, got %v", p.config.PollInterval)
	}
}

func TestSyncProcessor_Lifecycle(t *testing.T) {
	sweeper := &countingSweeper{}
	p := NewSyncProcessor(sweeper, SyncProcessorConfig{PollInterval: 10 * time.Millisecond}, testLogger())

	if p.IsRunning() {
		t.Fatal("processor should not be running initially")
	}

	ctx := context.Background()
	if err := p.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := p.Start(ctx); err == nil {
		t.Error("expected error when starting already running processor")
	}

	deadline := time.Now().Add(2 * time.Second)
	for sweeper.calls.Load() < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if sweeper.calls.Load() < 2 {
		t.Fatalf("sweeper called %d times, want at least 2", sweeper.calls.Load())
	}

	stopCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	if err := p.Stop(stopCtx); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if p.IsRunning() {
		t.Error("processor should not be running after Stop")
	}
}

func TestSyncProcessor_SweepErrorKeepsRunning(t *testing.T) {
	sweeper := &countingSweeper{err: errors.New("sheets unavailable")}
	p := NewSyncProcessor(sweeper, SyncProcessorConfig{PollInterval: 5 * time.Millisecond}, testLogger())

	p.sweep(context.Background())
	p.sweep(context.Background())
	if got := sweeper.calls.Load(); got != 2 {
		t.Fatalf("calls = %d, want 2", got)
	}
}

func TestSyncProcessor_StopNotRunning(t *testing.T) {
	p := NewSyncProcessor(&countingSweeper{}, DefaultSyncProcessorConfig(), testLogger())
	if err := p.Stop(context.Background()); err != nil {
		t.Errorf("Stop should not error when not running: %v", err)
	}
}
