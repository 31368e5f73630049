// Package memory is an in-process record store used for development and tests.
package memory

import (
	"context"
	"slices"
	"sync"
	"time"

	"intake/internal/core"
	"intake/internal/records"
)

type Store struct {
	mu    sync.Mutex
	now   func() time.Time
	items []core.DepositRecord
	// failNext makes the next n writes fail; see FailWrites.
	failNext int
	failErr  error
}

func New() *Store {
	return &Store{now: time.Now}
}

// NewWithClock is New with an injected clock.
func NewWithClock(now func() time.Time) *Store {
	return &Store{now: now}
}

// Create stores a copy of r, stamping id and created_at when unset.
func (s *Store) Create(ctx context.Context, r core.DepositRecord) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failNext > 0 {
		s.failNext--
		return "", s.failErr
	}
	r = records.Stamp(r, s.now())
	s.items = append(s.items, r)
	return r.ID, nil
}

// ListAll returns every record ordered by created_at descending.
func (s *Store) ListAll(ctx context.Context) ([]core.DepositRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	out := slices.Clone(s.items)
	s.mu.Unlock()

	slices.SortStableFunc(out, func(a, b core.DepositRecord) int {
		return compareCreatedDesc(a.CreatedAt, b.CreatedAt)
	})
	return out, nil
}

// Get returns the record with the given id.
func (s *Store) Get(_ context.Context, id string) (core.DepositRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.items {
		if r.ID == id {
			return r, nil
		}
	}
	return core.DepositRecord{}, records.ErrNotFound
}

// Ping always succeeds.
func (s *Store) Ping(context.Context) error { return nil }

// Len returns the number of stored records.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// FailWrites makes the next n calls to Create return err.
func (s *Store) FailWrites(n int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failNext = n
	s.failErr = err
}

// compareCreatedDesc orders newer first and records without a timestamp last.
func compareCreatedDesc(a, b *time.Time) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	}
	return b.Compare(*a)
}
