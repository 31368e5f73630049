package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"intake/internal/core"
	ports "intake/internal/sheets"
)

var _ ports.RecordAppender = (*Store)(nil)

// Store is an in-memory mirror sheet.
type Store struct {
	mu    sync.Mutex
	items []core.DepositRecord
	fail  error
}

func New() *Store {
	return &Store{}
}

// Append stores the record and returns a synthetic row reference.
func (s *Store) Append(_ context.Context, r core.DepositRecord) (string, error) {
	if r.ID == "" {
		return "", errors.New("record has no id")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return "", s.fail
	}
	s.items = append(s.items, r)
	// +1 for the header row
	return fmt.Sprintf("Deposits!A%d:K%d", len(s.items)+1, len(s.items)+1), nil
}

// FailWith makes later appends return err until it is called with nil.
func (s *Store) FailWith(err error) {
	s.mu.Lock()
	s.fail = err
	s.mu.Unlock()
}

// Records returns a copy of the appended records.
func (s *Store) Records() []core.DepositRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.DepositRecord, len(s.items))
	copy(out, s.items)
	return out
}
