// Package records declares the persistence ports the intake pipeline and the
// Record Browser depend on.
package records

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"intake/internal/core"
)

// ErrNotFound is returned by Getter implementations for unknown ids.
var ErrNotFound = errors.New("record not found")

// Ports for outbound adapters.
type (
	// Writer persists one deposit record and returns its id.
	Writer interface {
		Create(ctx context.Context, r core.DepositRecord) (id string, err error)
	}

	// Lister returns every stored record, newest first.
	Lister interface {
		ListAll(ctx context.Context) ([]core.DepositRecord, error)
	}

	// Getter fetches a single record by id.
	Getter interface {
		Get(ctx context.Context, id string) (core.DepositRecord, error)
	}

	// Store is what the HTTP layer needs from a backend.
	Store interface {
		Writer
		Lister
	}

	// Pinger is implemented by stores that can report reachability.
	Pinger interface {
		Ping(ctx context.Context) error
	}
)

// Stamp fills the id and creation time when the caller left them unset.
// Stores call it so that created_at is always assigned on the write path.
func Stamp(r core.DepositRecord, now time.Time) core.DepositRecord {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.CreatedAt == nil {
		t := now.UTC()
		r.CreatedAt = &t
	}
	return r
}
