package adapters

import (
	"context"

	"intake/internal/core"
	"intake/internal/records"
)

// PublishingStore routes writes through a writer (usually a
// services.DepositService) and reads through the underlying store, so the
// HTTP layer keeps working against one records.Store.
type PublishingStore struct {
	writer records.Writer
	store  records.Lister
}

var (
	_ records.Store  = (*PublishingStore)(nil)
	_ records.Pinger = (*PublishingStore)(nil)
)

func NewPublishingStore(writer records.Writer, store records.Lister) *PublishingStore {
	return &PublishingStore{writer: writer, store: store}
}

// Create implements records.Writer
func (a *PublishingStore) Create(ctx context.Context, r core.DepositRecord) (string, error) {
	return a.writer.Create(ctx, r)
}

// ListAll implements records.Lister
func (a *PublishingStore) ListAll(ctx context.Context) ([]core.DepositRecord, error) {
	return a.store.ListAll(ctx)
}

// Ping delegates to the underlying store when it can report reachability.
func (a *PublishingStore) Ping(ctx context.Context) error {
	if p, ok := a.store.(records.Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}
