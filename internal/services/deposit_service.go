package services

import (
	"context"
	"fmt"

	"intake/internal/core"
	applog "intake/internal/log"
	"intake/internal/records"
)

// Publisher announces stored records to the sync worker.
type Publisher interface {
	PublishDepositSubmitted(ctx context.Context, recordID string) error
}

// DepositService stores deposit records and then announces them over AMQP.
type DepositService struct {
	store     records.Writer
	publisher Publisher
	logger    *applog.Logger
}

var _ records.Writer = (*DepositService)(nil)

// NewDepositService returns a service that only stores when publisher is nil.
func NewDepositService(store records.Writer, publisher Publisher, logger *applog.Logger) *DepositService {
	return &DepositService{
		store:     store,
		publisher: publisher,
		logger:    logger.WithComponent(applog.ComponentIntake),
	}
}

// Create saves r first and publishes afterwards. A publish failure is logged
// and does not fail the write; the worker's sweep picks the record up later.
func (s *DepositService) Create(ctx context.Context, r core.DepositRecord) (string, error) {
	id, err := s.store.Create(ctx, r)
	if err != nil {
		return "", fmt.Errorf("save deposit: %w", err)
	}

	if err := s.publish(ctx, id); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish deposit message",
			applog.FieldRecordID, id,
			applog.FieldOperation, applog.OpPublish,
			applog.FieldError, err)
	}

	return id, nil
}

func (s *DepositService) publish(ctx context.Context, id string) error {
	if s.publisher == nil {
		s.logger.DebugContext(ctx, "AMQP publisher not available, skipping message", applog.FieldRecordID, id)
		return nil
	}
	return s.publisher.PublishDepositSubmitted(ctx, id)
}
