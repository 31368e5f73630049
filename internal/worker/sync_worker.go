package worker

import (
	"context"
	"errors"
	"fmt"

	"intake/internal/amqp"
	"intake/internal/core"
	applog "intake/internal/log"
	"intake/internal/records"
	"intake/internal/sheets"
)

// SyncStore is the bookkeeping side of the SQLite store.
type SyncStore interface {
	records.Getter
	ListUnsynced(ctx context.Context, limit int) ([]core.DepositRecord, error)
	IsSynced(ctx context.Context, id string) (bool, error)
	MarkSynced(ctx context.Context, id string) error
}

// SyncWorker mirrors deposit records from SQLite into Google Sheets.
type SyncWorker struct {
	storage   SyncStore
	sheets    sheets.RecordAppender
	batchSize int
	logger    *applog.Logger
}

func NewSyncWorker(storage SyncStore, sheets sheets.RecordAppender, batchSize int, logger *applog.Logger) *SyncWorker {
	if batchSize < 1 {
		batchSize = 1
	}
	return &SyncWorker{
		storage:   storage,
		sheets:    sheets,
		batchSize: batchSize,
		logger:    logger.WithComponent(applog.ComponentWorker),
	}
}

// HandleDepositSubmitted processes one AMQP message. A record that no longer
// exists is acknowledged; any other failure is returned so the broker requeues it.
func (w *SyncWorker) HandleDepositSubmitted(ctx context.Context, msg *amqp.DepositSubmittedMessage) error {
	w.logger.InfoContext(ctx, "Processing deposit message",
		applog.FieldRecordID, msg.RecordID,
		"timestamp", msg.Timestamp)

	synced, err := w.storage.IsSynced(ctx, msg.RecordID)
	if errors.Is(err, records.ErrNotFound) {
		w.logger.WarnContext(ctx, "Deposit not found, dropping message", applog.FieldRecordID, msg.RecordID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("check sync state: %w", err)
	}
	if synced {
		w.logger.DebugContext(ctx, "Deposit already synced", applog.FieldRecordID, msg.RecordID)
		return nil
	}

	rec, err := w.storage.Get(ctx, msg.RecordID)
	if err != nil {
		return fmt.Errorf("get deposit from storage: %w", err)
	}

	return w.syncRecord(ctx, rec)
}

// ProcessPending mirrors up to one batch of unsynced records. It is the
// fallback for lost messages and runs on every sweep.
func (w *SyncWorker) ProcessPending(ctx context.Context) (int, error) {
	pending, err := w.storage.ListUnsynced(ctx, w.batchSize)
	if err != nil {
		return 0, fmt.Errorf("list pending deposits: %w", err)
	}
	if len(pending) == 0 {
		return 0, nil
	}

	w.logger.InfoContext(ctx, "Processing pending deposits", "count", len(pending))

	synced := 0
	for _, rec := range pending {
		if err := ctx.Err(); err != nil {
			return synced, err
		}
		if err := w.syncRecord(ctx, rec); err != nil {
			w.logger.ErrorContext(ctx, "Failed to sync deposit",
				applog.FieldRecordID, rec.ID,
				applog.FieldError, err)
			continue
		}
		synced++
	}
	return synced, nil
}

// StartupSyncCheck drains the backlog left by worker downtime, a few
// batches at a time.
func (w *SyncWorker) StartupSyncCheck(ctx context.Context) error {
	const maxBatches = 5

	total := 0
	for i := 0; i < maxBatches; i++ {
		n, err := w.ProcessPending(ctx)
		if err != nil {
			return fmt.Errorf("startup sync: %w", err)
		}
		total += n
		if n < w.batchSize {
			break
		}
	}

	if total == 0 {
		w.logger.InfoContext(ctx, "No pending deposits found on startup")
	} else {
		w.logger.InfoContext(ctx, "Startup sync completed", "synced", total)
	}
	return nil
}

func (w *SyncWorker) syncRecord(ctx context.Context, rec core.DepositRecord) error {
	ref, err := w.sheets.Append(ctx, rec)
	if err != nil {
		return fmt.Errorf("append to sheet: %w", err)
	}

	if err := w.storage.MarkSynced(ctx, rec.ID); err != nil {
		return fmt.Errorf("mark synced: %w", err)
	}

	w.logger.InfoContext(ctx, "Deposit synced to Google Sheets",
		applog.FieldRecordID, rec.ID,
		applog.FieldOperation, applog.OpSync,
		"row_ref", ref)
	return nil
}
