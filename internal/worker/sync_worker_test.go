package worker

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"intake/internal/amqp"
	"intake/internal/core"
	applog "intake/internal/log"
	sheetsmem "intake/internal/sheets/memory"
	"intake/internal/storage"
)

func setup(t *testing.T, batch int) (*SyncWorker, *storage.SQLiteRepository, *sheetsmem.Store) {
	t.Helper()
	logger := applog.New(applog.Config{Output: io.Discard})
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "intake.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	sheet := sheetsmem.New()
	return NewSyncWorker(repo, sheet, batch, logger), repo, sheet
}

func create(t *testing.T, repo *storage.SQLiteRepository, name string) string {
	t.Helper()
	id, err := repo.Create(context.Background(), core.DepositRecord{FirstName: name, FullName: name})
	require.NoError(t, err)
	return id
}

func TestHandleDepositSubmitted(t *testing.T) {
	w, repo, sheet := setup(t, 10)
	ctx := context.Background()
	id := create(t, repo, "Ann")

	require.NoError(t, w.HandleDepositSubmitted(ctx, amqp.NewDepositSubmittedMessage(id)))
	require.Len(t, sheet.Records(), 1)
	assert.Equal(t, id, sheet.Records()[0].ID)

	synced, err := repo.IsSynced(ctx, id)
	require.NoError(t, err)
	assert.True(t, synced)

	// redelivery is a no-op
	require.NoError(t, w.HandleDepositSubmitted(ctx, amqp.NewDepositSubmittedMessage(id)))
	assert.Len(t, sheet.Records(), 1)
}

func TestHandleDepositSubmitted_UnknownRecordIsDropped(t *testing.T) {
	w, _, sheet := setup(t, 10)
	require.NoError(t, w.HandleDepositSubmitted(context.Background(), amqp.NewDepositSubmittedMessage("missing")))
	assert.Empty(t, sheet.Records())
}

func TestHandleDepositSubmitted_SheetFailureIsReturned(t *testing.T) {
	w, repo, sheet := setup(t, 10)
	ctx := context.Background()
	id := create(t, repo, "Ann")

	sheet.FailWith(errors.New("quota exceeded"))
	err := w.HandleDepositSubmitted(ctx, amqp.NewDepositSubmittedMessage(id))
	require.Error(t, err)

	synced, err := repo.IsSynced(ctx, id)
	require.NoError(t, err)
	assert.False(t, synced, "failed appends stay pending")
}

func TestProcessPending(t *testing.T) {
	w, repo, sheet := setup(t, 2)
	ctx := context.Background()
	for _, n := range []string{"A", "B", "C"} {
		create(t, repo, n)
	}

	n, err := w.ProcessPending(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = w.ProcessPending(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = w.ProcessPending(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.Len(t, sheet.Records(), 3)
}

func TestStartupSyncCheck(t *testing.T) {
	w, repo, sheet := setup(t, 2)
	for _, n := range []string{"A", "B", "C", "D", "E"} {
		create(t, repo, n)
	}

	require.NoError(t, w.StartupSyncCheck(context.Background()))
	assert.Len(t, sheet.Records(), 5)

	left, err := repo.CountUnsynced(context.Background())
	require.NoError(t, err)
	assert.Zero(t, left)
}
