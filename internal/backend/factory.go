package backend

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/api/option"

	"intake/internal/adapters"
	"intake/internal/amqp"
	"intake/internal/firestore"
	applog "intake/internal/log"
	"intake/internal/postgres"
	"intake/internal/records/memory"
	"intake/internal/services"
	"intake/internal/storage"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *applog.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *applog.Logger) Factory {
	return &DefaultFactory{
		logger: logger.WithComponent(applog.ComponentBackend),
	}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var (
		result *BackendResult
		repo   *storage.SQLiteRepository
		err    error
	)
	switch config.Type {
	case SQLiteBackend:
		result, repo, err = f.createSQLiteBackend(config)
	case PostgresBackend:
		result, err = f.createPostgresBackend(ctx, config)
	case FirestoreBackend:
		result, err = f.createFirestoreBackend(ctx, config)
	case MemoryBackend:
		result, err = f.createMemoryBackend()
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
	if err != nil {
		return nil, err
	}

	if config.LocalAccounts {
		if repo == nil {
			repo, err = storage.NewSQLiteRepository(config.SQLiteDBPath, f.logger)
			if err != nil {
				result.close()
				return nil, fmt.Errorf("failed to open account store: %w", err)
			}
			result.addCleanup(repo.Close)
		}
		result.Accounts = repo
		f.logger.Info("Local admin accounts enabled", "db_path", config.SQLiteDBPath)
	}

	return result, nil
}

func (r *BackendResult) addCleanup(fn CleanupFunc) {
	prev := r.Cleanup
	if prev == nil {
		r.Cleanup = fn
		return
	}
	r.Cleanup = func() error {
		return errors.Join(fn(), prev())
	}
}

func (r *BackendResult) close() {
	if r.Cleanup != nil {
		r.Cleanup()
	}
}

func (f *DefaultFactory) createSQLiteBackend(config Config) (*BackendResult, *storage.SQLiteRepository, error) {
	sqliteRepo, err := storage.NewSQLiteRepository(config.SQLiteDBPath, f.logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}

	result := &BackendResult{Cleanup: sqliteRepo.Close}

	// AMQP is optional; without it the worker's sweep still mirrors records.
	var publisher services.Publisher
	if config.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue, f.logger)
		if err != nil {
			f.logger.Warn("Failed to initialize AMQP client, continuing without notifications", applog.FieldError, err)
		} else {
			f.logger.Info("Initialized AMQP client",
				"exchange", config.AMQPExchange,
				"queue", config.AMQPQueue)
			publisher = amqpClient
			result.addCleanup(amqpClient.Close)
		}
	}

	depositService := services.NewDepositService(sqliteRepo, publisher, f.logger)
	result.Backend = adapters.NewPublishingStore(depositService, sqliteRepo)

	f.logger.Info("Initialized SQLite backend",
		"db_path", config.SQLiteDBPath,
		"amqp_enabled", publisher != nil)

	return result, sqliteRepo, nil
}

func (f *DefaultFactory) createPostgresBackend(ctx context.Context, config Config) (*BackendResult, error) {
	db, store, err := postgres.Open(ctx, config.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Postgres store: %w", err)
	}

	f.logger.Info("Initialized Postgres backend")

	return &BackendResult{
		Backend: store,
		Cleanup: db.Close,
	}, nil
}

func (f *DefaultFactory) createFirestoreBackend(ctx context.Context, config Config) (*BackendResult, error) {
	var opts []option.ClientOption
	switch {
	case config.GoogleCredentialsJSON != "":
		opts = append(opts, option.WithCredentialsJSON([]byte(config.GoogleCredentialsJSON)))
	case config.GoogleCredentialsFile != "":
		opts = append(opts, option.WithCredentialsFile(config.GoogleCredentialsFile))
	}

	store, err := firestore.New(ctx, config.FirebaseProjectID, config.FirestoreCollection, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Firestore store: %w", err)
	}

	f.logger.Info("Initialized Firestore backend",
		"project_id", config.FirebaseProjectID,
		"collection", config.FirestoreCollection)

	return &BackendResult{
		Backend: store,
		Cleanup: store.Close,
	}, nil
}

func (f *DefaultFactory) createMemoryBackend() (*BackendResult, error) {
	f.logger.Info("Initialized memory backend")

	return &BackendResult{
		Backend: memory.New(),
		Cleanup: nil, // No cleanup needed for memory backend
	}, nil
}
