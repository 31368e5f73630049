package backend

import (
	"context"

	"intake/internal/auth"
	"intake/internal/records"
)

// Backend is the record store the web server works against.
type Backend interface {
	records.Store
	records.Pinger
}

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// BackendResult contains the backend instance and optional cleanup function
type BackendResult struct {
	Backend Backend
	// Accounts is set when Config.LocalAccounts is true.
	Accounts auth.AccountStore
	Cleanup  CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	// CreateBackend creates a backend instance based on the provided config
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	// Backend type
	Type BackendType

	// SQLite specific; also used for local admin accounts
	SQLiteDBPath  string
	LocalAccounts bool

	// AMQP notification of new records (sqlite only)
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Postgres specific
	PostgresDSN string

	// Firestore specific
	FirebaseProjectID     string
	FirestoreCollection   string
	GoogleCredentialsFile string
	GoogleCredentialsJSON string
}

// BackendType represents the type of backend
type BackendType string

const (
	MemoryBackend    BackendType = "memory"
	SQLiteBackend    BackendType = "sqlite"
	PostgresBackend  BackendType = "postgres"
	FirestoreBackend BackendType = "firestore"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case MemoryBackend, SQLiteBackend, PostgresBackend, FirestoreBackend:
		return true
	default:
		return false
	}
}

// GetBackendTypes returns all valid backend types
func GetBackendTypes() []BackendType {
	return []BackendType{MemoryBackend, SQLiteBackend, PostgresBackend, FirestoreBackend}
}
