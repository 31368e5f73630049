package backend

import (
	"fmt"

	"intake/internal/config"
)

// FromAppConfig converts the application config to backend config
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}

	backendType := BackendType(appConfig.DataBackend)
	if !backendType.IsValid() {
		return Config{}, fmt.Errorf("invalid backend type in config: %s", appConfig.DataBackend)
	}

	return Config{
		Type: backendType,

		SQLiteDBPath:  appConfig.SQLiteDBPath,
		LocalAccounts: appConfig.AuthProvider == config.AuthLocal,

		AMQPURL:      appConfig.AMQPURL,
		AMQPExchange: appConfig.AMQPExchange,
		AMQPQueue:    appConfig.AMQPQueue,

		PostgresDSN: appConfig.PostgresDSN,

		FirebaseProjectID:     appConfig.FirebaseProjectID,
		FirestoreCollection:   appConfig.FirestoreCollection,
		GoogleCredentialsFile: appConfig.GoogleCredentialsFile,
		GoogleCredentialsJSON: appConfig.GoogleCredentialsJSON,
	}, nil
}

// Validate validates the backend configuration
func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid backend type: %s", c.Type)
	}

	if (c.Type == SQLiteBackend || c.LocalAccounts) && c.SQLiteDBPath == "" {
		return fmt.Errorf("SQLite database path is required for sqlite backend or local accounts")
	}

	switch c.Type {
	case PostgresBackend:
		if c.PostgresDSN == "" {
			return fmt.Errorf("Postgres DSN is required for postgres backend")
		}
	case FirestoreBackend:
		if c.FirebaseProjectID == "" {
			return fmt.Errorf("Firebase project ID is required for firestore backend")
		}
		if c.FirestoreCollection == "" {
			return fmt.Errorf("Firestore collection is required for firestore backend")
		}
	case MemoryBackend, SQLiteBackend:
	}

	return nil
}
