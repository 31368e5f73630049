package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"
)

// Backend names accepted by DATA_BACKEND.
const (
	BackendMemory    = "memory"
	BackendSQLite    = "sqlite"
	BackendPostgres  = "postgres"
	BackendFirestore = "firestore"
)

// Auth provider names accepted by AUTH_PROVIDER.
const (
	AuthLocal    = "local"
	AuthFirebase = "firebase"
)

type Config struct {
	// HTTP Server
	Port string

	// Logging
	LogLevel  string
	LogFormat string

	// Backend selection
	DataBackend string

	// Stores
	SQLiteDBPath        string
	PostgresDSN         string
	FirebaseProjectID   string
	FirestoreCollection string

	// Google service account, shared by Firestore and Sheets
	GoogleCredentialsFile string
	GoogleCredentialsJSON string

	// Admin authentication
	AuthProvider      string
	FirebaseAPIKey    string
	AllowSelfRegister bool
	SessionSecret     string
	SessionTTL        time.Duration

	// Form sessions
	FormSessionTTL time.Duration
	FormSessionMax int

	// AMQP
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Google Sheets mirror
	GoogleSpreadsheetID string
	GoogleSheetName     string

	// Worker
	SyncBatchSize int
	SyncInterval  time.Duration

	// Export archive
	ExportS3Bucket    string
	ExportS3Region    string
	ExportS3Endpoint  string
	ExportS3AccessKey string
	ExportS3SecretKey string

	// Abuse control
	SubmitRatePerMinute int
}

func Load() *Config {
	cfg := &Config{
		Port: getEnv("PORT", "8080"),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),

		DataBackend: getEnv("DATA_BACKEND", BackendMemory),

		SQLiteDBPath:        getEnv("SQLITE_DB_PATH", "./data/intake.db"),
		PostgresDSN:         getEnv("POSTGRES_DSN", ""),
		FirebaseProjectID:   getEnv("FIREBASE_PROJECT_ID", ""),
		FirestoreCollection: getEnv("FIRESTORE_COLLECTION", "deposits"),

		GoogleCredentialsFile: getEnv("GOOGLE_APPLICATION_CREDENTIALS", ""),
		GoogleCredentialsJSON: getEnv("GOOGLE_SERVICE_ACCOUNT_JSON", ""),

		AuthProvider:      getEnv("AUTH_PROVIDER", AuthLocal),
		FirebaseAPIKey:    getEnv("FIREBASE_API_KEY", ""),
		AllowSelfRegister: getEnvBool("AUTH_ALLOW_SELF_REGISTER", true),
		SessionSecret:     getEnv("SESSION_SECRET", ""),
		SessionTTL:        getEnvDuration("SESSION_TTL", 12*time.Hour),

		FormSessionTTL: getEnvDuration("FORM_SESSION_TTL", 2*time.Hour),
		FormSessionMax: getEnvInt("FORM_SESSION_MAX", 10000),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "intake"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "deposit_submitted"),

		GoogleSpreadsheetID: getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleSheetName:     getEnv("GOOGLE_SHEET_NAME", "Deposits"),

		SyncBatchSize: getEnvInt("SYNC_BATCH_SIZE", 50),
		SyncInterval:  getEnvDuration("SYNC_INTERVAL", time.Minute),

		ExportS3Bucket:    getEnv("EXPORT_S3_BUCKET", ""),
		ExportS3Region:    getEnv("EXPORT_S3_REGION", "us-east-1"),
		ExportS3Endpoint:  getEnv("EXPORT_S3_ENDPOINT", ""),
		ExportS3AccessKey: getEnv("EXPORT_S3_ACCESS_KEY", ""),
		ExportS3SecretKey: getEnv("EXPORT_S3_SECRET_KEY", ""),

		SubmitRatePerMinute: getEnvInt("SUBMIT_RATE_PER_MINUTE", 30),
	}

	return cfg
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	// Validate port
	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	// Validate data backend
	validBackends := []string{BackendMemory, BackendSQLite, BackendPostgres, BackendFirestore}
	if !slices.Contains(validBackends, c.DataBackend) {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	// SQLite also backs local admin accounts
	if c.DataBackend == BackendSQLite || c.AuthProvider == AuthLocal {
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend or local auth")
		} else {
			dir := filepath.Dir(c.SQLiteDBPath)
			if dir != "." && dir != "" {
				if _, err := os.Stat(dir); os.IsNotExist(err) {
					if err := os.MkdirAll(dir, 0755); err != nil {
						errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
					}
				}
			}
		}
	}

	if c.DataBackend == BackendPostgres && c.PostgresDSN == "" {
		errors = append(errors, "POSTGRES_DSN is required when using postgres backend")
	}

	if c.DataBackend == BackendFirestore {
		if c.FirebaseProjectID == "" {
			errors = append(errors, "FIREBASE_PROJECT_ID is required when using firestore backend")
		}
		if c.FirestoreCollection == "" {
			errors = append(errors, "Firestore collection name cannot be empty")
		}
	}

	// Validate auth provider
	switch c.AuthProvider {
	case AuthLocal:
	case AuthFirebase:
		if c.FirebaseAPIKey == "" {
			errors = append(errors, "FIREBASE_API_KEY is required when using firebase auth")
		}
	default:
		errors = append(errors, fmt.Sprintf("invalid auth provider '%s': must be one of [%s %s]", c.AuthProvider, AuthLocal, AuthFirebase))
	}

	if c.SessionSecret != "" && len(c.SessionSecret) < 16 {
		errors = append(errors, "SESSION_SECRET must be at least 16 bytes")
	}
	if c.SessionTTL < time.Minute {
		errors = append(errors, fmt.Sprintf("invalid session TTL %v: must be at least 1 minute", c.SessionTTL))
	}

	if c.FormSessionTTL < time.Minute {
		errors = append(errors, fmt.Sprintf("invalid form session TTL %v: must be at least 1 minute", c.FormSessionTTL))
	}
	if c.FormSessionMax < 1 {
		errors = append(errors, fmt.Sprintf("invalid form session capacity %d: must be at least 1", c.FormSessionMax))
	}

	// Validate AMQP URL if provided
	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	// Validate worker configuration
	if c.SyncBatchSize < 1 {
		errors = append(errors, fmt.Sprintf("invalid sync batch size %d: must be at least 1", c.SyncBatchSize))
	} else if c.SyncBatchSize > 1000 {
		errors = append(errors, fmt.Sprintf("invalid sync batch size %d: must be at most 1000", c.SyncBatchSize))
	}

	if c.SyncInterval < time.Second {
		errors = append(errors, fmt.Sprintf("invalid sync interval %v: must be at least 1 second", c.SyncInterval))
	} else if c.SyncInterval > 24*time.Hour {
		errors = append(errors, fmt.Sprintf("invalid sync interval %v: must be at most 24 hours", c.SyncInterval))
	}

	if c.ExportS3Bucket != "" && c.ExportS3Region == "" {
		errors = append(errors, "EXPORT_S3_REGION is required when EXPORT_S3_BUCKET is set")
	}
	if c.ExportS3Endpoint != "" {
		if u, err := url.Parse(c.ExportS3Endpoint); err != nil || u.Scheme == "" || u.Host == "" {
			errors = append(errors, fmt.Sprintf("invalid S3 endpoint '%s': must be an absolute URL", c.ExportS3Endpoint))
		}
	}

	if c.SubmitRatePerMinute < 1 {
		errors = append(errors, fmt.Sprintf("invalid submit rate %d: must be at least 1 per minute", c.SubmitRatePerMinute))
	}

	// Return combined errors
	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

// ValidateWorker checks the extra settings the sync worker needs. Without
// GOOGLE_SPREADSHEET_ID the worker mirrors into memory.
func (c *Config) ValidateWorker() error {
	var errors []string
	if c.AMQPURL == "" {
		errors = append(errors, "AMQP_URL is required for the worker")
	}
	if c.GoogleSpreadsheetID != "" && c.GoogleSheetName == "" {
		errors = append(errors, "GOOGLE_SHEET_NAME cannot be empty")
	}
	if len(errors) > 0 {
		return fmt.Errorf("worker configuration invalid:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

// ExportArchiveEnabled reports whether exported workbooks are copied to S3.
func (c *Config) ExportArchiveEnabled() bool {
	return c.ExportS3Bucket != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
