package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"intake/internal/auth"
	"intake/internal/core"
	applog "intake/internal/log"
	"intake/internal/records"

	_ "modernc.org/sqlite"
)

// SQLiteRepository stores deposit records, their sheet-sync bookkeeping and
// local admin accounts in one SQLite file.
type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
	logger  *applog.Logger
	now     func() time.Time
}

func NewSQLiteRepository(dbPath string, logger *applog.Logger) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dsn(dbPath))
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// One writer per process. Other processes (the sync worker) wait out
	// the busy timeout instead of failing.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	version, err := RunMigrations(dbPath)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	logger = logger.WithComponent(applog.ComponentStorage)
	logger.Debug("SQLite schema ready", "path", dbPath, "schema_version", version)

	return &SQLiteRepository{
		db:      db,
		queries: New(db),
		logger:  logger,
		now:     time.Now,
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Create implements records.Writer.
func (r *SQLiteRepository) Create(ctx context.Context, rec core.DepositRecord) (string, error) {
	rec = records.Stamp(rec, r.now())
	if err := r.queries.CreateDeposit(ctx, toRow(rec)); err != nil {
		return "", fmt.Errorf("create deposit: %w", err)
	}

	r.logger.DebugContext(ctx, "Deposit saved to SQLite",
		applog.FieldRecordID, rec.ID,
		applog.FieldDepositType, rec.DepositType)

	return rec.ID, nil
}

// ListAll implements records.Lister.
func (r *SQLiteRepository) ListAll(ctx context.Context) ([]core.DepositRecord, error) {
	rows, err := r.queries.ListDeposits(ctx)
	if err != nil {
		return nil, fmt.Errorf("list deposits: %w", err)
	}
	return fromRows(rows), nil
}

// Get implements records.Getter.
func (r *SQLiteRepository) Get(ctx context.Context, id string) (core.DepositRecord, error) {
	row, err := r.queries.GetDeposit(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return core.DepositRecord{}, records.ErrNotFound
	}
	if err != nil {
		return core.DepositRecord{}, fmt.Errorf("get deposit %s: %w", id, err)
	}
	return fromRow(row), nil
}

// ListUnsynced returns up to limit records not yet mirrored, oldest first.
func (r *SQLiteRepository) ListUnsynced(ctx context.Context, limit int) ([]core.DepositRecord, error) {
	rows, err := r.queries.ListUnsyncedDeposits(ctx, int64(limit))
	if err != nil {
		return nil, fmt.Errorf("list unsynced deposits: %w", err)
	}
	return fromRows(rows), nil
}

// CountUnsynced returns how many records still await mirroring.
func (r *SQLiteRepository) CountUnsynced(ctx context.Context) (int, error) {
	n, err := r.queries.CountUnsyncedDeposits(ctx)
	if err != nil {
		return 0, fmt.Errorf("count unsynced deposits: %w", err)
	}
	return int(n), nil
}

// IsSynced reports whether the deposit was already mirrored.
func (r *SQLiteRepository) IsSynced(ctx context.Context, id string) (bool, error) {
	row, err := r.queries.GetDeposit(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return false, records.ErrNotFound
	}
	if err != nil {
		return false, fmt.Errorf("get deposit %s: %w", id, err)
	}
	return row.SyncedAt.Valid, nil
}

// MarkSynced records that a deposit was mirrored.
func (r *SQLiteRepository) MarkSynced(ctx context.Context, id string) error {
	n, err := r.queries.MarkDepositSynced(ctx, id, r.now().UTC().UnixNano())
	if err != nil {
		return fmt.Errorf("mark deposit synced: %w", err)
	}
	if n == 0 {
		return records.ErrNotFound
	}

	r.logger.DebugContext(ctx, "Deposit marked as synced", applog.FieldRecordID, id)
	return nil
}

// CreateAccount implements auth.AccountStore.
func (r *SQLiteRepository) CreateAccount(ctx context.Context, a auth.Account) error {
	if a.CreatedAt.IsZero() {
		a.CreatedAt = r.now()
	}
	err := r.queries.CreateAdminAccount(ctx, AdminAccount{
		ID:           a.ID,
		Email:        strings.ToLower(strings.TrimSpace(a.Email)),
		PasswordHash: a.PasswordHash,
		Salt:         a.Salt,
		CreatedAt:    a.CreatedAt.UTC().UnixNano(),
	})
	if err != nil {
		if isUniqueViolation(err) {
			return auth.ErrAccountExists
		}
		return fmt.Errorf("create admin account: %w", err)
	}
	return nil
}

// AccountByEmail implements auth.AccountStore.
func (r *SQLiteRepository) AccountByEmail(ctx context.Context, email string) (auth.Account, error) {
	row, err := r.queries.GetAdminAccountByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if errors.Is(err, sql.ErrNoRows) {
		return auth.Account{}, auth.ErrAccountNotFound
	}
	if err != nil {
		return auth.Account{}, fmt.Errorf("get admin account: %w", err)
	}
	return auth.Account{
		ID:           row.ID,
		Email:        row.Email,
		PasswordHash: row.PasswordHash,
		Salt:         row.Salt,
		CreatedAt:    time.Unix(0, row.CreatedAt).UTC(),
	}, nil
}

func isUniqueViolation(err error) bool {
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func toRow(rec core.DepositRecord) Deposit {
	d := Deposit{
		ID:             rec.ID,
		FullName:       rec.FullName,
		FirstName:      rec.FirstName,
		MiddleName:     rec.MiddleName,
		LastName:       rec.LastName,
		MobileNo:       rec.MobileNo,
		Email:          rec.Email,
		DepositType:    rec.DepositType,
		AccountNo:      rec.AccountNo,
		Amount:         nullFloat(rec.Amount),
		ReturnedAmount: nullFloat(rec.ReturnedAmount),
		IsAnonymous:    rec.IsAnonymous,
		CreatedAt:      rec.CreatedAt.UTC().UnixNano(),
	}
	if rec.DepositDate != nil {
		d.DepositDate = sql.NullString{String: *rec.DepositDate, Valid: true}
	}
	return d
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func floatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

func fromRow(d Deposit) core.DepositRecord {
	created := time.Unix(0, d.CreatedAt).UTC()
	rec := core.DepositRecord{
		ID:             d.ID,
		FullName:       d.FullName,
		FirstName:      d.FirstName,
		MiddleName:     d.MiddleName,
		LastName:       d.LastName,
		MobileNo:       d.MobileNo,
		Email:          d.Email,
		DepositType:    d.DepositType,
		AccountNo:      d.AccountNo,
		Amount:         floatPtr(d.Amount),
		ReturnedAmount: floatPtr(d.ReturnedAmount),
		IsAnonymous:    d.IsAnonymous,
		CreatedAt:      &created,
	}
	if d.DepositDate.Valid {
		s := d.DepositDate.String
		rec.DepositDate = &s
	}
	return rec
}

func fromRows(rows []Deposit) []core.DepositRecord {
	out := make([]core.DepositRecord, len(rows))
	for i, d := range rows {
		out[i] = fromRow(d)
	}
	return out
}
