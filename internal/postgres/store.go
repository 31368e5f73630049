// Package postgres is a deposit record store on PostgreSQL through the pgx
// database/sql driver, with schema managed by goose.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"intake/internal/core"
	"intake/internal/postgres/migrations"
	"intake/internal/records"
)

// DBTX is satisfied by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
	QueryContext(context.Context, string, ...any) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...any) *sql.Row
	PingContext(context.Context) error
}

type Store struct {
	db  DBTX
	now func() time.Time
}

func NewStore(db DBTX) *Store {
	return &Store{db: db, now: time.Now}
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// RunMigrations applies the embedded migrations.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("pgx"); err != nil {
		return fmt.Errorf("goose dialect: %w", err)
	}
	if err := gooseUpContext(ctx, db, "."); err != nil {
		return fmt.Errorf("goose up: %w", err)
	}
	return nil
}

// Open connects to dsn, checks the connection and migrates the schema.
func Open(ctx context.Context, dsn string) (*sql.DB, *Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("db open error: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("db ping error: %w", err)
	}
	if err := RunMigrations(ctx, db); err != nil {
		db.Close()
		return nil, nil, err
	}
	return db, NewStore(db), nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Create implements records.Writer.
func (s *Store) Create(ctx context.Context, r core.DepositRecord) (string, error) {
	r = records.Stamp(r, s.now())

	query :=
		`INSERT INTO deposits (id, full_name, first_name, middle_name, last_name, mobile_no, email,
		 deposit_type, deposit_date, account_no, amount, returned_amount, is_anonymous, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

	_, err := s.db.ExecContext(ctx, query,
		r.ID, r.FullName, r.FirstName, r.MiddleName, r.LastName, r.MobileNo, r.Email,
		r.DepositType, nullString(r.DepositDate), r.AccountNo, nullFloat(r.Amount), nullFloat(r.ReturnedAmount),
		r.IsAnonymous, *r.CreatedAt)
	if err != nil {
		return "", fmt.Errorf("db error: %w", err)
	}
	return r.ID, nil
}

const selectColumns = `SELECT id, full_name, first_name, middle_name, last_name, mobile_no, email,
	 deposit_type, to_char(deposit_date, 'YYYY-MM-DD'), account_no, amount, returned_amount,
	 is_anonymous, created_at
	 FROM deposits`

// ListAll implements records.Lister.
func (s *Store) ListAll(ctx context.Context) ([]core.DepositRecord, error) {
	rows, err := s.db.QueryContext(ctx, selectColumns+` ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var out []core.DepositRecord
	for rows.Next() {
		r, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}

// Get implements records.Getter.
func (s *Store) Get(ctx context.Context, id string) (core.DepositRecord, error) {
	r, err := scan(s.db.QueryRowContext(ctx, selectColumns+` WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.DepositRecord{}, records.ErrNotFound
		}
		return core.DepositRecord{}, fmt.Errorf("db error: %w", err)
	}
	return r, nil
}

func scan(sc interface{ Scan(...any) error }) (core.DepositRecord, error) {
	var (
		r       core.DepositRecord
		date     sql.NullString
		amount   sql.NullFloat64
		returned sql.NullFloat64
		created  time.Time
	)
	err := sc.Scan(&r.ID, &r.FullName, &r.FirstName, &r.MiddleName, &r.LastName, &r.MobileNo, &r.Email,
		&r.DepositType, &date, &r.AccountNo, &amount, &returned, &r.IsAnonymous, &created)
	if err != nil {
		return core.DepositRecord{}, err
	}
	if date.Valid {
		r.DepositDate = &date.String
	}
	if amount.Valid {
		r.Amount = &amount.Float64
	}
	if returned.Valid {
		r.ReturnedAmount = &returned.Float64
	}
	created = created.UTC()
	r.CreatedAt = &created
	return r, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}
