package storage

import (
	"context"
	"database/sql"
)

// DBTX is satisfied by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
	QueryContext(context.Context, string, ...any) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...any) *sql.Row
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type Queries struct {
	db DBTX
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

// Deposit is one row of the deposits table.
type Deposit struct {
	ID             string
	FullName       string
	FirstName      string
	MiddleName     string
	LastName       string
	MobileNo       string
	Email          string
	DepositType    string
	DepositDate    sql.NullString
	AccountNo      string
	Amount         sql.NullFloat64
	ReturnedAmount sql.NullFloat64
	IsAnonymous    bool
	CreatedAt      int64
	SyncedAt       sql.NullInt64
}

const depositColumns = `id, full_name, first_name, middle_name, last_name, mobile_no, email,
	deposit_type, deposit_date, account_no, amount, returned_amount, is_anonymous,
	created_at, synced_at`

func scanDeposit(sc interface{ Scan(...any) error }) (Deposit, error) {
	var d Deposit
	err := sc.Scan(
		&d.ID, &d.FullName, &d.FirstName, &d.MiddleName, &d.LastName, &d.MobileNo, &d.Email,
		&d.DepositType, &d.DepositDate, &d.AccountNo, &d.Amount, &d.ReturnedAmount, &d.IsAnonymous,
		&d.CreatedAt, &d.SyncedAt,
	)
	return d, err
}

func collectDeposits(rows *sql.Rows) ([]Deposit, error) {
	defer rows.Close()
	var items []Deposit
	for rows.Next() {
		d, err := scanDeposit(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, d)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const createDeposit = `INSERT INTO deposits (` + depositColumns + `)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, NULL)`

func (q *Queries) CreateDeposit(ctx context.Context, d Deposit) error {
	_, err := q.db.ExecContext(ctx, createDeposit,
		d.ID, d.FullName, d.FirstName, d.MiddleName, d.LastName, d.MobileNo, d.Email,
		d.DepositType, d.DepositDate, d.AccountNo, d.Amount, d.ReturnedAmount, d.IsAnonymous,
		d.CreatedAt,
	)
	return err
}

const getDeposit = `SELECT ` + depositColumns + ` FROM deposits WHERE id = ?`

func (q *Queries) GetDeposit(ctx context.Context, id string) (Deposit, error) {
	return scanDeposit(q.db.QueryRowContext(ctx, getDeposit, id))
}

const listDeposits = `SELECT ` + depositColumns + ` FROM deposits ORDER BY created_at DESC, id`

func (q *Queries) ListDeposits(ctx context.Context) ([]Deposit, error) {
	rows, err := q.db.QueryContext(ctx, listDeposits)
	if err != nil {
		return nil, err
	}
	return collectDeposits(rows)
}

const listUnsyncedDeposits = `SELECT ` + depositColumns + ` FROM deposits
WHERE synced_at IS NULL
ORDER BY created_at ASC
LIMIT ?`

func (q *Queries) ListUnsyncedDeposits(ctx context.Context, limit int64) ([]Deposit, error) {
	rows, err := q.db.QueryContext(ctx, listUnsyncedDeposits, limit)
	if err != nil {
		return nil, err
	}
	return collectDeposits(rows)
}

const markDepositSynced = `UPDATE deposits SET synced_at = ? WHERE id = ?`

func (q *Queries) MarkDepositSynced(ctx context.Context, id string, at int64) (int64, error) {
	res, err := q.db.ExecContext(ctx, markDepositSynced, at, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const countUnsyncedDeposits = `SELECT COUNT(*) FROM deposits WHERE synced_at IS NULL`

func (q *Queries) CountUnsyncedDeposits(ctx context.Context) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, countUnsyncedDeposits).Scan(&n)
	return n, err
}

// AdminAccount is one row of the admin_accounts table.
type AdminAccount struct {
	ID           string
	Email        string
	PasswordHash []byte
	Salt         []byte
	CreatedAt    int64
}

const createAdminAccount = `INSERT INTO admin_accounts (id, email, password_hash, salt, created_at)
VALUES (?, ?, ?, ?, ?)`

func (q *Queries) CreateAdminAccount(ctx context.Context, a AdminAccount) error {
	_, err := q.db.ExecContext(ctx, createAdminAccount, a.ID, a.Email, a.PasswordHash, a.Salt, a.CreatedAt)
	return err
}

const getAdminAccountByEmail = `SELECT id, email, password_hash, salt, created_at
FROM admin_accounts WHERE email = ?`

func (q *Queries) GetAdminAccountByEmail(ctx context.Context, email string) (AdminAccount, error) {
	var a AdminAccount
	err := q.db.QueryRowContext(ctx, getAdminAccountByEmail, email).
		Scan(&a.ID, &a.Email, &a.PasswordHash, &a.Salt, &a.CreatedAt)
	return a, err
}
