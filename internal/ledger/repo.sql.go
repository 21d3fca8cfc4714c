package ledger

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/vantage-books/vantage/internal/accounts"
	"github.com/vantage-books/vantage/internal/platform/db"
)

// TxRepository exposes the storage operations Post needs inside one
// transaction.
type TxRepository interface {
	CompanyExists(ctx context.Context, companyID int64) (bool, error)
	GetAccountForUpdate(ctx context.Context, companyID int64, code string) (accounts.Account, error)
	InsertEntry(ctx context.Context, in PostingInput) (Entry, error)
	InsertLines(ctx context.Context, entryID int64, lines []LineInput, resolved map[string]*accounts.Account) ([]Line, error)
	UpdateAccountBalance(ctx context.Context, accountID int64, balance decimal.Decimal, version int64) error
}

// Repository is the pgx implementation backed by a pool.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository returns a Repository using pool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// WithTx runs fn inside a repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
}

// NewTxRepository wraps an open transaction so document repositories can
// post journal entries inside their own transaction boundary.
func NewTxRepository(tx pgx.Tx) TxRepository {
	return &txRepository{tx: tx}
}

type txRepository struct {
	tx pgx.Tx
}

func (r *txRepository) CompanyExists(ctx context.Context, companyID int64) (bool, error) {
	var exists bool
	err := r.tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM companies WHERE id = $1)`, companyID).Scan(&exists)
	return exists, err
}

func (r *txRepository) GetAccountForUpdate(ctx context.Context, companyID int64, code string) (accounts.Account, error) {
	const q = `
		SELECT id, company_id, code, type, kind, balance, version
		FROM accounts
		WHERE company_id = $1 AND code = $2
		FOR UPDATE`
	var acc accounts.Account
	err := r.tx.QueryRow(ctx, q, companyID, code).
		Scan(&acc.ID, &acc.CompanyID, &acc.Code, &acc.Type, &acc.Kind, &acc.Balance, &acc.Version)
	if errors.Is(err, pgx.ErrNoRows) {
		return accounts.Account{}, ErrAccountNotFound
	}
	return acc, err
}

func (r *txRepository) InsertEntry(ctx context.Context, in PostingInput) (Entry, error) {
	const q = `
		INSERT INTO journal_entries (company_id, type, entry_date, title, reference_no, author_id, description, source_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at`
	entry := Entry{
		CompanyID:   in.CompanyID,
		Type:        in.Type,
		Date:        in.Date,
		Title:       in.Title,
		ReferenceNo: in.ReferenceNo,
		AuthorID:    in.AuthorID,
		Description: in.Description,
		SourceID:    in.SourceID,
	}
	err := r.tx.QueryRow(ctx, q, in.CompanyID, in.Type, in.Date, in.Title, in.ReferenceNo, in.AuthorID, in.Description, in.SourceID).
		Scan(&entry.ID, &entry.CreatedAt)
	if err != nil {
		return Entry{}, err
	}
	return entry, nil
}

func (r *txRepository) InsertLines(ctx context.Context, entryID int64, lines []LineInput, resolved map[string]*accounts.Account) ([]Line, error) {
	const q = `
		INSERT INTO journal_lines (entry_id, account_id, amount, is_debit, description)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`
	out := make([]Line, 0, len(lines))
	for _, in := range lines {
		acc := resolved[in.AccountCode]
		line := Line{
			EntryID:     entryID,
			AccountID:   acc.ID,
			AccountCode: acc.Code,
			Amount:      in.Amount,
			Debit:       in.Debit,
			Description: in.Description,
		}
		if err := r.tx.QueryRow(ctx, q, entryID, acc.ID, in.Amount, in.Debit, in.Description).Scan(&line.ID); err != nil {
			return nil, err
		}
		out = append(out, line)
	}
	return out, nil
}

func (r *txRepository) UpdateAccountBalance(ctx context.Context, accountID int64, balance decimal.Decimal, version int64) error {
	tag, err := r.tx.Exec(ctx, `UPDATE accounts SET balance = $1, version = version + 1, updated_at = NOW() WHERE id = $2 AND version = $3`, balance, accountID, version)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrConflict
	}
	return nil
}

const entryColumns = `id, company_id, type, entry_date, title, reference_no, author_id, description, source_id, created_at`

func scanEntry(row pgx.Row) (Entry, error) {
	var e Entry
	err := row.Scan(&e.ID, &e.CompanyID, &e.Type, &e.Date, &e.Title, &e.ReferenceNo, &e.AuthorID, &e.Description, &e.SourceID, &e.CreatedAt)
	return e, err
}

// Get loads one entry with its lines.
func (r *Repository) Get(ctx context.Context, companyID, entryID int64) (Entry, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+entryColumns+` FROM journal_entries WHERE company_id = $1 AND id = $2`, companyID, entryID)
	entry, err := scanEntry(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Entry{}, ErrEntryNotFound
	}
	if err != nil {
		return Entry{}, err
	}
	entry.Lines, err = r.linesFor(ctx, entry.ID)
	return entry, err
}

// ListByCompany returns entries newest first, lines included.
func (r *Repository) ListByCompany(ctx context.Context, companyID int64) ([]Entry, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+entryColumns+` FROM journal_entries WHERE company_id = $1 ORDER BY entry_date DESC, id DESC`, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range entries {
		entries[i].Lines, err = r.linesFor(ctx, entries[i].ID)
		if err != nil {
			return nil, err
		}
	}
	return entries, nil
}

func (r *Repository) linesFor(ctx context.Context, entryID int64) ([]Line, error) {
	const q = `
		SELECT l.id, l.entry_id, l.account_id, a.code, l.amount, l.is_debit, l.description
		FROM journal_lines l
		JOIN accounts a ON a.id = l.account_id
		WHERE l.entry_id = $1
		ORDER BY l.id`
	rows, err := r.pool.Query(ctx, q, entryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lines []Line
	for rows.Next() {
		var l Line
		if err := rows.Scan(&l.ID, &l.EntryID, &l.AccountID, &l.AccountCode, &l.Amount, &l.Debit, &l.Description); err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}
