package treasury

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vantage-books/vantage/internal/ledger"
	"github.com/vantage-books/vantage/internal/numbering"
	"github.com/vantage-books/vantage/internal/platform/db"
)

// Repository is the pgx implementation of RepositoryPort.
type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
}

type txRepository struct {
	tx pgx.Tx
}

func (r *txRepository) Ledger() ledger.TxRepository {
	return ledger.NewTxRepository(r.tx)
}

func (r *txRepository) NextDocNumber(ctx context.Context, companyID int64, date time.Time) (string, error) {
	return numbering.NewService(r.tx).Next(ctx, companyID, numbering.DocMoneyTransaction, date)
}

func (r *txRepository) Insert(ctx context.Context, mt MoneyTransaction) (MoneyTransaction, error) {
	const q = `
		INSERT INTO money_transactions
			(company_id, doc_number, type, bank_account_code, charge_account_code, amount, tx_date, description, entry_id)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		RETURNING id, created_at`
	err := r.tx.QueryRow(ctx, q,
		mt.CompanyID, mt.DocNumber, string(mt.Type), mt.BankAccountCode, mt.ChargeAccountCode,
		mt.Amount, mt.Date, mt.Description, mt.EntryID,
	).Scan(&mt.ID, &mt.CreatedAt)
	if err != nil {
		return MoneyTransaction{}, err
	}
	return mt, nil
}

const txColumns = `id, company_id, doc_number, type, bank_account_code, charge_account_code, amount, tx_date, description, entry_id, created_at`

func scanTransaction(row pgx.Row) (MoneyTransaction, error) {
	var mt MoneyTransaction
	err := row.Scan(&mt.ID, &mt.CompanyID, &mt.DocNumber, &mt.Type, &mt.BankAccountCode,
		&mt.ChargeAccountCode, &mt.Amount, &mt.Date, &mt.Description, &mt.EntryID, &mt.CreatedAt)
	return mt, err
}

func (r *Repository) Get(ctx context.Context, companyID, id int64) (MoneyTransaction, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+txColumns+` FROM money_transactions WHERE company_id = $1 AND id = $2`, companyID, id)
	mt, err := scanTransaction(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return MoneyTransaction{}, ErrTransactionNotFound
	}
	return mt, err
}

func (r *Repository) ListByCompany(ctx context.Context, companyID int64, f ListFilter) ([]MoneyTransaction, error) {
	q := `SELECT ` + txColumns + ` FROM money_transactions WHERE company_id = $1`
	args := []any{companyID}
	if f.Type != "" {
		args = append(args, string(f.Type))
		q += fmt.Sprintf(" AND type = $%d", len(args))
	}
	if f.From != nil {
		args = append(args, *f.From)
		q += fmt.Sprintf(" AND tx_date >= $%d", len(args))
	}
	if f.To != nil {
		args = append(args, *f.To)
		q += fmt.Sprintf(" AND tx_date <= $%d", len(args))
	}
	q += " ORDER BY tx_date DESC, id DESC"
	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []MoneyTransaction
	for rows.Next() {
		mt, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, mt)
	}
	return out, rows.Err()
}
