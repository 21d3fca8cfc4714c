package accounts

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vantage-books/vantage/internal/platform/db"
)

// Repository persists accounts.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// TxRepository exposes transactional operations.
type TxRepository interface {
	CompanyExists(ctx context.Context, companyID int64) (bool, error)
	CodeExists(ctx context.Context, companyID int64, code string) (bool, error)
	NameExists(ctx context.Context, companyID int64, normName, normSub string) (bool, error)
	CountInCategory(ctx context.Context, companyID int64, types []AccountType, excludedCodes []string) (int64, error)
	Insert(ctx context.Context, a Account) (Account, error)
}

type txRepository struct {
	tx pgx.Tx
}

// NewTxRepository wraps an open transaction so other packages can seed
// accounts inside their own transactional work.
func NewTxRepository(tx pgx.Tx) TxRepository {
	return &txRepository{tx: tx}
}

// WithTx executes fn within a repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	if r == nil {
		return errors.New("accounts repository not initialised")
	}
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
}

func (r *txRepository) CompanyExists(ctx context.Context, companyID int64) (bool, error) {
	var ok bool
	err := r.tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM companies WHERE id=$1)`, companyID).Scan(&ok)
	return ok, err
}

func (r *txRepository) CodeExists(ctx context.Context, companyID int64, code string) (bool, error) {
	var ok bool
	err := r.tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM accounts WHERE company_id=$1 AND code=$2)`, companyID, code).Scan(&ok)
	return ok, err
}

func (r *txRepository) NameExists(ctx context.Context, companyID int64, normName, normSub string) (bool, error) {
	var ok bool
	err := r.tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM accounts WHERE company_id=$1 AND normalized_name=$2 AND normalized_sub_name=$3)`,
		companyID, normName, normSub).Scan(&ok)
	return ok, err
}

func (r *txRepository) CountInCategory(ctx context.Context, companyID int64, types []AccountType, excludedCodes []string) (int64, error) {
	typeNames := make([]string, 0, len(types))
	for _, t := range types {
		typeNames = append(typeNames, string(t))
	}
	if excludedCodes == nil {
		excludedCodes = []string{}
	}
	var count int64
	err := r.tx.QueryRow(ctx, `SELECT COUNT(*) FROM accounts WHERE company_id=$1 AND type = ANY($2) AND NOT (code = ANY($3))`,
		companyID, typeNames, excludedCodes).Scan(&count)
	return count, err
}

func (r *txRepository) Insert(ctx context.Context, a Account) (Account, error) {
	var bankName, branchName, accountNumber *string
	if a.Bank != nil {
		bankName, branchName, accountNumber = &a.Bank.BankName, &a.Bank.BranchName, &a.Bank.AccountNumber
	}
	row := r.tx.QueryRow(ctx, `INSERT INTO accounts
 (company_id, name, sub_name, normalized_name, normalized_sub_name, type, code, kind, bank_name, branch_name, account_number, balance, version)
 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,1)
 RETURNING id, version, created_at, updated_at`,
		a.CompanyID, a.Name, a.SubName, a.NormalizedName, a.NormalizedSubName, string(a.Type), a.Code, string(a.Kind),
		bankName, branchName, accountNumber, a.Balance)
	if err := row.Scan(&a.ID, &a.Version, &a.CreatedAt, &a.UpdatedAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.ConstraintName {
			case "uq_accounts_company_code":
				return Account{}, ErrDuplicateCode
			case "uq_accounts_company_name":
				return Account{}, ErrDuplicateName
			}
		}
		return Account{}, err
	}
	return a, nil
}

const accountColumns = `id, company_id, name, sub_name, normalized_name, normalized_sub_name, type, code, kind, bank_name, branch_name, account_number, balance, version, created_at, updated_at`

func scanAccount(row pgx.Row) (Account, error) {
	var a Account
	var bankName, branchName, accountNumber *string
	err := row.Scan(&a.ID, &a.CompanyID, &a.Name, &a.SubName, &a.NormalizedName, &a.NormalizedSubName,
		&a.Type, &a.Code, &a.Kind, &bankName, &branchName, &accountNumber, &a.Balance, &a.Version, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return Account{}, err
	}
	if bankName != nil {
		a.Bank = &BankDetails{BankName: *bankName}
		if branchName != nil {
			a.Bank.BranchName = *branchName
		}
		if accountNumber != nil {
			a.Bank.AccountNumber = *accountNumber
		}
	}
	return a, nil
}

// GetByCode fetches one account by (company, code).
func (r *Repository) GetByCode(ctx context.Context, companyID int64, code string) (Account, error) {
	a, err := scanAccount(r.pool.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE company_id=$1 AND code=$2`, companyID, code))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Account{}, ErrAccountNotFound
		}
		return Account{}, err
	}
	return a, nil
}

// ListByCompany returns the chart of accounts ordered by code.
func (r *Repository) ListByCompany(ctx context.Context, companyID int64) ([]Account, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE company_id=$1 ORDER BY code`, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
