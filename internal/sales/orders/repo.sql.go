package orders

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

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

// WithTx runs fn inside one repeatable-read transaction covering the
// order, its journal entry and the affected account balances.
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
	return numbering.NewService(r.tx).Next(ctx, companyID, numbering.DocSalesOrder, date)
}

func (r *txRepository) Insert(ctx context.Context, so SalesOrder) (SalesOrder, error) {
	const q = `
		INSERT INTO sales_orders
			(company_id, customer_id, doc_number, order_date, due_date,
			 subtotal, freight, tax, total, amount_paid, balance_due, payment_account_code, notes, entry_id)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
		RETURNING id, created_at, updated_at`
	err := r.tx.QueryRow(ctx, q,
		so.CompanyID, so.CustomerID, so.DocNumber, so.OrderDate, so.DueDate,
		so.Subtotal, so.Freight, so.Tax, so.Total, so.AmountPaid, so.BalanceDue,
		nullable(so.PaymentAccountCode), so.Notes, so.EntryID,
	).Scan(&so.ID, &so.CreatedAt, &so.UpdatedAt)
	if err != nil {
		return SalesOrder{}, err
	}
	const lineQ = `
		INSERT INTO sales_order_lines
			(order_id, item_id, project_id, account_code, description, quantity, unit_price, discount_percent, line_total)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		RETURNING id`
	for i := range so.Lines {
		var itemID, projectID *int64
		if so.Lines[i].ItemID != 0 {
			itemID = &so.Lines[i].ItemID
		}
		if so.Lines[i].ProjectID != 0 {
			projectID = &so.Lines[i].ProjectID
		}
		err := r.tx.QueryRow(ctx, lineQ, so.ID, itemID, projectID, so.Lines[i].AccountCode, so.Lines[i].Description,
			so.Lines[i].Quantity, so.Lines[i].UnitPrice, so.Lines[i].DiscountPercent, so.Lines[i].LineTotal,
		).Scan(&so.Lines[i].ID)
		if err != nil {
			return SalesOrder{}, err
		}
		so.Lines[i].OrderID = so.ID
	}
	return so, nil
}

const orderColumns = `id, company_id, customer_id, doc_number, order_date, due_date, subtotal, freight, tax, total, amount_paid, balance_due, COALESCE(payment_account_code, ''), notes, entry_id, created_at, updated_at`

func scanOrder(row pgx.Row) (SalesOrder, error) {
	var so SalesOrder
	err := row.Scan(&so.ID, &so.CompanyID, &so.CustomerID, &so.DocNumber, &so.OrderDate, &so.DueDate,
		&so.Subtotal, &so.Freight, &so.Tax, &so.Total, &so.AmountPaid, &so.BalanceDue,
		&so.PaymentAccountCode, &so.Notes, &so.EntryID, &so.CreatedAt, &so.UpdatedAt)
	return so, err
}

func (r *txRepository) GetForUpdate(ctx context.Context, companyID, id int64) (SalesOrder, error) {
	row := r.tx.QueryRow(ctx,
		`SELECT `+orderColumns+` FROM sales_orders WHERE company_id = $1 AND id = $2 FOR UPDATE`,
		companyID, id)
	so, err := scanOrder(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return SalesOrder{}, ErrOrderNotFound
	}
	return so, err
}

func (r *txRepository) UpdatePayment(ctx context.Context, id int64, amountPaid, balanceDue decimal.Decimal, entryID int64) error {
	_, err := r.tx.Exec(ctx,
		`UPDATE sales_orders SET amount_paid = $1, balance_due = $2, updated_at = NOW() WHERE id = $3`,
		amountPaid, balanceDue, id)
	return err
}

func (r *Repository) Get(ctx context.Context, companyID, id int64) (SalesOrder, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+orderColumns+` FROM sales_orders WHERE company_id = $1 AND id = $2`, companyID, id)
	so, err := scanOrder(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return SalesOrder{}, ErrOrderNotFound
	}
	if err != nil {
		return SalesOrder{}, err
	}
	so.Lines, err = r.linesFor(ctx, so.ID)
	return so, err
}

func (r *Repository) ListByCompany(ctx context.Context, companyID int64) ([]SalesOrder, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+orderColumns+` FROM sales_orders WHERE company_id = $1 ORDER BY order_date DESC, id DESC`, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SalesOrder
	for rows.Next() {
		so, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, so)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range out {
		out[i].Lines, err = r.linesFor(ctx, out[i].ID)
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (r *Repository) linesFor(ctx context.Context, orderID int64) ([]Line, error) {
	const q = `
		SELECT id, order_id, COALESCE(item_id, 0), COALESCE(project_id, 0), account_code, description, quantity, unit_price, discount_percent, line_total
		FROM sales_order_lines
		WHERE order_id = $1
		ORDER BY id`
	rows, err := r.pool.Query(ctx, q, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lines []Line
	for rows.Next() {
		var l Line
		if err := rows.Scan(&l.ID, &l.OrderID, &l.ItemID, &l.ProjectID, &l.AccountCode, &l.Description, &l.Quantity, &l.UnitPrice, &l.DiscountPercent, &l.LineTotal); err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
