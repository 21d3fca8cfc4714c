package purchasing

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
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
	return numbering.NewService(r.tx).Next(ctx, companyID, numbering.DocPurchaseOrder, date)
}

func (r *txRepository) InvoiceNoExists(ctx context.Context, companyID int64, invoiceNo string) (bool, error) {
	var exists bool
	err := r.tx.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM purchase_orders WHERE company_id = $1 AND invoice_no = $2)`,
		companyID, invoiceNo).Scan(&exists)
	return exists, err
}

func (r *txRepository) Insert(ctx context.Context, po PurchaseOrder) (PurchaseOrder, error) {
	const q = `
		INSERT INTO purchase_orders
			(company_id, supplier_id, doc_number, invoice_no, order_date, due_date,
			 subtotal, freight, tax, total, amount_paid, balance_due, payment_account_code, notes, entry_id)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
		RETURNING id, created_at, updated_at`
	err := r.tx.QueryRow(ctx, q,
		po.CompanyID, po.SupplierID, po.DocNumber, nullable(po.InvoiceNo), po.OrderDate, po.DueDate,
		po.Subtotal, po.Freight, po.Tax, po.Total, po.AmountPaid, po.BalanceDue,
		nullable(po.PaymentAccountCode), po.Notes, po.EntryID,
	).Scan(&po.ID, &po.CreatedAt, &po.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.ConstraintName == "uq_purchase_orders_company_invoice" {
			return PurchaseOrder{}, ErrDuplicateInvoice
		}
		return PurchaseOrder{}, err
	}
	const lineQ = `
		INSERT INTO purchase_order_lines
			(order_id, item_id, project_id, account_code, description, quantity, unit_price, discount_percent, line_total)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		RETURNING id`
	for i := range po.Lines {
		var itemID, projectID *int64
		if po.Lines[i].ItemID != 0 {
			itemID = &po.Lines[i].ItemID
		}
		if po.Lines[i].ProjectID != 0 {
			projectID = &po.Lines[i].ProjectID
		}
		err := r.tx.QueryRow(ctx, lineQ, po.ID, itemID, projectID, po.Lines[i].AccountCode, po.Lines[i].Description,
			po.Lines[i].Quantity, po.Lines[i].UnitPrice, po.Lines[i].DiscountPercent, po.Lines[i].LineTotal,
		).Scan(&po.Lines[i].ID)
		if err != nil {
			return PurchaseOrder{}, err
		}
		po.Lines[i].OrderID = po.ID
	}
	return po, nil
}

const orderColumns = `id, company_id, supplier_id, doc_number, COALESCE(invoice_no, ''), order_date, due_date, subtotal, freight, tax, total, amount_paid, balance_due, COALESCE(payment_account_code, ''), notes, entry_id, created_at, updated_at`

func scanOrder(row pgx.Row) (PurchaseOrder, error) {
	var po PurchaseOrder
	err := row.Scan(&po.ID, &po.CompanyID, &po.SupplierID, &po.DocNumber, &po.InvoiceNo, &po.OrderDate, &po.DueDate,
		&po.Subtotal, &po.Freight, &po.Tax, &po.Total, &po.AmountPaid, &po.BalanceDue,
		&po.PaymentAccountCode, &po.Notes, &po.EntryID, &po.CreatedAt, &po.UpdatedAt)
	return po, err
}

func (r *txRepository) GetForUpdate(ctx context.Context, companyID, id int64) (PurchaseOrder, error) {
	row := r.tx.QueryRow(ctx,
		`SELECT `+orderColumns+` FROM purchase_orders WHERE company_id = $1 AND id = $2 FOR UPDATE`,
		companyID, id)
	po, err := scanOrder(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return PurchaseOrder{}, ErrOrderNotFound
	}
	return po, err
}

func (r *txRepository) UpdatePayment(ctx context.Context, id int64, amountPaid, balanceDue decimal.Decimal, entryID int64) error {
	_, err := r.tx.Exec(ctx,
		`UPDATE purchase_orders SET amount_paid = $1, balance_due = $2, updated_at = NOW() WHERE id = $3`,
		amountPaid, balanceDue, id)
	return err
}

func (r *Repository) Get(ctx context.Context, companyID, id int64) (PurchaseOrder, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+orderColumns+` FROM purchase_orders WHERE company_id = $1 AND id = $2`, companyID, id)
	po, err := scanOrder(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return PurchaseOrder{}, ErrOrderNotFound
	}
	if err != nil {
		return PurchaseOrder{}, err
	}
	po.Lines, err = r.linesFor(ctx, po.ID)
	return po, err
}

func (r *Repository) ListByCompany(ctx context.Context, companyID int64) ([]PurchaseOrder, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+orderColumns+` FROM purchase_orders WHERE company_id = $1 ORDER BY order_date DESC, id DESC`, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []PurchaseOrder
	for rows.Next() {
		po, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, po)
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
		FROM purchase_order_lines
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
