package quotations

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository is the pgx implementation of RepositoryPort.
type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const quotationColumns = `id, company_id, customer_id, doc_number, status, quote_date, valid_until, tax_percent, subtotal, tax_amount, total, notes, created_at, updated_at`

func scanQuotation(row pgx.Row) (Quotation, error) {
	var q Quotation
	err := row.Scan(&q.ID, &q.CompanyID, &q.CustomerID, &q.DocNumber, &q.Status, &q.QuoteDate,
		&q.ValidUntil, &q.TaxPercent, &q.Subtotal, &q.TaxAmount, &q.Total, &q.Notes, &q.CreatedAt, &q.UpdatedAt)
	return q, err
}

func (r *Repository) Insert(ctx context.Context, q Quotation) (Quotation, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return Quotation{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	const insertQ = `
		INSERT INTO quotations
			(company_id, customer_id, doc_number, status, quote_date, valid_until, tax_percent, subtotal, tax_amount, total, notes)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		RETURNING id, created_at, updated_at`
	err = tx.QueryRow(ctx, insertQ,
		q.CompanyID, q.CustomerID, q.DocNumber, string(q.Status), q.QuoteDate, q.ValidUntil,
		q.TaxPercent, q.Subtotal, q.TaxAmount, q.Total, q.Notes,
	).Scan(&q.ID, &q.CreatedAt, &q.UpdatedAt)
	if err != nil {
		return Quotation{}, err
	}
	if err := insertLines(ctx, tx, q.ID, q.Lines); err != nil {
		return Quotation{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return Quotation{}, err
	}
	for i := range q.Lines {
		q.Lines[i].QuotationID = q.ID
	}
	return q, nil
}

func (r *Repository) Update(ctx context.Context, q Quotation) (Quotation, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return Quotation{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	const updateQ = `
		UPDATE quotations
		SET valid_until = $1, tax_percent = $2, subtotal = $3, tax_amount = $4, total = $5, notes = $6, updated_at = NOW()
		WHERE company_id = $7 AND id = $8`
	tag, err := tx.Exec(ctx, updateQ,
		q.ValidUntil, q.TaxPercent, q.Subtotal, q.TaxAmount, q.Total, q.Notes, q.CompanyID, q.ID)
	if err != nil {
		return Quotation{}, err
	}
	if tag.RowsAffected() == 0 {
		return Quotation{}, ErrQuotationNotFound
	}
	if _, err := tx.Exec(ctx, `DELETE FROM quotation_lines WHERE quotation_id = $1`, q.ID); err != nil {
		return Quotation{}, err
	}
	if err := insertLines(ctx, tx, q.ID, q.Lines); err != nil {
		return Quotation{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return Quotation{}, err
	}
	return q, nil
}

func insertLines(ctx context.Context, tx pgx.Tx, quotationID int64, lines []Line) error {
	const q = `
		INSERT INTO quotation_lines (quotation_id, item_id, project_id, description, quantity, unit_price, discount_percent, line_total)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING id`
	for i := range lines {
		var itemID, projectID *int64
		if lines[i].ItemID != 0 {
			itemID = &lines[i].ItemID
		}
		if lines[i].ProjectID != 0 {
			projectID = &lines[i].ProjectID
		}
		err := tx.QueryRow(ctx, q, quotationID, itemID, projectID, lines[i].Description, lines[i].Quantity,
			lines[i].UnitPrice, lines[i].DiscountPercent, lines[i].LineTotal).Scan(&lines[i].ID)
		if err != nil {
			return err
		}
		lines[i].QuotationID = quotationID
	}
	return nil
}

func (r *Repository) Get(ctx context.Context, companyID, id int64) (Quotation, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+quotationColumns+` FROM quotations WHERE company_id = $1 AND id = $2`, companyID, id)
	q, err := scanQuotation(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Quotation{}, ErrQuotationNotFound
	}
	if err != nil {
		return Quotation{}, err
	}
	q.Lines, err = r.linesFor(ctx, q.ID)
	return q, err
}

func (r *Repository) ListByCompany(ctx context.Context, companyID int64) ([]Quotation, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+quotationColumns+` FROM quotations WHERE company_id = $1 ORDER BY quote_date DESC, id DESC`, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Quotation
	for rows.Next() {
		q, err := scanQuotation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, q)
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

func (r *Repository) SetStatus(ctx context.Context, companyID, id int64, status QuotationStatus) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE quotations SET status = $1, updated_at = NOW() WHERE company_id = $2 AND id = $3`,
		string(status), companyID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrQuotationNotFound
	}
	return nil
}

func (r *Repository) linesFor(ctx context.Context, quotationID int64) ([]Line, error) {
	const q = `
		SELECT id, quotation_id, COALESCE(item_id, 0), COALESCE(project_id, 0), description, quantity, unit_price, discount_percent, line_total
		FROM quotation_lines
		WHERE quotation_id = $1
		ORDER BY id`
	rows, err := r.pool.Query(ctx, q, quotationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lines []Line
	for rows.Next() {
		var l Line
		if err := rows.Scan(&l.ID, &l.QuotationID, &l.ItemID, &l.ProjectID, &l.Description, &l.Quantity, &l.UnitPrice, &l.DiscountPercent, &l.LineTotal); err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}
