package notify

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists notifications.
type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) Insert(ctx context.Context, n Notification) (Notification, error) {
	const q = `
		INSERT INTO notifications (company_id, event, subject, body, read, created_at)
		VALUES ($1,$2,$3,$4,false,$5)
		RETURNING id`
	err := r.pool.QueryRow(ctx, q, n.CompanyID, n.Event, n.Subject, n.Body, n.CreatedAt).Scan(&n.ID)
	if err != nil {
		return Notification{}, err
	}
	return n, nil
}

func (r *Repository) ListByCompany(ctx context.Context, companyID int64) ([]Notification, error) {
	const q = `
		SELECT id, company_id, event, subject, body, read, created_at, dispatched_at
		FROM notifications
		WHERE company_id = $1
		ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, q, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Notification
	for rows.Next() {
		var n Notification
		if err := rows.Scan(&n.ID, &n.CompanyID, &n.Event, &n.Subject, &n.Body, &n.Read, &n.CreatedAt, &n.DispatchedAt); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (r *Repository) MarkRead(ctx context.Context, companyID, id int64) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE notifications SET read = true WHERE company_id = $1 AND id = $2`, companyID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotificationNotFound
	}
	return nil
}

// MarkDispatched is a no-op when the row is gone or already stamped, so a
// redelivered task stays idempotent.
func (r *Repository) MarkDispatched(ctx context.Context, id int64) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE notifications SET dispatched_at = now() WHERE id = $1 AND dispatched_at IS NULL`, id)
	return err
}
