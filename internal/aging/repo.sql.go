package aging

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists snapshots in aging_snapshots.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository returns a Repository using pool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const snapshotColumns = `id, company_id, side, party_id, party_name, document_no, amount, issue_date, due_date, bucket, recorded_at`

func scanSnapshot(row pgx.Row) (Snapshot, error) {
	var s Snapshot
	err := row.Scan(&s.ID, &s.CompanyID, &s.Side, &s.PartyID, &s.PartyName, &s.DocumentNo,
		&s.Amount, &s.IssueDate, &s.DueDate, &s.Bucket, &s.RecordedAt)
	return s, err
}

// Insert appends one snapshot.
func (r *Repository) Insert(ctx context.Context, snap Snapshot) (Snapshot, error) {
	const q = `
		INSERT INTO aging_snapshots
			(company_id, side, party_id, party_name, document_no, amount, issue_date, due_date, bucket, recorded_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		RETURNING id`
	err := r.pool.QueryRow(ctx, q,
		snap.CompanyID, string(snap.Side), snap.PartyID, snap.PartyName, snap.DocumentNo,
		snap.Amount, snap.IssueDate, snap.DueDate, string(snap.Bucket), snap.RecordedAt,
	).Scan(&snap.ID)
	if err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}

// LatestByCompany returns the most recent snapshot per document for one
// side of the ledger.
func (r *Repository) LatestByCompany(ctx context.Context, companyID int64, side Side) ([]Snapshot, error) {
	const q = `
		SELECT DISTINCT ON (document_no) ` + snapshotColumns + `
		FROM aging_snapshots
		WHERE company_id = $1 AND side = $2
		ORDER BY document_no, recorded_at DESC`
	return r.query(ctx, q, companyID, string(side))
}

// ListByParty returns all snapshots for one party, newest first.
func (r *Repository) ListByParty(ctx context.Context, companyID int64, side Side, partyID int64) ([]Snapshot, error) {
	const q = `
		SELECT ` + snapshotColumns + `
		FROM aging_snapshots
		WHERE company_id = $1 AND side = $2 AND party_id = $3
		ORDER BY recorded_at DESC`
	return r.query(ctx, q, companyID, string(side), partyID)
}

// CompaniesWithSnapshots lists every company that has at least one
// snapshot on either side.
func (r *Repository) CompaniesWithSnapshots(ctx context.Context) ([]int64, error) {
	rows, err := r.pool.Query(ctx, `SELECT DISTINCT company_id FROM aging_snapshots ORDER BY company_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func (r *Repository) query(ctx context.Context, q string, args ...any) ([]Snapshot, error) {
	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Snapshot
	for rows.Next() {
		s, err := scanSnapshot(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
