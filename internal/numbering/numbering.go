// Package numbering allocates document numbers from an atomic per-company
// counter table. Numbers are unique per (company, document type) and never
// reused; gaps may appear when a surrounding transaction rolls back.
package numbering

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DocType identifies a numbered document family.
type DocType string

const (
	DocPurchaseOrder    DocType = "PO"
	DocSalesOrder       DocType = "SO"
	DocQuotation        DocType = "QT"
	DocMoneyTransaction DocType = "MT"
)

// global period for counters that never reset.
const periodAll = "ALL"

type dbtx interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	Query(context.Context, string, ...any) (pgx.Rows, error)
	QueryRow(context.Context, string, ...any) pgx.Row
}

// Service formats document numbers backed by the document_sequences table.
// It runs against either a pool or an open transaction, so callers can
// allocate a number inside the same transaction that persists the document.
type Service struct {
	db dbtx
}

// NewService returns a Service bound to db, which may be a *pgxpool.Pool or
// a pgx.Tx.
func NewService(db dbtx) *Service {
	return &Service{db: db}
}

// WithTx returns a copy of the service bound to tx.
func (s *Service) WithTx(tx pgx.Tx) *Service {
	return &Service{db: tx}
}

// Next allocates and formats the next number for the document type.
// Purchase and sales orders count monotonically forever; quotations and
// money transactions embed the issue year and restart at 1 each year.
func (s *Service) Next(ctx context.Context, companyID int64, docType DocType, date time.Time) (string, error) {
	period := periodAll
	switch docType {
	case DocQuotation, DocMoneyTransaction:
		period = strconv.Itoa(date.Year())
	}
	seq, err := s.nextSeq(ctx, companyID, docType, period)
	if err != nil {
		return "", fmt.Errorf("numbering: next %s: %w", docType, err)
	}
	return Format(docType, date, seq), nil
}

func (s *Service) nextSeq(ctx context.Context, companyID int64, docType DocType, period string) (int64, error) {
	var seq int64
	err := s.db.QueryRow(ctx, `
		INSERT INTO document_sequences (company_id, doc_type, period, seq)
		VALUES ($1, $2, $3, 1)
		ON CONFLICT (company_id, doc_type, period)
		DO UPDATE SET seq = document_sequences.seq + 1
		RETURNING seq
	`, companyID, string(docType), period).Scan(&seq)
	return seq, err
}

// Format renders a sequence value as the document number for its type.
func Format(docType DocType, date time.Time, seq int64) string {
	switch docType {
	case DocPurchaseOrder:
		return fmt.Sprintf("PO-%08d", seq)
	case DocSalesOrder:
		return fmt.Sprintf("SO-%08d", seq)
	case DocQuotation:
		return fmt.Sprintf("QT-%d-%04d", date.Year(), seq)
	case DocMoneyTransaction:
		return fmt.Sprintf("MT-%d-%04d", date.Year(), seq)
	}
	return fmt.Sprintf("%s-%d", docType, seq)
}
