package aging

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vantage-books/vantage/internal/shared"
)

// Side separates payable (supplier) from receivable (customer) snapshots.
type Side string

const (
	SidePayable    Side = "PAYABLE"
	SideReceivable Side = "RECEIVABLE"
)

// Bucket labels follow the standard 30-day aging bands.
type Bucket string

const (
	BucketCurrent Bucket = "0-30"
	BucketThirty  Bucket = "31-60"
	BucketSixty   Bucket = "61-90"
	BucketNinety  Bucket = "91+"
)

// Snapshot is one append-only record of an open balance at a point in time.
// Snapshots are never updated or deleted; history is reconstructed by
// reading the latest snapshot per document.
type Snapshot struct {
	ID         int64
	CompanyID  int64
	Side       Side
	PartyID    int64
	PartyName  string
	DocumentNo string
	Amount     decimal.Decimal
	IssueDate  time.Time
	DueDate    *time.Time
	Bucket     Bucket
	RecordedAt time.Time
}

// SnapshotInput carries the fields Record needs.
type SnapshotInput struct {
	CompanyID  int64
	Side       Side
	PartyID    int64
	PartyName  string
	DocumentNo string
	Amount     decimal.Decimal
	IssueDate  time.Time
	DueDate    *time.Time
}

// AgedRow is one party's open balance split across buckets.
type AgedRow struct {
	PartyID   int64           `json:"partyId"`
	PartyName string          `json:"partyName"`
	Current   decimal.Decimal `json:"current"`
	Thirty    decimal.Decimal `json:"days31to60"`
	Sixty     decimal.Decimal `json:"days61to90"`
	Ninety    decimal.Decimal `json:"days91plus"`
	Total     decimal.Decimal `json:"total"`
}

var (
	ErrInvalidSide      = fmt.Errorf("aging: invalid side: %w", shared.ErrValidation)
	ErrNonPositive      = fmt.Errorf("aging: amount must be positive: %w", shared.ErrValidation)
	ErrMissingParty     = fmt.Errorf("aging: party required: %w", shared.ErrValidation)
	ErrMissingDocument  = fmt.Errorf("aging: document number required: %w", shared.ErrValidation)
	ErrCompanyNotFound  = fmt.Errorf("aging: company %w", shared.ErrNotFound)
	ErrSnapshotNotFound = fmt.Errorf("aging: snapshot %w", shared.ErrNotFound)
)

// Validate rejects structurally broken inputs before storage access.
func (in SnapshotInput) Validate() error {
	if in.Side != SidePayable && in.Side != SideReceivable {
		return ErrInvalidSide
	}
	if !in.Amount.IsPositive() {
		return ErrNonPositive
	}
	if in.PartyID == 0 {
		return ErrMissingParty
	}
	if in.DocumentNo == "" {
		return ErrMissingDocument
	}
	return nil
}

// ComputeBucket classifies an open balance by days outstanding as of today.
// Age counts from the due date; documents without one age from issue date.
func ComputeBucket(today time.Time, issueDate time.Time, dueDate *time.Time) Bucket {
	anchor := issueDate
	if dueDate != nil {
		anchor = *dueDate
	}
	days := int(today.Sub(anchor).Hours() / 24)
	switch {
	case days <= 30:
		return BucketCurrent
	case days <= 60:
		return BucketThirty
	case days <= 90:
		return BucketSixty
	default:
		return BucketNinety
	}
}
