package quotations

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	salesshared "github.com/vantage-books/vantage/internal/sales/shared"
	"github.com/vantage-books/vantage/internal/shared"
)

// QuotationStatus is the lifecycle state of a quotation. Any transition is
// accepted; some trigger notifications.
type QuotationStatus string

const (
	StatusDraft    QuotationStatus = "DRAFT"
	StatusSent     QuotationStatus = "SENT"
	StatusAccepted QuotationStatus = "ACCEPTED"
	StatusRejected QuotationStatus = "REJECTED"
	StatusExpired  QuotationStatus = "EXPIRED"
)

// Valid reports whether s is a known status.
func (s QuotationStatus) Valid() bool {
	switch s {
	case StatusDraft, StatusSent, StatusAccepted, StatusRejected, StatusExpired:
		return true
	}
	return false
}

// Quotation is a priced offer to a customer. Quotations never touch the
// ledger; they only carry derived totals and a status.
type Quotation struct {
	ID         int64
	CompanyID  int64
	CustomerID int64
	DocNumber  string
	Status     QuotationStatus
	QuoteDate  time.Time
	ValidUntil *time.Time
	TaxPercent decimal.Decimal
	Subtotal   decimal.Decimal
	TaxAmount  decimal.Decimal
	Total      decimal.Decimal
	Notes      string
	Lines      []Line
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Line is one priced quotation row.
type Line struct {
	ID              int64
	QuotationID     int64
	ItemID          int64
	ProjectID       int64
	Description     string
	Quantity        int64
	UnitPrice       decimal.Decimal
	DiscountPercent decimal.Decimal
	LineTotal       decimal.Decimal
}

// CreateInput carries the fields to create a quotation.
type CreateInput struct {
	CompanyID  int64
	CustomerID int64
	QuoteDate  time.Time
	ValidUntil *time.Time
	TaxPercent decimal.Decimal
	Notes      string
	Lines      []salesshared.LineItemInput
}

// UpdateInput replaces the mutable fields of a draft. Totals are always
// recomputed from the lines.
type UpdateInput struct {
	ValidUntil *time.Time
	TaxPercent decimal.Decimal
	Notes      string
	Lines      []salesshared.LineItemInput
}

var (
	ErrQuotationNotFound = fmt.Errorf("quotations: quotation %w", shared.ErrNotFound)
	ErrInvalidStatus     = fmt.Errorf("quotations: invalid status: %w", shared.ErrValidation)
)

func (in CreateInput) Validate() error {
	if in.CompanyID == 0 {
		return fmt.Errorf("quotations: company id required: %w", shared.ErrValidation)
	}
	if in.CustomerID == 0 {
		return fmt.Errorf("quotations: customer id required: %w", shared.ErrValidation)
	}
	if in.QuoteDate.IsZero() {
		return fmt.Errorf("quotations: quote date required: %w", shared.ErrValidation)
	}
	return nil
}
