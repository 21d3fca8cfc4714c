package purchasing

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	salesshared "github.com/vantage-books/vantage/internal/sales/shared"
	"github.com/vantage-books/vantage/internal/shared"
)

// PurchaseOrder is a supplier invoice. Creating one posts a PURCHASE
// journal entry; paying one posts a PAYMENT entry. Totals are derived from
// the lines on create and never trusted from input.
type PurchaseOrder struct {
	ID                 int64
	CompanyID          int64
	SupplierID         int64
	DocNumber          string
	InvoiceNo          string
	OrderDate          time.Time
	DueDate            *time.Time
	Subtotal           decimal.Decimal
	Freight            decimal.Decimal
	Tax                decimal.Decimal
	Total              decimal.Decimal
	AmountPaid         decimal.Decimal
	BalanceDue         decimal.Decimal
	PaymentAccountCode string
	Notes              string
	EntryID            int64
	Lines              []Line
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// Line is one purchased row. AccountCode is the expense or asset account
// the line total is debited to.
type Line struct {
	ID              int64
	OrderID         int64
	ItemID          int64
	ProjectID       int64
	AccountCode     string
	Description     string
	Quantity        int64
	UnitPrice       decimal.Decimal
	DiscountPercent decimal.Decimal
	LineTotal       decimal.Decimal
}

// CreateInput carries the fields to create a purchase order.
type CreateInput struct {
	CompanyID          int64
	SupplierID         int64
	InvoiceNo          string
	OrderDate          time.Time
	DueDate            *time.Time
	Freight            decimal.Decimal
	Tax                decimal.Decimal
	AmountPaid         decimal.Decimal
	PaymentAccountCode string
	AuthorID           *int64
	Notes              string
	Lines              []salesshared.LineItemInput
}

// PaymentInput pays down an existing order's balance.
type PaymentInput struct {
	CompanyID          int64
	OrderID            int64
	Amount             decimal.Decimal
	PaymentAccountCode string
	PaymentDate        time.Time
	AuthorID           *int64
}

var (
	ErrOrderNotFound         = fmt.Errorf("purchasing: purchase order %w", shared.ErrNotFound)
	ErrDuplicateInvoice      = fmt.Errorf("purchasing: supplier invoice number already used: %w", shared.ErrDuplicate)
	ErrMissingPaymentAccount = fmt.Errorf("purchasing: payment account required when paying: %w", shared.ErrValidation)
	ErrMissingLineAccount    = fmt.Errorf("purchasing: every line needs a target account code: %w", shared.ErrValidation)
	ErrConflict              = fmt.Errorf("purchasing: operation %w", shared.ErrConflict)
)

func (in CreateInput) Validate() error {
	if in.CompanyID == 0 {
		return fmt.Errorf("purchasing: company id required: %w", shared.ErrValidation)
	}
	if in.SupplierID == 0 {
		return fmt.Errorf("purchasing: supplier id required: %w", shared.ErrValidation)
	}
	if in.OrderDate.IsZero() {
		return fmt.Errorf("purchasing: order date required: %w", shared.ErrValidation)
	}
	if in.AmountPaid.IsPositive() && in.PaymentAccountCode == "" {
		return ErrMissingPaymentAccount
	}
	for _, line := range in.Lines {
		if line.AccountCode == "" {
			return ErrMissingLineAccount
		}
	}
	return nil
}

func (in PaymentInput) Validate() error {
	if in.CompanyID == 0 || in.OrderID == 0 {
		return fmt.Errorf("purchasing: company and order id required: %w", shared.ErrValidation)
	}
	if in.PaymentAccountCode == "" {
		return ErrMissingPaymentAccount
	}
	if in.PaymentDate.IsZero() {
		return fmt.Errorf("purchasing: payment date required: %w", shared.ErrValidation)
	}
	return nil
}
