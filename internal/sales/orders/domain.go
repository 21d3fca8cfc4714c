package orders

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	salesshared "github.com/vantage-books/vantage/internal/sales/shared"
	"github.com/vantage-books/vantage/internal/shared"
)

// SalesOrder is a customer invoice. Creating one posts a SALE journal
// entry crediting the revenue accounts; receiving payment posts a RECEIPT
// entry. Totals are derived from the lines on create.
type SalesOrder struct {
	ID                 int64
	CompanyID          int64
	CustomerID         int64
	DocNumber          string
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

// Line is one sold row. AccountCode is the revenue account the line total
// is credited to.
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

// CreateInput carries the fields to create a sales order.
type CreateInput struct {
	CompanyID          int64
	CustomerID         int64
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

// ReceiptInput records a customer payment against an open order.
type ReceiptInput struct {
	CompanyID          int64
	OrderID            int64
	Amount             decimal.Decimal
	PaymentAccountCode string
	PaymentDate        time.Time
	AuthorID           *int64
}

var (
	ErrOrderNotFound         = fmt.Errorf("orders: sales order %w", shared.ErrNotFound)
	ErrMissingPaymentAccount = fmt.Errorf("orders: payment account required when receiving money: %w", shared.ErrValidation)
	ErrMissingLineAccount    = fmt.Errorf("orders: every line needs a revenue account code: %w", shared.ErrValidation)
	ErrConflict              = fmt.Errorf("orders: operation %w", shared.ErrConflict)
)

func (in CreateInput) Validate() error {
	if in.CompanyID == 0 {
		return fmt.Errorf("orders: company id required: %w", shared.ErrValidation)
	}
	if in.CustomerID == 0 {
		return fmt.Errorf("orders: customer id required: %w", shared.ErrValidation)
	}
	if in.OrderDate.IsZero() {
		return fmt.Errorf("orders: order date required: %w", shared.ErrValidation)
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

func (in ReceiptInput) Validate() error {
	if in.CompanyID == 0 || in.OrderID == 0 {
		return fmt.Errorf("orders: company and order id required: %w", shared.ErrValidation)
	}
	if in.PaymentAccountCode == "" {
		return ErrMissingPaymentAccount
	}
	if in.PaymentDate.IsZero() {
		return fmt.Errorf("orders: payment date required: %w", shared.ErrValidation)
	}
	return nil
}
