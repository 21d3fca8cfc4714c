package treasury

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vantage-books/vantage/internal/shared"
)

// TransactionType is the direction of a free-standing money movement.
type TransactionType string

const (
	TypeSpend   TransactionType = "SPEND"
	TypeReceive TransactionType = "RECEIVE"
)

// MoneyTransaction moves money between a bank account and a charge
// account without a backing document. SPEND debits the charge account and
// credits the bank; RECEIVE is the mirror image.
type MoneyTransaction struct {
	ID                int64
	CompanyID         int64
	DocNumber         string
	Type              TransactionType
	BankAccountCode   string
	ChargeAccountCode string
	Amount            decimal.Decimal
	Date              time.Time
	Description       string
	EntryID           int64
	CreatedAt         time.Time
}

// CreateInput carries the fields to record a transaction.
type CreateInput struct {
	CompanyID         int64
	Type              TransactionType
	BankAccountCode   string
	ChargeAccountCode string
	Amount            decimal.Decimal
	Date              time.Time
	Description       string
	AuthorID          *int64
}

// ListFilter narrows a company's transaction listing. Zero values mean
// no constraint.
type ListFilter struct {
	Type TransactionType
	From *time.Time
	To   *time.Time
}

var (
	ErrTransactionNotFound = fmt.Errorf("treasury: transaction %w", shared.ErrNotFound)
	ErrInvalidType         = fmt.Errorf("treasury: type must be SPEND or RECEIVE: %w", shared.ErrValidation)
	ErrNotBankAccount      = fmt.Errorf("treasury: account is not a bank account: %w", shared.ErrValidation)
	ErrNonPositiveAmount   = fmt.Errorf("treasury: amount must be positive: %w", shared.ErrValidation)
	ErrConflict            = fmt.Errorf("treasury: operation %w", shared.ErrConflict)
)

func (in CreateInput) Validate() error {
	if in.CompanyID == 0 {
		return fmt.Errorf("treasury: company id required: %w", shared.ErrValidation)
	}
	if in.Type != TypeSpend && in.Type != TypeReceive {
		return ErrInvalidType
	}
	if in.BankAccountCode == "" || in.ChargeAccountCode == "" {
		return fmt.Errorf("treasury: bank and charge account codes required: %w", shared.ErrValidation)
	}
	if !in.Amount.IsPositive() {
		return ErrNonPositiveAmount
	}
	if in.Date.IsZero() {
		return fmt.Errorf("treasury: date required: %w", shared.ErrValidation)
	}
	return nil
}
