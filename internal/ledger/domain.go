package ledger

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vantage-books/vantage/internal/shared"
)

// EntryType enumerates the business events that produce journal entries.
type EntryType string

const (
	EntryPurchase EntryType = "PURCHASE"
	EntrySale     EntryType = "SALE"
	EntryPayment  EntryType = "PAYMENT"
	EntryReceipt  EntryType = "RECEIPT"
	EntryManual   EntryType = "MANUAL"
)

// Entry is one balanced double-entry record. Entries are immutable once
// posted; there is no update or reversal path.
type Entry struct {
	ID          int64
	CompanyID   int64
	Type        EntryType
	Date        time.Time
	Title       string
	ReferenceNo string
	AuthorID    *int64
	Description string
	SourceID    uuid.UUID
	CreatedAt   time.Time
	Lines       []Line
}

// Line stores one side of a posting. Amount is always non-negative; the
// Debit flag selects the side.
type Line struct {
	ID          int64
	EntryID     int64
	AccountID   int64
	AccountCode string
	Amount      decimal.Decimal
	Debit       bool
	Description string
}

// LineInput describes a journal line in a posting request. Accounts are
// referenced by code within the posting company.
type LineInput struct {
	AccountCode string
	Amount      decimal.Decimal
	Debit       bool
	Description string
}

// PostingInput groups the fields required to post an entry.
type PostingInput struct {
	CompanyID   int64
	Type        EntryType
	Date        time.Time
	Title       string
	ReferenceNo string
	AuthorID    *int64
	Description string
	SourceID    uuid.UUID
	Lines       []LineInput
}

// Domain failures.
var (
	ErrCompanyNotFound = fmt.Errorf("ledger: company %w", shared.ErrNotFound)
	ErrAccountNotFound = fmt.Errorf("ledger: account %w", shared.ErrNotFound)
	ErrEntryNotFound   = fmt.Errorf("ledger: entry %w", shared.ErrNotFound)
	ErrTooFewLines     = fmt.Errorf("ledger: entry requires at least two lines: %w", shared.ErrValidation)
	ErrNegativeAmount  = fmt.Errorf("ledger: line amount must not be negative: %w", shared.ErrValidation)
	ErrConflict        = fmt.Errorf("ledger: posting %w", shared.ErrConflict)
)

// UnbalancedError reports a debit/credit mismatch with both totals.
type UnbalancedError struct {
	Debit  decimal.Decimal
	Credit decimal.Decimal
}

func (e *UnbalancedError) Error() string {
	return fmt.Sprintf("ledger: debits (%s) != credits (%s)", e.Debit.StringFixed(2), e.Credit.StringFixed(2))
}

// Unwrap lets callers match the validation taxonomy.
func (e *UnbalancedError) Unwrap() error { return shared.ErrValidation }

// NegativeBalanceError reports a delta that would push a non-liability
// account below zero.
type NegativeBalanceError struct {
	AccountCode string
	Balance     decimal.Decimal
}

func (e *NegativeBalanceError) Error() string {
	return fmt.Sprintf("ledger: account %s cannot go negative (would be %s)", e.AccountCode, e.Balance.StringFixed(2))
}

func (e *NegativeBalanceError) Unwrap() error { return shared.ErrValidation }

// Validate checks the input before any storage access. The debit/credit
// comparison is exact decimal equality at cent precision, no tolerance.
func (in PostingInput) Validate() error {
	if in.CompanyID == 0 {
		return fmt.Errorf("ledger: company id required: %w", shared.ErrValidation)
	}
	if len(in.Lines) < 2 {
		return ErrTooFewLines
	}
	debit, credit := decimal.Zero, decimal.Zero
	for idx, line := range in.Lines {
		if line.AccountCode == "" {
			return fmt.Errorf("ledger: line %d missing account code: %w", idx, shared.ErrValidation)
		}
		if line.Amount.IsNegative() {
			return ErrNegativeAmount
		}
		if line.Debit {
			debit = debit.Add(line.Amount)
		} else {
			credit = credit.Add(line.Amount)
		}
	}
	if !debit.Equal(credit) {
		return &UnbalancedError{Debit: debit, Credit: credit}
	}
	return nil
}
