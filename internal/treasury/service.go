package treasury

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/vantage-books/vantage/internal/accounts"
	"github.com/vantage-books/vantage/internal/ledger"
	"github.com/vantage-books/vantage/internal/platform/db"
)

const maxAttempts = 3

// TxRepository is the per-transaction storage surface.
type TxRepository interface {
	Ledger() ledger.TxRepository
	NextDocNumber(ctx context.Context, companyID int64, date time.Time) (string, error)
	Insert(ctx context.Context, mt MoneyTransaction) (MoneyTransaction, error)
}

// RepositoryPort abstracts money-transaction storage.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	Get(ctx context.Context, companyID, id int64) (MoneyTransaction, error)
	ListByCompany(ctx context.Context, companyID int64, f ListFilter) ([]MoneyTransaction, error)
}

// AccountDirectory resolves accounts for kind validation.
type AccountDirectory interface {
	FindByCode(ctx context.Context, companyID int64, code string) (accounts.Account, error)
}

// Poster posts journal entries inside the caller's transaction.
type Poster interface {
	PostTx(ctx context.Context, tx ledger.TxRepository, in ledger.PostingInput) (ledger.Entry, error)
}

// Service records free-standing money movements.
type Service struct {
	repo     RepositoryPort
	accounts AccountDirectory
	poster   Poster
}

func NewService(repo RepositoryPort, accounts AccountDirectory, poster Poster) *Service {
	return &Service{repo: repo, accounts: accounts, poster: poster}
}

// Create validates the bank account, allocates an MT number and posts the
// movement atomically with the stored transaction.
func (s *Service) Create(ctx context.Context, in CreateInput) (MoneyTransaction, error) {
	if err := in.Validate(); err != nil {
		return MoneyTransaction{}, err
	}
	bank, err := s.accounts.FindByCode(ctx, in.CompanyID, in.BankAccountCode)
	if err != nil {
		return MoneyTransaction{}, err
	}
	if bank.Kind != accounts.KindBank {
		return MoneyTransaction{}, ErrNotBankAccount
	}
	if _, err := s.accounts.FindByCode(ctx, in.CompanyID, in.ChargeAccountCode); err != nil {
		return MoneyTransaction{}, err
	}

	var stored MoneyTransaction
	post := func(ctx context.Context, tx TxRepository) error {
		docNumber, err := tx.NextDocNumber(ctx, in.CompanyID, in.Date)
		if err != nil {
			return err
		}
		posting := ledger.PostingInput{
			CompanyID:   in.CompanyID,
			Date:        in.Date,
			ReferenceNo: docNumber,
			AuthorID:    in.AuthorID,
			Description: in.Description,
			SourceID:    uuid.New(),
		}
		switch in.Type {
		case TypeSpend:
			posting.Type = ledger.EntryPayment
			posting.Title = fmt.Sprintf("Money spent %s", docNumber)
			posting.Lines = []ledger.LineInput{
				{AccountCode: in.ChargeAccountCode, Amount: in.Amount, Debit: true},
				{AccountCode: in.BankAccountCode, Amount: in.Amount, Debit: false},
			}
		case TypeReceive:
			posting.Type = ledger.EntryReceipt
			posting.Title = fmt.Sprintf("Money received %s", docNumber)
			posting.Lines = []ledger.LineInput{
				{AccountCode: in.BankAccountCode, Amount: in.Amount, Debit: true},
				{AccountCode: in.ChargeAccountCode, Amount: in.Amount, Debit: false},
			}
		}
		entry, err := s.poster.PostTx(ctx, tx.Ledger(), posting)
		if err != nil {
			return err
		}
		stored, err = tx.Insert(ctx, MoneyTransaction{
			CompanyID:         in.CompanyID,
			DocNumber:         docNumber,
			Type:              in.Type,
			BankAccountCode:   in.BankAccountCode,
			ChargeAccountCode: in.ChargeAccountCode,
			Amount:            in.Amount,
			Date:              in.Date,
			Description:       in.Description,
			EntryID:           entry.ID,
		})
		return err
	}

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		lastErr = s.repo.WithTx(ctx, post)
		if lastErr == nil || !db.IsRetryable(lastErr) {
			break
		}
	}
	if lastErr != nil {
		if db.IsRetryable(lastErr) {
			return MoneyTransaction{}, ErrConflict
		}
		return MoneyTransaction{}, lastErr
	}
	return stored, nil
}

// Get loads one transaction.
func (s *Service) Get(ctx context.Context, companyID, id int64) (MoneyTransaction, error) {
	return s.repo.Get(ctx, companyID, id)
}

// ListByCompany returns the company's transactions, newest first,
// optionally narrowed by type and date range.
func (s *Service) ListByCompany(ctx context.Context, companyID int64, f ListFilter) ([]MoneyTransaction, error) {
	if f.Type != "" && f.Type != TypeSpend && f.Type != TypeReceive {
		return nil, ErrInvalidType
	}
	return s.repo.ListByCompany(ctx, companyID, f)
}
