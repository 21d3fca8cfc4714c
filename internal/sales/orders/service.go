package orders

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vantage-books/vantage/internal/accounts"
	"github.com/vantage-books/vantage/internal/aging"
	"github.com/vantage-books/vantage/internal/ledger"
	"github.com/vantage-books/vantage/internal/masterdata"
	"github.com/vantage-books/vantage/internal/platform/db"
	salesshared "github.com/vantage-books/vantage/internal/sales/shared"
)

const maxAttempts = 3

// TxRepository is the per-transaction storage surface.
type TxRepository interface {
	Ledger() ledger.TxRepository
	NextDocNumber(ctx context.Context, companyID int64, date time.Time) (string, error)
	Insert(ctx context.Context, so SalesOrder) (SalesOrder, error)
	GetForUpdate(ctx context.Context, companyID, id int64) (SalesOrder, error)
	UpdatePayment(ctx context.Context, id int64, amountPaid, balanceDue decimal.Decimal, entryID int64) error
}

// RepositoryPort abstracts sales-order storage.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	Get(ctx context.Context, companyID, id int64) (SalesOrder, error)
	ListByCompany(ctx context.Context, companyID int64) ([]SalesOrder, error)
}

// PartyDirectory resolves customer, item and project ownership.
type PartyDirectory interface {
	EnsureCustomer(ctx context.Context, companyID, customerID int64) (masterdata.Customer, error)
	EnsureItem(ctx context.Context, companyID, itemID int64) (masterdata.Item, error)
	EnsureProject(ctx context.Context, companyID, projectID int64) (masterdata.Project, error)
}

// Poster posts journal entries inside the caller's transaction.
type Poster interface {
	PostTx(ctx context.Context, tx ledger.TxRepository, in ledger.PostingInput) (ledger.Entry, error)
}

// Recorder snapshots open balances for the aging report.
type Recorder interface {
	Record(ctx context.Context, in aging.SnapshotInput) (aging.Snapshot, error)
}

// Service creates sales orders and records customer receipts.
type Service struct {
	repo     RepositoryPort
	parties  PartyDirectory
	poster   Poster
	recorder Recorder
	logger   *slog.Logger
}

func NewService(repo RepositoryPort, parties PartyDirectory, poster Poster, recorder Recorder, logger *slog.Logger) *Service {
	return &Service{repo: repo, parties: parties, poster: poster, recorder: recorder, logger: logger}
}

// Create validates references, prices the lines and persists the order
// together with its SALE journal entry in one transaction. Revenue lines
// are credited; the money owed lands on accounts receivable.
func (s *Service) Create(ctx context.Context, in CreateInput) (SalesOrder, error) {
	if err := in.Validate(); err != nil {
		return SalesOrder{}, err
	}
	customer, err := s.parties.EnsureCustomer(ctx, in.CompanyID, in.CustomerID)
	if err != nil {
		return SalesOrder{}, err
	}
	for _, line := range in.Lines {
		if line.ItemID != 0 {
			if _, err := s.parties.EnsureItem(ctx, in.CompanyID, line.ItemID); err != nil {
				return SalesOrder{}, err
			}
		}
		if line.ProjectID != 0 {
			if _, err := s.parties.EnsureProject(ctx, in.CompanyID, line.ProjectID); err != nil {
				return SalesOrder{}, err
			}
		}
	}
	costed, err := salesshared.CostLines(in.Lines)
	if err != nil {
		return SalesOrder{}, err
	}
	totals, err := salesshared.ComputeTotals(costed, in.Freight, in.Tax, in.AmountPaid)
	if err != nil {
		return SalesOrder{}, err
	}

	var stored SalesOrder
	err = s.withRetry(ctx, func(ctx context.Context, tx TxRepository) error {
		docNumber, err := tx.NextDocNumber(ctx, in.CompanyID, in.OrderDate)
		if err != nil {
			return err
		}
		posting := buildSalePosting(in, costed, totals, docNumber)
		if err := posting.Validate(); err != nil {
			return err
		}
		entry, err := s.poster.PostTx(ctx, tx.Ledger(), posting)
		if err != nil {
			return err
		}
		so := SalesOrder{
			CompanyID:          in.CompanyID,
			CustomerID:         in.CustomerID,
			DocNumber:          docNumber,
			OrderDate:          in.OrderDate,
			DueDate:            in.DueDate,
			Subtotal:           totals.Subtotal,
			Freight:            totals.Freight,
			Tax:                totals.Tax,
			Total:              totals.Total,
			AmountPaid:         totals.AmountPaid,
			BalanceDue:         totals.BalanceDue,
			PaymentAccountCode: in.PaymentAccountCode,
			Notes:              in.Notes,
			EntryID:            entry.ID,
		}
		for _, c := range costed {
			so.Lines = append(so.Lines, Line{
				ItemID:          c.ItemID,
				ProjectID:       c.ProjectID,
				AccountCode:     c.AccountCode,
				Description:     c.Description,
				Quantity:        c.Quantity,
				UnitPrice:       c.UnitPrice,
				DiscountPercent: c.DiscountPercent,
				LineTotal:       c.LineTotal,
			})
		}
		stored, err = tx.Insert(ctx, so)
		return err
	})
	if err != nil {
		return SalesOrder{}, err
	}
	s.recordSnapshot(ctx, stored, customer.Name)
	return stored, nil
}

// Receive applies a customer payment against the order's open balance.
// The RECEIPT entry debits the payment account and credits accounts
// receivable.
func (s *Service) Receive(ctx context.Context, in ReceiptInput) (SalesOrder, error) {
	if err := in.Validate(); err != nil {
		return SalesOrder{}, err
	}
	var stored SalesOrder
	err := s.withRetry(ctx, func(ctx context.Context, tx TxRepository) error {
		so, err := tx.GetForUpdate(ctx, in.CompanyID, in.OrderID)
		if err != nil {
			return err
		}
		if err := salesshared.ValidatePayment(in.Amount, so.BalanceDue); err != nil {
			return err
		}
		posting := ledger.PostingInput{
			CompanyID:   in.CompanyID,
			Type:        ledger.EntryReceipt,
			Date:        in.PaymentDate,
			Title:       fmt.Sprintf("Receipt for %s", so.DocNumber),
			ReferenceNo: so.DocNumber,
			AuthorID:    in.AuthorID,
			SourceID:    uuid.New(),
			Lines: []ledger.LineInput{
				{AccountCode: in.PaymentAccountCode, Amount: in.Amount, Debit: true},
				{AccountCode: accounts.ReceivableAccountCode, Amount: in.Amount, Debit: false},
			},
		}
		entry, err := s.poster.PostTx(ctx, tx.Ledger(), posting)
		if err != nil {
			return err
		}
		so.AmountPaid = so.AmountPaid.Add(in.Amount)
		so.BalanceDue = so.BalanceDue.Sub(in.Amount)
		if err := tx.UpdatePayment(ctx, so.ID, so.AmountPaid, so.BalanceDue, entry.ID); err != nil {
			return err
		}
		stored = so
		return nil
	})
	if err != nil {
		return SalesOrder{}, err
	}
	if customer, err := s.parties.EnsureCustomer(ctx, in.CompanyID, stored.CustomerID); err == nil {
		s.recordSnapshot(ctx, stored, customer.Name)
	}
	return stored, nil
}

// Get loads one order with its lines.
func (s *Service) Get(ctx context.Context, companyID, id int64) (SalesOrder, error) {
	return s.repo.Get(ctx, companyID, id)
}

// ListByCompany returns the company's orders, newest first.
func (s *Service) ListByCompany(ctx context.Context, companyID int64) ([]SalesOrder, error) {
	return s.repo.ListByCompany(ctx, companyID)
}

func (s *Service) withRetry(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	var err error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		err = s.repo.WithTx(ctx, fn)
		if err == nil || !db.IsRetryable(err) {
			return err
		}
	}
	if db.IsRetryable(err) {
		return ErrConflict
	}
	return err
}

func (s *Service) recordSnapshot(ctx context.Context, so SalesOrder, customerName string) {
	if s.recorder == nil || !so.BalanceDue.IsPositive() {
		return
	}
	_, err := s.recorder.Record(ctx, aging.SnapshotInput{
		CompanyID:  so.CompanyID,
		Side:       aging.SideReceivable,
		PartyID:    so.CustomerID,
		PartyName:  customerName,
		DocumentNo: so.DocNumber,
		Amount:     so.BalanceDue,
		IssueDate:  so.OrderDate,
		DueDate:    so.DueDate,
	})
	if err != nil && s.logger != nil {
		s.logger.Warn("receivable snapshot failed", "doc", so.DocNumber, "error", err)
	}
}

func buildSalePosting(in CreateInput, costed []salesshared.CostedLine, totals salesshared.Totals, docNumber string) ledger.PostingInput {
	posting := ledger.PostingInput{
		CompanyID:   in.CompanyID,
		Type:        ledger.EntrySale,
		Date:        in.OrderDate,
		Title:       fmt.Sprintf("Sale %s", docNumber),
		ReferenceNo: docNumber,
		AuthorID:    in.AuthorID,
		Description: in.Notes,
		SourceID:    uuid.New(),
	}
	for _, c := range costed {
		posting.Lines = append(posting.Lines, ledger.LineInput{
			AccountCode: c.AccountCode,
			Amount:      c.LineTotal,
			Debit:       false,
			Description: c.Description,
		})
	}
	// Freight charged to the customer is income, not a reduction of the
	// freight expense account: crediting the expense account would push a
	// fresh company's zero balance negative and abort the posting.
	if totals.Freight.IsPositive() {
		posting.Lines = append(posting.Lines, ledger.LineInput{
			AccountCode: accounts.FreightRecoveredAccountCode,
			Amount:      totals.Freight,
			Debit:       false,
			Description: "Freight recovered",
		})
	}
	if totals.Tax.IsPositive() {
		posting.Lines = append(posting.Lines, ledger.LineInput{
			AccountCode: accounts.TaxAccountCode,
			Amount:      totals.Tax,
			Debit:       false,
			Description: "Sales tax collected",
		})
	}
	if totals.AmountPaid.IsPositive() {
		posting.Lines = append(posting.Lines, ledger.LineInput{
			AccountCode: in.PaymentAccountCode,
			Amount:      totals.AmountPaid,
			Debit:       true,
		})
	}
	if totals.BalanceDue.IsPositive() {
		posting.Lines = append(posting.Lines, ledger.LineInput{
			AccountCode: accounts.ReceivableAccountCode,
			Amount:      totals.BalanceDue,
			Debit:       true,
		})
	}
	return posting
}
