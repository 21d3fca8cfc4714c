package purchasing

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
	InvoiceNoExists(ctx context.Context, companyID int64, invoiceNo string) (bool, error)
	Insert(ctx context.Context, po PurchaseOrder) (PurchaseOrder, error)
	GetForUpdate(ctx context.Context, companyID, id int64) (PurchaseOrder, error)
	UpdatePayment(ctx context.Context, id int64, amountPaid, balanceDue decimal.Decimal, entryID int64) error
}

// RepositoryPort abstracts purchase-order storage.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	Get(ctx context.Context, companyID, id int64) (PurchaseOrder, error)
	ListByCompany(ctx context.Context, companyID int64) ([]PurchaseOrder, error)
}

// PartyDirectory resolves supplier, item and project ownership.
type PartyDirectory interface {
	EnsureSupplier(ctx context.Context, companyID, supplierID int64) (masterdata.Supplier, error)
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

// Service creates and pays purchase orders.
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
// together with its PURCHASE journal entry in one transaction.
func (s *Service) Create(ctx context.Context, in CreateInput) (PurchaseOrder, error) {
	if err := in.Validate(); err != nil {
		return PurchaseOrder{}, err
	}
	supplier, err := s.parties.EnsureSupplier(ctx, in.CompanyID, in.SupplierID)
	if err != nil {
		return PurchaseOrder{}, err
	}
	for _, line := range in.Lines {
		if line.ItemID != 0 {
			if _, err := s.parties.EnsureItem(ctx, in.CompanyID, line.ItemID); err != nil {
				return PurchaseOrder{}, err
			}
		}
		if line.ProjectID != 0 {
			if _, err := s.parties.EnsureProject(ctx, in.CompanyID, line.ProjectID); err != nil {
				return PurchaseOrder{}, err
			}
		}
	}
	costed, err := salesshared.CostLines(in.Lines)
	if err != nil {
		return PurchaseOrder{}, err
	}
	totals, err := salesshared.ComputeTotals(costed, in.Freight, in.Tax, in.AmountPaid)
	if err != nil {
		return PurchaseOrder{}, err
	}

	var stored PurchaseOrder
	err = s.withRetry(ctx, func(ctx context.Context, tx TxRepository) error {
		if in.InvoiceNo != "" {
			exists, err := tx.InvoiceNoExists(ctx, in.CompanyID, in.InvoiceNo)
			if err != nil {
				return err
			}
			if exists {
				return ErrDuplicateInvoice
			}
		}
		docNumber, err := tx.NextDocNumber(ctx, in.CompanyID, in.OrderDate)
		if err != nil {
			return err
		}
		posting := buildPurchasePosting(in, costed, totals, docNumber)
		if err := posting.Validate(); err != nil {
			return err
		}
		entry, err := s.poster.PostTx(ctx, tx.Ledger(), posting)
		if err != nil {
			return err
		}
		po := PurchaseOrder{
			CompanyID:          in.CompanyID,
			SupplierID:         in.SupplierID,
			DocNumber:          docNumber,
			InvoiceNo:          in.InvoiceNo,
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
			po.Lines = append(po.Lines, Line{
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
		stored, err = tx.Insert(ctx, po)
		return err
	})
	if err != nil {
		return PurchaseOrder{}, err
	}
	s.recordSnapshot(ctx, stored, supplier.Name)
	return stored, nil
}

// Pay applies a partial or full payment against the order's open balance.
// The PAYMENT entry debits accounts payable and credits the chosen payment
// account.
func (s *Service) Pay(ctx context.Context, in PaymentInput) (PurchaseOrder, error) {
	if err := in.Validate(); err != nil {
		return PurchaseOrder{}, err
	}
	var stored PurchaseOrder
	err := s.withRetry(ctx, func(ctx context.Context, tx TxRepository) error {
		po, err := tx.GetForUpdate(ctx, in.CompanyID, in.OrderID)
		if err != nil {
			return err
		}
		if err := salesshared.ValidatePayment(in.Amount, po.BalanceDue); err != nil {
			return err
		}
		posting := ledger.PostingInput{
			CompanyID:   in.CompanyID,
			Type:        ledger.EntryPayment,
			Date:        in.PaymentDate,
			Title:       fmt.Sprintf("Payment for %s", po.DocNumber),
			ReferenceNo: po.DocNumber,
			AuthorID:    in.AuthorID,
			SourceID:    uuid.New(),
			Lines: []ledger.LineInput{
				{AccountCode: accounts.PayableAccountCode, Amount: in.Amount, Debit: true},
				{AccountCode: in.PaymentAccountCode, Amount: in.Amount, Debit: false},
			},
		}
		entry, err := s.poster.PostTx(ctx, tx.Ledger(), posting)
		if err != nil {
			return err
		}
		po.AmountPaid = po.AmountPaid.Add(in.Amount)
		po.BalanceDue = po.BalanceDue.Sub(in.Amount)
		if err := tx.UpdatePayment(ctx, po.ID, po.AmountPaid, po.BalanceDue, entry.ID); err != nil {
			return err
		}
		stored = po
		return nil
	})
	if err != nil {
		return PurchaseOrder{}, err
	}
	if supplier, err := s.parties.EnsureSupplier(ctx, in.CompanyID, stored.SupplierID); err == nil {
		s.recordSnapshot(ctx, stored, supplier.Name)
	}
	return stored, nil
}

// Get loads one order with its lines.
func (s *Service) Get(ctx context.Context, companyID, id int64) (PurchaseOrder, error) {
	return s.repo.Get(ctx, companyID, id)
}

// ListByCompany returns the company's orders, newest first.
func (s *Service) ListByCompany(ctx context.Context, companyID int64) ([]PurchaseOrder, error) {
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

func (s *Service) recordSnapshot(ctx context.Context, po PurchaseOrder, supplierName string) {
	if s.recorder == nil || !po.BalanceDue.IsPositive() {
		return
	}
	_, err := s.recorder.Record(ctx, aging.SnapshotInput{
		CompanyID:  po.CompanyID,
		Side:       aging.SidePayable,
		PartyID:    po.SupplierID,
		PartyName:  supplierName,
		DocumentNo: po.DocNumber,
		Amount:     po.BalanceDue,
		IssueDate:  po.OrderDate,
		DueDate:    po.DueDate,
	})
	if err != nil && s.logger != nil {
		s.logger.Warn("payable snapshot failed", "doc", po.DocNumber, "error", err)
	}
}

func buildPurchasePosting(in CreateInput, costed []salesshared.CostedLine, totals salesshared.Totals, docNumber string) ledger.PostingInput {
	posting := ledger.PostingInput{
		CompanyID:   in.CompanyID,
		Type:        ledger.EntryPurchase,
		Date:        in.OrderDate,
		Title:       fmt.Sprintf("Purchase %s", docNumber),
		ReferenceNo: docNumber,
		AuthorID:    in.AuthorID,
		Description: in.Notes,
		SourceID:    uuid.New(),
	}
	for _, c := range costed {
		posting.Lines = append(posting.Lines, ledger.LineInput{
			AccountCode: c.AccountCode,
			Amount:      c.LineTotal,
			Debit:       true,
			Description: c.Description,
		})
	}
	if totals.Freight.IsPositive() {
		posting.Lines = append(posting.Lines, ledger.LineInput{
			AccountCode: accounts.FreightAccountCode,
			Amount:      totals.Freight,
			Debit:       true,
			Description: "Freight charges",
		})
	}
	if totals.Tax.IsPositive() {
		posting.Lines = append(posting.Lines, ledger.LineInput{
			AccountCode: accounts.TaxAccountCode,
			Amount:      totals.Tax,
			Debit:       true,
			Description: "Purchase tax",
		})
	}
	if totals.AmountPaid.IsPositive() {
		posting.Lines = append(posting.Lines, ledger.LineInput{
			AccountCode: in.PaymentAccountCode,
			Amount:      totals.AmountPaid,
			Debit:       false,
		})
	}
	if totals.BalanceDue.IsPositive() {
		posting.Lines = append(posting.Lines, ledger.LineInput{
			AccountCode: accounts.PayableAccountCode,
			Amount:      totals.BalanceDue,
			Debit:       false,
		})
	}
	return posting
}
