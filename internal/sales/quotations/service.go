package quotations

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vantage-books/vantage/internal/masterdata"
	"github.com/vantage-books/vantage/internal/notify"
	"github.com/vantage-books/vantage/internal/numbering"
	salesshared "github.com/vantage-books/vantage/internal/sales/shared"
)

// RepositoryPort abstracts quotation storage.
type RepositoryPort interface {
	Insert(ctx context.Context, q Quotation) (Quotation, error)
	Update(ctx context.Context, q Quotation) (Quotation, error)
	Get(ctx context.Context, companyID, id int64) (Quotation, error)
	ListByCompany(ctx context.Context, companyID int64) ([]Quotation, error)
	SetStatus(ctx context.Context, companyID, id int64, status QuotationStatus) error
}

// PartyDirectory resolves customer, item and project ownership.
type PartyDirectory interface {
	EnsureCustomer(ctx context.Context, companyID, customerID int64) (masterdata.Customer, error)
	EnsureItem(ctx context.Context, companyID, itemID int64) (masterdata.Item, error)
	EnsureProject(ctx context.Context, companyID, projectID int64) (masterdata.Project, error)
}

// NumberSource allocates document numbers.
type NumberSource interface {
	Next(ctx context.Context, companyID int64, docType numbering.DocType, date time.Time) (string, error)
}

// Notifier publishes status-change notifications.
type Notifier interface {
	Publish(ctx context.Context, companyID int64, event, subject, body string) (notify.Notification, error)
}

// Service prices and manages quotations.
type Service struct {
	repo     RepositoryPort
	parties  PartyDirectory
	numbers  NumberSource
	notifier Notifier
}

func NewService(repo RepositoryPort, parties PartyDirectory, numbers NumberSource, notifier Notifier) *Service {
	return &Service{repo: repo, parties: parties, numbers: numbers, notifier: notifier}
}

// Create validates references, prices the lines and stores a new DRAFT
// quotation under a freshly allocated QT number.
func (s *Service) Create(ctx context.Context, in CreateInput) (Quotation, error) {
	if err := in.Validate(); err != nil {
		return Quotation{}, err
	}
	if _, err := s.parties.EnsureCustomer(ctx, in.CompanyID, in.CustomerID); err != nil {
		return Quotation{}, err
	}
	lines, totals, err := s.price(ctx, in.CompanyID, in.Lines, in.TaxPercent)
	if err != nil {
		return Quotation{}, err
	}
	docNumber, err := s.numbers.Next(ctx, in.CompanyID, numbering.DocQuotation, in.QuoteDate)
	if err != nil {
		return Quotation{}, fmt.Errorf("quotations: allocate number: %w", err)
	}
	q := Quotation{
		CompanyID:  in.CompanyID,
		CustomerID: in.CustomerID,
		DocNumber:  docNumber,
		Status:     StatusDraft,
		QuoteDate:  in.QuoteDate,
		ValidUntil: in.ValidUntil,
		TaxPercent: in.TaxPercent,
		Subtotal:   totals.Subtotal,
		TaxAmount:  totals.Tax,
		Total:      totals.Total,
		Notes:      in.Notes,
		Lines:      lines,
	}
	return s.repo.Insert(ctx, q)
}

// Update replaces the lines and recomputes all totals.
func (s *Service) Update(ctx context.Context, companyID, id int64, in UpdateInput) (Quotation, error) {
	q, err := s.repo.Get(ctx, companyID, id)
	if err != nil {
		return Quotation{}, err
	}
	lines, totals, err := s.price(ctx, companyID, in.Lines, in.TaxPercent)
	if err != nil {
		return Quotation{}, err
	}
	q.ValidUntil = in.ValidUntil
	q.TaxPercent = in.TaxPercent
	q.Notes = in.Notes
	q.Lines = lines
	q.Subtotal = totals.Subtotal
	q.TaxAmount = totals.Tax
	q.Total = totals.Total
	return s.repo.Update(ctx, q)
}

// SetStatus moves the quotation to the given status. Transitions are not
// constrained; accepted, rejected and first-send transitions notify.
func (s *Service) SetStatus(ctx context.Context, companyID, id int64, status QuotationStatus) (Quotation, error) {
	if !status.Valid() {
		return Quotation{}, ErrInvalidStatus
	}
	q, err := s.repo.Get(ctx, companyID, id)
	if err != nil {
		return Quotation{}, err
	}
	previous := q.Status
	if err := s.repo.SetStatus(ctx, companyID, id, status); err != nil {
		return Quotation{}, err
	}
	q.Status = status
	s.notifyTransition(ctx, q, previous)
	return q, nil
}

func (s *Service) notifyTransition(ctx context.Context, q Quotation, previous QuotationStatus) {
	if s.notifier == nil {
		return
	}
	switch {
	case q.Status == StatusAccepted:
		_, _ = s.notifier.Publish(ctx, q.CompanyID, notify.EventQuotationAccepted,
			"Quotation accepted", fmt.Sprintf("Quotation %s was accepted", q.DocNumber))
	case q.Status == StatusRejected:
		_, _ = s.notifier.Publish(ctx, q.CompanyID, notify.EventQuotationRejected,
			"Quotation rejected", fmt.Sprintf("Quotation %s was rejected", q.DocNumber))
	case q.Status == StatusSent && previous == StatusDraft:
		_, _ = s.notifier.Publish(ctx, q.CompanyID, notify.EventQuotationSent,
			"Quotation sent", fmt.Sprintf("Quotation %s was sent to the customer", q.DocNumber))
	}
}

func (s *Service) price(ctx context.Context, companyID int64, inputs []salesshared.LineItemInput, taxPercent decimal.Decimal) ([]Line, salesshared.Totals, error) {
	for _, in := range inputs {
		if in.ItemID != 0 {
			if _, err := s.parties.EnsureItem(ctx, companyID, in.ItemID); err != nil {
				return nil, salesshared.Totals{}, err
			}
		}
		if in.ProjectID != 0 {
			if _, err := s.parties.EnsureProject(ctx, companyID, in.ProjectID); err != nil {
				return nil, salesshared.Totals{}, err
			}
		}
	}
	costed, err := salesshared.CostLines(inputs)
	if err != nil {
		return nil, salesshared.Totals{}, err
	}
	totals, err := salesshared.ComputePercentTaxTotals(costed, taxPercent)
	if err != nil {
		return nil, salesshared.Totals{}, err
	}
	lines := make([]Line, 0, len(costed))
	for _, c := range costed {
		lines = append(lines, Line{
			ItemID:          c.ItemID,
			ProjectID:       c.ProjectID,
			Description:     c.Description,
			Quantity:        c.Quantity,
			UnitPrice:       c.UnitPrice,
			DiscountPercent: c.DiscountPercent,
			LineTotal:       c.LineTotal,
		})
	}
	return lines, totals, nil
}

// Get loads one quotation with its lines.
func (s *Service) Get(ctx context.Context, companyID, id int64) (Quotation, error) {
	return s.repo.Get(ctx, companyID, id)
}

// ListByCompany returns the company's quotations, newest first.
func (s *Service) ListByCompany(ctx context.Context, companyID int64) ([]Quotation, error) {
	return s.repo.ListByCompany(ctx, companyID)
}
