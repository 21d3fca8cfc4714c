package quotations

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vantage-books/vantage/internal/masterdata"
	"github.com/vantage-books/vantage/internal/notify"
	"github.com/vantage-books/vantage/internal/numbering"
	salesshared "github.com/vantage-books/vantage/internal/sales/shared"
	"github.com/vantage-books/vantage/internal/shared"
)

type memoryRepo struct {
	stored map[int64]Quotation
	nextID int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{stored: map[int64]Quotation{}}
}

func (m *memoryRepo) Insert(ctx context.Context, q Quotation) (Quotation, error) {
	m.nextID++
	q.ID = m.nextID
	m.stored[q.ID] = q
	return q, nil
}

func (m *memoryRepo) Update(ctx context.Context, q Quotation) (Quotation, error) {
	if _, ok := m.stored[q.ID]; !ok {
		return Quotation{}, ErrQuotationNotFound
	}
	m.stored[q.ID] = q
	return q, nil
}

func (m *memoryRepo) Get(ctx context.Context, companyID, id int64) (Quotation, error) {
	q, ok := m.stored[id]
	if !ok || q.CompanyID != companyID {
		return Quotation{}, ErrQuotationNotFound
	}
	return q, nil
}

func (m *memoryRepo) ListByCompany(ctx context.Context, companyID int64) ([]Quotation, error) {
	var out []Quotation
	for _, q := range m.stored {
		if q.CompanyID == companyID {
			out = append(out, q)
		}
	}
	return out, nil
}

func (m *memoryRepo) SetStatus(ctx context.Context, companyID, id int64, status QuotationStatus) error {
	q, ok := m.stored[id]
	if !ok || q.CompanyID != companyID {
		return ErrQuotationNotFound
	}
	q.Status = status
	m.stored[id] = q
	return nil
}

type fakeParties struct {
	customers map[int64]int64 // customer id -> company id
	items     map[int64]int64
	projects  map[int64]int64
}

func (f *fakeParties) EnsureCustomer(ctx context.Context, companyID, customerID int64) (masterdata.Customer, error) {
	owner, ok := f.customers[customerID]
	if !ok {
		return masterdata.Customer{}, masterdata.ErrCustomerNotFound
	}
	if owner != companyID {
		return masterdata.Customer{}, masterdata.ErrWrongCompany
	}
	return masterdata.Customer{ID: customerID, CompanyID: companyID}, nil
}

func (f *fakeParties) EnsureItem(ctx context.Context, companyID, itemID int64) (masterdata.Item, error) {
	owner, ok := f.items[itemID]
	if !ok {
		return masterdata.Item{}, masterdata.ErrItemNotFound
	}
	if owner != companyID {
		return masterdata.Item{}, masterdata.ErrWrongCompany
	}
	return masterdata.Item{ID: itemID, CompanyID: companyID}, nil
}

func (f *fakeParties) EnsureProject(ctx context.Context, companyID, projectID int64) (masterdata.Project, error) {
	owner, ok := f.projects[projectID]
	if !ok {
		return masterdata.Project{}, masterdata.ErrProjectNotFound
	}
	if owner != companyID {
		return masterdata.Project{}, masterdata.ErrWrongCompany
	}
	return masterdata.Project{ID: projectID, CompanyID: companyID}, nil
}

type fakeNumbers struct {
	seq int64
}

func (f *fakeNumbers) Next(ctx context.Context, companyID int64, docType numbering.DocType, date time.Time) (string, error) {
	f.seq++
	return numbering.Format(docType, date, f.seq), nil
}

type fakeNotifier struct {
	events []string
}

func (f *fakeNotifier) Publish(ctx context.Context, companyID int64, event, subject, body string) (notify.Notification, error) {
	f.events = append(f.events, event)
	return notify.Notification{}, nil
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func fixture() (*Service, *memoryRepo, *fakeNotifier) {
	repo := newMemoryRepo()
	parties := &fakeParties{
		customers: map[int64]int64{10: 1, 20: 2},
		items:     map[int64]int64{100: 1},
		projects:  map[int64]int64{500: 1, 600: 2},
	}
	notifier := &fakeNotifier{}
	svc := NewService(repo, parties, &fakeNumbers{}, notifier)
	return svc, repo, notifier
}

func createInput() CreateInput {
	return CreateInput{
		CompanyID:  1,
		CustomerID: 10,
		QuoteDate:  time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
		TaxPercent: dec("10"),
		Lines: []salesshared.LineItemInput{
			{ItemID: 100, Quantity: 4, UnitPrice: dec("25.00")},
		},
	}
}

func TestCreateComputesTotalsAndNumber(t *testing.T) {
	svc, _, _ := fixture()

	q, err := svc.Create(context.Background(), createInput())
	require.NoError(t, err)

	assert.Equal(t, "QT-2026-0001", q.DocNumber)
	assert.Equal(t, StatusDraft, q.Status)
	assert.True(t, q.Subtotal.Equal(dec("100.00")))
	assert.True(t, q.TaxAmount.Equal(dec("10.00")))
	assert.True(t, q.Total.Equal(dec("110.00")))
	require.Len(t, q.Lines, 1)
	assert.True(t, q.Lines[0].LineTotal.Equal(dec("100.00")))
}

func TestCreateRejectsForeignCustomer(t *testing.T) {
	svc, _, _ := fixture()

	in := createInput()
	in.CustomerID = 20 // belongs to company 2
	_, err := svc.Create(context.Background(), in)
	assert.ErrorIs(t, err, shared.ErrCrossTenant)
}

func TestCreateRejectsUnknownItem(t *testing.T) {
	svc, _, _ := fixture()

	in := createInput()
	in.Lines[0].ItemID = 999
	_, err := svc.Create(context.Background(), in)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestUpdateRecomputesTotals(t *testing.T) {
	svc, _, _ := fixture()

	q, err := svc.Create(context.Background(), createInput())
	require.NoError(t, err)

	updated, err := svc.Update(context.Background(), 1, q.ID, UpdateInput{
		TaxPercent: dec("5"),
		Lines: []salesshared.LineItemInput{
			{ItemID: 100, Quantity: 2, UnitPrice: dec("30.00"), DiscountPercent: dec("10")},
		},
	})
	require.NoError(t, err)
	assert.True(t, updated.Subtotal.Equal(dec("54.00")))
	assert.True(t, updated.TaxAmount.Equal(dec("2.70")))
	assert.True(t, updated.Total.Equal(dec("56.70")))
	assert.Equal(t, q.DocNumber, updated.DocNumber, "number is allocated once")
}

func TestStatusTransitionsNotify(t *testing.T) {
	svc, _, notifier := fixture()

	q, err := svc.Create(context.Background(), createInput())
	require.NoError(t, err)

	_, err = svc.SetStatus(context.Background(), 1, q.ID, StatusSent)
	require.NoError(t, err)
	_, err = svc.SetStatus(context.Background(), 1, q.ID, StatusAccepted)
	require.NoError(t, err)

	assert.Equal(t, []string{notify.EventQuotationSent, notify.EventQuotationAccepted}, notifier.events)
}

func TestStatusSentFromSentDoesNotNotify(t *testing.T) {
	svc, _, notifier := fixture()

	q, err := svc.Create(context.Background(), createInput())
	require.NoError(t, err)

	_, err = svc.SetStatus(context.Background(), 1, q.ID, StatusSent)
	require.NoError(t, err)
	_, err = svc.SetStatus(context.Background(), 1, q.ID, StatusSent)
	require.NoError(t, err)

	assert.Equal(t, []string{notify.EventQuotationSent}, notifier.events)
}

func TestStatusAnyTransitionAllowed(t *testing.T) {
	svc, _, _ := fixture()

	q, err := svc.Create(context.Background(), createInput())
	require.NoError(t, err)

	// Rejected straight back to draft is fine; the machine does not
	// constrain transitions.
	_, err = svc.SetStatus(context.Background(), 1, q.ID, StatusRejected)
	require.NoError(t, err)
	got, err := svc.SetStatus(context.Background(), 1, q.ID, StatusDraft)
	require.NoError(t, err)
	assert.Equal(t, StatusDraft, got.Status)

	_, err = svc.SetStatus(context.Background(), 1, q.ID, "SHREDDED")
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestCreateCarriesProjectAndRejectsForeign(t *testing.T) {
	svc, repo, _ := fixture()

	in := createInput()
	in.Lines[0].ProjectID = 500
	q, err := svc.Create(context.Background(), in)
	require.NoError(t, err)
	require.Len(t, q.Lines, 1)
	assert.Equal(t, int64(500), q.Lines[0].ProjectID)

	in = createInput()
	in.Lines[0].ProjectID = 600
	_, err = svc.Create(context.Background(), in)
	assert.ErrorIs(t, err, masterdata.ErrWrongCompany)
	assert.Len(t, repo.stored, 1)
}
