package purchasing

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vantage-books/vantage/internal/accounts"
	"github.com/vantage-books/vantage/internal/aging"
	"github.com/vantage-books/vantage/internal/ledger"
	"github.com/vantage-books/vantage/internal/masterdata"
	"github.com/vantage-books/vantage/internal/numbering"
	salesshared "github.com/vantage-books/vantage/internal/sales/shared"
	"github.com/vantage-books/vantage/internal/shared"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

type memoryRepo struct {
	accounts map[string]*accounts.Account
	orders   map[int64]PurchaseOrder
	entries  []ledger.Entry
	invoices map[string]bool
	seq      int64
	nextID   int64
}

func newMemoryRepo() *memoryRepo {
	m := &memoryRepo{
		accounts: map[string]*accounts.Account{},
		orders:   map[int64]PurchaseOrder{},
		invoices: map[string]bool{},
	}
	m.addAccount("5000", accounts.TypeExpense, "0.00")
	m.addAccount(accounts.FreightAccountCode, accounts.TypeExpense, "0.00")
	m.addAccount(accounts.TaxAccountCode, accounts.TypeLiabilityOther, "0.00")
	m.addAccount(accounts.PayableAccountCode, accounts.TypeLiabilityPayable, "0.00")
	m.addAccount("1000", accounts.TypeAssetBank, "1000.00")
	return m
}

func (m *memoryRepo) addAccount(code string, typ accounts.AccountType, balance string) {
	m.nextID++
	m.accounts[code] = &accounts.Account{
		ID: m.nextID, CompanyID: 1, Code: code, Type: typ,
		Balance: dec(balance), Version: 1,
	}
}

func (m *memoryRepo) balance(code string) decimal.Decimal {
	return m.accounts[code].Balance
}

func (m *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	stagedAccounts := map[string]*accounts.Account{}
	for code, acc := range m.accounts {
		cp := *acc
		stagedAccounts[code] = &cp
	}
	tx := &memoryTx{repo: m, accounts: stagedAccounts}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	m.accounts = stagedAccounts
	m.entries = append(m.entries, tx.entries...)
	for _, po := range tx.inserted {
		m.orders[po.ID] = po
		if po.InvoiceNo != "" {
			m.invoices[po.InvoiceNo] = true
		}
	}
	for id, upd := range tx.payments {
		po := m.orders[id]
		po.AmountPaid = upd[0]
		po.BalanceDue = upd[1]
		m.orders[id] = po
	}
	m.seq = tx.seq
	return nil
}

func (m *memoryRepo) Get(ctx context.Context, companyID, id int64) (PurchaseOrder, error) {
	po, ok := m.orders[id]
	if !ok || po.CompanyID != companyID {
		return PurchaseOrder{}, ErrOrderNotFound
	}
	return po, nil
}

func (m *memoryRepo) ListByCompany(ctx context.Context, companyID int64) ([]PurchaseOrder, error) {
	var out []PurchaseOrder
	for _, po := range m.orders {
		if po.CompanyID == companyID {
			out = append(out, po)
		}
	}
	return out, nil
}

type memoryTx struct {
	repo     *memoryRepo
	accounts map[string]*accounts.Account
	entries  []ledger.Entry
	inserted []PurchaseOrder
	payments map[int64][2]decimal.Decimal
	seq      int64
}

func (t *memoryTx) Ledger() ledger.TxRepository {
	return &memoryLedgerTx{tx: t}
}

func (t *memoryTx) NextDocNumber(ctx context.Context, companyID int64, date time.Time) (string, error) {
	if t.seq == 0 {
		t.seq = t.repo.seq
	}
	t.seq++
	return numbering.Format(numbering.DocPurchaseOrder, date, t.seq), nil
}

func (t *memoryTx) InvoiceNoExists(ctx context.Context, companyID int64, invoiceNo string) (bool, error) {
	return t.repo.invoices[invoiceNo], nil
}

func (t *memoryTx) Insert(ctx context.Context, po PurchaseOrder) (PurchaseOrder, error) {
	po.ID = int64(len(t.repo.orders) + len(t.inserted) + 1)
	for i := range po.Lines {
		po.Lines[i].OrderID = po.ID
	}
	t.inserted = append(t.inserted, po)
	return po, nil
}

func (t *memoryTx) GetForUpdate(ctx context.Context, companyID, id int64) (PurchaseOrder, error) {
	return t.repo.Get(ctx, companyID, id)
}

func (t *memoryTx) UpdatePayment(ctx context.Context, id int64, amountPaid, balanceDue decimal.Decimal, entryID int64) error {
	if t.payments == nil {
		t.payments = map[int64][2]decimal.Decimal{}
	}
	t.payments[id] = [2]decimal.Decimal{amountPaid, balanceDue}
	return nil
}

type memoryLedgerTx struct {
	tx *memoryTx
}

func (l *memoryLedgerTx) CompanyExists(ctx context.Context, companyID int64) (bool, error) {
	return companyID == 1, nil
}

func (l *memoryLedgerTx) GetAccountForUpdate(ctx context.Context, companyID int64, code string) (accounts.Account, error) {
	acc, ok := l.tx.accounts[code]
	if !ok || acc.CompanyID != companyID {
		return accounts.Account{}, ledger.ErrAccountNotFound
	}
	return *acc, nil
}

func (l *memoryLedgerTx) InsertEntry(ctx context.Context, in ledger.PostingInput) (ledger.Entry, error) {
	return ledger.Entry{
		ID:          int64(len(l.tx.repo.entries) + len(l.tx.entries) + 1),
		CompanyID:   in.CompanyID,
		Type:        in.Type,
		Date:        in.Date,
		Title:       in.Title,
		ReferenceNo: in.ReferenceNo,
		SourceID:    in.SourceID,
	}, nil
}

func (l *memoryLedgerTx) InsertLines(ctx context.Context, entryID int64, lines []ledger.LineInput, resolved map[string]*accounts.Account) ([]ledger.Line, error) {
	out := make([]ledger.Line, 0, len(lines))
	for i, in := range lines {
		acc := resolved[in.AccountCode]
		out = append(out, ledger.Line{
			ID: int64(i + 1), EntryID: entryID, AccountID: acc.ID,
			AccountCode: acc.Code, Amount: in.Amount, Debit: in.Debit,
		})
	}
	entry := ledger.Entry{ID: entryID, CompanyID: 1, Lines: out}
	l.tx.entries = append(l.tx.entries, entry)
	return out, nil
}

func (l *memoryLedgerTx) UpdateAccountBalance(ctx context.Context, accountID int64, balance decimal.Decimal, version int64) error {
	for _, acc := range l.tx.accounts {
		if acc.ID == accountID {
			acc.Balance = balance
			acc.Version = version + 1
			return nil
		}
	}
	return ledger.ErrAccountNotFound
}

type fakeParties struct{}

func (fakeParties) EnsureSupplier(ctx context.Context, companyID, supplierID int64) (masterdata.Supplier, error) {
	if supplierID == 77 && companyID == 1 {
		return masterdata.Supplier{ID: 77, CompanyID: 1, Name: "Initech"}, nil
	}
	if supplierID == 88 {
		return masterdata.Supplier{}, masterdata.ErrWrongCompany
	}
	return masterdata.Supplier{}, masterdata.ErrSupplierNotFound
}

func (fakeParties) EnsureItem(ctx context.Context, companyID, itemID int64) (masterdata.Item, error) {
	if itemID == 100 && companyID == 1 {
		return masterdata.Item{ID: 100, CompanyID: 1}, nil
	}
	return masterdata.Item{}, masterdata.ErrItemNotFound
}

func (fakeParties) EnsureProject(ctx context.Context, companyID, projectID int64) (masterdata.Project, error) {
	if projectID == 500 && companyID == 1 {
		return masterdata.Project{ID: 500, CompanyID: 1}, nil
	}
	if projectID == 600 {
		return masterdata.Project{}, masterdata.ErrWrongCompany
	}
	return masterdata.Project{}, masterdata.ErrProjectNotFound
}

type fakeRecorder struct {
	snapshots []aging.SnapshotInput
}

func (f *fakeRecorder) Record(ctx context.Context, in aging.SnapshotInput) (aging.Snapshot, error) {
	f.snapshots = append(f.snapshots, in)
	return aging.Snapshot{}, nil
}

func fixture() (*Service, *memoryRepo, *fakeRecorder) {
	repo := newMemoryRepo()
	recorder := &fakeRecorder{}
	svc := NewService(repo, fakeParties{}, ledger.NewService(nil, nil), recorder, nil)
	return svc, repo, recorder
}

func createInput() CreateInput {
	return CreateInput{
		CompanyID:  1,
		SupplierID: 77,
		OrderDate:  time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC),
		Freight:    dec("5.00"),
		Tax:        decimal.Zero,
		Lines: []salesshared.LineItemInput{
			{ItemID: 100, AccountCode: "5000", Quantity: 2, UnitPrice: dec("50.00"), DiscountPercent: dec("10")},
		},
	}
}

func TestCreatePostsPurchaseEntry(t *testing.T) {
	svc, repo, _ := fixture()

	po, err := svc.Create(context.Background(), createInput())
	require.NoError(t, err)

	assert.Equal(t, "PO-00000001", po.DocNumber)
	assert.True(t, po.Subtotal.Equal(dec("90.00")))
	assert.True(t, po.Total.Equal(dec("95.00")))
	assert.True(t, po.BalanceDue.Equal(dec("95.00")))

	require.Len(t, repo.entries, 1)
	entry := repo.entries[0]
	require.Len(t, entry.Lines, 3)

	byCode := map[string]ledger.Line{}
	for _, l := range entry.Lines {
		byCode[l.AccountCode] = l
	}
	assert.True(t, byCode["5000"].Debit)
	assert.True(t, byCode["5000"].Amount.Equal(dec("90.00")))
	assert.True(t, byCode[accounts.FreightAccountCode].Debit)
	assert.True(t, byCode[accounts.FreightAccountCode].Amount.Equal(dec("5.00")))
	assert.False(t, byCode[accounts.PayableAccountCode].Debit)
	assert.True(t, byCode[accounts.PayableAccountCode].Amount.Equal(dec("95.00")))

	assert.True(t, repo.balance("5000").Equal(dec("90.00")))
	assert.True(t, repo.balance(accounts.FreightAccountCode).Equal(dec("5.00")))
	assert.True(t, repo.balance(accounts.PayableAccountCode).Equal(dec("95.00")))
}

func TestPayClearsBalance(t *testing.T) {
	svc, repo, _ := fixture()

	po, err := svc.Create(context.Background(), createInput())
	require.NoError(t, err)

	paid, err := svc.Pay(context.Background(), PaymentInput{
		CompanyID:          1,
		OrderID:            po.ID,
		Amount:             dec("95.00"),
		PaymentAccountCode: "1000",
		PaymentDate:        time.Date(2026, 5, 10, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.True(t, paid.BalanceDue.IsZero())
	assert.True(t, paid.AmountPaid.Equal(dec("95.00")))

	require.Len(t, repo.entries, 2)
	payment := repo.entries[1]
	byCode := map[string]ledger.Line{}
	for _, l := range payment.Lines {
		byCode[l.AccountCode] = l
	}
	assert.True(t, byCode[accounts.PayableAccountCode].Debit)
	assert.True(t, byCode[accounts.PayableAccountCode].Amount.Equal(dec("95.00")))
	assert.False(t, byCode["1000"].Debit)

	assert.True(t, repo.balance(accounts.PayableAccountCode).IsZero())
	assert.True(t, repo.balance("1000").Equal(dec("905.00")))
}

func TestPayRejectsWhenNothingDue(t *testing.T) {
	svc, repo, _ := fixture()

	po, err := svc.Create(context.Background(), createInput())
	require.NoError(t, err)

	_, err = svc.Pay(context.Background(), PaymentInput{
		CompanyID: 1, OrderID: po.ID, Amount: dec("95.00"),
		PaymentAccountCode: "1000", PaymentDate: time.Now(),
	})
	require.NoError(t, err)

	entriesBefore := len(repo.entries)
	bankBefore := repo.balance("1000")

	_, err = svc.Pay(context.Background(), PaymentInput{
		CompanyID: 1, OrderID: po.ID, Amount: dec("10.00"),
		PaymentAccountCode: "1000", PaymentDate: time.Now(),
	})
	assert.ErrorIs(t, err, salesshared.ErrBadPaymentAmount)
	assert.Len(t, repo.entries, entriesBefore, "rejected payment must not post")
	assert.True(t, repo.balance("1000").Equal(bankBefore))
	assert.True(t, repo.orders[po.ID].BalanceDue.IsZero())
}

func TestPayRejectsOverpayment(t *testing.T) {
	svc, _, _ := fixture()

	po, err := svc.Create(context.Background(), createInput())
	require.NoError(t, err)

	_, err = svc.Pay(context.Background(), PaymentInput{
		CompanyID: 1, OrderID: po.ID, Amount: dec("95.01"),
		PaymentAccountCode: "1000", PaymentDate: time.Now(),
	})
	assert.ErrorIs(t, err, salesshared.ErrBadPaymentAmount)
}

func TestCreateWithImmediatePayment(t *testing.T) {
	svc, repo, _ := fixture()

	in := createInput()
	in.AmountPaid = dec("95.00")
	in.PaymentAccountCode = "1000"
	po, err := svc.Create(context.Background(), in)
	require.NoError(t, err)

	assert.True(t, po.BalanceDue.IsZero())
	// Fully paid at creation: no payable line, bank credited instead.
	assert.True(t, repo.balance(accounts.PayableAccountCode).IsZero())
	assert.True(t, repo.balance("1000").Equal(dec("905.00")))
}

func TestCreateRejectsDuplicateInvoice(t *testing.T) {
	svc, _, _ := fixture()

	in := createInput()
	in.InvoiceNo = "INV-42"
	_, err := svc.Create(context.Background(), in)
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), in)
	assert.ErrorIs(t, err, ErrDuplicateInvoice)
}

func TestCreateCarriesProjectOnLines(t *testing.T) {
	svc, repo, _ := fixture()

	in := createInput()
	in.Lines[0].ProjectID = 500
	po, err := svc.Create(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, int64(500), po.Lines[0].ProjectID)

	in = createInput()
	in.Lines[0].ProjectID = 600
	_, err = svc.Create(context.Background(), in)
	assert.ErrorIs(t, err, shared.ErrCrossTenant)
	assert.Len(t, repo.entries, 1)
}

func TestCreateRejectsForeignSupplier(t *testing.T) {
	svc, repo, _ := fixture()

	in := createInput()
	in.SupplierID = 88
	_, err := svc.Create(context.Background(), in)
	assert.ErrorIs(t, err, shared.ErrCrossTenant)
	assert.Empty(t, repo.entries)
}

func TestCreateRequiresPaymentAccountWhenPaying(t *testing.T) {
	svc, _, _ := fixture()

	in := createInput()
	in.AmountPaid = dec("10.00")
	_, err := svc.Create(context.Background(), in)
	assert.ErrorIs(t, err, ErrMissingPaymentAccount)
}

func TestSnapshotsFollowBalance(t *testing.T) {
	svc, _, recorder := fixture()

	po, err := svc.Create(context.Background(), createInput())
	require.NoError(t, err)
	require.Len(t, recorder.snapshots, 1)
	assert.Equal(t, aging.SidePayable, recorder.snapshots[0].Side)
	assert.Equal(t, "Initech", recorder.snapshots[0].PartyName)
	assert.True(t, recorder.snapshots[0].Amount.Equal(dec("95.00")))

	_, err = svc.Pay(context.Background(), PaymentInput{
		CompanyID: 1, OrderID: po.ID, Amount: dec("40.00"),
		PaymentAccountCode: "1000", PaymentDate: time.Now(),
	})
	require.NoError(t, err)
	require.Len(t, recorder.snapshots, 2)
	assert.True(t, recorder.snapshots[1].Amount.Equal(dec("55.00")))

	// Paying off the rest leaves no open balance, so no new snapshot.
	_, err = svc.Pay(context.Background(), PaymentInput{
		CompanyID: 1, OrderID: po.ID, Amount: dec("55.00"),
		PaymentAccountCode: "1000", PaymentDate: time.Now(),
	})
	require.NoError(t, err)
	assert.Len(t, recorder.snapshots, 2)
}
