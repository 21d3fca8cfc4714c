package treasury

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vantage-books/vantage/internal/accounts"
	"github.com/vantage-books/vantage/internal/ledger"
	"github.com/vantage-books/vantage/internal/numbering"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

type memoryRepo struct {
	accounts map[string]*accounts.Account
	txs      map[int64]MoneyTransaction
	entries  []ledger.Entry
	seq      int64
	nextID   int64
}

func newMemoryRepo() *memoryRepo {
	m := &memoryRepo{
		accounts: map[string]*accounts.Account{},
		txs:      map[int64]MoneyTransaction{},
	}
	m.addAccount("1001", accounts.TypeAssetBank, accounts.KindBank, "500.00")
	m.addAccount("5000", accounts.TypeExpense, accounts.KindGeneric, "0.00")
	m.addAccount("4000", accounts.TypeIncome, accounts.KindGeneric, "0.00")
	return m
}

func (m *memoryRepo) addAccount(code string, typ accounts.AccountType, kind accounts.Kind, balance string) {
	m.nextID++
	m.accounts[code] = &accounts.Account{
		ID: m.nextID, CompanyID: 1, Code: code, Type: typ, Kind: kind,
		Balance: dec(balance), Version: 1,
	}
}

func (m *memoryRepo) FindByCode(ctx context.Context, companyID int64, code string) (accounts.Account, error) {
	acc, ok := m.accounts[code]
	if !ok || acc.CompanyID != companyID {
		return accounts.Account{}, accounts.ErrAccountNotFound
	}
	return *acc, nil
}

func (m *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	staged := map[string]*accounts.Account{}
	for code, acc := range m.accounts {
		cp := *acc
		staged[code] = &cp
	}
	tx := &memoryTx{repo: m, accounts: staged, seq: m.seq}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	m.accounts = staged
	m.entries = append(m.entries, tx.entries...)
	for _, mt := range tx.inserted {
		m.txs[mt.ID] = mt
	}
	m.seq = tx.seq
	return nil
}

func (m *memoryRepo) Get(ctx context.Context, companyID, id int64) (MoneyTransaction, error) {
	mt, ok := m.txs[id]
	if !ok || mt.CompanyID != companyID {
		return MoneyTransaction{}, ErrTransactionNotFound
	}
	return mt, nil
}

func (m *memoryRepo) ListByCompany(ctx context.Context, companyID int64, f ListFilter) ([]MoneyTransaction, error) {
	var out []MoneyTransaction
	for _, mt := range m.txs {
		if mt.CompanyID != companyID {
			continue
		}
		if f.Type != "" && mt.Type != f.Type {
			continue
		}
		if f.From != nil && mt.Date.Before(*f.From) {
			continue
		}
		if f.To != nil && mt.Date.After(*f.To) {
			continue
		}
		out = append(out, mt)
	}
	return out, nil
}

type memoryTx struct {
	repo     *memoryRepo
	accounts map[string]*accounts.Account
	entries  []ledger.Entry
	inserted []MoneyTransaction
	seq      int64
}

func (t *memoryTx) Ledger() ledger.TxRepository {
	return &memoryLedgerTx{tx: t}
}

func (t *memoryTx) NextDocNumber(ctx context.Context, companyID int64, date time.Time) (string, error) {
	t.seq++
	return numbering.Format(numbering.DocMoneyTransaction, date, t.seq), nil
}

func (t *memoryTx) Insert(ctx context.Context, mt MoneyTransaction) (MoneyTransaction, error) {
	mt.ID = int64(len(t.repo.txs) + len(t.inserted) + 1)
	t.inserted = append(t.inserted, mt)
	return mt, nil
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
		ID:        int64(len(l.tx.repo.entries) + len(l.tx.entries) + 1),
		CompanyID: in.CompanyID, Type: in.Type, ReferenceNo: in.ReferenceNo,
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
	l.tx.entries = append(l.tx.entries, ledger.Entry{ID: entryID, Lines: out})
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

func fixture() (*Service, *memoryRepo) {
	repo := newMemoryRepo()
	svc := NewService(repo, repo, ledger.NewService(nil, nil))
	return svc, repo
}

func TestSpendDebitsChargeCreditsBank(t *testing.T) {
	svc, repo := fixture()

	mt, err := svc.Create(context.Background(), CreateInput{
		CompanyID:         1,
		Type:              TypeSpend,
		BankAccountCode:   "1001",
		ChargeAccountCode: "5000",
		Amount:            dec("120.00"),
		Date:              time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	assert.Equal(t, "MT-2026-0001", mt.DocNumber)
	assert.True(t, repo.accounts["1001"].Balance.Equal(dec("380.00")))
	assert.True(t, repo.accounts["5000"].Balance.Equal(dec("120.00")))

	require.Len(t, repo.entries, 1)
	byCode := map[string]ledger.Line{}
	for _, l := range repo.entries[0].Lines {
		byCode[l.AccountCode] = l
	}
	assert.True(t, byCode["5000"].Debit)
	assert.False(t, byCode["1001"].Debit)
}

func TestReceiveDebitsBankCreditsCharge(t *testing.T) {
	svc, repo := fixture()

	_, err := svc.Create(context.Background(), CreateInput{
		CompanyID:         1,
		Type:              TypeReceive,
		BankAccountCode:   "1001",
		ChargeAccountCode: "4000",
		Amount:            dec("300.00"),
		Date:              time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	assert.True(t, repo.accounts["1001"].Balance.Equal(dec("800.00")))
	assert.True(t, repo.accounts["4000"].Balance.Equal(dec("300.00")))
}

func TestSpendCannotOverdrawBank(t *testing.T) {
	svc, repo := fixture()

	_, err := svc.Create(context.Background(), CreateInput{
		CompanyID:         1,
		Type:              TypeSpend,
		BankAccountCode:   "1001",
		ChargeAccountCode: "5000",
		Amount:            dec("500.01"),
		Date:              time.Now(),
	})
	var nb *ledger.NegativeBalanceError
	require.ErrorAs(t, err, &nb)
	assert.True(t, repo.accounts["1001"].Balance.Equal(dec("500.00")), "failed spend must not move money")
	assert.Empty(t, repo.txs)
}

func TestCreateRejectsNonBankAccount(t *testing.T) {
	svc, _ := fixture()

	_, err := svc.Create(context.Background(), CreateInput{
		CompanyID:         1,
		Type:              TypeSpend,
		BankAccountCode:   "5000", // expense, not a bank
		ChargeAccountCode: "4000",
		Amount:            dec("10.00"),
		Date:              time.Now(),
	})
	assert.ErrorIs(t, err, ErrNotBankAccount)
}

func TestCreateValidation(t *testing.T) {
	svc, _ := fixture()

	_, err := svc.Create(context.Background(), CreateInput{
		CompanyID: 1, Type: "TRANSMOGRIFY", BankAccountCode: "1001",
		ChargeAccountCode: "5000", Amount: dec("10"), Date: time.Now(),
	})
	assert.ErrorIs(t, err, ErrInvalidType)

	_, err = svc.Create(context.Background(), CreateInput{
		CompanyID: 1, Type: TypeSpend, BankAccountCode: "1001",
		ChargeAccountCode: "5000", Amount: decimal.Zero, Date: time.Now(),
	})
	assert.ErrorIs(t, err, ErrNonPositiveAmount)
}

func TestListByCompanyFilters(t *testing.T) {
	svc, _ := fixture()
	ctx := context.Background()

	mk := func(typ TransactionType, charge string, day int) {
		t.Helper()
		_, err := svc.Create(ctx, CreateInput{
			CompanyID: 1, Type: typ, BankAccountCode: "1001",
			ChargeAccountCode: charge, Amount: dec("10.00"),
			Date: time.Date(2026, 8, day, 0, 0, 0, 0, time.UTC),
		})
		require.NoError(t, err)
	}
	mk(TypeSpend, "5000", 1)
	mk(TypeReceive, "4000", 10)
	mk(TypeSpend, "5000", 20)

	all, err := svc.ListByCompany(ctx, 1, ListFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	spends, err := svc.ListByCompany(ctx, 1, ListFilter{Type: TypeSpend})
	require.NoError(t, err)
	assert.Len(t, spends, 2)

	from := time.Date(2026, 8, 5, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC)
	window, err := svc.ListByCompany(ctx, 1, ListFilter{From: &from, To: &to})
	require.NoError(t, err)
	require.Len(t, window, 1)
	assert.Equal(t, TypeReceive, window[0].Type)

	_, err = svc.ListByCompany(ctx, 1, ListFilter{Type: "TRANSMOGRIFY"})
	assert.ErrorIs(t, err, ErrInvalidType)
}
