package accounts

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vantage-books/vantage/internal/shared"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

type memoryRepo struct {
	accounts []Account
	nextID   int64
}

func (m *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return fn(ctx, &memoryTx{repo: m})
}

func (m *memoryRepo) GetByCode(ctx context.Context, companyID int64, code string) (Account, error) {
	for _, a := range m.accounts {
		if a.CompanyID == companyID && a.Code == code {
			return a, nil
		}
	}
	return Account{}, ErrAccountNotFound
}

func (m *memoryRepo) ListByCompany(ctx context.Context, companyID int64) ([]Account, error) {
	var out []Account
	for _, a := range m.accounts {
		if a.CompanyID == companyID {
			out = append(out, a)
		}
	}
	return out, nil
}

type memoryTx struct {
	repo *memoryRepo
}

func (t *memoryTx) CompanyExists(ctx context.Context, companyID int64) (bool, error) {
	return companyID == 1 || companyID == 2, nil
}

func (t *memoryTx) CodeExists(ctx context.Context, companyID int64, code string) (bool, error) {
	_, err := t.repo.GetByCode(ctx, companyID, code)
	return err == nil, nil
}

func (t *memoryTx) NameExists(ctx context.Context, companyID int64, normName, normSub string) (bool, error) {
	for _, a := range t.repo.accounts {
		if a.CompanyID == companyID && a.NormalizedName == normName && a.NormalizedSubName == normSub {
			return true, nil
		}
	}
	return false, nil
}

func (t *memoryTx) CountInCategory(ctx context.Context, companyID int64, types []AccountType, excludedCodes []string) (int64, error) {
	inTypes := map[AccountType]bool{}
	for _, typ := range types {
		inTypes[typ] = true
	}
	excluded := map[string]bool{}
	for _, code := range excludedCodes {
		excluded[code] = true
	}
	var count int64
	for _, a := range t.repo.accounts {
		if a.CompanyID == companyID && inTypes[a.Type] && !excluded[a.Code] {
			count++
		}
	}
	return count, nil
}

func (t *memoryTx) Insert(ctx context.Context, a Account) (Account, error) {
	t.repo.nextID++
	a.ID = t.repo.nextID
	a.Version = 1
	t.repo.accounts = append(t.repo.accounts, a)
	return a, nil
}

func fixture() (*Service, *memoryRepo) {
	repo := &memoryRepo{}
	return NewService(repo, nil), repo
}

func TestCreateAllocatesFirstExpenseCode(t *testing.T) {
	svc, _ := fixture()
	require.NoError(t, svc.SeedDefaults(context.Background(), 1))

	acc, err := svc.Create(context.Background(), CreateInput{
		CompanyID: 1, Name: "Office Supplies", Type: TypeExpense,
	})
	require.NoError(t, err)
	// Reserved 5100 is excluded from the counter.
	assert.Equal(t, "5001", acc.Code)
	assert.Equal(t, KindGeneric, acc.Kind)

	next, err := svc.Create(context.Background(), CreateInput{
		CompanyID: 1, Name: "Travel", Type: TypeExpense,
	})
	require.NoError(t, err)
	assert.Equal(t, "5002", next.Code)
}

func TestCreateAllocatesPerCategory(t *testing.T) {
	svc, _ := fixture()
	require.NoError(t, svc.SeedDefaults(context.Background(), 1))

	income, err := svc.Create(context.Background(), CreateInput{
		CompanyID: 1, Name: "Consulting Revenue", Type: TypeIncome,
	})
	require.NoError(t, err)
	assert.Equal(t, "4001", income.Code)

	liability, err := svc.Create(context.Background(), CreateInput{
		CompanyID: 1, Name: "Business Loan", Type: TypeLiabilityLongTerm,
	})
	require.NoError(t, err)
	// Seeded accounts payable (2100) does not consume 2001.
	assert.Equal(t, "2001", liability.Code)

	recovery, err := svc.Create(context.Background(), CreateInput{
		CompanyID: 1, Name: "Scrap Sales", Type: TypeOtherIncome,
	})
	require.NoError(t, err)
	// Seeded freight recovered (9100) does not consume 9001.
	assert.Equal(t, "9001", recovery.Code)
}

func TestCreateIsolatesCompanies(t *testing.T) {
	svc, _ := fixture()

	a1, err := svc.Create(context.Background(), CreateInput{CompanyID: 1, Name: "Rent", Type: TypeExpense})
	require.NoError(t, err)
	a2, err := svc.Create(context.Background(), CreateInput{CompanyID: 2, Name: "Rent", Type: TypeExpense})
	require.NoError(t, err)
	assert.Equal(t, a1.Code, a2.Code)
}

func TestCreateRejectsDuplicateCode(t *testing.T) {
	svc, _ := fixture()

	_, err := svc.Create(context.Background(), CreateInput{
		CompanyID: 1, Name: "Rent", Type: TypeExpense, Code: "5001",
	})
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), CreateInput{
		CompanyID: 1, Name: "Utilities", Type: TypeExpense, Code: "5001",
	})
	assert.ErrorIs(t, err, ErrDuplicateCode)
	assert.ErrorIs(t, err, shared.ErrDuplicate)
}

func TestCreateRejectsDuplicateName(t *testing.T) {
	svc, _ := fixture()

	_, err := svc.Create(context.Background(), CreateInput{CompanyID: 1, Name: "Rent", Type: TypeExpense})
	require.NoError(t, err)

	// Normalization collapses whitespace and case.
	_, err = svc.Create(context.Background(), CreateInput{CompanyID: 1, Name: "  rent ", Type: TypeExpense})
	assert.ErrorIs(t, err, ErrDuplicateName)

	// The same name under a different sub-name is allowed.
	_, err = svc.Create(context.Background(), CreateInput{CompanyID: 1, Name: "Rent", SubName: "Warehouse", Type: TypeExpense})
	assert.NoError(t, err)
}

func TestCreateBankAccount(t *testing.T) {
	svc, _ := fixture()

	acc, err := svc.Create(context.Background(), CreateInput{
		CompanyID: 1, Name: "Operating Account", Type: TypeAssetBank, Kind: KindBank,
		Bank:           &BankDetails{BankName: "First National", BranchName: "Main St", AccountNumber: "001-443"},
		OpeningBalance: dec("2500.00"),
	})
	require.NoError(t, err)
	assert.Equal(t, KindBank, acc.Kind)
	require.NotNil(t, acc.Bank)
	assert.Equal(t, "First National", acc.Bank.BankName)
	assert.True(t, acc.Balance.Equal(dec("2500.00")))
}

func TestCreateRejectsBankKindOnNonBankType(t *testing.T) {
	svc, _ := fixture()

	_, err := svc.Create(context.Background(), CreateInput{
		CompanyID: 1, Name: "Petty Cash", Type: TypeExpense, Kind: KindBank,
		Bank: &BankDetails{BankName: "First National", AccountNumber: "9"},
	})
	assert.ErrorIs(t, err, ErrBankKindMismatch)
}

func TestCreateRejectsBankWithoutDetails(t *testing.T) {
	svc, _ := fixture()

	_, err := svc.Create(context.Background(), CreateInput{
		CompanyID: 1, Name: "Operating Account", Type: TypeAssetBank, Kind: KindBank,
	})
	assert.ErrorIs(t, err, shared.ErrValidation)
}

func TestCreateRejectsNegativeOpeningBalance(t *testing.T) {
	svc, _ := fixture()

	_, err := svc.Create(context.Background(), CreateInput{
		CompanyID: 1, Name: "Rent", Type: TypeExpense, OpeningBalance: dec("-1.00"),
	})
	assert.ErrorIs(t, err, ErrNegativeOpening)
}

func TestCreateRejectsUnknownCompany(t *testing.T) {
	svc, _ := fixture()

	_, err := svc.Create(context.Background(), CreateInput{CompanyID: 9, Name: "Rent", Type: TypeExpense})
	assert.ErrorIs(t, err, ErrCompanyNotFound)
}

func TestSeedDefaults(t *testing.T) {
	svc, repo := fixture()
	require.NoError(t, svc.SeedDefaults(context.Background(), 1))

	list, err := repo.ListByCompany(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, list, 5)

	byCode := map[string]Account{}
	for _, a := range list {
		byCode[a.Code] = a
	}
	assert.Equal(t, TypeExpense, byCode[FreightAccountCode].Type)
	assert.Equal(t, TypeLiabilityOther, byCode[TaxAccountCode].Type)
	assert.Equal(t, TypeLiabilityPayable, byCode[PayableAccountCode].Type)
	assert.Equal(t, TypeAssetReceivable, byCode[ReceivableAccountCode].Type)
	assert.Equal(t, TypeOtherIncome, byCode[FreightRecoveredAccountCode].Type)
}
