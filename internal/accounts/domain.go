package accounts

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/vantage-books/vantage/internal/shared"
)

// AccountType enumerates chart-of-accounts classifications. Each concrete
// type belongs to one main category which decides its normal balance side.
type AccountType string

const (
	TypeAssetBank             AccountType = "ASSET_BANK"
	TypeAssetReceivable       AccountType = "ASSET_ACCOUNT_RECEIVABLE"
	TypeAssetOtherCurrent     AccountType = "ASSET_OTHER_CURRENT_ASSET"
	TypeAssetFixed            AccountType = "ASSET_FIXED_ASSET"
	TypeAssetOther            AccountType = "ASSET_OTHER_ASSET"
	TypeLiabilityCreditCard   AccountType = "LIABILITY_CREDIT_CARD"
	TypeLiabilityPayable      AccountType = "LIABILITY_ACCOUNTS_PAYABLE"
	TypeLiabilityOtherCurrent AccountType = "LIABILITY_OTHER_CURRENT_LIABILITY"
	TypeLiabilityLongTerm     AccountType = "LIABILITY_LONG_TERM_LIABILITY"
	TypeLiabilityOther        AccountType = "LIABILITY_OTHER_LIABILITY"
	TypeEquity                AccountType = "EQUITY"
	TypeIncome                AccountType = "INCOME"
	TypeCostOfSales           AccountType = "COST_OF_SALES"
	TypeExpense               AccountType = "EXPENSE"
	TypeOtherIncome           AccountType = "OTHER_INCOME"
	TypeOtherExpense          AccountType = "OTHER_EXPENSE"
)

// Category is the main classification an AccountType rolls up to.
type Category string

const (
	CategoryAsset        Category = "Asset"
	CategoryLiability    Category = "Liability"
	CategoryEquity       Category = "Equity"
	CategoryIncome       Category = "Income"
	CategoryCostOfSales  Category = "Cost of Sales"
	CategoryExpense      Category = "Expense"
	CategoryOtherIncome  Category = "Other Income"
	CategoryOtherExpense Category = "Other Expense"
)

// Category returns the main category for the type.
func (t AccountType) Category() Category {
	switch t {
	case TypeAssetBank, TypeAssetReceivable, TypeAssetOtherCurrent, TypeAssetFixed, TypeAssetOther:
		return CategoryAsset
	case TypeLiabilityCreditCard, TypeLiabilityPayable, TypeLiabilityOtherCurrent, TypeLiabilityLongTerm, TypeLiabilityOther:
		return CategoryLiability
	case TypeEquity:
		return CategoryEquity
	case TypeIncome:
		return CategoryIncome
	case TypeCostOfSales:
		return CategoryCostOfSales
	case TypeExpense:
		return CategoryExpense
	case TypeOtherIncome:
		return CategoryOtherIncome
	case TypeOtherExpense:
		return CategoryOtherExpense
	}
	return ""
}

// DebitNormal reports whether balances of this type increase on debit.
// Asset, Expense and Cost of Sales are debit-normal; Liability, Equity,
// Income and Other Income are credit-normal.
func (t AccountType) DebitNormal() bool {
	switch t.Category() {
	case CategoryAsset, CategoryExpense, CategoryCostOfSales, CategoryOtherExpense:
		return true
	default:
		return false
	}
}

// Valid reports whether t is a known account type.
func (t AccountType) Valid() bool {
	return t.Category() != ""
}

// TypesInCategory returns all concrete types that roll up to cat.
func TypesInCategory(cat Category) []AccountType {
	all := []AccountType{
		TypeAssetBank, TypeAssetReceivable, TypeAssetOtherCurrent, TypeAssetFixed, TypeAssetOther,
		TypeLiabilityCreditCard, TypeLiabilityPayable, TypeLiabilityOtherCurrent, TypeLiabilityLongTerm, TypeLiabilityOther,
		TypeEquity, TypeIncome, TypeCostOfSales, TypeExpense, TypeOtherIncome, TypeOtherExpense,
	}
	var out []AccountType
	for _, t := range all {
		if t.Category() == cat {
			out = append(out, t)
		}
	}
	return out
}

// CodeBase returns the first code of the category's numeric range.
func (c Category) CodeBase() int {
	switch c {
	case CategoryAsset:
		return 1000
	case CategoryLiability:
		return 2000
	case CategoryEquity:
		return 3000
	case CategoryIncome:
		return 4000
	case CategoryExpense:
		return 5000
	default:
		return 9000
	}
}

// Reserved codes are pre-assigned to system accounts at company registration
// and excluded from the allocation counter so they are never re-issued.
const (
	FreightAccountCode          = "5100"
	TaxAccountCode              = "5200"
	PayableAccountCode          = "2100"
	ReceivableAccountCode       = "1100"
	FreightRecoveredAccountCode = "9100"
)

// ReservedCodes returns the codes excluded from allocation for cat.
func ReservedCodes(cat Category) []string {
	switch cat {
	case CategoryExpense:
		return []string{FreightAccountCode}
	case CategoryLiability:
		return []string{PayableAccountCode, TaxAccountCode}
	case CategoryAsset:
		return []string{ReceivableAccountCode}
	case CategoryOtherIncome:
		return []string{FreightRecoveredAccountCode}
	default:
		return nil
	}
}

// Kind distinguishes plain ledger accounts from bank accounts that carry
// banking details. Bank accounts are always classified Asset/Bank.
type Kind string

const (
	KindGeneric Kind = "GENERIC"
	KindBank    Kind = "BANK"
)

// BankDetails holds the extra attributes of a bank account.
type BankDetails struct {
	BankName      string
	BranchName    string
	AccountNumber string
}

// Account models one chart-of-accounts node scoped to a company.
type Account struct {
	ID                int64
	CompanyID         int64
	Name              string
	SubName           string
	NormalizedName    string
	NormalizedSubName string
	Type              AccountType
	Code              string
	Kind              Kind
	Bank              *BankDetails
	Balance           decimal.Decimal
	Version           int64
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

var upper = cases.Upper(language.Und)

// Normalize strips all whitespace and uppercases, producing the key used
// for duplicate-name detection.
func Normalize(s string) string {
	return upper.String(strings.Join(strings.Fields(s), ""))
}

// Domain failures.
var (
	ErrCompanyNotFound    = fmt.Errorf("accounts: company %w", shared.ErrNotFound)
	ErrAccountNotFound    = fmt.Errorf("accounts: account %w", shared.ErrNotFound)
	ErrDuplicateCode      = fmt.Errorf("accounts: code already in use: %w", shared.ErrDuplicate)
	ErrDuplicateName      = fmt.Errorf("accounts: name already in use: %w", shared.ErrDuplicate)
	ErrCodeSpaceExhausted = fmt.Errorf("accounts: category code space exhausted: %w", shared.ErrValidation)
	ErrNegativeOpening    = fmt.Errorf("accounts: opening balance must not be negative: %w", shared.ErrValidation)
	ErrInvalidType        = fmt.Errorf("accounts: unknown account type: %w", shared.ErrValidation)
	ErrBankKindMismatch   = fmt.Errorf("accounts: bank accounts must be typed ASSET_BANK: %w", shared.ErrValidation)
)

// CreateInput groups the fields accepted when opening an account.
type CreateInput struct {
	CompanyID      int64
	Name           string
	SubName        string
	Type           AccountType
	Code           string // optional; allocated when empty
	Kind           Kind
	Bank           *BankDetails
	OpeningBalance decimal.Decimal
}

// Validate checks structural rules that do not require storage access.
func (in CreateInput) Validate() error {
	if in.CompanyID == 0 {
		return fmt.Errorf("accounts: company id required: %w", shared.ErrValidation)
	}
	if strings.TrimSpace(in.Name) == "" {
		return fmt.Errorf("accounts: name required: %w", shared.ErrValidation)
	}
	if !in.Type.Valid() {
		return ErrInvalidType
	}
	if in.OpeningBalance.IsNegative() {
		return ErrNegativeOpening
	}
	if in.Kind == KindBank && in.Type != TypeAssetBank {
		return ErrBankKindMismatch
	}
	if in.Kind == KindBank && in.Bank == nil {
		return fmt.Errorf("accounts: bank details required: %w", shared.ErrValidation)
	}
	return nil
}
