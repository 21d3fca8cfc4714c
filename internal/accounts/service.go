package accounts

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vantage-books/vantage/internal/shared"
)

// RepositoryPort abstracts transactional repository behaviour.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	GetByCode(ctx context.Context, companyID int64, code string) (Account, error)
	ListByCompany(ctx context.Context, companyID int64) ([]Account, error)
}

// AuditPort records registry events for compliance.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service owns account creation and code allocation.
type Service struct {
	repo  RepositoryPort
	audit AuditPort
	now   func() time.Time
}

// NewService constructs the registry service.
func NewService(repo RepositoryPort, audit AuditPort) *Service {
	return &Service{repo: repo, audit: audit, now: time.Now}
}

// WithNow overrides the clock for testing.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// Create opens a new account. When no explicit code is supplied one is
// allocated from the per-category counter. Code allocation and the
// duplicate checks run inside one transaction so concurrent creates for
// the same company serialize on the storage layer.
func (s *Service) Create(ctx context.Context, in CreateInput) (Account, error) {
	var created Account
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var err error
		created, err = s.createInTx(ctx, tx, in)
		return err
	})
	if err != nil {
		return Account{}, err
	}
	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			Action:   "account.create",
			Entity:   "account",
			EntityID: fmt.Sprintf("%d", created.ID),
			Meta: map[string]any{
				"company_id": created.CompanyID,
				"code":       created.Code,
				"type":       string(created.Type),
			},
			At: s.now(),
		})
	}
	return created, nil
}

func (s *Service) createInTx(ctx context.Context, tx TxRepository, in CreateInput) (Account, error) {
	if err := in.Validate(); err != nil {
		return Account{}, err
	}
	ok, err := tx.CompanyExists(ctx, in.CompanyID)
	if err != nil {
		return Account{}, err
	}
	if !ok {
		return Account{}, ErrCompanyNotFound
	}

	code := in.Code
	if code != "" {
		taken, err := tx.CodeExists(ctx, in.CompanyID, code)
		if err != nil {
			return Account{}, err
		}
		if taken {
			return Account{}, ErrDuplicateCode
		}
	} else {
		code, err = allocateCode(ctx, tx, in.CompanyID, in.Type)
		if err != nil {
			return Account{}, err
		}
	}

	normName := Normalize(in.Name)
	normSub := ""
	if in.SubName != "" {
		normSub = Normalize(in.SubName)
	}
	taken, err := tx.NameExists(ctx, in.CompanyID, normName, normSub)
	if err != nil {
		return Account{}, err
	}
	if taken {
		return Account{}, ErrDuplicateName
	}

	kind := in.Kind
	if kind == "" {
		kind = KindGeneric
	}
	return tx.Insert(ctx, Account{
		CompanyID:         in.CompanyID,
		Name:              in.Name,
		SubName:           in.SubName,
		NormalizedName:    normName,
		NormalizedSubName: normSub,
		Type:              in.Type,
		Code:              code,
		Kind:              kind,
		Bank:              in.Bank,
		Balance:           in.OpeningBalance,
	})
}

// allocateCode issues the next code in the type's category range. Reserved
// system codes are excluded from the count so they are never re-issued.
// The counter is append-only: codes freed by deletion (unsupported) would
// not be reused.
func allocateCode(ctx context.Context, tx TxRepository, companyID int64, accType AccountType) (string, error) {
	cat := accType.Category()
	count, err := tx.CountInCategory(ctx, companyID, TypesInCategory(cat), ReservedCodes(cat))
	if err != nil {
		return "", err
	}
	base := cat.CodeBase()
	next := base + int(count) + 1
	if next >= base+1000 || next > 9999 {
		return "", ErrCodeSpaceExhausted
	}
	return strconv.Itoa(next), nil
}

// FindByCode resolves an account by code within a company.
func (s *Service) FindByCode(ctx context.Context, companyID int64, code string) (Account, error) {
	return s.repo.GetByCode(ctx, companyID, code)
}

// ListByCompany returns the company's full chart of accounts.
func (s *Service) ListByCompany(ctx context.Context, companyID int64) ([]Account, error) {
	return s.repo.ListByCompany(ctx, companyID)
}

// SeedDefaults creates the reserved system accounts a company is
// registered with: freight expenses, tax payable, accounts payable,
// accounts receivable and the freight-recovered income account credited
// by sales. Runs each create through the normal path so duplicate and
// normalization rules apply.
func (s *Service) SeedDefaults(ctx context.Context, companyID int64) error {
	for _, in := range seedInputs(companyID) {
		if _, err := s.Create(ctx, in); err != nil {
			return fmt.Errorf("seed %s: %w", in.Code, err)
		}
	}
	return nil
}

// SeedDefaultsTx seeds the reserved accounts inside the caller's
// transaction. Company registration uses this so the company row and its
// chart seed commit together.
func (s *Service) SeedDefaultsTx(ctx context.Context, tx TxRepository, companyID int64) error {
	for _, in := range seedInputs(companyID) {
		if _, err := s.createInTx(ctx, tx, in); err != nil {
			return fmt.Errorf("seed %s: %w", in.Code, err)
		}
	}
	return nil
}

func seedInputs(companyID int64) []CreateInput {
	return []CreateInput{
		{CompanyID: companyID, Name: "Freight Expenses", Type: TypeExpense, Code: FreightAccountCode, OpeningBalance: decimal.Zero},
		{CompanyID: companyID, Name: "Tax Payable", Type: TypeLiabilityOther, Code: TaxAccountCode, OpeningBalance: decimal.Zero},
		{CompanyID: companyID, Name: "Accounts Payable", Type: TypeLiabilityPayable, Code: PayableAccountCode, OpeningBalance: decimal.Zero},
		{CompanyID: companyID, Name: "Accounts Receivable", Type: TypeAssetReceivable, Code: ReceivableAccountCode, OpeningBalance: decimal.Zero},
		{CompanyID: companyID, Name: "Freight Recovered", Type: TypeOtherIncome, Code: FreightRecoveredAccountCode, OpeningBalance: decimal.Zero},
	}
}
