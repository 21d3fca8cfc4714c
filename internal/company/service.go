package company

import (
	"context"
	"fmt"
	"time"

	"github.com/vantage-books/vantage/internal/accounts"
	"github.com/vantage-books/vantage/internal/shared"
)

// RepositoryPort abstracts transactional company storage.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	Get(ctx context.Context, id int64) (Company, error)
	List(ctx context.Context) ([]Company, error)
}

// TxRepository exposes the operations available inside a registration
// transaction. Accounts returns an accounts repository bound to the same
// transaction so the chart seed commits or rolls back with the company row.
type TxRepository interface {
	Insert(ctx context.Context, c Company) (Company, error)
	Accounts() accounts.TxRepository
}

// Seeder creates the reserved accounts for a freshly registered company.
type Seeder interface {
	SeedDefaultsTx(ctx context.Context, tx accounts.TxRepository, companyID int64) error
}

// AuditPort records registration events.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service registers companies and reads them back.
type Service struct {
	repo   RepositoryPort
	seeder Seeder
	audit  AuditPort
	now    func() time.Time
}

func NewService(repo RepositoryPort, seeder Seeder, audit AuditPort) *Service {
	return &Service{repo: repo, seeder: seeder, audit: audit, now: time.Now}
}

// Register creates the company and seeds its reserved accounts atomically.
// A seed failure rolls the company row back.
func (s *Service) Register(ctx context.Context, in RegisterInput) (Company, error) {
	if err := in.Validate(); err != nil {
		return Company{}, err
	}
	var created Company
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var err error
		created, err = tx.Insert(ctx, Company{Name: in.Name})
		if err != nil {
			return err
		}
		return s.seeder.SeedDefaultsTx(ctx, tx.Accounts(), created.ID)
	})
	if err != nil {
		return Company{}, err
	}
	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			Action:   "company.register",
			Entity:   "company",
			EntityID: fmt.Sprintf("%d", created.ID),
			Meta:     map[string]any{"name": created.Name},
			At:       s.now(),
		})
	}
	return created, nil
}

// Get returns one company by id.
func (s *Service) Get(ctx context.Context, id int64) (Company, error) {
	return s.repo.Get(ctx, id)
}

// List returns all registered companies ordered by name.
func (s *Service) List(ctx context.Context) ([]Company, error) {
	return s.repo.List(ctx)
}
