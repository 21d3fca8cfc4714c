package masterdata

import (
	"context"
)

// RepositoryPort abstracts masterdata storage.
type RepositoryPort interface {
	InsertCustomer(ctx context.Context, c Customer) (Customer, error)
	GetCustomer(ctx context.Context, id int64) (Customer, error)
	ListCustomers(ctx context.Context, companyID int64) ([]Customer, error)

	InsertSupplier(ctx context.Context, s Supplier) (Supplier, error)
	GetSupplier(ctx context.Context, id int64) (Supplier, error)
	ListSuppliers(ctx context.Context, companyID int64) ([]Supplier, error)

	InsertItem(ctx context.Context, i Item) (Item, error)
	GetItem(ctx context.Context, id int64) (Item, error)
	ListItems(ctx context.Context, companyID int64) ([]Item, error)

	InsertProject(ctx context.Context, p Project) (Project, error)
	GetProject(ctx context.Context, id int64) (Project, error)
	ListProjects(ctx context.Context, companyID int64) ([]Project, error)
}

// Service is a thin CRUD layer. Its main job for the rest of the system is
// the Ensure* ownership checks: documents may only reference parties and
// items of their own company.
type Service struct {
	repo RepositoryPort
}

func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

func (s *Service) CreateCustomer(ctx context.Context, in CustomerInput) (Customer, error) {
	if err := in.Validate(); err != nil {
		return Customer{}, err
	}
	return s.repo.InsertCustomer(ctx, Customer{
		CompanyID:        in.CompanyID,
		Name:             in.Name,
		Email:            in.Email,
		Phone:            in.Phone,
		Address:          in.Address,
		PaymentTermsDays: in.PaymentTermsDays,
	})
}

func (s *Service) CreateSupplier(ctx context.Context, in SupplierInput) (Supplier, error) {
	if err := in.Validate(); err != nil {
		return Supplier{}, err
	}
	return s.repo.InsertSupplier(ctx, Supplier{
		CompanyID:        in.CompanyID,
		Name:             in.Name,
		Email:            in.Email,
		Phone:            in.Phone,
		Address:          in.Address,
		PaymentTermsDays: in.PaymentTermsDays,
	})
}

func (s *Service) CreateItem(ctx context.Context, in ItemInput) (Item, error) {
	if err := in.Validate(); err != nil {
		return Item{}, err
	}
	return s.repo.InsertItem(ctx, Item{
		CompanyID: in.CompanyID,
		SKU:       in.SKU,
		Name:      in.Name,
		UnitPrice: in.UnitPrice,
	})
}

func (s *Service) CreateProject(ctx context.Context, in ProjectInput) (Project, error) {
	if err := in.Validate(); err != nil {
		return Project{}, err
	}
	return s.repo.InsertProject(ctx, Project{
		CompanyID:   in.CompanyID,
		Name:        in.Name,
		Description: in.Description,
	})
}

// EnsureCustomer loads the customer and verifies it belongs to companyID.
func (s *Service) EnsureCustomer(ctx context.Context, companyID, customerID int64) (Customer, error) {
	c, err := s.repo.GetCustomer(ctx, customerID)
	if err != nil {
		return Customer{}, err
	}
	if c.CompanyID != companyID {
		return Customer{}, ErrWrongCompany
	}
	return c, nil
}

// EnsureSupplier loads the supplier and verifies it belongs to companyID.
func (s *Service) EnsureSupplier(ctx context.Context, companyID, supplierID int64) (Supplier, error) {
	sup, err := s.repo.GetSupplier(ctx, supplierID)
	if err != nil {
		return Supplier{}, err
	}
	if sup.CompanyID != companyID {
		return Supplier{}, ErrWrongCompany
	}
	return sup, nil
}

// EnsureItem loads the item and verifies it belongs to companyID.
func (s *Service) EnsureItem(ctx context.Context, companyID, itemID int64) (Item, error) {
	it, err := s.repo.GetItem(ctx, itemID)
	if err != nil {
		return Item{}, err
	}
	if it.CompanyID != companyID {
		return Item{}, ErrWrongCompany
	}
	return it, nil
}

// EnsureProject loads the project and verifies it belongs to companyID.
func (s *Service) EnsureProject(ctx context.Context, companyID, projectID int64) (Project, error) {
	p, err := s.repo.GetProject(ctx, projectID)
	if err != nil {
		return Project{}, err
	}
	if p.CompanyID != companyID {
		return Project{}, ErrWrongCompany
	}
	return p, nil
}

func (s *Service) ListCustomers(ctx context.Context, companyID int64) ([]Customer, error) {
	return s.repo.ListCustomers(ctx, companyID)
}

func (s *Service) ListSuppliers(ctx context.Context, companyID int64) ([]Supplier, error) {
	return s.repo.ListSuppliers(ctx, companyID)
}

func (s *Service) ListItems(ctx context.Context, companyID int64) ([]Item, error) {
	return s.repo.ListItems(ctx, companyID)
}

func (s *Service) ListProjects(ctx context.Context, companyID int64) ([]Project, error) {
	return s.repo.ListProjects(ctx, companyID)
}
