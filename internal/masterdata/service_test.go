package masterdata

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vantage-books/vantage/internal/shared"
)

type memoryRepo struct {
	customers map[int64]Customer
	suppliers map[int64]Supplier
	items     map[int64]Item
	projects  map[int64]Project
	nextID    int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		customers: map[int64]Customer{},
		suppliers: map[int64]Supplier{},
		items:     map[int64]Item{},
		projects:  map[int64]Project{},
	}
}

func (m *memoryRepo) id() int64 { m.nextID++; return m.nextID }

func (m *memoryRepo) InsertCustomer(ctx context.Context, c Customer) (Customer, error) {
	c.ID = m.id()
	m.customers[c.ID] = c
	return c, nil
}

func (m *memoryRepo) GetCustomer(ctx context.Context, id int64) (Customer, error) {
	c, ok := m.customers[id]
	if !ok {
		return Customer{}, ErrCustomerNotFound
	}
	return c, nil
}

func (m *memoryRepo) ListCustomers(ctx context.Context, companyID int64) ([]Customer, error) {
	var out []Customer
	for _, c := range m.customers {
		if c.CompanyID == companyID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *memoryRepo) InsertSupplier(ctx context.Context, s Supplier) (Supplier, error) {
	s.ID = m.id()
	m.suppliers[s.ID] = s
	return s, nil
}

func (m *memoryRepo) GetSupplier(ctx context.Context, id int64) (Supplier, error) {
	s, ok := m.suppliers[id]
	if !ok {
		return Supplier{}, ErrSupplierNotFound
	}
	return s, nil
}

func (m *memoryRepo) ListSuppliers(ctx context.Context, companyID int64) ([]Supplier, error) {
	var out []Supplier
	for _, s := range m.suppliers {
		if s.CompanyID == companyID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *memoryRepo) InsertItem(ctx context.Context, i Item) (Item, error) {
	i.ID = m.id()
	m.items[i.ID] = i
	return i, nil
}

func (m *memoryRepo) GetItem(ctx context.Context, id int64) (Item, error) {
	i, ok := m.items[id]
	if !ok {
		return Item{}, ErrItemNotFound
	}
	return i, nil
}

func (m *memoryRepo) ListItems(ctx context.Context, companyID int64) ([]Item, error) {
	var out []Item
	for _, i := range m.items {
		if i.CompanyID == companyID {
			out = append(out, i)
		}
	}
	return out, nil
}

func (m *memoryRepo) InsertProject(ctx context.Context, p Project) (Project, error) {
	p.ID = m.id()
	m.projects[p.ID] = p
	return p, nil
}

func (m *memoryRepo) GetProject(ctx context.Context, id int64) (Project, error) {
	p, ok := m.projects[id]
	if !ok {
		return Project{}, ErrProjectNotFound
	}
	return p, nil
}

func (m *memoryRepo) ListProjects(ctx context.Context, companyID int64) ([]Project, error) {
	var out []Project
	for _, p := range m.projects {
		if p.CompanyID == companyID {
			out = append(out, p)
		}
	}
	return out, nil
}

func TestEnsureCustomerOwnership(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)

	c, err := svc.CreateCustomer(context.Background(), CustomerInput{CompanyID: 1, Name: "Acme"})
	require.NoError(t, err)

	got, err := svc.EnsureCustomer(context.Background(), 1, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "Acme", got.Name)

	// A different company sees 403, not 404: the record exists but is
	// out of reach.
	_, err = svc.EnsureCustomer(context.Background(), 2, c.ID)
	assert.ErrorIs(t, err, ErrWrongCompany)
	assert.ErrorIs(t, err, shared.ErrCrossTenant)

	_, err = svc.EnsureCustomer(context.Background(), 1, 999)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestEnsureSupplierOwnership(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)

	sup, err := svc.CreateSupplier(context.Background(), SupplierInput{CompanyID: 1, Name: "Initech", PaymentTermsDays: 30})
	require.NoError(t, err)

	_, err = svc.EnsureSupplier(context.Background(), 2, sup.ID)
	assert.ErrorIs(t, err, ErrWrongCompany)
}

func TestCreateItemValidation(t *testing.T) {
	svc := NewService(newMemoryRepo())

	_, err := svc.CreateItem(context.Background(), ItemInput{CompanyID: 1, Name: ""})
	assert.ErrorIs(t, err, shared.ErrValidation)

	_, err = svc.CreateItem(context.Background(), ItemInput{
		CompanyID: 1, Name: "Widget", UnitPrice: decimal.RequireFromString("-1"),
	})
	assert.ErrorIs(t, err, shared.ErrValidation)

	item, err := svc.CreateItem(context.Background(), ItemInput{
		CompanyID: 1, SKU: "W-1", Name: "Widget", UnitPrice: decimal.RequireFromString("9.99"),
	})
	require.NoError(t, err)
	assert.NotZero(t, item.ID)
}

func TestEnsureProjectOwnership(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)

	_, err := svc.CreateProject(context.Background(), ProjectInput{CompanyID: 1, Name: ""})
	assert.ErrorIs(t, err, shared.ErrValidation)

	p, err := svc.CreateProject(context.Background(), ProjectInput{CompanyID: 1, Name: "Warehouse refit"})
	require.NoError(t, err)

	got, err := svc.EnsureProject(context.Background(), 1, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Warehouse refit", got.Name)

	_, err = svc.EnsureProject(context.Background(), 2, p.ID)
	assert.ErrorIs(t, err, ErrWrongCompany)

	_, err = svc.EnsureProject(context.Background(), 1, 999)
	assert.ErrorIs(t, err, ErrProjectNotFound)
}
