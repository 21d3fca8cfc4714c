package masterdata

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vantage-books/vantage/internal/shared"
)

// Customer is a party that buys from the company.
type Customer struct {
	ID               int64
	CompanyID        int64
	Name             string
	Email            string
	Phone            string
	Address          string
	PaymentTermsDays int
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Supplier is a party the company buys from.
type Supplier struct {
	ID               int64
	CompanyID        int64
	Name             string
	Email            string
	Phone            string
	Address          string
	PaymentTermsDays int
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Project groups document lines for cost tracking. Lines reference a
// project optionally.
type Project struct {
	ID          int64
	CompanyID   int64
	Name        string
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Item is a sellable or purchasable product.
type Item struct {
	ID        int64
	CompanyID int64
	SKU       string
	Name      string
	UnitPrice decimal.Decimal
	CreatedAt time.Time
	UpdatedAt time.Time
}

var (
	ErrCustomerNotFound = fmt.Errorf("masterdata: customer %w", shared.ErrNotFound)
	ErrSupplierNotFound = fmt.Errorf("masterdata: supplier %w", shared.ErrNotFound)
	ErrItemNotFound     = fmt.Errorf("masterdata: item %w", shared.ErrNotFound)
	ErrProjectNotFound  = fmt.Errorf("masterdata: project %w", shared.ErrNotFound)
	ErrWrongCompany     = fmt.Errorf("masterdata: record belongs to another company: %w", shared.ErrCrossTenant)
	ErrDuplicateSKU     = fmt.Errorf("masterdata: sku already exists: %w", shared.ErrDuplicate)
)

// CustomerInput carries create/update fields.
type CustomerInput struct {
	CompanyID        int64
	Name             string
	Email            string
	Phone            string
	Address          string
	PaymentTermsDays int
}

func (in CustomerInput) Validate() error {
	if in.CompanyID == 0 {
		return fmt.Errorf("masterdata: company id required: %w", shared.ErrValidation)
	}
	if strings.TrimSpace(in.Name) == "" {
		return fmt.Errorf("masterdata: customer name required: %w", shared.ErrValidation)
	}
	if in.PaymentTermsDays < 0 {
		return fmt.Errorf("masterdata: payment terms must not be negative: %w", shared.ErrValidation)
	}
	return nil
}

// SupplierInput carries create/update fields.
type SupplierInput struct {
	CompanyID        int64
	Name             string
	Email            string
	Phone            string
	Address          string
	PaymentTermsDays int
}

func (in SupplierInput) Validate() error {
	if in.CompanyID == 0 {
		return fmt.Errorf("masterdata: company id required: %w", shared.ErrValidation)
	}
	if strings.TrimSpace(in.Name) == "" {
		return fmt.Errorf("masterdata: supplier name required: %w", shared.ErrValidation)
	}
	if in.PaymentTermsDays < 0 {
		return fmt.Errorf("masterdata: payment terms must not be negative: %w", shared.ErrValidation)
	}
	return nil
}

// ProjectInput carries create/update fields.
type ProjectInput struct {
	CompanyID   int64
	Name        string
	Description string
}

func (in ProjectInput) Validate() error {
	if in.CompanyID == 0 {
		return fmt.Errorf("masterdata: company id required: %w", shared.ErrValidation)
	}
	if strings.TrimSpace(in.Name) == "" {
		return fmt.Errorf("masterdata: project name required: %w", shared.ErrValidation)
	}
	return nil
}

// ItemInput carries create/update fields.
type ItemInput struct {
	CompanyID int64
	SKU       string
	Name      string
	UnitPrice decimal.Decimal
}

func (in ItemInput) Validate() error {
	if in.CompanyID == 0 {
		return fmt.Errorf("masterdata: company id required: %w", shared.ErrValidation)
	}
	if strings.TrimSpace(in.Name) == "" {
		return fmt.Errorf("masterdata: item name required: %w", shared.ErrValidation)
	}
	if in.UnitPrice.IsNegative() {
		return fmt.Errorf("masterdata: unit price must not be negative: %w", shared.ErrValidation)
	}
	return nil
}
