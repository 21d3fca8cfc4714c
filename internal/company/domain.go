// Package company registers tenants. Registration writes the company row
// and seeds its reserved chart-of-accounts entries in one transaction, so
// a company never exists without the system accounts documents post to.
package company

import (
	"fmt"
	"strings"
	"time"

	"github.com/vantage-books/vantage/internal/shared"
)

// Company is a tenant. Every other table keys on its ID.
type Company struct {
	ID        int64
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

var (
	ErrCompanyNotFound = fmt.Errorf("company: %w", shared.ErrNotFound)
	ErrDuplicateName   = fmt.Errorf("company: name already registered: %w", shared.ErrDuplicate)
)

// RegisterInput carries the fields for registering a company.
type RegisterInput struct {
	Name string
}

func (in RegisterInput) Validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return fmt.Errorf("company: name required: %w", shared.ErrValidation)
	}
	return nil
}
