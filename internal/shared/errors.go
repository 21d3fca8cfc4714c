package shared

import "errors"

// Base error taxonomy. Domain packages wrap these so transport code can map
// any failure to a status without importing every module.
var (
	// ErrNotFound indicates a referenced entity does not exist.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate indicates a uniqueness constraint was violated.
	ErrDuplicate = errors.New("duplicate entity")
	// ErrCrossTenant indicates a referenced entity belongs to another company.
	ErrCrossTenant = errors.New("cross-tenant reference")
	// ErrValidation indicates the request violates a business rule.
	ErrValidation = errors.New("validation failed")
	// ErrConflict indicates an optimistic or serialization conflict that
	// exhausted its retries.
	ErrConflict = errors.New("concurrency conflict")
)
