package grantkit

import (
	"errors"
	"fmt"
)

// Sentinel errors for GrantKit operations.
var (
	// ErrRoleNotFound is returned when a role identifier does not resolve
	// through the registry or the key codec. A usage error, never retried.
	ErrRoleNotFound = errors.New("grantkit: role not found")

	// ErrCodec is returned when a stored role key cannot be decoded under
	// the active key-storage mode (corrupted ciphertext, malformed hash).
	// Unlike ErrRoleNotFound it signals a data-integrity problem.
	ErrCodec = errors.New("grantkit: key codec error")

	// ErrTenantIntegrity is returned when a new assignment crosses tenant
	// boundaries or one side lacks a tenant context.
	ErrTenantIntegrity = errors.New("grantkit: tenant integrity violation")

	// ErrDuplicateAssignment is returned when a uniqueness violation on the
	// assignments table cannot be translated into an idempotent no-op.
	ErrDuplicateAssignment = errors.New("grantkit: duplicate assignment")

	// ErrMisconfiguredMultitenancy is returned when a tenant-scoped
	// operation is invoked while multitenancy is disabled.
	ErrMisconfiguredMultitenancy = errors.New("grantkit: multitenancy not enabled")

	// ErrInvalidRef is returned when a subject or target reference is
	// missing its type or ID.
	ErrInvalidRef = errors.New("grantkit: invalid entity reference")

	// ErrInvalidConfig is returned when configuration values are not
	// recognized or are mutually inconsistent.
	ErrInvalidConfig = errors.New("grantkit: invalid configuration")

	// ErrDatabase is returned when a database operation fails.
	ErrDatabase = errors.New("grantkit: database error")
)

// Error wraps a sentinel error with assignment context.
type Error struct {
	Err     error  // Underlying sentinel error
	Message string // Additional context
	Subject Ref    // Subject involved (if applicable)
	Target  Ref    // Target involved (if applicable)
	Role    string // Role identifier involved (if applicable)
	Tenant  string // Tenant key involved (if applicable)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Err.Error(), e.Message)
	}
	return e.Err.Error()
}

// Unwrap returns the underlying error for errors.Is/As.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is checks if the error matches a target error.
func (e *Error) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewError creates a new Error with context.
func NewError(err error, message string) *Error {
	return &Error{
		Err:     err,
		Message: message,
	}
}

// WithSubject adds subject information to the error.
func (e *Error) WithSubject(subject Ref) *Error {
	e.Subject = subject
	return e
}

// WithTarget adds target information to the error.
func (e *Error) WithTarget(target Ref) *Error {
	e.Target = target
	return e
}

// WithPair adds subject and target information to the error.
func (e *Error) WithPair(subject, target Ref) *Error {
	e.Subject = subject
	e.Target = target
	return e
}

// WithRole adds role information to the error.
func (e *Error) WithRole(role string) *Error {
	e.Role = role
	return e
}

// WithTenant adds tenant information to the error.
func (e *Error) WithTenant(tenantKey string) *Error {
	e.Tenant = tenantKey
	return e
}

// IsRoleNotFound checks if an error is due to an unresolvable role.
func IsRoleNotFound(err error) bool {
	return errors.Is(err, ErrRoleNotFound)
}

// IsCodecError checks if an error is due to an undecodable storage key.
func IsCodecError(err error) bool {
	return errors.Is(err, ErrCodec)
}

// IsTenantIntegrityViolation checks if an error is a tenant guard rejection.
func IsTenantIntegrityViolation(err error) bool {
	return errors.Is(err, ErrTenantIntegrity)
}

// IsDuplicateAssignment checks if an error is a duplicate assignment conflict.
func IsDuplicateAssignment(err error) bool {
	return errors.Is(err, ErrDuplicateAssignment)
}

// IsInvalidRef checks if an error is due to a malformed entity reference.
func IsInvalidRef(err error) bool {
	return errors.Is(err, ErrInvalidRef)
}
