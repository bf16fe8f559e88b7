package grantkit

import (
	"context"

	"github.com/fernandezvara/dbkit"
)

// Database defines the database operations interface for dependency injection
type Database interface {
	dbkit.IDB
}

// Assigner defines the assignment write operations
type Assigner interface {
	Assign(ctx context.Context, subject, target Ref, role string, opts ...AssignOption) error
	ChangeRoleOn(ctx context.Context, subject, target Ref, newRole string) error
	Remove(ctx context.Context, subject, target Ref) error
}

// Checker defines the role check operations
type Checker interface {
	HasRoleOn(ctx context.Context, subject, target Ref, role string) (bool, error)
	HasAnyRoleOn(ctx context.Context, subject, target Ref) (bool, error)
	RoleOn(ctx context.Context, subject, target Ref) (*Role, error)
	HasRoleAtLeast(ctx context.Context, subject, target Ref, role string) (bool, error)
}

// Lister defines the listing operations
type Lister interface {
	Participants(ctx context.Context, target Ref) ([]Ref, error)
	ParticipantsWithRole(ctx context.Context, target Ref, role string) ([]Ref, error)
	AssignedTargets(ctx context.Context, subject Ref, targetType string) ([]Ref, error)
}

// TenantAdmin defines the tenant-scoped bulk operations
type TenantAdmin interface {
	DestroyTenantAssignments(ctx context.Context, tenantKey string) (int, error)
}

// TransactionManager defines the transaction management interface
type TransactionManager interface {
	Transaction(ctx context.Context, fn func(ctx context.Context, txs *Service) error) error
	ReadOnlyTransaction(ctx context.Context, fn func(ctx context.Context, txs *Service) error) error
}

// HealthMonitor defines the health monitoring interface
type HealthMonitor interface {
	Health(ctx context.Context) dbkit.HealthStatus
	IsHealthy(ctx context.Context) bool
	Ping(ctx context.Context) error
	GetPoolStats() dbkit.PoolStats
}

// Engine is the full assignment store surface.
type Engine interface {
	Assigner
	Checker
	Lister
	TenantAdmin
}
