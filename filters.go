package grantkit

import (
	"time"

	"github.com/uptrace/bun"
)

// AssignmentFilter provides options for ad-hoc assignment queries.
type AssignmentFilter struct {
	// Filter by subject reference
	SubjectType string
	SubjectID   string

	// Filter by target reference
	TargetType string
	TargetID   string

	// Filter by exact storage key (use Registry.StorageKey to compute one)
	RoleKey string

	// Filter by tenant
	TenantKey string

	// Filter by creation time range
	Since time.Time
	Until time.Time

	// Pagination
	Limit  int
	Offset int
}

// NewAssignmentFilter creates a filter with default values.
func NewAssignmentFilter() AssignmentFilter {
	return AssignmentFilter{
		Limit: 100,
	}
}

// WithSubject sets the subject filter.
func (f AssignmentFilter) WithSubject(subject Ref) AssignmentFilter {
	f.SubjectType = subject.Type
	f.SubjectID = subject.ID
	return f
}

// WithTarget sets the target filter.
func (f AssignmentFilter) WithTarget(target Ref) AssignmentFilter {
	f.TargetType = target.Type
	f.TargetID = target.ID
	return f
}

// WithTargetType sets only the target type filter.
func (f AssignmentFilter) WithTargetType(targetType string) AssignmentFilter {
	f.TargetType = targetType
	return f
}

// WithRoleKey sets the storage key filter.
func (f AssignmentFilter) WithRoleKey(roleKey string) AssignmentFilter {
	f.RoleKey = roleKey
	return f
}

// WithTenant sets the tenant filter.
func (f AssignmentFilter) WithTenant(tenantKey string) AssignmentFilter {
	f.TenantKey = tenantKey
	return f
}

// WithTimeRange sets the creation time range filter.
func (f AssignmentFilter) WithTimeRange(since, until time.Time) AssignmentFilter {
	f.Since = since
	f.Until = until
	return f
}

// WithPagination sets both limit and offset.
func (f AssignmentFilter) WithPagination(limit, offset int) AssignmentFilter {
	f.Limit = limit
	f.Offset = offset
	return f
}

// apply adds the filter's conditions to a select query.
func (f AssignmentFilter) apply(q *bun.SelectQuery) *bun.SelectQuery {
	if f.SubjectType != "" {
		q = q.Where("subject_type = ?", f.SubjectType)
	}
	if f.SubjectID != "" {
		q = q.Where("subject_id = ?", f.SubjectID)
	}
	if f.TargetType != "" {
		q = q.Where("target_type = ?", f.TargetType)
	}
	if f.TargetID != "" {
		q = q.Where("target_id = ?", f.TargetID)
	}
	if f.RoleKey != "" {
		q = q.Where("role_key = ?", f.RoleKey)
	}
	if f.TenantKey != "" {
		q = q.Where("tenant_key = ?", f.TenantKey)
	}
	if !f.Since.IsZero() {
		q = q.Where("created_at >= ?", f.Since)
	}
	if !f.Until.IsZero() {
		q = q.Where("created_at <= ?", f.Until)
	}

	limit := f.Limit
	if limit == 0 {
		limit = 100
	}
	q = q.Limit(limit)
	if f.Offset > 0 {
		q = q.Offset(f.Offset)
	}
	return q.Order("created_at DESC")
}
