package grantkit

import (
	"context"
	"errors"

	"github.com/fernandezvara/dbkit"
)

// ============================================================================
// ASSIGNMENT WRITE OPERATIONS
// ============================================================================

// assignOptions carries per-call assignment options.
type assignOptions struct {
	tenantKey string
	tenantSet bool
}

// AssignOption configures a single Assign call.
type AssignOption func(*assignOptions)

// WithTenant asserts the tenant context for both sides of the assignment.
// Used when multitenancy is enabled without auto scoping; the caller vouches
// that subject and target belong to this tenant.
func WithTenant(tenantKey string) AssignOption {
	return func(o *assignOptions) {
		o.tenantKey = tenantKey
		o.tenantSet = true
	}
}

// Assign grants a role to a subject on a target.
//
// The role must be registered. With multitenancy enabled, a brand-new
// (subject, target) pair passes through the tenant integrity guard; a pair
// with a live assignment keeps its established tenant context. Under the
// replace strategy any prior role for the pair is swapped out atomically;
// under the add strategy re-assigning a held role is a no-op.
//
// Example:
//
//	err := service.Assign(ctx, grantkit.NewRef("user", "42"), project, "editor")
func (s *Service) Assign(ctx context.Context, subject, target Ref, role string, opts ...AssignOption) error {
	if err := validatePair(subject, target); err != nil {
		return err
	}

	descriptor, err := s.registry.Resolve(role)
	if err != nil {
		return err
	}
	storageKey, err := s.registry.StorageKey(descriptor.Name)
	if err != nil {
		return err
	}

	var options assignOptions
	for _, opt := range opts {
		opt(&options)
	}
	if options.tenantSet && !s.multitenancy {
		return NewError(ErrMisconfiguredMultitenancy, "WithTenant requires multitenancy to be enabled").
			WithPair(subject, target).WithTenant(options.tenantKey)
	}

	existing, err := s.pairAssignments(ctx, subject, target)
	if err != nil {
		return err
	}

	tenantKey := ""
	if s.multitenancy {
		if len(existing) > 0 {
			// Established relationship: tenant drift does not gate it.
			tenantKey = existing[0].TenantKey
		} else {
			tenantKey, err = s.tenantKeyForNewPair(ctx, subject, target, options)
			if err != nil {
				return err
			}
		}
	}

	record := &Assignment{
		SubjectType: subject.Type,
		SubjectID:   subject.ID,
		TargetType:  target.Type,
		TargetID:    target.ID,
		RoleKey:     storageKey,
		TenantKey:   tenantKey,
	}

	switch s.strategy {
	case StrategyAdd:
		inserted, err := s.insertIgnoringDuplicate(ctx, s.db, record)
		if err != nil {
			return err
		}
		if !inserted {
			// Subject already holds this exact role: idempotent no-op.
			return nil
		}

	default: // StrategyReplace
		if len(existing) == 1 && existing[0].RoleKey == storageKey {
			// Same single role already in place: nothing to replace.
			return nil
		}
		err := s.inTransaction(ctx, func(db dbkit.IDB) error {
			if err := deletePair(ctx, db, subject, target); err != nil {
				return err
			}
			result, err := db.NewInsert().Model(record).Exec(ctx)
			return dbkit.WithErr(result, err, "ReplaceAssignmentInsert").Err()
		})
		if err != nil {
			return wrapStoreError(err, subject, target, role)
		}
	}

	s.cache.invalidateRefs(ctx, subject, target)
	s.publish(ctx, newEvent(ctx, EventRoleAssigned, subject, target, descriptor.Name, ""))
	return nil
}

// ChangeRoleOn swaps the role a subject holds on a target: remove-then-assign
// restricted to the existing pair, in one transaction. Because it operates on
// an established relationship, the tenant guard is bypassed; a subject whose
// tenant context drifted after the original assignment can still be moved
// between roles. A pair with no live assignment falls through to Assign.
func (s *Service) ChangeRoleOn(ctx context.Context, subject, target Ref, newRole string) error {
	if err := validatePair(subject, target); err != nil {
		return err
	}

	descriptor, err := s.registry.Resolve(newRole)
	if err != nil {
		return err
	}
	storageKey, err := s.registry.StorageKey(descriptor.Name)
	if err != nil {
		return err
	}

	existing, err := s.pairAssignments(ctx, subject, target)
	if err != nil {
		return err
	}
	if len(existing) == 0 {
		return s.Assign(ctx, subject, target, newRole)
	}

	oldRole, err := s.registry.Resolve(existing[0].RoleKey)
	if err != nil {
		return err
	}
	if len(existing) == 1 && existing[0].RoleKey == storageKey {
		return nil
	}

	record := &Assignment{
		SubjectType: subject.Type,
		SubjectID:   subject.ID,
		TargetType:  target.Type,
		TargetID:    target.ID,
		RoleKey:     storageKey,
		TenantKey:   existing[0].TenantKey,
		CreatedAt:   existing[0].CreatedAt,
	}

	err = s.inTransaction(ctx, func(db dbkit.IDB) error {
		if err := deletePair(ctx, db, subject, target); err != nil {
			return err
		}
		result, err := db.NewInsert().Model(record).Exec(ctx)
		return dbkit.WithErr(result, err, "ChangeRoleInsert").Err()
	})
	if err != nil {
		return wrapStoreError(err, subject, target, newRole)
	}

	s.cache.invalidateRefs(ctx, subject, target)
	s.publish(ctx, newEvent(ctx, EventRoleChanged, subject, target, descriptor.Name, oldRole.Name))
	return nil
}

// Remove deletes every assignment for the pair. Removing a pair that holds
// nothing is not an error.
func (s *Service) Remove(ctx context.Context, subject, target Ref) error {
	if err := validatePair(subject, target); err != nil {
		return err
	}

	result, err := s.db.NewDelete().Table("assignments").
		Where("subject_type = ? AND subject_id = ? AND target_type = ? AND target_id = ?",
			subject.Type, subject.ID, target.Type, target.ID).
		Exec(ctx)
	if err := dbkit.WithErr(result, err, "RemoveAssignments").Err(); err != nil {
		return wrapStoreError(err, subject, target, "")
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return wrapStoreError(err, subject, target, "")
	}
	if rows == 0 {
		return nil
	}

	s.cache.invalidateRefs(ctx, subject, target)
	s.publish(ctx, newEvent(ctx, EventRoleRemoved, subject, target, "", ""))
	return nil
}

// DestroyTenantAssignments bulk-deletes every assignment under a tenant and
// returns the number of records removed. Zero matches is a zero count, not
// an error.
func (s *Service) DestroyTenantAssignments(ctx context.Context, tenantKey string) (int, error) {
	if !s.multitenancy {
		return 0, NewError(ErrMisconfiguredMultitenancy, "tenant-scoped purge requires multitenancy").
			WithTenant(tenantKey)
	}
	if tenantKey == "" {
		return 0, NewError(ErrInvalidConfig, "tenant key must not be empty")
	}

	result, err := s.db.NewDelete().Table("assignments").
		Where("tenant_key = ?", tenantKey).
		Exec(ctx)
	if err := dbkit.WithErr(result, err, "DestroyTenantAssignments").Err(); err != nil {
		return 0, NewError(ErrDatabase, "tenant purge failed: "+err.Error()).WithTenant(tenantKey)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, NewError(ErrDatabase, "tenant purge failed: "+err.Error()).WithTenant(tenantKey)
	}
	if rows > 0 {
		// Affected pairs are not enumerable after the delete; drop the
		// whole namespace.
		s.cache.invalidateAll(ctx)
	}
	return int(rows), nil
}

// ============================================================================
// INTERNAL HELPERS
// ============================================================================

// tenantKeyForNewPair runs the integrity guard for a pair with no live
// assignment and returns the tenant key to persist.
func (s *Service) tenantKeyForNewPair(ctx context.Context, subject, target Ref, options assignOptions) (string, error) {
	if options.tenantSet {
		// Caller vouches for both sides.
		sub := tenantContext{key: options.tenantKey, ok: true}
		return s.guard.evaluate(subject, target, sub, sub)
	}
	if !s.autoScope {
		// No resolver pass requested: tenant-agnostic relationship.
		return "", nil
	}
	sub, tgt, err := s.guard.resolvePair(ctx, subject, target)
	if err != nil {
		return "", err
	}
	return s.guard.evaluate(subject, target, sub, tgt)
}

// pairAssignments returns the live assignments for a pair, oldest first.
func (s *Service) pairAssignments(ctx context.Context, subject, target Ref) ([]Assignment, error) {
	var assignments []Assignment
	err := dbkit.WithErr1(s.db.NewSelect().Model(&assignments).
		Where("subject_type = ? AND subject_id = ? AND target_type = ? AND target_id = ?",
			subject.Type, subject.ID, target.Type, target.ID).
		Order("created_at ASC").
		Scan(ctx), "GetPairAssignments").Err()
	if err != nil {
		return nil, wrapStoreError(err, subject, target, "")
	}
	return assignments, nil
}

// insertIgnoringDuplicate inserts an assignment, treating a uniqueness
// conflict as "already held". The unique constraint is the authority here:
// concurrent assigns across processes cannot both insert.
func (s *Service) insertIgnoringDuplicate(ctx context.Context, db dbkit.IDB, record *Assignment) (bool, error) {
	result, err := db.NewInsert().Model(record).
		On("CONFLICT (subject_type, subject_id, target_type, target_id, role_key) DO NOTHING").
		Exec(ctx)
	if err := dbkit.WithErr(result, err, "AddAssignmentInsert").Err(); err != nil {
		if dbkit.IsDuplicate(err) {
			return false, nil
		}
		return false, wrapStoreError(err, record.Subject(), record.Target(), "")
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, wrapStoreError(err, record.Subject(), record.Target(), "")
	}
	return rows > 0, nil
}

func deletePair(ctx context.Context, db dbkit.IDB, subject, target Ref) error {
	result, err := db.NewDelete().Table("assignments").
		Where("subject_type = ? AND subject_id = ? AND target_type = ? AND target_id = ?",
			subject.Type, subject.ID, target.Type, target.ID).
		Exec(ctx)
	return dbkit.WithErr(result, err, "DeletePairAssignments").Err()
}

func validatePair(subject, target Ref) error {
	if err := subject.Validate(); err != nil {
		return NewError(ErrInvalidRef, "subject: type and id are both required").WithSubject(subject)
	}
	if err := target.Validate(); err != nil {
		return NewError(ErrInvalidRef, "target: type and id are both required").WithTarget(target)
	}
	return nil
}

// wrapStoreError keeps engine-level errors intact and wraps raw storage
// failures so callers never see a bare driver error. Uniqueness violations
// become ErrDuplicateAssignment.
func wrapStoreError(err error, subject, target Ref, role string) error {
	if err == nil {
		return nil
	}
	var engineErr *Error
	if errors.As(err, &engineErr) {
		return err
	}
	sentinel := ErrDatabase
	if dbkit.IsDuplicate(err) {
		sentinel = ErrDuplicateAssignment
	}
	wrapped := NewError(sentinel, err.Error()).WithPair(subject, target)
	if role != "" {
		wrapped = wrapped.WithRole(role)
	}
	return wrapped
}
