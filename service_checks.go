package grantkit

import (
	"context"

	"github.com/uptrace/bun"

	"github.com/fernandezvara/dbkit"
)

// ============================================================================
// ROLE CHECKS
// ============================================================================

// HasRoleOn reports whether the subject holds the given role on the target.
// A missing assignment is false, never an error; an unregistered role name
// is also false (a role that cannot exist cannot be held). Only malformed
// references error.
func (s *Service) HasRoleOn(ctx context.Context, subject, target Ref, role string) (bool, error) {
	if err := validatePair(subject, target); err != nil {
		return false, err
	}

	descriptor, err := s.registry.Resolve(role)
	if err != nil {
		if IsRoleNotFound(err) {
			return false, nil
		}
		return false, err
	}
	storageKey, err := s.registry.StorageKey(descriptor.Name)
	if err != nil {
		return false, err
	}

	key := keyHasRole(subject, target, roleKeyHash(storageKey))
	var cached bool
	if s.cache.get(ctx, key, &cached) {
		return cached, nil
	}

	held, err := dbkit.Exists[Assignment](ctx, s.db, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("subject_type = ? AND subject_id = ? AND target_type = ? AND target_id = ? AND role_key = ?",
			subject.Type, subject.ID, target.Type, target.ID, storageKey)
	})
	if err != nil {
		return false, wrapStoreError(err, subject, target, role)
	}

	s.cache.set(ctx, OpHasRole, key, held, tagPair(subject, target), tagSubject(subject), tagTarget(target))
	return held, nil
}

// HasAnyRoleOn reports whether the subject holds any role on the target.
func (s *Service) HasAnyRoleOn(ctx context.Context, subject, target Ref) (bool, error) {
	if err := validatePair(subject, target); err != nil {
		return false, err
	}

	key := keyHasAnyRole(subject, target)
	var cached bool
	if s.cache.get(ctx, key, &cached) {
		return cached, nil
	}

	held, err := dbkit.Exists[Assignment](ctx, s.db, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("subject_type = ? AND subject_id = ? AND target_type = ? AND target_id = ?",
			subject.Type, subject.ID, target.Type, target.ID)
	})
	if err != nil {
		return false, wrapStoreError(err, subject, target, "")
	}

	s.cache.set(ctx, OpHasAnyRole, key, held, tagPair(subject, target), tagSubject(subject), tagTarget(target))
	return held, nil
}

// RoleOn returns the role the subject holds on the target, or nil when it
// holds none. Under the add strategy, with several roles on the pair, the
// oldest assignment wins. Stored keys that no longer decode surface as
// codec errors, not as nil.
func (s *Service) RoleOn(ctx context.Context, subject, target Ref) (*Role, error) {
	if err := validatePair(subject, target); err != nil {
		return nil, err
	}

	key := keyRoleOn(subject, target)
	var cachedName string
	if s.cache.get(ctx, key, &cachedName) {
		if cachedName == "" {
			return nil, nil
		}
		role, err := s.registry.Resolve(cachedName)
		if err != nil {
			return nil, err
		}
		return &role, nil
	}

	assignments, err := s.pairAssignments(ctx, subject, target)
	if err != nil {
		return nil, err
	}
	if len(assignments) == 0 {
		s.cache.set(ctx, OpRoleOn, key, "", tagPair(subject, target), tagSubject(subject), tagTarget(target))
		return nil, nil
	}

	role, err := s.registry.Resolve(assignments[0].RoleKey)
	if err != nil {
		return nil, err
	}

	s.cache.set(ctx, OpRoleOn, key, role.Name, tagPair(subject, target), tagSubject(subject), tagTarget(target))
	return &role, nil
}

// HasRoleAtLeast reports whether the subject holds a role on the target that
// ranks at or above the given role in the hierarchy.
func (s *Service) HasRoleAtLeast(ctx context.Context, subject, target Ref, role string) (bool, error) {
	floor, err := s.registry.Resolve(role)
	if err != nil {
		if IsRoleNotFound(err) {
			return false, nil
		}
		return false, err
	}

	held, err := s.RoleOn(ctx, subject, target)
	if err != nil || held == nil {
		return false, err
	}
	return held.IsAtLeast(floor), nil
}
