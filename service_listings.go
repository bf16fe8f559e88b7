package grantkit

import (
	"context"

	"github.com/uptrace/bun"

	"github.com/fernandezvara/dbkit"
)

// ============================================================================
// LISTING OPERATIONS
// ============================================================================

// Participants returns every subject holding any role on the target.
// Listings route through the query planner: entity types registered with a
// same-store source are narrowed by a join, external ones by an ID-list
// filter, with identical results either way.
func (s *Service) Participants(ctx context.Context, target Ref) ([]Ref, error) {
	if err := target.Validate(); err != nil {
		return nil, NewError(ErrInvalidRef, "target: type and id are both required").WithTarget(target)
	}

	key := keyParticipants(target, "")
	var cached []Ref
	if s.cache.get(ctx, key, &cached) {
		return cached, nil
	}

	refs, err := s.planner.participants(ctx, target, "")
	if err != nil {
		return nil, err
	}

	s.cache.set(ctx, OpParticipants, key, refs, tagTarget(target))
	return refs, nil
}

// ParticipantsWithRole returns every subject holding the given role on the
// target. An unregistered role yields an empty listing.
func (s *Service) ParticipantsWithRole(ctx context.Context, target Ref, role string) ([]Ref, error) {
	if err := target.Validate(); err != nil {
		return nil, NewError(ErrInvalidRef, "target: type and id are both required").WithTarget(target)
	}

	descriptor, err := s.registry.Resolve(role)
	if err != nil {
		if IsRoleNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	storageKey, err := s.registry.StorageKey(descriptor.Name)
	if err != nil {
		return nil, err
	}

	key := keyParticipants(target, roleKeyHash(storageKey))
	var cached []Ref
	if s.cache.get(ctx, key, &cached) {
		return cached, nil
	}

	refs, err := s.planner.participants(ctx, target, storageKey)
	if err != nil {
		return nil, err
	}

	s.cache.set(ctx, OpParticipants, key, refs, tagTarget(target))
	return refs, nil
}

// AssignedTargets returns every target of the given type the subject holds
// any role on.
//
// Example:
//
//	projects, err := service.AssignedTargets(ctx, user, "project")
func (s *Service) AssignedTargets(ctx context.Context, subject Ref, targetType string) ([]Ref, error) {
	if err := subject.Validate(); err != nil {
		return nil, NewError(ErrInvalidRef, "subject: type and id are both required").WithSubject(subject)
	}
	if targetType == "" {
		return nil, NewError(ErrInvalidRef, "target type is required")
	}

	key := keyAssignedTargets(subject, targetType)
	var cached []Ref
	if s.cache.get(ctx, key, &cached) {
		return cached, nil
	}

	refs, err := s.planner.assignedTargets(ctx, subject, targetType)
	if err != nil {
		return nil, err
	}

	s.cache.set(ctx, OpAssignedTargets, key, refs, tagSubject(subject))
	return refs, nil
}

// Assignments retrieves raw assignment records with optional filters.
// Uncached; meant for admin and reporting surfaces, not hot paths.
func (s *Service) Assignments(ctx context.Context, filter AssignmentFilter) ([]Assignment, error) {
	var assignments []Assignment
	q := filter.apply(s.db.NewSelect().Model(&assignments))
	if err := dbkit.WithErr1(q.Scan(ctx), "ListAssignments").Err(); err != nil {
		return nil, err
	}
	return assignments, nil
}

// CountAssignments returns the total number of assignment records.
// Useful for monitoring and analytics.
func (s *Service) CountAssignments(ctx context.Context) (int, error) {
	return dbkit.Count[Assignment](ctx, s.db, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q
	})
}
