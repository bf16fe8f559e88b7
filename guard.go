package grantkit

import (
	"context"
	"fmt"
)

// TenantResolver reports the tenant context of an entity. The second return
// is false for tenant-agnostic entities (system accounts, global resources).
type TenantResolver interface {
	TenantKey(ctx context.Context, ref Ref) (string, bool, error)
}

// TenantResolverFunc adapts a function to the TenantResolver interface.
type TenantResolverFunc func(ctx context.Context, ref Ref) (string, bool, error)

// TenantKey implements TenantResolver.
func (f TenantResolverFunc) TenantKey(ctx context.Context, ref Ref) (string, bool, error) {
	return f(ctx, ref)
}

// tenantContext is one side's resolved tenant state.
type tenantContext struct {
	key string
	ok  bool
}

// tenantGuard enforces that subject and target share a tenant context before
// a new assignment is written. Established pairs bypass the guard entirely:
// a subject that switched tenants keeps pre-existing grants until revoked.
type tenantGuard struct {
	resolver TenantResolver
}

func newTenantGuard(resolver TenantResolver) *tenantGuard {
	return &tenantGuard{resolver: resolver}
}

// resolvePair resolves both sides through the configured resolver.
func (g *tenantGuard) resolvePair(ctx context.Context, subject, target Ref) (tenantContext, tenantContext, error) {
	if g.resolver == nil {
		return tenantContext{}, tenantContext{}, nil
	}

	sKey, sOK, err := g.resolver.TenantKey(ctx, subject)
	if err != nil {
		return tenantContext{}, tenantContext{}, NewError(ErrDatabase, "resolving subject tenant: "+err.Error()).WithSubject(subject)
	}
	tKey, tOK, err := g.resolver.TenantKey(ctx, target)
	if err != nil {
		return tenantContext{}, tenantContext{}, NewError(ErrDatabase, "resolving target tenant: "+err.Error()).WithTarget(target)
	}
	return tenantContext{key: sKey, ok: sOK}, tenantContext{key: tKey, ok: tOK}, nil
}

// evaluate applies the integrity rules in order and returns the tenant key
// to persist on the record (empty for tenant-agnostic relationships).
//
//  1. Neither side has a tenant context: allow.
//  2. Exactly one side has one: reject, naming the missing side.
//  3. Both have one and they differ: reject as cross-tenant access.
//  4. Both match: allow, persist the key.
func (g *tenantGuard) evaluate(subject, target Ref, sub, tgt tenantContext) (string, error) {
	switch {
	case !sub.ok && !tgt.ok:
		return "", nil
	case !sub.ok:
		return "", NewError(ErrTenantIntegrity, "subject has no tenant context but target belongs to tenant "+tgt.key).
			WithPair(subject, target).WithTenant(tgt.key)
	case !tgt.ok:
		return "", NewError(ErrTenantIntegrity, "target has no tenant context but subject belongs to tenant "+sub.key).
			WithPair(subject, target).WithTenant(sub.key)
	case sub.key != tgt.key:
		return "", NewError(ErrTenantIntegrity,
			fmt.Sprintf("cross-tenant assignment: subject tenant %q, target tenant %q", sub.key, tgt.key)).
			WithPair(subject, target).WithTenant(sub.key)
	}
	return sub.key, nil
}
