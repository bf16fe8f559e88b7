package grantkit

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTenantGuardEvaluate(t *testing.T) {
	guard := newTenantGuard(nil)
	subject := NewRef("user", "1")
	target := NewRef("project", "1")

	t.Run("neither side scoped allows", func(t *testing.T) {
		key, err := guard.evaluate(subject, target, tenantContext{}, tenantContext{})
		require.NoError(t, err)
		assert.Empty(t, key)
	})

	t.Run("subject missing context rejects", func(t *testing.T) {
		_, err := guard.evaluate(subject, target,
			tenantContext{},
			tenantContext{key: "tenant-b", ok: true})
		assert.True(t, IsTenantIntegrityViolation(err))
		assert.Contains(t, err.Error(), "subject has no tenant context")
	})

	t.Run("target missing context rejects", func(t *testing.T) {
		_, err := guard.evaluate(subject, target,
			tenantContext{key: "tenant-a", ok: true},
			tenantContext{})
		assert.True(t, IsTenantIntegrityViolation(err))
		assert.Contains(t, err.Error(), "target has no tenant context")
	})

	t.Run("mismatched tenants reject", func(t *testing.T) {
		_, err := guard.evaluate(subject, target,
			tenantContext{key: "tenant-a", ok: true},
			tenantContext{key: "tenant-b", ok: true})
		assert.True(t, IsTenantIntegrityViolation(err))
		assert.Contains(t, err.Error(), "cross-tenant")

		var detailed *Error
		require.True(t, errors.As(err, &detailed))
		assert.Equal(t, subject, detailed.Subject)
		assert.Equal(t, target, detailed.Target)
	})

	t.Run("matching tenants allow and persist key", func(t *testing.T) {
		key, err := guard.evaluate(subject, target,
			tenantContext{key: "tenant-a", ok: true},
			tenantContext{key: "tenant-a", ok: true})
		require.NoError(t, err)
		assert.Equal(t, "tenant-a", key)
	})
}

func TestTenantGuardResolvePair(t *testing.T) {
	tenants := map[string]string{
		"user:1":    "tenant-a",
		"project:1": "tenant-a",
		"project:2": "tenant-b",
	}
	resolver := TenantResolverFunc(func(_ context.Context, ref Ref) (string, bool, error) {
		key, ok := tenants[ref.String()]
		return key, ok, nil
	})
	guard := newTenantGuard(resolver)

	sub, tgt, err := guard.resolvePair(context.Background(), NewRef("user", "1"), NewRef("project", "2"))
	require.NoError(t, err)
	assert.Equal(t, tenantContext{key: "tenant-a", ok: true}, sub)
	assert.Equal(t, tenantContext{key: "tenant-b", ok: true}, tgt)

	_, tgt, err = guard.resolvePair(context.Background(), NewRef("user", "1"), NewRef("project", "99"))
	require.NoError(t, err)
	assert.False(t, tgt.ok, "unknown entity is tenant-agnostic")
}

func TestTenantGuardResolverFailure(t *testing.T) {
	boom := errors.New("store unreachable")
	resolver := TenantResolverFunc(func(_ context.Context, _ Ref) (string, bool, error) {
		return "", false, boom
	})
	guard := newTenantGuard(resolver)

	_, _, err := guard.resolvePair(context.Background(), NewRef("user", "1"), NewRef("project", "1"))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "store unreachable")
}

func TestTenantGuardNilResolver(t *testing.T) {
	guard := newTenantGuard(nil)

	sub, tgt, err := guard.resolvePair(context.Background(), NewRef("user", "1"), NewRef("project", "1"))
	require.NoError(t, err)
	assert.False(t, sub.ok)
	assert.False(t, tgt.ok)
}
