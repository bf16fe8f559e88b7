package grantkit

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorWrapping(t *testing.T) {
	err := NewError(ErrTenantIntegrity, "cross-tenant assignment").
		WithPair(NewRef("user", "1"), NewRef("project", "2")).
		WithRole("admin").
		WithTenant("tenant-a")

	assert.True(t, errors.Is(err, ErrTenantIntegrity))
	assert.False(t, errors.Is(err, ErrRoleNotFound))
	assert.Equal(t, ErrTenantIntegrity, errors.Unwrap(err))
	assert.Contains(t, err.Error(), "cross-tenant assignment")

	var detailed *Error
	require.True(t, errors.As(err, &detailed))
	assert.Equal(t, "user", detailed.Subject.Type)
	assert.Equal(t, "project", detailed.Target.Type)
	assert.Equal(t, "admin", detailed.Role)
	assert.Equal(t, "tenant-a", detailed.Tenant)
}

func TestErrorWithoutMessage(t *testing.T) {
	err := NewError(ErrRoleNotFound, "")
	assert.Equal(t, ErrRoleNotFound.Error(), err.Error())
}

func TestErrorSurvivesFurtherWrapping(t *testing.T) {
	inner := NewError(ErrCodec, "cannot decrypt key")
	outer := fmt.Errorf("resolving stored role: %w", inner)

	assert.True(t, IsCodecError(outer))
	var detailed *Error
	assert.True(t, errors.As(outer, &detailed))
}

func TestErrorClassifiers(t *testing.T) {
	cases := []struct {
		err   error
		check func(error) bool
	}{
		{NewError(ErrRoleNotFound, "x"), IsRoleNotFound},
		{NewError(ErrCodec, "x"), IsCodecError},
		{NewError(ErrTenantIntegrity, "x"), IsTenantIntegrityViolation},
		{NewError(ErrDuplicateAssignment, "x"), IsDuplicateAssignment},
		{NewError(ErrInvalidRef, "x"), IsInvalidRef},
	}

	for _, tc := range cases {
		assert.True(t, tc.check(tc.err), "%v", tc.err)
	}

	// Each classifier matches only its own sentinel.
	assert.False(t, IsRoleNotFound(NewError(ErrCodec, "x")))
	assert.False(t, IsCodecError(NewError(ErrRoleNotFound, "x")))
	assert.False(t, IsTenantIntegrityViolation(errors.New("unrelated")))
}
