package grantkit

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestActorIDContext(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, GetActorID(ctx))

	ctx = WithActorID(ctx, "admin-7")
	assert.Equal(t, "admin-7", GetActorID(ctx))
}

func TestRequestIDContext(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, GetRequestID(ctx))

	ctx = WithRequestID(ctx, "req-123")
	assert.Equal(t, "req-123", GetRequestID(ctx))

	// Values stay independent of each other.
	assert.Empty(t, GetActorID(ctx))
}
