package middleware

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuth_WhitelistedLearner(t *testing.T) {
	m := NewAuthMiddleware([]int64{100, 200}, nil)

	ctx, allowed := m.Check(context.Background(), 100)
	require.True(t, allowed)

	id, ok := LearnerIDFrom(ctx)
	require.True(t, ok)
	assert.Equal(t, int64(100), id)
	assert.False(t, IsAdminFrom(ctx))
}

func TestAuth_UnlistedUserIsRejected(t *testing.T) {
	m := NewAuthMiddleware([]int64{100}, []int64{900})

	ctx, allowed := m.Check(context.Background(), 555)
	assert.False(t, allowed)

	_, ok := LearnerIDFrom(ctx)
	assert.False(t, ok, "rejected users must not be annotated")
}

func TestAuth_AdminsAreAlwaysAllowed(t *testing.T) {
	// The admin is not on the whitelist.
	m := NewAuthMiddleware([]int64{100}, []int64{900})

	ctx, allowed := m.Check(context.Background(), 900)
	require.True(t, allowed)
	assert.True(t, IsAdminFrom(ctx))
	assert.True(t, m.IsAdmin(900))
	assert.False(t, m.IsAdmin(100))
}

func TestAuth_EmptyListsRejectEveryone(t *testing.T) {
	m := NewAuthMiddleware(nil, nil)

	_, allowed := m.Check(context.Background(), 1)
	assert.False(t, allowed)
}

func TestContextAccessors_EmptyContext(t *testing.T) {
	ctx := context.Background()

	_, ok := LearnerIDFrom(ctx)
	assert.False(t, ok)
	assert.False(t, IsAdminFrom(ctx))
}
