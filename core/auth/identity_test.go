package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"melodex/core/apperr"
	"melodex/model"
)

// fakeUserStore serves users from a map.
type fakeUserStore struct {
	users map[int64]*model.User
}

func (s *fakeUserStore) GetUserByID(_ context.Context, id int64) (*model.User, error) {
	return s.users[id], nil
}

func newTestResolver() (*Resolver, *TokenService) {
	tokens := NewTokenService("test-secret", 15*time.Minute)
	store := &fakeUserStore{users: map[int64]*model.User{
		42: {ID: 42, Username: "alice", Email: "alice@example.com"},
	}}
	return NewResolver(tokens, store), tokens
}

func TestResolveHeaderMissing(t *testing.T) {
	resolver, _ := newTestResolver()
	ctx := context.Background()

	_, err := resolver.ResolveHeader(ctx, "", true)
	assert.ErrorIs(t, err, apperr.ErrUnauthenticated)

	identity, err := resolver.ResolveHeader(ctx, "", false)
	require.NoError(t, err)
	assert.True(t, identity.Anonymous())
}

func TestResolveHeaderValidToken(t *testing.T) {
	resolver, tokens := newTestResolver()
	token, err := tokens.Generate(&model.User{ID: 42, Username: "alice", Email: "alice@example.com"})
	require.NoError(t, err)

	for _, required := range []bool{true, false} {
		identity, err := resolver.ResolveHeader(context.Background(), "Bearer "+token, required)
		require.NoError(t, err)
		require.False(t, identity.Anonymous())
		assert.Equal(t, int64(42), identity.User.ID)
		assert.Equal(t, "alice", identity.User.Username)
	}
}

// A present but broken token must fail loud in both modes, never be treated
// as anonymous.
func TestResolveHeaderInvalidTokenFailsBothModes(t *testing.T) {
	resolver, _ := newTestResolver()

	for _, header := range []string{"Bearer garbage", "Basic abc", "Bearer"} {
		for _, required := range []bool{true, false} {
			_, err := resolver.ResolveHeader(context.Background(), header, required)
			assert.ErrorIs(t, err, apperr.ErrUnauthenticated, "header %q required=%v", header, required)
		}
	}
}

func TestResolveHeaderExpiredToken(t *testing.T) {
	now := time.Now()
	tokens := NewTokenService("test-secret", time.Minute).
		WithClock(func() time.Time { return now })
	store := &fakeUserStore{users: map[int64]*model.User{42: {ID: 42}}}
	resolver := NewResolver(tokens, store)

	token, err := tokens.Generate(&model.User{ID: 42})
	require.NoError(t, err)

	tokens.WithClock(func() time.Time { return now.Add(2 * time.Minute) })

	_, err = resolver.ResolveHeader(context.Background(), "Bearer "+token, false)
	assert.ErrorIs(t, err, apperr.ErrUnauthenticated)
}

func TestResolveHeaderUserDeletedAfterIssuance(t *testing.T) {
	resolver, tokens := newTestResolver()
	token, err := tokens.Generate(&model.User{ID: 7, Username: "ghost", Email: "ghost@example.com"})
	require.NoError(t, err)

	_, err = resolver.ResolveHeader(context.Background(), "Bearer "+token, true)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}
