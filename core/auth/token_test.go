package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"melodex/core/apperr"
	"melodex/model"
)

var testUser = &model.User{
	ID:       42,
	Username: "alice",
	Email:    "alice@example.com",
}

func TestTokenRoundTrip(t *testing.T) {
	svc := NewTokenService("test-secret", 15*time.Minute)

	token, err := svc.Generate(testUser)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.Parse(token)
	require.NoError(t, err)

	userID, err := claims.UserID()
	require.NoError(t, err)
	assert.Equal(t, int64(42), userID)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, "alice@example.com", claims.Email)
}

func TestTokenExpired(t *testing.T) {
	now := time.Now()
	svc := NewTokenService("test-secret", 15*time.Minute).
		WithClock(func() time.Time { return now })

	token, err := svc.Generate(testUser)
	require.NoError(t, err)

	// Move the clock past the TTL before verification.
	svc.WithClock(func() time.Time { return now.Add(16 * time.Minute) })

	_, err = svc.Parse(token)
	assert.ErrorIs(t, err, apperr.ErrTokenInvalid)
}

func TestTokenWrongSecret(t *testing.T) {
	issuer := NewTokenService("secret-one", 15*time.Minute)
	verifier := NewTokenService("secret-two", 15*time.Minute)

	token, err := issuer.Generate(testUser)
	require.NoError(t, err)

	_, err = verifier.Parse(token)
	assert.ErrorIs(t, err, apperr.ErrTokenInvalid)
}

func TestTokenMalformed(t *testing.T) {
	svc := NewTokenService("test-secret", 15*time.Minute)

	for _, garbage := range []string{"", "not.a.token", "xxxx"} {
		_, err := svc.Parse(garbage)
		assert.ErrorIs(t, err, apperr.ErrTokenInvalid)
	}
}
