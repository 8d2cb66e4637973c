package auth

import (
	"context"
	"fmt"
	"strings"

	"melodex/core/apperr"
	"melodex/model"
)

// Identity is the outcome of resolving a request's Authorization header:
// either an authenticated user or anonymous.
type Identity struct {
	User *model.User
}

// Anonymous reports whether no user is attached.
func (i Identity) Anonymous() bool {
	return i.User == nil
}

// UserID returns the resolved user id and whether one is present.
func (i Identity) UserID() (int64, bool) {
	if i.User == nil {
		return 0, false
	}
	return i.User.ID, true
}

// UserStore is the user lookup the resolver needs.
type UserStore interface {
	GetUserByID(ctx context.Context, id int64) (*model.User, error)
}

// Resolver turns bearer tokens into authenticated users.
type Resolver struct {
	tokens *TokenService
	users  UserStore
}

// NewResolver creates a Resolver over the given token service and user store.
func NewResolver(tokens *TokenService, users UserStore) *Resolver {
	return &Resolver{tokens: tokens, users: users}
}

// ResolveHeader resolves a raw Authorization header value to an Identity.
//
// With required set, a missing header fails with ErrUnauthenticated. Without
// it, a missing header resolves to anonymous. A header that is present but
// malformed, forged or expired fails with ErrUnauthenticated in both modes:
// a broken token is never silently treated as absence, since that would mask
// tampering as anonymity.
func (r *Resolver) ResolveHeader(ctx context.Context, header string, required bool) (Identity, error) {
	if header == "" {
		if required {
			return Identity{}, fmt.Errorf("%w: missing authorization header", apperr.ErrUnauthenticated)
		}
		return Identity{}, nil
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return Identity{}, fmt.Errorf("%w: invalid authorization header format", apperr.ErrUnauthenticated)
	}

	claims, err := r.tokens.Parse(parts[1])
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %v", apperr.ErrUnauthenticated, err)
	}

	userID, err := claims.UserID()
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %v", apperr.ErrUnauthenticated, err)
	}

	user, err := r.users.GetUserByID(ctx, userID)
	if err != nil {
		return Identity{}, fmt.Errorf("failed to load user %d: %w", userID, err)
	}
	if user == nil {
		// Token outlived its account, e.g. the user deleted themselves.
		return Identity{}, fmt.Errorf("%w: user %d", apperr.ErrNotFound, userID)
	}

	return Identity{User: user}, nil
}
