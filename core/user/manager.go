// Package user implements account management: registration, login
// credentials, profile updates and account deletion.
package user

import (
	"context"
	"fmt"

	"melodex/core/apperr"
	"melodex/core/auth"
	"melodex/logger"
	"melodex/model"
	"melodex/repository"
)

// PlaylistInvalidator drops cached playlist payloads after a mutation.
// Satisfied by *cache.PlaylistCache.
type PlaylistInvalidator interface {
	Invalidate(ctx context.Context, playlistIDs ...int64)
}

// Manager handles user accounts.
type Manager struct {
	users     repository.UserRepository
	musics    repository.MusicRepository
	playlists repository.PlaylistRepository
	cache     PlaylistInvalidator
}

// NewManager creates a user Manager.
func NewManager(users repository.UserRepository, musics repository.MusicRepository, playlists repository.PlaylistRepository, playlistCache PlaylistInvalidator) *Manager {
	return &Manager{users: users, musics: musics, playlists: playlists, cache: playlistCache}
}

// Register creates a new account with a bcrypt-hashed password. Duplicate
// username or email fails with apperr.ErrConflict.
func (m *Manager) Register(ctx context.Context, username, email, password string) (*model.User, error) {
	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}

	id, err := m.users.CreateUser(ctx, &model.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
	})
	if err != nil {
		return nil, err
	}

	created, err := m.users.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if created == nil {
		return nil, fmt.Errorf("user %d vanished after insert", id)
	}

	logger.Info("User registered", logger.Int64("userId", id), logger.String("username", username))
	return created, nil
}

// Authenticate checks email/password credentials. Unknown email and wrong
// password both fail with the same apperr.ErrUnauthenticated so callers
// cannot probe which accounts exist.
func (m *Manager) Authenticate(ctx context.Context, email, password string) (*model.User, error) {
	user, err := m.users.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil || !auth.VerifyPassword(password, user.PasswordHash) {
		return nil, fmt.Errorf("%w: incorrect email or password", apperr.ErrUnauthenticated)
	}
	return user, nil
}

// Get returns the user or apperr.ErrNotFound.
func (m *Manager) Get(ctx context.Context, id int64) (*model.User, error) {
	user, err := m.users.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, fmt.Errorf("%w: user %d", apperr.ErrNotFound, id)
	}
	return user, nil
}

// List returns a page of users.
func (m *Manager) List(ctx context.Context, skip, limit int) ([]*model.User, error) {
	return m.users.ListUsers(ctx, skip, limit)
}

// Update applies a partial profile update. Only the account holder may
// update their own profile. A supplied-but-empty field is rejected rather
// than silently ignored.
func (m *Manager) Update(ctx context.Context, actor *model.User, id int64, patch model.UserPatch) (*model.User, error) {
	if actor == nil || actor.ID != id {
		return nil, fmt.Errorf("%w: you do not have permission for this action", apperr.ErrForbidden)
	}
	if patch.Username != nil && *patch.Username == "" {
		return nil, fmt.Errorf("%w: username must not be empty", apperr.ErrInvalidInput)
	}
	if patch.Email != nil && *patch.Email == "" {
		return nil, fmt.Errorf("%w: email must not be empty", apperr.ErrInvalidInput)
	}

	if err := m.users.UpdateUser(ctx, id, patch); err != nil {
		return nil, err
	}
	return m.Get(ctx, id)
}

// Delete removes the account. Only the account holder may delete it. Owned
// playlists, authored songs and membership rows cascade away in the store.
// Cached payloads of every playlist the delete touches are dropped: the
// user's own playlists and any playlist containing one of their songs.
func (m *Manager) Delete(ctx context.Context, actor *model.User, id int64) (*model.User, error) {
	if actor == nil || actor.ID != id {
		return nil, fmt.Errorf("%w: you do not have permission for this action", apperr.ErrForbidden)
	}

	deleted, err := m.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	// Collect affected playlists before the cascade erases the memberships.
	affected := map[int64]struct{}{}
	owned, err := m.playlists.ListPlaylistsByOwner(ctx, id, true)
	if err != nil {
		return nil, err
	}
	for _, p := range owned {
		affected[p.ID] = struct{}{}
	}

	const pageSize = 100
	for skip := 0; ; skip += pageSize {
		songs, err := m.musics.ListMusicsByUser(ctx, id, skip, pageSize)
		if err != nil {
			return nil, err
		}
		for _, song := range songs {
			containing, err := m.playlists.ListPlaylistIDsByMusic(ctx, song.ID)
			if err != nil {
				return nil, err
			}
			for _, pid := range containing {
				affected[pid] = struct{}{}
			}
		}
		if len(songs) < pageSize {
			break
		}
	}

	if err := m.users.DeleteUser(ctx, id); err != nil {
		return nil, err
	}

	ids := make([]int64, 0, len(affected))
	for pid := range affected {
		ids = append(ids, pid)
	}
	m.cache.Invalidate(ctx, ids...)

	logger.Info("User deleted", logger.Int64("userId", id), logger.String("username", deleted.Username))
	return deleted, nil
}
