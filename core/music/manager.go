// Package music implements song management. Every mutation is gated on the
// adder: the user who created a song is the only one allowed to change it.
package music

import (
	"context"
	"fmt"

	"melodex/cache"
	"melodex/core/apperr"
	"melodex/core/authz"
	"melodex/logger"
	"melodex/model"
	"melodex/repository"
)

// Manager handles songs.
type Manager struct {
	musics    repository.MusicRepository
	users     repository.UserRepository
	playlists repository.PlaylistRepository
	cache     *cache.PlaylistCache
}

// NewManager creates a music Manager.
func NewManager(musics repository.MusicRepository, users repository.UserRepository, playlists repository.PlaylistRepository, playlistCache *cache.PlaylistCache) *Manager {
	return &Manager{musics: musics, users: users, playlists: playlists, cache: playlistCache}
}

// Add creates a song with the caller as adder. A duplicate (title, artist)
// pair fails with apperr.ErrConflict.
func (m *Manager) Add(ctx context.Context, user *model.User, title, artist, link string) (*model.Music, error) {
	id, err := m.musics.CreateMusic(ctx, &model.Music{
		Title:   title,
		Artist:  artist,
		Link:    link,
		AddedBy: user.ID,
	})
	if err != nil {
		return nil, err
	}

	created, err := m.musics.GetMusicByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if created == nil {
		return nil, fmt.Errorf("music %d vanished after insert", id)
	}

	logger.Info("Music added",
		logger.Int64("musicId", id),
		logger.String("title", title),
		logger.Int64("addedBy", user.ID))
	return created, nil
}

// List returns a page of songs. No authentication and no filtering.
func (m *Manager) List(ctx context.Context, skip, limit int) ([]*model.Music, error) {
	return m.musics.ListMusics(ctx, skip, limit)
}

// ListByUser returns a page of the songs added by the given user, failing
// with apperr.ErrNotFound when the user does not exist.
func (m *Manager) ListByUser(ctx context.Context, userID int64, skip, limit int) ([]*model.Music, error) {
	user, err := m.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, fmt.Errorf("%w: user %d", apperr.ErrNotFound, userID)
	}
	return m.musics.ListMusicsByUser(ctx, userID, skip, limit)
}

// GetByID returns the song or apperr.ErrNotFound.
func (m *Manager) GetByID(ctx context.Context, id int64) (*model.Music, error) {
	music, err := m.musics.GetMusicByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if music == nil {
		return nil, fmt.Errorf("%w: music %d", apperr.ErrNotFound, id)
	}
	return music, nil
}

// Update applies a partial update to a song the caller added. A supplied-
// but-empty field is rejected rather than silently ignored.
func (m *Manager) Update(ctx context.Context, user *model.User, id int64, patch model.MusicPatch) (*model.Music, error) {
	music, err := m.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !authz.CanMutateMusic(user, music) {
		return nil, fmt.Errorf("%w: you can only update the music you added", apperr.ErrForbidden)
	}

	if patch.Title != nil && *patch.Title == "" {
		return nil, fmt.Errorf("%w: title must not be empty", apperr.ErrInvalidInput)
	}
	if patch.Artist != nil && *patch.Artist == "" {
		return nil, fmt.Errorf("%w: artist must not be empty", apperr.ErrInvalidInput)
	}
	if patch.Link != nil && *patch.Link == "" {
		return nil, fmt.Errorf("%w: link must not be empty", apperr.ErrInvalidInput)
	}
	if patch.Empty() {
		return music, nil
	}

	updated, err := m.musics.UpdateMusic(ctx, id, patch)
	if err != nil {
		return nil, err
	}

	m.invalidateContaining(ctx, id)
	return updated, nil
}

// Remove deletes a song the caller added and returns the deleted record.
// Membership rows referencing the song cascade away in the store.
func (m *Manager) Remove(ctx context.Context, user *model.User, id int64) (*model.Music, error) {
	music, err := m.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !authz.CanMutateMusic(user, music) {
		return nil, fmt.Errorf("%w: you can only delete the music you added", apperr.ErrForbidden)
	}

	// Collect affected playlists before the cascade erases the memberships.
	containing, err := m.playlists.ListPlaylistIDsByMusic(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := m.musics.DeleteMusic(ctx, id); err != nil {
		return nil, err
	}
	m.cache.Invalidate(ctx, containing...)

	logger.Info("Music removed", logger.Int64("musicId", id), logger.Int64("by", user.ID))
	return music, nil
}

func (m *Manager) invalidateContaining(ctx context.Context, musicID int64) {
	containing, err := m.playlists.ListPlaylistIDsByMusic(ctx, musicID)
	if err != nil {
		// Cached payloads age out by TTL.
		logger.Warn("Failed to list playlists for cache invalidation",
			logger.Int64("musicId", musicID),
			logger.ErrorField(err))
		return
	}
	m.cache.Invalidate(ctx, containing...)
}
