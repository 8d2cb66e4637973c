// Package playlist implements playlist management and membership: who may
// change a playlist, who may see it, and which songs are in it.
package playlist

import (
	"context"
	"fmt"

	"melodex/cache"
	"melodex/core/apperr"
	"melodex/core/auth"
	"melodex/core/authz"
	"melodex/logger"
	"melodex/model"
	"melodex/repository"
)

// Manager handles playlists and their memberships.
type Manager struct {
	playlists repository.PlaylistRepository
	musics    repository.MusicRepository
	cache     *cache.PlaylistCache
}

// NewManager creates a playlist Manager.
func NewManager(playlists repository.PlaylistRepository, musics repository.MusicRepository, playlistCache *cache.PlaylistCache) *Manager {
	return &Manager{playlists: playlists, musics: musics, cache: playlistCache}
}

// Create creates a playlist owned by the caller.
func (m *Manager) Create(ctx context.Context, user *model.User, name string, private bool) (*model.Playlist, error) {
	playlist := &model.Playlist{
		Name:    name,
		OwnerID: user.ID,
		Private: private,
	}
	if err := m.playlists.CreatePlaylist(ctx, playlist); err != nil {
		return nil, err
	}

	logger.Info("Playlist created",
		logger.Int64("playlistId", playlist.ID),
		logger.Int64("ownerId", user.ID),
		logger.Bool("private", private))
	return playlist, nil
}

// get returns the playlist or apperr.ErrNotFound.
func (m *Manager) get(ctx context.Context, id int64) (*model.Playlist, error) {
	playlist, err := m.playlists.GetPlaylistByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if playlist == nil {
		return nil, fmt.Errorf("%w: playlist %d", apperr.ErrNotFound, id)
	}
	return playlist, nil
}

// AddMusic inserts a song into a playlist the caller owns. The song and the
// playlist must both exist, and the pair must not already be a member; a
// duplicate fails with apperr.ErrConflict without creating a second row,
// including under concurrent inserts, where the composite key is the guard.
func (m *Manager) AddMusic(ctx context.Context, user *model.User, playlistID, musicID int64) (*model.Music, error) {
	playlist, err := m.get(ctx, playlistID)
	if err != nil {
		return nil, err
	}
	if !authz.CanMutatePlaylist(user, playlist) {
		return nil, fmt.Errorf("%w: you can only add music to your own playlists", apperr.ErrForbidden)
	}

	music, err := m.musics.GetMusicByID(ctx, musicID)
	if err != nil {
		return nil, err
	}
	if music == nil {
		return nil, fmt.Errorf("%w: music %d", apperr.ErrNotFound, musicID)
	}

	// Fast path only; the insert below still races against the composite key.
	present, err := m.playlists.HasMembership(ctx, playlistID, musicID)
	if err != nil {
		return nil, err
	}
	if present {
		return nil, fmt.Errorf("%w: music %d already in playlist %d", apperr.ErrConflict, musicID, playlistID)
	}

	if err := m.playlists.AddMembership(ctx, playlistID, musicID); err != nil {
		return nil, err
	}
	m.cache.Invalidate(ctx, playlistID)

	logger.Info("Music added to playlist",
		logger.Int64("playlistId", playlistID),
		logger.Int64("musicId", musicID))
	return music, nil
}

// RemoveMusic removes a song from a playlist the caller owns. Removing a
// song that is not a member fails with apperr.ErrForbidden: the caller has
// no standing over a link that does not exist.
func (m *Manager) RemoveMusic(ctx context.Context, user *model.User, playlistID, musicID int64) (*model.Music, error) {
	playlist, err := m.get(ctx, playlistID)
	if err != nil {
		return nil, err
	}
	if !authz.CanMutatePlaylist(user, playlist) {
		return nil, fmt.Errorf("%w: you can only remove music from your own playlists", apperr.ErrForbidden)
	}

	music, err := m.musics.GetMusicByID(ctx, musicID)
	if err != nil {
		return nil, err
	}
	if music == nil {
		return nil, fmt.Errorf("%w: music %d", apperr.ErrNotFound, musicID)
	}

	removed, err := m.playlists.RemoveMembership(ctx, playlistID, musicID)
	if err != nil {
		return nil, err
	}
	if !removed {
		return nil, fmt.Errorf("%w: music %d is not in playlist %d", apperr.ErrForbidden, musicID, playlistID)
	}
	m.cache.Invalidate(ctx, playlistID)

	logger.Info("Music removed from playlist",
		logger.Int64("playlistId", playlistID),
		logger.Int64("musicId", musicID))
	return music, nil
}

// ListForUser returns the target user's playlists as visible to the
// requester: everyone sees the public ones, only the owner also sees the
// private ones.
func (m *Manager) ListForUser(ctx context.Context, requester auth.Identity, targetUserID int64) ([]*model.Playlist, error) {
	includePrivate := authz.CanViewPrivatePlaylists(requester, targetUserID)
	return m.playlists.ListPlaylistsByOwner(ctx, targetUserID, includePrivate)
}

// GetWithMusics loads a playlist together with its member songs, going
// through the cache. The visibility check runs on the loaded record, cached
// or not, so a cached private payload is never served to a non-owner.
func (m *Manager) GetWithMusics(ctx context.Context, requester auth.Identity, playlistID int64) (*model.PlaylistWithMusics, error) {
	cached, err := m.cache.Get(ctx, playlistID)
	if err != nil {
		logger.Warn("Playlist cache read failed", logger.ErrorField(err))
	}
	if cached != nil {
		if !authz.CanViewPlaylist(requester, &cached.Playlist) {
			return nil, fmt.Errorf("%w: playlist %d is private", apperr.ErrUnauthenticated, playlistID)
		}
		return cached, nil
	}

	playlist, err := m.get(ctx, playlistID)
	if err != nil {
		return nil, err
	}
	if !authz.CanViewPlaylist(requester, playlist) {
		return nil, fmt.Errorf("%w: playlist %d is private", apperr.ErrUnauthenticated, playlistID)
	}

	musics, err := m.playlists.ListPlaylistMusics(ctx, playlistID)
	if err != nil {
		return nil, err
	}

	payload := &model.PlaylistWithMusics{Playlist: *playlist, Musics: musics}
	if err := m.cache.Set(ctx, payload); err != nil {
		logger.Warn("Playlist cache write failed", logger.ErrorField(err))
	}
	return payload, nil
}

// Update applies a partial update to a playlist the caller owns. An explicit
// empty name is rejected; an explicit private=false still applies.
func (m *Manager) Update(ctx context.Context, user *model.User, playlistID int64, patch model.PlaylistPatch) (*model.Playlist, error) {
	playlist, err := m.get(ctx, playlistID)
	if err != nil {
		return nil, err
	}
	if !authz.CanMutatePlaylist(user, playlist) {
		return nil, fmt.Errorf("%w: you can only update your own playlists", apperr.ErrForbidden)
	}
	if patch.Name != nil && *patch.Name == "" {
		return nil, fmt.Errorf("%w: name must not be empty", apperr.ErrInvalidInput)
	}
	if patch.Empty() {
		return playlist, nil
	}

	updated, err := m.playlists.UpdatePlaylist(ctx, playlistID, patch)
	if err != nil {
		return nil, err
	}
	m.cache.Invalidate(ctx, playlistID)
	return updated, nil
}

// Delete removes a playlist the caller owns and returns the deleted record.
// Its membership rows cascade away in the store.
func (m *Manager) Delete(ctx context.Context, user *model.User, playlistID int64) (*model.Playlist, error) {
	playlist, err := m.get(ctx, playlistID)
	if err != nil {
		return nil, err
	}
	if !authz.CanMutatePlaylist(user, playlist) {
		return nil, fmt.Errorf("%w: you can only delete your own playlists", apperr.ErrForbidden)
	}

	if err := m.playlists.DeletePlaylist(ctx, playlistID); err != nil {
		return nil, err
	}
	m.cache.Invalidate(ctx, playlistID)

	logger.Info("Playlist deleted", logger.Int64("playlistId", playlistID), logger.Int64("by", user.ID))
	return playlist, nil
}
