package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"melodex/core/apperr"
	"melodex/model"
)

// PlaylistRepository defines the interface for playlist and membership data
// operations.
type PlaylistRepository interface {
	CreatePlaylist(ctx context.Context, playlist *model.Playlist) error
	GetPlaylistByID(ctx context.Context, id int64) (*model.Playlist, error)
	ListPlaylistsByOwner(ctx context.Context, ownerID int64, includePrivate bool) ([]*model.Playlist, error)
	UpdatePlaylist(ctx context.Context, id int64, patch model.PlaylistPatch) (*model.Playlist, error)
	DeletePlaylist(ctx context.Context, id int64) error

	AddMembership(ctx context.Context, playlistID, musicID int64) error
	RemoveMembership(ctx context.Context, playlistID, musicID int64) (bool, error)
	HasMembership(ctx context.Context, playlistID, musicID int64) (bool, error)
	ListPlaylistMusics(ctx context.Context, playlistID int64) ([]*model.Music, error)
	ListPlaylistIDsByMusic(ctx context.Context, musicID int64) ([]int64, error)
}

// gormPlaylistRepository implements PlaylistRepository on GORM. The playlist
// module is the newest one and runs on the GORM handle, coexisting with the
// raw *sql.DB used by the older repositories.
type gormPlaylistRepository struct {
	db *gorm.DB
}

// NewGormPlaylistRepository creates a new gormPlaylistRepository.
func NewGormPlaylistRepository(db *gorm.DB) PlaylistRepository {
	return &gormPlaylistRepository{db: db}
}

func isGormDuplicate(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey) || isDuplicateEntry(err)
}

// CreatePlaylist inserts a new playlist and fills in its generated id.
func (r *gormPlaylistRepository) CreatePlaylist(ctx context.Context, playlist *model.Playlist) error {
	if err := r.db.WithContext(ctx).Create(playlist).Error; err != nil {
		if isGormDuplicate(err) {
			return fmt.Errorf("%w: playlist already exists", apperr.ErrConflict)
		}
		return fmt.Errorf("failed to create playlist: %w", err)
	}
	return nil
}

// GetPlaylistByID retrieves a playlist by id. Returns (nil, nil) when absent.
func (r *gormPlaylistRepository) GetPlaylistByID(ctx context.Context, id int64) (*model.Playlist, error) {
	playlist := &model.Playlist{}
	err := r.db.WithContext(ctx).First(playlist, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil // Playlist not found
		}
		return nil, fmt.Errorf("failed to load playlist %d: %w", id, err)
	}
	return playlist, nil
}

// ListPlaylistsByOwner returns the owner's playlists, restricted to public
// ones unless includePrivate is set.
func (r *gormPlaylistRepository) ListPlaylistsByOwner(ctx context.Context, ownerID int64, includePrivate bool) ([]*model.Playlist, error) {
	query := r.db.WithContext(ctx).Where("owner_id = ?", ownerID)
	if !includePrivate {
		query = query.Where("private = ?", false)
	}

	playlists := make([]*model.Playlist, 0)
	if err := query.Order("id").Find(&playlists).Error; err != nil {
		return nil, fmt.Errorf("failed to list playlists for owner %d: %w", ownerID, err)
	}
	return playlists, nil
}

// UpdatePlaylist applies the supplied patch fields within one transaction and
// returns the updated row.
func (r *gormPlaylistRepository) UpdatePlaylist(ctx context.Context, id int64, patch model.PlaylistPatch) (*model.Playlist, error) {
	playlist := &model.Playlist{}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(playlist, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: playlist %d", apperr.ErrNotFound, id)
			}
			return fmt.Errorf("failed to load playlist %d: %w", id, err)
		}

		updates := map[string]interface{}{}
		if patch.Name != nil {
			playlist.Name = *patch.Name
			updates["name"] = *patch.Name
		}
		if patch.Private != nil {
			playlist.Private = *patch.Private
			updates["private"] = *patch.Private
		}
		if len(updates) == 0 {
			return nil
		}

		if err := tx.Model(playlist).Updates(updates).Error; err != nil {
			return fmt.Errorf("failed to update playlist %d: %w", id, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return playlist, nil
}

// DeletePlaylist removes the playlist; its membership rows go with it through
// the schema's cascades.
func (r *gormPlaylistRepository) DeletePlaylist(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Delete(&model.Playlist{}, id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete playlist %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: playlist %d", apperr.ErrNotFound, id)
	}
	return nil
}

// AddMembership inserts one playlist/music membership row. A duplicate pair
// is rejected by the composite primary key and surfaces as
// apperr.ErrConflict, which also covers concurrent duplicate inserts.
func (r *gormPlaylistRepository) AddMembership(ctx context.Context, playlistID, musicID int64) error {
	row := &model.PlaylistMusic{PlaylistID: playlistID, MusicID: musicID}
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		if isGormDuplicate(err) {
			return fmt.Errorf("%w: music %d already in playlist %d", apperr.ErrConflict, musicID, playlistID)
		}
		return fmt.Errorf("failed to add music %d to playlist %d: %w", musicID, playlistID, err)
	}
	return nil
}

// RemoveMembership deletes one membership row, reporting whether it existed.
func (r *gormPlaylistRepository) RemoveMembership(ctx context.Context, playlistID, musicID int64) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("playlist_id = ? AND music_id = ?", playlistID, musicID).
		Delete(&model.PlaylistMusic{})
	if res.Error != nil {
		return false, fmt.Errorf("failed to remove music %d from playlist %d: %w", musicID, playlistID, res.Error)
	}
	return res.RowsAffected > 0, nil
}

// HasMembership reports whether the (playlist, music) pair exists.
func (r *gormPlaylistRepository) HasMembership(ctx context.Context, playlistID, musicID int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.PlaylistMusic{}).
		Where("playlist_id = ? AND music_id = ?", playlistID, musicID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check membership of music %d in playlist %d: %w", musicID, playlistID, err)
	}
	return count > 0, nil
}

// ListPlaylistMusics returns the playlist's member songs ordered by song id.
func (r *gormPlaylistRepository) ListPlaylistMusics(ctx context.Context, playlistID int64) ([]*model.Music, error) {
	musics := make([]*model.Music, 0)
	err := r.db.WithContext(ctx).
		Table("musics").
		Select("musics.*").
		Joins("JOIN playlist_musics pm ON pm.music_id = musics.id").
		Where("pm.playlist_id = ?", playlistID).
		Order("musics.id").
		Find(&musics).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list musics of playlist %d: %w", playlistID, err)
	}
	return musics, nil
}

// ListPlaylistIDsByMusic returns the ids of every playlist containing the
// song. Used to invalidate cached playlist payloads when a song changes.
func (r *gormPlaylistRepository) ListPlaylistIDsByMusic(ctx context.Context, musicID int64) ([]int64, error) {
	ids := make([]int64, 0)
	err := r.db.WithContext(ctx).
		Model(&model.PlaylistMusic{}).
		Where("music_id = ?", musicID).
		Pluck("playlist_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list playlists containing music %d: %w", musicID, err)
	}
	return ids, nil
}
