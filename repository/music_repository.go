package repository

import (
	"context"
	"database/sql"
	"fmt"

	"melodex/core/apperr"
	"melodex/model"
)

// MusicRepository defines the interface for song data operations.
type MusicRepository interface {
	CreateMusic(ctx context.Context, music *model.Music) (int64, error)
	GetMusicByID(ctx context.Context, id int64) (*model.Music, error)
	ListMusics(ctx context.Context, skip, limit int) ([]*model.Music, error)
	ListMusicsByUser(ctx context.Context, userID int64, skip, limit int) ([]*model.Music, error)
	UpdateMusic(ctx context.Context, id int64, patch model.MusicPatch) (*model.Music, error)
	DeleteMusic(ctx context.Context, id int64) error
}

// mysqlMusicRepository implements MusicRepository for MySQL.
type mysqlMusicRepository struct {
	db *sql.DB
}

// NewMySQLMusicRepository creates a new mysqlMusicRepository.
func NewMySQLMusicRepository(db *sql.DB) MusicRepository {
	return &mysqlMusicRepository{db: db}
}

const musicColumns = "id, title, artist, link, added_by, created_at, updated_at"

func scanMusicRows(rows *sql.Rows) ([]*model.Music, error) {
	musics := make([]*model.Music, 0)
	for rows.Next() {
		m := &model.Music{}
		if err := rows.Scan(&m.ID, &m.Title, &m.Artist, &m.Link, &m.AddedBy, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan music row: %w", err)
		}
		musics = append(musics, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate music rows: %w", err)
	}
	return musics, nil
}

// CreateMusic adds a new song. A duplicate (title, artist) pair surfaces as
// apperr.ErrConflict through the composite unique constraint.
func (r *mysqlMusicRepository) CreateMusic(ctx context.Context, music *model.Music) (int64, error) {
	query := "INSERT INTO musics (title, artist, link, added_by) VALUES (?, ?, ?, ?)"
	res, err := r.db.ExecContext(ctx, query, music.Title, music.Artist, music.Link, music.AddedBy)
	if err != nil {
		if isDuplicateEntry(err) {
			return 0, fmt.Errorf("%w: music %q by %q already exists", apperr.ErrConflict, music.Title, music.Artist)
		}
		return 0, fmt.Errorf("failed to insert music: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID for music: %w", err)
	}
	return id, nil
}

// GetMusicByID retrieves a song by id. Returns (nil, nil) when absent.
func (r *mysqlMusicRepository) GetMusicByID(ctx context.Context, id int64) (*model.Music, error) {
	query := "SELECT " + musicColumns + " FROM musics WHERE id = ?"
	m := &model.Music{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(&m.ID, &m.Title, &m.Artist, &m.Link, &m.AddedBy, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Music not found
		}
		return nil, fmt.Errorf("failed to scan music row for ID %d: %w", id, err)
	}
	return m, nil
}

// ListMusics returns a page of songs ordered by id.
func (r *mysqlMusicRepository) ListMusics(ctx context.Context, skip, limit int) ([]*model.Music, error) {
	query := "SELECT " + musicColumns + " FROM musics ORDER BY id LIMIT ? OFFSET ?"
	rows, err := r.db.QueryContext(ctx, query, limit, skip)
	if err != nil {
		return nil, fmt.Errorf("failed to query musics: %w", err)
	}
	defer rows.Close()
	return scanMusicRows(rows)
}

// ListMusicsByUser returns a page of songs added by the given user.
func (r *mysqlMusicRepository) ListMusicsByUser(ctx context.Context, userID int64, skip, limit int) ([]*model.Music, error) {
	query := "SELECT " + musicColumns + " FROM musics WHERE added_by = ? ORDER BY id LIMIT ? OFFSET ?"
	rows, err := r.db.QueryContext(ctx, query, userID, limit, skip)
	if err != nil {
		return nil, fmt.Errorf("failed to query musics for user %d: %w", userID, err)
	}
	defer rows.Close()
	return scanMusicRows(rows)
}

// UpdateMusic applies the supplied patch fields within one transaction and
// returns the updated row. A patched (title, artist) pair colliding with an
// existing song surfaces as apperr.ErrConflict.
func (r *mysqlMusicRepository) UpdateMusic(ctx context.Context, id int64, patch model.MusicPatch) (*model.Music, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin music update transaction: %w", err)
	}
	defer tx.Rollback()

	m := &model.Music{}
	query := "SELECT " + musicColumns + " FROM musics WHERE id = ? FOR UPDATE"
	err = tx.QueryRowContext(ctx, query, id).Scan(&m.ID, &m.Title, &m.Artist, &m.Link, &m.AddedBy, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%w: music %d", apperr.ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to lock music row %d: %w", id, err)
	}

	if patch.Title != nil {
		m.Title = *patch.Title
	}
	if patch.Artist != nil {
		m.Artist = *patch.Artist
	}
	if patch.Link != nil {
		m.Link = *patch.Link
	}

	_, err = tx.ExecContext(ctx,
		"UPDATE musics SET title = ?, artist = ?, link = ?, updated_at = NOW() WHERE id = ?",
		m.Title, m.Artist, m.Link, id)
	if err != nil {
		if isDuplicateEntry(err) {
			return nil, fmt.Errorf("%w: music %q by %q already exists", apperr.ErrConflict, m.Title, m.Artist)
		}
		return nil, fmt.Errorf("failed to update music %d: %w", id, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit music update: %w", err)
	}
	return m, nil
}

// DeleteMusic removes the song; membership rows referencing it go with it
// through the schema's cascades.
func (r *mysqlMusicRepository) DeleteMusic(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM musics WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete music %d: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows for music delete: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: music %d", apperr.ErrNotFound, id)
	}
	return nil
}
