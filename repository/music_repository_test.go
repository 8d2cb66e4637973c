package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"melodex/core/apperr"
	"melodex/model"
)

func musicRows(musics ...*model.Music) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{"id", "title", "artist", "link", "added_by", "created_at", "updated_at"})
	for _, m := range musics {
		rows.AddRow(m.ID, m.Title, m.Artist, m.Link, m.AddedBy, m.CreatedAt, m.UpdatedAt)
	}
	return rows
}

func TestCreateMusic(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewMySQLMusicRepository(db)

	mock.ExpectExec("INSERT INTO musics").
		WithArgs("Imagine", "John Lennon", "https://x/imagine", int64(1)).
		WillReturnResult(sqlmock.NewResult(3, 1))

	id, err := repo.CreateMusic(context.Background(), &model.Music{
		Title:   "Imagine",
		Artist:  "John Lennon",
		Link:    "https://x/imagine",
		AddedBy: 1,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(3), id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateMusicDuplicatePairIsConflict(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewMySQLMusicRepository(db)

	// The composite (title, artist) unique key rejects the insert; this is
	// also what a concurrent duplicate insert hits.
	mock.ExpectExec("INSERT INTO musics").
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry 'Imagine-John Lennon'"})

	_, err = repo.CreateMusic(context.Background(), &model.Music{Title: "Imagine", Artist: "John Lennon"})
	assert.ErrorIs(t, err, apperr.ErrConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListMusicsByUser(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewMySQLMusicRepository(db)

	now := time.Now()
	mock.ExpectQuery("SELECT (.+) FROM musics WHERE added_by").
		WithArgs(int64(1), 10, 0).
		WillReturnRows(musicRows(
			&model.Music{ID: 3, Title: "Imagine", Artist: "John Lennon", Link: "https://x/imagine", AddedBy: 1, CreatedAt: now, UpdatedAt: now},
		))

	musics, err := repo.ListMusicsByUser(context.Background(), 1, 0, 10)
	require.NoError(t, err)
	require.Len(t, musics, 1)
	assert.Equal(t, "Imagine", musics[0].Title)
	assert.Equal(t, int64(1), musics[0].AddedBy)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateMusicPatchesInsideTransaction(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewMySQLMusicRepository(db)

	now := time.Now()
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM musics WHERE id = (.+) FOR UPDATE").
		WithArgs(int64(3)).
		WillReturnRows(musicRows(
			&model.Music{ID: 3, Title: "Imagine", Artist: "John Lennon", Link: "https://x/imagine", AddedBy: 1, CreatedAt: now, UpdatedAt: now},
		))
	mock.ExpectExec("UPDATE musics SET").
		WithArgs("Imagine", "John Lennon", "https://x/new", int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	link := "https://x/new"
	updated, err := repo.UpdateMusic(context.Background(), 3, model.MusicPatch{Link: &link})
	require.NoError(t, err)
	assert.Equal(t, "https://x/new", updated.Link)
	assert.Equal(t, "Imagine", updated.Title)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateMusicConflictRollsBack(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewMySQLMusicRepository(db)

	now := time.Now()
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM musics WHERE id = (.+) FOR UPDATE").
		WithArgs(int64(3)).
		WillReturnRows(musicRows(
			&model.Music{ID: 3, Title: "Imagine", Artist: "John Lennon", Link: "https://x/imagine", AddedBy: 1, CreatedAt: now, UpdatedAt: now},
		))
	mock.ExpectExec("UPDATE musics SET").
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"})
	mock.ExpectRollback()

	title := "Yesterday"
	artist := "The Beatles"
	_, err = repo.UpdateMusic(context.Background(), 3, model.MusicPatch{Title: &title, Artist: &artist})
	assert.ErrorIs(t, err, apperr.ErrConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteMusicMissing(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewMySQLMusicRepository(db)

	mock.ExpectExec("DELETE FROM musics WHERE id").
		WithArgs(int64(404)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err = repo.DeleteMusic(context.Background(), 404)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
