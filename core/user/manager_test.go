package user

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"melodex/cache"
	"melodex/core/apperr"
	"melodex/core/auth"
	"melodex/model"
	"melodex/repository/repositorytest"
)

func newTestManager() (*Manager, *repositorytest.Store) {
	store := repositorytest.NewStore()
	return NewManager(store, store, store, cache.NewPlaylistCache(nil)), store
}

func TestRegister(t *testing.T) {
	m, _ := newTestManager()

	created, err := m.Register(context.Background(), "alice", "alice@example.com", "s3cret")
	require.NoError(t, err)
	assert.NotZero(t, created.ID)
	assert.Equal(t, "alice", created.Username)
	// Stored as a hash, never plaintext.
	assert.NotEqual(t, "s3cret", created.PasswordHash)
	assert.True(t, auth.VerifyPassword("s3cret", created.PasswordHash))
}

func TestRegisterDuplicateConflicts(t *testing.T) {
	m, _ := newTestManager()

	_, err := m.Register(context.Background(), "alice", "alice@example.com", "pw")
	require.NoError(t, err)

	_, err = m.Register(context.Background(), "alice", "other@example.com", "pw")
	assert.ErrorIs(t, err, apperr.ErrConflict)

	_, err = m.Register(context.Background(), "other", "alice@example.com", "pw")
	assert.ErrorIs(t, err, apperr.ErrConflict)
}

func TestAuthenticate(t *testing.T) {
	m, _ := newTestManager()
	_, err := m.Register(context.Background(), "alice", "alice@example.com", "s3cret")
	require.NoError(t, err)

	account, err := m.Authenticate(context.Background(), "alice@example.com", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, "alice", account.Username)

	// Unknown email and wrong password fail identically.
	_, err = m.Authenticate(context.Background(), "alice@example.com", "wrong")
	wrongPw := err
	assert.ErrorIs(t, wrongPw, apperr.ErrUnauthenticated)

	_, err = m.Authenticate(context.Background(), "nobody@example.com", "s3cret")
	assert.ErrorIs(t, err, apperr.ErrUnauthenticated)
	assert.Equal(t, wrongPw.Error(), err.Error())
}

func TestUpdateSelfOnly(t *testing.T) {
	m, store := newTestManager()
	alice := store.SeedUser("alice", "alice@example.com")
	bob := store.SeedUser("bob", "bob@example.com")

	name := "alice2"
	_, err := m.Update(context.Background(), bob, alice.ID, model.UserPatch{Username: &name})
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	updated, err := m.Update(context.Background(), alice, alice.ID, model.UserPatch{Username: &name})
	require.NoError(t, err)
	assert.Equal(t, "alice2", updated.Username)
	assert.Equal(t, "alice@example.com", updated.Email)
}

func TestUpdateRejectsEmptyFields(t *testing.T) {
	m, store := newTestManager()
	alice := store.SeedUser("alice", "alice@example.com")

	empty := ""
	_, err := m.Update(context.Background(), alice, alice.ID, model.UserPatch{Username: &empty})
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)
	_, err = m.Update(context.Background(), alice, alice.ID, model.UserPatch{Email: &empty})
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)
}

func TestDeleteCascades(t *testing.T) {
	m, store := newTestManager()
	alice := store.SeedUser("alice", "alice@example.com")
	bob := store.SeedUser("bob", "bob@example.com")
	song := store.SeedMusic("One", "Metallica", "https://x/1", alice.ID)
	p := store.SeedPlaylist("mix", alice.ID, false)
	require.NoError(t, store.AddMembership(context.Background(), p.ID, song.ID))

	_, err := m.Delete(context.Background(), bob, alice.ID)
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	deleted, err := m.Delete(context.Background(), alice, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, alice.ID, deleted.ID)

	// The account, its playlists and its songs are gone.
	_, err = m.Get(context.Background(), alice.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	gonePlaylist, err := store.GetPlaylistByID(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Nil(t, gonePlaylist)

	goneMusic, err := store.GetMusicByID(context.Background(), song.ID)
	require.NoError(t, err)
	assert.Nil(t, goneMusic)
}

// invalidationRecorder captures which playlist payloads get dropped.
type invalidationRecorder struct {
	ids []int64
}

func (r *invalidationRecorder) Invalidate(_ context.Context, playlistIDs ...int64) {
	r.ids = append(r.ids, playlistIDs...)
}

func TestDeleteInvalidatesPlaylistsContainingAuthoredSongs(t *testing.T) {
	store := repositorytest.NewStore()
	recorder := &invalidationRecorder{}
	m := NewManager(store, store, store, recorder)

	alice := store.SeedUser("alice", "alice@example.com")
	bob := store.SeedUser("bob", "bob@example.com")
	song := store.SeedMusic("One", "Metallica", "https://x/1", alice.ID)
	own := store.SeedPlaylist("mine", alice.ID, false)
	theirs := store.SeedPlaylist("covers", bob.ID, false)
	require.NoError(t, store.AddMembership(context.Background(), theirs.ID, song.ID))

	_, err := m.Delete(context.Background(), alice, alice.ID)
	require.NoError(t, err)

	// Both the owned playlist and bob's playlist holding alice's song are
	// dropped from the cache, not left to age out.
	assert.ElementsMatch(t, []int64{own.ID, theirs.ID}, recorder.ids)

	surviving, err := store.GetPlaylistByID(context.Background(), theirs.ID)
	require.NoError(t, err)
	require.NotNil(t, surviving)
}
