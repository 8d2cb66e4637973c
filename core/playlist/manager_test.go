package playlist

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
	return NewManager(store, store, cache.NewPlaylistCache(nil)), store
}

func asIdentity(u *model.User) auth.Identity {
	return auth.Identity{User: u}
}

func TestCreatePlaylist(t *testing.T) {
	m, store := newTestManager()
	alice := store.SeedUser("alice", "alice@example.com")

	created, err := m.Create(context.Background(), alice, "road trip", true)
	require.NoError(t, err)
	assert.NotZero(t, created.ID)
	assert.Equal(t, alice.ID, created.OwnerID)
	assert.True(t, created.Private)
}

func TestAddMusicRoundTrip(t *testing.T) {
	m, store := newTestManager()
	alice := store.SeedUser("alice", "alice@example.com")
	p := store.SeedPlaylist("mix", alice.ID, false)
	song := store.SeedMusic("One", "Metallica", "https://x/1", alice.ID)

	added, err := m.AddMusic(context.Background(), alice, p.ID, song.ID)
	require.NoError(t, err)
	assert.Equal(t, song.ID, added.ID)

	payload, err := m.GetWithMusics(context.Background(), asIdentity(alice), p.ID)
	require.NoError(t, err)
	require.Len(t, payload.Musics, 1)
	assert.Equal(t, song.ID, payload.Musics[0].ID)

	_, err = m.RemoveMusic(context.Background(), alice, p.ID, song.ID)
	require.NoError(t, err)

	payload, err = m.GetWithMusics(context.Background(), asIdentity(alice), p.ID)
	require.NoError(t, err)
	assert.Empty(t, payload.Musics)
}

func TestAddMusicDuplicateMembershipConflicts(t *testing.T) {
	m, store := newTestManager()
	alice := store.SeedUser("alice", "alice@example.com")
	p := store.SeedPlaylist("mix", alice.ID, false)
	song := store.SeedMusic("One", "Metallica", "https://x/1", alice.ID)

	_, err := m.AddMusic(context.Background(), alice, p.ID, song.ID)
	require.NoError(t, err)

	_, err = m.AddMusic(context.Background(), alice, p.ID, song.ID)
	assert.ErrorIs(t, err, apperr.ErrConflict)

	// No duplicate row was created.
	payload, err := m.GetWithMusics(context.Background(), asIdentity(alice), p.ID)
	require.NoError(t, err)
	assert.Len(t, payload.Musics, 1)
}

// staleMembershipStore reports every membership as absent, standing in for
// the window where two concurrent adds both pass the pre-check.
type staleMembershipStore struct {
	*repositorytest.Store
}

func (s staleMembershipStore) HasMembership(context.Context, int64, int64) (bool, error) {
	return false, nil
}

func TestAddMusicConcurrentDuplicateHitsConstraint(t *testing.T) {
	store := repositorytest.NewStore()
	m := NewManager(staleMembershipStore{store}, store, cache.NewPlaylistCache(nil))

	alice := store.SeedUser("alice", "alice@example.com")
	p := store.SeedPlaylist("mix", alice.ID, false)
	song := store.SeedMusic("One", "Metallica", "https://x/1", alice.ID)

	_, err := m.AddMusic(context.Background(), alice, p.ID, song.ID)
	require.NoError(t, err)

	// The pre-check misses, the insert itself still conflicts on the
	// composite key and no second row appears.
	_, err = m.AddMusic(context.Background(), alice, p.ID, song.ID)
	assert.ErrorIs(t, err, apperr.ErrConflict)

	members, err := store.ListPlaylistMusics(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Len(t, members, 1)
}

func TestAddMusicAuthorization(t *testing.T) {
	m, store := newTestManager()
	alice := store.SeedUser("alice", "alice@example.com")
	bob := store.SeedUser("bob", "bob@example.com")
	p := store.SeedPlaylist("mix", alice.ID, false)
	song := store.SeedMusic("One", "Metallica", "https://x/1", alice.ID)

	_, err := m.AddMusic(context.Background(), bob, p.ID, song.ID)
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	_, err = m.AddMusic(context.Background(), alice, 404, song.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = m.AddMusic(context.Background(), alice, p.ID, 404)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestRemoveMusicAbsentMembership(t *testing.T) {
	m, store := newTestManager()
	alice := store.SeedUser("alice", "alice@example.com")
	p := store.SeedPlaylist("mix", alice.ID, false)
	song := store.SeedMusic("One", "Metallica", "https://x/1", alice.ID)

	// The song exists but is not in the playlist; the caller has no standing
	// over a link that does not exist.
	_, err := m.RemoveMusic(context.Background(), alice, p.ID, song.ID)
	assert.ErrorIs(t, err, apperr.ErrForbidden)
}

func TestRemoveMusicOnlyByOwner(t *testing.T) {
	m, store := newTestManager()
	alice := store.SeedUser("alice", "alice@example.com")
	bob := store.SeedUser("bob", "bob@example.com")
	p := store.SeedPlaylist("mix", alice.ID, false)
	song := store.SeedMusic("One", "Metallica", "https://x/1", alice.ID)
	require.NoError(t, store.AddMembership(context.Background(), p.ID, song.ID))

	_, err := m.RemoveMusic(context.Background(), bob, p.ID, song.ID)
	assert.ErrorIs(t, err, apperr.ErrForbidden)
}

func TestGetWithMusicsVisibility(t *testing.T) {
	m, store := newTestManager()
	alice := store.SeedUser("alice", "alice@example.com")
	bob := store.SeedUser("bob", "bob@example.com")
	private := store.SeedPlaylist("secret", alice.ID, true)
	public := store.SeedPlaylist("open", alice.ID, false)

	// Private: owner only.
	_, err := m.GetWithMusics(context.Background(), auth.Identity{}, private.ID)
	assert.ErrorIs(t, err, apperr.ErrUnauthenticated)
	_, err = m.GetWithMusics(context.Background(), asIdentity(bob), private.ID)
	assert.ErrorIs(t, err, apperr.ErrUnauthenticated)
	_, err = m.GetWithMusics(context.Background(), asIdentity(alice), private.ID)
	assert.NoError(t, err)

	// Public: anyone, including anonymous.
	for _, requester := range []auth.Identity{{}, asIdentity(bob), asIdentity(alice)} {
		_, err = m.GetWithMusics(context.Background(), requester, public.ID)
		assert.NoError(t, err)
	}

	_, err = m.GetWithMusics(context.Background(), asIdentity(alice), 404)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestListForUserVisibilityFilter(t *testing.T) {
	m, store := newTestManager()
	alice := store.SeedUser("alice", "alice@example.com")
	bob := store.SeedUser("bob", "bob@example.com")
	store.SeedPlaylist("open", alice.ID, false)
	store.SeedPlaylist("secret", alice.ID, true)

	// Owner sees both.
	own, err := m.ListForUser(context.Background(), asIdentity(alice), alice.ID)
	require.NoError(t, err)
	assert.Len(t, own, 2)

	// Anyone else, authenticated or not, sees only the public one.
	for _, requester := range []auth.Identity{{}, asIdentity(bob)} {
		visible, err := m.ListForUser(context.Background(), requester, alice.ID)
		require.NoError(t, err)
		require.Len(t, visible, 1)
		assert.Equal(t, "open", visible[0].Name)
	}
}

func TestUpdatePlaylist(t *testing.T) {
	m, store := newTestManager()
	alice := store.SeedUser("alice", "alice@example.com")
	bob := store.SeedUser("bob", "bob@example.com")
	p := store.SeedPlaylist("mix", alice.ID, true)

	name := "new mix"
	toPublic := false
	_, err := m.Update(context.Background(), bob, p.ID, model.PlaylistPatch{Name: &name})
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	empty := ""
	_, err = m.Update(context.Background(), alice, p.ID, model.PlaylistPatch{Name: &empty})
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)

	// An explicit private=false applies; it is not mistaken for "unset".
	updated, err := m.Update(context.Background(), alice, p.ID, model.PlaylistPatch{Name: &name, Private: &toPublic})
	require.NoError(t, err)
	assert.Equal(t, "new mix", updated.Name)
	assert.False(t, updated.Private)
}

func TestDeletePlaylist(t *testing.T) {
	m, store := newTestManager()
	alice := store.SeedUser("alice", "alice@example.com")
	bob := store.SeedUser("bob", "bob@example.com")
	p := store.SeedPlaylist("mix", alice.ID, false)

	_, err := m.Delete(context.Background(), bob, p.ID)
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	deleted, err := m.Delete(context.Background(), alice, p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.ID, deleted.ID)

	_, err = m.GetWithMusics(context.Background(), asIdentity(alice), p.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}
