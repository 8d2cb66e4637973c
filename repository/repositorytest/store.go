// Package repositorytest provides an in-memory Store implementing the
// repository interfaces for manager tests, emulating the schema's uniqueness
// constraints and cascades.
package repositorytest

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"melodex/core/apperr"
	"melodex/model"
)

type membershipKey struct {
	PlaylistID int64
	MusicID    int64
}

// Store holds all entities in memory behind one mutex.
type Store struct {
	mu          sync.Mutex
	nextID      int64
	Users       map[int64]*model.User
	Musics      map[int64]*model.Music
	Playlists   map[int64]*model.Playlist
	Memberships map[membershipKey]bool
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{
		Users:       make(map[int64]*model.User),
		Musics:      make(map[int64]*model.Music),
		Playlists:   make(map[int64]*model.Playlist),
		Memberships: make(map[membershipKey]bool),
	}
}

func (s *Store) id() int64 {
	s.nextID++
	return s.nextID
}

// SeedUser inserts a user directly, bypassing constraint checks.
func (s *Store) SeedUser(username, email string) *model.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := &model.User{
		ID:           s.id(),
		Username:     username,
		Email:        email,
		PasswordHash: "x",
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	s.Users[u.ID] = u
	return u
}

// SeedMusic inserts a song directly, bypassing constraint checks.
func (s *Store) SeedMusic(title, artist, link string, addedBy int64) *model.Music {
	s.mu.Lock()
	defer s.mu.Unlock()
	m := &model.Music{
		ID:        s.id(),
		Title:     title,
		Artist:    artist,
		Link:      link,
		AddedBy:   addedBy,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	s.Musics[m.ID] = m
	return m
}

// SeedPlaylist inserts a playlist directly, bypassing constraint checks.
func (s *Store) SeedPlaylist(name string, ownerID int64, private bool) *model.Playlist {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := &model.Playlist{
		ID:        s.id(),
		Name:      name,
		OwnerID:   ownerID,
		Private:   private,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	s.Playlists[p.ID] = p
	return p
}

// --- UserRepository ---

func (s *Store) CreateUser(_ context.Context, user *model.User) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.Users {
		if u.Username == user.Username || u.Email == user.Email {
			return 0, fmt.Errorf("%w: username or email already exists", apperr.ErrConflict)
		}
	}
	stored := *user
	stored.ID = s.id()
	stored.CreatedAt = time.Now()
	stored.UpdatedAt = time.Now()
	s.Users[stored.ID] = &stored
	return stored.ID, nil
}

func (s *Store) GetUserByID(_ context.Context, id int64) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Users[id], nil
}

func (s *Store) GetUserByUsername(_ context.Context, username string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.Users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, nil
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.Users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, nil
}

func (s *Store) ListUsers(_ context.Context, skip, limit int) ([]*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	users := make([]*model.User, 0, len(s.Users))
	for _, u := range s.Users {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return page(users, skip, limit), nil
}

func (s *Store) UpdateUser(_ context.Context, id int64, patch model.UserPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.Users[id]
	if !ok {
		return fmt.Errorf("%w: user %d", apperr.ErrNotFound, id)
	}
	for _, other := range s.Users {
		if other.ID == id {
			continue
		}
		if patch.Username != nil && other.Username == *patch.Username {
			return fmt.Errorf("%w: username already exists", apperr.ErrConflict)
		}
		if patch.Email != nil && other.Email == *patch.Email {
			return fmt.Errorf("%w: email already exists", apperr.ErrConflict)
		}
	}
	if patch.Username != nil {
		u.Username = *patch.Username
	}
	if patch.Email != nil {
		u.Email = *patch.Email
	}
	u.UpdatedAt = time.Now()
	return nil
}

// DeleteUser cascades to owned playlists, authored songs and their
// membership rows, like the real schema does.
func (s *Store) DeleteUser(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.Users[id]; !ok {
		return fmt.Errorf("%w: user %d", apperr.ErrNotFound, id)
	}
	delete(s.Users, id)
	for pid, p := range s.Playlists {
		if p.OwnerID == id {
			delete(s.Playlists, pid)
			s.dropMemberships(func(k membershipKey) bool { return k.PlaylistID == pid })
		}
	}
	for mid, m := range s.Musics {
		if m.AddedBy == id {
			delete(s.Musics, mid)
			s.dropMemberships(func(k membershipKey) bool { return k.MusicID == mid })
		}
	}
	return nil
}

// --- MusicRepository ---

func (s *Store) CreateMusic(_ context.Context, music *model.Music) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.Musics {
		if m.Title == music.Title && m.Artist == music.Artist {
			return 0, fmt.Errorf("%w: music %q by %q already exists", apperr.ErrConflict, music.Title, music.Artist)
		}
	}
	stored := *music
	stored.ID = s.id()
	stored.CreatedAt = time.Now()
	stored.UpdatedAt = time.Now()
	s.Musics[stored.ID] = &stored
	return stored.ID, nil
}

func (s *Store) GetMusicByID(_ context.Context, id int64) (*model.Music, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Musics[id], nil
}

func (s *Store) ListMusics(_ context.Context, skip, limit int) ([]*model.Music, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return page(s.sortedMusics(func(*model.Music) bool { return true }), skip, limit), nil
}

func (s *Store) ListMusicsByUser(_ context.Context, userID int64, skip, limit int) ([]*model.Music, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return page(s.sortedMusics(func(m *model.Music) bool { return m.AddedBy == userID }), skip, limit), nil
}

func (s *Store) UpdateMusic(_ context.Context, id int64, patch model.MusicPatch) (*model.Music, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.Musics[id]
	if !ok {
		return nil, fmt.Errorf("%w: music %d", apperr.ErrNotFound, id)
	}
	title, artist := m.Title, m.Artist
	if patch.Title != nil {
		title = *patch.Title
	}
	if patch.Artist != nil {
		artist = *patch.Artist
	}
	for _, other := range s.Musics {
		if other.ID != id && other.Title == title && other.Artist == artist {
			return nil, fmt.Errorf("%w: music %q by %q already exists", apperr.ErrConflict, title, artist)
		}
	}
	m.Title, m.Artist = title, artist
	if patch.Link != nil {
		m.Link = *patch.Link
	}
	m.UpdatedAt = time.Now()
	return m, nil
}

func (s *Store) DeleteMusic(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.Musics[id]; !ok {
		return fmt.Errorf("%w: music %d", apperr.ErrNotFound, id)
	}
	delete(s.Musics, id)
	s.dropMemberships(func(k membershipKey) bool { return k.MusicID == id })
	return nil
}

// --- PlaylistRepository ---

func (s *Store) CreatePlaylist(_ context.Context, playlist *model.Playlist) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	playlist.ID = s.id()
	playlist.CreatedAt = time.Now()
	playlist.UpdatedAt = time.Now()
	stored := *playlist
	s.Playlists[playlist.ID] = &stored
	return nil
}

func (s *Store) GetPlaylistByID(_ context.Context, id int64) (*model.Playlist, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Playlists[id], nil
}

func (s *Store) ListPlaylistsByOwner(_ context.Context, ownerID int64, includePrivate bool) ([]*model.Playlist, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	playlists := make([]*model.Playlist, 0)
	for _, p := range s.Playlists {
		if p.OwnerID != ownerID {
			continue
		}
		if p.Private && !includePrivate {
			continue
		}
		playlists = append(playlists, p)
	}
	sort.Slice(playlists, func(i, j int) bool { return playlists[i].ID < playlists[j].ID })
	return playlists, nil
}

func (s *Store) UpdatePlaylist(_ context.Context, id int64, patch model.PlaylistPatch) (*model.Playlist, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.Playlists[id]
	if !ok {
		return nil, fmt.Errorf("%w: playlist %d", apperr.ErrNotFound, id)
	}
	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.Private != nil {
		p.Private = *patch.Private
	}
	p.UpdatedAt = time.Now()
	return p, nil
}

func (s *Store) DeletePlaylist(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.Playlists[id]; !ok {
		return fmt.Errorf("%w: playlist %d", apperr.ErrNotFound, id)
	}
	delete(s.Playlists, id)
	s.dropMemberships(func(k membershipKey) bool { return k.PlaylistID == id })
	return nil
}

func (s *Store) AddMembership(_ context.Context, playlistID, musicID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := membershipKey{PlaylistID: playlistID, MusicID: musicID}
	if s.Memberships[key] {
		return fmt.Errorf("%w: music %d already in playlist %d", apperr.ErrConflict, musicID, playlistID)
	}
	s.Memberships[key] = true
	return nil
}

func (s *Store) RemoveMembership(_ context.Context, playlistID, musicID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := membershipKey{PlaylistID: playlistID, MusicID: musicID}
	if !s.Memberships[key] {
		return false, nil
	}
	delete(s.Memberships, key)
	return true, nil
}

func (s *Store) HasMembership(_ context.Context, playlistID, musicID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Memberships[membershipKey{PlaylistID: playlistID, MusicID: musicID}], nil
}

func (s *Store) ListPlaylistMusics(_ context.Context, playlistID int64) ([]*model.Music, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sortedMusics(func(m *model.Music) bool {
		return s.Memberships[membershipKey{PlaylistID: playlistID, MusicID: m.ID}]
	}), nil
}

func (s *Store) ListPlaylistIDsByMusic(_ context.Context, musicID int64) ([]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]int64, 0)
	for k := range s.Memberships {
		if k.MusicID == musicID {
			ids = append(ids, k.PlaylistID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

// --- helpers ---

func (s *Store) sortedMusics(keep func(*model.Music) bool) []*model.Music {
	musics := make([]*model.Music, 0)
	for _, m := range s.Musics {
		if keep(m) {
			musics = append(musics, m)
		}
	}
	sort.Slice(musics, func(i, j int) bool { return musics[i].ID < musics[j].ID })
	return musics
}

func (s *Store) dropMemberships(match func(membershipKey) bool) {
	for k := range s.Memberships {
		if match(k) {
			delete(s.Memberships, k)
		}
	}
}

func page[T any](items []T, skip, limit int) []T {
	if skip >= len(items) {
		return []T{}
	}
	items = items[skip:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
