package model

import "time"

// Playlist is a named collection of songs owned by one user. Private
// playlists are only readable by their owner.
type Playlist struct {
	ID        int64     `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name" gorm:"size:255;not null"`
	OwnerID   int64     `json:"ownerId" gorm:"column:owner_id;index"`
	Private   bool      `json:"private" gorm:"default:false"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// TableName keeps the GORM mapping aligned with the hand-written schema.
func (Playlist) TableName() string {
	return "playlists"
}

// PlaylistMusic is one membership row of the playlist/music many-to-many
// relation. The composite primary key is what ultimately rejects duplicate
// memberships; application-level checks are only a fast path.
type PlaylistMusic struct {
	PlaylistID int64     `json:"playlistId" gorm:"primaryKey;column:playlist_id"`
	MusicID    int64     `json:"musicId" gorm:"primaryKey;column:music_id"`
	CreatedAt  time.Time `json:"createdAt"`
}

func (PlaylistMusic) TableName() string {
	return "playlist_musics"
}

// PlaylistWithMusics is the read model for a playlist together with its
// member songs.
type PlaylistWithMusics struct {
	Playlist
	Musics []*Music `json:"musics"`
}

// PlaylistPatch carries a partial playlist update. Nil means "not supplied";
// Private uses a pointer so that an explicit false still applies.
type PlaylistPatch struct {
	Name    *string `json:"name"`
	Private *bool   `json:"private"`
}

// Empty reports whether the patch carries no fields at all.
func (p PlaylistPatch) Empty() bool {
	return p.Name == nil && p.Private == nil
}
