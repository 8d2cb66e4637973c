package model

import "time"

// Music represents a song in the library. Songs reference external audio by
// link; the store never holds media itself.
type Music struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Artist    string    `json:"artist"`
	Link      string    `json:"link"`
	AddedBy   int64     `json:"addedBy"` // User who added the song; the only one allowed to mutate it
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// MusicPatch carries a partial song update. Nil means "not supplied".
type MusicPatch struct {
	Title  *string `json:"title"`
	Artist *string `json:"artist"`
	Link   *string `json:"link"`
}

// Empty reports whether the patch carries no fields at all.
func (p MusicPatch) Empty() bool {
	return p.Title == nil && p.Artist == nil && p.Link == nil
}
