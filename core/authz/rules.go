// Package authz holds the ownership and visibility predicates consulted by
// the music and playlist managers. The predicates are pure: they only look at
// already-loaded entities and never touch storage.
package authz

import (
	"melodex/core/auth"
	"melodex/model"
)

// CanMutateMusic reports whether the user may edit or delete the song. Only
// the adder may.
func CanMutateMusic(user *model.User, music *model.Music) bool {
	return user != nil && music != nil && user.ID == music.AddedBy
}

// CanMutatePlaylist reports whether the user may edit or delete the playlist
// or its memberships. Only the owner may.
func CanMutatePlaylist(user *model.User, playlist *model.Playlist) bool {
	return user != nil && playlist != nil && user.ID == playlist.OwnerID
}

// CanViewPlaylist reports whether the requester may read the playlist's
// contents. Public playlists are visible to anyone, private ones only to
// their owner.
func CanViewPlaylist(requester auth.Identity, playlist *model.Playlist) bool {
	if playlist == nil {
		return false
	}
	if !playlist.Private {
		return true
	}
	id, ok := requester.UserID()
	return ok && id == playlist.OwnerID
}

// CanViewPrivatePlaylists reports whether a listing of targetUserID's
// playlists should include private ones. Only the owner listing their own
// playlists sees those.
func CanViewPrivatePlaylists(requester auth.Identity, targetUserID int64) bool {
	id, ok := requester.UserID()
	return ok && id == targetUserID
}
