package server

import (
	"encoding/json"
	"fmt"
	"net/http"

	"melodex/core/apperr"
	"melodex/model"
)

// CreatePlaylistRequest is the create-playlist request body.
type CreatePlaylistRequest struct {
	Name    string `json:"name"`
	Private bool   `json:"private"`
}

// CreatePlaylistHandler handles POST /api/playlist.
func (h *APIHandler) CreatePlaylistHandler(w http.ResponseWriter, r *http.Request) {
	account, err := requireUser(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req CreatePlaylistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fmt.Errorf("%w: invalid request body", apperr.ErrInvalidInput))
		return
	}
	if req.Name == "" {
		writeError(w, fmt.Errorf("%w: name is required", apperr.ErrInvalidInput))
		return
	}

	created, err := h.playlists.Create(r.Context(), account, req.Name, req.Private)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// AddMusicToPlaylistHandler handles POST /api/playlist/{id}/music/{musicId}.
func (h *APIHandler) AddMusicToPlaylistHandler(w http.ResponseWriter, r *http.Request) {
	account, err := requireUser(r)
	if err != nil {
		writeError(w, err)
		return
	}

	playlistID, err := pathID(r, "id")
	if err != nil {
		writeError(w, fmt.Errorf("%w: %v", apperr.ErrInvalidInput, err))
		return
	}
	musicID, err := pathID(r, "musicId")
	if err != nil {
		writeError(w, fmt.Errorf("%w: %v", apperr.ErrInvalidInput, err))
		return
	}

	added, err := h.playlists.AddMusic(r.Context(), account, playlistID, musicID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, added)
}

// RemoveMusicFromPlaylistHandler handles DELETE /api/playlist/{id}/music/{musicId}.
func (h *APIHandler) RemoveMusicFromPlaylistHandler(w http.ResponseWriter, r *http.Request) {
	account, err := requireUser(r)
	if err != nil {
		writeError(w, err)
		return
	}

	playlistID, err := pathID(r, "id")
	if err != nil {
		writeError(w, fmt.Errorf("%w: %v", apperr.ErrInvalidInput, err))
		return
	}
	musicID, err := pathID(r, "musicId")
	if err != nil {
		writeError(w, fmt.Errorf("%w: %v", apperr.ErrInvalidInput, err))
		return
	}

	removed, err := h.playlists.RemoveMusic(r.Context(), account, playlistID, musicID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, removed)
}

// ListUserPlaylistsHandler handles GET /api/playlist/from-user/{userId}.
// Optional auth: the owner also sees their private playlists, everyone else
// only the public ones.
func (h *APIHandler) ListUserPlaylistsHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "userId")
	if err != nil {
		writeError(w, fmt.Errorf("%w: %v", apperr.ErrInvalidInput, err))
		return
	}

	playlists, err := h.playlists.ListForUser(r.Context(), IdentityFromContext(r.Context()), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, playlists)
}

// GetPlaylistMusicsHandler handles GET /api/playlist/{id}/musics. Optional
// auth: private playlists are only served to their owner.
func (h *APIHandler) GetPlaylistMusicsHandler(w http.ResponseWriter, r *http.Request) {
	playlistID, err := pathID(r, "id")
	if err != nil {
		writeError(w, fmt.Errorf("%w: %v", apperr.ErrInvalidInput, err))
		return
	}

	payload, err := h.playlists.GetWithMusics(r.Context(), IdentityFromContext(r.Context()), playlistID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, payload)
}

// UpdatePlaylistHandler handles PUT /api/playlist/{id}.
func (h *APIHandler) UpdatePlaylistHandler(w http.ResponseWriter, r *http.Request) {
	account, err := requireUser(r)
	if err != nil {
		writeError(w, err)
		return
	}

	playlistID, err := pathID(r, "id")
	if err != nil {
		writeError(w, fmt.Errorf("%w: %v", apperr.ErrInvalidInput, err))
		return
	}

	var patch model.PlaylistPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeError(w, fmt.Errorf("%w: invalid request body", apperr.ErrInvalidInput))
		return
	}

	updated, err := h.playlists.Update(r.Context(), account, playlistID, patch)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// DeletePlaylistHandler handles DELETE /api/playlist/{id}.
func (h *APIHandler) DeletePlaylistHandler(w http.ResponseWriter, r *http.Request) {
	account, err := requireUser(r)
	if err != nil {
		writeError(w, err)
		return
	}

	playlistID, err := pathID(r, "id")
	if err != nil {
		writeError(w, fmt.Errorf("%w: %v", apperr.ErrInvalidInput, err))
		return
	}

	deleted, err := h.playlists.Delete(r.Context(), account, playlistID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, deleted)
}
