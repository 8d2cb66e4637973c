package server

import (
	"encoding/json"
	"fmt"
	"net/http"

	"melodex/core/apperr"
	"melodex/model"
)

// AddMusicRequest is the add-music request body.
type AddMusicRequest struct {
	Title  string `json:"title"`
	Artist string `json:"artist"`
	Link   string `json:"link"`
}

// AddMusicHandler handles POST /api/music.
func (h *APIHandler) AddMusicHandler(w http.ResponseWriter, r *http.Request) {
	account, err := requireUser(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req AddMusicRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fmt.Errorf("%w: invalid request body", apperr.ErrInvalidInput))
		return
	}
	if req.Title == "" || req.Artist == "" || req.Link == "" {
		writeError(w, fmt.Errorf("%w: title, artist and link are required", apperr.ErrInvalidInput))
		return
	}

	created, err := h.musics.Add(r.Context(), account, req.Title, req.Artist, req.Link)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// ListMusicsHandler handles GET /api/music/all. Unauthenticated and
// unfiltered.
func (h *APIHandler) ListMusicsHandler(w http.ResponseWriter, r *http.Request) {
	skip, limit := pagination(r)
	musics, err := h.musics.List(r.Context(), skip, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, musics)
}

// ListUserMusicsHandler handles GET /api/music/user/{userId}.
func (h *APIHandler) ListUserMusicsHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "userId")
	if err != nil {
		writeError(w, fmt.Errorf("%w: %v", apperr.ErrInvalidInput, err))
		return
	}

	skip, limit := pagination(r)
	musics, err := h.musics.ListByUser(r.Context(), userID, skip, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, musics)
}

// GetMusicHandler handles GET /api/music/{id}.
func (h *APIHandler) GetMusicHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, fmt.Errorf("%w: %v", apperr.ErrInvalidInput, err))
		return
	}

	m, err := h.musics.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// UpdateMusicHandler handles PUT /api/music/{id}.
func (h *APIHandler) UpdateMusicHandler(w http.ResponseWriter, r *http.Request) {
	account, err := requireUser(r)
	if err != nil {
		writeError(w, err)
		return
	}

	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, fmt.Errorf("%w: %v", apperr.ErrInvalidInput, err))
		return
	}

	var patch model.MusicPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeError(w, fmt.Errorf("%w: invalid request body", apperr.ErrInvalidInput))
		return
	}

	updated, err := h.musics.Update(r.Context(), account, id, patch)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// DeleteMusicHandler handles DELETE /api/music/{id}.
func (h *APIHandler) DeleteMusicHandler(w http.ResponseWriter, r *http.Request) {
	account, err := requireUser(r)
	if err != nil {
		writeError(w, err)
		return
	}

	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, fmt.Errorf("%w: %v", apperr.ErrInvalidInput, err))
		return
	}

	removed, err := h.musics.Remove(r.Context(), account, id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, removed)
}
