package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"melodex/config"
	"melodex/core/apperr"
	"melodex/core/auth"
	"melodex/core/music"
	"melodex/core/playlist"
	"melodex/core/user"
	"melodex/logger"
)

// APIHandler handles all API requests.
type APIHandler struct {
	users     *user.Manager
	musics    *music.Manager
	playlists *playlist.Manager
	tokens    *auth.TokenService
	resolver  *auth.Resolver
	cfg       *config.Config
}

// NewAPIHandler creates a new API handler.
func NewAPIHandler(
	users *user.Manager,
	musics *music.Manager,
	playlists *playlist.Manager,
	tokens *auth.TokenService,
	resolver *auth.Resolver,
	cfg *config.Config,
) *APIHandler {
	return &APIHandler{
		users:     users,
		musics:    musics,
		playlists: playlists,
		tokens:    tokens,
		resolver:  resolver,
		cfg:       cfg,
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

// writeJSON writes the payload as a JSON response.
func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			logger.Error("Failed to encode response", logger.ErrorField(err))
		}
	}
}

// writeError translates an error from the managers into an HTTP status.
// Unauthenticated callers get 401, authenticated-but-unauthorized get 403,
// absent entities 404, uniqueness violations 409, bad input 400. Anything
// unrecognized is a 500 with a generic body.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, apperr.ErrUnauthenticated), errors.Is(err, apperr.ErrTokenInvalid):
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: err.Error()})
	case errors.Is(err, apperr.ErrForbidden):
		writeJSON(w, http.StatusForbidden, errorResponse{Error: err.Error()})
	case errors.Is(err, apperr.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
	case errors.Is(err, apperr.ErrConflict):
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
	case errors.Is(err, apperr.ErrInvalidInput):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	default:
		logger.Error("Internal error", logger.ErrorField(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
	}
}

// pathID extracts an int64 path variable from the mux route.
func pathID(r *http.Request, name string) (int64, error) {
	raw, ok := mux.Vars(r)[name]
	if !ok {
		return 0, errors.New("missing path parameter " + name)
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, errors.New("invalid path parameter " + name)
	}
	return id, nil
}

// pagination reads skip/limit query parameters with the API's defaults.
func pagination(r *http.Request) (skip, limit int) {
	skip, limit = 0, 10
	if v := r.URL.Query().Get("skip"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			skip = n
		}
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			if n > 100 {
				n = 100
			}
			limit = n
		}
	}
	return skip, limit
}
