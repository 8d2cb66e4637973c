package server

import (
	"encoding/json"
	"fmt"
	"net/http"

	"melodex/core/apperr"
	"melodex/model"
)

// RegisterRequest is the registration request body.
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest is the login request body.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse carries the issued token.
type LoginResponse struct {
	AccessToken string      `json:"accessToken"`
	TokenType   string      `json:"tokenType"`
	User        *model.User `json:"user"`
}

// requireUser returns the authenticated user placed in the context by
// RequireAuth.
func requireUser(r *http.Request) (*model.User, error) {
	identity := IdentityFromContext(r.Context())
	if identity.Anonymous() {
		return nil, fmt.Errorf("%w: no authenticated user", apperr.ErrUnauthenticated)
	}
	return identity.User, nil
}

// RegisterHandler handles POST /api/users.
func (h *APIHandler) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fmt.Errorf("%w: invalid request body", apperr.ErrInvalidInput))
		return
	}
	if req.Username == "" || req.Email == "" || req.Password == "" {
		writeError(w, fmt.Errorf("%w: username, email and password are required", apperr.ErrInvalidInput))
		return
	}

	created, err := h.users.Register(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// LoginHandler handles POST /api/users/login.
func (h *APIHandler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fmt.Errorf("%w: invalid request body", apperr.ErrInvalidInput))
		return
	}
	if req.Email == "" || req.Password == "" {
		writeError(w, fmt.Errorf("%w: email and password are required", apperr.ErrInvalidInput))
		return
	}

	account, err := h.users.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	token, err := h.tokens.Generate(account)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, LoginResponse{
		AccessToken: token,
		TokenType:   "bearer",
		User:        account,
	})
}

// MeHandler handles GET /api/users/me.
func (h *APIHandler) MeHandler(w http.ResponseWriter, r *http.Request) {
	account, err := requireUser(r)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, account)
}

// GetUserHandler handles GET /api/users/{id}.
func (h *APIHandler) GetUserHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, fmt.Errorf("%w: %v", apperr.ErrInvalidInput, err))
		return
	}

	account, err := h.users.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, account)
}

// ListUsersHandler handles GET /api/users.
func (h *APIHandler) ListUsersHandler(w http.ResponseWriter, r *http.Request) {
	skip, limit := pagination(r)
	users, err := h.users.List(r.Context(), skip, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

// UpdateUserHandler handles PUT /api/users/{id}.
func (h *APIHandler) UpdateUserHandler(w http.ResponseWriter, r *http.Request) {
	actor, err := requireUser(r)
	if err != nil {
		writeError(w, err)
		return
	}

	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, fmt.Errorf("%w: %v", apperr.ErrInvalidInput, err))
		return
	}

	var patch model.UserPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeError(w, fmt.Errorf("%w: invalid request body", apperr.ErrInvalidInput))
		return
	}

	updated, err := h.users.Update(r.Context(), actor, id, patch)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// DeleteUserHandler handles DELETE /api/users/{id}.
func (h *APIHandler) DeleteUserHandler(w http.ResponseWriter, r *http.Request) {
	actor, err := requireUser(r)
	if err != nil {
		writeError(w, err)
		return
	}

	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, fmt.Errorf("%w: %v", apperr.ErrInvalidInput, err))
		return
	}

	deleted, err := h.users.Delete(r.Context(), actor, id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, deleted)
}
