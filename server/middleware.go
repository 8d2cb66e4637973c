package server

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"melodex/core/auth"
	"melodex/logger"
)

type contextKey string

const (
	identityContextKey  contextKey = "identity"
	requestIDContextKey contextKey = "requestID"
)

// IdentityFromContext returns the identity resolved by the auth middleware.
// Requests that went through neither middleware are anonymous.
func IdentityFromContext(ctx context.Context) auth.Identity {
	if id, ok := ctx.Value(identityContextKey).(auth.Identity); ok {
		return id
	}
	return auth.Identity{}
}

// RequestIDMiddleware tags every request with a generated id, exposed in the
// X-Request-Id response header and in the logs.
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := uuid.NewString()
		w.Header().Set("X-Request-Id", requestID)

		logger.Debug("Request",
			logger.String("requestId", requestID),
			logger.String("method", r.Method),
			logger.String("path", r.URL.Path))

		ctx := context.WithValue(r.Context(), requestIDContextKey, requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// CORSMiddleware adds the CORS headers and answers preflight requests.
func CORSMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Max-Age", "86400")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// RequireAuth resolves the Authorization header and rejects the request with
// 401 unless it carries a valid token for an existing user.
func (h *APIHandler) RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return h.resolve(next, true)
}

// OptionalAuth resolves the Authorization header when present. A missing
// header passes through as anonymous; a present but invalid token is still
// rejected with 401 rather than silently treated as anonymous.
func (h *APIHandler) OptionalAuth(next http.HandlerFunc) http.HandlerFunc {
	return h.resolve(next, false)
}

func (h *APIHandler) resolve(next http.HandlerFunc, required bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, err := h.resolver.ResolveHeader(r.Context(), r.Header.Get("Authorization"), required)
		if err != nil {
			writeError(w, err)
			return
		}

		ctx := context.WithValue(r.Context(), identityContextKey, identity)
		next.ServeHTTP(w, r.WithContext(ctx))
	}
}
