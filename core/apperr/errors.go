package apperr

import "errors"

// Sentinel errors for the outcomes the API distinguishes. Handlers translate
// these to HTTP statuses; everything else is a 500.
var (
	// ErrUnauthenticated means the request carried no usable identity where
	// one was required: missing, malformed, expired or forged token.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrForbidden means the caller is authenticated but does not own the
	// entity it is trying to act on.
	ErrForbidden = errors.New("forbidden")

	// ErrNotFound means the referenced entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict means a uniqueness constraint was violated: duplicate
	// username/email, duplicate (title, artist) pair, duplicate membership.
	ErrConflict = errors.New("conflict")

	// ErrTokenInvalid covers every token verification failure. Callers that
	// need a uniform outcome treat it as ErrUnauthenticated.
	ErrTokenInvalid = errors.New("token invalid")

	// ErrInvalidInput means the request body failed validation, e.g. an
	// explicit empty string in a patch field.
	ErrInvalidInput = errors.New("invalid input")
)
