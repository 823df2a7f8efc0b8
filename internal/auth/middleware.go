package auth

import (
	"context"
	"net/http"
	"strings"

	"labelpress/internal/constants"
	"labelpress/internal/logger"
)

// contextKey is an unexported type for context keys in this package.
type contextKey int

const identityContextKey contextKey = iota

// Middleware provides HTTP middleware for API key authentication.
type Middleware struct {
	store  *Store
	logger *logger.Logger
}

// NewMiddleware creates an auth middleware over the key store.
func NewMiddleware(store *Store, log *logger.Logger) *Middleware {
	return &Middleware{store: store, logger: log}
}

// Authenticate resolves the request's API key to an identity and sets it on
// the context. It always calls next — handlers that require a principal use
// FromRequest to check.
func (m *Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity := m.resolveIdentity(r)
		ctx := context.WithValue(r.Context(), identityContextKey, identity)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// resolveIdentity extracts a valid identity from the request, trying the
// X-API-Key header first, then Authorization: Bearer.
func (m *Middleware) resolveIdentity(r *http.Request) *Identity {
	key := r.Header.Get(constants.HeaderXAPIKey)
	if key == "" {
		if h := r.Header.Get(constants.HeaderAuthorization); strings.HasPrefix(h, constants.AuthBearerPrefix) {
			key = strings.TrimPrefix(h, constants.AuthBearerPrefix)
		}
	}
	if key == "" || !strings.HasPrefix(key, constants.APIKeyPrefix) {
		return nil
	}

	identity, err := m.store.Lookup(key)
	if err != nil {
		m.logger.Error("API key lookup failed: %v", err)
		return nil
	}
	return identity
}

// FromRequest returns the authenticated identity on the request, or nil.
func FromRequest(r *http.Request) *Identity {
	identity, _ := r.Context().Value(identityContextKey).(*Identity)
	return identity
}
