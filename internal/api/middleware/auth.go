package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/brplates/controller/internal/api/response"
	"github.com/brplates/controller/internal/core"
	"github.com/brplates/controller/internal/model"
)

type contextKey string

const apiKeyContextKey contextKey = "api_key"

// Authorizer validates a presented API key secret and spends one unit of
// its call budget.
type Authorizer interface {
	Authorize(ctx context.Context, presentedSecret string) (*model.APIKey, error)
}

// Auth returns a middleware that validates the X-API-Key header and
// enforces the per-key call budget before any pipeline work happens.
// Every failure mode answers 401 with the same message.
func Auth(guard Authorizer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key, err := guard.Authorize(r.Context(), r.Header.Get("X-API-Key"))
			if err != nil {
				if errors.Is(err, core.ErrUnauthorized) {
					response.WriteError(w, http.StatusUnauthorized, "invalid API key")
					return
				}
				response.WriteError(w, http.StatusInternalServerError, "authorization unavailable")
				return
			}

			ctx := context.WithValue(r.Context(), apiKeyContextKey, key)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// APIKeyFromContext returns the authenticated key record, if any.
func APIKeyFromContext(ctx context.Context) (*model.APIKey, bool) {
	key, ok := ctx.Value(apiKeyContextKey).(*model.APIKey)
	return key, ok
}
