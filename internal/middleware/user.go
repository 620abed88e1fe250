package middleware

import (
	"context"
	"net/http"

	"github.com/pkordes/claimtrack/internal/domain"
)

// Headers carrying the acting user. Authentication happens upstream; the API
// trusts whatever the gateway forwards.
const (
	HeaderUserID   = "X-User-ID"
	HeaderUserName = "X-User-Name"
)

type userKey struct{}

// NewUserContext returns a middleware that reads the acting user from the
// X-User-ID and X-User-Name headers into the request context. A missing
// name falls back to the ID. Requests without a user pass through unchanged.
func NewUserContext() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(HeaderUserID)
			if id == "" {
				next.ServeHTTP(w, r)
				return
			}
			name := r.Header.Get(HeaderUserName)
			if name == "" {
				name = id
			}
			u, err := domain.NewUser(id, name)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), u)))
		})
	}
}

// WithUser stores u in ctx.
func WithUser(ctx context.Context, u domain.User) context.Context {
	return context.WithValue(ctx, userKey{}, u)
}

// UserFromContext returns the acting user, if one was supplied.
func UserFromContext(ctx context.Context) (domain.User, bool) {
	u, ok := ctx.Value(userKey{}).(domain.User)
	return u, ok
}
