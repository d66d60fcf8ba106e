package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/ecoguard/ecoguard/pkg/httputil"
)

type contextKey string

const userIDKey contextKey = "user_id"

// DefaultUserIDHeader carries the caller's identity. The service trusts the
// gateway in front of it to have authenticated the user.
const DefaultUserIDHeader = "X-User-ID"

// IdentityMiddleware extracts the user ID from a request header and stores
// it in the request context.
type IdentityMiddleware struct {
	header string
}

// NewIdentityMiddleware creates an identity middleware. An empty header name
// falls back to DefaultUserIDHeader.
func NewIdentityMiddleware(header string) *IdentityMiddleware {
	if header == "" {
		header = DefaultUserIDHeader
	}
	return &IdentityMiddleware{header: header}
}

// Handler returns the middleware handler
func (m *IdentityMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := r.Header.Get(m.header)
		if raw == "" {
			httputil.JSONError(w, http.StatusUnauthorized, "MISSING_USER_ID",
				"missing "+m.header+" header", nil)
			return
		}

		userID, err := uuid.Parse(raw)
		if err != nil {
			httputil.JSONError(w, http.StatusUnauthorized, "INVALID_USER_ID",
				"invalid "+m.header+" header", nil)
			return
		}

		ctx := context.WithValue(r.Context(), userIDKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetUserID retrieves the user ID from the request context
func GetUserID(ctx context.Context) (uuid.UUID, bool) {
	userID, ok := ctx.Value(userIDKey).(uuid.UUID)
	return userID, ok
}

// WithUserID returns a context carrying the given user ID. Used by tests and
// internal callers that bypass the HTTP middleware.
func WithUserID(ctx context.Context, userID uuid.UUID) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}
