package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestIdentityMiddleware(t *testing.T) {
	mw := NewIdentityMiddleware("")
	userID := uuid.New()

	var seen uuid.UUID
	handler := mw.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, ok := GetUserID(r.Context())
		require.True(t, ok)
		seen = got
		w.WriteHeader(http.StatusOK)
	}))

	t.Run("ValidHeader", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/progress", nil)
		req.Header.Set(DefaultUserIDHeader, userID.String())
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, userID, seen)
	})

	t.Run("MissingHeader", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/progress", nil)
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Body.String(), "MISSING_USER_ID")
	})

	t.Run("MalformedHeader", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/progress", nil)
		req.Header.Set(DefaultUserIDHeader, "not-a-uuid")
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Body.String(), "INVALID_USER_ID")
	})

	t.Run("CustomHeaderName", func(t *testing.T) {
		custom := NewIdentityMiddleware("X-Client-ID").Handler(okHandler())

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Client-ID", uuid.NewString())
		rec := httptest.NewRecorder()

		custom.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

type fakeLimiter struct {
	count int
	limit int
	err   error
	keys  []string
}

func (f *fakeLimiter) CheckRateLimit(_ context.Context, key string, limit int) (bool, int, error) {
	if f.err != nil {
		return false, 0, f.err
	}
	f.keys = append(f.keys, key)
	f.count++
	return f.count <= limit, f.count, nil
}

func TestRateLimitMiddleware(t *testing.T) {
	t.Run("AllowsUnderLimit", func(t *testing.T) {
		limiter := &fakeLimiter{}
		handler := NewRateLimitMiddleware(limiter, 2, true).Handler(okHandler())

		for i := 0; i < 2; i++ {
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/analyses", nil))
			assert.Equal(t, http.StatusOK, rec.Code)
		}
	})

	t.Run("RejectsOverLimit", func(t *testing.T) {
		limiter := &fakeLimiter{count: 2}
		handler := NewRateLimitMiddleware(limiter, 2, true).Handler(okHandler())

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/analyses", nil))

		assert.Equal(t, http.StatusTooManyRequests, rec.Code)
		assert.Equal(t, "60", rec.Header().Get("Retry-After"))
	})

	t.Run("KeyedByUser", func(t *testing.T) {
		limiter := &fakeLimiter{}
		handler := NewRateLimitMiddleware(limiter, 10, true).Handler(okHandler())

		userID := uuid.New()
		req := httptest.NewRequest(http.MethodGet, "/api/v1/analyses", nil)
		req = req.WithContext(WithUserID(req.Context(), userID))
		handler.ServeHTTP(httptest.NewRecorder(), req)

		require.Len(t, limiter.keys, 1)
		assert.Equal(t, "user:"+userID.String(), limiter.keys[0])
	})

	t.Run("SkipsHealthEndpoints", func(t *testing.T) {
		limiter := &fakeLimiter{}
		handler := NewRateLimitMiddleware(limiter, 1, true).Handler(okHandler())

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, limiter.keys)
	})

	t.Run("FailsOpenOnBackendError", func(t *testing.T) {
		limiter := &fakeLimiter{err: errors.New("redis down")}
		handler := NewRateLimitMiddleware(limiter, 1, true).Handler(okHandler())

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/analyses", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("Disabled", func(t *testing.T) {
		limiter := &fakeLimiter{count: 100}
		handler := NewRateLimitMiddleware(limiter, 1, false).Handler(okHandler())

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/analyses", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestLoggingMiddleware_SetsRequestID(t *testing.T) {
	handler := NewLoggingMiddleware(zap.NewNop()).Handler(okHandler())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestLoggingMiddleware_KeepsProvidedRequestID(t *testing.T) {
	handler := NewLoggingMiddleware(zap.NewNop()).Handler(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "req-123")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, "req-123", rec.Header().Get("X-Request-ID"))
}

func TestRecoveryMiddleware(t *testing.T) {
	handler := NewRecoveryMiddleware(zap.NewNop()).Handler(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			panic("boom")
		}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
