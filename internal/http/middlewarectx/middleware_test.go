package middlewarectx_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/magabrotheeeer/script-access/internal/http/middlewarectx"
	"github.com/magabrotheeeer/script-access/internal/lib/jwt"
	"github.com/magabrotheeeer/script-access/internal/lib/origin"
	"github.com/magabrotheeeer/script-access/internal/models"
	"github.com/magabrotheeeer/script-access/internal/ratelimit"
)

const userUID = "6f1c2a3b-0d4e-4f5a-8b9c-1d2e3f4a5b6c"

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

// captureUser отвечает 200 и запоминает пользователя из контекста.
func captureUser(got **models.User) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*got = middlewarectx.UserFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
}

func TestOptionalAuth(t *testing.T) {
	maker := jwt.NewJWTMaker("secret", time.Hour)
	token, err := maker.GenerateToken(userUID, "reader@example.com")
	require.NoError(t, err)
	auth := middlewarectx.NewAuthenticator(maker, "session", newNoopLogger())

	tests := []struct {
		name     string
		prepare  func(r *http.Request)
		wantUser bool
	}{
		{name: "no credentials", prepare: func(*http.Request) {}, wantUser: false},
		{name: "bearer header", prepare: func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token) }, wantUser: true},
		{name: "lowercase scheme", prepare: func(r *http.Request) { r.Header.Set("Authorization", "bearer "+token) }, wantUser: true},
		{name: "session cookie", prepare: func(r *http.Request) { r.AddCookie(&http.Cookie{Name: "session", Value: token}) }, wantUser: true},
		{name: "garbage token", prepare: func(r *http.Request) { r.Header.Set("Authorization", "Bearer nope") }, wantUser: false},
		{name: "basic scheme", prepare: func(r *http.Request) { r.Header.Set("Authorization", "Basic "+token) }, wantUser: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got *models.User
			req := httptest.NewRequest(http.MethodPost, "/", nil)
			tt.prepare(req)
			rr := httptest.NewRecorder()

			auth.OptionalAuth(captureUser(&got)).ServeHTTP(rr, req)

			assert.Equal(t, http.StatusOK, rr.Code)
			if tt.wantUser {
				require.NotNil(t, got)
				assert.Equal(t, userUID, got.UUID)
				assert.Equal(t, "reader@example.com", got.Email)
			} else {
				assert.Nil(t, got)
			}
		})
	}
}

func TestRequireAuth(t *testing.T) {
	maker := jwt.NewJWTMaker("secret", time.Hour)
	token, err := maker.GenerateToken(userUID, "reader@example.com")
	require.NoError(t, err)
	expired, err := jwt.NewJWTMaker("secret", -time.Minute).GenerateToken(userUID, "reader@example.com")
	require.NoError(t, err)
	auth := middlewarectx.NewAuthenticator(maker, "session", newNoopLogger())

	tests := []struct {
		name       string
		header     string
		wantStatus int
	}{
		{name: "valid", header: "Bearer " + token, wantStatus: http.StatusOK},
		{name: "missing", header: "", wantStatus: http.StatusUnauthorized},
		{name: "expired", header: "Bearer " + expired, wantStatus: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got *models.User
			req := httptest.NewRequest(http.MethodPost, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rr := httptest.NewRecorder()

			auth.RequireAuth(captureUser(&got)).ServeHTTP(rr, req)

			assert.Equal(t, tt.wantStatus, rr.Code)
			if tt.wantStatus == http.StatusOK {
				require.NotNil(t, got)
				assert.Equal(t, userUID, got.UUID)
			} else {
				assert.JSONEq(t, `{"status":"Error","error":"unauthorized"}`, rr.Body.String())
			}
		})
	}
}

func TestOriginGuard(t *testing.T) {
	guard, err := origin.New("https://scripts.example")
	require.NoError(t, err)
	called := false
	h := middlewarectx.OriginGuard(guard, newNoopLogger())(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		name       string
		origin     string
		referer    string
		wantStatus int
	}{
		{name: "matching origin", origin: "https://scripts.example", wantStatus: http.StatusOK},
		{name: "matching referer", referer: "https://scripts.example/works/1", wantStatus: http.StatusOK},
		{name: "foreign origin", origin: "https://evil.example", referer: "https://scripts.example/", wantStatus: http.StatusForbidden},
		{name: "no headers", wantStatus: http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called = false
			req := httptest.NewRequest(http.MethodPost, "/", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			if tt.referer != "" {
				req.Header.Set("Referer", tt.referer)
			}
			rr := httptest.NewRecorder()

			h.ServeHTTP(rr, req)

			assert.Equal(t, tt.wantStatus, rr.Code)
			assert.Equal(t, tt.wantStatus == http.StatusOK, called)
		})
	}
}

type fixedClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fixedClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestRateLimit_PerKeyWindow(t *testing.T) {
	clock := &fixedClock{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	limiter := ratelimit.New(ratelimit.NewMemoryStore(), ratelimit.WithClock(clock.Now))
	rule := middlewarectx.LimitRule{
		Name:   "check-access",
		Window: time.Minute,
		Max:    2,
		Key:    middlewarectx.ByUserOrIP("check-access"),
	}
	h := middlewarectx.RateLimit(limiter, rule, newNoopLogger())(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	send := func(remoteAddr string, user *models.User) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req.RemoteAddr = remoteAddr
		if user != nil {
			req = req.WithContext(middlewarectx.WithUser(req.Context(), user))
		}
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		return rr
	}

	assert.Equal(t, http.StatusOK, send("10.0.0.1:1000", nil).Code)
	assert.Equal(t, http.StatusOK, send("10.0.0.1:1001", nil).Code)

	clock.Advance(20 * time.Second)
	rr := send("10.0.0.1:1002", nil)
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Equal(t, "40", rr.Header().Get("Retry-After"))
	assert.Equal(t, "0", rr.Header().Get("X-RateLimit-Remaining"))

	// другой IP и пользователь считаются отдельно
	assert.Equal(t, http.StatusOK, send("10.0.0.2:1000", nil).Code)
	assert.Equal(t, http.StatusOK, send("10.0.0.1:1003", &models.User{UUID: userUID}).Code)

	clock.Advance(40 * time.Second)
	assert.Equal(t, http.StatusOK, send("10.0.0.1:1004", nil).Code)
}

type brokenStore struct{}

func (brokenStore) Incr(context.Context, string, time.Time, time.Duration) (ratelimit.Bucket, error) {
	return ratelimit.Bucket{}, errors.New("redis: connection refused")
}

func TestRateLimit_StoreErrorAllowsRequest(t *testing.T) {
	limiter := ratelimit.New(brokenStore{})
	rule := middlewarectx.LimitRule{Name: "free-slot", Window: time.Minute, Max: 1, Key: middlewarectx.ByUserOrIP("free-slot")}
	h := middlewarectx.RateLimit(limiter, rule, newNoopLogger())(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestRetryAfterSeconds(t *testing.T) {
	assert.Equal(t, 1, middlewarectx.RetryAfterSeconds(0))
	assert.Equal(t, 1, middlewarectx.RetryAfterSeconds(200*time.Millisecond))
	assert.Equal(t, 2, middlewarectx.RetryAfterSeconds(1500*time.Millisecond))
	assert.Equal(t, 60, middlewarectx.RetryAfterSeconds(time.Minute))
}

func TestGlobalRateLimit(t *testing.T) {
	h := middlewarectx.GlobalRateLimit(rate.NewLimiter(rate.Every(time.Hour), 2), newNoopLogger())(
		http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))

	codes := make([]int, 0, 3)
	for range 3 {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/", nil))
		codes = append(codes, rr.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}
