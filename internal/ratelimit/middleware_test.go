package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/scootshop/checkout-api/internal/common"
)

func TestMiddlewareEnforcesLimit(t *testing.T) {
	srv := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	handler := Handler{
		Limiter: Limiter{Client: rdb, Prefix: "rl:"},
		Config: Config{
			Key:    func(r *http.Request) string { return "ip:" + common.ClientIP(r) },
			Window: time.Minute,
			Max:    2,
		},
	}
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	wrapped := handler.Middleware(next)

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		wrapped.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/orders", nil))
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec := httptest.NewRecorder()
	wrapped.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/orders", nil))
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	require.NotEmpty(t, rec.Header().Get("Retry-After"))
	require.Contains(t, rec.Body.String(), "RATE_LIMITED")
}

func TestMiddlewareFailsOpenOnStoreError(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})
	t.Cleanup(func() { _ = rdb.Close() })

	var sawErr bool
	handler := Handler{
		Limiter: Limiter{Client: rdb},
		Config: Config{
			Key:    func(*http.Request) string { return "ip:test" },
			Window: time.Minute,
			Max:    1,
		},
		OnError: func(error) { sawErr = true },
	}
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	handler.Middleware(next).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/orders", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, sawErr)
}
