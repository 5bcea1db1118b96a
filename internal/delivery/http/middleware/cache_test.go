package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) *Cache {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewCache(rdb, 30*time.Second)
}

func TestCache_MissThenHit(t *testing.T) {
	cache := newTestCache(t)

	calls := 0
	handler := cache.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"data":[],"error":null}`))
	}))

	first := httptest.NewRecorder()
	handler.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/events?page=1", nil))

	require.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, "MISS", first.Header().Get("X-Cache"))
	assert.Equal(t, 1, calls)

	second := httptest.NewRecorder()
	handler.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/events?page=1", nil))

	require.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, "HIT", second.Header().Get("X-Cache"))
	assert.Equal(t, "application/json", second.Header().Get("Content-Type"))
	assert.Equal(t, first.Body.String(), second.Body.String())
	assert.Equal(t, 1, calls, "hit must be served without invoking the handler")
}

func TestCache_DistinctQueriesGetDistinctEntries(t *testing.T) {
	cache := newTestCache(t)

	handler := cache.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(r.URL.RawQuery))
	}))

	for _, query := range []string{"page=1", "page=2"} {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/events?"+query, nil))
		assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))
		assert.Equal(t, query, rec.Body.String())
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/events?page=2", nil))
	assert.Equal(t, "HIT", rec.Header().Get("X-Cache"))
	assert.Equal(t, "page=2", rec.Body.String())
}

func TestCache_SkipsUncacheableRequests(t *testing.T) {
	tests := []struct {
		name   string
		method string
		target string
	}{
		{name: "mutations are never cached", method: http.MethodPost, target: "/events"},
		{name: "booking sub-resource is never cached", method: http.MethodGet, target: "/events/ev-1/bookings"},
		{name: "unrelated paths are never cached", method: http.MethodGet, target: "/healthz"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cache := newTestCache(t)

			calls := 0
			handler := cache.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls++
				w.WriteHeader(http.StatusOK)
			}))

			for i := 0; i < 2; i++ {
				rec := httptest.NewRecorder()
				handler.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.target, nil))
				assert.Empty(t, rec.Header().Get("X-Cache"))
			}
			assert.Equal(t, 2, calls)
		})
	}
}

func TestCache_OnlyStoresSuccessfulResponses(t *testing.T) {
	cache := newTestCache(t)

	calls := 0
	handler := cache.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"data":null,"error":{"code":"not_found","message":"event not found"}}`))
	}))

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/events/no-such-event", nil))
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))
	}
	assert.Equal(t, 2, calls, "a 404 must not be served from cache")
}

func TestCache_InvalidateEventsDropsListsAndItems(t *testing.T) {
	cache := newTestCache(t)

	calls := 0
	handler := cache.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}))

	// Prime one list entry and one item entry.
	for _, target := range []string{"/events", "/events/go-conf-2026"} {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
		require.Equal(t, "MISS", rec.Header().Get("X-Cache"))
	}
	require.Equal(t, 2, calls)

	cache.InvalidateEvents(context.Background())

	for _, target := range []string{"/events", "/events/go-conf-2026"} {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
		assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))
	}
	assert.Equal(t, 4, calls, "invalidated entries must be rebuilt")
}
