package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimiter_RejectsOverBurst(t *testing.T) {
	rl := NewRateLimiter(LimiterConfig{RPS: 1, Burst: 2, IdleTTL: time.Minute})

	calls := 0
	handler := rl.Limit(ClientIP, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusCreated)
	})

	statuses := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/events/ev-1/bookings", nil)
		req.RemoteAddr = "10.0.0.7:52831"
		handler(rec, req)
		statuses = append(statuses, rec.Code)

		if rec.Code == http.StatusTooManyRequests {
			assert.Equal(t, "1", rec.Header().Get("Retry-After"))
			assert.Contains(t, rec.Body.String(), "too_many_requests")
		}
	}

	require.Equal(t, []int{http.StatusCreated, http.StatusCreated, http.StatusTooManyRequests}, statuses)
	assert.Equal(t, 2, calls, "the rejected request must not reach the handler")
}

func TestRateLimiter_KeysAreIndependent(t *testing.T) {
	rl := NewRateLimiter(LimiterConfig{RPS: 1, Burst: 1, IdleTTL: time.Minute})

	handler := rl.Limit(ClientIP, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	for _, addr := range []string{"10.0.0.1:1000", "10.0.0.2:1000"} {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/events/ev-1/bookings", nil)
		req.RemoteAddr = addr
		handler(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code, "first request from %s must pass", addr)
	}

	// The first address already spent its single token.
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/events/ev-1/bookings", nil)
	req.RemoteAddr = "10.0.0.1:1001"
	handler(rec, req)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		forwarded  string
		want       string
	}{
		{
			name:       "remote address without proxy",
			remoteAddr: "192.0.2.10:44321",
			want:       "192.0.2.10",
		},
		{
			name:       "x-forwarded-for wins over remote address",
			remoteAddr: "10.0.0.1:80",
			forwarded:  "203.0.113.5",
			want:       "203.0.113.5",
		},
		{
			name:       "first hop of a forwarded chain",
			remoteAddr: "10.0.0.1:80",
			forwarded:  "203.0.113.5, 198.51.100.2",
			want:       "203.0.113.5",
		},
		{
			name:       "unparseable remote address is used as-is",
			remoteAddr: "not-an-address",
			want:       "not-an-address",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/events", nil)
			req.RemoteAddr = tt.remoteAddr
			if tt.forwarded != "" {
				req.Header.Set("X-Forwarded-For", tt.forwarded)
			}
			assert.Equal(t, tt.want, ClientIP(req))
		})
	}
}
