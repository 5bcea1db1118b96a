package middleware

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/gob"
	"encoding/hex"
	"net/http"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache key namespaces. Lists and items are invalidated together but scanned
// by prefix, so a mutation can drop one without touching unrelated keys.
const (
	eventListPrefix = "cache:events:list:"
	eventItemPrefix = "cache:events:item:"
)

// cachedResponse is the gob-encoded value stored per cache key.
type cachedResponse struct {
	Status int
	Header map[string][]string
	Body   []byte
}

func sha1Hex(s string) string {
	sum := sha1.Sum([]byte(s))
	return hex.EncodeToString(sum[:])
}

// Cache serves repeated public event reads from Redis. Only GET /events and
// GET /events/{slug} are cached; authenticated sub-resources never are.
type Cache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewCache returns a response cache backed by rdb with the given entry TTL.
func NewCache(rdb *redis.Client, ttl time.Duration) *Cache {
	return &Cache{rdb: rdb, ttl: ttl}
}

// keyFor returns the Redis key for the request, or "" when the request must
// not be served from cache.
func (c *Cache) keyFor(r *http.Request) string {
	if r.Method != http.MethodGet {
		return ""
	}
	path := r.URL.Path
	if path == "/events" {
		return eventListPrefix + sha1Hex("GET|/events|"+r.URL.RawQuery)
	}
	if rest, ok := strings.CutPrefix(path, "/events/"); ok && rest != "" && !strings.Contains(rest, "/") {
		return eventItemPrefix + sha1Hex("GET|"+path)
	}
	return ""
}

// Middleware replays a cached response when one exists and otherwise records
// the downstream response, storing it when the status is 2xx. Hits carry
// X-Cache: HIT, recorded misses X-Cache: MISS.
func (c *Cache) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := c.keyFor(r)
		if key == "" {
			next.ServeHTTP(w, r)
			return
		}

		if b, err := c.rdb.Get(r.Context(), key).Bytes(); err == nil && len(b) > 0 {
			var hit cachedResponse
			if err := gob.NewDecoder(bytes.NewReader(b)).Decode(&hit); err == nil {
				for k, vals := range hit.Header {
					for _, v := range vals {
						w.Header().Add(k, v)
					}
				}
				w.Header().Set("X-Cache", "HIT")
				w.WriteHeader(hit.Status)
				_, _ = w.Write(hit.Body)
				return
			}
		}

		rec := &recordingWriter{ResponseWriter: w, status: http.StatusOK}
		rec.Header().Set("X-Cache", "MISS")
		next.ServeHTTP(rec, r)

		if rec.status >= 200 && rec.status < 300 {
			item := cachedResponse{
				Status: rec.status,
				Header: cacheableHeader(rec.Header()),
				Body:   rec.buf.Bytes(),
			}
			var out bytes.Buffer
			if err := gob.NewEncoder(&out).Encode(item); err == nil {
				_ = c.rdb.Set(r.Context(), key, out.Bytes(), c.ttl).Err()
			}
		}
	})
}

// InvalidateEvents drops every cached events response. Called after an event
// mutation so stale lists and items never outlive a write. Redis errors are
// ignored; the worst case is an entry surviving until its TTL.
func (c *Cache) InvalidateEvents(ctx context.Context) {
	for _, prefix := range []string{eventListPrefix, eventItemPrefix} {
		iter := c.rdb.Scan(ctx, 0, prefix+"*", 100).Iterator()
		for iter.Next(ctx) {
			_ = c.rdb.Del(ctx, iter.Val()).Err()
		}
	}
}

// cacheableHeader copies headers worth replaying, leaving out X-Cache so a
// replay can mark itself as a hit.
func cacheableHeader(h http.Header) map[string][]string {
	out := make(map[string][]string, len(h))
	for k, vals := range h {
		if k == "X-Cache" {
			continue
		}
		out[k] = append([]string(nil), vals...)
	}
	return out
}

// recordingWriter passes the response through while keeping a copy of the
// status and body for the cache.
type recordingWriter struct {
	http.ResponseWriter
	status int
	buf    bytes.Buffer
}

func (w *recordingWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *recordingWriter) Write(b []byte) (int, error) {
	w.buf.Write(b)
	return w.ResponseWriter.Write(b)
}
