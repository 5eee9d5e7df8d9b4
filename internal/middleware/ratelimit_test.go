package middleware

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newLimitedHandler(t *testing.T, mr *miniredis.Miniredis, limit int) http.Handler {
	t.Helper()
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	limiter := RateLimitMiddleware(client, RateLimitConfig{
		RequestsPerWindow: limit,
		Window:            time.Minute,
		KeyPrefix:         "test:ratelimit",
	}, zap.NewNop())

	return SessionMiddleware(limiter(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})))
}

func limitedRequest(remoteAddr, sessionID string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/cart", nil)
	req.RemoteAddr = remoteAddr
	if sessionID != "" {
		req.Header.Set(SessionHeader, sessionID)
	}
	return req
}

// Property: within one window exactly the limit is served and the excess gets 429
func TestProperty_RateLimitingBlocksExcessiveRequests(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("excess requests are rejected", prop.ForAll(
		func(limit int, excess int) bool {
			mr, err := miniredis.Run()
			if err != nil {
				t.Fatalf("Failed to start miniredis: %v", err)
			}
			defer mr.Close()
			handler := newLimitedHandler(t, mr, limit)

			served, blocked := 0, 0
			for i := 0; i < limit+excess; i++ {
				w := httptest.NewRecorder()
				handler.ServeHTTP(w, limitedRequest("192.168.1.100:40000", ""))
				switch w.Code {
				case http.StatusOK:
					served++
				case http.StatusTooManyRequests:
					blocked++
				}
			}

			if served != limit || blocked != excess {
				t.Logf("FAIL: limit %d excess %d served %d blocked %d", limit, excess, served, blocked)
				return false
			}
			return true
		},
		gen.IntRange(1, 20),
		gen.IntRange(1, 10),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestRateLimit_HeadersCountDown(t *testing.T) {
	mr := miniredis.RunT(t)
	handler := newLimitedHandler(t, mr, 3)

	for want := 2; want >= 0; want-- {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, limitedRequest("10.0.0.1:1234", ""))
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "3", w.Header().Get("X-RateLimit-Limit"))
		assert.Equal(t, strconv.Itoa(want), w.Header().Get("X-RateLimit-Remaining"))
	}

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, limitedRequest("10.0.0.1:1234", ""))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
	assert.Equal(t, "60", w.Header().Get("Retry-After"))
}

func TestRateLimit_WindowExpires(t *testing.T) {
	mr := miniredis.RunT(t)
	handler := newLimitedHandler(t, mr, 1)

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, limitedRequest("10.0.0.1:1234", ""))
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, limitedRequest("10.0.0.1:1234", ""))
	require.Equal(t, http.StatusTooManyRequests, w.Code)

	mr.FastForward(time.Minute + time.Second)

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, limitedRequest("10.0.0.1:1234", ""))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRateLimit_KeyedBySessionThenHost(t *testing.T) {
	mr := miniredis.RunT(t)
	handler := newLimitedHandler(t, mr, 1)

	// Different ports of one host share a window
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, limitedRequest("10.0.0.2:1000", ""))
	require.Equal(t, http.StatusOK, w.Code)
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, limitedRequest("10.0.0.2:2000", ""))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	// Sessions behind the same host are counted separately
	for _, session := range []string{"alpha", "beta"} {
		w = httptest.NewRecorder()
		handler.ServeHTTP(w, limitedRequest("10.0.0.2:3000", session))
		assert.Equal(t, http.StatusOK, w.Code, session)
	}
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, limitedRequest("10.0.0.2:3000", "alpha"))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	assert.True(t, mr.Exists("test:ratelimit:session:alpha"))
	assert.True(t, mr.Exists("test:ratelimit:addr:10.0.0.2"))
}

func TestRateLimit_FailsOpenWithoutRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	handler := newLimitedHandler(t, mr, 1)
	mr.Close()

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, limitedRequest("10.0.0.3:1234", ""))
		assert.Equal(t, http.StatusOK, w.Code)
	}
}
