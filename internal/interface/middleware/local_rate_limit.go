package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/oksasatya/go-event-api/pkg/response"
)

const limiterIdleTTL = 15 * time.Minute

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// limiterStore holds one token bucket per key; idle buckets are swept on access.
type limiterStore struct {
	mu        sync.Mutex
	limiters  map[string]*limiterEntry
	every     rate.Limit
	burst     int
	lastSweep time.Time
}

func (s *limiterStore) get(key string, now time.Time) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()

	if now.Sub(s.lastSweep) > limiterIdleTTL {
		for k, e := range s.limiters {
			if now.Sub(e.lastSeen) > limiterIdleTTL {
				delete(s.limiters, k)
			}
		}
		s.lastSweep = now
	}

	if e, ok := s.limiters[key]; ok {
		e.lastSeen = now
		return e.limiter
	}
	l := rate.NewLimiter(s.every, s.burst)
	s.limiters[key] = &limiterEntry{limiter: l, lastSeen: now}
	return l
}

// LocalRateLimit is the single-process counterpart of RateLimit: a token bucket
// per key allowing max requests per window, refilled evenly. Used when no Redis
// is configured; limits are not shared across replicas.
func LocalRateLimit(max int, window time.Duration, keyFn KeyFunc, allow AllowFunc) gin.HandlerFunc {
	if max <= 0 || window <= 0 || keyFn == nil {
		return func(c *gin.Context) { c.Next() }
	}
	store := &limiterStore{
		limiters:  make(map[string]*limiterEntry),
		every:     rate.Every(window / time.Duration(max)),
		burst:     max,
		lastSweep: time.Now(),
	}
	retryAfter := strconv.Itoa(int((window/time.Duration(max) + time.Second - 1) / time.Second))

	return func(c *gin.Context) {
		if allow != nil && allow(c) {
			c.Next()
			return
		}
		if c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}
		l := store.get(keyFn(c), time.Now())
		c.Header("X-RateLimit-Limit", strconv.Itoa(max))
		if !l.Allow() {
			c.Header("X-RateLimit-Remaining", "0")
			c.Header("Retry-After", retryAfter)
			response.Abort(c, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		remaining := int(l.Tokens())
		if remaining < 0 {
			remaining = 0
		}
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
		c.Next()
	}
}
