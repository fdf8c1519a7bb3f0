package httpapi

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"mapdata-api/pkg/logger"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// RateLimitConfig is a token bucket: RequestsPerWindow spread over Window,
// with Burst available up front.
type RateLimitConfig struct {
	RequestsPerWindow int
	Window            time.Duration
	Burst             int
}

// TokenEndpointLimit throttles token issuing and refresh per client IP.
var TokenEndpointLimit = RateLimitConfig{RequestsPerWindow: 10, Window: time.Minute, Burst: 10}

type limiterSet struct {
	limiters    sync.Map // key -> *rate.Limiter
	rate        rate.Limit
	burst       int
	mu          sync.Mutex
	lastCleanup time.Time
}

func (s *limiterSet) get(key string) *rate.Limiter {
	if l, ok := s.limiters.Load(key); ok {
		return l.(*rate.Limiter)
	}
	actual, _ := s.limiters.LoadOrStore(key, rate.NewLimiter(s.rate, s.burst))
	s.maybeCleanup()
	return actual.(*rate.Limiter)
}

// maybeCleanup drops limiters whose bucket has refilled, at most every 5 minutes.
func (s *limiterSet) maybeCleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if time.Since(s.lastCleanup) < 5*time.Minute {
		return
	}
	s.lastCleanup = time.Now()
	s.limiters.Range(func(k, v any) bool {
		if v.(*rate.Limiter).Tokens() >= float64(s.burst) {
			s.limiters.Delete(k)
		}
		return true
	})
}

// RateLimit rejects callers over cfg with 429, keyed by client IP.
func RateLimit(cfg RateLimitConfig) gin.HandlerFunc {
	set := &limiterSet{
		rate:        rate.Limit(float64(cfg.RequestsPerWindow) / cfg.Window.Seconds()),
		burst:       cfg.Burst,
		lastCleanup: time.Now(),
	}
	return func(c *gin.Context) {
		key := c.ClientIP()
		if key == "" {
			c.Next()
			return
		}
		lim := set.get(key)
		if lim.Allow() {
			c.Next()
			return
		}

		r := lim.Reserve()
		retryAfter := max(int(r.Delay().Seconds()), 1)
		r.Cancel()

		logger.FromGin(c).Warn("rate limit exceeded", "key", key, "path", c.Request.URL.Path, "retry_after", retryAfter)
		c.Header("Retry-After", strconv.Itoa(retryAfter))
		c.Header("X-RateLimit-Limit", strconv.Itoa(cfg.RequestsPerWindow))
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
	}
}
