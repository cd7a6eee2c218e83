package httpmiddleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// RateLimiter enforces a per-client request budget with continuous refill.
// State is in-memory; swap for a redis limiter when running replicas.
type RateLimiter struct {
	mu      sync.Mutex
	perMin  float64
	burst   float64
	clients map[string]*clientState
}

type clientState struct {
	tokens float64
	seen   time.Time
}

// NewRateLimiter allows perMinute requests per client IP, with bursts up
// to the same size.
func NewRateLimiter(perMinute int) *RateLimiter {
	if perMinute <= 0 {
		perMinute = 60
	}
	return &RateLimiter{
		perMin:  float64(perMinute),
		burst:   float64(perMinute),
		clients: make(map[string]*clientState),
	}
}

// Middleware returns a gin handler enforcing the per-IP limit.
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.allow(c.ClientIP()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		c.Next()
	}
}

func (rl *RateLimiter) allow(key string) bool {
	if key == "" {
		key = "unknown"
	}
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	st, ok := rl.clients[key]
	if !ok {
		st = &clientState{tokens: rl.burst, seen: now}
		rl.clients[key] = st
	}
	st.tokens += now.Sub(st.seen).Minutes() * rl.perMin
	if st.tokens > rl.burst {
		st.tokens = rl.burst
	}
	st.seen = now

	if st.tokens < 1 {
		return false
	}
	st.tokens--
	return true
}
