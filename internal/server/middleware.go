package server

import (
	"fmt"
	"net/http"
	"runtime"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

const requestIDHeader = "X-Request-ID"

// RequestID tags each request with an id, reusing the caller's header when
// present.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader(requestIDHeader)
		if rid == "" {
			rid = uuid.NewString()
		}
		c.Set("request_id", rid)
		c.Header(requestIDHeader, rid)
		c.Next()
	}
}

func RequestLogger(logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		evt := logger.Info()
		if len(c.Errors) > 0 {
			evt = logger.Error().Str("error", c.Errors.String())
		} else if c.Writer.Status() >= http.StatusInternalServerError {
			evt = logger.Error()
		}
		evt.
			Str("request_id", c.GetString("request_id")).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Str("remote_ip", c.ClientIP()).
			Msg("request")
	}
}

func Recovery(logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				var stack [4096]byte
				n := runtime.Stack(stack[:], false)

				logger.Error().
					Str("request_id", c.GetString("request_id")).
					Str("panic", fmt.Sprintf("%v", r)).
					Str("stack", string(stack[:n])).
					Msg("panic recovered")

				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
			}
		}()
		c.Next()
	}
}

// limiterIdleTTL is how long a client's bucket survives without requests.
const limiterIdleTTL = 10 * time.Minute

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// clientLimiters holds one token bucket per client key and drops buckets
// that have been idle longer than ttl.
type clientLimiters struct {
	mu        sync.Mutex
	rps       rate.Limit
	burst     int
	ttl       time.Duration
	now       func() time.Time
	clients   map[string]*clientLimiter
	lastSweep time.Time
}

func newClientLimiters(rps float64, burst int, ttl time.Duration, now func() time.Time) *clientLimiters {
	return &clientLimiters{
		rps:       rate.Limit(rps),
		burst:     burst,
		ttl:       ttl,
		now:       now,
		clients:   make(map[string]*clientLimiter),
		lastSweep: now(),
	}
}

func (cl *clientLimiters) get(key string) *rate.Limiter {
	cl.mu.Lock()
	defer cl.mu.Unlock()

	now := cl.now()
	if now.Sub(cl.lastSweep) >= cl.ttl {
		for k, c := range cl.clients {
			if now.Sub(c.lastSeen) >= cl.ttl {
				delete(cl.clients, k)
			}
		}
		cl.lastSweep = now
	}

	c, ok := cl.clients[key]
	if !ok {
		c = &clientLimiter{limiter: rate.NewLimiter(cl.rps, cl.burst)}
		cl.clients[key] = c
	}
	c.lastSeen = now
	return c.limiter
}

func (cl *clientLimiters) size() int {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	return len(cl.clients)
}

// RateLimit throttles requests per client IP with a token bucket. A
// non-positive rps disables limiting.
func RateLimit(rps float64, burst int) gin.HandlerFunc {
	if rps <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	if burst < 1 {
		burst = 1
	}
	return rateLimit(newClientLimiters(rps, burst, limiterIdleTTL, time.Now), rps)
}

func rateLimit(limiters *clientLimiters, rps float64) gin.HandlerFunc {
	limit := strconv.FormatFloat(rps, 'f', -1, 64)
	return func(c *gin.Context) {
		l := limiters.get(c.ClientIP())
		c.Header("X-RateLimit-Limit", limit)

		r := l.Reserve()
		if delay := r.Delay(); delay > 0 {
			r.Cancel()
			retryAfter := int(delay/time.Second) + 1
			c.Header("Retry-After", strconv.Itoa(retryAfter))
			c.Header("X-RateLimit-Remaining", "0")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		c.Next()
	}
}
