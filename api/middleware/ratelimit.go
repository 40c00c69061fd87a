package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/Maclenn77/ticha/config"
	"github.com/Maclenn77/ticha/models"
)

// clientLimiters hands out one token bucket per caller and forgets buckets
// that have been idle for an hour.
type clientLimiters struct {
	mu      sync.Mutex
	cfg     config.RateLimitConfig
	buckets map[string]*clientBucket
}

type clientBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func newClientLimiters(cfg config.RateLimitConfig) *clientLimiters {
	cl := &clientLimiters{cfg: cfg, buckets: make(map[string]*clientBucket)}
	go cl.sweep()
	return cl
}

func (cl *clientLimiters) get(id string) *rate.Limiter {
	cl.mu.Lock()
	defer cl.mu.Unlock()

	b, ok := cl.buckets[id]
	if !ok {
		b = &clientBucket{
			limiter: rate.NewLimiter(rate.Limit(cl.cfg.RequestsPerSecond), cl.cfg.Burst),
		}
		cl.buckets[id] = b
	}
	b.lastSeen = time.Now()
	return b.limiter
}

// sweep drops idle buckets so one-off clients do not accumulate forever.
func (cl *clientLimiters) sweep() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		cutoff := time.Now().Add(-time.Hour)
		cl.mu.Lock()
		for id, b := range cl.buckets {
			if b.lastSeen.Before(cutoff) {
				delete(cl.buckets, id)
			}
		}
		cl.mu.Unlock()
	}
}

// RateLimit returns per-client rate limiting middleware. Authenticated
// callers are bucketed by API key, anonymous ones by client IP.
func RateLimit(cfg config.RateLimitConfig) gin.HandlerFunc {
	cl := newClientLimiters(cfg)

	return func(c *gin.Context) {
		id := c.GetString("api_key")
		if id == "" {
			id = c.ClientIP()
		}

		if !cl.get(id).Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, models.ScrapeAPIResponse{
				Success: false,
				Error: &models.ErrorDetail{
					Code:    models.ErrCodeRateLimited,
					Message: "rate limit exceeded, slow down",
				},
			})
			return
		}
		c.Next()
	}
}
