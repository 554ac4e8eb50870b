package mw

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	cache "github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"
)

// clientKeyFn extracts the rate-limit key for a request. The default keys by
// client IP; deployments behind a proxy can key by a trusted header instead.
type clientKeyFn func(c *gin.Context) string

// ClientIPKey keys requests by gin's resolved client IP.
func ClientIPKey(c *gin.Context) string {
	return c.ClientIP()
}

// HeaderKey keys requests by the named header, falling back to the client IP
// when the header is absent.
func HeaderKey(name string) clientKeyFn {
	return func(c *gin.Context) string {
		if v := c.GetHeader(name); v != "" {
			return v
		}
		return c.ClientIP()
	}
}

// clientLimiters holds one token bucket per client. Idle clients expire so
// the set does not grow without bound.
type clientLimiters struct {
	store *cache.Cache
	r     rate.Limit
	b     int
}

func newClientLimiters(r rate.Limit, b int) *clientLimiters {
	return &clientLimiters{
		store: cache.New(10*time.Minute, 15*time.Minute),
		r:     r,
		b:     b,
	}
}

func (cl *clientLimiters) get(key string) *rate.Limiter {
	if v, found := cl.store.Get(key); found {
		return v.(*rate.Limiter)
	}
	limiter := rate.NewLimiter(cl.r, cl.b)
	cl.store.SetDefault(key, limiter)
	return limiter
}

// RateLimiter is a middleware that rejects requests exceeding the per-client
// rate with 429.
func RateLimiter(r rate.Limit, b int, keyFn clientKeyFn) gin.HandlerFunc {
	if keyFn == nil {
		keyFn = ClientIPKey
	}
	limiters := newClientLimiters(r, b)
	return func(c *gin.Context) {
		if !limiters.get(keyFn(c)).Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "rate limit exceeded",
			})
			return
		}
		c.Next()
	}
}
