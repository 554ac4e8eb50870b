package mw

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	cache "github.com/patrickmn/go-cache"
	"github.com/stretchr/testify/assert"
	"golang.org/x/time/rate"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestRateLimiterRejectsBurstOverflow(t *testing.T) {
	r := gin.New()
	r.Use(RateLimiter(rate.Limit(1), 2, HeaderKey("X-Client")))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req, _ := http.NewRequest("GET", "/", nil)
		req.Header.Set("X-Client", "a")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)

	// A different client has its own bucket.
	req, _ := http.NewRequest("GET", "/", nil)
	req.Header.Set("X-Client", "b")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCacheServesSecondRequestFromStore(t *testing.T) {
	store := cache.New(time.Minute, time.Minute)
	hits := 0

	r := gin.New()
	r.GET("/", Cache(store, time.Minute), func(c *gin.Context) {
		hits++
		c.JSON(http.StatusOK, gin.H{"pending": 2})
	})

	for i := 0; i < 2; i++ {
		req, _ := http.NewRequest("GET", "/", nil)
		req.Header.Set("X-User-ID", "user-1")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"pending":2}`, w.Body.String())
		if i == 0 {
			assert.Equal(t, "MISS", w.Header().Get("X-Cache"))
		} else {
			assert.Equal(t, "HIT", w.Header().Get("X-Cache"))
		}
	}
	assert.Equal(t, 1, hits)

	// A different user misses and gets a fresh handler run.
	req, _ := http.NewRequest("GET", "/", nil)
	req.Header.Set("X-User-ID", "user-2")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, 2, hits)
}

func TestInvalidateFlushesUserEntries(t *testing.T) {
	store := cache.New(time.Minute, time.Minute)
	r := gin.New()
	r.GET("/pending", Cache(store, time.Minute), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	r.POST("/doses", Invalidate(store), func(c *gin.Context) {
		c.Status(http.StatusCreated)
	})

	get := func() string {
		req, _ := http.NewRequest("GET", "/pending", nil)
		req.Header.Set("X-User-ID", "user-1")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Header().Get("X-Cache")
	}

	assert.Equal(t, "MISS", get())
	assert.Equal(t, "HIT", get())

	req, _ := http.NewRequest("POST", "/doses", nil)
	req.Header.Set("X-User-ID", "user-1")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusCreated, w.Code)

	assert.Equal(t, "MISS", get())
}
