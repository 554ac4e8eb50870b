package api

import (
	"time"

	"github.com/gin-gonic/gin"
	cache "github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"github.com/daniel-odulate22/vigil-scan/config"
	"github.com/daniel-odulate22/vigil-scan/internal/mw"
)

// NewRouter creates and configures a new Gin router.
func NewRouter(h *Handler, hub *Hub, cfg *config.ServerConfig) *gin.Engine {
	r := gin.Default()

	limit := 10.0
	cacheTTL := 30 * time.Second
	keyFn := mw.ClientIPKey
	if cfg != nil {
		limit = cfg.RateLimitPerSec
		cacheTTL = time.Duration(cfg.CacheTTLSeconds) * time.Second
		if cfg.RequestIPHeader != "" {
			keyFn = mw.HeaderKey(cfg.RequestIPHeader)
		}
	}
	rateLimiter := mw.RateLimiter(rate.Limit(limit), 5, keyFn)

	// Pending counts go stale fast, so the cache window is short.
	cacheStore := cache.New(cacheTTL, 2*cacheTTL)
	caching := mw.Cache(cacheStore, cacheTTL)
	invalidate := mw.Invalidate(cacheStore)

	api := r.Group("/api")
	api.Use(rateLimiter)
	{
		api.POST("/doses", invalidate, h.PostDose)
		api.GET("/doses/pending", caching, GetPendingDoses(h.db))

		api.POST("/sync", invalidate, h.PostSync)
		api.GET("/sync/status", h.GetSyncStatus)

		scannerGroup := api.Group("/scanner")
		{
			scannerGroup.POST("/open", h.PostScannerOpen)
			scannerGroup.POST("/close", h.PostScannerClose)
			scannerGroup.POST("/retry", h.PostScannerRetry)
			scannerGroup.POST("/torch", h.PostScannerTorch)
			scannerGroup.GET("/state", h.GetScannerState)
			scannerGroup.GET("/diagnostics", h.GetScannerDiagnostics)
		}

		api.GET("/medications/:code", caching, h.GetMedication)
		api.GET("/interactions", h.GetInteractions)

		api.GET("/reminders", h.GetReminders)
		api.POST("/reminders", h.PostReminder)
		api.PUT("/reminders/:id", h.PutReminder)
		api.DELETE("/reminders/:id", h.DeleteReminder)

		api.GET("/subscriptions", h.GetSubscription)
		api.PUT("/subscriptions", h.PutSubscription)
		api.DELETE("/subscriptions", h.DeleteSubscription)
		api.GET("/vapid_public_key", h.GetVAPIDPublicKey)
	}

	if hub != nil {
		r.GET("/api/events", ServeEvents(hub))
	}

	return r
}
