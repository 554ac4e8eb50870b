package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// PostSync triggers an immediate drain of the pending-dose queue.
func (h *Handler) PostSync(c *gin.Context) {
	res := h.sync.SyncNow(c.Request.Context())
	if h.events != nil {
		h.events.PublishSyncResult(res)
	}
	c.JSON(http.StatusOK, res)
}

// GetSyncStatus reports connectivity and the size of the pending queue.
func (h *Handler) GetSyncStatus(c *gin.Context) {
	count, err := h.sync.PendingCount(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to count pending doses"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"online":  h.conn.Current(),
		"pending": count,
	})
}
