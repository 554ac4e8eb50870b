package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/daniel-odulate22/vigil-scan/internal/scanner"
)

// PostScannerOpen opens a scanner session, requesting camera permission if
// needed. The resulting state is returned whether or not the session started.
func (h *Handler) PostScannerOpen(c *gin.Context) {
	err := h.scan.Open(c.Request.Context())
	state := h.scan.State()
	if err != nil {
		status := http.StatusConflict
		if errors.Is(err, scanner.ErrPermissionDenied) {
			status = http.StatusForbidden
		}
		c.JSON(status, gin.H{"error": err.Error(), "state": state})
		return
	}
	c.JSON(http.StatusOK, gin.H{"state": state})
}

// PostScannerClose tears down the scanner session and releases the camera.
func (h *Handler) PostScannerClose(c *gin.Context) {
	h.scan.Stop(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"state": h.scan.State()})
}

// PostScannerRetry re-attempts a failed start with backoff.
func (h *Handler) PostScannerRetry(c *gin.Context) {
	err := h.scan.Retry(c.Request.Context())
	state := h.scan.State()
	if err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "state": state})
		return
	}
	c.JSON(http.StatusOK, gin.H{"state": state})
}

// PostScannerTorch toggles the torch. Unsupported devices make this a no-op.
func (h *Handler) PostScannerTorch(c *gin.Context) {
	h.scan.ToggleTorch()
	c.JSON(http.StatusOK, gin.H{"state": h.scan.State()})
}

// GetScannerState returns the current scanner snapshot.
func (h *Handler) GetScannerState(c *gin.Context) {
	c.JSON(http.StatusOK, h.scan.State())
}

// GetScannerDiagnostics returns device info, track settings and the recent
// error ring for support escalations.
func (h *Handler) GetScannerDiagnostics(c *gin.Context) {
	c.JSON(http.StatusOK, h.scan.Diagnostics())
}
