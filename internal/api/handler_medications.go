package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/daniel-odulate22/vigil-scan/internal/barcode"
	"github.com/daniel-odulate22/vigil-scan/internal/drugdb"
)

// GetMedication resolves a barcode value to a medication record.
func (h *Handler) GetMedication(c *gin.Context) {
	scanned, err := barcode.Parse(c.Param("code"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	med, err := h.drugs.Lookup(c.Request.Context(), scanned.Normalized)
	if errors.Is(err, drugdb.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "medication not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "drug database unavailable"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"format":     scanned.Format,
		"medication": med,
	})
}

// GetInteractions checks a comma-separated list of medication names against
// the interaction database.
func (h *Handler) GetInteractions(c *gin.Context) {
	raw := c.Query("drugs")
	if raw == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "drugs is required"})
		return
	}

	var names []string
	for _, n := range strings.Split(raw, ",") {
		if n = strings.TrimSpace(n); n != "" {
			names = append(names, n)
		}
	}

	interactions, err := h.drugs.CheckInteractions(c.Request.Context(), names)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "drug database unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"interactions": interactions})
}
