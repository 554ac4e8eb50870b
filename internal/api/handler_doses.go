package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/daniel-odulate22/vigil-scan/internal/dose"
	"github.com/daniel-odulate22/vigil-scan/internal/model"
	"github.com/daniel-odulate22/vigil-scan/internal/queue"
)

type confirmDoseRequest struct {
	Code           string  `json:"code"`
	MedicationName string  `json:"medicationName"`
	TakenAt        string  `json:"takenAt"`
	PrescriptionID *string `json:"prescriptionId"`
	Notes          *string `json:"notes"`
}

// PostDose handles the confirmation of a taken dose, by barcode or manual
// entry.
func (h *Handler) PostDose(c *gin.Context) {
	userID := c.GetHeader("X-User-ID")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "X-User-ID header is required"})
		return
	}

	var req confirmDoseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	takenAt := time.Now().UTC()
	if req.TakenAt != "" {
		parsed, err := time.Parse(time.RFC3339, req.TakenAt)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "takenAt must be RFC 3339"})
			return
		}
		takenAt = parsed
	}

	outcome, err := h.doses.Confirm(c.Request.Context(), dose.ConfirmRequest{
		UserID:         userID,
		Code:           req.Code,
		MedicationName: req.MedicationName,
		TakenAt:        takenAt,
		PrescriptionID: req.PrescriptionID,
		Notes:          req.Notes,
	})
	if err != nil {
		var storageErr *queue.StorageError
		if errors.As(err, &storageErr) {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to queue dose"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, outcome)
}

// GetPendingDoses returns the caller's queued doses, oldest first.
func GetPendingDoses(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetHeader("X-User-ID")
		if userID == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "X-User-ID header is required"})
			return
		}

		var doses []model.PendingDose
		err := db.Where("user_id = ?", userID).
			Order("created_at asc").
			Find(&doses).Error
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve pending doses"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"doses": doses,
			"count": len(doses),
		})
	}
}
