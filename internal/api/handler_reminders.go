package api

import (
	"net/http"
	"regexp"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/daniel-odulate22/vigil-scan/internal/model"
)

var timeOfDayRe = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)

type reminderRequest struct {
	MedicationName string `json:"medicationName" binding:"required"`
	TimeOfDay      string `json:"timeOfDay" binding:"required"`
	Weekdays       int    `json:"weekdays" binding:"required"`
	Enabled        *bool  `json:"enabled"`
}

func (r *reminderRequest) validate() string {
	if !timeOfDayRe.MatchString(r.TimeOfDay) {
		return "timeOfDay must be HH:MM"
	}
	if r.Weekdays < 1 || r.Weekdays > 0x7F {
		return "weekdays must be a 7-bit mask with at least one day set"
	}
	return ""
}

// GetReminders lists the caller's reminders.
func (h *Handler) GetReminders(c *gin.Context) {
	userID := c.GetHeader("X-User-ID")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "X-User-ID header is required"})
		return
	}

	var reminders []model.Reminder
	err := h.db.Where("user_id = ?", userID).
		Order("time_of_day asc").
		Find(&reminders).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve reminders"})
		return
	}
	c.JSON(http.StatusOK, reminders)
}

// PostReminder creates a reminder.
func (h *Handler) PostReminder(c *gin.Context) {
	userID := c.GetHeader("X-User-ID")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "X-User-ID header is required"})
		return
	}

	var req reminderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if msg := req.validate(); msg != "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": msg})
		return
	}

	enabled := true
	if req.Enabled != nil {
		enabled = *req.Enabled
	}
	reminder := model.Reminder{
		ID:             uuid.New().String(),
		UserID:         userID,
		MedicationName: req.MedicationName,
		TimeOfDay:      req.TimeOfDay,
		Weekdays:       req.Weekdays,
		Enabled:        enabled,
	}
	if err := h.db.Create(&reminder).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create reminder"})
		return
	}
	c.JSON(http.StatusCreated, reminder)
}

// PutReminder replaces an existing reminder's schedule.
func (h *Handler) PutReminder(c *gin.Context) {
	userID := c.GetHeader("X-User-ID")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "X-User-ID header is required"})
		return
	}

	var req reminderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if msg := req.validate(); msg != "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": msg})
		return
	}

	var reminder model.Reminder
	err := h.db.First(&reminder, "id = ? AND user_id = ?", c.Param("id"), userID).Error
	if err == gorm.ErrRecordNotFound {
		c.JSON(http.StatusNotFound, gin.H{"error": "reminder not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve reminder"})
		return
	}

	reminder.MedicationName = req.MedicationName
	reminder.TimeOfDay = req.TimeOfDay
	reminder.Weekdays = req.Weekdays
	if req.Enabled != nil {
		reminder.Enabled = *req.Enabled
	}
	updates := map[string]any{
		"medication_name": reminder.MedicationName,
		"time_of_day":     reminder.TimeOfDay,
		"weekdays":        reminder.Weekdays,
		"enabled":         reminder.Enabled,
	}
	if err := h.db.Model(&reminder).Updates(updates).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update reminder"})
		return
	}
	c.JSON(http.StatusOK, reminder)
}

// DeleteReminder removes a reminder.
func (h *Handler) DeleteReminder(c *gin.Context) {
	userID := c.GetHeader("X-User-ID")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "X-User-ID header is required"})
		return
	}

	res := h.db.Delete(&model.Reminder{}, "id = ? AND user_id = ?", c.Param("id"), userID)
	if res.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete reminder"})
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "reminder not found"})
		return
	}
	c.Status(http.StatusNoContent)
}
