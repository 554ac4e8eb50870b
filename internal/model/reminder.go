package model

import "time"

// Reminder is a recurring medication reminder. TimeOfDay is "HH:MM" in the
// configured timezone; Weekdays is a bitmask with bit 0 = Sunday.
type Reminder struct {
	ID             string     `gorm:"primaryKey;size:36" json:"id"`
	UserID         string     `gorm:"index;size:64;not null" json:"userId"`
	MedicationName string     `gorm:"size:256;not null" json:"medicationName"`
	TimeOfDay      string     `gorm:"size:5;not null" json:"timeOfDay"`
	Weekdays       int        `gorm:"not null" json:"weekdays"`
	Enabled        bool       `gorm:"not null" json:"enabled"`
	LastFiredAt    *time.Time `json:"lastFiredAt,omitempty"`
	CreatedAt      time.Time  `gorm:"not null" json:"createdAt"`
	UpdatedAt      time.Time  `gorm:"not null" json:"updatedAt"`
}

// DueOn reports whether the reminder's weekday mask includes the given day.
func (r *Reminder) DueOn(day time.Weekday) bool {
	return r.Weekdays&(1<<uint(day)) != 0
}
