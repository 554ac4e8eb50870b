package model

import "time"

// PendingDose is a dose event confirmed while offline that has not yet been
// written to the remote store. The ID is generated on the client side and is
// stable across retries; it is the de-duplication and removal key.
type PendingDose struct {
	ID             string    `gorm:"primaryKey;size:36" json:"id"`
	UserID         string    `gorm:"index;size:64;not null" json:"userId"`
	MedicationName string    `gorm:"size:256;not null" json:"medicationName"`
	Verified       bool      `gorm:"not null" json:"verified"`
	TakenAt        time.Time `gorm:"not null" json:"takenAt"`
	CreatedAt      time.Time `gorm:"not null" json:"createdAt"`
	PrescriptionID *string   `gorm:"size:36" json:"prescriptionId,omitempty"`
	Notes          *string   `gorm:"size:1024" json:"notes,omitempty"`
}
