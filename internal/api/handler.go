package api

import (
	"context"

	"github.com/SherClockHolmes/webpush-go"
	"gorm.io/gorm"

	"github.com/daniel-odulate22/vigil-scan/internal/dose"
	"github.com/daniel-odulate22/vigil-scan/internal/drugdb"
	"github.com/daniel-odulate22/vigil-scan/internal/scanner"
	"github.com/daniel-odulate22/vigil-scan/internal/syncer"
)

// DoseConfirmer records a taken dose.
type DoseConfirmer interface {
	Confirm(ctx context.Context, req dose.ConfirmRequest) (*dose.Outcome, error)
}

// SyncTrigger drains the pending-dose queue on demand.
type SyncTrigger interface {
	SyncNow(ctx context.Context) syncer.Result
	PendingCount(ctx context.Context) (int64, error)
}

// ScanControl drives the scanner session.
type ScanControl interface {
	Open(ctx context.Context) error
	Stop(ctx context.Context)
	Retry(ctx context.Context) error
	ToggleTorch()
	State() scanner.Snapshot
	Diagnostics() scanner.Diagnostics
}

// MedicationDB answers barcode lookups and interaction checks.
type MedicationDB interface {
	Lookup(ctx context.Context, code string) (*drugdb.Medication, error)
	CheckInteractions(ctx context.Context, names []string) ([]drugdb.Interaction, error)
}

// Online reports current connectivity.
type Online interface {
	Current() bool
}

// Handler holds shared dependencies for API handlers.
type Handler struct {
	db      *gorm.DB
	doses   DoseConfirmer
	sync    SyncTrigger
	scan    ScanControl
	drugs   MedicationDB
	conn    Online
	webpush *webpush.Options
	events  *Hub
}

// NewHandler creates a new API handler.
func NewHandler(db *gorm.DB, doses DoseConfirmer, sync SyncTrigger, scan ScanControl, drugs MedicationDB, conn Online, webpushOptions *webpush.Options) *Handler {
	return &Handler{
		db:      db,
		doses:   doses,
		sync:    sync,
		scan:    scan,
		drugs:   drugs,
		conn:    conn,
		webpush: webpushOptions,
	}
}

// SetEventHub attaches the events hub; drain results triggered through the
// API are then pushed to connected clients.
func (h *Handler) SetEventHub(hub *Hub) { h.events = hub }
