// Package dose implements the dose confirmation flow: verify the scanned
// code where possible, then write through to the remote store or fall back
// to the durable local queue.
package dose

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/daniel-odulate22/vigil-scan/internal/barcode"
	"github.com/daniel-odulate22/vigil-scan/internal/connectivity"
	"github.com/daniel-odulate22/vigil-scan/internal/drugdb"
	"github.com/daniel-odulate22/vigil-scan/internal/model"
	"github.com/daniel-odulate22/vigil-scan/internal/queue"
	"github.com/daniel-odulate22/vigil-scan/internal/syncer"
)

// Resolver resolves a normalized barcode to a medication record.
type Resolver interface {
	Lookup(ctx context.Context, code string) (*drugdb.Medication, error)
}

// ConfirmRequest is one dose confirmation.
type ConfirmRequest struct {
	UserID         string
	Code           string // decoded barcode; empty for manual entry
	MedicationName string // manual entry; ignored when Code resolves
	TakenAt        time.Time
	PrescriptionID *string
	Notes          *string
}

// Outcome reports where the confirmed dose landed.
type Outcome struct {
	Dose     model.PendingDose `json:"dose"`
	Synced   bool              `json:"synced"`   // written to the remote store
	Queued   bool              `json:"queued"`   // held in the local queue
	Verified bool              `json:"verified"` // resolved against the drug database
}

// Service confirms doses. It is the sole appender to the pending-dose
// queue; the sync coordinator is the sole remover.
type Service struct {
	queue    queue.Store
	remote   syncer.DoseStore
	conn     connectivity.Observer
	resolver Resolver
}

// NewService creates a dose confirmation service.
func NewService(q queue.Store, remote syncer.DoseStore, conn connectivity.Observer, resolver Resolver) *Service {
	return &Service{queue: q, remote: remote, conn: conn, resolver: resolver}
}

// Confirm verifies and persists one dose. While offline, or when the remote
// write fails, the record goes to the local queue; a queue failure is
// returned to the caller so the loss is surfaced, never silent.
func (s *Service) Confirm(ctx context.Context, req ConfirmRequest) (*Outcome, error) {
	name := req.MedicationName
	verified := false

	if req.Code != "" {
		parsed, err := barcode.Parse(req.Code)
		if err != nil {
			return nil, fmt.Errorf("unusable barcode: %w", err)
		}
		med, err := s.resolver.Lookup(ctx, parsed.Normalized)
		switch {
		case err == nil:
			name = med.Name
			verified = true
		case errors.Is(err, drugdb.ErrNotFound):
			// Fall back to the manually entered name, unverified.
		default:
			// Lookup unreachable (likely offline); manual name, unverified.
			log.Printf("Drug database lookup failed for %s: %v", parsed.Normalized, err)
		}
	}

	if name == "" {
		return nil, fmt.Errorf("medication name is required")
	}

	takenAt := req.TakenAt
	if takenAt.IsZero() {
		takenAt = time.Now().UTC()
	}

	dose := model.PendingDose{
		ID:             uuid.New().String(),
		UserID:         req.UserID,
		MedicationName: name,
		Verified:       verified,
		TakenAt:        takenAt,
		CreatedAt:      time.Now().UTC(),
		PrescriptionID: req.PrescriptionID,
		Notes:          req.Notes,
	}
	out := &Outcome{Dose: dose, Verified: verified}

	if s.conn.Current() {
		if err := s.remote.Insert(ctx, &dose); err == nil {
			out.Synced = true
			return out, nil
		} else {
			log.Printf("Remote write failed for dose %s, queueing locally: %v", dose.ID, err)
		}
	}

	if err := s.queue.Save(ctx, &dose); err != nil {
		return nil, err
	}
	out.Queued = true
	return out, nil
}
