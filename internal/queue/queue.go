// Package queue provides durable local storage for dose events confirmed
// while offline. Records survive restarts and are removed individually only
// after the sync coordinator confirms the remote write.
package queue

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/daniel-odulate22/vigil-scan/internal/model"
)

// StorageError indicates that the underlying local store could not be opened
// or a write was rejected. There is no retry at this layer; callers must
// surface the failure rather than drop the record silently.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("pending-dose queue %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// Store defines the pending-dose queue operations. The sync coordinator is
// the sole remover during drains; the dose confirmation flow is the sole
// appender. Both agree on the client-generated ID as the record key.
type Store interface {
	Save(ctx context.Context, dose *model.PendingDose) error
	ListAll(ctx context.Context) ([]model.PendingDose, error)
	Remove(ctx context.Context, id string) error
	Count(ctx context.Context) (int64, error)
	Clear(ctx context.Context) error
}

// gormStore implements Store using GORM.
type gormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GORM-backed pending-dose queue.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

// Save persists one record keyed by its ID.
func (s *gormStore) Save(ctx context.Context, dose *model.PendingDose) error {
	if err := s.db.WithContext(ctx).Create(dose).Error; err != nil {
		return &StorageError{Op: "save", Err: err}
	}
	return nil
}

// ListAll returns all currently queued records. Order is unspecified; each
// record is independent. Restartable: calling it does not consume records.
func (s *gormStore) ListAll(ctx context.Context) ([]model.PendingDose, error) {
	var doses []model.PendingDose
	if err := s.db.WithContext(ctx).Find(&doses).Error; err != nil {
		return nil, &StorageError{Op: "list", Err: err}
	}
	return doses, nil
}

// Remove deletes one record by ID. Removing a non-existent ID is not an error.
func (s *gormStore) Remove(ctx context.Context, id string) error {
	if err := s.db.WithContext(ctx).Delete(&model.PendingDose{}, "id = ?", id).Error; err != nil {
		return &StorageError{Op: "remove", Err: err}
	}
	return nil
}

// Count returns the number of queued records.
func (s *gormStore) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&model.PendingDose{}).Count(&n).Error; err != nil {
		return 0, &StorageError{Op: "count", Err: err}
	}
	return n, nil
}

// Clear removes all records. Administrative and test use only.
func (s *gormStore) Clear(ctx context.Context) error {
	if err := s.db.WithContext(ctx).Where("1 = 1").Delete(&model.PendingDose{}).Error; err != nil {
		return &StorageError{Op: "clear", Err: err}
	}
	return nil
}
