package reminder

import (
	"context"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"

	"github.com/daniel-odulate22/vigil-scan/internal/model"
	"github.com/daniel-odulate22/vigil-scan/internal/notification"
)

// Dispatcher accepts notification jobs for delivery. The notification worker
// pool satisfies this.
type Dispatcher interface {
	Dispatch(job notification.Job)
}

// Scheduler wakes periodically and fires any enabled reminders that are due
// in the configured timezone. A reminder fires at most once per day.
type Scheduler struct {
	db       *gorm.DB
	pool     Dispatcher
	interval time.Duration
	loc      *time.Location

	now func() time.Time
}

// NewScheduler creates a reminder scheduler. tz must be a valid IANA zone
// name; an empty or invalid zone falls back to UTC.
func NewScheduler(db *gorm.DB, pool Dispatcher, interval time.Duration, tz string) *Scheduler {
	loc, err := time.LoadLocation(tz)
	if err != nil {
		log.Printf("Invalid reminder timezone %q, falling back to UTC: %v", tz, err)
		loc = time.UTC
	}
	return &Scheduler{
		db:       db,
		pool:     pool,
		interval: interval,
		loc:      loc,
		now:      time.Now,
	}
}

// Run blocks until the context is canceled, checking for due reminders on
// each tick.
func (s *Scheduler) Run(ctx context.Context) {
	log.Printf("Reminder scheduler started (interval %s, timezone %s)", s.interval, s.loc)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Reminder scheduler shutting down")
			return
		case <-ticker.C:
			if err := s.CheckDue(ctx); err != nil {
				log.Printf("Reminder check failed: %v", err)
			}
		}
	}
}

// CheckDue fires every enabled reminder whose scheduled time has passed today
// and that has not already fired today.
func (s *Scheduler) CheckDue(ctx context.Context) error {
	now := s.now().In(s.loc)

	var reminders []model.Reminder
	err := s.db.WithContext(ctx).
		Where("enabled = ?", true).
		Find(&reminders).Error
	if err != nil {
		return fmt.Errorf("listing reminders: %w", err)
	}

	for i := range reminders {
		r := &reminders[i]
		if !s.due(r, now) {
			continue
		}
		s.pool.Dispatch(notification.Job{
			UserID: r.UserID,
			Title:  "Medication reminder",
			Body:   fmt.Sprintf("Time to take %s.", r.MedicationName),
		})
		fired := s.now()
		err := s.db.WithContext(ctx).
			Model(r).
			Update("last_fired_at", fired).Error
		if err != nil {
			log.Printf("Failed to stamp reminder %s: %v", r.ID, err)
		}
	}
	return nil
}

// due reports whether the reminder should fire at the given local time.
func (s *Scheduler) due(r *model.Reminder, now time.Time) bool {
	if !r.DueOn(now.Weekday()) {
		return false
	}

	scheduled, err := time.ParseInLocation("15:04", r.TimeOfDay, s.loc)
	if err != nil {
		log.Printf("Reminder %s has malformed time_of_day %q", r.ID, r.TimeOfDay)
		return false
	}
	at := time.Date(now.Year(), now.Month(), now.Day(),
		scheduled.Hour(), scheduled.Minute(), 0, 0, s.loc)
	if now.Before(at) {
		return false
	}

	if r.LastFiredAt != nil {
		last := r.LastFiredAt.In(s.loc)
		if last.Year() == now.Year() && last.YearDay() == now.YearDay() {
			return false
		}
	}
	return true
}
