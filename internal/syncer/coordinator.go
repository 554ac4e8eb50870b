// Package syncer drains the pending-dose queue to the remote store whenever
// connectivity is available, with mutual exclusion and resilience to partial
// failure.
package syncer

import (
	"context"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"github.com/daniel-odulate22/vigil-scan/internal/connectivity"
	"github.com/daniel-odulate22/vigil-scan/internal/model"
	"github.com/daniel-odulate22/vigil-scan/internal/queue"
)

// DoseStore is the remote hosted store accepting dose rows.
type DoseStore interface {
	Insert(ctx context.Context, dose *model.PendingDose) error
}

// Notifier reports drain results to the user.
type Notifier interface {
	Notify(userID, title, body string)
}

// Identity reports the authenticated user, if any. A drain is a no-op while
// unauthenticated.
type Identity func() (userID string, ok bool)

// Result holds the per-run drain accounting.
type Result struct {
	Synced int `json:"synced"`
	Failed int `json:"failed"`
}

// Coordinator owns the queue during drains: it is the only component that
// removes records, and a record is removed if and only if the remote write
// for it is confirmed successful.
type Coordinator struct {
	queue    queue.Store
	remote   DoseStore
	conn     connectivity.Observer
	notifier Notifier
	identity Identity

	interval    time.Duration
	settleDelay time.Duration

	inFlight atomic.Bool

	// sleep is swapped in tests to skip the settle delay.
	sleep func(ctx context.Context, d time.Duration)
}

// NewCoordinator creates a sync coordinator. It does not start any
// background work until Run is called.
func NewCoordinator(q queue.Store, remote DoseStore, conn connectivity.Observer, notifier Notifier, identity Identity, interval, settleDelay time.Duration) *Coordinator {
	return &Coordinator{
		queue:       q,
		remote:      remote,
		conn:        conn,
		notifier:    notifier,
		identity:    identity,
		interval:    interval,
		settleDelay: settleDelay,
		sleep:       sleepCtx,
	}
}

// Run installs the reconnect trigger and the periodic trigger, then blocks
// until ctx is cancelled.
func (c *Coordinator) Run(ctx context.Context) {
	c.conn.OnChange(func(online bool) {
		if !online {
			return
		}
		// Let the connection stabilize before draining.
		go func() {
			c.sleep(ctx, c.settleDelay)
			if ctx.Err() != nil {
				return
			}
			c.SyncNow(ctx)
		}()
	})

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Sync coordinator shutting down.")
			return
		case <-ticker.C:
			if c.conn.Current() {
				c.SyncNow(ctx)
			}
		}
	}
}

// SyncNow performs one drain pass. A second trigger arriving mid-drain is
// dropped, not queued; the next periodic or reconnect trigger picks up any
// remaining records. Records are processed sequentially to bound concurrent
// remote load, and a failed record is left queued for the next pass.
func (c *Coordinator) SyncNow(ctx context.Context) Result {
	if !c.inFlight.CompareAndSwap(false, true) {
		return Result{}
	}
	defer c.inFlight.Store(false)

	userID, ok := c.identity()
	if !ok {
		return Result{}
	}

	doses, err := c.queue.ListAll(ctx)
	if err != nil {
		log.Printf("Sync pass aborted: %v", err)
		return Result{}
	}
	if len(doses) == 0 {
		return Result{}
	}

	log.Printf("Sync pass starting: %d pending dose(s)", len(doses))
	var res Result
	for i := range doses {
		dose := doses[i]
		if err := c.remote.Insert(ctx, &dose); err != nil {
			log.Printf("Remote write failed for dose %s: %v", dose.ID, err)
			res.Failed++
			continue
		}
		// Remove-after-confirm, never before.
		if err := c.queue.Remove(ctx, dose.ID); err != nil {
			log.Printf("Failed to remove synced dose %s from queue: %v", dose.ID, err)
			res.Failed++
			continue
		}
		res.Synced++
	}

	log.Printf("Sync pass finished: %d synced, %d failed", res.Synced, res.Failed)
	c.report(userID, res)
	return res
}

// PendingCount returns the number of queued records for UI badges.
func (c *Coordinator) PendingCount(ctx context.Context) (int64, error) {
	return c.queue.Count(ctx)
}

func (c *Coordinator) report(userID string, res Result) {
	if c.notifier == nil {
		return
	}
	switch {
	case res.Failed == 0 && res.Synced > 0:
		c.notifier.Notify(userID, "Doses synced",
			fmt.Sprintf("%d offline dose(s) uploaded.", res.Synced))
	case res.Failed > 0:
		c.notifier.Notify(userID, "Sync incomplete",
			fmt.Sprintf("%d dose(s) uploaded, %d still pending.", res.Synced, res.Failed))
	}
}

func sleepCtx(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
