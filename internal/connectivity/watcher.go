// Package connectivity reports online/offline status sourced from the host
// environment's network signal. It is a pure pass-through: no retry or
// buffering logic lives here.
package connectivity

import (
	"context"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/daniel-odulate22/vigil-scan/config"
)

// Observer exposes the current online status and transition notifications.
type Observer interface {
	Current() bool
	OnChange(listener func(online bool))
}

// Watcher is an Observer backed by a periodic HTTP reachability probe.
type Watcher struct {
	probeURL string
	interval time.Duration
	client   *http.Client

	mu        sync.RWMutex
	online    bool
	listeners []func(online bool)
}

// NewWatcher creates a watcher from config. The initial status is offline
// until the first probe succeeds.
func NewWatcher(cfg *config.ConnectivityConfig) *Watcher {
	return &Watcher{
		probeURL: cfg.ProbeURL,
		interval: cfg.ProbeInterval,
		client: &http.Client{
			Timeout: time.Duration(cfg.ProbeTimeoutSeconds) * time.Second,
		},
	}
}

// Current returns the last observed online status.
func (w *Watcher) Current() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.online
}

// OnChange registers a listener invoked on every online/offline transition.
func (w *Watcher) OnChange(listener func(online bool)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.listeners = append(w.listeners, listener)
}

// Run probes the configured URL on a fixed interval until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) {
	if w.probeURL == "" {
		// No probe target configured; assume online permanently.
		w.setOnline(true)
		log.Println("Connectivity watcher has no probe_url; assuming online.")
		return
	}

	w.setOnline(w.probe(ctx))

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Connectivity watcher shutting down.")
			return
		case <-ticker.C:
			w.setOnline(w.probe(ctx))
		}
	}
}

// probe reports whether the target answered at all; any HTTP status counts
// as reachable.
func (w *Watcher) probe(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, w.probeURL, nil)
	if err != nil {
		return false
	}
	resp, err := w.client.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return true
}

func (w *Watcher) setOnline(online bool) {
	w.mu.Lock()
	changed := w.online != online
	w.online = online
	listeners := make([]func(bool), len(w.listeners))
	copy(listeners, w.listeners)
	w.mu.Unlock()

	if !changed {
		return
	}
	log.Printf("Connectivity changed: online=%v", online)
	for _, l := range listeners {
		l(online)
	}
}
