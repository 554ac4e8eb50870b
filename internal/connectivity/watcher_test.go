package connectivity

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/daniel-odulate22/vigil-scan/config"
)

func newTestWatcher(probeURL string) *Watcher {
	cfg := &config.ConnectivityConfig{
		ProbeURL:            probeURL,
		ProbeTimeoutSeconds: 1,
	}
	return NewWatcher(cfg)
}

func TestWatcher_ProbeReachability(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	w := newTestWatcher(server.URL)
	assert.False(t, w.Current(), "watcher should start offline")

	assert.True(t, w.probe(context.Background()))

	server.Close()
	assert.False(t, w.probe(context.Background()))
}

func TestWatcher_NotifiesOnTransitionOnly(t *testing.T) {
	w := newTestWatcher("http://unused.invalid")

	var events []bool
	w.OnChange(func(online bool) {
		events = append(events, online)
	})

	w.setOnline(true)
	w.setOnline(true) // no transition, no event
	w.setOnline(false)
	w.setOnline(true)

	assert.Equal(t, []bool{true, false, true}, events)
	assert.True(t, w.Current())
}
