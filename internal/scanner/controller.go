// Package scanner manages the lifecycle of a single camera-based barcode
// capture session: permission negotiation, engine start/stop, torch control,
// device diagnostics, and decode debouncing.
package scanner

import (
	"context"
	"log"
	"runtime"
	"sync"
	"time"

	"github.com/daniel-odulate22/vigil-scan/config"
)

// Phase is the controller's lifecycle phase.
type Phase string

const (
	PhaseIdle         Phase = "idle"
	PhaseInitializing Phase = "initializing"
	PhaseScanning     Phase = "scanning"
	PhaseStopped      Phase = "stopped"
)

// frameSettleDelay approximates one rendering frame; it guarantees the
// display surface the engine binds to exists before the session opens.
const frameSettleDelay = 16 * time.Millisecond

const hapticPulseMillis = 50

// ProfileFunc reports whether the host is a low-resource device. It is a
// pluggable heuristic, not fixed policy.
type ProfileFunc func() bool

// DefaultProfile flags hosts with few logical processors as low-end.
func DefaultProfile() bool {
	return runtime.NumCPU() <= 2
}

// Snapshot is the externally visible controller state.
type Snapshot struct {
	Permission       PermissionState `json:"permission"`
	Phase            Phase           `json:"phase"`
	ErrorKind        ErrorKind       `json:"errorKind,omitempty"`
	Guidance         string          `json:"guidance,omitempty"`
	SelectedDeviceID string          `json:"selectedDeviceId,omitempty"`
	TorchSupported   bool            `json:"torchSupported"`
	TorchEnabled     bool            `json:"torchEnabled"`
}

// Controller owns the scanner session and all camera resources. At most one
// capture session is active at a time; state transitions are serialized by
// a single mutex and invalid transitions are rejected as no-ops.
type Controller struct {
	cfg     config.ScannerConfig
	camera  Camera
	engine  Engine
	haptics Haptics
	profile ProfileFunc

	onDecode func(value string)
	onState  func(Snapshot)

	mu         sync.Mutex
	permission PermissionState
	phase      Phase
	errorKind  ErrorKind
	starting   bool
	attempts   int

	selectedDeviceID string
	torchSupported   bool
	torchEnabled     bool

	lastValue   string
	lastValueAt time.Time

	owned []Stream
	diag  diagLog

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// NewController creates a controller in the idle phase.
func NewController(cfg config.ScannerConfig, camera Camera, engine Engine) *Controller {
	return &Controller{
		cfg:        cfg,
		camera:     camera,
		engine:     engine,
		profile:    DefaultProfile,
		permission: PermissionPrompt,
		phase:      PhaseIdle,
		now:        time.Now,
		sleep:      sleepCtx,
	}
}

// SetDecodeHandler registers the success callback carrying the decoded string.
func (c *Controller) SetDecodeHandler(fn func(value string)) { c.onDecode = fn }

// SetStateHandler registers a callback invoked after every state transition.
func (c *Controller) SetStateHandler(fn func(Snapshot)) { c.onState = fn }

// SetHaptics registers an optional vibration device.
func (c *Controller) SetHaptics(h Haptics) { c.haptics = h }

// SetProfile overrides the low-end device heuristic.
func (c *Controller) SetProfile(fn ProfileFunc) { c.profile = fn }

// Open is the entry point. It queries the host permission status: if already
// granted it proceeds straight to starting; an indeterminate state surfaces a
// prompt requiring explicit user action; a prior denial surfaces the denied
// state without auto-retrying.
func (c *Controller) Open(ctx context.Context) error {
	state, err := c.camera.QueryPermission(ctx)
	if err != nil {
		c.mu.Lock()
		c.permission = PermissionError
		c.errorKind = Classify(err)
		c.diag.recordError("permission query failed: %v", err)
		c.mu.Unlock()
		c.notifyState()
		return err
	}

	switch state {
	case PermissionGranted:
		c.setPermission(PermissionGranted)
		return c.Start(ctx)
	case PermissionDenied:
		c.setPermission(PermissionDenied)
		return nil
	default:
		c.setPermission(PermissionPrompt)
		return nil
	}
}

// RequestPermission explicitly requests the camera capability. The transient
// stream obtained for the check is released immediately on grant so the
// camera is not held before the decoding engine is ready.
func (c *Controller) RequestPermission(ctx context.Context) error {
	probe, err := c.camera.Open(ctx, Constraints{Facing: FacingEnvironment})
	if err != nil {
		kind := Classify(err)
		c.mu.Lock()
		c.diag.recordError("permission request failed: %v", err)
		if kind == KindPermissionDenied {
			c.permission = PermissionDenied
			c.errorKind = KindNone
		} else {
			c.permission = PermissionError
			c.errorKind = kind
		}
		c.mu.Unlock()
		c.notifyState()
		return err
	}

	stopStream(probe)
	c.setPermission(PermissionGranted)
	return c.Start(ctx)
}

// Start opens the capture session and attaches the decoding engine.
// Re-entrant calls while a start is in flight or a session is active are
// no-ops; the guard is checked synchronously before any asynchronous work.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.starting || c.phase == PhaseInitializing || c.phase == PhaseScanning {
		c.mu.Unlock()
		return nil
	}
	c.starting = true
	c.phase = PhaseInitializing
	c.errorKind = KindNone
	stray := c.owned
	c.owned = nil
	c.mu.Unlock()
	c.notifyState()

	// Defensive cleanup of handles left by prior sessions.
	for _, s := range stray {
		stopStream(s)
	}

	if err := c.sleep(ctx, frameSettleDelay); err != nil {
		c.failStart(err)
		return err
	}

	devices, err := c.camera.EnumerateDevices(ctx)
	if err != nil {
		// Enumeration is diagnostics-only; failure does not abort the start.
		c.mu.Lock()
		c.diag.recordError("device enumeration failed: %v", err)
		c.mu.Unlock()
	} else {
		c.mu.Lock()
		c.diag.setDevices(devices)
		c.mu.Unlock()
	}

	stream, err := c.engine.Start(ctx, c.engineConfig(), c.handleDecode)
	if err != nil {
		c.failStart(err)
		return err
	}

	c.mu.Lock()
	// A teardown may have raced the start; if the guard was cleared while the
	// engine came up, release the session instead of adopting it. The engine
	// started after Stop ran, so it must be torn down here too.
	if !c.starting {
		c.mu.Unlock()
		if c.engine.State() == EngineRunning {
			if err := c.engine.Stop(ctx); err != nil {
				c.mu.Lock()
				c.diag.recordError("engine stop failed: %v", err)
				c.mu.Unlock()
			}
		}
		c.engine.Clear()
		stopStream(stream)
		return nil
	}
	c.owned = append(c.owned, stream)
	var track Track
	if tracks := stream.Tracks(); len(tracks) > 0 {
		track = tracks[0]
		settings := track.Settings()
		caps := track.Capabilities()
		c.diag.setTrack(settings, caps)
		c.selectedDeviceID = settings.DeviceID
		c.torchSupported = caps.Torch
	}
	c.phase = PhaseScanning
	c.starting = false
	c.attempts = 0
	c.mu.Unlock()

	if track != nil {
		id := track.ID()
		track.OnEnded(func() {
			c.mu.Lock()
			c.diag.recordError("track %s ended unexpectedly", id)
			c.mu.Unlock()
		})
	}

	c.notifyState()
	log.Println("Scanner session active.")
	return nil
}

// handleDecode is invoked by the decoding engine per analyzed frame. A value
// equal to the immediately preceding one within the cool-down window is the
// continued presence of the same barcode, not a new scan, and is suppressed.
func (c *Controller) handleDecode(value string) {
	c.mu.Lock()
	if c.phase != PhaseScanning {
		c.mu.Unlock()
		return
	}
	now := c.now()
	if value == c.lastValue && now.Sub(c.lastValueAt) < c.cfg.Debounce {
		c.mu.Unlock()
		return
	}
	c.lastValue = value
	c.lastValueAt = now
	cb := c.onDecode
	haptics := c.haptics
	c.mu.Unlock()

	if haptics != nil {
		haptics.Pulse(hapticPulseMillis)
	}

	c.Stop(context.Background())

	if cb != nil {
		cb(value)
	}
}

// ToggleTorch flips the torch track constraint. It is a no-op unless the
// active track reports torch capability; failures are logged to diagnostics
// without disrupting the scanning session.
func (c *Controller) ToggleTorch() {
	c.mu.Lock()
	if !c.torchSupported || len(c.owned) == 0 {
		c.mu.Unlock()
		return
	}
	target := !c.torchEnabled
	var track Track
	if tracks := c.owned[0].Tracks(); len(tracks) > 0 {
		track = tracks[0]
	}
	c.mu.Unlock()

	if track == nil {
		return
	}
	if err := track.ApplyConstraints(TrackConstraints{Torch: &target}); err != nil {
		c.mu.Lock()
		c.diag.recordError("torch toggle failed: %v", err)
		c.mu.Unlock()
		return
	}

	c.mu.Lock()
	c.torchEnabled = target
	c.mu.Unlock()
	c.notifyState()
}

// Stop tears down the decoding engine and releases every owned camera
// stream. It is always safe to call, repeatedly and mid-start: the
// re-entrancy guard is cleared so a subsequent Open is never blocked by an
// interrupted start.
func (c *Controller) Stop(ctx context.Context) {
	c.mu.Lock()
	streams := c.owned
	c.owned = nil
	wasIdle := c.phase == PhaseIdle && !c.starting
	c.starting = false
	c.torchEnabled = false
	c.phase = PhaseStopped
	c.mu.Unlock()

	if c.engine.State() == EngineRunning {
		if err := c.engine.Stop(ctx); err != nil {
			c.mu.Lock()
			c.diag.recordError("engine stop failed: %v", err)
			c.mu.Unlock()
		}
	}
	c.engine.Clear()

	for _, s := range streams {
		stopStream(s)
	}

	// Resources are fully released; only now does the phase return to idle.
	c.mu.Lock()
	c.phase = PhaseIdle
	c.mu.Unlock()
	if !wasIdle {
		c.notifyState()
	}
}

// Retry re-attempts the permission request and start after an error, waiting
// an increasing bounded backoff so the operating system has time to fully
// release a busy camera.
func (c *Controller) Retry(ctx context.Context) error {
	c.mu.Lock()
	attempt := c.attempts
	c.attempts++
	c.mu.Unlock()

	delayMillis := 500 + attempt*300
	if delayMillis > 2000 {
		delayMillis = 2000
	}
	if err := c.sleep(ctx, time.Duration(delayMillis)*time.Millisecond); err != nil {
		return err
	}

	return c.RequestPermission(ctx)
}

// State returns a copy of the externally visible controller state.
func (c *Controller) State() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Diagnostics returns enumerated devices, active track settings and
// capabilities, and the rolling log of recent errors.
func (c *Controller) Diagnostics() Diagnostics {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.diag.snapshot()
}

func (c *Controller) snapshotLocked() Snapshot {
	return Snapshot{
		Permission:       c.permission,
		Phase:            c.phase,
		ErrorKind:        c.errorKind,
		Guidance:         Guidance(c.errorKind),
		SelectedDeviceID: c.selectedDeviceID,
		TorchSupported:   c.torchSupported,
		TorchEnabled:     c.torchEnabled,
	}
}

func (c *Controller) engineConfig() EngineConfig {
	cfg := EngineConfig{
		Facing:      FacingEnvironment,
		FrameRate:   c.cfg.FrameRate,
		ScanBoxPx:   c.cfg.ScanBoxPx,
		Symbologies: DefaultSymbologies,
	}
	if c.profile != nil && c.profile() {
		cfg.FrameRate = c.cfg.LowEndFrameRate
		cfg.ScanBoxPx = c.cfg.LowEndScanBoxPx
	}
	return cfg
}

func (c *Controller) setPermission(state PermissionState) {
	c.mu.Lock()
	c.permission = state
	if state != PermissionError {
		c.errorKind = KindNone
	}
	c.mu.Unlock()
	c.notifyState()
}

func (c *Controller) failStart(err error) {
	c.mu.Lock()
	c.diag.recordError("start failed: %v", err)
	c.errorKind = Classify(err)
	if c.errorKind == KindPermissionDenied {
		c.permission = PermissionDenied
		c.errorKind = KindNone
	} else {
		c.permission = PermissionError
	}
	c.starting = false
	c.phase = PhaseIdle
	c.mu.Unlock()
	c.notifyState()
}

func (c *Controller) notifyState() {
	if c.onState == nil {
		return
	}
	c.mu.Lock()
	snap := c.snapshotLocked()
	c.mu.Unlock()
	c.onState(snap)
}

func stopStream(s Stream) {
	for _, t := range s.Tracks() {
		t.Stop()
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
