package scanner

import "context"

// PermissionState mirrors the host's camera permission status.
type PermissionState string

const (
	PermissionPrompt  PermissionState = "prompt"
	PermissionGranted PermissionState = "granted"
	PermissionDenied  PermissionState = "denied"
	PermissionError   PermissionState = "error"
)

// FacingMode selects which camera to prefer when opening a capture session.
type FacingMode string

const (
	FacingEnvironment FacingMode = "environment"
	FacingUser        FacingMode = "user"
)

// Symbology identifies a barcode format the decoding engine should report.
type Symbology string

const (
	SymbologyUPCA    Symbology = "upc_a"
	SymbologyUPCE    Symbology = "upc_e"
	SymbologyEAN8    Symbology = "ean_8"
	SymbologyEAN13   Symbology = "ean_13"
	SymbologyCode128 Symbology = "code_128"
	SymbologyCode39  Symbology = "code_39"
	SymbologyQR      Symbology = "qr_code"
)

// DefaultSymbologies lists the formats medication packaging uses.
var DefaultSymbologies = []Symbology{
	SymbologyUPCA, SymbologyUPCE, SymbologyEAN8, SymbologyEAN13,
	SymbologyCode128, SymbologyCode39, SymbologyQR,
}

// Constraints describes a capture request passed to the camera host.
type Constraints struct {
	Facing    FacingMode
	DeviceID  string
	FrameRate int
}

// TrackConstraints carries runtime adjustments applied to an open track.
type TrackConstraints struct {
	Torch *bool
}

// TrackSettings reports the active configuration of an open camera track.
type TrackSettings struct {
	DeviceID  string
	Width     int
	Height    int
	FrameRate float64
}

// TrackCapabilities reports what an open camera track can do.
type TrackCapabilities struct {
	Torch     bool
	MaxWidth  int
	MaxHeight int
}

// DeviceInfo describes one enumerable camera device.
type DeviceInfo struct {
	ID    string
	Label string
}

// Track is one camera track of an open stream.
type Track interface {
	ID() string
	Settings() TrackSettings
	Capabilities() TrackCapabilities
	ApplyConstraints(TrackConstraints) error
	Stop()
	// OnEnded registers a callback for unexpected track termination.
	OnEnded(func())
}

// Stream is an open camera capture handle.
type Stream interface {
	Tracks() []Track
}

// Camera is the host-provided camera capability. Open returns a live stream
// or a classifiable error; see Classify.
type Camera interface {
	QueryPermission(ctx context.Context) (PermissionState, error)
	Open(ctx context.Context, c Constraints) (Stream, error)
	EnumerateDevices(ctx context.Context) ([]DeviceInfo, error)
}

// EngineState reports whether the decoding engine currently holds a session.
type EngineState string

const (
	EngineIdle    EngineState = "idle"
	EngineRunning EngineState = "running"
)

// EngineConfig configures one decoding session.
type EngineConfig struct {
	Facing      FacingMode
	FrameRate   int
	ScanBoxPx   int
	Symbologies []Symbology
}

// Engine is the third-party barcode decoding engine boundary. Start opens a
// capture session and invokes onDecode once per analyzed frame that yields a
// value; the returned stream is the camera handle the engine acquired.
type Engine interface {
	Start(ctx context.Context, cfg EngineConfig, onDecode func(value string)) (Stream, error)
	Stop(ctx context.Context) error
	Clear()
	State() EngineState
}

// Haptics triggers a device vibration pulse where supported.
type Haptics interface {
	Pulse(ms int)
}
