package scanner

import "errors"

// Sentinel errors camera and engine implementations wrap so the controller
// can classify failures without inspecting raw host error text.
var (
	ErrPermissionDenied       = errors.New("camera permission denied")
	ErrDeviceBusy             = errors.New("camera device busy")
	ErrDeviceNotFound         = errors.New("camera device not found")
	ErrUnsupportedConstraints = errors.New("camera constraints unsatisfiable")
)

// ErrorKind is the failure taxonomy surfaced to the UI. Raw host error
// names and messages never leave this package; they go to the diagnostics
// ring only.
type ErrorKind string

const (
	KindNone                   ErrorKind = ""
	KindPermissionDenied       ErrorKind = "permission-denied"
	KindDeviceBusy             ErrorKind = "device-busy"
	KindDeviceNotFound         ErrorKind = "device-not-found"
	KindUnsupportedConstraints ErrorKind = "unsupported-constraints"
	KindGeneric                ErrorKind = "generic"
)

// Classify maps a camera or engine error onto the failure taxonomy.
func Classify(err error) ErrorKind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrPermissionDenied):
		return KindPermissionDenied
	case errors.Is(err, ErrDeviceBusy):
		return KindDeviceBusy
	case errors.Is(err, ErrDeviceNotFound):
		return KindDeviceNotFound
	case errors.Is(err, ErrUnsupportedConstraints):
		return KindUnsupportedConstraints
	default:
		return KindGeneric
	}
}

// Guidance returns the user-facing remediation text for an error kind.
func Guidance(kind ErrorKind) string {
	switch kind {
	case KindPermissionDenied:
		return "Camera access was denied. Enable camera permission in your device settings, then try again."
	case KindDeviceBusy:
		return "The camera is in use by another app. Close other camera apps and retry."
	case KindDeviceNotFound:
		return "No camera was found on this device. Enter the medication manually."
	case KindUnsupportedConstraints:
		return "The camera does not support the requested mode. Retrying may help."
	case KindGeneric:
		return "The camera could not be started. Please retry."
	default:
		return ""
	}
}
