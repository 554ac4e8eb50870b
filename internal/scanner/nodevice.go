package scanner

import "context"

// Builds without a capture device wire these placeholders in; embedding
// builds supply real Camera and Engine implementations instead. Every
// operation reports device-not-found so the controller surfaces the right
// guidance.

type unavailableCamera struct{}

// UnavailableCamera returns a Camera for hosts with no capture hardware.
func UnavailableCamera() Camera { return unavailableCamera{} }

func (unavailableCamera) QueryPermission(context.Context) (PermissionState, error) {
	return PermissionPrompt, nil
}

func (unavailableCamera) Open(context.Context, Constraints) (Stream, error) {
	return nil, ErrDeviceNotFound
}

func (unavailableCamera) EnumerateDevices(context.Context) ([]DeviceInfo, error) {
	return nil, nil
}

type unavailableEngine struct{}

// UnavailableEngine returns an Engine for hosts with no capture hardware.
func UnavailableEngine() Engine { return unavailableEngine{} }

func (unavailableEngine) Start(context.Context, EngineConfig, func(string)) (Stream, error) {
	return nil, ErrDeviceNotFound
}

func (unavailableEngine) Stop(context.Context) error { return nil }
func (unavailableEngine) Clear()                     {}
func (unavailableEngine) State() EngineState         { return EngineIdle }
