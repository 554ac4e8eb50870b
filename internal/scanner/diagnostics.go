package scanner

import (
	"fmt"
	"time"
)

// errorRingSize bounds the rolling error log; newest entries are retained.
const errorRingSize = 10

// Diagnostics is a point-in-time copy of the controller's debug state,
// consumed by the debug panel.
type Diagnostics struct {
	Devices           []DeviceInfo       `json:"devices"`
	TrackSettings     *TrackSettings     `json:"trackSettings,omitempty"`
	TrackCapabilities *TrackCapabilities `json:"trackCapabilities,omitempty"`
	RecentErrors      []string           `json:"recentErrors"`
}

// diagLog accumulates diagnostics under the controller's lock.
type diagLog struct {
	devices  []DeviceInfo
	settings *TrackSettings
	caps     *TrackCapabilities
	errors   []string
}

func (d *diagLog) setDevices(devices []DeviceInfo) {
	d.devices = devices
}

func (d *diagLog) setTrack(settings TrackSettings, caps TrackCapabilities) {
	d.settings = &settings
	d.caps = &caps
}

func (d *diagLog) recordError(format string, args ...any) {
	entry := fmt.Sprintf("%s %s", time.Now().UTC().Format(time.RFC3339), fmt.Sprintf(format, args...))
	d.errors = append(d.errors, entry)
	if len(d.errors) > errorRingSize {
		d.errors = d.errors[len(d.errors)-errorRingSize:]
	}
}

func (d *diagLog) snapshot() Diagnostics {
	out := Diagnostics{
		Devices:      append([]DeviceInfo(nil), d.devices...),
		RecentErrors: append([]string(nil), d.errors...),
	}
	if d.settings != nil {
		s := *d.settings
		out.TrackSettings = &s
	}
	if d.caps != nil {
		c := *d.caps
		out.TrackCapabilities = &c
	}
	return out
}
