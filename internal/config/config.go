// Package config reads the daemon's environment-variable configuration.
package config

import (
	"os"
	"strconv"
	"time"
)

// DeviceMode is the desired operating mode requested via ENV_DEVICE_MODE.
// Valid values are 1..5; anything else (including absence) falls back to 1.
const (
	DefaultDeviceMode = 1
	MinDeviceMode     = 1
	MaxDeviceMode     = 5
)

// Tunables bundles the daemon's runtime knobs. Only DesiredMode is read
// from an environment variable; Load sets the rest to fixed defaults, and
// nothing reads them from the environment or from flags.
type Tunables struct {
	DesiredMode      int
	PollInterval     time.Duration
	ControlTimeout   time.Duration
	DisconnectWaitMS int
	InboundTargets   int
}

// Load reads ENV_DEVICE_MODE and returns a Tunables with the daemon's
// documented defaults for everything else.
func Load() Tunables {
	return Tunables{
		DesiredMode:      desiredMode(),
		PollInterval:     1000 * time.Millisecond,
		ControlTimeout:   1000 * time.Millisecond,
		DisconnectWaitMS: 100,
		InboundTargets:   3,
	}
}

// desiredMode parses ENV_DEVICE_MODE, defaulting to DefaultDeviceMode when
// the variable is absent, malformed, or out of [MinDeviceMode, MaxDeviceMode].
func desiredMode() int {
	raw := os.Getenv("ENV_DEVICE_MODE")
	if raw == "" {
		return DefaultDeviceMode
	}

	v, err := strconv.Atoi(raw)
	if err != nil || v < MinDeviceMode || v > MaxDeviceMode {
		return DefaultDeviceMode
	}
	return v
}
