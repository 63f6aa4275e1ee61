package config

import (
	"os"
	"testing"
)

func TestLoadDefaultsWhenUnset(t *testing.T) {
	os.Unsetenv("ENV_DEVICE_MODE")

	tun := Load()
	if tun.DesiredMode != DefaultDeviceMode {
		t.Errorf("expected default mode %d, got %d", DefaultDeviceMode, tun.DesiredMode)
	}
}

func TestLoadValidMode(t *testing.T) {
	os.Setenv("ENV_DEVICE_MODE", "3")
	defer os.Unsetenv("ENV_DEVICE_MODE")

	tun := Load()
	if tun.DesiredMode != 3 {
		t.Errorf("expected mode 3, got %d", tun.DesiredMode)
	}
}

func TestLoadInvalidModeFallsBack(t *testing.T) {
	cases := []string{"0", "6", "-1", "not-a-number", ""}
	for _, raw := range cases {
		os.Setenv("ENV_DEVICE_MODE", raw)
		tun := Load()
		if tun.DesiredMode != DefaultDeviceMode {
			t.Errorf("ENV_DEVICE_MODE=%q: expected fallback to %d, got %d", raw, DefaultDeviceMode, tun.DesiredMode)
		}
	}
	os.Unsetenv("ENV_DEVICE_MODE")
}
