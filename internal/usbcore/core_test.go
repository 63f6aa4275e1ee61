package usbcore

import (
	"testing"

	"github.com/google/gousb"
)

func TestNewAppliesDefaults(t *testing.T) {
	c := New(NopSink{}, Options{})
	if c.desiredMode != 1 {
		t.Errorf("desiredMode = %d, want 1", c.desiredMode)
	}
	if c.disconnectWaitIterations != 100 {
		t.Errorf("disconnectWaitIterations = %d, want 100", c.disconnectWaitIterations)
	}
}

// pumpQueries services c.Devices/c.Lookup requests the way the real event
// pump would, since both now hand off to whichever goroutine is draining
// c.queries rather than reading the registry directly (spec.md §5).
func pumpQueries(c *Core, done <-chan struct{}) {
	for {
		select {
		case <-done:
			return
		case q := <-c.queries:
			q()
		}
	}
}

func TestDevicesEmptyOnFreshCore(t *testing.T) {
	c := New(NopSink{}, Options{})
	done := make(chan struct{})
	defer close(done)
	go pumpQueries(c, done)

	if got := c.Devices(); len(got) != 0 {
		t.Errorf("expected no devices, got %d", len(got))
	}
}

func TestLookupMissOnFreshCore(t *testing.T) {
	c := New(NopSink{}, Options{})
	done := make(chan struct{})
	defer close(done)
	go pumpQueries(c, done)

	if _, ok := c.Lookup(1, 1); ok {
		t.Error("expected lookup miss on fresh core")
	}
}

func TestIsCandidateFilter(t *testing.T) {
	cases := []struct {
		name         string
		vendor, prod int
		want         bool
	}{
		{"apple general range", 0x05ac, 0x1234, true},
		{"apple t2", 0x05ac, PIDAppleT2Coprocessor, true},
		{"apple silicon restore", 0x05ac, 0x1281, true},
		{"apple out of range", 0x05ac, 0x9999, false},
		{"non-apple", 0x1234, 0x1234, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			desc := &gousb.DeviceDesc{Vendor: gousb.ID(tc.vendor), Product: gousb.ID(tc.prod)}
			if got := isCandidate(desc); got != tc.want {
				t.Errorf("isCandidate(vendor=%#x, product=%#x) = %v, want %v", tc.vendor, tc.prod, got, tc.want)
			}
		})
	}
}
