package usbcore

import (
	"fmt"

	"github.com/google/gousb"
)

// maxConsecutiveEnumFailures is the threshold after which a polling
// failure escalates to fatal (spec.md §4.6 polling path step 1, §8
// boundary behavior).
const maxConsecutiveEnumFailures = 5

// CanHotplug always reports false. gousb wraps libusb for host-side bulk
// and control transfer and runs libusb's event handling on its own
// internal goroutine, but it does not expose libusb's hotplug
// registration API (libusb_hotplug_register_callback has no Go binding in
// this library). The polling path is therefore the only discovery
// mechanism available; see DESIGN.md for the fuller justification.
func (c *Core) CanHotplug() bool { return false }

// isCandidate reports whether a device descriptor matches the vendor/PID
// filter spec.md §4.6 defines for device-add.
func isCandidate(desc *gousb.DeviceDesc) bool {
	if desc.Vendor != VendorApple {
		return false
	}
	pid := int(desc.Product)
	if pid == PIDAppleT2Coprocessor {
		return true
	}
	if pid >= PIDAppleSiliconRestoreLow && pid <= PIDAppleSiliconRestoreHigh {
		return true
	}
	return pid >= PIDRangeLow && pid <= PIDRangeHigh
}

// poll runs one enumeration pass: mark every record not-alive, then for
// every matching attached device either re-assert liveness on an existing
// record or open and register a new one. Reaping of anything still
// not-alive afterward is the caller's job (the event pump, after every
// process/process_for call).
func (c *Core) poll() error {
	devices, err := c.usbCtx.OpenDevices(func(desc *gousb.DeviceDesc) bool {
		return isCandidate(desc)
	})
	if err != nil {
		c.enumFailures++
		if c.enumFailures >= maxConsecutiveEnumFailures {
			return fmt.Errorf("enumeration failed %d consecutive times: %w", c.enumFailures, err)
		}
		c.logf("enumeration failed (%d/%d): %v", c.enumFailures, maxConsecutiveEnumFailures, err)
		return nil
	}
	c.enumFailures = 0

	c.registry.each(func(rec *DeviceRecord) { rec.alive = false })

	for _, dev := range devices {
		c.deviceAdd(dev)
	}
	return nil
}

// deviceAdd registers a newly enumerated device, or re-asserts liveness on
// one already tracked. Devices this call doesn't keep open are closed
// before returning. A device whose initialization failed has been reaped
// and is no longer tracked, so if it is still attached it is opened and
// negotiated again here on the next enumeration pass.
func (c *Core) deviceAdd(dev *gousb.Device) {
	key := deviceKey{bus: uint8(dev.Desc.Bus), address: uint8(dev.Desc.Address)}

	if existing := c.registry.lookup(key); existing != nil {
		existing.alive = true
		dev.Close()
		return
	}

	rec := &DeviceRecord{
		key:       key,
		vendorID:  dev.Desc.Vendor,
		productID: dev.Desc.Product,
		alive:     true,
		handle:    dev,
	}
	c.registry.insert(rec)

	startNegotiation(rec.key, rec.handle, c.controlTimeout, c.desiredMode, c.controlResults)
}

// Discover forces an enumeration pass, per spec.md §6's discover()
// external interface.
func (c *Core) Discover() error {
	return c.poll()
}
