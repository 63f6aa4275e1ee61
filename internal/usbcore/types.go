// Package usbcore discovers, negotiates the operating mode of, and drives
// the bulk-transfer pipeline for Apple devices attached over USB. It is the
// core of a daemon that multiplexes logical connections to those devices;
// the framing and dispatch of that multiplex protocol, the client-facing
// socket server, and persistent pair-record storage all live above this
// package and are invoked here only through the Sink interface.
package usbcore

import (
	"time"

	"github.com/google/gousb"
)

// Apple vendor ID and the product-ID ranges that make a device a candidate
// for this daemon. The general range covers the normal multiplex-capable
// PIDs; the T2 coprocessor PID falls outside it and is checked separately.
// The Apple Silicon restore range is also checked separately, although
// with these values it lies inside the general range.
const (
	VendorApple = gousb.ID(0x05ac)

	PIDRangeLow  = 0x1200
	PIDRangeHigh = 0x12ff

	PIDAppleT2Coprocessor = 0x8600

	PIDAppleSiliconRestoreLow  = 0x1281
	PIDAppleSiliconRestoreHigh = 0x1282
)

// Vendor-specific control requests understood by the mode-switching
// firmware; both are IN transfers addressed to the device itself.
const (
	requestGetMode uint8 = 0x45
	requestSetMode uint8 = 0x52

	bmRequestTypeVendorInDevice uint8 = 0xC0 // IN | VENDOR | DEVICE
)

// Multiplex interface class/subclass/protocol triple, and the two
// alternate families a 5-configuration device may additionally expose.
const (
	classMultiplex    = 0xFF
	subclassMultiplex = 0xFE
	protocolMultiplex = 0x02

	classValeria    = classMultiplex
	subclassValeria = 0x2A // 42
	protocolValeria = 0xFF

	classCDCNCM    = 0x02
	subclassCDCNCM = 0x0D
)

// fallbackMaxPacketSize is used when the OUT endpoint's descriptor can't be
// read for any reason.
const fallbackMaxPacketSize = 64

// speedBps maps a gousb-reported speed class to bits/s, per spec.md §3.
func speedBps(speed gousb.Speed) uint64 {
	switch speed {
	case gousb.SpeedLow:
		return 1_500_000
	case gousb.SpeedFull:
		return 12_000_000
	case gousb.SpeedSuper:
		return 5_000_000_000
	case gousb.SpeedSuperPlus:
		return 10_000_000_000
	case gousb.SpeedHigh:
		return 480_000_000
	default:
		// Unknown is treated the same as high speed, matching spec.md §3.
		return 480_000_000
	}
}

// deviceKey identifies a device record by its USB topology address, which
// is stable for the lifetime of a physical attachment.
type deviceKey struct {
	bus     uint8
	address uint8
}

// DeviceRecord is the in-memory state for one attached candidate device.
// It is owned exclusively by the event pump goroutine; nothing outside
// this package's dispatch path may read or write it.
type DeviceRecord struct {
	key deviceKey

	vendorID  gousb.ID
	productID gousb.ID

	ifaceNum     int
	epOutAddr    uint8
	epInAddr     uint8
	maxPacketOut int

	speedBps uint64
	serial   string

	alive bool

	handle *gousb.Device
	config *gousb.Config
	iface  *gousb.Interface

	inEP  *gousb.InEndpoint
	outEP *gousb.OutEndpoint

	inPool  *transferPool
	outPool *transferPool

	// published is set once the record has been handed to Sink.DeviceAdded;
	// it gates whether DeviceRemoved is owed on teardown.
	published bool
}

// Bus returns the device's USB bus number.
func (d *DeviceRecord) Bus() uint8 { return d.key.bus }

// Address returns the device's USB bus address.
func (d *DeviceRecord) Address() uint8 { return d.key.address }

// Serial returns the negotiated serial/UDID string, possibly empty if the
// device has not finished initialization yet.
func (d *DeviceRecord) Serial() string { return d.serial }

// ProductID returns the device's USB product ID.
func (d *DeviceRecord) ProductID() uint16 { return uint16(d.productID) }

// Speed returns the negotiated link speed in bits per second.
func (d *DeviceRecord) Speed() uint64 { return d.speedBps }

// Location packs bus and address the way spec.md §8 defines it:
// (bus << 16) | address.
func (d *DeviceRecord) Location() uint32 {
	return uint32(d.key.bus)<<16 | uint32(d.key.address)
}

// Alive reports the record's liveness flag.
func (d *DeviceRecord) Alive() bool { return d.alive }

// modeStage tags which step of the GET_MODE -> SET_MODE -> GET_LANGID ->
// GET_SERIAL chain a modeContext belongs to, so every control-transfer
// completion can be handled by a single dispatcher switching on this field
// (spec.md §9, "State machine across callbacks").
type modeStage int

const (
	stageGetMode modeStage = iota
	stageSwitchMode
	stageLangID
	stageSerial
)

// modeContext is the transient state for one in-flight control transfer in
// the negotiation/initialization chain. It is owned by the goroutine
// performing the transfer and is handed back, unmodified, on the
// completion channel; the event pump frees it implicitly by letting it go
// out of scope once the stage's handler returns.
type modeContext struct {
	key    deviceKey
	device *gousb.Device

	stage modeStage

	bmRequestType uint8
	bRequest      uint8
	wValue        uint16
	wIndex        uint16
	wLength       uint16

	timeout time.Duration

	// desiredMode and guess are carried through Decide -> SwitchMode so the
	// dispatcher doesn't need to re-derive them.
	desiredMode int
	guess       int
}
