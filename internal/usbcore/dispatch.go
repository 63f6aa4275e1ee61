package usbcore

import (
	"github.com/google/gousb"
)

// GET_DESCRIPTOR (bRequest=0x06), issued as a standard, device-to-host,
// device-recipient request (bmRequestType=0x80), is used for the
// language-ID table at string descriptor index 0.
const (
	requestGetDescriptor          uint8  = 0x06
	bmRequestTypeStandardInDevice uint8  = 0x80
	descriptorTypeString          uint16 = 0x03
)

// handleControlCompletion is the single dispatcher for every stage of the
// GET_MODE -> SET_MODE -> GET_LANGID -> GET_SERIAL chain, switching on
// comp.ctx.stage (spec.md §9, "State machine across callbacks"). It lives
// on Core because each stage either issues the next control transfer or
// hands off to the interface claim and inbound-transfer start, both of
// which need the registry and Sink.
func (c *Core) handleControlCompletion(comp controlCompletion) {
	rec := c.registry.lookup(comp.ctx.key)
	if rec == nil || !rec.alive {
		return
	}

	switch comp.ctx.stage {
	case stageGetMode:
		c.onGetMode(rec, comp)
	case stageSwitchMode:
		c.onSwitchMode(rec, comp)
	case stageLangID:
		c.onLangID(rec, comp)
	case stageSerial:
		c.onSerial(rec, comp)
	}
}

// onGetMode handles the GET_MODE response. A failure status skips
// negotiation entirely (spec.md §4.3 step 1); on success, the mode guess
// itself comes from descriptor inspection (guessMode), per the boundary
// table in spec.md §8 that ties the guess purely to bNumConfigurations
// (and, for the 5-configuration case, the interfaces present) rather than
// to the response payload.
func (c *Core) onGetMode(rec *DeviceRecord, comp controlCompletion) {
	if comp.err != nil {
		c.beginInitialization(rec)
		return
	}

	guess := guessMode(rec.handle.Desc)
	desired := comp.ctx.desiredMode
	if !decideAction(guess, desired) {
		c.beginInitialization(rec)
		return
	}

	submitControl(modeContext{
		key:           rec.key,
		device:        rec.handle,
		stage:         stageSwitchMode,
		bmRequestType: bmRequestTypeVendorInDevice,
		bRequest:      requestSetMode,
		wValue:        0,
		wIndex:        uint16(desired),
		wLength:       1,
		timeout:       comp.ctx.timeout,
		desiredMode:   desired,
		guess:         guess,
	}, c.controlResults)
}

// onSwitchMode handles the SET_MODE response. Any failure status or a
// non-zero response byte falls back to initialization in the device's
// current mode without surfacing an error to the caller (spec.md §4.3
// step 3); success behaves the same way, since the device re-enumerates
// under its new mode and this record's negotiation is done either way.
func (c *Core) onSwitchMode(rec *DeviceRecord, comp controlCompletion) {
	c.beginInitialization(rec)
}

// beginInitialization runs the Configuration Selector synchronously (it is
// a short, synchronous host-library operation per spec.md §4.4) and then
// starts the LANGID stage of the initialization pipeline.
func (c *Core) beginInitialization(rec *DeviceRecord) {
	sel, ok := selectConfig(rec.handle.Desc)
	if !ok {
		rec.alive = false
		return
	}

	cfg, ifc, epOut, epIn, err := claimInterface(rec.handle, sel)
	if err != nil {
		rec.alive = false
		return
	}

	rec.config = cfg
	rec.iface = ifc
	rec.ifaceNum = sel.ifaceNum
	rec.epOutAddr = sel.epOut
	rec.epInAddr = sel.epIn
	rec.maxPacketOut = outMaxPacketSize(rec.handle, sel)
	rec.speedBps = speedBps(rec.handle.Desc.Speed)

	rec.inEP = epIn
	rec.outEP = epOut

	submitControl(modeContext{
		key:           rec.key,
		device:        rec.handle,
		stage:         stageLangID,
		bmRequestType: bmRequestTypeStandardInDevice,
		bRequest:      requestGetDescriptor,
		wValue:        descriptorTypeString << 8, // string descriptor index 0
		wIndex:        0,
		wLength:       1024,
		timeout:       c.controlTimeout,
	}, c.controlResults)
}

// outMaxPacketSize reads the OUT endpoint's max packet size from the
// selected alt setting, falling back per spec.md §3/§4.5 step 2.
func outMaxPacketSize(dev *gousb.Device, sel selectedConfig) int {
	cfg, ok := dev.Desc.Configs[sel.configNum]
	if !ok {
		return fallbackMaxPacketSize
	}
	for _, ifc := range cfg.Interfaces {
		if ifc.Number != sel.ifaceNum || len(ifc.AltSettings) == 0 {
			continue
		}
		alt := ifc.AltSettings[0]
		if ep, ok := alt.Endpoints[gousb.EndpointAddress(sel.epOut)]; ok {
			return ep.MaxPacketSize
		}
	}
	return fallbackMaxPacketSize
}

// onLangID handles the string-descriptor-index-0 response. The language ID
// itself (decodeLangID) only matters to a raw indexed GET_DESCRIPTOR call;
// since the serial stage instead goes through gousb's SerialNumber helper
// (see submitSerialFetch), the decoded value isn't threaded further, but
// a failed descriptor read still aborts initialization per spec.md §4.5.
func (c *Core) onLangID(rec *DeviceRecord, comp controlCompletion) {
	if comp.err != nil {
		rec.alive = false
		return
	}
	if _, ok := decodeLangID(comp.data); !ok {
		rec.alive = false
		return
	}

	submitSerialFetch(rec.key, rec.handle, c.controlTimeout, c.controlResults)
}

func (c *Core) onSerial(rec *DeviceRecord, comp controlCompletion) {
	if comp.err != nil {
		rec.alive = false
		return
	}
	rec.serial = reformatSerial(string(comp.data))
	c.publishAndStartInbound(rec)
}
