package usbcore

// Sink is the upward interface this package calls into: the multiplex
// protocol layer, client dispatch, and pair-record storage all live above
// it and are opaque to usbcore. None of these methods may block for long;
// they run inside the event pump's dispatch path.
type Sink interface {
	// ByteSink delivers bytes received on a device's bulk-in endpoint, in
	// the order their transfers completed.
	ByteSink(dev *DeviceRecord, data []byte)

	// DeviceAdded is called once a device's serial is known, before its
	// inbound transfers are started. Returning true tells usbcore to
	// disconnect the device immediately (the upper layer rejected it).
	DeviceAdded(dev *DeviceRecord) (reject bool)

	// DeviceRemoved is called during reap and on a hotplug/poll-detected
	// departure, after the device has already been marked not-alive.
	DeviceRemoved(dev *DeviceRecord)
}

// NopSink is a Sink that does nothing; useful for tests exercising the core
// state machines without a real upper layer.
type NopSink struct{}

func (NopSink) ByteSink(*DeviceRecord, []byte) {}
func (NopSink) DeviceAdded(*DeviceRecord) bool { return false }
func (NopSink) DeviceRemoved(*DeviceRecord)    {}
