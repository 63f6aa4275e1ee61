package usbcore

import (
	"errors"
	"log"
	"time"

	"github.com/google/gousb"
)

var errNotConnected = errors.New("usbcore: device not connected")

// Options configures a Core at construction time. Zero values fall back
// to the daemon's documented defaults (internal/config.Load mirrors
// these).
type Options struct {
	DesiredMode      int
	PollInterval     time.Duration
	ControlTimeout   time.Duration
	DisconnectWaitMS int
	InboundTargets   int
	Logger           *log.Logger
}

// Core wires the registry, discovery, mode negotiation, initialization,
// and transfer machinery together and is the package's external surface
// (spec.md §6's downward interface). It owns the single event-pump
// goroutine's state: Init, Shutdown, SetAutodiscover, Process, ProcessFor,
// and Send must only be called from that one goroutine. Devices and
// Lookup are the exception — they post a closure the event pump runs on
// its own turn and block for the reply, so they're safe to call from any
// other goroutine (e.g. status API request handlers) while the pump is
// running; called from the pump goroutine itself they never return.
type Core struct {
	sink Sink

	usbCtx   *gousb.Context
	registry *registry

	transferResults chan completion
	controlResults  chan controlCompletion
	queries         chan func()

	desiredMode              int
	pollInterval             time.Duration
	controlTimeout           time.Duration
	disconnectWaitIterations int
	inboundTargets           int
	autodiscover             bool
	nextPollDeadline         time.Time
	enumFailures             int

	logger *log.Logger
}

// New constructs a Core bound to sink. Call Init before Process/ProcessFor.
func New(sink Sink, opts Options) *Core {
	if opts.PollInterval <= 0 {
		opts.PollInterval = 1000 * time.Millisecond
	}
	if opts.ControlTimeout <= 0 {
		opts.ControlTimeout = 1000 * time.Millisecond
	}
	if opts.DisconnectWaitMS <= 0 {
		opts.DisconnectWaitMS = 100
	}
	if opts.DesiredMode <= 0 {
		opts.DesiredMode = 1
	}
	if opts.InboundTargets <= 0 {
		opts.InboundTargets = defaultInboundTargets
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}

	return &Core{
		sink:                     sink,
		registry:                 newRegistry(),
		transferResults:          make(chan completion, 64),
		controlResults:           make(chan controlCompletion, 16),
		queries:                  make(chan func(), 16),
		desiredMode:              opts.DesiredMode,
		pollInterval:             opts.PollInterval,
		controlTimeout:           opts.ControlTimeout,
		disconnectWaitIterations: opts.DisconnectWaitMS,
		inboundTargets:           opts.InboundTargets,
		logger:                   opts.Logger,
	}
}

// Init initializes the underlying USB library and primes the poll
// deadline so the first Process call runs an enumeration, per spec.md
// §6's init().
func (c *Core) Init() error {
	c.usbCtx = gousb.NewContext()
	c.autodiscover = true
	c.nextPollDeadline = time.Now()
	return nil
}

// Shutdown deregisters discovery, marks and disconnects every device, and
// closes the underlying library context, per spec.md §6's shutdown().
func (c *Core) Shutdown() {
	c.autodiscover = false

	c.registry.each(func(rec *DeviceRecord) { rec.alive = false })
	c.reap()

	if c.usbCtx != nil {
		c.usbCtx.Close()
		c.usbCtx = nil
	}
}

// SetAutodiscover gates both the polling loop and hotplug add handling,
// per spec.md §6's autodiscover(enable).
func (c *Core) SetAutodiscover(enable bool) {
	c.autodiscover = enable
	if enable {
		c.nextPollDeadline = time.Now()
	}
}

func (c *Core) logf(format string, args ...any) {
	c.logger.Printf(format, args...)
}

// DeviceSnapshot is a point-in-time, independent copy of a DeviceRecord's
// externally visible fields. Unlike *DeviceRecord, a DeviceSnapshot is
// never touched by the event pump after it's handed back, so it's safe to
// read from any goroutine.
type DeviceSnapshot struct {
	Bus       uint8
	Address   uint8
	Location  uint32
	ProductID uint16
	Serial    string
	SpeedBps  uint64
	Alive     bool
}

func snapshotOf(rec *DeviceRecord) DeviceSnapshot {
	return DeviceSnapshot{
		Bus:       rec.Bus(),
		Address:   rec.Address(),
		Location:  rec.Location(),
		ProductID: rec.ProductID(),
		Serial:    rec.Serial(),
		SpeedBps:  rec.Speed(),
		Alive:     rec.Alive(),
	}
}

// Devices returns a snapshot of the registry's current records, in
// insertion order, for status/diagnostic callers above the core. Per
// spec.md §5's single-writer rule, the registry and its records are
// mutated only by the event pump, so this posts a closure for the pump to
// run and blocks for its reply rather than reading the registry directly
// from the caller's goroutine. Safe to call from any goroutine other than
// the one driving the event pump, concurrently with it; it returns only
// once the pump has run the query.
func (c *Core) Devices() []DeviceSnapshot {
	respond := make(chan []DeviceSnapshot, 1)
	c.queries <- func() {
		var out []DeviceSnapshot
		c.registry.each(func(rec *DeviceRecord) { out = append(out, snapshotOf(rec)) })
		respond <- out
	}
	return <-respond
}

// Lookup finds a device record by bus and address and returns a snapshot
// of it, for status/diagnostic callers above the core. See Devices for
// why this goes through the event pump instead of touching the registry
// directly.
func (c *Core) Lookup(bus, address uint8) (DeviceSnapshot, bool) {
	respond := make(chan *DeviceSnapshot, 1)
	c.queries <- func() {
		rec := c.registry.lookup(deviceKey{bus: bus, address: address})
		if rec == nil {
			respond <- nil
			return
		}
		snap := snapshotOf(rec)
		respond <- &snap
	}
	if snap := <-respond; snap != nil {
		return *snap, true
	}
	return DeviceSnapshot{}, false
}
