package usbcore

import "time"

// FileDescriptors would normally return the set of descriptors the owner
// must fold into its poll set (spec.md §4.7). gousb never exposes
// libusb's raw pollfds; its Context runs event handling on an internal
// goroutine instead, so there is nothing for an external poll loop to
// wait on. This always returns nil; callers rely on Timeout/Process
// instead of select()-style integration. See DESIGN.md.
func (c *Core) FileDescriptors() []int { return nil }

// Timeout reports the minimum of the time remaining until the next
// scheduled poll and a large cap when polling is disabled, per spec.md
// §4.7's next-timeout query. gousb's Context does not report its own
// next-library-timeout (another consequence of owning its event thread
// internally), so this is just the poll deadline.
func (c *Core) Timeout() time.Duration {
	if !c.autodiscover {
		return time.Hour
	}
	remaining := time.Until(c.nextPollDeadline)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Process dispatches any pending completions without blocking, reaps dead
// devices, and runs one enumeration pass if the polling deadline has
// elapsed. Matches spec.md §4.7's process().
func (c *Core) Process() error {
	c.drainPending()
	c.reap()

	if c.autodiscover && time.Now().After(c.nextPollDeadline) {
		if err := c.poll(); err != nil {
			return err
		}
		c.nextPollDeadline = time.Now().Add(c.pollInterval)
		c.reap()
	}
	return nil
}

// ProcessFor blocks up to d dispatching completions, reaping dead devices
// after each wake, per spec.md §4.7's process_for(ms). It also drains
// Devices/Lookup queries from other goroutines, since this is the event
// pump's own loop and those calls must run here (spec.md §5).
func (c *Core) ProcessFor(d time.Duration) error {
	deadline := time.NewTimer(d)
	defer deadline.Stop()

	for {
		select {
		case comp := <-c.transferResults:
			c.handleTransferCompletion(comp)
			c.reap()
		case comp := <-c.controlResults:
			c.handleControlCompletion(comp)
			c.reap()
		case q := <-c.queries:
			q()
		case <-deadline.C:
			return c.Process()
		}
	}
}

// drainPending handles every completion and query currently buffered on
// any of the pump's channels without blocking.
func (c *Core) drainPending() {
	for {
		select {
		case comp := <-c.transferResults:
			c.handleTransferCompletion(comp)
		case comp := <-c.controlResults:
			c.handleControlCompletion(comp)
		case q := <-c.queries:
			q()
		default:
			return
		}
	}
}

// reap sweeps the registry for not-alive records, notifying Sink and
// disconnecting each one, per spec.md §4.2's sweep step.
func (c *Core) reap() {
	for _, rec := range c.registry.deadSnapshot() {
		if rec.published {
			c.sink.DeviceRemoved(rec)
		}
		c.disconnect(rec)
	}
}
