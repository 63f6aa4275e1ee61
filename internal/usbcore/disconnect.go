package usbcore

import "time"

// disconnectWaitSlice is the granularity of the bounded wait in
// disconnect; spec.md §4.8 calls for 1-ms slices up to 100 iterations.
const disconnectWaitSlice = time.Millisecond

// disconnect tears a device down per spec.md §4.8. It must never be
// called from within a transfer or control completion's own goroutine
// while that completion is still being dispatched; the event pump always
// calls it from its own loop, after the triggering completion has been
// fully handled.
func (c *Core) disconnect(rec *DeviceRecord) {
	if rec.handle == nil {
		c.registry.remove(rec)
		return
	}

	if rec.inPool != nil {
		rec.inPool.cancelAll()
	}
	if rec.outPool != nil {
		rec.outPool.cancelAll()
	}

	waitIterations := c.disconnectWaitIterations
	if waitIterations == 0 {
		waitIterations = 100
	}
	for i := 0; i < waitIterations; i++ {
		if poolEmpty(rec.inPool) && poolEmpty(rec.outPool) {
			break
		}
		c.drainCompletionsFor(disconnectWaitSlice, rec.key)
	}

	if rec.inPool != nil {
		rec.inPool.forceFree()
	}
	if rec.outPool != nil {
		rec.outPool.forceFree()
	}

	if rec.iface != nil {
		rec.iface.Close()
	}
	if rec.config != nil {
		rec.config.Close()
	}
	rec.handle.Close()

	c.registry.remove(rec)
}

func poolEmpty(p *transferPool) bool {
	return p == nil || p.len() == 0
}

// drainCompletionsFor reads from the transfer/control result and query
// channels for up to d, applying each completion's ordinary handling, so
// that cancellations in flight for key get a chance to land before the
// bounded wait gives up, and so Devices/Lookup callers don't stall for
// the full disconnect wait just because it's in progress.
func (c *Core) drainCompletionsFor(d time.Duration, key deviceKey) {
	deadline := time.NewTimer(d)
	defer deadline.Stop()
	for {
		select {
		case comp := <-c.transferResults:
			c.handleTransferCompletion(comp)
		case comp := <-c.controlResults:
			c.handleControlCompletion(comp)
		case q := <-c.queries:
			q()
		case <-deadline.C:
			return
		}
	}
}
