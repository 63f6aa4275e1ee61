package usbcore

// defaultInboundTargets is the parallelism the initialization pipeline
// aims for (spec.md §4.5 step 8) when Options.InboundTargets isn't set;
// Core.inboundTargets carries the configured value (internal/config's
// InboundTargets, by way of Options), so it's actually exercised instead
// of sitting unused next to a hardcoded constant.
const defaultInboundTargets = 3

// handleTransferCompletion processes one bulk transfer completion. It is
// the only place inbound bytes reach Sink and the only place a completion
// triggers resubmission or a ZLP follow-up.
func (c *Core) handleTransferCompletion(comp completion) {
	rec := c.registry.lookup(comp.key)
	if rec == nil {
		return
	}

	switch comp.dir {
	case dirIn:
		c.handleInboundCompletion(rec, comp)
	case dirOut:
		c.handleOutboundCompletion(rec, comp)
	}
}

func (c *Core) handleInboundCompletion(rec *DeviceRecord, comp completion) {
	rec.inPool.remove(comp.transfer)

	if comp.err != nil {
		rec.alive = false
		return
	}

	if comp.n > 0 {
		c.sink.ByteSink(rec, comp.data)
	}

	if !rec.alive {
		return
	}
	submitIn(rec.key, rec.inPool, rec.inEP, c.transferResults)
}

func (c *Core) handleOutboundCompletion(rec *DeviceRecord, comp completion) {
	rec.outPool.remove(comp.transfer)

	if comp.err != nil {
		return
	}
	if comp.isZLP {
		return
	}
	if zlpNeeded(len(comp.transfer.buf), rec.maxPacketOut) {
		submitZLP(rec.key, rec.outPool, rec.outEP, c.transferResults)
	}
}

// publishAndStartInbound notifies Sink of device arrival and starts up to
// c.inboundTargets inbound reads, per spec.md §4.5 steps 7-8.
//
// submitIn only ever spawns a goroutine; it has no failure mode of its
// own, so started below is always equal to c.inboundTargets and the
// "started == 0"/"reduced parallelism" branches spec.md §4.5 step 8
// describes are currently unreachable. They're kept rather than trimmed,
// since a future transport (or a pool with a real submission cap) could
// make submitIn fallible without this function needing to change shape.
func (c *Core) publishAndStartInbound(rec *DeviceRecord) {
	rec.inPool = newTransferPool()
	rec.outPool = newTransferPool()

	if c.sink.DeviceAdded(rec) {
		rec.alive = false
		return
	}
	rec.published = true

	target := c.inboundTargets
	if target <= 0 {
		target = defaultInboundTargets
	}

	started := 0
	for i := 0; i < target; i++ {
		submitIn(rec.key, rec.inPool, rec.inEP, c.transferResults)
		started++
	}

	if started == 0 {
		rec.alive = false
		return
	}
	if started < target {
		c.logf("device %02x:%02x: only %d/%d inbound transfers started, running with reduced parallelism", rec.Bus(), rec.Address(), started, target)
	}
}

// Send submits outbound bytes to a device's bulk-out endpoint, following
// spec.md §6's send(device, bytes, length) external interface.
func (c *Core) Send(rec *DeviceRecord, data []byte) error {
	if !rec.alive || rec.outEP == nil {
		return errNotConnected
	}
	submitOut(rec.key, rec.outPool, rec.outEP, data, c.transferResults)
	return nil
}
