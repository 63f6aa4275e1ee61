package usbcore

import (
	"context"

	"github.com/google/gousb"
)

// completion is posted to the pump's single channel by a transfer's
// goroutine once its blocking gousb call returns. The event pump is the
// only goroutine that ever reads from that channel, so no record field it
// touches needs a lock.
type completion struct {
	key      deviceKey
	dir      transferDirection
	isZLP    bool
	transfer *inflightTransfer
	data     []byte
	n        int
	err      error
}

type transferDirection int

const (
	dirOut transferDirection = iota
	dirIn
)

// inflightTransfer tracks one outstanding bulk transfer so it can be
// canceled and so the pool can tell which entry a completion belongs to.
type inflightTransfer struct {
	cancel context.CancelFunc
	buf    []byte
}

// transferPool owns the set of in-flight transfers for one endpoint
// direction on one device. Resubmission (inbound) and ZLP follow-up
// (outbound) are driven by the event pump after it reads a completion, not
// by the pool itself, so the pool stays a simple bookkeeping structure.
type transferPool struct {
	entries map[*inflightTransfer]struct{}
}

func newTransferPool() *transferPool {
	return &transferPool{entries: make(map[*inflightTransfer]struct{})}
}

func (p *transferPool) len() int { return len(p.entries) }

func (p *transferPool) add(t *inflightTransfer) { p.entries[t] = struct{}{} }

func (p *transferPool) remove(t *inflightTransfer) { delete(p.entries, t) }

// cancelAll requests cancellation of every outstanding transfer in the
// pool. It does not wait for the resulting completions; the disconnect
// protocol in disconnect.go owns that wait.
func (p *transferPool) cancelAll() {
	for t := range p.entries {
		t.cancel()
	}
}

// forceFree drops every remaining entry without waiting for its
// completion, used once the disconnect protocol's bounded wait has
// expired.
func (p *transferPool) forceFree() {
	for t := range p.entries {
		delete(p.entries, t)
	}
}

const inboundBufferSize = 16 * 1024

// zlpNeeded reports whether an outbound payload of the given length must
// be followed by a zero-length packet on an endpoint with the given max
// packet size (spec.md §8 round-trip law). maxPacket <= 0 means unknown,
// in which case no ZLP is appended.
func zlpNeeded(dataLen, maxPacket int) bool {
	return maxPacket > 0 && dataLen%maxPacket == 0
}

// submitIn starts one inbound bulk read, adds it to pool, and returns the
// transfer handle; the goroutine posts a completion once the read
// finishes or the context is canceled.
func submitIn(key deviceKey, pool *transferPool, ep *gousb.InEndpoint, results chan<- completion) *inflightTransfer {
	ctx, cancel := context.WithCancel(context.Background())
	t := &inflightTransfer{cancel: cancel, buf: make([]byte, inboundBufferSize)}
	pool.add(t)

	go func() {
		n, err := ep.ReadContext(ctx, t.buf)
		results <- completion{key: key, dir: dirIn, transfer: t, data: t.buf[:n], n: n, err: err}
	}()

	return t
}

// submitOut starts one outbound bulk write of data, adding it to pool.
// Whether a zero-length packet follows is decided by the event pump on
// this transfer's completion (see handleTransferCompletion), so that each
// one remains a distinct pool entry and a distinct completion, matching
// spec.md §4.1's "separate submission."
func submitOut(key deviceKey, pool *transferPool, ep *gousb.OutEndpoint, data []byte, results chan<- completion) *inflightTransfer {
	ctx, cancel := context.WithCancel(context.Background())
	t := &inflightTransfer{cancel: cancel, buf: data}
	pool.add(t)

	go func() {
		n, err := ep.WriteContext(ctx, data)
		results <- completion{key: key, dir: dirOut, transfer: t, n: n, err: err}
	}()

	return t
}

// submitZLP issues the zero-length follow-up packet spec.md §4.1
// describes, writing a nil (zero-length) buffer.
func submitZLP(key deviceKey, pool *transferPool, ep *gousb.OutEndpoint, results chan<- completion) *inflightTransfer {
	ctx, cancel := context.WithCancel(context.Background())
	t := &inflightTransfer{cancel: cancel, buf: nil}
	pool.add(t)

	go func() {
		n, err := ep.WriteContext(ctx, nil)
		results <- completion{key: key, dir: dirOut, isZLP: true, transfer: t, n: n, err: err}
	}()

	return t
}
