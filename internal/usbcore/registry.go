package usbcore

// registry is the ordered set of device records, keyed by (bus, address).
// It is mutated only by the event pump goroutine; see the Core type's doc
// comment for the single-threaded cooperative model this relies on.
type registry struct {
	records []*DeviceRecord
}

func newRegistry() *registry {
	return &registry{}
}

// lookup finds a record by (bus, address) with a linear scan, per
// spec.md §4.2.
func (r *registry) lookup(key deviceKey) *DeviceRecord {
	for _, rec := range r.records {
		if rec.key == key {
			return rec
		}
	}
	return nil
}

// insert appends a new record at the tail, refusing duplicates. It reports
// true if the record was inserted and false if one with the same key was
// already present.
func (r *registry) insert(rec *DeviceRecord) bool {
	if r.lookup(rec.key) != nil {
		return false
	}
	r.records = append(r.records, rec)
	return true
}

// remove drops a record by identity.
func (r *registry) remove(rec *DeviceRecord) {
	for i, existing := range r.records {
		if existing == rec {
			r.records = append(r.records[:i], r.records[i+1:]...)
			return
		}
	}
}

// each iterates records in insertion order. The callback must not mutate
// the registry directly; to remove records, collect them first (as
// deadSnapshot does) and call remove after iteration.
func (r *registry) each(fn func(*DeviceRecord)) {
	for _, rec := range r.records {
		fn(rec)
	}
}

func (r *registry) len() int { return len(r.records) }

// deadSnapshot returns the records currently marked not-alive, without
// mutating the registry. Sweeping (notify + disconnect) happens in pump.go
// so it can call back into Sink and the disconnect protocol, neither of
// which this package-private type should know about.
func (r *registry) deadSnapshot() []*DeviceRecord {
	var dead []*DeviceRecord
	for _, rec := range r.records {
		if !rec.alive {
			dead = append(dead, rec)
		}
	}
	return dead
}
