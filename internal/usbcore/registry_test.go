package usbcore

import "testing"

func TestRegistryInsertAndLookup(t *testing.T) {
	r := newRegistry()
	rec := &DeviceRecord{key: deviceKey{bus: 1, address: 2}}

	if !r.insert(rec) {
		t.Fatal("expected first insert to succeed")
	}
	if r.insert(rec) {
		t.Fatal("expected duplicate insert to fail")
	}

	got := r.lookup(deviceKey{bus: 1, address: 2})
	if got != rec {
		t.Fatalf("lookup returned %v, want %v", got, rec)
	}
}

func TestRegistryLookupMiss(t *testing.T) {
	r := newRegistry()
	if r.lookup(deviceKey{bus: 9, address: 9}) != nil {
		t.Fatal("expected miss on empty registry")
	}
}

func TestRegistryTailInsertionOrder(t *testing.T) {
	r := newRegistry()
	a := &DeviceRecord{key: deviceKey{bus: 1, address: 1}}
	b := &DeviceRecord{key: deviceKey{bus: 1, address: 2}}
	c := &DeviceRecord{key: deviceKey{bus: 1, address: 3}}

	r.insert(a)
	r.insert(b)
	r.insert(c)

	var order []*DeviceRecord
	r.each(func(rec *DeviceRecord) { order = append(order, rec) })

	if len(order) != 3 || order[0] != a || order[1] != b || order[2] != c {
		t.Fatalf("unexpected iteration order: %v", order)
	}
}

func TestRegistryRemove(t *testing.T) {
	r := newRegistry()
	a := &DeviceRecord{key: deviceKey{bus: 1, address: 1}}
	b := &DeviceRecord{key: deviceKey{bus: 1, address: 2}}
	r.insert(a)
	r.insert(b)

	r.remove(a)

	if r.len() != 1 {
		t.Fatalf("expected 1 record after remove, got %d", r.len())
	}
	if r.lookup(a.key) != nil {
		t.Fatal("expected removed record to no longer be found")
	}
	if r.lookup(b.key) == nil {
		t.Fatal("expected remaining record to still be found")
	}
}

func TestRegistryDeadSnapshot(t *testing.T) {
	r := newRegistry()
	alive := &DeviceRecord{key: deviceKey{bus: 1, address: 1}, alive: true}
	dead := &DeviceRecord{key: deviceKey{bus: 1, address: 2}, alive: false}
	r.insert(alive)
	r.insert(dead)

	snap := r.deadSnapshot()
	if len(snap) != 1 || snap[0] != dead {
		t.Fatalf("expected only the dead record in the snapshot, got %v", snap)
	}
	if r.len() != 2 {
		t.Fatal("deadSnapshot must not mutate the registry")
	}
}

func TestRegistryNoDuplicateBusAddress(t *testing.T) {
	r := newRegistry()
	r.insert(&DeviceRecord{key: deviceKey{bus: 1, address: 1}})
	r.insert(&DeviceRecord{key: deviceKey{bus: 1, address: 1}})

	if r.len() != 1 {
		t.Fatalf("expected registry to reject the duplicate (bus, address), got %d records", r.len())
	}
}
