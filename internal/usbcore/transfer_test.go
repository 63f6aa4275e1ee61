package usbcore

import "testing"

func TestZLPNeeded(t *testing.T) {
	cases := []struct {
		name      string
		dataLen   int
		maxPacket int
		want      bool
	}{
		{"exact multiple", 512, 512, true},
		{"exact multiple larger", 1024, 512, true},
		{"not a multiple", 4, 64, false},
		{"zero length with known max packet", 0, 64, true},
		{"unknown max packet", 64, 0, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := zlpNeeded(tc.dataLen, tc.maxPacket); got != tc.want {
				t.Errorf("zlpNeeded(%d, %d) = %v, want %v", tc.dataLen, tc.maxPacket, got, tc.want)
			}
		})
	}
}

func TestTransferPoolAddRemove(t *testing.T) {
	p := newTransferPool()
	t1 := &inflightTransfer{}
	t2 := &inflightTransfer{}

	p.add(t1)
	p.add(t2)
	if p.len() != 2 {
		t.Fatalf("expected 2 entries, got %d", p.len())
	}

	p.remove(t1)
	if p.len() != 1 {
		t.Fatalf("expected 1 entry after remove, got %d", p.len())
	}
}

func TestTransferPoolForceFree(t *testing.T) {
	p := newTransferPool()
	p.add(&inflightTransfer{})
	p.add(&inflightTransfer{})

	p.forceFree()
	if p.len() != 0 {
		t.Fatalf("expected pool empty after forceFree, got %d entries", p.len())
	}
}

func TestTransferPoolCancelAllInvokesEveryCancel(t *testing.T) {
	p := newTransferPool()
	called := make(map[*inflightTransfer]bool)

	mk := func() *inflightTransfer {
		t := &inflightTransfer{}
		t.cancel = func() { called[t] = true }
		return t
	}
	a, b := mk(), mk()
	p.add(a)
	p.add(b)

	p.cancelAll()

	if !called[a] || !called[b] {
		t.Fatal("expected cancelAll to invoke every transfer's cancel func")
	}
}
