package usbcore

import (
	"testing"

	"github.com/google/gousb"
)

func TestSortDescending(t *testing.T) {
	nums := []int{3, 1, 4, 1, 5, 9, 2, 6}
	sortDescending(nums)
	want := []int{9, 6, 5, 4, 3, 2, 1, 1}
	for i := range want {
		if nums[i] != want[i] {
			t.Fatalf("sortDescending = %v, want %v", nums, want)
		}
	}
}

func TestMatchesClassOnAnyOfTriple(t *testing.T) {
	cases := []struct {
		name string
		alt  gousb.InterfaceSetting
		want bool
	}{
		{"full multiplex triple", gousb.InterfaceSetting{Class: classMultiplex, SubClass: subclassMultiplex, Protocol: protocolMultiplex}, true},
		{"class only", gousb.InterfaceSetting{Class: classMultiplex}, true},
		{"subclass only", gousb.InterfaceSetting{SubClass: subclassMultiplex}, true},
		{"protocol only", gousb.InterfaceSetting{Protocol: protocolMultiplex}, true},
		{"valeria protocol only", gousb.InterfaceSetting{Protocol: protocolValeria}, true},
		{"unrelated", gousb.InterfaceSetting{Class: 0x08, SubClass: 0x06, Protocol: 0x50}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := matchesClass(tc.alt); got != tc.want {
				t.Errorf("matchesClass(%+v) = %v, want %v", tc.alt, got, tc.want)
			}
		})
	}
}

func TestSelectConfigPicksHighestMatchingConfig(t *testing.T) {
	multiplexAlt := gousb.InterfaceSetting{
		Class: classMultiplex, SubClass: subclassMultiplex, Protocol: protocolMultiplex,
		Endpoints: map[gousb.EndpointAddress]gousb.EndpointDesc{
			0x01: {Number: 1, Direction: gousb.EndpointDirectionOut, TransferType: gousb.TransferTypeBulk, MaxPacketSize: 64},
			0x81: {Number: 1, Direction: gousb.EndpointDirectionIn, TransferType: gousb.TransferTypeBulk, MaxPacketSize: 64},
		},
	}

	desc := &gousb.DeviceDesc{
		Configs: map[int]gousb.ConfigDesc{
			1: {Number: 1, Interfaces: []gousb.InterfaceDesc{{Number: 0, AltSettings: []gousb.InterfaceSetting{{Class: 0x08}}}}},
			4: {Number: 4, Interfaces: []gousb.InterfaceDesc{{Number: 1, AltSettings: []gousb.InterfaceSetting{multiplexAlt}}}},
		},
	}

	sel, ok := selectConfig(desc)
	if !ok {
		t.Fatal("expected a match")
	}
	if sel.configNum != 4 {
		t.Errorf("expected highest matching config 4, got %d", sel.configNum)
	}
	if sel.ifaceNum != 1 {
		t.Errorf("expected interface 1, got %d", sel.ifaceNum)
	}
	if sel.epOut != 0x01 || sel.epIn != 0x81 {
		t.Errorf("unexpected endpoints out=%#x in=%#x", sel.epOut, sel.epIn)
	}
}

func TestSelectConfigNoMatch(t *testing.T) {
	desc := &gousb.DeviceDesc{
		Configs: map[int]gousb.ConfigDesc{
			1: {Number: 1, Interfaces: []gousb.InterfaceDesc{{Number: 0, AltSettings: []gousb.InterfaceSetting{{Class: 0x08}}}}},
		},
	}
	if _, ok := selectConfig(desc); ok {
		t.Error("expected no match")
	}
}
