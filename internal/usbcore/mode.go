package usbcore

import (
	"github.com/google/gousb"
)

// guessMode maps a device's configuration count, and for the ambiguous
// 5-configuration case its interface classes, to one of the operating
// modes spec.md §8 defines. A return of 0 means undetermined: the caller
// should fall back to whatever mode the device is already sitting in.
func guessMode(desc *gousb.DeviceDesc) int {
	n := len(desc.Configs)

	switch {
	case n == 1:
		return 5
	case n >= 2 && n <= 4:
		return 1
	case n == 6:
		return 4
	case n == 5:
		return guessModeFromInterfaces(desc)
	default:
		return 0
	}
}

// guessModeFromInterfaces disambiguates the 5-configuration case by
// inspecting configuration 5 specifically (spec.md §4.3/§8): the guess is
// 2 or 3 only when that configuration carries BOTH the multiplex
// interface (the class/subclass/protocol triple selectConfig matches on)
// AND a Valeria or CDC-NCM interface respectively. Either alone, or
// neither, leaves the guess undetermined.
func guessModeFromInterfaces(desc *gousb.DeviceDesc) int {
	cfg, ok := desc.Configs[5]
	if !ok {
		return 0
	}

	hasMultiplex, hasValeria, hasCDCNCM := false, false, false
	for _, ifc := range cfg.Interfaces {
		for _, alt := range ifc.AltSettings {
			if isMultiplexInterface(alt) {
				hasMultiplex = true
			}
			if isValeriaInterface(alt) {
				hasValeria = true
			}
			if isCDCNCM(alt) {
				hasCDCNCM = true
			}
		}
	}

	switch {
	case hasMultiplex && hasValeria:
		return 2
	case hasMultiplex && hasCDCNCM:
		return 3
	default:
		return 0
	}
}

// isMultiplexInterface reports whether alt is exactly the multiplex
// interface's class/subclass/protocol triple (a strict AND match, unlike
// selectConfig's deliberately broad OR match over the same fields).
func isMultiplexInterface(alt gousb.InterfaceSetting) bool {
	return int(alt.Class) == classMultiplex && int(alt.SubClass) == subclassMultiplex && int(alt.Protocol) == protocolMultiplex
}

// isValeriaInterface reports whether alt is exactly the Valeria
// interface's class/subclass/protocol triple.
func isValeriaInterface(alt gousb.InterfaceSetting) bool {
	return int(alt.Class) == classValeria && int(alt.SubClass) == subclassValeria && int(alt.Protocol) == protocolValeria
}

// decideAction compares a mode guess against the desired mode and reports
// whether a SET_MODE control transfer should be issued, per spec.md §8:
// an undetermined guess (0) is always left alone, and a guess already
// matching desired is left alone too.
func decideAction(guess, desired int) (switchNeeded bool) {
	if guess == 0 {
		return false
	}
	return guess != desired
}
