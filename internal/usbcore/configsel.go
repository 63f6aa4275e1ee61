package usbcore

import (
	"fmt"

	"github.com/google/gousb"
)

// selectedConfig is the outcome of walking a device's configuration
// descriptors: the chosen config/interface numbers and the endpoint pair
// to use for bulk transfer.
type selectedConfig struct {
	configNum int
	ifaceNum  int
	epOut     uint8
	epIn      uint8
}

// selectConfig walks a device's descriptor tree from the highest config
// number down to the lowest, looking for an interface matching the
// multiplex or Valeria class/subclass/protocol triple. A match on any one
// of the three fields is enough (spec.md §9 calls this broad-by-design:
// real devices vary firmware revisions enough that an AND-match misses
// legitimate candidates).
func selectConfig(desc *gousb.DeviceDesc) (selectedConfig, bool) {
	configNums := make([]int, 0, len(desc.Configs))
	for num := range desc.Configs {
		configNums = append(configNums, num)
	}
	sortDescending(configNums)

	for _, cfgNum := range configNums {
		cfg := desc.Configs[cfgNum]
		ifaceNums := make([]int, 0, len(cfg.Interfaces))
		for _, ifc := range cfg.Interfaces {
			ifaceNums = append(ifaceNums, ifc.Number)
		}
		sortDescending(ifaceNums)

		for _, ifaceNum := range ifaceNums {
			ifc := findInterface(cfg, ifaceNum)
			if ifc == nil || len(ifc.AltSettings) == 0 {
				continue
			}
			alt := ifc.AltSettings[0]
			if !matchesClass(alt) {
				continue
			}
			epOut, epIn, ok := findBulkPair(alt)
			if !ok {
				continue
			}
			return selectedConfig{
				configNum: cfgNum,
				ifaceNum:  ifaceNum,
				epOut:     epOut,
				epIn:      epIn,
			}, true
		}
	}
	return selectedConfig{}, false
}

func findInterface(cfg gousb.ConfigDesc, num int) *gousb.InterfaceDesc {
	for _, ifc := range cfg.Interfaces {
		if ifc.Number == num {
			return &ifc
		}
	}
	return nil
}

// matchesClass reports whether an interface's class/subclass/protocol
// triple matches the plain multiplex interface or the Valeria variant. A
// device only needs to satisfy one field of one triple, not all three.
func matchesClass(alt gousb.InterfaceSetting) bool {
	if int(alt.Class) == classMultiplex || int(alt.SubClass) == subclassMultiplex || int(alt.Protocol) == protocolMultiplex {
		return true
	}
	if int(alt.Class) == classValeria || int(alt.SubClass) == subclassValeria || int(alt.Protocol) == protocolValeria {
		return true
	}
	return false
}

// isCDCNCM reports whether an interface is a CDC-NCM control interface,
// used by the mode guess to disambiguate a 5-configuration device
// (spec.md §8).
func isCDCNCM(alt gousb.InterfaceSetting) bool {
	return int(alt.Class) == classCDCNCM && int(alt.SubClass) == subclassCDCNCM
}

// findBulkPair returns an OUT/IN bulk endpoint pair on an interface's
// active alt setting. When the setting has more than one bulk endpoint in
// the same direction, which of them is returned is not defined.
func findBulkPair(alt gousb.InterfaceSetting) (epOut, epIn uint8, ok bool) {
	var foundOut, foundIn uint8
	var hasOut, hasIn bool
	for addr, ep := range alt.Endpoints {
		if ep.TransferType != gousb.TransferTypeBulk {
			continue
		}
		switch ep.Direction {
		case gousb.EndpointDirectionOut:
			foundOut = uint8(addr)
			hasOut = true
		case gousb.EndpointDirectionIn:
			foundIn = uint8(addr)
			hasIn = true
		}
	}
	return foundOut, foundIn, hasOut && hasIn
}

func sortDescending(nums []int) {
	for i := 1; i < len(nums); i++ {
		for j := i; j > 0 && nums[j-1] < nums[j]; j-- {
			nums[j-1], nums[j] = nums[j], nums[j-1]
		}
	}
}

// claimInterface opens the chosen config/interface/endpoints on a handle,
// detaching the kernel driver first if one is attached. Mirrors the
// open-or-unwind chain the handle's caller expects: every intermediate
// resource is released before returning an error.
func claimInterface(dev *gousb.Device, sel selectedConfig) (*gousb.Config, *gousb.Interface, *gousb.OutEndpoint, *gousb.InEndpoint, error) {
	dev.SetAutoDetach(true)

	cfg, err := dev.Config(sel.configNum)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("set config %d: %w", sel.configNum, err)
	}

	ifc, err := cfg.Interface(sel.ifaceNum, 0)
	if err != nil {
		cfg.Close()
		return nil, nil, nil, nil, fmt.Errorf("claim interface %d: %w", sel.ifaceNum, err)
	}

	epOut, err := ifc.OutEndpoint(int(sel.epOut & 0x0f))
	if err != nil {
		ifc.Close()
		cfg.Close()
		return nil, nil, nil, nil, fmt.Errorf("open out endpoint %#x: %w", sel.epOut, err)
	}

	epIn, err := ifc.InEndpoint(int(sel.epIn & 0x0f))
	if err != nil {
		ifc.Close()
		cfg.Close()
		return nil, nil, nil, nil, fmt.Errorf("open in endpoint %#x: %w", sel.epIn, err)
	}

	return cfg, ifc, epOut, epIn, nil
}
