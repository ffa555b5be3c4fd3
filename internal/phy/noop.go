package phy

import (
	"github.com/bwojtowicz/lte-fdd-enb/internal/mac"
	"github.com/bwojtowicz/lte-fdd-enb/internal/paramdb"
)

// NoopDSP satisfies DSP without performing any signal processing. It is
// the default binding when no real 3GPP PHY DSP library is configured:
// the TTI/scheduling pipeline runs end to end, but no RF is actually
// encoded or decoded. Useful for the no-RF radio variant and for
// integration tests that only care about message flow.
type NoopDSP struct{}

func (NoopDSP) EncodeDL(si *paramdb.SysInfo, tti uint32, slot mac.DLSlot) []complex64 {
	return nil
}

func (NoopDSP) DecodeUL(si *paramdb.SysInfo, tti uint32, rx []complex64) (bool, []uint8, []uint32) {
	return false, nil, nil
}
