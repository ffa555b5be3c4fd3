package paramdb

import "github.com/bwojtowicz/lte-fdd-enb/internal/wire"

// SysInfo is the immutable snapshot ConfigDB hands to every layer after a
// parameter change that affects over-the-air system information. Layers
// receive it by value (a pointer to an otherwise-never-mutated struct);
// ConfigDB never writes through a pointer it has already published.
type SysInfo struct {
	NAnt             int
	NIDCell          int
	NRbDl            int
	NRbUl            int
	NScRbDl          int
	NScRbUl          int
	SIPeriodicityT   int
	SIWinLen         int
	CellID           int
	TrackingAreaCode int
	QRxLevMin        int
	MCC              uint32
	MNC              uint32

	// MIBImage and SIB1Image are the packed BCH/BCCH transport block
	// images construct_sys_info produces alongside the descriptive
	// fields above.
	MIBImage  []byte
	SIB1Image []byte

	// SchedInfo holds one entry per SIB scheduling window. Entry 0
	// always exists (it carries SIB2, present unconditionally); later
	// entries exist only if there are further present SIBs to carry.
	SchedInfo []SchedInfoEntry
}

// SchedInfoEntry names the SIB numbers packed into one scheduling window,
// the periodicity that window repeats at, and the packed transport block
// image the window broadcasts.
type SchedInfoEntry struct {
	SIBNumbers  []int
	Periodicity int // in radio frames, e.g. 8 for RF8
	Image       []byte
}

// sib2Params carries the radio-resource-config-common fields needed to
// pack entry 0's SIB2 image, kept separate from SysInfo's other fields
// since only buildSchedInfo consumes them.
type sib2Params struct {
	p0NominalPUSCH int
	p0NominalPUCCH int
	qHyst          int
}

// buildSchedInfo distributes the present optional SIBs (3..8) across
// scheduling-info entries, grounded on construct_sys_info's SIB-to-entry
// packing: entry 0 always exists for SIB2; a 1.4 MHz cell bandwidth
// carries at most one extra SIB per entry, every other bandwidth carries
// up to two. New entries repeat at RF8. Every entry's Image is populated
// with its packed transport block: entry 0 always carries the packed
// SIB2 image, later entries carry a tag per mapped SIB number.
func buildSchedInfo(sibPresent [6]bool, narrowBandwidth bool, sib2 sib2Params) []SchedInfoEntry {
	var present []int
	for i, p := range sibPresent {
		if p {
			present = append(present, i+3)
		}
	}

	capacity := 2
	if narrowBandwidth {
		capacity = 1
	}

	sib2Image := wire.PackSIB2(wire.SIB2{
		P0NominalPUSCH: sib2.p0NominalPUSCH,
		P0NominalPUCCH: sib2.p0NominalPUCCH,
		QHyst:          sib2.qHyst,
	})
	entries := []SchedInfoEntry{{SIBNumbers: nil, Periodicity: 8, Image: sib2Image}}
	for len(present) > 0 {
		n := capacity
		if n > len(present) {
			n = len(present)
		}
		group := present[:n]
		var image []byte
		for _, sibNumber := range group {
			image = append(image, wire.PackOptionalSIB(sibNumber)...)
		}
		entries = append(entries, SchedInfoEntry{SIBNumbers: group, Periodicity: 8, Image: image})
		present = present[n:]
	}

	return entries
}
