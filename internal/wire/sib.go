package wire

// MIB carries the fields packed into the Master Information Block
// broadcast on BCH every radio frame. Field widths follow 36.331's
// MasterInformationBlock IE: 3-bit dl-Bandwidth, 3-bit phich-Config,
// 8-bit SFN, with the remaining 10 bits reserved for future use.
type MIB struct {
	DLBandwidth   int // index into {1.4,3,5,10,15,20} MHz
	PHICHDuration int // 0 = normal, 1 = extended
	PHICHResource int // index into {1/6,1/2,1,2}
	SFN           int // the 8 MSBs of the 10-bit system frame number
}

// PackMIB packs m into the 24-bit BCH transport block image.
func PackMIB(m MIB) []byte {
	w := &BitWriter{}
	w.WriteBits(uint32(m.DLBandwidth), 3)
	w.WriteBit(m.PHICHDuration != 0)
	w.WriteBits(uint32(m.PHICHResource), 2)
	w.WriteBits(uint32(m.SFN), 8)
	w.WriteBits(0, 10)
	return w.Bytes()
}

// SIB1 carries the cell-selection and scheduling-info fields packed
// into SystemInformationBlockType1, the one SIB construct_sys_info
// always builds regardless of which optional SIBs are present.
type SIB1 struct {
	CellID           int
	TrackingAreaCode int
	MCC              uint32
	MNC              uint32
	QRxLevMin        int
	SIWindowLength   int
	SIPeriodicity    int
	NSchedInfo       int
}

// PackSIB1 packs s into its transport block image.
func PackSIB1(s SIB1) []byte {
	w := &BitWriter{}
	w.WriteBits(uint32(s.CellID), 28)
	w.WriteBits(uint32(s.TrackingAreaCode), 16)
	w.WriteBits(s.MCC, 20)
	w.WriteBits(s.MNC, 20)
	w.WriteBits(uint32(s.QRxLevMin+140), 7) // -140..-44 dBm, TS 36.331 Q-RxLevMin
	w.WriteBits(uint32(s.SIWindowLength), 4)
	w.WriteBits(uint32(s.SIPeriodicity), 4)
	w.WriteBits(uint32(s.NSchedInfo), 5)
	return w.Bytes()
}

// SIB2 carries the common radio-resource-config fields broadcast
// unconditionally in scheduling-info entry 0.
type SIB2 struct {
	P0NominalPUSCH int
	P0NominalPUCCH int
	QHyst          int
}

// PackSIB2 packs s into its transport block image.
func PackSIB2(s SIB2) []byte {
	w := &BitWriter{}
	w.WriteBits(uint32(s.P0NominalPUSCH+126), 8) // -126..24 dBm
	w.WriteBits(uint32(s.P0NominalPUCCH+127), 8) // -127..-96 dBm, excerpted range
	w.WriteBits(uint32(s.QHyst), 4)
	return w.Bytes()
}

// PackOptionalSIB packs a presence-only placeholder for one of
// SIB3..SIB8. ConfigDB tracks only whether each optional SIB is
// present (the SibNPresent parameters), not its full radio-resource
// content, so the packed image carries just the SIB number tag.
func PackOptionalSIB(sibNumber int) []byte {
	w := &BitWriter{}
	w.WriteBits(uint32(sibNumber), 4)
	return w.Bytes()
}
