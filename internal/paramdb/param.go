// Package paramdb implements the process-wide 3GPP configuration database
// (ConfigDB): a typed parameter store with coupled-parameter rules, and the
// SysInfo snapshot builder that packs MIB/SIB1..SIB8 and fans the result
// out to every protocol layer. It is grounded on the original eNodeB's
// LTE_fdd_enb_cnfg_db.cc, rebuilt as a Go value store instead of a
// boost::mutex-guarded singleton.
package paramdb

// Param names the fixed enumeration of parameters the database understands.
type Param int

const (
	Bandwidth Param = iota
	FreqBand
	DLEarfcn
	ULEarfcn
	NRbDl
	NRbUl
	DLBandwidth
	NScRbDl
	NScRbUl
	NAnt
	NIDCell
	NID1
	NID2
	MCC
	MNC
	CellID
	TrackingAreaCode
	QRxLevMin
	P0NominalPUSCH
	P0NominalPUCCH
	Sib3Present
	Sib4Present
	Sib5Present
	Sib6Present
	Sib7Present
	Sib8Present
	QHyst
	SearchWinSize
	SystemInfoValueTag
	SystemInfoWindowLength
	PHICHResource
	NSchedInfo
	SystemInfoPeriodicity
	DebugType
	DebugLevel
	EnablePCAP
)

// kind distinguishes the four value representations a Parameter can hold.
type kind int

const (
	kindInt64 kind = iota
	kindDouble
	kindUint32
	kindPackedDigits
)

// dlBandwidthEnum mirrors LIBLTE_RRC_DL_BANDWIDTH_* constants.
type dlBandwidthEnum int64

const (
	DLBandwidth6   dlBandwidthEnum = 0
	DLBandwidth15  dlBandwidthEnum = 1
	DLBandwidth25  dlBandwidthEnum = 2
	DLBandwidth50  dlBandwidthEnum = 3
	DLBandwidth75  dlBandwidthEnum = 4
	DLBandwidth100 dlBandwidthEnum = 5
)

// N_RB_DL/UL values for each channel bandwidth, from LIBLTE_PHY_N_RB_*.
const (
	NRb6MHz   = 6
	NRb15MHz  = 15
	NRb25MHz  = 25
	NRb50MHz  = 50
	NRb75MHz  = 75
	NRb100MHz = 100
)

// firstDLEarfcn maps a frequency band index to its first DL EARFCN, a
// tiny excerpt of 3GPP TS 36.101 Table 5.7.3-1 sufficient for the bands
// this eNodeB ships with.
var firstDLEarfcn = []int64{0, 18000, 18600, 19200, 19800, 20400, 20600, 20750, 21450, 21850, 22050}

// earfcnUlOffset mirrors liblte_interface_get_corresponding_ul_earfcn: a
// fixed per-band UL/DL EARFCN offset.
var earfcnUlOffset = map[int64]int64{
	0: 18000, 1: 18600, 2: 19200, 3: 19800, 4: 20400,
	5: 20600, 6: 20750, 7: 21450, 8: 21850, 9: 22050,
}

func correspondingULEarfcn(dlEarfcn int64) int64 {
	band := bandForDLEarfcn(dlEarfcn)
	return dlEarfcn - firstDLEarfcn[band] + earfcnUlOffset[band]
}

func bandForDLEarfcn(dlEarfcn int64) int64 {
	band := int64(0)
	for i := len(firstDLEarfcn) - 1; i >= 0; i-- {
		if dlEarfcn >= firstDLEarfcn[i] {
			band = int64(i)
			break
		}
	}
	return band
}
