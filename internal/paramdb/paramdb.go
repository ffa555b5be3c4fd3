package paramdb

import (
	"context"
	"fmt"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/bwojtowicz/lte-fdd-enb/internal/enberr"
	"github.com/bwojtowicz/lte-fdd-enb/internal/wire"
)

// RadioRetuner is the narrow capability ConfigDB needs from Radio when an
// EARFCN parameter changes. Passed in at construction instead of holding a
// pointer back to Radio, breaking the cyclic reference the original
// singleton design had between the config database and the radio.
type RadioRetuner interface {
	SetEARFCNs(dlEARFCN, ulEARFCN int64)
}

// DB is the eNodeB's process-wide parameter store.
type DB struct {
	mu      sync.RWMutex
	i64     map[Param]int64
	f64     map[Param]float64
	u32     map[Param]uint32
	started bool

	radio  RadioRetuner
	logger *zap.Logger
	tracer trace.Tracer

	sysInfoMu sync.RWMutex
	sysInfo   *SysInfo

	subscribers []chan *SysInfo
}

// New builds a DB with compiled-in defaults matching the original
// eNodeB's constructor. radio may be nil in tests that don't exercise
// EARFCN retuning.
func New(radio RadioRetuner, logger *zap.Logger) *DB {
	db := &DB{
		i64:    make(map[Param]int64),
		f64:    make(map[Param]float64),
		u32:    make(map[Param]uint32),
		radio:  radio,
		logger: logger,
		tracer: otel.Tracer("paramdb"),
	}

	db.f64[Bandwidth] = 10.0
	db.i64[FreqBand] = 0
	db.i64[DLEarfcn] = firstDLEarfcn[0]
	db.i64[ULEarfcn] = correspondingULEarfcn(firstDLEarfcn[0])
	db.i64[NRbDl] = NRb50MHz
	db.i64[NRbUl] = NRb50MHz
	db.i64[DLBandwidth] = int64(DLBandwidth50)
	db.i64[NScRbDl] = 12
	db.i64[NScRbUl] = 12
	db.i64[NAnt] = 1
	db.i64[NIDCell] = 0
	db.i64[NID2] = 0
	db.i64[NID1] = 0
	db.u32[MCC] = 0xFFFFF001
	db.u32[MNC] = 0xFFFFFF01
	db.i64[CellID] = 1
	db.i64[TrackingAreaCode] = 1
	db.i64[QRxLevMin] = -140
	db.i64[P0NominalPUSCH] = -70
	db.i64[P0NominalPUCCH] = -96
	db.i64[Sib3Present] = 0
	db.i64[QHyst] = 0
	db.i64[Sib4Present] = 0
	db.i64[Sib5Present] = 0
	db.i64[Sib6Present] = 0
	db.i64[Sib7Present] = 0
	db.i64[Sib8Present] = 0
	db.i64[SearchWinSize] = 0
	db.u32[SystemInfoValueTag] = 1
	db.i64[SystemInfoWindowLength] = 1
	db.i64[PHICHResource] = 1
	db.i64[NSchedInfo] = 1
	db.i64[SystemInfoPeriodicity] = 8
	db.u32[DebugType] = 0xFFFFFFFF
	db.u32[DebugLevel] = 0xFFFFFFFF
	db.i64[EnablePCAP] = 0

	return db
}

// Subscribe registers a channel that receives a copy of every published
// SysInfo snapshot. Matches the broadcast fan-out design note: layers
// hold an immutable value, never a pointer into the database.
func (db *DB) Subscribe(buf int) <-chan *SysInfo {
	ch := make(chan *SysInfo, buf)
	db.sysInfoMu.Lock()
	db.subscribers = append(db.subscribers, ch)
	current := db.sysInfo
	db.sysInfoMu.Unlock()
	if current != nil {
		ch <- current
	}
	return ch
}

// SetStarted marks the database as running; non-dynamic parameters reject
// writes once started.
func (db *DB) SetStarted(started bool) {
	db.mu.Lock()
	db.started = started
	db.mu.Unlock()
}

// nonDynamic lists parameters that may only be written before Start.
var nonDynamic = map[Param]bool{
	NRbDl: true, NRbUl: true, NScRbDl: true, NScRbUl: true, NAnt: true,
}

func (db *DB) checkDynamic(op string, p Param) error {
	if db.started && nonDynamic[p] {
		return enberr.New(op, enberr.VariableNotDynamic, paramName(p))
	}
	return nil
}

// SetInt64 sets an integer-valued parameter and applies any coupled
// parameter cascade (N_ID_CELL -> N_ID_1/N_ID_2, DL_EARFCN -> UL_EARFCN
// plus a radio retune).
func (db *DB) SetInt64(p Param, v int64) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if _, ok := db.i64[p]; !ok {
		return enberr.New("SetInt64", enberr.InvalidParam, paramName(p))
	}
	if err := db.checkDynamic("SetInt64", p); err != nil {
		return err
	}

	db.i64[p] = v

	switch p {
	case NIDCell:
		db.i64[NID2] = v % 3
		db.i64[NID1] = (v - v%3) / 3
	case DLEarfcn:
		ul := correspondingULEarfcn(v)
		db.i64[ULEarfcn] = ul
		if db.radio != nil {
			db.radio.SetEARFCNs(v, ul)
		}
	case FreqBand:
		if int(v) >= 0 && int(v) < len(firstDLEarfcn) {
			dl := firstDLEarfcn[v]
			db.i64[DLEarfcn] = dl
			ul := correspondingULEarfcn(dl)
			db.i64[ULEarfcn] = ul
			if db.radio != nil {
				db.radio.SetEARFCNs(dl, ul)
			}
		}
	}

	return nil
}

// SetDouble sets a float-valued parameter. Only Bandwidth is currently
// double-typed; setting it cascades N_RB_DL/UL and the DL_BW enum.
func (db *DB) SetDouble(p Param, v float64) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if _, ok := db.f64[p]; !ok {
		return enberr.New("SetDouble", enberr.InvalidParam, paramName(p))
	}
	if err := db.checkDynamic("SetDouble", p); err != nil {
		return err
	}

	db.f64[p] = v

	if p == Bandwidth {
		var nRb int64
		var bwEnum dlBandwidthEnum
		switch v {
		case 20:
			nRb, bwEnum = NRb100MHz, DLBandwidth100
		case 15:
			nRb, bwEnum = NRb75MHz, DLBandwidth75
		case 10:
			nRb, bwEnum = NRb50MHz, DLBandwidth50
		case 5:
			nRb, bwEnum = NRb25MHz, DLBandwidth25
		case 3:
			nRb, bwEnum = NRb15MHz, DLBandwidth15
		default:
			nRb, bwEnum = NRb6MHz, DLBandwidth6
		}
		db.i64[NRbDl] = nRb
		db.i64[NRbUl] = nRb
		db.i64[DLBandwidth] = int64(bwEnum)
	}

	return nil
}

// SetUint32 sets a raw 32-bit parameter (value tags, debug masks).
func (db *DB) SetUint32(p Param, v uint32) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if _, ok := db.u32[p]; !ok {
		return enberr.New("SetUint32", enberr.InvalidParam, paramName(p))
	}
	db.u32[p] = v
	return nil
}

// SetPackedDigitString packs a decimal digit string (MCC/MNC) into the
// uint32 slot as nibble-shifted BCD, matching the original's
// `value <<= 4; value |= (digit & 0x0F)` loop, seeded with all-F nibbles
// so a 2-digit MNC still terminates correctly.
func (db *DB) SetPackedDigitString(p Param, digits string) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if _, ok := db.u32[p]; !ok {
		return enberr.New("SetPackedDigitString", enberr.InvalidParam, paramName(p))
	}

	packed := uint32(0xFFFFFFFF)
	for i := 0; i < len(digits); i++ {
		packed <<= 4
		packed |= uint32(digits[i]) & 0x0F
	}
	db.u32[p] = packed
	return nil
}

func (db *DB) GetInt64(p Param) (int64, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	v, ok := db.i64[p]
	if !ok {
		return 0, enberr.New("GetInt64", enberr.InvalidParam, paramName(p))
	}
	return v, nil
}

func (db *DB) GetDouble(p Param) (float64, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	v, ok := db.f64[p]
	if !ok {
		return 0, enberr.New("GetDouble", enberr.InvalidParam, paramName(p))
	}
	return v, nil
}

func (db *DB) GetUint32(p Param) (uint32, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	v, ok := db.u32[p]
	if !ok {
		return 0, enberr.New("GetUint32", enberr.InvalidParam, paramName(p))
	}
	return v, nil
}

// ConstructSysInfo rebuilds the SysInfo snapshot from the current
// parameter values and broadcasts it to every subscriber. Grounded on
// LTE_fdd_enb_cnfg_db::construct_sys_info.
func (db *DB) ConstructSysInfo(ctx context.Context) (*SysInfo, error) {
	ctx, span := db.tracer.Start(ctx, "paramdb.ConstructSysInfo")
	defer span.End()

	db.mu.RLock()
	si := &SysInfo{
		NAnt:             int(db.i64[NAnt]),
		NIDCell:          int(db.i64[NIDCell]),
		NRbDl:            int(db.i64[NRbDl]),
		NRbUl:            int(db.i64[NRbUl]),
		NScRbDl:          int(db.i64[NScRbDl]),
		NScRbUl:          int(db.i64[NScRbUl]),
		SIPeriodicityT:   int(db.i64[SystemInfoPeriodicity]),
		SIWinLen:         int(db.i64[SystemInfoWindowLength]),
		CellID:           int(db.i64[CellID]),
		TrackingAreaCode: int(db.i64[TrackingAreaCode]),
		QRxLevMin:        int(db.i64[QRxLevMin]),
		MCC:              db.u32[MCC],
		MNC:              db.u32[MNC],
	}
	bw14 := db.i64[NRbDl] == NRb6MHz
	sibPresent := [6]bool{
		db.i64[Sib3Present] != 0, db.i64[Sib4Present] != 0, db.i64[Sib5Present] != 0,
		db.i64[Sib6Present] != 0, db.i64[Sib7Present] != 0, db.i64[Sib8Present] != 0,
	}
	mib := wire.MIB{
		DLBandwidth:   int(db.i64[DLBandwidth]),
		PHICHDuration: 0,
		PHICHResource: int(db.i64[PHICHResource]),
		SFN:           0,
	}
	sib2 := sib2Params{
		p0NominalPUSCH: int(db.i64[P0NominalPUSCH]),
		p0NominalPUCCH: int(db.i64[P0NominalPUCCH]),
		qHyst:          int(db.i64[QHyst]),
	}
	db.mu.RUnlock()

	si.SchedInfo = buildSchedInfo(sibPresent, bw14, sib2)
	si.MIBImage = wire.PackMIB(mib)
	si.SIB1Image = wire.PackSIB1(wire.SIB1{
		CellID:           si.CellID,
		TrackingAreaCode: si.TrackingAreaCode,
		MCC:              si.MCC,
		MNC:              si.MNC,
		QRxLevMin:        si.QRxLevMin,
		SIWindowLength:   si.SIWinLen,
		SIPeriodicity:    si.SIPeriodicityT,
		NSchedInfo:       len(si.SchedInfo),
	})

	if db.logger != nil {
		db.logger.Debug("constructed sys info",
			zap.Int("n_id_cell", si.NIDCell),
			zap.Int("n_rb_dl", si.NRbDl),
			zap.Int("sched_info_entries", len(si.SchedInfo)))
	}

	db.sysInfoMu.Lock()
	db.sysInfo = si
	subs := append([]chan *SysInfo(nil), db.subscribers...)
	db.sysInfoMu.Unlock()

	for _, ch := range subs {
		select {
		case ch <- si:
		default:
			if db.logger != nil {
				db.logger.Warn("sys info subscriber channel full, dropping stale slot")
			}
			// drain one stale entry then retry once, never block the
			// publishing goroutine on a slow subscriber.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- si:
			default:
			}
		}
	}

	return si, nil
}

// GetSysInfo returns the most recently published snapshot, or nil if
// ConstructSysInfo has never run.
func (db *DB) GetSysInfo() *SysInfo {
	db.sysInfoMu.RLock()
	defer db.sysInfoMu.RUnlock()
	return db.sysInfo
}

func paramName(p Param) string {
	names := map[Param]string{
		Bandwidth: "bandwidth", FreqBand: "freq_band", DLEarfcn: "dl_earfcn", ULEarfcn: "ul_earfcn",
		NRbDl: "n_rb_dl", NRbUl: "n_rb_ul", DLBandwidth: "dl_bandwidth", NScRbDl: "n_sc_rb_dl",
		NScRbUl: "n_sc_rb_ul", NAnt: "n_ant", NIDCell: "n_id_cell", NID1: "n_id_1", NID2: "n_id_2",
		MCC: "mcc", MNC: "mnc", CellID: "cell_id", TrackingAreaCode: "tracking_area_code",
		QRxLevMin: "q_rx_lev_min", P0NominalPUSCH: "p0_nominal_pusch", P0NominalPUCCH: "p0_nominal_pucch",
		Sib3Present: "sib3_present", Sib4Present: "sib4_present", Sib5Present: "sib5_present",
		Sib6Present: "sib6_present", Sib7Present: "sib7_present", Sib8Present: "sib8_present",
		QHyst: "q_hyst", SearchWinSize: "search_win_size", SystemInfoValueTag: "system_info_value_tag",
		SystemInfoWindowLength: "system_info_window_length", PHICHResource: "phich_resource",
		NSchedInfo: "n_sched_info", SystemInfoPeriodicity: "system_info_periodicity",
		DebugType: "debug_type", DebugLevel: "debug_level", EnablePCAP: "enable_pcap",
	}
	if n, ok := names[p]; ok {
		return n
	}
	return fmt.Sprintf("param(%d)", p)
}
