package mac

import (
	"context"
	"sync"
	"sync/atomic"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/bwojtowicz/lte-fdd-enb/internal/enberr"
	"github.com/bwojtowicz/lte-fdd-enb/internal/msgbus"
	"github.com/bwojtowicz/lte-fdd-enb/internal/paramdb"
	"github.com/bwojtowicz/lte-fdd-enb/internal/registry"
)

// MAC owns the scheduler: ten rotating DL/UL subframe slots and the
// three priority-ordered FIFOs feeding them.
type MAC struct {
	mu      sync.Mutex
	dlSlots [numSlots]DLSlot
	ulSlots [numSlots]ULSlot

	ra raQueue
	dl dlQueue
	ul ulQueue

	registry *registry.Registry

	nRbDl int32
	nRbUl int32
	si    atomic.Pointer[paramdb.SysInfo]

	toPHY  *msgbus.Queue
	logger *zap.Logger
	tracer trace.Tracer

	// capture, if set, is invoked with every transmitted DL allocation's
	// transport block so a PCAP sink can log it. Grounded on the EnablePCAP
	// parameter gating LTE_fdd_enb_mac's capture calls.
	capture func(tti uint32, rnti uint16, tb []byte)
}

// SetCapture installs a sink for scheduled DL transport blocks, e.g. to
// write them to a MAC-LTE capture file. Passing nil disables capture.
func (m *MAC) SetCapture(fn func(tti uint32, rnti uint16, tb []byte)) {
	m.mu.Lock()
	m.capture = fn
	m.mu.Unlock()
}

// New constructs a MAC with the slot ring pre-seeded at TTIs 0..9 (so
// the reconciliation loops in advanceDL/advanceUL have a well-defined starting
// residue class to advance from), subscribes to paramdb sys-info
// updates, and attaches the PHY->MAC queue.
func New(reg *registry.Registry, sysInfoUpdates <-chan *paramdb.SysInfo, bus *msgbus.Bus, logger *zap.Logger) *MAC {
	m := &MAC{
		registry: reg,
		nRbDl:    NRbDefault,
		nRbUl:    NRbDefault,
		logger:   logger,
		tracer:   otel.Tracer("mac"),
	}

	for i := 0; i < numSlots; i++ {
		m.dlSlots[i].clear(uint32(i), int(m.nRbDl))
		m.ulSlots[i].clear(uint32(i), int(m.nRbUl))
	}

	m.toPHY = bus.CreateQueue("mac_phy", true)
	fromPHY := bus.CreateQueue("phy_mac", true)
	bus.Attach(fromPHY, m.handlePHYMessage)

	go m.watchSysInfo(sysInfoUpdates)

	return m
}

// NRbDefault is the resource-block count used before the first SysInfo
// snapshot arrives (10 MHz cell bandwidth).
const NRbDefault = 50

func (m *MAC) watchSysInfo(updates <-chan *paramdb.SysInfo) {
	for si := range updates {
		m.si.Store(si)
		atomic.StoreInt32(&m.nRbDl, int32(si.NRbDl))
		atomic.StoreInt32(&m.nRbUl, int32(si.NRbUl))
	}
}

func (m *MAC) sysInfo() *paramdb.SysInfo { return m.si.Load() }

func (m *MAC) handlePHYMessage(msg msgbus.Message) {
	switch msg.Kind {
	case msgbus.KindReadyToSend:
		rts, ok := msg.Payload.(msgbus.ReadyToSend)
		if ok {
			m.HandleReadyToSend(rts)
		}
	case msgbus.KindPrachDecode:
		pd, ok := msg.Payload.(msgbus.PrachDecode)
		if ok {
			m.HandlePrachDecode(pd)
		}
	case msgbus.KindPucchDecode, msgbus.KindPuschDecode:
		// Out of scope per the core's collaborator boundary (PHY DSP
		// owns PUCCH/PUSCH demodulation); the core only schedules.
		if m.logger != nil {
			m.logger.Debug("ignoring decode event outside scheduler scope", zap.String("kind", msg.Kind.String()))
		}
	}
}

// advanceDL (and advanceUL below) clears and re-tags dlSlots[idx] / ulSlots[idx] forward by
// whole windows of 10 until its TTI matches target, matching the
// "bump by 10 and clear" reconciliation the original performs on every
// ReadyToSend.
func (m *MAC) advanceDL(target uint32) *DLSlot {
	idx := target % numSlots
	s := &m.dlSlots[idx]
	for s.TTI != target {
		next := AddTTI(s.TTI, numSlots)
		reserved := ReservedPRBs(next, m.sysInfo())
		avail := int(atomic.LoadInt32(&m.nRbDl)) - reserved
		s.clear(next, avail)
	}
	return s
}

func (m *MAC) advanceUL(target uint32) *ULSlot {
	idx := target % numSlots
	s := &m.ulSlots[idx]
	for s.TTI != target {
		next := AddTTI(s.TTI, numSlots)
		s.clear(next, int(atomic.LoadInt32(&m.nRbUl)))
	}
	return s
}

// HandleReadyToSend reconciles the DL/UL slots named by rts, runs the
// three scheduler passes in RAR -> DL -> UL order, and forwards the
// resulting schedules to PHY.
func (m *MAC) HandleReadyToSend(rts msgbus.ReadyToSend) {
	_, span := m.tracer.Start(context.Background(), "mac.scheduler")
	defer span.End()

	m.mu.Lock()
	defer m.mu.Unlock()

	dlSlot := m.advanceDL(rts.DLTTI)
	ulSlotPlus4 := m.advanceUL(AddTTI(rts.DLTTI, 4))
	ulSlotPlus6 := m.advanceUL(AddTTI(rts.DLTTI, 6))
	ulSlotNow := m.advanceUL(rts.ULTTI)

	m.scheduleRAR(dlSlot, ulSlotPlus6)
	m.scheduleDLUsers(dlSlot)
	m.scheduleULUsers(dlSlot, ulSlotPlus4)

	if m.capture != nil {
		for _, alloc := range dlSlot.Allocations {
			m.capture(dlSlot.TTI, alloc.RNTI, alloc.TB)
		}
	}

	m.toPHY.TrySend(msgbus.Message{
		Kind: msgbus.KindDLSchedule, Origin: msgbus.LayerMAC, Destination: msgbus.LayerPHY,
		Payload: *dlSlot,
	})
	m.toPHY.TrySend(msgbus.Message{
		Kind: msgbus.KindULSchedule, Origin: msgbus.LayerMAC, Destination: msgbus.LayerPHY,
		Payload: *ulSlotNow,
	})
}

// HandlePrachDecode allocates a C-RNTI and placeholder user for a
// detected preamble and enqueues a RAR request, per
// LTE_fdd_enb_mac::handle_prach_decode.
func (m *MAC) HandlePrachDecode(pd msgbus.PrachDecode) error {
	for i := uint32(0); i < pd.NumPreamble; i++ {
		crnti, err := m.registry.GetFreeCRNTI()
		if err != nil {
			if m.logger != nil {
				m.logger.Warn("no free c-rnti for prach preamble", zap.Error(err))
			}
			continue
		}
		if _, err := m.registry.AddPlaceholderUser(crnti); err != nil {
			return enberr.Wrap("HandlePrachDecode", enberr.BadAlloc, err)
		}

		var timingAdv uint32
		if int(i) < len(pd.TimingAdv) {
			timingAdv = pd.TimingAdv[i]
		}
		var rapid uint8
		if int(i) < len(pd.Preamble) {
			rapid = pd.Preamble[i]
		}

		m.ra.Push(RAREntry{
			TTI:       pd.TTI,
			RAPID:     rapid,
			TempCRNTI: crnti,
			TimingAdv: uint16(timingAdv),
			DLMCS:     0,
			DLNPRB:    2,
			ULMCS:     0,
			ULNPRB:    2,
		})
	}
	return nil
}

// SchedDL enqueues a pre-built downlink transport block for rnti.
func (m *MAC) SchedDL(rnti uint16, mcs uint8, nPRB int, tb []byte) {
	m.dl.Push(DLQueueEntry{RNTI: rnti, MCS: mcs, NPRB: nPRB, TB: tb})
}

// SchedUL enqueues an uplink grant request for rnti at the given TTI.
func (m *MAC) SchedUL(rnti uint16, mcs uint8, nPRB int, requestedAt uint32) {
	m.ul.Push(ULQueueEntry{RNTI: rnti, MCS: mcs, NPRB: nPRB, RequestedAt: requestedAt})
}
