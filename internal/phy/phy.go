// Package phy implements the stateless-per-subframe physical layer
// worker: it is driven synchronously by Radio, consumes the MAC
// schedule for the current TTI, and fires ReadyToSend two subframes
// ahead. Grounded on LTE_fdd_enb_phy.cc; the OFDM/turbo-coding/PRACH-
// detection DSP itself is an explicit collaborator interface, out of
// the core's scope per §1.
package phy

import (
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/bwojtowicz/lte-fdd-enb/internal/mac"
	"github.com/bwojtowicz/lte-fdd-enb/internal/msgbus"
	"github.com/bwojtowicz/lte-fdd-enb/internal/paramdb"
)

// DSP is the narrow collaborator interface for the out-of-scope PHY
// signal-processing library (OFDM mapping, turbo coding, PRACH
// detection). A real deployment supplies a binding to the 3GPP PHY DSP;
// tests and the no-RF radio path supply a no-op implementation.
type DSP interface {
	EncodeDL(si *paramdb.SysInfo, tti uint32, slot mac.DLSlot) (txSamples []complex64)
	DecodeUL(si *paramdb.SysInfo, tti uint32, rxSamples []complex64) (prachDetected bool, preambles []uint8, timingAdv []uint32)
}

// PHY is the per-subframe worker.
type PHY struct {
	mu sync.Mutex

	dsp DSP

	dlTTI uint32
	ulTTI uint32

	lateSubframe  bool
	lastULSchedTTI uint32

	si atomic.Pointer[paramdb.SysInfo]

	toMAC  *msgbus.Queue
	logger *zap.Logger

	// pendingULSchedule holds the most recent UL decode instructions
	// MAC committed, keyed by the TTI they apply to. ProcessUL does not
	// read it.
	pendingULSchedule map[uint32]mac.ULSlot
	pendingDLSchedule map[uint32]mac.DLSlot
}

// New constructs a PHY worker attached to the given bus; dsp may be a
// no-op stub in tests.
func New(dsp DSP, sysInfoUpdates <-chan *paramdb.SysInfo, bus *msgbus.Bus, logger *zap.Logger) *PHY {
	p := &PHY{
		dsp:               dsp,
		logger:            logger,
		pendingULSchedule: make(map[uint32]mac.ULSlot),
		pendingDLSchedule: make(map[uint32]mac.DLSlot),
	}

	p.toMAC = bus.CreateQueue("phy_mac", true)
	fromMAC := bus.CreateQueue("mac_phy", true)
	bus.Attach(fromMAC, p.handleMACMessage)

	go func() {
		for si := range sysInfoUpdates {
			p.si.Store(si)
		}
	}()

	return p
}

func (p *PHY) handleMACMessage(msg msgbus.Message) {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch msg.Kind {
	case msgbus.KindDLSchedule:
		if slot, ok := msg.Payload.(mac.DLSlot); ok {
			p.pendingDLSchedule[slot.TTI] = slot
		}
	case msgbus.KindULSchedule:
		if slot, ok := msg.Payload.(mac.ULSlot); ok {
			p.pendingULSchedule[slot.TTI] = slot
			p.lastULSchedTTI = slot.TTI
		}
	}
}

// ProcessDL renders the downlink waveform for dlTTI. Called synchronously
// from the Radio goroutine once per subframe.
func (p *PHY) ProcessDL(dlTTI uint32) []complex64 {
	p.mu.Lock()
	slot, scheduled := p.pendingDLSchedule[dlTTI]
	delete(p.pendingDLSchedule, dlTTI)
	si := p.si.Load()
	wasLate := p.dlTTI != 0 && (dlTTI == p.dlTTI || mac.Precedes(dlTTI, p.dlTTI))
	p.dlTTI = dlTTI
	p.mu.Unlock()

	if !scheduled {
		slot = mac.DLSlot{TTI: dlTTI}
	}

	var tx []complex64
	if p.dsp != nil {
		tx = p.dsp.EncodeDL(si, dlTTI, slot)
	}

	p.mu.Lock()
	p.lateSubframe = wasLate
	suppressRTS := p.lateSubframe
	p.mu.Unlock()

	if !suppressRTS {
		p.toMAC.TrySend(msgbus.Message{
			Kind: msgbus.KindReadyToSend, Origin: msgbus.LayerPHY, Destination: msgbus.LayerMAC,
			Payload: msgbus.ReadyToSend{DLTTI: mac.AddTTI(dlTTI, 2), ULTTI: mac.AddTTI(p.ulTTI, 2)},
		})
	}

	return tx
}

// ProcessUL decodes the uplink subframe at ulTTI, looking for PRACH
// activity, and pushes any detections to MAC.
func (p *PHY) ProcessUL(ulTTI uint32, rxSamples []complex64) {
	p.mu.Lock()
	si := p.si.Load()
	p.ulTTI = ulTTI
	p.mu.Unlock()

	if p.dsp == nil {
		return
	}

	detected, preambles, timingAdv := p.dsp.DecodeUL(si, ulTTI, rxSamples)
	if !detected {
		return
	}

	p.toMAC.TrySend(msgbus.Message{
		Kind: msgbus.KindPrachDecode, Origin: msgbus.LayerPHY, Destination: msgbus.LayerMAC,
		Payload: msgbus.PrachDecode{
			TTI:         ulTTI,
			NumPreamble: uint32(len(preambles)),
			Preamble:    preambles,
			TimingAdv:   timingAdv,
		},
	})
}

// GetNCCE reports the DCI budget for the current downlink bandwidth.
func (p *PHY) GetNCCE() int {
	si := p.si.Load()
	if si == nil {
		return mac.NCCE(mac.NRbDefault)
	}
	return mac.NCCE(si.NRbDl)
}
