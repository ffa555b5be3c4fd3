package layers

import (
	"go.uber.org/zap"

	"github.com/bwojtowicz/lte-fdd-enb/internal/msgbus"
	"github.com/bwojtowicz/lte-fdd-enb/internal/registry"
)

// RLC is the radio link control router. For a TM bearer, a MacSduReady
// from MAC is queued on the bearer's SDU FIFO and forwarded to PDCP as
// RlcSduReady; a PdcpPduReady from PDCP is queued on the PDU FIFO and
// forwarded to MAC as RlcPduReady. UM/AM are explicit inert placeholders
// rather than omitted modes, per the RLC mode stored on each bearer: they
// log at Debug and forward nothing.
type RLC struct {
	reg    *registry.Registry
	logger *zap.Logger

	toMAC  *msgbus.Queue
	toPDCP *msgbus.Queue
}

// NewRLC wires an RLC router onto bus, reading from "mac_rlc" and
// "pdcp_rlc" and writing to "rlc_mac" and "rlc_pdcp".
func NewRLC(bus *msgbus.Bus, reg *registry.Registry, logger *zap.Logger) *RLC {
	rl := &RLC{
		reg:    reg,
		logger: logger,
		toMAC:  bus.CreateQueue("rlc_mac", false),
		toPDCP: bus.CreateQueue("rlc_pdcp", false),
	}

	fromMAC := bus.CreateQueue("mac_rlc", false)
	fromPDCP := bus.CreateQueue("pdcp_rlc", false)

	bus.Attach(fromMAC, func(m msgbus.Message) {
		msgbus.Route(m, msgbus.LayerRLC, rl.handleFromMAC, rl.toPDCP)
	})
	bus.Attach(fromPDCP, func(m msgbus.Message) {
		msgbus.Route(m, msgbus.LayerRLC, rl.handleFromPDCP, rl.toMAC)
	})

	return rl
}

func (rl *RLC) handleFromMAC(m msgbus.Message) {
	if m.Kind != msgbus.KindMacSduReady {
		return
	}
	unit, ok := m.Payload.(msgbus.BearerUnit)
	if !ok {
		return
	}
	rb := bearerFor(rl.reg, unit)
	if rb == nil {
		return
	}

	switch rb.Mode {
	case registry.RLCConfigTM:
		rb.EnqueueSDU(unit.Data)
		rl.toPDCP.Send(msgbus.Message{
			Kind: msgbus.KindRlcSduReady, Origin: msgbus.LayerRLC, Destination: msgbus.LayerPDCP,
			Payload: unit,
		})
	case registry.RLCConfigUM, registry.RLCConfigAM:
		if rl.logger != nil {
			rl.logger.Debug("rlc um/am reassembly not implemented", zap.Uint16("c_rnti", unit.CRNTI))
		}
	}
}

func (rl *RLC) handleFromPDCP(m msgbus.Message) {
	if m.Kind != msgbus.KindPdcpPduReady {
		return
	}
	unit, ok := m.Payload.(msgbus.BearerUnit)
	if !ok {
		return
	}
	rb := bearerFor(rl.reg, unit)
	if rb == nil {
		return
	}

	switch rb.Mode {
	case registry.RLCConfigTM:
		rb.EnqueuePDU(unit.Data)
		rl.toMAC.Send(msgbus.Message{
			Kind: msgbus.KindRlcPduReady, Origin: msgbus.LayerRLC, Destination: msgbus.LayerMAC,
			Payload: unit,
		})
	case registry.RLCConfigUM, registry.RLCConfigAM:
		if rl.logger != nil {
			rl.logger.Debug("rlc um/am segmentation not implemented", zap.Uint16("c_rnti", unit.CRNTI))
		}
	}
}
