package layers

import (
	"go.uber.org/zap"

	"github.com/bwojtowicz/lte-fdd-enb/internal/msgbus"
	"github.com/bwojtowicz/lte-fdd-enb/internal/registry"
)

// PDCP is a pure pass-through router between RLC and RRC: it has no
// additional state of its own (header compression/ciphering are out of
// scope), matching LTE_fdd_enb_pdcp.cc's shape.
type PDCP struct {
	reg    *registry.Registry
	logger *zap.Logger

	toRLC *msgbus.Queue
	toRRC *msgbus.Queue
}

// NewPDCP wires a PDCP router onto bus.
func NewPDCP(bus *msgbus.Bus, reg *registry.Registry, logger *zap.Logger) *PDCP {
	p := &PDCP{
		reg:    reg,
		logger: logger,
		toRLC:  bus.CreateQueue("pdcp_rlc", false),
		toRRC:  bus.CreateQueue("pdcp_rrc", false),
	}

	fromRLC := bus.CreateQueue("rlc_pdcp", false)
	fromRRC := bus.CreateQueue("rrc_pdcp", false)

	bus.Attach(fromRLC, func(m msgbus.Message) {
		msgbus.Route(m, msgbus.LayerPDCP, p.handleFromRLC, p.toRRC)
	})
	bus.Attach(fromRRC, func(m msgbus.Message) {
		msgbus.Route(m, msgbus.LayerPDCP, p.handleFromRRC, p.toRLC)
	})

	return p
}

func (p *PDCP) handleFromRLC(m msgbus.Message) {
	if m.Kind != msgbus.KindRlcSduReady {
		return
	}
	unit, ok := m.Payload.(msgbus.BearerUnit)
	if !ok {
		return
	}
	p.toRRC.Send(msgbus.Message{
		Kind: msgbus.KindPdcpSduReady, Origin: msgbus.LayerPDCP, Destination: msgbus.LayerRRC,
		Payload: unit,
	})
}

func (p *PDCP) handleFromRRC(m msgbus.Message) {
	if m.Kind != msgbus.KindRrcPduReady {
		return
	}
	unit, ok := m.Payload.(msgbus.BearerUnit)
	if !ok {
		return
	}
	p.toRLC.Send(msgbus.Message{
		Kind: msgbus.KindPdcpPduReady, Origin: msgbus.LayerPDCP, Destination: msgbus.LayerRLC,
		Payload: unit,
	})
}
