package layers

import (
	"go.uber.org/zap"

	"github.com/bwojtowicz/lte-fdd-enb/internal/msgbus"
	"github.com/bwojtowicz/lte-fdd-enb/internal/registry"
)

// RRC routes PDCP SDUs up to MME as NAS messages and routes MME NAS
// messages back down to PDCP as PDUs. RRC procedure/message parsing
// itself is out of scope (see the PHY DSP-style collaborator boundary
// note); this layer only moves the envelopes.
type RRC struct {
	reg    *registry.Registry
	logger *zap.Logger

	toPDCP *msgbus.Queue
	toMME  *msgbus.Queue
}

// NewRRC wires an RRC router onto bus.
func NewRRC(bus *msgbus.Bus, reg *registry.Registry, logger *zap.Logger) *RRC {
	r := &RRC{
		reg:    reg,
		logger: logger,
		toPDCP: bus.CreateQueue("rrc_pdcp", false),
		toMME:  bus.CreateQueue("rrc_mme", false),
	}

	fromPDCP := bus.CreateQueue("pdcp_rrc", false)
	fromMME := bus.CreateQueue("mme_rrc", false)

	bus.Attach(fromPDCP, func(m msgbus.Message) {
		msgbus.Route(m, msgbus.LayerRRC, r.handleFromPDCP, r.toMME)
	})
	bus.Attach(fromMME, func(m msgbus.Message) {
		msgbus.Route(m, msgbus.LayerRRC, r.handleFromMME, r.toPDCP)
	})

	return r
}

func (r *RRC) handleFromPDCP(m msgbus.Message) {
	if m.Kind != msgbus.KindPdcpSduReady {
		return
	}
	unit, ok := m.Payload.(msgbus.BearerUnit)
	if !ok {
		return
	}
	r.toMME.Send(msgbus.Message{
		Kind: msgbus.KindRrcNasReady, Origin: msgbus.LayerRRC, Destination: msgbus.LayerMME,
		Payload: unit,
	})
}

func (r *RRC) handleFromMME(m msgbus.Message) {
	if m.Kind != msgbus.KindMmeNasReady {
		return
	}
	unit, ok := m.Payload.(msgbus.BearerUnit)
	if !ok {
		return
	}
	r.toPDCP.Send(msgbus.Message{
		Kind: msgbus.KindRrcPduReady, Origin: msgbus.LayerRRC, Destination: msgbus.LayerPDCP,
		Payload: unit,
	})
}
