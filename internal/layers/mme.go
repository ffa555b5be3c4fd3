package layers

import (
	"go.uber.org/zap"

	"github.com/bwojtowicz/lte-fdd-enb/internal/msgbus"
	"github.com/bwojtowicz/lte-fdd-enb/internal/registry"
)

// MME is the topmost router: it terminates NAS messages arriving from
// RRC. Actual NAS message parsing/mobility-management state machines
// are out of scope; arrivals are logged and counted so the message flow
// is observable end-to-end.
type MME struct {
	reg    *registry.Registry
	logger *zap.Logger

	toRRC *msgbus.Queue

	nasReceived int
}

// NewMME wires an MME router onto bus.
func NewMME(bus *msgbus.Bus, reg *registry.Registry, logger *zap.Logger) *MME {
	m := &MME{
		reg:    reg,
		logger: logger,
		toRRC:  bus.CreateQueue("mme_rrc", false),
	}

	fromRRC := bus.CreateQueue("rrc_mme", false)
	bus.Attach(fromRRC, func(msg msgbus.Message) {
		msgbus.Route(msg, msgbus.LayerMME, m.handleFromRRC, m.toRRC)
	})

	return m
}

func (m *MME) handleFromRRC(msg msgbus.Message) {
	if msg.Kind != msgbus.KindRrcNasReady {
		return
	}
	unit, ok := msg.Payload.(msgbus.BearerUnit)
	if !ok {
		return
	}
	m.nasReceived++
	if m.logger != nil {
		m.logger.Debug("mme received nas message", zap.Uint16("c_rnti", unit.CRNTI), zap.Int("bytes", len(unit.Data)))
	}
}

// NASReceived reports how many NAS messages the MME has terminated,
// exposed for tests and metrics.
func (m *MME) NASReceived() int { return m.nasReceived }

// SendNAS pushes a downlink NAS message toward RRC/PDCP/RLC/MAC for the
// given bearer, the MME's only outbound path in this simplified core.
func (m *MME) SendNAS(unit msgbus.BearerUnit) {
	m.toRRC.Send(msgbus.Message{
		Kind: msgbus.KindMmeNasReady, Origin: msgbus.LayerMME, Destination: msgbus.LayerRRC,
		Payload: unit,
	})
}
