// Package layers implements the RLC, PDCP, RRC and MME routers: thin
// message-routing layers above MAC, each with trivial per-bearer FIFOs.
// Grounded on LTE_fdd_enb_{rlc,pdcp,rrc,mme}.cc, which are all a router
// of the same shape around a pair of boost interprocess queues; here
// each layer wires its own msgbus queues and shares the bearer-lookup
// helper below.
package layers

import (
	"github.com/bwojtowicz/lte-fdd-enb/internal/msgbus"
	"github.com/bwojtowicz/lte-fdd-enb/internal/registry"
)

// bearerFor resolves a BearerUnit's (CRNTI, RBType) pair to the radio
// bearer that holds its PDU/SDU FIFOs, or nil if the user or bearer
// doesn't exist (a late message for a torn-down user, which every layer
// treats as a no-op rather than an error).
func bearerFor(reg *registry.Registry, unit msgbus.BearerUnit) *registry.RadioBearer {
	u, err := reg.FindByCRNTI(unit.CRNTI)
	if err != nil {
		return nil
	}
	switch registry.RBType(unit.Bearer) {
	case registry.SRB0:
		return u.SRB0
	case registry.SRB1:
		return u.SRB1
	case registry.SRB2:
		return u.SRB2
	default:
		idx := int(unit.Bearer) - int(registry.DRB0)
		if idx < 0 || idx >= len(u.DRBs) {
			return nil
		}
		return u.DRBs[idx]
	}
}
