// Package msgbus implements the named, bounded, typed queues that carry
// messages between adjacent protocol layers (PHY<->MAC<->RLC<->PDCP<->
// RRC<->MME). Grounded on LTE_fdd_enb_msgq.cc, replacing its boost
// interprocess message queues with in-process buffered channels of owned
// Go values per the composition-root redesign note.
package msgbus

// Layer identifies one of the fixed protocol layers a Message can
// originate from or be addressed to.
type Layer int

const (
	Any Layer = iota
	LayerPHY
	LayerMAC
	LayerRLC
	LayerPDCP
	LayerRRC
	LayerMME
)

func (l Layer) String() string {
	switch l {
	case Any:
		return "any"
	case LayerPHY:
		return "phy"
	case LayerMAC:
		return "mac"
	case LayerRLC:
		return "rlc"
	case LayerPDCP:
		return "pdcp"
	case LayerRRC:
		return "rrc"
	case LayerMME:
		return "mme"
	default:
		return "unknown"
	}
}

// Kind is the closed set of message kinds carried on the bus.
type Kind int

const (
	KindDLSchedule Kind = iota
	KindULSchedule
	KindReadyToSend
	KindPrachDecode
	KindPucchDecode
	KindPuschDecode
	KindMacSduReady
	KindRlcPduReady
	KindRlcSduReady
	KindPdcpPduReady
	KindPdcpSduReady
	KindRrcPduReady
	KindRrcNasReady
	KindMmeNasReady
	KindKill
)

func (k Kind) String() string {
	names := [...]string{
		"dl_schedule", "ul_schedule", "ready_to_send", "prach_decode",
		"pucch_decode", "pusch_decode", "mac_sdu_ready", "rlc_pdu_ready",
		"rlc_sdu_ready", "pdcp_pdu_ready", "pdcp_sdu_ready", "rrc_pdu_ready",
		"rrc_nas_ready", "mme_nas_ready", "kill",
	}
	if int(k) >= 0 && int(k) < len(names) {
		return names[k]
	}
	return "unknown"
}

// Message is the sum-type value carried on every queue.
type Message struct {
	Kind        Kind
	Origin      Layer
	Destination Layer
	Payload     any
}

// ReadyToSend is the PHY->MAC payload fired two subframes ahead of the
// subframe it names.
type ReadyToSend struct {
	DLTTI uint32
	ULTTI uint32
}

// PrachDecode is the PHY->MAC payload for a detected random-access
// opportunity.
type PrachDecode struct {
	TTI         uint32
	NumPreamble uint32
	Preamble    []uint8
	TimingAdv   []uint32
}

// BearerUnit is the payload shared by every layer-to-layer PDU/SDU
// message: it names the user and radio bearer a unit of data belongs
// to, so a layer router can look up the right queue without parsing
// the unit itself.
type BearerUnit struct {
	CRNTI  uint16
	Bearer int // registry.RBType, kept untyped here to avoid an import cycle
	Data   []byte
}
