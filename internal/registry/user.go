package registry

import "time"

// RBType enumerates the bearer identities a User can hold.
type RBType int

const (
	SRB0 RBType = iota
	SRB1
	SRB2
	DRB0
	DRB1
	DRB2
	DRB3
	DRB4
	DRB5
	DRB6
	DRB7
)

// RLCMode selects how a bearer's RLC entity behaves.
type RLCMode int

const (
	RLCConfigTM RLCMode = iota
	RLCConfigUM
	RLCConfigAM
)

// RadioBearer is a per-user bearer: its RLC mode and the two FIFOs that
// carry PDUs down to MAC and SDUs up to PDCP. Grounded on the bearer
// fields described by LTE_fdd_enb_rb.h (listed in the scheduling-info
// logic of LTE_fdd_enb_mac.cc, which references per-bearer queues).
type RadioBearer struct {
	Type RBType
	Mode RLCMode

	pduQueue [][]byte
	sduQueue [][]byte
}

// EnqueuePDU appends a PDU destined for the lower layer (MAC).
func (rb *RadioBearer) EnqueuePDU(pdu []byte) {
	rb.pduQueue = append(rb.pduQueue, pdu)
}

// EnqueueSDU appends an SDU destined for the upper layer (PDCP).
func (rb *RadioBearer) EnqueueSDU(sdu []byte) {
	rb.sduQueue = append(rb.sduQueue, sdu)
}

// DequeuePDU pops the oldest queued PDU, if any.
func (rb *RadioBearer) DequeuePDU() ([]byte, bool) {
	if len(rb.pduQueue) == 0 {
		return nil, false
	}
	pdu := rb.pduQueue[0]
	rb.pduQueue = rb.pduQueue[1:]
	return pdu, true
}

// DequeueSDU pops the oldest queued SDU, if any.
func (rb *RadioBearer) DequeueSDU() ([]byte, bool) {
	if len(rb.sduQueue) == 0 {
		return nil, false
	}
	sdu := rb.sduQueue[0]
	rb.sduQueue = rb.sduQueue[1:]
	return sdu, true
}

// User is one attached (or attaching) UE. Mirrors LTE_fdd_enb_user: an
// IMSI, a C-RNTI, a mandatory SRB0, optional SRB1/2, and up to eight DRBs.
type User struct {
	IMSI  string
	CRNTI uint16

	SRB0 *RadioBearer
	SRB1 *RadioBearer
	SRB2 *RadioBearer
	DRBs [8]*RadioBearer

	// Placeholder is true for PRACH-originated users created with a
	// synthesized IMSI ("F"+decimal(c_rnti)) pending contention
	// resolution; such users are swept by the C-RNTI timer if never
	// confirmed.
	Placeholder bool
	CreatedAt   time.Time
}

// NewUser creates a user with only SRB0 set up, as the original
// constructor does.
func NewUser(imsi string) *User {
	return &User{
		IMSI:      imsi,
		SRB0:      &RadioBearer{Type: SRB0, Mode: RLCConfigTM},
		CreatedAt: time.Now(),
	}
}

// Reset tears down SRB1/2 and all DRBs but preserves SRB0 as it is.
// Bearers carry no RRC procedure/state here, so no RRC state is reset.
func (u *User) Reset() {
	u.SRB1 = nil
	u.SRB2 = nil
	for i := range u.DRBs {
		u.DRBs[i] = nil
	}
}
