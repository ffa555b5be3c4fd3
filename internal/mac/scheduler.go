package mac

import "github.com/bwojtowicz/lte-fdd-enb/internal/wire"

// raResponseWindowSizeMS mirrors a typical RRC ra-ResponseWindowSize
// (SF5): the eNodeB tears down an unanswered RAR entry if a DL slot
// never opened up within this many subframes of the PRACH decode.
const raResponseWindowSizeMS = 5

// cmpTTI orders two TTIs using the modulo-10240 precedes rule: -1 if a
// comes first, 0 if equal, 1 if b comes first.
func cmpTTI(a, b uint32) int {
	if a == b {
		return 0
	}
	if Precedes(a, b) {
		return -1
	}
	return 1
}

func countDCIs(dlSlot *DLSlot) int {
	return len(dlSlot.Allocations) + len(dlSlot.Grants)
}

// scheduleRAR services only the head of the RAR queue, per pass: commit
// it if it fits the current DL slot and the UL slot six subframes
// ahead (msg3), drop it if its response window has closed, otherwise
// stop and retry on a later pass.
func (m *MAC) scheduleRAR(dlSlot *DLSlot, ulSlotPlus6 *ULSlot) {
	entry, ok := m.ra.PeekHead()
	if !ok {
		return
	}

	windowStart := RAResponseWindowStart(entry.TTI)
	windowStop := RAResponseWindowStop(entry.TTI, raResponseWindowSizeMS)
	cur := dlSlot.TTI

	if cmpTTI(windowStart, cur) > 0 {
		return // window not open yet
	}
	if cmpTTI(cur, windowStop) > 0 {
		m.ra.Pop() // response window has closed; opportunity lost
		return
	}

	dciBudget := NCCE(int(m.nRbDl)) - countDCIs(dlSlot)
	if dciBudget < 1 {
		return
	}
	if entry.ULNPRB > ulSlotPlus6.NAvailPRBs-ulSlotPlus6.NSchedPRBs {
		return
	}
	if entry.DLNPRB > dlSlot.NAvailPRBs-dlSlot.NSchedPRBs {
		return
	}

	rbStart := ulSlotPlus6.NextPRB
	riv := wire.RIV(int(m.nRbUl), entry.ULNPRB, rbStart)
	ulSlotPlus6.NextPRB += entry.ULNPRB
	ulSlotPlus6.NSchedPRBs += entry.ULNPRB
	ulSlotPlus6.Decodes = append(ulSlotPlus6.Decodes, ULDecodeInstruction{
		RNTI: entry.TempCRNTI, NPRB: entry.ULNPRB, MCS: entry.ULMCS, RBStart: rbStart,
	})

	rar := wire.RandomAccessResponse{
		HeaderType:    wire.RARHeaderRAPID,
		RAPID:         entry.RAPID,
		TimingAdvance: entry.TimingAdv,
		RBA:           uint16(riv),
		MCS:           entry.ULMCS,
		TempCRNTI:     entry.TempCRNTI,
	}

	dlSlot.Allocations = append(dlSlot.Allocations, DLAllocation{
		RNTI:       1 + uint16(cur%10),
		NPRB:       entry.DLNPRB,
		MCS:        entry.DLMCS,
		Modulation: "qpsk",
		TxMode:     1,
		TB:         wire.PackRandomAccessResponse(rar),
	})
	dlSlot.NSchedPRBs += entry.DLNPRB

	m.ra.Pop()
}

// scheduleDLUsers drains the DL queue's head while it keeps fitting.
func (m *MAC) scheduleDLUsers(dlSlot *DLSlot) {
	for {
		entry, ok := m.dl.PeekHead()
		if !ok {
			return
		}
		if NCCE(int(m.nRbDl))-countDCIs(dlSlot) < 1 {
			return
		}
		if entry.NPRB > dlSlot.NAvailPRBs-dlSlot.NSchedPRBs {
			return
		}

		dlSlot.Allocations = append(dlSlot.Allocations, DLAllocation{
			RNTI: entry.RNTI, NPRB: entry.NPRB, MCS: entry.MCS, TB: entry.TB,
		})
		dlSlot.NSchedPRBs += entry.NPRB
		m.dl.Pop()
	}
}

// scheduleULUsers drains the UL queue's head while it keeps fitting,
// committing a grant to dlSlot and a decode instruction four subframes
// ahead in ulSlotPlus4.
func (m *MAC) scheduleULUsers(dlSlot *DLSlot, ulSlotPlus4 *ULSlot) {
	for {
		entry, ok := m.ul.PeekHead()
		if !ok {
			return
		}
		if NCCE(int(m.nRbDl))-countDCIs(dlSlot) < 1 {
			return
		}
		if entry.NPRB > ulSlotPlus4.NAvailPRBs-ulSlotPlus4.NSchedPRBs {
			return
		}

		rbStart := ulSlotPlus4.NextPRB
		riv := wire.RIV(int(m.nRbUl), entry.NPRB, rbStart)
		ulSlotPlus4.NextPRB += entry.NPRB
		ulSlotPlus4.NSchedPRBs += entry.NPRB
		ulSlotPlus4.Decodes = append(ulSlotPlus4.Decodes, ULDecodeInstruction{
			RNTI: entry.RNTI, NPRB: entry.NPRB, MCS: entry.MCS, RBStart: rbStart,
		})
		dlSlot.Grants = append(dlSlot.Grants, ULAllocationGrant{
			RNTI: entry.RNTI, NPRB: entry.NPRB, MCS: entry.MCS, RBA: riv, RBStart: rbStart,
		})

		m.ul.Pop()
	}
}
