package mac

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/bwojtowicz/lte-fdd-enb/internal/msgbus"
	"github.com/bwojtowicz/lte-fdd-enb/internal/paramdb"
	"github.com/bwojtowicz/lte-fdd-enb/internal/registry"
)

func newTestMAC(t *testing.T) (*MAC, *msgbus.Bus, *msgbus.Queue) {
	logger, _ := zap.NewDevelopment()
	reg := registry.New(logger)
	t.Cleanup(reg.Close)

	bus := msgbus.New(logger)
	toMAC := bus.CreateQueue("phy_mac", true)
	fromMAC := bus.CreateQueue("mac_phy", true)
	_ = toMAC

	updates := make(chan *paramdb.SysInfo)
	m := New(reg, updates, bus, logger)

	return m, bus, fromMAC
}

func TestScheduleDLUsers_RespectsAvailablePRBBudget(t *testing.T) {
	m, _, _ := newTestMAC(t)

	slot := &DLSlot{TTI: 0, NAvailPRBs: 5}
	m.dl.Push(DLQueueEntry{RNTI: 10, NPRB: 3, TB: []byte("a")})
	m.dl.Push(DLQueueEntry{RNTI: 11, NPRB: 3, TB: []byte("b")}) // won't fit after first

	m.scheduleDLUsers(slot)

	assert.Equal(t, 1, len(slot.Allocations))
	assert.Equal(t, 3, slot.NSchedPRBs)
	assert.Equal(t, 1, m.dl.Len(), "second entry must remain queued, not dropped")
}

func TestScheduleULUsers_CommitsGrantAndDecodeAtOffset(t *testing.T) {
	m, _, _ := newTestMAC(t)

	dlSlot := &DLSlot{TTI: 100, NAvailPRBs: 50}
	ulSlotPlus4 := &ULSlot{TTI: 104, NAvailPRBs: 50}

	m.ul.Push(ULQueueEntry{RNTI: 22, NPRB: 4, MCS: 5})
	m.scheduleULUsers(dlSlot, ulSlotPlus4)

	require.Len(t, dlSlot.Grants, 1)
	require.Len(t, ulSlotPlus4.Decodes, 1)
	assert.Equal(t, uint16(22), dlSlot.Grants[0].RNTI)
	assert.Equal(t, uint16(22), ulSlotPlus4.Decodes[0].RNTI)
	assert.Equal(t, 0, m.ul.Len())
}

func TestScheduleRAR_DropsEntryPastResponseWindow(t *testing.T) {
	m, _, _ := newTestMAC(t)

	m.ra.Push(RAREntry{TTI: 0, RAPID: 1, TempCRNTI: 99, DLNPRB: 2, ULNPRB: 2})

	// Window is [3, 3+5]=[3,8]; TTI 9 is past it.
	dlSlot := &DLSlot{TTI: 9, NAvailPRBs: 50}
	ulSlotPlus6 := &ULSlot{TTI: 15, NAvailPRBs: 50}

	m.scheduleRAR(dlSlot, ulSlotPlus6)

	assert.Equal(t, 0, m.ra.Len(), "expired RAR entry must be dropped")
	assert.Empty(t, dlSlot.Allocations)
}

func TestScheduleRAR_CommitsWithinWindow(t *testing.T) {
	m, _, _ := newTestMAC(t)
	m.ra.Push(RAREntry{TTI: 0, RAPID: 1, TempCRNTI: 99, DLNPRB: 2, ULNPRB: 2, ULMCS: 3})

	dlSlot := &DLSlot{TTI: 4, NAvailPRBs: 50} // inside [3,8]
	ulSlotPlus6 := &ULSlot{TTI: 10, NAvailPRBs: 50}

	m.scheduleRAR(dlSlot, ulSlotPlus6)

	assert.Equal(t, 0, m.ra.Len())
	require.Len(t, dlSlot.Allocations, 1)
	require.Len(t, ulSlotPlus6.Decodes, 1)
	assert.Equal(t, uint16(99), ulSlotPlus6.Decodes[0].RNTI)
}

func TestScheduleRAR_StopsWhenWindowNotYetOpen(t *testing.T) {
	m, _, _ := newTestMAC(t)
	m.ra.Push(RAREntry{TTI: 10, RAPID: 1, TempCRNTI: 5, DLNPRB: 2, ULNPRB: 2})

	dlSlot := &DLSlot{TTI: 11, NAvailPRBs: 50} // window opens at 13
	ulSlotPlus6 := &ULSlot{TTI: 17, NAvailPRBs: 50}

	m.scheduleRAR(dlSlot, ulSlotPlus6)

	assert.Equal(t, 1, m.ra.Len(), "entry must remain queued until its window opens")
}

func TestPrecedes_WrapsAtHalfRange(t *testing.T) {
	assert.True(t, Precedes(0, 1))
	assert.True(t, Precedes(10239, 0)) // wraps forward
	assert.False(t, Precedes(0, 10239))
}

func TestHandlePrachDecode_AllocatesDistinctCRNTIsPerPreamble(t *testing.T) {
	m, _, _ := newTestMAC(t)

	err := m.HandlePrachDecode(msgbus.PrachDecode{TTI: 5, NumPreamble: 3, TimingAdv: []uint32{1, 2, 3}})
	require.NoError(t, err)
	assert.Equal(t, 3, m.ra.Len())
}
