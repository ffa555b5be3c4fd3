package phy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/bwojtowicz/lte-fdd-enb/internal/mac"
	"github.com/bwojtowicz/lte-fdd-enb/internal/msgbus"
	"github.com/bwojtowicz/lte-fdd-enb/internal/paramdb"
)

type noopDSP struct{ detect bool }

func (n *noopDSP) EncodeDL(si *paramdb.SysInfo, tti uint32, slot mac.DLSlot) []complex64 {
	return nil
}

func (n *noopDSP) DecodeUL(si *paramdb.SysInfo, tti uint32, rx []complex64) (bool, []uint8, []uint32) {
	if !n.detect {
		return false, nil, nil
	}
	return true, []uint8{0, 1}, []uint32{5, 6}
}

func TestProcessDL_FiresReadyToSendTwoSubframesAhead(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	bus := msgbus.New(logger)
	updates := make(chan *paramdb.SysInfo)
	p := New(&noopDSP{}, updates, bus, logger)

	toMAC := bus.Queue("phy_mac")
	require.NotNil(t, toMAC)

	p.ProcessDL(10)

	select {
	case m := <-rawReceive(toMAC):
		require.Equal(t, msgbus.KindReadyToSend, m.Kind)
		rts, ok := m.Payload.(msgbus.ReadyToSend)
		require.True(t, ok)
		assert.Equal(t, uint32(12), rts.DLTTI)
	case <-time.After(time.Second):
		t.Fatal("expected a ReadyToSend message two subframes ahead of the processed TTI")
	}
}

func TestProcessDL_SuppressesRTSOnLateSubframe(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	bus := msgbus.New(logger)
	updates := make(chan *paramdb.SysInfo)
	p := New(&noopDSP{}, updates, bus, logger)

	p.ProcessDL(10)
	p.mu.Lock()
	lateBefore := p.lateSubframe
	p.mu.Unlock()
	assert.False(t, lateBefore)

	p.ProcessDL(9) // goes backwards: late
	p.mu.Lock()
	lateAfter := p.lateSubframe
	p.mu.Unlock()
	assert.True(t, lateAfter)

	// Only ProcessDL(10) pushed a ReadyToSend; the late ProcessDL(9) did not.
	assert.Len(t, rawReceive(bus.Queue("phy_mac")), 1)
}

func TestProcessUL_PushesPrachDecodeOnDetection(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	bus := msgbus.New(logger)
	updates := make(chan *paramdb.SysInfo)
	p := New(&noopDSP{detect: true}, updates, bus, logger)

	toMAC := bus.Queue("phy_mac")
	require.NotNil(t, toMAC)

	p.ProcessUL(20, nil)

	select {
	case m := <-rawReceive(toMAC):
		assert.Equal(t, msgbus.KindPrachDecode, m.Kind)
	case <-time.After(time.Second):
		t.Fatal("expected a PrachDecode message")
	}
}

// rawReceive exposes the underlying channel for assertions; in production
// mac.New attaches the consumer of "phy_mac", but these tests construct
// PHY without a MAC, so the queue's channel is otherwise idle and safe to
// read directly via this helper.
func rawReceive(q *msgbus.Queue) <-chan msgbus.Message {
	return q.Chan()
}
