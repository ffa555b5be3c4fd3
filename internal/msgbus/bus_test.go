package msgbus

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBus_AttachDispatchesAndKillStopsGoroutine(t *testing.T) {
	b := New(nil)
	q := b.CreateQueue("mac_rlc", false)

	received := make(chan Message, 1)
	b.Attach(q, func(m Message) { received <- m })

	q.Send(Message{Kind: KindMacSduReady, Destination: LayerRLC})

	select {
	case m := <-received:
		assert.Equal(t, KindMacSduReady, m.Kind)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for dispatched message")
	}

	b.Shutdown()
}

func TestRoute_LocalVsForward(t *testing.T) {
	b := New(nil)
	other := b.CreateQueue("rlc_pdcp", false)

	var handled *Message
	handle := func(m Message) { handled = &m }

	Route(Message{Destination: LayerRLC}, LayerRLC, handle, other)
	require.NotNil(t, handled)

	handled = nil
	Route(Message{Destination: LayerPDCP}, LayerRLC, handle, other)
	assert.Nil(t, handled, "message not addressed here must not be handled locally")

	select {
	case m := <-other.ch:
		assert.Equal(t, LayerPDCP, m.Destination)
	default:
		t.Fatal("expected message forwarded to the other-side queue")
	}
}

func TestRoute_AnyIsAlwaysLocal(t *testing.T) {
	other := New(nil).CreateQueue("x", false)
	var handled bool
	Route(Message{Destination: Any}, LayerMAC, func(Message) { handled = true }, other)
	assert.True(t, handled)
}
