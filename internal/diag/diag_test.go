package diag

import (
	"bufio"
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestControlServer_DispatchesLineToHandler(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	srv := NewControlServer("127.0.0.1:0", func(line string) string {
		return "echo:" + line
	}, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, srv.Start(ctx))
	defer srv.Stop()

	conn, err := net.Dial("tcp", srv.ln.Addr().String())
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.Write([]byte("get_param dl_bw\n"))
	require.NoError(t, err)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	reply, err := bufio.NewReader(conn).ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "echo:get_param dl_bw\n", reply)
}

func TestDebugSink_BroadcastsToAllClients(t *testing.T) {
	logger, _ := zap.NewDevelopment()

	sink := NewDebugSink("127.0.0.1:0", logger)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, sink.Start(ctx))
	defer sink.Stop()
	addr := sink.ln.Addr().String()

	c1, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	defer c1.Close()
	c2, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	defer c2.Close()

	time.Sleep(50 * time.Millisecond) // let both accepts land
	sink.Publish("subframe 42 scheduled")

	for _, c := range []net.Conn{c1, c2} {
		c.SetReadDeadline(time.Now().Add(2 * time.Second))
		line, err := bufio.NewReader(c).ReadString('\n')
		require.NoError(t, err)
		assert.Equal(t, "subframe 42 scheduled\n", line)
	}
}
