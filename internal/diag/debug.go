package diag

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"go.uber.org/zap"
)

// DebugSink accepts TCP connections and fans every Publish line out to
// every currently-connected client, mirroring the original debug
// interface's broadcast-to-all-attached-consoles behavior.
type DebugSink struct {
	addr   string
	logger *zap.Logger

	ln net.Listener
	wg sync.WaitGroup

	mu      sync.Mutex
	clients map[net.Conn]struct{}
}

// NewDebugSink builds a debug socket bound to addr.
func NewDebugSink(addr string, logger *zap.Logger) *DebugSink {
	return &DebugSink{addr: addr, logger: logger, clients: make(map[net.Conn]struct{})}
}

// Start begins accepting connections.
func (d *DebugSink) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", d.addr)
	if err != nil {
		return fmt.Errorf("debug socket listen failed: %w", err)
	}
	d.ln = ln

	d.wg.Add(1)
	go d.acceptLoop(ctx)

	if d.logger != nil {
		d.logger.Info("debug socket listening", zap.String("addr", d.addr))
	}
	return nil
}

// Stop closes the listener and every connected client.
func (d *DebugSink) Stop() error {
	if d.ln == nil {
		return nil
	}
	err := d.ln.Close()
	d.wg.Wait()

	d.mu.Lock()
	for c := range d.clients {
		c.Close()
	}
	d.clients = make(map[net.Conn]struct{})
	d.mu.Unlock()
	return err
}

func (d *DebugSink) acceptLoop(ctx context.Context) {
	defer d.wg.Done()
	for {
		conn, err := d.ln.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return
			default:
			}
			return
		}
		d.mu.Lock()
		d.clients[conn] = struct{}{}
		d.mu.Unlock()
	}
}

// Publish writes one line to every connected debug client. A client
// that can't keep up is dropped rather than allowed to stall the
// broadcast, matching the real-time requirement on the subframe path
// this sink sits alongside.
func (d *DebugSink) Publish(line string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for c := range d.clients {
		c.SetWriteDeadline(time.Now().Add(10 * time.Millisecond))
		if _, err := fmt.Fprintf(c, "%s\n", line); err != nil {
			c.Close()
			delete(d.clients, c)
		}
	}
}
