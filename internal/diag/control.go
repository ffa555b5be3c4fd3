// Package diag implements the operator-facing control and debug
// sockets: newline-delimited TCP listeners whose framing and accept
// loop are in scope, while command semantics belong to the handler
// passed in by the caller. Grounded on the accept/read loop shape of
// nf/upf/internal/gtpu.GTPUHandler, adapted from UDP datagrams to a
// line-oriented TCP protocol.
package diag

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// CommandHandler executes one control-socket command line and returns
// the text to write back to the caller.
type CommandHandler func(line string) string

// ControlServer accepts TCP connections and dispatches newline-delimited
// commands to a CommandHandler, one per connection.
type ControlServer struct {
	addr    string
	handle  CommandHandler
	logger  *zap.Logger
	ln      net.Listener
	wg      sync.WaitGroup
	closeMu sync.Mutex
}

// NewControlServer builds a control socket bound to addr.
func NewControlServer(addr string, handle CommandHandler, logger *zap.Logger) *ControlServer {
	return &ControlServer{addr: addr, handle: handle, logger: logger}
}

// Start begins accepting connections; it returns once the listener is
// bound, with the accept loop running in the background until Stop
// closes the listener. Canceling ctx alone does not unblock Accept.
func (s *ControlServer) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("control socket listen failed: %w", err)
	}
	s.ln = ln

	s.wg.Add(1)
	go s.acceptLoop(ctx)

	if s.logger != nil {
		s.logger.Info("control socket listening", zap.String("addr", s.addr))
	}
	return nil
}

// Stop closes the listener and waits for in-flight connections to drain.
func (s *ControlServer) Stop() error {
	s.closeMu.Lock()
	defer s.closeMu.Unlock()
	if s.ln == nil {
		return nil
	}
	err := s.ln.Close()
	s.wg.Wait()
	return err
}

func (s *ControlServer) acceptLoop(ctx context.Context) {
	defer s.wg.Done()
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return
			default:
			}
			if s.logger != nil {
				s.logger.Debug("control socket accept stopped", zap.Error(err))
			}
			return
		}
		s.wg.Add(1)
		go s.handleConn(ctx, conn)
	}
}

func (s *ControlServer) handleConn(ctx context.Context, conn net.Conn) {
	defer s.wg.Done()
	defer conn.Close()

	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return
		default:
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		resp := s.handle(line)
		if _, err := fmt.Fprintf(conn, "%s\n", resp); err != nil {
			if s.logger != nil {
				s.logger.Debug("control socket write failed", zap.Error(err))
			}
			return
		}
	}
}
