package diag

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/bwojtowicz/lte-fdd-enb/internal/wire"
)

// PCAPSink is the thin capture-file encoder called out as in scope: it
// writes the global header once and appends MAC-LTE records as they
// arrive. File rotation/retention is explicitly out of scope.
type PCAPSink struct {
	mu sync.Mutex
	f  *os.File
}

// OpenPCAPSink creates (or truncates) the capture file at path and
// writes the global header.
func OpenPCAPSink(path string) (*PCAPSink, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("pcap sink: %w", err)
	}
	if err := wire.WritePCAPGlobalHeader(f); err != nil {
		f.Close()
		return nil, fmt.Errorf("pcap sink: %w", err)
	}
	return &PCAPSink{f: f}, nil
}

// WriteMACPDU appends one captured MAC PDU with the current wall-clock
// time as its record timestamp.
func (s *PCAPSink) WriteMACPDU(ctx wire.MACLTEContext, pdu []byte) error {
	now := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	return wire.WriteRecord(s.f, uint32(now.Unix()), uint32(now.Nanosecond()/1000), ctx, pdu)
}

// Close flushes and closes the capture file.
func (s *PCAPSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.f.Close()
}
