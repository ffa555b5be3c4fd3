package radio

import (
	"encoding/binary"
	"math"
	"net"
	"time"

	"github.com/bwojtowicz/lte-fdd-enb/internal/enberr"
)

// UDPLoopbackDevice is a Device that carries IQ samples over a loopback
// UDP socket instead of RF, for exercising the full Radio/PHY pipeline
// against another process (or itself) in tests without a real SDR.
// Grounded on the UDP receive-goroutine pattern used for the GTP-U data
// plane socket in the core-network teacher.
type UDPLoopbackDevice struct {
	conn       *net.UDPConn
	remoteAddr *net.UDPAddr
	start      time.Time
}

// NewUDPLoopbackDevice binds a UDP socket on localAddr and targets
// remoteAddr for transmitted subframes.
func NewUDPLoopbackDevice(localAddr, remoteAddr string) (*UDPLoopbackDevice, error) {
	laddr, err := net.ResolveUDPAddr("udp", localAddr)
	if err != nil {
		return nil, enberr.Wrap("NewUDPLoopbackDevice", enberr.MasterClockFail, err)
	}
	raddr, err := net.ResolveUDPAddr("udp", remoteAddr)
	if err != nil {
		return nil, enberr.Wrap("NewUDPLoopbackDevice", enberr.MasterClockFail, err)
	}
	conn, err := net.ListenUDP("udp", laddr)
	if err != nil {
		return nil, enberr.Wrap("NewUDPLoopbackDevice", enberr.MasterClockFail, err)
	}
	return &UDPLoopbackDevice{conn: conn, remoteAddr: raddr}, nil
}

func (d *UDPLoopbackDevice) Start(sampleRateHz float64) error {
	d.start = time.Now()
	return nil
}

func (d *UDPLoopbackDevice) Stop() error {
	return d.conn.Close()
}

// Recv blocks for one datagram and decodes it into complex64 samples.
func (d *UDPLoopbackDevice) Recv(buf []complex64) (time.Duration, error) {
	raw := make([]byte, len(buf)*8)
	n, _, err := d.conn.ReadFromUDP(raw)
	if err != nil {
		return 0, enberr.Wrap("Recv", enberr.MasterClockFail, err)
	}
	decodeIQ(raw[:n], buf)
	return time.Since(d.start), nil
}

// Send encodes buf as interleaved float32 I/Q pairs and writes it to
// the configured remote address.
func (d *UDPLoopbackDevice) Send(buf []complex64, timestamp time.Duration) error {
	raw := make([]byte, len(buf)*8)
	encodeIQ(buf, raw)
	_, err := d.conn.WriteToUDP(raw, d.remoteAddr)
	if err != nil {
		return enberr.Wrap("Send", enberr.MasterClockFail, err)
	}
	return nil
}

func (d *UDPLoopbackDevice) SetEARFCNs(dlEARFCN, ulEARFCN int64) {}

func encodeIQ(samples []complex64, raw []byte) {
	for i, s := range samples {
		binary.LittleEndian.PutUint32(raw[i*8:], math.Float32bits(real(s)))
		binary.LittleEndian.PutUint32(raw[i*8+4:], math.Float32bits(imag(s)))
	}
}

func decodeIQ(raw []byte, samples []complex64) {
	n := len(raw) / 8
	if n > len(samples) {
		n = len(samples)
	}
	for i := 0; i < n; i++ {
		re := math.Float32frombits(binary.LittleEndian.Uint32(raw[i*8:]))
		im := math.Float32frombits(binary.LittleEndian.Uint32(raw[i*8+4:]))
		samples[i] = complex(re, im)
	}
}
