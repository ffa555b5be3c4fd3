package radio

import (
	"time"

	"github.com/bwojtowicz/lte-fdd-enb/internal/enberr"
)

// NoRFDevice is a Device that never touches RF hardware: it paces
// subframes with a ticker instead of a real sample clock, for running
// the full eNodeB stack without an SDR attached.
type NoRFDevice struct {
	nSampsPerSubfr int
	ticker         *time.Ticker
	start          time.Time
	stopCh         chan struct{}
}

// NewNoRFDevice constructs a ticker-paced Device.
func NewNoRFDevice() *NoRFDevice {
	return &NoRFDevice{stopCh: make(chan struct{})}
}

func (d *NoRFDevice) Start(sampleRateHz float64) error {
	d.nSampsPerSubfr = int(sampleRateHz / 1000.0)
	d.ticker = time.NewTicker(time.Millisecond)
	d.start = time.Now()
	return nil
}

func (d *NoRFDevice) Stop() error {
	if d.ticker != nil {
		d.ticker.Stop()
	}
	close(d.stopCh)
	return nil
}

func (d *NoRFDevice) Recv(buf []complex64) (time.Duration, error) {
	select {
	case <-d.ticker.C:
		return time.Since(d.start), nil
	case <-d.stopCh:
		return 0, enberr.New("Recv", enberr.AlreadyStopped, "no-rf device stopped")
	}
}

func (d *NoRFDevice) Send(buf []complex64, timestamp time.Duration) error { return nil }

func (d *NoRFDevice) SetEARFCNs(dlEARFCN, ulEARFCN int64) {}
