// Package radio implements the Radio component: the 1 ms TTI clock that
// drives PHY, the sample-rate selection keyed to DL bandwidth, and
// overrun recovery. Grounded on LTE_fdd_enb_radio.cc; the SDR device
// itself is an out-of-scope collaborator reached through the Device
// interface below.
package radio

import (
	"context"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/bwojtowicz/lte-fdd-enb/internal/enberr"
	"github.com/bwojtowicz/lte-fdd-enb/internal/mac"
)

// Device is the narrow SDR collaborator interface: block until the next
// subframe's worth of samples are available, or accept a subframe to
// transmit. A real binding wraps a UHD/SoapySDR device; the no-RF and
// UDP-loopback variants below satisfy it without touching RF hardware.
type Device interface {
	Start(sampleRateHz float64) error
	Stop() error
	Recv(buf []complex64) (timestamp time.Duration, err error)
	Send(buf []complex64, timestamp time.Duration) error
	SetEARFCNs(dlEARFCN, ulEARFCN int64)
}

// sampleRateForBandwidth maps N_RB_DL to the SDR sample rate, per
// LTE_fdd_enb_radio's rate table.
func sampleRateForBandwidth(nRbDl int) float64 {
	switch {
	case nRbDl >= 100:
		return 30.72e6
	case nRbDl >= 75:
		return 15.36e6
	case nRbDl >= 50:
		return 15.36e6
	case nRbDl >= 25:
		return 7.68e6
	case nRbDl >= 15:
		return 3.84e6
	default:
		return 1.92e6
	}
}

// DLProcessor is PHY's downlink entry point, called synchronously once
// per subframe.
type DLProcessor interface {
	ProcessDL(dlTTI uint32) []complex64
}

// ULProcessor is PHY's uplink entry point.
type ULProcessor interface {
	ProcessUL(ulTTI uint32, rx []complex64)
}

// Radio owns the device and the TTI counters it derives from the
// device's sample clock.
type Radio struct {
	dev    Device
	phyDL  DLProcessor
	phyUL  ULProcessor
	logger *zap.Logger

	nSampsPerSubfr int
	sampleRate     float64

	dlTTI uint32
	ulTTI uint32

	running atomic.Bool
	stopCh  chan struct{}
	wg      sync.WaitGroup

	overrunCount atomic.Int64
}

// New constructs a Radio against dev, driving phyDL/phyUL once per
// subframe at nRbDl's corresponding sample rate.
func New(dev Device, phyDL DLProcessor, phyUL ULProcessor, nRbDl int, logger *zap.Logger) *Radio {
	rate := sampleRateForBandwidth(nRbDl)
	return &Radio{
		dev:            dev,
		phyDL:          phyDL,
		phyUL:          phyUL,
		logger:         logger,
		sampleRate:     rate,
		nSampsPerSubfr: int(math.Round(rate / 1000.0)),
		stopCh:         make(chan struct{}),
	}
}

// Start launches the real-time streaming goroutine.
func (r *Radio) Start(ctx context.Context) error {
	if !r.running.CompareAndSwap(false, true) {
		return enberr.New("Start", enberr.AlreadyStarted, "")
	}

	if err := r.dev.Start(r.sampleRate); err != nil {
		r.running.Store(false)
		return enberr.Wrap("Start", enberr.MasterClockFail, err)
	}

	// Pre-generate subframe 0 before the first real transmit, matching
	// the original's warm-up call to PHY ahead of issuing a stream start.
	r.phyDL.ProcessDL(0)
	r.dlTTI = 1

	r.wg.Add(1)
	go r.loop(ctx)
	return nil
}

// Stop halts the streaming goroutine and the device.
func (r *Radio) Stop() error {
	if !r.running.CompareAndSwap(true, false) {
		return enberr.New("Stop", enberr.AlreadyStopped, "")
	}
	close(r.stopCh)
	r.wg.Wait()
	return r.dev.Stop()
}

func (r *Radio) loop(ctx context.Context) {
	defer r.wg.Done()

	rxBuf := make([]complex64, r.nSampsPerSubfr)
	var nextRxTimestamp time.Duration

	for {
		select {
		case <-ctx.Done():
			return
		case <-r.stopCh:
			return
		default:
		}

		ts, err := r.dev.Recv(rxBuf)
		if err != nil {
			if r.logger != nil {
				r.logger.Error("radio recv failed", zap.Error(err))
			}
			continue
		}

		gap := ts - nextRxTimestamp
		subframeDur := time.Duration(float64(time.Second) * float64(r.nSampsPerSubfr) / r.sampleRate)
		if nextRxTimestamp != 0 && gap > subframeDur {
			nSkipped := int(math.Ceil(float64(gap)/float64(subframeDur))) + 2
			r.overrunCount.Add(1)
			r.ulTTI = mac.AddTTI(r.ulTTI, nSkipped)
			r.dlTTI = mac.AddTTI(r.dlTTI, nSkipped)
			if r.logger != nil {
				r.logger.Warn("radio overrun, skipping subframes", zap.Int("n_skipped", nSkipped))
			}
			nextRxTimestamp = ts + subframeDur
			continue
		}
		nextRxTimestamp = ts + subframeDur

		r.phyUL.ProcessUL(r.ulTTI, rxBuf)
		tx := r.phyDL.ProcessDL(r.dlTTI)
		if tx != nil {
			if err := r.dev.Send(tx, ts); err != nil && r.logger != nil {
				r.logger.Error("radio send failed", zap.Error(err))
			}
		}

		r.ulTTI = mac.AddTTI(r.ulTTI, 1)
		r.dlTTI = mac.AddTTI(r.dlTTI, 1)
	}
}

// SetEARFCNs retunes the underlying device; implements paramdb.RadioRetuner.
func (r *Radio) SetEARFCNs(dlEARFCN, ulEARFCN int64) {
	r.dev.SetEARFCNs(dlEARFCN, ulEARFCN)
}

// OverrunCount reports how many overrun-recovery events have occurred,
// exposed for the metrics gauge.
func (r *Radio) OverrunCount() int64 { return r.overrunCount.Load() }
