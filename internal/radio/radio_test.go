package radio

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeDevice hands back pre-scripted timestamps so overrun recovery can
// be exercised deterministically, instead of racing a real ticker. Once
// the script is exhausted it keeps returning fresh, evenly-spaced
// timestamps rather than blocking, the same way a real streaming device
// (ticker-paced or UDP-fed) keeps producing samples irrespective of
// Radio's own shutdown signal; Radio.Stop only closes the device after
// its own loop goroutine has already exited.
type fakeDevice struct {
	mu         sync.Mutex
	started    bool
	sampleRate float64
	timestamps []time.Duration
	i          int
	last       time.Duration
	step       time.Duration
	sent       []time.Duration
}

func newFakeDevice(timestamps []time.Duration) *fakeDevice {
	return &fakeDevice{timestamps: timestamps, step: time.Millisecond}
}

func (d *fakeDevice) Start(sampleRateHz float64) error {
	d.mu.Lock()
	d.started = true
	d.sampleRate = sampleRateHz
	d.mu.Unlock()
	return nil
}

func (d *fakeDevice) Stop() error {
	return nil
}

func (d *fakeDevice) Recv(buf []complex64) (time.Duration, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.i < len(d.timestamps) {
		ts := d.timestamps[d.i]
		d.i++
		d.last = ts
		return ts, nil
	}
	d.last += d.step
	return d.last, nil
}

func (d *fakeDevice) Send(buf []complex64, timestamp time.Duration) error {
	d.sent = append(d.sent, timestamp)
	return nil
}

func (d *fakeDevice) SetEARFCNs(dlEARFCN, ulEARFCN int64) {}

// recordingProcessor is read from the test goroutine while Radio's loop
// goroutine writes to it, so access is mutex-guarded.
type recordingProcessor struct {
	mu      sync.Mutex
	dlCalls []uint32
	ulCalls []uint32
}

func (p *recordingProcessor) ProcessDL(tti uint32) []complex64 {
	p.mu.Lock()
	p.dlCalls = append(p.dlCalls, tti)
	p.mu.Unlock()
	return []complex64{1}
}

func (p *recordingProcessor) ProcessUL(tti uint32, rx []complex64) {
	p.mu.Lock()
	p.ulCalls = append(p.ulCalls, tti)
	p.mu.Unlock()
}

func (p *recordingProcessor) dlCallCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.dlCalls)
}

func TestSampleRateForBandwidth_MatchesOriginalTable(t *testing.T) {
	assert.Equal(t, 30.72e6, sampleRateForBandwidth(100))
	assert.Equal(t, 15.36e6, sampleRateForBandwidth(75))
	assert.Equal(t, 15.36e6, sampleRateForBandwidth(50))
	assert.Equal(t, 7.68e6, sampleRateForBandwidth(25))
	assert.Equal(t, 3.84e6, sampleRateForBandwidth(15))
	assert.Equal(t, 1.92e6, sampleRateForBandwidth(6))
}

func TestStart_RejectsDoubleStart(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	dev := newFakeDevice(nil)
	proc := &recordingProcessor{}
	r := New(dev, proc, proc, 50, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, r.Start(ctx))
	err := r.Start(ctx)
	require.Error(t, err)

	require.NoError(t, r.Stop())
}

func TestStop_RejectsDoubleStop(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	dev := newFakeDevice(nil)
	proc := &recordingProcessor{}
	r := New(dev, proc, proc, 50, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, r.Start(ctx))
	require.NoError(t, r.Stop())
	err := r.Stop()
	require.Error(t, err)
}

// TestLoop_AdvancesTTIEverySubframeUnderNormalClock feeds the loop a
// sequence of evenly-spaced timestamps (one subframe duration apart,
// matching a 50-RB cell's sample rate) and checks PHY is driven once
// per subframe with consecutive TTIs and no overrun recorded.
func TestLoop_AdvancesTTIEverySubframeUnderNormalClock(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	subframeDur := time.Millisecond // sampleRateForBandwidth(50) => 1ms per subframe
	dev := newFakeDevice([]time.Duration{subframeDur, 2 * subframeDur, 3 * subframeDur})
	proc := &recordingProcessor{}
	r := New(dev, proc, proc, 50, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, r.Start(ctx))

	require.Eventually(t, func() bool {
		return proc.dlCallCount() >= 3
	}, time.Second, time.Millisecond)

	require.NoError(t, r.Stop())
	assert.Zero(t, r.OverrunCount())

	// Start's warm-up call is TTI 0; the loop then continues at 1, 2, ...
	proc.mu.Lock()
	assert.Equal(t, []uint32{0, 1, 2}, proc.dlCalls[:3])
	proc.mu.Unlock()
}

func TestLoop_RecoversFromOverrunAndSkipsAheadByExpectedAmount(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	subframeDur := time.Millisecond
	// First recv establishes the baseline (next expected timestamp 2ms);
	// the second arrives at 6ms, a 4ms gap, which is reported as an
	// overrun and skips the TTI counters forward by ceil(4ms/1ms)+2 = 6.
	dev := newFakeDevice([]time.Duration{subframeDur, 6 * subframeDur, 7 * subframeDur})
	proc := &recordingProcessor{}
	r := New(dev, proc, proc, 50, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, r.Start(ctx))

	require.Eventually(t, func() bool {
		return r.OverrunCount() >= 1 && proc.dlCallCount() >= 3
	}, time.Second, time.Millisecond)

	require.NoError(t, r.Stop())
	assert.GreaterOrEqual(t, r.OverrunCount(), int64(1))

	// DL TTIs: warm-up 0, then 1 at the 1ms baseline; the 6ms recv is
	// dropped and moves DL from 2 to 8, which the 7ms recv processes.
	proc.mu.Lock()
	assert.Equal(t, []uint32{0, 1, 8}, proc.dlCalls[:3])
	proc.mu.Unlock()
}

func TestEncodeDecodeIQ_RoundTrips(t *testing.T) {
	samples := []complex64{complex(1.5, -2.5), complex(0, 0), complex(-3.25, 4.75)}
	raw := make([]byte, len(samples)*8)
	encodeIQ(samples, raw)

	decoded := make([]complex64, len(samples))
	decodeIQ(raw, decoded)

	assert.Equal(t, samples, decoded)
}

func TestNoRFDevice_RecvUnblocksOnStop(t *testing.T) {
	dev := NewNoRFDevice()
	require.NoError(t, dev.Start(1.92e6))

	done := make(chan error, 1)
	go func() {
		_, err := dev.Recv(make([]complex64, 10))
		done <- err
	}()

	require.NoError(t, dev.Stop())

	select {
	case err := <-done:
		assert.Error(t, err)
	case <-time.After(time.Second):
		t.Fatal("Recv did not unblock after Stop")
	}
}
