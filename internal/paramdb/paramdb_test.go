package paramdb

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bwojtowicz/lte-fdd-enb/internal/wire"
)

type fakeRadio struct {
	dl, ul int64
}

func (f *fakeRadio) SetEARFCNs(dl, ul int64) {
	f.dl, f.ul = dl, ul
}

func TestBandwidthCouplesNRbAndEnum(t *testing.T) {
	db := New(nil, nil)

	require.NoError(t, db.SetDouble(Bandwidth, 20))
	nRbDl, err := db.GetInt64(NRbDl)
	require.NoError(t, err)
	assert.Equal(t, int64(NRb100MHz), nRbDl)

	nRbUl, err := db.GetInt64(NRbUl)
	require.NoError(t, err)
	assert.Equal(t, int64(NRb100MHz), nRbUl)

	bw, err := db.GetInt64(DLBandwidth)
	require.NoError(t, err)
	assert.Equal(t, int64(DLBandwidth100), bw)
}

func TestNIDCellCouplesNID1AndNID2(t *testing.T) {
	db := New(nil, nil)

	require.NoError(t, db.SetInt64(NIDCell, 257))

	nid2, err := db.GetInt64(NID2)
	require.NoError(t, err)
	assert.Equal(t, int64(257%3), nid2)

	nid1, err := db.GetInt64(NID1)
	require.NoError(t, err)
	assert.Equal(t, int64((257-257%3)/3), nid1)
}

func TestDLEarfcnRetunesRadioAndDerivesUL(t *testing.T) {
	radio := &fakeRadio{}
	db := New(radio, nil)

	require.NoError(t, db.SetInt64(DLEarfcn, firstDLEarfcn[2]))

	ul, err := db.GetInt64(ULEarfcn)
	require.NoError(t, err)
	assert.Equal(t, correspondingULEarfcn(firstDLEarfcn[2]), ul)
	assert.Equal(t, firstDLEarfcn[2], radio.dl)
	assert.Equal(t, ul, radio.ul)
}

func TestSetInvalidParamReturnsInvalidParamError(t *testing.T) {
	db := New(nil, nil)

	err := db.SetInt64(Bandwidth, 1) // Bandwidth is double-typed, not int64
	require.Error(t, err)
}

func TestNonDynamicParamRejectedAfterStart(t *testing.T) {
	db := New(nil, nil)
	db.SetStarted(true)

	err := db.SetInt64(NRbDl, NRb100MHz)
	require.Error(t, err)
}

func TestPackedDigitStringRoundTrips(t *testing.T) {
	db := New(nil, nil)

	require.NoError(t, db.SetPackedDigitString(MCC, "001"))
	v, err := db.GetUint32(MCC)
	require.NoError(t, err)
	assert.Equal(t, uint32(0xFFFFF001), v)
}

func TestConstructSysInfoDistributesPresentSIBsAndBroadcasts(t *testing.T) {
	db := New(nil, nil)
	ch := db.Subscribe(4)

	require.NoError(t, db.SetInt64(Sib3Present, 1))
	require.NoError(t, db.SetInt64(Sib4Present, 1))
	require.NoError(t, db.SetInt64(Sib5Present, 1))

	si, err := db.ConstructSysInfo(context.Background())
	require.NoError(t, err)
	require.Len(t, si.SchedInfo, 3)
	assert.Equal(t, []int{3, 4}, si.SchedInfo[1].SIBNumbers)

	select {
	case got := <-ch:
		assert.Same(t, si, got)
	default:
		t.Fatal("expected sys info to be published to subscriber")
	}
}

func TestConstructSysInfoNarrowBandwidthLimitsOneSIBPerEntry(t *testing.T) {
	db := New(nil, nil)
	require.NoError(t, db.SetDouble(Bandwidth, 1.4))
	require.NoError(t, db.SetInt64(Sib3Present, 1))
	require.NoError(t, db.SetInt64(Sib4Present, 1))

	si, err := db.ConstructSysInfo(context.Background())
	require.NoError(t, err)
	require.Len(t, si.SchedInfo, 3)
	assert.Equal(t, []int{3}, si.SchedInfo[1].SIBNumbers)
	assert.Equal(t, []int{4}, si.SchedInfo[2].SIBNumbers)
}

// TestConstructSysInfoColdStartNarrowBandwidthProducesOneSchedInfoEntry
// covers a cold-start 1.4 MHz cell with no SIB3..8 present: exactly one
// scheduling-info entry, carrying no extra SIB numbers, whose image is
// the packed SIB2 transport block.
func TestConstructSysInfoColdStartNarrowBandwidthProducesOneSchedInfoEntry(t *testing.T) {
	db := New(nil, nil)
	require.NoError(t, db.SetDouble(Bandwidth, 1.4))

	si, err := db.ConstructSysInfo(context.Background())
	require.NoError(t, err)

	require.Len(t, si.SchedInfo, 1)
	assert.Empty(t, si.SchedInfo[0].SIBNumbers)

	wantSIB2 := wire.PackSIB2(wire.SIB2{
		P0NominalPUSCH: int(db.i64[P0NominalPUSCH]),
		P0NominalPUCCH: int(db.i64[P0NominalPUCCH]),
		QHyst:          int(db.i64[QHyst]),
	})
	assert.Equal(t, len(wantSIB2)*8, len(si.SchedInfo[0].Image)*8)
	assert.Equal(t, wantSIB2, si.SchedInfo[0].Image)

	assert.NotEmpty(t, si.MIBImage)
	assert.NotEmpty(t, si.SIB1Image)
}
