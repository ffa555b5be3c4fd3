package wire

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRIV_LowerHalfFormula(t *testing.T) {
	// N_rb_ul=50, N_prb=3 (N_prb-1=2 <= 25) -> N_rb_ul*(N_prb-1)+rb_start
	assert.Equal(t, 50*2+5, RIV(50, 3, 5))
}

func TestRIV_UpperHalfFormula(t *testing.T) {
	// N_rb_ul=50, N_prb=40 (N_prb-1=39 > 25) -> reflected formula
	nRbUL, nPRB, rbStart := 50, 40, 5
	want := nRbUL*(nRbUL-nPRB+1) + (nRbUL - 1 - rbStart)
	assert.Equal(t, want, RIV(nRbUL, nPRB, rbStart))
}

func TestRandomAccessResponse_RAPIDRoundTrip(t *testing.T) {
	want := RandomAccessResponse{
		HeaderType:    RARHeaderRAPID,
		RAPID:         37,
		TimingAdvance: 1000,
		HoppingFlag:   true,
		RBA:           512,
		MCS:           9,
		TPCCommand:    3,
		ULDelay:       false,
		CSIReq:        true,
		TempCRNTI:     0xBEEF,
	}

	packed := PackRandomAccessResponse(want)
	got, err := UnpackRandomAccessResponse(packed)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestRandomAccessResponse_BackoffRoundTrip(t *testing.T) {
	want := RandomAccessResponse{HeaderType: RARHeaderBackoff, BackoffInd: 9}

	packed := PackRandomAccessResponse(want)
	got, err := UnpackRandomAccessResponse(packed)
	require.NoError(t, err)
	assert.Equal(t, want.HeaderType, got.HeaderType)
	assert.Equal(t, want.BackoffInd, got.BackoffInd)
}

func TestMacPDU_RoundTrip(t *testing.T) {
	want := MacPDU{Subheaders: []MacSubheader{
		{LCID: 1, SDU: []byte("first-sdu")},
		{LCID: 2, SDU: []byte("second, a bit longer sdu payload")},
		{LCID: 3, SDU: []byte("last-sdu-inferred-length")},
	}}

	packed, err := PackMacPDU(want)
	require.NoError(t, err)

	got, err := UnpackMacPDU(packed)
	require.NoError(t, err)
	require.Len(t, got.Subheaders, 3)
	for i := range want.Subheaders {
		assert.Equal(t, want.Subheaders[i].LCID, got.Subheaders[i].LCID)
		assert.Equal(t, want.Subheaders[i].SDU, got.Subheaders[i].SDU)
	}
}

func TestMacPDU_LongSDUUsesExtendedLengthField(t *testing.T) {
	longSDU := make([]byte, 200)
	for i := range longSDU {
		longSDU[i] = byte(i)
	}
	want := MacPDU{Subheaders: []MacSubheader{
		{LCID: 4, SDU: longSDU},
		{LCID: 5, SDU: []byte("final")},
	}}

	packed, err := PackMacPDU(want)
	require.NoError(t, err)
	got, err := UnpackMacPDU(packed)
	require.NoError(t, err)
	require.Len(t, got.Subheaders, 2)
	assert.Equal(t, longSDU, got.Subheaders[0].SDU)
	assert.Equal(t, []byte("final"), got.Subheaders[1].SDU)
}
