package wire

import "fmt"

// RARHeaderType distinguishes a backoff-indicator header from a
// RAPID-carrying header in a Random Access Response subheader.
type RARHeaderType int

const (
	RARHeaderBackoff RARHeaderType = iota
	RARHeaderRAPID
)

// RandomAccessResponse is the unpacked content of one RAR grant,
// matching the subheader+body layout in 3GPP TS 36.321 6.2.2/6.2.3.
type RandomAccessResponse struct {
	HeaderType RARHeaderType
	Extension  bool // E bit: another subheader follows
	BackoffInd uint8 // valid when HeaderType == RARHeaderBackoff
	RAPID      uint8 // valid when HeaderType == RARHeaderRAPID

	TimingAdvance uint16
	HoppingFlag   bool
	RBA           uint16 // resource block assignment (RIV)
	MCS           uint8
	TPCCommand    uint8
	ULDelay       bool
	CSIReq        bool
	TempCRNTI     uint16
}

// PackRandomAccessResponse encodes a single RAR grant (header + body) as
// packed bits, per the bit widths in §6 EXTERNAL INTERFACES.
func PackRandomAccessResponse(r RandomAccessResponse) []byte {
	w := &BitWriter{}

	w.WriteBit(r.Extension)
	isRAPID := r.HeaderType == RARHeaderRAPID
	w.WriteBit(isRAPID)

	if isRAPID {
		w.WriteBits(uint32(r.RAPID), 6)
	} else {
		w.WriteBits(0, 2) // R, R
		w.WriteBits(uint32(r.BackoffInd), 4)
		return w.Bytes()
	}

	w.WriteBit(false) // R
	w.WriteBits(uint32(r.TimingAdvance), 11)
	w.WriteBit(r.HoppingFlag)
	w.WriteBits(uint32(r.RBA), 10)
	w.WriteBits(uint32(r.MCS), 4)
	w.WriteBits(uint32(r.TPCCommand), 3)
	w.WriteBit(r.ULDelay)
	w.WriteBit(r.CSIReq)
	w.WriteBits(uint32(r.TempCRNTI), 16)

	return w.Bytes()
}

// UnpackRandomAccessResponse is the inverse of PackRandomAccessResponse.
func UnpackRandomAccessResponse(data []byte) (RandomAccessResponse, error) {
	r := NewBitReader(data)
	if r.BitsRemaining() < 8 {
		return RandomAccessResponse{}, fmt.Errorf("rar: short subheader")
	}

	var out RandomAccessResponse
	out.Extension = r.ReadBit()
	isRAPID := r.ReadBit()

	if !isRAPID {
		out.HeaderType = RARHeaderBackoff
		r.ReadBits(2) // R, R
		out.BackoffInd = uint8(r.ReadBits(4))
		return out, nil
	}

	out.HeaderType = RARHeaderRAPID
	out.RAPID = uint8(r.ReadBits(6))

	if r.BitsRemaining() < 48 {
		return RandomAccessResponse{}, fmt.Errorf("rar: short body")
	}
	r.ReadBit() // R
	out.TimingAdvance = uint16(r.ReadBits(11))
	out.HoppingFlag = r.ReadBit()
	out.RBA = uint16(r.ReadBits(10))
	out.MCS = uint8(r.ReadBits(4))
	out.TPCCommand = uint8(r.ReadBits(3))
	out.ULDelay = r.ReadBit()
	out.CSIReq = r.ReadBit()
	out.TempCRNTI = uint16(r.ReadBits(16))

	return out, nil
}
