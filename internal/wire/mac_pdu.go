package wire

import "fmt"

// MacSubheader is one DL-SCH/UL-SCH subheader: a 5-bit logical channel
// id plus the length of the SDU/CE that follows it. The last subheader
// in a PDU carries no explicit length (it is inferred from what remains
// of the PDU).
type MacSubheader struct {
	LCID uint8
	SDU  []byte
}

// MacPDU is an unpacked DL-SCH/UL-SCH transport block: an ordered list
// of subheaders, each paired 1:1 with the SDU/CE bytes that follow the
// subheader chain, per 3GPP TS 36.321 6.1.2.
type MacPDU struct {
	Subheaders []MacSubheader
}

// longLCIDLength is the length (in bytes) above which a subheader uses
// the 15-bit length field instead of the 7-bit one.
const longLCIDLength = 127

// PackMacPDU encodes subheaders followed by their SDU payloads, matching
// liblte_mac's {R,R,E,LCID}+{F,L} subheader chain: every subheader but
// the last carries an explicit length; the last is open-ended.
func PackMacPDU(pdu MacPDU) ([]byte, error) {
	if len(pdu.Subheaders) == 0 {
		return nil, fmt.Errorf("mac pdu: no subheaders")
	}

	w := &BitWriter{}
	for i, sh := range pdu.Subheaders {
		last := i == len(pdu.Subheaders)-1
		w.WriteBit(false) // R
		w.WriteBit(false) // R
		w.WriteBit(!last) // E: another subheader follows
		w.WriteBits(uint32(sh.LCID), 5)

		if !last {
			long := len(sh.SDU) > longLCIDLength
			w.WriteBit(long)
			if long {
				w.WriteBits(uint32(len(sh.SDU)), 15)
			} else {
				w.WriteBits(uint32(len(sh.SDU)), 7)
			}
		}
	}

	out := w.Bytes()
	for _, sh := range pdu.Subheaders {
		out = append(out, sh.SDU...)
	}
	return out, nil
}

// UnpackMacPDU decodes subheaders and their payloads. The final
// subheader's length is inferred from the bytes remaining after all
// subheaders with an explicit length have been accounted for; if that
// inference would require a negative length, an error is returned. A
// large remainder is not checked: the last subheader takes all of it.
func UnpackMacPDU(data []byte) (MacPDU, error) {
	r := NewBitReader(data)

	type hdr struct {
		lcid uint8
		last bool
		n    int // -1 if inferred
	}
	var headers []hdr

	for {
		if r.BitsRemaining() < 8 {
			return MacPDU{}, fmt.Errorf("mac pdu: truncated subheader")
		}
		r.ReadBit() // R
		r.ReadBit() // R
		e := r.ReadBit()
		lcid := uint8(r.ReadBits(5))

		if !e {
			headers = append(headers, hdr{lcid: lcid, last: true, n: -1})
			break
		}

		long := r.ReadBit()
		var n int
		if long {
			n = int(r.ReadBits(15))
		} else {
			n = int(r.ReadBits(7))
		}
		headers = append(headers, hdr{lcid: lcid, last: false, n: n})
	}

	headerBytes := (r.pos + 7) / 8
	remaining := len(data) - headerBytes
	if remaining < 0 {
		return MacPDU{}, fmt.Errorf("mac pdu: header longer than message")
	}

	pdu := MacPDU{}
	offset := headerBytes
	for _, h := range headers {
		n := h.n
		if h.last {
			n = remaining
			remaining = 0
		} else {
			remaining -= n
			if remaining < 0 {
				return MacPDU{}, fmt.Errorf("mac pdu: subheader length exceeds remaining payload")
			}
		}
		if offset+n > len(data) {
			return MacPDU{}, fmt.Errorf("mac pdu: sdu extends past end of message")
		}
		pdu.Subheaders = append(pdu.Subheaders, MacSubheader{LCID: h.lcid, SDU: data[offset : offset+n]})
		offset += n
	}

	return pdu, nil
}
