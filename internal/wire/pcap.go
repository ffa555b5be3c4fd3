package wire

import (
	"encoding/binary"
	"fmt"
	"io"
)

// PCAP global header constants for a "Link Type 147" (user-defined,
// used by wireshark's MAC-LTE dissector) capture.
const (
	pcapMagic       = 0xa1b2c3d4
	pcapVersionMaj  = 2
	pcapVersionMin  = 4
	pcapSnapLen     = 16384 // LIBLTE_MAX_MSG_SIZE/4 order of magnitude
	pcapLinkTypeLTE = 147
)

// RNTIType enumerates the MAC-LTE context header's RNTI-type field.
type RNTIType uint8

const (
	RNTINone RNTIType = iota
	RNTIP
	RNTIRA
	RNTIC
	RNTISI
	RNTIM
)

// Direction is the MAC-LTE context header's direction field.
type Direction uint8

const (
	DirectionUplink Direction = iota
	DirectionDownlink
)

// WritePCAPGlobalHeader writes the 24-byte libpcap global header.
func WritePCAPGlobalHeader(w io.Writer) error {
	hdr := make([]byte, 24)
	binary.LittleEndian.PutUint32(hdr[0:4], pcapMagic)
	binary.LittleEndian.PutUint16(hdr[4:6], pcapVersionMaj)
	binary.LittleEndian.PutUint16(hdr[6:8], pcapVersionMin)
	// thiszone, sigfigs left zero
	binary.LittleEndian.PutUint32(hdr[16:20], pcapSnapLen)
	binary.LittleEndian.PutUint32(hdr[20:24], pcapLinkTypeLTE)
	_, err := w.Write(hdr)
	return err
}

// MACLTEContext is the fixed 15-byte MAC-LTE context header wireshark
// expects ahead of every MAC PDU capture record.
type MACLTEContext struct {
	Direction Direction
	RNTIType  RNTIType
	RNTI      uint16
	SubFN     uint16
}

// marshal packs the context header's fixed tag/length/value sequence.
func (c MACLTEContext) marshal() []byte {
	b := make([]byte, 0, 15)
	b = append(b, 1 /* radio_type */, byte(c.Direction))
	b = append(b, byte(c.RNTIType))
	b = append(b, 2 /* rnti_tag */)
	b = binary.BigEndian.AppendUint16(b, c.RNTI)
	b = append(b, 3 /* ueid_tag */)
	b = binary.BigEndian.AppendUint16(b, 0)
	b = append(b, 4 /* subfn_tag */)
	b = binary.BigEndian.AppendUint16(b, c.SubFN)
	b = append(b, 7 /* crc_tag */, 1 /* crc ok */)
	b = append(b, 1 /* payload_tag */)
	return b
}

// WriteRecord appends one capture record: a per-packet header, the
// MAC-LTE context, then the packed MAC PDU bytes.
func WriteRecord(w io.Writer, tsSec, tsUsec uint32, ctx MACLTEContext, pdu []byte) error {
	body := append(ctx.marshal(), pdu...)

	rec := make([]byte, 16)
	binary.LittleEndian.PutUint32(rec[0:4], tsSec)
	binary.LittleEndian.PutUint32(rec[4:8], tsUsec)
	binary.LittleEndian.PutUint32(rec[8:12], uint32(len(body)))
	binary.LittleEndian.PutUint32(rec[12:16], uint32(len(body)))

	if _, err := w.Write(rec); err != nil {
		return fmt.Errorf("pcap: write record header: %w", err)
	}
	if _, err := w.Write(body); err != nil {
		return fmt.Errorf("pcap: write record body: %w", err)
	}
	return nil
}
