package pdcp

import (
	"errors"

	"avaneesh/pdcp-lte-go/pkg/types"
)

var (
	ErrPDUTooShort  = errors.New("pdu smaller than required header")
	ErrNoHeadroom   = errors.New("buffer headroom exhausted")
	ErrInvalidSNLen = errors.New("invalid sequence number length")
)

// Data PDU header layout, first byte:
//
//	SN=5  (SRB):  RRR SSSSS              1 byte header
//	SN=7  (DRB):  D SSSSSSS              1 byte header
//	SN=12 (DRB):  D RRR SSSS + 1 byte    2 byte header
//	SN=18 (DRB):  D RRRRR SS + 2 bytes   3 byte header
//
// D is the D/C bit (1 = data), R bits are reserved and transmitted as
// zero. SRB headers carry no D/C bit.
const (
	dcBitData uint8 = 0x80

	// Control PDU first byte: D/C=0, 3-bit PDU type, low bits carry
	// the FMS high bits for status reports
	controlPDUTypeShift = 4
	controlPDUTypeMask  = 0x07
)

// ControlPDUType identifies a PDCP control PDU
type ControlPDUType uint8

const (
	// ControlPDUStatusReport is the only control PDU type defined
	ControlPDUStatusReport ControlPDUType = 0
)

// String returns string representation of ControlPDUType
func (t ControlPDUType) String() string {
	if t == ControlPDUStatusReport {
		return "StatusReport"
	}
	return "Unknown"
}

// writeDataHeader prepends the data PDU header for the given COUNT.
// Only the SN portion of the COUNT reaches the wire.
func writeDataHeader(cfg Config, b *types.Buffer, count uint32) error {
	sn := count & cfg.MaxSN()

	hdr := b.Prepend(cfg.HeaderLen())
	if hdr == nil {
		return ErrNoHeadroom
	}

	switch cfg.SNLen {
	case SNLen5:
		hdr[0] = uint8(sn) & 0x1F
	case SNLen7:
		hdr[0] = dcBitData | (uint8(sn) & 0x7F)
	case SNLen12:
		hdr[0] = dcBitData | uint8(sn>>8)&0x0F
		hdr[1] = uint8(sn)
	case SNLen18:
		hdr[0] = dcBitData | uint8(sn>>16)&0x03
		hdr[1] = uint8(sn >> 8)
		hdr[2] = uint8(sn)
	default:
		b.TrimFront(cfg.HeaderLen())
		return ErrInvalidSNLen
	}
	return nil
}

// readDataSN extracts the sequence number from a data PDU header
func readDataSN(cfg Config, data []byte) (uint32, error) {
	if len(data) < cfg.HeaderLen() {
		return 0, ErrPDUTooShort
	}

	switch cfg.SNLen {
	case SNLen5:
		return uint32(data[0] & 0x1F), nil
	case SNLen7:
		return uint32(data[0] & 0x7F), nil
	case SNLen12:
		return uint32(data[0]&0x0F)<<8 | uint32(data[1]), nil
	case SNLen18:
		return uint32(data[0]&0x03)<<16 | uint32(data[1])<<8 | uint32(data[2]), nil
	default:
		return 0, ErrInvalidSNLen
	}
}

// isControlPDU reports whether a DRB PDU carries D/C=0.
// SRB PDUs have no D/C bit and are always data.
func isControlPDU(data []byte) bool {
	return len(data) > 0 && data[0]&dcBitData == 0
}

// controlPDUType extracts the 3-bit PDU type from a control PDU
func controlPDUType(data []byte) ControlPDUType {
	return ControlPDUType(data[0] >> controlPDUTypeShift & controlPDUTypeMask)
}
