package pdcp

import (
	"time"

	"avaneesh/pdcp-lte-go/pkg/security"
)

// BearerKind distinguishes signalling and data radio bearers
type BearerKind int

const (
	BearerSRB BearerKind = iota
	BearerDRB
)

// String returns string representation of BearerKind
func (k BearerKind) String() string {
	switch k {
	case BearerSRB:
		return "SRB"
	case BearerDRB:
		return "DRB"
	default:
		return "Unknown"
	}
}

// Supported sequence number lengths in bits
const (
	SNLen5  = 5
	SNLen7  = 7
	SNLen12 = 12
	SNLen18 = 18
)

// DiscardInfinity disables the per-SDU discard timer
const DiscardInfinity time.Duration = 0

// ReorderingWindowDRB is the DRB reordering window in SN units.
// SRBs use a window of zero.
const ReorderingWindowDRB = 2048

// Config holds the per-bearer PDCP configuration
type Config struct {
	Kind  BearerKind // SRB or DRB
	SNLen uint8      // Sequence number length in bits (5, 7, 12 or 18)

	// BearerID is the 5-bit bearer identity folded into the security input
	BearerID uint8

	// DiscardTimer is the per-SDU discard timeout.
	// DiscardInfinity keeps SDUs until acknowledged.
	DiscardTimer time.Duration

	// StatusReportRequired requests a status report on reestablishment
	StatusReportRequired bool

	// TxDirection and RxDirection are the direction bits for the security
	// input: a UE transmits uplink and receives downlink, an eNB the
	// reverse
	TxDirection security.Direction
	RxDirection security.Direction
}

// DefaultSRBConfig returns the configuration used for signalling bearers
func DefaultSRBConfig(bearerID uint8) Config {
	return Config{
		Kind:         BearerSRB,
		SNLen:        SNLen5,
		BearerID:     bearerID,
		DiscardTimer: DiscardInfinity,
		TxDirection:  security.DirectionUplink,
		RxDirection:  security.DirectionDownlink,
	}
}

// DefaultDRBConfig returns the configuration used for data bearers
func DefaultDRBConfig(bearerID uint8) Config {
	return Config{
		Kind:         BearerDRB,
		SNLen:        SNLen12,
		BearerID:     bearerID,
		DiscardTimer: 100 * time.Millisecond,
		TxDirection:  security.DirectionUplink,
		RxDirection:  security.DirectionDownlink,
	}
}

// HeaderLen returns the data PDU header length in bytes for the
// configured SN length
func (c Config) HeaderLen() int {
	switch c.SNLen {
	case SNLen5, SNLen7:
		return 1
	case SNLen12:
		return 2
	case SNLen18:
		return 3
	default:
		return 0
	}
}

// MaxSN returns the largest sequence number representable on the wire
func (c Config) MaxSN() uint32 {
	return (1 << c.SNLen) - 1
}

// IsSRB reports whether the bearer is a signalling bearer
func (c Config) IsSRB() bool {
	return c.Kind == BearerSRB
}

// IsDRB reports whether the bearer is a data bearer
func (c Config) IsDRB() bool {
	return c.Kind == BearerDRB
}

// Valid checks the bearer/SN-length/RLC-mode combination.
// SRBs use 5-bit SNs, UM data bearers 7 or 12 bits, AM data bearers
// 12 or 18 bits.
func (c Config) Valid(rlcIsUM bool) bool {
	switch c.SNLen {
	case SNLen5:
		return c.IsSRB()
	case SNLen7:
		return c.IsDRB() && rlcIsUM
	case SNLen12:
		return c.IsDRB()
	case SNLen18:
		return c.IsDRB() && !rlcIsUM
	default:
		return false
	}
}
