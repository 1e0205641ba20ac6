// Package security implements the LTE user/control plane cryptographic
// primitives used by PDCP: EEA ciphering and EIA integrity protection
// (3GPP TS 33.401 annex B). The PDCP entity owns keys and activation
// state; this package only transforms bytes.
package security

import "errors"

// MACLen is the length of the integrity tag appended to protected PDUs
const MACLen = 4

// KeyLen is the length of the 128-bit bearer keys
const KeyLen = 16

var (
	ErrKeySize = errors.New("key must be 16 bytes")
)

// Direction is the single direction bit folded into the security input
type Direction uint8

const (
	DirectionUplink   Direction = 0
	DirectionDownlink Direction = 1
)

// String returns string representation of Direction
func (d Direction) String() string {
	if d == DirectionUplink {
		return "UL"
	}
	return "DL"
}

// Cipher encrypts and decrypts PDU payloads in place.
// count is the 32-bit PDCP COUNT, bearer the 5-bit bearer identity.
type Cipher interface {
	// Encrypt transforms data in place using the given security input
	Encrypt(data []byte, count uint32, bearer uint8, dir Direction)

	// Decrypt transforms data in place using the given security input
	Decrypt(data []byte, count uint32, bearer uint8, dir Direction)
}

// Integrity computes and checks the 4-byte MAC over whole PDUs
type Integrity interface {
	// Generate computes the MAC over data
	Generate(data []byte, count uint32, bearer uint8, dir Direction) [MACLen]byte

	// Verify checks mac against data, constant time
	Verify(data []byte, count uint32, bearer uint8, dir Direction, mac [MACLen]byte) bool
}

// ivPreamble builds the 8-byte COUNT||BEARER||DIRECTION||zeros block
// that both EEA2 and EIA2 prepend to their inputs
func ivPreamble(count uint32, bearer uint8, dir Direction) [8]byte {
	var p [8]byte
	p[0] = byte(count >> 24)
	p[1] = byte(count >> 16)
	p[2] = byte(count >> 8)
	p[3] = byte(count)
	p[4] = (bearer&0x1F)<<3 | (byte(dir)&0x01)<<2
	return p
}
