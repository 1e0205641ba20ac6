package security

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/subtle"

	"github.com/aead/cmac"
)

// EIA2 is 128-EIA2: AES-128 CMAC over COUNT||BEARER||DIRECTION||message,
// truncated to 32 bits (TS 33.401 B.2.3)
type EIA2 struct {
	block cipher.Block
}

// NewEIA2 creates the AES-CMAC integrity algorithm with a 128-bit key
func NewEIA2(key []byte) (*EIA2, error) {
	if len(key) != KeyLen {
		return nil, ErrKeySize
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return &EIA2{block: block}, nil
}

// Generate computes the 4-byte MAC over data
func (i *EIA2) Generate(data []byte, count uint32, bearer uint8, dir Direction) [MACLen]byte {
	preamble := ivPreamble(count, bearer, dir)

	msg := make([]byte, len(preamble)+len(data))
	copy(msg, preamble[:])
	copy(msg[len(preamble):], data)

	full, err := cmac.Sum(msg, i.block, aes.BlockSize)
	var mac [MACLen]byte
	if err != nil {
		// Sum only fails on unsupported block sizes; AES never does
		return mac
	}
	copy(mac[:], full[:MACLen])
	return mac
}

// Verify checks mac against data in constant time
func (i *EIA2) Verify(data []byte, count uint32, bearer uint8, dir Direction, mac [MACLen]byte) bool {
	expected := i.Generate(data, count, bearer, dir)
	return subtle.ConstantTimeCompare(expected[:], mac[:]) == 1
}
