package security

import (
	"crypto/aes"
	"crypto/cipher"
)

// NullCipher is EEA0: no confidentiality protection
type NullCipher struct{}

// NewNullCipher creates the EEA0 null ciphering algorithm
func NewNullCipher() *NullCipher {
	return &NullCipher{}
}

// Encrypt leaves data unchanged
func (c *NullCipher) Encrypt(data []byte, count uint32, bearer uint8, dir Direction) {}

// Decrypt leaves data unchanged
func (c *NullCipher) Decrypt(data []byte, count uint32, bearer uint8, dir Direction) {}

// EEA2 is 128-EEA2: AES-128 in counter mode with the LTE counter block
// (TS 33.401 B.1.3)
type EEA2 struct {
	block cipher.Block
}

// NewEEA2 creates the AES-CTR ciphering algorithm with a 128-bit key
func NewEEA2(key []byte) (*EEA2, error) {
	if len(key) != KeyLen {
		return nil, ErrKeySize
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return &EEA2{block: block}, nil
}

// Encrypt applies the AES-CTR keystream to data in place
func (c *EEA2) Encrypt(data []byte, count uint32, bearer uint8, dir Direction) {
	c.apply(data, count, bearer, dir)
}

// Decrypt applies the AES-CTR keystream to data in place.
// CTR mode is symmetric, decryption equals encryption.
func (c *EEA2) Decrypt(data []byte, count uint32, bearer uint8, dir Direction) {
	c.apply(data, count, bearer, dir)
}

func (c *EEA2) apply(data []byte, count uint32, bearer uint8, dir Direction) {
	// T1 = COUNT || BEARER || DIRECTION || 0^26, low 64 bits start at zero
	var iv [aes.BlockSize]byte
	preamble := ivPreamble(count, bearer, dir)
	copy(iv[:8], preamble[:])

	stream := cipher.NewCTR(c.block, iv[:])
	stream.XORKeyStream(data, data)
}
