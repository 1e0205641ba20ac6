package pdcp

import (
	"avaneesh/pdcp-lte-go/pkg/security"
)

// SecurityState tracks which directions of a protection feature are
// active
type SecurityState int

const (
	SecurityNone SecurityState = iota
	SecurityTx
	SecurityRx
	SecurityTxRx
)

// String returns string representation of SecurityState
func (s SecurityState) String() string {
	switch s {
	case SecurityNone:
		return "none"
	case SecurityTx:
		return "tx"
	case SecurityRx:
		return "rx"
	case SecurityTxRx:
		return "txrx"
	default:
		return "unknown"
	}
}

// txEnabled reports whether the TX direction is active
func (s SecurityState) txEnabled() bool {
	return s == SecurityTx || s == SecurityTxRx
}

// rxEnabled reports whether the RX direction is active
func (s SecurityState) rxEnabled() bool {
	return s == SecurityRx || s == SecurityTxRx
}

// promote adds a direction to the state
func (s SecurityState) promote(add SecurityState) SecurityState {
	switch {
	case s == add || s == SecurityTxRx || add == SecurityNone:
		return s
	case s == SecurityNone:
		return add
	default:
		return SecurityTxRx
	}
}

// noLatch marks an unarmed activation latch
const noLatch = -1

// SetSecurityAlgorithms installs the ciphering and integrity primitives.
// The primitives stay inactive until enabled directly or through an
// activation latch.
func (e *Entity) SetSecurityAlgorithms(cipher security.Cipher, integrity security.Integrity) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.cipher = cipher
	e.integrity = integrity
}

// EnableIntegrity activates integrity protection for the given
// directions immediately
func (e *Entity) EnableIntegrity(dir SecurityState) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.enableIntegrity(dir)
}

// EnableEncryption activates ciphering for the given directions
// immediately
func (e *Entity) EnableEncryption(dir SecurityState) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.enableEncryption(dir)
}

func (e *Entity) enableIntegrity(dir SecurityState) {
	e.integrityDir = e.integrityDir.promote(dir)
	e.logger.Debug("%s integrity direction: %s", e.rbName(), e.integrityDir)
}

func (e *Entity) enableEncryption(dir SecurityState) {
	e.encryptionDir = e.encryptionDir.promote(dir)
	e.logger.Debug("%s encryption direction: %s", e.rbName(), e.encryptionDir)
}

// ConfigSecurity arms the activation latches: TX protection turns on for
// the SDU whose TX COUNT equals txSN, RX protection for the PDU whose
// sequence number equals rxSN. Activation is edge triggered, exactly one
// SDU is the first protected one.
func (e *Entity) ConfigSecurity(txSN, rxSN uint32) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.enableSecurityTxSN = int64(txSN)
	e.enableSecurityRxSN = int64(rxSN)
	e.logger.Info("%s security configured: activate tx_sn=%d rx_sn=%d", e.rbName(), txSN, rxSN)
}

// checkPendingTxSecurity promotes TX security if the latch matches the
// COUNT about to be used
func (e *Entity) checkPendingTxSecurity(txCount uint32) {
	if e.enableSecurityTxSN == noLatch || e.enableSecurityTxSN != int64(txCount) {
		return
	}
	e.enableIntegrity(SecurityTx)
	e.enableEncryption(SecurityTx)
	e.enableSecurityTxSN = noLatch
}

// checkPendingRxSecurity promotes RX security if the latch matches the
// received SN
func (e *Entity) checkPendingRxSecurity(sn uint32) {
	if e.enableSecurityRxSN == noLatch || e.enableSecurityRxSN != int64(sn) {
		return
	}
	e.enableIntegrity(SecurityRx)
	e.enableEncryption(SecurityRx)
	e.enableSecurityRxSN = noLatch
}
