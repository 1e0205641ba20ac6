package pdcp

import "sync/atomic"

// Statistics tracks per-entity PDCP counters.
// All counters are updated atomically and safe to read concurrently.
type Statistics struct {
	txPDUs   atomic.Uint64
	txBytes  atomic.Uint64
	rxPDUs   atomic.Uint64
	rxBytes  atomic.Uint64

	txDroppedFullQueue  atomic.Uint64
	txDiscardTimeouts   atomic.Uint64
	rxDroppedMalformed  atomic.Uint64
	rxDroppedWindow     atomic.Uint64
	rxIntegrityFailures atomic.Uint64
	allocFailures       atomic.Uint64

	statusReportsTx atomic.Uint64
	statusReportsRx atomic.Uint64
}

// TxPDUs returns the number of PDUs handed to RLC
func (s *Statistics) TxPDUs() uint64 { return s.txPDUs.Load() }

// TxBytes returns the number of PDU bytes handed to RLC
func (s *Statistics) TxBytes() uint64 { return s.txBytes.Load() }

// RxPDUs returns the number of PDUs delivered upward
func (s *Statistics) RxPDUs() uint64 { return s.rxPDUs.Load() }

// RxBytes returns the number of SDU bytes delivered upward
func (s *Statistics) RxBytes() uint64 { return s.rxBytes.Load() }

// TxDroppedFullQueue returns SDUs dropped because the RLC queue was full
func (s *Statistics) TxDroppedFullQueue() uint64 { return s.txDroppedFullQueue.Load() }

// TxDiscardTimeouts returns SDUs discarded by timer expiry
func (s *Statistics) TxDiscardTimeouts() uint64 { return s.txDiscardTimeouts.Load() }

// RxDroppedMalformed returns PDUs dropped as malformed
func (s *Statistics) RxDroppedMalformed() uint64 { return s.rxDroppedMalformed.Load() }

// RxDroppedWindow returns PDUs dropped by the reordering window check
func (s *Statistics) RxDroppedWindow() uint64 { return s.rxDroppedWindow.Load() }

// RxIntegrityFailures returns PDUs dropped on MAC verification failure
func (s *Statistics) RxIntegrityFailures() uint64 { return s.rxIntegrityFailures.Load() }

// AllocFailures returns operations skipped because the buffer pool was
// exhausted
func (s *Statistics) AllocFailures() uint64 { return s.allocFailures.Load() }

// StatusReportsTx returns the number of status reports emitted
func (s *Statistics) StatusReportsTx() uint64 { return s.statusReportsTx.Load() }

// StatusReportsRx returns the number of status reports consumed
func (s *Statistics) StatusReportsRx() uint64 { return s.statusReportsRx.Load() }

// Reset resets all counters to zero
func (s *Statistics) Reset() {
	s.txPDUs.Store(0)
	s.txBytes.Store(0)
	s.rxPDUs.Store(0)
	s.rxBytes.Store(0)
	s.txDroppedFullQueue.Store(0)
	s.txDiscardTimeouts.Store(0)
	s.rxDroppedMalformed.Store(0)
	s.rxDroppedWindow.Store(0)
	s.rxIntegrityFailures.Store(0)
	s.allocFailures.Store(0)
	s.statusReportsTx.Store(0)
	s.statusReportsRx.Store(0)
}
