package pdcp

// State holds the per-direction counters of a PDCP entity.
// The 32-bit COUNT used as security input is never stored: it is
// (HFN << SNLen) | SN, derived on transmit and reconstructed on
// receive.
type State struct {
	TxHFN    uint32 // TX hyper frame number
	NextTxSN uint32 // Next sequence number to assign

	RxHFN    uint32 // RX hyper frame number
	NextRxSN uint32 // Next sequence number expected

	// LastSubmittedRxSN is the SN of the last SDU delivered upward on
	// an AM data bearer. Initialized to the maximum SN.
	LastSubmittedRxSN uint32
}

// txCount derives the TX COUNT for the given SN
func (e *Entity) txCount(sn uint32) uint32 {
	return (e.st.TxHFN << e.cfg.SNLen) | sn
}

// rxCount derives an RX COUNT from an HFN and SN
func (e *Entity) rxCount(hfn, sn uint32) uint32 {
	return (hfn << e.cfg.SNLen) | sn
}

// snOfCount extracts the SN portion of a COUNT
func (e *Entity) snOfCount(count uint32) uint32 {
	return count & e.maxSN
}
