package pdcp

import (
	"avaneesh/pdcp-lte-go/pkg/internal/logger"
	"avaneesh/pdcp-lte-go/pkg/security"
	"avaneesh/pdcp-lte-go/pkg/types"
)

// WritePDU feeds a PDU received from RLC into the entity.
// Malformed PDUs and integrity failures are dropped silently; no error
// crosses the API boundary.
func (e *Entity) WritePDU(pdu *types.Buffer) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.active {
		e.logger.Warn("%s dropping PDU, entity is inactive", e.rbName())
		return
	}

	// Control PDUs exist on DRBs only; SRB headers carry no D/C bit
	if e.cfg.IsDRB() && isControlPDU(pdu.Data()) {
		e.logger.Info("%s handling PDCP control PDU", e.rbName())
		e.handleControlPDU(pdu)
		return
	}

	if pdu.Len() <= e.cfg.HeaderLen() {
		e.logger.Error("%s PDU smaller than required header size (%d B)", e.rbName(), pdu.Len())
		e.stats.rxDroppedMalformed.Add(1)
		return
	}

	sn, err := readDataSN(e.cfg, pdu.Data())
	if err != nil {
		e.logger.Error("%s malformed PDU header: %v", e.rbName(), err)
		e.stats.rxDroppedMalformed.Add(1)
		return
	}

	e.checkPendingRxSecurity(sn)

	e.logger.Info("%s RX PDU SN=%d (%d B, integrity=%s, encryption=%s) %s",
		e.rbName(), sn, pdu.Len(), e.integrityDir, e.encryptionDir, logger.DumpPDU(pdu.Data()))

	switch {
	case e.cfg.IsSRB():
		e.handleSRBPDU(pdu, sn)
	case e.isUM():
		e.handleUMDRBPDU(pdu, sn)
	default:
		e.handleAMDRBPDU(pdu, sn)
	}
}

// handleSRBPDU processes a signalling bearer PDU (TS 36.323 5.1.2.2).
//
// The SRB reordering window is zero, so an SN below the expected one can
// only mean the HFN rolled over.
func (e *Entity) handleSRBPDU(pdu *types.Buffer, sn uint32) {
	e.logger.Debug("%s RX SRB PDU: next_rx_sn=%d sn=%d", e.rbName(), e.st.NextRxSN, sn)

	var count uint32
	if sn < e.st.NextRxSN {
		count = e.rxCount(e.st.RxHFN+1, sn)
	} else {
		count = e.rxCount(e.st.RxHFN, sn)
	}

	hdrLen := e.cfg.HeaderLen()
	if e.encryptionDir.rxEnabled() && e.cipher != nil {
		e.cipher.Decrypt(pdu.Data()[hdrLen:], count, e.cfg.BearerID, e.cfg.RxDirection)
	}

	// SRB PDUs always carry a MAC trailer
	if pdu.Len() < hdrLen+security.MACLen {
		e.logger.Error("%s SRB PDU too short for MAC (%d B)", e.rbName(), pdu.Len())
		e.stats.rxDroppedMalformed.Add(1)
		return
	}
	var mac [security.MACLen]byte
	data := pdu.Data()
	copy(mac[:], data[len(data)-security.MACLen:])
	pdu.TrimBack(security.MACLen)

	if e.integrityDir.rxEnabled() && e.integrity != nil {
		if !e.integrity.Verify(pdu.Data(), count, e.cfg.BearerID, e.cfg.RxDirection, mac) {
			e.logger.Error("%s integrity check failed, dropping PDU SN=%d", e.rbName(), sn)
			e.stats.rxIntegrityFailures.Add(1)
			return
		}
	}

	pdu.TrimFront(hdrLen)

	if sn < e.st.NextRxSN {
		e.st.RxHFN++
	}
	e.st.NextRxSN = sn + 1
	if e.st.NextRxSN > e.maxSN {
		e.st.NextRxSN = 0
		e.st.RxHFN++
	}

	e.stats.rxPDUs.Add(1)
	e.stats.rxBytes.Add(uint64(pdu.Len()))
	e.rrc.WritePDU(e.lcid, pdu)
}

// handleUMDRBPDU processes a data bearer PDU on RLC UM (TS 36.323
// 5.1.2.1.3). No reordering and no integrity.
func (e *Entity) handleUMDRBPDU(pdu *types.Buffer, sn uint32) {
	pdu.TrimFront(e.cfg.HeaderLen())

	if sn < e.st.NextRxSN {
		e.st.RxHFN++
	}

	count := e.rxCount(e.st.RxHFN, sn)
	if e.encryptionDir.rxEnabled() && e.cipher != nil {
		e.cipher.Decrypt(pdu.Data(), count, e.cfg.BearerID, e.cfg.RxDirection)
	}

	e.st.NextRxSN = sn + 1
	if e.st.NextRxSN > e.maxSN {
		e.st.NextRxSN = 0
		e.st.RxHFN++
	}

	e.stats.rxPDUs.Add(1)
	e.stats.rxBytes.Add(uint64(pdu.Len()))
	e.gw.WritePDU(e.lcid, pdu)
}

// handleAMDRBPDU processes a data bearer PDU on RLC AM (TS 36.323
// 5.1.2.1.2, the no-reordering variant).
//
// RLC AM already delivers in order; PDCP only rejects out-of-window
// duplicates and reconstructs the COUNT across SN wrap. The window
// comparisons rely on wrap-around arithmetic: raw uint32 subtraction
// reinterpreted as signed. SN values outside [0, 2^sn_len) are invalid
// inputs.
func (e *Entity) handleAMDRBPDU(pdu *types.Buffer, sn uint32) {
	pdu.TrimFront(e.cfg.HeaderLen())

	lastSubmitDiffSN := int32(e.st.LastSubmittedRxSN - sn)
	snDiffLastSubmit := int32(sn - e.st.LastSubmittedRxSN)
	snDiffNextRxSN := int32(sn - e.st.NextRxSN)
	window := int32(e.reorderingWindow)

	e.logger.Debug("%s RX AM PDU: rx_hfn=%d sn=%d last_submitted=%d next_rx_sn=%d",
		e.rbName(), e.st.RxHFN, sn, e.st.LastSubmittedRxSN, e.st.NextRxSN)

	// A duplicate far ahead of the last delivered SN, or within window
	// below it, is discarded
	if (snDiffLastSubmit >= 0 && snDiffLastSubmit > window) ||
		(lastSubmitDiffSN >= 0 && lastSubmitDiffSN < window) {
		e.logger.Debug("%s discarding SN=%d (sn_diff_last_submit=%d, last_submit_diff_sn=%d, window=%d)",
			e.rbName(), sn, snDiffLastSubmit, lastSubmitDiffSN, window)
		e.stats.rxDroppedWindow.Add(1)
		return
	}

	var count uint32
	switch {
	case int32(e.st.NextRxSN-sn) > window:
		// SN wrapped upward, the PDU belongs to the next HFN
		e.st.RxHFN++
		count = e.rxCount(e.st.RxHFN, sn)
		e.st.NextRxSN = sn + 1

	case snDiffNextRxSN >= window:
		// Late PDU from the previous HFN
		count = e.rxCount(e.st.RxHFN-1, sn)

	case sn >= e.st.NextRxSN:
		count = e.rxCount(e.st.RxHFN, sn)
		e.st.NextRxSN = sn + 1
		if e.st.NextRxSN > e.maxSN {
			e.st.NextRxSN = 0
			e.st.RxHFN++
		}

	default: // sn < e.st.NextRxSN
		count = e.rxCount(e.st.RxHFN, sn)
	}

	if e.encryptionDir.rxEnabled() && e.cipher != nil {
		e.cipher.Decrypt(pdu.Data(), count, e.cfg.BearerID, e.cfg.RxDirection)
	}

	e.st.LastSubmittedRxSN = sn

	e.stats.rxPDUs.Add(1)
	e.stats.rxBytes.Add(uint64(pdu.Len()))
	e.gw.WritePDU(e.lcid, pdu)
}
