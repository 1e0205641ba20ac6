package pdcp

import (
	"avaneesh/pdcp-lte-go/pkg/types"
)

// SendStatusReport emits a Status Report control PDU (TS 36.323 5.3.1).
// AM data bearers only.
func (e *Entity) SendStatusReport() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.sendStatusReport()
}

func (e *Entity) sendStatusReport() {
	if e.isUM() || e.am == nil {
		e.logger.Error("%s cannot send status report, bearer is not RLC AM", e.rbName())
		return
	}

	// First Missing SN: the SN of the oldest unacknowledged SDU, or the
	// next TX SN when everything is acknowledged
	var fms uint32
	firstCount, haveStored := e.am.store.first()
	if haveStored {
		fms = e.snOfCount(firstCount)
	} else {
		fms = e.st.NextTxSN
	}

	e.logger.Debug("%s status report: fms=%d stored=%d", e.rbName(), fms, e.am.store.len())

	pdu, err := e.allocBuffer()
	if err != nil {
		e.logger.Error("%s buffer pool exhausted, status report not sent", e.rbName())
		e.stats.allocFailures.Add(1)
		return
	}

	hdr := uint8(ControlPDUStatusReport) << controlPDUTypeShift // D/C=0

	switch e.cfg.SNLen {
	case SNLen12:
		pdu.Append([]byte{
			hdr | uint8(fms>>8)&0x0F,
			uint8(fms),
		})
	case SNLen18:
		pdu.Append([]byte{
			hdr | uint8(fms>>16)&0x03,
			uint8(fms >> 8),
			uint8(fms),
		})
	default:
		e.logger.Error("%s unsupported SN length %d for status report", e.rbName(), e.cfg.SNLen)
		pdu.Free()
		return
	}

	// Bitmap over the stored SDUs, MSB first, bit (sn - FMS) set per
	// stored SN
	if haveStored {
		lastCount, _ := e.am.store.last()
		span := lastCount - firstCount + 1
		bitmap := make([]byte, (span+7)/8)

		e.am.store.forEach(func(count uint32, sdu *types.Buffer) {
			offset := count - firstCount
			bitmap[offset/8] |= 1 << (7 - offset%8)
		})
		pdu.Append(bitmap)
	}

	e.stats.statusReportsTx.Add(1)
	e.rlc.WriteSDU(e.lcid, pdu)
}

// handleControlPDU dispatches a received control PDU by type
func (e *Entity) handleControlPDU(pdu *types.Buffer) {
	switch controlPDUType(pdu.Data()) {
	case ControlPDUStatusReport:
		e.handleStatusReportPDU(pdu)
	default:
		e.logger.Warn("%s unhandled control PDU type %d", e.rbName(), controlPDUType(pdu.Data()))
	}
}

// handleStatusReportPDU consumes a Status Report (TS 36.323 5.3.2):
// stored SDUs below FMS are acknowledged implicitly, set bitmap bits
// acknowledge individual SNs, unset bits keep their SDUs stored.
func (e *Entity) handleStatusReportPDU(pdu *types.Buffer) {
	if e.am == nil {
		e.logger.Warn("%s ignoring status report, bearer is not RLC AM", e.rbName())
		return
	}

	data := pdu.Data()

	var fms uint32
	var bitmapOffset int
	switch e.cfg.SNLen {
	case SNLen12:
		bitmapOffset = 2
		if len(data) < bitmapOffset {
			e.logger.Error("%s malformed status report (%d B)", e.rbName(), len(data))
			e.stats.rxDroppedMalformed.Add(1)
			return
		}
		fms = uint32(data[0]&0x0F)<<8 | uint32(data[1])
	case SNLen18:
		bitmapOffset = 3
		if len(data) < bitmapOffset {
			e.logger.Error("%s malformed status report (%d B)", e.rbName(), len(data))
			e.stats.rxDroppedMalformed.Add(1)
			return
		}
		fms = uint32(data[0]&0x03)<<16 | uint32(data[1])<<8 | uint32(data[2])
	default:
		e.logger.Error("%s unsupported SN length %d for status report", e.rbName(), e.cfg.SNLen)
		return
	}

	e.logger.Info("%s handling status report: fms=%d size=%d B", e.rbName(), fms, len(data))

	// Everything below FMS is acknowledged
	for _, count := range e.storedCountsBelow(fms) {
		if sdu, ok := e.am.store.remove(count); ok {
			sdu.Free()
		}
		e.cancelDiscardTimer(count)
	}

	// Bitmap bits acknowledge individual SNs, MSB first
	for i := 0; bitmapOffset+i < len(data); i++ {
		b := data[bitmapOffset+i]
		for j := 0; j < 8; j++ {
			if b&(1<<(7-j)) == 0 {
				continue
			}
			sn := (fms + uint32(i)*8 + uint32(j)) & e.maxSN
			e.ackSN(sn)
		}
	}

	e.stats.statusReportsRx.Add(1)
}

// storedCountsBelow returns the stored COUNTs whose SN portion is
// behind fms in modular SN space
func (e *Entity) storedCountsBelow(fms uint32) []uint32 {
	var out []uint32
	e.am.store.forEach(func(count uint32, sdu *types.Buffer) {
		if e.snDiff(fms, e.snOfCount(count)) > 0 {
			out = append(out, count)
		}
	})
	return out
}

// ackSN acknowledges a single SN from the status report bitmap
func (e *Entity) ackSN(sn uint32) {
	count, ok := e.am.store.findBySN(sn, e.maxSN)
	if !ok {
		return
	}
	e.logger.Debug("%s status report ACKed SN=%d", e.rbName(), sn)
	if sdu, ok := e.am.store.remove(count); ok {
		sdu.Free()
	}
	e.cancelDiscardTimer(count)
}

// snDiff computes the signed modular difference a-b in SN space
func (e *Entity) snDiff(a, b uint32) int32 {
	d := (a - b) & e.maxSN
	if d > e.maxSN/2 {
		return int32(d) - int32(e.maxSN) - 1
	}
	return int32(d)
}
