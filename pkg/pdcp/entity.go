// Package pdcp implements the LTE Packet Data Convergence Protocol
// entity (3GPP TS 36.323). One entity is instantiated per radio bearer
// and sits between the upper layers (RRC for signalling bearers, the IP
// gateway for data bearers) and RLC.
package pdcp

import (
	"fmt"
	"sync"

	"avaneesh/pdcp-lte-go/pkg/internal/logger"
	"avaneesh/pdcp-lte-go/pkg/security"
	"avaneesh/pdcp-lte-go/pkg/timeutil"
	"avaneesh/pdcp-lte-go/pkg/types"
)

// Entity is a per-bearer PDCP entity.
//
// Entry points run to completion under an internal mutex: write, read,
// timer callbacks, delivery notifications and reconfiguration never run
// concurrently for the same bearer.
type Entity struct {
	lcid   uint16
	cfg    Config
	logger logger.Logger

	rlc    RLC
	rrc    RRC
	gw     Gateway
	timers timeutil.Service
	pool   *types.Pool

	mu     sync.Mutex
	active bool

	st               State
	maxSN            uint32
	reorderingWindow uint32

	// Security gate
	integrityDir       SecurityState
	encryptionDir      SecurityState
	enableSecurityTxSN int64
	enableSecurityRxSN int64
	cipher             security.Cipher
	integrity          security.Integrity

	// AM-only state: the undelivered-SDU store
	am *amState

	// Live discard timers keyed by TX COUNT
	discardTimers map[uint32]*timeutil.Timer

	stats Statistics
}

// amState carries the state only AM data bearers have
type amState struct {
	store *sduStore
}

// New creates a PDCP entity for the given bearer.
//
// An invalid bearer/SN-length combination is logged and leaves the
// entity inactive; the entity is still constructed so its state can be
// inspected.
func New(rlc RLC, rrc RRC, gw Gateway, timers timeutil.Service, pool *types.Pool,
	log logger.Logger, lcid uint16, cfg Config) *Entity {

	if log == nil {
		log = logger.NewNoOpLogger()
	}
	if timers == nil {
		timers = timeutil.NewService()
	}

	e := &Entity{
		lcid:               lcid,
		cfg:                cfg,
		logger:             log,
		rlc:                rlc,
		rrc:                rrc,
		gw:                 gw,
		timers:             timers,
		pool:               pool,
		maxSN:              cfg.MaxSN(),
		enableSecurityTxSN: noLatch,
		enableSecurityRxSN: noLatch,
		discardTimers:      make(map[uint32]*timeutil.Timer),
	}

	if cfg.IsDRB() {
		e.reorderingWindow = ReorderingWindowDRB
	}

	e.st.LastSubmittedRxSN = e.maxSN

	if cfg.IsDRB() && !rlc.RBIsUM(lcid) {
		e.am = &amState{store: newSDUStore()}
	}

	e.active = cfg.Valid(rlc.RBIsUM(lcid))
	if !e.active {
		log.Warn("Invalid PDCP config for %s: kind=%s sn_len=%d", e.rbName(), cfg.Kind, cfg.SNLen)
	}

	log.Info("Init %s: sn_len=%d bits, hdr_len=%d B, reordering window=%d, max SN=%d, discard timer=%v",
		e.rbName(), cfg.SNLen, cfg.HeaderLen(), e.reorderingWindow, e.maxSN, cfg.DiscardTimer)
	log.Info("%s status report required: %v", e.rbName(), cfg.StatusReportRequired)

	return e
}

// LCID returns the bearer's logical channel ID
func (e *Entity) LCID() uint16 {
	return e.lcid
}

// Config returns the bearer configuration
func (e *Entity) Config() Config {
	return e.cfg
}

// Active reports whether the entity accepts traffic
func (e *Entity) Active() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.active
}

// Statistics returns the entity's counters
func (e *Entity) Statistics() *Statistics {
	return &e.stats
}

// rbName returns the bearer name for log output
func (e *Entity) rbName() string {
	if e.rrc != nil {
		return e.rrc.RBName(e.lcid)
	}
	return fmt.Sprintf("LCID=%d", e.lcid)
}

// isUM reports whether the bearer is mapped to RLC UM
func (e *Entity) isUM() bool {
	return e.rlc.RBIsUM(e.lcid)
}

// isAM reports whether the bearer is a DRB mapped to RLC AM
func (e *Entity) isAM() bool {
	return e.cfg.IsDRB() && !e.isUM() && e.am != nil
}

// allocBuffer takes a buffer from the pool, or creates a standalone one
// when no pool is configured
func (e *Entity) allocBuffer() (*types.Buffer, error) {
	if e.pool == nil {
		return types.NewBuffer(types.DefaultBufferCapacity), nil
	}
	return e.pool.Allocate()
}

// WriteSDU enqueues a plaintext SDU for transmission, assigning the
// next TX sequence number
func (e *Entity) WriteSDU(sdu *types.Buffer) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.writeSDU(sdu, noUpperSN)
}

// WriteSDUWithSN enqueues an SDU under a sequence number chosen by the
// upper layers. Used during handover; TX counters are not advanced.
func (e *Entity) WriteSDUWithSN(sdu *types.Buffer, sn uint32) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.writeSDU(sdu, int64(sn))
}

// noUpperSN marks a transmission without an upper-layer SN
const noUpperSN int64 = -1

func (e *Entity) writeSDU(sdu *types.Buffer, upperSN int64) {
	if !e.active {
		e.logger.Warn("%s dropping SDU, entity is inactive", e.rbName())
		return
	}

	if e.rlc.SDUQueueIsFull(e.lcid) {
		e.logger.Info("%s dropping SDU, RLC SDU queue is full %s", e.rbName(), logger.DumpPDU(sdu.Data()))
		e.stats.txDroppedFullQueue.Add(1)
		return
	}

	usedSN := e.st.NextTxSN
	if upperSN != noUpperSN {
		usedSN = uint32(upperSN)
	}

	txCount := e.txCount(usedSN)

	// AM bearers keep a plaintext copy for retransmission on
	// reestablishment; the store also drives FMS for status reports
	if e.isAM() {
		e.storeSDU(txCount, sdu)
	}

	e.checkPendingTxSecurity(txCount)

	if err := writeDataHeader(e.cfg, sdu, txCount); err != nil {
		e.logger.Error("%s failed to write PDU header: %v", e.rbName(), err)
		return
	}

	if e.cfg.DiscardTimer != DiscardInfinity {
		e.startDiscardTimer(txCount, usedSN)
	}

	// SRBs always carry a 4-byte MAC trailer, all zero until integrity
	// is activated
	if e.cfg.IsSRB() {
		var mac [security.MACLen]byte
		if e.integrityDir.txEnabled() && e.integrity != nil {
			mac = e.integrity.Generate(sdu.Data(), txCount, e.cfg.BearerID, e.cfg.TxDirection)
		}
		sdu.Append(mac[:])
	}

	if e.encryptionDir.txEnabled() && e.cipher != nil {
		payload := sdu.Data()[e.cfg.HeaderLen():]
		e.cipher.Encrypt(payload, txCount, e.cfg.BearerID, e.cfg.TxDirection)
	}

	e.logger.Info("%s TX PDU SN=%d, integrity=%s, encryption=%s %s",
		e.rbName(), usedSN, e.integrityDir, e.encryptionDir, logger.DumpPDU(sdu.Data()))

	sdu.MD.PDCPSN = usedSN

	// Counters advance only when the SN was assigned here
	if upperSN == noUpperSN {
		e.st.NextTxSN++
		if e.st.NextTxSN > e.maxSN {
			e.st.TxHFN++
			e.st.NextTxSN = 0
		}
	}

	e.stats.txPDUs.Add(1)
	e.stats.txBytes.Add(uint64(sdu.Len()))

	e.rlc.WriteSDU(e.lcid, sdu)
}

// storeSDU puts a deep copy of the plaintext SDU into the undelivered
// store under its TX COUNT
func (e *Entity) storeSDU(txCount uint32, sdu *types.Buffer) {
	e.logger.Debug("%s storing SDU in undelivered queue: tx_count=%d depth=%d",
		e.rbName(), txCount, e.am.store.len())

	cp, err := e.allocBuffer()
	if err != nil {
		e.logger.Error("%s buffer pool exhausted, SDU not stored: tx_count=%d", e.rbName(), txCount)
		e.stats.allocFailures.Add(1)
		return
	}
	cp.SetData(sdu.Data())
	cp.MD = sdu.MD

	// An SDU must never overwrite an earlier one; a duplicate key is an
	// upstream bug
	if !e.am.store.insert(txCount, cp) {
		e.logger.Error("%s SDU already in undelivered queue: tx_count=%d", e.rbName(), txCount)
		cp.Free()
	}
}

// StoreDepth returns the number of SDUs in the undelivered store
func (e *Entity) StoreDepth() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.am == nil {
		return 0
	}
	return e.am.store.len()
}

// startDiscardTimer arms the per-SDU discard timer
func (e *Entity) startDiscardTimer(txCount, sn uint32) {
	t := e.timers.StartOneShot(e.cfg.DiscardTimer, func() {
		e.onDiscardExpiry(txCount, sn)
	})
	e.discardTimers[txCount] = t
	e.logger.Debug("%s discard timer set for SN=%d, timeout=%v", e.rbName(), sn, e.cfg.DiscardTimer)
}

// onDiscardExpiry runs when a discard timer fires: it evicts the stored
// SDU if still unacknowledged and tells RLC to drop the queued SDU
func (e *Entity) onDiscardExpiry(txCount, sn uint32) {
	e.mu.Lock()
	defer e.mu.Unlock()

	// A timer cancelled after firing but before this callback acquired
	// the lock is no longer in the map; the SDU it guarded was already
	// handled
	if _, armed := e.discardTimers[txCount]; !armed {
		return
	}

	e.logger.Debug("%s discard timer expired for SN=%d", e.rbName(), sn)

	if e.am != nil {
		if sdu, ok := e.am.store.remove(txCount); ok {
			sdu.Free()
			e.logger.Debug("%s removed undelivered SDU: tx_count=%d", e.rbName(), txCount)
		} else {
			e.logger.Debug("%s no undelivered SDU to discard: tx_count=%d", e.rbName(), txCount)
		}
	}

	e.stats.txDiscardTimeouts.Add(1)
	e.rlc.DiscardSDU(e.lcid, sn)

	// Removing the timer releases the callback, keep it last
	delete(e.discardTimers, txCount)
}

// cancelDiscardTimer stops and forgets the timer for a TX COUNT
func (e *Entity) cancelDiscardTimer(txCount uint32) {
	t, ok := e.discardTimers[txCount]
	if !ok {
		return
	}
	delete(e.discardTimers, txCount)
	t.Stop()
}

// cancelAllDiscardTimers stops every pending discard timer
func (e *Entity) cancelAllDiscardTimers() {
	for count, t := range e.discardTimers {
		t.Stop()
		delete(e.discardTimers, count)
	}
}

// NotifyDelivery handles a batch of PDCP SNs whose transmission RLC has
// confirmed: the stored copies are evicted and their timers cancelled.
// An unknown SN is logged and skipped, the discard timer may have fired
// first.
func (e *Entity) NotifyDelivery(sns []uint32) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.logger.Debug("%s delivery notification for %d PDUs", e.rbName(), len(sns))

	if e.am == nil {
		return
	}

	for _, sn := range sns {
		count, ok := e.am.store.findBySN(sn, e.maxSN)
		if !ok {
			e.logger.Warn("%s no undelivered SDU for delivery notification: sn=%d", e.rbName(), sn)
			continue
		}
		if sdu, ok := e.am.store.remove(count); ok {
			sdu.Free()
		}
		e.cancelDiscardTimer(count)
	}
}

// Reestablish runs the PDCP reestablishment procedure (TS 36.323 5.2).
//
// SRBs and UM data bearers reset their counters. AM data bearers keep
// counters, optionally emit a status report, and retransmit every
// undelivered SDU under its original SN.
func (e *Entity) Reestablish() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.logger.Info("Re-establish %s", e.rbName())

	if e.cfg.IsSRB() || e.isUM() {
		e.st.NextTxSN = 0
		e.st.TxHFN = 0
		e.st.RxHFN = 0
		e.st.NextRxSN = 0
		if e.am != nil {
			e.am.store.clear()
		}
		e.cancelAllDiscardTimers()
		return
	}

	if e.cfg.StatusReportRequired {
		e.sendStatusReport()
	}

	// Replay: move the store aside, then retransmit each SDU with its
	// original SN so counters are not advanced. New discard timers are
	// armed by the write path.
	entries := e.am.store.takeAll()
	e.cancelAllDiscardTimers()
	for _, en := range entries {
		e.writeSDU(en.sdu, int64(e.snOfCount(en.count)))
	}
}

// Reset stops the entity (RRC connection release). All pending discard
// timers are cancelled; the undelivered store survives for state
// extraction. Calling Reset twice is equivalent to calling it once.
func (e *Entity) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.active {
		e.logger.Debug("Reset %s", e.rbName())
	}
	e.active = false
	e.cancelAllDiscardTimers()
}

// GetBearerState returns a copy of the entity's counters
func (e *Entity) GetBearerState() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.st
}

// SetBearerState overwrites the entity's counters (handover)
func (e *Entity) SetBearerState(st State) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.st = st
}

// GetBufferedPDUs returns deep copies of the undelivered SDUs keyed by
// their PDCP SN
func (e *Entity) GetBufferedPDUs() map[uint32]*types.Buffer {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make(map[uint32]*types.Buffer)
	if e.am == nil {
		return out
	}
	e.am.store.forEach(func(count uint32, sdu *types.Buffer) {
		out[e.snOfCount(count)] = sdu.Clone()
	})
	return out
}
