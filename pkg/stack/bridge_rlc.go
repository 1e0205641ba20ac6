package stack

import (
	"sync"

	"avaneesh/pdcp-lte-go/pkg/channel"
	"avaneesh/pdcp-lte-go/pkg/internal/logger"
	"avaneesh/pdcp-lte-go/pkg/pdcp"
	"avaneesh/pdcp-lte-go/pkg/types"
)

// BridgeRLC is an RLC stand-in that forwards PDCP PDUs over a bridge
// in transparent mode. Used by interop rigs and integration tests to
// connect two stacks without a real RLC below them.
type BridgeRLC struct {
	bridge *channel.Bridge
	logger logger.Logger

	um map[uint16]bool
	mu sync.RWMutex
}

// NewBridgeRLC creates a bridge-backed RLC
func NewBridgeRLC(bridge *channel.Bridge, log logger.Logger) *BridgeRLC {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &BridgeRLC{
		bridge: bridge,
		logger: log,
		um:     make(map[uint16]bool),
	}
}

// SetUM declares a bearer as mapped to RLC UM
func (r *BridgeRLC) SetUM(lcid uint16, um bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.um[lcid] = um
}

// WriteSDU implements pdcp.RLC by framing the PDU onto the bridge
func (r *BridgeRLC) WriteSDU(lcid uint16, sdu *types.Buffer) {
	r.bridge.Send(lcid, sdu.Data())
	sdu.Free()
}

// DiscardSDU implements pdcp.RLC. Transparent mode queues nothing, so
// there is never anything to discard.
func (r *BridgeRLC) DiscardSDU(lcid uint16, sn uint32) {
	r.logger.Debug("BridgeRLC: discard request LCID=%d SN=%d ignored", lcid, sn)
}

// RBIsUM implements pdcp.RLC
func (r *BridgeRLC) RBIsUM(lcid uint16) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.um[lcid]
}

// SDUQueueIsFull implements pdcp.RLC and always reports false. The
// bridge drops a PDU itself when its write queue is full.
func (r *BridgeRLC) SDUQueueIsFull(lcid uint16) bool {
	return false
}

// compile-time interface check
var _ pdcp.RLC = (*BridgeRLC)(nil)
