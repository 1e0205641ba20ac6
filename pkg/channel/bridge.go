package channel

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"avaneesh/pdcp-lte-go/pkg/internal/logger"
)

var (
	ErrBridgeClosed = errors.New("bridge is closed")
	ErrBridgeOpen   = errors.New("bridge is already open")
)

// PDUSink receives PDUs routed off a bridge for one bearer.
// A PDCP entity's WritePDU side is the usual sink.
type PDUSink interface {
	// OnPDU is called with the payload of every frame addressed to the
	// sink's LCID. The slice is owned by the caller for the duration of
	// the call.
	OnPDU(payload []byte)
}

// PDUSinkFunc adapts a function to the PDUSink interface
type PDUSinkFunc func(payload []byte)

// OnPDU implements PDUSink
func (f PDUSinkFunc) OnPDU(payload []byte) { f(payload) }

// Bridge carries PDCP PDUs between two stacks over a physical channel.
// Inbound frames are routed to per-LCID sinks; outbound PDUs are framed
// and serialized through a single write queue.
type Bridge struct {
	id       string
	physical PhysicalChannel
	logger   logger.Logger

	// Routing
	sinks  map[uint16]PDUSink
	sinkMu sync.RWMutex

	// State
	state   BridgeState
	stateMu sync.RWMutex

	// Statistics
	stats struct {
		txFrames    atomic.Uint64
		rxFrames    atomic.Uint64
		routeMisses atomic.Uint64
		decodeErrs  atomic.Uint64
	}

	// Concurrency
	ctx        context.Context
	cancel     context.CancelFunc
	wg         sync.WaitGroup
	writeQueue chan []byte
}

// NewBridge creates a bridge over the given physical channel
func NewBridge(id string, physical PhysicalChannel, log logger.Logger) *Bridge {
	if log == nil {
		log = logger.NewNoOpLogger()
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Bridge{
		id:         id,
		physical:   physical,
		logger:     log,
		sinks:      make(map[uint16]PDUSink),
		state:      BridgeStateClosed,
		ctx:        ctx,
		cancel:     cancel,
		writeQueue: make(chan []byte, 100),
	}
}

// ID returns the bridge ID
func (b *Bridge) ID() string {
	return b.id
}

// AddSink registers the sink for a bearer
func (b *Bridge) AddSink(lcid uint16, sink PDUSink) error {
	b.sinkMu.Lock()
	defer b.sinkMu.Unlock()

	if _, exists := b.sinks[lcid]; exists {
		return fmt.Errorf("sink for LCID %d already exists", lcid)
	}
	b.sinks[lcid] = sink
	return nil
}

// RemoveSink unregisters the sink for a bearer
func (b *Bridge) RemoveSink(lcid uint16) {
	b.sinkMu.Lock()
	defer b.sinkMu.Unlock()
	delete(b.sinks, lcid)
}

// Open starts the read and write loops
func (b *Bridge) Open() error {
	b.stateMu.Lock()
	defer b.stateMu.Unlock()

	if b.state == BridgeStateOpen {
		return ErrBridgeOpen
	}
	b.state = BridgeStateOpen
	b.logger.Info("Bridge %s opening", b.id)

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		b.readLoop()
	}()

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		b.writeLoop()
	}()

	b.logger.Info("Bridge %s opened", b.id)
	return nil
}

// Close stops the loops and closes the physical channel
func (b *Bridge) Close() error {
	b.stateMu.Lock()
	if b.state == BridgeStateClosed {
		b.stateMu.Unlock()
		return nil
	}
	b.state = BridgeStateClosed
	b.stateMu.Unlock()

	b.logger.Info("Bridge %s closing", b.id)
	b.cancel()

	if err := b.physical.Close(); err != nil {
		b.logger.Error("Bridge %s error closing physical channel: %v", b.id, err)
	}

	b.wg.Wait()
	b.logger.Info("Bridge %s closed", b.id)
	return nil
}

// State returns the bridge state
func (b *Bridge) State() BridgeState {
	b.stateMu.RLock()
	defer b.stateMu.RUnlock()
	return b.state
}

// Send frames a PDU for the given bearer and queues it for transmission.
// Non-blocking: when the write queue is full the PDU is dropped with a
// log entry, matching the layer's silent-drop error model.
func (b *Bridge) Send(lcid uint16, payload []byte) {
	frame := &Frame{LCID: lcid, Payload: payload}
	data, err := frame.Serialize()
	if err != nil {
		b.logger.Error("Bridge %s failed to serialize frame for LCID %d: %v", b.id, lcid, err)
		return
	}

	select {
	case b.writeQueue <- data:
	default:
		b.logger.Warn("Bridge %s write queue full, dropping PDU for LCID %d", b.id, lcid)
	}
}

// readLoop pulls frames off the physical channel and routes them
func (b *Bridge) readLoop() {
	for {
		select {
		case <-b.ctx.Done():
			return
		default:
		}

		data, err := b.physical.Read(b.ctx)
		if err != nil {
			if b.ctx.Err() != nil {
				return
			}
			continue
		}

		frame, err := ParseFrame(data)
		if err != nil {
			b.stats.decodeErrs.Add(1)
			b.logger.Warn("Bridge %s dropping undecodable frame: %v", b.id, err)
			continue
		}

		b.stats.rxFrames.Add(1)
		b.route(frame)
	}
}

// route hands a frame's payload to the sink registered for its LCID
func (b *Bridge) route(frame *Frame) {
	b.sinkMu.RLock()
	sink, exists := b.sinks[frame.LCID]
	b.sinkMu.RUnlock()

	if !exists {
		b.stats.routeMisses.Add(1)
		b.logger.Warn("Bridge %s no sink for LCID %d", b.id, frame.LCID)
		return
	}

	sink.OnPDU(frame.Payload)
}

// writeLoop serializes writes to the physical channel
func (b *Bridge) writeLoop() {
	for {
		select {
		case <-b.ctx.Done():
			return
		case data := <-b.writeQueue:
			if err := b.physical.Write(b.ctx, data); err != nil {
				b.logger.Error("Bridge %s write failed: %v", b.id, err)
				continue
			}
			b.stats.txFrames.Add(1)
		}
	}
}

// BridgeStats summarizes bridge-level counters
type BridgeStats struct {
	TxFrames    uint64
	RxFrames    uint64
	RouteMisses uint64
	DecodeErrs  uint64
}

// Statistics returns the bridge counters
func (b *Bridge) Statistics() BridgeStats {
	return BridgeStats{
		TxFrames:    b.stats.txFrames.Load(),
		RxFrames:    b.stats.rxFrames.Load(),
		RouteMisses: b.stats.routeMisses.Load(),
		DecodeErrs:  b.stats.decodeErrs.Load(),
	}
}
