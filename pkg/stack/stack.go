// Package stack ties PDCP entities, upper-layer consumers and transport
// bridges together into a per-UE (or per-eNB) protocol stack.
package stack

import (
	"fmt"
	"sync"

	"avaneesh/pdcp-lte-go/pkg/channel"
	"avaneesh/pdcp-lte-go/pkg/internal/logger"
	"avaneesh/pdcp-lte-go/pkg/pdcp"
	"avaneesh/pdcp-lte-go/pkg/timeutil"
	"avaneesh/pdcp-lte-go/pkg/types"
)

// Stack is the root object owning one PDCP entity per logical channel
type Stack struct {
	rlc    pdcp.RLC
	rrc    pdcp.RRC
	gw     pdcp.Gateway
	timers timeutil.Service
	pool   *types.Pool
	logger logger.Logger

	entities map[uint16]*pdcp.Entity
	mu       sync.RWMutex
}

// Config carries the collaborators shared by every bearer of a stack
type Config struct {
	RLC    pdcp.RLC        // Lower layer, required
	RRC    pdcp.RRC        // SRB consumer and bearer naming, required for SRBs
	GW     pdcp.Gateway    // DRB consumer, required for DRBs
	Timers timeutil.Service // Optional, defaults to the system clock
	Pool   *types.Pool     // Optional, defaults to standalone buffers
	Logger logger.Logger   // Optional, defaults to the global default
}

// New creates an empty stack
func New(cfg Config) (*Stack, error) {
	if cfg.RLC == nil {
		return nil, fmt.Errorf("rlc is required")
	}

	log := cfg.Logger
	if log == nil {
		log = logger.GetDefault()
	}

	return &Stack{
		rlc:      cfg.RLC,
		rrc:      cfg.RRC,
		gw:       cfg.GW,
		timers:   cfg.Timers,
		pool:     cfg.Pool,
		logger:   log,
		entities: make(map[uint16]*pdcp.Entity),
	}, nil
}

// AddBearer instantiates a PDCP entity for the given LCID
func (s *Stack) AddBearer(lcid uint16, cfg pdcp.Config) (*pdcp.Entity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.entities[lcid]; exists {
		return nil, fmt.Errorf("bearer with LCID %d already exists", lcid)
	}

	e := pdcp.New(s.rlc, s.rrc, s.gw, s.timers, s.pool, s.logger, lcid, cfg)
	s.entities[lcid] = e
	s.logger.Info("Stack: added bearer LCID=%d (%s)", lcid, cfg.Kind)
	return e, nil
}

// RemoveBearer resets and forgets the entity for an LCID
func (s *Stack) RemoveBearer(lcid uint16) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, exists := s.entities[lcid]
	if !exists {
		return fmt.Errorf("bearer with LCID %d not found", lcid)
	}

	e.Reset()
	delete(s.entities, lcid)
	s.logger.Info("Stack: removed bearer LCID=%d", lcid)
	return nil
}

// GetBearer returns the entity for an LCID
func (s *Stack) GetBearer(lcid uint16) (*pdcp.Entity, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, exists := s.entities[lcid]
	return e, exists
}

// BearerCount returns the number of configured bearers
func (s *Stack) BearerCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entities)
}

// WritePDU feeds a received PDU into the entity for an LCID
func (s *Stack) WritePDU(lcid uint16, pdu *types.Buffer) {
	s.mu.RLock()
	e, exists := s.entities[lcid]
	s.mu.RUnlock()

	if !exists {
		s.logger.Warn("Stack: dropping PDU for unknown LCID=%d", lcid)
		return
	}
	e.WritePDU(pdu)
}

// ForEachBearer visits every configured entity
func (s *Stack) ForEachBearer(fn func(lcid uint16, e *pdcp.Entity)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for lcid, e := range s.entities {
		fn(lcid, e)
	}
}

// ReestablishAll runs reestablishment on every bearer
func (s *Stack) ReestablishAll() {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, e := range s.entities {
		e.Reestablish()
	}
}

// Shutdown resets all bearers and empties the stack
func (s *Stack) Shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.logger.Info("Stack: shutting down")
	for lcid, e := range s.entities {
		e.Reset()
		delete(s.entities, lcid)
	}
}

// AttachBridge registers every configured bearer with a bridge so that
// inbound frames flow into WritePDU
func (s *Stack) AttachBridge(b *channel.Bridge) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for lcid := range s.entities {
		lcid := lcid
		err := b.AddSink(lcid, channel.PDUSinkFunc(func(payload []byte) {
			s.WritePDU(lcid, types.NewBufferFrom(payload))
		}))
		if err != nil {
			return err
		}
	}
	return nil
}
