package stack

import (
	"bytes"
	"context"
	"sync"
	"testing"
	"time"

	"avaneesh/pdcp-lte-go/pkg/channel"
	"avaneesh/pdcp-lte-go/pkg/pdcp"
	"avaneesh/pdcp-lte-go/pkg/types"
)

// memChannel is an in-process PhysicalChannel half for wiring two
// stacks together without sockets
type memChannel struct {
	rx     chan []byte
	tx     chan []byte
	closed chan struct{}
	once   sync.Once
}

func newMemPair() (*memChannel, *memChannel) {
	ab := make(chan []byte, 64)
	ba := make(chan []byte, 64)
	a := &memChannel{rx: ba, tx: ab, closed: make(chan struct{})}
	b := &memChannel{rx: ab, tx: ba, closed: make(chan struct{})}
	return a, b
}

func (m *memChannel) Read(ctx context.Context) ([]byte, error) {
	select {
	case data := <-m.rx:
		return data, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-m.closed:
		return nil, context.Canceled
	}
}

func (m *memChannel) Write(ctx context.Context, data []byte) error {
	cp := make([]byte, len(data))
	copy(cp, data)
	select {
	case m.tx <- cp:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-m.closed:
		return context.Canceled
	}
}

func (m *memChannel) Close() error {
	m.once.Do(func() { close(m.closed) })
	return nil
}

func (m *memChannel) Statistics() channel.TransportStats                  { return channel.TransportStats{} }
func (m *memChannel) SetConnectionStateListener(channel.ConnectionStateListener) {}

// recordGW collects SDUs delivered to the gateway
type recordGW struct {
	mu        sync.Mutex
	delivered [][]byte
}

func (g *recordGW) WritePDU(lcid uint16, pdu *types.Buffer) {
	cp := make([]byte, pdu.Len())
	copy(cp, pdu.Data())
	g.mu.Lock()
	g.delivered = append(g.delivered, cp)
	g.mu.Unlock()
}

func (g *recordGW) count() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.delivered)
}

// recordRRC names bearers and collects SRB SDUs
type recordRRC struct {
	recordGW
}

func (r *recordRRC) RBName(lcid uint16) string { return "DRB" }

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met within deadline")
}

func TestStack_AddRemoveBearer(t *testing.T) {
	phys, _ := newMemPair()
	bridge := channel.NewBridge("t", phys, nil)
	rlc := NewBridgeRLC(bridge, nil)
	rlc.SetUM(4, true)

	s, err := New(Config{RLC: rlc, GW: &recordGW{}, RRC: &recordRRC{}})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	cfg := pdcp.DefaultDRBConfig(1)
	cfg.SNLen = pdcp.SNLen7
	cfg.DiscardTimer = pdcp.DiscardInfinity

	if _, err := s.AddBearer(4, cfg); err != nil {
		t.Fatalf("AddBearer() error: %v", err)
	}
	if _, err := s.AddBearer(4, cfg); err == nil {
		t.Error("duplicate AddBearer succeeded")
	}
	if s.BearerCount() != 1 {
		t.Errorf("BearerCount() = %d, expected 1", s.BearerCount())
	}

	if err := s.RemoveBearer(4); err != nil {
		t.Fatalf("RemoveBearer() error: %v", err)
	}
	if err := s.RemoveBearer(4); err == nil {
		t.Error("RemoveBearer succeeded twice")
	}
}

// Two stacks exchange a DRB SDU across an in-memory bridge pair
func TestStack_EndToEndOverBridge(t *testing.T) {
	physUE, physENB := newMemPair()

	bridgeUE := channel.NewBridge("ue", physUE, nil)
	bridgeENB := channel.NewBridge("enb", physENB, nil)

	const lcid = 4

	buildStack := func(bridge *channel.Bridge) (*Stack, *recordGW) {
		rlc := NewBridgeRLC(bridge, nil)
		rlc.SetUM(lcid, true)
		gw := &recordGW{}

		s, err := New(Config{RLC: rlc, GW: gw, RRC: &recordRRC{}})
		if err != nil {
			t.Fatalf("New() error: %v", err)
		}

		cfg := pdcp.DefaultDRBConfig(1)
		cfg.SNLen = pdcp.SNLen7
		cfg.DiscardTimer = pdcp.DiscardInfinity
		if _, err := s.AddBearer(lcid, cfg); err != nil {
			t.Fatalf("AddBearer() error: %v", err)
		}
		if err := s.AttachBridge(bridge); err != nil {
			t.Fatalf("AttachBridge() error: %v", err)
		}
		return s, gw
	}

	ue, _ := buildStack(bridgeUE)
	_, enbGW := buildStack(bridgeENB)

	if err := bridgeUE.Open(); err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	if err := bridgeENB.Open(); err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	defer bridgeUE.Close()
	defer bridgeENB.Close()

	payload := []byte("ip packet")
	bearer, _ := ue.GetBearer(lcid)
	bearer.WriteSDU(types.NewBufferFrom(payload))

	waitFor(t, func() bool { return enbGW.count() == 1 })

	enbGW.mu.Lock()
	defer enbGW.mu.Unlock()
	if !bytes.Equal(enbGW.delivered[0], payload) {
		t.Errorf("delivered = % X, expected % X", enbGW.delivered[0], payload)
	}
}

func TestStack_WritePDUUnknownLCID(t *testing.T) {
	phys, _ := newMemPair()
	bridge := channel.NewBridge("t", phys, nil)
	rlc := NewBridgeRLC(bridge, nil)

	s, err := New(Config{RLC: rlc, GW: &recordGW{}, RRC: &recordRRC{}})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	// Must not panic
	s.WritePDU(9, types.NewBufferFrom([]byte{0x80, 0x00}))
}

func TestStack_RequiresRLC(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Error("New() without RLC succeeded")
	}
}
