package metrics

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"avaneesh/pdcp-lte-go/pkg/channel"
	"avaneesh/pdcp-lte-go/pkg/pdcp"
	"avaneesh/pdcp-lte-go/pkg/stack"
	"avaneesh/pdcp-lte-go/pkg/types"
)

// nullPhysical discards writes and never produces reads
type nullPhysical struct{}

func (nullPhysical) Read(ctx context.Context) ([]byte, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}
func (nullPhysical) Write(ctx context.Context, data []byte) error          { return nil }
func (nullPhysical) Close() error                                          { return nil }
func (nullPhysical) Statistics() channel.TransportStats                    { return channel.TransportStats{} }
func (nullPhysical) SetConnectionStateListener(channel.ConnectionStateListener) {}

type nullGW struct{}

func (nullGW) WritePDU(lcid uint16, pdu *types.Buffer) {}

type nullRRC struct{}

func (nullRRC) WritePDU(lcid uint16, pdu *types.Buffer) {}
func (nullRRC) RBName(lcid uint16) string               { return "DRB" }

func newTestStack(t *testing.T) *stack.Stack {
	t.Helper()

	phys := nullPhysical{}
	bridge := channel.NewBridge("metrics", phys, nil)
	rlc := stack.NewBridgeRLC(bridge, nil)
	rlc.SetUM(4, true)

	s, err := stack.New(stack.Config{RLC: rlc, GW: nullGW{}, RRC: nullRRC{}})
	if err != nil {
		t.Fatalf("stack.New() error: %v", err)
	}

	cfg := pdcp.DefaultDRBConfig(1)
	cfg.SNLen = pdcp.SNLen7
	cfg.DiscardTimer = pdcp.DiscardInfinity
	if _, err := s.AddBearer(4, cfg); err != nil {
		t.Fatalf("AddBearer() error: %v", err)
	}
	return s
}

func TestCollector_RegistersAndCollects(t *testing.T) {
	s := newTestStack(t)

	e, _ := s.GetBearer(4)
	e.WriteSDU(types.NewBufferFrom([]byte{0x01, 0x02}))

	reg := prometheus.NewRegistry()
	if err := reg.Register(NewCollector(s)); err != nil {
		t.Fatalf("Register() error: %v", err)
	}

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather() error: %v", err)
	}

	found := make(map[string]float64)
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			switch {
			case m.GetCounter() != nil:
				found[mf.GetName()] = m.GetCounter().GetValue()
			case m.GetGauge() != nil:
				found[mf.GetName()] = m.GetGauge().GetValue()
			}
		}
	}

	if found["pdcp_tx_pdus_total"] != 1 {
		t.Errorf("pdcp_tx_pdus_total = %v, expected 1", found["pdcp_tx_pdus_total"])
	}
	if _, ok := found["pdcp_undelivered_sdus"]; !ok {
		t.Error("pdcp_undelivered_sdus missing")
	}
}
