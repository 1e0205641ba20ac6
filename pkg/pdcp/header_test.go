package pdcp

import (
	"bytes"
	"testing"

	"avaneesh/pdcp-lte-go/pkg/types"
)

func TestWriteDataHeader_KnownVectors(t *testing.T) {
	tests := []struct {
		name     string
		cfg      Config
		count    uint32
		expected []byte
	}{
		{
			name:     "SRB SN5",
			cfg:      Config{Kind: BearerSRB, SNLen: SNLen5},
			count:    0x12, // SN 18
			expected: []byte{0x12},
		},
		{
			name:     "SRB SN5 reserved bits clear",
			cfg:      Config{Kind: BearerSRB, SNLen: SNLen5},
			count:    (3 << 5) | 0x1F, // HFN bits must not leak into the header
			expected: []byte{0x1F},
		},
		{
			name:     "DRB SN7 sets D/C",
			cfg:      Config{Kind: BearerDRB, SNLen: SNLen7},
			count:    0x45,
			expected: []byte{0xC5},
		},
		{
			name:     "DRB SN12",
			cfg:      Config{Kind: BearerDRB, SNLen: SNLen12},
			count:    0xABC,
			expected: []byte{0x8A, 0xBC},
		},
		{
			name:     "DRB SN18",
			cfg:      Config{Kind: BearerDRB, SNLen: SNLen18},
			count:    0x2ABCD,
			expected: []byte{0x82, 0xAB, 0xCD},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := types.NewBufferFrom([]byte{0xEE})
			if err := writeDataHeader(tt.cfg, b, tt.count); err != nil {
				t.Fatalf("writeDataHeader() error: %v", err)
			}

			got := b.Data()[:tt.cfg.HeaderLen()]
			if !bytes.Equal(got, tt.expected) {
				t.Errorf("header = % X, expected % X", got, tt.expected)
			}

			// Payload must follow the header untouched
			if b.Data()[tt.cfg.HeaderLen()] != 0xEE {
				t.Error("payload corrupted by header write")
			}
		})
	}
}

func TestReadDataSN_RoundTrip(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		sn   uint32
	}{
		{"SN5 zero", Config{Kind: BearerSRB, SNLen: SNLen5}, 0},
		{"SN5 max", Config{Kind: BearerSRB, SNLen: SNLen5}, 31},
		{"SN7 max", Config{Kind: BearerDRB, SNLen: SNLen7}, 127},
		{"SN12 mid", Config{Kind: BearerDRB, SNLen: SNLen12}, 2048},
		{"SN12 max", Config{Kind: BearerDRB, SNLen: SNLen12}, 4095},
		{"SN18 max", Config{Kind: BearerDRB, SNLen: SNLen18}, 262143},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := types.NewBufferFrom([]byte{0x00})
			if err := writeDataHeader(tt.cfg, b, tt.sn); err != nil {
				t.Fatalf("writeDataHeader() error: %v", err)
			}

			sn, err := readDataSN(tt.cfg, b.Data())
			if err != nil {
				t.Fatalf("readDataSN() error: %v", err)
			}
			if sn != tt.sn {
				t.Errorf("readDataSN() = %d, expected %d", sn, tt.sn)
			}
		})
	}
}

func TestReadDataSN_Truncated(t *testing.T) {
	cfg := Config{Kind: BearerDRB, SNLen: SNLen18}

	if _, err := readDataSN(cfg, []byte{0x80, 0x01}); err != ErrPDUTooShort {
		t.Errorf("readDataSN() = %v, expected ErrPDUTooShort", err)
	}
}

func TestIsControlPDU(t *testing.T) {
	tests := []struct {
		name     string
		data     []byte
		expected bool
	}{
		{"data PDU", []byte{0x80, 0x01}, false},
		{"control PDU", []byte{0x00, 0x05}, true},
		{"empty", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isControlPDU(tt.data); got != tt.expected {
				t.Errorf("isControlPDU() = %v, expected %v", got, tt.expected)
			}
		})
	}
}

func TestControlPDUType(t *testing.T) {
	if got := controlPDUType([]byte{0x00}); got != ControlPDUStatusReport {
		t.Errorf("controlPDUType() = %v, expected StatusReport", got)
	}
	if got := controlPDUType([]byte{0x10}); got == ControlPDUStatusReport {
		t.Error("controlPDUType() misparsed type field")
	}
}

func BenchmarkWriteDataHeader_SN12(b *testing.B) {
	cfg := Config{Kind: BearerDRB, SNLen: SNLen12}
	buf := types.NewBufferFrom(make([]byte, 1400))

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		writeDataHeader(cfg, buf, uint32(i)&0xFFF)
		buf.TrimFront(cfg.HeaderLen())
	}
}
