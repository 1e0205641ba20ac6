package types

import (
	"bytes"
	"testing"
)

func TestBuffer_PrependAndTrim(t *testing.T) {
	b := NewBufferFrom([]byte{0xAA, 0xBB})

	hdr := b.Prepend(2)
	if hdr == nil {
		t.Fatal("Prepend returned nil with headroom available")
	}
	hdr[0] = 0x01
	hdr[1] = 0x02

	expected := []byte{0x01, 0x02, 0xAA, 0xBB}
	if !bytes.Equal(b.Data(), expected) {
		t.Errorf("Data() = % X, expected % X", b.Data(), expected)
	}

	b.TrimFront(2)
	if !bytes.Equal(b.Data(), []byte{0xAA, 0xBB}) {
		t.Errorf("Data() after TrimFront = % X", b.Data())
	}

	b.TrimBack(1)
	if !bytes.Equal(b.Data(), []byte{0xAA}) {
		t.Errorf("Data() after TrimBack = % X", b.Data())
	}
}

func TestBuffer_PrependExhaustsHeadroom(t *testing.T) {
	b := NewBufferFrom([]byte{0x01})

	if hdr := b.Prepend(DefaultHeadroom + 1); hdr != nil {
		t.Error("Prepend succeeded beyond headroom")
	}

	// Headroom itself is usable
	if hdr := b.Prepend(DefaultHeadroom); hdr == nil {
		t.Error("Prepend failed within headroom")
	}
}

func TestBuffer_Append(t *testing.T) {
	b := NewBuffer(4)
	b.Append([]byte{0x01, 0x02})
	b.Append([]byte{0x03})

	if !bytes.Equal(b.Data(), []byte{0x01, 0x02, 0x03}) {
		t.Errorf("Data() = % X", b.Data())
	}

	// Growing beyond initial capacity must work
	b.Append(bytes.Repeat([]byte{0xFF}, 16))
	if b.Len() != 19 {
		t.Errorf("Len() = %d, expected 19", b.Len())
	}
}

func TestBuffer_CloneIsDeep(t *testing.T) {
	b := NewBufferFrom([]byte{0x10, 0x20})
	b.MD.PDCPSN = 7

	c := b.Clone()
	if !bytes.Equal(c.Data(), b.Data()) {
		t.Fatalf("clone data mismatch")
	}
	if c.MD.PDCPSN != 7 {
		t.Errorf("clone metadata not copied")
	}

	c.Data()[0] = 0xFF
	if b.Data()[0] != 0x10 {
		t.Error("clone shares storage with original")
	}
}

func TestPool_Exhaustion(t *testing.T) {
	p := NewPool(2, 64)

	b1, err := p.Allocate()
	if err != nil {
		t.Fatalf("Allocate() error: %v", err)
	}
	if _, err := p.Allocate(); err != nil {
		t.Fatalf("Allocate() error: %v", err)
	}

	if _, err := p.Allocate(); err != ErrPoolExhausted {
		t.Errorf("Allocate() = %v, expected ErrPoolExhausted", err)
	}

	b1.Free()
	if _, err := p.Allocate(); err != nil {
		t.Errorf("Allocate() after Free error: %v", err)
	}

	if p.Outstanding() != 2 {
		t.Errorf("Outstanding() = %d, expected 2", p.Outstanding())
	}
}

func TestPool_ReusedBufferIsClean(t *testing.T) {
	p := NewPool(1, 64)

	b, _ := p.Allocate()
	b.Append([]byte{0x01, 0x02, 0x03})
	b.MD.PDCPSN = 42
	b.Free()

	b2, err := p.Allocate()
	if err != nil {
		t.Fatalf("Allocate() error: %v", err)
	}
	if b2.Len() != 0 {
		t.Errorf("reused buffer has %d stale bytes", b2.Len())
	}
	if b2.MD.PDCPSN != 0 {
		t.Error("reused buffer has stale metadata")
	}
}
