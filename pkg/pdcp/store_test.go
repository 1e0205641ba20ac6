package pdcp

import (
	"testing"

	"avaneesh/pdcp-lte-go/pkg/types"
)

func TestSDUStore_OrderedInsert(t *testing.T) {
	s := newSDUStore()

	for _, count := range []uint32{12, 5, 9, 7} {
		if !s.insert(count, types.NewBufferFrom([]byte{byte(count)})) {
			t.Fatalf("insert(%d) failed", count)
		}
	}

	if s.len() != 4 {
		t.Fatalf("len() = %d, expected 4", s.len())
	}

	first, _ := s.first()
	if first != 5 {
		t.Errorf("first() = %d, expected 5", first)
	}
	last, _ := s.last()
	if last != 12 {
		t.Errorf("last() = %d, expected 12", last)
	}

	var visited []uint32
	s.forEach(func(count uint32, sdu *types.Buffer) {
		visited = append(visited, count)
	})
	expected := []uint32{5, 7, 9, 12}
	for i, v := range expected {
		if visited[i] != v {
			t.Fatalf("forEach order = %v, expected %v", visited, expected)
		}
	}
}

func TestSDUStore_DuplicateKeyRejected(t *testing.T) {
	s := newSDUStore()

	if !s.insert(3, types.NewBufferFrom([]byte{0x01})) {
		t.Fatal("first insert failed")
	}
	if s.insert(3, types.NewBufferFrom([]byte{0x02})) {
		t.Error("duplicate insert succeeded")
	}

	sdu, _ := s.get(3)
	if sdu.Data()[0] != 0x01 {
		t.Error("duplicate insert overwrote original SDU")
	}
}

func TestSDUStore_Remove(t *testing.T) {
	s := newSDUStore()
	s.insert(1, types.NewBufferFrom([]byte{0x01}))
	s.insert(2, types.NewBufferFrom([]byte{0x02}))

	if _, ok := s.remove(1); !ok {
		t.Fatal("remove(1) failed")
	}
	if _, ok := s.remove(1); ok {
		t.Error("remove(1) succeeded twice")
	}

	first, _ := s.first()
	if first != 2 {
		t.Errorf("first() = %d after remove, expected 2", first)
	}
}

func TestSDUStore_FindBySN(t *testing.T) {
	const maxSN = 127 // SN7 space

	s := newSDUStore()
	s.insert(130, types.NewBufferFrom([]byte{0x01})) // HFN 1, SN 2

	count, ok := s.findBySN(2, maxSN)
	if !ok || count != 130 {
		t.Errorf("findBySN(2) = %d %v, expected 130 true", count, ok)
	}

	if _, ok := s.findBySN(3, maxSN); ok {
		t.Error("findBySN(3) found a missing SN")
	}
}

func TestSDUStore_TakeAll(t *testing.T) {
	s := newSDUStore()
	s.insert(11, types.NewBufferFrom([]byte{0x0B}))
	s.insert(10, types.NewBufferFrom([]byte{0x0A}))

	entries := s.takeAll()
	if len(entries) != 2 {
		t.Fatalf("takeAll() returned %d entries", len(entries))
	}
	if entries[0].count != 10 || entries[1].count != 11 {
		t.Errorf("takeAll() order wrong: %d %d", entries[0].count, entries[1].count)
	}
	if s.len() != 0 {
		t.Errorf("store not empty after takeAll: %d", s.len())
	}
}
