package pdcp

import (
	"sort"

	"avaneesh/pdcp-lte-go/pkg/types"
)

// sduStore retains plaintext copies of transmitted SDUs on AM data
// bearers, keyed by TX COUNT, until RLC confirms delivery, the peer
// acknowledges them in a status report, or the discard timer fires.
// Ordered iteration by key drives FMS and bitmap emission.
type sduStore struct {
	entries map[uint32]*types.Buffer
	keys    []uint32 // sorted ascending
}

func newSDUStore() *sduStore {
	return &sduStore{
		entries: make(map[uint32]*types.Buffer),
	}
}

// insert adds an SDU under the given TX COUNT.
// Returns false if the key is already present.
func (s *sduStore) insert(count uint32, sdu *types.Buffer) bool {
	if _, exists := s.entries[count]; exists {
		return false
	}
	s.entries[count] = sdu

	i := sort.Search(len(s.keys), func(i int) bool { return s.keys[i] >= count })
	s.keys = append(s.keys, 0)
	copy(s.keys[i+1:], s.keys[i:])
	s.keys[i] = count
	return true
}

// remove takes the SDU stored under count out of the store
func (s *sduStore) remove(count uint32) (*types.Buffer, bool) {
	sdu, exists := s.entries[count]
	if !exists {
		return nil, false
	}
	delete(s.entries, count)

	i := sort.Search(len(s.keys), func(i int) bool { return s.keys[i] >= count })
	s.keys = append(s.keys[:i], s.keys[i+1:]...)
	return sdu, true
}

// findBySN locates the stored COUNT whose SN portion equals sn
func (s *sduStore) findBySN(sn, maxSN uint32) (uint32, bool) {
	for _, count := range s.keys {
		if count&maxSN == sn {
			return count, true
		}
	}
	return 0, false
}

// first returns the smallest stored COUNT
func (s *sduStore) first() (uint32, bool) {
	if len(s.keys) == 0 {
		return 0, false
	}
	return s.keys[0], true
}

// last returns the largest stored COUNT
func (s *sduStore) last() (uint32, bool) {
	if len(s.keys) == 0 {
		return 0, false
	}
	return s.keys[len(s.keys)-1], true
}

// get returns the SDU stored under count without removing it
func (s *sduStore) get(count uint32) (*types.Buffer, bool) {
	sdu, exists := s.entries[count]
	return sdu, exists
}

// forEach visits entries in ascending key order
func (s *sduStore) forEach(fn func(count uint32, sdu *types.Buffer)) {
	for _, count := range s.keys {
		fn(count, s.entries[count])
	}
}

// takeAll empties the store and returns its entries in ascending key
// order
func (s *sduStore) takeAll() []storedEntry {
	out := make([]storedEntry, 0, len(s.keys))
	for _, count := range s.keys {
		out = append(out, storedEntry{count: count, sdu: s.entries[count]})
	}
	s.entries = make(map[uint32]*types.Buffer)
	s.keys = s.keys[:0]
	return out
}

// clear drops all entries
func (s *sduStore) clear() {
	s.entries = make(map[uint32]*types.Buffer)
	s.keys = s.keys[:0]
}

// len returns the number of stored SDUs
func (s *sduStore) len() int {
	return len(s.keys)
}

// storedEntry pairs a TX COUNT with its retained SDU
type storedEntry struct {
	count uint32
	sdu   *types.Buffer
}
