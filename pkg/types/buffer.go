package types

// DefaultHeadroom is the space reserved in front of the payload so that
// protocol headers can be prepended without reallocating
const DefaultHeadroom = 8

// DefaultBufferCapacity is the payload capacity of pool buffers.
// Sized for the largest PDCP SDU plus header and MAC trailer.
const DefaultBufferCapacity = 9000

// Metadata carries per-SDU bookkeeping that travels with the buffer
// across layer boundaries
type Metadata struct {
	PDCPSN uint32 // PDCP sequence number assigned on transmission
}

// Buffer is an owned byte container with front headroom.
// It moves between layers by pointer; a layer that hands a buffer
// downward must not retain a reference to it.
type Buffer struct {
	storage []byte // full backing array including headroom
	offset  int    // start of payload within storage
	length  int    // payload length

	// MD holds SDU metadata consumed by lower layers
	MD Metadata

	pool *Pool // owning pool, nil for standalone buffers
}

// NewBuffer creates a standalone buffer with the given payload capacity
func NewBuffer(capacity int) *Buffer {
	return &Buffer{
		storage: make([]byte, DefaultHeadroom+capacity),
		offset:  DefaultHeadroom,
	}
}

// NewBufferFrom creates a standalone buffer holding a copy of data
func NewBufferFrom(data []byte) *Buffer {
	b := NewBuffer(len(data))
	b.SetData(data)
	return b
}

// Data returns the current payload slice.
// The slice is valid until the next Prepend/TrimFront/SetData/Append call.
func (b *Buffer) Data() []byte {
	return b.storage[b.offset : b.offset+b.length]
}

// Len returns the payload length in bytes
func (b *Buffer) Len() int {
	return b.length
}

// SetData replaces the payload with a copy of data
func (b *Buffer) SetData(data []byte) {
	b.offset = DefaultHeadroom
	if need := b.offset + len(data); need > len(b.storage) {
		b.storage = make([]byte, need)
	}
	b.length = copy(b.storage[b.offset:], data)
}

// Append adds data after the current payload, growing storage if needed
func (b *Buffer) Append(data []byte) {
	end := b.offset + b.length
	if need := end + len(data); need > len(b.storage) {
		grown := make([]byte, need)
		copy(grown, b.storage[:end])
		b.storage = grown
	}
	copy(b.storage[end:], data)
	b.length += len(data)
}

// Prepend grows the payload by n bytes at the front and returns the new
// front slice for the caller to fill in. Returns nil if the headroom is
// exhausted.
func (b *Buffer) Prepend(n int) []byte {
	if n > b.offset {
		return nil
	}
	b.offset -= n
	b.length += n
	return b.storage[b.offset : b.offset+n]
}

// TrimFront drops n bytes from the front of the payload
func (b *Buffer) TrimFront(n int) {
	if n > b.length {
		n = b.length
	}
	b.offset += n
	b.length -= n
}

// TrimBack drops n bytes from the back of the payload
func (b *Buffer) TrimBack(n int) {
	if n > b.length {
		n = b.length
	}
	b.length -= n
}

// Clone returns a standalone deep copy of the buffer, metadata included
func (b *Buffer) Clone() *Buffer {
	c := NewBufferFrom(b.Data())
	c.MD = b.MD
	return c
}

// Reset clears payload and metadata so the buffer can be reused
func (b *Buffer) Reset() {
	b.offset = DefaultHeadroom
	b.length = 0
	b.MD = Metadata{}
}

// Free returns a pooled buffer to its pool. No-op for standalone buffers.
func (b *Buffer) Free() {
	if b.pool != nil {
		b.pool.put(b)
	}
}
