package channel

import "context"

// ConnectionStateListener receives notifications about connection state changes
type ConnectionStateListener interface {
	// OnConnectionEstablished is called when a new connection is established
	OnConnectionEstablished()

	// OnConnectionLost is called when a connection is lost
	OnConnectionLost()
}

// PhysicalChannel represents a pluggable transport carrying PDU bridge
// frames between two PDCP stacks.
// Users implement this interface to provide TCP, UDP, QUIC or any
// custom transport.
type PhysicalChannel interface {
	// Read reads the next complete bridge frame from the medium.
	// Blocks until data is available or the context is cancelled.
	Read(ctx context.Context) ([]byte, error)

	// Write writes a serialized bridge frame to the medium.
	// Must be thread-safe as multiple bearers may write concurrently.
	Write(ctx context.Context, data []byte) error

	// Close closes the physical connection and unblocks pending
	// Read/Write calls
	Close() error

	// Statistics returns transport-level statistics.
	// Optional, may return zero values if not tracked.
	Statistics() TransportStats

	// SetConnectionStateListener sets a listener for connection state
	// changes. Optional, transports without connection state may ignore
	// it.
	SetConnectionStateListener(listener ConnectionStateListener)
}

// TransportStats provides transport-level statistics
type TransportStats struct {
	BytesSent     uint64 // Total bytes sent
	BytesReceived uint64 // Total bytes received
	WriteErrors   uint64 // Number of write errors
	ReadErrors    uint64 // Number of read errors
	Connects      uint64 // Number of connections
	Disconnects   uint64 // Number of disconnections
}

// BridgeState represents the state of a bridge
type BridgeState int

const (
	BridgeStateOpen BridgeState = iota
	BridgeStateClosed
)

// String returns string representation of BridgeState
func (s BridgeState) String() string {
	switch s {
	case BridgeStateOpen:
		return "Open"
	case BridgeStateClosed:
		return "Closed"
	default:
		return "Unknown"
	}
}
