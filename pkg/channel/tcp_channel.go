package channel

import (
	"context"
	"fmt"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"
)

// TCPChannel implements PhysicalChannel for TCP connections
type TCPChannel struct {
	// Connection
	conn     net.Conn
	connLock sync.RWMutex

	// Configuration
	address        string
	isServer       bool
	listener       net.Listener
	reconnectDelay time.Duration
	readTimeout    time.Duration
	writeTimeout   time.Duration

	// Connection state listener
	stateListener     ConnectionStateListener
	stateListenerLock sync.RWMutex

	// Statistics
	stats struct {
		bytesSent     atomic.Uint64
		bytesReceived atomic.Uint64
		writeErrors   atomic.Uint64
		readErrors    atomic.Uint64
		connects      atomic.Uint64
		disconnects   atomic.Uint64
	}

	// Lifecycle
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	closed atomic.Bool
}

// TCPChannelConfig configures a TCP channel
type TCPChannelConfig struct {
	Address        string        // "host:port" format
	IsServer       bool          // true = listen, false = connect
	ReconnectDelay time.Duration // Delay between reconnection attempts (client only)
	ReadTimeout    time.Duration // Read timeout (0 = default of 30s)
	WriteTimeout   time.Duration // Write timeout (0 = default of 10s)
}

// NewTCPChannel creates a new TCP channel
func NewTCPChannel(config TCPChannelConfig) (*TCPChannel, error) {
	if config.Address == "" {
		return nil, fmt.Errorf("address is required")
	}

	// Set defaults
	if config.ReconnectDelay == 0 {
		config.ReconnectDelay = 5 * time.Second
	}
	if config.ReadTimeout == 0 {
		config.ReadTimeout = 30 * time.Second
	}
	if config.WriteTimeout == 0 {
		config.WriteTimeout = 10 * time.Second
	}

	ctx, cancel := context.WithCancel(context.Background())

	tc := &TCPChannel{
		address:        config.Address,
		isServer:       config.IsServer,
		reconnectDelay: config.ReconnectDelay,
		readTimeout:    config.ReadTimeout,
		writeTimeout:   config.WriteTimeout,
		ctx:            ctx,
		cancel:         cancel,
	}

	// Initialize connection
	if config.IsServer {
		if err := tc.startServer(); err != nil {
			cancel()
			return nil, err
		}
	} else {
		if err := tc.connect(); err != nil {
			cancel()
			return nil, err
		}
	}

	return tc, nil
}

// startServer starts listening for incoming connections
func (tc *TCPChannel) startServer() error {
	listener, err := net.Listen("tcp", tc.address)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", tc.address, err)
	}

	tc.listener = listener

	// Accept connections in background
	tc.wg.Add(1)
	go tc.acceptLoop()

	return nil
}

// acceptLoop accepts incoming connections
func (tc *TCPChannel) acceptLoop() {
	defer tc.wg.Done()

	for {
		select {
		case <-tc.ctx.Done():
			return
		default:
		}

		// Set accept deadline to allow periodic context checks
		if tcpListener, ok := tc.listener.(*net.TCPListener); ok {
			tcpListener.SetDeadline(time.Now().Add(1 * time.Second))
		}

		conn, err := tc.listener.Accept()
		if err != nil {
			if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
				continue
			}
			if tc.closed.Load() {
				return
			}
			continue
		}

		// Close existing connection if any
		tc.connLock.Lock()
		hadConnection := tc.conn != nil
		if tc.conn != nil {
			tc.conn.Close()
			tc.stats.disconnects.Add(1)
		}
		tc.conn = conn
		tc.stats.connects.Add(1)
		tc.connLock.Unlock()

		if hadConnection {
			tc.notifyConnectionLost()
		}
		tc.notifyConnectionEstablished()
	}
}

// connect establishes a connection to the remote server
func (tc *TCPChannel) connect() error {
	conn, err := net.DialTimeout("tcp", tc.address, 10*time.Second)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", tc.address, err)
	}

	tc.connLock.Lock()
	tc.conn = conn
	tc.stats.connects.Add(1)
	tc.connLock.Unlock()

	tc.notifyConnectionEstablished()

	// Start reconnection handler for clients
	tc.wg.Add(1)
	go tc.reconnectLoop()

	return nil
}

// reconnectLoop handles automatic reconnection for client mode
func (tc *TCPChannel) reconnectLoop() {
	defer tc.wg.Done()

	for {
		select {
		case <-tc.ctx.Done():
			return
		case <-time.After(1 * time.Second):
			tc.connLock.RLock()
			conn := tc.conn
			tc.connLock.RUnlock()

			if conn == nil {
				select {
				case <-tc.ctx.Done():
					return
				case <-time.After(tc.reconnectDelay):
				}

				newConn, err := net.DialTimeout("tcp", tc.address, 10*time.Second)
				if err == nil {
					tc.connLock.Lock()
					tc.conn = newConn
					tc.stats.connects.Add(1)
					tc.connLock.Unlock()
					tc.notifyConnectionEstablished()
				}
			}
		}
	}
}

// Read implements PhysicalChannel.Read
func (tc *TCPChannel) Read(ctx context.Context) ([]byte, error) {
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-tc.ctx.Done():
			return nil, fmt.Errorf("channel closed")
		default:
		}

		// Wait for connection if not available
		var conn net.Conn
		for {
			tc.connLock.RLock()
			conn = tc.conn
			tc.connLock.RUnlock()

			if conn != nil {
				break
			}

			select {
			case <-time.After(100 * time.Millisecond):
				continue
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-tc.ctx.Done():
				return nil, fmt.Errorf("channel closed")
			}
		}

		// Set read deadline
		if tc.readTimeout > 0 {
			conn.SetReadDeadline(time.Now().Add(tc.readTimeout))
		}

		// Read bridge frame header
		header := make([]byte, HeaderSize)
		if _, err := io.ReadFull(conn, header); err != nil {
			tc.handleReadError(err)
			continue
		}

		_, length, err := ParseHeader(header)
		if err != nil {
			tc.stats.readErrors.Add(1)
			continue
		}
		if length > MaxPayloadSize {
			tc.stats.readErrors.Add(1)
			continue
		}

		// Read payload
		frame := make([]byte, HeaderSize+length)
		copy(frame, header)
		if length > 0 {
			if _, err := io.ReadFull(conn, frame[HeaderSize:]); err != nil {
				tc.handleReadError(err)
				continue
			}
		}

		tc.stats.bytesReceived.Add(uint64(len(frame)))
		return frame, nil
	}
}

// Write implements PhysicalChannel.Write
func (tc *TCPChannel) Write(ctx context.Context, data []byte) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-tc.ctx.Done():
		return fmt.Errorf("channel closed")
	default:
	}

	tc.connLock.RLock()
	conn := tc.conn
	tc.connLock.RUnlock()

	if conn == nil {
		tc.stats.writeErrors.Add(1)
		return fmt.Errorf("no connection")
	}

	if tc.writeTimeout > 0 {
		conn.SetWriteDeadline(time.Now().Add(tc.writeTimeout))
	}

	n, err := conn.Write(data)
	if err != nil {
		tc.stats.writeErrors.Add(1)
		tc.dropConnection(conn)
		return fmt.Errorf("write failed: %w", err)
	}

	tc.stats.bytesSent.Add(uint64(n))
	return nil
}

// handleReadError records a read failure and drops the connection so
// the reconnect loop can replace it
func (tc *TCPChannel) handleReadError(err error) {
	if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
		return
	}
	tc.stats.readErrors.Add(1)

	tc.connLock.RLock()
	conn := tc.conn
	tc.connLock.RUnlock()
	tc.dropConnection(conn)
}

// dropConnection closes and forgets the current connection
func (tc *TCPChannel) dropConnection(conn net.Conn) {
	if conn == nil {
		return
	}
	tc.connLock.Lock()
	if tc.conn == conn {
		tc.conn.Close()
		tc.conn = nil
		tc.stats.disconnects.Add(1)
		tc.connLock.Unlock()
		tc.notifyConnectionLost()
		return
	}
	tc.connLock.Unlock()
}

// Close implements PhysicalChannel.Close
func (tc *TCPChannel) Close() error {
	if !tc.closed.CompareAndSwap(false, true) {
		return nil
	}

	tc.cancel()

	if tc.listener != nil {
		tc.listener.Close()
	}

	tc.connLock.Lock()
	if tc.conn != nil {
		tc.conn.Close()
		tc.conn = nil
	}
	tc.connLock.Unlock()

	tc.wg.Wait()
	return nil
}

// Statistics implements PhysicalChannel.Statistics
func (tc *TCPChannel) Statistics() TransportStats {
	return TransportStats{
		BytesSent:     tc.stats.bytesSent.Load(),
		BytesReceived: tc.stats.bytesReceived.Load(),
		WriteErrors:   tc.stats.writeErrors.Load(),
		ReadErrors:    tc.stats.readErrors.Load(),
		Connects:      tc.stats.connects.Load(),
		Disconnects:   tc.stats.disconnects.Load(),
	}
}

// SetConnectionStateListener implements PhysicalChannel.SetConnectionStateListener
func (tc *TCPChannel) SetConnectionStateListener(listener ConnectionStateListener) {
	tc.stateListenerLock.Lock()
	tc.stateListener = listener
	tc.stateListenerLock.Unlock()
}

func (tc *TCPChannel) notifyConnectionEstablished() {
	tc.stateListenerLock.RLock()
	listener := tc.stateListener
	tc.stateListenerLock.RUnlock()
	if listener != nil {
		listener.OnConnectionEstablished()
	}
}

func (tc *TCPChannel) notifyConnectionLost() {
	tc.stateListenerLock.RLock()
	listener := tc.stateListener
	tc.stateListenerLock.RUnlock()
	if listener != nil {
		listener.OnConnectionLost()
	}
}
