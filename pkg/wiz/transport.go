package wiz

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"time"
)

const (
	// DefaultPort is the UDP port WiZ devices listen on.
	DefaultPort = 38899

	// DefaultBufferSize is the receive buffer size. Device payloads are short
	// JSON objects; a datagram that fills the buffer is treated as truncated.
	DefaultBufferSize = 512

	// DefaultPollInterval bounds a single receive attempt.
	DefaultPollInterval = 10 * time.Millisecond
)

// Datagram is one received UDP payload and the address it came from.
type Datagram struct {
	Payload []byte
	Source  *net.UDPAddr
}

// Transport owns a single UDP socket.
//
// ReceiveOne never blocks for longer than the transport's poll interval; it
// returns ErrWouldBlock when nothing is pending.
type Transport interface {
	SendTo(payload []byte, dst *net.UDPAddr) error
	ReceiveOne() (Datagram, error)
	SetBroadcast(enabled bool) error
	Close() error
}

// TransportConfig describes how a transport socket is opened.
type TransportConfig struct {
	LocalPort    int // 0 binds an ephemeral port
	Broadcast    bool
	BufferSize   int
	PollInterval time.Duration
}

// TransportFactory opens a Transport. Client uses it for every socket it
// needs, which lets tests substitute fakes.
type TransportFactory func(cfg TransportConfig) (Transport, error)

// UDPTransportFactory returns a TransportFactory opening UDPTransports.
func UDPTransportFactory(logger *slog.Logger) TransportFactory {
	return func(cfg TransportConfig) (Transport, error) {
		return NewUDPTransport(cfg, logger)
	}
}

// UDPTransport is the Transport backed by a real IPv4 UDP socket.
type UDPTransport struct {
	conn         *net.UDPConn
	buf          []byte
	pollInterval time.Duration
	broadcast    bool
	logger       *slog.Logger
}

// NewUDPTransport binds a socket on the unspecified address and sets the
// broadcast flag as requested. Go enables SO_BROADCAST on every UDP socket,
// so it is explicitly cleared when broadcast is not wanted.
func NewUDPTransport(cfg TransportConfig, logger *slog.Logger) (*UDPTransport, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = DefaultBufferSize
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}

	conn, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4zero, Port: cfg.LocalPort})
	if err != nil {
		return nil, fmt.Errorf("%w: bind: %w", ErrSocket, err)
	}

	t := &UDPTransport{
		conn:         conn,
		buf:          make([]byte, cfg.BufferSize),
		pollInterval: cfg.PollInterval,
		logger:       logger,
	}
	if err := t.SetBroadcast(cfg.Broadcast); err != nil {
		conn.Close()
		return nil, err
	}

	logger.Debug("wiz: socket opened", "local", conn.LocalAddr().String(), "broadcast", cfg.Broadcast)
	return t, nil
}

// LocalAddr returns the bound local address.
func (t *UDPTransport) LocalAddr() *net.UDPAddr {
	return t.conn.LocalAddr().(*net.UDPAddr)
}

// SetBroadcast toggles SO_BROADCAST on the socket.
func (t *UDPTransport) SetBroadcast(enabled bool) error {
	if err := setBroadcast(t.conn, enabled); err != nil {
		return fmt.Errorf("%w: set broadcast=%t: %w", ErrSocket, enabled, err)
	}
	t.broadcast = enabled
	return nil
}

// Broadcast reports whether the broadcast flag is currently set.
func (t *UDPTransport) Broadcast() bool {
	return t.broadcast
}

// SendTo writes one datagram.
func (t *UDPTransport) SendTo(payload []byte, dst *net.UDPAddr) error {
	if _, err := t.conn.WriteToUDP(payload, dst); err != nil {
		return fmt.Errorf("%w: to %s: %w", ErrSend, dst, err)
	}
	t.logger.Debug("wiz: datagram sent", "to", dst.String(), "payload", string(payload))
	return nil
}

// ReceiveOne waits at most one poll interval for a datagram.
func (t *UDPTransport) ReceiveOne() (Datagram, error) {
	if err := t.conn.SetReadDeadline(time.Now().Add(t.pollInterval)); err != nil {
		return Datagram{}, fmt.Errorf("%w: set read deadline: %w", ErrSocket, err)
	}

	n, addr, err := t.conn.ReadFromUDP(t.buf)
	if err != nil {
		if errors.Is(err, os.ErrDeadlineExceeded) {
			return Datagram{}, ErrWouldBlock
		}
		return Datagram{}, fmt.Errorf("wiz: receive: %w", err)
	}
	if n == len(t.buf) {
		return Datagram{}, &BufferOverflowError{Size: n}
	}

	payload := make([]byte, n)
	copy(payload, t.buf[:n])
	t.logger.Debug("wiz: datagram received", "from", addr.String(), "payload", string(payload))
	return Datagram{Payload: payload, Source: addr}, nil
}

// Close releases the socket.
func (t *UDPTransport) Close() error {
	return t.conn.Close()
}

// Compile-time interface satisfaction check.
var _ Transport = (*UDPTransport)(nil)
