package wiz

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/samber/lo"

	"github.com/jmylchreest/wizctl/internal/events"
)

const (
	// DefaultTimeout bounds a unicast request.
	DefaultTimeout = time.Second

	// DefaultDiscoveryWindow is how long discovery waits for replies.
	DefaultDiscoveryWindow = time.Second
)

// DefaultBroadcastAddress is the limited broadcast address.
var DefaultBroadcastAddress = net.IPv4bcast

// Client creates Devices, either by connecting to a known address or by
// broadcast discovery. A Client holds no sockets itself; every Device owns
// its own transport.
type Client struct {
	logger        *slog.Logger
	port          int
	broadcastAddr net.IP
	timeout       time.Duration
	window        time.Duration
	bufferSize    int
	pollInterval  time.Duration
	newTransport  TransportFactory
	bus           *events.Bus
}

// Option configures a Client.
type Option func(*Client)

// WithPort sets the device port.
func WithPort(port int) Option {
	return func(c *Client) { c.port = port }
}

// WithBroadcastAddress sets the address discovery broadcasts to.
func WithBroadcastAddress(ip net.IP) Option {
	return func(c *Client) { c.broadcastAddr = ip }
}

// WithTimeout sets the unicast request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithDiscoveryWindow sets the discovery collection window.
func WithDiscoveryWindow(d time.Duration) Option {
	return func(c *Client) { c.window = d }
}

// WithBufferSize sets the receive buffer size.
func WithBufferSize(n int) Option {
	return func(c *Client) { c.bufferSize = n }
}

// WithPollInterval sets how long a single receive attempt may block.
func WithPollInterval(d time.Duration) Option {
	return func(c *Client) { c.pollInterval = d }
}

// WithTransportFactory replaces the UDP socket factory.
func WithTransportFactory(f TransportFactory) Option {
	return func(c *Client) { c.newTransport = f }
}

// WithEventBus makes the client and its devices publish events to bus.
func WithEventBus(bus *events.Bus) Option {
	return func(c *Client) { c.bus = bus }
}

// NewClient creates a new Client.
func NewClient(logger *slog.Logger, opts ...Option) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Client{
		logger:        logger,
		port:          DefaultPort,
		broadcastAddr: DefaultBroadcastAddress,
		timeout:       DefaultTimeout,
		window:        DefaultDiscoveryWindow,
		bufferSize:    DefaultBufferSize,
		pollInterval:  DefaultPollInterval,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.newTransport == nil {
		c.newTransport = UDPTransportFactory(c.logger)
	}
	return c
}

// Timeout returns the unicast request timeout.
func (c *Client) Timeout() time.Duration { return c.timeout }

// DiscoveryWindow returns how long Discover collects replies.
func (c *Client) DiscoveryWindow() time.Duration { return c.window }

func (c *Client) openTransport(broadcast bool) (Transport, error) {
	return c.newTransport(TransportConfig{
		Broadcast:    broadcast,
		BufferSize:   c.bufferSize,
		PollInterval: c.pollInterval,
	})
}

func (c *Client) emit(t events.EventType, data any) {
	if c.bus == nil {
		return
	}
	c.bus.Publish(events.NewEvent(t, data))
}

// Connect performs one getSystemConfig round trip with the device at ip and
// returns a Device bound to it.
func (c *Client) Connect(ip net.IP) (*Device, error) {
	if ip4 := ip.To4(); ip4 == nil {
		return nil, &net.AddrError{Err: "not an IPv4 address", Addr: ip.String()}
	}

	t, err := c.openTransport(false)
	if err != nil {
		return nil, err
	}

	d := c.newDevice(ip, t)
	sys, err := d.SystemConfig()
	if err != nil {
		t.Close()
		return nil, err
	}
	if err := d.identify(sys); err != nil {
		t.Close()
		return nil, err
	}

	c.logger.Debug("wiz: connected", "ip", ip.String(), "mac", d.mac.String(), "kind", d.kind.String())
	return d, nil
}

// Discover broadcasts getSystemConfig and returns one Device per responding
// address. A reply that cannot be decoded or classified is logged and skipped;
// it does not fail the whole discovery. Socket errors are returned.
func (c *Client) Discover() ([]*Device, error) {
	t, err := c.openTransport(false)
	if err != nil {
		return nil, err
	}
	defer t.Close()

	payload, err := Encode(NewGetSystemConfigRequest())
	if err != nil {
		return nil, err
	}

	dst := &net.UDPAddr{IP: c.broadcastAddr, Port: c.port}
	c.logger.Debug("wiz: starting discovery", "broadcast", dst.String(), "window", c.window)

	replies, err := NewCorrelator(t, c.logger).BroadcastAndCollect(dst, payload, c.window)
	if err != nil {
		return nil, err
	}

	replies = lo.UniqBy(replies, func(dg Datagram) string {
		return dg.Source.IP.String()
	})

	devices := make([]*Device, 0, len(replies))
	for _, dg := range replies {
		d, err := c.deviceFromReply(dg)
		if err != nil {
			if isSocketFailure(err) {
				closeAll(devices)
				return nil, err
			}
			c.logger.Warn("wiz: skipping device", "ip", dg.Source.IP.String(), "error", err)
			c.emit(events.DeviceSkipped, map[string]string{
				"ip":     dg.Source.IP.String(),
				"reason": err.Error(),
			})
			continue
		}
		devices = append(devices, d)
	}

	for _, d := range devices {
		c.emit(events.DeviceDiscovered, d.Info())
	}

	c.logger.Info("wiz: discovery finished", "replies", len(replies), "devices", len(devices))
	return devices, nil
}

func (c *Client) deviceFromReply(dg Datagram) (*Device, error) {
	resp, err := DecodeResponse[SystemConfig](dg.Payload)
	if err != nil {
		return nil, err
	}
	mac, err := ParseMAC(resp.Result.MAC)
	if err != nil {
		return nil, err
	}
	kind, err := Classify(resp.Result.ModuleName)
	if err != nil {
		return nil, err
	}

	t, err := c.openTransport(false)
	if err != nil {
		return nil, err
	}
	d := c.newDevice(dg.Source.IP, t)
	d.mac = mac
	d.kind = kind
	d.moduleName = resp.Result.ModuleName
	d.firmwareVersion = resp.Result.FirmwareVersion
	return d, nil
}

func (c *Client) newDevice(ip net.IP, t Transport) *Device {
	return &Device{
		ip:         ip,
		addr:       &net.UDPAddr{IP: ip, Port: c.port},
		transport:  t,
		correlator: NewCorrelator(t, c.logger),
		timeout:    c.timeout,
		logger:     c.logger.With("ip", ip.String()),
		emit:       c.emit,
	}
}

func isSocketFailure(err error) bool {
	return errors.Is(err, ErrSocket) || errors.Is(err, ErrSend)
}

func closeAll(devices []*Device) {
	for _, d := range devices {
		d.Close()
	}
}

// request sends req to the device and decodes the reply as T.
func request[T any](d *Device, req Request) (*T, error) {
	payload, err := Encode(req)
	if err != nil {
		return nil, err
	}
	dg, err := d.correlator.SendAndReceive(d.addr, payload, d.timeout)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", req.Method, err)
	}
	resp, err := DecodeResponse[T](dg.Payload)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", req.Method, err)
	}
	return &resp.Result, nil
}
