package wiz

import (
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// stubTransport is a mock.Mock backed Transport for exercising the
// correlator one call at a time.
type stubTransport struct{ mock.Mock }

func (s *stubTransport) SendTo(payload []byte, dst *net.UDPAddr) error {
	return s.Called(payload, dst).Error(0)
}

func (s *stubTransport) ReceiveOne() (Datagram, error) {
	args := s.Called()
	return args.Get(0).(Datagram), args.Error(1)
}

func (s *stubTransport) SetBroadcast(enabled bool) error {
	return s.Called(enabled).Error(0)
}

func (s *stubTransport) Close() error {
	return s.Called().Error(0)
}

var _ Transport = (*stubTransport)(nil)

// deviceHandler answers a request with a raw reply, or nil to stay silent.
type deviceHandler func(req Request) []byte

// fakeNetwork simulates a LAN of devices. Every transport it hands out
// shares the same set of devices.
type fakeNetwork struct {
	mu         sync.Mutex
	devices    map[string]deviceHandler
	echo       bool
	repeat     int
	maxSockets int // factory fails with ErrSocket beyond this many; 0 is unlimited
	transports []*fakeTransport
	sent       []Request
}

func newFakeNetwork() *fakeNetwork {
	return &fakeNetwork{devices: make(map[string]deviceHandler)}
}

func (n *fakeNetwork) add(ip string, h deviceHandler) {
	n.devices[ip] = h
}

func (n *fakeNetwork) factory() TransportFactory {
	return func(cfg TransportConfig) (Transport, error) {
		n.mu.Lock()
		defer n.mu.Unlock()
		if n.maxSockets > 0 && len(n.transports) >= n.maxSockets {
			return nil, ErrSocket
		}
		t := &fakeTransport{net: n, broadcast: cfg.Broadcast}
		n.transports = append(n.transports, t)
		return t, nil
	}
}

func (n *fakeNetwork) requests() []Request {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]Request, len(n.sent))
	copy(out, n.sent)
	return out
}

type fakeTransport struct {
	net       *fakeNetwork
	broadcast bool
	closed    bool
	sentWith  []bool
	queue     []Datagram
}

func (t *fakeTransport) SendTo(payload []byte, dst *net.UDPAddr) error {
	var req Request
	if err := json.Unmarshal(payload, &req); err != nil {
		return err
	}

	t.net.mu.Lock()
	defer t.net.mu.Unlock()
	t.net.sent = append(t.net.sent, req)
	t.sentWith = append(t.sentWith, t.broadcast)

	if dst.IP.Equal(net.IPv4bcast) {
		if t.net.echo {
			t.enqueue("192.168.1.1", payload)
		}
		for ip, h := range t.net.devices {
			reply := h(req)
			for i := 0; reply != nil && i < max(t.net.repeat, 1); i++ {
				t.enqueue(ip, reply)
			}
		}
		return nil
	}
	if h, ok := t.net.devices[dst.IP.String()]; ok {
		if reply := h(req); reply != nil {
			t.enqueue(dst.IP.String(), reply)
		}
	}
	return nil
}

func (t *fakeTransport) enqueue(ip string, payload []byte) {
	t.queue = append(t.queue, Datagram{
		Payload: payload,
		Source:  &net.UDPAddr{IP: net.ParseIP(ip), Port: DefaultPort},
	})
}

func (t *fakeTransport) ReceiveOne() (Datagram, error) {
	t.net.mu.Lock()
	defer t.net.mu.Unlock()
	if len(t.queue) == 0 {
		time.Sleep(time.Millisecond)
		return Datagram{}, ErrWouldBlock
	}
	dg := t.queue[0]
	t.queue = t.queue[1:]
	return dg, nil
}

func (t *fakeTransport) SetBroadcast(enabled bool) error {
	t.broadcast = enabled
	return nil
}

func (t *fakeTransport) Close() error {
	t.closed = true
	return nil
}

// bulb returns a handler for a device reporting moduleName.
func bulb(mac, moduleName string) deviceHandler {
	return func(req Request) []byte {
		switch req.Method {
		case MethodGetSystemConfig:
			return []byte(`{"method":"getSystemConfig","env":"pro","result":{"mac":"` + mac +
				`","homeId":1,"roomId":2,"rgn":"eu","moduleName":"` + moduleName +
				`","fwVersion":"1.21.0","groupId":0,"ping":0}}`)
		case MethodGetPilot:
			return []byte(`{"method":"getPilot","env":"pro","result":{"mac":"` + mac +
				`","rssi":-65,"state":true,"sceneId":0,"r":255,"g":0,"b":0,"c":0,"w":0,"dimming":80}}`)
		case MethodSetPilot:
			return []byte(`{"method":"setPilot","env":"pro","result":{"success":true}}`)
		case MethodGetPower:
			return []byte(`{"method":"getPower","env":"pro","error":{"code":-32601,"message":"Method not found"}}`)
		case MethodGetModelConfig:
			return []byte(`{"method":"getModelConfig","env":"pro","result":{"ps":1,"pwmFreq":1000,"pwmRange":[0,100],` +
				`"wcr":30,"nowc":1,"cctRange":[2200,2700,6500,6500],"renderFactor":[171,255,75,255,43,85,0,0,0,0]}}`)
		}
		return nil
	}
}

func testClient(n *fakeNetwork, opts ...Option) *Client {
	opts = append([]Option{
		WithTransportFactory(n.factory()),
		WithTimeout(50 * time.Millisecond),
		WithDiscoveryWindow(10 * time.Millisecond),
	}, opts...)
	return NewClient(testLogger(), opts...)
}
