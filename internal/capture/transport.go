package capture

import (
	"errors"
	"net"
	"time"

	"github.com/google/uuid"

	"github.com/jmylchreest/wizctl/pkg/wiz"
)

// NewSessionID returns a fresh session identifier.
func NewSessionID() string {
	return uuid.NewString()
}

// Transport records every datagram passing through a wiz.Transport.
type Transport struct {
	next      wiz.Transport
	logger    Logger
	sessionID string
	now       func() time.Time
}

// Wrap decorates t so datagrams are logged to logger under sessionID.
func Wrap(t wiz.Transport, logger Logger, sessionID string) *Transport {
	return &Transport{
		next:      t,
		logger:    logger,
		sessionID: sessionID,
		now:       time.Now,
	}
}

// WrapFactory wraps every transport f opens.
func WrapFactory(f wiz.TransportFactory, logger Logger, sessionID string) wiz.TransportFactory {
	return func(cfg wiz.TransportConfig) (wiz.Transport, error) {
		t, err := f(cfg)
		if err != nil {
			return nil, err
		}
		return Wrap(t, logger, sessionID), nil
	}
}

func (t *Transport) SendTo(payload []byte, dst *net.UDPAddr) error {
	err := t.next.SendTo(payload, dst)
	t.record(DirectionOut, dst, payload, err)
	return err
}

func (t *Transport) ReceiveOne() (wiz.Datagram, error) {
	dg, err := t.next.ReceiveOne()
	switch {
	case err == nil:
		t.record(DirectionIn, dg.Source, dg.Payload, nil)
	case !errors.Is(err, wiz.ErrWouldBlock):
		t.record(DirectionIn, nil, nil, err)
	}
	return dg, err
}

func (t *Transport) SetBroadcast(enabled bool) error {
	return t.next.SetBroadcast(enabled)
}

func (t *Transport) Close() error {
	return t.next.Close()
}

func (t *Transport) record(dir Direction, addr *net.UDPAddr, payload []byte, err error) {
	event := Event{
		Timestamp: t.now(),
		SessionID: t.sessionID,
		Direction: dir,
		Payload:   payload,
	}
	if addr != nil {
		event.Remote = addr.String()
	}
	if err != nil {
		event.Error = err.Error()
	}
	t.logger.Log(event)
}

func remoteHost(remote string) string {
	host, _, err := net.SplitHostPort(remote)
	if err != nil {
		return remote
	}
	return host
}

var _ wiz.Transport = (*Transport)(nil)
