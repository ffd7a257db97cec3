package wiz

import (
	"bytes"
	"errors"
	"log/slog"
	"net"
	"time"
)

// maxDrainFactor caps how long discovery keeps draining after the settling
// sleep, as a multiple of the collection window.
const maxDrainFactor = 2

// Correlator pairs requests with replies over a single Transport. It is not
// safe for concurrent use.
type Correlator struct {
	transport Transport
	logger    *slog.Logger

	now   func() time.Time
	sleep func(time.Duration)
}

// NewCorrelator returns a correlator driving t.
func NewCorrelator(t Transport, logger *slog.Logger) *Correlator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Correlator{
		transport: t,
		logger:    logger,
		now:       time.Now,
		sleep:     time.Sleep,
	}
}

// SendAndReceive sends payload to dst once and polls for a reply until
// timeout elapses. The first datagram received must come from dst's IP.
func (c *Correlator) SendAndReceive(dst *net.UDPAddr, payload []byte, timeout time.Duration) (Datagram, error) {
	start := c.now()
	if err := c.transport.SendTo(payload, dst); err != nil {
		return Datagram{}, err
	}

	for {
		dg, err := c.transport.ReceiveOne()
		switch {
		case err == nil:
			if !dg.Source.IP.Equal(dst.IP) {
				c.logger.Debug("wiz: reply from unexpected source", "expected", dst.IP.String(), "actual", dg.Source.IP.String())
				return Datagram{}, &UnexpectedSourceError{Actual: dg.Source.IP, Expected: dst.IP}
			}
			return dg, nil
		case !errors.Is(err, ErrWouldBlock):
			return Datagram{}, err
		}

		if elapsed := c.now().Sub(start); elapsed >= timeout {
			return Datagram{}, &NoResponseError{Elapsed: elapsed}
		}
	}
}

// BroadcastAndCollect sends payload to the broadcast address dst, waits for
// window and drains every pending reply. Replies identical to payload are
// own-broadcast echoes and are dropped. The broadcast flag is only set for
// the duration of the send. An empty result is not an error.
func (c *Correlator) BroadcastAndCollect(dst *net.UDPAddr, payload []byte, window time.Duration) ([]Datagram, error) {
	if err := c.transport.SetBroadcast(true); err != nil {
		return nil, err
	}
	sendErr := c.transport.SendTo(payload, dst)
	if err := c.transport.SetBroadcast(false); err != nil && sendErr == nil {
		return nil, err
	}
	if sendErr != nil {
		return nil, sendErr
	}

	c.sleep(window)

	var (
		collected []Datagram
		deadline  = c.now().Add(window * maxDrainFactor)
	)
	for c.now().Before(deadline) {
		dg, err := c.transport.ReceiveOne()
		if err != nil {
			var overflow *BufferOverflowError
			switch {
			case errors.Is(err, ErrWouldBlock):
				return collected, nil
			case errors.As(err, &overflow):
				c.logger.Warn("wiz: dropping oversized discovery reply", "size", overflow.Size)
				continue
			default:
				return nil, err
			}
		}
		if bytes.Equal(dg.Payload, payload) {
			c.logger.Debug("wiz: ignoring broadcast echo", "from", dg.Source.String())
			continue
		}
		collected = append(collected, dg)
	}

	c.logger.Debug("wiz: discovery drain deadline reached", "collected", len(collected))
	return collected, nil
}
