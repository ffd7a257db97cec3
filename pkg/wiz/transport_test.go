package wiz

import (
	"errors"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLoopbackPair(t *testing.T, bufferSize int) (*UDPTransport, *UDPTransport) {
	t.Helper()
	cfg := TransportConfig{BufferSize: bufferSize, PollInterval: 5 * time.Millisecond}

	a, err := NewUDPTransport(cfg, testLogger())
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })

	b, err := NewUDPTransport(cfg, testLogger())
	require.NoError(t, err)
	t.Cleanup(func() { b.Close() })

	return a, b
}

func loopback(tr *UDPTransport) *net.UDPAddr {
	return &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: tr.LocalAddr().Port}
}

func receiveWithin(t *testing.T, tr *UDPTransport, d time.Duration) (Datagram, error) {
	t.Helper()
	deadline := time.Now().Add(d)
	for {
		dg, err := tr.ReceiveOne()
		if !errors.Is(err, ErrWouldBlock) || time.Now().After(deadline) {
			return dg, err
		}
	}
}

func TestUDPTransport_SendReceive(t *testing.T) {
	a, b := newLoopbackPair(t, DefaultBufferSize)

	require.NoError(t, a.SendTo([]byte(`{"method":"getPilot"}`), loopback(b)))

	dg, err := receiveWithin(t, b, time.Second)
	require.NoError(t, err)
	assert.Equal(t, `{"method":"getPilot"}`, string(dg.Payload))
	assert.True(t, dg.Source.IP.Equal(net.IPv4(127, 0, 0, 1)))
	assert.Equal(t, a.LocalAddr().Port, dg.Source.Port)
}

func TestUDPTransport_WouldBlock(t *testing.T) {
	a, _ := newLoopbackPair(t, DefaultBufferSize)

	start := time.Now()
	_, err := a.ReceiveOne()
	assert.ErrorIs(t, err, ErrWouldBlock)
	assert.Less(t, time.Since(start), time.Second)
}

func TestUDPTransport_BufferOverflow(t *testing.T) {
	a, b := newLoopbackPair(t, 8)

	require.NoError(t, a.SendTo([]byte("12345678"), loopback(b)))

	_, err := receiveWithin(t, b, time.Second)
	var overflow *BufferOverflowError
	require.ErrorAs(t, err, &overflow)
	assert.Equal(t, 8, overflow.Size)
}

func TestUDPTransport_ShortPayloadFits(t *testing.T) {
	a, b := newLoopbackPair(t, 8)

	require.NoError(t, a.SendTo([]byte("1234567"), loopback(b)))

	dg, err := receiveWithin(t, b, time.Second)
	require.NoError(t, err)
	assert.Equal(t, "1234567", string(dg.Payload))
}

func TestUDPTransport_BroadcastFlag(t *testing.T) {
	tr, err := NewUDPTransport(TransportConfig{Broadcast: true}, testLogger())
	require.NoError(t, err)
	defer tr.Close()
	assert.True(t, tr.Broadcast())

	require.NoError(t, tr.SetBroadcast(false))
	assert.False(t, tr.Broadcast())
}

func TestUDPTransport_SendAfterClose(t *testing.T) {
	a, b := newLoopbackPair(t, DefaultBufferSize)
	require.NoError(t, a.Close())

	err := a.SendTo([]byte("x"), loopback(b))
	assert.ErrorIs(t, err, ErrSend)
}
