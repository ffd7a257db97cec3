package wiz

import (
	"errors"
	"fmt"
	"net"
	"time"

	wizerrors "github.com/jmylchreest/wizctl/internal/errors"
)

// Sentinel errors. Failures that carry data use the typed errors below.
var (
	// ErrSocket is returned when a socket cannot be opened or configured.
	ErrSocket = errors.New("wiz: socket error")

	// ErrSend is returned when the OS rejects a datagram send.
	ErrSend = errors.New("wiz: send failed")

	// ErrWouldBlock is returned by a transport when no datagram is pending.
	ErrWouldBlock = errors.New("wiz: no datagram pending")

	// ErrEncoding is returned when a response is not valid UTF-8.
	ErrEncoding = errors.New("wiz: response is not valid UTF-8")

	// ErrUnsuccessfulRequest is returned when a device answers a set request
	// with "success": false.
	ErrUnsuccessfulRequest = errors.New("wiz: device reported an unsuccessful request")

	// ErrPowerUnsupported is returned when a device does not implement getPower.
	ErrPowerUnsupported = errors.New("wiz: device does not support getPower")
)

// CodeMethodNotFound is the JSON-RPC error code devices use for unknown methods.
const CodeMethodNotFound = -32601

// BufferOverflowError reports a datagram that filled the receive buffer
// completely and was therefore possibly truncated.
type BufferOverflowError struct {
	Size int
}

func (e *BufferOverflowError) Error() string {
	return fmt.Sprintf("wiz: received datagram filled the %d byte buffer", e.Size)
}

// ProtocolError is a structured error returned by a device.
type ProtocolError struct {
	Method  string
	Code    int
	Message string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("wiz: device returned error %d for %s: %q", e.Code, e.Method, e.Message)
}

// IsMethodNotFound reports whether the device does not implement the method.
func (e *ProtocolError) IsMethodNotFound() bool {
	return e.Code == CodeMethodNotFound
}

// UnrecognizedResponseError is returned when a response matches neither the
// error envelope nor the expected result shape. Raw holds the response text.
type UnrecognizedResponseError struct {
	Raw string
	Err error
}

func (e *UnrecognizedResponseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("wiz: unrecognized response %q: %v", e.Raw, e.Err)
	}
	return fmt.Sprintf("wiz: unrecognized response %q", e.Raw)
}

func (e *UnrecognizedResponseError) Unwrap() error {
	return e.Err
}

// UnexpectedSourceError is returned when a reply arrives from an address
// other than the one the request was sent to.
type UnexpectedSourceError struct {
	Actual   net.IP
	Expected net.IP
}

func (e *UnexpectedSourceError) Error() string {
	return fmt.Sprintf("wiz: received response from %s, expected %s", e.Actual, e.Expected)
}

func (e *UnexpectedSourceError) Unwrap() error {
	return wizerrors.ErrDeviceUnavailable
}

// NoResponseError is returned when no reply arrived before the timeout.
type NoResponseError struct {
	Elapsed time.Duration
}

func (e *NoResponseError) Error() string {
	return fmt.Sprintf("wiz: no response after %s", e.Elapsed)
}

func (e *NoResponseError) Unwrap() error {
	return wizerrors.ErrDeviceUnavailable
}

// UnsupportedCommandError is returned before any I/O when a command is not
// valid for the device kind.
type UnsupportedCommandError struct {
	Kind    DeviceKind
	Command string
}

func (e *UnsupportedCommandError) Error() string {
	return fmt.Sprintf("wiz: %s does not support %s", e.Kind, e.Command)
}

func (e *UnsupportedCommandError) Unwrap() error {
	return wizerrors.ErrInvalidInput
}

// UnrecognizedModuleError is returned when a module name cannot be classified.
type UnrecognizedModuleError struct {
	Raw string
}

func (e *UnrecognizedModuleError) Error() string {
	return fmt.Sprintf("wiz: unrecognized module identifier %q", e.Raw)
}

func (e *UnrecognizedModuleError) Unwrap() error {
	return wizerrors.ErrInvalidInput
}
