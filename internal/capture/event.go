package capture

import (
	"fmt"
	"strings"
	"time"
)

// Event is one captured datagram. CBOR encoding uses integer keys.
type Event struct {
	// Timestamp when the datagram was sent or received.
	Timestamp time.Time `cbor:"1,keyasint"`

	// SessionID identifies the wizctl run that captured the event.
	SessionID string `cbor:"2,keyasint"`

	Direction Direction `cbor:"3,keyasint"`

	// Remote is the peer address (IP:port).
	Remote string `cbor:"4,keyasint,omitempty"`

	Payload []byte `cbor:"5,keyasint,omitempty"`

	// Error is set when the send or receive failed.
	Error string `cbor:"6,keyasint,omitempty"`
}

// Direction indicates the direction of a datagram.
type Direction uint8

const (
	DirectionIn  Direction = 0
	DirectionOut Direction = 1
)

func (d Direction) String() string {
	switch d {
	case DirectionIn:
		return "in"
	case DirectionOut:
		return "out"
	default:
		return "unknown"
	}
}

// ParseDirection parses "in" or "out".
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(s) {
	case "in":
		return DirectionIn, nil
	case "out":
		return DirectionOut, nil
	}
	return 0, fmt.Errorf("invalid direction %q (want in or out)", s)
}

// Record is the human readable form of an Event used for JSON and YAML
// export.
type Record struct {
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`
	SessionID string    `json:"session" yaml:"session"`
	Direction string    `json:"direction" yaml:"direction"`
	Remote    string    `json:"remote,omitempty" yaml:"remote,omitempty"`
	Payload   string    `json:"payload,omitempty" yaml:"payload,omitempty"`
	Error     string    `json:"error,omitempty" yaml:"error,omitempty"`
}

// Record converts the event for export.
func (e Event) Record() Record {
	return Record{
		Timestamp: e.Timestamp,
		SessionID: e.SessionID,
		Direction: e.Direction.String(),
		Remote:    e.Remote,
		Payload:   string(e.Payload),
		Error:     e.Error,
	}
}
