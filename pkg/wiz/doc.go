// Package wiz implements the local UDP control protocol spoken by WiZ Connected
// lights and plugs.
//
// Devices listen on UDP port 38899 and exchange single JSON objects of the
// form {"method": "...", "params": {...}}. Replies carry either a "result"
// or an "error" object. The package is layered:
//
//   - Transport: one UDP socket, polled receive, broadcast toggling.
//   - Codec: request encoding and response decoding (error envelope first).
//   - Correlator: send-and-wait for unicast, broadcast-and-collect for discovery.
//   - Kind: classification of a device's module name into a capability set.
//   - Client/Device: discovery, connect and command operations.
//
// All operations are synchronous and bounded by a timeout. A Device owns its
// socket and must not be used from more than one goroutine at a time;
// separate Devices are independent.
package wiz
