// Package capture records the datagrams exchanged with devices.
//
// A capture file is a stream of CBOR-encoded Events, one per datagram sent
// or received, written by a FileLogger and read back by a Reader. Wrap
// decorates a wiz.Transport so every datagram it carries is recorded
// without changing its behaviour.
//
// Events from several runs may share a file; each run is tagged with its
// own session ID.
package capture
