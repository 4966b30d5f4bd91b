// Package ports declares the capability interfaces the core data plane
// consumes from the outside world: opening a capture session on an
// interface, and injecting frames onto one. Concrete implementations live
// under internal/adapters.
package ports

import "context"

// CaptureSession represents an open capture handle on one interface. It must
// be opened in promiscuous, immediate mode with a 500ms poll timeout.
type CaptureSession interface {
	// Next blocks until the next frame is available, the poll timeout
	// elapses (ok=false, err=nil), or the session is closed. It never
	// returns a decode of the frame — only the raw bytes — leaving
	// EthernetII/ARP/IP/TCP/UDP/ICMP decoding to the caller.
	Next(ctx context.Context) (frame []byte, ok bool, err error)

	// Send writes a frame verbatim on the interface this session was opened
	// on. A capture session can always send on its own handle; cross-
	// interface sends go through a separate Injector.
	Send(frame []byte) error

	// Close releases the underlying capture resources.
	Close() error
}

// Capture opens a capture session on the named OS interface.
type Capture interface {
	Open(ctx context.Context, osName string) (CaptureSession, error)
}

// Injector sends a frame verbatim on the named OS interface.
type Injector interface {
	Send(osName string, frame []byte) error
}
