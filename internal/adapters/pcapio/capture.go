// Package pcapio adapts github.com/google/gopacket/pcap into the ports.Capture
// and ports.Injector capabilities consumed by the capture loop. Each
// interface gets one pcap.Handle, opened promiscuous, used for both reading
// and writing so a reply never has to fight its own capture for the NIC.
package pcapio

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/gopacket/pcap"

	"github.com/sasetz/psip-switch/internal/ports"
)

// pollTimeout is the capture poll timeout mandated by the capture loop
// contract: the capability must return control (with ok=false) at least this
// often so the loop can observe a signalled stop.
const pollTimeout = 500 * time.Millisecond

// SnapLen is the maximum frame size captured; large enough for any Ethernet
// frame including jumbo frames seen on the wire, even though the bridge
// itself refuses to inject frames over 1500 bytes onto wireless interfaces.
const SnapLen = 65536

// Capture is the live, gopacket/pcap-backed implementation of ports.Capture
// and ports.Injector.
type Capture struct {
	log *slog.Logger
}

var _ ports.Capture = (*Capture)(nil)
var _ ports.Injector = (*Capture)(nil)

// NewCapture creates a Capture using the given logger (or a default one).
func NewCapture(log *slog.Logger) *Capture {
	if log == nil {
		log = slog.Default()
	}
	return &Capture{log: log}
}

// Open activates a promiscuous, immediate-mode pcap handle on osName with a
// 500ms poll timeout, per the capture capability contract.
func (c *Capture) Open(ctx context.Context, osName string) (ports.CaptureSession, error) {
	inactive, err := pcap.NewInactiveHandle(osName)
	if err != nil {
		return nil, fmt.Errorf("pcapio: inactive handle for %s: %w", osName, err)
	}
	defer inactive.CleanUp()

	if err := inactive.SetSnapLen(SnapLen); err != nil {
		return nil, fmt.Errorf("pcapio: set snaplen: %w", err)
	}
	if err := inactive.SetPromisc(true); err != nil {
		return nil, fmt.Errorf("pcapio: set promiscuous: %w", err)
	}
	if err := inactive.SetImmediateMode(true); err != nil {
		return nil, fmt.Errorf("pcapio: set immediate mode: %w", err)
	}
	if err := inactive.SetTimeout(pollTimeout); err != nil {
		return nil, fmt.Errorf("pcapio: set poll timeout: %w", err)
	}

	handle, err := inactive.Activate()
	if err != nil {
		return nil, fmt.Errorf("pcapio: activate %s: %w", osName, err)
	}

	return &Session{handle: handle, osName: osName, log: c.log}, nil
}

// Send writes a frame verbatim on the given interface by opening a transient
// handle. The capture loop prefers sending through its own long-lived
// Session (see Session.Send in session.go); this path exists for callers
// (tests, the management surface) that inject without an open capture loop.
func (c *Capture) Send(osName string, frame []byte) error {
	handle, err := pcap.OpenLive(osName, SnapLen, true, pollTimeout)
	if err != nil {
		return fmt.Errorf("pcapio: open for send on %s: %w", osName, err)
	}
	defer handle.Close()
	return handle.WritePacketData(frame)
}
