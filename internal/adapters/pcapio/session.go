package pcapio

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/gopacket/pcap"
)

// Session is one open, activated pcap handle, read and written by a single
// capture loop. It satisfies ports.CaptureSession and doubles as this
// interface's injector, since the bridge always sends on the same handle it
// captures from.
type Session struct {
	handle *pcap.Handle
	osName string
	log    *slog.Logger
}

// Next blocks for up to the poll timeout waiting for the next frame. A
// timeout is reported as ok=false, err=nil, matching the capture loop's
// expectation that every poll return lets it re-check the running flag.
func (s *Session) Next(ctx context.Context) ([]byte, bool, error) {
	data, _, err := s.handle.ReadPacketData()
	if err != nil {
		if errors.Is(err, pcap.NextErrorTimeoutExpired) {
			return nil, false, nil
		}
		return nil, false, err
	}
	// ReadPacketData's buffer is only valid until the next read; the loop
	// holds frames across a storage grant and possible re-injection, so it
	// must own a stable copy.
	frame := make([]byte, len(data))
	copy(frame, data)
	return frame, true, nil
}

// Send writes a frame verbatim on this session's interface.
func (s *Session) Send(frame []byte) error {
	return s.handle.WritePacketData(frame)
}

// Close releases the pcap handle.
func (s *Session) Close() error {
	s.handle.Close()
	return nil
}
