// Package eviction runs the three independent purge tickers the bridge needs
// to age out stale state: the MAC table, the sent-packet set, and the
// session list each expire on their own cadence, sharing one storage.Handle.
package eviction

import (
	"context"
	"log/slog"
	"time"

	"github.com/sasetz/psip-switch/internal/core/storage"
)

// Default ticker cadences.
const (
	MACInterval     = 200 * time.Millisecond
	PacketInterval  = 300 * time.Millisecond
	SessionInterval = time.Second
)

// Ticker owns the three purge goroutines. It is started once per running
// network and stopped when the capture loops stop, since there is nothing
// left to expire once the MAC table and sent-set are no longer being
// written to.
type Ticker struct {
	handle storage.Handle
	log    *slog.Logger

	macInterval     time.Duration
	packetInterval  time.Duration
	sessionInterval time.Duration
}

// New builds a Ticker with the default cadences. Use the With* options to
// override a cadence in tests, where waiting out the real intervals would
// make the suite slow.
func New(handle storage.Handle, log *slog.Logger) *Ticker {
	if log == nil {
		log = slog.Default()
	}
	return &Ticker{
		handle:          handle,
		log:             log,
		macInterval:     MACInterval,
		packetInterval:  PacketInterval,
		sessionInterval: SessionInterval,
	}
}

// WithIntervals overrides the three cadences; zero values leave the
// corresponding default untouched.
func (t *Ticker) WithIntervals(mac, packet, session time.Duration) *Ticker {
	if mac > 0 {
		t.macInterval = mac
	}
	if packet > 0 {
		t.packetInterval = packet
	}
	if session > 0 {
		t.sessionInterval = session
	}
	return t
}

// Run blocks, driving all three purge loops until ctx is canceled.
func (t *Ticker) Run(ctx context.Context) {
	done := make(chan struct{}, 3)
	go func() { t.loop(ctx, t.macInterval, t.purgeMAC); done <- struct{}{} }()
	go func() { t.loop(ctx, t.packetInterval, t.purgePackets); done <- struct{}{} }()
	go func() { t.loop(ctx, t.sessionInterval, t.purgeSessions); done <- struct{}{} }()
	<-done
	<-done
	<-done
}

func (t *Ticker) loop(ctx context.Context, interval time.Duration, purge func()) {
	tk := time.NewTicker(interval)
	defer tk.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-tk.C:
			purge()
		}
	}
}

func (t *Ticker) purgeMAC() {
	g := t.handle.Acquire()
	g.Aggregate().PurgeExpiredMAC()
	g.Release()
}

func (t *Ticker) purgePackets() {
	g := t.handle.Acquire()
	g.Aggregate().PurgeExpiredPackets()
	g.Release()
}

func (t *Ticker) purgeSessions() {
	g := t.handle.Acquire()
	before := len(g.Aggregate().Sessions)
	g.Aggregate().PurgeExpiredSessions()
	after := len(g.Aggregate().Sessions)
	g.Release()
	if before != after {
		t.log.Debug("purged expired sessions", "removed", before-after)
	}
}
