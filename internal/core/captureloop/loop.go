// Package captureloop runs the per-interface learning-switch decision
// procedure: it pulls frames off one capture session, updates the shared MAC
// table, and forwards, floods or drops each frame under a single storage
// grant per frame, one goroutine per bound interface.
package captureloop

import (
	"context"
	"errors"
	"log/slog"

	"github.com/sasetz/psip-switch/internal/core/domain"
	"github.com/sasetz/psip-switch/internal/core/storage"
	"github.com/sasetz/psip-switch/internal/ports"
)

// maxWirelessFrame is the largest frame the bridge will inject onto a
// wireless interface; anything bigger is silently dropped instead of
// forwarded, per the jumbo-frame rule.
const maxWirelessFrame = 1500

// Loop owns one bound interface's capture session and runs its decision
// procedure until told to stop via the interface record's Control.Running
// flag, which the lifecycle controller flips.
type Loop struct {
	id       domain.InterfaceID
	capture  ports.Capture
	injector ports.Injector
	storage  storage.Handle
	log      *slog.Logger
}

// New builds a Loop for the given bound interface. id must already have a
// matching InterfaceRecord present in storage before Run is called; the
// lifecycle controller is responsible for inserting it with Control.Running
// set to true.
func New(id domain.InterfaceID, capture ports.Capture, injector ports.Injector, h storage.Handle, log *slog.Logger) *Loop {
	if log == nil {
		log = slog.Default()
	}
	return &Loop{id: id, capture: capture, injector: injector, storage: h, log: log}
}

// Run opens the capture session and processes frames until the interface is
// told to stop or the session errors out. It always marks Control.Finished on
// the way out, which is how the lifecycle controller observes loop exit.
func (l *Loop) Run(ctx context.Context) {
	defer l.markFinished()

	sess, err := l.capture.Open(ctx, l.id.OSName)
	if err != nil {
		l.log.Error("capture open failed", "interface", l.id.OSName, "error", err)
		return
	}
	defer sess.Close()

	if reg, ok := l.injector.(Registrar); ok {
		reg.Register(l.id.OSName, sess)
		defer reg.Unregister(l.id.OSName)
	}

	for l.isRunning() {
		frame, ok, err := sess.Next(ctx)
		if err != nil {
			l.log.Warn("capture read failed", "interface", l.id.OSName, "error", err)
			return
		}
		if !ok {
			continue // poll timeout; loop back and re-check Running
		}
		l.processFrame(frame)
	}
}

// Registrar lets an Injector reuse a loop's own capture session to send on
// that interface, instead of opening a transient handle for every cross-loop
// forward. Implemented by pcapio.Registry.
type Registrar interface {
	Register(osName string, sess ports.CaptureSession)
	Unregister(osName string)
}

func (l *Loop) isRunning() bool {
	g := l.storage.Acquire()
	defer g.Release()
	rec, ok := g.Aggregate().Interfaces[l.id]
	return ok && rec.Control.Running
}

func (l *Loop) markFinished() {
	g := l.storage.Acquire()
	defer g.Release()
	if rec, ok := g.Aggregate().Interfaces[l.id]; ok {
		rec.Control.Finished = true
	}
}

// processFrame runs the full ten-step decision procedure for one frame under
// a single grant: decode, drop checks, MAC learning, then forward, drop or
// flood. Every send this frame triggers — direct, learned or flooded — is
// performed while still holding the same grant, matching the concurrency
// contract that a capture loop owns the mutex for the whole frame.
func (l *Loop) processFrame(frame []byte) {
	packet, eth, ok := decodeEthernet(frame)
	if !ok {
		return // step 1: not decodable as EthernetII
	}

	g := l.storage.Acquire()
	defer g.Release()
	agg := g.Aggregate()

	self, ok := agg.Interfaces[l.id]
	if !ok || !self.Up {
		return // step 2: interface missing or administratively down
	}

	if agg.SentSet.Contains(frame) {
		return // step 3: we sent this frame ourselves; loop prevention
	}

	protocols := classify(packet)
	for _, p := range protocols {
		l.bumpInput(agg, p)
	}

	src, ok := macFromHardwareAddr(eth.SrcMAC)
	if ok && src == self.ID.Address {
		return // step 5: self-echo, captured our own transmission
	}

	if ok {
		agg.MACTable[src] = domain.MACEntry{
			Interface: l.id,
			Timeout:   domain.NewTimeout(agg.Device.DefaultMACTimeout),
		} // step 6: unconditional refresh on every sighting
	}

	dst, ok := macFromHardwareAddr(eth.DstMAC)
	if !ok {
		return
	}
	if dst == self.ID.Address {
		return // step 7: addressed to us, consumed locally
	}

	if other, found := findByAddress(agg, dst); found && other.ID != l.id {
		l.send(agg, other.ID, frame, protocols) // step 8: directly addressed peer
		return
	}

	if entry, found := agg.MACTable[dst]; found {
		if entry.Interface == l.id {
			return // step 9: learned on this same interface, would echo back
		}
		l.send(agg, entry.Interface, frame, protocols)
		return
	}

	for ifaceID := range agg.Interfaces {
		if ifaceID == l.id {
			continue
		}
		l.send(agg, ifaceID, frame, protocols) // step 10: unknown destination, flood
	}
}

func findByAddress(agg *storage.Aggregate, addr domain.MAC) (*domain.InterfaceRecord, bool) {
	for _, rec := range agg.Interfaces {
		if rec.ID.Address == addr {
			return rec, true
		}
	}
	return nil, false
}

// send records the frame as sent, bumps output counters, and injects it onto
// toID — unless toID is wireless and the frame exceeds the wireless MTU, in
// which case the frame is dropped before any of that happens.
func (l *Loop) send(agg *storage.Aggregate, toID domain.InterfaceID, frame []byte, protocols []domain.Protocol) {
	if len(frame) > maxWirelessFrame && toID.IsWireless() {
		return
	}

	agg.SentSet.Insert(frame) // must precede injection, or our own echo races in first
	for _, p := range protocols {
		l.bumpOutput(agg, toID, p)
	}

	if err := l.injector.Send(toID.OSName, frame); err != nil {
		if !errors.Is(err, context.Canceled) {
			l.log.Warn("injection failed", "from", l.id.OSName, "to", toID.OSName, "error", err)
		}
	}
}

func (l *Loop) bumpInput(agg *storage.Aggregate, p domain.Protocol) {
	key := domain.StatKey{Protocol: p, Interface: l.id}
	v := agg.Stats[key]
	v.InputCount++
	agg.Stats[key] = v
}

func (l *Loop) bumpOutput(agg *storage.Aggregate, toID domain.InterfaceID, p domain.Protocol) {
	key := domain.StatKey{Protocol: p, Interface: toID}
	v := agg.Stats[key]
	v.OutputCount++
	agg.Stats[key] = v
}
