package telemetry

import "github.com/sasetz/psip-switch/internal/ports"

// InstrumentedInjector wraps a ports.Injector, recording every failed send
// against InjectionErrors before returning the underlying error unchanged.
// Decorating at the wiring site, rather than reaching into the capture loop
// itself, keeps the data plane free of any telemetry dependency.
type InstrumentedInjector struct {
	next ports.Injector
}

// Instrument wraps next so its Send failures are counted.
func Instrument(next ports.Injector) *InstrumentedInjector {
	return &InstrumentedInjector{next: next}
}

// Send delegates to the wrapped Injector and records a failure if one occurs.
func (i *InstrumentedInjector) Send(osName string, frame []byte) error {
	err := i.next.Send(osName, frame)
	if err != nil {
		RecordInjectionError(osName)
	}
	return err
}

// registrar mirrors captureloop.Registrar without importing the captureloop
// package (which would reach back down into the data plane from telemetry).
type registrar interface {
	Register(osName string, sess ports.CaptureSession)
	Unregister(osName string)
}

// Register forwards to the wrapped Injector if it supports session reuse
// (see captureloop.Registrar), so wrapping for telemetry never disables
// pcapio.Registry's one-handle-does-both-directions optimization.
func (i *InstrumentedInjector) Register(osName string, sess ports.CaptureSession) {
	if reg, ok := i.next.(registrar); ok {
		reg.Register(osName, sess)
	}
}

// Unregister forwards to the wrapped Injector if it supports session reuse.
func (i *InstrumentedInjector) Unregister(osName string) {
	if reg, ok := i.next.(registrar); ok {
		reg.Unregister(osName)
	}
}

var _ ports.Injector = (*InstrumentedInjector)(nil)
