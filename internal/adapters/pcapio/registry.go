package pcapio

import (
	"sync"

	"github.com/sasetz/psip-switch/internal/ports"
)

// Registry is the live Injector used by the data plane: it prefers writing
// through a currently-open capture session's own handle, since most sends
// are between two interfaces the lifecycle controller already has running,
// and falls back to a transient Capture.Send for any interface without one
// (management-plane injection, or a peer that never came up).
type Registry struct {
	capture *Capture

	mu       sync.Mutex
	sessions map[string]ports.CaptureSession
}

// NewRegistry builds a Registry backed by capture for its fallback sends.
func NewRegistry(capture *Capture) *Registry {
	return &Registry{capture: capture, sessions: make(map[string]ports.CaptureSession)}
}

// Register associates osName with a live capture session, so future sends to
// it reuse the session's handle instead of opening a new one.
func (r *Registry) Register(osName string, sess ports.CaptureSession) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[osName] = sess
}

// Unregister drops the association, typically called as the owning loop
// exits.
func (r *Registry) Unregister(osName string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, osName)
}

// Send writes frame on osName, reusing a registered session if one is open.
func (r *Registry) Send(osName string, frame []byte) error {
	r.mu.Lock()
	sess, ok := r.sessions[osName]
	r.mu.Unlock()
	if ok {
		return sess.Send(frame)
	}
	return r.capture.Send(osName, frame)
}
