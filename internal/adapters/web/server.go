// Package web is the bridge's management surface: a gorilla/mux-routed HTTP
// API over the shared storage aggregate, bearer-token authenticated, traced
// with otelhttp, with a websocket live-status stream and on-demand PDF
// report alongside the plain JSON endpoints.
package web

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/sasetz/psip-switch/internal/adapters/audit"
	"github.com/sasetz/psip-switch/internal/adapters/report"
	"github.com/sasetz/psip-switch/internal/core/auth"
	"github.com/sasetz/psip-switch/internal/core/domain"
	"github.com/sasetz/psip-switch/internal/core/lifecycle"
	"github.com/sasetz/psip-switch/internal/core/storage"
)

// Server wires every management-surface concern to one storage.Handle. It
// does not own an *http.Server itself — the lifecycle controller does, via
// StartRest — this type only builds the http.Handler the controller serves.
type Server struct {
	handle   storage.Handle
	lc       *lifecycle.Controller
	authn    *auth.Authenticator
	auditLog *audit.Log
	exporter *report.Exporter
	log      *slog.Logger
}

// NewServer builds a Server. lc supplies the storage handle and the
// lifecycle state the management surface reports alongside interface data.
func NewServer(lc *lifecycle.Controller, authn *auth.Authenticator, auditLog *audit.Log, exporter *report.Exporter, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{
		handle:   lc.Handle(),
		lc:       lc,
		authn:    authn,
		auditLog: auditLog,
		exporter: exporter,
		log:      log,
	}
}

// Handler builds the otelhttp-instrumented, gorilla/mux-routed handler this
// server exposes. The lifecycle controller's StartRest binds it to a port.
func (s *Server) Handler() http.Handler {
	return newRouter(s)
}

func (s *Server) audit(ctx context.Context, actor, action, detail string, outcome domain.AuditOutcome) {
	if s.auditLog == nil {
		return
	}
	if err := s.auditLog.Record(ctx, actor, action, detail, outcome); err != nil {
		s.log.Warn("audit write failed", "action", action, "error", err)
	}
}
