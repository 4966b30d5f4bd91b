package web

import (
	"net/http"

	"github.com/gorilla/mux"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// newRouter wires every route the management surface exposes onto a
// gorilla/mux router, then wraps the whole chain in otelhttp for tracing
// spans.
func newRouter(s *Server) http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/", s.handleLiveness).Methods(http.MethodGet)
	r.HandleFunc("/login", s.handleLogin).Methods(http.MethodPost)
	r.HandleFunc("/auth", s.handleAuthCheck).Methods(http.MethodGet)
	r.Handle("/logout", s.requireAuth(s.handleLogout)).Methods(http.MethodPost)

	r.Handle("/interface", s.requireAuth(s.handleListInterfaces)).Methods(http.MethodGet)
	r.Handle("/interface/{id}", s.requireAuth(s.handleGetInterface)).Methods(http.MethodGet)
	r.Handle("/interface/{id}/edit", s.requireAuth(s.handleEditInterface)).Methods(http.MethodPut)

	r.Handle("/device", s.requireAuth(s.handleGetDevice)).Methods(http.MethodGet)
	r.Handle("/device/edit", s.requireAuth(s.handleEditDevice)).Methods(http.MethodPut)

	r.Handle("/stats", s.requireAuth(s.handleStats)).Methods(http.MethodGet)
	r.Handle("/metrics", s.requireAuth(s.handleMetrics)).Methods(http.MethodGet)
	r.Handle("/report.pdf", s.requireAuth(s.handleReport)).Methods(http.MethodGet)
	r.Handle("/audit", s.requireAuth(s.handleAudit)).Methods(http.MethodGet)

	// /stream authenticates its own bearer token from a query parameter (a
	// websocket handshake cannot carry a custom Authorization header from a
	// browser client), so it is not wrapped in requireAuth.
	r.HandleFunc("/stream", s.handleStream).Methods(http.MethodGet)

	return otelhttp.NewHandler(r, "bridge-server")
}
