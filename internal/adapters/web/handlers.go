package web

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sasetz/psip-switch/internal/core/domain"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// handleLiveness answers GET / with no auth required.
func (s *Server) handleLiveness(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"hello": "world",
		"test":  []int{1, 2},
	})
}

// handleLogin answers POST /login. On success it audits the issued token's
// first 8 characters only, never the full token.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	username := r.FormValue("username")
	password := r.FormValue("password")

	g := s.handle.Acquire()
	token, err := s.authn.Login(g.Aggregate(), username, password)
	g.Release()

	if err != nil {
		s.audit(r.Context(), username, "login", "invalid credentials", domain.AuditDenied)
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	detail := "issued token " + tokenPrefix(token)
	s.audit(r.Context(), username, "login", detail, domain.AuditSuccess)
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

func tokenPrefix(token string) string {
	const n = 8
	if len(token) <= n {
		return token
	}
	return token[:n]
}

// handleAuthCheck answers GET /auth. Unlike every other bearer endpoint it
// never rejects the request with 403: an invalid or missing token simply
// reports auth:false, since the whole point of this endpoint is to let a
// client check its own token without being bounced.
func (s *Server) handleAuthCheck(w http.ResponseWriter, r *http.Request) {
	g := s.handle.Acquire()
	ok := s.authn.Authenticate(g.Aggregate(), r.Header.Get("Authorization"))
	g.Release()
	writeJSON(w, http.StatusOK, map[string]bool{"auth": ok})
}

// handleLogout answers POST /logout, reachable only through requireAuth.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	g := s.handle.Acquire()
	s.authn.Logout(g.Aggregate(), r.Header.Get("Authorization"))
	g.Release()

	s.audit(r.Context(), s.authn.Username(), "logout", "", domain.AuditSuccess)
	writeJSON(w, http.StatusOK, map[string]interface{}{})
}

type interfaceView struct {
	ID      int    `json:"id"`
	Name    string `json:"name"`
	Up      bool   `json:"up"`
	Address string `json:"address"`
}

func toInterfaceView(id int, rec *domain.InterfaceRecord) interfaceView {
	return interfaceView{ID: id, Name: rec.Name, Up: rec.Up, Address: rec.ID.Address.String()}
}

// handleListInterfaces answers GET /interface.
func (s *Server) handleListInterfaces(w http.ResponseWriter, r *http.Request) {
	g := s.handle.Acquire()
	recs := sortedInterfaces(g.Aggregate())
	views := make([]interfaceView, 0, len(recs))
	for i, rec := range recs {
		views = append(views, toInterfaceView(i, rec))
	}
	g.Release()
	writeJSON(w, http.StatusOK, map[string]interface{}{"interfaces": views})
}

// handleGetInterface answers GET /interface/{id}.
func (s *Server) handleGetInterface(w http.ResponseWriter, r *http.Request) {
	id, ok := parseInterfaceID(r)
	if !ok {
		http.NotFound(w, r)
		return
	}

	g := s.handle.Acquire()
	recs := sortedInterfaces(g.Aggregate())
	if id < 0 || id >= len(recs) {
		g.Release()
		http.NotFound(w, r)
		return
	}
	view := toInterfaceView(id, recs[id])
	g.Release()
	writeJSON(w, http.StatusOK, view)
}

// handleEditInterface answers PUT /interface/{id}/edit.
func (s *Server) handleEditInterface(w http.ResponseWriter, r *http.Request) {
	id, ok := parseInterfaceID(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	g := s.handle.Acquire()
	recs := sortedInterfaces(g.Aggregate())
	if id < 0 || id >= len(recs) {
		g.Release()
		http.NotFound(w, r)
		return
	}
	rec := recs[id]
	if name := r.FormValue("name"); name != "" {
		rec.Name = name
	}
	if upStr := r.FormValue("up"); upStr != "" {
		if up, err := strconv.ParseBool(upStr); err == nil {
			rec.Up = up
		}
	}
	view := toInterfaceView(id, rec)
	g.Release()

	s.audit(r.Context(), s.authn.Username(), "interface:edit", rec.ID.OSName, domain.AuditSuccess)
	writeJSON(w, http.StatusOK, view)
}

func parseInterfaceID(r *http.Request) (int, bool) {
	raw := mux.Vars(r)["id"]
	id, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return id, true
}

type deviceView struct {
	Hostname       string `json:"hostname"`
	TimeoutSeconds int    `json:"timeout_seconds"`
}

// handleGetDevice answers GET /device.
func (s *Server) handleGetDevice(w http.ResponseWriter, r *http.Request) {
	g := s.handle.Acquire()
	dev := g.Aggregate().Device
	g.Release()
	writeJSON(w, http.StatusOK, deviceView{
		Hostname:       dev.Hostname,
		TimeoutSeconds: int(dev.DefaultMACTimeout / time.Second),
	})
}

// handleEditDevice answers PUT /device/edit. timeout arrives in seconds;
// storage holds it as a time.Duration.
func (s *Server) handleEditDevice(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	g := s.handle.Acquire()
	agg := g.Aggregate()
	if hostname := r.FormValue("hostname"); hostname != "" {
		agg.Device.Hostname = hostname
	}
	if timeoutStr := r.FormValue("timeout"); timeoutStr != "" {
		if seconds, err := strconv.Atoi(timeoutStr); err == nil {
			agg.SetDefaultMACTimeout(time.Duration(seconds) * time.Second)
		}
	}
	view := deviceView{
		Hostname:       agg.Device.Hostname,
		TimeoutSeconds: int(agg.Device.DefaultMACTimeout / time.Second),
	}
	g.Release()

	s.audit(r.Context(), s.authn.Username(), "device:edit", view.Hostname, domain.AuditSuccess)
	writeJSON(w, http.StatusOK, view)
}

type statView struct {
	Protocol    string `json:"protocol"`
	InterfaceID int    `json:"interface_id"`
	Input       int64  `json:"input"`
	Output      int64  `json:"output"`
}

// handleStats answers GET /stats with per-protocol, per-interface counters.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	g := s.handle.Acquire()
	agg := g.Aggregate()
	recs := sortedInterfaces(agg)
	ifaceIndex := make(map[domain.InterfaceID]int, len(recs))
	for i, rec := range recs {
		ifaceIndex[rec.ID] = i
	}

	views := make([]statView, 0, len(agg.Stats))
	for key, v := range agg.Stats {
		views = append(views, statView{
			Protocol:    string(key.Protocol),
			InterfaceID: ifaceIndex[key.Interface],
			Input:       v.InputCount,
			Output:      v.OutputCount,
		})
	}
	g.Release()
	writeJSON(w, http.StatusOK, map[string]interface{}{"stats": views})
}

// handleMetrics answers GET /metrics by delegating to the Prometheus
// registry, gated behind the same bearer auth as the rest of the API.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// handleReport answers GET /report.pdf. It takes a grant only long enough
// to copy a snapshot, then renders outside the lock.
func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	g := s.handle.Acquire()
	snap := g.Aggregate().Snapshot()
	g.Release()

	data, err := s.exporter.Render(snap, time.Now())
	if err != nil {
		s.log.Error("report render failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="bridge-report.pdf"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// handleAudit answers GET /audit, taking a grant no longer than it takes to
// decide whether auditing is configured, then reading outside any lock.
func (s *Server) handleAudit(w http.ResponseWriter, r *http.Request) {
	if s.auditLog == nil {
		writeJSON(w, http.StatusOK, map[string]interface{}{"entries": []domain.AuditEntry{}})
		return
	}
	entries, err := s.auditLog.Recent(r.Context(), 100)
	if err != nil {
		s.log.Error("audit read failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"entries": entries})
}
