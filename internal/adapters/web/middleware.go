package web

import (
	"context"
	"net/http"

	"github.com/sasetz/psip-switch/internal/core/domain"
)

type contextKey string

const authHeaderContextKey contextKey = "authorization"

// requireAuth checks the bearer token against the live session list before
// delegating to next, auditing the denial on failure. There is a single
// credential pair and no roles, so a valid bearer token is the entire
// authorization model: no cookie fallback, no per-role middleware.
func (s *Server) requireAuth(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")

		g := s.handle.Acquire()
		ok := s.authn.Authenticate(g.Aggregate(), header)
		g.Release()

		if !ok {
			s.audit(r.Context(), "unknown", "request:"+r.URL.Path, "bearer auth failed", domain.AuditDenied)
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}

		ctx := context.WithValue(r.Context(), authHeaderContextKey, header)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
