package web

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sasetz/psip-switch/internal/adapters/report"
	"github.com/sasetz/psip-switch/internal/core/auth"
	"github.com/sasetz/psip-switch/internal/core/domain"
	"github.com/sasetz/psip-switch/internal/core/lifecycle"
	"github.com/sasetz/psip-switch/internal/ports"
)

// fakeSession/fakeCapture/fakeInjector mirror the lifecycle package's own
// test doubles: a session that never yields a frame, just enough to exercise
// StartNetwork without a real NIC.
type fakeSession struct{ closed chan struct{} }

func (s *fakeSession) Next(ctx context.Context) ([]byte, bool, error) {
	select {
	case <-s.closed:
		return nil, false, context.Canceled
	case <-time.After(5 * time.Millisecond):
		return nil, false, nil
	}
}
func (s *fakeSession) Send(frame []byte) error { return nil }
func (s *fakeSession) Close() error            { close(s.closed); return nil }

type fakeCapture struct {
	mu       sync.Mutex
	sessions map[string]*fakeSession
}

func newFakeCapture() *fakeCapture {
	return &fakeCapture{sessions: make(map[string]*fakeSession)}
}

func (c *fakeCapture) Open(ctx context.Context, osName string) (ports.CaptureSession, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	sess := &fakeSession{closed: make(chan struct{})}
	c.sessions[osName] = sess
	return sess, nil
}

type fakeInjector struct{}

func (fakeInjector) Send(osName string, frame []byte) error { return nil }

func newTestServer(t *testing.T) (*Server, *lifecycle.Controller) {
	t.Helper()
	lc := lifecycle.New(newFakeCapture(), fakeInjector{}, nil).WithMACResolver(func(osName string) (domain.MAC, error) {
		mac, _ := domain.ParseMAC("02:00:00:00:00:01")
		if osName == "eth1" {
			mac, _ = domain.ParseMAC("02:00:00:00:00:02")
		}
		return mac, nil
	})

	authn, err := auth.New("root", "root")
	require.NoError(t, err)

	s := NewServer(lc, authn, nil, report.NewExporter(), nil)
	t.Cleanup(func() { lc.Close(context.Background()) })
	return s, lc
}

func login(t *testing.T, handler http.Handler) string {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader("username=root&password=root"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.NotEmpty(t, body["token"])
	return body["token"]
}

func TestLivenessRequiresNoAuth(t *testing.T) {
	s, _ := newTestServer(t)
	handler := newRouter(s)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"hello":"world"`)
}

func TestLoginThenAuthCheckSucceeds(t *testing.T) {
	s, _ := newTestServer(t)
	handler := newRouter(s)

	token := login(t, handler)

	req := httptest.NewRequest(http.MethodGet, "/auth", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"auth":true}`, w.Body.String())
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	s, _ := newTestServer(t)
	handler := newRouter(s)

	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader("username=root&password=wrong"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestProtectedEndpointRejectsMissingBearer(t *testing.T) {
	s, _ := newTestServer(t)
	handler := newRouter(s)

	req := httptest.NewRequest(http.MethodGet, "/interface", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestInterfaceListAndGetByID(t *testing.T) {
	s, lc := newTestServer(t)
	handler := newRouter(s)
	require.NoError(t, lc.StartNetwork(context.Background(), "eth0", "eth1"))

	token := login(t, handler)

	req := httptest.NewRequest(http.MethodGet, "/interface", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var listBody struct {
		Interfaces []interfaceView `json:"interfaces"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listBody))
	require.Len(t, listBody.Interfaces, 2)

	req2 := httptest.NewRequest(http.MethodGet, "/interface/0", nil)
	req2.Header.Set("Authorization", "Bearer "+token)
	w2 := httptest.NewRecorder()
	handler.ServeHTTP(w2, req2)
	assert.Equal(t, http.StatusOK, w2.Code)
}

func TestGetInterfaceUnknownIDReturns404(t *testing.T) {
	s, lc := newTestServer(t)
	handler := newRouter(s)
	require.NoError(t, lc.StartNetwork(context.Background(), "eth0", "eth1"))

	token := login(t, handler)

	req := httptest.NewRequest(http.MethodGet, "/interface/99", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeviceEditUpdatesHostnameAndTimeout(t *testing.T) {
	s, _ := newTestServer(t)
	handler := newRouter(s)
	token := login(t, handler)

	req := httptest.NewRequest(http.MethodPut, "/device/edit", strings.NewReader("hostname=switch-1&timeout=60"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var view deviceView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
	assert.Equal(t, "switch-1", view.Hostname)
	assert.Equal(t, 60, view.TimeoutSeconds)
}

func TestLogoutInvalidatesToken(t *testing.T) {
	s, _ := newTestServer(t)
	handler := newRouter(s)
	token := login(t, handler)

	req := httptest.NewRequest(http.MethodPost, "/logout", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	req2 := httptest.NewRequest(http.MethodGet, "/interface", nil)
	req2.Header.Set("Authorization", "Bearer "+token)
	w2 := httptest.NewRecorder()
	handler.ServeHTTP(w2, req2)
	assert.Equal(t, http.StatusForbidden, w2.Code)
}

func TestReportPDFRendersPDFBytes(t *testing.T) {
	s, _ := newTestServer(t)
	handler := newRouter(s)
	token := login(t, handler)

	req := httptest.NewRequest(http.MethodGet, "/report.pdf", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.True(t, strings.HasPrefix(w.Body.String(), "%PDF"))
}

func TestAuditReturnsEmptyWhenUnconfigured(t *testing.T) {
	s, _ := newTestServer(t)
	handler := newRouter(s)
	token := login(t, handler)

	req := httptest.NewRequest(http.MethodGet, "/audit", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"entries":[]}`, w.Body.String())
}

func TestTokenPrefixTruncatesTo8Chars(t *testing.T) {
	assert.Equal(t, "12345678", tokenPrefix("12345678901234567890"))
	assert.Equal(t, "abc", tokenPrefix("abc"))
}
