package lifecycle

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/sasetz/psip-switch/internal/core/domain"
	"github.com/sasetz/psip-switch/internal/ports"
)

// fakeSession never yields a frame; it just blocks briefly on each poll and
// reports the interface's own running flag via context cancellation, which
// is enough to exercise start/stop/join without a real NIC.
type fakeSession struct {
	closed chan struct{}
}

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

func newFixture(t *testing.T) *Controller {
	t.Helper()
	c := New(newFakeCapture(), fakeInjector{}, nil)
	c.resolveMAC = func(osName string) (domain.MAC, error) {
		m, _ := domain.ParseMAC("02:00:00:00:00:01")
		if osName == "eth1" {
			m, _ = domain.ParseMAC("02:00:00:00:00:02")
		}
		return m, nil
	}
	return c
}

func TestStartNetworkFromIdleSucceeds(t *testing.T) {
	c := newFixture(t)
	if c.State() != Idle {
		t.Fatalf("expected initial state Idle, got %v", c.State())
	}

	if err := c.StartNetwork(context.Background(), "eth0", "eth1"); err != nil {
		t.Fatalf("StartNetwork: %v", err)
	}

	time.Sleep(5 * time.Millisecond)
	if got := c.State(); got != RunningNetwork {
		t.Fatalf("expected RunningNetwork, got %v", got)
	}

	if err := c.Close(context.Background()); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if got := c.State(); got != Idle {
		t.Fatalf("expected Idle after Close, got %v", got)
	}
}

func TestStartNetworkRejectsSameInterfaceTwice(t *testing.T) {
	c := newFixture(t)
	if err := c.StartNetwork(context.Background(), "eth0", "eth0"); err != ErrSameInterface {
		t.Fatalf("expected ErrSameInterface, got %v", err)
	}
}

func TestStartNetworkRejectsEmptySelection(t *testing.T) {
	c := newFixture(t)
	if err := c.StartNetwork(context.Background(), "", "eth1"); err != ErrInterfaceRequired {
		t.Fatalf("expected ErrInterfaceRequired, got %v", err)
	}
}

func TestStartNetworkForbiddenWhenNotIdle(t *testing.T) {
	c := newFixture(t)
	if err := c.StartNetwork(context.Background(), "eth0", "eth1"); err != nil {
		t.Fatalf("first StartNetwork: %v", err)
	}
	defer c.Close(context.Background())

	if err := c.StartNetwork(context.Background(), "eth0", "eth1"); err != ErrNotIdle {
		t.Fatalf("expected ErrNotIdle on second start, got %v", err)
	}
}

func TestStartRestForbiddenBeforeNetworkRunning(t *testing.T) {
	c := newFixture(t)
	mux := http.NewServeMux()
	if err := c.StartRest(mux, "127.0.0.1:0"); err != ErrNotRunningNetwork {
		t.Fatalf("expected ErrNotRunningNetwork, got %v", err)
	}
}

func TestStartRestAfterNetworkReachesRunningRest(t *testing.T) {
	c := newFixture(t)
	if err := c.StartNetwork(context.Background(), "eth0", "eth1"); err != nil {
		t.Fatalf("StartNetwork: %v", err)
	}
	defer c.Close(context.Background())

	ts := httptest.NewServer(http.NewServeMux())
	ts.Close() // we only want a free port; the controller runs its own server

	if err := c.StartRest(http.NewServeMux(), "127.0.0.1:0"); err != nil {
		t.Fatalf("StartRest: %v", err)
	}

	if got := c.State(); got != RunningRest {
		t.Fatalf("expected RunningRest, got %v", got)
	}
}

func TestStopNetworkThenCloseReachesIdle(t *testing.T) {
	c := newFixture(t)
	if err := c.StartNetwork(context.Background(), "eth0", "eth1"); err != nil {
		t.Fatalf("StartNetwork: %v", err)
	}

	c.StopNetwork()

	done := make(chan struct{})
	go func() {
		c.Close(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Close did not return after StopNetwork")
	}

	if got := c.State(); got != Idle {
		t.Fatalf("expected Idle after stop+close, got %v", got)
	}
}

func TestClearAndResetDelegatesToStorage(t *testing.T) {
	c := newFixture(t)
	if err := c.StartNetwork(context.Background(), "eth0", "eth1"); err != nil {
		t.Fatalf("StartNetwork: %v", err)
	}
	defer c.Close(context.Background())

	h := c.Handle()
	g := h.Acquire()
	addr, _ := domain.ParseMAC("02:00:00:00:00:09")
	g.Aggregate().MACTable[addr] = domain.MACEntry{Timeout: domain.NewDefaultTimeout()}
	g.Release()

	c.ClearMAC()

	g = h.Acquire()
	n := len(g.Aggregate().MACTable)
	g.Release()
	if n != 0 {
		t.Fatalf("expected empty MAC table after ClearMAC, got %d entries", n)
	}

	c.SetDefaultMACTimeout(7 * time.Second)
	g = h.Acquire()
	got := g.Aggregate().Device.DefaultMACTimeout
	g.Release()
	if got != 7*time.Second {
		t.Fatalf("expected default MAC timeout updated, got %v", got)
	}
}
