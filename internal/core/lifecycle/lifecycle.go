// Package lifecycle is the bridge's top-level orchestrator: it owns the
// shared storage aggregate and the two capture-loop goroutines bound to it,
// plus the optional HTTP server goroutine, and derives a single State value
// from their Control flags the same way the management surface reports it.
// It binds exactly two interfaces, since a learning bridge only makes sense
// between a pair of segments, and is also responsible for starting and
// stopping the REST server alongside the data plane.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/sasetz/psip-switch/internal/core/captureloop"
	"github.com/sasetz/psip-switch/internal/core/domain"
	"github.com/sasetz/psip-switch/internal/core/storage"
	"github.com/sasetz/psip-switch/internal/ports"
)

// State is the lifecycle controller's view of the bridge, derived entirely
// from the interface records and rest-control pair in shared storage.
type State int

const (
	Idle State = iota
	RunningNetwork
	RunningRest
	Stopping
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case RunningNetwork:
		return "running_network"
	case RunningRest:
		return "running_rest"
	case Stopping:
		return "stopping"
	default:
		return "unknown"
	}
}

var (
	// ErrNotIdle is returned by StartNetwork when the bridge is not Idle.
	ErrNotIdle = errors.New("lifecycle: network already started")
	// ErrNotRunningNetwork is returned by StartRest before the data plane is up.
	ErrNotRunningNetwork = errors.New("lifecycle: REST requires a running network")
	// ErrSameInterface rejects binding one interface to itself.
	ErrSameInterface = errors.New("lifecycle: cannot bridge an interface to itself")
	// ErrInterfaceRequired rejects an empty interface selection.
	ErrInterfaceRequired = errors.New("lifecycle: both interfaces must be selected")
)

// Controller is the only component that owns capture-loop goroutines. It is
// created once per process; StartNetwork/StartRest/StopNetwork/StopRest are
// safe to call concurrently with state reads but StartNetwork itself is
// serialized against other lifecycle transitions via mu.
type Controller struct {
	handle   storage.Handle
	capture  ports.Capture
	injector ports.Injector
	log      *slog.Logger

	// resolveMAC resolves an OS interface name to its hardware address; it is
	// net.InterfaceByName by default and overridable in tests, since test
	// environments rarely have two real NICs with predictable addresses.
	resolveMAC func(osName string) (domain.MAC, error)

	mu         sync.Mutex
	wg         sync.WaitGroup
	cancelNet  context.CancelFunc
	httpServer *http.Server
}

// New builds a Controller with its own freshly defaulted storage aggregate.
func New(capture ports.Capture, injector ports.Injector, log *slog.Logger) *Controller {
	if log == nil {
		log = slog.Default()
	}
	st := storage.New()
	return &Controller{
		handle:     storage.HandleOf(st),
		capture:    capture,
		injector:   injector,
		log:        log,
		resolveMAC: interfaceMAC,
	}
}

// WithMACResolver overrides how StartNetwork resolves an OS interface name
// to its hardware address, returning c for chaining. Exported so packages
// outside lifecycle (the management surface's own tests, chiefly) can stand
// up a Controller against fake interface names without a real NIC, the same
// way this package's own tests override resolveMAC directly.
func (c *Controller) WithMACResolver(fn func(osName string) (domain.MAC, error)) *Controller {
	c.resolveMAC = fn
	return c
}

// Handle returns the storage.Handle this controller's aggregate is reached
// through, for the eviction ticker, the auth package and the management
// surface to share.
func (c *Controller) Handle() storage.Handle {
	return c.handle
}

// State derives and returns the current lifecycle state.
func (c *Controller) State() State {
	g := c.handle.Acquire()
	defer g.Release()
	return deriveState(g.Aggregate())
}

func deriveState(agg *storage.Aggregate) State {
	if len(agg.Interfaces) == 0 {
		return Idle
	}

	allIdle := true
	anyStopping := false
	anyRunning := false
	for _, rec := range agg.Interfaces {
		if !(rec.Control.Finished && !rec.Control.Running) {
			allIdle = false
		}
		if !rec.Control.Running && !rec.Control.Finished {
			anyStopping = true
		}
		if rec.Control.Running && !rec.Control.Finished {
			anyRunning = true
		}
	}
	if allIdle {
		return Idle
	}
	// A stop-in-flight takes precedence over a peer interface that has not
	// yet observed the signal: once StopNetwork has run, the bridge is
	// Stopping even if one capture loop hasn't returned from its poll yet.
	if anyStopping {
		return Stopping
	}
	if anyRunning {
		if agg.RestControl.Running && !agg.RestControl.Finished {
			return RunningRest
		}
		return RunningNetwork
	}
	return Idle
}

// StartNetwork is forbidden unless the controller is Idle. It resets shared
// storage, registers both interfaces, and starts one capture-loop goroutine
// per interface.
func (c *Controller) StartNetwork(ctx context.Context, osName1, osName2 string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if osName1 == "" || osName2 == "" {
		return ErrInterfaceRequired
	}
	if osName1 == osName2 {
		return ErrSameInterface
	}
	if deriveState(c.snapshot()) != Idle {
		return ErrNotIdle
	}

	mac1, err := c.resolveMAC(osName1)
	if err != nil {
		return fmt.Errorf("lifecycle: %s: %w", osName1, err)
	}
	mac2, err := c.resolveMAC(osName2)
	if err != nil {
		return fmt.Errorf("lifecycle: %s: %w", osName2, err)
	}

	id1 := domain.InterfaceID{OSName: osName1, Address: mac1}
	id2 := domain.InterfaceID{OSName: osName2, Address: mac2}

	g := c.handle.Acquire()
	agg := g.Aggregate()
	agg.Reset()
	agg.Interfaces = map[domain.InterfaceID]*domain.InterfaceRecord{
		id1: {ID: id1, Name: osName1, Up: true, Control: domain.Control{Running: true}},
		id2: {ID: id2, Name: osName2, Up: true, Control: domain.Control{Running: true}},
	}
	g.Release()

	netCtx, cancel := context.WithCancel(ctx)
	c.cancelNet = cancel

	loop1 := captureloop.New(id1, c.capture, c.injector, c.handle, c.log)
	loop2 := captureloop.New(id2, c.capture, c.injector, c.handle, c.log)

	c.wg.Add(2)
	go func() { defer c.wg.Done(); loop1.Run(netCtx) }()
	go func() { defer c.wg.Done(); loop2.Run(netCtx) }()

	return nil
}

// snapshot reads the Aggregate pointer under a grant long enough to hand it
// to deriveState; deriveState itself performs no I/O and returns promptly,
// so this does not violate the no-grant-across-blocking-call discipline.
func (c *Controller) snapshot() *storage.Aggregate {
	g := c.handle.Acquire()
	defer g.Release()
	return g.Aggregate()
}

// StopNetwork sets both interfaces' Running flag false under a grant. It
// does not join the capture-loop goroutines; call Close for that.
func (c *Controller) StopNetwork() {
	g := c.handle.Acquire()
	for _, rec := range g.Aggregate().Interfaces {
		rec.Control.Running = false
	}
	g.Release()

	if c.cancelNet != nil {
		c.cancelNet()
	}
}

// StartRest is forbidden unless the controller is RunningNetwork. It starts
// an HTTP server goroutine bound to addr and serving router.
func (c *Controller) StartRest(router http.Handler, addr string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if deriveState(c.snapshot()) != RunningNetwork {
		return ErrNotRunningNetwork
	}

	g := c.handle.Acquire()
	g.Aggregate().RestControl = domain.Control{Running: true}
	g.Release()

	c.httpServer = &http.Server{Addr: addr, Handler: router}
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		err := c.httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			c.log.Error("rest server exited", "error", err)
		}
		g := c.handle.Acquire()
		g.Aggregate().RestControl.Finished = true
		g.Release()
	}()
	return nil
}

// StopRest sets the REST control's Running flag false and shuts down the
// HTTP server.
func (c *Controller) StopRest(ctx context.Context) error {
	g := c.handle.Acquire()
	g.Aggregate().RestControl.Running = false
	g.Release()

	if c.httpServer == nil {
		return nil
	}
	return c.httpServer.Shutdown(ctx)
}

// Close stops both the network and REST surfaces, if running, and joins
// every goroutine the controller started.
func (c *Controller) Close(ctx context.Context) error {
	c.StopNetwork()
	err := c.StopRest(ctx)
	c.wg.Wait()
	return err
}

// ClearMAC empties the MAC table under a grant.
func (c *Controller) ClearMAC() {
	g := c.handle.Acquire()
	defer g.Release()
	g.Aggregate().ClearMAC()
}

// ClearStats empties the statistics table, optionally filtered to one interface.
func (c *Controller) ClearStats(iface *domain.InterfaceID) {
	g := c.handle.Acquire()
	defer g.Release()
	g.Aggregate().ClearStats(iface)
}

// ClearSessions empties the session list under a grant.
func (c *Controller) ClearSessions() {
	g := c.handle.Acquire()
	defer g.Release()
	g.Aggregate().ClearSessions()
}

// ResetMACTimeouts restarts every MAC entry's timeout from now.
func (c *Controller) ResetMACTimeouts() {
	g := c.handle.Acquire()
	defer g.Release()
	g.Aggregate().ResetMACTimeouts()
}

// SetDefaultMACTimeout applies a new default MAC timeout for future entries.
func (c *Controller) SetDefaultMACTimeout(d time.Duration) {
	g := c.handle.Acquire()
	defer g.Release()
	g.Aggregate().SetDefaultMACTimeout(d)
}

// interfaceMAC resolves osName's hardware address via the operating system.
func interfaceMAC(osName string) (domain.MAC, error) {
	iface, err := net.InterfaceByName(osName)
	if err != nil {
		return domain.MAC{}, fmt.Errorf("unknown interface: %w", err)
	}
	if len(iface.HardwareAddr) != domain.MACLen {
		return domain.MAC{}, fmt.Errorf("interface %q has no Ethernet hardware address", osName)
	}
	var mac domain.MAC
	copy(mac[:], iface.HardwareAddr)
	return mac, nil
}
