// Command bridge runs the learning-switch data plane and its management
// surface as a single process: two capture loops bound to the configured
// interfaces, the eviction ticker that ages out stale state, and the HTTP
// management API, wired together with structured logging, a signal-driven
// root context, and graceful shutdown.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sasetz/psip-switch/internal/adapters/audit"
	"github.com/sasetz/psip-switch/internal/adapters/pcapio"
	"github.com/sasetz/psip-switch/internal/adapters/report"
	"github.com/sasetz/psip-switch/internal/adapters/web"
	"github.com/sasetz/psip-switch/internal/config"
	"github.com/sasetz/psip-switch/internal/core/auth"
	"github.com/sasetz/psip-switch/internal/core/eviction"
	"github.com/sasetz/psip-switch/internal/core/lifecycle"
	"github.com/sasetz/psip-switch/internal/telemetry"
)

const metricsSyncInterval = 2 * time.Second

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	slog.Info("bridge starting")

	cfg := config.Load()

	shutdownTracer, err := telemetry.InitTracer("psip-switch", "dev")
	if err != nil {
		slog.Error("tracer init failed", "error", err)
		os.Exit(1)
	}
	defer shutdownTracer(context.Background())
	telemetry.Register()

	auditLog, err := audit.Open(cfg.AuditDBPath, logger)
	if err != nil {
		slog.Error("audit log init failed", "error", err)
		os.Exit(1)
	}
	defer auditLog.Close()

	authn, err := auth.New(cfg.Username, cfg.Password)
	if err != nil {
		slog.Error("authenticator init failed", "error", err)
		os.Exit(1)
	}

	capture := pcapio.NewCapture(logger)
	registry := pcapio.NewRegistry(capture)
	injector := telemetry.Instrument(registry)

	lc := lifecycle.New(capture, injector, logger)

	if err := lc.StartNetwork(ctx, cfg.Iface1, cfg.Iface2); err != nil {
		slog.Error("failed to start data plane", "iface1", cfg.Iface1, "iface2", cfg.Iface2, "error", err)
		os.Exit(1)
	}
	slog.Info("data plane started", "iface1", cfg.Iface1, "iface2", cfg.Iface2)

	evictionTicker := eviction.New(lc.Handle(), logger)
	go evictionTicker.Run(ctx)

	go syncMetricsLoop(ctx, lc)

	exporter := report.NewExporter()
	server := web.NewServer(lc, authn, auditLog, exporter, logger)

	if err := lc.StartRest(server.Handler(), cfg.Addr); err != nil {
		slog.Error("failed to start management surface", "error", err)
		os.Exit(1)
	}
	slog.Info("management surface started", "addr", cfg.Addr)

	<-ctx.Done()
	slog.Info("shutdown signal received")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := lc.Close(shutdownCtx); err != nil {
		slog.Error("error during shutdown", "error", err)
	}
	slog.Info("bridge stopped")
}

// syncMetricsLoop periodically mirrors a storage snapshot into the
// Prometheus gauges /metrics serves, since the capture loop itself takes no
// telemetry dependency (see internal/telemetry's InstrumentedInjector note).
func syncMetricsLoop(ctx context.Context, lc *lifecycle.Controller) {
	ticker := time.NewTicker(metricsSyncInterval)
	defer ticker.Stop()
	h := lc.Handle()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			g := h.Acquire()
			snap := g.Aggregate().Snapshot()
			g.Release()
			telemetry.Sync(snap)
		}
	}
}
