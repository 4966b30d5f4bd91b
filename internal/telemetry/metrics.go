package telemetry

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/sasetz/psip-switch/internal/core/storage"
)

var (
	// StatInput mirrors the statistics table's per-protocol input count. A
	// GaugeVec, not a CounterVec, because /stats and ClearStats can reset the
	// underlying table to zero — a real Prometheus counter must never go
	// backwards, so a gauge is the honest mirror of state that the bridge
	// itself treats as resettable.
	StatInput = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "bridge",
			Name:      "stat_input_packets",
			Help:      "Input packet count per protocol and interface, mirroring the in-memory statistics table",
		},
		[]string{"protocol", "interface"},
	)

	// StatOutput mirrors the statistics table's per-protocol output count.
	StatOutput = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "bridge",
			Name:      "stat_output_packets",
			Help:      "Output packet count per protocol and interface, mirroring the in-memory statistics table",
		},
		[]string{"protocol", "interface"},
	)

	// MACTableSize reports the current number of learned MAC addresses.
	MACTableSize = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "bridge",
		Name:      "mac_table_entries",
		Help:      "Number of entries currently held in the MAC table",
	})

	// SentSetSize reports the current number of remembered sent packets,
	// used for loop prevention.
	SentSetSize = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "bridge",
		Name:      "sent_set_entries",
		Help:      "Number of packets currently remembered in the sent-packet set",
	})

	// SessionCount reports the current number of live bearer sessions.
	SessionCount = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "bridge",
		Name:      "session_count",
		Help:      "Number of currently live authenticated sessions",
	})

	// InjectionErrors is a true monotonic counter: a failed injection attempt
	// never un-happens, so unlike the table mirrors above it only ever
	// increments.
	InjectionErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bridge",
			Name:      "injection_errors_total",
			Help:      "Total number of failed packet injection attempts",
		},
		[]string{"interface"},
	)

	registerOnce sync.Once
)

// Register registers every collector with the default Prometheus registry.
// Idempotent, safe to call more than once during tests.
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(StatInput, StatOutput, MACTableSize, SentSetSize, SessionCount, InjectionErrors)
	})
}

// Sync overwrites the gauge mirrors from a fresh storage.Snapshot. It is
// intended to be called on a short ticker from the management surface, the
// same way the live status stream and the PDF report consume a snapshot
// without holding a storage grant across their own I/O.
func Sync(snap storage.Snapshot) {
	StatInput.Reset()
	StatOutput.Reset()
	for key, v := range snap.Stats {
		protocol := string(key.Protocol)
		iface := key.Interface.OSName
		StatInput.WithLabelValues(protocol, iface).Set(float64(v.InputCount))
		StatOutput.WithLabelValues(protocol, iface).Set(float64(v.OutputCount))
	}
	MACTableSize.Set(float64(len(snap.MACTable)))
	SentSetSize.Set(float64(snap.SentSet))
	SessionCount.Set(float64(snap.Sessions))
}

// RecordInjectionError bumps the injection-error counter for an interface.
func RecordInjectionError(osName string) {
	InjectionErrors.WithLabelValues(osName).Inc()
}
