package telemetry

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/sasetz/psip-switch/internal/core/domain"
	"github.com/sasetz/psip-switch/internal/core/storage"
)

func TestSyncMirrorsSnapshotIntoGauges(t *testing.T) {
	Register()

	iface := domain.InterfaceID{OSName: "eth0"}
	snap := storage.Snapshot{
		Stats: map[domain.StatKey]domain.StatValue{
			{Protocol: domain.ProtocolARP, Interface: iface}: {InputCount: 3, OutputCount: 1},
		},
		MACTable: map[domain.MAC]domain.MACEntry{
			{0x02}: {},
		},
		Sessions: 2,
		SentSet:  5,
	}

	Sync(snap)

	if got := testutil.ToFloat64(StatInput.WithLabelValues("ARP", "eth0")); got != 3 {
		t.Fatalf("expected input gauge 3, got %v", got)
	}
	if got := testutil.ToFloat64(StatOutput.WithLabelValues("ARP", "eth0")); got != 1 {
		t.Fatalf("expected output gauge 1, got %v", got)
	}
	if got := testutil.ToFloat64(MACTableSize); got != 1 {
		t.Fatalf("expected mac table gauge 1, got %v", got)
	}
	if got := testutil.ToFloat64(SessionCount); got != 2 {
		t.Fatalf("expected session gauge 2, got %v", got)
	}
	if got := testutil.ToFloat64(SentSetSize); got != 5 {
		t.Fatalf("expected sent-set gauge 5, got %v", got)
	}
}

type failingInjector struct{}

func (failingInjector) Send(osName string, frame []byte) error { return errors.New("boom") }

func TestInstrumentedInjectorRecordsFailure(t *testing.T) {
	Register()
	before := testutil.ToFloat64(InjectionErrors.WithLabelValues("eth9"))

	inj := Instrument(failingInjector{})
	if err := inj.Send("eth9", []byte("frame")); err == nil {
		t.Fatal("expected wrapped error to propagate")
	}

	after := testutil.ToFloat64(InjectionErrors.WithLabelValues("eth9"))
	if after != before+1 {
		t.Fatalf("expected injection error counter to increment, before=%v after=%v", before, after)
	}
}
