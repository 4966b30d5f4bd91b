package eviction

import (
	"context"
	"testing"
	"time"

	"github.com/sasetz/psip-switch/internal/core/domain"
	"github.com/sasetz/psip-switch/internal/core/storage"
)

func TestTickerPurgesExpiredMACEntries(t *testing.T) {
	st := storage.New()
	h := storage.HandleOf(st)

	addr, _ := domain.ParseMAC("02:00:00:00:00:01")
	g := h.Acquire()
	g.Aggregate().MACTable[addr] = domain.MACEntry{Timeout: domain.NewTimeout(time.Millisecond)}
	g.Release()

	time.Sleep(2 * time.Millisecond)

	tk := New(h, nil).WithIntervals(time.Millisecond, time.Hour, time.Hour)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	tk.Run(ctx)

	g = h.Acquire()
	_, still := g.Aggregate().MACTable[addr]
	g.Release()
	if still {
		t.Fatal("expected expired MAC entry to be purged")
	}
}

func TestTickerPurgesExpiredSessions(t *testing.T) {
	st := storage.New()
	h := storage.HandleOf(st)

	g := h.Acquire()
	g.Aggregate().Sessions = append(g.Aggregate().Sessions, domain.Session{
		Token:   "expired-token",
		Timeout: domain.NewTimeout(time.Millisecond),
	})
	g.Release()

	time.Sleep(2 * time.Millisecond)

	tk := New(h, nil).WithIntervals(time.Hour, time.Hour, time.Millisecond)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	tk.Run(ctx)

	g = h.Acquire()
	n := len(g.Aggregate().Sessions)
	g.Release()
	if n != 0 {
		t.Fatalf("expected session list empty, got %d", n)
	}
}

func TestTickerStopsWhenContextCanceled(t *testing.T) {
	st := storage.New()
	h := storage.HandleOf(st)
	tk := New(h, nil).WithIntervals(time.Millisecond, time.Millisecond, time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		tk.Run(ctx)
		close(done)
	}()

	time.Sleep(5 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after context cancellation")
	}
}
