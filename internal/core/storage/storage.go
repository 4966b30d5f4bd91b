// Package storage implements the single mutex-guarded aggregate that holds
// every piece of mutable state the bridge touches: the MAC table, the
// sent-packet set, the statistics table, the interface records and the
// session list. Every component that needs to read or write this state goes
// through a scoped Grant obtained from a Handle, mirroring the
// shared_storage/shared_storage_handle split in the original C++ source.
package storage

import (
	"sync"

	"github.com/sasetz/psip-switch/internal/core/domain"
	"github.com/sasetz/psip-switch/internal/core/sentset"
)

// Aggregate is the full set of mutable state guarded by Storage's mutex.
// Nothing outside this package reaches into it except through a Grant.
type Aggregate struct {
	MACTable   map[domain.MAC]domain.MACEntry
	SentSet    *sentset.Set
	Stats      map[domain.StatKey]domain.StatValue
	Interfaces map[domain.InterfaceID]*domain.InterfaceRecord
	Sessions   []domain.Session
	Device     domain.DeviceInfo

	// RestControl tracks the HTTP server's own running/finished pair, so the
	// lifecycle controller can derive RunningRest state the same way it
	// derives interface state.
	RestControl domain.Control
}

func newAggregate() *Aggregate {
	return &Aggregate{
		MACTable:   make(map[domain.MAC]domain.MACEntry),
		SentSet:    sentset.NewSet(),
		Stats:      make(map[domain.StatKey]domain.StatValue),
		Interfaces: make(map[domain.InterfaceID]*domain.InterfaceRecord),
		Device:     domain.NewDeviceInfo(),
	}
}

// Storage owns the aggregate and the mutex that guards it. It is created
// once by the lifecycle controller and never copied; components instead
// receive a Handle.
type Storage struct {
	mu  sync.Mutex
	agg *Aggregate
}

// New creates an empty, freshly defaulted Storage.
func New() *Storage {
	return &Storage{agg: newAggregate()}
}

// Handle is a copyable, non-owning reference to a Storage. Every component
// that needs access to shared state holds one of these, never the Storage
// itself, resolving the cyclic-ownership problem between the lifecycle
// controller (which owns the Storage) and the capture loops/HTTP server
// (which only need to reach it).
type Handle struct {
	s *Storage
}

// HandleOf returns a Handle referencing the given Storage.
func HandleOf(s *Storage) Handle {
	return Handle{s: s}
}

// Acquire blocks until the storage mutex is free, then returns a Grant
// proving exclusive access. Callers must call Release exactly once, typically
// via defer immediately after Acquire — Go has no scope-exit destructors, so
// this discipline stands in for the C++ RAII grant.
func (h Handle) Acquire() *Grant {
	h.s.mu.Lock()
	return &Grant{s: h.s}
}

// Grant is the scoped proof that the storage mutex is held. While alive it
// exposes direct access to the Aggregate; Release drops the lock.
type Grant struct {
	s        *Storage
	released bool
}

// Aggregate exposes the guarded state for reading and writing. Only valid
// until Release is called.
func (g *Grant) Aggregate() *Aggregate {
	return g.s.agg
}

// Release unlocks the storage mutex. Safe to call at most once; a second call
// panics, since a double-release would unlock a mutex this grant no longer
// owns.
func (g *Grant) Release() {
	if g.released {
		panic("storage: grant released twice")
	}
	g.released = true
	g.s.mu.Unlock()
}
