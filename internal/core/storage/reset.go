package storage

import (
	"time"

	"github.com/sasetz/psip-switch/internal/core/domain"
)

// Reset clears the MAC table, statistics, sessions and sent-packet set, and
// restores device info to its factory defaults. It does not touch the
// interface records or rest control pair — those are lifecycle-owned.
func (a *Aggregate) Reset() {
	a.MACTable = make(map[domain.MAC]domain.MACEntry)
	a.SentSet.Clear()
	a.Stats = make(map[domain.StatKey]domain.StatValue)
	a.Sessions = nil
	a.Device = domain.NewDeviceInfo()
}

// ClearMAC empties the MAC table.
func (a *Aggregate) ClearMAC() {
	a.MACTable = make(map[domain.MAC]domain.MACEntry)
}

// ClearStats empties the statistics table. If iface is non-nil, only entries
// for that interface are removed.
func (a *Aggregate) ClearStats(iface *domain.InterfaceID) {
	if iface == nil {
		a.Stats = make(map[domain.StatKey]domain.StatValue)
		return
	}
	for k := range a.Stats {
		if k.Interface == *iface {
			delete(a.Stats, k)
		}
	}
}

// ClearSessions empties the session list.
func (a *Aggregate) ClearSessions() {
	a.Sessions = nil
}

// ResetMACTimeouts restarts every MAC entry's timeout from now, keeping each
// entry's configured duration.
func (a *Aggregate) ResetMACTimeouts() {
	for addr, entry := range a.MACTable {
		entry.Timeout.Reset()
		a.MACTable[addr] = entry
	}
}

// SetDefaultMACTimeout applies a new default MAC timeout duration for future
// insertions; it does not retroactively change entries already in the table.
func (a *Aggregate) SetDefaultMACTimeout(d time.Duration) {
	a.Device.DefaultMACTimeout = d
}
