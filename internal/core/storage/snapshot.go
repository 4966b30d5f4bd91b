package storage

import "github.com/sasetz/psip-switch/internal/core/domain"

// Snapshot is a read-only, point-in-time copy of the aggregate, safe to
// serialize or render without holding the storage mutex. Used by the live
// status stream and the PDF report, neither of which may hold a Grant across
// their own I/O.
type Snapshot struct {
	Device     domain.DeviceInfo
	Interfaces []domain.InterfaceRecord
	MACTable   map[domain.MAC]domain.MACEntry
	Stats      map[domain.StatKey]domain.StatValue
	Sessions   int
	SentSet    int
}

// Snapshot copies out the current aggregate state under the caller's own
// grant; the caller is expected to have acquired and will release the grant
// around this call.
func (a *Aggregate) Snapshot() Snapshot {
	ifaces := make([]domain.InterfaceRecord, 0, len(a.Interfaces))
	for _, rec := range a.Interfaces {
		ifaces = append(ifaces, *rec)
	}
	macTable := make(map[domain.MAC]domain.MACEntry, len(a.MACTable))
	for k, v := range a.MACTable {
		macTable[k] = v
	}
	stats := make(map[domain.StatKey]domain.StatValue, len(a.Stats))
	for k, v := range a.Stats {
		stats[k] = v
	}
	return Snapshot{
		Device:     a.Device,
		Interfaces: ifaces,
		MACTable:   macTable,
		Stats:      stats,
		Sessions:   len(a.Sessions),
		SentSet:    a.SentSet.Len(),
	}
}
