package storage

import "github.com/sasetz/psip-switch/internal/core/domain"

// PurgeExpiredMAC removes every MAC table entry whose timeout has expired.
// Called by the eviction ticker on its 200ms cadence.
func (a *Aggregate) PurgeExpiredMAC() {
	for addr, entry := range a.MACTable {
		if entry.Timeout.Expired() {
			delete(a.MACTable, addr)
		}
	}
}

// PurgeExpiredPackets removes every sent-set entry whose timeout has
// expired. Called by the eviction ticker on its 300ms cadence.
func (a *Aggregate) PurgeExpiredPackets() {
	a.SentSet.Purge()
}

// PurgeExpiredSessions removes every session whose timeout has expired.
// Called by the eviction ticker on its 1s cadence.
func (a *Aggregate) PurgeExpiredSessions() {
	survivors := a.Sessions[:0]
	for _, s := range a.Sessions {
		if !s.Timeout.Expired() {
			survivors = append(survivors, s)
		}
	}
	a.Sessions = survivors
}

// FindSession returns the session carrying the given token, if any live
// session matches.
func (a *Aggregate) FindSession(token string) (*domain.Session, bool) {
	for i := range a.Sessions {
		if a.Sessions[i].Token == token && !a.Sessions[i].Timeout.Expired() {
			return &a.Sessions[i], true
		}
	}
	return nil, false
}

// RemoveSession deletes the session carrying the given token, reporting
// whether one was found.
func (a *Aggregate) RemoveSession(token string) bool {
	for i, s := range a.Sessions {
		if s.Token == token {
			a.Sessions = append(a.Sessions[:i], a.Sessions[i+1:]...)
			return true
		}
	}
	return false
}
