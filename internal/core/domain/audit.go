package domain

import "time"

// AuditOutcome records whether an audited action succeeded or was denied.
type AuditOutcome string

const (
	AuditSuccess AuditOutcome = "success"
	AuditDenied  AuditOutcome = "denied"
)

// AuditEntry is a durable record of a login attempt, logout, or
// administrative edit. It is persisted independently of the in-memory
// Aggregate (see internal/adapters/audit), so operational history survives a
// restart without reviving the Non-goal on MAC-table persistence.
type AuditEntry struct {
	ID        string       `json:"id"`
	Timestamp time.Time    `json:"timestamp"`
	Actor     string       `json:"actor"`
	Action    string       `json:"action"`
	Detail    string       `json:"detail"`
	Outcome   AuditOutcome `json:"outcome"`
}
