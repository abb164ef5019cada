package domain

import "time"

// AuditLog is one recorded dashboard change.
type AuditLog struct {
	ID    string
	OrgID string
	// Actor identifies the operator: a flow session id or an email fingerprint, never a raw address.
	Actor     string
	Action    string
	Resource  string
	IP        string
	Metadata  string
	CreatedAt time.Time
}
