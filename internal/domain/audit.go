package domain

import "time"

// AuditEntry records a mutating action taken inside an organization.
type AuditEntry struct {
	ID         string
	OrgID      string
	ActorID    string
	Action     string
	Resource   string
	ResourceID string
	Metadata   map[string]any
	CreatedAt  time.Time
}

type AuditFilter struct {
	Action   string
	ActorID  string
	Resource string
	Since    *time.Time
	Until    *time.Time
}
