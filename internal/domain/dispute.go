package domain

import "time"

type DisputeStatus string

const (
	DisputeStatusOpen     DisputeStatus = "open"
	DisputeStatusRefunded DisputeStatus = "refunded"
	DisputeStatusRejected DisputeStatus = "rejected"
)

type DisputeOutcome string

const (
	DisputeOutcomeRefund DisputeOutcome = "refund"
	DisputeOutcomeReject DisputeOutcome = "reject"
)

type Dispute struct {
	ID         string
	OrderID    string
	OrgID      string
	OpenedBy   string
	Reason     string
	Status     DisputeStatus
	Resolution string
	CreatedAt  time.Time
	ResolvedAt *time.Time
}
