package domain

import "time"

type PayoutStatus string

const (
	PayoutStatusRequested PayoutStatus = "requested"
	PayoutStatusApproved  PayoutStatus = "approved"
	PayoutStatusPaid      PayoutStatus = "paid"
	PayoutStatusRejected  PayoutStatus = "rejected"
)

// CanTransition reports whether a payout may move from s to next.
func (s PayoutStatus) CanTransition(next PayoutStatus) bool {
	switch s {
	case PayoutStatusRequested:
		return next == PayoutStatusApproved || next == PayoutStatusRejected
	case PayoutStatusApproved:
		return next == PayoutStatusPaid || next == PayoutStatusRejected
	}
	return false
}

type Payout struct {
	ID          string
	OrgID       string
	AmountCents int64
	Currency    string
	Status      PayoutStatus
	RequestedBy string
	Note        string
	CreatedAt   time.Time
	ProcessedAt *time.Time
}

// Balance summarises an organization's earnings in a single currency.
type Balance struct {
	Currency       string
	GrossCents     int64
	FeeCents       int64
	NetCents       int64
	ReservedCents  int64
	AvailableCents int64
}
