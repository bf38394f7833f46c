package domain

import "time"

type HoldStatus string

const (
	HoldStatusActive    HoldStatus = "active"
	HoldStatusConfirmed HoldStatus = "confirmed"
	HoldStatusExpired   HoldStatus = "expired"
)

// Hold represents reserved inventory for a limited time.
type Hold struct {
	ID             string
	EventID        string
	ZoneID         string
	UserID         string
	Quantity       int
	SeatIDs        []string
	Status         HoldStatus
	ExpiresAt      time.Time
	IdempotencyKey string
	CreatedAt      time.Time
}

// ActiveAt reports whether the hold still reserves inventory at now.
func (h Hold) ActiveAt(now time.Time) bool {
	return h.Status == HoldStatusActive && h.ExpiresAt.After(now)
}
