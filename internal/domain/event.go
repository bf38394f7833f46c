package domain

import "time"

type EventStatus string

const (
	EventStatusDraft     EventStatus = "draft"
	EventStatusPublished EventStatus = "published"
	EventStatusCancelled EventStatus = "cancelled"
)

// Event represents a ticketed event owned by an organization.
type Event struct {
	ID          string
	OrgID       string
	Name        string
	Description string
	Venue       string
	StartsAt    time.Time
	EndsAt      *time.Time
	Currency    string
	Status      EventStatus
	PublishedAt *time.Time
	CreatedAt   time.Time
}

// OnSale reports whether holds may be placed against the event.
func (e Event) OnSale() bool {
	return e.Status == EventStatusPublished
}
