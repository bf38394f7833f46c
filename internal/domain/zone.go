package domain

// Zone represents a sellable, priced area for an event. Seated zones sell
// individual seats from the seatmap; general admission zones sell quantities.
type Zone struct {
	ID         string
	EventID    string
	Name       string
	Capacity   int
	PriceCents int64
	Seated     bool
	Available  int
}
