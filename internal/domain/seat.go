package domain

type SeatStatus string

const (
	SeatStatusFree SeatStatus = "free"
	SeatStatusHeld SeatStatus = "held"
	SeatStatusSold SeatStatus = "sold"
)

type Seat struct {
	ID      string
	EventID string
	ZoneID  string
	Section string
	Row     string
	Number  int
	Label   string
	Status  SeatStatus
}

// SeatmapLayout describes the sections of an event's seatmap. Each section
// generates Rows x Seats seats in the referenced seated zone.
type SeatmapLayout struct {
	Sections []SeatmapSection `json:"sections" yaml:"sections"`
}

type SeatmapSection struct {
	ZoneID string       `json:"zone_id" yaml:"zone_id"`
	Name   string       `json:"name" yaml:"name"`
	Rows   []SeatmapRow `json:"rows" yaml:"rows"`
}

type SeatmapRow struct {
	Label string `json:"label" yaml:"label"`
	Seats int    `json:"seats" yaml:"seats"`
}
