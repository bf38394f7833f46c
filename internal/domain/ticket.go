package domain

import "time"

type TicketStatus string

const (
	TicketStatusValid     TicketStatus = "valid"
	TicketStatusCheckedIn TicketStatus = "checked_in"
	TicketStatusVoid      TicketStatus = "void"
)

type Ticket struct {
	ID          string
	OrderID     string
	EventID     string
	ZoneID      string
	SeatID      string
	OwnerID     string
	Barcode     string
	Status      TicketStatus
	CheckedInAt *time.Time
	CreatedAt   time.Time
}

type CheckInResult string

const (
	CheckInAccepted   CheckInResult = "accepted"
	CheckInDuplicate  CheckInResult = "duplicate"
	CheckInInvalid    CheckInResult = "invalid"
	CheckInWrongEvent CheckInResult = "wrong_event"
	CheckInVoid       CheckInResult = "void"
)

// CheckIn records a single barcode scan at the door, successful or not.
type CheckIn struct {
	ID        string
	EventID   string
	TicketID  string
	Code      string
	ScannedBy string
	Result    CheckInResult
	CreatedAt time.Time
}
