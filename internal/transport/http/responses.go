package http

import (
	"time"

	"github.com/obichijioke/eventapp/internal/domain"
	"github.com/obichijioke/eventapp/internal/pagination"
)

type pageResponse[T any] struct {
	Items      []T `json:"items"`
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

func newPageResponse[S, T any](in pagination.Page[S], fn func(S) T) pageResponse[T] {
	p := pagination.Map(in, fn)
	return pageResponse[T]{
		Items:      p.Items,
		Page:       p.Page,
		Limit:      p.Limit,
		Total:      p.Total,
		TotalPages: p.TotalPages,
	}
}

func mapSlice[S, T any](in []S, fn func(S) T) []T {
	out := make([]T, 0, len(in))
	for _, it := range in {
		out = append(out, fn(it))
	}
	return out
}

type userResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	IsAdmin   bool      `json:"is_admin"`
	CreatedAt time.Time `json:"created_at"`
}

func toUserResponse(u domain.User) userResponse {
	return userResponse{ID: u.ID, Email: u.Email, Name: u.Name, IsAdmin: u.IsAdmin, CreatedAt: u.CreatedAt}
}

type organizationResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	CreatedAt time.Time `json:"created_at"`
}

func toOrganizationResponse(o domain.Organization) organizationResponse {
	return organizationResponse{ID: o.ID, Name: o.Name, Slug: o.Slug, CreatedAt: o.CreatedAt}
}

type membershipResponse struct {
	OrgID     string    `json:"org_id"`
	UserID    string    `json:"user_id"`
	Role      string    `json:"role"`
	Email     string    `json:"email,omitempty"`
	Name      string    `json:"name,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func toMembershipResponse(m domain.Membership) membershipResponse {
	return membershipResponse{
		OrgID: m.OrgID, UserID: m.UserID, Role: string(m.Role),
		Email: m.Email, Name: m.Name, CreatedAt: m.CreatedAt,
	}
}

type eventResponse struct {
	ID          string     `json:"id"`
	OrgID       string     `json:"org_id"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	Venue       string     `json:"venue,omitempty"`
	StartsAt    time.Time  `json:"starts_at"`
	EndsAt      *time.Time `json:"ends_at,omitempty"`
	Currency    string     `json:"currency"`
	Status      string     `json:"status"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

func toEventResponse(e domain.Event) eventResponse {
	return eventResponse{
		ID: e.ID, OrgID: e.OrgID, Name: e.Name, Description: e.Description, Venue: e.Venue,
		StartsAt: e.StartsAt, EndsAt: e.EndsAt, Currency: e.Currency, Status: string(e.Status),
		PublishedAt: e.PublishedAt, CreatedAt: e.CreatedAt,
	}
}

type zoneResponse struct {
	ID         string `json:"id"`
	EventID    string `json:"event_id"`
	Name       string `json:"name"`
	Capacity   int    `json:"capacity"`
	PriceCents int64  `json:"price_cents"`
	Seated     bool   `json:"seated"`
	Available  int    `json:"available"`
}

func toZoneResponse(z domain.Zone) zoneResponse {
	return zoneResponse{
		ID: z.ID, EventID: z.EventID, Name: z.Name, Capacity: z.Capacity,
		PriceCents: z.PriceCents, Seated: z.Seated, Available: z.Available,
	}
}

type seatResponse struct {
	ID      string `json:"id"`
	ZoneID  string `json:"zone_id"`
	Section string `json:"section"`
	Row     string `json:"row"`
	Number  int    `json:"number"`
	Label   string `json:"label"`
	Status  string `json:"status"`
}

func toSeatResponse(s domain.Seat) seatResponse {
	return seatResponse{
		ID: s.ID, ZoneID: s.ZoneID, Section: s.Section, Row: s.Row,
		Number: s.Number, Label: s.Label, Status: string(s.Status),
	}
}

type holdResponse struct {
	ID        string    `json:"id"`
	EventID   string    `json:"event_id"`
	ZoneID    string    `json:"zone_id"`
	Quantity  int       `json:"quantity"`
	SeatIDs   []string  `json:"seat_ids,omitempty"`
	Status    string    `json:"status"`
	ExpiresAt time.Time `json:"expires_at"`
}

func toHoldResponse(h domain.Hold) holdResponse {
	return holdResponse{
		ID: h.ID, EventID: h.EventID, ZoneID: h.ZoneID, Quantity: h.Quantity,
		SeatIDs: h.SeatIDs, Status: string(h.Status), ExpiresAt: h.ExpiresAt,
	}
}

type orderResponse struct {
	ID          string     `json:"id"`
	HoldID      string     `json:"hold_id"`
	EventID     string     `json:"event_id"`
	Quantity    int        `json:"quantity"`
	AmountCents int64      `json:"amount_cents"`
	Currency    string     `json:"currency"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	PaidAt      *time.Time `json:"paid_at,omitempty"`
}

func toOrderResponse(o domain.Order) orderResponse {
	return orderResponse{
		ID: o.ID, HoldID: o.HoldID, EventID: o.EventID, Quantity: o.Quantity,
		AmountCents: o.AmountCents, Currency: o.Currency, Status: string(o.Status),
		CreatedAt: o.CreatedAt, PaidAt: o.PaidAt,
	}
}

type paymentResponse struct {
	ID          string    `json:"id"`
	OrderID     string    `json:"order_id"`
	ProviderRef string    `json:"provider_ref"`
	AmountCents int64     `json:"amount_cents"`
	Currency    string    `json:"currency"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

func toPaymentResponse(p domain.Payment) paymentResponse {
	return paymentResponse{
		ID: p.ID, OrderID: p.OrderID, ProviderRef: p.ProviderRef, AmountCents: p.AmountCents,
		Currency: p.Currency, Status: string(p.Status), CreatedAt: p.CreatedAt,
	}
}

type ticketResponse struct {
	ID          string     `json:"id"`
	OrderID     string     `json:"order_id"`
	EventID     string     `json:"event_id"`
	ZoneID      string     `json:"zone_id"`
	SeatID      string     `json:"seat_id,omitempty"`
	Barcode     string     `json:"barcode"`
	Status      string     `json:"status"`
	CheckedInAt *time.Time `json:"checked_in_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

func toTicketResponse(t domain.Ticket) ticketResponse {
	return ticketResponse{
		ID: t.ID, OrderID: t.OrderID, EventID: t.EventID, ZoneID: t.ZoneID, SeatID: t.SeatID,
		Barcode: t.Barcode, Status: string(t.Status), CheckedInAt: t.CheckedInAt, CreatedAt: t.CreatedAt,
	}
}

type checkInResponse struct {
	ID        string    `json:"id"`
	TicketID  string    `json:"ticket_id,omitempty"`
	Code      string    `json:"code"`
	ScannedBy string    `json:"scanned_by"`
	Result    string    `json:"result"`
	CreatedAt time.Time `json:"created_at"`
}

func toCheckInResponse(c domain.CheckIn) checkInResponse {
	return checkInResponse{
		ID: c.ID, TicketID: c.TicketID, Code: c.Code, ScannedBy: c.ScannedBy,
		Result: string(c.Result), CreatedAt: c.CreatedAt,
	}
}

type balanceResponse struct {
	Currency       string `json:"currency"`
	GrossCents     int64  `json:"gross_cents"`
	FeeCents       int64  `json:"fee_cents"`
	NetCents       int64  `json:"net_cents"`
	ReservedCents  int64  `json:"reserved_cents"`
	AvailableCents int64  `json:"available_cents"`
	Available      string `json:"available"`
}

type payoutResponse struct {
	ID          string     `json:"id"`
	OrgID       string     `json:"org_id"`
	AmountCents int64      `json:"amount_cents"`
	Currency    string     `json:"currency"`
	Status      string     `json:"status"`
	RequestedBy string     `json:"requested_by"`
	Note        string     `json:"note,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	ProcessedAt *time.Time `json:"processed_at,omitempty"`
}

func toPayoutResponse(p domain.Payout) payoutResponse {
	return payoutResponse{
		ID: p.ID, OrgID: p.OrgID, AmountCents: p.AmountCents, Currency: p.Currency,
		Status: string(p.Status), RequestedBy: p.RequestedBy, Note: p.Note,
		CreatedAt: p.CreatedAt, ProcessedAt: p.ProcessedAt,
	}
}

type disputeResponse struct {
	ID         string     `json:"id"`
	OrderID    string     `json:"order_id"`
	OrgID      string     `json:"org_id"`
	OpenedBy   string     `json:"opened_by"`
	Reason     string     `json:"reason"`
	Status     string     `json:"status"`
	Resolution string     `json:"resolution,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	ResolvedAt *time.Time `json:"resolved_at,omitempty"`
}

func toDisputeResponse(d domain.Dispute) disputeResponse {
	return disputeResponse{
		ID: d.ID, OrderID: d.OrderID, OrgID: d.OrgID, OpenedBy: d.OpenedBy, Reason: d.Reason,
		Status: string(d.Status), Resolution: d.Resolution, CreatedAt: d.CreatedAt, ResolvedAt: d.ResolvedAt,
	}
}

type notificationResponse struct {
	ID        string     `json:"id"`
	Kind      string     `json:"kind"`
	Title     string     `json:"title"`
	Body      string     `json:"body"`
	ReadAt    *time.Time `json:"read_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

func toNotificationResponse(n domain.Notification) notificationResponse {
	return notificationResponse{
		ID: n.ID, Kind: string(n.Kind), Title: n.Title, Body: n.Body,
		ReadAt: n.ReadAt, CreatedAt: n.CreatedAt,
	}
}

type auditEntryResponse struct {
	ID         string         `json:"id"`
	ActorID    string         `json:"actor_id"`
	Action     string         `json:"action"`
	Resource   string         `json:"resource"`
	ResourceID string         `json:"resource_id"`
	Metadata   map[string]any `json:"metadata"`
	CreatedAt  time.Time      `json:"created_at"`
}

func toAuditEntryResponse(e domain.AuditEntry) auditEntryResponse {
	return auditEntryResponse{
		ID: e.ID, ActorID: e.ActorID, Action: e.Action, Resource: e.Resource,
		ResourceID: e.ResourceID, Metadata: e.Metadata, CreatedAt: e.CreatedAt,
	}
}
