package app

import (
	"context"

	"github.com/obichijioke/eventapp/internal/barcode"
	"github.com/obichijioke/eventapp/internal/clock"
	"github.com/obichijioke/eventapp/internal/domain"
	"github.com/obichijioke/eventapp/internal/pagination"
)

type TicketRepository interface {
	ListBarcodesByOrder(ctx context.Context, orderID string) ([]string, error)
	CreateTickets(ctx context.Context, tickets []domain.Ticket) error
	VoidTicketsByOrder(ctx context.Context, orderID string) (int, error)
	GetTicket(ctx context.Context, ticketID string) (domain.Ticket, error)
	ListTicketsByOrder(ctx context.Context, orderID string) ([]domain.Ticket, error)
	ListTicketsByOwner(ctx context.Context, ownerID string, p pagination.Params) ([]domain.Ticket, int, error)
}

type TicketService struct {
	repo  TicketRepository
	clock clock.Clock
}

func NewTicketService(repo TicketRepository, clk clock.Clock) *TicketService {
	return &TicketService{repo: repo, clock: clk}
}

// IssueTickets creates the order's tickets, one per unit or per held seat,
// and returns only those that did not exist yet. Ids and barcodes are
// deterministic per slot, so calling it twice for an order issues nothing
// the second time.
func (s *TicketService) IssueTickets(ctx context.Context, order domain.Order, hold domain.Hold) ([]domain.Ticket, error) {
	existing, err := s.repo.ListBarcodesByOrder(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	issued := make(map[string]struct{}, len(existing))
	for _, code := range existing {
		issued[code] = struct{}{}
	}

	slots := order.Quantity
	if len(hold.SeatIDs) > 0 {
		slots = len(hold.SeatIDs)
	}

	now := s.clock.Now()
	var missing []domain.Ticket
	for i := 0; i < slots; i++ {
		seatID := ""
		if len(hold.SeatIDs) > 0 {
			seatID = hold.SeatIDs[i]
		}
		id := ticketID(order.ID, i)
		code := barcode.Encode(order.ID, id, seatID)
		if _, ok := issued[code]; ok {
			continue
		}
		missing = append(missing, domain.Ticket{
			ID:        id,
			OrderID:   order.ID,
			EventID:   order.EventID,
			ZoneID:    hold.ZoneID,
			SeatID:    seatID,
			OwnerID:   order.UserID,
			Barcode:   code,
			Status:    domain.TicketStatusValid,
			CreatedAt: now,
		})
	}
	if err := s.repo.CreateTickets(ctx, missing); err != nil {
		return nil, err
	}
	return missing, nil
}

func (s *TicketService) VoidOrderTickets(ctx context.Context, orderID string) (int, error) {
	return s.repo.VoidTicketsByOrder(ctx, orderID)
}

func (s *TicketService) ListMyTickets(ctx context.Context, actor domain.Actor, p pagination.Params) (pagination.Page[domain.Ticket], error) {
	if actor.UserID == "" {
		return pagination.Page[domain.Ticket]{}, domain.ErrUnauthenticated
	}
	tickets, total, err := s.repo.ListTicketsByOwner(ctx, actor.UserID, p)
	if err != nil {
		return pagination.Page[domain.Ticket]{}, err
	}
	return pagination.NewPage(tickets, p, total), nil
}

func (s *TicketService) ListOrderTickets(ctx context.Context, orderID string) ([]domain.Ticket, error) {
	return s.repo.ListTicketsByOrder(ctx, orderID)
}

// GetTicket returns a ticket to its owner or an administrator. Others get
// ErrTicketNotFound so ticket ids cannot be probed.
func (s *TicketService) GetTicket(ctx context.Context, actor domain.Actor, ticketID string) (domain.Ticket, error) {
	if actor.UserID == "" {
		return domain.Ticket{}, domain.ErrUnauthenticated
	}
	t, err := s.repo.GetTicket(ctx, ticketID)
	if err != nil {
		return domain.Ticket{}, err
	}
	if t.OwnerID != actor.UserID && !actor.IsAdmin {
		return domain.Ticket{}, domain.ErrTicketNotFound
	}
	return t, nil
}

// TicketQR renders the ticket's barcode as a PNG.
func (s *TicketService) TicketQR(ctx context.Context, actor domain.Actor, ticketID string, size int) ([]byte, error) {
	t, err := s.GetTicket(ctx, actor, ticketID)
	if err != nil {
		return nil, err
	}
	if t.Status == domain.TicketStatusVoid {
		return nil, domain.ErrTicketNotFound
	}
	return barcode.QRPNG(t.Barcode, size)
}
