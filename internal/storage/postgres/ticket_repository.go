package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/obichijioke/eventapp/internal/domain"
	"github.com/obichijioke/eventapp/internal/pagination"
)

type TicketRepository struct {
	db
}

func NewTicketRepository(pool *pgxpool.Pool) *TicketRepository {
	return &TicketRepository{db: db{pool: pool}}
}

func (r *TicketRepository) ListBarcodesByOrder(ctx context.Context, orderID string) ([]string, error) {
	rows, err := r.query(ctx, `SELECT barcode FROM tickets WHERE order_id = $1`, orderID)
	if err != nil {
		if isInvalidUUID(err) {
			return nil, domain.ErrInvalidID
		}
		return nil, fmt.Errorf("list barcodes: %w", err)
	}
	codes, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("scan barcodes: %w", err)
	}
	return codes, nil
}

// CreateTickets inserts the tickets in one round trip. Tickets whose barcode
// already exists are skipped.
func (r *TicketRepository) CreateTickets(ctx context.Context, tickets []domain.Ticket) error {
	if len(tickets) == 0 {
		return nil
	}
	const stmt = `
INSERT INTO tickets (id, order_id, event_id, zone_id, seat_id, owner_id, barcode, status, created_at)
VALUES ($1, $2, $3, $4, NULLIF($5, '')::uuid, NULLIF($6, '')::uuid, $7, $8, $9)
ON CONFLICT (barcode) DO NOTHING`

	batch := &pgx.Batch{}
	for _, t := range tickets {
		batch.Queue(stmt, t.ID, t.OrderID, t.EventID, t.ZoneID, t.SeatID, t.OwnerID, t.Barcode, t.Status, t.CreatedAt)
	}
	if err := r.q(ctx).SendBatch(ctx, batch).Close(); err != nil {
		if isForeignKeyViolation(err) {
			return domain.ErrOrderNotFound
		}
		return fmt.Errorf("create tickets: %w", err)
	}
	return nil
}

func (r *TicketRepository) VoidTicketsByOrder(ctx context.Context, orderID string) (int, error) {
	tag, err := r.exec(ctx, `UPDATE tickets SET status = 'void' WHERE order_id = $1 AND status <> 'void'`, orderID)
	if err != nil {
		return 0, fmt.Errorf("void tickets: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

func (r *TicketRepository) GetTicket(ctx context.Context, ticketID string) (domain.Ticket, error) {
	return r.getTicket(ctx, ticketID, false)
}

func (r *TicketRepository) ListTicketsByOrder(ctx context.Context, orderID string) ([]domain.Ticket, error) {
	rows, err := r.query(ctx, `SELECT `+ticketColumns+` FROM tickets WHERE order_id = $1 ORDER BY created_at, id`, orderID)
	if err != nil {
		if isInvalidUUID(err) {
			return nil, domain.ErrInvalidID
		}
		return nil, fmt.Errorf("list tickets: %w", err)
	}
	return collectTickets(rows)
}

func (r *TicketRepository) ListTicketsByOwner(ctx context.Context, ownerID string, p pagination.Params) ([]domain.Ticket, int, error) {
	p = p.Normalize()
	total, err := r.count(ctx, `SELECT COUNT(*) FROM tickets WHERE owner_id = $1`, ownerID)
	if err != nil {
		return nil, 0, err
	}
	rows, err := r.query(ctx, `SELECT `+ticketColumns+` FROM tickets WHERE owner_id = $1
ORDER BY created_at DESC, id LIMIT $2 OFFSET $3`, ownerID, p.Limit, p.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("list tickets: %w", err)
	}
	tickets, err := collectTickets(rows)
	return tickets, total, err
}

func collectTickets(rows pgx.Rows) ([]domain.Ticket, error) {
	tickets, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Ticket, error) {
		return scanTicket(row)
	})
	if err != nil {
		return nil, fmt.Errorf("scan tickets: %w", err)
	}
	return tickets, nil
}
