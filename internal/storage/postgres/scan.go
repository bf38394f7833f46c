package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/obichijioke/eventapp/internal/domain"
)

const eventColumns = `id, org_id, name, description, venue, starts_at, ends_at, currency, status, published_at, created_at`

func scanEvent(row pgx.Row) (domain.Event, error) {
	var e domain.Event
	err := row.Scan(&e.ID, &e.OrgID, &e.Name, &e.Description, &e.Venue, &e.StartsAt, &e.EndsAt,
		&e.Currency, &e.Status, &e.PublishedAt, &e.CreatedAt)
	return e, err
}

func (d db) getEvent(ctx context.Context, eventID string, forUpdate bool) (domain.Event, error) {
	if !isUUID(eventID) {
		return domain.Event{}, domain.ErrInvalidID
	}
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	e, err := scanEvent(d.queryRow(ctx, query, eventID))
	if err != nil {
		if isInvalidUUID(err) {
			return domain.Event{}, domain.ErrInvalidID
		}
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Event{}, domain.ErrEventNotFound
		}
		return domain.Event{}, fmt.Errorf("get event: %w", err)
	}
	return e, nil
}

// zoneAvailability computes remaining inventory per zone: capacity minus
// confirmed holds minus holds still active at $2.
const zoneAvailability = `
SELECT z.id, z.event_id, z.name, z.capacity, z.price_cents, z.seated,
	z.capacity - COALESCE((
		SELECT SUM(h.quantity) FROM holds h
		WHERE h.zone_id = z.id
		  AND (h.status = 'confirmed' OR (h.status = 'active' AND h.expires_at > $2))
	), 0) AS available
FROM zones z`

func scanZone(row pgx.Row) (domain.Zone, error) {
	var z domain.Zone
	err := row.Scan(&z.ID, &z.EventID, &z.Name, &z.Capacity, &z.PriceCents, &z.Seated, &z.Available)
	return z, err
}

func (d db) listZones(ctx context.Context, eventID string, now time.Time) ([]domain.Zone, error) {
	rows, err := d.query(ctx, zoneAvailability+` WHERE z.event_id = $1 ORDER BY z.created_at ASC`, eventID, now)
	if err != nil {
		if isInvalidUUID(err) {
			return nil, domain.ErrInvalidID
		}
		return nil, fmt.Errorf("list zones: %w", err)
	}
	zones, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Zone, error) {
		return scanZone(row)
	})
	if err != nil {
		return nil, fmt.Errorf("scan zones: %w", err)
	}
	return zones, nil
}

func (d db) getZone(ctx context.Context, zoneID string, now time.Time) (domain.Zone, error) {
	if !isUUID(zoneID) {
		return domain.Zone{}, domain.ErrInvalidID
	}
	z, err := scanZone(d.queryRow(ctx, zoneAvailability+` WHERE z.id = $1`, zoneID, now))
	if err != nil {
		if isInvalidUUID(err) {
			return domain.Zone{}, domain.ErrInvalidID
		}
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Zone{}, domain.ErrZoneNotFound
		}
		return domain.Zone{}, fmt.Errorf("get zone: %w", err)
	}
	return z, nil
}

const orderColumns = `id, hold_id, event_id, COALESCE(user_id::text, ''), quantity, amount_cents, currency, status, idempotency_key, created_at, paid_at`

func scanOrder(row pgx.Row) (domain.Order, error) {
	var o domain.Order
	err := row.Scan(&o.ID, &o.HoldID, &o.EventID, &o.UserID, &o.Quantity, &o.AmountCents, &o.Currency,
		&o.Status, &o.IdempotencyKey, &o.CreatedAt, &o.PaidAt)
	return o, err
}

func (d db) getOrder(ctx context.Context, orderID string, forUpdate bool) (domain.Order, error) {
	if !isUUID(orderID) {
		return domain.Order{}, domain.ErrInvalidID
	}
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	o, err := scanOrder(d.queryRow(ctx, query, orderID))
	if err != nil {
		if isInvalidUUID(err) {
			return domain.Order{}, domain.ErrInvalidID
		}
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Order{}, domain.ErrOrderNotFound
		}
		return domain.Order{}, fmt.Errorf("get order: %w", err)
	}
	return o, nil
}

const ticketColumns = `id, order_id, event_id, zone_id, COALESCE(seat_id::text, ''), COALESCE(owner_id::text, ''), barcode, status, checked_in_at, created_at`

func scanTicket(row pgx.Row) (domain.Ticket, error) {
	var t domain.Ticket
	err := row.Scan(&t.ID, &t.OrderID, &t.EventID, &t.ZoneID, &t.SeatID, &t.OwnerID, &t.Barcode,
		&t.Status, &t.CheckedInAt, &t.CreatedAt)
	return t, err
}

func (d db) getTicket(ctx context.Context, ticketID string, forUpdate bool) (domain.Ticket, error) {
	if !isUUID(ticketID) {
		return domain.Ticket{}, domain.ErrInvalidID
	}
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	t, err := scanTicket(d.queryRow(ctx, query, ticketID))
	if err != nil {
		if isInvalidUUID(err) {
			return domain.Ticket{}, domain.ErrInvalidID
		}
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Ticket{}, domain.ErrTicketNotFound
		}
		return domain.Ticket{}, fmt.Errorf("get ticket: %w", err)
	}
	return t, nil
}

func (d db) listOwnerIDs(ctx context.Context, orgID string) ([]string, error) {
	rows, err := d.query(ctx, `SELECT user_id::text FROM memberships WHERE org_id = $1 AND role = 'owner' ORDER BY created_at`, orgID)
	if err != nil {
		if isInvalidUUID(err) {
			return nil, domain.ErrInvalidID
		}
		return nil, fmt.Errorf("list owners: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("scan owners: %w", err)
	}
	return ids, nil
}
