package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/obichijioke/eventapp/internal/domain"
	"github.com/obichijioke/eventapp/internal/pagination"
)

type EventRepository struct {
	db
}

func NewEventRepository(pool *pgxpool.Pool) *EventRepository {
	return &EventRepository{db: db{pool: pool}}
}

func (r *EventRepository) CreateEvent(ctx context.Context, event domain.Event) error {
	const stmt = `
INSERT INTO events (id, org_id, name, description, venue, starts_at, ends_at, currency, status, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := r.exec(ctx, stmt, event.ID, event.OrgID, event.Name, event.Description, event.Venue,
		event.StartsAt, event.EndsAt, event.Currency, event.Status, event.CreatedAt)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		if isForeignKeyViolation(err) {
			return domain.ErrOrganizationMissing
		}
		return fmt.Errorf("create event: %w", err)
	}
	return nil
}

func (r *EventRepository) GetEvent(ctx context.Context, eventID string) (domain.Event, error) {
	return r.getEvent(ctx, eventID, false)
}

func (r *EventRepository) GetEventForUpdate(ctx context.Context, eventID string) (domain.Event, error) {
	return r.getEvent(ctx, eventID, true)
}

func (r *EventRepository) UpdateEvent(ctx context.Context, event domain.Event) error {
	const stmt = `
UPDATE events
SET name = $2, description = $3, venue = $4, starts_at = $5, ends_at = $6, currency = $7
WHERE id = $1`

	tag, err := r.exec(ctx, stmt, event.ID, event.Name, event.Description, event.Venue,
		event.StartsAt, event.EndsAt, event.Currency)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("update event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrEventNotFound
	}
	return nil
}

// PublishEvent moves a draft to published. It reports false when the event
// was not a draft, leaving the row untouched.
func (r *EventRepository) PublishEvent(ctx context.Context, eventID string, at time.Time) (bool, error) {
	const stmt = `UPDATE events SET status = 'published', published_at = $2 WHERE id = $1 AND status = 'draft'`
	tag, err := r.exec(ctx, stmt, eventID, at)
	if err != nil {
		if isInvalidUUID(err) {
			return false, domain.ErrInvalidID
		}
		return false, fmt.Errorf("publish event: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *EventRepository) CancelEvent(ctx context.Context, eventID string) (bool, error) {
	const stmt = `UPDATE events SET status = 'cancelled' WHERE id = $1 AND status <> 'cancelled'`
	tag, err := r.exec(ctx, stmt, eventID)
	if err != nil {
		if isInvalidUUID(err) {
			return false, domain.ErrInvalidID
		}
		return false, fmt.Errorf("cancel event: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *EventRepository) ListEventsByOrg(ctx context.Context, orgID string, p pagination.Params) ([]domain.Event, int, error) {
	p = p.Normalize()
	total, err := r.count(ctx, `SELECT COUNT(*) FROM events WHERE org_id = $1`, orgID)
	if err != nil {
		return nil, 0, err
	}
	rows, err := r.query(ctx, `SELECT `+eventColumns+` FROM events WHERE org_id = $1
ORDER BY created_at DESC LIMIT $2 OFFSET $3`, orgID, p.Limit, p.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("list events: %w", err)
	}
	events, err := collectEvents(rows)
	return events, total, err
}

// ListPublishedEvents lists upcoming and past published events, soonest first.
func (r *EventRepository) ListPublishedEvents(ctx context.Context, p pagination.Params) ([]domain.Event, int, error) {
	p = p.Normalize()
	total, err := r.count(ctx, `SELECT COUNT(*) FROM events WHERE status = 'published'`)
	if err != nil {
		return nil, 0, err
	}
	rows, err := r.query(ctx, `SELECT `+eventColumns+` FROM events WHERE status = 'published'
ORDER BY starts_at ASC LIMIT $1 OFFSET $2`, p.Limit, p.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("list events: %w", err)
	}
	events, err := collectEvents(rows)
	return events, total, err
}

func (r *EventRepository) CountZones(ctx context.Context, eventID string) (int, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM zones WHERE event_id = $1`, eventID)
}

func (r *EventRepository) CountEmptySeatedZones(ctx context.Context, eventID string) (int, error) {
	const query = `
SELECT COUNT(*) FROM zones z
WHERE z.event_id = $1 AND z.seated
  AND NOT EXISTS (SELECT 1 FROM seats s WHERE s.zone_id = z.id)`
	return r.count(ctx, query, eventID)
}

func (r *EventRepository) CreateZone(ctx context.Context, zone domain.Zone) error {
	const stmt = `
INSERT INTO zones (id, event_id, name, capacity, price_cents, seated)
VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.exec(ctx, stmt, zone.ID, zone.EventID, zone.Name, zone.Capacity, zone.PriceCents, zone.Seated)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		if isUniqueViolation(err) {
			return domain.ErrZoneAlreadyExists
		}
		if isForeignKeyViolation(err) {
			return domain.ErrEventNotFound
		}
		return fmt.Errorf("create zone: %w", err)
	}
	return nil
}

func (r *EventRepository) ListZonesByEvent(ctx context.Context, eventID string, now time.Time) ([]domain.Zone, error) {
	return r.listZones(ctx, eventID, now)
}

// ListTicketHolderIDs returns the distinct owners of live tickets for the event.
func (r *EventRepository) ListTicketHolderIDs(ctx context.Context, eventID string) ([]string, error) {
	const query = `
SELECT DISTINCT owner_id::text
FROM tickets
WHERE event_id = $1 AND owner_id IS NOT NULL AND status <> 'void'`

	rows, err := r.query(ctx, query, eventID)
	if err != nil {
		if isInvalidUUID(err) {
			return nil, domain.ErrInvalidID
		}
		return nil, fmt.Errorf("list ticket holders: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("scan ticket holders: %w", err)
	}
	return ids, nil
}

func collectEvents(rows pgx.Rows) ([]domain.Event, error) {
	events, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Event, error) {
		return scanEvent(row)
	})
	if err != nil {
		return nil, fmt.Errorf("scan events: %w", err)
	}
	return events, nil
}
