package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/obichijioke/eventapp/internal/domain"
)

type HoldRepository struct {
	db
}

func NewHoldRepository(pool *pgxpool.Pool) *HoldRepository {
	return &HoldRepository{db: db{pool: pool}}
}

func (r *HoldRepository) GetEvent(ctx context.Context, eventID string) (domain.Event, error) {
	return r.getEvent(ctx, eventID, false)
}

func (r *HoldRepository) GetZoneForUpdate(ctx context.Context, eventID, zoneID string) (domain.Zone, error) {
	const query = `SELECT id, event_id, name, capacity, price_cents, seated FROM zones WHERE id = $1 AND event_id = $2 FOR UPDATE`
	var z domain.Zone
	err := r.queryRow(ctx, query, zoneID, eventID).Scan(&z.ID, &z.EventID, &z.Name, &z.Capacity, &z.PriceCents, &z.Seated)
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

func (r *HoldRepository) FindHoldByIdempotencyKey(ctx context.Context, eventID, zoneID, key string) (*domain.Hold, error) {
	const query = `
SELECT id, event_id, zone_id, COALESCE(user_id::text, ''), quantity, status, expires_at, idempotency_key, created_at,
	ARRAY(SELECT seat_id::text FROM hold_seats WHERE hold_id = holds.id ORDER BY seat_id)
FROM holds
WHERE event_id = $1 AND zone_id = $2 AND idempotency_key = $3`

	var h domain.Hold
	err := r.queryRow(ctx, query, eventID, zoneID, key).
		Scan(&h.ID, &h.EventID, &h.ZoneID, &h.UserID, &h.Quantity, &h.Status, &h.ExpiresAt, &h.IdempotencyKey, &h.CreatedAt, &h.SeatIDs)
	if err != nil {
		if isInvalidUUID(err) {
			return nil, domain.ErrInvalidID
		}
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find hold by idempotency key: %w", err)
	}
	if len(h.SeatIDs) == 0 {
		h.SeatIDs = nil
	}
	return &h, nil
}

func (r *HoldRepository) SumActiveHolds(ctx context.Context, eventID, zoneID string, now time.Time) (int, error) {
	const query = `
SELECT COALESCE(SUM(quantity), 0)
FROM holds
WHERE event_id = $1 AND zone_id = $2 AND status = 'active' AND expires_at > $3`

	var total int
	if err := r.queryRow(ctx, query, eventID, zoneID, now).Scan(&total); err != nil {
		if isInvalidUUID(err) {
			return 0, domain.ErrInvalidID
		}
		return 0, fmt.Errorf("sum active holds: %w", err)
	}
	return total, nil
}

func (r *HoldRepository) SumConfirmed(ctx context.Context, eventID, zoneID string) (int, error) {
	const query = `
SELECT COALESCE(SUM(quantity), 0)
FROM holds
WHERE event_id = $1 AND zone_id = $2 AND status = 'confirmed'`

	var total int
	if err := r.queryRow(ctx, query, eventID, zoneID).Scan(&total); err != nil {
		if isInvalidUUID(err) {
			return 0, domain.ErrInvalidID
		}
		return 0, fmt.Errorf("sum confirmed: %w", err)
	}
	return total, nil
}

// CountSeatsInZone reports how many of seatIDs exist in the zone.
func (r *HoldRepository) CountSeatsInZone(ctx context.Context, zoneID string, seatIDs []string) (int, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM seats WHERE zone_id = $1 AND id = ANY($2::uuid[])`, zoneID, seatIDs)
}

// UnavailableSeats returns the subset of seatIDs covered by a confirmed hold
// or by an active hold that has not expired at now.
func (r *HoldRepository) UnavailableSeats(ctx context.Context, seatIDs []string, now time.Time) ([]string, error) {
	const query = `
SELECT DISTINCT hs.seat_id::text
FROM hold_seats hs
JOIN holds h ON h.id = hs.hold_id
WHERE hs.seat_id = ANY($1::uuid[])
  AND (h.status = 'confirmed' OR (h.status = 'active' AND h.expires_at > $2))`

	rows, err := r.query(ctx, query, seatIDs, now)
	if err != nil {
		if isInvalidUUID(err) {
			return nil, domain.ErrInvalidID
		}
		return nil, fmt.Errorf("unavailable seats: %w", err)
	}
	taken, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("scan unavailable seats: %w", err)
	}
	return taken, nil
}

func (r *HoldRepository) CreateHold(ctx context.Context, hold domain.Hold) error {
	const stmt = `
INSERT INTO holds (id, event_id, zone_id, user_id, quantity, status, expires_at, idempotency_key, created_at)
VALUES ($1, $2, $3, NULLIF($4, '')::uuid, $5, $6, $7, $8, $9)`

	_, err := r.exec(ctx, stmt,
		hold.ID,
		hold.EventID,
		hold.ZoneID,
		hold.UserID,
		hold.Quantity,
		hold.Status,
		hold.ExpiresAt,
		hold.IdempotencyKey,
		hold.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrIdempotencyConflict
		}
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("create hold: %w", err)
	}

	if len(hold.SeatIDs) > 0 {
		const seatStmt = `INSERT INTO hold_seats (hold_id, seat_id) SELECT $1, unnest($2::uuid[])`
		if _, err := r.exec(ctx, seatStmt, hold.ID, hold.SeatIDs); err != nil {
			if isForeignKeyViolation(err) {
				return domain.ErrSeatNotFound
			}
			return fmt.Errorf("create hold seats: %w", err)
		}
	}
	return nil
}

// ExpireHolds marks active holds past their expiry as expired and returns
// how many were changed.
func (r *HoldRepository) ExpireHolds(ctx context.Context, now time.Time) (int, error) {
	tag, err := r.exec(ctx, `UPDATE holds SET status = 'expired' WHERE status = 'active' AND expires_at <= $1`, now)
	if err != nil {
		return 0, fmt.Errorf("expire holds: %w", err)
	}
	return int(tag.RowsAffected()), nil
}
