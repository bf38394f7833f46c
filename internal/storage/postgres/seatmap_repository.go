package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/obichijioke/eventapp/internal/domain"
)

type SeatmapRepository struct {
	db
}

func NewSeatmapRepository(pool *pgxpool.Pool) *SeatmapRepository {
	return &SeatmapRepository{db: db{pool: pool}}
}

func (r *SeatmapRepository) GetEventForUpdate(ctx context.Context, eventID string) (domain.Event, error) {
	return r.getEvent(ctx, eventID, true)
}

func (r *SeatmapRepository) GetEvent(ctx context.Context, eventID string) (domain.Event, error) {
	return r.getEvent(ctx, eventID, false)
}

func (r *SeatmapRepository) ListZonesByEvent(ctx context.Context, eventID string, now time.Time) ([]domain.Zone, error) {
	return r.listZones(ctx, eventID, now)
}

// ReplaceSeats drops the event's seats and inserts the given set.
func (r *SeatmapRepository) ReplaceSeats(ctx context.Context, eventID string, seats []domain.Seat) error {
	if _, err := r.exec(ctx, `DELETE FROM seats WHERE event_id = $1`, eventID); err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("delete seats: %w", err)
	}
	if len(seats) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	const stmt = `
INSERT INTO seats (id, event_id, zone_id, section, row_label, number, label)
VALUES ($1, $2, $3, $4, $5, $6, $7)`
	for _, s := range seats {
		batch.Queue(stmt, s.ID, eventID, s.ZoneID, s.Section, s.Row, s.Number, s.Label)
	}
	if err := r.q(ctx).SendBatch(ctx, batch).Close(); err != nil {
		if isUniqueViolation(err) {
			return domain.ErrInvalidSeatmap
		}
		if isForeignKeyViolation(err) {
			return domain.ErrZoneNotFound
		}
		return fmt.Errorf("insert seats: %w", err)
	}
	return nil
}

func (r *SeatmapRepository) SetZoneCapacity(ctx context.Context, zoneID string, capacity int) error {
	tag, err := r.exec(ctx, `UPDATE zones SET capacity = $2 WHERE id = $1`, zoneID, capacity)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("set zone capacity: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrZoneNotFound
	}
	return nil
}

// ListSeats returns the event's seats with their status at now: sold when a
// confirmed hold covers them, held when an unexpired active hold does.
func (r *SeatmapRepository) ListSeats(ctx context.Context, eventID string, now time.Time) ([]domain.Seat, error) {
	const query = `
SELECT s.id, s.event_id, s.zone_id, s.section, s.row_label, s.number, s.label,
	CASE
		WHEN bool_or(h.status = 'confirmed') THEN 'sold'
		WHEN bool_or(h.status = 'active' AND h.expires_at > $2) THEN 'held'
		ELSE 'free'
	END
FROM seats s
LEFT JOIN hold_seats hs ON hs.seat_id = s.id
LEFT JOIN holds h ON h.id = hs.hold_id
WHERE s.event_id = $1
GROUP BY s.id
ORDER BY s.section, s.row_label, s.number`

	rows, err := r.query(ctx, query, eventID, now)
	if err != nil {
		if isInvalidUUID(err) {
			return nil, domain.ErrInvalidID
		}
		return nil, fmt.Errorf("list seats: %w", err)
	}
	seats, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Seat, error) {
		var s domain.Seat
		err := row.Scan(&s.ID, &s.EventID, &s.ZoneID, &s.Section, &s.Row, &s.Number, &s.Label, &s.Status)
		return s, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan seats: %w", err)
	}
	return seats, nil
}
