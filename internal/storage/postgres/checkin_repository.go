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

type CheckInRepository struct {
	db
}

func NewCheckInRepository(pool *pgxpool.Pool) *CheckInRepository {
	return &CheckInRepository{db: db{pool: pool}}
}

func (r *CheckInRepository) GetEvent(ctx context.Context, eventID string) (domain.Event, error) {
	return r.getEvent(ctx, eventID, false)
}

func (r *CheckInRepository) GetTicketForUpdate(ctx context.Context, ticketID string) (domain.Ticket, error) {
	return r.getTicket(ctx, ticketID, true)
}

// MarkCheckedIn flips a valid ticket to checked_in. It reports false when the
// ticket was not valid.
func (r *CheckInRepository) MarkCheckedIn(ctx context.Context, ticketID string, at time.Time) (bool, error) {
	const stmt = `UPDATE tickets SET status = 'checked_in', checked_in_at = $2 WHERE id = $1 AND status = 'valid'`
	tag, err := r.exec(ctx, stmt, ticketID, at)
	if err != nil {
		return false, fmt.Errorf("mark checked in: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *CheckInRepository) RecordCheckIn(ctx context.Context, c domain.CheckIn) error {
	const stmt = `
INSERT INTO checkins (id, event_id, ticket_id, code, scanned_by, result, created_at)
VALUES ($1, $2, NULLIF($3, '')::uuid, $4, NULLIF($5, '')::uuid, $6, $7)`
	if _, err := r.exec(ctx, stmt, c.ID, c.EventID, c.TicketID, c.Code, c.ScannedBy, c.Result, c.CreatedAt); err != nil {
		return fmt.Errorf("record check-in: %w", err)
	}
	return nil
}

func (r *CheckInRepository) ListCheckIns(ctx context.Context, eventID string, p pagination.Params) ([]domain.CheckIn, int, error) {
	p = p.Normalize()
	total, err := r.count(ctx, `SELECT COUNT(*) FROM checkins WHERE event_id = $1`, eventID)
	if err != nil {
		return nil, 0, err
	}
	const query = `
SELECT id, event_id, COALESCE(ticket_id::text, ''), code, COALESCE(scanned_by::text, ''), result, created_at
FROM checkins
WHERE event_id = $1
ORDER BY created_at DESC
LIMIT $2 OFFSET $3`
	rows, err := r.query(ctx, query, eventID, p.Limit, p.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("list check-ins: %w", err)
	}
	checkins, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.CheckIn, error) {
		var c domain.CheckIn
		err := row.Scan(&c.ID, &c.EventID, &c.TicketID, &c.Code, &c.ScannedBy, &c.Result, &c.CreatedAt)
		return c, err
	})
	if err != nil {
		return nil, 0, fmt.Errorf("scan check-ins: %w", err)
	}
	return checkins, total, nil
}

func (r *CheckInRepository) CheckInStats(ctx context.Context, eventID string) (domain.CheckInStats, error) {
	const ticketQuery = `
SELECT COUNT(*) FILTER (WHERE status <> 'void'), COUNT(*) FILTER (WHERE status = 'checked_in')
FROM tickets WHERE event_id = $1`

	stats := domain.CheckInStats{ScansByResult: map[domain.CheckInResult]int{}}
	if err := r.queryRow(ctx, ticketQuery, eventID).Scan(&stats.TicketsIssued, &stats.TicketsCheckedIn); err != nil {
		if isInvalidUUID(err) {
			return domain.CheckInStats{}, domain.ErrInvalidID
		}
		return domain.CheckInStats{}, fmt.Errorf("ticket stats: %w", err)
	}

	rows, err := r.query(ctx, `SELECT result, COUNT(*) FROM checkins WHERE event_id = $1 GROUP BY result`, eventID)
	if err != nil {
		return domain.CheckInStats{}, fmt.Errorf("scan stats: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var result domain.CheckInResult
		var n int
		if err := rows.Scan(&result, &n); err != nil {
			return domain.CheckInStats{}, fmt.Errorf("scan stats: %w", err)
		}
		stats.ScansByResult[result] = n
	}
	if rows.Err() != nil {
		return domain.CheckInStats{}, fmt.Errorf("iterate stats: %w", rows.Err())
	}
	return stats, nil
}
