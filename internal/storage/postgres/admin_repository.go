package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/obichijioke/eventapp/internal/domain"
	"github.com/obichijioke/eventapp/internal/pagination"
)

// AdminRepository serves platform-wide queries that cross organizations.
type AdminRepository struct {
	db
}

func NewAdminRepository(pool *pgxpool.Pool) *AdminRepository {
	return &AdminRepository{db: db{pool: pool}}
}

// ListEvents lists events of every organization, optionally filtered by status.
func (r *AdminRepository) ListEvents(ctx context.Context, status domain.EventStatus, p pagination.Params) ([]domain.Event, int, error) {
	p = p.Normalize()
	const filter = `WHERE ($1::text = '' OR status = $1::text)`

	total, err := r.count(ctx, `SELECT COUNT(*) FROM events `+filter, string(status))
	if err != nil {
		return nil, 0, err
	}
	rows, err := r.query(ctx, `SELECT `+eventColumns+` FROM events `+filter+`
ORDER BY created_at ASC LIMIT $2 OFFSET $3`, string(status), p.Limit, p.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("list events: %w", err)
	}
	events, err := collectEvents(rows)
	return events, total, err
}

func (r *AdminRepository) Stats(ctx context.Context) (domain.PlatformStats, error) {
	const query = `
SELECT
	(SELECT COUNT(*) FROM users),
	(SELECT COUNT(*) FROM organizations),
	(SELECT COUNT(*) FROM events),
	(SELECT COUNT(*) FROM events WHERE status = 'published'),
	(SELECT COUNT(*) FROM orders WHERE status = 'paid'),
	(SELECT COUNT(*) FROM tickets WHERE status <> 'void'),
	(SELECT COUNT(*) FROM tickets WHERE status = 'checked_in'),
	(SELECT COUNT(*) FROM payouts WHERE status = 'requested'),
	(SELECT COUNT(*) FROM disputes WHERE status = 'open')`

	var s domain.PlatformStats
	err := r.queryRow(ctx, query).Scan(&s.Users, &s.Organizations, &s.Events, &s.PublishedEvents,
		&s.PaidOrders, &s.TicketsIssued, &s.TicketsCheckedIn, &s.PendingPayouts, &s.OpenDisputes)
	if err != nil {
		return domain.PlatformStats{}, fmt.Errorf("platform stats: %w", err)
	}

	rows, err := r.query(ctx, `SELECT currency, SUM(amount_cents) FROM orders WHERE status = 'paid' GROUP BY currency ORDER BY currency`)
	if err != nil {
		return domain.PlatformStats{}, fmt.Errorf("platform revenue: %w", err)
	}
	defer rows.Close()
	s.RevenueByCurrency = map[string]int64{}
	for rows.Next() {
		var currency string
		var amount int64
		if err := rows.Scan(&currency, &amount); err != nil {
			return domain.PlatformStats{}, fmt.Errorf("scan revenue: %w", err)
		}
		s.RevenueByCurrency[currency] = amount
	}
	if rows.Err() != nil {
		return domain.PlatformStats{}, fmt.Errorf("iterate revenue: %w", rows.Err())
	}
	return s, nil
}
