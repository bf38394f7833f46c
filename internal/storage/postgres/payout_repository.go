package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/obichijioke/eventapp/internal/domain"
	"github.com/obichijioke/eventapp/internal/pagination"
)

type PayoutRepository struct {
	db
}

func NewPayoutRepository(pool *pgxpool.Pool) *PayoutRepository {
	return &PayoutRepository{db: db{pool: pool}}
}

// LockOrganization serializes balance-changing operations of one organization.
func (r *PayoutRepository) LockOrganization(ctx context.Context, orgID string) error {
	var id string
	err := r.queryRow(ctx, `SELECT id FROM organizations WHERE id = $1 FOR UPDATE`, orgID).Scan(&id)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrOrganizationMissing
		}
		return fmt.Errorf("lock organization: %w", err)
	}
	return nil
}

// SumPaidOrders returns gross paid order revenue per currency.
func (r *PayoutRepository) SumPaidOrders(ctx context.Context, orgID string) (map[string]int64, error) {
	const query = `
SELECT o.currency, COALESCE(SUM(o.amount_cents), 0)
FROM orders o
JOIN events e ON e.id = o.event_id
WHERE e.org_id = $1 AND o.status = 'paid'
GROUP BY o.currency`
	return r.sumByCurrency(ctx, query, orgID)
}

// SumReservedPayouts returns payouts that are requested, approved or paid,
// per currency.
func (r *PayoutRepository) SumReservedPayouts(ctx context.Context, orgID string) (map[string]int64, error) {
	const query = `
SELECT currency, COALESCE(SUM(amount_cents), 0)
FROM payouts
WHERE org_id = $1 AND status IN ('requested', 'approved', 'paid')
GROUP BY currency`
	return r.sumByCurrency(ctx, query, orgID)
}

func (r *PayoutRepository) sumByCurrency(ctx context.Context, query, orgID string) (map[string]int64, error) {
	rows, err := r.query(ctx, query, orgID)
	if err != nil {
		if isInvalidUUID(err) {
			return nil, domain.ErrInvalidID
		}
		return nil, fmt.Errorf("sum by currency: %w", err)
	}
	defer rows.Close()

	sums := map[string]int64{}
	for rows.Next() {
		var currency string
		var amount int64
		if err := rows.Scan(&currency, &amount); err != nil {
			return nil, fmt.Errorf("scan sum: %w", err)
		}
		sums[currency] = amount
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate sums: %w", rows.Err())
	}
	return sums, nil
}

const payoutColumns = `id, org_id, amount_cents, currency, status, COALESCE(requested_by::text, ''), note, created_at, processed_at`

func scanPayout(row pgx.Row) (domain.Payout, error) {
	var p domain.Payout
	err := row.Scan(&p.ID, &p.OrgID, &p.AmountCents, &p.Currency, &p.Status, &p.RequestedBy, &p.Note, &p.CreatedAt, &p.ProcessedAt)
	return p, err
}

func (r *PayoutRepository) CreatePayout(ctx context.Context, p domain.Payout) error {
	const stmt = `
INSERT INTO payouts (id, org_id, amount_cents, currency, status, requested_by, note, created_at)
VALUES ($1, $2, $3, $4, $5, NULLIF($6, '')::uuid, $7, $8)`
	if _, err := r.exec(ctx, stmt, p.ID, p.OrgID, p.AmountCents, p.Currency, p.Status, p.RequestedBy, p.Note, p.CreatedAt); err != nil {
		if isForeignKeyViolation(err) {
			return domain.ErrOrganizationMissing
		}
		return fmt.Errorf("create payout: %w", err)
	}
	return nil
}

func (r *PayoutRepository) GetPayoutForUpdate(ctx context.Context, payoutID string) (domain.Payout, error) {
	p, err := scanPayout(r.queryRow(ctx, `SELECT `+payoutColumns+` FROM payouts WHERE id = $1 FOR UPDATE`, payoutID))
	if err != nil {
		if isInvalidUUID(err) {
			return domain.Payout{}, domain.ErrInvalidID
		}
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Payout{}, domain.ErrPayoutNotFound
		}
		return domain.Payout{}, fmt.Errorf("get payout: %w", err)
	}
	return p, nil
}

func (r *PayoutRepository) UpdatePayoutStatus(ctx context.Context, payoutID string, status domain.PayoutStatus, note string, at time.Time) error {
	const stmt = `UPDATE payouts SET status = $2, note = $3, processed_at = $4 WHERE id = $1`
	tag, err := r.exec(ctx, stmt, payoutID, status, note, at)
	if err != nil {
		return fmt.Errorf("update payout: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrPayoutNotFound
	}
	return nil
}

func (r *PayoutRepository) ListPayouts(ctx context.Context, orgID string, p pagination.Params) ([]domain.Payout, int, error) {
	p = p.Normalize()
	total, err := r.count(ctx, `SELECT COUNT(*) FROM payouts WHERE org_id = $1`, orgID)
	if err != nil {
		return nil, 0, err
	}
	rows, err := r.query(ctx, `SELECT `+payoutColumns+` FROM payouts WHERE org_id = $1
ORDER BY created_at DESC LIMIT $2 OFFSET $3`, orgID, p.Limit, p.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("list payouts: %w", err)
	}
	payouts, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Payout, error) {
		return scanPayout(row)
	})
	if err != nil {
		return nil, 0, fmt.Errorf("scan payouts: %w", err)
	}
	return payouts, total, nil
}

func (r *PayoutRepository) ListOwnerIDs(ctx context.Context, orgID string) ([]string, error) {
	return r.listOwnerIDs(ctx, orgID)
}
