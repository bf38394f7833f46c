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

type DisputeRepository struct {
	db
}

func NewDisputeRepository(pool *pgxpool.Pool) *DisputeRepository {
	return &DisputeRepository{db: db{pool: pool}}
}

func (r *DisputeRepository) GetOrderForUpdate(ctx context.Context, orderID string) (domain.Order, error) {
	return r.getOrder(ctx, orderID, true)
}

func (r *DisputeRepository) GetEvent(ctx context.Context, eventID string) (domain.Event, error) {
	return r.getEvent(ctx, eventID, false)
}

const disputeColumns = `id, order_id, org_id, COALESCE(opened_by::text, ''), reason, status, resolution, created_at, resolved_at`

func scanDispute(row pgx.Row) (domain.Dispute, error) {
	var d domain.Dispute
	err := row.Scan(&d.ID, &d.OrderID, &d.OrgID, &d.OpenedBy, &d.Reason, &d.Status, &d.Resolution, &d.CreatedAt, &d.ResolvedAt)
	return d, err
}

func (r *DisputeRepository) CreateDispute(ctx context.Context, d domain.Dispute) error {
	const stmt = `
INSERT INTO disputes (id, order_id, org_id, opened_by, reason, status, created_at)
VALUES ($1, $2, $3, NULLIF($4, '')::uuid, $5, $6, $7)`
	if _, err := r.exec(ctx, stmt, d.ID, d.OrderID, d.OrgID, d.OpenedBy, d.Reason, d.Status, d.CreatedAt); err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDisputeExists
		}
		if isForeignKeyViolation(err) {
			return domain.ErrOrderNotFound
		}
		return fmt.Errorf("create dispute: %w", err)
	}
	return nil
}

func (r *DisputeRepository) GetDisputeForUpdate(ctx context.Context, disputeID string) (domain.Dispute, error) {
	d, err := scanDispute(r.queryRow(ctx, `SELECT `+disputeColumns+` FROM disputes WHERE id = $1 FOR UPDATE`, disputeID))
	if err != nil {
		if isInvalidUUID(err) {
			return domain.Dispute{}, domain.ErrInvalidID
		}
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Dispute{}, domain.ErrDisputeNotFound
		}
		return domain.Dispute{}, fmt.Errorf("get dispute: %w", err)
	}
	return d, nil
}

func (r *DisputeRepository) ResolveDispute(ctx context.Context, disputeID string, status domain.DisputeStatus, resolution string, at time.Time) error {
	const stmt = `UPDATE disputes SET status = $2, resolution = $3, resolved_at = $4 WHERE id = $1 AND status = 'open'`
	tag, err := r.exec(ctx, stmt, disputeID, status, resolution, at)
	if err != nil {
		return fmt.Errorf("resolve dispute: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrDisputeClosed
	}
	return nil
}

// ListDisputes lists an organization's disputes; an empty status lists all.
func (r *DisputeRepository) ListDisputes(ctx context.Context, orgID string, status domain.DisputeStatus, p pagination.Params) ([]domain.Dispute, int, error) {
	p = p.Normalize()
	const filter = `WHERE org_id = $1 AND ($2::text = '' OR status = $2::text)`
	total, err := r.count(ctx, `SELECT COUNT(*) FROM disputes `+filter, orgID, string(status))
	if err != nil {
		return nil, 0, err
	}
	rows, err := r.query(ctx, `SELECT `+disputeColumns+` FROM disputes `+filter+`
ORDER BY created_at DESC LIMIT $3 OFFSET $4`, orgID, string(status), p.Limit, p.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("list disputes: %w", err)
	}
	disputes, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Dispute, error) {
		return scanDispute(row)
	})
	if err != nil {
		return nil, 0, fmt.Errorf("scan disputes: %w", err)
	}
	return disputes, total, nil
}

func (r *DisputeRepository) ListOwnerIDs(ctx context.Context, orgID string) ([]string, error) {
	return r.listOwnerIDs(ctx, orgID)
}
