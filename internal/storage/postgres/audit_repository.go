package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/obichijioke/eventapp/internal/domain"
	"github.com/obichijioke/eventapp/internal/pagination"
)

type AuditRepository struct {
	db
}

func NewAuditRepository(pool *pgxpool.Pool) *AuditRepository {
	return &AuditRepository{db: db{pool: pool}}
}

func (r *AuditRepository) CreateAuditEntry(ctx context.Context, e domain.AuditEntry) error {
	metadata, err := json.Marshal(e.Metadata)
	if err != nil {
		return fmt.Errorf("encode audit metadata: %w", err)
	}
	const stmt = `
INSERT INTO audit_log (id, org_id, actor_id, action, resource, resource_id, metadata, created_at)
VALUES ($1, $2, NULLIF($3, '')::uuid, $4, $5, $6, $7, $8)`
	if _, err := r.exec(ctx, stmt, e.ID, e.OrgID, e.ActorID, e.Action, e.Resource, e.ResourceID, metadata, e.CreatedAt); err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("create audit entry: %w", err)
	}
	return nil
}

// QueryAudit lists an organization's audit entries, newest first, narrowed by
// the non-empty fields of the filter.
func (r *AuditRepository) QueryAudit(ctx context.Context, orgID string, f domain.AuditFilter, p pagination.Params) ([]domain.AuditEntry, int, error) {
	p = p.Normalize()
	conds := []string{"org_id = $1"}
	args := []any{orgID}
	add := func(cond string, v any) {
		args = append(args, v)
		conds = append(conds, strings.ReplaceAll(cond, "?", "$"+strconv.Itoa(len(args))))
	}
	if f.Action != "" {
		add("action = ?", f.Action)
	}
	if f.ActorID != "" {
		add("actor_id = ?", f.ActorID)
	}
	if f.Resource != "" {
		add("resource = ?", f.Resource)
	}
	if f.Since != nil {
		add("created_at >= ?", *f.Since)
	}
	if f.Until != nil {
		add("created_at < ?", *f.Until)
	}
	where := " WHERE " + strings.Join(conds, " AND ")

	total, err := r.count(ctx, `SELECT COUNT(*) FROM audit_log`+where, args...)
	if err != nil {
		return nil, 0, err
	}

	query := `SELECT id, org_id, COALESCE(actor_id::text, ''), action, resource, resource_id, metadata, created_at
FROM audit_log` + where + fmt.Sprintf(` ORDER BY created_at DESC LIMIT %d OFFSET %d`, p.Limit, p.Offset())
	rows, err := r.query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("query audit: %w", err)
	}
	entries, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.AuditEntry, error) {
		var e domain.AuditEntry
		var metadata []byte
		if err := row.Scan(&e.ID, &e.OrgID, &e.ActorID, &e.Action, &e.Resource, &e.ResourceID, &metadata, &e.CreatedAt); err != nil {
			return e, err
		}
		if len(metadata) > 0 {
			if err := json.Unmarshal(metadata, &e.Metadata); err != nil {
				return e, fmt.Errorf("decode audit metadata: %w", err)
			}
		}
		return e, nil
	})
	if err != nil {
		return nil, 0, fmt.Errorf("scan audit: %w", err)
	}
	return entries, total, nil
}
