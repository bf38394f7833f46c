package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/obichijioke/eventapp/internal/domain"
)

type OrganizationRepository struct {
	db
}

func NewOrganizationRepository(pool *pgxpool.Pool) *OrganizationRepository {
	return &OrganizationRepository{db: db{pool: pool}}
}

func (r *OrganizationRepository) CreateOrganization(ctx context.Context, org domain.Organization) error {
	const stmt = `INSERT INTO organizations (id, name, slug, created_at) VALUES ($1, $2, $3, $4)`
	if _, err := r.exec(ctx, stmt, org.ID, org.Name, org.Slug, org.CreatedAt); err != nil {
		if isUniqueViolation(err) {
			return domain.ErrSlugTaken
		}
		return fmt.Errorf("create organization: %w", err)
	}
	return nil
}

func (r *OrganizationRepository) GetOrganization(ctx context.Context, orgID string) (domain.Organization, error) {
	var o domain.Organization
	err := r.queryRow(ctx, `SELECT id, name, slug, created_at FROM organizations WHERE id = $1`, orgID).
		Scan(&o.ID, &o.Name, &o.Slug, &o.CreatedAt)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.Organization{}, domain.ErrInvalidID
		}
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Organization{}, domain.ErrOrganizationMissing
		}
		return domain.Organization{}, fmt.Errorf("get organization: %w", err)
	}
	return o, nil
}

func (r *OrganizationRepository) ListOrganizationsForUser(ctx context.Context, userID string) ([]domain.Organization, error) {
	const query = `
SELECT o.id, o.name, o.slug, o.created_at
FROM organizations o
JOIN memberships m ON m.org_id = o.id
WHERE m.user_id = $1
ORDER BY o.created_at ASC`

	rows, err := r.query(ctx, query, userID)
	if err != nil {
		if isInvalidUUID(err) {
			return nil, domain.ErrInvalidID
		}
		return nil, fmt.Errorf("list organizations: %w", err)
	}
	defer rows.Close()

	var orgs []domain.Organization
	for rows.Next() {
		var o domain.Organization
		if err := rows.Scan(&o.ID, &o.Name, &o.Slug, &o.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan organization: %w", err)
		}
		orgs = append(orgs, o)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate organizations: %w", rows.Err())
	}
	return orgs, nil
}

// AddMembership inserts the membership or updates the role of an existing one.
func (r *OrganizationRepository) AddMembership(ctx context.Context, m domain.Membership) error {
	const stmt = `
INSERT INTO memberships (org_id, user_id, role, created_at)
VALUES ($1, $2, $3, $4)
ON CONFLICT (org_id, user_id) DO UPDATE SET role = EXCLUDED.role`

	if _, err := r.exec(ctx, stmt, m.OrgID, m.UserID, m.Role, m.CreatedAt); err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		if isForeignKeyViolation(err) {
			if constraintName(err) == "memberships_user_id_fkey" {
				return domain.ErrUserNotFound
			}
			return domain.ErrOrganizationMissing
		}
		return fmt.Errorf("add membership: %w", err)
	}
	return nil
}

// GetMembership returns nil when the user does not belong to the organization.
func (r *OrganizationRepository) GetMembership(ctx context.Context, orgID, userID string) (*domain.Membership, error) {
	const query = `
SELECT m.org_id, m.user_id, m.role, m.created_at, u.email, u.name
FROM memberships m
JOIN users u ON u.id = m.user_id
WHERE m.org_id = $1 AND m.user_id = $2`

	var m domain.Membership
	err := r.queryRow(ctx, query, orgID, userID).Scan(&m.OrgID, &m.UserID, &m.Role, &m.CreatedAt, &m.Email, &m.Name)
	if err != nil {
		if isInvalidUUID(err) {
			return nil, domain.ErrInvalidID
		}
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get membership: %w", err)
	}
	return &m, nil
}

func (r *OrganizationRepository) ListMembers(ctx context.Context, orgID string) ([]domain.Membership, error) {
	const query = `
SELECT m.org_id, m.user_id, m.role, m.created_at, u.email, u.name
FROM memberships m
JOIN users u ON u.id = m.user_id
WHERE m.org_id = $1
ORDER BY m.created_at ASC`

	rows, err := r.query(ctx, query, orgID)
	if err != nil {
		if isInvalidUUID(err) {
			return nil, domain.ErrInvalidID
		}
		return nil, fmt.Errorf("list members: %w", err)
	}
	members, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Membership, error) {
		var m domain.Membership
		err := row.Scan(&m.OrgID, &m.UserID, &m.Role, &m.CreatedAt, &m.Email, &m.Name)
		return m, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan members: %w", err)
	}
	return members, nil
}

func (r *OrganizationRepository) ListOwnerIDs(ctx context.Context, orgID string) ([]string, error) {
	return r.listOwnerIDs(ctx, orgID)
}
