package app

import (
	"context"

	"github.com/obichijioke/eventapp/internal/clock"
	"github.com/obichijioke/eventapp/internal/domain"
	"github.com/obichijioke/eventapp/internal/pagination"
)

type AuditRepository interface {
	CreateAuditEntry(ctx context.Context, e domain.AuditEntry) error
	QueryAudit(ctx context.Context, orgID string, f domain.AuditFilter, p pagination.Params) ([]domain.AuditEntry, int, error)
}

type AuditService struct {
	repo  AuditRepository
	authz *Authorizer
	clock clock.Clock
}

func NewAuditService(repo AuditRepository, authz *Authorizer, clk clock.Clock) *AuditService {
	return &AuditService{repo: repo, authz: authz, clock: clk}
}

func (s *AuditService) Record(ctx context.Context, e domain.AuditEntry) error {
	if e.ID == "" {
		e.ID = newUUID()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = s.clock.Now()
	}
	if e.Metadata == nil {
		e.Metadata = map[string]any{}
	}
	return s.repo.CreateAuditEntry(ctx, e)
}

// Query returns the organization's audit log, newest first. Owners only.
func (s *AuditService) Query(ctx context.Context, actor domain.Actor, orgID string, f domain.AuditFilter, p pagination.Params) (pagination.Page[domain.AuditEntry], error) {
	if _, err := s.authz.Require(ctx, actor, orgID, RolesOwner...); err != nil {
		return pagination.Page[domain.AuditEntry]{}, err
	}
	if f.Since != nil && f.Until != nil && f.Until.Before(*f.Since) {
		return pagination.Page[domain.AuditEntry]{}, domain.ErrInvalidTimeRange
	}
	f.Since = utcPtr(f.Since)
	f.Until = utcPtr(f.Until)
	entries, total, err := s.repo.QueryAudit(ctx, orgID, f, p)
	if err != nil {
		return pagination.Page[domain.AuditEntry]{}, err
	}
	return pagination.NewPage(entries, p, total), nil
}
