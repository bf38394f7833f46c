package app

import (
	"context"

	"github.com/obichijioke/eventapp/internal/domain"
	"github.com/obichijioke/eventapp/internal/pagination"
)

type AdminRepository interface {
	ListEvents(ctx context.Context, status domain.EventStatus, p pagination.Params) ([]domain.Event, int, error)
	Stats(ctx context.Context) (domain.PlatformStats, error)
}

// AdminService serves platform administrators. Payout transitions live on
// PayoutService.
type AdminService struct {
	repo AdminRepository
}

func NewAdminService(repo AdminRepository) *AdminService {
	return &AdminService{repo: repo}
}

// ListAllEvents lists events across organizations. An empty status lists
// every status.
func (s *AdminService) ListAllEvents(ctx context.Context, actor domain.Actor, status domain.EventStatus, p pagination.Params) (pagination.Page[domain.Event], error) {
	if err := RequireAdmin(actor); err != nil {
		return pagination.Page[domain.Event]{}, err
	}
	switch status {
	case "", domain.EventStatusDraft, domain.EventStatusPublished, domain.EventStatusCancelled:
	default:
		return pagination.Page[domain.Event]{}, domain.ErrInvalidStatus
	}
	events, total, err := s.repo.ListEvents(ctx, status, p)
	if err != nil {
		return pagination.Page[domain.Event]{}, err
	}
	return pagination.NewPage(events, p, total), nil
}

func (s *AdminService) Stats(ctx context.Context, actor domain.Actor) (domain.PlatformStats, error) {
	if err := RequireAdmin(actor); err != nil {
		return domain.PlatformStats{}, err
	}
	return s.repo.Stats(ctx)
}
