package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/obichijioke/eventapp/internal/clock"
	"github.com/obichijioke/eventapp/internal/domain"
)

type SeatmapRepository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	GetEvent(ctx context.Context, eventID string) (domain.Event, error)
	GetEventForUpdate(ctx context.Context, eventID string) (domain.Event, error)
	ListZonesByEvent(ctx context.Context, eventID string, now time.Time) ([]domain.Zone, error)
	ReplaceSeats(ctx context.Context, eventID string, seats []domain.Seat) error
	SetZoneCapacity(ctx context.Context, zoneID string, capacity int) error
	ListSeats(ctx context.Context, eventID string, now time.Time) ([]domain.Seat, error)
}

const maxSeatsPerRow = 500

type SeatmapService struct {
	repo  SeatmapRepository
	authz *Authorizer
	audit AuditRecorder
	clock clock.Clock
}

func NewSeatmapService(repo SeatmapRepository, authz *Authorizer, audit AuditRecorder, clk clock.Clock) *SeatmapService {
	if audit == nil {
		audit = nopAudit{}
	}
	return &SeatmapService{repo: repo, authz: authz, audit: audit, clock: clk}
}

// ReplaceSeatmap regenerates every seat of a draft event from the layout and
// resizes the seated zones it references to their seat counts.
func (s *SeatmapService) ReplaceSeatmap(ctx context.Context, actor domain.Actor, eventID string, layout domain.SeatmapLayout) ([]domain.Seat, error) {
	if len(layout.Sections) == 0 {
		return nil, fmt.Errorf("%w: no sections", domain.ErrInvalidSeatmap)
	}

	var seats []domain.Seat
	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		event, err := s.repo.GetEventForUpdate(txCtx, eventID)
		if err != nil {
			return err
		}
		if _, err := s.authz.Require(txCtx, actor, event.OrgID, RolesManageEvents...); err != nil {
			return err
		}
		if event.Status != domain.EventStatusDraft {
			return domain.ErrSeatmapLocked
		}

		zones, err := s.repo.ListZonesByEvent(txCtx, eventID, s.clock.Now())
		if err != nil {
			return err
		}
		seated := make(map[string]bool, len(zones))
		for _, z := range zones {
			seated[z.ID] = z.Seated
		}

		seats, err = buildSeats(eventID, layout, seated)
		if err != nil {
			return err
		}
		if err := s.repo.ReplaceSeats(txCtx, eventID, seats); err != nil {
			return err
		}

		counts := make(map[string]int)
		for _, seat := range seats {
			counts[seat.ZoneID]++
		}
		for zoneID, n := range counts {
			if err := s.repo.SetZoneCapacity(txCtx, zoneID, n); err != nil {
				return err
			}
		}
		return s.audit.Record(txCtx, domain.AuditEntry{
			OrgID:      event.OrgID,
			ActorID:    actor.UserID,
			Action:     "seatmap.replaced",
			Resource:   "event",
			ResourceID: eventID,
			Metadata:   map[string]any{"seats": len(seats), "sections": len(layout.Sections)},
		})
	})
	if err != nil {
		return nil, err
	}
	return seats, nil
}

func buildSeats(eventID string, layout domain.SeatmapLayout, seated map[string]bool) ([]domain.Seat, error) {
	var seats []domain.Seat
	labels := make(map[string]struct{})
	for _, section := range layout.Sections {
		name := strings.TrimSpace(section.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: section name required", domain.ErrInvalidSeatmap)
		}
		isSeated, ok := seated[section.ZoneID]
		if !ok {
			return nil, fmt.Errorf("%w: section %q", domain.ErrZoneNotFound, name)
		}
		if !isSeated {
			return nil, fmt.Errorf("%w: zone of section %q is not seated", domain.ErrInvalidSeatmap, name)
		}
		if len(section.Rows) == 0 {
			return nil, fmt.Errorf("%w: section %q has no rows", domain.ErrInvalidSeatmap, name)
		}
		for _, row := range section.Rows {
			rowLabel := strings.TrimSpace(row.Label)
			if rowLabel == "" {
				return nil, fmt.Errorf("%w: row label required in section %q", domain.ErrInvalidSeatmap, name)
			}
			if row.Seats <= 0 || row.Seats > maxSeatsPerRow {
				return nil, fmt.Errorf("%w: row %q must have 1-%d seats", domain.ErrInvalidSeatmap, rowLabel, maxSeatsPerRow)
			}
			for n := 1; n <= row.Seats; n++ {
				label := fmt.Sprintf("%s-%s-%d", name, rowLabel, n)
				if _, dup := labels[label]; dup {
					return nil, fmt.Errorf("%w: duplicate seat %q", domain.ErrInvalidSeatmap, label)
				}
				labels[label] = struct{}{}
				seats = append(seats, domain.Seat{
					ID:      newUUID(),
					EventID: eventID,
					ZoneID:  section.ZoneID,
					Section: name,
					Row:     rowLabel,
					Number:  n,
					Label:   label,
					Status:  domain.SeatStatusFree,
				})
			}
		}
	}
	return seats, nil
}

// GetSeatmap lists seats with their current status. Unpublished events are
// visible to organization members only.
func (s *SeatmapService) GetSeatmap(ctx context.Context, actor domain.Actor, eventID string) ([]domain.Seat, error) {
	event, err := s.repo.GetEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if event.Status != domain.EventStatusPublished {
		if actor.UserID == "" {
			return nil, domain.ErrEventNotFound
		}
		if _, err := s.authz.Require(ctx, actor, event.OrgID); err != nil {
			return nil, domain.ErrEventNotFound
		}
	}
	return s.repo.ListSeats(ctx, eventID, s.clock.Now())
}
