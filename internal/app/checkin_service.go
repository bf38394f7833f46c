package app

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/obichijioke/eventapp/internal/barcode"
	"github.com/obichijioke/eventapp/internal/clock"
	"github.com/obichijioke/eventapp/internal/domain"
	"github.com/obichijioke/eventapp/internal/pagination"
)

type CheckInRepository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	GetEvent(ctx context.Context, eventID string) (domain.Event, error)
	GetTicketForUpdate(ctx context.Context, ticketID string) (domain.Ticket, error)
	MarkCheckedIn(ctx context.Context, ticketID string, at time.Time) (bool, error)
	RecordCheckIn(ctx context.Context, c domain.CheckIn) error
	ListCheckIns(ctx context.Context, eventID string, p pagination.Params) ([]domain.CheckIn, int, error)
	CheckInStats(ctx context.Context, eventID string) (domain.CheckInStats, error)
}

type CheckInService struct {
	repo  CheckInRepository
	authz *Authorizer
	clock clock.Clock
}

func NewCheckInService(repo CheckInRepository, authz *Authorizer, clk clock.Clock) *CheckInService {
	return &CheckInService{repo: repo, authz: authz, clock: clk}
}

// ScanResult is the outcome shown to door staff. A rejected scan is a normal
// result, not an error.
type ScanResult struct {
	Result domain.CheckInResult
	Ticket *domain.Ticket
	// FirstCheckedInAt is set for duplicates.
	FirstCheckedInAt *time.Time
}

func (s *CheckInService) Scan(ctx context.Context, actor domain.Actor, eventID, code string) (ScanResult, error) {
	event, err := s.repo.GetEvent(ctx, eventID)
	if err != nil {
		return ScanResult{}, err
	}
	if _, err := s.authz.Require(ctx, actor, event.OrgID, RolesCheckIn...); err != nil {
		return ScanResult{}, err
	}

	// Hardware scanners append line endings; the stored barcode has none.
	code = strings.TrimSpace(code)
	payload := barcode.Decode(code)
	now := s.clock.Now()
	var result ScanResult

	err = s.repo.WithTx(ctx, func(txCtx context.Context) error {
		result = ScanResult{}
		ticket, err := s.repo.GetTicketForUpdate(txCtx, payload.TicketID)
		switch {
		case errors.Is(err, domain.ErrTicketNotFound), errors.Is(err, domain.ErrInvalidID):
			result.Result = domain.CheckInInvalid
		case err != nil:
			return err
		case !payload.Raw && ticket.Barcode != code:
			result.Result = domain.CheckInInvalid
		case ticket.EventID != event.ID:
			result.Result = domain.CheckInWrongEvent
		case ticket.Status == domain.TicketStatusVoid:
			result.Result = domain.CheckInVoid
		case ticket.Status == domain.TicketStatusCheckedIn:
			result.Result = domain.CheckInDuplicate
			result.FirstCheckedInAt = ticket.CheckedInAt
		default:
			ok, err := s.repo.MarkCheckedIn(txCtx, ticket.ID, now)
			if err != nil {
				return err
			}
			if ok {
				result.Result = domain.CheckInAccepted
				ticket.Status = domain.TicketStatusCheckedIn
				ticket.CheckedInAt = &now
			} else {
				result.Result = domain.CheckInDuplicate
			}
		}

		rec := domain.CheckIn{
			ID:        newUUID(),
			EventID:   event.ID,
			Code:      code,
			ScannedBy: actor.UserID,
			Result:    result.Result,
			CreatedAt: now,
		}
		if err == nil && ticket.ID != "" {
			rec.TicketID = ticket.ID
			if result.Result != domain.CheckInInvalid && result.Result != domain.CheckInWrongEvent {
				t := ticket
				result.Ticket = &t
			}
		}
		return s.repo.RecordCheckIn(txCtx, rec)
	})
	if err != nil {
		return ScanResult{}, err
	}
	return result, nil
}

func (s *CheckInService) Stats(ctx context.Context, actor domain.Actor, eventID string) (domain.CheckInStats, error) {
	event, err := s.repo.GetEvent(ctx, eventID)
	if err != nil {
		return domain.CheckInStats{}, err
	}
	if _, err := s.authz.Require(ctx, actor, event.OrgID, RolesCheckIn...); err != nil {
		return domain.CheckInStats{}, err
	}
	return s.repo.CheckInStats(ctx, event.ID)
}

func (s *CheckInService) ListScans(ctx context.Context, actor domain.Actor, eventID string, p pagination.Params) (pagination.Page[domain.CheckIn], error) {
	event, err := s.repo.GetEvent(ctx, eventID)
	if err != nil {
		return pagination.Page[domain.CheckIn]{}, err
	}
	if _, err := s.authz.Require(ctx, actor, event.OrgID, RolesCheckIn...); err != nil {
		return pagination.Page[domain.CheckIn]{}, err
	}
	scans, total, err := s.repo.ListCheckIns(ctx, event.ID, p)
	if err != nil {
		return pagination.Page[domain.CheckIn]{}, err
	}
	return pagination.NewPage(scans, p, total), nil
}
