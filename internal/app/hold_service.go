package app

import (
	"context"
	"errors"
	"slices"
	"time"

	"github.com/obichijioke/eventapp/internal/clock"
	"github.com/obichijioke/eventapp/internal/domain"
)

type HoldRepository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	GetEvent(ctx context.Context, eventID string) (domain.Event, error)
	GetZoneForUpdate(ctx context.Context, eventID, zoneID string) (domain.Zone, error)
	FindHoldByIdempotencyKey(ctx context.Context, eventID, zoneID, key string) (*domain.Hold, error)
	SumActiveHolds(ctx context.Context, eventID, zoneID string, now time.Time) (int, error)
	SumConfirmed(ctx context.Context, eventID, zoneID string) (int, error)
	CountSeatsInZone(ctx context.Context, zoneID string, seatIDs []string) (int, error)
	UnavailableSeats(ctx context.Context, seatIDs []string, now time.Time) ([]string, error)
	CreateHold(ctx context.Context, hold domain.Hold) error
	ExpireHolds(ctx context.Context, now time.Time) (int, error)
}

type HoldService struct {
	repo    HoldRepository
	clock   clock.Clock
	holdTTL time.Duration
}

const defaultHoldTTL = 15 * time.Minute

func NewHoldService(repo HoldRepository, clk clock.Clock, opts ...HoldServiceOption) *HoldService {
	svc := &HoldService{
		repo:    repo,
		clock:   clk,
		holdTTL: defaultHoldTTL,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

type HoldServiceOption func(*HoldService)

// WithHoldTTL overrides the default TTL for new holds.
func WithHoldTTL(d time.Duration) HoldServiceOption {
	return func(s *HoldService) {
		if d > 0 {
			s.holdTTL = d
		}
	}
}

type CreateHoldInput struct {
	Actor          domain.Actor
	EventID        string
	ZoneID         string
	Quantity       int
	SeatIDs        []string
	IdempotencyKey string
}

func (s *HoldService) CreateHold(ctx context.Context, in CreateHoldInput) (domain.Hold, error) {
	if in.Actor.UserID == "" {
		return domain.Hold{}, domain.ErrUnauthenticated
	}
	if in.IdempotencyKey == "" {
		return domain.Hold{}, domain.ErrIdempotencyKeyRequired
	}
	seatIDs := slices.Clone(in.SeatIDs)
	slices.Sort(seatIDs)
	if len(seatIDs) > 0 {
		if len(slices.Compact(slices.Clone(seatIDs))) != len(seatIDs) {
			return domain.Hold{}, domain.ErrInvalidQuantity
		}
		if in.Quantity != 0 && in.Quantity != len(seatIDs) {
			return domain.Hold{}, domain.ErrInvalidQuantity
		}
		in.Quantity = len(seatIDs)
	}
	if in.Quantity <= 0 {
		return domain.Hold{}, domain.ErrInvalidQuantity
	}

	now := s.clock.Now()
	var result domain.Hold

	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		if existing, err := s.repo.FindHoldByIdempotencyKey(txCtx, in.EventID, in.ZoneID, in.IdempotencyKey); err != nil {
			return err
		} else if existing != nil {
			if !sameHoldRequest(*existing, in.Actor.UserID, in.Quantity, seatIDs) {
				return domain.ErrIdempotencyConflict
			}
			result = *existing
			return nil
		}

		event, err := s.repo.GetEvent(txCtx, in.EventID)
		if err != nil {
			return err
		}
		if !event.OnSale() {
			return domain.ErrEventNotOnSale
		}

		zone, err := s.repo.GetZoneForUpdate(txCtx, in.EventID, in.ZoneID)
		if err != nil {
			return err
		}
		if zone.Seated {
			if err := s.checkSeats(txCtx, zone, seatIDs, now); err != nil {
				return err
			}
		} else if len(seatIDs) > 0 {
			return domain.ErrSeatNotFound
		}

		activeQty, err := s.repo.SumActiveHolds(txCtx, in.EventID, in.ZoneID, now)
		if err != nil {
			return err
		}
		confirmedQty, err := s.repo.SumConfirmed(txCtx, in.EventID, in.ZoneID)
		if err != nil {
			return err
		}

		available := zone.Capacity - activeQty - confirmedQty
		if in.Quantity > available {
			return domain.ErrInsufficientCapacity
		}

		hold := domain.Hold{
			ID:             newUUID(),
			EventID:        in.EventID,
			ZoneID:         in.ZoneID,
			UserID:         in.Actor.UserID,
			Quantity:       in.Quantity,
			SeatIDs:        seatIDs,
			Status:         domain.HoldStatusActive,
			ExpiresAt:      now.Add(s.holdTTL),
			IdempotencyKey: in.IdempotencyKey,
			CreatedAt:      now,
		}

		if err := s.repo.CreateHold(txCtx, hold); err != nil {
			// Re-read on conflict to keep idempotent retries consistent under concurrency.
			if errors.Is(err, domain.ErrIdempotencyConflict) {
				existing, err := s.repo.FindHoldByIdempotencyKey(txCtx, in.EventID, in.ZoneID, in.IdempotencyKey)
				if err != nil {
					return err
				}
				if existing != nil {
					if !sameHoldRequest(*existing, in.Actor.UserID, in.Quantity, seatIDs) {
						return domain.ErrIdempotencyConflict
					}
					result = *existing
					return nil
				}
			}
			return err
		}

		result = hold
		return nil
	})
	if err != nil {
		return domain.Hold{}, err
	}

	return result, nil
}

// checkSeats runs under the zone lock, which serializes seat holds per zone.
func (s *HoldService) checkSeats(ctx context.Context, zone domain.Zone, seatIDs []string, now time.Time) error {
	if len(seatIDs) == 0 {
		return domain.ErrSeatsRequired
	}
	n, err := s.repo.CountSeatsInZone(ctx, zone.ID, seatIDs)
	if err != nil {
		return err
	}
	if n != len(seatIDs) {
		return domain.ErrSeatNotFound
	}
	taken, err := s.repo.UnavailableSeats(ctx, seatIDs, now)
	if err != nil {
		return err
	}
	if len(taken) > 0 {
		return domain.ErrSeatUnavailable
	}
	return nil
}

// sameHoldRequest reports whether a replayed key asks for the hold it already
// produced. seatIDs must be sorted.
func sameHoldRequest(h domain.Hold, userID string, quantity int, seatIDs []string) bool {
	held := slices.Clone(h.SeatIDs)
	slices.Sort(held)
	return h.Quantity == quantity && (h.UserID == "" || h.UserID == userID) && slices.Equal(held, seatIDs)
}

// ExpireHolds releases holds whose TTL has lapsed.
func (s *HoldService) ExpireHolds(ctx context.Context) (int, error) {
	return s.repo.ExpireHolds(ctx, s.clock.Now())
}
