package app

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/obichijioke/eventapp/internal/clock"
	"github.com/obichijioke/eventapp/internal/domain"
	"github.com/obichijioke/eventapp/internal/money"
	"github.com/obichijioke/eventapp/internal/pagination"
)

type PayoutRepository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	LockOrganization(ctx context.Context, orgID string) error
	SumPaidOrders(ctx context.Context, orgID string) (map[string]int64, error)
	SumReservedPayouts(ctx context.Context, orgID string) (map[string]int64, error)
	CreatePayout(ctx context.Context, p domain.Payout) error
	GetPayoutForUpdate(ctx context.Context, payoutID string) (domain.Payout, error)
	UpdatePayoutStatus(ctx context.Context, payoutID string, status domain.PayoutStatus, note string, at time.Time) error
	ListPayouts(ctx context.Context, orgID string, p pagination.Params) ([]domain.Payout, int, error)
	ListOwnerIDs(ctx context.Context, orgID string) ([]string, error)
}

type PayoutService struct {
	repo     PayoutRepository
	authz    *Authorizer
	notifier Notifier
	audit    AuditRecorder
	clock    clock.Clock
	feeBPS   int
}

func NewPayoutService(repo PayoutRepository, authz *Authorizer, notifier Notifier, audit AuditRecorder, clk clock.Clock, feeBPS int) *PayoutService {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	if audit == nil {
		audit = nopAudit{}
	}
	return &PayoutService{repo: repo, authz: authz, notifier: notifier, audit: audit, clock: clk, feeBPS: feeBPS}
}

// Balance reports the organization's earnings per currency, sorted by
// currency code.
func (s *PayoutService) Balance(ctx context.Context, actor domain.Actor, orgID string) ([]domain.Balance, error) {
	if _, err := s.authz.Require(ctx, actor, orgID, RolesFinance...); err != nil {
		return nil, err
	}
	return s.balances(ctx, orgID)
}

func (s *PayoutService) balances(ctx context.Context, orgID string) ([]domain.Balance, error) {
	gross, err := s.repo.SumPaidOrders(ctx, orgID)
	if err != nil {
		return nil, err
	}
	reserved, err := s.repo.SumReservedPayouts(ctx, orgID)
	if err != nil {
		return nil, err
	}

	currencies := make([]string, 0, len(gross)+len(reserved))
	for c := range gross {
		currencies = append(currencies, c)
	}
	for c := range reserved {
		if _, ok := gross[c]; !ok {
			currencies = append(currencies, c)
		}
	}
	slices.Sort(currencies)

	out := make([]domain.Balance, 0, len(currencies))
	for _, c := range currencies {
		b := domain.Balance{
			Currency:      c,
			GrossCents:    gross[c],
			FeeCents:      money.ApplyBasisPoints(gross[c], s.feeBPS),
			ReservedCents: reserved[c],
		}
		b.NetCents = b.GrossCents - b.FeeCents
		b.AvailableCents = b.NetCents - b.ReservedCents
		out = append(out, b)
	}
	return out, nil
}

type RequestPayoutInput struct {
	OrgID       string
	AmountCents int64
	Currency    string
	Note        string
}

func (s *PayoutService) RequestPayout(ctx context.Context, actor domain.Actor, in RequestPayoutInput) (domain.Payout, error) {
	if in.AmountCents <= 0 {
		return domain.Payout{}, domain.ErrInvalidAmount
	}
	currency, err := parseCurrency(in.Currency)
	if err != nil {
		return domain.Payout{}, err
	}

	var result domain.Payout
	err = s.repo.WithTx(ctx, func(txCtx context.Context) error {
		if _, err := s.authz.Require(txCtx, actor, in.OrgID, RolesFinance...); err != nil {
			return err
		}
		if err := s.repo.LockOrganization(txCtx, in.OrgID); err != nil {
			return err
		}
		balances, err := s.balances(txCtx, in.OrgID)
		if err != nil {
			return err
		}
		var available int64
		for _, b := range balances {
			if b.Currency == currency {
				available = b.AvailableCents
			}
		}
		if in.AmountCents > available {
			return fmt.Errorf("%w: requested %d, available %d %s", domain.ErrInsufficientBalance, in.AmountCents, available, currency)
		}

		payout := domain.Payout{
			ID:          newUUID(),
			OrgID:       in.OrgID,
			AmountCents: in.AmountCents,
			Currency:    currency,
			Status:      domain.PayoutStatusRequested,
			RequestedBy: actor.UserID,
			Note:        in.Note,
			CreatedAt:   s.clock.Now(),
		}
		if err := s.repo.CreatePayout(txCtx, payout); err != nil {
			return err
		}
		result = payout
		return s.audit.Record(txCtx, payoutAudit(actor, payout, "payout.requested"))
	})
	if err != nil {
		return domain.Payout{}, err
	}
	return result, nil
}

func (s *PayoutService) ListPayouts(ctx context.Context, actor domain.Actor, orgID string, p pagination.Params) (pagination.Page[domain.Payout], error) {
	if _, err := s.authz.Require(ctx, actor, orgID, RolesFinance...); err != nil {
		return pagination.Page[domain.Payout]{}, err
	}
	payouts, total, err := s.repo.ListPayouts(ctx, orgID, p)
	if err != nil {
		return pagination.Page[domain.Payout]{}, err
	}
	return pagination.NewPage(payouts, p, total), nil
}

func (s *PayoutService) ApprovePayout(ctx context.Context, actor domain.Actor, payoutID string) (domain.Payout, error) {
	return s.transition(ctx, actor, payoutID, domain.PayoutStatusApproved, nil)
}

func (s *PayoutService) RejectPayout(ctx context.Context, actor domain.Actor, payoutID, note string) (domain.Payout, error) {
	return s.transition(ctx, actor, payoutID, domain.PayoutStatusRejected, &note)
}

func (s *PayoutService) MarkPayoutPaid(ctx context.Context, actor domain.Actor, payoutID string) (domain.Payout, error) {
	return s.transition(ctx, actor, payoutID, domain.PayoutStatusPaid, nil)
}

// transition moves a payout along its lifecycle. Administrators only.
func (s *PayoutService) transition(ctx context.Context, actor domain.Actor, payoutID string, next domain.PayoutStatus, note *string) (domain.Payout, error) {
	if err := RequireAdmin(actor); err != nil {
		return domain.Payout{}, err
	}

	var result domain.Payout
	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		payout, err := s.repo.GetPayoutForUpdate(txCtx, payoutID)
		if err != nil {
			return err
		}
		if !payout.Status.CanTransition(next) {
			return fmt.Errorf("%w: %s to %s", domain.ErrInvalidTransition, payout.Status, next)
		}
		if note != nil {
			payout.Note = *note
		}
		now := s.clock.Now()
		if err := s.repo.UpdatePayoutStatus(txCtx, payout.ID, next, payout.Note, now); err != nil {
			return err
		}
		payout.Status = next
		payout.ProcessedAt = &now

		owners, err := s.repo.ListOwnerIDs(txCtx, payout.OrgID)
		if err != nil {
			return err
		}
		amount, err := money.Format(payout.AmountCents, payout.Currency)
		if err != nil {
			amount = fmt.Sprintf("%d %s", payout.AmountCents, payout.Currency)
		}
		if err := notifyAll(txCtx, s.notifier, owners, domain.NotificationPayoutUpdated,
			"Payout "+string(next),
			"Your payout of "+amount+" is now "+string(next)+"."); err != nil {
			return err
		}
		result = payout
		return s.audit.Record(txCtx, payoutAudit(actor, payout, "payout."+string(next)))
	})
	if err != nil {
		return domain.Payout{}, err
	}
	return result, nil
}

func payoutAudit(actor domain.Actor, p domain.Payout, action string) domain.AuditEntry {
	return domain.AuditEntry{
		OrgID:      p.OrgID,
		ActorID:    actor.UserID,
		Action:     action,
		Resource:   "payout",
		ResourceID: p.ID,
		Metadata:   map[string]any{"amount_cents": p.AmountCents, "currency": p.Currency},
	}
}
