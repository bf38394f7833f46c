package app

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/obichijioke/eventapp/internal/clock"
	"github.com/obichijioke/eventapp/internal/domain"
	"github.com/obichijioke/eventapp/internal/pagination"
)

type DisputeRepository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	GetOrderForUpdate(ctx context.Context, orderID string) (domain.Order, error)
	GetEvent(ctx context.Context, eventID string) (domain.Event, error)
	CreateDispute(ctx context.Context, d domain.Dispute) error
	GetDisputeForUpdate(ctx context.Context, disputeID string) (domain.Dispute, error)
	ResolveDispute(ctx context.Context, disputeID string, status domain.DisputeStatus, resolution string, at time.Time) error
	ListDisputes(ctx context.Context, orgID string, status domain.DisputeStatus, p pagination.Params) ([]domain.Dispute, int, error)
	ListOwnerIDs(ctx context.Context, orgID string) ([]string, error)
}

// OrderRefunder refunds an order on behalf of an already authorized actor.
type OrderRefunder interface {
	RefundOrder(ctx context.Context, actorID, orderID string) (domain.Order, error)
}

type DisputeService struct {
	repo     DisputeRepository
	refunds  OrderRefunder
	authz    *Authorizer
	notifier Notifier
	audit    AuditRecorder
	clock    clock.Clock
}

func NewDisputeService(repo DisputeRepository, refunds OrderRefunder, authz *Authorizer, notifier Notifier, audit AuditRecorder, clk clock.Clock) *DisputeService {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	if audit == nil {
		audit = nopAudit{}
	}
	return &DisputeService{repo: repo, refunds: refunds, authz: authz, notifier: notifier, audit: audit, clock: clk}
}

func (s *DisputeService) OpenDispute(ctx context.Context, actor domain.Actor, orderID, reason string) (domain.Dispute, error) {
	if actor.UserID == "" {
		return domain.Dispute{}, domain.ErrUnauthenticated
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return domain.Dispute{}, domain.ErrReasonRequired
	}

	var result domain.Dispute
	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		order, err := s.repo.GetOrderForUpdate(txCtx, orderID)
		if err != nil {
			return err
		}
		if order.UserID != actor.UserID {
			return domain.ErrOrderNotFound
		}
		if order.Status != domain.OrderStatusPaid {
			return domain.ErrOrderNotPaid
		}
		event, err := s.repo.GetEvent(txCtx, order.EventID)
		if err != nil {
			return err
		}

		d := domain.Dispute{
			ID:        newUUID(),
			OrderID:   order.ID,
			OrgID:     event.OrgID,
			OpenedBy:  actor.UserID,
			Reason:    reason,
			Status:    domain.DisputeStatusOpen,
			CreatedAt: s.clock.Now(),
		}
		if err := s.repo.CreateDispute(txCtx, d); err != nil {
			return err
		}

		owners, err := s.repo.ListOwnerIDs(txCtx, event.OrgID)
		if err != nil {
			return err
		}
		if err := notifyAll(txCtx, s.notifier, owners, domain.NotificationDisputeOpened,
			"Dispute opened for "+event.Name, reason); err != nil {
			return err
		}
		result = d
		return s.audit.Record(txCtx, disputeAudit(actor, d, "dispute.opened"))
	})
	if err != nil {
		return domain.Dispute{}, err
	}
	return result, nil
}

// ListOrgDisputes lists disputes of an organization, optionally filtered by
// status.
func (s *DisputeService) ListOrgDisputes(ctx context.Context, actor domain.Actor, orgID string, status domain.DisputeStatus, p pagination.Params) (pagination.Page[domain.Dispute], error) {
	if _, err := s.authz.Require(ctx, actor, orgID, RolesFinance...); err != nil {
		return pagination.Page[domain.Dispute]{}, err
	}
	disputes, total, err := s.repo.ListDisputes(ctx, orgID, status, p)
	if err != nil {
		return pagination.Page[domain.Dispute]{}, err
	}
	return pagination.NewPage(disputes, p, total), nil
}

type ResolveDisputeInput struct {
	DisputeID  string
	Outcome    domain.DisputeOutcome
	Resolution string
}

func (s *DisputeService) ResolveDispute(ctx context.Context, actor domain.Actor, in ResolveDisputeInput) (domain.Dispute, error) {
	var status domain.DisputeStatus
	switch in.Outcome {
	case domain.DisputeOutcomeRefund:
		status = domain.DisputeStatusRefunded
	case domain.DisputeOutcomeReject:
		status = domain.DisputeStatusRejected
	default:
		return domain.Dispute{}, domain.ErrInvalidOutcome
	}

	var result domain.Dispute
	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		d, err := s.repo.GetDisputeForUpdate(txCtx, in.DisputeID)
		if err != nil {
			return err
		}
		if _, err := s.authz.Require(txCtx, actor, d.OrgID, RolesFinance...); err != nil {
			if errors.Is(err, domain.ErrForbidden) {
				return domain.ErrDisputeNotFound
			}
			return err
		}
		if d.Status != domain.DisputeStatusOpen {
			return domain.ErrDisputeClosed
		}

		order, err := s.repo.GetOrderForUpdate(txCtx, d.OrderID)
		if err != nil {
			return err
		}
		// An order refunded directly while the dispute was open only needs
		// the dispute closed.
		if status == domain.DisputeStatusRefunded && order.Status != domain.OrderStatusRefunded {
			if order, err = s.refunds.RefundOrder(txCtx, actor.UserID, d.OrderID); err != nil {
				return err
			}
		}
		buyerID := order.UserID

		now := s.clock.Now()
		if err := s.repo.ResolveDispute(txCtx, d.ID, status, in.Resolution, now); err != nil {
			return err
		}
		d.Status = status
		d.Resolution = in.Resolution
		d.ResolvedAt = &now

		if buyerID != "" {
			body := "Your dispute was " + string(status) + "."
			if in.Resolution != "" {
				body += " " + in.Resolution
			}
			if err := s.notifier.Notify(txCtx, buyerID, domain.NotificationDisputeClosed, "Dispute resolved", body); err != nil {
				return err
			}
		}
		result = d
		return s.audit.Record(txCtx, disputeAudit(actor, d, "dispute."+string(status)))
	})
	if err != nil {
		return domain.Dispute{}, err
	}
	return result, nil
}

func disputeAudit(actor domain.Actor, d domain.Dispute, action string) domain.AuditEntry {
	return domain.AuditEntry{
		OrgID:      d.OrgID,
		ActorID:    actor.UserID,
		Action:     action,
		Resource:   "dispute",
		ResourceID: d.ID,
		Metadata:   map[string]any{"order_id": d.OrderID},
	}
}
