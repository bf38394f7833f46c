package app

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/obichijioke/eventapp/internal/clock"
	"github.com/obichijioke/eventapp/internal/domain"
	"github.com/obichijioke/eventapp/internal/pagination"
)

type OrderRepository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	GetHoldForUpdate(ctx context.Context, holdID string) (domain.Hold, error)
	GetEvent(ctx context.Context, eventID string) (domain.Event, error)
	GetZone(ctx context.Context, zoneID string, now time.Time) (domain.Zone, error)
	GetOrderByHoldID(ctx context.Context, holdID string) (*domain.Order, error)
	CreateOrder(ctx context.Context, order domain.Order) error
	UpdateHoldStatus(ctx context.Context, holdID string, status domain.HoldStatus) error
	GetOrder(ctx context.Context, orderID string) (domain.Order, error)
	GetOrderForUpdate(ctx context.Context, orderID string) (domain.Order, error)
	MarkOrderPaid(ctx context.Context, orderID string, at time.Time) error
	SetOrderStatus(ctx context.Context, orderID string, status domain.OrderStatus) error
	ListOrdersByUser(ctx context.Context, userID string, p pagination.Params) ([]domain.Order, int, error)
	CreatePayment(ctx context.Context, p domain.Payment) error
	GetPendingPayment(ctx context.Context, orderID string) (*domain.Payment, error)
	GetPaymentByProviderRefForUpdate(ctx context.Context, ref string) (domain.Payment, error)
	SetPaymentStatus(ctx context.Context, paymentID string, status domain.PaymentStatus) error
}

type TicketIssuer interface {
	IssueTickets(ctx context.Context, order domain.Order, hold domain.Hold) ([]domain.Ticket, error)
	VoidOrderTickets(ctx context.Context, orderID string) (int, error)
}

// PaymentGateway opens a payment with the external provider and returns the
// provider's reference for it.
type PaymentGateway interface {
	CreatePayment(ctx context.Context, order domain.Order) (string, error)
}

// LocalGateway issues provider references without calling out; the provider
// reports outcomes through the payment webhook.
type LocalGateway struct{}

func (LocalGateway) CreatePayment(context.Context, domain.Order) (string, error) {
	return "pay_" + newUUID(), nil
}

type OrderService struct {
	repo          OrderRepository
	tickets       TicketIssuer
	gateway       PaymentGateway
	authz         *Authorizer
	notifier      Notifier
	audit         AuditRecorder
	clock         clock.Clock
	webhookSecret []byte
}

type OrderServiceOption func(*OrderService)

func WithPaymentGateway(g PaymentGateway) OrderServiceOption {
	return func(s *OrderService) {
		if g != nil {
			s.gateway = g
		}
	}
}

func WithWebhookSecret(secret string) OrderServiceOption {
	return func(s *OrderService) { s.webhookSecret = []byte(secret) }
}

func WithOrderSideEffects(n Notifier, a AuditRecorder) OrderServiceOption {
	return func(s *OrderService) {
		if n != nil {
			s.notifier = n
		}
		if a != nil {
			s.audit = a
		}
	}
}

func NewOrderService(repo OrderRepository, tickets TicketIssuer, authz *Authorizer, clk clock.Clock, opts ...OrderServiceOption) *OrderService {
	svc := &OrderService{
		repo:     repo,
		tickets:  tickets,
		gateway:  LocalGateway{},
		authz:    authz,
		notifier: nopNotifier{},
		audit:    nopAudit{},
		clock:    clk,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

type ConfirmHoldInput struct {
	Actor          domain.Actor
	HoldID         string
	IdempotencyKey string
}

type ConfirmHoldResult struct {
	Order   domain.Order
	Created bool
	// Tickets issued by this call; only free orders issue on confirm.
	Tickets []domain.Ticket
}

func (s *OrderService) ConfirmHold(ctx context.Context, in ConfirmHoldInput) (ConfirmHoldResult, error) {
	if in.IdempotencyKey == "" {
		return ConfirmHoldResult{}, domain.ErrIdempotencyKeyRequired
	}
	if in.Actor.UserID == "" {
		return ConfirmHoldResult{}, domain.ErrUnauthenticated
	}

	now := s.clock.Now()
	var result ConfirmHoldResult

	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		hold, err := s.repo.GetHoldForUpdate(txCtx, in.HoldID)
		if err != nil {
			return err
		}
		if hold.UserID != "" && hold.UserID != in.Actor.UserID {
			return domain.ErrForbidden
		}

		existing, err := s.repo.GetOrderByHoldID(txCtx, in.HoldID)
		if err != nil {
			return err
		}
		if existing != nil {
			if existing.IdempotencyKey == in.IdempotencyKey {
				result = ConfirmHoldResult{Order: *existing, Created: false}
				return nil
			}
			return domain.ErrHoldAlreadyConfirmed
		}

		if hold.Status == domain.HoldStatusConfirmed {
			return domain.ErrHoldAlreadyConfirmed
		}
		if hold.Status == domain.HoldStatusExpired || !hold.ExpiresAt.After(now) {
			return domain.ErrHoldExpired
		}

		event, err := s.repo.GetEvent(txCtx, hold.EventID)
		if err != nil {
			return err
		}
		if !event.OnSale() {
			return domain.ErrEventNotOnSale
		}
		zone, err := s.repo.GetZone(txCtx, hold.ZoneID, now)
		if err != nil {
			return err
		}

		order := domain.Order{
			ID:             newUUID(),
			HoldID:         in.HoldID,
			EventID:        hold.EventID,
			UserID:         in.Actor.UserID,
			Quantity:       hold.Quantity,
			AmountCents:    int64(hold.Quantity) * zone.PriceCents,
			Currency:       event.Currency,
			Status:         domain.OrderStatusPending,
			IdempotencyKey: in.IdempotencyKey,
			CreatedAt:      now,
		}
		if order.AmountCents == 0 {
			order.Status = domain.OrderStatusPaid
			order.PaidAt = &now
		}

		if err := s.repo.CreateOrder(txCtx, order); err != nil {
			// Re-check for the same idempotency key when a concurrent confirm wins the race.
			if errors.Is(err, domain.ErrHoldAlreadyConfirmed) {
				existing, err := s.repo.GetOrderByHoldID(txCtx, in.HoldID)
				if err != nil {
					return err
				}
				if existing != nil && existing.IdempotencyKey == in.IdempotencyKey {
					result = ConfirmHoldResult{Order: *existing, Created: false}
					return nil
				}
			}
			return err
		}
		if err := s.repo.UpdateHoldStatus(txCtx, in.HoldID, domain.HoldStatusConfirmed); err != nil {
			return err
		}

		result = ConfirmHoldResult{Order: order, Created: true}
		if order.Status == domain.OrderStatusPaid {
			issued, err := s.completeOrder(txCtx, order, hold, event)
			if err != nil {
				return err
			}
			result.Tickets = issued
		}
		return nil
	})
	if err != nil {
		return ConfirmHoldResult{}, err
	}
	return result, nil
}

// completeOrder issues tickets for a paid order and tells the buyer.
func (s *OrderService) completeOrder(ctx context.Context, order domain.Order, hold domain.Hold, event domain.Event) ([]domain.Ticket, error) {
	issued, err := s.tickets.IssueTickets(ctx, order, hold)
	if err != nil {
		return nil, err
	}
	if order.UserID != "" {
		if err := s.notifier.Notify(ctx, order.UserID, domain.NotificationOrderPaid,
			"Your tickets for "+event.Name,
			"Your order is confirmed. Your tickets are ready."); err != nil {
			return nil, err
		}
	}
	return issued, nil
}

// StartPayment opens a payment for a pending order. Repeated calls return
// the payment that is still pending.
func (s *OrderService) StartPayment(ctx context.Context, actor domain.Actor, orderID string) (domain.Payment, error) {
	if actor.UserID == "" {
		return domain.Payment{}, domain.ErrUnauthenticated
	}
	var result domain.Payment
	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		order, err := s.repo.GetOrderForUpdate(txCtx, orderID)
		if err != nil {
			return err
		}
		if order.UserID != actor.UserID {
			return domain.ErrOrderNotFound
		}
		if order.Status != domain.OrderStatusPending {
			return domain.ErrOrderNotPayable
		}
		if pending, err := s.repo.GetPendingPayment(txCtx, orderID); err != nil {
			return err
		} else if pending != nil {
			result = *pending
			return nil
		}

		ref, err := s.gateway.CreatePayment(txCtx, order)
		if err != nil {
			return err
		}
		payment := domain.Payment{
			ID:          newUUID(),
			OrderID:     order.ID,
			ProviderRef: ref,
			AmountCents: order.AmountCents,
			Currency:    order.Currency,
			Status:      domain.PaymentStatusPending,
			CreatedAt:   s.clock.Now(),
		}
		if err := s.repo.CreatePayment(txCtx, payment); err != nil {
			return err
		}
		result = payment
		return nil
	})
	if err != nil {
		return domain.Payment{}, err
	}
	return result, nil
}

type paymentWebhook struct {
	ProviderRef string `json:"provider_ref"`
	Status      string `json:"status"`
}

type WebhookResult struct {
	OrderID       string
	Status        domain.PaymentStatus
	TicketsIssued int
	// Duplicate is set when the payment had already reached a final state.
	Duplicate bool
}

// SignWebhook returns the hex HMAC-SHA256 of body, the signature expected by
// HandlePaymentWebhook.
func SignWebhook(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func (s *OrderService) HandlePaymentWebhook(ctx context.Context, body []byte, signature string) (WebhookResult, error) {
	if len(s.webhookSecret) == 0 {
		return WebhookResult{}, domain.ErrInvalidSignature
	}
	got, err := hex.DecodeString(strings.TrimSpace(signature))
	if err != nil {
		return WebhookResult{}, domain.ErrInvalidSignature
	}
	mac := hmac.New(sha256.New, s.webhookSecret)
	mac.Write(body)
	if !hmac.Equal(got, mac.Sum(nil)) {
		return WebhookResult{}, domain.ErrInvalidSignature
	}

	var msg paymentWebhook
	if err := json.Unmarshal(body, &msg); err != nil || msg.ProviderRef == "" {
		return WebhookResult{}, domain.ErrPaymentNotFound
	}
	status := domain.PaymentStatus(msg.Status)
	if status != domain.PaymentStatusSucceeded && status != domain.PaymentStatusFailed {
		return WebhookResult{}, domain.ErrInvalidTransition
	}

	var result WebhookResult
	err = s.repo.WithTx(ctx, func(txCtx context.Context) error {
		payment, err := s.repo.GetPaymentByProviderRefForUpdate(txCtx, msg.ProviderRef)
		if err != nil {
			return err
		}
		result = WebhookResult{OrderID: payment.OrderID, Status: payment.Status}
		if payment.Status != domain.PaymentStatusPending {
			result.Duplicate = true
			return nil
		}
		if err := s.repo.SetPaymentStatus(txCtx, payment.ID, status); err != nil {
			return err
		}
		result.Status = status
		if status == domain.PaymentStatusFailed {
			return nil
		}

		order, err := s.repo.GetOrderForUpdate(txCtx, payment.OrderID)
		if err != nil {
			return err
		}
		if order.Status != domain.OrderStatusPending {
			return nil
		}
		now := s.clock.Now()
		if err := s.repo.MarkOrderPaid(txCtx, order.ID, now); err != nil {
			return err
		}
		order.Status = domain.OrderStatusPaid
		order.PaidAt = &now

		hold, err := s.repo.GetHoldForUpdate(txCtx, order.HoldID)
		if err != nil {
			return err
		}
		event, err := s.repo.GetEvent(txCtx, order.EventID)
		if err != nil {
			return err
		}
		issued, err := s.completeOrder(txCtx, order, hold, event)
		if err != nil {
			return err
		}
		result.TicketsIssued = len(issued)
		return nil
	})
	if err != nil {
		return WebhookResult{}, err
	}
	return result, nil
}

// GetOrder is visible to the buyer, members of the event's organization and
// administrators.
func (s *OrderService) GetOrder(ctx context.Context, actor domain.Actor, orderID string) (domain.Order, error) {
	if actor.UserID == "" {
		return domain.Order{}, domain.ErrUnauthenticated
	}
	order, err := s.repo.GetOrder(ctx, orderID)
	if err != nil {
		return domain.Order{}, err
	}
	if order.UserID == actor.UserID {
		return order, nil
	}
	event, err := s.repo.GetEvent(ctx, order.EventID)
	if err != nil {
		return domain.Order{}, err
	}
	if _, err := s.authz.Require(ctx, actor, event.OrgID); err != nil {
		if errors.Is(err, domain.ErrForbidden) {
			return domain.Order{}, domain.ErrOrderNotFound
		}
		return domain.Order{}, err
	}
	return order, nil
}

func (s *OrderService) ListMyOrders(ctx context.Context, actor domain.Actor, p pagination.Params) (pagination.Page[domain.Order], error) {
	if actor.UserID == "" {
		return pagination.Page[domain.Order]{}, domain.ErrUnauthenticated
	}
	orders, total, err := s.repo.ListOrdersByUser(ctx, actor.UserID, p)
	if err != nil {
		return pagination.Page[domain.Order]{}, err
	}
	return pagination.NewPage(orders, p, total), nil
}

// Refund is the organizer-facing refund, limited to owner and finance roles.
func (s *OrderService) Refund(ctx context.Context, actor domain.Actor, orderID string) (domain.Order, error) {
	var result domain.Order
	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		order, err := s.repo.GetOrderForUpdate(txCtx, orderID)
		if err != nil {
			return err
		}
		event, err := s.repo.GetEvent(txCtx, order.EventID)
		if err != nil {
			return err
		}
		if _, err := s.authz.Require(txCtx, actor, event.OrgID, RolesFinance...); err != nil {
			return err
		}
		result, err = s.refundLocked(txCtx, actor.UserID, order, event)
		return err
	})
	if err != nil {
		return domain.Order{}, err
	}
	return result, nil
}

// RefundOrder refunds without a permission check. Callers authorize first.
func (s *OrderService) RefundOrder(ctx context.Context, actorID, orderID string) (domain.Order, error) {
	var result domain.Order
	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		order, err := s.repo.GetOrderForUpdate(txCtx, orderID)
		if err != nil {
			return err
		}
		event, err := s.repo.GetEvent(txCtx, order.EventID)
		if err != nil {
			return err
		}
		result, err = s.refundLocked(txCtx, actorID, order, event)
		return err
	})
	if err != nil {
		return domain.Order{}, err
	}
	return result, nil
}

// refundLocked voids every ticket of the order, including checked-in ones,
// and returns the inventory to sale.
func (s *OrderService) refundLocked(ctx context.Context, actorID string, order domain.Order, event domain.Event) (domain.Order, error) {
	if order.Status != domain.OrderStatusPaid {
		return domain.Order{}, domain.ErrOrderNotPaid
	}
	if err := s.repo.SetOrderStatus(ctx, order.ID, domain.OrderStatusRefunded); err != nil {
		return domain.Order{}, err
	}
	voided, err := s.tickets.VoidOrderTickets(ctx, order.ID)
	if err != nil {
		return domain.Order{}, err
	}
	if err := s.repo.UpdateHoldStatus(ctx, order.HoldID, domain.HoldStatusExpired); err != nil {
		return domain.Order{}, err
	}
	order.Status = domain.OrderStatusRefunded

	if order.UserID != "" {
		if err := s.notifier.Notify(ctx, order.UserID, domain.NotificationOrderRefunded,
			"Refund for "+event.Name,
			"Your order was refunded and its tickets are no longer valid."); err != nil {
			return domain.Order{}, err
		}
	}
	if err := s.audit.Record(ctx, domain.AuditEntry{
		OrgID:      event.OrgID,
		ActorID:    actorID,
		Action:     "order.refunded",
		Resource:   "order",
		ResourceID: order.ID,
		Metadata:   map[string]any{"amount_cents": order.AmountCents, "currency": order.Currency, "tickets_voided": voided},
	}); err != nil {
		return domain.Order{}, err
	}
	return order, nil
}
