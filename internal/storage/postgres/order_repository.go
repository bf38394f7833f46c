package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/obichijioke/eventapp/internal/domain"
	"github.com/obichijioke/eventapp/internal/pagination"
)

// OrderRepository stores orders and the payments collected against them.
type OrderRepository struct {
	db
}

func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{db: db{pool: pool}}
}

func (r *OrderRepository) GetHoldForUpdate(ctx context.Context, holdID string) (domain.Hold, error) {
	const query = `
SELECT id, event_id, zone_id, COALESCE(user_id::text, ''), quantity, status, expires_at, idempotency_key, created_at,
	ARRAY(SELECT seat_id::text FROM hold_seats WHERE hold_id = holds.id ORDER BY seat_id)
FROM holds
WHERE id = $1
FOR UPDATE`

	var h domain.Hold
	err := r.queryRow(ctx, query, holdID).
		Scan(&h.ID, &h.EventID, &h.ZoneID, &h.UserID, &h.Quantity, &h.Status, &h.ExpiresAt, &h.IdempotencyKey, &h.CreatedAt, &h.SeatIDs)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.Hold{}, domain.ErrInvalidID
		}
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Hold{}, domain.ErrHoldNotFound
		}
		return domain.Hold{}, fmt.Errorf("get hold: %w", err)
	}
	if len(h.SeatIDs) == 0 {
		h.SeatIDs = nil
	}
	return h, nil
}

func (r *OrderRepository) GetEvent(ctx context.Context, eventID string) (domain.Event, error) {
	return r.getEvent(ctx, eventID, false)
}

func (r *OrderRepository) GetZone(ctx context.Context, zoneID string, now time.Time) (domain.Zone, error) {
	return r.getZone(ctx, zoneID, now)
}

func (r *OrderRepository) GetOrderByHoldID(ctx context.Context, holdID string) (*domain.Order, error) {
	o, err := scanOrder(r.queryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE hold_id = $1`, holdID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get order: %w", err)
	}
	return &o, nil
}

func (r *OrderRepository) CreateOrder(ctx context.Context, order domain.Order) error {
	const stmt = `
INSERT INTO orders (id, hold_id, event_id, user_id, quantity, amount_cents, currency, status, idempotency_key, created_at, paid_at)
VALUES ($1, $2, $3, NULLIF($4, '')::uuid, $5, $6, $7, $8, $9, $10, $11)`

	_, err := r.exec(ctx, stmt, order.ID, order.HoldID, order.EventID, order.UserID, order.Quantity,
		order.AmountCents, order.Currency, order.Status, order.IdempotencyKey, order.CreatedAt, order.PaidAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrHoldAlreadyConfirmed
		}
		return fmt.Errorf("create order: %w", err)
	}
	return nil
}

func (r *OrderRepository) UpdateHoldStatus(ctx context.Context, holdID string, status domain.HoldStatus) error {
	const stmt = `UPDATE holds SET status = $2 WHERE id = $1`

	tag, err := r.exec(ctx, stmt, holdID, status)
	if err != nil {
		return fmt.Errorf("update hold status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrHoldNotFound
	}
	return nil
}

func (r *OrderRepository) GetOrder(ctx context.Context, orderID string) (domain.Order, error) {
	return r.getOrder(ctx, orderID, false)
}

func (r *OrderRepository) GetOrderForUpdate(ctx context.Context, orderID string) (domain.Order, error) {
	return r.getOrder(ctx, orderID, true)
}

func (r *OrderRepository) MarkOrderPaid(ctx context.Context, orderID string, at time.Time) error {
	tag, err := r.exec(ctx, `UPDATE orders SET status = 'paid', paid_at = $2 WHERE id = $1`, orderID, at)
	if err != nil {
		return fmt.Errorf("mark order paid: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrOrderNotFound
	}
	return nil
}

func (r *OrderRepository) SetOrderStatus(ctx context.Context, orderID string, status domain.OrderStatus) error {
	tag, err := r.exec(ctx, `UPDATE orders SET status = $2 WHERE id = $1`, orderID, status)
	if err != nil {
		return fmt.Errorf("set order status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrOrderNotFound
	}
	return nil
}

func (r *OrderRepository) ListOrdersByUser(ctx context.Context, userID string, p pagination.Params) ([]domain.Order, int, error) {
	p = p.Normalize()
	total, err := r.count(ctx, `SELECT COUNT(*) FROM orders WHERE user_id = $1`, userID)
	if err != nil {
		return nil, 0, err
	}
	rows, err := r.query(ctx, `SELECT `+orderColumns+` FROM orders WHERE user_id = $1
ORDER BY created_at DESC LIMIT $2 OFFSET $3`, userID, p.Limit, p.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("list orders: %w", err)
	}
	orders, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Order, error) {
		return scanOrder(row)
	})
	if err != nil {
		return nil, 0, fmt.Errorf("scan orders: %w", err)
	}
	return orders, total, nil
}

const paymentColumns = `id, order_id, provider_ref, amount_cents, currency, status, created_at`

func scanPayment(row pgx.Row) (domain.Payment, error) {
	var p domain.Payment
	err := row.Scan(&p.ID, &p.OrderID, &p.ProviderRef, &p.AmountCents, &p.Currency, &p.Status, &p.CreatedAt)
	return p, err
}

func (r *OrderRepository) CreatePayment(ctx context.Context, p domain.Payment) error {
	const stmt = `
INSERT INTO payments (id, order_id, provider_ref, amount_cents, currency, status, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`
	if _, err := r.exec(ctx, stmt, p.ID, p.OrderID, p.ProviderRef, p.AmountCents, p.Currency, p.Status, p.CreatedAt); err != nil {
		if isForeignKeyViolation(err) {
			return domain.ErrOrderNotFound
		}
		return fmt.Errorf("create payment: %w", err)
	}
	return nil
}

// GetPendingPayment returns the order's latest pending payment, or nil.
func (r *OrderRepository) GetPendingPayment(ctx context.Context, orderID string) (*domain.Payment, error) {
	const query = `SELECT ` + paymentColumns + ` FROM payments
WHERE order_id = $1 AND status = 'pending' ORDER BY created_at DESC LIMIT 1`
	p, err := scanPayment(r.queryRow(ctx, query, orderID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get pending payment: %w", err)
	}
	return &p, nil
}

func (r *OrderRepository) GetPaymentByProviderRefForUpdate(ctx context.Context, ref string) (domain.Payment, error) {
	p, err := scanPayment(r.queryRow(ctx, `SELECT `+paymentColumns+` FROM payments WHERE provider_ref = $1 FOR UPDATE`, ref))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Payment{}, domain.ErrPaymentNotFound
		}
		return domain.Payment{}, fmt.Errorf("get payment: %w", err)
	}
	return p, nil
}

func (r *OrderRepository) SetPaymentStatus(ctx context.Context, paymentID string, status domain.PaymentStatus) error {
	tag, err := r.exec(ctx, `UPDATE payments SET status = $2 WHERE id = $1`, paymentID, status)
	if err != nil {
		return fmt.Errorf("set payment status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrPaymentNotFound
	}
	return nil
}
