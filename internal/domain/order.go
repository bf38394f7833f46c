package domain

import "time"

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusPaid      OrderStatus = "paid"
	OrderStatusRefunded  OrderStatus = "refunded"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// Order represents a purchase derived from a confirmed hold.
type Order struct {
	ID             string
	HoldID         string
	EventID        string
	UserID         string
	Quantity       int
	AmountCents    int64
	Currency       string
	Status         OrderStatus
	IdempotencyKey string
	CreatedAt      time.Time
	PaidAt         *time.Time
}

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusSucceeded PaymentStatus = "succeeded"
	PaymentStatusFailed    PaymentStatus = "failed"
)

// Payment tracks one attempt to collect an order's amount through the gateway.
type Payment struct {
	ID          string
	OrderID     string
	ProviderRef string
	AmountCents int64
	Currency    string
	Status      PaymentStatus
	CreatedAt   time.Time
}
