package domain

import "errors"

var (
	ErrZoneNotFound           = errors.New("zone not found")
	ErrInsufficientCapacity   = errors.New("insufficient capacity")
	ErrInvalidQuantity        = errors.New("invalid quantity")
	ErrIdempotencyKeyRequired = errors.New("idempotency key required")
	ErrIdempotencyConflict    = errors.New("idempotency conflict")
	ErrHoldNotFound           = errors.New("hold not found")
	ErrHoldExpired            = errors.New("hold expired")
	ErrHoldAlreadyConfirmed   = errors.New("hold already confirmed")
	ErrInvalidID              = errors.New("invalid id")

	ErrEventNotFound     = errors.New("event not found")
	ErrEventNameRequired = errors.New("event name required")
	ErrInvalidSchedule   = errors.New("event must end after it starts")
	ErrEventCancelled    = errors.New("event cancelled")
	ErrEventHasNoZones   = errors.New("event has no zones")
	ErrSeatedZoneEmpty   = errors.New("seated zone has no seats")
	ErrEventNotOnSale    = errors.New("event not on sale")
	ErrCurrencyLocked    = errors.New("currency cannot change after publish")
	ErrInvalidCurrency   = errors.New("invalid currency")

	ErrZoneNameRequired  = errors.New("zone name required")
	ErrInvalidCapacity   = errors.New("invalid capacity")
	ErrInvalidPrice      = errors.New("invalid price")
	ErrZoneAlreadyExists = errors.New("zone already exists")

	ErrSeatNotFound    = errors.New("seat not found")
	ErrSeatUnavailable = errors.New("seat unavailable")
	ErrSeatsRequired   = errors.New("seat ids required for seated zone")
	ErrSeatmapLocked   = errors.New("seatmap can only change while event is a draft")
	ErrInvalidSeatmap  = errors.New("invalid seatmap")

	ErrUnauthenticated     = errors.New("unauthenticated")
	ErrForbidden           = errors.New("forbidden")
	ErrInvalidCredentials  = errors.New("invalid email or password")
	ErrEmailTaken          = errors.New("email already registered")
	ErrInvalidEmail        = errors.New("invalid email")
	ErrWeakPassword        = errors.New("password must be at least 8 characters")
	ErrUserNotFound        = errors.New("user not found")
	ErrOrganizationMissing = errors.New("organization not found")
	ErrSlugTaken           = errors.New("organization slug taken")
	ErrInvalidSlug         = errors.New("invalid organization slug")
	ErrInvalidRole         = errors.New("invalid role")

	ErrOrderNotFound    = errors.New("order not found")
	ErrOrderNotPayable  = errors.New("order not payable")
	ErrOrderNotPaid     = errors.New("order not paid")
	ErrPaymentNotFound  = errors.New("payment not found")
	ErrInvalidSignature = errors.New("invalid webhook signature")
	ErrTicketNotFound   = errors.New("ticket not found")

	ErrPayoutNotFound      = errors.New("payout not found")
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrInvalidTransition   = errors.New("invalid status transition")

	ErrDisputeNotFound      = errors.New("dispute not found")
	ErrDisputeExists        = errors.New("order already has an open dispute")
	ErrDisputeClosed        = errors.New("dispute already resolved")
	ErrReasonRequired       = errors.New("reason required")
	ErrInvalidOutcome       = errors.New("invalid dispute outcome")
	ErrNotificationNotFound = errors.New("notification not found")
	ErrInvalidTimeRange     = errors.New("until must not be before since")
	ErrInvalidStatus        = errors.New("invalid status filter")
)
