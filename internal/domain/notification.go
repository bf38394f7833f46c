package domain

import "time"

type NotificationKind string

const (
	NotificationOrderPaid      NotificationKind = "order.paid"
	NotificationOrderRefunded  NotificationKind = "order.refunded"
	NotificationEventCancelled NotificationKind = "event.cancelled"
	NotificationMemberAdded    NotificationKind = "member.added"
	NotificationPayoutUpdated  NotificationKind = "payout.updated"
	NotificationDisputeOpened  NotificationKind = "dispute.opened"
	NotificationDisputeClosed  NotificationKind = "dispute.resolved"
)

type Notification struct {
	ID        string
	UserID    string
	Kind      NotificationKind
	Title     string
	Body      string
	ReadAt    *time.Time
	EmailedAt *time.Time
	CreatedAt time.Time
	// Recipient address, populated for the mailer.
	Email string
}
