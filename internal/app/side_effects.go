package app

import (
	"context"

	"github.com/obichijioke/eventapp/internal/domain"
)

// Notifier records an in-app notification for a user. Called inside the
// caller's transaction so the notification commits with the change.
type Notifier interface {
	Notify(ctx context.Context, userID string, kind domain.NotificationKind, title, body string) error
}

// AuditRecorder appends to an organization's audit log.
type AuditRecorder interface {
	Record(ctx context.Context, entry domain.AuditEntry) error
}

type nopNotifier struct{}

func (nopNotifier) Notify(context.Context, string, domain.NotificationKind, string, string) error {
	return nil
}

type nopAudit struct{}

func (nopAudit) Record(context.Context, domain.AuditEntry) error { return nil }

func notifyAll(ctx context.Context, n Notifier, userIDs []string, kind domain.NotificationKind, title, body string) error {
	for _, id := range userIDs {
		if err := n.Notify(ctx, id, kind, title, body); err != nil {
			return err
		}
	}
	return nil
}
