package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/obichijioke/eventapp/internal/clock"
	"github.com/obichijioke/eventapp/internal/domain"
	"github.com/obichijioke/eventapp/internal/mail"
	"github.com/obichijioke/eventapp/internal/pagination"
)

type NotificationRepository interface {
	CreateNotification(ctx context.Context, n domain.Notification) error
	ListNotifications(ctx context.Context, userID string, unreadOnly bool, p pagination.Params) ([]domain.Notification, int, error)
	MarkRead(ctx context.Context, userID, notificationID string, at time.Time) (bool, error)
	MarkAllRead(ctx context.Context, userID string, at time.Time) (int, error)
	CountUnread(ctx context.Context, userID string) (int, error)
	ListUnsent(ctx context.Context, limit int) ([]domain.Notification, error)
	MarkEmailed(ctx context.Context, notificationID string, at time.Time) error
}

type NotificationService struct {
	repo  NotificationRepository
	clock clock.Clock
}

func NewNotificationService(repo NotificationRepository, clk clock.Clock) *NotificationService {
	return &NotificationService{repo: repo, clock: clk}
}

func (s *NotificationService) Notify(ctx context.Context, userID string, kind domain.NotificationKind, title, body string) error {
	return s.repo.CreateNotification(ctx, domain.Notification{
		ID:        newUUID(),
		UserID:    userID,
		Kind:      kind,
		Title:     title,
		Body:      body,
		CreatedAt: s.clock.Now(),
	})
}

func (s *NotificationService) List(ctx context.Context, actor domain.Actor, unreadOnly bool, p pagination.Params) (pagination.Page[domain.Notification], error) {
	if actor.UserID == "" {
		return pagination.Page[domain.Notification]{}, domain.ErrUnauthenticated
	}
	items, total, err := s.repo.ListNotifications(ctx, actor.UserID, unreadOnly, p)
	if err != nil {
		return pagination.Page[domain.Notification]{}, err
	}
	return pagination.NewPage(items, p, total), nil
}

// MarkRead marks one of the actor's notifications read. Reading an already
// read notification succeeds; someone else's is reported as not found.
func (s *NotificationService) MarkRead(ctx context.Context, actor domain.Actor, id string) error {
	if actor.UserID == "" {
		return domain.ErrUnauthenticated
	}
	ok, err := s.repo.MarkRead(ctx, actor.UserID, id, s.clock.Now())
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrNotificationNotFound
	}
	return nil
}

func (s *NotificationService) MarkAllRead(ctx context.Context, actor domain.Actor) (int, error) {
	if actor.UserID == "" {
		return 0, domain.ErrUnauthenticated
	}
	return s.repo.MarkAllRead(ctx, actor.UserID, s.clock.Now())
}

func (s *NotificationService) UnreadCount(ctx context.Context, actor domain.Actor) (int, error) {
	if actor.UserID == "" {
		return 0, domain.ErrUnauthenticated
	}
	return s.repo.CountUnread(ctx, actor.UserID)
}

type DeliveryReport struct {
	Sent   int
	Failed int
}

// DeliverPending emails up to limit notifications that have not been sent.
// A failed message stays pending and is retried on the next call.
func (s *NotificationService) DeliverPending(ctx context.Context, sender mail.Sender, limit int) (DeliveryReport, error) {
	pending, err := s.repo.ListUnsent(ctx, limit)
	if err != nil {
		return DeliveryReport{}, err
	}

	var report DeliveryReport
	for _, n := range pending {
		if ctx.Err() != nil {
			return report, ctx.Err()
		}
		err := sender.Send(ctx, mail.Message{To: n.Email, Subject: n.Title, Body: n.Body})
		if err != nil {
			report.Failed++
			slog.WarnContext(ctx, "notification email failed", "notification_id", n.ID, "error", err)
			continue
		}
		if err := s.repo.MarkEmailed(ctx, n.ID, s.clock.Now()); err != nil {
			return report, err
		}
		report.Sent++
	}
	return report, nil
}
