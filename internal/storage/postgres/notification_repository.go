package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/obichijioke/eventapp/internal/domain"
	"github.com/obichijioke/eventapp/internal/pagination"
)

type NotificationRepository struct {
	db
}

func NewNotificationRepository(pool *pgxpool.Pool) *NotificationRepository {
	return &NotificationRepository{db: db{pool: pool}}
}

const notificationColumns = `n.id, n.user_id, n.kind, n.title, n.body, n.read_at, n.emailed_at, n.created_at`

func scanNotification(row pgx.Row, extra ...any) (domain.Notification, error) {
	var n domain.Notification
	dest := append([]any{&n.ID, &n.UserID, &n.Kind, &n.Title, &n.Body, &n.ReadAt, &n.EmailedAt, &n.CreatedAt}, extra...)
	err := row.Scan(dest...)
	return n, err
}

func (r *NotificationRepository) CreateNotification(ctx context.Context, n domain.Notification) error {
	const stmt = `
INSERT INTO notifications (id, user_id, kind, title, body, created_at)
VALUES ($1, $2, $3, $4, $5, $6)`
	if _, err := r.exec(ctx, stmt, n.ID, n.UserID, n.Kind, n.Title, n.Body, n.CreatedAt); err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		if isForeignKeyViolation(err) {
			return domain.ErrUserNotFound
		}
		return fmt.Errorf("create notification: %w", err)
	}
	return nil
}

func (r *NotificationRepository) ListNotifications(ctx context.Context, userID string, unreadOnly bool, p pagination.Params) ([]domain.Notification, int, error) {
	p = p.Normalize()
	const filter = `WHERE n.user_id = $1 AND (NOT $2::boolean OR n.read_at IS NULL)`
	total, err := r.count(ctx, `SELECT COUNT(*) FROM notifications n `+filter, userID, unreadOnly)
	if err != nil {
		return nil, 0, err
	}
	rows, err := r.query(ctx, `SELECT `+notificationColumns+` FROM notifications n `+filter+`
ORDER BY n.created_at DESC LIMIT $3 OFFSET $4`, userID, unreadOnly, p.Limit, p.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("list notifications: %w", err)
	}
	items, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Notification, error) {
		return scanNotification(row)
	})
	if err != nil {
		return nil, 0, fmt.Errorf("scan notifications: %w", err)
	}
	return items, total, nil
}

// MarkRead marks one of the user's notifications read. It reports false when
// the notification does not belong to the user.
func (r *NotificationRepository) MarkRead(ctx context.Context, userID, notificationID string, at time.Time) (bool, error) {
	const stmt = `UPDATE notifications SET read_at = COALESCE(read_at, $3) WHERE id = $2 AND user_id = $1`
	tag, err := r.exec(ctx, stmt, userID, notificationID, at)
	if err != nil {
		if isInvalidUUID(err) {
			return false, domain.ErrInvalidID
		}
		return false, fmt.Errorf("mark read: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *NotificationRepository) MarkAllRead(ctx context.Context, userID string, at time.Time) (int, error) {
	tag, err := r.exec(ctx, `UPDATE notifications SET read_at = $2 WHERE user_id = $1 AND read_at IS NULL`, userID, at)
	if err != nil {
		return 0, fmt.Errorf("mark all read: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

func (r *NotificationRepository) CountUnread(ctx context.Context, userID string) (int, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND read_at IS NULL`, userID)
}

// ListUnsent returns the oldest notifications not yet emailed, with the
// recipient's address.
func (r *NotificationRepository) ListUnsent(ctx context.Context, limit int) ([]domain.Notification, error) {
	rows, err := r.query(ctx, `SELECT `+notificationColumns+`, u.email
FROM notifications n
JOIN users u ON u.id = n.user_id
WHERE n.emailed_at IS NULL
ORDER BY n.created_at ASC
LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list unsent: %w", err)
	}
	items, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Notification, error) {
		var email string
		n, err := scanNotification(row, &email)
		n.Email = email
		return n, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan unsent: %w", err)
	}
	return items, nil
}

func (r *NotificationRepository) MarkEmailed(ctx context.Context, notificationID string, at time.Time) error {
	if _, err := r.exec(ctx, `UPDATE notifications SET emailed_at = $2 WHERE id = $1`, notificationID, at); err != nil {
		return fmt.Errorf("mark emailed: %w", err)
	}
	return nil
}
