package http

import (
	"context"
	"net/http"

	"github.com/obichijioke/eventapp/internal/domain"
	"github.com/obichijioke/eventapp/internal/pagination"
)

type NotificationService interface {
	List(ctx context.Context, actor domain.Actor, unreadOnly bool, p pagination.Params) (pagination.Page[domain.Notification], error)
	MarkRead(ctx context.Context, actor domain.Actor, id string) error
	MarkAllRead(ctx context.Context, actor domain.Actor) (int, error)
	UnreadCount(ctx context.Context, actor domain.Actor) (int, error)
}

func HandleListNotifications(svc NotificationService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		unread := r.URL.Query().Get("unread") == "true"
		page, err := svc.List(r.Context(), actorFrom(r.Context()), unread, pageParams(r))
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, newPageResponse(page, toNotificationResponse))
	}
}

func HandleUnreadCount(svc NotificationService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		n, err := svc.UnreadCount(r.Context(), actorFrom(r.Context()))
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]int{"unread": n})
	}
}

func HandleMarkNotificationRead(svc NotificationService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.MarkRead(r.Context(), actorFrom(r.Context()), r.PathValue("id")); err != nil {
			writeServiceError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func HandleMarkAllNotificationsRead(svc NotificationService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		n, err := svc.MarkAllRead(r.Context(), actorFrom(r.Context()))
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]int{"updated": n})
	}
}
