package http

import (
	"context"
	"net/http"

	"github.com/obichijioke/eventapp/internal/domain"
	"github.com/obichijioke/eventapp/internal/pagination"
)

// AdminService is the minimal interface needed for the platform admin
// endpoints.
type AdminService interface {
	ListAllEvents(ctx context.Context, actor domain.Actor, status domain.EventStatus, p pagination.Params) (pagination.Page[domain.Event], error)
	Stats(ctx context.Context, actor domain.Actor) (domain.PlatformStats, error)
}

type platformStatsResponse struct {
	Users             int              `json:"users"`
	Organizations     int              `json:"organizations"`
	Events            int              `json:"events"`
	PublishedEvents   int              `json:"published_events"`
	PaidOrders        int              `json:"paid_orders"`
	TicketsIssued     int              `json:"tickets_issued"`
	TicketsCheckedIn  int              `json:"tickets_checked_in"`
	PendingPayouts    int              `json:"pending_payouts"`
	OpenDisputes      int              `json:"open_disputes"`
	RevenueByCurrency map[string]int64 `json:"revenue_by_currency"`
}

// HandleAdminEvents lists events across all organizations, optionally
// filtered by ?status=.
func HandleAdminEvents(svc AdminService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := domain.EventStatus(r.URL.Query().Get("status"))
		page, err := svc.ListAllEvents(r.Context(), actorFrom(r.Context()), status, pageParams(r))
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, newPageResponse(page, toEventResponse))
	}
}

func HandleAdminStats(svc AdminService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := svc.Stats(r.Context(), actorFrom(r.Context()))
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		revenue := s.RevenueByCurrency
		if revenue == nil {
			revenue = map[string]int64{}
		}
		writeJSON(w, http.StatusOK, platformStatsResponse{
			Users:             s.Users,
			Organizations:     s.Organizations,
			Events:            s.Events,
			PublishedEvents:   s.PublishedEvents,
			PaidOrders:        s.PaidOrders,
			TicketsIssued:     s.TicketsIssued,
			TicketsCheckedIn:  s.TicketsCheckedIn,
			PendingPayouts:    s.PendingPayouts,
			OpenDisputes:      s.OpenDisputes,
			RevenueByCurrency: revenue,
		})
	}
}
