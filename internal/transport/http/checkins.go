package http

import (
	"context"
	"net/http"
	"time"

	"github.com/obichijioke/eventapp/internal/app"
	"github.com/obichijioke/eventapp/internal/domain"
	"github.com/obichijioke/eventapp/internal/metrics"
	"github.com/obichijioke/eventapp/internal/pagination"
)

type CheckInService interface {
	Scan(ctx context.Context, actor domain.Actor, eventID, code string) (app.ScanResult, error)
	Stats(ctx context.Context, actor domain.Actor, eventID string) (domain.CheckInStats, error)
	ListScans(ctx context.Context, actor domain.Actor, eventID string, p pagination.Params) (pagination.Page[domain.CheckIn], error)
}

type scanRequest struct {
	Code string `json:"code" validate:"required,max=512"`
}

type scanResponse struct {
	Result           string          `json:"result"`
	Ticket           *ticketResponse `json:"ticket,omitempty"`
	FirstCheckedInAt *time.Time      `json:"first_checked_in_at,omitempty"`
}

type checkInStatsResponse struct {
	TicketsIssued    int            `json:"tickets_issued"`
	TicketsCheckedIn int            `json:"tickets_checked_in"`
	ScansByResult    map[string]int `json:"scans_by_result"`
}

// HandleScan answers 200 for every recorded scan, rejected ones included;
// the door decision is in result.
func HandleScan(svc CheckInService, m *metrics.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req scanRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		res, err := svc.Scan(r.Context(), actorFrom(r.Context()), r.PathValue("eventID"), req.Code)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		if m != nil {
			m.CheckIns.WithLabelValues(string(res.Result)).Inc()
		}

		resp := scanResponse{Result: string(res.Result), FirstCheckedInAt: res.FirstCheckedInAt}
		if res.Ticket != nil {
			t := toTicketResponse(*res.Ticket)
			resp.Ticket = &t
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func HandleCheckInStats(svc CheckInService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := svc.Stats(r.Context(), actorFrom(r.Context()), r.PathValue("eventID"))
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		byResult := make(map[string]int, len(stats.ScansByResult))
		for k, v := range stats.ScansByResult {
			byResult[string(k)] = v
		}
		writeJSON(w, http.StatusOK, checkInStatsResponse{
			TicketsIssued:    stats.TicketsIssued,
			TicketsCheckedIn: stats.TicketsCheckedIn,
			ScansByResult:    byResult,
		})
	}
}

func HandleListScans(svc CheckInService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, err := svc.ListScans(r.Context(), actorFrom(r.Context()), r.PathValue("eventID"), pageParams(r))
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, newPageResponse(page, toCheckInResponse))
	}
}
