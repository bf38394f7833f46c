package http

import (
	"context"
	"net/http"

	"github.com/obichijioke/eventapp/internal/domain"
)

type SeatmapService interface {
	ReplaceSeatmap(ctx context.Context, actor domain.Actor, eventID string, layout domain.SeatmapLayout) ([]domain.Seat, error)
	GetSeatmap(ctx context.Context, actor domain.Actor, eventID string) ([]domain.Seat, error)
}

type seatmapRequest struct {
	Sections []seatmapSectionRequest `json:"sections" validate:"required,min=1,dive"`
}

type seatmapSectionRequest struct {
	ZoneID string              `json:"zone_id" validate:"required"`
	Name   string              `json:"name" validate:"required,max=100"`
	Rows   []seatmapRowRequest `json:"rows" validate:"required,min=1,dive"`
}

type seatmapRowRequest struct {
	Label string `json:"label" validate:"required,max=20"`
	Seats int    `json:"seats" validate:"gt=0,lte=500"`
}

func (req seatmapRequest) layout() domain.SeatmapLayout {
	var l domain.SeatmapLayout
	for _, s := range req.Sections {
		sec := domain.SeatmapSection{ZoneID: s.ZoneID, Name: s.Name}
		for _, row := range s.Rows {
			sec.Rows = append(sec.Rows, domain.SeatmapRow{Label: row.Label, Seats: row.Seats})
		}
		l.Sections = append(l.Sections, sec)
	}
	return l
}

func HandleGetSeatmap(svc SeatmapService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		seats, err := svc.GetSeatmap(r.Context(), actorFrom(r.Context()), r.PathValue("eventID"))
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, mapSlice(seats, toSeatResponse))
	}
}

func HandleReplaceSeatmap(svc SeatmapService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req seatmapRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		seats, err := svc.ReplaceSeatmap(r.Context(), actorFrom(r.Context()), r.PathValue("eventID"), req.layout())
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, mapSlice(seats, toSeatResponse))
	}
}
