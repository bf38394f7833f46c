package http

import (
	"context"
	"net/http"
	"strconv"

	"github.com/obichijioke/eventapp/internal/domain"
	"github.com/obichijioke/eventapp/internal/pagination"
)

const (
	defaultQRSize = 256
	maxQRSize     = 1024
)

type TicketService interface {
	ListMyTickets(ctx context.Context, actor domain.Actor, p pagination.Params) (pagination.Page[domain.Ticket], error)
	GetTicket(ctx context.Context, actor domain.Actor, ticketID string) (domain.Ticket, error)
	TicketQR(ctx context.Context, actor domain.Actor, ticketID string, size int) ([]byte, error)
}

func HandleListMyTickets(svc TicketService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, err := svc.ListMyTickets(r.Context(), actorFrom(r.Context()), pageParams(r))
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, newPageResponse(page, toTicketResponse))
	}
}

func HandleGetTicket(svc TicketService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t, err := svc.GetTicket(r.Context(), actorFrom(r.Context()), r.PathValue("ticketID"))
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, toTicketResponse(t))
	}
}

// HandleTicketQR serves the ticket barcode as a PNG; ?size= picks the edge
// length in pixels.
func HandleTicketQR(svc TicketService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		size := defaultQRSize
		if raw := r.URL.Query().Get("size"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 64 || n > maxQRSize {
				writeError(w, http.StatusBadRequest, codeValidationFailed, "size must be between 64 and 1024")
				return
			}
			size = n
		}
		png, err := svc.TicketQR(r.Context(), actorFrom(r.Context()), r.PathValue("ticketID"), size)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Cache-Control", "private, max-age=300")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(png)
	}
}
