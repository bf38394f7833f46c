package http

import (
	"context"
	"net/http"

	"github.com/obichijioke/eventapp/internal/app"
	"github.com/obichijioke/eventapp/internal/domain"
)

// HoldCreator is the minimal interface needed to create a hold.
type HoldCreator interface {
	CreateHold(ctx context.Context, in app.CreateHoldInput) (domain.Hold, error)
}

// HandleCreateHold returns an HTTP handler for creating holds.
func HandleCreateHold(svc HoldCreator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createHoldRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		if req.IdempotencyKey == "" {
			req.IdempotencyKey = r.Header.Get(idempotencyHeader)
		}
		if err := req.validate(); err != nil {
			writeServiceError(w, r, err)
			return
		}

		hold, err := svc.CreateHold(r.Context(), app.CreateHoldInput{
			Actor:          actorFrom(r.Context()),
			EventID:        req.EventID,
			ZoneID:         req.ZoneID,
			Quantity:       req.Quantity,
			SeatIDs:        req.SeatIDs,
			IdempotencyKey: req.IdempotencyKey,
		})
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, toHoldResponse(hold))
	}
}

type createHoldRequest struct {
	EventID        string   `json:"event_id" validate:"required"`
	ZoneID         string   `json:"zone_id" validate:"required"`
	Quantity       int      `json:"quantity" validate:"gte=0,lte=50"`
	SeatIDs        []string `json:"seat_ids,omitempty" validate:"max=50,dive,required"`
	IdempotencyKey string   `json:"idempotency_key,omitempty" validate:"max=200"`
}

func (r createHoldRequest) validate() error {
	if r.IdempotencyKey == "" {
		return domain.ErrIdempotencyKeyRequired
	}
	if r.Quantity <= 0 && len(r.SeatIDs) == 0 {
		return domain.ErrInvalidQuantity
	}
	return nil
}
