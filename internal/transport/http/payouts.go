package http

import (
	"context"
	"net/http"

	"github.com/obichijioke/eventapp/internal/app"
	"github.com/obichijioke/eventapp/internal/domain"
	"github.com/obichijioke/eventapp/internal/money"
	"github.com/obichijioke/eventapp/internal/pagination"
)

type PayoutService interface {
	Balance(ctx context.Context, actor domain.Actor, orgID string) ([]domain.Balance, error)
	RequestPayout(ctx context.Context, actor domain.Actor, in app.RequestPayoutInput) (domain.Payout, error)
	ListPayouts(ctx context.Context, actor domain.Actor, orgID string, p pagination.Params) (pagination.Page[domain.Payout], error)
	ApprovePayout(ctx context.Context, actor domain.Actor, payoutID string) (domain.Payout, error)
	RejectPayout(ctx context.Context, actor domain.Actor, payoutID, note string) (domain.Payout, error)
	MarkPayoutPaid(ctx context.Context, actor domain.Actor, payoutID string) (domain.Payout, error)
}

type requestPayoutRequest struct {
	AmountCents int64  `json:"amount_cents" validate:"gt=0"`
	Currency    string `json:"currency" validate:"required,len=3,alpha"`
	Note        string `json:"note" validate:"max=500"`
}

type rejectPayoutRequest struct {
	Note string `json:"note" validate:"max=500"`
}

func toBalanceResponse(b domain.Balance) balanceResponse {
	formatted, err := money.Format(b.AvailableCents, b.Currency)
	if err != nil {
		formatted = ""
	}
	return balanceResponse{
		Currency:       b.Currency,
		GrossCents:     b.GrossCents,
		FeeCents:       b.FeeCents,
		NetCents:       b.NetCents,
		ReservedCents:  b.ReservedCents,
		AvailableCents: b.AvailableCents,
		Available:      formatted,
	}
}

func HandleBalance(svc PayoutService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		balances, err := svc.Balance(r.Context(), actorFrom(r.Context()), r.PathValue("orgID"))
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, mapSlice(balances, toBalanceResponse))
	}
}

func HandleRequestPayout(svc PayoutService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req requestPayoutRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		p, err := svc.RequestPayout(r.Context(), actorFrom(r.Context()), app.RequestPayoutInput{
			OrgID:       r.PathValue("orgID"),
			AmountCents: req.AmountCents,
			Currency:    req.Currency,
			Note:        req.Note,
		})
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, toPayoutResponse(p))
	}
}

func HandleListPayouts(svc PayoutService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, err := svc.ListPayouts(r.Context(), actorFrom(r.Context()), r.PathValue("orgID"), pageParams(r))
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, newPageResponse(page, toPayoutResponse))
	}
}

func HandleApprovePayout(svc PayoutService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := svc.ApprovePayout(r.Context(), actorFrom(r.Context()), r.PathValue("payoutID"))
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, toPayoutResponse(p))
	}
}

// HandleRejectPayout accepts an optional JSON body carrying the note.
func HandleRejectPayout(svc PayoutService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req rejectPayoutRequest
		if r.ContentLength != 0 && !decodeJSON(w, r, &req) {
			return
		}
		p, err := svc.RejectPayout(r.Context(), actorFrom(r.Context()), r.PathValue("payoutID"), req.Note)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, toPayoutResponse(p))
	}
}

func HandleMarkPayoutPaid(svc PayoutService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := svc.MarkPayoutPaid(r.Context(), actorFrom(r.Context()), r.PathValue("payoutID"))
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, toPayoutResponse(p))
	}
}
