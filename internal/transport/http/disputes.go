package http

import (
	"context"
	"net/http"

	"github.com/obichijioke/eventapp/internal/app"
	"github.com/obichijioke/eventapp/internal/domain"
	"github.com/obichijioke/eventapp/internal/pagination"
)

type DisputeService interface {
	OpenDispute(ctx context.Context, actor domain.Actor, orderID, reason string) (domain.Dispute, error)
	ListOrgDisputes(ctx context.Context, actor domain.Actor, orgID string, status domain.DisputeStatus, p pagination.Params) (pagination.Page[domain.Dispute], error)
	ResolveDispute(ctx context.Context, actor domain.Actor, in app.ResolveDisputeInput) (domain.Dispute, error)
}

type openDisputeRequest struct {
	Reason string `json:"reason" validate:"required,max=2000"`
}

type resolveDisputeRequest struct {
	Outcome    string `json:"outcome" validate:"required,oneof=refund reject"`
	Resolution string `json:"resolution" validate:"max=2000"`
}

func HandleOpenDispute(svc DisputeService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req openDisputeRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		d, err := svc.OpenDispute(r.Context(), actorFrom(r.Context()), r.PathValue("orderID"), req.Reason)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, toDisputeResponse(d))
	}
}

func HandleListOrgDisputes(svc DisputeService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := domain.DisputeStatus(r.URL.Query().Get("status"))
		switch status {
		case "", domain.DisputeStatusOpen, domain.DisputeStatusRefunded, domain.DisputeStatusRejected:
		default:
			writeServiceError(w, r, domain.ErrInvalidStatus)
			return
		}
		page, err := svc.ListOrgDisputes(r.Context(), actorFrom(r.Context()), r.PathValue("orgID"), status, pageParams(r))
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, newPageResponse(page, toDisputeResponse))
	}
}

func HandleResolveDispute(svc DisputeService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req resolveDisputeRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		d, err := svc.ResolveDispute(r.Context(), actorFrom(r.Context()), app.ResolveDisputeInput{
			DisputeID:  r.PathValue("disputeID"),
			Outcome:    domain.DisputeOutcome(req.Outcome),
			Resolution: req.Resolution,
		})
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, toDisputeResponse(d))
	}
}
