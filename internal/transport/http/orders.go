package http

import (
	"context"
	"io"
	"net/http"

	"github.com/obichijioke/eventapp/internal/app"
	"github.com/obichijioke/eventapp/internal/domain"
	"github.com/obichijioke/eventapp/internal/metrics"
	"github.com/obichijioke/eventapp/internal/pagination"
)

const (
	idempotencyHeader = "Idempotency-Key"
	signatureHeader   = "X-Signature"
)

// OrderService is the subset of the order service used by the checkout
// endpoints.
type OrderService interface {
	ConfirmHold(ctx context.Context, in app.ConfirmHoldInput) (app.ConfirmHoldResult, error)
	StartPayment(ctx context.Context, actor domain.Actor, orderID string) (domain.Payment, error)
	HandlePaymentWebhook(ctx context.Context, body []byte, signature string) (app.WebhookResult, error)
	GetOrder(ctx context.Context, actor domain.Actor, orderID string) (domain.Order, error)
	ListMyOrders(ctx context.Context, actor domain.Actor, p pagination.Params) (pagination.Page[domain.Order], error)
	Refund(ctx context.Context, actor domain.Actor, orderID string) (domain.Order, error)
}

type confirmHoldResponse struct {
	orderResponse
	Tickets []ticketResponse `json:"tickets,omitempty"`
}

// HandleConfirmHold returns an HTTP handler for confirming holds. A replay
// with the same key answers 200 with the original order.
func HandleConfirmHold(svc OrderService, m *metrics.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := r.Header.Get(idempotencyHeader)
		if key == "" {
			writeError(w, http.StatusBadRequest, codeIdempotencyRequired, domain.ErrIdempotencyKeyRequired.Error())
			return
		}

		res, err := svc.ConfirmHold(r.Context(), app.ConfirmHoldInput{
			Actor:          actorFrom(r.Context()),
			HoldID:         r.PathValue("holdID"),
			IdempotencyKey: key,
		})
		if err != nil {
			writeServiceError(w, r, err)
			return
		}

		status := http.StatusOK
		if res.Created {
			status = http.StatusCreated
			if m != nil {
				m.OrdersCreated.Inc()
				m.TicketsIssued.Add(float64(len(res.Tickets)))
			}
		}
		writeJSON(w, status, confirmHoldResponse{
			orderResponse: toOrderResponse(res.Order),
			Tickets:       mapSlice(res.Tickets, toTicketResponse),
		})
	}
}

func HandleStartPayment(svc OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payment, err := svc.StartPayment(r.Context(), actorFrom(r.Context()), r.PathValue("orderID"))
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, toPaymentResponse(payment))
	}
}

type webhookResponse struct {
	OrderID       string `json:"order_id"`
	Status        string `json:"status"`
	TicketsIssued int    `json:"tickets_issued"`
	Duplicate     bool   `json:"duplicate"`
}

// HandlePaymentWebhook verifies the provider signature over the raw body.
func HandlePaymentWebhook(svc OrderService, m *metrics.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
		if err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}
		res, err := svc.HandlePaymentWebhook(r.Context(), body, r.Header.Get(signatureHeader))
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		if m != nil {
			m.TicketsIssued.Add(float64(res.TicketsIssued))
		}
		writeJSON(w, http.StatusOK, webhookResponse{
			OrderID:       res.OrderID,
			Status:        string(res.Status),
			TicketsIssued: res.TicketsIssued,
			Duplicate:     res.Duplicate,
		})
	}
}

func HandleGetOrder(svc OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		order, err := svc.GetOrder(r.Context(), actorFrom(r.Context()), r.PathValue("orderID"))
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, toOrderResponse(order))
	}
}

func HandleListMyOrders(svc OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, err := svc.ListMyOrders(r.Context(), actorFrom(r.Context()), pageParams(r))
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, newPageResponse(page, toOrderResponse))
	}
}

func HandleRefundOrder(svc OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		order, err := svc.Refund(r.Context(), actorFrom(r.Context()), r.PathValue("orderID"))
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, toOrderResponse(order))
	}
}
