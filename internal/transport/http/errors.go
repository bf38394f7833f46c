package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/obichijioke/eventapp/internal/domain"
)

const (
	codeMethodNotAllowed     = "method_not_allowed"
	codeNotFound             = "not_found"
	codeInvalidRequestBody   = "invalid_request_body"
	codeValidationFailed     = "validation_failed"
	codeInvalidID            = "invalid_id"
	codeInvalidTimestamp     = "invalid_timestamp"
	codeEventNameRequired    = "event_name_required"
	codeZoneNameRequired     = "zone_name_required"
	codeInvalidQuantity      = "invalid_quantity"
	codeInvalidCapacity      = "invalid_capacity"
	codeIdempotencyRequired  = "idempotency_key_required"
	codeIdempotencyConflict  = "idempotency_conflict"
	codeInsufficientCapacity = "insufficient_capacity"
	codeZoneNotFound         = "zone_not_found"
	codeEventNotFound        = "event_not_found"
	codeZoneAlreadyExists    = "zone_already_exists"
	codeHoldNotFound         = "hold_not_found"
	codeHoldExpired          = "hold_expired"
	codeHoldAlreadyConfirmed = "hold_already_confirmed"
	codeUnauthenticated      = "unauthenticated"
	codeForbidden            = "forbidden"
	codeRateLimited          = "rate_limited"
	codeInternalError        = "internal_error"
)

type errorResponse struct {
	Error  string       `json:"error"`
	Code   string       `json:"code"`
	Fields []fieldError `json:"fields,omitempty"`
}

type fieldError struct {
	Field string `json:"field"`
	Tag   string `json:"tag"`
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeErrorResponse(w, status, errorResponse{Error: msg, Code: code})
}

func writeErrorResponse(w http.ResponseWriter, status int, resp errorResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	payload, err := json.Marshal(resp)
	if err != nil {
		_, _ = w.Write([]byte(`{"error":"internal error","code":"internal_error"}`))
		return
	}
	_, _ = w.Write(payload)
}

type errorMapping struct {
	err    error
	status int
	code   string
}

// errorMappings is checked in order with errors.Is; the first match wins.
var errorMappings = []errorMapping{
	{domain.ErrUnauthenticated, http.StatusUnauthorized, codeUnauthenticated},
	{domain.ErrInvalidCredentials, http.StatusUnauthorized, "invalid_credentials"},
	{domain.ErrInvalidSignature, http.StatusUnauthorized, "invalid_signature"},
	{domain.ErrForbidden, http.StatusForbidden, codeForbidden},

	{domain.ErrInvalidID, http.StatusBadRequest, codeInvalidID},
	{domain.ErrInvalidQuantity, http.StatusBadRequest, codeInvalidQuantity},
	{domain.ErrIdempotencyKeyRequired, http.StatusBadRequest, codeIdempotencyRequired},
	{domain.ErrEventNameRequired, http.StatusBadRequest, codeEventNameRequired},
	{domain.ErrInvalidSchedule, http.StatusBadRequest, "invalid_schedule"},
	{domain.ErrInvalidCurrency, http.StatusBadRequest, "invalid_currency"},
	{domain.ErrZoneNameRequired, http.StatusBadRequest, codeZoneNameRequired},
	{domain.ErrInvalidCapacity, http.StatusBadRequest, codeInvalidCapacity},
	{domain.ErrInvalidPrice, http.StatusBadRequest, "invalid_price"},
	{domain.ErrSeatsRequired, http.StatusBadRequest, "seats_required"},
	{domain.ErrInvalidSeatmap, http.StatusBadRequest, "invalid_seatmap"},
	{domain.ErrInvalidEmail, http.StatusBadRequest, "invalid_email"},
	{domain.ErrWeakPassword, http.StatusBadRequest, "weak_password"},
	{domain.ErrInvalidSlug, http.StatusBadRequest, "invalid_slug"},
	{domain.ErrInvalidRole, http.StatusBadRequest, "invalid_role"},
	{domain.ErrInvalidAmount, http.StatusBadRequest, "invalid_amount"},
	{domain.ErrReasonRequired, http.StatusBadRequest, "reason_required"},
	{domain.ErrInvalidOutcome, http.StatusBadRequest, "invalid_outcome"},
	{domain.ErrInvalidTimeRange, http.StatusBadRequest, "invalid_time_range"},
	{domain.ErrInvalidStatus, http.StatusBadRequest, "invalid_status"},

	{domain.ErrEventNotFound, http.StatusNotFound, codeEventNotFound},
	{domain.ErrZoneNotFound, http.StatusNotFound, codeZoneNotFound},
	{domain.ErrSeatNotFound, http.StatusNotFound, "seat_not_found"},
	{domain.ErrHoldNotFound, http.StatusNotFound, codeHoldNotFound},
	{domain.ErrUserNotFound, http.StatusNotFound, "user_not_found"},
	{domain.ErrOrganizationMissing, http.StatusNotFound, "organization_not_found"},
	{domain.ErrOrderNotFound, http.StatusNotFound, "order_not_found"},
	{domain.ErrPaymentNotFound, http.StatusNotFound, "payment_not_found"},
	{domain.ErrTicketNotFound, http.StatusNotFound, "ticket_not_found"},
	{domain.ErrPayoutNotFound, http.StatusNotFound, "payout_not_found"},
	{domain.ErrDisputeNotFound, http.StatusNotFound, "dispute_not_found"},
	{domain.ErrNotificationNotFound, http.StatusNotFound, "notification_not_found"},

	{domain.ErrIdempotencyConflict, http.StatusConflict, codeIdempotencyConflict},
	{domain.ErrInsufficientCapacity, http.StatusConflict, codeInsufficientCapacity},
	{domain.ErrHoldExpired, http.StatusConflict, codeHoldExpired},
	{domain.ErrHoldAlreadyConfirmed, http.StatusConflict, codeHoldAlreadyConfirmed},
	{domain.ErrZoneAlreadyExists, http.StatusConflict, codeZoneAlreadyExists},
	{domain.ErrEventCancelled, http.StatusConflict, "event_cancelled"},
	{domain.ErrEventHasNoZones, http.StatusConflict, "event_has_no_zones"},
	{domain.ErrSeatedZoneEmpty, http.StatusConflict, "seated_zone_empty"},
	{domain.ErrEventNotOnSale, http.StatusConflict, "event_not_on_sale"},
	{domain.ErrCurrencyLocked, http.StatusConflict, "currency_locked"},
	{domain.ErrSeatUnavailable, http.StatusConflict, "seat_unavailable"},
	{domain.ErrSeatmapLocked, http.StatusConflict, "seatmap_locked"},
	{domain.ErrEmailTaken, http.StatusConflict, "email_taken"},
	{domain.ErrSlugTaken, http.StatusConflict, "slug_taken"},
	{domain.ErrOrderNotPayable, http.StatusConflict, "order_not_payable"},
	{domain.ErrOrderNotPaid, http.StatusConflict, "order_not_paid"},
	{domain.ErrInsufficientBalance, http.StatusConflict, "insufficient_balance"},
	{domain.ErrInvalidTransition, http.StatusConflict, "invalid_transition"},
	{domain.ErrDisputeExists, http.StatusConflict, "dispute_exists"},
	{domain.ErrDisputeClosed, http.StatusConflict, "dispute_closed"},
}

// statusFor resolves a service error to its HTTP status and code. ok is false
// for errors without a mapping.
func statusFor(err error) (status int, code string, ok bool) {
	for _, m := range errorMappings {
		if errors.Is(err, m.err) {
			return m.status, m.code, true
		}
	}
	return http.StatusInternalServerError, codeInternalError, false
}

// writeServiceError writes the mapped response for err. Unmapped errors are
// logged and reported as a generic 500.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status, code, ok := statusFor(err)
	if !ok {
		slog.ErrorContext(r.Context(), "request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err,
		)
		writeError(w, status, code, "internal error")
		return
	}
	writeError(w, status, code, err.Error())
}
