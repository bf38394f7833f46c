package http

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/obichijioke/eventapp/internal/domain"
)

func TestStatusFor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err    error
		status int
		code   string
		ok     bool
	}{
		{domain.ErrUnauthenticated, http.StatusUnauthorized, codeUnauthenticated, true},
		{domain.ErrForbidden, http.StatusForbidden, codeForbidden, true},
		{fmt.Errorf("%w: row 3", domain.ErrInvalidSeatmap), http.StatusBadRequest, "invalid_seatmap", true},
		{fmt.Errorf("load: %w", domain.ErrOrderNotFound), http.StatusNotFound, "order_not_found", true},
		{domain.ErrInsufficientCapacity, http.StatusConflict, codeInsufficientCapacity, true},
		{domain.ErrInsufficientBalance, http.StatusConflict, "insufficient_balance", true},
		{errors.New("connection reset"), http.StatusInternalServerError, codeInternalError, false},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			status, code, ok := statusFor(tt.err)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.code, code)
			assert.Equal(t, tt.ok, ok)
		})
	}
}

func TestWriteServiceError_HidesInternalDetail(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/orders", nil)
	rec := httptest.NewRecorder()

	writeServiceError(rec, req, errors.New("pq: password authentication failed"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	resp := decodeError(t, rec)
	assert.Equal(t, "internal error", resp.Error)
	assert.Equal(t, codeInternalError, resp.Code)
}
