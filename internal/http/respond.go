package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/fjod/go_cart/storefront/internal/checkout"
	"github.com/fjod/go_cart/storefront/internal/orders"
	"github.com/fjod/go_cart/storefront/internal/repository"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		zap.L().Warn("failed to encode response", zap.Error(err))
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}

// handleError maps service errors to HTTP statuses.
func handleError(w http.ResponseWriter, err error) {
	// an open breaker surfaces as a failed submission too
	if errors.Is(err, orders.ErrUnavailable) {
		respondError(w, http.StatusServiceUnavailable, "service_unavailable", err.Error())
		return
	}

	var submission *checkout.SubmissionError
	if errors.As(err, &submission) {
		respondJSON(w, http.StatusBadGateway, ErrorResponse{
			Error:   "order submission failed",
			Code:    "submission_failed",
			Details: submission.Reason,
		})
		return
	}

	var httpStatus int
	var code string

	switch {
	case errors.Is(err, repository.ErrProductNotFound):
		httpStatus, code = http.StatusNotFound, "product_not_found"
	case errors.Is(err, repository.ErrAddressNotFound):
		httpStatus, code = http.StatusNotFound, "address_not_found"
	case errors.Is(err, repository.ErrCardNotFound):
		httpStatus, code = http.StatusNotFound, "card_not_found"
	case errors.Is(err, checkout.ErrSessionNotFound):
		httpStatus, code = http.StatusNotFound, "checkout_not_found"
	case errors.Is(err, checkout.IncompleteAddressError):
		httpStatus, code = http.StatusUnprocessableEntity, "incomplete_address"
	case errors.Is(err, checkout.NoPaymentMethodError):
		httpStatus, code = http.StatusUnprocessableEntity, "no_payment_method"
	case errors.Is(err, checkout.ErrEmptyCart):
		httpStatus, code = http.StatusUnprocessableEntity, "empty_cart"
	case errors.Is(err, checkout.ErrWrongStep), errors.Is(err, checkout.IllegalTransitionError):
		httpStatus, code = http.StatusConflict, "wrong_step"
	case errors.Is(err, checkout.ErrSubmissionInProgress):
		httpStatus, code = http.StatusConflict, "submission_in_progress"
	case errors.Is(err, context.DeadlineExceeded):
		httpStatus, code = http.StatusGatewayTimeout, "timeout"
	default:
		zap.L().Error("request failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
		return
	}

	respondError(w, httpStatus, code, err.Error())
}

func parseIDParam(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
