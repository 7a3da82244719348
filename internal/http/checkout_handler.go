package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/fjod/go_cart/storefront/internal/checkout"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type CheckoutService interface {
	Start(ctx context.Context, userID string) (checkout.View, error)
	Get(userID string, id uuid.UUID) (checkout.View, error)
	Cancel(userID string, id uuid.UUID) error
	SelectShippingAddress(ctx context.Context, userID string, id uuid.UUID, addressID int64) (checkout.View, error)
	SelectBillingAddress(ctx context.Context, userID string, id uuid.UUID, addressID int64) (checkout.View, error)
	SelectPaymentMethod(ctx context.Context, userID string, id uuid.UUID, cardID int64) (checkout.View, error)
	Next(ctx context.Context, userID string, id uuid.UUID) (checkout.View, error)
	Back(userID string, id uuid.UUID) (checkout.View, error)
	Confirm(ctx context.Context, userID string, id uuid.UUID) (checkout.View, error)
}

type CheckoutHandler struct {
	checkout CheckoutService
	timeout  time.Duration
}

func NewCheckoutHandler(svc CheckoutService, timeout time.Duration) *CheckoutHandler {
	return &CheckoutHandler{
		checkout: svc,
		timeout:  timeout,
	}
}

type SelectAddressRequestDTO struct {
	AddressID int64 `json:"address_id"`
}

type SelectCardRequestDTO struct {
	CardID int64 `json:"card_id"`
}

// POST /api/v1/checkout
func (h *CheckoutHandler) Start(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	view, err := h.checkout.Start(ctx, getUserIDFromContext(r.Context()))
	if err != nil {
		handleError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, view)
}

// GET /api/v1/checkout/{checkout_id}
func (h *CheckoutHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := checkoutID(w, r)
	if !ok {
		return
	}

	view, err := h.checkout.Get(getUserIDFromContext(r.Context()), id)
	if err != nil {
		handleError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, view)
}

// DELETE /api/v1/checkout/{checkout_id}
func (h *CheckoutHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	id, ok := checkoutID(w, r)
	if !ok {
		return
	}

	if err := h.checkout.Cancel(getUserIDFromContext(r.Context()), id); err != nil {
		handleError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// PUT /api/v1/checkout/{checkout_id}/shipping-address
func (h *CheckoutHandler) SelectShippingAddress(w http.ResponseWriter, r *http.Request) {
	h.selectAddress(w, r, h.checkout.SelectShippingAddress)
}

// PUT /api/v1/checkout/{checkout_id}/billing-address
func (h *CheckoutHandler) SelectBillingAddress(w http.ResponseWriter, r *http.Request) {
	h.selectAddress(w, r, h.checkout.SelectBillingAddress)
}

type selectFunc func(ctx context.Context, userID string, id uuid.UUID, targetID int64) (checkout.View, error)

func (h *CheckoutHandler) selectAddress(w http.ResponseWriter, r *http.Request, sel selectFunc) {
	id, ok := checkoutID(w, r)
	if !ok {
		return
	}

	var req SelectAddressRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.AddressID <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_address_id", "address_id must be positive")
		return
	}

	h.respondView(w, r, func(ctx context.Context, userID string) (checkout.View, error) {
		return sel(ctx, userID, id, req.AddressID)
	})
}

// PUT /api/v1/checkout/{checkout_id}/payment-method
func (h *CheckoutHandler) SelectPaymentMethod(w http.ResponseWriter, r *http.Request) {
	id, ok := checkoutID(w, r)
	if !ok {
		return
	}

	var req SelectCardRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.CardID <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_card_id", "card_id must be positive")
		return
	}

	h.respondView(w, r, func(ctx context.Context, userID string) (checkout.View, error) {
		return h.checkout.SelectPaymentMethod(ctx, userID, id, req.CardID)
	})
}

// POST /api/v1/checkout/{checkout_id}/next
func (h *CheckoutHandler) Next(w http.ResponseWriter, r *http.Request) {
	id, ok := checkoutID(w, r)
	if !ok {
		return
	}

	h.respondView(w, r, func(ctx context.Context, userID string) (checkout.View, error) {
		return h.checkout.Next(ctx, userID, id)
	})
}

// POST /api/v1/checkout/{checkout_id}/back
func (h *CheckoutHandler) Back(w http.ResponseWriter, r *http.Request) {
	id, ok := checkoutID(w, r)
	if !ok {
		return
	}

	h.respondView(w, r, func(_ context.Context, userID string) (checkout.View, error) {
		return h.checkout.Back(userID, id)
	})
}

// POST /api/v1/checkout/{checkout_id}/confirm
func (h *CheckoutHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	id, ok := checkoutID(w, r)
	if !ok {
		return
	}

	h.respondView(w, r, func(ctx context.Context, userID string) (checkout.View, error) {
		return h.checkout.Confirm(ctx, userID, id)
	})
}

// respondView answers 202 while an order submission is still running.
func (h *CheckoutHandler) respondView(w http.ResponseWriter, r *http.Request, fn func(context.Context, string) (checkout.View, error)) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	view, err := fn(ctx, getUserIDFromContext(r.Context()))
	if err != nil {
		handleError(w, err)
		return
	}

	status := http.StatusOK
	if view.Submitting {
		status = http.StatusAccepted
	}
	respondJSON(w, status, view)
}

func checkoutID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "checkout_id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_checkout_id", "checkout_id must be a UUID")
		return uuid.Nil, false
	}
	return id, true
}
