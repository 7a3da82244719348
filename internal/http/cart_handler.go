package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/fjod/go_cart/storefront/internal/cart"
	"github.com/fjod/go_cart/storefront/internal/domain"
)

type CartService interface {
	Store(ctx context.Context, userID string) (*cart.Store, error)
	AddProduct(ctx context.Context, userID string, productID int64) (domain.CartSnapshot, error)
}

type CartHandler struct {
	carts   CartService
	timeout time.Duration
}

func NewCartHandler(carts CartService, timeout time.Duration) *CartHandler {
	return &CartHandler{
		carts:   carts,
		timeout: timeout,
	}
}

type AddItemRequestDTO struct {
	ProductID int64 `json:"product_id"`
}

type UpdateQuantityRequestDTO struct {
	Quantity *int `json:"quantity"`
}

type SelectAllRequestDTO struct {
	Selected *bool `json:"selected"`
}

// GET /api/v1/cart
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	h.withStore(w, r, http.StatusOK, func(*cart.Store) {})
}

// POST /api/v1/cart/items
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req AddItemRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.ProductID <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id must be positive")
		return
	}

	snap, err := h.carts.AddProduct(ctx, getUserIDFromContext(r.Context()), req.ProductID)
	if err != nil {
		handleError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, snap)
}

// PUT /api/v1/cart/items/{product_id}
func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	productID, ok := parseIDParam(r, "product_id")
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id must be a positive integer")
		return
	}

	var req UpdateQuantityRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Quantity == nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "quantity is required")
		return
	}

	h.withStore(w, r, http.StatusOK, func(st *cart.Store) {
		st.SetQuantity(productID, *req.Quantity)
	})
}

// DELETE /api/v1/cart/items/{product_id}
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	productID, ok := parseIDParam(r, "product_id")
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id must be a positive integer")
		return
	}

	h.withStore(w, r, http.StatusOK, func(st *cart.Store) {
		st.Remove(productID)
	})
}

// POST /api/v1/cart/items/{product_id}/toggle
func (h *CartHandler) ToggleSelected(w http.ResponseWriter, r *http.Request) {
	productID, ok := parseIDParam(r, "product_id")
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id must be a positive integer")
		return
	}

	h.withStore(w, r, http.StatusOK, func(st *cart.Store) {
		st.ToggleSelected(productID)
	})
}

// PUT /api/v1/cart/selection
func (h *CartHandler) SelectAll(w http.ResponseWriter, r *http.Request) {
	var req SelectAllRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Selected == nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "selected is required")
		return
	}

	h.withStore(w, r, http.StatusOK, func(st *cart.Store) {
		st.SelectAll(*req.Selected)
	})
}

// DELETE /api/v1/cart/selected
func (h *CartHandler) ClearSelected(w http.ResponseWriter, r *http.Request) {
	h.withStore(w, r, http.StatusOK, func(st *cart.Store) {
		st.ClearSelected()
	})
}

// DELETE /api/v1/cart
func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	h.withStore(w, r, http.StatusOK, func(st *cart.Store) {
		st.Clear()
	})
}

// withStore applies fn to the caller's cart and responds with the resulting snapshot.
func (h *CartHandler) withStore(w http.ResponseWriter, r *http.Request, status int, fn func(*cart.Store)) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	st, err := h.carts.Store(ctx, getUserIDFromContext(r.Context()))
	if err != nil {
		handleError(w, err)
		return
	}

	fn(st)
	respondJSON(w, status, st.Snapshot())
}
