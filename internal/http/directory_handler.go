package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/repository"
)

type DirectoryHandler struct {
	directory repository.DirectoryRepository
	timeout   time.Duration
}

func NewDirectoryHandler(directory repository.DirectoryRepository, timeout time.Duration) *DirectoryHandler {
	return &DirectoryHandler{
		directory: directory,
		timeout:   timeout,
	}
}

type AddressRequestDTO struct {
	Title        string `json:"title"`
	Name         string `json:"name"`
	Surname      string `json:"surname"`
	Phone        string `json:"phone"`
	City         string `json:"city"`
	District     string `json:"district"`
	Neighborhood string `json:"neighborhood"`
	Address      string `json:"address"`
}

type CardRequestDTO struct {
	CardNumber  string `json:"card_number"`
	ExpireMonth int    `json:"expire_month"`
	ExpireYear  int    `json:"expire_year"`
	NameOnCard  string `json:"name_on_card"`
}

type CardResponseDTO struct {
	ID           int64            `json:"id"`
	MaskedNumber string           `json:"masked_number"`
	Brand        domain.CardBrand `json:"brand"`
	ExpireMonth  int              `json:"expire_month"`
	ExpireYear   int              `json:"expire_year"`
	NameOnCard   string           `json:"name_on_card"`
}

func (d AddressRequestDTO) validate() string {
	required := []struct{ name, value string }{
		{"title", d.Title},
		{"name", d.Name},
		{"surname", d.Surname},
		{"phone", d.Phone},
		{"city", d.City},
	}
	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			return f.name + " is required"
		}
	}
	return ""
}

func (d AddressRequestDTO) toDomain(userID string) *domain.Address {
	return &domain.Address{
		UserID:       userID,
		Title:        d.Title,
		Name:         d.Name,
		Surname:      d.Surname,
		Phone:        d.Phone,
		City:         d.City,
		District:     d.District,
		Neighborhood: d.Neighborhood,
		Line:         d.Address,
	}
}

func (d CardRequestDTO) validate() string {
	number := domain.NormalizeCardNumber(d.CardNumber)
	if len(number) < 12 || len(number) > 19 {
		return "card_number must have 12 to 19 digits"
	}
	for _, r := range number {
		if r < '0' || r > '9' {
			return "card_number must contain digits only"
		}
	}
	if d.ExpireMonth < 1 || d.ExpireMonth > 12 {
		return "expire_month must be between 1 and 12"
	}
	if d.ExpireYear < 2000 {
		return "expire_year must be 2000 or later"
	}
	if strings.TrimSpace(d.NameOnCard) == "" {
		return "name_on_card is required"
	}
	return ""
}

func (d CardRequestDTO) toDomain(userID string) *domain.Card {
	return &domain.Card{
		UserID:      userID,
		Number:      d.CardNumber,
		ExpireMonth: d.ExpireMonth,
		ExpireYear:  d.ExpireYear,
		NameOnCard:  d.NameOnCard,
	}
}

func convertCard(c *domain.Card) CardResponseDTO {
	return CardResponseDTO{
		ID:           c.ID,
		MaskedNumber: c.Masked(),
		Brand:        c.Brand(),
		ExpireMonth:  c.ExpireMonth,
		ExpireYear:   c.ExpireYear,
		NameOnCard:   c.NameOnCard,
	}
}

// GET /api/v1/addresses
func (h *DirectoryHandler) ListAddresses(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	addresses, err := h.directory.ListAddresses(ctx, getUserIDFromContext(r.Context()))
	if err != nil {
		handleError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, addresses)
}

// POST /api/v1/addresses
func (h *DirectoryHandler) CreateAddress(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req AddressRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if msg := req.validate(); msg != "" {
		respondError(w, http.StatusBadRequest, "invalid_address", msg)
		return
	}

	address := req.toDomain(getUserIDFromContext(r.Context()))
	if err := h.directory.CreateAddress(ctx, address); err != nil {
		handleError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, address)
}

// PUT /api/v1/addresses/{address_id}
func (h *DirectoryHandler) UpdateAddress(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	id, ok := parseIDParam(r, "address_id")
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid_address_id", "address_id must be a positive integer")
		return
	}

	var req AddressRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if msg := req.validate(); msg != "" {
		respondError(w, http.StatusBadRequest, "invalid_address", msg)
		return
	}

	address := req.toDomain(getUserIDFromContext(r.Context()))
	address.ID = id
	if err := h.directory.UpdateAddress(ctx, address); err != nil {
		handleError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, address)
}

// DELETE /api/v1/addresses/{address_id}
func (h *DirectoryHandler) DeleteAddress(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	id, ok := parseIDParam(r, "address_id")
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid_address_id", "address_id must be a positive integer")
		return
	}

	if err := h.directory.DeleteAddress(ctx, getUserIDFromContext(r.Context()), id); err != nil {
		handleError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// GET /api/v1/cards
func (h *DirectoryHandler) ListCards(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	cards, err := h.directory.ListCards(ctx, getUserIDFromContext(r.Context()))
	if err != nil {
		handleError(w, err)
		return
	}

	dtos := make([]CardResponseDTO, 0, len(cards))
	for _, c := range cards {
		dtos = append(dtos, convertCard(c))
	}

	respondJSON(w, http.StatusOK, dtos)
}

// POST /api/v1/cards
func (h *DirectoryHandler) CreateCard(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req CardRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if msg := req.validate(); msg != "" {
		respondError(w, http.StatusBadRequest, "invalid_card", msg)
		return
	}

	card := req.toDomain(getUserIDFromContext(r.Context()))
	if err := h.directory.CreateCard(ctx, card); err != nil {
		handleError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, convertCard(card))
}

// PUT /api/v1/cards/{card_id}
func (h *DirectoryHandler) UpdateCard(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	id, ok := parseIDParam(r, "card_id")
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid_card_id", "card_id must be a positive integer")
		return
	}

	var req CardRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if msg := req.validate(); msg != "" {
		respondError(w, http.StatusBadRequest, "invalid_card", msg)
		return
	}

	card := req.toDomain(getUserIDFromContext(r.Context()))
	card.ID = id
	if err := h.directory.UpdateCard(ctx, card); err != nil {
		handleError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, convertCard(card))
}

// DELETE /api/v1/cards/{card_id}
func (h *DirectoryHandler) DeleteCard(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	id, ok := parseIDParam(r, "card_id")
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid_card_id", "card_id must be a positive integer")
		return
	}

	if err := h.directory.DeleteCard(ctx, getUserIDFromContext(r.Context()), id); err != nil {
		handleError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
