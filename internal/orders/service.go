package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/payment"
	"github.com/fjod/go_cart/storefront/internal/repository"
	"github.com/google/uuid"
	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
)

var ErrUnavailable = errors.New("order service temporarily unavailable")

type CardLookup interface {
	GetCard(ctx context.Context, userID string, id int64) (*domain.Card, error)
}

// Service turns confirmed checkouts into persisted orders.
type Service struct {
	repo       repository.OrderRepository
	cards      CardLookup
	authorizer payment.Authorizer
	breaker    *gobreaker.CircuitBreaker[string]
	logger     *zap.Logger
}

func NewService(repo repository.OrderRepository, cards CardLookup, authorizer payment.Authorizer, cfg BreakerConfig, logger *zap.Logger) *Service {
	return &Service{
		repo:       repo,
		cards:      cards,
		authorizer: authorizer,
		breaker:    newBreaker("order-submission", cfg, logger),
		logger:     logger,
	}
}

// Submit places the order for a checkout and returns its id. Submitting the
// same checkout again returns the order that was already placed.
func (s *Service) Submit(ctx context.Context, req domain.OrderRequest) (string, error) {
	orderID, err := s.breaker.Execute(func() (string, error) {
		return s.place(ctx, req)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return orderID, err
}

func (s *Service) place(ctx context.Context, req domain.OrderRequest) (string, error) {
	existing, err := s.repo.GetOrderByCheckoutID(ctx, req.CheckoutID)
	if err == nil {
		return existing.ID.String(), nil
	}
	if !errors.Is(err, repository.ErrOrderNotFound) {
		return "", err
	}

	card, err := s.cards.GetCard(ctx, req.UserID, req.PaymentMethodID)
	if err != nil {
		return "", fmt.Errorf("payment method %d: %w", req.PaymentMethodID, err)
	}

	auth, err := s.authorizer.Authorize(ctx, card, req.Totals.Total)
	if err != nil {
		return "", err
	}

	order := &domain.Order{
		ID:                uuid.New(),
		CheckoutID:        req.CheckoutID,
		UserID:            req.UserID,
		ShippingAddressID: req.ShippingAddressID,
		BillingAddressID:  req.BillingAddressID,
		CardID:            card.ID,
		MaskedCard:        card.Masked(),
		Subtotal:          req.Totals.Subtotal,
		Shipping:          req.Totals.Shipping,
		TotalAmount:       req.Totals.Total,
		Status:            domain.OrderStatusConfirmed,
		Items:             domain.OrderItemsFrom(req.Lines),
	}

	err = s.repo.CreateOrder(ctx, order)
	if errors.Is(err, repository.ErrDuplicateCheckout) {
		existing, errGet := s.repo.GetOrderByCheckoutID(ctx, req.CheckoutID)
		if errGet != nil {
			return "", fmt.Errorf("load duplicate order: %w", errGet)
		}
		return existing.ID.String(), nil
	}
	if err != nil {
		return "", err
	}

	s.logger.Info("order placed",
		zap.String("order_id", order.ID.String()),
		zap.String("checkout_id", req.CheckoutID.String()),
		zap.String("transaction_id", auth.TransactionID),
		zap.String("total", order.TotalAmount.String()))

	return order.ID.String(), nil
}

// ListOrders returns the previous orders of a client, newest first.
func (s *Service) ListOrders(ctx context.Context, userID string) ([]*domain.Order, error) {
	return s.repo.ListOrdersByUserID(ctx, userID)
}
