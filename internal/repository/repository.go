package repository

import (
	"context"
	"errors"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/google/uuid"
)

var (
	ErrCartNotFound      = errors.New("cart not found")
	ErrStaleCart         = errors.New("a newer version of the cart is already stored")
	ErrProductNotFound   = errors.New("product not found")
	ErrAddressNotFound   = errors.New("address not found")
	ErrCardNotFound      = errors.New("card not found")
	ErrOrderNotFound     = errors.New("order not found")
	ErrDuplicateCheckout = errors.New("order for this checkout already exists")
	ErrEventProcessed    = errors.New("event already processed")
)

// CartRepository stores the latest snapshot of every client cart.
// Consumers define this interface, not the MongoDB implementation
type CartRepository interface {
	GetCart(ctx context.Context, userID string) (*domain.CartSnapshot, error)
	SaveCart(ctx context.Context, userID string, cart domain.CartSnapshot) error
}

type ProductRepository interface {
	GetAllProducts(ctx context.Context) ([]*domain.Product, error)
	GetProduct(ctx context.Context, id int64) (*domain.Product, error)
	RecordSale(ctx context.Context, orderID uuid.UUID, items []domain.OrderItem) error
	Close() error
}

type DirectoryRepository interface {
	ListAddresses(ctx context.Context, userID string) ([]*domain.Address, error)
	GetAddress(ctx context.Context, userID string, id int64) (*domain.Address, error)
	CreateAddress(ctx context.Context, address *domain.Address) error
	UpdateAddress(ctx context.Context, address *domain.Address) error
	DeleteAddress(ctx context.Context, userID string, id int64) error

	ListCards(ctx context.Context, userID string) ([]*domain.Card, error)
	GetCard(ctx context.Context, userID string, id int64) (*domain.Card, error)
	CreateCard(ctx context.Context, card *domain.Card) error
	UpdateCard(ctx context.Context, card *domain.Card) error
	DeleteCard(ctx context.Context, userID string, id int64) error
}

type OrderRepository interface {
	CreateOrder(ctx context.Context, order *domain.Order) error
	GetOrderByCheckoutID(ctx context.Context, checkoutID uuid.UUID) (*domain.Order, error)
	ListOrdersByUserID(ctx context.Context, userID string) ([]*domain.Order, error)
	GetUnprocessedEvents(ctx context.Context, limit int) ([]*OutboxEvent, error)
	MarkEventAsProcessed(ctx context.Context, id uuid.UUID) error
}
