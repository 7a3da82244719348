package checkout

import (
	"context"
	"time"

	"github.com/fjod/go_cart/storefront/internal/cart"
	d "github.com/fjod/go_cart/storefront/internal/domain"
)

// CartProvider hands out the cart store of a client session.
type CartProvider interface {
	Store(ctx context.Context, userID string) (*cart.Store, error)
}

// Directory gives read access to the addresses and cards of a user.
type Directory interface {
	GetAddress(ctx context.Context, userID string, id int64) (*d.Address, error)
	GetCard(ctx context.Context, userID string, id int64) (*d.Card, error)
}

// OrderSubmitter places an order and returns its identifier.
type OrderSubmitter interface {
	Submit(ctx context.Context, req d.OrderRequest) (string, error)
}

type DirectoryHandler struct {
	directory Directory
	timeout   time.Duration
}

func NewDirectoryHandler(directory Directory, timeout time.Duration) *DirectoryHandler {
	return &DirectoryHandler{
		directory: directory,
		timeout:   timeout,
	}
}

type OrderHandler struct {
	submitter OrderSubmitter
	timeout   time.Duration
}

func NewOrderHandler(submitter OrderSubmitter, timeout time.Duration) *OrderHandler {
	return &OrderHandler{
		submitter: submitter,
		timeout:   timeout,
	}
}
