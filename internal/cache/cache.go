package cache

import (
	"context"
	"errors"

	"github.com/fjod/go_cart/storefront/internal/domain"
)

// ErrCacheMiss is returned by Get when no snapshot is cached for the client.
var ErrCacheMiss = errors.New("cache miss")

// CartCache is the read-through layer in front of the cart repository.
// It holds whole snapshots; there are no partial updates.
type CartCache interface {
	Get(ctx context.Context, userID string) (*domain.CartSnapshot, error)
	Set(ctx context.Context, userID string, snap domain.CartSnapshot) error
	Delete(ctx context.Context, userID string) error
}
