package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	EventTypeOrderPlaced = "order.placed"
	TopicOrderPlaced     = "order-placed"
)

// OrderPlacedEvent is the outbox payload written with every new order.
type OrderPlacedEvent struct {
	OrderID     uuid.UUID       `json:"order_id"`
	CheckoutID  uuid.UUID       `json:"checkout_id"`
	UserID      string          `json:"user_id"`
	Items       []OrderItem     `json:"items"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	PlacedAt    time.Time       `json:"placed_at"`
}

func NewOrderPlacedEvent(o *Order) OrderPlacedEvent {
	return OrderPlacedEvent{
		OrderID:     o.ID,
		CheckoutID:  o.CheckoutID,
		UserID:      o.UserID,
		Items:       o.Items,
		TotalAmount: o.TotalAmount,
		PlacedAt:    o.CreatedAt,
	}
}
