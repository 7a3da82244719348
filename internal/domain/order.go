package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type OrderStatus string

// OrderStatusConfirmed is the status of an order whose payment was authorized.
const OrderStatusConfirmed OrderStatus = "CONFIRMED"

var (
	ShippingFee           = decimal.RequireFromString("29.99")
	FreeShippingThreshold = decimal.NewFromInt(150)
)

// ShippingFor returns the shipping fee charged for a subtotal.
func ShippingFor(subtotal decimal.Decimal) decimal.Decimal {
	if subtotal.GreaterThanOrEqual(FreeShippingThreshold) {
		return decimal.Zero
	}
	return ShippingFee
}

type Totals struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Shipping decimal.Decimal `json:"shipping"`
	Total    decimal.Decimal `json:"total"`
}

func TotalsFor(lines []CartLine) Totals {
	subtotal := decimal.Zero
	for _, l := range lines {
		subtotal = subtotal.Add(l.LineTotal())
	}
	shipping := ShippingFor(subtotal)
	return Totals{
		Subtotal: subtotal,
		Shipping: shipping,
		Total:    subtotal.Add(shipping),
	}
}

type OrderItem struct {
	ProductID   int64           `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	ImageURL    string          `json:"image_url,omitempty"`
}

type Order struct {
	ID                uuid.UUID       `json:"id"`
	CheckoutID        uuid.UUID       `json:"checkout_id"`
	UserID            string          `json:"-"`
	ShippingAddressID int64           `json:"shipping_address_id"`
	BillingAddressID  int64           `json:"billing_address_id"`
	CardID            int64           `json:"card_id"`
	MaskedCard        string          `json:"masked_card"`
	Subtotal          decimal.Decimal `json:"subtotal"`
	Shipping          decimal.Decimal `json:"shipping"`
	TotalAmount       decimal.Decimal `json:"total_amount"`
	Status            OrderStatus     `json:"status"`
	Items             []OrderItem     `json:"items"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// OrderItemsFrom converts checkout lines into order items.
func OrderItemsFrom(lines []CartLine) []OrderItem {
	items := make([]OrderItem, len(lines))
	for i, l := range lines {
		items[i] = OrderItem{
			ProductID:   l.Product.ID,
			ProductName: l.Product.Name,
			Quantity:    l.Quantity,
			UnitPrice:   l.Product.Price,
		}
		if len(l.Product.Images) > 0 {
			items[i].ImageURL = l.Product.Images[0].URL
		}
	}
	return items
}

// OrderRequest is what checkout hands to the order submitter.
type OrderRequest struct {
	CheckoutID        uuid.UUID
	UserID            string
	Lines             []CartLine
	ShippingAddressID int64
	BillingAddressID  int64
	PaymentMethodID   int64
	Totals            Totals
}
