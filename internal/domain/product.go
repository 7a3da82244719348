package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Image struct {
	ID  int64  `json:"id"`
	URL string `json:"url"`
}

// Product is the catalog entry a cart line copies at add time.
type Product struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	CategoryID  int64           `json:"category_id,omitempty"`
	Rating      float64         `json:"rating,omitempty"`
	SellCount   int             `json:"sell_count,omitempty"`
	Color       string          `json:"color,omitempty"`
	Images      []Image         `json:"images"`
	CreatedAt   time.Time       `json:"created_at"`
}

// Clone returns a copy that shares no slices with p.
func (p Product) Clone() Product {
	c := p
	if p.Images != nil {
		c.Images = make([]Image, len(p.Images))
		copy(c.Images, p.Images)
	}
	return c
}
