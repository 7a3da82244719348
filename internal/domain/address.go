package domain

import (
	"strings"
	"time"
)

type Address struct {
	ID           int64     `json:"id"`
	UserID       string    `json:"-"`
	Title        string    `json:"title"`
	Name         string    `json:"name"`
	Surname      string    `json:"surname"`
	Phone        string    `json:"phone"`
	City         string    `json:"city"`
	District     string    `json:"district"`
	Neighborhood string    `json:"neighborhood"`
	Line         string    `json:"address,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type CardBrand string

const (
	CardBrandVisa       CardBrand = "visa"
	CardBrandMastercard CardBrand = "mastercard"
	CardBrandUnknown    CardBrand = "unknown"
)

// Card is a stored payment method. Number is never serialized.
type Card struct {
	ID          int64     `json:"id"`
	UserID      string    `json:"-"`
	Number      string    `json:"-"`
	ExpireMonth int       `json:"expire_month"`
	ExpireYear  int       `json:"expire_year"`
	NameOnCard  string    `json:"name_on_card"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (c Card) Masked() string {
	return MaskCardNumber(c.Number)
}

func (c Card) Brand() CardBrand {
	return BrandOf(c.Number)
}

// NormalizeCardNumber strips the spaces a user types between digit groups.
func NormalizeCardNumber(number string) string {
	return strings.ReplaceAll(number, " ", "")
}

// MaskCardNumber keeps only the last four digits.
func MaskCardNumber(number string) string {
	n := NormalizeCardNumber(number)
	if len(n) < 4 {
		return "**** **** **** " + n
	}
	return "**** **** **** " + n[len(n)-4:]
}

func BrandOf(number string) CardBrand {
	n := NormalizeCardNumber(number)
	switch {
	case strings.HasPrefix(n, "4"):
		return CardBrandVisa
	case strings.HasPrefix(n, "5"), strings.HasPrefix(n, "2"):
		return CardBrandMastercard
	default:
		return CardBrandUnknown
	}
}
