package payment

import (
	"context"
	"fmt"
	"time"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Refusal int

const (
	RefusalUnknown Refusal = iota
	RefusalCardExpired
	RefusalUnsupportedBrand
	RefusalInvalidAmount
	RefusalInvalidNumber
)

func (r Refusal) String() string {
	switch r {
	case RefusalCardExpired:
		return "card expired"
	case RefusalUnsupportedBrand:
		return "unsupported card brand"
	case RefusalInvalidAmount:
		return "invalid amount"
	case RefusalInvalidNumber:
		return "invalid card number"
	default:
		return "unknown reason"
	}
}

// RefusedError is returned when a charge is declined for a business reason.
type RefusedError struct {
	Reason Refusal
}

func (e *RefusedError) Error() string {
	return fmt.Sprintf("payment refused: %s", e.Reason)
}

type Authorization struct {
	TransactionID string
	Amount        decimal.Decimal
	AuthorizedAt  time.Time
}

type Authorizer interface {
	Authorize(ctx context.Context, card *domain.Card, amount decimal.Decimal) (*Authorization, error)
}

// CardAuthorizer validates the card locally. No money moves; an accepted
// charge only yields a transaction id that is logged with the order.
type CardAuthorizer struct {
	now func() time.Time
}

func NewCardAuthorizer() *CardAuthorizer {
	return &CardAuthorizer{now: time.Now}
}

func (a *CardAuthorizer) Authorize(ctx context.Context, card *domain.Card, amount decimal.Decimal) (*Authorization, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if refusal := a.check(card, amount); refusal != RefusalUnknown {
		return nil, &RefusedError{Reason: refusal}
	}

	now := a.now()
	return &Authorization{
		TransactionID: fmt.Sprintf("TXN-%s", uuid.NewString()),
		Amount:        amount,
		AuthorizedAt:  now,
	}, nil
}

func (a *CardAuthorizer) check(card *domain.Card, amount decimal.Decimal) Refusal {
	if !amount.IsPositive() {
		return RefusalInvalidAmount
	}

	number := domain.NormalizeCardNumber(card.Number)
	if len(number) < 12 || len(number) > 19 {
		return RefusalInvalidNumber
	}
	for _, r := range number {
		if r < '0' || r > '9' {
			return RefusalInvalidNumber
		}
	}
	if card.Brand() == domain.CardBrandUnknown {
		return RefusalUnsupportedBrand
	}

	// a card is valid through the last day of its expiry month
	now := a.now()
	expiry := time.Date(card.ExpireYear, time.Month(card.ExpireMonth)+1, 1, 0, 0, 0, 0, now.Location())
	if !now.Before(expiry) {
		return RefusalCardExpired
	}
	return RefusalUnknown
}
