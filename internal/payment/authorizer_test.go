package payment

import (
	"context"
	"testing"
	"time"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedAuthorizer() *CardAuthorizer {
	return &CardAuthorizer{now: func() time.Time {
		return time.Date(2026, time.March, 15, 12, 0, 0, 0, time.UTC)
	}}
}

func TestAuthorize(t *testing.T) {
	tests := []struct {
		name   string
		card   domain.Card
		amount string
		want   Refusal
	}{
		{
			name:   "visa accepted",
			card:   domain.Card{Number: "4242 4242 4242 4242", ExpireMonth: 12, ExpireYear: 2027},
			amount: "59.99",
		},
		{
			name:   "mastercard accepted",
			card:   domain.Card{Number: "5555555555554444", ExpireMonth: 3, ExpireYear: 2026},
			amount: "10",
		},
		{
			name:   "expired last month",
			card:   domain.Card{Number: "4242424242424242", ExpireMonth: 2, ExpireYear: 2026},
			amount: "10",
			want:   RefusalCardExpired,
		},
		{
			name:   "unknown brand",
			card:   domain.Card{Number: "6011111111111117", ExpireMonth: 12, ExpireYear: 2027},
			amount: "10",
			want:   RefusalUnsupportedBrand,
		},
		{
			name:   "letters in number",
			card:   domain.Card{Number: "4242abcd42424242", ExpireMonth: 12, ExpireYear: 2027},
			amount: "10",
			want:   RefusalInvalidNumber,
		},
		{
			name:   "too short",
			card:   domain.Card{Number: "4242", ExpireMonth: 12, ExpireYear: 2027},
			amount: "10",
			want:   RefusalInvalidNumber,
		},
		{
			name:   "zero amount",
			card:   domain.Card{Number: "4242424242424242", ExpireMonth: 12, ExpireYear: 2027},
			amount: "0",
			want:   RefusalInvalidAmount,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			auth, err := fixedAuthorizer().Authorize(context.Background(), &tt.card, decimal.RequireFromString(tt.amount))
			if tt.want == RefusalUnknown {
				require.NoError(t, err)
				assert.Contains(t, auth.TransactionID, "TXN-")
				assert.True(t, auth.Amount.Equal(decimal.RequireFromString(tt.amount)))
				return
			}

			var refused *RefusedError
			require.ErrorAs(t, err, &refused)
			assert.Equal(t, tt.want, refused.Reason)
			assert.Nil(t, auth)
		})
	}
}

func TestAuthorize_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	card := domain.Card{Number: "4242424242424242", ExpireMonth: 12, ExpireYear: 2027}
	_, err := fixedAuthorizer().Authorize(ctx, &card, decimal.NewFromInt(1))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRefusedError_Message(t *testing.T) {
	err := &RefusedError{Reason: RefusalCardExpired}
	assert.Equal(t, "payment refused: card expired", err.Error())
}
