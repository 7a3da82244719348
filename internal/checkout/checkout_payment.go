package checkout

import (
	"context"
	"fmt"

	d "github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/google/uuid"
)

// SelectPaymentMethod records the card of a session in the PAYMENT step.
func (s *Service) SelectPaymentMethod(ctx context.Context, userID string, id uuid.UUID, cardID int64) (View, error) {
	sess, err := s.session(userID, id)
	if err != nil {
		return View{}, err
	}

	if v, busy := sess.submitting(); busy {
		return v, nil
	}

	if err := s.directory.checkCard(ctx, userID, cardID); err != nil {
		return View{}, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.inFlight {
		return sess.view(), nil
	}
	if sess.step != d.CheckoutStepPayment {
		return sess.view(), ErrWrongStep
	}
	sess.payment = &cardID
	sess.touchedAt = s.now()
	return sess.view(), nil
}

// advanceFromPayment moves PAYMENT -> REVIEW when a card is chosen.
func (sess *Session) advanceFromPayment() error {
	if sess.payment == nil {
		return NoPaymentMethodError
	}
	return sess.moveTo(d.CheckoutStepReview)
}

func (h *DirectoryHandler) checkCard(ctx context.Context, userID string, cardID int64) error {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	if _, err := h.directory.GetCard(ctx, userID, cardID); err != nil {
		return fmt.Errorf("lookup card %d: %w", cardID, err)
	}
	return nil
}
