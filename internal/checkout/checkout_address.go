package checkout

import (
	"context"
	"fmt"

	d "github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/google/uuid"
)

// SelectShippingAddress records the shipping address of a session in the ADDRESS step.
func (s *Service) SelectShippingAddress(ctx context.Context, userID string, id uuid.UUID, addressID int64) (View, error) {
	return s.selectAddress(ctx, userID, id, addressID, func(sess *Session, v *int64) { sess.shipping = v })
}

// SelectBillingAddress records the billing address of a session in the ADDRESS step.
func (s *Service) SelectBillingAddress(ctx context.Context, userID string, id uuid.UUID, addressID int64) (View, error) {
	return s.selectAddress(ctx, userID, id, addressID, func(sess *Session, v *int64) { sess.billing = v })
}

func (s *Service) selectAddress(ctx context.Context, userID string, id uuid.UUID, addressID int64, set func(*Session, *int64)) (View, error) {
	sess, err := s.session(userID, id)
	if err != nil {
		return View{}, err
	}

	if v, busy := sess.submitting(); busy {
		return v, nil
	}

	if err := s.directory.checkAddress(ctx, userID, addressID); err != nil {
		return View{}, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.inFlight {
		return sess.view(), nil
	}
	if sess.step != d.CheckoutStepAddress {
		return sess.view(), ErrWrongStep
	}
	set(sess, &addressID)
	sess.touchedAt = s.now()
	return sess.view(), nil
}

// advanceFromAddress moves ADDRESS -> PAYMENT when both addresses are chosen.
func (sess *Session) advanceFromAddress() error {
	switch {
	case sess.shipping == nil && sess.billing == nil:
		return fmt.Errorf("%w: shipping and billing missing", IncompleteAddressError)
	case sess.shipping == nil:
		return fmt.Errorf("%w: shipping missing", IncompleteAddressError)
	case sess.billing == nil:
		return fmt.Errorf("%w: billing missing", IncompleteAddressError)
	}
	return sess.moveTo(d.CheckoutStepPayment)
}

func (h *DirectoryHandler) checkAddress(ctx context.Context, userID string, addressID int64) error {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	if _, err := h.directory.GetAddress(ctx, userID, addressID); err != nil {
		return fmt.Errorf("lookup address %d: %w", addressID, err)
	}
	return nil
}
