package checkout

import (
	"context"

	d "github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/google/uuid"
)

// Next moves a session one step forward if the guard of its current step passes.
// From REVIEW it confirms the order.
func (s *Service) Next(ctx context.Context, userID string, id uuid.UUID) (View, error) {
	sess, err := s.session(userID, id)
	if err != nil {
		return View{}, err
	}

	sess.mu.Lock()
	if sess.step == d.CheckoutStepReview && !sess.inFlight {
		sess.mu.Unlock()
		return s.Confirm(ctx, userID, id)
	}
	defer sess.mu.Unlock()

	if sess.inFlight {
		return sess.view(), nil
	}

	switch sess.step {
	case d.CheckoutStepAddress:
		err = sess.advanceFromAddress()
	case d.CheckoutStepPayment:
		err = sess.advanceFromPayment()
	}
	if err != nil {
		return sess.view(), err
	}
	sess.touchedAt = s.now()
	return sess.view(), nil
}

// Back moves PAYMENT -> ADDRESS or REVIEW -> PAYMENT. Anything else is ignored.
func (s *Service) Back(userID string, id uuid.UUID) (View, error) {
	sess, err := s.session(userID, id)
	if err != nil {
		return View{}, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.inFlight {
		return sess.view(), nil
	}
	if prev, ok := sess.step.Previous(); ok {
		_ = sess.moveTo(prev)
		sess.touchedAt = s.now()
	}
	return sess.view(), nil
}
