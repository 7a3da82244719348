package checkout

import (
	"context"

	d "github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Confirm submits the order of a session in REVIEW.
//
// While a submission is in flight, further calls return the current view without
// submitting again. On failure the session stays in REVIEW and can be confirmed again.
// On success the session completes and the purchased product ids are removed from the cart.
func (s *Service) Confirm(ctx context.Context, userID string, id uuid.UUID) (View, error) {
	sess, err := s.session(userID, id)
	if err != nil {
		return View{}, err
	}

	sess.mu.Lock()
	if sess.inFlight || sess.step.IsTerminal() {
		v := sess.view()
		sess.mu.Unlock()
		return v, nil
	}
	if sess.step != d.CheckoutStepReview {
		v := sess.view()
		sess.mu.Unlock()
		return v, ErrWrongStep
	}
	if len(sess.lines) == 0 {
		v := sess.view()
		sess.mu.Unlock()
		return v, ErrEmptyCart
	}
	sess.inFlight = true
	req := d.OrderRequest{
		CheckoutID:        sess.id,
		UserID:            sess.userID,
		Lines:             d.NewCartSnapshot(sess.lines, 0).Lines,
		ShippingAddressID: *sess.shipping,
		BillingAddressID:  *sess.billing,
		PaymentMethodID:   *sess.payment,
		Totals:            sess.totals,
	}
	sess.mu.Unlock()

	orderID, submitErr := s.orders.submit(ctx, req)

	sess.mu.Lock()
	sess.inFlight = false
	sess.touchedAt = s.now()
	if submitErr != nil {
		sess.failure = submitErr.Error()
		v := sess.view()
		sess.mu.Unlock()

		s.logger.Warn("order submission failed",
			zap.String("checkout_id", id.String()),
			zap.Error(submitErr))
		return v, &SubmissionError{Reason: submitErr.Error(), Err: submitErr}
	}

	if err := sess.moveTo(d.CheckoutStepComplete); err != nil {
		v := sess.view()
		sess.mu.Unlock()
		return v, err
	}
	sess.orderID = orderID
	sess.failure = ""
	purchased := sess.productIDs()
	store := sess.cart
	v := sess.view()
	sess.mu.Unlock()

	// only the snapshotted products leave the cart; lines added meanwhile stay
	store.RemoveProducts(purchased...)
	s.forget(id)

	s.logger.Info("checkout completed",
		zap.String("checkout_id", id.String()),
		zap.String("order_id", orderID),
		zap.String("total", v.Totals.Total.String()))
	return v, nil
}

func (h *OrderHandler) submit(ctx context.Context, req d.OrderRequest) (string, error) {
	// submission is not cancelled with the caller, only bounded by the handler timeout
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), h.timeout)
	defer cancel()
	return h.submitter.Submit(ctx, req)
}
