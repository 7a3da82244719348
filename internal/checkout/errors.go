package checkout

import (
	"errors"
	"fmt"
)

var (
	IncompleteAddressError  = errors.New("shipping and billing addresses are required")
	NoPaymentMethodError    = errors.New("payment method is required")
	IllegalTransitionError  = errors.New("illegal transition of checkout step")
	ErrEmptyCart            = errors.New("no selected items, nothing to checkout")
	ErrWrongStep            = errors.New("operation not allowed in the current checkout step")
	ErrSessionNotFound      = errors.New("checkout session not found")
	ErrSubmissionInProgress = errors.New("order submission in progress")
)

// SubmissionError is returned when the order submitter rejects or fails an order.
// The session stays in REVIEW and the order can be confirmed again.
type SubmissionError struct {
	Reason string
	Err    error
}

func (e *SubmissionError) Error() string {
	return fmt.Sprintf("order submission failed: %s", e.Reason)
}

func (e *SubmissionError) Unwrap() error {
	return e.Err
}
