package domain

type CheckoutStep string

const (
	CheckoutStepAddress  CheckoutStep = "ADDRESS"
	CheckoutStepPayment  CheckoutStep = "PAYMENT"
	CheckoutStepReview   CheckoutStep = "REVIEW"
	CheckoutStepComplete CheckoutStep = "COMPLETE"
)

func (s CheckoutStep) IsTerminal() bool {
	return s == CheckoutStepComplete
}

// String representation (for logging)
func (s CheckoutStep) String() string {
	return string(s)
}

// Next returns the step a successful forward move leads to.
func (s CheckoutStep) Next() (CheckoutStep, bool) {
	switch s {
	case CheckoutStepAddress:
		return CheckoutStepPayment, true
	case CheckoutStepPayment:
		return CheckoutStepReview, true
	case CheckoutStepReview:
		return CheckoutStepComplete, true
	default:
		return s, false
	}
}

// Previous returns the step "go back" leads to. Only PAYMENT and REVIEW can go back.
func (s CheckoutStep) Previous() (CheckoutStep, bool) {
	switch s {
	case CheckoutStepPayment:
		return CheckoutStepAddress, true
	case CheckoutStepReview:
		return CheckoutStepPayment, true
	default:
		return s, false
	}
}

// CanTransitionTo reports whether moving from one step to another is a legal single move.
func CanTransitionTo(from, to CheckoutStep) bool {
	if next, ok := from.Next(); ok && next == to {
		return true
	}
	if prev, ok := from.Previous(); ok && prev == to {
		return true
	}
	return false
}
