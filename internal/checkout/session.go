package checkout

import (
	"sync"
	"time"

	"github.com/fjod/go_cart/storefront/internal/cart"
	d "github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/google/uuid"
)

// Session is a single checkout attempt over the lines selected when it started.
type Session struct {
	mu sync.Mutex

	id        uuid.UUID
	userID    string
	step      d.CheckoutStep
	shipping  *int64
	billing   *int64
	payment   *int64
	lines     []d.CartLine
	totals    d.Totals
	cart      *cart.Store
	orderID   string
	failure   string
	inFlight  bool
	createdAt time.Time
	touchedAt time.Time
}

// View is a read-only copy of a session.
type View struct {
	ID                uuid.UUID      `json:"checkout_id"`
	Step              d.CheckoutStep `json:"step"`
	ShippingAddressID *int64         `json:"shipping_address_id"`
	BillingAddressID  *int64         `json:"billing_address_id"`
	PaymentMethodID   *int64         `json:"payment_method_id"`
	Lines             []d.CartLine   `json:"lines"`
	Totals            d.Totals       `json:"totals"`
	OrderID           string         `json:"order_id,omitempty"`
	LastFailure       string         `json:"last_failure,omitempty"`
	Submitting        bool           `json:"submitting"`
	CreatedAt         time.Time      `json:"created_at"`
}

func newSession(userID string, store *cart.Store, now time.Time) *Session {
	lines := store.Snapshot().SelectedLines()
	return &Session{
		id:        uuid.New(),
		userID:    userID,
		step:      d.CheckoutStepAddress,
		lines:     lines,
		totals:    d.TotalsFor(lines),
		cart:      store,
		createdAt: now,
		touchedAt: now,
	}
}

// moveTo changes the step if the move is a legal single transition.
func (s *Session) moveTo(to d.CheckoutStep) error {
	if !d.CanTransitionTo(s.step, to) {
		return IllegalTransitionError
	}
	s.step = to
	return nil
}

func (s *Session) productIDs() []int64 {
	ids := make([]int64, len(s.lines))
	for i, l := range s.lines {
		ids[i] = l.Product.ID
	}
	return ids
}

// submitting reports whether an order submission is in flight, with the current view.
func (s *Session) submitting() (View, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view(), s.inFlight
}

// view must be called with s.mu held.
func (s *Session) view() View {
	snap := d.NewCartSnapshot(s.lines, 0)
	return View{
		ID:                s.id,
		Step:              s.step,
		ShippingAddressID: copyID(s.shipping),
		BillingAddressID:  copyID(s.billing),
		PaymentMethodID:   copyID(s.payment),
		Lines:             snap.Lines,
		Totals:            s.totals,
		OrderID:           s.orderID,
		LastFailure:       s.failure,
		Submitting:        s.inFlight,
		CreatedAt:         s.createdAt,
	}
}

func copyID(id *int64) *int64 {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}
