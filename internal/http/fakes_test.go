package http

import (
	"context"
	"sync"

	"github.com/fjod/go_cart/storefront/internal/cart"
	"github.com/fjod/go_cart/storefront/internal/checkout"
	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/repository"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type fakeCatalog struct {
	products map[int64]*domain.Product
	err      error
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{products: map[int64]*domain.Product{
		1: {ID: 1, Name: "Linen Shirt", Price: decimal.RequireFromString("49.90"), Stock: 25},
		2: {ID: 2, Name: "Denim Jacket", Price: decimal.RequireFromString("89.00"), Stock: 10},
	}}
}

func (f *fakeCatalog) GetAllProducts(context.Context) ([]*domain.Product, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []*domain.Product{f.products[1], f.products[2]}, nil
}

func (f *fakeCatalog) GetProduct(_ context.Context, id int64) (*domain.Product, error) {
	if f.err != nil {
		return nil, f.err
	}
	p, ok := f.products[id]
	if !ok {
		return nil, repository.ErrProductNotFound
	}
	c := p.Clone()
	return &c, nil
}

type fakeCarts struct {
	m       sync.Mutex
	stores  map[string]*cart.Store
	catalog *fakeCatalog
	err     error
}

func newFakeCarts(catalog *fakeCatalog) *fakeCarts {
	return &fakeCarts{stores: make(map[string]*cart.Store), catalog: catalog}
}

func (f *fakeCarts) Store(_ context.Context, userID string) (*cart.Store, error) {
	f.m.Lock()
	defer f.m.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	st, ok := f.stores[userID]
	if !ok {
		st = cart.NewStore()
		f.stores[userID] = st
	}
	return st, nil
}

func (f *fakeCarts) AddProduct(ctx context.Context, userID string, productID int64) (domain.CartSnapshot, error) {
	p, err := f.catalog.GetProduct(ctx, productID)
	if err != nil {
		return domain.CartSnapshot{}, err
	}
	st, err := f.Store(ctx, userID)
	if err != nil {
		return domain.CartSnapshot{}, err
	}
	st.Add(*p)
	return st.Snapshot(), nil
}

type fakeDirectory struct {
	m         sync.Mutex
	nextID    int64
	addresses map[int64]*domain.Address
	cards     map[int64]*domain.Card
}

func newFakeDirectory() *fakeDirectory {
	return &fakeDirectory{addresses: make(map[int64]*domain.Address), cards: make(map[int64]*domain.Card)}
}

func (f *fakeDirectory) ListAddresses(_ context.Context, userID string) ([]*domain.Address, error) {
	f.m.Lock()
	defer f.m.Unlock()
	list := make([]*domain.Address, 0)
	for _, a := range f.addresses {
		if a.UserID == userID {
			list = append(list, a)
		}
	}
	return list, nil
}

func (f *fakeDirectory) GetAddress(_ context.Context, userID string, id int64) (*domain.Address, error) {
	f.m.Lock()
	defer f.m.Unlock()
	a, ok := f.addresses[id]
	if !ok || a.UserID != userID {
		return nil, repository.ErrAddressNotFound
	}
	return a, nil
}

func (f *fakeDirectory) CreateAddress(_ context.Context, a *domain.Address) error {
	f.m.Lock()
	defer f.m.Unlock()
	f.nextID++
	a.ID = f.nextID
	f.addresses[a.ID] = a
	return nil
}

func (f *fakeDirectory) UpdateAddress(_ context.Context, a *domain.Address) error {
	f.m.Lock()
	defer f.m.Unlock()
	cur, ok := f.addresses[a.ID]
	if !ok || cur.UserID != a.UserID {
		return repository.ErrAddressNotFound
	}
	f.addresses[a.ID] = a
	return nil
}

func (f *fakeDirectory) DeleteAddress(_ context.Context, userID string, id int64) error {
	f.m.Lock()
	defer f.m.Unlock()
	a, ok := f.addresses[id]
	if !ok || a.UserID != userID {
		return repository.ErrAddressNotFound
	}
	delete(f.addresses, id)
	return nil
}

func (f *fakeDirectory) ListCards(_ context.Context, userID string) ([]*domain.Card, error) {
	f.m.Lock()
	defer f.m.Unlock()
	list := make([]*domain.Card, 0)
	for _, c := range f.cards {
		if c.UserID == userID {
			list = append(list, c)
		}
	}
	return list, nil
}

func (f *fakeDirectory) GetCard(_ context.Context, userID string, id int64) (*domain.Card, error) {
	f.m.Lock()
	defer f.m.Unlock()
	c, ok := f.cards[id]
	if !ok || c.UserID != userID {
		return nil, repository.ErrCardNotFound
	}
	return c, nil
}

func (f *fakeDirectory) CreateCard(_ context.Context, c *domain.Card) error {
	f.m.Lock()
	defer f.m.Unlock()
	f.nextID++
	c.ID = f.nextID
	c.Number = domain.NormalizeCardNumber(c.Number)
	f.cards[c.ID] = c
	return nil
}

func (f *fakeDirectory) UpdateCard(_ context.Context, c *domain.Card) error {
	f.m.Lock()
	defer f.m.Unlock()
	cur, ok := f.cards[c.ID]
	if !ok || cur.UserID != c.UserID {
		return repository.ErrCardNotFound
	}
	f.cards[c.ID] = c
	return nil
}

func (f *fakeDirectory) DeleteCard(_ context.Context, userID string, id int64) error {
	f.m.Lock()
	defer f.m.Unlock()
	c, ok := f.cards[id]
	if !ok || c.UserID != userID {
		return repository.ErrCardNotFound
	}
	delete(f.cards, id)
	return nil
}

// fakeCheckout answers every call with view and err and records the last call.
type fakeCheckout struct {
	view   checkout.View
	err    error
	called string
	target int64
	userID string
}

func (f *fakeCheckout) record(name, userID string, target int64) (checkout.View, error) {
	f.called, f.userID, f.target = name, userID, target
	return f.view, f.err
}

func (f *fakeCheckout) Start(_ context.Context, userID string) (checkout.View, error) {
	return f.record("Start", userID, 0)
}

func (f *fakeCheckout) Get(userID string, _ uuid.UUID) (checkout.View, error) {
	return f.record("Get", userID, 0)
}

func (f *fakeCheckout) Cancel(userID string, _ uuid.UUID) error {
	_, err := f.record("Cancel", userID, 0)
	return err
}

func (f *fakeCheckout) SelectShippingAddress(_ context.Context, userID string, _ uuid.UUID, addressID int64) (checkout.View, error) {
	return f.record("SelectShippingAddress", userID, addressID)
}

func (f *fakeCheckout) SelectBillingAddress(_ context.Context, userID string, _ uuid.UUID, addressID int64) (checkout.View, error) {
	return f.record("SelectBillingAddress", userID, addressID)
}

func (f *fakeCheckout) SelectPaymentMethod(_ context.Context, userID string, _ uuid.UUID, cardID int64) (checkout.View, error) {
	return f.record("SelectPaymentMethod", userID, cardID)
}

func (f *fakeCheckout) Next(_ context.Context, userID string, _ uuid.UUID) (checkout.View, error) {
	return f.record("Next", userID, 0)
}

func (f *fakeCheckout) Back(userID string, _ uuid.UUID) (checkout.View, error) {
	return f.record("Back", userID, 0)
}

func (f *fakeCheckout) Confirm(_ context.Context, userID string, _ uuid.UUID) (checkout.View, error) {
	return f.record("Confirm", userID, 0)
}

type fakeOrders struct {
	orders []*domain.Order
	err    error
}

func (f *fakeOrders) ListOrders(_ context.Context, userID string) ([]*domain.Order, error) {
	if f.err != nil {
		return nil, f.err
	}
	var list []*domain.Order
	for _, o := range f.orders {
		if o.UserID == userID {
			list = append(list, o)
		}
	}
	return list, nil
}
