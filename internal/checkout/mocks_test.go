package checkout

import (
	"context"
	"errors"
	"sync"

	"github.com/fjod/go_cart/storefront/internal/cart"
	d "github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/repository"
)

// MockCartProvider hands out one store per user
type MockCartProvider struct {
	m      sync.Mutex
	stores map[string]*cart.Store
	Err    error
}

func (m *MockCartProvider) Store(_ context.Context, userID string) (*cart.Store, error) {
	m.m.Lock()
	defer m.m.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	if m.stores == nil {
		m.stores = make(map[string]*cart.Store)
	}
	s, ok := m.stores[userID]
	if !ok {
		s = cart.NewStore()
		m.stores[userID] = s
	}
	return s, nil
}

// MockDirectory implements Directory with fixed address and card ids
type MockDirectory struct {
	Addresses map[int64]string // id -> owner
	Cards     map[int64]string // id -> owner
	Err       error
}

func (m *MockDirectory) GetAddress(_ context.Context, userID string, id int64) (*d.Address, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	if owner, ok := m.Addresses[id]; ok && owner == userID {
		return &d.Address{ID: id, UserID: userID}, nil
	}
	return nil, repository.ErrAddressNotFound
}

func (m *MockDirectory) GetCard(_ context.Context, userID string, id int64) (*d.Card, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	if owner, ok := m.Cards[id]; ok && owner == userID {
		return &d.Card{ID: id, UserID: userID, Number: "4111111111111111"}, nil
	}
	return nil, repository.ErrCardNotFound
}

// MockSubmitter records submissions. When Release is set every call blocks until it is closed.
type MockSubmitter struct {
	m        sync.Mutex
	calls    int
	requests []d.OrderRequest
	Started  chan struct{}
	Release  chan struct{}
	Errs     []error // returned in order, nil once exhausted
	OrderID  string
}

func (m *MockSubmitter) Submit(_ context.Context, req d.OrderRequest) (string, error) {
	m.m.Lock()
	m.calls++
	m.requests = append(m.requests, req)
	var err error
	if len(m.Errs) > 0 {
		err = m.Errs[0]
		m.Errs = m.Errs[1:]
	}
	started, release := m.Started, m.Release
	m.m.Unlock()

	if started != nil {
		started <- struct{}{}
	}
	if release != nil {
		<-release
	}
	if err != nil {
		return "", err
	}
	if m.OrderID == "" {
		return "order-1", nil
	}
	return m.OrderID, nil
}

func (m *MockSubmitter) Calls() int {
	m.m.Lock()
	defer m.m.Unlock()
	return m.calls
}

func (m *MockSubmitter) LastRequest() d.OrderRequest {
	m.m.Lock()
	defer m.m.Unlock()
	return m.requests[len(m.requests)-1]
}

var errBackend = errors.New("backend rejected order")
