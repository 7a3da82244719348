package service

import (
	"context"
	"sync"

	"github.com/fjod/go_cart/storefront/internal/cache"
	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/repository"
	"github.com/shopspring/decimal"
)

type mockRepository struct {
	m       sync.Mutex
	carts   map[string]domain.CartSnapshot
	saves   []domain.CartSnapshot
	gets    int
	getErr  error
	saveErr error
}

func newMockRepository() *mockRepository {
	return &mockRepository{carts: make(map[string]domain.CartSnapshot)}
}

func (m *mockRepository) GetCart(ctx context.Context, userID string) (*domain.CartSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.m.Lock()
	defer m.m.Unlock()
	m.gets++
	if m.getErr != nil {
		return nil, m.getErr
	}
	c, ok := m.carts[userID]
	if !ok {
		return nil, repository.ErrCartNotFound
	}
	return &c, nil
}

func (m *mockRepository) SaveCart(_ context.Context, userID string, c domain.CartSnapshot) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	if cur, ok := m.carts[userID]; ok && cur.Version >= c.Version {
		return repository.ErrStaleCart
	}
	m.carts[userID] = c
	m.saves = append(m.saves, c)
	return nil
}

func (m *mockRepository) setErrors(get, save error) {
	m.m.Lock()
	defer m.m.Unlock()
	m.getErr = get
	m.saveErr = save
}

func (m *mockRepository) savedVersions() []uint64 {
	m.m.Lock()
	defer m.m.Unlock()
	var versions []uint64
	for _, c := range m.saves {
		versions = append(versions, c.Version)
	}
	return versions
}

func (m *mockRepository) getCalls() int {
	m.m.Lock()
	defer m.m.Unlock()
	return m.gets
}

type mockCache struct {
	m       sync.Mutex
	carts   map[string]domain.CartSnapshot
	deletes int
	getErr  error
	setErr  error
}

func newMockCache() *mockCache {
	return &mockCache{carts: make(map[string]domain.CartSnapshot)}
}

func (m *mockCache) Get(ctx context.Context, userID string) (*domain.CartSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.m.Lock()
	defer m.m.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	c, ok := m.carts[userID]
	if !ok {
		return nil, cache.ErrCacheMiss
	}
	return &c, nil
}

func (m *mockCache) Set(_ context.Context, userID string, c domain.CartSnapshot) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.setErr != nil {
		return m.setErr
	}
	m.carts[userID] = c
	return nil
}

func (m *mockCache) Delete(_ context.Context, userID string) error {
	m.m.Lock()
	defer m.m.Unlock()
	m.deletes++
	delete(m.carts, userID)
	return nil
}

func (m *mockCache) failSets(err error) {
	m.m.Lock()
	defer m.m.Unlock()
	m.setErr = err
}

func (m *mockCache) get(userID string) (domain.CartSnapshot, bool) {
	m.m.Lock()
	defer m.m.Unlock()
	c, ok := m.carts[userID]
	return c, ok
}

type mockCatalog struct {
	products map[int64]domain.Product
}

func newMockCatalog() *mockCatalog {
	return &mockCatalog{products: map[int64]domain.Product{
		1: {ID: 1, Name: "Linen Shirt", Price: decimal.RequireFromString("49.90"), Stock: 25},
		2: {ID: 2, Name: "Denim Jacket", Price: decimal.RequireFromString("89.00"), Stock: 10},
	}}
}

func (m *mockCatalog) GetProduct(_ context.Context, id int64) (*domain.Product, error) {
	p, ok := m.products[id]
	if !ok {
		return nil, repository.ErrProductNotFound
	}
	return &p, nil
}
