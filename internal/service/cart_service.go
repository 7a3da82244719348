package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/fjod/go_cart/storefront/internal/cache"
	"github.com/fjod/go_cart/storefront/internal/cart"
	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/repository"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	DefaultFlushInterval = 5 * time.Second
	persistTimeout       = 3 * time.Second
	loadTimeout          = 5 * time.Second
)

type ProductCatalog interface {
	GetProduct(ctx context.Context, id int64) (*domain.Product, error)
}

// CartService owns one live cart.Store per client. Stores are loaded lazily
// (cache, then repository, then empty) and every change is written back by a
// single background writer that keeps only the newest snapshot per client.
type CartService struct {
	repo    repository.CartRepository
	cache   cache.CartCache
	catalog ProductCatalog
	logger  *zap.Logger
	sfg     singleflight.Group // one load per client at a time

	mu     sync.Mutex
	stores map[string]*cart.Store

	pendingMu sync.Mutex
	pending   map[string]domain.CartSnapshot
	kick      chan struct{}

	flushMu       sync.Mutex
	flushInterval time.Duration
}

func NewCartService(repo repository.CartRepository, cache cache.CartCache, catalog ProductCatalog, logger *zap.Logger) *CartService {
	return &CartService{
		repo:          repo,
		cache:         cache,
		catalog:       catalog,
		logger:        logger,
		stores:        make(map[string]*cart.Store),
		pending:       make(map[string]domain.CartSnapshot),
		kick:          make(chan struct{}, 1),
		flushInterval: DefaultFlushInterval,
	}
}

// SetFlushInterval changes how often Run writes pending snapshots. Call it before Run.
func (s *CartService) SetFlushInterval(d time.Duration) {
	if d > 0 {
		s.flushInterval = d
	}
}

// Store returns the live cart of userID.
func (s *CartService) Store(ctx context.Context, userID string) (*cart.Store, error) {
	if st := s.loaded(userID); st != nil {
		return st, nil
	}

	v, err, _ := s.sfg.Do(userID, func() (interface{}, error) {
		if st := s.loaded(userID); st != nil {
			return st, nil
		}

		// shared by every caller waiting on this user, so not tied to the first request
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), loadTimeout)
		defer cancel()

		snap, err := s.load(loadCtx, userID)
		if err != nil {
			return nil, err
		}

		st := cart.NewStore()
		st.Restore(snap.Lines, snap.Version)
		st.Subscribe(func(snap domain.CartSnapshot) {
			s.enqueue(userID, snap)
		})

		s.mu.Lock()
		s.stores[userID] = st
		s.mu.Unlock()
		return st, nil
	})
	if err != nil {
		return nil, err
	}

	return v.(*cart.Store), nil
}

func (s *CartService) Snapshot(ctx context.Context, userID string) (domain.CartSnapshot, error) {
	st, err := s.Store(ctx, userID)
	if err != nil {
		return domain.CartSnapshot{}, err
	}
	return st.Snapshot(), nil
}

// AddProduct looks productID up in the catalog and adds one unit of it,
// capturing the catalog price at this moment.
func (s *CartService) AddProduct(ctx context.Context, userID string, productID int64) (domain.CartSnapshot, error) {
	product, err := s.catalog.GetProduct(ctx, productID)
	if err != nil {
		return domain.CartSnapshot{}, err
	}

	st, err := s.Store(ctx, userID)
	if err != nil {
		return domain.CartSnapshot{}, err
	}

	st.Add(*product)
	return st.Snapshot(), nil
}

func (s *CartService) loaded(userID string) *cart.Store {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stores[userID]
}

func (s *CartService) load(ctx context.Context, userID string) (domain.CartSnapshot, error) {
	snap, err := s.cache.Get(ctx, userID)
	if err == nil {
		return *snap, nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		s.logger.Warn("cache get failed", zap.String("user_id", userID), zap.Error(err))
	}

	snap, err = s.repo.GetCart(ctx, userID)
	if errors.Is(err, repository.ErrCartNotFound) {
		return domain.NewCartSnapshot(nil, 0), nil
	}
	if err != nil {
		return domain.CartSnapshot{}, fmt.Errorf("load cart: %w", err)
	}

	// set before the store exists so no newer write can be overtaken
	if errSet := s.cache.Set(ctx, userID, *snap); errSet != nil {
		s.logger.Warn("cache set failed", zap.String("user_id", userID), zap.Error(errSet))
	}

	return *snap, nil
}

// enqueue runs under the store lock, so it must not block.
func (s *CartService) enqueue(userID string, snap domain.CartSnapshot) {
	s.pendingMu.Lock()
	if cur, ok := s.pending[userID]; !ok || cur.Version < snap.Version {
		s.pending[userID] = snap
	}
	s.pendingMu.Unlock()

	select {
	case s.kick <- struct{}{}:
	default:
	}
}

// Run writes pending snapshots until ctx is done, then flushes what is left.
func (s *CartService) Run(ctx context.Context) {
	ticker := time.NewTicker(s.flushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.kick:
			s.Flush(ctx)
		case <-ticker.C:
			s.Flush(ctx)
		case <-ctx.Done():
			final, cancel := context.WithTimeout(context.Background(), persistTimeout)
			s.Flush(final)
			cancel()
			return
		}
	}
}

// Flush writes every pending snapshot. Failed writes stay pending unless a
// newer snapshot arrived meanwhile.
func (s *CartService) Flush(ctx context.Context) {
	s.flushMu.Lock()
	defer s.flushMu.Unlock()

	s.pendingMu.Lock()
	batch := s.pending
	s.pending = make(map[string]domain.CartSnapshot)
	s.pendingMu.Unlock()

	for userID, snap := range batch {
		if err := s.persist(ctx, userID, snap); err != nil {
			s.logger.Error("cart persist failed",
				zap.String("user_id", userID),
				zap.Uint64("version", snap.Version),
				zap.Error(err))
			s.requeue(userID, snap)
		}
	}
}

func (s *CartService) Pending() int {
	s.pendingMu.Lock()
	defer s.pendingMu.Unlock()
	return len(s.pending)
}

func (s *CartService) requeue(userID string, snap domain.CartSnapshot) {
	s.pendingMu.Lock()
	defer s.pendingMu.Unlock()
	if cur, ok := s.pending[userID]; !ok || cur.Version < snap.Version {
		s.pending[userID] = snap
	}
}

func (s *CartService) persist(ctx context.Context, userID string, snap domain.CartSnapshot) error {
	ctx, cancel := context.WithTimeout(ctx, persistTimeout)
	defer cancel()

	err := s.repo.SaveCart(ctx, userID, snap)
	if errors.Is(err, repository.ErrStaleCart) {
		return s.rebase(ctx, userID, snap)
	}
	if err != nil {
		return err
	}

	if len(snap.Lines) == 0 {
		err = s.cache.Delete(ctx, userID)
	} else if err = s.cache.Set(ctx, userID, snap); err != nil {
		// an older entry must not outlive a newer saved cart
		err = errors.Join(err, s.cache.Delete(ctx, userID))
	}
	if err != nil {
		s.logger.Warn("cache update failed", zap.String("user_id", userID), zap.Error(err))
	}
	return nil
}

// rebase handles a write rejected because the repository holds a newer version,
// which happens when the store was restored from an outdated cache entry. The
// cache entry is dropped and the live store moves past the stored version so its
// content is written on the next flush.
func (s *CartService) rebase(ctx context.Context, userID string, snap domain.CartSnapshot) error {
	if err := s.cache.Delete(ctx, userID); err != nil {
		s.logger.Warn("cache delete failed", zap.String("user_id", userID), zap.Error(err))
	}

	stored, err := s.repo.GetCart(ctx, userID)
	if err != nil {
		return fmt.Errorf("read stored cart: %w", err)
	}

	st := s.loaded(userID)
	if st == nil {
		return nil
	}
	// the stored cart is what this store already holds
	if cur := st.Snapshot(); cur.Version == stored.Version && cur.SameLines(*stored) {
		return nil
	}
	if !st.Rebase(stored.Version) {
		s.logger.Debug("skipping stale cart write", zap.String("user_id", userID), zap.Uint64("version", snap.Version))
		return nil
	}
	s.logger.Info("cart rebased onto stored version",
		zap.String("user_id", userID),
		zap.Uint64("from", snap.Version),
		zap.Uint64("stored", stored.Version))
	return nil
}
