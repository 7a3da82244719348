package checkout

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// SessionTTL is how long an untouched session is kept before it is dropped
	SessionTTL = 30 * time.Minute

	// CleanupInterval is how often abandoned sessions are swept
	CleanupInterval = time.Minute
)

type Service struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*Session

	carts     CartProvider
	directory *DirectoryHandler
	orders    *OrderHandler
	logger    *zap.Logger
	now       func() time.Time

	stopCleanup chan struct{}
	wg          sync.WaitGroup
}

func NewService(carts CartProvider, directory *DirectoryHandler, orders *OrderHandler, logger *zap.Logger) *Service {
	s := newService(carts, directory, orders, logger, time.Now)

	s.wg.Add(1)
	go s.cleanupLoop()

	return s
}

// newService builds a Service without the cleanup loop.
func newService(carts CartProvider, directory *DirectoryHandler, orders *OrderHandler, logger *zap.Logger, now func() time.Time) *Service {
	return &Service{
		sessions:    make(map[uuid.UUID]*Session),
		carts:       carts,
		directory:   directory,
		orders:      orders,
		logger:      logger,
		now:         now,
		stopCleanup: make(chan struct{}),
	}
}

// Start opens a checkout session over the currently selected cart lines.
func (s *Service) Start(ctx context.Context, userID string) (View, error) {
	store, err := s.carts.Store(ctx, userID)
	if err != nil {
		return View{}, err
	}

	sess := newSession(userID, store, s.now())

	s.mu.Lock()
	s.sessions[sess.id] = sess
	s.mu.Unlock()

	s.logger.Info("checkout started",
		zap.String("checkout_id", sess.id.String()),
		zap.String("user_id", userID),
		zap.Int("lines", len(sess.lines)))

	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.view(), nil
}

// Get returns the current state of a session.
func (s *Service) Get(userID string, id uuid.UUID) (View, error) {
	sess, err := s.session(userID, id)
	if err != nil {
		return View{}, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.view(), nil
}

// Cancel drops a session. A session whose order is being submitted cannot be cancelled.
func (s *Service) Cancel(userID string, id uuid.UUID) error {
	sess, err := s.session(userID, id)
	if err != nil {
		return err
	}

	sess.mu.Lock()
	inFlight := sess.inFlight
	sess.mu.Unlock()
	if inFlight {
		return ErrSubmissionInProgress
	}

	s.forget(id)
	s.logger.Info("checkout cancelled", zap.String("checkout_id", id.String()))
	return nil
}

// Close stops the background cleanup.
func (s *Service) Close() error {
	close(s.stopCleanup)
	s.wg.Wait()
	return nil
}

func (s *Service) session(userID string, id uuid.UUID) (*Session, error) {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok || sess.userID != userID {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

func (s *Service) forget(id uuid.UUID) {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
}

func (s *Service) cleanupLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.expireSessions()
		case <-s.stopCleanup:
			return
		}
	}
}

// expireSessions drops sessions that were not touched for SessionTTL.
// Sessions with a submission in flight are kept.
func (s *Service) expireSessions() {
	deadline := s.now().Add(-SessionTTL)

	s.mu.Lock()
	defer s.mu.Unlock()
	for id, sess := range s.sessions {
		sess.mu.Lock()
		expired := !sess.inFlight && sess.touchedAt.Before(deadline)
		sess.mu.Unlock()
		if expired {
			delete(s.sessions, id)
			s.logger.Info("checkout expired", zap.String("checkout_id", id.String()))
		}
	}
}
