package cart

import (
	"sync"

	"github.com/fjod/go_cart/storefront/internal/domain"
)

// Observer receives the cart state after every mutation that changed it.
// Observers run while the store is locked and must not call back into it.
type Observer func(domain.CartSnapshot)

// Store holds the lines of a single client's cart.
// Lines keep insertion order and there is at most one line per product id.
type Store struct {
	mu        sync.Mutex
	lines     []domain.CartLine
	index     map[int64]int // productID -> position in lines
	version   uint64
	observers map[int]Observer
	nextObsID int
}

// NewStore creates an empty cart store
func NewStore() *Store {
	return &Store{
		index:     make(map[int64]int),
		observers: make(map[int]Observer),
	}
}

// Restore replaces the content of the store with previously persisted lines.
// Lines with a non-positive quantity and repeated product ids are dropped.
// Observers are not notified.
func (s *Store) Restore(lines []domain.CartLine, version uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lines = s.lines[:0]
	s.index = make(map[int64]int, len(lines))
	for _, l := range lines {
		if l.Quantity <= 0 {
			continue
		}
		if _, ok := s.index[l.Product.ID]; ok {
			continue
		}
		l.Product = l.Product.Clone()
		s.index[l.Product.ID] = len(s.lines)
		s.lines = append(s.lines, l)
	}
	s.version = version
}

// Add puts one unit of the product in the cart.
// An existing line is incremented, otherwise a new selected line is appended.
// Stock is not checked.
func (s *Store) Add(product domain.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i, ok := s.index[product.ID]; ok {
		s.lines[i].Quantity++
	} else {
		s.index[product.ID] = len(s.lines)
		s.lines = append(s.lines, domain.CartLine{
			Product:  product.Clone(),
			Quantity: 1,
			Selected: true,
		})
	}
	s.changed()
}

// Remove deletes the line of the product. Unknown ids are ignored.
func (s *Store) Remove(productID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.removeLocked(map[int64]struct{}{productID: {}}) {
		s.changed()
	}
}

// SetQuantity replaces the quantity of an existing line.
// A quantity <= 0 removes the line. It never creates a line.
func (s *Store) SetQuantity(productID int64, quantity int) {
	if quantity <= 0 {
		s.Remove(productID)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.index[productID]
	if !ok || s.lines[i].Quantity == quantity {
		return
	}
	s.lines[i].Quantity = quantity
	s.changed()
}

// ToggleSelected flips the selection flag of a line.
func (s *Store) ToggleSelected(productID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.index[productID]
	if !ok {
		return
	}
	s.lines[i].Selected = !s.lines[i].Selected
	s.changed()
}

// SelectAll sets the selection flag of every line.
func (s *Store) SelectAll(selected bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	updated := false
	for i := range s.lines {
		if s.lines[i].Selected != selected {
			s.lines[i].Selected = selected
			updated = true
		}
	}
	if updated {
		s.changed()
	}
}

// Clear empties the cart.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.lines) == 0 {
		return
	}
	s.lines = nil
	s.index = make(map[int64]int)
	s.changed()
}

// ClearSelected removes the selected lines and keeps the others in order.
func (s *Store) ClearSelected() {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make(map[int64]struct{})
	for _, l := range s.lines {
		if l.Selected {
			ids[l.Product.ID] = struct{}{}
		}
	}
	if s.removeLocked(ids) {
		s.changed()
	}
}

// RemoveProducts removes exactly the given product ids, whatever their selection.
func (s *Store) RemoveProducts(productIDs ...int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make(map[int64]struct{}, len(productIDs))
	for _, id := range productIDs {
		ids[id] = struct{}{}
	}
	if s.removeLocked(ids) {
		s.changed()
	}
}

// Rebase moves the store past a persisted version it has not seen, keeping its
// lines, so the next snapshot it emits is newer than version. It reports false
// and does nothing when the store is already ahead.
func (s *Store) Rebase(version uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.version > version {
		return false
	}
	s.version = version
	s.changed()
	return true
}

// Snapshot returns a copy of the cart with its totals.
func (s *Store) Snapshot() domain.CartSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return domain.NewCartSnapshot(s.lines, s.version)
}

// Subscribe registers an observer and returns a function that removes it.
func (s *Store) Subscribe(fn Observer) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextObsID
	s.nextObsID++
	s.observers[id] = fn

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.observers, id)
	}
}

func (s *Store) removeLocked(ids map[int64]struct{}) bool {
	if len(ids) == 0 {
		return false
	}

	kept := s.lines[:0]
	removed := false
	for _, l := range s.lines {
		if _, ok := ids[l.Product.ID]; ok {
			removed = true
			continue
		}
		kept = append(kept, l)
	}
	if !removed {
		return false
	}

	// zero the tail so dropped products can be collected
	for i := len(kept); i < len(s.lines); i++ {
		s.lines[i] = domain.CartLine{}
	}
	s.lines = kept
	s.index = make(map[int64]int, len(kept))
	for i, l := range kept {
		s.index[l.Product.ID] = i
	}
	return true
}

func (s *Store) changed() {
	s.version++
	if len(s.observers) == 0 {
		return
	}
	snap := domain.NewCartSnapshot(s.lines, s.version)
	for _, fn := range s.observers {
		fn(snap)
	}
}
