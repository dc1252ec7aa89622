package cart

import (
	"slices"
	"sync"
	"time"

	"github.com/clinicshop/storefront/internal/domain"
)

// Change describes the effect of a single mutation so callers can tell the
// visitor when a requested quantity was adjusted.
type Change struct {
	ProductID string `json:"product_id"`
	Requested int    `json:"requested"`
	Quantity  int    `json:"quantity"`
	Clamped   bool   `json:"clamped"`
	Removed   bool   `json:"removed"`
}

// Store holds one visitor's cart. Mutations are serialized and never fail:
// invalid quantities are clamped instead of rejected.
type Store struct {
	mu      sync.Mutex
	id      string
	items   []domain.LineItem
	version int64
	updated time.Time

	subMu       sync.Mutex
	subscribers map[int]func(domain.Cart)
	nextSub     int
	now         func() time.Time
}

func New(id string) *Store {
	return &Store{
		id:          id,
		subscribers: make(map[int]func(domain.Cart)),
		now:         time.Now,
	}
}

// NewFromSnapshot hydrates a store from persisted state.
func NewFromSnapshot(c domain.Cart) *Store {
	s := New(c.ID)
	c = c.Normalize()
	s.items = append(s.items, c.Items...)
	s.version = c.Version
	s.updated = c.UpdatedAt
	return s
}

func (s *Store) ID() string {
	return s.id
}

// Subscribe registers fn to receive the cart after every effective mutation.
// The returned func removes the subscription.
func (s *Store) Subscribe(fn func(domain.Cart)) func() {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	id := s.nextSub
	s.nextSub++
	s.subscribers[id] = fn
	return func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		delete(s.subscribers, id)
	}
}

func (s *Store) AddItem(product domain.Product, quantity int) Change {
	change := Change{ProductID: product.ID, Requested: quantity}
	if quantity < 1 {
		quantity = 1
	}
	limit := product.StockLimit()

	s.mu.Lock()
	i := s.indexOf(product.ID)
	if i < 0 {
		if limit < 1 {
			change.Clamped = true
			s.mu.Unlock()
			return change
		}
		q := clamp(quantity, limit)
		change.Clamped = q != quantity
		change.Quantity = q
		s.items = append(s.items, domain.LineItem{Product: product, Quantity: q})
	} else {
		want := s.items[i].Quantity + quantity
		q := clamp(want, limit)
		change.Clamped = q != want
		change.Quantity = q
		if q == s.items[i].Quantity {
			s.mu.Unlock()
			return change
		}
		s.items[i].Quantity = q
	}
	snapshot := s.commit()
	s.mu.Unlock()

	s.notify(snapshot)
	return change
}

// UpdateQuantity sets the quantity of an existing line. A quantity of zero or
// less removes the line; an unknown product id is a no-op.
func (s *Store) UpdateQuantity(productID string, quantity int) Change {
	change := Change{ProductID: productID, Requested: quantity}

	s.mu.Lock()
	i := s.indexOf(productID)
	if i < 0 {
		s.mu.Unlock()
		return change
	}
	if quantity <= 0 {
		s.items = append(s.items[:i], s.items[i+1:]...)
		change.Removed = true
	} else {
		q := clamp(quantity, s.items[i].Product.StockLimit())
		change.Clamped = q != quantity
		change.Quantity = q
		if q == s.items[i].Quantity {
			s.mu.Unlock()
			return change
		}
		s.items[i].Quantity = q
	}
	snapshot := s.commit()
	s.mu.Unlock()

	s.notify(snapshot)
	return change
}

func (s *Store) RemoveItem(productID string) Change {
	change := Change{ProductID: productID}

	s.mu.Lock()
	i := s.indexOf(productID)
	if i < 0 {
		s.mu.Unlock()
		return change
	}
	s.items = append(s.items[:i], s.items[i+1:]...)
	change.Removed = true
	snapshot := s.commit()
	s.mu.Unlock()

	s.notify(snapshot)
	return change
}

func (s *Store) Clear() {
	s.mu.Lock()
	if len(s.items) == 0 {
		s.mu.Unlock()
		return
	}
	s.items = nil
	snapshot := s.commit()
	s.mu.Unlock()

	s.notify(snapshot)
}

// TotalItems is the sum of all line quantities.
func (s *Store) TotalItems() int {
	return s.Snapshot().TotalItems()
}

// TotalPrice is the cart subtotal at the prices captured when lines were added.
func (s *Store) TotalPrice() float64 {
	return s.Snapshot().TotalPrice()
}

func (s *Store) Lines() []domain.LineItem {
	return s.Snapshot().Items
}

func (s *Store) Snapshot() domain.Cart {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Store) indexOf(productID string) int {
	for i := range s.items {
		if s.items[i].Product.ID == productID {
			return i
		}
	}
	return -1
}

// commit must be called with mu held.
func (s *Store) commit() domain.Cart {
	s.version++
	s.updated = s.now()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() domain.Cart {
	items := make([]domain.LineItem, len(s.items))
	copy(items, s.items)
	return domain.Cart{
		ID:        s.id,
		Items:     items,
		Version:   s.version,
		UpdatedAt: s.updated,
	}
}

func (s *Store) notify(snapshot domain.Cart) {
	s.subMu.Lock()
	ids := make([]int, 0, len(s.subscribers))
	for id := range s.subscribers {
		ids = append(ids, id)
	}
	fns := make([]func(domain.Cart), 0, len(ids))
	slices.Sort(ids)
	for _, id := range ids {
		fns = append(fns, s.subscribers[id])
	}
	s.subMu.Unlock()

	for _, fn := range fns {
		fn(snapshot)
	}
}

func clamp(quantity, limit int) int {
	if quantity > limit {
		quantity = limit
	}
	if quantity < 1 {
		quantity = 1
	}
	return quantity
}
