package cart

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/clinicshop/storefront/internal/domain"
	"github.com/clinicshop/storefront/internal/repository"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	DefaultIdleTTL   = 30 * time.Minute
	DefaultIOTimeout = 2 * time.Second
)

// Manager hands out one live Store per visitor cart id. Stores are hydrated
// from the repository on first use and every mutation is written back.
type Manager struct {
	repo      repository.CartRepository
	log       *zap.Logger
	ioTimeout time.Duration
	idleTTL   time.Duration

	mu     sync.Mutex
	stores map[string]*entry
	sfg    singleflight.Group // collapses concurrent hydration of one cart

	stopCleanup chan struct{}
	stopOnce    sync.Once
	wg          sync.WaitGroup
	now         func() time.Time
}

type entry struct {
	store       *Store
	persister   *persister
	unsubscribe func()
	lastAccess  time.Time
}

type ManagerOption func(*Manager)

func WithIdleTTL(ttl time.Duration) ManagerOption {
	return func(m *Manager) {
		if ttl > 0 {
			m.idleTTL = ttl
		}
	}
}

func WithIOTimeout(timeout time.Duration) ManagerOption {
	return func(m *Manager) {
		if timeout > 0 {
			m.ioTimeout = timeout
		}
	}
}

func NewManager(repo repository.CartRepository, log *zap.Logger, opts ...ManagerOption) *Manager {
	m := &Manager{
		repo:        repo,
		log:         log,
		ioTimeout:   DefaultIOTimeout,
		idleTTL:     DefaultIdleTTL,
		stores:      make(map[string]*entry),
		stopCleanup: make(chan struct{}),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}

	m.wg.Add(1)
	go m.cleanupLoop()

	return m
}

// Get returns the live store for cartID, loading it on first use. A missing or
// corrupt persisted cart yields an empty store. When the repository cannot be
// read the caller gets an empty store that is neither cached nor persisted, so
// the saved cart is left alone and the next Get retries the load.
func (m *Manager) Get(ctx context.Context, cartID string) *Store {
	if s := m.lookup(cartID); s != nil {
		return s
	}

	v, _, _ := m.sfg.Do(cartID, func() (interface{}, error) {
		if s := m.lookup(cartID); s != nil {
			return s, nil
		}

		s, ok := m.load(ctx, cartID)
		if !ok {
			return s, nil
		}
		p := &persister{
			repo:    m.repo,
			log:     m.log,
			timeout: m.ioTimeout,
			saved:   s.Snapshot().Version,
		}
		e := &entry{
			store:       s,
			persister:   p,
			unsubscribe: s.Subscribe(p.save),
			lastAccess:  m.now(),
		}

		m.mu.Lock()
		m.stores[cartID] = e
		m.mu.Unlock()
		return s, nil
	})

	return v.(*Store)
}

// Len reports how many carts are held in memory.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.stores)
}

// Close stops the cleanup loop and flushes carts whose last write failed.
func (m *Manager) Close() error {
	m.stopOnce.Do(func() { close(m.stopCleanup) })
	m.wg.Wait()

	m.mu.Lock()
	entries := make([]*entry, 0, len(m.stores))
	for id, e := range m.stores {
		entries = append(entries, e)
		delete(m.stores, id)
	}
	m.mu.Unlock()

	for _, e := range entries {
		e.unsubscribe()
		e.persister.save(e.store.Snapshot())
	}
	return nil
}

func (m *Manager) lookup(cartID string) *Store {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.stores[cartID]
	if !ok {
		return nil
	}
	e.lastAccess = m.now()
	return e.store
}

// load hydrates cartID. ok is false when the repository could not be read and
// the returned store must not be written back.
func (m *Manager) load(ctx context.Context, cartID string) (*Store, bool) {
	loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), m.ioTimeout)
	defer cancel()

	c, err := m.repo.GetCart(loadCtx, cartID)
	switch {
	case err == nil:
		c.ID = cartID
		return NewFromSnapshot(*c), true
	case errors.Is(err, repository.ErrCartNotFound):
	case errors.Is(err, repository.ErrCorruptCart):
		m.log.Warn("discarding corrupt persisted cart", zap.String("cart_id", cartID), zap.Error(err))
	default:
		m.log.Warn("cart load failed, serving detached empty cart", zap.String("cart_id", cartID), zap.Error(err))
		return New(cartID), false
	}
	return New(cartID), true
}

func (m *Manager) cleanupLoop() {
	defer m.wg.Done()

	interval := m.idleTTL / 2
	if interval > time.Minute {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.evictIdle(m.now())
		case <-m.stopCleanup:
			return
		}
	}
}

// evictIdle drops carts not touched within idleTTL of now. A cart is flushed
// while it is still registered, so a concurrent Get either finds it in memory
// or rehydrates what was just written. Carts whose flush failed stay resident
// until a later pass or Close.
func (m *Manager) evictIdle(now time.Time) int {
	m.mu.Lock()
	idle := make(map[string]*entry)
	for id, e := range m.stores {
		if now.Sub(e.lastAccess) >= m.idleTTL {
			idle[id] = e
		}
	}
	m.mu.Unlock()

	flushed := make(map[string]bool, len(idle))
	for id, e := range idle {
		flushed[id] = e.persister.flush(e.store.Snapshot())
	}

	evicted := 0
	m.mu.Lock()
	for id, e := range idle {
		if !flushed[id] || m.stores[id] != e || now.Sub(e.lastAccess) < m.idleTTL {
			continue
		}
		e.unsubscribe()
		delete(m.stores, id)
		evicted++
	}
	m.mu.Unlock()
	return evicted
}

// persister writes full cart snapshots. Writes are serialized and a snapshot
// older than the last one written is skipped, so storage never moves back.
type persister struct {
	repo    repository.CartRepository
	log     *zap.Logger
	timeout time.Duration

	mu    sync.Mutex
	saved int64
}

func (p *persister) save(c domain.Cart) {
	p.flush(c)
}

// flush writes c unless a newer snapshot is already stored. It reports whether
// storage holds c or something newer afterwards.
func (p *persister) flush(c domain.Cart) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if c.Version <= p.saved {
		return true
	}

	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()
	if err := p.repo.SaveCart(ctx, &c); err != nil {
		// the in-memory cart stays authoritative
		p.log.Warn("cart persistence failed",
			zap.String("cart_id", c.ID),
			zap.Int64("version", c.Version),
			zap.Error(err))
		return false
	}
	p.saved = c.Version
	return true
}
