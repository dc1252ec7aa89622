package repository

import (
	"context"
	"sync"

	"github.com/clinicshop/storefront/internal/domain"
)

// MemoryRepository keeps serialized carts in process memory. Carts go through
// the same codec as the durable drivers.
type MemoryRepository struct {
	mu    sync.RWMutex
	carts map[string][]byte
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{carts: make(map[string][]byte)}
}

func (m *MemoryRepository) GetCart(_ context.Context, cartID string) (*domain.Cart, error) {
	m.mu.RLock()
	data, ok := m.carts[cartID]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrCartNotFound
	}
	return decodeCart(cartID, data)
}

func (m *MemoryRepository) SaveCart(_ context.Context, cart *domain.Cart) error {
	data, err := encodeCart(cart)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.carts[cart.ID] = data
	return nil
}

func (m *MemoryRepository) DeleteCart(_ context.Context, cartID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.carts, cartID)
	return nil
}

// Put stores raw bytes under cartID, bypassing the codec.
func (m *MemoryRepository) Put(cartID string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.carts[cartID] = data
}

func (m *MemoryRepository) Close() error {
	return nil
}
