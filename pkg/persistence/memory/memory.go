package memory

import (
	"sync"

	"github.com/harbour-fi/ramp-go/pkg/persistence"
)

// MemoryAddressStore keeps the address book in process memory. Everything is
// lost when the process exits.
type MemoryAddressStore struct {
	mu        sync.RWMutex
	addresses []string
	closed    bool
}

var _ persistence.IAddressStore = (*MemoryAddressStore)(nil)

func NewMemoryAddressStore() *MemoryAddressStore {
	return &MemoryAddressStore{addresses: []string{}}
}

func (m *MemoryAddressStore) AddAddresses(addresses []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return persistence.ErrStoreClosed
	}
	m.addresses = persistence.MergeAddresses(m.addresses, addresses)
	return nil
}

func (m *MemoryAddressStore) ListAddresses() ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, persistence.ErrStoreClosed
	}
	out := make([]string, len(m.addresses))
	copy(out, m.addresses)
	return out, nil
}

func (m *MemoryAddressStore) ClearAddresses() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return persistence.ErrStoreClosed
	}
	m.addresses = []string{}
	return nil
}

func (m *MemoryAddressStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func (m *MemoryAddressStore) HealthCheck() error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return persistence.ErrStoreClosed
	}
	return nil
}
