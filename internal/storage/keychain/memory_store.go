package keychain

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/deviceid/internal/common"
)

type entryKey struct {
	service string
	account string
}

// MemoryStore is an in-process Store. Nothing survives the process.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[entryKey]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[entryKey]string)}
}

func (m *MemoryStore) Get(_ context.Context, service, account string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.entries[entryKey{service, account}]
	if !ok {
		return "", common.ErrNotFound
	}
	return v, nil
}

func (m *MemoryStore) Set(_ context.Context, service, account, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[entryKey{service, account}] = value
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, service, account string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, entryKey{service, account})
	return nil
}
