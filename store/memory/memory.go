package memory

import (
	"sync"

	"github.com/aquilax/promptbox/store"
)

// Memory is the in-process store backend, used in tests and when no DSN is
// configured. A non-zero quota bounds the size of a single value.
type Memory struct {
	mu     sync.Mutex
	values map[string][]byte
	quota  int
}

func New(quota int) *Memory {
	return &Memory{
		values: make(map[string][]byte),
		quota:  quota,
	}
}

func (m *Memory) Open(driver, dsn string) error {
	return nil
}

func (m *Memory) Get(key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	value, found := m.values[key]
	if !found {
		return nil, store.ErrNotFound
	}
	return append([]byte(nil), value...), nil
}

func (m *Memory) Set(key string, value []byte) error {
	if m.quota > 0 && len(value) > m.quota {
		return store.ErrQuotaExceeded
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = append([]byte(nil), value...)
	return nil
}

func (m *Memory) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}

func (m *Memory) Close() error {
	return nil
}
