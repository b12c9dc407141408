// ABOUTME: In-process session backend
// ABOUTME: Used for ephemeral sessions and tests

package session

import "sync"

// MemoryBackend keeps the session in a map
type MemoryBackend struct {
	mu     sync.Mutex
	values map[Key]string
}

// NewMemoryBackend creates an empty in-memory backend
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{values: map[Key]string{}}
}

// Load returns a copy of the stored values
func (m *MemoryBackend) Load() (map[Key]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make(map[Key]string, len(m.values))
	for k, v := range m.values {
		out[k] = v
	}
	return out, nil
}

// Save merges values into the store
func (m *MemoryBackend) Save(values map[Key]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for k, v := range values {
		if k.Valid() {
			m.values[k] = v
		}
	}
	return nil
}

// Delete removes keys
func (m *MemoryBackend) Delete(keys ...Key) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, k := range keys {
		delete(m.values, k)
	}
	return nil
}

// Put sets a raw value, including keys outside the owned set
func (m *MemoryBackend) Put(k Key, v string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[k] = v
}

// Raw returns a raw value, including keys outside the owned set
func (m *MemoryBackend) Raw(k Key) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[k]
	return v, ok
}
