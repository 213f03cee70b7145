package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/maruf7705/80MCQ/internal/storage"
)

// memAdapter is an in-memory storage.Adapter with version tokens, used to
// exercise the stores' conflict handling without a real backend.
type memAdapter struct {
	mu    sync.Mutex
	files map[string][]byte
	vers  map[string]int

	// failWrites rejects the next n writes with ErrConflict.
	failWrites int
	writes     int
}

func newMemAdapter() *memAdapter {
	return &memAdapter{
		files: make(map[string][]byte),
		vers:  make(map[string]int),
	}
}

func (m *memAdapter) Read(_ context.Context, name string) ([]byte, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.files[name]
	if !ok {
		return nil, "", storage.ErrNotExist
	}
	return data, tokenFor(m.vers[name]), nil
}

func (m *memAdapter) Write(_ context.Context, name string, data []byte, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writes++
	if m.failWrites > 0 {
		m.failWrites--
		return storage.ErrConflict
	}
	if _, exists := m.files[name]; exists && token != tokenFor(m.vers[name]) {
		return storage.ErrConflict
	}
	m.files[name] = data
	m.vers[name]++
	return nil
}

func tokenFor(v int) string {
	return fmt.Sprintf("v%d", v)
}
