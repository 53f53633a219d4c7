// Package syncx provides extended synchronization primitives
package syncx

import "sync"

// Guard holds a value shared between the capture loop and its readers.
type Guard[T any] struct {
	mu    sync.RWMutex
	value T
}

// NewGuard creates a guarded value.
func NewGuard[T any](initial T) *Guard[T] {
	return &Guard[T]{value: initial}
}

// Get returns a copy of the value (T should be a value type or treated as immutable).
func (g *Guard[T]) Get() T {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.value
}

// Update mutates the value in place under the write lock and returns the result.
func (g *Guard[T]) Update(fn func(*T)) T {
	g.mu.Lock()
	defer g.mu.Unlock()
	fn(&g.value)
	return g.value
}
