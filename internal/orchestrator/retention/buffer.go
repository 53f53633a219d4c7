// Package retention tracks the bounded FIFO of screenshots still on disk
package retention

// Buffer is an ordered set of artifact paths, oldest first, holding at most
// Cap entries. It is owned by a single goroutine and is not synchronized.
type Buffer struct {
	capacity int
	paths    []string
}

// NewBuffer creates a buffer with the given capacity (minimum 1).
func NewBuffer(capacity int) *Buffer {
	if capacity < 1 {
		capacity = 1
	}
	return &Buffer{capacity: capacity, paths: make([]string, 0, capacity)}
}

// Cap returns the buffer capacity.
func (b *Buffer) Cap() int { return b.capacity }

// Len returns the number of resident paths.
func (b *Buffer) Len() int { return len(b.paths) }

// Full reports whether the next Push needs an eviction first.
func (b *Buffer) Full() bool { return len(b.paths) >= b.capacity }

// Push appends a newly captured path. The caller evicts before pushing into a
// full buffer; if it did not, the oldest path is dropped and returned.
func (b *Buffer) Push(path string) (dropped string, ok bool) {
	if b.Full() {
		dropped, ok = b.EvictOldest()
	}
	b.paths = append(b.paths, path)
	return dropped, ok
}

// EvictOldest removes and returns the oldest path.
func (b *Buffer) EvictOldest() (string, bool) {
	if len(b.paths) == 0 {
		return "", false
	}
	oldest := b.paths[0]
	b.paths[0] = ""
	b.paths = b.paths[1:]
	return oldest, true
}

// Paths returns a copy of the resident paths, oldest first.
func (b *Buffer) Paths() []string {
	out := make([]string, len(b.paths))
	copy(out, b.paths)
	return out
}
