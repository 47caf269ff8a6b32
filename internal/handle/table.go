// Package handle implements the handle tables shared by the backends.
package handle

import (
	"sync"
	"sync/atomic"
)

// Table maps monotonically assigned handles to backend-native records.
//
// Handles start at zero and are never reused: the counter only grows, so a
// closed handle stays invalid for the lifetime of the table.
type Table[K ~int64, V any] struct {
	next    atomic.Int64
	mu      sync.RWMutex
	entries map[K]V
}

// NewTable creates an empty table.
func NewTable[K ~int64, V any]() *Table[K, V] {
	return &Table[K, V]{entries: make(map[K]V)}
}

// Insert registers v under a fresh handle.
func (t *Table[K, V]) Insert(v V) K {
	k := K(t.next.Add(1) - 1)

	t.mu.Lock()
	t.entries[k] = v
	t.mu.Unlock()

	return k
}

// Get returns the record for k.
func (t *Table[K, V]) Get(k K) (V, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	v, ok := t.entries[k]
	return v, ok
}

// Remove unregisters k and returns its record.
func (t *Table[K, V]) Remove(k K) (V, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	v, ok := t.entries[k]
	if ok {
		delete(t.entries, k)
	}
	return v, ok
}

// Len returns the number of open handles.
func (t *Table[K, V]) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entries)
}

// Drain removes every record and returns them. The counter is not reset.
func (t *Table[K, V]) Drain() []V {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]V, 0, len(t.entries))
	for k, v := range t.entries {
		out = append(out, v)
		delete(t.entries, k)
	}
	return out
}
