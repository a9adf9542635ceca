// Package session holds the state shared by every element of one export
// run: material styles and presentation layers. Caches are safe for
// concurrent use and journal their writes per element so a failed element
// leaves no entries behind.
package session

import "sync"

// Cache is a keyed map with journaled scopes.
type Cache[K comparable, V any] struct {
	mu sync.Mutex
	m  map[K]V
}

// NewCache returns an empty cache.
func NewCache[K comparable, V any]() *Cache[K, V] {
	return &Cache[K, V]{m: make(map[K]V)}
}

// Get returns the value stored under k.
func (c *Cache[K, V]) Get(k K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.m[k]
	return v, ok
}

// Len returns the number of keys.
func (c *Cache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.m)
}

// Keys returns a snapshot of the keys in unspecified order.
func (c *Cache[K, V]) Keys() []K {
	c.mu.Lock()
	defer c.mu.Unlock()
	keys := make([]K, 0, len(c.m))
	for k := range c.m {
		keys = append(keys, k)
	}
	return keys
}

// Scope opens a journal. Writes made through the scope are undone by
// Rollback.
func (c *Cache[K, V]) Scope() *Scope[K, V] {
	return &Scope[K, V]{c: c, prev: make(map[K]entry[V])}
}

type entry[V any] struct {
	v  V
	ok bool
}

// Scope records the value each key had before its first write through the
// scope.
type Scope[K comparable, V any] struct {
	c    *Cache[K, V]
	mu   sync.Mutex
	prev map[K]entry[V]
	done bool
}

// remember must be called with the cache lock held.
func (s *Scope[K, V]) remember(k K) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, seen := s.prev[k]; seen {
		return
	}
	v, ok := s.c.m[k]
	s.prev[k] = entry[V]{v: v, ok: ok}
}

// GetOrCreate returns the value under k, calling create to make it when
// absent. create runs under the cache lock, so at most one value is ever
// created per key. created reports whether create ran.
func (s *Scope[K, V]) GetOrCreate(k K, create func() V) (v V, created bool) {
	s.c.mu.Lock()
	defer s.c.mu.Unlock()
	if v, ok := s.c.m[k]; ok {
		return v, false
	}
	s.remember(k)
	v = create()
	s.c.m[k] = v
	return v, true
}

// Update replaces the value under k with fn(old, ok).
func (s *Scope[K, V]) Update(k K, fn func(old V, ok bool) V) V {
	s.c.mu.Lock()
	defer s.c.mu.Unlock()
	s.remember(k)
	old, ok := s.c.m[k]
	v := fn(old, ok)
	s.c.m[k] = v
	return v
}

// Commit keeps the scope's writes. It is a no-op after Commit or Rollback.
func (s *Scope[K, V]) Commit() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.done = true
	s.prev = nil
}

// Rollback restores every key written through the scope. It is a no-op
// after Commit or Rollback.
func (s *Scope[K, V]) Rollback() {
	s.c.mu.Lock()
	defer s.c.mu.Unlock()
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done {
		return
	}
	s.done = true
	for k, e := range s.prev {
		if e.ok {
			s.c.m[k] = e.v
		} else {
			delete(s.c.m, k)
		}
	}
	s.prev = nil
}
