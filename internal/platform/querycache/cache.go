package querycache

import (
	"strings"
	"sync"
)

// Key builds a cache key from an entity name and its query parameters.
func Key(entity string, params ...string) string {
	if len(params) == 0 {
		return entity
	}
	return entity + ":" + strings.Join(params, ":")
}

// KeyFunc derives a cache key from the arguments of a mutation.
type KeyFunc func(args ...string) string

// Cache is an in-process query-result cache. Mutations are registered up
// front with the key builders they invalidate, so a new mutation cannot
// forget to evict its dependent queries.
type Cache struct {
	mu         sync.Mutex
	items      map[string]any
	deps       map[string][]KeyFunc
	prefixDeps map[string][]KeyFunc
}

func New() *Cache {
	return &Cache{
		items:      make(map[string]any),
		deps:       make(map[string][]KeyFunc),
		prefixDeps: make(map[string][]KeyFunc),
	}
}

// Register declares the cache keys a mutation invalidates.
func (c *Cache) Register(mutation string, keys ...KeyFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deps[mutation] = append(c.deps[mutation], keys...)
}

// RegisterPrefix declares key prefixes a mutation invalidates: every
// cached entry under a produced prefix is evicted. Used where the
// mutation cannot enumerate its dependents, e.g. one leave type's change
// fanning out to the balances of every user.
func (c *Cache) RegisterPrefix(mutation string, prefixes ...KeyFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.prefixDeps[mutation] = append(c.prefixDeps[mutation], prefixes...)
}

func (c *Cache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	value, ok := c.items[key]
	return value, ok
}

func (c *Cache) Set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = value
}

func (c *Cache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, key)
}

// Invalidate evicts exactly the keys and prefixes registered for the
// mutation, expanded with the mutation arguments. Unregistered mutations
// evict nothing.
func (c *Cache) Invalidate(mutation string, args ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, keyFn := range c.deps[mutation] {
		delete(c.items, keyFn(args...))
	}
	for _, prefixFn := range c.prefixDeps[mutation] {
		prefix := prefixFn(args...)
		for key := range c.items {
			if strings.HasPrefix(key, prefix) {
				delete(c.items, key)
			}
		}
	}
}
