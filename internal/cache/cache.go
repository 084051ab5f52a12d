// Package cache implements the look-aside substate cache SPEC_FULL's
// domain stack adds in front of a store.SubstateStore: a prefetch path
// for the "flat substate cache" spec §5 alludes to without a concrete
// backend. Determinism never depends on the cache: a cache miss only
// costs a trip to the backing store, it never changes which value a
// read returns.
package cache

import (
	"sync"
	"time"

	"github.com/ledgerframe/callframe-engine/internal/node"
	"github.com/ledgerframe/callframe-engine/internal/store"
)

// Config mirrors the teacher's cache.CacheConfig: a default TTL plus a
// cleanup interval. MemoryCache reads only DefaultTTL; no background
// sweep runs, so an expired entry is reported as a miss by Get and stays
// in the map until it is overwritten or invalidated.
type Config struct {
	DefaultTTL      time.Duration
	CleanupInterval time.Duration
}

func DefaultConfig() Config {
	return Config{DefaultTTL: 5 * time.Minute, CleanupInterval: 10 * time.Minute}
}

type entry struct {
	value      store.Substate
	expiration time.Time
}

// MemoryCache is an in-process look-aside cache over a SubstateStore,
// grounded on the teacher's infrastructure/cache.Cache (TTL expiry, a
// version counter bumped on InvalidateAll so stale reads from a
// goroutine holding an old snapshot can be told apart from current
// ones) adapted to key on node.SubstateId instead of an arbitrary
// string.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[node.SubstateId]entry
	cfg     Config
	version int64
}

func NewMemoryCache(cfg Config) *MemoryCache {
	if cfg.DefaultTTL == 0 {
		cfg.DefaultTTL = 5 * time.Minute
	}
	return &MemoryCache{entries: make(map[node.SubstateId]entry), cfg: cfg}
}

func (c *MemoryCache) Get(id node.SubstateId) (store.Substate, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[id]
	if !ok || time.Now().After(e.expiration) {
		return store.Substate{}, false
	}
	return e.value, true
}

func (c *MemoryCache) Set(id node.SubstateId, val store.Substate) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[id] = entry{value: val, expiration: time.Now().Add(c.cfg.DefaultTTL)}
}

func (c *MemoryCache) Invalidate(id node.SubstateId) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, id)
}

// InvalidateAll drops every entry and bumps the version counter, the
// teacher's InvalidateVersion pattern: a commit that touches the store
// out of band (e.g. a direct SQLStore migration) can call this to
// discard anything the cache believed it knew.
func (c *MemoryCache) InvalidateAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.version++
	c.entries = make(map[node.SubstateId]entry)
}

func (c *MemoryCache) Version() int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.version
}

func (c *MemoryCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// CachedStore wraps a store.SubstateStore with a look-aside MemoryCache
// (or any SubstateCache, e.g. RedisCache): Get checks the cache first
// and only falls through to the backing store on a miss, populating
// the cache with what it found; Put always writes through and then
// invalidates the stale cache entry rather than trying to keep it
// coherent, since a single invalidate is simpler to reason about than
// updating a value the next read will just re-fetch anyway.
type CachedStore struct {
	backing store.SubstateStore
	cache   SubstateCache
}

// SubstateCache is the interface CachedStore needs; MemoryCache and
// RedisCache both satisfy it.
type SubstateCache interface {
	Get(id node.SubstateId) (store.Substate, bool)
	Set(id node.SubstateId, val store.Substate)
	Invalidate(id node.SubstateId)
}

func NewCachedStore(backing store.SubstateStore, cache SubstateCache) *CachedStore {
	return &CachedStore{backing: backing, cache: cache}
}

func (c *CachedStore) Get(id node.SubstateId) (store.Substate, bool, error) {
	if val, ok := c.cache.Get(id); ok {
		return val, true, nil
	}
	val, found, err := c.backing.Get(id)
	if err != nil || !found {
		return val, found, err
	}
	c.cache.Set(id, val)
	return val, true, nil
}

func (c *CachedStore) Put(id node.SubstateId, val store.Substate) error {
	if err := c.backing.Put(id, val); err != nil {
		return err
	}
	c.cache.Invalidate(id)
	return nil
}
