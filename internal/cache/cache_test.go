package cache

import (
	"testing"
	"time"

	"github.com/ledgerframe/callframe-engine/internal/ids"
	"github.com/ledgerframe/callframe-engine/internal/node"
	"github.com/ledgerframe/callframe-engine/internal/store"
)

func testSubstateId() node.SubstateId {
	alloc := ids.NewAllocator(ids.HashBytes([]byte("tx")))
	id := alloc.New(ids.KindVault)
	return node.SubstateId{NodeId: id, Offset: node.OffsetVaultRoot}
}

func TestMemoryCacheGetSetInvalidate(t *testing.T) {
	c := NewMemoryCache(DefaultConfig())
	id := testSubstateId()

	if _, ok := c.Get(id); ok {
		t.Fatalf("expected a miss before any Set")
	}
	c.Set(id, store.Substate{Value: 42})
	got, ok := c.Get(id)
	if !ok || got.Value.(int) != 42 {
		t.Fatalf("expected a hit with value 42, got %#v, %v", got, ok)
	}
	c.Invalidate(id)
	if _, ok := c.Get(id); ok {
		t.Fatalf("expected a miss after Invalidate")
	}
}

func TestMemoryCacheExpiresEntriesByTTL(t *testing.T) {
	c := NewMemoryCache(Config{DefaultTTL: time.Nanosecond})
	id := testSubstateId()
	c.Set(id, store.Substate{Value: 1})
	time.Sleep(time.Millisecond)
	if _, ok := c.Get(id); ok {
		t.Fatalf("expected the entry to have expired")
	}
}

func TestMemoryCacheInvalidateAllBumpsVersionAndClears(t *testing.T) {
	c := NewMemoryCache(DefaultConfig())
	id := testSubstateId()
	c.Set(id, store.Substate{Value: 1})
	before := c.Version()
	c.InvalidateAll()
	if c.Version() != before+1 {
		t.Fatalf("expected version to increment")
	}
	if c.Size() != 0 {
		t.Fatalf("expected InvalidateAll to clear all entries")
	}
}

func TestCachedStorePopulatesCacheOnMissAndWritesThroughOnPut(t *testing.T) {
	backing := store.NewMemoryStore()
	c := NewMemoryCache(DefaultConfig())
	cs := NewCachedStore(backing, c)
	id := testSubstateId()

	if _, found, err := cs.Get(id); err != nil || found {
		t.Fatalf("expected a miss on an empty backing store, got found=%v err=%v", found, err)
	}

	if err := cs.Put(id, store.Substate{Value: 7}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if _, ok := c.Get(id); ok {
		t.Fatalf("expected Put to invalidate rather than populate the cache")
	}

	val, found, err := cs.Get(id)
	if err != nil || !found || val.Value.(int) != 7 {
		t.Fatalf("expected Get to read through to the backing store, got %#v found=%v err=%v", val, found, err)
	}
	if cached, ok := c.Get(id); !ok || cached.Value.(int) != 7 {
		t.Fatalf("expected the prior Get to have populated the cache")
	}
}
