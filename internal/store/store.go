// Package store implements the Track (spec §4.1): the single-writer view
// a transaction holds over the persistent substate store. Track buffers
// every mutation in a write-set and only asks the underlying
// SubstateStore to persist it on commit; a rolled-back transaction never
// touches the store.
package store

import (
	"fmt"
	"sync"

	"github.com/ledgerframe/callframe-engine/internal/engineerr"
	"github.com/ledgerframe/callframe-engine/internal/ids"
	"github.com/ledgerframe/callframe-engine/internal/node"
	"github.com/ledgerframe/callframe-engine/pkg/logger"
)

// Substate is a persisted value plus the node ids it references, so the
// dispatcher can resolve moved/returned entities without a generic
// serialization layer (spec explicitly keeps wire encoding out of scope).
type Substate struct {
	Value      any
	Referenced []ids.NodeId
}

// SubstateStore is the external collaborator the spec says the engine only
// consumes through a read/write contract. Track is the only thing that
// talks to it directly.
type SubstateStore interface {
	Get(id node.SubstateId) (Substate, bool, error)
	Put(id node.SubstateId, val Substate) error
}

// LockHandle identifies one acquired lock for the lifetime of the
// transaction. Handles are never reused.
type LockHandle uint64

type lockEntry struct {
	id          node.SubstateId
	readCount   int
	writeLocked bool
	mutable     bool
	writeThrough bool
}

// Track is the transaction-scoped gateway over SubstateStore.
type Track struct {
	mu sync.Mutex

	backing SubstateStore
	log     *logger.Logger

	locks      map[node.SubstateId]*lockEntry
	handles    map[LockHandle]*lockEntry
	nextHandle LockHandle

	writeSet map[node.SubstateId]Substate
}

// New creates a Track backed by the given store.
func New(backing SubstateStore, log *logger.Logger) *Track {
	return &Track{
		backing:  backing,
		log:      log,
		locks:    make(map[node.SubstateId]*lockEntry),
		handles:  make(map[LockHandle]*lockEntry),
		writeSet: make(map[node.SubstateId]Substate),
	}
}

// AcquireLock locks a substate for read or read-write access. A substate may
// carry any number of read locks, or exactly one write lock, never both.
func (t *Track) AcquireLock(id node.SubstateId, mutable, writeThrough bool) (LockHandle, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	existing, ok := t.locks[id]
	if ok {
		if mutable || existing.writeLocked {
			return 0, engineerr.SubstateLockConflict(id)
		}
		existing.readCount++
		return t.newHandleLocked(existing), nil
	}

	entry := &lockEntry{id: id, mutable: mutable, writeThrough: writeThrough}
	if mutable {
		entry.writeLocked = true
	} else {
		entry.readCount = 1
	}
	t.locks[id] = entry
	return t.newHandleLocked(entry), nil
}

func (t *Track) newHandleLocked(entry *lockEntry) LockHandle {
	t.nextHandle++
	h := t.nextHandle
	t.handles[h] = entry
	return h
}

// ReadSubstate reads the current value visible under handle: the buffered
// write-set value if present, otherwise whatever is in the backing store.
func (t *Track) ReadSubstate(handle LockHandle) (Substate, error) {
	t.mu.Lock()
	entry, ok := t.handles[handle]
	t.mu.Unlock()
	if !ok {
		return Substate{}, fmt.Errorf("store: unknown lock handle %d", handle)
	}

	t.mu.Lock()
	if v, buffered := t.writeSet[entry.id]; buffered {
		t.mu.Unlock()
		return v, nil
	}
	t.mu.Unlock()

	val, found, err := t.backing.Get(entry.id)
	if err != nil {
		return Substate{}, err
	}
	if !found {
		return Substate{}, engineerr.SubstateNotFound(entry.id)
	}
	return val, nil
}

// WriteSubstate buffers a new value for the substate under handle. The
// handle must have been acquired with mutable=true.
func (t *Track) WriteSubstate(handle LockHandle, val Substate) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	entry, ok := t.handles[handle]
	if !ok {
		return fmt.Errorf("store: unknown lock handle %d", handle)
	}
	if !entry.mutable {
		return fmt.Errorf("store: handle %d is not a write lock", handle)
	}

	if entry.writeThrough {
		if err := t.backing.Put(entry.id, val); err != nil {
			return err
		}
	}
	t.writeSet[entry.id] = val
	return nil
}

// ReleaseLock releases one reference to the lock a handle names. Releasing
// the last reader or the writer removes the lock entirely.
func (t *Track) ReleaseLock(handle LockHandle) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	entry, ok := t.handles[handle]
	if !ok {
		return fmt.Errorf("store: unknown lock handle %d", handle)
	}
	delete(t.handles, handle)

	if entry.writeLocked {
		entry.writeLocked = false
		delete(t.locks, entry.id)
		return nil
	}

	entry.readCount--
	if entry.readCount <= 0 {
		delete(t.locks, entry.id)
	}
	return nil
}

// HasLiveLocks reports whether any lock is still outstanding. Used to check
// invariant 3 (no substate lock held at transaction end) in tests.
func (t *Track) HasLiveLocks() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.locks) > 0
}

// PendingWriteIds returns the substate ids currently buffered in the
// write-set, for a transaction processor to report as a receipt's
// state_updates before calling Commit (which clears the write-set).
func (t *Track) PendingWriteIds() []node.SubstateId {
	t.mu.Lock()
	defer t.mu.Unlock()
	ids := make([]node.SubstateId, 0, len(t.writeSet))
	for id := range t.writeSet {
		ids = append(ids, id)
	}
	return ids
}

// Commit flushes the buffered write-set to the backing store atomically
// (all-or-nothing from the caller's perspective: if any Put fails, none of
// the remaining writes are applied and the error is returned).
func (t *Track) Commit() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	for id, val := range t.writeSet {
		if err := t.backing.Put(id, val); err != nil {
			return fmt.Errorf("store: commit %s: %w", id, err)
		}
	}
	t.writeSet = make(map[node.SubstateId]Substate)
	if t.log != nil {
		t.log.Debug("track: committed transaction write-set")
	}
	return nil
}

// Rollback discards the buffered write-set; no store mutation becomes
// observable (spec invariant 5).
func (t *Track) Rollback() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.writeSet = make(map[node.SubstateId]Substate)
	if t.log != nil {
		t.log.Debug("track: rolled back transaction write-set")
	}
}
