package resources

import (
	"github.com/ledgerframe/callframe-engine/internal/engineerr"
	"github.com/ledgerframe/callframe-engine/internal/ids"
)

// Worktop is the transaction processor's scratch resource container
// (GLOSSARY, spec §4.7): buckets land on it between manifest instructions
// and get reclaimed or asserted against before the transaction ends.
type Worktop struct {
	id       ids.NodeId
	buckets  map[ids.ResourceAddress]*Bucket
}

// NewWorktop creates an empty worktop. There is exactly one per
// transaction, owned by the root frame.
func NewWorktop(id ids.NodeId) *Worktop {
	return &Worktop{id: id, buckets: make(map[ids.ResourceAddress]*Bucket)}
}

func (w *Worktop) Id() ids.NodeId         { return w.id }
func (w *Worktop) Kind() ids.NodeKind     { return ids.KindWorktop }
func (w *Worktop) ChildIds() []ids.NodeId { return nil }

func (w *Worktop) VerifyCanMove() error { return nil }

func (w *Worktop) VerifyCanPersist() error {
	return engineerr.New(engineerr.CodeResourceLockError, "the worktop is never persistable")
}

// Droppable requires every bucket on the worktop to be empty.
func (w *Worktop) Droppable() bool {
	for _, b := range w.buckets {
		if !b.Droppable() {
			return false
		}
	}
	return true
}

// Put merges bucket's contents into the worktop's bucket for its resource
// address, storing bucket itself if none exists yet. When an entry exists,
// the merge fails if the incoming bucket is currently locked by a live
// proof.
func (w *Worktop) Put(bucket *Bucket) error {
	addr := bucket.ResourceAddress()
	existing, ok := w.buckets[addr]
	if !ok {
		w.buckets[addr] = bucket
		return nil
	}
	return existing.Put(bucket)
}

// TakeAll removes and returns the entire bucket held for addr, if any.
func (w *Worktop) TakeAll(addr ids.ResourceAddress) (*Bucket, bool) {
	b, ok := w.buckets[addr]
	if ok {
		delete(w.buckets, addr)
	}
	return b, ok
}

// TakeAmount splits amount units out of the worktop's bucket for addr.
func (w *Worktop) TakeAmount(newId ids.NodeId, addr ids.ResourceAddress, amount uint64) (*Bucket, error) {
	b, ok := w.buckets[addr]
	if !ok {
		return nil, engineerr.InsufficientBalance("0", "amount")
	}
	return b.Take(newId, amount)
}

// AssertContains reports whether the worktop holds any amount of addr.
func (w *Worktop) AssertContains(addr ids.ResourceAddress) bool {
	b, ok := w.buckets[addr]
	return ok && !b.IsEmpty()
}

// AssertContainsAmount reports whether the worktop holds at least amount
// units of addr.
func (w *Worktop) AssertContainsAmount(addr ids.ResourceAddress, amount uint64) bool {
	b, ok := w.buckets[addr]
	return ok && b.Amount() >= amount
}
