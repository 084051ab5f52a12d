package resources

import (
	"github.com/ledgerframe/callframe-engine/internal/engineerr"
	"github.com/ledgerframe/callframe-engine/internal/ids"
)

// Bucket is a transient, linear resource container owned by a frame
// (spec §4.7, GLOSSARY). It is never persistable.
type Bucket struct {
	id        ids.NodeId
	container *container
}

// NewBucket creates an empty-or-not fungible bucket.
func NewBucket(id ids.NodeId, addr ids.ResourceAddress, amount uint64) *Bucket {
	return &Bucket{id: id, container: newFungibleContainer(addr, amount)}
}

// NewNonFungibleBucket creates a bucket over a set of non-fungible ids.
func NewNonFungibleBucket(id ids.NodeId, addr ids.ResourceAddress, nfIds []string) *Bucket {
	return &Bucket{id: id, container: newNonFungibleContainer(addr, nfIds)}
}

func (b *Bucket) Id() ids.NodeId               { return b.id }
func (b *Bucket) Kind() ids.NodeKind           { return ids.KindBucket }
func (b *Bucket) ChildIds() []ids.NodeId       { return nil }
func (b *Bucket) ResourceAddress() ids.ResourceAddress { return b.container.resourceAddress }
func (b *Bucket) Amount() uint64               { return b.container.Amount() }
func (b *Bucket) NonFungibleIds() []string     { return b.container.NonFungibleIds() }
func (b *Bucket) IsEmpty() bool                { return b.container.IsEmpty() }

// VerifyCanMove fails if the bucket is currently backing a live proof.
func (b *Bucket) VerifyCanMove() error {
	if b.container.Locked() {
		return engineerr.ResourceLockError("bucket is locked by a live proof")
	}
	return nil
}

// VerifyCanPersist always fails: buckets are transient by definition.
func (b *Bucket) VerifyCanPersist() error {
	return engineerr.New(engineerr.CodeResourceLockError, "buckets are never persistable")
}

// Droppable reports whether the bucket can be safely destroyed at frame
// teardown: only an empty, unlocked bucket can.
func (b *Bucket) Droppable() bool {
	return b.container.IsEmpty() && !b.container.Locked()
}

// Put transfers other's contents into b, emptying other.
func (b *Bucket) Put(other *Bucket) error {
	return b.container.put(other.container)
}

// Take returns a new bucket holding amount units, removed from b.
func (b *Bucket) Take(newId ids.NodeId, amount uint64) (*Bucket, error) {
	c, err := b.container.take(amount)
	if err != nil {
		return nil, err
	}
	return &Bucket{id: newId, container: c}, nil
}

// TakeNonFungibles returns a new bucket holding the named ids, removed
// from b.
func (b *Bucket) TakeNonFungibles(newId ids.NodeId, nfIds []string) (*Bucket, error) {
	c, err := b.container.takeNonFungibles(nfIds)
	if err != nil {
		return nil, err
	}
	return &Bucket{id: newId, container: c}, nil
}

// CreateProof locks at least one unit of b and produces a proof over it.
// Fails if the bucket is empty.
func (b *Bucket) CreateProof(proofId ids.NodeId) (*Proof, error) {
	if b.container.IsEmpty() {
		return nil, engineerr.New(engineerr.CodeResourceLockError, "cannot create a proof from an empty bucket")
	}
	b.container.Lock()
	return newProof(proofId, b.container), nil
}

// Burn empties the bucket permanently. Intended for the Consumed(node_id)
// dispatch path, where the node is destroyed regardless of outcome.
func (b *Bucket) Burn() error {
	if b.container.Locked() {
		return engineerr.ResourceLockError("cannot burn a bucket locked by a live proof")
	}
	b.container.amount = 0
	b.container.nfIds = make(map[string]bool)
	return nil
}
