package resources

import (
	"github.com/ledgerframe/callframe-engine/internal/engineerr"
	"github.com/ledgerframe/callframe-engine/internal/ids"
)

// ResourceManager is the global RENode that owns a resource's metadata and
// total supply. Mint and Burn are its only entry points allowed to change
// total supply — the one exception spec invariant 2 carves out of "sum of
// resources is constant within a transaction".
type ResourceManager struct {
	id          ids.NodeId
	address     ids.ResourceAddress
	fungible    bool
	totalSupply uint64
	nfIdsIssued map[string]bool // tracks non-fungible ids ever minted, for uniqueness
}

// NewFungibleResourceManager creates a resource manager for a fungible
// resource with zero initial supply.
func NewFungibleResourceManager(id ids.NodeId, addr ids.ResourceAddress) *ResourceManager {
	return &ResourceManager{id: id, address: addr, fungible: true}
}

// NewNonFungibleResourceManager creates a resource manager for a
// non-fungible resource.
func NewNonFungibleResourceManager(id ids.NodeId, addr ids.ResourceAddress) *ResourceManager {
	return &ResourceManager{id: id, address: addr, nfIdsIssued: make(map[string]bool)}
}

func (r *ResourceManager) Id() ids.NodeId         { return r.id }
func (r *ResourceManager) Kind() ids.NodeKind     { return ids.KindResourceManager }
func (r *ResourceManager) ChildIds() []ids.NodeId { return nil }
func (r *ResourceManager) VerifyCanMove() error   { return nil }
func (r *ResourceManager) VerifyCanPersist() error { return nil }
func (r *ResourceManager) Droppable() bool        { return false } // globals are never dropped

func (r *ResourceManager) Address() ids.ResourceAddress { return r.address }
func (r *ResourceManager) TotalSupply() uint64          { return r.totalSupply }

// Mint creates amount units of a fungible resource and returns a bucket
// holding them.
func (r *ResourceManager) Mint(bucketId ids.NodeId, amount uint64) (*Bucket, error) {
	if !r.fungible {
		return nil, engineerr.New(engineerr.CodeResourceLockError, "mint(amount) on a non-fungible resource manager")
	}
	r.totalSupply += amount
	return NewBucket(bucketId, r.address, amount), nil
}

// MintNonFungible creates a set of new non-fungible ids and returns a
// bucket holding them. Fails if any id was already issued.
func (r *ResourceManager) MintNonFungible(bucketId ids.NodeId, nfIds []string) (*Bucket, error) {
	if r.fungible {
		return nil, engineerr.New(engineerr.CodeResourceLockError, "mint_non_fungible on a fungible resource manager")
	}
	for _, id := range nfIds {
		if r.nfIdsIssued[id] {
			return nil, engineerr.New(engineerr.CodeResourceLockError, "non-fungible id already issued").WithDetail("id", id)
		}
	}
	for _, id := range nfIds {
		r.nfIdsIssued[id] = true
	}
	r.totalSupply += uint64(len(nfIds))
	return NewNonFungibleBucket(bucketId, r.address, nfIds), nil
}

// Burn destroys a bucket's contents entirely, decrementing total supply.
// The bucket must belong to this resource manager's resource address.
func (r *ResourceManager) Burn(b *Bucket) error {
	if b.ResourceAddress() != r.address {
		return engineerr.New(engineerr.CodeResourceLockError, "bucket does not belong to this resource manager")
	}
	amount := b.Amount()
	if err := b.Burn(); err != nil {
		return err
	}
	r.totalSupply -= amount
	return nil
}
