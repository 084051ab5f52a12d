package resources

import (
	"github.com/ledgerframe/callframe-engine/internal/engineerr"
	"github.com/ledgerframe/callframe-engine/internal/ids"
)

// Vault is a persistable resource container (spec §4.7). Unlike a Bucket
// it is meant to live inside a Component's state across transactions.
type Vault struct {
	id        ids.NodeId
	container *container
}

// NewVault creates a fungible vault holding amount units.
func NewVault(id ids.NodeId, addr ids.ResourceAddress, amount uint64) *Vault {
	return &Vault{id: id, container: newFungibleContainer(addr, amount)}
}

// NewNonFungibleVault creates a vault over a set of non-fungible ids.
func NewNonFungibleVault(id ids.NodeId, addr ids.ResourceAddress, nfIds []string) *Vault {
	return &Vault{id: id, container: newNonFungibleContainer(addr, nfIds)}
}

func (v *Vault) Id() ids.NodeId               { return v.id }
func (v *Vault) Kind() ids.NodeKind           { return ids.KindVault }
func (v *Vault) ChildIds() []ids.NodeId       { return nil }
func (v *Vault) ResourceAddress() ids.ResourceAddress { return v.container.resourceAddress }
func (v *Vault) Amount() uint64               { return v.container.Amount() }
func (v *Vault) NonFungibleIds() []string     { return v.container.NonFungibleIds() }
func (v *Vault) IsEmpty() bool                { return v.container.IsEmpty() }

// VerifyCanMove fails if the vault currently backs a live proof.
func (v *Vault) VerifyCanMove() error {
	if v.container.Locked() {
		return engineerr.ResourceLockError("vault is locked by a live proof")
	}
	return nil
}

// VerifyCanPersist always succeeds: vaults carry no transient state.
func (v *Vault) VerifyCanPersist() error { return nil }

// Droppable mirrors Bucket: only an empty, unlocked vault may be dropped.
// In practice vaults are almost always persisted via globalize rather
// than dropped, but a freshly created, never-persisted vault can still be
// torn down if the frame that made it errors out before globalizing.
func (v *Vault) Droppable() bool {
	return v.container.IsEmpty() && !v.container.Locked()
}

func (v *Vault) Put(b *Bucket) error {
	return v.container.put(b.container)
}

func (v *Vault) Take(newId ids.NodeId, amount uint64) (*Bucket, error) {
	c, err := v.container.take(amount)
	if err != nil {
		return nil, err
	}
	return &Bucket{id: newId, container: c}, nil
}

func (v *Vault) TakeNonFungibles(newId ids.NodeId, nfIds []string) (*Bucket, error) {
	c, err := v.container.takeNonFungibles(nfIds)
	if err != nil {
		return nil, err
	}
	return &Bucket{id: newId, container: c}, nil
}

func (v *Vault) CreateProof(proofId ids.NodeId) (*Proof, error) {
	if v.container.IsEmpty() {
		return nil, engineerr.New(engineerr.CodeResourceLockError, "cannot create a proof from an empty vault")
	}
	v.container.Lock()
	return newProof(proofId, v.container), nil
}

func (v *Vault) CreateProofByAmount(proofId ids.NodeId, amount uint64) (*Proof, error) {
	if amount == 0 || amount > v.container.Amount() {
		return nil, engineerr.InsufficientBalance("n/a", "n/a")
	}
	v.container.Lock()
	p := newProof(proofId, v.container)
	p.amount = amount
	return p, nil
}

func (v *Vault) CreateProofByIds(proofId ids.NodeId, nfIds []string) (*Proof, error) {
	have := make(map[string]bool, len(v.container.nfIds))
	for id := range v.container.nfIds {
		have[id] = true
	}
	for _, id := range nfIds {
		if !have[id] {
			return nil, engineerr.NonFungibleNotFound(id)
		}
	}
	v.container.Lock()
	p := newProof(proofId, v.container)
	p.nfIds = append([]string(nil), nfIds...)
	return p, nil
}
