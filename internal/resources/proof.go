package resources

import (
	"github.com/ledgerframe/callframe-engine/internal/authzone"
	"github.com/ledgerframe/callframe-engine/internal/engineerr"
	"github.com/ledgerframe/callframe-engine/internal/ids"
)

// Proof is a linear witness that a particular set of resources is
// presently controlled by its holder (GLOSSARY). It holds a reference to
// the container backing it (a Bucket's or Vault's container) that keeps
// the container locked while the proof is alive, plus a reference count
// shared by every clone of the proof.
type Proof struct {
	id              ids.NodeId
	resourceAddress ids.ResourceAddress
	amount          uint64
	nfIds           []string

	backing  *container
	refCount *int
}

func newProof(id ids.NodeId, backing *container) *Proof {
	rc := 1
	return &Proof{
		id:              id,
		resourceAddress: backing.resourceAddress,
		amount:          backing.Amount(),
		nfIds:           backing.NonFungibleIds(),
		backing:         backing,
		refCount:        &rc,
	}
}

func (p *Proof) Id() ids.NodeId                       { return p.id }
func (p *Proof) Kind() ids.NodeKind                   { return ids.KindProof }
func (p *Proof) ChildIds() []ids.NodeId               { return nil }
func (p *Proof) ResourceAddress() ids.ResourceAddress { return p.resourceAddress }
func (p *Proof) Amount() uint64                       { return p.amount }
func (p *Proof) NonFungibleIds() []string             { return p.nfIds }

// VerifyCanMove always succeeds: a proof itself is never what's "locked in
// place" — it's what does the locking.
func (p *Proof) VerifyCanMove() error { return nil }

// VerifyCanPersist always fails: proofs are transient by definition.
func (p *Proof) VerifyCanPersist() error {
	return engineerr.New(engineerr.CodeResourceLockError, "proofs are never persistable")
}

// Droppable is always true: dropping a proof just decrements a refcount.
func (p *Proof) Droppable() bool { return true }

// Clone returns a new Proof under newId sharing this proof's backing
// container, incrementing the shared reference count. Returns the
// authzone.Proof interface so *Proof satisfies that package's contract.
func (p *Proof) Clone(newId ids.NodeId) authzone.Proof {
	*p.refCount++
	return &Proof{
		id:              newId,
		resourceAddress: p.resourceAddress,
		amount:          p.amount,
		nfIds:           p.nfIds,
		backing:         p.backing,
		refCount:        p.refCount,
	}
}

// Drop decrements the shared reference count, unlocking the backing
// container once it reaches zero.
func (p *Proof) Drop() error {
	*p.refCount--
	if *p.refCount <= 0 {
		p.backing.Unlock()
	}
	return nil
}

var _ authzone.Proof = (*Proof)(nil)
