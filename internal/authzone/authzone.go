// Package authzone implements the per-frame auth zone (spec §4.5): an
// ordered stack of proofs, a set of virtual proofs implied by the
// transaction's signers, and the access-rule evaluator privileged native
// operations are checked against.
package authzone

import (
	"github.com/ledgerframe/callframe-engine/internal/engineerr"
	"github.com/ledgerframe/callframe-engine/internal/ids"
)

// Proof is the minimal surface the auth zone needs from a proof to manage
// it as a stack entry and to compose new proofs from existing ones. The
// concrete implementation (a linear resource with a locked backing
// container) lives in internal/resources; authzone depends only on this
// interface to avoid an import cycle.
type Proof interface {
	Id() ids.NodeId
	ResourceAddress() ids.ResourceAddress
	Amount() uint64
	NonFungibleIds() []string
	// Clone returns a new Proof over the same locked container under
	// newId, bumping the backing container's reference count.
	Clone(newId ids.NodeId) Proof
	// Drop decrements the backing container's reference count, unlocking
	// it once it reaches zero.
	Drop() error
}

// AuthZone is a per-frame stack of proofs plus a disjoint set of virtual
// proofs seeded from the transaction's signers. Push and Pop touch only the
// explicit stack, so Pop never returns a virtual proof; Drain, CreateProof
// and Satisfies see virtual proofs like stack entries, and Clear always
// drops them last (spec: "in LIFO order", and virtual proofs are
// considered to sit below everything the frame itself pushed).
type AuthZone struct {
	stack   []Proof
	virtual []Proof
}

// New creates an empty auth zone.
func New() *AuthZone {
	return &AuthZone{}
}

// NewWithVirtualProofs creates an auth zone pre-seeded with virtual proofs
// (one per transaction signer, plus an optional system proof), matching
// call_frame.rs::new_root in the original implementation.
func NewWithVirtualProofs(virtual []Proof) *AuthZone {
	return &AuthZone{virtual: virtual}
}

// Push adds a proof to the top of the stack. The caller is responsible for
// verifying the proof is owned by the current frame before calling Push;
// the auth zone itself has no notion of frame ownership.
func (z *AuthZone) Push(p Proof) {
	z.stack = append(z.stack, p)
}

// Pop removes and returns the top of the stack.
func (z *AuthZone) Pop() (Proof, error) {
	if len(z.stack) == 0 {
		return nil, engineerr.New(engineerr.CodeResourceLockError, "auth zone is empty")
	}
	p := z.stack[len(z.stack)-1]
	z.stack = z.stack[:len(z.stack)-1]
	return p, nil
}

// Drain moves every proof (stack and virtual) out of the zone, leaving it
// empty, and returns them in stack order followed by virtual order.
func (z *AuthZone) Drain() []Proof {
	out := make([]Proof, 0, len(z.stack)+len(z.virtual))
	out = append(out, z.stack...)
	out = append(out, z.virtual...)
	z.stack = nil
	z.virtual = nil
	return out
}

// Clear drops every proof (including virtual) in LIFO order: the explicit
// stack first (top to bottom), then the virtual proofs. Any Drop error is
// collected but does not stop the sweep — every proof gets a chance to
// unlock its backing container.
func (z *AuthZone) Clear() error {
	var firstErr error
	for i := len(z.stack) - 1; i >= 0; i-- {
		if err := z.stack[i].Drop(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	for i := len(z.virtual) - 1; i >= 0; i-- {
		if err := z.virtual[i].Drop(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	z.stack = nil
	z.virtual = nil
	return firstErr
}

// allProofs returns every proof currently backing the zone, stack first
// then virtual, without removing any of them.
func (z *AuthZone) allProofs() []Proof {
	out := make([]Proof, 0, len(z.stack)+len(z.virtual))
	out = append(out, z.stack...)
	out = append(out, z.virtual...)
	return out
}

// CreateProof synthesizes a new proof authenticated by the union of the
// zone's existing proofs for resourceAddress. Simplification: composition
// draws only from proofs already in the zone,
// not from vaults/buckets the frame separately owns — those compose via
// Vault/Bucket.CreateProof and get pushed explicitly.
func (z *AuthZone) CreateProof(newId ids.NodeId, resourceAddress ids.ResourceAddress) (Proof, error) {
	for _, p := range z.allProofs() {
		if p.ResourceAddress() == resourceAddress {
			return p.Clone(newId), nil
		}
	}
	return nil, engineerr.InsufficientAuthority()
}

// CreateProofByAmount synthesizes a proof covering at least amount units
// of resourceAddress.
func (z *AuthZone) CreateProofByAmount(newId ids.NodeId, amount uint64, resourceAddress ids.ResourceAddress) (Proof, error) {
	for _, p := range z.allProofs() {
		if p.ResourceAddress() == resourceAddress && p.Amount() >= amount {
			return p.Clone(newId), nil
		}
	}
	return nil, engineerr.InsufficientAuthority()
}

// CreateProofByIds synthesizes a proof covering every id in ids for
// resourceAddress.
func (z *AuthZone) CreateProofByIds(newId ids.NodeId, want []string, resourceAddress ids.ResourceAddress) (Proof, error) {
	for _, p := range z.allProofs() {
		if p.ResourceAddress() != resourceAddress {
			continue
		}
		have := make(map[string]bool, len(p.NonFungibleIds()))
		for _, id := range p.NonFungibleIds() {
			have[id] = true
		}
		covers := true
		for _, id := range want {
			if !have[id] {
				covers = false
				break
			}
		}
		if covers {
			return p.Clone(newId), nil
		}
	}
	return nil, engineerr.InsufficientAuthority()
}

// Satisfies reports whether any proof presently held by the zone (stack or
// virtual) authenticates resourceAddress. Used by the access-rule
// evaluator's Require leaf.
func (z *AuthZone) Satisfies(resourceAddress ids.ResourceAddress) bool {
	for _, p := range z.allProofs() {
		if p.ResourceAddress() == resourceAddress {
			return true
		}
	}
	return false
}
