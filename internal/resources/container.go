// Package resources implements the native RENode variants that carry
// resources: Bucket, Proof, Vault, Worktop, and the ResourceManager that
// mints/burns them, plus Component and System. Method dispatch for each is
// table-driven (spec §9: "prefer exhaustive matching over dynamic
// polymorphism").
package resources

import (
	"strconv"

	"github.com/ledgerframe/callframe-engine/internal/engineerr"
	"github.com/ledgerframe/callframe-engine/internal/ids"
)

// container is the resource-holding core shared by Bucket and Vault: an
// amount of a fungible resource, or a set of non-fungible ids, plus a lock
// count tracking how many live proofs currently back it.
type container struct {
	resourceAddress ids.ResourceAddress
	fungible        bool
	amount          uint64
	nfIds           map[string]bool
	lockCount       int
}

func newFungibleContainer(addr ids.ResourceAddress, amount uint64) *container {
	return &container{resourceAddress: addr, fungible: true, amount: amount}
}

func newNonFungibleContainer(addr ids.ResourceAddress, nfIds []string) *container {
	set := make(map[string]bool, len(nfIds))
	for _, id := range nfIds {
		set[id] = true
	}
	return &container{resourceAddress: addr, fungible: false, nfIds: set}
}

func (c *container) Amount() uint64 {
	if c.fungible {
		return c.amount
	}
	return uint64(len(c.nfIds))
}

func (c *container) NonFungibleIds() []string {
	out := make([]string, 0, len(c.nfIds))
	for id := range c.nfIds {
		out = append(out, id)
	}
	return out
}

func (c *container) IsEmpty() bool { return c.Amount() == 0 }

// Lock increments the reference count that keeps this container from being
// moved or emptied while a proof backs it.
func (c *container) Lock() { c.lockCount++ }

// Unlock decrements the lock count. It never goes below zero.
func (c *container) Unlock() {
	if c.lockCount > 0 {
		c.lockCount--
	}
}

func (c *container) Locked() bool { return c.lockCount > 0 }

// put merges other's contents into c and empties other, matching the
// put(other) contract: both must share a resource address.
func (c *container) put(other *container) error {
	if c.resourceAddress != other.resourceAddress {
		return engineerr.New(engineerr.CodeResourceLockError, "resource address mismatch on put")
	}
	if other.Locked() {
		return engineerr.ResourceLockError("source container is locked by a live proof")
	}
	if c.fungible {
		c.amount += other.amount
		other.amount = 0
	} else {
		for id := range other.nfIds {
			c.nfIds[id] = true
		}
		other.nfIds = make(map[string]bool)
	}
	return nil
}

// take splits amount units out of c into a new container.
func (c *container) take(amount uint64) (*container, error) {
	if !c.fungible {
		return nil, engineerr.New(engineerr.CodeResourceLockError, "take(amount) on a non-fungible container")
	}
	if c.Locked() {
		return nil, engineerr.ResourceLockError("container is locked by a live proof")
	}
	if amount > c.amount {
		return nil, engineerr.InsufficientBalance(
			strconv.FormatUint(c.amount, 10), strconv.FormatUint(amount, 10))
	}
	c.amount -= amount
	return newFungibleContainer(c.resourceAddress, amount), nil
}

// takeNonFungibles splits the named ids out of c into a new container.
func (c *container) takeNonFungibles(want []string) (*container, error) {
	if c.fungible {
		return nil, engineerr.New(engineerr.CodeResourceLockError, "take_non_fungibles on a fungible container")
	}
	if c.Locked() {
		return nil, engineerr.ResourceLockError("container is locked by a live proof")
	}
	for _, id := range want {
		if !c.nfIds[id] {
			return nil, engineerr.NonFungibleNotFound(id)
		}
	}
	taken := make([]string, 0, len(want))
	for _, id := range want {
		delete(c.nfIds, id)
		taken = append(taken, id)
	}
	return newNonFungibleContainer(c.resourceAddress, taken), nil
}
