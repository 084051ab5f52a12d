// Package node defines the RENode/substate data model: the closed set of
// entity variants, their substate offsets, and the predicates that govern
// whether a node can move across a call-frame boundary or be persisted to
// the store (spec §3).
package node

import (
	"fmt"

	"github.com/ledgerframe/callframe-engine/internal/ids"
)

// Offset identifies one substate slice within an RENode's variant. Offsets
// are enumerated per kind (e.g. Component.Info, Vault.Root) rather than
// being a single flat namespace, matching spec §3.
type Offset struct {
	Kind ids.NodeKind
	Name string
}

func (o Offset) String() string {
	return fmt.Sprintf("%s.%s", o.Kind, o.Name)
}

// Well-known offsets. Not exhaustive of every variant's internal layout,
// but every offset the engine actually locks or reads is named here.
var (
	OffsetComponentInfo  = Offset{ids.KindComponent, "Info"}
	OffsetComponentState = Offset{ids.KindComponent, "State"}
	OffsetResourceRoot   = Offset{ids.KindResourceManager, "Root"}
	OffsetVaultRoot      = Offset{ids.KindVault, "Root"}
	OffsetPackageRoot    = Offset{ids.KindPackage, "Root"}
	OffsetGlobalRoot     = Offset{ids.KindGlobal, "Root"}
	OffsetSystemRoot     = Offset{ids.KindSystem, "Root"}
	OffsetKVStoreEntry   = Offset{ids.KindKeyValueStore, "Entry"}
)

// SubstateId is the unit of lock acquisition and persistence: one substate
// slice of one node.
type SubstateId struct {
	NodeId ids.NodeId
	Offset Offset
}

func (s SubstateId) String() string {
	return fmt.Sprintf("%s/%s", s.NodeId, s.Offset)
}

// PointerKind distinguishes where a NodePointer resolves to.
type PointerKind uint8

const (
	PointerHeap PointerKind = iota
	PointerStore
)

// NodePointer is a tagged reference to a node, resolved dynamically against
// a frame's visible-refs map rather than carried as a borrow-checked
// reference (spec §9, "Visible references").
type NodePointer struct {
	Kind PointerKind

	// Heap pointer fields.
	FrameDepth int
	Root       ids.NodeId
	Child      *ids.NodeId // nil when the pointer names the root itself

	// Store pointer field.
	StoreId ids.NodeId
}

// HeapPointer builds a pointer into a live frame's heap fragment.
func HeapPointer(frameDepth int, root ids.NodeId, child *ids.NodeId) NodePointer {
	return NodePointer{Kind: PointerHeap, FrameDepth: frameDepth, Root: root, Child: child}
}

// StorePointer builds a pointer into the persistent store.
func StorePointer(id ids.NodeId) NodePointer {
	return NodePointer{Kind: PointerStore, StoreId: id}
}

func (p NodePointer) IsStore() bool { return p.Kind == PointerStore }
func (p NodePointer) IsHeap() bool  { return p.Kind == PointerHeap }

// RENode is satisfied by every concrete entity variant (Bucket, Proof,
// Vault, ...). Implementations live in internal/resources and
// internal/accesscontroller to avoid this package depending on them.
type RENode interface {
	// Id returns the node's own id.
	Id() ids.NodeId

	// Kind returns the RENode variant.
	Kind() ids.NodeKind

	// ChildIds returns the ids of any child substates/nodes owned by this
	// root, so take_available_values can purge their visibility too.
	ChildIds() []ids.NodeId

	// VerifyCanMove returns a non-nil error if the node is currently
	// "locked in place" (e.g. a bucket backing a live proof) and therefore
	// cannot be moved across a frame boundary.
	VerifyCanMove() error

	// VerifyCanPersist returns a non-nil error if the node (or a
	// descendant) carries transient state that can never be written to
	// the store (proofs, worktops, auth-zone stacks).
	VerifyCanPersist() error

	// Droppable reports whether the node can be safely destroyed at frame
	// teardown. A non-empty bucket or a live proof not absorbed by the
	// auth zone is not droppable.
	Droppable() bool
}

// HeapRootRENode pairs an owned root node with the child nodes it contains,
// exactly as heap.Heap stores it.
type HeapRootRENode struct {
	Root     RENode
	Children map[ids.NodeId]RENode
}

// ChildIds returns the ids of all children, convenience over Children.
func (h HeapRootRENode) ChildIds() []ids.NodeId {
	out := make([]ids.NodeId, 0, len(h.Children))
	for id := range h.Children {
		out = append(out, id)
	}
	return out
}
