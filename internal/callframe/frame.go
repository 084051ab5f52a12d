package callframe

import (
	"github.com/ledgerframe/callframe-engine/internal/authzone"
	"github.com/ledgerframe/callframe-engine/internal/engineerr"
	"github.com/ledgerframe/callframe-engine/internal/heap"
	"github.com/ledgerframe/callframe-engine/internal/ids"
	"github.com/ledgerframe/callframe-engine/internal/node"
	"github.com/ledgerframe/callframe-engine/internal/resources"
	"github.com/ledgerframe/callframe-engine/internal/store"
)

// ecdsaTokenResource and systemTokenResource are the well-known resource
// addresses the root frame's virtual signer/system proofs are minted
// against, grounded on the original's ECDSA_TOKEN/SYSTEM_TOKEN constants.
var (
	ecdsaTokenResource  = ids.ResourceAddress(ids.NodeId{TxHash: ids.HashBytes([]byte("well-known:ecdsa-secp256k1-token")), Kind: ids.KindResourceManager})
	systemTokenResource = ids.ResourceAddress(ids.NodeId{TxHash: ids.HashBytes([]byte("well-known:system-token")), Kind: ids.KindResourceManager})
)

// Frame is a call frame: the basic unit of the transaction call stack
// (spec §4.3). Fields mirror the original's CallFrame, minus the
// WASM/fee-reserve type parameters Go doesn't need since those concerns
// are expressed as interfaces rather than generics here.
type Frame struct {
	Depth int
	Actor Actor

	// VisibleRefs holds every node this frame may dereference: its own
	// moved-in nodes plus store pointers reachable from its input.
	VisibleRefs map[ids.NodeId]node.NodePointer

	// OwnedNodes is this frame's heap fragment.
	OwnedNodes *heap.Heap

	AuthZone       *authzone.AuthZone
	CallerAuthZone *authzone.AuthZone // read-only, belongs to the parent frame

	// Parent is the frame directly above this one on the stack, or nil
	// for the root frame. Inner frames reach outer-frame nodes through
	// Parent.OwnedNodes when a visible-ref resolves there instead of to
	// the local heap or the store.
	Parent *Frame
}

// NewRootFrame constructs depth-0's frame for a transaction, seeding its
// auth zone with one virtual proof per signer public key and, if
// isSystem, a system proof — the supplemented "transaction-root
// auth-zone seeding" feature grounded on
// original_source/radix-engine/src/engine/call_frame.rs's new_root.
func NewRootFrame(alloc *ids.Allocator, signerNonFungibleIds []string, isSystem bool) (*Frame, error) {
	var proofs []authzone.Proof

	if len(signerNonFungibleIds) > 0 {
		bucket := resources.NewNonFungibleBucket(alloc.New(ids.KindBucket), ecdsaTokenResource, signerNonFungibleIds)
		p, err := bucket.CreateProof(alloc.New(ids.KindProof))
		if err != nil {
			return nil, err
		}
		proofs = append(proofs, p)
	}

	if isSystem {
		bucket := resources.NewNonFungibleBucket(alloc.New(ids.KindBucket), systemTokenResource, []string{"0"})
		p, err := bucket.CreateProof(alloc.New(ids.KindProof))
		if err != nil {
			return nil, err
		}
		proofs = append(proofs, p)
	}

	return &Frame{
		Depth:       0,
		Actor:       NativeActor(""),
		VisibleRefs: make(map[ids.NodeId]node.NodePointer),
		OwnedNodes:  heap.New(),
		AuthZone:    authzone.NewWithVirtualProofs(proofs),
	}, nil
}

// NewChildFrame constructs the callee frame for an invocation one depth
// below caller, per spec §4.4 step 2. The caller is responsible for
// having already moved the input nodes into ownedNodes and populated
// visibleRefs before calling this.
func NewChildFrame(caller *Frame, actor Actor, ownedNodes *heap.Heap, visibleRefs map[ids.NodeId]node.NodePointer) *Frame {
	return &Frame{
		Depth:          caller.Depth + 1,
		Actor:          actor,
		VisibleRefs:    visibleRefs,
		OwnedNodes:     ownedNodes,
		AuthZone:       authzone.New(),
		CallerAuthZone: caller.AuthZone,
		Parent:         caller,
	}
}

// TakeAvailableValues removes the named root nodes from this frame's
// heap, verifying each is movable (and persistable, if persistOnly).
// Moved nodes have their child-node ids purged from VisibleRefs: they can
// no longer be named after the move (spec §4.3).
func (f *Frame) TakeAvailableValues(nodeIds []ids.NodeId, persistOnly bool) (taken map[ids.NodeId]*node.HeapRootRENode, missing []ids.NodeId, err error) {
	taken = make(map[ids.NodeId]*node.HeapRootRENode)
	for _, id := range nodeIds {
		root, ok := f.OwnedNodes.Get(id)
		if !ok {
			missing = append(missing, id)
			continue
		}
		if err := root.Root.VerifyCanMove(); err != nil {
			return nil, nil, err
		}
		if persistOnly {
			if err := root.Root.VerifyCanPersist(); err != nil {
				return nil, nil, err
			}
		}
		f.OwnedNodes.Remove(id)
		taken[id] = root
	}

	for id, root := range taken {
		delete(f.VisibleRefs, id)
		for childId := range root.Children {
			delete(f.VisibleRefs, childId)
		}
	}

	return taken, missing, nil
}

// ReadValueInternal resolves substateId to a NodePointer and reads its
// current value, acquiring a lock around the read iff the pointer is a
// store pointer. Unlike the original, there is no special-cased
// lock-skip path for ComponentInfo — that special case was judged
// vestigial (spec §9 Open Questions) and is not preserved here: every
// substate kind goes through the same acquire→read→release path.
func (f *Frame) ReadValueInternal(substateId node.SubstateId, track *store.Track) (node.NodePointer, store.Substate, error) {
	pointer, ok := f.VisibleRefs[substateId.NodeId]
	if !ok {
		return node.NodePointer{}, store.Substate{}, engineerr.SubstateReadNotFound(substateId)
	}

	if pointer.IsStore() {
		handle, err := track.AcquireLock(substateId, false, false)
		if err != nil {
			return node.NodePointer{}, store.Substate{}, err
		}
		value, err := track.ReadSubstate(handle)
		if err != nil {
			_ = track.ReleaseLock(handle)
			return node.NodePointer{}, store.Substate{}, err
		}
		if err := track.ReleaseLock(handle); err != nil {
			return node.NodePointer{}, store.Substate{}, err
		}
		return pointer, value, nil
	}

	// Heap-resident nodes are read through their typed accessors (e.g.
	// resources.Component.State()) rather than this generic path; here
	// we only need to confirm the node is actually reachable.
	if _, ok := f.heapRoot(pointer.Root); !ok {
		return node.NodePointer{}, store.Substate{}, engineerr.RENodeNotFound(pointer.Root)
	}
	return pointer, store.Substate{}, nil
}

// heapRoot resolves a root id against this frame's own heap, then walks
// up the parent chain — the "read-only view into parent heaps" of spec
// §4.3 (writable in the original via shared mutable references; Go
// expresses the same effect by walking live *Frame pointers instead).
func (f *Frame) heapRoot(id ids.NodeId) (*node.HeapRootRENode, bool) {
	for frame := f; frame != nil; frame = frame.Parent {
		if root, ok := frame.OwnedNodes.Get(id); ok {
			return root, true
		}
	}
	return nil, false
}

// DropOwnedValues destroys every node still owned by this frame, on
// frame exit. Fails with DropFailure if any node is not droppable (a
// resource leak — a non-empty bucket, a live proof not routed through
// the auth zone, etc).
func (f *Frame) DropOwnedValues() error {
	drained := f.OwnedNodes.Drain()
	for id, root := range drained {
		if !root.Root.Droppable() {
			return engineerr.DropFailure("node " + id.String() + " is not droppable")
		}
	}
	return nil
}
