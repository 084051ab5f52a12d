// Package heap implements the per-call-frame heap fragment (spec §4.2): a
// mapping from NodeId to HeapRootRENode, owned exclusively by the frame
// that holds it. The invariant that makes ownership tractable without a
// borrow checker is enforced here and in callframe: the union of heaps
// across live frames is disjoint on root ids, because a node moves out of
// exactly one fragment and into exactly one other on every transfer.
package heap

import (
	"github.com/ledgerframe/callframe-engine/internal/ids"
	"github.com/ledgerframe/callframe-engine/internal/node"
)

// Heap is one frame's owned-node fragment.
type Heap struct {
	roots map[ids.NodeId]*node.HeapRootRENode
}

// New creates an empty heap fragment.
func New() *Heap {
	return &Heap{roots: make(map[ids.NodeId]*node.HeapRootRENode)}
}

// Insert adds a newly created or moved-in root node to the fragment.
func (h *Heap) Insert(id ids.NodeId, root *node.HeapRootRENode) {
	h.roots[id] = root
}

// Get returns the root node for id, if this fragment owns it.
func (h *Heap) Get(id ids.NodeId) (*node.HeapRootRENode, bool) {
	r, ok := h.roots[id]
	return r, ok
}

// Remove takes ownership of id's root node out of the fragment, returning
// it. The second return is false if this fragment does not own id.
func (h *Heap) Remove(id ids.NodeId) (*node.HeapRootRENode, bool) {
	r, ok := h.roots[id]
	if ok {
		delete(h.roots, id)
	}
	return r, ok
}

// Contains reports whether this fragment owns id.
func (h *Heap) Contains(id ids.NodeId) bool {
	_, ok := h.roots[id]
	return ok
}

// Ids returns every root id this fragment currently owns.
func (h *Heap) Ids() []ids.NodeId {
	out := make([]ids.NodeId, 0, len(h.roots))
	for id := range h.roots {
		out = append(out, id)
	}
	return out
}

// Len reports how many root nodes this fragment owns.
func (h *Heap) Len() int { return len(h.roots) }

// Drain removes and returns every root node in the fragment, leaving it
// empty. Used at frame teardown.
func (h *Heap) Drain() map[ids.NodeId]*node.HeapRootRENode {
	out := h.roots
	h.roots = make(map[ids.NodeId]*node.HeapRootRENode)
	return out
}
