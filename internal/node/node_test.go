package node

import (
	"testing"

	"github.com/ledgerframe/callframe-engine/internal/ids"
)

func TestOffsetString(t *testing.T) {
	if got, want := OffsetVaultRoot.String(), "Vault.Root"; got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}

func TestSubstateIdString(t *testing.T) {
	alloc := ids.NewAllocator(ids.HashBytes([]byte("tx")))
	id := alloc.New(ids.KindVault)
	s := SubstateId{NodeId: id, Offset: OffsetVaultRoot}
	want := id.String() + "/Vault.Root"
	if got := s.String(); got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}

func TestHeapPointerAndStorePointerKinds(t *testing.T) {
	alloc := ids.NewAllocator(ids.HashBytes([]byte("tx")))
	root := alloc.New(ids.KindComponent)
	child := alloc.New(ids.KindKeyValueStore)

	hp := HeapPointer(2, root, &child)
	if !hp.IsHeap() || hp.IsStore() {
		t.Fatalf("expected HeapPointer to report IsHeap true, IsStore false")
	}
	if hp.FrameDepth != 2 || hp.Root != root || hp.Child == nil || *hp.Child != child {
		t.Fatalf("unexpected heap pointer fields: %+v", hp)
	}

	sp := StorePointer(root)
	if !sp.IsStore() || sp.IsHeap() {
		t.Fatalf("expected StorePointer to report IsStore true, IsHeap false")
	}
	if sp.StoreId != root {
		t.Fatalf("expected StoreId to equal the given id")
	}
}

func TestHeapRootRENodeChildIds(t *testing.T) {
	alloc := ids.NewAllocator(ids.HashBytes([]byte("tx")))
	c1 := alloc.New(ids.KindVault)
	c2 := alloc.New(ids.KindVault)

	h := HeapRootRENode{Children: map[ids.NodeId]RENode{c1: nil, c2: nil}}
	got := h.ChildIds()
	if len(got) != 2 {
		t.Fatalf("expected 2 child ids, got %d", len(got))
	}
	seen := map[ids.NodeId]bool{}
	for _, id := range got {
		seen[id] = true
	}
	if !seen[c1] || !seen[c2] {
		t.Fatalf("expected both child ids present, got %v", got)
	}
}
