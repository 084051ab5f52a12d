package dispatch

import (
	"testing"

	"github.com/ledgerframe/callframe-engine/internal/callframe"
	"github.com/ledgerframe/callframe-engine/internal/fee"
	"github.com/ledgerframe/callframe-engine/internal/ids"
	"github.com/ledgerframe/callframe-engine/internal/node"
	"github.com/ledgerframe/callframe-engine/internal/resources"
	"github.com/ledgerframe/callframe-engine/internal/store"
)

func newTestDispatcher(t *testing.T) (*Dispatcher, *ids.Allocator) {
	t.Helper()
	alloc := ids.NewAllocator(ids.HashBytes([]byte("tx")))
	root, err := callframe.NewRootFrame(alloc, nil, false)
	if err != nil {
		t.Fatalf("new_root: %v", err)
	}
	stack := callframe.NewStack(root, 8)
	track := store.New(store.NewMemoryStore(), nil)
	return New(stack, track, alloc), alloc
}

func TestDispatcherRunNativeBucketTake(t *testing.T) {
	d, alloc := newTestDispatcher(t)
	root := d.Stack.Top()

	addr := ids.ResourceAddress(alloc.New(ids.KindResourceManager))
	bucketId := alloc.New(ids.KindBucket)
	b := resources.NewBucket(bucketId, addr, 100)
	root.OwnedNodes.Insert(bucketId, &node.HeapRootRENode{Root: b})
	root.VisibleRefs[bucketId] = node.HeapPointer(0, bucketId, nil)

	newBucketId := alloc.New(ids.KindBucket)
	out, taken, err := d.Run(Invocation{
		Actor:   callframe.MethodActor(bucketId, "take"),
		State:   ref(callframe.RENodeRefState(bucketId)),
		FnIdent: "take",
		Args:    resources.Args{"new_id": newBucketId, "amount": uint64(40)},
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	gotBucket, ok := out["bucket"].(*resources.Bucket)
	if !ok {
		t.Fatalf("expected bucket in output, got %#v", out)
	}
	if gotBucket.Amount() != 40 {
		t.Fatalf("expected 40, got %d", gotBucket.Amount())
	}
	if _, ok := taken[newBucketId]; !ok {
		t.Fatalf("expected new bucket moved back into caller, got %v", taken)
	}

	if d.Stack.Depth() != 1 {
		t.Fatalf("expected stack to be back at depth 1 after run, got %d", d.Stack.Depth())
	}
}

func TestDispatcherRunRejectsMissingMovedNode(t *testing.T) {
	d, alloc := newTestDispatcher(t)
	missingId := alloc.New(ids.KindBucket)

	_, _, err := d.Run(Invocation{
		Actor:        callframe.MethodActor(missingId, "take"),
		State:        ref(callframe.RENodeRefState(missingId)),
		FnIdent:      "take",
		MovedNodeIds: []ids.NodeId{missingId},
		Args:         resources.Args{},
	})
	if err == nil {
		t.Fatalf("expected RENodeNotFound for an unmoved missing node id")
	}
}

func TestDispatcherRunConsumesFeeOnSuccessfulCall(t *testing.T) {
	d, alloc := newTestDispatcher(t)
	d.Fees = fee.NewReserve(1000, nil)
	root := d.Stack.Top()

	addr := ids.ResourceAddress(alloc.New(ids.KindResourceManager))
	bucketId := alloc.New(ids.KindBucket)
	b := resources.NewBucket(bucketId, addr, 100)
	root.OwnedNodes.Insert(bucketId, &node.HeapRootRENode{Root: b})
	root.VisibleRefs[bucketId] = node.HeapPointer(0, bucketId, nil)

	newBucketId := alloc.New(ids.KindBucket)
	_, _, err := d.Run(Invocation{
		Actor:   callframe.MethodActor(bucketId, "take"),
		State:   ref(callframe.RENodeRefState(bucketId)),
		FnIdent: "take",
		Args:    resources.Args{"new_id": newBucketId, "amount": uint64(40)},
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if got := d.Fees.(*fee.Reserve).Consumed(); got != costNativeCall {
		t.Fatalf("expected a native-call fee of %d consumed, got %d", costNativeCall, got)
	}
}

func TestDispatcherRunFailsWithOutOfCostAndDoesNotPushAFrame(t *testing.T) {
	d, alloc := newTestDispatcher(t)
	d.Fees = fee.NewReserve(costNativeCall-1, nil)
	root := d.Stack.Top()

	addr := ids.ResourceAddress(alloc.New(ids.KindResourceManager))
	bucketId := alloc.New(ids.KindBucket)
	b := resources.NewBucket(bucketId, addr, 100)
	root.OwnedNodes.Insert(bucketId, &node.HeapRootRENode{Root: b})
	root.VisibleRefs[bucketId] = node.HeapPointer(0, bucketId, nil)

	_, _, err := d.Run(Invocation{
		Actor:   callframe.MethodActor(bucketId, "take"),
		State:   ref(callframe.RENodeRefState(bucketId)),
		FnIdent: "take",
		Args:    resources.Args{"new_id": alloc.New(ids.KindBucket), "amount": uint64(40)},
	})
	if err == nil {
		t.Fatalf("expected an OutOfCost error")
	}
	if d.Stack.Depth() != 1 {
		t.Fatalf("expected the stack to be untouched by a fee rejection, got depth %d", d.Stack.Depth())
	}
}

// TestDispatcherRunNativeVaultPutAgainstStoreBackedSubstate exercises the
// store-backed resolution path dispatchNative falls to when a receiver
// isn't resident in the caller's own heap: a Vault seeded straight into
// the backing SubstateStore (as an already-globalized component's vault
// would be, across a separate transaction) and made visible via a store
// NodePointer, rather than the root frame's heap.
func TestDispatcherRunNativeVaultPutAgainstStoreBackedSubstate(t *testing.T) {
	d, alloc := newTestDispatcher(t)
	root := d.Stack.Top()

	addr := ids.ResourceAddress(alloc.New(ids.KindResourceManager))
	vaultId := alloc.New(ids.KindVault)
	v := resources.NewVault(vaultId, addr, 10)

	substateId := node.SubstateId{NodeId: vaultId, Offset: node.OffsetVaultRoot}
	seedHandle, err := d.Track.AcquireLock(substateId, true, false)
	if err != nil {
		t.Fatalf("seed acquire_lock: %v", err)
	}
	if err := d.Track.WriteSubstate(seedHandle, store.Substate{Value: v}); err != nil {
		t.Fatalf("seed write_substate: %v", err)
	}
	if err := d.Track.ReleaseLock(seedHandle); err != nil {
		t.Fatalf("seed release_lock: %v", err)
	}
	root.VisibleRefs[vaultId] = node.StorePointer(vaultId)

	bucketId := alloc.New(ids.KindBucket)
	b := resources.NewBucket(bucketId, addr, 5)
	root.OwnedNodes.Insert(bucketId, &node.HeapRootRENode{Root: b})
	root.VisibleRefs[bucketId] = node.HeapPointer(0, bucketId, nil)

	_, _, err = d.Run(Invocation{
		Actor:        callframe.MethodActor(vaultId, "put"),
		State:        ref(callframe.RENodeRefState(vaultId)),
		FnIdent:      "put",
		MovedNodeIds: []ids.NodeId{bucketId},
		Args:         resources.Args{"bucket": b},
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if got := d.Track.PendingWriteIds(); len(got) != 1 || got[0] != substateId {
		t.Fatalf("expected the vault substate to be pending a write, got %v", got)
	}
}

func ref(s callframe.ExecutionState) *callframe.ExecutionState { return &s }
