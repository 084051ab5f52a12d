package txn

import (
	"testing"

	"github.com/ledgerframe/callframe-engine/internal/callframe"
	"github.com/ledgerframe/callframe-engine/internal/dispatch"
	"github.com/ledgerframe/callframe-engine/internal/ids"
	"github.com/ledgerframe/callframe-engine/internal/node"
	"github.com/ledgerframe/callframe-engine/internal/resources"
	"github.com/ledgerframe/callframe-engine/internal/store"
)

func ref(s callframe.ExecutionState) *callframe.ExecutionState { return &s }

func TestExecuteCommitsAndReportsResourcesMoved(t *testing.T) {
	txHash := ids.HashBytes([]byte("tx-1"))
	alloc := ids.NewAllocator(txHash)
	addr := ids.ResourceAddress(alloc.New(ids.KindResourceManager))
	bucketId := alloc.New(ids.KindBucket)
	newBucketId := alloc.New(ids.KindBucket)

	m := Manifest{
		Hash:      txHash,
		MaxDepth:  8,
		FeeBudget: 1000,
		Seed: func(root *callframe.Frame) {
			b := resources.NewBucket(bucketId, addr, 100)
			root.OwnedNodes.Insert(bucketId, &node.HeapRootRENode{Root: b})
			root.VisibleRefs[bucketId] = node.HeapPointer(0, bucketId, nil)
		},
		Invocations: []dispatch.Invocation{
			{
				Actor:   callframe.MethodActor(bucketId, "take"),
				State:   ref(callframe.RENodeRefState(bucketId)),
				FnIdent: "take",
				Args:    resources.Args{"new_id": newBucketId, "amount": uint64(100)},
			},
		},
	}

	// take the full amount so the seeded bucket is left empty (and
	// therefore droppable) in the root frame: Execute rejects any
	// manifest that would otherwise leave a live, non-empty bucket
	// behind at transaction end.
	receipt := Execute(m, store.NewMemoryStore(), nil, nil, nil, nil)
	if receipt.Rejected != nil {
		t.Fatalf("expected a committed receipt, got rejected: %v", receipt.Rejected.Error)
	}
	if receipt.ID == "" {
		t.Fatalf("expected a non-empty receipt id")
	}
	if len(receipt.Committed.Outputs) != 1 {
		t.Fatalf("expected one output, got %d", len(receipt.Committed.Outputs))
	}
	found := false
	for _, id := range receipt.Committed.ResourcesMoved {
		if id == newBucketId {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected the new bucket id among resources moved, got %v", receipt.Committed.ResourcesMoved)
	}
}

// TestExecuteRejectsWhenRootFrameLeaksALiveBucket takes only part of the
// seeded bucket's balance, leaving a live, non-empty bucket owned by the
// root frame at transaction end — testable invariant 1 forbids this, so
// Execute must reject rather than commit.
func TestExecuteRejectsWhenRootFrameLeaksALiveBucket(t *testing.T) {
	txHash := ids.HashBytes([]byte("tx-leak"))
	alloc := ids.NewAllocator(txHash)
	addr := ids.ResourceAddress(alloc.New(ids.KindResourceManager))
	bucketId := alloc.New(ids.KindBucket)
	newBucketId := alloc.New(ids.KindBucket)

	m := Manifest{
		Hash:      txHash,
		MaxDepth:  8,
		FeeBudget: 1000,
		Seed: func(root *callframe.Frame) {
			b := resources.NewBucket(bucketId, addr, 100)
			root.OwnedNodes.Insert(bucketId, &node.HeapRootRENode{Root: b})
			root.VisibleRefs[bucketId] = node.HeapPointer(0, bucketId, nil)
		},
		Invocations: []dispatch.Invocation{
			{
				Actor:   callframe.MethodActor(bucketId, "take"),
				State:   ref(callframe.RENodeRefState(bucketId)),
				FnIdent: "take",
				Args:    resources.Args{"new_id": newBucketId, "amount": uint64(40)},
			},
		},
	}

	receipt := Execute(m, store.NewMemoryStore(), nil, nil, nil, nil)
	if receipt.Committed != nil {
		t.Fatalf("expected a rejected receipt for a leaked non-empty bucket")
	}
	if receipt.Rejected.Error == nil {
		t.Fatalf("expected a rejection error")
	}
}

func TestExecuteRejectsAndReportsFeeConsumedOnFailure(t *testing.T) {
	txHash := ids.HashBytes([]byte("tx-2"))
	alloc := ids.NewAllocator(txHash)
	missingId := alloc.New(ids.KindBucket)

	m := Manifest{
		Hash:      txHash,
		MaxDepth:  8,
		FeeBudget: 1000,
		Invocations: []dispatch.Invocation{
			{
				Actor:        callframe.MethodActor(missingId, "take"),
				State:        ref(callframe.RENodeRefState(missingId)),
				FnIdent:      "take",
				MovedNodeIds: []ids.NodeId{missingId},
				Args:         resources.Args{},
			},
		},
	}

	receipt := Execute(m, store.NewMemoryStore(), nil, nil, nil, nil)
	if receipt.Committed != nil {
		t.Fatalf("expected a rejected receipt")
	}
	if receipt.Rejected.Error == nil {
		t.Fatalf("expected a rejection error")
	}
	if receipt.Rejected.FeeConsumed != 10 {
		t.Fatalf("expected the native call's 10 units reported as consumed, got %d", receipt.Rejected.FeeConsumed)
	}
}

func TestExecuteOutOfCostRejectsBeforeRunningAnyInvocation(t *testing.T) {
	txHash := ids.HashBytes([]byte("tx-3"))
	alloc := ids.NewAllocator(txHash)
	addr := ids.ResourceAddress(alloc.New(ids.KindResourceManager))
	bucketId := alloc.New(ids.KindBucket)

	m := Manifest{
		Hash:      txHash,
		MaxDepth:  8,
		FeeBudget: 1, // less than any invocation's flat cost
		Seed: func(root *callframe.Frame) {
			b := resources.NewBucket(bucketId, addr, 100)
			root.OwnedNodes.Insert(bucketId, &node.HeapRootRENode{Root: b})
			root.VisibleRefs[bucketId] = node.HeapPointer(0, bucketId, nil)
		},
		Invocations: []dispatch.Invocation{
			{
				Actor:   callframe.MethodActor(bucketId, "take"),
				State:   ref(callframe.RENodeRefState(bucketId)),
				FnIdent: "take",
				Args:    resources.Args{"new_id": alloc.New(ids.KindBucket), "amount": uint64(40)},
			},
		},
	}

	receipt := Execute(m, store.NewMemoryStore(), nil, nil, nil, nil)
	if receipt.Rejected == nil {
		t.Fatalf("expected a rejected receipt for an out-of-cost manifest")
	}
}
