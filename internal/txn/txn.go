// Package txn implements the transaction processor spec §6 describes
// abstractly: it takes a Manifest (a transaction hash, optional system
// flag, signer keys, a sequence of invocations, max_depth, and a fee
// budget), runs every invocation against a single Track and call-frame
// Stack in program order, and produces a Receipt — Committed or
// Rejected, never a partial commit (spec §5's ordering guarantee).
package txn

import (
	"github.com/google/uuid"

	"github.com/ledgerframe/callframe-engine/internal/callframe"
	"github.com/ledgerframe/callframe-engine/internal/dispatch"
	"github.com/ledgerframe/callframe-engine/internal/fee"
	"github.com/ledgerframe/callframe-engine/internal/ids"
	"github.com/ledgerframe/callframe-engine/internal/node"
	"github.com/ledgerframe/callframe-engine/internal/resources"
	"github.com/ledgerframe/callframe-engine/internal/store"
)

// Manifest is a transaction's abstract input (spec §6): its hash, the
// signer identities and system flag the root frame's auth zone is
// seeded from, the sequence of invocations to run in program order,
// max call depth, and the fee budget to fund the Reserve with.
type Manifest struct {
	Hash                 ids.Hash
	SignerNonFungibleIds []string
	IsSystem             bool
	Invocations          []dispatch.Invocation
	MaxDepth             int
	FeeBudget            uint64

	// Seed pre-populates the root frame's heap before any invocation
	// runs, e.g. with a ResourceManager or vault a real transaction
	// would instead reach by resolving an already-globalized address
	// out of the store. The full store-backed resolution path
	// (get_visible_node_ids against already-committed global nodes)
	// is out of scope here; Seed is the harness-level stand-in used by
	// tests and by in-process callers of internal/api's SubmitManifest.
	Seed func(root *callframe.Frame)
}

// Receipt is spec §6's structured transaction result: exactly one of
// Committed or Rejected is non-nil.
type Receipt struct {
	ID        string
	Committed *Committed
	Rejected  *Rejected
}

// Committed carries every invocation's output, the substates written
// to the store, and the node ids that crossed a call-frame boundary
// back into the root frame over the course of the manifest.
type Committed struct {
	Outputs        []resources.Result
	StateUpdates   []node.SubstateId
	ResourcesMoved []ids.NodeId
}

// Rejected carries the aborting error and however many fee units were
// consumed before the abort, per spec §7: "the transaction processor
// catches the top-level error to produce a rejected receipt."
type Rejected struct {
	Error       error
	FeeConsumed uint64
}

// Execute runs a manifest to completion against backing (the
// persistent SubstateStore) and feeMetrics (nil disables fee metrics
// recording). It never returns a Go error: every failure is reported
// inside the Receipt, matching spec §7's "no error is swallowed by the
// engine, but the transaction processor catches the top-level error."
func Execute(m Manifest, backing store.SubstateStore, feeMetrics *fee.Metrics, rules dispatch.AccessRules, packages dispatch.PackageResolver, sandbox dispatch.Sandbox) Receipt {
	receipt := Receipt{ID: uuid.NewString()}

	alloc := ids.NewAllocator(m.Hash)
	root, err := callframe.NewRootFrame(alloc, m.SignerNonFungibleIds, m.IsSystem)
	if err != nil {
		receipt.Rejected = &Rejected{Error: err}
		return receipt
	}

	if m.Seed != nil {
		m.Seed(root)
	}

	maxDepth := m.MaxDepth
	if maxDepth <= 0 {
		maxDepth = 32
	}
	stack := callframe.NewStack(root, maxDepth)
	track := store.New(backing, nil)
	reserve := fee.NewReserve(m.FeeBudget, feeMetrics)

	d := &dispatch.Dispatcher{
		Stack:    stack,
		Track:    track,
		Alloc:    alloc,
		Packages: packages,
		Sandbox:  sandbox,
		Fees:     reserve,
		Rules:    rules,
	}

	var outputs []resources.Result
	var resourcesMoved []ids.NodeId

	for _, inv := range m.Invocations {
		output, taken, runErr := d.Run(inv)
		if runErr != nil {
			track.Rollback()
			receipt.Rejected = &Rejected{Error: runErr, FeeConsumed: reserve.Consumed()}
			return receipt
		}
		outputs = append(outputs, output)
		for id := range taken {
			resourcesMoved = append(resourcesMoved, id)
		}
	}

	// The root frame itself never goes through Dispatcher.Run's per-call
	// teardown, so nothing has checked it for resource leaks yet: reject
	// rather than commit if a live bucket or proof still sits in the
	// root frame's heap at transaction end (testable invariant 1).
	if err := root.DropOwnedValues(); err != nil {
		track.Rollback()
		receipt.Rejected = &Rejected{Error: err, FeeConsumed: reserve.Consumed()}
		return receipt
	}

	stateUpdates := track.PendingWriteIds()
	if err := track.Commit(); err != nil {
		receipt.Rejected = &Rejected{Error: err, FeeConsumed: reserve.Consumed()}
		return receipt
	}

	receipt.Committed = &Committed{
		Outputs:        outputs,
		StateUpdates:   stateUpdates,
		ResourcesMoved: resourcesMoved,
	}
	return receipt
}
