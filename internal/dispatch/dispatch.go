// Package dispatch implements the invocation dispatcher: the `run`
// protocol that turns an (entity, fn_ident, input) triple into a result,
// pushing and popping call frames as it goes (spec §4.4).
package dispatch

import (
	"github.com/ledgerframe/callframe-engine/internal/accesscontroller"
	"github.com/ledgerframe/callframe-engine/internal/authzone"
	"github.com/ledgerframe/callframe-engine/internal/callframe"
	"github.com/ledgerframe/callframe-engine/internal/engineerr"
	"github.com/ledgerframe/callframe-engine/internal/heap"
	"github.com/ledgerframe/callframe-engine/internal/ids"
	"github.com/ledgerframe/callframe-engine/internal/node"
	"github.com/ledgerframe/callframe-engine/internal/resources"
	"github.com/ledgerframe/callframe-engine/internal/store"
)

// PackageResolver reads a blueprint's code and ABI out of the Package
// substate and validates a call's output against the declared type, the
// non-native half of spec §4.4 step 3/4. Grounded on
// original_source/.../call_frame.rs's "read the Package substate ...
// look up the function's ABI" sequence; the concrete sandbox/fee
// plumbing lives in internal/sandbox and internal/fee, wired in here
// behind this interface to keep the dispatcher testable without a real
// bytecode engine.
type PackageResolver interface {
	ExportName(pkg ids.PackageAddress, blueprintName, fnIdent string) (string, error)
	ValidateOutput(pkg ids.PackageAddress, blueprintName, fnIdent string, output resources.Result) error
}

// Sandbox instruments and invokes blueprint bytecode for a single call.
type Sandbox interface {
	InvokeExport(pkg ids.PackageAddress, blueprintName, exportName string, input resources.Args) (resources.Result, error)
}

// FeeReserve tracks execution cost; Consume returns OutOfCost when the
// reserve is exhausted.
type FeeReserve interface {
	Consume(units uint64) error
}

// AccessRules resolves the AccessRule that guards an actor, if any. A
// false second return means the callee is unguarded (spec §4.4 step 1
// only applies "if the callee requires auth rules").
type AccessRules interface {
	RequiredRule(actor callframe.Actor) (authzone.AccessRule, bool)
}

// Invocation is the dispatcher's (entity, fn_ident, input) triple, plus
// the ids of any nodes (buckets, proofs) that must move from the caller's
// heap into the callee's as part of the call's arguments.
type Invocation struct {
	Actor        callframe.Actor
	State        *callframe.ExecutionState // nil for Function actors
	MovedNodeIds []ids.NodeId
	FnIdent      string
	Args         resources.Args
}

// Dispatcher owns the pieces of engine state a `run` invocation threads
// through: the call-frame stack, the substate gateway, deterministic id
// allocation, and the pluggable sandbox/fee/access-rule collaborators.
type Dispatcher struct {
	Stack    *callframe.Stack
	Track    *store.Track
	Alloc    *ids.Allocator
	Packages PackageResolver
	Sandbox  Sandbox
	Fees     FeeReserve
	Rules    AccessRules
}

// New constructs a Dispatcher around an already-seeded call-frame stack.
func New(stack *callframe.Stack, track *store.Track, alloc *ids.Allocator) *Dispatcher {
	return &Dispatcher{Stack: stack, Track: track, Alloc: alloc}
}

// Flat per-invocation cost units, charged when no instruction-level
// metering is available (see invocationCost).
const (
	costNativeCall    uint64 = 10
	costBlueprintCall uint64 = 100
)

// Run executes the seven-step protocol of spec §4.4 for one invocation
// and returns its result plus the nodes it moved back into the caller.
// Fee consumption (SPEC_FULL's fee-reserve supplement) is charged after
// authorization and before the callee frame is built, so an
// authorization failure, an OutOfCost or a failed input move returns
// before any frame is pushed. Once the callee frame is pushed, teardown
// is deferred: any later error still unwinds the callee's auth zone and
// heap before propagating, since spec §7 requires "locks acquired inside
// the failing frame are released during teardown" for every abort path,
// not just the success path.
func (d *Dispatcher) Run(inv Invocation) (result resources.Result, taken map[ids.NodeId]*node.HeapRootRENode, err error) {
	caller := d.Stack.Top()

	// 1. Authorization.
	if d.Rules != nil {
		if rule, required := d.Rules.RequiredRule(inv.Actor); required {
			if caller.AuthZone == nil || !authzone.Evaluate(rule, caller.AuthZone) {
				return nil, nil, engineerr.Unauthorized("caller's auth zone does not satisfy the callee's access rule")
			}
		}
	}

	if d.Fees != nil {
		if feeErr := d.Fees.Consume(invocationCost(inv)); feeErr != nil {
			return nil, nil, feeErr
		}
	}

	// 2. Resolve & construct callee frame.
	movedNodes, missing, moveErr := caller.TakeAvailableValues(inv.MovedNodeIds, false)
	if moveErr != nil {
		return nil, nil, moveErr
	}
	if len(missing) > 0 {
		return nil, nil, engineerr.RENodeNotFound(missing[0])
	}

	calleeHeap := heap.New()
	visibleRefs := make(map[ids.NodeId]node.NodePointer)
	calleeDepth := caller.Depth + 1
	for id, root := range movedNodes {
		calleeHeap.Insert(id, root)
		visibleRefs[id] = node.HeapPointer(calleeDepth, id, nil)
		for childId := range root.Children {
			cid := childId
			visibleRefs[childId] = node.HeapPointer(calleeDepth, id, &cid)
		}
	}

	callee := callframe.NewChildFrame(caller, inv.Actor, calleeHeap, visibleRefs)
	if pushErr := d.Stack.Push(callee); pushErr != nil {
		return nil, nil, pushErr
	}
	defer d.Stack.Pop()

	// 6. Teardown, deferred so it runs on every exit path: clear the
	// callee's auth zone, then drop whatever it still owns. Any
	// remaining non-droppable resource is a leak, reported only when
	// the call was otherwise about to succeed (an earlier error already
	// takes priority as the reported cause).
	defer func() {
		clearErr := callee.AuthZone.Clear()
		dropErr := callee.DropOwnedValues()
		if err == nil {
			if clearErr != nil {
				err = clearErr
			} else if dropErr != nil {
				err = dropErr
			}
		}
	}()

	// 3. Dispatch.
	output, dispatchErr := d.dispatch(caller, callee, inv)
	if dispatchErr != nil {
		return nil, nil, dispatchErr
	}

	// 4. Validate output — only meaningful for blueprint/component
	// calls; dispatch() already ran ValidateOutput for those before
	// returning, so there is nothing further to do here for native
	// calls.

	// A native handler that mints a new Bucket/Proof returns it as a
	// bare Go value, not as something already registered in the
	// callee's heap (there is no separate "create_node" system-API call
	// in this simplified model). Register any such value now so step 5
	// can find it.
	registerOutputNodes(callee, output)

	// 5. Transfer return: take every node the result references back
	// out of the callee's heap.
	outIds := resultNodeIds(output)
	taken, missing, takeErr := callee.TakeAvailableValues(outIds, false)
	if takeErr != nil {
		return nil, nil, takeErr
	}
	if len(missing) > 0 {
		return nil, nil, engineerr.RENodeNotFound(missing[0])
	}

	// Check we have valid references to pass back: every global
	// component address named in the output must already be backed by
	// a store pointer the callee itself could see, or the callee is
	// leaking a reference it was never handed (original's
	// refed_component_addresses check in call_frame.rs's finish_method).
	if refErr := validateReferencePass(callee, output); refErr != nil {
		return nil, nil, refErr
	}

	// 7. Return.
	return output, taken, nil
}

// validateReferencePass enforces spec §4.4 step 5's reference-pass check:
// a ComponentAddress named in a call's output is only a valid thing to
// return if frame already holds a store pointer for it in its own visible
// refs. Resource/package addresses are free-floating global identifiers
// (not node references) and aren't subject to this check, matching the
// original's refed_component_addresses (components only).
func validateReferencePass(frame *callframe.Frame, output resources.Result) error {
	for _, v := range output {
		addr, ok := v.(ids.ComponentAddress)
		if !ok {
			continue
		}
		nodeId := ids.NodeId(addr)
		pointer, ok := frame.VisibleRefs[nodeId]
		if !ok || !pointer.IsStore() {
			return engineerr.InvalidReferencePass(nodeId)
		}
	}
	return nil
}

// invocationCost is a flat per-call cost in the absence of a fully
// instrumented bytecode rewriter (spec §4.4's "instrument its bytecode
// through the fee-metering rewriter" is out of this engine's scope per
// spec §1; the dispatcher still charges something per invocation so
// CostingError::OutOfCost is reachable without per-instruction metering).
func invocationCost(inv Invocation) uint64 {
	if inv.Actor.Kind == callframe.ActorFunction || (inv.State != nil && inv.State.Kind == callframe.ComponentCall) {
		return costBlueprintCall
	}
	return costNativeCall
}

// dispatch performs step 3: native handlers are invoked directly;
// Blueprint/Component calls go through the package resolver and sandbox.
func (d *Dispatcher) dispatch(caller, callee *callframe.Frame, inv Invocation) (resources.Result, error) {
	if inv.Actor.Kind == callframe.ActorFunction {
		return d.dispatchFunction(caller, inv)
	}

	if inv.State == nil {
		return nil, engineerr.Application("method invocation missing execution state", nil)
	}

	switch inv.State.Kind {
	case callframe.AuthZoneRef:
		return d.dispatchAuthZone(callee, inv)
	case callframe.RENodeRef, callframe.Consumed:
		return d.dispatchNative(caller, inv)
	case callframe.ComponentCall:
		return d.dispatchComponent(inv)
	default:
		return nil, engineerr.Application("unknown execution state kind", nil)
	}
}

func (d *Dispatcher) dispatchFunction(caller *callframe.Frame, inv Invocation) (resources.Result, error) {
	switch inv.Actor.TypeName {
	case callframe.TypeNameBlueprint:
		return d.dispatchBlueprint(inv.Actor.PackageAddress, inv.Actor.BlueprintName, inv.FnIdent, inv.Args)
	default:
		return nil, engineerr.Application("function type name is not a native dispatch target", nil)
	}
}

func (d *Dispatcher) dispatchBlueprint(pkg ids.PackageAddress, blueprintName, fnIdent string, args resources.Args) (resources.Result, error) {
	if d.Packages == nil || d.Sandbox == nil {
		return nil, engineerr.Application("no sandbox wired for blueprint dispatch", nil)
	}
	exportName, err := d.Packages.ExportName(pkg, blueprintName, fnIdent)
	if err != nil {
		return nil, err
	}
	output, err := d.Sandbox.InvokeExport(pkg, blueprintName, exportName, args)
	if err != nil {
		return nil, err
	}
	if err := d.Packages.ValidateOutput(pkg, blueprintName, fnIdent, output); err != nil {
		return nil, err
	}
	return output, nil
}

func (d *Dispatcher) dispatchComponent(inv Invocation) (resources.Result, error) {
	return d.dispatchBlueprint(inv.State.PackageAddress, inv.State.BlueprintName, inv.FnIdent, inv.Args)
}

func (d *Dispatcher) dispatchAuthZone(callee *callframe.Frame, inv Invocation) (resources.Result, error) {
	switch inv.FnIdent {
	case "push":
		p, _ := inv.Args["proof"].(authzone.Proof)
		callee.AuthZone.Push(p)
		return resources.Result{}, nil
	case "pop":
		p, err := callee.AuthZone.Pop()
		if err != nil {
			return nil, err
		}
		return resources.Result{"proof": p}, nil
	case "clear":
		if err := callee.AuthZone.Clear(); err != nil {
			return nil, err
		}
		return resources.Result{}, nil
	default:
		return nil, engineerr.New(engineerr.CodeInvalidFnOutput, "unknown auth zone method").WithDetail("fn_ident", inv.FnIdent)
	}
}

// dispatchNative resolves the receiver and calls the matching Main
// function from internal/resources, grounded on call_frame.rs's RENodeId
// match arms. A receiver still resident in the caller's own heap (a
// bucket/proof/vault/component this transaction created or moved in) is
// read directly; one that isn't is expected to be an already-globalized,
// store-backed substate reachable through the caller's visible refs, and
// is resolved via offsetForKind + Frame.ReadValueInternal/Track's
// acquire-read-write-release lifecycle (spec §4.1/§4.4 step 1 and step 6).
func (d *Dispatcher) dispatchNative(caller *callframe.Frame, inv Invocation) (resources.Result, error) {
	receiverId := inv.State.NodeId

	if root, ok := caller.OwnedNodes.Get(receiverId); ok {
		return d.invokeNativeRoot(root.Root, inv)
	}

	return d.dispatchStoreBackedNative(caller, receiverId, inv)
}

// offsetForKind returns the well-known substate offset a store-backed node
// of this kind is locked and read/written through. Only kinds whose RENode
// can actually be persisted (VerifyCanPersist) are ever resolved this way;
// Bucket/Proof/Worktop remain heap-only by construction (see their
// VerifyCanPersist implementations), so they have no entry here.
func offsetForKind(kind ids.NodeKind) (node.Offset, bool) {
	switch kind {
	case ids.KindVault:
		return node.OffsetVaultRoot, true
	case ids.KindResourceManager:
		return node.OffsetResourceRoot, true
	case ids.KindComponent:
		return node.OffsetComponentState, true
	case ids.KindSystem:
		return node.OffsetSystemRoot, true
	default:
		return node.Offset{}, false
	}
}

// dispatchStoreBackedNative resolves a receiver that isn't in the caller's
// own heap against the persistent store: validate the receiver is a store
// pointer actually visible to this frame via ReadValueInternal, then
// acquire a write lock, read the current substate value, run the method
// against it, buffer the (possibly mutated) value back through
// WriteSubstate, and release the lock — the lock-acquire-read/write-
// release lifecycle spec §4.1 describes and invariant 3 depends on.
func (d *Dispatcher) dispatchStoreBackedNative(caller *callframe.Frame, receiverId ids.NodeId, inv Invocation) (resources.Result, error) {
	offset, ok := offsetForKind(receiverId.Kind)
	if !ok {
		return nil, engineerr.RENodeNotFound(receiverId)
	}
	substateId := node.SubstateId{NodeId: receiverId, Offset: offset}

	pointer, _, err := caller.ReadValueInternal(substateId, d.Track)
	if err != nil {
		return nil, err
	}
	if !pointer.IsStore() {
		return nil, engineerr.RENodeNotFound(receiverId)
	}

	handle, err := d.Track.AcquireLock(substateId, true, false)
	if err != nil {
		return nil, err
	}
	substate, err := d.Track.ReadSubstate(handle)
	if err != nil {
		_ = d.Track.ReleaseLock(handle)
		return nil, err
	}
	root, ok := substate.Value.(node.RENode)
	if !ok {
		_ = d.Track.ReleaseLock(handle)
		return nil, engineerr.Application("store substate value is not a node", nil)
	}

	output, callErr := d.invokeNativeRoot(root, inv)

	if writeErr := d.Track.WriteSubstate(handle, store.Substate{Value: root, Referenced: substate.Referenced}); writeErr != nil {
		_ = d.Track.ReleaseLock(handle)
		if callErr != nil {
			return nil, callErr
		}
		return nil, writeErr
	}
	if releaseErr := d.Track.ReleaseLock(handle); releaseErr != nil && callErr == nil {
		return nil, releaseErr
	}
	return output, callErr
}

// invokeNativeRoot dispatches fn_ident/args against the concrete RENode
// variant a receiver resolved to, regardless of whether it came from the
// caller's own heap or the store.
func (d *Dispatcher) invokeNativeRoot(root node.RENode, inv Invocation) (resources.Result, error) {
	switch r := root.(type) {
	case *resources.Bucket:
		if inv.State.Kind == callframe.Consumed {
			return resources.BucketConsumingMain(r, inv.FnIdent, inv.Args)
		}
		return resources.BucketMain(r, inv.FnIdent, inv.Args)
	case *resources.Proof:
		if inv.State.Kind == callframe.Consumed {
			return resources.ProofMainConsume(r, inv.FnIdent, inv.Args)
		}
		return resources.ProofMain(r, inv.FnIdent, inv.Args)
	case *resources.Vault:
		return resources.VaultMain(r, inv.FnIdent, inv.Args)
	case *resources.Worktop:
		return resources.WorktopMain(r, inv.FnIdent, inv.Args)
	case *resources.ResourceManager:
		return resources.ResourceManagerMain(r, inv.FnIdent, inv.Args)
	case *resources.Component:
		return resources.ComponentMain(r, inv.FnIdent, inv.Args)
	case *resources.System:
		return resources.SystemMain(r, inv.FnIdent, inv.Args)
	case *accesscontroller.AccessController:
		return accesscontroller.Main(r, inv.FnIdent, inv.Args)
	default:
		return nil, engineerr.Application("receiver node kind has no native method table", nil)
	}
}

// registerOutputNodes inserts any newly created RENode returned by a
// native handler into the callee's heap, keyed by its own id, so it can
// be found by the take_available_values call that transfers it back to
// the caller.
func registerOutputNodes(callee *callframe.Frame, output resources.Result) {
	for _, v := range output {
		switch val := v.(type) {
		case *resources.Bucket:
			if !callee.OwnedNodes.Contains(val.Id()) {
				callee.OwnedNodes.Insert(val.Id(), &node.HeapRootRENode{Root: val})
			}
		case *resources.Proof:
			if !callee.OwnedNodes.Contains(val.Id()) {
				callee.OwnedNodes.Insert(val.Id(), &node.HeapRootRENode{Root: val})
			}
		case authzone.Proof:
			if p, ok := val.(node.RENode); ok && !callee.OwnedNodes.Contains(val.Id()) {
				callee.OwnedNodes.Insert(val.Id(), &node.HeapRootRENode{Root: p})
			}
		}
	}
}

// resultNodeIds extracts every ids.NodeId a Result references — the
// "output.node_ids()" of spec §4.4 step 5 — by scanning for node.RENode
// values the native methods are known to return (buckets, proofs).
func resultNodeIds(output resources.Result) []ids.NodeId {
	var out []ids.NodeId
	for _, v := range output {
		switch val := v.(type) {
		case *resources.Bucket:
			out = append(out, val.Id())
		case *resources.Proof:
			out = append(out, val.Id())
		case authzone.Proof:
			out = append(out, val.Id())
		}
	}
	return out
}
