package callframe

import "github.com/ledgerframe/callframe-engine/internal/ids"

// ExecutionStateKind enumerates the four shapes a Method invocation's
// target can take (spec §4.4).
type ExecutionStateKind int

const (
	// Consumed means the receiver node is moved in and destroyed on
	// return regardless of outcome (e.g. Bucket.burn).
	Consumed ExecutionStateKind = iota
	// AuthZoneRef targets the frame's own auth zone (push/pop/clear/
	// create_proof).
	AuthZoneRef
	// RENodeRef targets a live node by id for a native method call.
	RENodeRef
	// ComponentCall targets a blueprint method on a live component,
	// dispatched through the sandbox.
	ComponentCall
)

// ExecutionState pairs an ExecutionStateKind with the fields relevant to
// it. Only the fields matching Kind are meaningful.
type ExecutionState struct {
	Kind ExecutionStateKind

	NodeId ids.NodeId // Consumed, RENodeRef

	PackageAddress  ids.PackageAddress // ComponentCall
	BlueprintName   string             // ComponentCall
	ComponentAddress ids.ComponentAddress // ComponentCall
}

func ConsumedState(nodeId ids.NodeId) ExecutionState {
	return ExecutionState{Kind: Consumed, NodeId: nodeId}
}

func AuthZoneRefState() ExecutionState {
	return ExecutionState{Kind: AuthZoneRef}
}

func RENodeRefState(nodeId ids.NodeId) ExecutionState {
	return ExecutionState{Kind: RENodeRef, NodeId: nodeId}
}

func ComponentCallState(pkg ids.PackageAddress, blueprint string, component ids.ComponentAddress) ExecutionState {
	return ExecutionState{Kind: ComponentCall, PackageAddress: pkg, BlueprintName: blueprint, ComponentAddress: component}
}
