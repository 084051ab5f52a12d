package callframe

import "github.com/ledgerframe/callframe-engine/internal/ids"

// ActorKind distinguishes the three shapes an invocation's running actor
// can take (spec §4.3).
type ActorKind int

const (
	ActorNative ActorKind = iota
	ActorMethod
	ActorFunction
)

// TypeName enumerates the Function actor's callee kinds (spec §4.4).
type TypeName int

const (
	TypeNameTransactionProcessor TypeName = iota
	TypeNamePackage
	TypeNameResourceManager
	TypeNameBlueprint
)

// Actor identifies what is running in a frame: a native call, a method on
// an existing RENode, or a free function (including blueprint
// constructors).
type Actor struct {
	Kind ActorKind

	// Method fields.
	Receiver ids.NodeId
	FnIdent  string

	// Function fields.
	TypeName       TypeName
	PackageAddress ids.PackageAddress
	BlueprintName  string
}

func NativeActor(fnIdent string) Actor {
	return Actor{Kind: ActorNative, FnIdent: fnIdent}
}

func MethodActor(receiver ids.NodeId, fnIdent string) Actor {
	return Actor{Kind: ActorMethod, Receiver: receiver, FnIdent: fnIdent}
}

func FunctionActor(typeName TypeName, pkg ids.PackageAddress, blueprint string) Actor {
	return Actor{Kind: ActorFunction, TypeName: typeName, PackageAddress: pkg, BlueprintName: blueprint}
}
