// Package ids defines the identity types that flow through every layer of
// the call frame engine: transaction hashes, node ids, and the address
// types that alias a global node id to a stable, externally addressable
// identifier.
package ids

import (
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/blake2b"
)

// Hash is a transaction hash. All node ids allocated during a transaction
// are derived from it plus a monotone counter, so allocation is
// deterministic and reproducible across re-execution.
type Hash [32]byte

func (h Hash) String() string {
	return hex.EncodeToString(h[:])
}

// HashBytes derives a Hash from arbitrary transaction bytes (the manifest
// payload, signer keys, etc). Deterministic: same input, same hash.
func HashBytes(parts ...[]byte) Hash {
	hasher, err := blake2b.New256(nil)
	if err != nil {
		// blake2b.New256 only errors on a bad key, and we pass nil.
		panic(fmt.Sprintf("ids: blake2b.New256: %v", err))
	}
	for _, p := range parts {
		hasher.Write(p)
	}
	var h Hash
	copy(h[:], hasher.Sum(nil))
	return h
}

// NodeKind enumerates the closed set of RENode variants from spec §3.
type NodeKind uint8

const (
	KindBucket NodeKind = iota
	KindProof
	KindVault
	KindWorktop
	KindAuthZoneStack
	KindComponent
	KindResourceManager
	KindPackage
	KindSystem
	KindKeyValueStore
	KindNonFungibleStore
	KindGlobal
)

func (k NodeKind) String() string {
	switch k {
	case KindBucket:
		return "Bucket"
	case KindProof:
		return "Proof"
	case KindVault:
		return "Vault"
	case KindWorktop:
		return "Worktop"
	case KindAuthZoneStack:
		return "AuthZoneStack"
	case KindComponent:
		return "Component"
	case KindResourceManager:
		return "ResourceManager"
	case KindPackage:
		return "Package"
	case KindSystem:
		return "System"
	case KindKeyValueStore:
		return "KeyValueStore"
	case KindNonFungibleStore:
		return "NonFungibleStore"
	case KindGlobal:
		return "Global"
	default:
		return "Unknown"
	}
}

// NodeId uniquely identifies one RENode within a transaction's lifetime.
// It is comparable, so it can be used directly as a map key.
type NodeId struct {
	TxHash  Hash
	Kind    NodeKind
	Counter uint32
}

func (id NodeId) String() string {
	return fmt.Sprintf("%s:%s:%d", id.TxHash.String()[:8], id.Kind, id.Counter)
}

// IsZero reports whether id is the zero value (never a valid allocated id).
func (id NodeId) IsZero() bool {
	return id == NodeId{}
}

// Encode renders a full, round-trippable representation of id (unlike
// String, which truncates the hash for readability). Used wherever a node
// id must be persisted or cached as text, e.g. the SQL store and the Redis
// cache backend.
func (id NodeId) Encode() string {
	return fmt.Sprintf("%s:%d:%d", id.TxHash.String(), id.Kind, id.Counter)
}

// ParseNodeId parses the output of Encode back into a NodeId.
func ParseNodeId(s string) (NodeId, error) {
	const hashLen = 64 // 32 bytes, hex-encoded
	if len(s) < hashLen+2 || s[hashLen] != ':' {
		return NodeId{}, fmt.Errorf("ids: malformed node id %q", s)
	}
	raw, err := hex.DecodeString(s[:hashLen])
	if err != nil || len(raw) != 32 {
		return NodeId{}, fmt.Errorf("ids: malformed node id hash in %q", s)
	}
	var kind, counter uint32
	if _, err := fmt.Sscanf(s[hashLen:], ":%d:%d", &kind, &counter); err != nil {
		return NodeId{}, fmt.Errorf("ids: malformed node id %q: %w", s, err)
	}
	var h Hash
	copy(h[:], raw)
	return NodeId{TxHash: h, Kind: NodeKind(kind), Counter: counter}, nil
}

// Allocator deterministically mints NodeIds for one transaction. It is not
// safe for concurrent use; the engine is single-threaded per transaction
// (spec §5).
type Allocator struct {
	txHash   Hash
	counters [12]uint32 // one monotone counter per NodeKind
}

// NewAllocator creates an allocator bound to a transaction hash.
func NewAllocator(txHash Hash) *Allocator {
	return &Allocator{txHash: txHash}
}

// New mints the next NodeId of the given kind.
func (a *Allocator) New(kind NodeKind) NodeId {
	a.counters[kind]++
	return NodeId{TxHash: a.txHash, Kind: kind, Counter: a.counters[kind]}
}

// ComponentAddress is the stable, global identifier of a Component node.
type ComponentAddress NodeId

// ResourceAddress is the stable, global identifier of a ResourceManager node.
type ResourceAddress NodeId

// PackageAddress is the stable, global identifier of a Package node.
type PackageAddress NodeId

func (a ComponentAddress) String() string { return NodeId(a).String() }
func (a ResourceAddress) String() string  { return NodeId(a).String() }
func (a PackageAddress) String() string   { return NodeId(a).String() }
