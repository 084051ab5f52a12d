package resources

import (
	"github.com/ledgerframe/callframe-engine/internal/engineerr"
	"github.com/ledgerframe/callframe-engine/internal/ids"
)

// Args and Result are the native-method calling convention: a loosely typed
// bag of already-decoded arguments in, a loosely typed bag of results out.
// The dispatcher is responsible for decoding the sandbox's wire input into
// Args before calling in, and for re-encoding Result for the caller.
type Args map[string]any
type Result map[string]any

// MethodFn is one entry in a receiver's method table.
type MethodFn func(args Args) (Result, error)

// BucketMain is the table-driven equivalent of the original's
// Bucket::main: dispatch on fn_ident for a RENodeRef(Bucket) execution
// state. Args carries any ids.NodeId the method needs to mint (e.g.
// "new_id" for take/create_proof) — minted by the caller's ids.Allocator,
// never by the receiver itself.
func BucketMain(b *Bucket, fnIdent string, args Args) (Result, error) {
	switch fnIdent {
	case "put":
		other, _ := args["bucket"].(*Bucket)
		if other == nil {
			return nil, engineerr.Application("put: missing bucket argument", nil)
		}
		if err := b.Put(other); err != nil {
			return nil, err
		}
		return Result{}, nil
	case "take":
		newId, _ := args["new_id"].(ids.NodeId)
		amount, _ := args["amount"].(uint64)
		nb, err := b.Take(newId, amount)
		if err != nil {
			return nil, err
		}
		return Result{"bucket": nb}, nil
	case "take_non_fungibles":
		newId, _ := args["new_id"].(ids.NodeId)
		wantIds, _ := args["ids"].([]string)
		nb, err := b.TakeNonFungibles(newId, wantIds)
		if err != nil {
			return nil, err
		}
		return Result{"bucket": nb}, nil
	case "create_proof":
		proofId, _ := args["new_id"].(ids.NodeId)
		p, err := b.CreateProof(proofId)
		if err != nil {
			return nil, err
		}
		return Result{"proof": p}, nil
	case "get_amount":
		return Result{"amount": b.Amount()}, nil
	case "get_resource_address":
		return Result{"resource_address": b.ResourceAddress()}, nil
	case "get_non_fungible_ids":
		return Result{"ids": b.NonFungibleIds()}, nil
	default:
		return nil, engineerr.New(engineerr.CodeInvalidFnOutput, "unknown bucket method").WithDetail("fn_ident", fnIdent)
	}
}

// BucketConsumingMain is the Consumed(node_id) path for a bucket: the
// bucket is being destroyed by this call regardless of outcome, grounded
// on Bucket::consuming_main.
func BucketConsumingMain(b *Bucket, fnIdent string, args Args) (Result, error) {
	switch fnIdent {
	case "burn":
		if err := b.Burn(); err != nil {
			return nil, err
		}
		return Result{}, nil
	default:
		return nil, engineerr.New(engineerr.CodeInvalidFnOutput, "unknown consuming bucket method").WithDetail("fn_ident", fnIdent)
	}
}

// ProofMain is the table-driven equivalent of Proof::main.
func ProofMain(p *Proof, fnIdent string, args Args) (Result, error) {
	switch fnIdent {
	case "clone":
		newId, _ := args["new_id"].(ids.NodeId)
		return Result{"proof": p.Clone(newId)}, nil
	case "get_amount":
		return Result{"amount": p.Amount()}, nil
	case "get_resource_address":
		return Result{"resource_address": p.ResourceAddress()}, nil
	case "get_non_fungible_ids":
		return Result{"ids": p.NonFungibleIds()}, nil
	default:
		return nil, engineerr.New(engineerr.CodeInvalidFnOutput, "unknown proof method").WithDetail("fn_ident", fnIdent)
	}
}

// ProofMainConsume is the Consumed(node_id) path for a proof: dropping it,
// grounded on Proof::main_consume.
func ProofMainConsume(p *Proof, fnIdent string, args Args) (Result, error) {
	switch fnIdent {
	case "drop":
		if err := p.Drop(); err != nil {
			return nil, err
		}
		return Result{}, nil
	default:
		return nil, engineerr.New(engineerr.CodeInvalidFnOutput, "unknown consuming proof method").WithDetail("fn_ident", fnIdent)
	}
}

// VaultMain is the table-driven equivalent of Vault::main.
func VaultMain(v *Vault, fnIdent string, args Args) (Result, error) {
	switch fnIdent {
	case "put":
		bucket, _ := args["bucket"].(*Bucket)
		if bucket == nil {
			return nil, engineerr.Application("put: missing bucket argument", nil)
		}
		if err := v.Put(bucket); err != nil {
			return nil, err
		}
		return Result{}, nil
	case "take":
		newId, _ := args["new_id"].(ids.NodeId)
		amount, _ := args["amount"].(uint64)
		b, err := v.Take(newId, amount)
		if err != nil {
			return nil, err
		}
		return Result{"bucket": b}, nil
	case "take_non_fungibles":
		newId, _ := args["new_id"].(ids.NodeId)
		wantIds, _ := args["ids"].([]string)
		b, err := v.TakeNonFungibles(newId, wantIds)
		if err != nil {
			return nil, err
		}
		return Result{"bucket": b}, nil
	case "create_proof":
		proofId, _ := args["new_id"].(ids.NodeId)
		p, err := v.CreateProof(proofId)
		if err != nil {
			return nil, err
		}
		return Result{"proof": p}, nil
	case "create_proof_by_amount":
		proofId, _ := args["new_id"].(ids.NodeId)
		amount, _ := args["amount"].(uint64)
		p, err := v.CreateProofByAmount(proofId, amount)
		if err != nil {
			return nil, err
		}
		return Result{"proof": p}, nil
	case "create_proof_by_ids":
		proofId, _ := args["new_id"].(ids.NodeId)
		wantIds, _ := args["ids"].([]string)
		p, err := v.CreateProofByIds(proofId, wantIds)
		if err != nil {
			return nil, err
		}
		return Result{"proof": p}, nil
	case "get_amount":
		return Result{"amount": v.Amount()}, nil
	case "get_resource_address":
		return Result{"resource_address": v.ResourceAddress()}, nil
	case "get_non_fungible_ids":
		return Result{"ids": v.NonFungibleIds()}, nil
	default:
		return nil, engineerr.New(engineerr.CodeInvalidFnOutput, "unknown vault method").WithDetail("fn_ident", fnIdent)
	}
}

// WorktopMain is the table-driven equivalent of Worktop::main. Unlike the
// other receivers there is exactly one worktop per transaction, so the
// original dispatches purely on fn_ident with no receiver id.
func WorktopMain(w *Worktop, fnIdent string, args Args) (Result, error) {
	switch fnIdent {
	case "put":
		bucket, _ := args["bucket"].(*Bucket)
		if bucket == nil {
			return nil, engineerr.Application("put: missing bucket argument", nil)
		}
		if err := w.Put(bucket); err != nil {
			return nil, err
		}
		return Result{}, nil
	case "take_all":
		addr, _ := args["resource_address"].(ids.ResourceAddress)
		b, ok := w.TakeAll(addr)
		if !ok {
			return nil, engineerr.InsufficientBalance("0", "any")
		}
		return Result{"bucket": b}, nil
	case "take_amount":
		newId, _ := args["new_id"].(ids.NodeId)
		addr, _ := args["resource_address"].(ids.ResourceAddress)
		amount, _ := args["amount"].(uint64)
		b, err := w.TakeAmount(newId, addr, amount)
		if err != nil {
			return nil, err
		}
		return Result{"bucket": b}, nil
	case "assert_contains":
		addr, _ := args["resource_address"].(ids.ResourceAddress)
		return Result{"contains": w.AssertContains(addr)}, nil
	case "assert_contains_amount":
		addr, _ := args["resource_address"].(ids.ResourceAddress)
		amount, _ := args["amount"].(uint64)
		return Result{"contains": w.AssertContainsAmount(addr, amount)}, nil
	default:
		return nil, engineerr.New(engineerr.CodeInvalidFnOutput, "unknown worktop method").WithDetail("fn_ident", fnIdent)
	}
}

// ResourceManagerMain is the table-driven equivalent of
// ResourceManager::main.
func ResourceManagerMain(r *ResourceManager, fnIdent string, args Args) (Result, error) {
	switch fnIdent {
	case "mint":
		bucketId, _ := args["new_id"].(ids.NodeId)
		amount, _ := args["amount"].(uint64)
		b, err := r.Mint(bucketId, amount)
		if err != nil {
			return nil, err
		}
		return Result{"bucket": b}, nil
	case "mint_non_fungible":
		bucketId, _ := args["new_id"].(ids.NodeId)
		nfIds, _ := args["ids"].([]string)
		b, err := r.MintNonFungible(bucketId, nfIds)
		if err != nil {
			return nil, err
		}
		return Result{"bucket": b}, nil
	case "burn":
		bucket, _ := args["bucket"].(*Bucket)
		if bucket == nil {
			return nil, engineerr.Application("burn: missing bucket argument", nil)
		}
		if err := r.Burn(bucket); err != nil {
			return nil, err
		}
		return Result{}, nil
	case "get_total_supply":
		return Result{"total_supply": r.TotalSupply()}, nil
	case "get_resource_address":
		return Result{"resource_address": r.Address()}, nil
	default:
		return nil, engineerr.New(engineerr.CodeInvalidFnOutput, "unknown resource manager method").WithDetail("fn_ident", fnIdent)
	}
}

// ComponentMain is the table-driven equivalent of Component::main. Unlike
// the other native receivers, most fn_idents here resolve to blueprint
// bytecode (spec §4.4 step 3's Blueprint/Component branch) rather than a
// native implementation; this covers only the handful of native
// introspection calls the engine itself serves without invoking a sandbox.
func ComponentMain(c *Component, fnIdent string, args Args) (Result, error) {
	switch fnIdent {
	case "get_info":
		pkg, blueprint := c.Info()
		return Result{"package_address": pkg, "blueprint_name": blueprint}, nil
	default:
		return nil, engineerr.New(engineerr.CodeInvalidFnOutput, "component fn_ident is not a native method").WithDetail("fn_ident", fnIdent)
	}
}

// SystemMain is the table-driven equivalent of System::main.
func SystemMain(s *System, fnIdent string, args Args) (Result, error) {
	switch fnIdent {
	case "get_epoch":
		return Result{"epoch": s.Epoch()}, nil
	case "get_transaction_hash":
		return Result{"transaction_hash": s.TransactionHash()}, nil
	case "set_epoch":
		epoch, _ := args["epoch"].(uint64)
		s.SetEpoch(epoch)
		return Result{}, nil
	default:
		return nil, engineerr.New(engineerr.CodeInvalidFnOutput, "unknown system method").WithDetail("fn_ident", fnIdent)
	}
}
