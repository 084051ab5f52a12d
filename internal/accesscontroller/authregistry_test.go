package accesscontroller

import (
	"testing"

	"github.com/ledgerframe/callframe-engine/internal/authzone"
	"github.com/ledgerframe/callframe-engine/internal/callframe"
	"github.com/ledgerframe/callframe-engine/internal/ids"
)

func TestRegistryRequiredRuleResolvesPrimaryForCreateProof(t *testing.T) {
	ac, _ := newTestController(t)
	reg := NewRegistry()
	reg.Register(ac)

	rule, ok := reg.RequiredRule(callframe.MethodActor(ac.Id(), "create_proof"))
	if !ok {
		t.Fatalf("expected a required rule for create_proof")
	}
	if _, isRequire := rule.(authzone.Require); !isRequire {
		t.Fatalf("expected create_proof to be guarded by the primary Require rule, got %T", rule)
	}
}

func TestRegistryRequiredRuleIsAbsentForUnregisteredReceiver(t *testing.T) {
	reg := NewRegistry()
	alloc := ids.NewAllocator(ids.HashBytes([]byte("tx")))
	unknown := alloc.New(ids.KindComponent)

	if _, ok := reg.RequiredRule(callframe.MethodActor(unknown, "create_proof")); ok {
		t.Fatalf("expected no rule for a receiver never registered")
	}
}

func TestRegistryUnregisterRemovesController(t *testing.T) {
	ac, _ := newTestController(t)
	reg := NewRegistry()
	reg.Register(ac)
	reg.Unregister(ac.Id())

	if _, ok := reg.RequiredRule(callframe.MethodActor(ac.Id(), "create_proof")); ok {
		t.Fatalf("expected no rule after unregister")
	}
}
