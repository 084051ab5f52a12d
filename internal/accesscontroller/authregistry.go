package accesscontroller

import (
	"github.com/ledgerframe/callframe-engine/internal/authzone"
	"github.com/ledgerframe/callframe-engine/internal/callframe"
	"github.com/ledgerframe/callframe-engine/internal/ids"
)

// Registry maps method calls against live access-controller instances to
// the rule that must be satisfied before the dispatcher authorizes them
// (spec §4.6: "a multi-role recovery protocol coupled to the engine via
// authorization rules"). It implements internal/dispatch's AccessRules
// interface without that package needing to import this one.
type Registry struct {
	controllers map[ids.NodeId]*AccessController
}

func NewRegistry() *Registry {
	return &Registry{controllers: make(map[ids.NodeId]*AccessController)}
}

func (r *Registry) Register(a *AccessController) {
	r.controllers[a.Id()] = a
}

func (r *Registry) Unregister(id ids.NodeId) {
	delete(r.controllers, id)
}

// requiredRole names which of an access controller's three rules guards a
// given fn_ident. Roles are fixed per method, not parameterized by call
// arguments, matching how the original exposes per-method access rules on
// the blueprint's ABI rather than evaluating them dynamically per call.
func requiredRole(fnIdent string) (role func(RuleSet) authzone.AccessRule, ok bool) {
	switch fnIdent {
	case "create_proof", "lock_primary_role", "unlock_primary_role":
		return func(rs RuleSet) authzone.AccessRule { return rs.Primary }, true
	case "initiate_recovery", "cancel_recovery_attempt":
		return func(rs RuleSet) authzone.AccessRule { return authzone.AnyOf{Rules: []authzone.AccessRule{rs.Primary, rs.Recovery}} }, true
	case "quick_confirm_recovery":
		return func(rs RuleSet) authzone.AccessRule { return rs.Confirmation }, true
	case "timed_confirm_recovery":
		return func(rs RuleSet) authzone.AccessRule { return authzone.AllowAll{} }, true
	default:
		return nil, false
	}
}

// RequiredRule resolves the access rule guarding actor's call, if actor
// targets a registered access controller.
func (r *Registry) RequiredRule(actor callframe.Actor) (authzone.AccessRule, bool) {
	if actor.Kind != callframe.ActorMethod {
		return nil, false
	}
	ac, ok := r.controllers[actor.Receiver]
	if !ok {
		return nil, false
	}
	roleFn, ok := requiredRole(actor.FnIdent)
	if !ok {
		return nil, false
	}
	return roleFn(ac.RuleSet()), true
}
