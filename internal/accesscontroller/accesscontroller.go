// Package accesscontroller implements the access-controller state machine
// (spec §4.6): a native component with non-trivial state coupled to the
// engine via authorization rules, modeling a primary/recovery/confirmation
// multi-role recovery protocol over a controlled asset vault.
package accesscontroller

import (
	"github.com/ledgerframe/callframe-engine/internal/authzone"
	"github.com/ledgerframe/callframe-engine/internal/engineerr"
	"github.com/ledgerframe/callframe-engine/internal/ids"
	"github.com/ledgerframe/callframe-engine/internal/resources"
)

// Proposer names which role initiated a pending recovery proposal.
type Proposer int

const (
	ProposerPrimary Proposer = iota
	ProposerRecovery
)

func (p Proposer) String() string {
	if p == ProposerRecovery {
		return "Recovery"
	}
	return "Primary"
}

// RuleSet is the triple of access rules an access controller enforces:
// who may act as primary, as recovery, and as confirmation.
type RuleSet struct {
	Primary      authzone.AccessRule
	Recovery     authzone.AccessRule
	Confirmation authzone.AccessRule
}

// Equal reports whether two rule sets name the same three rules. Rules
// are compared by identity/structural equality of the concrete leaf
// values the tests construct them from — sufficient for the state
// machine's "exact (rule_set, delay)" matching requirement.
func (r RuleSet) Equal(other RuleSet) bool {
	return ruleEqual(r.Primary, other.Primary) &&
		ruleEqual(r.Recovery, other.Recovery) &&
		ruleEqual(r.Confirmation, other.Confirmation)
}

func ruleEqual(a, b authzone.AccessRule) bool {
	ra, aok := a.(authzone.Require)
	rb, bok := b.(authzone.Require)
	if aok && bok {
		return ra.ResourceAddress == rb.ResourceAddress
	}
	_, aAllow := a.(authzone.AllowAll)
	_, bAllow := b.(authzone.AllowAll)
	if aAllow && bAllow {
		return true
	}
	_, aDeny := a.(authzone.DenyAll)
	_, bDeny := b.(authzone.DenyAll)
	return aDeny && bDeny
}

// Proposal is a pending recovery proposal: a rule set to adopt, the
// optional timed-recovery delay (nil disables the timed path for this
// proposal), and the epoch it was made at.
type Proposal struct {
	RuleSet   RuleSet
	Delay     *uint64
	Timestamp uint64
}

func delayEqual(a, b *uint64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// AccessController is the RENode backing one access-controller component
// instance.
type AccessController struct {
	id ids.NodeId

	vault         *resources.Vault
	ruleSet       RuleSet
	primaryLocked bool
	proposals     map[Proposer]*Proposal
}

// New creates an access controller over controlledAsset, guarded by
// ruleSet, with primary initially unlocked.
func New(id ids.NodeId, controlledAsset *resources.Vault, ruleSet RuleSet) *AccessController {
	return &AccessController{
		id:        id,
		vault:     controlledAsset,
		ruleSet:   ruleSet,
		proposals: make(map[Proposer]*Proposal),
	}
}

func (a *AccessController) Id() ids.NodeId         { return a.id }
func (a *AccessController) Kind() ids.NodeKind     { return ids.KindComponent }
func (a *AccessController) ChildIds() []ids.NodeId { return []ids.NodeId{a.vault.Id()} }
func (a *AccessController) VerifyCanMove() error   { return nil }
func (a *AccessController) VerifyCanPersist() error { return nil }
func (a *AccessController) Droppable() bool        { return false }

// RuleSet returns the controller's currently active rule set, for the
// dispatcher's AccessRules collaborator to evaluate calls against.
func (a *AccessController) RuleSet() RuleSet { return a.ruleSet }

// PrimaryLocked reports whether the primary role is currently locked out.
func (a *AccessController) PrimaryLocked() bool { return a.primaryLocked }

// CreateProof produces a proof of the controlled asset, available only
// while primary is unlocked (spec §4.6, scenario S1).
func (a *AccessController) CreateProof(newId ids.NodeId) (*resources.Proof, error) {
	if a.primaryLocked {
		return nil, engineerr.AccessControllerRoleViolation("OperationNotAllowedWhenPrimaryIsLocked")
	}
	return a.vault.CreateProof(newId)
}

// LockPrimaryRole locks out CreateProof until UnlockPrimaryRole or a
// successful recovery confirmation.
func (a *AccessController) LockPrimaryRole() { a.primaryLocked = true }

// UnlockPrimaryRole clears the primary-locked flag.
func (a *AccessController) UnlockPrimaryRole() { a.primaryLocked = false }

// InitiateRecovery stores a new pending proposal for proposer. A second
// proposal from the same proposer before the first is confirmed or
// cancelled is rejected (spec scenario S2).
func (a *AccessController) InitiateRecovery(proposer Proposer, ruleSet RuleSet, delay *uint64, now uint64) error {
	if _, exists := a.proposals[proposer]; exists {
		return engineerr.AccessControllerRoleViolation("RecoveryForThisProposerAlreadyExists").
			WithDetail("proposer", proposer.String())
	}
	a.proposals[proposer] = &Proposal{RuleSet: ruleSet, Delay: delay, Timestamp: now}
	return nil
}

// QuickConfirmRecovery adopts proposer's pending proposal immediately,
// without a timed wait, provided confirmor differs from proposer and the
// proposal matches (rule_set, delay) exactly (spec scenario S5). On
// success every pending proposal is cleared and primary is unlocked.
func (a *AccessController) QuickConfirmRecovery(proposer, confirmor Proposer, ruleSet RuleSet, delay *uint64) error {
	if confirmor == proposer {
		return engineerr.AccessControllerRoleViolation("InvalidStateTransition").
			WithDetail("reason", "confirmor must differ from proposer")
	}
	proposal, ok := a.proposals[proposer]
	if !ok || !proposal.RuleSet.Equal(ruleSet) || !delayEqual(proposal.Delay, delay) {
		return engineerr.AccessControllerRoleViolation("NoValidProposedRuleSetExists").
			WithDetail("proposer", proposer.String())
	}
	a.adopt(ruleSet)
	return nil
}

// TimedConfirmRecovery adopts the Recovery proposer's pending proposal
// once its delay has elapsed (spec scenarios S3/S4). now is the engine's
// current deterministic epoch/timestamp, supplied by the caller (the
// System RENode), not read from a wall clock.
func (a *AccessController) TimedConfirmRecovery(ruleSet RuleSet, delay *uint64, now uint64) error {
	proposal, ok := a.proposals[ProposerRecovery]
	if !ok || !proposal.RuleSet.Equal(ruleSet) || !delayEqual(proposal.Delay, delay) {
		return engineerr.AccessControllerRoleViolation("NoValidProposedRuleSetExists").
			WithDetail("proposer", ProposerRecovery.String())
	}
	if proposal.Delay == nil {
		return engineerr.AccessControllerRoleViolation("TimedRecoveryCanNotBePerformedWhileDisabled")
	}
	if now < proposal.Timestamp+*proposal.Delay {
		return engineerr.AccessControllerRoleViolation("TimedRecoveryDelayHasNotElapsed").
			WithDetail("now", now).WithDetail("ready_at", proposal.Timestamp+*proposal.Delay)
	}
	a.adopt(ruleSet)
	return nil
}

func (a *AccessController) adopt(ruleSet RuleSet) {
	a.ruleSet = ruleSet
	a.proposals = make(map[Proposer]*Proposal)
	a.primaryLocked = false
}

// CancelRecoveryAttempt removes proposer's pending proposal.
func (a *AccessController) CancelRecoveryAttempt(proposer Proposer) error {
	if _, ok := a.proposals[proposer]; !ok {
		return engineerr.AccessControllerRoleViolation("NoValidProposedRuleSetExists").
			WithDetail("proposer", proposer.String())
	}
	delete(a.proposals, proposer)
	return nil
}
