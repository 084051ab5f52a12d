package accesscontroller

import (
	"github.com/ledgerframe/callframe-engine/internal/engineerr"
	"github.com/ledgerframe/callframe-engine/internal/ids"
	"github.com/ledgerframe/callframe-engine/internal/resources"
)

// Main dispatches one access-controller method by fn_ident, the same
// table-driven shape internal/resources uses for its native receivers
// (spec §9's exhaustive-matching preference). Ids for any newly minted
// node (e.g. create_proof's proof) are read from args["new_id"], the
// same convention internal/resources' Main functions use.
func Main(a *AccessController, fnIdent string, args resources.Args) (resources.Result, error) {
	switch fnIdent {
	case "create_proof":
		newId, _ := args["new_id"].(ids.NodeId)
		p, err := a.CreateProof(newId)
		if err != nil {
			return nil, err
		}
		return resources.Result{"proof": p}, nil

	case "lock_primary_role":
		a.LockPrimaryRole()
		return resources.Result{}, nil

	case "unlock_primary_role":
		a.UnlockPrimaryRole()
		return resources.Result{}, nil

	case "initiate_recovery":
		proposer, ruleSet, delay, now, err := recoveryArgs(args)
		if err != nil {
			return nil, err
		}
		if err := a.InitiateRecovery(proposer, ruleSet, delay, now); err != nil {
			return nil, err
		}
		return resources.Result{}, nil

	case "quick_confirm_recovery":
		proposer, ruleSet, delay, _, err := recoveryArgs(args)
		if err != nil {
			return nil, err
		}
		confirmor, ok := args["confirmor"].(Proposer)
		if !ok {
			return nil, engineerr.New(engineerr.CodeInvalidFnOutput, "quick_confirm_recovery requires a confirmor argument")
		}
		if err := a.QuickConfirmRecovery(proposer, confirmor, ruleSet, delay); err != nil {
			return nil, err
		}
		return resources.Result{}, nil

	case "timed_confirm_recovery":
		ruleSet, ok := args["rule_set"].(RuleSet)
		if !ok {
			return nil, engineerr.New(engineerr.CodeInvalidFnOutput, "timed_confirm_recovery requires a rule_set argument")
		}
		delay, _ := args["delay"].(*uint64)
		now, ok := args["now"].(uint64)
		if !ok {
			return nil, engineerr.New(engineerr.CodeInvalidFnOutput, "timed_confirm_recovery requires a now argument")
		}
		if err := a.TimedConfirmRecovery(ruleSet, delay, now); err != nil {
			return nil, err
		}
		return resources.Result{}, nil

	case "cancel_recovery_attempt":
		proposer, ok := args["proposer"].(Proposer)
		if !ok {
			return nil, engineerr.New(engineerr.CodeInvalidFnOutput, "cancel_recovery_attempt requires a proposer argument")
		}
		if err := a.CancelRecoveryAttempt(proposer); err != nil {
			return nil, err
		}
		return resources.Result{}, nil

	default:
		return nil, engineerr.New(engineerr.CodeInvalidFnOutput, "unknown access controller method").WithDetail("fn_ident", fnIdent)
	}
}

func recoveryArgs(args resources.Args) (proposer Proposer, ruleSet RuleSet, delay *uint64, now uint64, err error) {
	proposer, ok := args["proposer"].(Proposer)
	if !ok {
		return 0, RuleSet{}, nil, 0, engineerr.New(engineerr.CodeInvalidFnOutput, "missing proposer argument")
	}
	ruleSet, ok = args["rule_set"].(RuleSet)
	if !ok {
		return 0, RuleSet{}, nil, 0, engineerr.New(engineerr.CodeInvalidFnOutput, "missing rule_set argument")
	}
	delay, _ = args["delay"].(*uint64)
	now, _ = args["now"].(uint64)
	return proposer, ruleSet, delay, now, nil
}
