package authzone

import "github.com/ledgerframe/callframe-engine/internal/ids"

// AccessRule is a tree over require/any_of/all_of/count_of/deny_all/
// allow_all, evaluated against a frame's auth zone (spec §4.5).
type AccessRule interface {
	evaluate(z *AuthZone) bool
}

// Require is satisfied when the zone holds a proof of resourceAddress.
type Require struct {
	ResourceAddress ids.ResourceAddress
}

func (r Require) evaluate(z *AuthZone) bool {
	return z.Satisfies(r.ResourceAddress)
}

// AnyOf is satisfied when at least one child rule is satisfied.
type AnyOf struct {
	Rules []AccessRule
}

func (r AnyOf) evaluate(z *AuthZone) bool {
	for _, child := range r.Rules {
		if child.evaluate(z) {
			return true
		}
	}
	return false
}

// AllOf is satisfied only when every child rule is satisfied.
type AllOf struct {
	Rules []AccessRule
}

func (r AllOf) evaluate(z *AuthZone) bool {
	for _, child := range r.Rules {
		if !child.evaluate(z) {
			return false
		}
	}
	return true
}

// CountOf is satisfied when at least N of the child rules are satisfied.
type CountOf struct {
	N     int
	Rules []AccessRule
}

func (r CountOf) evaluate(z *AuthZone) bool {
	count := 0
	for _, child := range r.Rules {
		if child.evaluate(z) {
			count++
		}
	}
	return count >= r.N
}

// AllowAll short-circuits to true regardless of the zone's contents.
type AllowAll struct{}

func (AllowAll) evaluate(*AuthZone) bool { return true }

// DenyAll is absolute: always false regardless of the zone's contents.
type DenyAll struct{}

func (DenyAll) evaluate(*AuthZone) bool { return false }

// Evaluate decides allow/deny for rule against zone's current proofs.
// AllowAll short-circuits before examining the zone; DenyAll is checked
// first and is absolute, matching spec §4.5.
func Evaluate(rule AccessRule, zone *AuthZone) bool {
	if _, deny := rule.(DenyAll); deny {
		return false
	}
	if _, allow := rule.(AllowAll); allow {
		return true
	}
	return rule.evaluate(zone)
}
