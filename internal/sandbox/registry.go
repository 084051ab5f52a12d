// Package sandbox implements the bytecode sandbox contract spec §6's
// system API abstracts as `wasm_engine().instantiate(code)` /
// `wasm_instrumenter().instrument(code, params)`: a JS runtime standing
// in for the WASM engine the spec deliberately keeps out of scope,
// grounded on the teacher's goja-based script engine
// (system/tee/script_engine.go).
package sandbox

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/ledgerframe/callframe-engine/internal/engineerr"
	"github.com/ledgerframe/callframe-engine/internal/ids"
	"github.com/ledgerframe/callframe-engine/internal/resources"
)

// Blueprint is one package's compiled-in-spirit unit: its JS source, the
// fn_ident → JS function name export table a package's ABI declares, and
// an optional declared output type per fn_ident for ValidateOutput.
type Blueprint struct {
	Code        string
	Exports     map[string]string
	OutputTypes map[string]reflect.Kind
}

// Registry holds every deployed package's blueprints, playing the role
// spec §4.4 step 3/4 assigns the Package substate: "read the Package
// substate ... look up the function's ABI".
type Registry struct {
	mu         sync.RWMutex
	blueprints map[ids.PackageAddress]map[string]*Blueprint
}

func NewRegistry() *Registry {
	return &Registry{blueprints: make(map[ids.PackageAddress]map[string]*Blueprint)}
}

// Deploy publishes a blueprint's code and ABI under a package address.
func (r *Registry) Deploy(pkg ids.PackageAddress, blueprintName string, bp *Blueprint) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.blueprints[pkg] == nil {
		r.blueprints[pkg] = make(map[string]*Blueprint)
	}
	r.blueprints[pkg][blueprintName] = bp
}

func (r *Registry) lookup(pkg ids.PackageAddress, blueprintName string) (*Blueprint, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	byName, ok := r.blueprints[pkg]
	if !ok {
		return nil, engineerr.Application(fmt.Sprintf("package %s not found", pkg), nil)
	}
	bp, ok := byName[blueprintName]
	if !ok {
		return nil, engineerr.Application(fmt.Sprintf("blueprint %s not found in package %s", blueprintName, pkg), nil)
	}
	return bp, nil
}

// ExportName resolves fn_ident to the JS entry-point function name the
// sandbox should call, implementing internal/dispatch's PackageResolver.
func (r *Registry) ExportName(pkg ids.PackageAddress, blueprintName, fnIdent string) (string, error) {
	bp, err := r.lookup(pkg, blueprintName)
	if err != nil {
		return "", err
	}
	exportName, ok := bp.Exports[fnIdent]
	if !ok {
		return "", engineerr.InvalidFnOutput(fnIdent)
	}
	return exportName, nil
}

// ValidateOutput checks a call's result against the blueprint's declared
// output type, when one is declared; undeclared fn_idents pass through
// unchecked (spec §4.4 step 4's "validate output" is a no-op when the
// ABI doesn't constrain the return shape).
func (r *Registry) ValidateOutput(pkg ids.PackageAddress, blueprintName, fnIdent string, output resources.Result) error {
	bp, err := r.lookup(pkg, blueprintName)
	if err != nil {
		return err
	}
	wantKind, declared := bp.OutputTypes[fnIdent]
	if !declared {
		return nil
	}
	val, ok := output["value"]
	if !ok {
		return engineerr.InvalidFnOutput(fnIdent)
	}
	if reflect.ValueOf(val).Kind() != wantKind {
		return engineerr.InvalidFnOutput(fnIdent)
	}
	return nil
}

// Code returns a blueprint's source, for the Sandbox to instantiate.
func (r *Registry) Code(pkg ids.PackageAddress, blueprintName string) (string, error) {
	bp, err := r.lookup(pkg, blueprintName)
	if err != nil {
		return "", err
	}
	return bp.Code, nil
}
