package sandbox

import (
	"fmt"

	"github.com/dop251/goja"

	"github.com/ledgerframe/callframe-engine/internal/engineerr"
	"github.com/ledgerframe/callframe-engine/internal/ids"
	"github.com/ledgerframe/callframe-engine/internal/resources"
)

// GojaSandbox invokes blueprint exports in a fresh goja runtime per call,
// matching the teacher's gojaScriptEngine.Execute: one new VM per
// invocation for isolation, a console shim, and the script's input
// injected as a global before the entry point runs.
type GojaSandbox struct {
	registry *Registry
}

func NewGojaSandbox(registry *Registry) *GojaSandbox {
	return &GojaSandbox{registry: registry}
}

// InvokeExport implements internal/dispatch's Sandbox interface.
func (s *GojaSandbox) InvokeExport(pkg ids.PackageAddress, blueprintName, exportName string, input resources.Args) (resources.Result, error) {
	code, err := s.registry.Code(pkg, blueprintName)
	if err != nil {
		return nil, err
	}

	vm := goja.New()

	logs := make([]string, 0)
	console := vm.NewObject()
	_ = console.Set("log", func(call goja.FunctionCall) goja.Value {
		for _, arg := range call.Arguments {
			logs = append(logs, arg.String())
		}
		return goja.Undefined()
	})
	_ = vm.Set("console", console)
	_ = vm.Set("input", vm.ToValue(map[string]any(input)))

	if _, err := vm.RunString(code); err != nil {
		return nil, engineerr.Wrap(engineerr.CodeSandboxTrap, "sandbox: failed to load blueprint code", err)
	}

	entryPoint, ok := goja.AssertFunction(vm.Get(exportName))
	if !ok {
		return nil, engineerr.New(engineerr.CodeInvalidMethod, fmt.Sprintf("export %q is not a function", exportName))
	}

	resultVal, err := entryPoint(goja.Undefined(), vm.Get("input"))
	if err != nil {
		return nil, engineerr.Wrap(engineerr.CodeSandboxRuntimeError, "sandbox: blueprint export raised", err)
	}

	if resultVal == nil || goja.IsUndefined(resultVal) || goja.IsNull(resultVal) {
		return resources.Result{}, nil
	}
	exported := resultVal.Export()
	if m, ok := exported.(map[string]any); ok {
		return resources.Result(m), nil
	}
	return resources.Result{"value": exported}, nil
}
