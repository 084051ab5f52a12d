package sandbox

import (
	"fmt"
	"testing"

	"github.com/ledgerframe/callframe-engine/internal/ids"
	"github.com/ledgerframe/callframe-engine/internal/resources"
)

// toFloat normalizes goja's numeric Export() result (int64 or float64,
// depending on whether the JS value is a whole number) so the test
// doesn't depend on that implementation detail.
func toFloat(v any) (float64, error) {
	switch n := v.(type) {
	case int64:
		return float64(n), nil
	case float64:
		return n, nil
	default:
		return 0, fmt.Errorf("unexpected numeric type %T", v)
	}
}

func TestInvokeExportRunsBlueprintAndReturnsResult(t *testing.T) {
	reg := NewRegistry()
	alloc := ids.NewAllocator(ids.HashBytes([]byte("tx")))
	pkg := ids.PackageAddress(alloc.New(ids.KindPackage))

	reg.Deploy(pkg, "Counter", &Blueprint{
		Code: `function increment(input) { return { total: input.amount + 1 }; }`,
		Exports: map[string]string{
			"increment": "increment",
		},
	})

	sb := NewGojaSandbox(reg)
	exportName, err := reg.ExportName(pkg, "Counter", "increment")
	if err != nil {
		t.Fatalf("export_name: %v", err)
	}
	out, err := sb.InvokeExport(pkg, "Counter", exportName, resources.Args{"amount": int64(41)})
	if err != nil {
		t.Fatalf("invoke_export: %v", err)
	}
	total, err := toFloat(out["total"])
	if err != nil || total != 42 {
		t.Fatalf("expected total=42, got %#v (%v)", out["total"], err)
	}
}

func TestExportNameRejectsUnknownFnIdent(t *testing.T) {
	reg := NewRegistry()
	alloc := ids.NewAllocator(ids.HashBytes([]byte("tx")))
	pkg := ids.PackageAddress(alloc.New(ids.KindPackage))
	reg.Deploy(pkg, "Counter", &Blueprint{Code: "", Exports: map[string]string{}})

	if _, err := reg.ExportName(pkg, "Counter", "missing"); err == nil {
		t.Fatalf("expected an error for an undeclared fn_ident")
	}
}

func TestValidateOutputPassesUndeclaredFnIdentsThrough(t *testing.T) {
	reg := NewRegistry()
	alloc := ids.NewAllocator(ids.HashBytes([]byte("tx")))
	pkg := ids.PackageAddress(alloc.New(ids.KindPackage))
	reg.Deploy(pkg, "Counter", &Blueprint{Code: "", Exports: map[string]string{"increment": "increment"}})

	if err := reg.ValidateOutput(pkg, "Counter", "increment", resources.Result{"total": int64(1)}); err != nil {
		t.Fatalf("expected no validation error for an undeclared output type: %v", err)
	}
}
