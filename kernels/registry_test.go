package kernels

import (
	"runtime"
	"testing"

	"github.com/sulkysubject37/vectoria/capability"
	"github.com/sulkysubject37/vectoria/core"
	"github.com/sulkysubject37/vectoria/ir"
)

func TestDispatchFallsBackToReferenceWhenSIMDUnavailable(t *testing.T) {
	t.Parallel()
	caps := capability.Snapshot{Arch: capability.ArchX86_64, CompiledWithSIMD: true, RuntimeSupportsSIMD: false}
	fn, variant, err := Dispatch(ir.OpAdd, core.F32, []core.Shape{{4}, {4}}, caps)
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if fn == nil {
		t.Fatal("Dispatch returned nil kernel")
	}
	if variant != VariantReference {
		t.Errorf("variant = %v, want Reference", variant)
	}
}

func TestDispatchUsesSIMDWhenAvailable(t *testing.T) {
	t.Parallel()
	caps := capability.Snapshot{Arch: capability.ArchX86_64, CompiledWithSIMD: true, RuntimeSupportsSIMD: true}
	_, variant, err := Dispatch(ir.OpAdd, core.F32, []core.Shape{{4}, {4}}, caps)
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	// Add's SIMD kernel is registered only by the amd64 and arm64
	// build-tagged files, and the variant label follows caps.Arch, so with
	// this X86_64 snapshot both of those builds report SIMD-AVX2 and every
	// other build falls back to the reference kernel.
	want := VariantReference
	if runtime.GOARCH == "amd64" || runtime.GOARCH == "arm64" {
		want = VariantSIMDAVX2
	}
	if variant != want {
		t.Errorf("variant = %v, want %v", variant, want)
	}
}

func TestDispatchUnknownOpErrors(t *testing.T) {
	t.Parallel()
	caps := capability.Snapshot{}
	_, _, err := Dispatch(ir.OpSoftmax, core.F32, nil, caps)
	if err == nil {
		t.Error("Dispatch of a composite op must error: nothing registers a kernel for it")
	}
}

func TestDispatchUnknownDTypeErrors(t *testing.T) {
	t.Parallel()
	caps := capability.Snapshot{}
	_, _, err := Dispatch(ir.OpAdd, core.F16, []core.Shape{{4}, {4}}, caps)
	if err == nil {
		t.Error("Dispatch must error for an unregistered dtype (only F32 reference kernels exist)")
	}
}
