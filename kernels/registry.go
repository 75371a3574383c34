// Package kernels implements the primitive op registry and dispatcher
// (spec.md §4.4): each primitive has a reference kernel (scalar, portable,
// the numeric ground truth) and optionally a SIMD kernel gated by the
// capability probe. Dispatch is a pure function of (op, dtype, shape,
// capabilities) — spec.md's own words — so it is deterministic and
// reproducible across runs on the same machine.
package kernels

import (
	"fmt"

	"github.com/sulkysubject37/vectoria/capability"
	"github.com/sulkysubject37/vectoria/core"
	"github.com/sulkysubject37/vectoria/ir"
)

// Args bundles everything a kernel needs: decoded float32 views over the
// node's input and output arena slices, the shapes that justify them, and
// the node's attrs (axis, perm, eps, ...). Decoding from raw bytes to
// []float32 happens once in the runtime dispatcher via unsafe.Slice, so
// kernel bodies never touch []byte directly.
type Args struct {
	Inputs    [][]float32
	InShapes  []core.Shape
	Output    []float32
	OutShape  core.Shape
	Attrs     ir.Attrs
}

// KernelFn computes Args.Output from Args.Inputs in place.
type KernelFn func(a Args)

// Precondition reports whether a SIMD kernel's alignment/size requirements
// are met for the given input shapes; nil means "always eligible".
type Precondition func(inShapes []core.Shape) bool

type registryKey struct {
	op    ir.OpKind
	dtype core.DType
}

// entry holds a primitive's reference and (optional) SIMD implementations.
type entry struct {
	reference KernelFn
	simd      KernelFn
	precond   Precondition
}

var registry = map[registryKey]*entry{}

func refEntry(op ir.OpKind, dtype core.DType) *entry {
	e, ok := registry[registryKey{op, dtype}]
	if !ok {
		e = &entry{}
		registry[registryKey{op, dtype}] = e
	}
	return e
}

// RegisterReference installs the reference kernel for (op, dtype).
func RegisterReference(op ir.OpKind, dtype core.DType, fn KernelFn) {
	refEntry(op, dtype).reference = fn
}

// RegisterSIMD installs an optional SIMD kernel for (op, dtype), gated by
// precond at dispatch time (nil precond means always eligible once SIMD is
// available).
func RegisterSIMD(op ir.OpKind, dtype core.DType, fn KernelFn, precond Precondition) {
	e := refEntry(op, dtype)
	e.simd = fn
	e.precond = precond
}

// Variant names the kernel path chosen for a node, used verbatim in the
// trace's KernelDispatch details string (spec.md §4.4).
type Variant string

const (
	VariantReference Variant = "Reference"
	VariantSIMDAVX2  Variant = "SIMD-AVX2"
	VariantSIMDNEON  Variant = "SIMD-NEON"
)

// Dispatch picks the kernel for op/dtype given the current capability
// snapshot and the node's input shapes, per the deterministic rule in
// spec.md §4.4: SIMD iff supported AND registered AND its precondition
// holds; otherwise reference.
func Dispatch(op ir.OpKind, dtype core.DType, inShapes []core.Shape, caps capability.Snapshot) (KernelFn, Variant, error) {
	e, ok := registry[registryKey{op, dtype}]
	if !ok || e.reference == nil {
		return nil, "", fmt.Errorf("vectoria: no kernel registered for %v/%v", op, dtype)
	}
	if caps.SIMDAvailable() && e.simd != nil && (e.precond == nil || e.precond(inShapes)) {
		return e.simd, variantFor(caps.Arch), nil
	}
	return e.reference, VariantReference, nil
}

func variantFor(arch capability.Architecture) Variant {
	switch arch {
	case capability.ArchX86_64:
		return VariantSIMDAVX2
	case capability.ArchARM64:
		return VariantSIMDNEON
	default:
		return VariantReference
	}
}
