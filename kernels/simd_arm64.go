//go:build arm64

package kernels

import (
	"github.com/sulkysubject37/vectoria/core"
	"github.com/sulkysubject37/vectoria/ir"
)

// On arm64 the dispatcher's SIMD path is eligible whenever the capability
// probe reports ASIMD (see capability.detect); the variant label it
// reports is VariantSIMDNEON. Bodies are identical to simd_amd64.go's —
// the teacher's own NEON path (kernels/asm.go) declares the same Go-level
// function signatures as its AVX2 path and differs only in the missing .s
// file, which this pack never included.
func init() {
	RegisterSIMD(ir.OpAdd, core.F32, unrolledAdd, nil)
	RegisterSIMD(ir.OpMul, core.F32, unrolledMul, squareShapesOnly)
	RegisterSIMD(ir.OpMatMul, core.F32, unrolledMatMul, matMulWorthBlocking)
}
