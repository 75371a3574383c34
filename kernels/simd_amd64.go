//go:build amd64

package kernels

import (
	"github.com/sulkysubject37/vectoria/core"
	"github.com/sulkysubject37/vectoria/ir"
)

// On amd64 the dispatcher's SIMD path is eligible whenever the capability
// probe reports AVX2 (see capability.detect); the variant label it reports
// is VariantSIMDAVX2. Mirrors kernels/asm.go's useASM=true gate on this
// architecture.
func init() {
	RegisterSIMD(ir.OpAdd, core.F32, unrolledAdd, nil)
	RegisterSIMD(ir.OpMul, core.F32, unrolledMul, squareShapesOnly)
	RegisterSIMD(ir.OpMatMul, core.F32, unrolledMatMul, matMulWorthBlocking)
}
