package kernels

import "github.com/sulkysubject37/vectoria/core"

// squareShapesOnly restricts the unrolled Mul kernel to the exact-match
// elementwise case; broadcasting Mul falls back to refMul (unrolledMul
// already does this check itself, but registering the precondition too
// keeps Dispatch's own reasoning self-contained without opening refMul).
func squareShapesOnly(inShapes []core.Shape) bool {
	return inShapes[0].Equal(inShapes[1])
}

// matMulWorthBlocking requires every matrix dimension to clear the block
// size, otherwise cache blocking adds loop overhead without amortizing it
// and the reference triple loop is strictly better.
func matMulWorthBlocking(inShapes []core.Shape) bool {
	m, k := inShapes[0][0], inShapes[0][1]
	n := inShapes[1][1]
	return m >= matMulBlockSize && k >= matMulBlockSize && n >= matMulBlockSize
}
