package kernels

import (
	"math"

	"github.com/sulkysubject37/vectoria/core"
	"github.com/sulkysubject37/vectoria/ir"
)

// Reference kernels are the numeric ground truth (spec.md §4.4): scalar,
// portable, IEEE-754 round-to-nearest-even throughout, left-to-right
// summation for reductions (no pairwise/tree reduction), and expf/logf
// equivalents with no polynomial substitution. Every SIMD variant must
// reproduce these results bit-for-bit on conforming hardware.
func init() {
	RegisterReference(ir.OpMatMul, core.F32, refMatMul)
	RegisterReference(ir.OpBiasAdd, core.F32, refBiasAdd)
	RegisterReference(ir.OpRelu, core.F32, refRelu)
	RegisterReference(ir.OpAdd, core.F32, refAdd)
	RegisterReference(ir.OpMul, core.F32, refMul)
	RegisterReference(ir.OpReduceSum, core.F32, refReduceSum)
	RegisterReference(ir.OpReduceMax, core.F32, refReduceMax)
	RegisterReference(ir.OpTranspose, core.F32, refTranspose)
	RegisterReference(ir.OpReshape, core.F32, refReshape)
	RegisterReference(ir.OpConcat, core.F32, refConcat)
	RegisterReference(ir.OpElemExp, core.F32, refExp)
	RegisterReference(ir.OpElemLog, core.F32, refLog)
	RegisterReference(ir.OpElemNeg, core.F32, refNeg)
	RegisterReference(ir.OpElemSub, core.F32, refSub)
	RegisterReference(ir.OpElemDivRow, core.F32, refDivRow)
	RegisterReference(ir.OpElemRecipSqrt, core.F32, refRecipSqrt)
	RegisterReference(ir.OpElemScalarMul, core.F32, refScalarMul)
	RegisterReference(ir.OpSlice, core.F32, refSlice)
}

func refMatMul(a Args) {
	m, k := a.InShapes[0][0], a.InShapes[0][1]
	n := a.InShapes[1][1]
	lhs, rhs, out := a.Inputs[0], a.Inputs[1], a.Output
	for i := 0; i < m; i++ {
		for j := 0; j < n; j++ {
			var sum float32
			for p := 0; p < k; p++ {
				sum += lhs[i*k+p] * rhs[p*n+j]
			}
			out[i*n+j] = sum
		}
	}
}

func refBiasAdd(a Args) {
	rows, cols := matrixDims(a.OutShape)
	x, bias, out := a.Inputs[0], a.Inputs[1], a.Output
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			out[i*cols+j] = x[i*cols+j] + bias[j]
		}
	}
}

func refRelu(a Args) {
	x, out := a.Inputs[0], a.Output
	for i, v := range x {
		if v > 0 {
			out[i] = v
		} else {
			out[i] = 0
		}
	}
}

func refAdd(a Args) {
	x, y, out := a.Inputs[0], a.Inputs[1], a.Output
	for i := range x {
		out[i] = x[i] + y[i]
	}
}

func refMul(a Args) {
	binaryBroadcast(a, func(x, y float32) float32 { return x * y })
}

func refSub(a Args) {
	binaryBroadcast(a, func(x, y float32) float32 { return x - y })
}

// binaryBroadcast implements the Sub/Mul/DivRow broadcast contract: operand
// shapes match exactly (pure elementwise), or the second operand is a row
// vector ([R] or [R,1], broadcast across columns) or a column vector ([C]
// or [1,C], broadcast across rows) — the same disambiguation BiasAdd
// already uses for its bias operand.
func binaryBroadcast(a Args, op func(x, y float32) float32) {
	x, y, out := a.Inputs[0], a.Inputs[1], a.Output
	xShape, yShape := a.InShapes[0], a.InShapes[1]
	if xShape.Equal(yShape) {
		for i := range x {
			out[i] = op(x[i], y[i])
		}
		return
	}
	rows, cols := matrixDims(xShape)
	switch broadcastKind(rows, cols, yShape) {
	case broadcastRow:
		for i := 0; i < rows; i++ {
			scalar := y[i]
			for j := 0; j < cols; j++ {
				out[i*cols+j] = op(x[i*cols+j], scalar)
			}
		}
	case broadcastCol:
		for i := 0; i < rows; i++ {
			for j := 0; j < cols; j++ {
				out[i*cols+j] = op(x[i*cols+j], y[j])
			}
		}
	}
}

func refDivRow(a Args) {
	x, y, out := a.Inputs[0], a.Inputs[1], a.Output
	rows, cols := matrixDims(a.InShapes[0])
	for i := 0; i < rows; i++ {
		scalar := y[i]
		for j := 0; j < cols; j++ {
			out[i*cols+j] = x[i*cols+j] / scalar
		}
	}
}

type broadcastDirection int

const (
	broadcastNone broadcastDirection = iota
	broadcastRow
	broadcastCol
)

// broadcastKind decides row-vs-column broadcast from the operand's shape,
// preferring column broadcast (BiasAdd's original convention) when a
// square matrix makes rows==cols ambiguous.
func broadcastKind(rows, cols int, shape core.Shape) broadcastDirection {
	switch len(shape) {
	case 1:
		if shape[0] == cols {
			return broadcastCol
		}
		if shape[0] == rows {
			return broadcastRow
		}
	case 2:
		if shape[0] == 1 && shape[1] == cols {
			return broadcastCol
		}
		if shape[1] == 1 && shape[0] == rows {
			return broadcastRow
		}
	}
	return broadcastNone
}

func matrixDims(shape core.Shape) (rows, cols int) {
	switch len(shape) {
	case 1:
		return 1, shape[0]
	default:
		cols = shape[len(shape)-1]
		rows = shape.NumElements() / cols
		return rows, cols
	}
}

func refReduceSum(a Args) {
	rows, cols := matrixDims(a.InShapes[0])
	x, out := a.Inputs[0], a.Output
	for i := 0; i < rows; i++ {
		var sum float32
		for j := 0; j < cols; j++ {
			sum += x[i*cols+j]
		}
		out[i] = sum
	}
}

func refReduceMax(a Args) {
	rows, cols := matrixDims(a.InShapes[0])
	x, out := a.Inputs[0], a.Output
	for i := 0; i < rows; i++ {
		max := x[i*cols]
		for j := 1; j < cols; j++ {
			if v := x[i*cols+j]; v > max {
				max = v
			}
		}
		out[i] = max
	}
}

func refTranspose(a Args) {
	in, out := a.Inputs[0], a.Output
	shape := a.InShapes[0]
	perm := a.Attrs.Perm
	rank := len(shape)
	outShape := a.OutShape

	inStrides := strides(shape)
	outStrides := strides(outShape)
	idx := make([]int, rank)
	for linear := range in {
		rem := linear
		for d := 0; d < rank; d++ {
			idx[d] = rem / inStrides[d]
			rem %= inStrides[d]
		}
		var outLinear int
		for d := 0; d < rank; d++ {
			outLinear += idx[perm[d]] * outStrides[d]
		}
		out[outLinear] = in[linear]
	}
}

func strides(shape core.Shape) []int {
	s := make([]int, len(shape))
	acc := 1
	for i := len(shape) - 1; i >= 0; i-- {
		s[i] = acc
		acc *= shape[i]
	}
	return s
}

func refReshape(a Args) {
	copy(a.Output, a.Inputs[0])
}

func refConcat(a Args) {
	axis := a.Attrs.Axis
	out := a.Output
	outShape := a.OutShape
	outStrides := strides(outShape)
	axisOffset := 0
	for inputIdx, in := range a.Inputs {
		shape := a.InShapes[inputIdx]
		inStrides := strides(shape)
		rank := len(shape)
		idx := make([]int, rank)
		for linear := range in {
			rem := linear
			for d := 0; d < rank; d++ {
				idx[d] = rem / inStrides[d]
				rem %= inStrides[d]
			}
			var outLinear int
			for d := 0; d < rank; d++ {
				v := idx[d]
				if d == axis {
					v += axisOffset
				}
				outLinear += v * outStrides[d]
			}
			out[outLinear] = in[linear]
		}
		axisOffset += shape[axis]
	}
}

func refSlice(a Args) {
	axis := a.Attrs.Axis
	start := a.Attrs.SliceStart
	shape := a.InShapes[0]
	in, out := a.Inputs[0], a.Output
	inStrides := strides(shape)
	outShape := a.OutShape
	outStrides := strides(outShape)
	rank := len(shape)
	idx := make([]int, rank)
	for linear := range out {
		rem := linear
		for d := 0; d < rank; d++ {
			idx[d] = rem / outStrides[d]
			rem %= outStrides[d]
		}
		var inLinear int
		for d := 0; d < rank; d++ {
			v := idx[d]
			if d == axis {
				v += start
			}
			inLinear += v * inStrides[d]
		}
		out[linear] = in[inLinear]
	}
}

func refExp(a Args) {
	x, out := a.Inputs[0], a.Output
	for i, v := range x {
		out[i] = float32(math.Exp(float64(v)))
	}
}

func refLog(a Args) {
	x, out := a.Inputs[0], a.Output
	for i, v := range x {
		out[i] = float32(math.Log(float64(v)))
	}
}

func refNeg(a Args) {
	x, out := a.Inputs[0], a.Output
	for i, v := range x {
		out[i] = -v
	}
}

func refRecipSqrt(a Args) {
	x, out := a.Inputs[0], a.Output
	eps := a.Attrs.Eps
	for i, v := range x {
		out[i] = float32(1 / math.Sqrt(float64(v+eps)))
	}
}

func refScalarMul(a Args) {
	x, out := a.Inputs[0], a.Output
	s := a.Attrs.ScalarOperand
	for i, v := range x {
		out[i] = v * s
	}
}
