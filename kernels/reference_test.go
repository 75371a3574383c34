package kernels

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/floats"

	"github.com/sulkysubject37/vectoria/core"
	"github.com/sulkysubject37/vectoria/ir"
)

func TestRefMatMulIdentity(t *testing.T) {
	t.Parallel()
	a := []float32{1, 2, 3, 4}
	identity := []float32{1, 0, 0, 1}
	out := make([]float32, 4)
	refMatMul(Args{
		Inputs:   [][]float32{a, identity},
		InShapes: []core.Shape{{2, 2}, {2, 2}},
		Output:   out,
		OutShape: core.Shape{2, 2},
	})
	if !floats.Equal(toF64(out), toF64(a)) {
		t.Errorf("A * I = %v, want %v", out, a)
	}
}

func TestRefBiasAddBroadcastsPerColumn(t *testing.T) {
	t.Parallel()
	x := []float32{1, 2, 3, 4, 5, 6}
	bias := []float32{10, 20, 30}
	out := make([]float32, 6)
	refBiasAdd(Args{
		Inputs:   [][]float32{x, bias},
		InShapes: []core.Shape{{2, 3}, {3}},
		Output:   out,
		OutShape: core.Shape{2, 3},
	})
	want := []float32{11, 22, 33, 14, 25, 36}
	for i := range want {
		if out[i] != want[i] {
			t.Errorf("out[%d] = %v, want %v", i, out[i], want[i])
		}
	}
}

func TestRefReluZeroesNegatives(t *testing.T) {
	t.Parallel()
	x := []float32{-2, -0.5, 0, 0.5, 2}
	out := make([]float32, len(x))
	refRelu(Args{Inputs: [][]float32{x}, Output: out})
	want := []float32{0, 0, 0, 0.5, 2}
	for i := range want {
		if out[i] != want[i] {
			t.Errorf("out[%d] = %v, want %v", i, out[i], want[i])
		}
	}
}

func TestRefMulRowBroadcast(t *testing.T) {
	t.Parallel()
	x := []float32{1, 2, 3, 4, 5, 6}
	row := []float32{10, 100}
	out := make([]float32, 6)
	binaryBroadcast(Args{
		Inputs:   [][]float32{x, row},
		InShapes: []core.Shape{{2, 3}, {2}},
		Output:   out,
	}, func(a, b float32) float32 { return a * b })
	want := []float32{10, 20, 30, 400, 500, 600}
	for i := range want {
		if out[i] != want[i] {
			t.Errorf("out[%d] = %v, want %v", i, out[i], want[i])
		}
	}
}

func TestRefMulColumnBroadcast(t *testing.T) {
	t.Parallel()
	x := []float32{1, 2, 3, 4, 5, 6}
	col := []float32{10, 100, 1000}
	out := make([]float32, 6)
	binaryBroadcast(Args{
		Inputs:   [][]float32{x, col},
		InShapes: []core.Shape{{2, 3}, {3}},
		Output:   out,
	}, func(a, b float32) float32 { return a * b })
	want := []float32{10, 200, 3000, 40, 500, 6000}
	for i := range want {
		if out[i] != want[i] {
			t.Errorf("out[%d] = %v, want %v", i, out[i], want[i])
		}
	}
}

func TestRefReduceSumLeftToRightMatchesGonum(t *testing.T) {
	t.Parallel()
	x := []float32{0.1, 0.2, 0.3, 0.4, 0.5, 0.6}
	out := make([]float32, 2)
	refReduceSum(Args{Inputs: [][]float32{x}, InShapes: []core.Shape{{2, 3}}, Output: out})

	row0 := toF64(x[0:3])
	row1 := toF64(x[3:6])
	if math.Abs(float64(out[0])-floats.Sum(row0)) > 1e-6 {
		t.Errorf("row0 sum = %v, gonum = %v", out[0], floats.Sum(row0))
	}
	if math.Abs(float64(out[1])-floats.Sum(row1)) > 1e-6 {
		t.Errorf("row1 sum = %v, gonum = %v", out[1], floats.Sum(row1))
	}
}

func TestRefReduceMaxPicksLargest(t *testing.T) {
	t.Parallel()
	x := []float32{3, 1, 4, 1, 5, 9}
	out := make([]float32, 2)
	refReduceMax(Args{Inputs: [][]float32{x}, InShapes: []core.Shape{{2, 3}}, Output: out})
	if out[0] != 4 || out[1] != 9 {
		t.Errorf("out = %v, want [4 9]", out)
	}
}

func TestRefTransposeSwapsAxes(t *testing.T) {
	t.Parallel()
	x := []float32{1, 2, 3, 4, 5, 6} // [2,3]
	out := make([]float32, 6)
	refTranspose(Args{
		Inputs:   [][]float32{x},
		InShapes: []core.Shape{{2, 3}},
		Output:   out,
		OutShape: core.Shape{3, 2},
		Attrs:    ir.Attrs{Perm: []int{1, 0}},
	})
	want := []float32{1, 4, 2, 5, 3, 6}
	for i := range want {
		if out[i] != want[i] {
			t.Errorf("out[%d] = %v, want %v", i, out[i], want[i])
		}
	}
}

func TestRefConcatAlongLastAxis(t *testing.T) {
	t.Parallel()
	a := []float32{1, 2, 3, 4} // [2,2]
	b := []float32{5, 6}      // [2,1]
	out := make([]float32, 6)
	refConcat(Args{
		Inputs:   [][]float32{a, b},
		InShapes: []core.Shape{{2, 2}, {2, 1}},
		Output:   out,
		OutShape: core.Shape{2, 3},
		Attrs:    ir.Attrs{Axis: 1},
	})
	want := []float32{1, 2, 5, 3, 4, 6}
	for i := range want {
		if out[i] != want[i] {
			t.Errorf("out[%d] = %v, want %v", i, out[i], want[i])
		}
	}
}

func TestRefSliceExtractsSubrange(t *testing.T) {
	t.Parallel()
	x := []float32{1, 2, 3, 4, 5, 6} // [3,2]
	out := make([]float32, 4)
	refSlice(Args{
		Inputs:   [][]float32{x},
		InShapes: []core.Shape{{3, 2}},
		Output:   out,
		OutShape: core.Shape{2, 2},
		Attrs:    ir.Attrs{Axis: 0, SliceStart: 1, SliceLen: 2},
	})
	want := []float32{3, 4, 5, 6}
	for i := range want {
		if out[i] != want[i] {
			t.Errorf("out[%d] = %v, want %v", i, out[i], want[i])
		}
	}
}

func TestRefRecipSqrtFoldsEpsilon(t *testing.T) {
	t.Parallel()
	x := []float32{3}
	out := make([]float32, 1)
	refRecipSqrt(Args{Inputs: [][]float32{x}, Output: out, Attrs: ir.Attrs{Eps: 1}})
	want := float32(1 / math.Sqrt(4))
	if math.Abs(float64(out[0]-want)) > 1e-6 {
		t.Errorf("out[0] = %v, want %v", out[0], want)
	}
}

func toF64(x []float32) []float64 {
	out := make([]float64, len(x))
	for i, v := range x {
		out[i] = float64(v)
	}
	return out
}
