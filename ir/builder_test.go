package ir

import (
	"errors"
	"testing"

	"github.com/sulkysubject37/vectoria/core"
)

func TestBuilderMatMulShape(t *testing.T) {
	t.Parallel()
	b := NewBuilder()
	a := b.AddInput("a", core.Shape{2, 3}, core.F32)
	c := b.AddInput("c", core.Shape{3, 4}, core.F32)
	out, err := b.AddMatMul(a, c)
	if err != nil {
		t.Fatalf("AddMatMul: %v", err)
	}
	n, _ := b.node(out)
	if !n.Shape.Equal(core.Shape{2, 4}) {
		t.Errorf("MatMul shape = %v, want [2 4]", n.Shape)
	}
}

func TestBuilderMatMulMismatch(t *testing.T) {
	t.Parallel()
	b := NewBuilder()
	a := b.AddInput("a", core.Shape{2, 3}, core.F32)
	c := b.AddInput("c", core.Shape{5, 4}, core.F32)
	_, err := b.AddMatMul(a, c)
	if !errors.Is(err, core.ErrShapeMismatch) {
		t.Errorf("expected ErrShapeMismatch, got %v", err)
	}
}

func TestBuilderBiasAddBroadcast(t *testing.T) {
	t.Parallel()
	b := NewBuilder()
	x := b.AddInput("x", core.Shape{4, 8}, core.F32)
	bias1 := b.AddParameter("bias1", core.Shape{8}, core.F32, 0)
	bias2 := b.AddParameter("bias2", core.Shape{1, 8}, core.F32, 0)

	if _, err := b.AddBiasAdd(x, bias1); err != nil {
		t.Errorf("rank-1 bias should broadcast: %v", err)
	}
	if _, err := b.AddBiasAdd(x, bias2); err != nil {
		t.Errorf("[1,C] bias should broadcast: %v", err)
	}
}

func TestBuilderReduceSumDropsLastAxis(t *testing.T) {
	t.Parallel()
	b := NewBuilder()
	x := b.AddInput("x", core.Shape{3, 5}, core.F32)
	out, err := b.AddReduceSum(x)
	if err != nil {
		t.Fatalf("AddReduceSum: %v", err)
	}
	n, _ := b.node(out)
	if !n.Shape.Equal(core.Shape{3}) {
		t.Errorf("ReduceSum shape = %v, want [3]", n.Shape)
	}
}

func TestBuilderTransposeInvalidPerm(t *testing.T) {
	t.Parallel()
	b := NewBuilder()
	x := b.AddInput("x", core.Shape{2, 3}, core.F32)
	_, err := b.AddTranspose(x, []int{0, 0})
	if !errors.Is(err, core.ErrInvalidPerm) {
		t.Errorf("expected ErrInvalidPerm, got %v", err)
	}
}

func TestBuilderConcatAxis(t *testing.T) {
	t.Parallel()
	b := NewBuilder()
	a := b.AddInput("a", core.Shape{2, 3}, core.F32)
	c := b.AddInput("c", core.Shape{2, 5}, core.F32)
	out, err := b.AddConcat(1, a, c)
	if err != nil {
		t.Fatalf("AddConcat: %v", err)
	}
	n, _ := b.node(out)
	if !n.Shape.Equal(core.Shape{2, 8}) {
		t.Errorf("Concat shape = %v, want [2 8]", n.Shape)
	}
}

func TestBuilderMultiHeadAttentionDivisorMismatch(t *testing.T) {
	t.Parallel()
	b := NewBuilder()
	x := b.AddInput("x", core.Shape{4, 10}, core.F32)
	wq := b.AddParameter("wq", core.Shape{10, 10}, core.F32, 0)
	wk := b.AddParameter("wk", core.Shape{10, 10}, core.F32, 0)
	wv := b.AddParameter("wv", core.Shape{10, 10}, core.F32, 0)
	wo := b.AddParameter("wo", core.Shape{10, 10}, core.F32, 0)
	_, err := b.AddMultiHeadAttention(x, wq, wk, wv, wo, 3)
	if !errors.Is(err, core.ErrDivisorMismatch) {
		t.Errorf("expected ErrDivisorMismatch for d_model=10, h=3, got %v", err)
	}
}

func TestBuildRequiresOutput(t *testing.T) {
	t.Parallel()
	b := NewBuilder()
	b.AddInput("x", core.Shape{2, 2}, core.F32)
	_, err := b.Build()
	if !errors.Is(err, core.ErrNoOutput) {
		t.Errorf("expected ErrNoOutput, got %v", err)
	}
}

func TestBuildWithOutputSucceeds(t *testing.T) {
	t.Parallel()
	b := NewBuilder()
	x := b.AddInput("x", core.Shape{2, 2}, core.F32)
	relu, err := b.AddRelu(x)
	if err != nil {
		t.Fatalf("AddRelu: %v", err)
	}
	if err := b.MarkOutput(relu); err != nil {
		t.Fatalf("MarkOutput: %v", err)
	}
	g, err := b.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if g.NodeCount() != 2 {
		t.Errorf("NodeCount() = %d, want 2", g.NodeCount())
	}
}

func TestNodeIDsAreInsertionOrder(t *testing.T) {
	t.Parallel()
	b := NewBuilder()
	a := b.AddInput("a", core.Shape{1}, core.F32)
	c := b.AddInput("c", core.Shape{1}, core.F32)
	op, err := b.AddAdd(a, c)
	if err != nil {
		t.Fatalf("AddAdd: %v", err)
	}
	if a != 0 || c != 1 || op != 2 {
		t.Errorf("ids = %d,%d,%d, want 0,1,2", a, c, op)
	}
}
