package runtime

import (
	"testing"

	"github.com/sulkysubject37/vectoria/core"
	"github.com/sulkysubject37/vectoria/ir"
)

func TestDependencyLevelsRespectInputOrdering(t *testing.T) {
	t.Parallel()
	b := ir.NewBuilder()
	a := b.AddInput("a", core.Shape{4}, core.F32)
	c := b.AddInput("c", core.Shape{4}, core.F32)
	add1, err := b.AddAdd(a, c)
	if err != nil {
		t.Fatalf("AddAdd: %v", err)
	}
	relu, err := b.AddRelu(add1)
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

	order := make([]int32, len(g.Nodes))
	for i := range order {
		order[i] = int32(i)
	}
	levels := dependencyLevels(g, order)

	levelOf := make(map[int32]int)
	for l, ids := range levels {
		for _, id := range ids {
			levelOf[id] = l
		}
	}
	if levelOf[add1] >= levelOf[relu] {
		t.Errorf("add1 level %d must be < relu level %d", levelOf[add1], levelOf[relu])
	}
	if levelOf[a] >= levelOf[add1] || levelOf[c] >= levelOf[add1] {
		t.Error("inputs must be in an earlier level than their consumer")
	}
}

func TestRunParallelMatchesSequentialExecute(t *testing.T) {
	t.Parallel()
	e := buildMatMulIdentity(t)
	if err := RunParallel(e, 2); err != nil {
		t.Fatalf("RunParallel: %v", err)
	}
	out, err := e.Buffer(int32(len(e.graph.Nodes) - 1))
	if err != nil {
		t.Fatalf("Buffer(out): %v", err)
	}
	want := []float32{1, 0, 0, 1}
	for i := range want {
		if out[i] != want[i] {
			t.Errorf("out[%d] = %v, want %v", i, out[i], want[i])
		}
	}
}

func TestRunParallelBeforeCompileErrors(t *testing.T) {
	t.Parallel()
	b := ir.NewBuilder()
	x := b.AddInput("x", core.Shape{2}, core.F32)
	if err := b.MarkOutput(x); err != nil {
		t.Fatalf("MarkOutput: %v", err)
	}
	g, err := b.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	e := NewEngine(g)
	if err := RunParallel(e, 2); err != core.ErrNotCompiled {
		t.Errorf("err = %v, want ErrNotCompiled", err)
	}
}
