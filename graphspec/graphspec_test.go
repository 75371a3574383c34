package graphspec

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const linearReluYAML = `
nodes:
  - name: x
    kind: input
    shape: [1, 2]
    dtype: F32
  - name: w
    kind: input
    shape: [2, 2]
    dtype: F32
  - name: b
    kind: input
    shape: [2]
    dtype: F32
  - name: mm
    op: MatMul
    inputs: [x, w]
  - name: biased
    op: BiasAdd
    inputs: [mm, b]
  - name: relu
    op: Relu
    inputs: [biased]
output: relu
`

func writeTemp(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "graph.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestLoadAndBuildLinearReluGraph(t *testing.T) {
	t.Parallel()
	path := writeTemp(t, linearReluYAML)
	spec, err := Load(path)
	require.NoError(t, err)

	g, ids, err := Build(spec)
	require.NoError(t, err)
	assert.Len(t, g.Nodes, 6)
	require.Len(t, g.Outputs, 1)
	assert.Equal(t, ids["relu"], g.Outputs[0])
	for _, name := range []string{"x", "w", "b", "mm", "biased", "relu"} {
		_, ok := ids[name]
		assert.Truef(t, ok, "missing id for node %q", name)
	}
}

func TestBuildUnknownReferenceErrors(t *testing.T) {
	t.Parallel()
	spec := &Spec{
		Nodes: []NodeSpec{
			{Name: "relu", Op: "Relu", Inputs: []string{"missing"}},
		},
		Output: "relu",
	}
	_, _, err := Build(spec)
	assert.Error(t, err)
}

func TestBuildUnknownOutputErrors(t *testing.T) {
	t.Parallel()
	spec := &Spec{
		Nodes: []NodeSpec{
			{Name: "x", Kind: "input", Shape: []int{2}, DType: "F32"},
		},
		Output: "y",
	}
	_, _, err := Build(spec)
	assert.Error(t, err)
}

func TestBuildUnknownOpErrors(t *testing.T) {
	t.Parallel()
	spec := &Spec{
		Nodes: []NodeSpec{
			{Name: "x", Kind: "input", Shape: []int{2}, DType: "F32"},
			{Name: "y", Op: "Frobnicate", Inputs: []string{"x"}},
		},
		Output: "y",
	}
	_, _, err := Build(spec)
	assert.Error(t, err)
}
