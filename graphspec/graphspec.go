// Package graphspec loads a YAML graph description and builds it into an
// ir.Graph via ir.Builder. VECTORIA's host-binding layer that constructs
// graphs programmatically is explicitly out of scope (spec.md §1); this
// package is the cmd/ tools' stand-in for that layer, grounded on the
// teacher's cmd/sublc flag-driven CompileOptions and enriched with
// gopkg.in/yaml.v3 the way inference-sim's config loaders do.
package graphspec

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/sulkysubject37/vectoria/core"
	"github.com/sulkysubject37/vectoria/ir"
)

// NodeSpec is one entry in a graph's node list.
type NodeSpec struct {
	Name        string  `yaml:"name"`
	Kind        string  `yaml:"kind"` // input | parameter | op
	Shape       []int   `yaml:"shape,omitempty"`
	DType       string  `yaml:"dtype,omitempty"`
	Op          string  `yaml:"op,omitempty"`
	Inputs      []string `yaml:"inputs,omitempty"`
	Axis        int     `yaml:"axis,omitempty"`
	Perm        []int   `yaml:"perm,omitempty"`
	NumHeads    int     `yaml:"num_heads,omitempty"`
	Eps         float64 `yaml:"eps,omitempty"`
	Scalar      float64 `yaml:"scalar,omitempty"`
	TargetShape []int   `yaml:"target_shape,omitempty"`
}

// Spec is a complete graph description: its nodes in builder-append order
// and the name of the node marked as output.
type Spec struct {
	Nodes  []NodeSpec `yaml:"nodes"`
	Output string     `yaml:"output"`
}

// Load parses a YAML file into a Spec.
func Load(path string) (*Spec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("graphspec: read %s: %w", path, err)
	}
	var spec Spec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("graphspec: parse %s: %w", path, err)
	}
	return &spec, nil
}

func parseDType(s string) (core.DType, error) {
	switch s {
	case "", "F32":
		return core.F32, nil
	case "F16":
		return core.F16, nil
	case "I32":
		return core.I32, nil
	case "I8":
		return core.I8, nil
	default:
		return 0, fmt.Errorf("graphspec: unknown dtype %q", s)
	}
}

// Build constructs an ir.Graph from spec, returning a name -> node id
// table so callers can locate Input/Parameter buffers after compile.
func Build(spec *Spec) (*ir.Graph, map[string]int32, error) {
	b := ir.NewBuilder()
	ids := make(map[string]int32, len(spec.Nodes))

	resolve := func(names []string) ([]int32, error) {
		out := make([]int32, len(names))
		for i, name := range names {
			id, ok := ids[name]
			if !ok {
				return nil, fmt.Errorf("graphspec: unknown node reference %q", name)
			}
			out[i] = id
		}
		return out, nil
	}

	for _, n := range spec.Nodes {
		dtype, err := parseDType(n.DType)
		if err != nil {
			return nil, nil, err
		}

		switch n.Kind {
		case "input":
			ids[n.Name] = b.AddInput(n.Name, core.Shape(n.Shape), dtype)
			continue
		case "parameter":
			ids[n.Name] = b.AddParameter(n.Name, core.Shape(n.Shape), dtype, 0)
			continue
		}

		ins, err := resolve(n.Inputs)
		if err != nil {
			return nil, nil, err
		}
		id, err := buildOp(b, n, ins)
		if err != nil {
			return nil, nil, fmt.Errorf("graphspec: node %q: %w", n.Name, err)
		}
		ids[n.Name] = id
	}

	outID, ok := ids[spec.Output]
	if !ok {
		return nil, nil, fmt.Errorf("graphspec: output %q not found", spec.Output)
	}
	if err := b.MarkOutput(outID); err != nil {
		return nil, nil, err
	}

	g, err := b.Build()
	return g, ids, err
}

func buildOp(b *ir.Builder, n NodeSpec, ins []int32) (int32, error) {
	switch n.Op {
	case "MatMul":
		return b.AddMatMul(ins[0], ins[1])
	case "BiasAdd":
		return b.AddBiasAdd(ins[0], ins[1])
	case "Relu":
		return b.AddRelu(ins[0])
	case "Add":
		return b.AddAdd(ins[0], ins[1])
	case "Mul":
		return b.AddMul(ins[0], ins[1])
	case "ReduceSum":
		return b.AddReduceSum(ins[0])
	case "ReduceMax":
		return b.AddReduceMax(ins[0])
	case "Transpose":
		return b.AddTranspose(ins[0], n.Perm)
	case "Reshape":
		return b.AddReshape(ins[0], core.Shape(n.TargetShape))
	case "Concat":
		return b.AddConcat(n.Axis, ins...)
	case "Softmax":
		return b.AddSoftmax(ins[0])
	case "SoftmaxStable":
		return b.AddSoftmaxStable(ins[0])
	case "LogSoftmax":
		return b.AddLogSoftmax(ins[0])
	case "LayerNorm":
		return b.AddLayerNorm(ins[0], ins[1], ins[2], float32(n.Eps))
	case "CrossEntropy":
		return b.AddCrossEntropy(ins[0], ins[1])
	case "Attention":
		return b.AddAttention(ins[0], ins[1], ins[2])
	case "MultiHeadAttention":
		return b.AddMultiHeadAttention(ins[0], ins[1], ins[2], ins[3], ins[4], n.NumHeads)
	case "TransformerEncoder":
		return b.AddTransformerEncoder(ir.TransformerEncoderArgs{
			X: ins[0], Wq: ins[1], Wk: ins[2], Wv: ins[3], Wo: ins[4],
			NumHeads: n.NumHeads,
			Gamma1:   ins[5], Beta1: ins[6],
			Wf1: ins[7], Bf1: ins[8],
			Wf2: ins[9], Bf2: ins[10],
			Gamma2: ins[11], Beta2: ins[12],
		})
	default:
		return 0, fmt.Errorf("unknown op %q", n.Op)
	}
}
