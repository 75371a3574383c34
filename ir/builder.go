package ir

import "github.com/sulkysubject37/vectoria/core"

// Builder is the IR's sole mutator (spec.md §4.1). Build copies the node
// list, so Builder calls made after Build have no effect on the returned
// *Graph (which Engine.Compile later marks Frozen); the Builder itself has
// no frozen state and keeps accepting insertions.
type Builder struct {
	nodes   []Node
	outputs []int32
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{}
}

func (b *Builder) append(n Node) int32 {
	n.ID = int32(len(b.nodes))
	b.nodes = append(b.nodes, n)
	return n.ID
}

func (b *Builder) node(id int32) (*Node, error) {
	if id < 0 || int(id) >= len(b.nodes) {
		return nil, core.WithNode(id, core.ErrUnknownNode)
	}
	return &b.nodes[id], nil
}

// AddInput declares an externally-filled input node.
func (b *Builder) AddInput(name string, shape core.Shape, dtype core.DType) int32 {
	return b.append(Node{Kind: KindInput, Name: name, Shape: shape.Clone(), DType: dtype})
}

// AddParameter declares an externally-filled, execution-stable parameter.
func (b *Builder) AddParameter(name string, shape core.Shape, dtype core.DType, bufferID int32) int32 {
	return b.append(Node{
		Kind:              KindParameter,
		Name:              name,
		Shape:             shape.Clone(),
		DType:             dtype,
		ParameterBufferID: bufferID,
	})
}

func (b *Builder) sameShapeDType(a, c int32) (core.Shape, core.DType, error) {
	na, err := b.node(a)
	if err != nil {
		return nil, 0, err
	}
	nc, err := b.node(c)
	if err != nil {
		return nil, 0, err
	}
	if na.DType != nc.DType {
		return nil, 0, core.WithNode(c, core.ErrDTypeMismatch)
	}
	if !na.Shape.Equal(nc.Shape) {
		return nil, 0, core.WithNode(c, core.ErrShapeMismatch)
	}
	return na.Shape, na.DType, nil
}

// AddMatMul adds `a[M,K] x c[K,N] -> [M,N]`.
func (b *Builder) AddMatMul(a, c int32) (int32, error) {
	na, err := b.node(a)
	if err != nil {
		return 0, err
	}
	nc, err := b.node(c)
	if err != nil {
		return 0, err
	}
	if na.DType != nc.DType {
		return 0, core.WithNode(c, core.ErrDTypeMismatch)
	}
	if na.Shape.Rank() != 2 || nc.Shape.Rank() != 2 {
		return 0, core.WithNode(a, core.ErrShapeMismatch)
	}
	if na.Shape[1] != nc.Shape[0] {
		return 0, core.WithNode(c, core.ErrShapeMismatch)
	}
	out := core.Shape{na.Shape[0], nc.Shape[1]}
	return b.append(Node{Kind: KindOp, OpKind: OpMatMul, Inputs: []int32{a, c}, Shape: out, DType: na.DType}), nil
}

// AddBiasAdd broadcasts bias of shape [1,C] or [C] across rows of x's [R,C].
func (b *Builder) AddBiasAdd(x, bias int32) (int32, error) {
	nx, err := b.node(x)
	if err != nil {
		return 0, err
	}
	nb, err := b.node(bias)
	if err != nil {
		return 0, err
	}
	if nx.DType != nb.DType {
		return 0, core.WithNode(bias, core.ErrDTypeMismatch)
	}
	if nx.Shape.Rank() != 2 {
		return 0, core.WithNode(x, core.ErrShapeMismatch)
	}
	c := nx.Shape[1]
	switch {
	case nb.Shape.Rank() == 1 && nb.Shape[0] == c:
	case nb.Shape.Rank() == 2 && nb.Shape[0] == 1 && nb.Shape[1] == c:
	default:
		return 0, core.WithNode(bias, core.ErrShapeMismatch)
	}
	return b.append(Node{Kind: KindOp, OpKind: OpBiasAdd, Inputs: []int32{x, bias}, Shape: nx.Shape.Clone(), DType: nx.DType}), nil
}

// AddRelu adds an elementwise Relu, shape and dtype preserving.
func (b *Builder) AddRelu(x int32) (int32, error) {
	nx, err := b.node(x)
	if err != nil {
		return 0, err
	}
	return b.append(Node{Kind: KindOp, OpKind: OpRelu, Inputs: []int32{x}, Shape: nx.Shape.Clone(), DType: nx.DType}), nil
}

// AddAdd adds elementwise a+c, requiring identical shape and dtype.
func (b *Builder) AddAdd(a, c int32) (int32, error) {
	shape, dtype, err := b.sameShapeDType(a, c)
	if err != nil {
		return 0, err
	}
	return b.append(Node{Kind: KindOp, OpKind: OpAdd, Inputs: []int32{a, c}, Shape: shape.Clone(), DType: dtype}), nil
}

// AddMul adds elementwise a*c, requiring identical shape and dtype.
func (b *Builder) AddMul(a, c int32) (int32, error) {
	shape, dtype, err := b.sameShapeDType(a, c)
	if err != nil {
		return 0, err
	}
	return b.append(Node{Kind: KindOp, OpKind: OpMul, Inputs: []int32{a, c}, Shape: shape.Clone(), DType: dtype}), nil
}

// AddReduceSum sums over the last axis, dropping it.
func (b *Builder) AddReduceSum(x int32) (int32, error) {
	return b.addReduce(x, OpReduceSum)
}

// AddReduceMax reduces with max over the last axis, dropping it. Exposed
// for the expander; not in the spec's public builder surface but shares
// the same shape rule as ReduceSum.
func (b *Builder) AddReduceMax(x int32) (int32, error) {
	return b.addReduce(x, OpReduceMax)
}

func (b *Builder) addReduce(x int32, op OpKind) (int32, error) {
	nx, err := b.node(x)
	if err != nil {
		return 0, err
	}
	if nx.Shape.Rank() == 0 {
		return 0, core.WithNode(x, core.ErrShapeMismatch)
	}
	out := nx.Shape.Clone()[:nx.Shape.Rank()-1]
	return b.append(Node{Kind: KindOp, OpKind: op, Inputs: []int32{x}, Shape: out, DType: nx.DType}), nil
}

// AddTranspose reorders x's shape by perm, a permutation of [0..rank).
func (b *Builder) AddTranspose(x int32, perm []int) (int32, error) {
	nx, err := b.node(x)
	if err != nil {
		return 0, err
	}
	if !core.IsPermutation(perm, nx.Shape.Rank()) {
		return 0, core.WithNode(x, core.ErrInvalidPerm)
	}
	out := make(core.Shape, len(perm))
	for i, p := range perm {
		out[i] = nx.Shape[p]
	}
	permCopy := append([]int(nil), perm...)
	return b.append(Node{Kind: KindOp, OpKind: OpTranspose, Inputs: []int32{x}, Shape: out, DType: nx.DType, Attrs: Attrs{Perm: permCopy}}), nil
}

// AddReshape reinterprets x as target, which must have the same element
// count.
func (b *Builder) AddReshape(x int32, target core.Shape) (int32, error) {
	nx, err := b.node(x)
	if err != nil {
		return 0, err
	}
	if nx.Shape.NumElements() != target.NumElements() {
		return 0, core.WithNode(x, core.ErrShapeMismatch)
	}
	return b.append(Node{Kind: KindOp, OpKind: OpReshape, Inputs: []int32{x}, Shape: target.Clone(), DType: nx.DType, Attrs: Attrs{TargetShape: target.Clone()}}), nil
}

// AddConcat concatenates inputs along axis; all other axes must match.
func (b *Builder) AddConcat(axis int, inputs ...int32) (int32, error) {
	if len(inputs) == 0 {
		return 0, core.ErrShapeMismatch
	}
	first, err := b.node(inputs[0])
	if err != nil {
		return 0, err
	}
	if axis < 0 || axis >= first.Shape.Rank() {
		return 0, core.WithNode(inputs[0], core.ErrInvalidAxis)
	}
	out := first.Shape.Clone()
	total := out[axis]
	for _, id := range inputs[1:] {
		n, err := b.node(id)
		if err != nil {
			return 0, err
		}
		if n.DType != first.DType || n.Shape.Rank() != first.Shape.Rank() {
			return 0, core.WithNode(id, core.ErrShapeMismatch)
		}
		for i := range n.Shape {
			if i == axis {
				continue
			}
			if n.Shape[i] != first.Shape[i] {
				return 0, core.WithNode(id, core.ErrShapeMismatch)
			}
		}
		total += n.Shape[axis]
	}
	out[axis] = total
	return b.append(Node{Kind: KindOp, OpKind: OpConcat, Inputs: append([]int32(nil), inputs...), Shape: out, DType: first.DType, Attrs: Attrs{Axis: axis}}), nil
}

// AddSoftmaxStable adds SoftmaxStable(x) over the last axis.
func (b *Builder) AddSoftmaxStable(x int32) (int32, error) {
	return b.addShapePreserving(x, OpSoftmaxStable)
}

// AddSoftmax is an alias for AddSoftmaxStable: the spec mandates the
// numerically stable expansion for both.
func (b *Builder) AddSoftmax(x int32) (int32, error) {
	return b.addShapePreserving(x, OpSoftmax)
}

// AddLogSoftmax adds LogSoftmax(x) over the last axis.
func (b *Builder) AddLogSoftmax(x int32) (int32, error) {
	return b.addShapePreserving(x, OpLogSoftmax)
}

func (b *Builder) addShapePreserving(x int32, op OpKind) (int32, error) {
	nx, err := b.node(x)
	if err != nil {
		return 0, err
	}
	return b.append(Node{Kind: KindOp, OpKind: op, Inputs: []int32{x}, Shape: nx.Shape.Clone(), DType: nx.DType}), nil
}

// AddLayerNorm adds LayerNorm(x, gamma, beta, eps) over the last axis.
func (b *Builder) AddLayerNorm(x, gamma, beta int32, eps float32) (int32, error) {
	nx, err := b.node(x)
	if err != nil {
		return 0, err
	}
	if _, err := b.node(gamma); err != nil {
		return 0, err
	}
	if _, err := b.node(beta); err != nil {
		return 0, err
	}
	if eps == 0 {
		eps = DefaultEps
	}
	return b.append(Node{
		Kind: KindOp, OpKind: OpLayerNorm,
		Inputs: []int32{x, gamma, beta},
		Shape:  nx.Shape.Clone(), DType: nx.DType,
		Attrs: Attrs{Eps: eps},
	}), nil
}

// AddCrossEntropy adds CrossEntropy(logits, target); the output drops
// logits' last axis.
func (b *Builder) AddCrossEntropy(logits, target int32) (int32, error) {
	_, _, err := b.sameShapeDType(logits, target)
	if err != nil {
		return 0, err
	}
	nl, _ := b.node(logits)
	out := nl.Shape.Clone()[:nl.Shape.Rank()-1]
	return b.append(Node{Kind: KindOp, OpKind: OpCrossEntropy, Inputs: []int32{logits, target}, Shape: out, DType: nl.DType}), nil
}

// AddAttention adds Attention(Q,K,V).
func (b *Builder) AddAttention(q, k, v int32) (int32, error) {
	nq, err := b.node(q)
	if err != nil {
		return 0, err
	}
	nk, err := b.node(k)
	if err != nil {
		return 0, err
	}
	nv, err := b.node(v)
	if err != nil {
		return 0, err
	}
	if nq.Shape.Rank() != 2 || nk.Shape.Rank() != 2 || nv.Shape.Rank() != 2 {
		return 0, core.WithNode(q, core.ErrShapeMismatch)
	}
	if nq.Shape[1] != nk.Shape[1] {
		return 0, core.WithNode(k, core.ErrShapeMismatch)
	}
	if nk.Shape[0] != nv.Shape[0] {
		return 0, core.WithNode(v, core.ErrShapeMismatch)
	}
	out := core.Shape{nq.Shape[0], nv.Shape[1]}
	return b.append(Node{Kind: KindOp, OpKind: OpAttention, Inputs: []int32{q, k, v}, Shape: out, DType: nq.DType}), nil
}

// AddMultiHeadAttention adds MultiHeadAttention(X,Wq,Wk,Wv,Wo,h).
func (b *Builder) AddMultiHeadAttention(x, wq, wk, wv, wo int32, numHeads int) (int32, error) {
	nx, err := b.node(x)
	if err != nil {
		return 0, err
	}
	nwo, err := b.node(wo)
	if err != nil {
		return 0, err
	}
	for _, id := range []int32{wq, wk, wv} {
		if _, err := b.node(id); err != nil {
			return 0, err
		}
	}
	if nx.Shape.Rank() != 2 {
		return 0, core.WithNode(x, core.ErrShapeMismatch)
	}
	dModel := nx.Shape[1]
	if numHeads <= 0 || dModel%numHeads != 0 {
		return 0, core.WithNode(x, core.ErrDivisorMismatch)
	}
	out := core.Shape{nx.Shape[0], nwo.Shape[1]}
	return b.append(Node{
		Kind: KindOp, OpKind: OpMultiHeadAttention,
		Inputs: []int32{x, wq, wk, wv, wo},
		Shape:  out, DType: nx.DType,
		Attrs: Attrs{NumHeads: numHeads},
	}), nil
}

// TransformerEncoderArgs bundles the TransformerEncoder operand ids.
type TransformerEncoderArgs struct {
	X      int32
	Wq, Wk, Wv, Wo int32
	NumHeads       int
	Gamma1, Beta1  int32
	Wf1, Bf1       int32
	Wf2, Bf2       int32
	Gamma2, Beta2  int32
}

// AddTransformerEncoder adds a post-LN TransformerEncoder block.
func (b *Builder) AddTransformerEncoder(a TransformerEncoderArgs) (int32, error) {
	nx, err := b.node(a.X)
	if err != nil {
		return 0, err
	}
	for _, id := range []int32{a.Wq, a.Wk, a.Wv, a.Wo, a.Gamma1, a.Beta1, a.Wf1, a.Bf1, a.Wf2, a.Bf2, a.Gamma2, a.Beta2} {
		if _, err := b.node(id); err != nil {
			return 0, err
		}
	}
	dModel := nx.Shape[1]
	if a.NumHeads <= 0 || dModel%a.NumHeads != 0 {
		return 0, core.WithNode(a.X, core.ErrDivisorMismatch)
	}
	return b.append(Node{
		Kind: KindOp, OpKind: OpTransformerEncoder,
		Inputs: []int32{a.X, a.Wq, a.Wk, a.Wv, a.Wo, a.Gamma1, a.Beta1, a.Wf1, a.Bf1, a.Wf2, a.Bf2, a.Gamma2, a.Beta2},
		Shape:  nx.Shape.Clone(), DType: nx.DType,
		Attrs: Attrs{NumHeads: a.NumHeads},
	}), nil
}

// MarkOutput declares id as a graph output.
func (b *Builder) MarkOutput(id int32) error {
	if _, err := b.node(id); err != nil {
		return err
	}
	b.outputs = append(b.outputs, id)
	return nil
}

// Build finalizes the builder into a Graph and validates its invariants.
// The returned Graph is unfrozen; Engine.Compile freezes it.
func (b *Builder) Build() (*Graph, error) {
	g := &Graph{Nodes: append([]Node(nil), b.nodes...), Outputs: append([]int32(nil), b.outputs...)}
	if err := g.Validate(); err != nil {
		return nil, err
	}
	return g, nil
}

// AppendNode appends a pre-built node to g, assigning it the next id. It is
// used by the expander to build its output graph node by node, and
// performs no shape/dtype re-validation (nor any check of g.Frozen): the
// expander is responsible for emitting internally consistent nodes
// (core.ErrInternalExpansion if it cannot).
func AppendNode(g *Graph, n Node) int32 {
	n.ID = int32(len(g.Nodes))
	g.Nodes = append(g.Nodes, n)
	return n.ID
}
