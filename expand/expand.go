// Package expand rewrites composite IR ops into sub-DAGs of the kernel
// registry's primitive ops (spec.md §4.2). It runs once, during compile,
// between IR validation and scheduling.
package expand

import (
	"math"

	"github.com/sulkysubject37/vectoria/core"
	"github.com/sulkysubject37/vectoria/ir"
)

// Expand rewrites every composite op in g into primitives, returning a new
// graph built in one pass over g in id order: each composite's primitives
// take ids at the point where the composite stood, so every node after the
// first composite gets a larger id than it had in g, and expansion ids are
// not placed after all of g's ids. Inputs still always have smaller ids.
// origin maps every expansion-introduced id back to the composite node
// that produced it, for trace attribution; ids copied straight from g are
// not present in origin. idMap maps every original id in g to its id in
// the returned graph, so callers that built g can still address its nodes
// by the id they originally received from the builder.
func Expand(g *ir.Graph) (out *ir.Graph, origin map[int32]int32, idMap map[int32]int32, err error) {
	out = &ir.Graph{}
	idMap = make(map[int32]int32, len(g.Nodes))
	origin = make(map[int32]int32)
	a := &appender{g: out, origin: origin}

	for _, n := range g.Nodes {
		var newID int32
		var nerr error
		switch {
		case n.Kind != ir.KindOp:
			newID = ir.AppendNode(out, n)
		case n.OpKind.Primitive():
			newID = ir.AppendNode(out, ir.Node{
				Kind: ir.KindOp, OpKind: n.OpKind,
				Inputs: remap(n.Inputs, idMap),
				Shape:  n.Shape, DType: n.DType, Attrs: n.Attrs,
			})
		default:
			newID, nerr = a.expandComposite(n, idMap)
			if nerr != nil {
				return nil, nil, nil, nerr
			}
			origin[newID] = n.ID
		}
		idMap[n.ID] = newID
	}

	out.Outputs = remap(g.Outputs, idMap)
	return out, origin, idMap, nil
}

func remap(ids []int32, idMap map[int32]int32) []int32 {
	if ids == nil {
		return nil
	}
	out := make([]int32, len(ids))
	for i, id := range ids {
		out[i] = idMap[id]
	}
	return out
}

// appender builds the expanded graph's node list and records which
// composite root produced each new id.
type appender struct {
	g      *ir.Graph
	origin map[int32]int32
	root   int32
}

func (a *appender) add(op ir.OpKind, inputs []int32, shape core.Shape, dtype core.DType, attrs ir.Attrs) int32 {
	id := ir.AppendNode(a.g, ir.Node{Kind: ir.KindOp, OpKind: op, Inputs: inputs, Shape: shape, DType: dtype, Attrs: attrs})
	a.origin[id] = a.root
	return id
}

func (a *appender) shape(id int32) core.Shape { return a.g.Nodes[id].Shape }
func (a *appender) dtype(id int32) core.DType { return a.g.Nodes[id].DType }

func (a *appender) expandComposite(n ir.Node, idMap map[int32]int32) (int32, error) {
	prevRoot := a.root
	a.root = n.ID
	defer func() { a.root = prevRoot }()

	ins := remap(n.Inputs, idMap)
	switch n.OpKind {
	case ir.OpSoftmax, ir.OpSoftmaxStable:
		return a.softmaxStable(ins[0])
	case ir.OpLogSoftmax:
		return a.logSoftmax(ins[0])
	case ir.OpLayerNorm:
		return a.layerNorm(ins[0], ins[1], ins[2], n.Attrs.Eps)
	case ir.OpCrossEntropy:
		return a.crossEntropy(ins[0], ins[1])
	case ir.OpAttention:
		return a.attention(ins[0], ins[1], ins[2])
	case ir.OpMultiHeadAttention:
		return a.multiHeadAttention(ins[0], ins[1], ins[2], ins[3], ins[4], n.Attrs.NumHeads)
	case ir.OpTransformerEncoder:
		return a.transformerEncoder(ins, n.Attrs.NumHeads)
	default:
		return 0, core.WithNode(n.ID, core.ErrInternalExpansion)
	}
}

// softmaxStable builds m=ReduceMax(x); s=x-m; e=Exp(s); z=ReduceSum(e);
// y=DivRow(e,z).
func (a *appender) softmaxStable(x int32) (int32, error) {
	shape, dtype := a.shape(x), a.dtype(x)
	rowShape := shape[:len(shape)-1]
	m := a.add(ir.OpReduceMax, []int32{x}, rowShape, dtype, ir.Attrs{})
	s := a.add(ir.OpElemSub, []int32{x, m}, shape, dtype, ir.Attrs{})
	e := a.add(ir.OpElemExp, []int32{s}, shape, dtype, ir.Attrs{})
	z := a.add(ir.OpReduceSum, []int32{e}, rowShape, dtype, ir.Attrs{})
	y := a.add(ir.OpElemDivRow, []int32{e, z}, shape, dtype, ir.Attrs{})
	return y, nil
}

// logSoftmax builds m=ReduceMax(x); s=x-m; z=ReduceSum(Exp(s)); y=s-Log(z).
func (a *appender) logSoftmax(x int32) (int32, error) {
	shape, dtype := a.shape(x), a.dtype(x)
	rowShape := shape[:len(shape)-1]
	m := a.add(ir.OpReduceMax, []int32{x}, rowShape, dtype, ir.Attrs{})
	s := a.add(ir.OpElemSub, []int32{x, m}, shape, dtype, ir.Attrs{})
	expS := a.add(ir.OpElemExp, []int32{s}, shape, dtype, ir.Attrs{})
	z := a.add(ir.OpReduceSum, []int32{expS}, rowShape, dtype, ir.Attrs{})
	logZ := a.add(ir.OpElemLog, []int32{z}, rowShape, dtype, ir.Attrs{})
	y := a.add(ir.OpElemSub, []int32{s, logZ}, shape, dtype, ir.Attrs{})
	return y, nil
}

// layerNorm builds the per-row mean/variance normalization, gamma-scale and
// beta-shift. The RecipSqrt kernel folds in eps (x+eps before the root) so
// no dedicated scalar-add primitive is needed.
func (a *appender) layerNorm(x, gamma, beta int32, eps float32) (int32, error) {
	shape, dtype := a.shape(x), a.dtype(x)
	rank := len(shape)
	rowShape := shape[:rank-1]
	n := float32(shape[rank-1])

	sum := a.add(ir.OpReduceSum, []int32{x}, rowShape, dtype, ir.Attrs{})
	mean := a.add(ir.OpElemScalarMul, []int32{sum}, rowShape, dtype, ir.Attrs{ScalarOperand: 1.0 / n})
	centered := a.add(ir.OpElemSub, []int32{x, mean}, shape, dtype, ir.Attrs{})
	sq := a.add(ir.OpMul, []int32{centered, centered}, shape, dtype, ir.Attrs{})
	sqSum := a.add(ir.OpReduceSum, []int32{sq}, rowShape, dtype, ir.Attrs{})
	variance := a.add(ir.OpElemScalarMul, []int32{sqSum}, rowShape, dtype, ir.Attrs{ScalarOperand: 1.0 / n})
	invStd := a.add(ir.OpElemRecipSqrt, []int32{variance}, rowShape, dtype, ir.Attrs{Eps: eps})
	normalized := a.add(ir.OpMul, []int32{centered, invStd}, shape, dtype, ir.Attrs{})
	scaled := a.add(ir.OpMul, []int32{normalized, gamma}, shape, dtype, ir.Attrs{})
	y := a.add(ir.OpBiasAdd, []int32{scaled, beta}, shape, dtype, ir.Attrs{})
	return y, nil
}

// crossEntropy builds -ReduceSum(target * LogSoftmax(logits)).
func (a *appender) crossEntropy(logits, target int32) (int32, error) {
	ls, err := a.logSoftmax(logits)
	if err != nil {
		return 0, err
	}
	shape, dtype := a.shape(logits), a.dtype(logits)
	rowShape := shape[:len(shape)-1]
	prod := a.add(ir.OpMul, []int32{target, ls}, shape, dtype, ir.Attrs{})
	summed := a.add(ir.OpReduceSum, []int32{prod}, rowShape, dtype, ir.Attrs{})
	negated := a.add(ir.OpElemNeg, []int32{summed}, rowShape, dtype, ir.Attrs{})
	return negated, nil
}

// attention builds scores=Q·Kᵀ/√dk; A=SoftmaxStable(scores); out=A·V.
func (a *appender) attention(q, k, v int32) (int32, error) {
	qShape, dtype := a.shape(q), a.dtype(q)
	kShape := a.shape(k)
	vShape := a.shape(v)
	dk := qShape[1]

	kt := a.add(ir.OpTranspose, []int32{k}, core.Shape{kShape[1], kShape[0]}, dtype, ir.Attrs{Perm: []int{1, 0}})
	raw := a.add(ir.OpMatMul, []int32{q, kt}, core.Shape{qShape[0], kShape[0]}, dtype, ir.Attrs{})
	scaled := a.add(ir.OpElemScalarMul, []int32{raw}, core.Shape{qShape[0], kShape[0]}, dtype, ir.Attrs{ScalarOperand: float32(1.0 / math.Sqrt(float64(dk)))})
	attn, err := a.softmaxStable(scaled)
	if err != nil {
		return 0, err
	}
	out := a.add(ir.OpMatMul, []int32{attn, v}, core.Shape{qShape[0], vShape[1]}, dtype, ir.Attrs{})
	return out, nil
}

// multiHeadAttention projects Q,K,V, splits into h heads via
// reshape+transpose+slice, runs attention per head, concatenates and
// projects through Wo.
func (a *appender) multiHeadAttention(x, wq, wk, wv, wo int32, numHeads int) (int32, error) {
	xShape, dtype := a.shape(x), a.dtype(x)
	t, dModel := xShape[0], xShape[1]
	dk := dModel / numHeads

	q := a.add(ir.OpMatMul, []int32{x, wq}, core.Shape{t, dModel}, dtype, ir.Attrs{})
	k := a.add(ir.OpMatMul, []int32{x, wk}, core.Shape{t, dModel}, dtype, ir.Attrs{})
	v := a.add(ir.OpMatMul, []int32{x, wv}, core.Shape{t, dModel}, dtype, ir.Attrs{})

	qh := a.splitHeads(q, t, numHeads, dk, dtype)
	kh := a.splitHeads(k, t, numHeads, dk, dtype)
	vh := a.splitHeads(v, t, numHeads, dk, dtype)

	heads := make([]int32, numHeads)
	for i := 0; i < numHeads; i++ {
		headOut, err := a.attention(qh[i], kh[i], vh[i])
		if err != nil {
			return 0, err
		}
		heads[i] = headOut
	}
	concatenated := a.add(ir.OpConcat, heads, core.Shape{t, dModel}, dtype, ir.Attrs{Axis: 1})

	woShape := a.shape(wo)
	out := a.add(ir.OpMatMul, []int32{concatenated, wo}, core.Shape{t, woShape[1]}, dtype, ir.Attrs{})
	return out, nil
}

// splitHeads reshapes proj[T,dModel] to [T,h,dk], transposes to [h,T,dk],
// then slices out each head as a standalone [T,dk] node.
func (a *appender) splitHeads(proj int32, t, numHeads, dk int, dtype core.DType) []int32 {
	reshaped := a.add(ir.OpReshape, []int32{proj}, core.Shape{t, numHeads, dk}, dtype, ir.Attrs{TargetShape: core.Shape{t, numHeads, dk}})
	transposed := a.add(ir.OpTranspose, []int32{reshaped}, core.Shape{numHeads, t, dk}, dtype, ir.Attrs{Perm: []int{1, 0, 2}})

	heads := make([]int32, numHeads)
	for i := 0; i < numHeads; i++ {
		sliced := a.add(ir.OpSlice, []int32{transposed}, core.Shape{1, t, dk}, dtype, ir.Attrs{Axis: 0, SliceStart: i, SliceLen: 1})
		heads[i] = a.add(ir.OpReshape, []int32{sliced}, core.Shape{t, dk}, dtype, ir.Attrs{TargetShape: core.Shape{t, dk}})
	}
	return heads
}

// transformerEncoder builds the post-LN block:
// y1 = LayerNorm(X + MHA(X,...), γ1, β1)
// y2 = LayerNorm(y1 + Relu(y1·Wf1+bf1)·Wf2 + bf2, γ2, β2)
func (a *appender) transformerEncoder(ins []int32, numHeads int) (int32, error) {
	x, wq, wk, wv, wo := ins[0], ins[1], ins[2], ins[3], ins[4]
	gamma1, beta1 := ins[5], ins[6]
	wf1, bf1 := ins[7], ins[8]
	wf2, bf2 := ins[9], ins[10]
	gamma2, beta2 := ins[11], ins[12]

	shape, dtype := a.shape(x), a.dtype(x)

	mha, err := a.multiHeadAttention(x, wq, wk, wv, wo, numHeads)
	if err != nil {
		return 0, err
	}
	sum1 := a.add(ir.OpAdd, []int32{x, mha}, shape, dtype, ir.Attrs{})
	y1, err := a.layerNorm(sum1, gamma1, beta1, ir.DefaultEps)
	if err != nil {
		return 0, err
	}

	wf1Shape := a.shape(wf1)
	ff1 := a.add(ir.OpMatMul, []int32{y1, wf1}, core.Shape{shape[0], wf1Shape[1]}, dtype, ir.Attrs{})
	ff1b := a.add(ir.OpBiasAdd, []int32{ff1, bf1}, core.Shape{shape[0], wf1Shape[1]}, dtype, ir.Attrs{})
	relu1 := a.add(ir.OpRelu, []int32{ff1b}, core.Shape{shape[0], wf1Shape[1]}, dtype, ir.Attrs{})

	wf2Shape := a.shape(wf2)
	ff2 := a.add(ir.OpMatMul, []int32{relu1, wf2}, core.Shape{shape[0], wf2Shape[1]}, dtype, ir.Attrs{})
	ff2b := a.add(ir.OpBiasAdd, []int32{ff2, bf2}, core.Shape{shape[0], wf2Shape[1]}, dtype, ir.Attrs{})

	sum2 := a.add(ir.OpAdd, []int32{y1, ff2b}, shape, dtype, ir.Attrs{})
	y2, err := a.layerNorm(sum2, gamma2, beta2, ir.DefaultEps)
	if err != nil {
		return 0, err
	}
	return y2, nil
}
