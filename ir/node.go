// Package ir defines the immutable, append-only intermediate representation
// that a graph is built into before compile(): typed nodes with statically
// known shapes and dtypes, and the Builder that is the IR's sole mutator.
package ir

import "github.com/sulkysubject37/vectoria/core"

// Kind tags the role a Node plays in the graph.
type Kind uint8

const (
	KindInput Kind = iota
	KindParameter
	KindOp
)

func (k Kind) String() string {
	switch k {
	case KindInput:
		return "Input"
	case KindParameter:
		return "Parameter"
	case KindOp:
		return "Op"
	default:
		return "Unknown"
	}
}

// OpKind enumerates every op the builder accepts, primitive or composite.
// Primitive kinds are the ones the kernel registry implements directly;
// composite kinds are rewritten away by the expander during compile().
type OpKind uint8

const (
	OpMatMul OpKind = iota
	OpBiasAdd
	OpRelu
	OpAdd
	OpMul
	OpReduceSum
	OpReduceMax
	OpTranspose
	OpReshape
	OpConcat
	OpElemExp
	OpElemLog
	OpElemNeg
	OpElemSub
	OpElemDivRow
	OpElemRecipSqrt
	OpElemScalarMul
	OpSlice

	// Composite ops: expanded into the primitives above during compile().
	OpSoftmax
	OpSoftmaxStable
	OpLogSoftmax
	OpLayerNorm
	OpCrossEntropy
	OpAttention
	OpMultiHeadAttention
	OpTransformerEncoder
)

var opKindNames = [...]string{
	OpMatMul:             "MatMul",
	OpBiasAdd:            "BiasAdd",
	OpRelu:               "Relu",
	OpAdd:                "Add",
	OpMul:                "Mul",
	OpReduceSum:          "ReduceSum",
	OpReduceMax:          "ReduceMax",
	OpTranspose:          "Transpose",
	OpReshape:            "Reshape",
	OpConcat:             "Concat",
	OpElemExp:            "Elementwise.Exp",
	OpElemLog:            "Elementwise.Log",
	OpElemNeg:            "Elementwise.Neg",
	OpElemSub:            "Elementwise.Sub",
	OpElemDivRow:         "Elementwise.DivRow",
	OpElemRecipSqrt:      "Elementwise.RecipSqrt",
	OpElemScalarMul:      "Elementwise.ScalarMul",
	OpSlice:              "Slice",
	OpSoftmax:            "Softmax",
	OpSoftmaxStable:      "SoftmaxStable",
	OpLogSoftmax:         "LogSoftmax",
	OpLayerNorm:          "LayerNorm",
	OpCrossEntropy:       "CrossEntropy",
	OpAttention:          "Attention",
	OpMultiHeadAttention: "MultiHeadAttention",
	OpTransformerEncoder: "TransformerEncoder",
}

func (k OpKind) String() string {
	if int(k) < len(opKindNames) && opKindNames[k] != "" {
		return opKindNames[k]
	}
	return "UnknownOp"
}

// Primitive reports whether k is implemented directly by the kernel
// registry, as opposed to being rewritten by the expander.
func (k OpKind) Primitive() bool {
	return k <= OpSlice
}

// Attrs carries the kind-specific attributes a node's Op may declare.
// Only the fields relevant to OpKind are populated; zero values are valid
// defaults where the spec names one (e.g. LayerNorm.Eps).
type Attrs struct {
	Axis          int        // Concat.axis / Slice.axis
	Perm          []int      // Transpose.perm
	TargetShape   core.Shape // Reshape.target_shape
	NumHeads      int        // MultiHeadAttention/TransformerEncoder.num_heads
	Eps           float32    // LayerNorm.eps
	ScalarOperand float32    // Elementwise.ScalarMul operand
	SliceStart    int        // Slice.start index along Axis
	SliceLen      int        // Slice.length along Axis
}

// DefaultEps is the LayerNorm epsilon used when the builder caller does not
// supply one explicitly.
const DefaultEps = 1e-5

// Node is one entry in the IR's append-only node list. Its ID equals its
// index in Graph.Nodes; input ids therefore always refer to strictly
// smaller indices by construction.
type Node struct {
	ID     int32
	Kind   Kind
	Shape  core.Shape
	DType  core.DType
	Name   string // Input/Parameter name

	// Op-specific.
	OpKind   OpKind
	Inputs   []int32
	Attrs    Attrs

	// ParameterBufferID distinguishes parameters sharing a backing buffer
	// across graphs; 0 means "use this node's own id".
	ParameterBufferID int32
}
