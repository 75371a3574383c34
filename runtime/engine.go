package runtime

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/sulkysubject37/vectoria/capability"
	"github.com/sulkysubject37/vectoria/core"
	"github.com/sulkysubject37/vectoria/expand"
	"github.com/sulkysubject37/vectoria/ir"
	"github.com/sulkysubject37/vectoria/kernels"
	"github.com/sulkysubject37/vectoria/schedule"
	"github.com/sulkysubject37/vectoria/trace"
)

// formatInputIDs renders a node's input ids as spec.md §4.4's
// "[id,id,…]" KernelDispatch detail format.
func formatInputIDs(ids []int32) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(int64(id), 10)
	}
	return "[" + strings.Join(parts, ",") + "]"
}

// Engine is the compile()/execute()/buffer() facade of spec.md §4.6.
// Grounded on the teacher's runtime.Engine (graph + arena + scheduler
// bundle, NewEngine/Execute/ArenaBytes), reshaped around the expand/
// schedule/kernels pipeline instead of a live Sublate table.
type Engine struct {
	source   *ir.Graph // as given to NewEngine, pre-expansion
	graph    *ir.Graph // expanded, primitives only, set by Compile
	origin   map[int32]int32
	idMap    map[int32]int32 // source id -> expanded id
	plan     *schedule.Schedule
	arena    *Arena
	caps     capability.Snapshot
	rec      *trace.Recorder
	compiled bool
	filled   map[int32]bool
}

// NewEngine wraps a frozen (not yet compiled) graph. The capability
// snapshot is probed once per process and shared by every engine.
func NewEngine(graph *ir.Graph) *Engine {
	return &Engine{source: graph, caps: capability.Probe()}
}

// Compile validates the IR, expands composites, schedules, and plans the
// arena; emits GraphCompilation followed by one MemoryAllocation per
// pinned buffer. Idempotent (spec.md §4.6).
func (e *Engine) Compile() error {
	if e.compiled {
		return nil
	}
	if err := e.source.Validate(); err != nil {
		return err
	}
	expanded, origin, idMap, err := expand.Expand(e.source)
	if err != nil {
		return err
	}
	plan, err := schedule.Plan(expanded)
	if err != nil {
		return err
	}

	e.source.Frozen = true
	e.graph = expanded
	e.origin = origin
	e.idMap = idMap
	e.plan = plan
	e.arena = NewArena(plan)
	e.rec = trace.NewRecorder(len(plan.Order))
	e.filled = make(map[int32]bool, len(expanded.Nodes))

	e.rec.Record(trace.GraphCompilation, -1, "")
	outputs := make(map[int32]bool, len(expanded.Outputs))
	for _, o := range expanded.Outputs {
		outputs[o] = true
	}
	for _, id := range plan.Order {
		n := &expanded.Nodes[id]
		if n.Kind == ir.KindInput || n.Kind == ir.KindParameter || outputs[id] {
			span := plan.Layout[id]
			e.rec.Record(trace.MemoryAllocation, id, fmt.Sprintf("%d", span.Size))
		}
	}
	e.rec.MarkCompilePoint()
	e.compiled = true
	return nil
}

// Resolve maps a node id from the graph Compile was given to its id in the
// compiled, expanded graph. Composite ops (Softmax, LayerNorm, Attention,
// ...) shift every id that follows them during expansion, so callers that
// built the source graph (e.g. graphspec) must translate through Resolve
// before calling Buffer on anything but the very first few nodes.
func (e *Engine) Resolve(sourceID int32) (int32, error) {
	if !e.compiled {
		return 0, core.ErrNotCompiled
	}
	id, ok := e.idMap[sourceID]
	if !ok {
		return 0, core.WithNode(sourceID, core.ErrUnknownNode)
	}
	return id, nil
}

// Buffer returns the arena's float32 view of nodeID — the native ABI's
// engine_get_buffer accessor (spec.md §6). Requesting an Input's or
// Parameter's buffer marks it filled, satisfying the "caller is
// responsible for filling Inputs before each execute" contract.
func (e *Engine) Buffer(nodeID int32) ([]float32, error) {
	if !e.compiled {
		return nil, core.ErrNotCompiled
	}
	n, err := e.graph.Node(nodeID)
	if err != nil {
		return nil, err
	}
	view, err := e.arena.Float32(nodeID, n.Shape.NumElements())
	if err != nil {
		return nil, err
	}
	if n.Kind == ir.KindInput || n.Kind == ir.KindParameter {
		e.filled[nodeID] = true
	}
	return view, nil
}

// Execute dispatches every node in schedule order and returns when the
// last one completes. Each call clears the previous execute's trace while
// preserving the compile-time prefix (spec.md §4.6). Not re-entrant.
func (e *Engine) Execute() error {
	if !e.compiled {
		return core.ErrNotCompiled
	}
	for _, n := range e.graph.Nodes {
		if n.Kind != ir.KindInput {
			continue
		}
		if !e.filled[n.ID] {
			return core.WithNode(n.ID, core.ErrBufferUnset)
		}
	}

	e.rec.ResetForExecute()
	for _, id := range e.plan.Order {
		n := &e.graph.Nodes[id]
		if n.Kind != ir.KindOp {
			continue
		}
		if err := e.dispatchNode(n, e.rec); err != nil {
			return err
		}
	}
	return nil
}

// dispatchNode runs one op node's kernel, optionally recording the
// NodeExecutionStart/KernelDispatch/NodeExecutionEnd trio. rec == nil
// skips tracing entirely — used by parallel_bench.go, whose concurrent
// dispatch must never touch the trace buffer (spec.md §5: the trace is
// exclusively owned by the sequential dispatcher thread).
func (e *Engine) dispatchNode(n *ir.Node, rec *trace.Recorder) error {
	if rec != nil {
		rec.Record(trace.NodeExecutionStart, n.ID, "")
	}

	inputs := make([][]float32, len(n.Inputs))
	inShapes := make([]core.Shape, len(n.Inputs))
	for i, inID := range n.Inputs {
		inNode, err := e.graph.Node(inID)
		if err != nil {
			return err
		}
		view, err := e.arena.Float32(inID, inNode.Shape.NumElements())
		if err != nil {
			return err
		}
		inputs[i] = view
		inShapes[i] = inNode.Shape
	}
	output, err := e.arena.Float32(n.ID, n.Shape.NumElements())
	if err != nil {
		return err
	}

	fn, variant, err := kernels.Dispatch(n.OpKind, n.DType, inShapes, e.caps)
	if err != nil {
		return err
	}
	if rec != nil {
		rec.Record(trace.KernelDispatch, n.ID, fmt.Sprintf("%s | Inputs: %s", variant, formatInputIDs(n.Inputs)))
	}

	fn(kernels.Args{
		Inputs:   inputs,
		InShapes: inShapes,
		Output:   output,
		OutShape: n.Shape,
		Attrs:    n.Attrs,
	})

	if rec != nil {
		rec.Record(trace.NodeExecutionEnd, n.ID, "")
	}
	return nil
}

// Trace returns the engine's current event log.
func (e *Engine) Trace() []trace.Event {
	if e.rec == nil {
		return nil
	}
	return e.rec.Events()
}

// ArenaSize reports the compiled arena's total byte capacity.
func (e *Engine) ArenaSize() int {
	if e.arena == nil {
		return 0
	}
	return e.arena.TotalSize()
}
