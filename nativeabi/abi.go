// Package nativeabi is a pure-Go mirror of the stable C-style symbols
// spec.md §6 defines for host-language bindings: graph_*, engine_*, and
// get_capabilities. Host bindings in other languages would call these
// through cgo; since this repository has no cgo boundary, the package
// exposes the same handle-table/int32-id/-1-on-failure shape as ordinary
// exported Go functions, so a future cgo shim is a thin wrapper rather
// than a redesign.
//
// Grounded on cmd/sublrun/main.go's handle-passing style (opaque values
// returned from constructors, accessed through later calls) generalized
// into a package-level handle registry, since the teacher's cmd/ tools
// called the Go API directly and never needed one.
package nativeabi

import (
	"sync"

	"github.com/sulkysubject37/vectoria/capability"
	"github.com/sulkysubject37/vectoria/core"
	"github.com/sulkysubject37/vectoria/ir"
	"github.com/sulkysubject37/vectoria/runtime"
	"github.com/sulkysubject37/vectoria/trace"
)

// handle is the ABI-visible int32 identifier for a graph or engine. -1
// means "none/failure", as spec.md §6 states for node ids and is adopted
// here uniformly for every handle kind.
type handle int32

const noHandle handle = -1

var (
	mu          sync.Mutex
	graphs      = map[handle]*graphHandle{}
	engines     = map[handle]*runtime.Engine{}
	nextGraphID handle
	nextEngID   handle
	lastError   string
)

type graphHandle struct {
	builder *ir.Builder
	built   *ir.Graph // rebuilt from builder by every EngineCreate call
}

func setError(err error) {
	if err != nil {
		lastError = err.Error()
	}
}

// LastError returns the message of the most recent error any ABI call
// recorded, mirroring the "-1 plus an error-string accessor" propagation
// rule spec.md §7 describes for builder/compile failures.
func LastError() string {
	return lastError
}

// GraphCreate allocates a new, empty graph builder and returns its handle.
func GraphCreate() int32 {
	mu.Lock()
	defer mu.Unlock()
	id := nextGraphID
	nextGraphID++
	graphs[id] = &graphHandle{builder: ir.NewBuilder()}
	return int32(id)
}

// GraphDestroy releases a graph handle. Destroying an unknown handle is a
// no-op, matching the ABI's tolerance for double-free-style misuse at the
// binding layer rather than aborting the process.
func GraphDestroy(h int32) {
	mu.Lock()
	defer mu.Unlock()
	delete(graphs, handle(h))
}

func lookupGraph(h int32) (*graphHandle, bool) {
	g, ok := graphs[handle(h)]
	return g, ok
}

// GraphAddInput mirrors graph_add_input(h, name, shape, rank, dtype).
func GraphAddInput(h int32, name string, shape []int, dtype core.DType) int32 {
	mu.Lock()
	defer mu.Unlock()
	g, ok := lookupGraph(h)
	if !ok {
		setError(core.ErrUnknownNode)
		return -1
	}
	return int32(g.builder.AddInput(name, core.Shape(shape), dtype))
}

// GraphAddParameter mirrors graph_add_parameter(h, name, shape, rank, dtype).
func GraphAddParameter(h int32, name string, shape []int, dtype core.DType, bufferID int32) int32 {
	mu.Lock()
	defer mu.Unlock()
	g, ok := lookupGraph(h)
	if !ok {
		setError(core.ErrUnknownNode)
		return -1
	}
	return int32(g.builder.AddParameter(name, core.Shape(shape), dtype, bufferID))
}

// opResult adapts a (int32, error) builder call to the ABI's -1-on-failure
// convention, recording the error for LastError.
func opResult(id int32, err error) int32 {
	if err != nil {
		setError(err)
		return -1
	}
	return id
}

// GraphAddOpMatMul mirrors graph_add_op_matmul(h, a, c).
func GraphAddOpMatMul(h int32, a, c int32) int32 {
	mu.Lock()
	defer mu.Unlock()
	g, ok := lookupGraph(h)
	if !ok {
		setError(core.ErrUnknownNode)
		return -1
	}
	return opResult(g.builder.AddMatMul(a, c))
}

// GraphAddOpBiasAdd mirrors graph_add_op_biasadd(h, x, bias).
func GraphAddOpBiasAdd(h int32, x, bias int32) int32 {
	mu.Lock()
	defer mu.Unlock()
	g, ok := lookupGraph(h)
	if !ok {
		setError(core.ErrUnknownNode)
		return -1
	}
	return opResult(g.builder.AddBiasAdd(x, bias))
}

// GraphAddOpRelu mirrors graph_add_op_relu(h, x).
func GraphAddOpRelu(h int32, x int32) int32 {
	mu.Lock()
	defer mu.Unlock()
	g, ok := lookupGraph(h)
	if !ok {
		setError(core.ErrUnknownNode)
		return -1
	}
	return opResult(g.builder.AddRelu(x))
}

// GraphAddOpAdd mirrors graph_add_op_add(h, a, c).
func GraphAddOpAdd(h int32, a, c int32) int32 {
	mu.Lock()
	defer mu.Unlock()
	g, ok := lookupGraph(h)
	if !ok {
		setError(core.ErrUnknownNode)
		return -1
	}
	return opResult(g.builder.AddAdd(a, c))
}

// GraphAddOpMul mirrors graph_add_op_mul(h, a, c).
func GraphAddOpMul(h int32, a, c int32) int32 {
	mu.Lock()
	defer mu.Unlock()
	g, ok := lookupGraph(h)
	if !ok {
		setError(core.ErrUnknownNode)
		return -1
	}
	return opResult(g.builder.AddMul(a, c))
}

// GraphAddOpReduceSum mirrors graph_add_op_reducesum(h, x).
func GraphAddOpReduceSum(h int32, x int32) int32 {
	mu.Lock()
	defer mu.Unlock()
	g, ok := lookupGraph(h)
	if !ok {
		setError(core.ErrUnknownNode)
		return -1
	}
	return opResult(g.builder.AddReduceSum(x))
}

// GraphAddOpSoftmaxStable mirrors graph_add_op_softmaxstable(h, x).
func GraphAddOpSoftmaxStable(h int32, x int32) int32 {
	mu.Lock()
	defer mu.Unlock()
	g, ok := lookupGraph(h)
	if !ok {
		setError(core.ErrUnknownNode)
		return -1
	}
	return opResult(g.builder.AddSoftmaxStable(x))
}

// GraphAddOpLayerNorm mirrors graph_add_op_layernorm(h, x, gamma, beta, eps).
func GraphAddOpLayerNorm(h int32, x, gamma, beta int32, eps float32) int32 {
	mu.Lock()
	defer mu.Unlock()
	g, ok := lookupGraph(h)
	if !ok {
		setError(core.ErrUnknownNode)
		return -1
	}
	return opResult(g.builder.AddLayerNorm(x, gamma, beta, eps))
}

// GraphAddOpAttention mirrors graph_add_op_attention(h, q, k, v).
func GraphAddOpAttention(h int32, q, k, v int32) int32 {
	mu.Lock()
	defer mu.Unlock()
	g, ok := lookupGraph(h)
	if !ok {
		setError(core.ErrUnknownNode)
		return -1
	}
	return opResult(g.builder.AddAttention(q, k, v))
}

// GraphSetOutput mirrors graph_set_output(h, node_id).
func GraphSetOutput(h int32, nodeID int32) int32 {
	mu.Lock()
	defer mu.Unlock()
	g, ok := lookupGraph(h)
	if !ok {
		setError(core.ErrUnknownNode)
		return -1
	}
	if err := g.builder.MarkOutput(nodeID); err != nil {
		setError(err)
		return -1
	}
	return 0
}

// EngineCreate mirrors engine_create(graph): builds the graph handle's
// accumulated IR and wraps it in a fresh Engine. Build copies the nodes, so
// later GraphAdd*/GraphSetOutput calls on the handle are still accepted by
// its builder but do not reach engines already created from it.
func EngineCreate(graphHandleID int32) int32 {
	mu.Lock()
	defer mu.Unlock()
	g, ok := lookupGraph(graphHandleID)
	if !ok {
		setError(core.ErrUnknownNode)
		return -1
	}
	built, err := g.builder.Build()
	if err != nil {
		setError(err)
		return -1
	}
	g.built = built

	id := nextEngID
	nextEngID++
	engines[id] = runtime.NewEngine(built)
	return int32(id)
}

// EngineDestroy releases an engine handle.
func EngineDestroy(h int32) {
	mu.Lock()
	defer mu.Unlock()
	delete(engines, handle(h))
}

func lookupEngine(h int32) (*runtime.Engine, bool) {
	e, ok := engines[handle(h)]
	return e, ok
}

// EngineCompile mirrors engine_compile(h).
func EngineCompile(h int32) int32 {
	mu.Lock()
	defer mu.Unlock()
	e, ok := lookupEngine(h)
	if !ok {
		setError(core.ErrUnknownNode)
		return -1
	}
	if err := e.Compile(); err != nil {
		setError(err)
		return -1
	}
	return 0
}

// EngineExecute mirrors engine_execute(h).
func EngineExecute(h int32) int32 {
	mu.Lock()
	defer mu.Unlock()
	e, ok := lookupEngine(h)
	if !ok {
		setError(core.ErrUnknownNode)
		return -1
	}
	if err := e.Execute(); err != nil {
		setError(err)
		return -1
	}
	return 0
}

// EngineGetBuffer mirrors engine_get_buffer(h, node_id): returns the F32
// arena slice for nodeID, or nil on failure. A real cgo boundary would
// return a raw pointer into the arena (as spec.md §6 states); Go callers
// get the slice itself since no marshaling is needed in-process.
func EngineGetBuffer(h int32, nodeID int32) []float32 {
	mu.Lock()
	defer mu.Unlock()
	e, ok := lookupEngine(h)
	if !ok {
		setError(core.ErrUnknownNode)
		return nil
	}
	buf, err := e.Buffer(nodeID)
	if err != nil {
		setError(err)
		return nil
	}
	return buf
}

// EngineGetTraceSize mirrors engine_get_trace_size(h).
func EngineGetTraceSize(h int32) int32 {
	mu.Lock()
	defer mu.Unlock()
	e, ok := lookupEngine(h)
	if !ok {
		setError(core.ErrUnknownNode)
		return -1
	}
	return int32(len(e.Trace()))
}

// EngineGetTraceEvent mirrors engine_get_trace_event(h, i, out_kind,
// out_ts, out_nid, out_details_buf, buflen): returns the i'th event by
// value rather than writing through output parameters, since there is no
// cgo marshaling boundary to cross here.
func EngineGetTraceEvent(h int32, i int32) (trace.Event, bool) {
	mu.Lock()
	defer mu.Unlock()
	e, ok := lookupEngine(h)
	if !ok {
		setError(core.ErrUnknownNode)
		return trace.Event{}, false
	}
	events := e.Trace()
	if i < 0 || int(i) >= len(events) {
		setError(core.ErrUnknownNode)
		return trace.Event{}, false
	}
	return events[i], true
}

// Capabilities mirrors get_capabilities(out_arch, out_compiled,
// out_supported, out_name_buf, buflen), returning the Snapshot directly
// instead of writing through output parameters.
func Capabilities() capability.Snapshot {
	return capability.Probe()
}
