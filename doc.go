// Package vectoria implements a deterministic, ahead-of-time compiled
// tensor execution engine for dense numerical graphs.
//
// A graph is built once through ir.Builder as an immutable, append-only
// node list with statically known shapes and dtypes. Compile expands
// composite ops (Softmax, LayerNorm, Attention, TransformerEncoder, ...)
// into a fixed set of primitives, computes a topological schedule with
// liveness-based buffer reuse, and plans a single contiguous arena sized
// to the result. Execute dispatches every node's kernel, sequentially and
// deterministically, against that arena.
//
// # Architecture Overview
//
//   - ir: immutable node graph, builder with shape/dtype inference
//   - expand: composite-to-primitive rewriting
//   - schedule: topological order, liveness, arena layout
//   - capability: one-shot CPU feature probing
//   - kernels: reference and SIMD-variant kernel implementations
//   - runtime: Engine (compile/execute/buffer), arena allocator
//   - trace: append-only structured execution log
//   - graphspec: YAML graph descriptions for the cmd/ tools
//   - nativeabi: handle-table mirror of the C ABI surface
//   - cmd: command-line tools (vectoriac, vectoriarun, vectoriaperf)
//
// # Determinism
//
// Execution within one engine is strictly sequential and single-threaded;
// no kernel may suspend or re-enter. Node ids are insertion order, tie
// breaks in scheduling favor ascending id, and reductions sum left to
// right, so repeated compiles and executes of the same graph produce
// identical output and identical trace events (timestamps aside).
//
// # Basic Usage
//
//	spec, err := graphspec.Load("model.yaml")
//	g, ids, err := graphspec.Build(spec)
//
//	e := runtime.NewEngine(g)
//	if err := e.Compile(); err != nil {
//	    log.Fatal(err)
//	}
//
//	xID, _ := e.Resolve(ids["x"])
//	buf, _ := e.Buffer(xID)
//	copy(buf, []float32{1, 0, 0, 1})
//
//	if err := e.Execute(); err != nil {
//	    log.Fatal(err)
//	}
package vectoria
