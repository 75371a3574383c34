package runtime

import (
	"runtime"
	"sync"

	"github.com/sulkysubject37/vectoria/core"
	"github.com/sulkysubject37/vectoria/ir"
)

// Adapted, not dropped: spec.md §5 mandates strictly sequential,
// single-threaded execution within one engine, so the teacher's
// StreamScheduler/WorkStealingScheduler (runtime/runtime.go) cannot sit on
// Engine.Execute's path. They survive here, reshaped around this engine's
// expanded graph and arena, as a benchmarking-only alternate dispatcher
// that cmd/vectoriaperf uses to measure how much concurrency headroom the
// sequential contract gives up. Engine.Execute never calls into this file,
// and RunParallel never touches the engine's trace recorder — only
// dispatchNode(..., nil) is safe to call concurrently.

// DefaultBenchWorkers mirrors the teacher's DefaultEngineOptions.Workers
// default of runtime.NumCPU().
func DefaultBenchWorkers() int {
	return runtime.NumCPU()
}

// dependencyLevels groups node ids so everything in level L depends only
// on nodes in levels < L, meaning every node within one level can run
// concurrently. Grounded on StreamScheduler.createTaskGroups' level-by-
// dependency grouping, computed exactly here since the expanded IR's
// dependencies are fully known rather than inferred from a Topo field.
func dependencyLevels(g *ir.Graph, order []int32) [][]int32 {
	level := make([]int, len(g.Nodes))
	for _, id := range order {
		n := &g.Nodes[id]
		maxDep := -1
		for _, in := range n.Inputs {
			if level[in] > maxDep {
				maxDep = level[in]
			}
		}
		level[id] = maxDep + 1
	}

	var levels [][]int32
	for _, id := range order {
		l := level[id]
		for len(levels) <= l {
			levels = append(levels, nil)
		}
		levels[l] = append(levels[l], id)
	}
	return levels
}

// RunParallel dispatches every op node level-by-level, fanning each level
// out across up to workers goroutines, reusing the same compiled arena and
// kernel registry as Engine.Execute so results are numerically comparable.
// It requires e to already be compiled and never mutates e.rec.
//
// Throughput-only: schedule.Plan's free-list may assign two nodes in the
// same level the same arena offset if their lifetimes never overlap in
// sequential order, which a concurrent run can violate. Fine for timing,
// not for correctness — never use this for anything that reads the output.
func RunParallel(e *Engine, workers int) error {
	if !e.compiled {
		return core.ErrNotCompiled
	}
	if workers <= 0 {
		workers = DefaultBenchWorkers()
	}
	for _, level := range dependencyLevels(e.graph, e.plan.Order) {
		if err := runLevel(e, level, workers); err != nil {
			return err
		}
	}
	return nil
}

func runLevel(e *Engine, nodeIDs []int32, workers int) error {
	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup
	errs := make([]error, len(nodeIDs))

	for i, id := range nodeIDs {
		n := &e.graph.Nodes[id]
		if n.Kind != ir.KindOp {
			continue
		}
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, n *ir.Node) {
			defer wg.Done()
			defer func() { <-sem }()
			errs[i] = e.dispatchNode(n, nil)
		}(i, n)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
