// Package schedule computes the deterministic execution order and arena
// layout for a compiled graph (spec.md §4.3): a topological order tied by
// ascending node id, and a liveness-based buffer-reuse plan.
package schedule

import (
	"container/heap"

	"github.com/sulkysubject37/vectoria/core"
	"github.com/sulkysubject37/vectoria/ir"
)

// BufferSpan is a node's half-open byte range within the arena.
type BufferSpan struct {
	Offset int
	Size   int
}

// Schedule is the scheduler's output: the execution order and the arena layout
// table node_id -> (offset, size), plus the total arena size to allocate.
type Schedule struct {
	Order     []int32
	Layout    map[int32]BufferSpan
	ArenaSize int
}

// idHeap is a min-heap of node ids, used to break topological-sort ties by
// ascending id (spec.md §4.3).
type idHeap []int32

func (h idHeap) Len() int            { return len(h) }
func (h idHeap) Less(i, j int) bool  { return h[i] < h[j] }
func (h idHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *idHeap) Push(x interface{}) { *h = append(*h, x.(int32)) }
func (h *idHeap) Pop() interface{} {
	old := *h
	n := len(old)
	v := old[n-1]
	*h = old[:n-1]
	return v
}

// topologicalOrder runs Kahn's algorithm with a min-heap ready set so that
// whenever multiple nodes become eligible simultaneously, the smallest id
// is scheduled first. Grounded on the teacher's topologicalSort
// (inDegree/adjacency BFS), generalized from a FIFO queue to a heap so
// ties are broken deterministically rather than by discovery order.
func topologicalOrder(g *ir.Graph) []int32 {
	n := len(g.Nodes)
	indegree := make([]int, n)
	consumers := make([][]int32, n)
	for _, node := range g.Nodes {
		for _, in := range node.Inputs {
			consumers[in] = append(consumers[in], node.ID)
			indegree[node.ID]++
		}
	}

	ready := &idHeap{}
	for i := 0; i < n; i++ {
		if indegree[i] == 0 {
			heap.Push(ready, int32(i))
		}
	}

	order := make([]int32, 0, n)
	for ready.Len() > 0 {
		id := heap.Pop(ready).(int32)
		order = append(order, id)
		for _, c := range consumers[id] {
			indegree[c]--
			if indegree[c] == 0 {
				heap.Push(ready, c)
			}
		}
	}
	return order
}

func isPinned(g *ir.Graph, id int32, outputs map[int32]bool) bool {
	n := &g.Nodes[id]
	return n.Kind == ir.KindInput || n.Kind == ir.KindParameter || outputs[id]
}

func byteSize(n *ir.Node) int {
	return core.AlignCacheLine(n.DType.Size() * n.Shape.NumElements())
}

// Plan computes the execution order and arena layout for g, which must
// already be expanded to primitives only.
func Plan(g *ir.Graph) (*Schedule, error) {
	order := topologicalOrder(g)

	outputs := make(map[int32]bool, len(g.Outputs))
	for _, o := range g.Outputs {
		outputs[o] = true
	}

	lastUse := make([]int32, len(g.Nodes))
	for i := range lastUse {
		lastUse[i] = -1
	}
	for pos, id := range order {
		for _, in := range g.Nodes[id].Inputs {
			lastUse[in] = int32(pos)
		}
	}

	layout := make(map[int32]BufferSpan, len(g.Nodes))
	freeList := make(map[int][]int)
	arenaSize := 0

	for pos, id := range order {
		node := &g.Nodes[id]
		size := byteSize(node)
		pinned := isPinned(g, id, outputs)

		var offset int
		if !pinned {
			if free := freeList[size]; len(free) > 0 {
				offset = free[len(free)-1]
				freeList[size] = free[:len(free)-1]
			} else {
				offset = arenaSize
				arenaSize += size
			}
		} else {
			offset = arenaSize
			arenaSize += size
		}
		layout[id] = BufferSpan{Offset: offset, Size: size}

		for _, in := range node.Inputs {
			if isPinned(g, in, outputs) {
				continue
			}
			if int(lastUse[in]) == pos {
				span := layout[in]
				freeList[span.Size] = append(freeList[span.Size], span.Offset)
			}
		}
	}

	return &Schedule{Order: order, Layout: layout, ArenaSize: arenaSize}, nil
}
