package ir

import "github.com/sulkysubject37/vectoria/core"

// Graph is the immutable, append-only node list produced by a Builder.
// Node ids are insertion order and are never reused. Engine.Compile sets
// Frozen on the graph it compiles; nothing in this package reads Frozen,
// so insertions (AppendNode) are not refused and core.ErrGraphFrozen is
// never returned here.
type Graph struct {
	Nodes   []Node
	Outputs []int32
	Frozen  bool
}

// NodeCount returns the number of nodes in the graph.
func (g *Graph) NodeCount() int {
	return len(g.Nodes)
}

// Node returns the node with the given id, or an error if it is out of
// range.
func (g *Graph) Node(id int32) (*Node, error) {
	if id < 0 || int(id) >= len(g.Nodes) {
		return nil, core.WithNode(id, core.ErrUnknownNode)
	}
	return &g.Nodes[id], nil
}

// Validate checks the structural invariants spec.md §3 requires of a
// compiled graph: every Op input refers to a strictly smaller id, and at
// least one distinct, valid output is declared. Shape/dtype derivation is
// checked as each node is appended by the Builder, not here.
func (g *Graph) Validate() error {
	if len(g.Nodes) == 0 {
		return core.ErrNoOutput
	}
	for i, n := range g.Nodes {
		if n.Kind != KindOp {
			continue
		}
		for _, in := range n.Inputs {
			if in < 0 || int(in) >= i {
				return core.WithNode(n.ID, core.ErrUnknownNode)
			}
		}
	}
	if len(g.Outputs) == 0 {
		return core.ErrNoOutput
	}
	seen := make(map[int32]bool, len(g.Outputs))
	for _, out := range g.Outputs {
		if out < 0 || int(out) >= len(g.Nodes) {
			return core.WithNode(out, core.ErrUnknownNode)
		}
		if seen[out] {
			return core.WithNode(out, core.ErrNoOutput)
		}
		seen[out] = true
	}
	return nil
}
