// Package trace records the append-only structured event log an engine
// produces during compile and execute (spec.md §4.7). Grounded on
// inference-sim's sim/trace package (typed record slices, a
// New*Trace-style constructor), generalized to one homogeneous Event slice
// since an engine's trace is a single ordered stream, not per-kind slices.
package trace

// Kind tags the five event types spec.md §3/§4.7 enumerate. No other kind
// is ever produced; a JSON consumer seeing anything else should reject it.
type Kind string

const (
	GraphCompilation   Kind = "GraphCompilation"
	MemoryAllocation   Kind = "MemoryAllocation"
	NodeExecutionStart Kind = "NodeExecutionStart"
	NodeExecutionEnd   Kind = "NodeExecutionEnd"
	KernelDispatch     Kind = "KernelDispatch"
)

// Event is one observable action during compile or execute. NodeID is -1
// when the event has no associated node (GraphCompilation).
type Event struct {
	Type       Kind   `json:"type"`
	TimestampNS int64  `json:"timestamp_ns"`
	NodeID     int32  `json:"node_id"`
	Details    string `json:"details"`
}

// Equal compares two events the way the diff tool in spec.md §6 does:
// type, node_id, and details must match; timestamps are never compared.
func (e Event) Equal(other Event) bool {
	return e.Type == other.Type && e.NodeID == other.NodeID && e.Details == other.Details
}
