package trace

import (
	"encoding/json"
	"sync"
	"time"
)

// baseCapacity is the recorder's fixed overhead beyond the 3-events-per-
// schedule-entry budget (GraphCompilation plus a handful of
// MemoryAllocation events for pinned buffers), per spec.md §4.7.
const baseCapacity = 8

// Recorder is the append-only event log owned by one engine. Its capacity
// is pre-sized so execute() performs no allocations (spec.md §4.7,
// §9's "do not allocate on the hot path" guidance).
type Recorder struct {
	events    []Event
	preserved int // event count to retain across ResetForExecute (compile events)
	clock     sync.Once
	epoch     time.Time
}

// NewRecorder allocates a recorder sized for a schedule of scheduleLen
// nodes: constant + 3*scheduleLen (NodeExecutionStart, KernelDispatch,
// NodeExecutionEnd per node).
func NewRecorder(scheduleLen int) *Recorder {
	return &Recorder{events: make([]Event, 0, baseCapacity+3*scheduleLen)}
}

func (r *Recorder) now() int64 {
	r.clock.Do(func() { r.epoch = time.Now() })
	return time.Since(r.epoch).Nanoseconds()
}

// Record appends one event with a monotonic timestamp.
func (r *Recorder) Record(kind Kind, nodeID int32, details string) {
	r.events = append(r.events, Event{
		Type:        kind,
		TimestampNS: r.now(),
		NodeID:      nodeID,
		Details:     details,
	})
}

// MarkCompilePoint freezes the current length as the prefix every
// subsequent ResetForExecute preserves — the GraphCompilation and
// MemoryAllocation events compile() emits (spec.md §4.6).
func (r *Recorder) MarkCompilePoint() {
	r.preserved = len(r.events)
}

// ResetForExecute truncates the log back to the compile-time prefix,
// discarding the previous execute's NodeExecution*/KernelDispatch events.
func (r *Recorder) ResetForExecute() {
	r.events = r.events[:r.preserved]
}

// Events returns the current event log. Callers must not mutate it.
func (r *Recorder) Events() []Event {
	return r.events
}

// MarshalJSON renders the trace in the wire format spec.md §6 defines for
// the analyzer/diff/viz collaborators: a bare JSON array of event objects.
func (r *Recorder) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.events)
}

// Snapshot encodes the current event log in the compact binary framing
// (see EncodeBinary) for on-disk trace storage, an alternative to the JSON
// wire format when size matters more than interoperability.
func (r *Recorder) Snapshot() ([]byte, error) {
	return EncodeBinary(r.events)
}
