// Package runtime ties the compiled schedule, arena, and kernel registry
// together into the engine facade (spec.md §4.6). Grounded on the
// teacher's runtime/arena.go (bump-style buffer, alignment rounding,
// Buffer()/WriteAt/ReadAt accessors) and runtime.go (NewEngine/Execute/
// ArenaBytes), adapted from fixed named regions and a live Sublate table
// to the schedule package's static per-node offset table.
package runtime

import (
	"fmt"
	"unsafe"

	"github.com/sulkysubject37/vectoria/core"
	"github.com/sulkysubject37/vectoria/schedule"
)

// Arena is the single contiguous, 64-byte-aligned allocation backing every
// node's buffer for one compiled engine (spec.md §4.3). Unlike the
// teacher's Arena, there is no bump allocator here: schedule.Plan already
// computed the full node->offset table ahead of time, so the arena is
// purely a fixed buffer plus that table.
type Arena struct {
	buffer []byte
	layout map[int32]schedule.BufferSpan
}

// NewArena allocates a zero-initialised, cache-line-aligned buffer sized
// to plan.ArenaSize (spec.md §4.3: "Arena memory is zero-initialised on
// creation to make uninitialised-read bugs reproducible" — core.AlignedBytes
// already zero-fills via make()).
func NewArena(plan *schedule.Schedule) *Arena {
	return &Arena{
		buffer: core.AlignedBytes(plan.ArenaSize),
		layout: plan.Layout,
	}
}

// Bytes returns the raw arena slice backing nodeID.
func (a *Arena) Bytes(nodeID int32) ([]byte, error) {
	span, ok := a.layout[nodeID]
	if !ok {
		return nil, fmt.Errorf("vectoria: node %d has no arena buffer", nodeID)
	}
	return a.buffer[span.Offset : span.Offset+span.Size], nil
}

// Float32 reinterprets nodeID's arena slice as a []float32 of numElements,
// via the same unsafe.Pointer reinterpretation technique core.AlignedBytes'
// caller-facing API already establishes for this codebase.
func (a *Arena) Float32(nodeID int32, numElements int) ([]float32, error) {
	raw, err := a.Bytes(nodeID)
	if err != nil {
		return nil, err
	}
	if numElements == 0 {
		return nil, nil
	}
	return unsafe.Slice((*float32)(unsafe.Pointer(&raw[0])), numElements), nil
}

// TotalSize returns the arena's total byte capacity.
func (a *Arena) TotalSize() int {
	return len(a.buffer)
}

// Span returns nodeID's (offset, size) within the arena.
func (a *Arena) Span(nodeID int32) (schedule.BufferSpan, bool) {
	span, ok := a.layout[nodeID]
	return span, ok
}
