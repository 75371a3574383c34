// Package capability probes the host architecture and SIMD support once,
// process-wide (spec.md §4.5). The kernel dispatcher consults the
// resulting Snapshot to decide reference-vs-SIMD on every node.
package capability

import (
	"os"
	"runtime"
	"sync"

	"golang.org/x/sys/cpu"
)

// Architecture tags the host's instruction set family.
type Architecture uint8

const (
	ArchUnknown Architecture = iota
	ArchX86_64
	ArchARM64
)

func (a Architecture) String() string {
	switch a {
	case ArchX86_64:
		return "X86_64"
	case ArchARM64:
		return "ARM64"
	default:
		return "Unknown"
	}
}

// Snapshot is the immutable result of the one-time probe. Readers take a
// copy; the only mutation in the package is the sync.Once initialisation.
type Snapshot struct {
	Arch                Architecture
	CompiledWithSIMD    bool
	RuntimeSupportsSIMD bool
}

// String renders a short human-readable summary, e.g. "ARM64 simd=compiled+runtime".
func (s Snapshot) String() string {
	status := "none"
	switch {
	case s.CompiledWithSIMD && s.RuntimeSupportsSIMD:
		status = "compiled+runtime"
	case s.CompiledWithSIMD:
		status = "compiled-only"
	case s.RuntimeSupportsSIMD:
		status = "runtime-only"
	}
	return s.Arch.String() + " simd=" + status
}

// simdCompiled reports whether this binary was built with SIMD kernel
// variants at all; kept as a package-level const so it can be flipped by a
// future build tag without touching the probe logic.
const simdCompiled = true

// DisableSIMDEnv forces reference-only dispatch regardless of the probe
// result, for cross-machine determinism testing (spec.md §4.5).
const DisableSIMDEnv = "VECTORIA_DISABLE_SIMD"

var (
	once     sync.Once
	snapshot Snapshot
)

// Probe returns the process-wide capability snapshot, computing it on the
// first call and caching it thereafter.
func Probe() Snapshot {
	once.Do(func() {
		snapshot = detect()
	})
	return snapshot
}

func detect() Snapshot {
	s := Snapshot{CompiledWithSIMD: simdCompiled}

	switch runtime.GOARCH {
	case "amd64":
		s.Arch = ArchX86_64
		s.RuntimeSupportsSIMD = cpu.X86.HasAVX2
	case "arm64":
		s.Arch = ArchARM64
		s.RuntimeSupportsSIMD = cpu.ARM64.HasASIMD
	default:
		s.Arch = ArchUnknown
		s.RuntimeSupportsSIMD = false
	}

	if os.Getenv(DisableSIMDEnv) != "" {
		s.RuntimeSupportsSIMD = false
	}
	return s
}

// SIMDAvailable is shorthand for "both compiled and supported at runtime",
// the first half of the dispatcher's rule (spec.md §4.4).
func (s Snapshot) SIMDAvailable() bool {
	return s.CompiledWithSIMD && s.RuntimeSupportsSIMD
}
