package capability

import (
	"testing"
)

func TestProbeIsIdempotent(t *testing.T) {
	t.Parallel()
	a := Probe()
	b := Probe()
	if a != b {
		t.Errorf("Probe() must be stable across calls: %v != %v", a, b)
	}
}

func TestDisableSIMDEnvForcesReference(t *testing.T) {
	t.Setenv(DisableSIMDEnv, "1")
	s := detect()
	if s.RuntimeSupportsSIMD {
		t.Error("VECTORIA_DISABLE_SIMD=1 must force RuntimeSupportsSIMD=false")
	}
	if s.SIMDAvailable() {
		t.Error("SIMDAvailable() must be false when disabled")
	}
}

func TestArchitectureString(t *testing.T) {
	t.Parallel()
	if ArchX86_64.String() != "X86_64" {
		t.Errorf("ArchX86_64.String() = %q", ArchX86_64.String())
	}
	if ArchUnknown.String() != "Unknown" {
		t.Errorf("ArchUnknown.String() = %q", ArchUnknown.String())
	}
}
