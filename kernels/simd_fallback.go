//go:build !amd64 && !arm64

package kernels

// On architectures the capability probe never reports SIMD support for
// (capability.detect's default case leaves RuntimeSupportsSIMD false), no
// SIMD kernel is registered at all: Dispatch always falls through to the
// reference kernel. Mirrors kernels/asm_fallback.go's build-tag split,
// which keeps only the portable bodies on non-amd64 hosts.
