package kernels

// Portable "SIMD" kernel bodies: manually unrolled and cache-blocked pure
// Go, grounded on the teacher's kernels/optimize.go (vectorAddUnrolled's 4x
// unroll, matMulOptimized's blockSize=32 cache blocking). The teacher
// declares real amd64 assembly symbols in kernels/asm.go, but the .s files
// backing them were never part of this pack, so its own portable-Go
// "optimized" fallbacks are the grounding for these bodies rather than the
// missing assembly. They are registered per architecture in
// simd_amd64.go/simd_arm64.go so the trace records the variant name the
// capability probe would actually pick on real AVX2/NEON hardware, even
// though the arithmetic here is identical to refAdd/refMul/refMatMul.

func unrolledAdd(a Args) {
	x, y, out := a.Inputs[0], a.Inputs[1], a.Output
	n := len(x)
	i := 0
	for ; i+4 <= n; i += 4 {
		out[i] = x[i] + y[i]
		out[i+1] = x[i+1] + y[i+1]
		out[i+2] = x[i+2] + y[i+2]
		out[i+3] = x[i+3] + y[i+3]
	}
	for ; i < n; i++ {
		out[i] = x[i] + y[i]
	}
}

func unrolledMul(a Args) {
	xShape, yShape := a.InShapes[0], a.InShapes[1]
	if !xShape.Equal(yShape) {
		refMul(a)
		return
	}
	x, y, out := a.Inputs[0], a.Inputs[1], a.Output
	n := len(x)
	i := 0
	for ; i+4 <= n; i += 4 {
		out[i] = x[i] * y[i]
		out[i+1] = x[i+1] * y[i+1]
		out[i+2] = x[i+2] * y[i+2]
		out[i+3] = x[i+3] * y[i+3]
	}
	for ; i < n; i++ {
		out[i] = x[i] * y[i]
	}
}

const matMulBlockSize = 32

// unrolledMatMul is cache-blocked in all three dimensions, identical
// numerically to refMatMul (same left-to-right k-accumulation per output
// cell, just reordered for locality — block order never changes which
// terms are summed for a given (i,j), only when).
func unrolledMatMul(a Args) {
	m, k := a.InShapes[0][0], a.InShapes[0][1]
	n := a.InShapes[1][1]
	lhs, rhs, out := a.Inputs[0], a.Inputs[1], a.Output
	for i := range out {
		out[i] = 0
	}
	bs := matMulBlockSize
	for ii := 0; ii < m; ii += bs {
		iEnd := min(ii+bs, m)
		for kk := 0; kk < k; kk += bs {
			kEnd := min(kk+bs, k)
			for jj := 0; jj < n; jj += bs {
				jEnd := min(jj+bs, n)
				for i := ii; i < iEnd; i++ {
					for p := kk; p < kEnd; p++ {
						lv := lhs[i*k+p]
						for j := jj; j < jEnd; j++ {
							out[i*n+j] += lv * rhs[p*n+j]
						}
					}
				}
			}
		}
	}
}
