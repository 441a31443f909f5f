// Package cpu implements the matrix kernels behind the tensor package.
//
// Two kernel families are provided: a straightforward scalar triple loop
// and a cache-blocked, goroutine-parallel variant. The blocked variant is
// selected at package init when the CPU reports AVX2 (wide FMA units make
// the blocked inner loops worthwhile); otherwise the scalar kernels run.
// Detection uses github.com/klauspost/cpuid.
package cpu

import (
	"github.com/klauspost/cpuid/v2"

	"github.com/rehearsal-ml/rehearsal/internal/parallel"
)

// blockSize is the tile edge for the blocked kernels. Chosen so three
// float32 tiles fit comfortably in L1.
const blockSize = 64

var (
	blocked bool
	par     parallel.Config
)

func init() {
	blocked = cpuid.CPU.Supports(cpuid.AVX2)
	par = parallel.DefaultConfig()
}

// KernelName reports which kernel family is active, for logging.
func KernelName() string {
	if blocked {
		return "blocked-avx2"
	}
	return "scalar"
}

// MatMul computes out = a @ b where a is [m, k], b is [k, n] and out is
// [m, n], all row-major. out must not alias a or b.
func MatMul(a, b, out []float32, m, k, n int) {
	for i := range out {
		out[i] = 0
	}
	if blocked {
		matMulBlocked(a, b, out, m, k, n)
		return
	}
	for i := 0; i < m; i++ {
		for p := 0; p < k; p++ {
			av := a[i*k+p]
			if av == 0 {
				continue
			}
			bRow := b[p*n : p*n+n]
			oRow := out[i*n : i*n+n]
			for j := range bRow {
				oRow[j] += av * bRow[j]
			}
		}
	}
}

// matMulBlocked tiles the i dimension across goroutines and the p/j
// dimensions into L1-sized blocks.
func matMulBlocked(a, b, out []float32, m, k, n int) {
	parallel.ForRanges(m, func(iLo, iHi int) {
		for pb := 0; pb < k; pb += blockSize {
			pe := min(pb+blockSize, k)
			for jb := 0; jb < n; jb += blockSize {
				je := min(jb+blockSize, n)
				for i := iLo; i < iHi; i++ {
					oRow := out[i*n : i*n+n]
					for p := pb; p < pe; p++ {
						av := a[i*k+p]
						if av == 0 {
							continue
						}
						bRow := b[p*n : p*n+n]
						for j := jb; j < je; j++ {
							oRow[j] += av * bRow[j]
						}
					}
				}
			}
		}
	}, par)
}

// MatMulTransB computes out = a @ b.T where a is [m, k], b is [n, k] and
// out is [m, n]. This is the forward path of a fully connected layer with
// weights stored [out_features, in_features].
func MatMulTransB(a, b, out []float32, m, k, n int) {
	run := func(iLo, iHi int) {
		for i := iLo; i < iHi; i++ {
			aRow := a[i*k : i*k+k]
			for j := 0; j < n; j++ {
				bRow := b[j*k : j*k+k]
				var sum float32
				for p := range aRow {
					sum += aRow[p] * bRow[p]
				}
				out[i*n+j] = sum
			}
		}
	}
	if blocked {
		parallel.ForRanges(m, run, par)
		return
	}
	run(0, m)
}

// MatMulTransA computes out = a.T @ b where a is [k, m], b is [k, n] and
// out is [m, n]. This is the weight-gradient path of a fully connected
// layer: dW = dY.T @ X.
func MatMulTransA(a, b, out []float32, m, k, n int) {
	for i := range out {
		out[i] = 0
	}
	for p := 0; p < k; p++ {
		aRow := a[p*m : p*m+m]
		bRow := b[p*n : p*n+n]
		for i, av := range aRow {
			if av == 0 {
				continue
			}
			oRow := out[i*n : i*n+n]
			for j := range bRow {
				oRow[j] += av * bRow[j]
			}
		}
	}
}
