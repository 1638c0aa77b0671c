// Package simdops bundles the SIMD vector kernels shared by the block
// transform and the audio I/O layer. The transform works in float64; decoded
// PCM is normalised in float32 before it is widened.
package simdops

import (
	"github.com/tphakala/simd/f32"
	"github.com/tphakala/simd/f64"
)

// Float is the type constraint for supported floating-point types.
type Float interface {
	float32 | float64
}

// Ops holds the kernels for one precision.
type Ops[F Float] struct {
	// Dot computes Σ a[i]·b[i]. The slices must have equal length.
	Dot func(a, b []F) F

	// Interleave2 writes dst[2i] = a[i], dst[2i+1] = b[i].
	Interleave2 func(dst, a, b []F)

	// Sum returns Σ a[i].
	Sum func(a []F) F

	// Scale writes dst[i] = a[i]·s. dst may alias a.
	Scale func(dst, a []F, s F)
}

var (
	ops32 = Ops[float32]{Dot: f32.DotProductUnsafe, Interleave2: f32.Interleave2, Sum: f32.Sum, Scale: f32.Scale}
	ops64 = Ops[float64]{Dot: f64.DotProductUnsafe, Interleave2: f64.Interleave2, Sum: f64.Sum, Scale: f64.Scale}
)

// For returns the kernels for F.
func For[F Float]() *Ops[F] {
	if o, ok := any(&ops64).(*Ops[F]); ok {
		return o
	}
	return any(&ops32).(*Ops[F])
}

// Float32Ops returns the float32 kernels.
func Float32Ops() *Ops[float32] { return &ops32 }

// Float64Ops returns the float64 kernels.
func Float64Ops() *Ops[float64] { return &ops64 }

// Energy returns Σ x².
func Energy[F Float](x []F) F {
	return For[F]().Dot(x, x)
}

// Mean returns the arithmetic mean of x, 0 for an empty slice.
func Mean[F Float](x []F) F {
	if len(x) == 0 {
		return 0
	}
	return For[F]().Sum(x) / F(len(x))
}

// NormalizePCM converts integer samples to float32 and divides them by
// full, the magnitude of the most negative sample. offset is subtracted
// first (128 for unsigned 8-bit PCM, otherwise 0). dst must be at least as
// long as src.
func NormalizePCM(dst []float32, src []int, offset int, full float32) {
	dst = dst[:len(src)]
	for i, v := range src {
		dst[i] = float32(v - offset)
	}
	ops32.Scale(dst, dst, 1/full)
}
