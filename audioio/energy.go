package audioio

import (
	"fmt"
	"math"

	vecmath "github.com/cwbudde/algo-vecmath"
	"gonum.org/v1/gonum/dsp/fourier"

	"github.com/tphakala/go-mdct/internal/simdops"
)

// silenceThreshold is the mean envelope below which a window is left unscaled.
const silenceThreshold = 1e-4

// Clip limits every sample of x to [lo, hi] in place and returns x.
func Clip(x []float64, lo, hi float64) []float64 {
	for i, v := range x {
		x[i] = clamp(v, lo, hi)
	}
	return x
}

func clamp(v, lo, hi float64) float64 {
	switch {
	case v < lo:
		return lo
	case v > hi:
		return hi
	default:
		return v
	}
}

// Envelope returns the magnitude of the analytic signal of x, computed in
// one FFT over the whole input.
func Envelope(x []float64) []float64 {
	n := len(x)
	if n == 0 {
		return nil
	}

	fft := fourier.NewCmplxFFT(n)
	seq := make([]complex128, n)
	for i, v := range x {
		seq[i] = complex(v, 0)
	}
	coeff := fft.Coefficients(nil, seq)

	// Keep DC (and Nyquist for even n), double positive, drop negative frequencies.
	for k := 1; k < n; k++ {
		switch {
		case 2*k < n:
			coeff[k] *= 2
		case 2*k == n:
		default:
			coeff[k] = 0
		}
	}
	fft.Sequence(seq, coeff)

	re := make([]float64, n)
	im := make([]float64, n)
	inv := 1 / float64(n)
	for i, c := range seq {
		re[i] = real(c) * inv
		im[i] = imag(c) * inv
	}
	out := make([]float64, n)
	vecmath.Magnitude(out, re, im)
	return out
}

// NormaliseEnergy scales the quieter of two signals so that both carry the
// same envelope energy, then clips both to [-1, 1].
//
// With wsz == 0 the whole signals are compared through the mean squared
// envelope and the quieter one is scaled by the square root of the energy
// ratio, an amplitude ratio, not by the energy ratio itself. Otherwise both
// are zero-padded to a common multiple of wsz and compared window by window
// through the mean envelope; windows where either side is silent are left
// unscaled. The outputs keep the input lengths.
func NormaliseEnergy(x1, x2 []float64, wsz int) (y1, y2 []float64, err error) {
	if wsz < 0 {
		return nil, nil, fmt.Errorf("%w: %d", ErrInvalidWindow, wsz)
	}
	y1 = append([]float64(nil), x1...)
	y2 = append([]float64(nil), x2...)
	if len(x1) == 0 || len(x2) == 0 {
		return Clip(y1, -1, 1), Clip(y2, -1, 1), nil
	}

	if wsz == 0 {
		e1 := meanSquare(Envelope(x1))
		e2 := meanSquare(Envelope(x2))
		if e1 > 0 && e2 > 0 {
			matchLevel(y1, y2, math.Sqrt(e1), math.Sqrt(e2))
		}
		return Clip(y1, -1, 1), Clip(y2, -1, 1), nil
	}

	n := max(len(x1), len(x2))
	n = (n + wsz - 1) / wsz * wsz
	p1 := make([]float64, n)
	p2 := make([]float64, n)
	copy(p1, x1)
	copy(p2, x2)

	for pin := 0; pin < n; pin += wsz {
		w1 := p1[pin : pin+wsz]
		w2 := p2[pin : pin+wsz]
		a1 := simdops.Mean(Envelope(w1))
		a2 := simdops.Mean(Envelope(w2))
		if a1 > silenceThreshold && a2 > silenceThreshold {
			matchLevel(w1, w2, a1, a2)
		}
		Clip(w1, -1, 1)
		Clip(w2, -1, 1)
	}

	copy(y1, p1)
	copy(y2, p2)
	return y1, y2, nil
}

// matchLevel raises the quieter of a and b by the level ratio.
func matchLevel(a, b []float64, levelA, levelB float64) {
	ops := simdops.Float64Ops()
	switch {
	case levelA > levelB:
		ops.Scale(b, b, levelA/levelB)
	case levelB > levelA:
		ops.Scale(a, a, levelB/levelA)
	}
}

func meanSquare(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	return simdops.Energy(x) / float64(len(x))
}
