// Package dct4 implements the orthonormal type-IV discrete cosine transform
// used as the block transform of the filter bank.
//
//	X[k] = sqrt(2/N) · Σₙ x[n] · cos(π/N · (n+½) · (k+½))
//
// The transform matrix is symmetric and orthonormal, so it is its own
// inverse. Small sizes use the precomputed matrix; larger even sizes use an
// N/2-point complex FFT with pre- and post-twiddling.
package dct4

import (
	"errors"
	"fmt"
	"math"
	"math/cmplx"
	"sync"

	"gonum.org/v1/gonum/dsp/fourier"

	"github.com/tphakala/go-mdct/internal/polymat"
	"github.com/tphakala/go-mdct/internal/simdops"
)

// ErrSize is returned for a non-positive transform size or a buffer whose
// length does not match it.
var ErrSize = errors.New("dct4: size mismatch")

// fftThreshold is the smallest even size computed through the FFT.
// Below it the O(N²) matrix product is faster.
const fftThreshold = 64

// Transform is a precomputed DCT-IV of a fixed size.
// It is immutable and safe for concurrent use.
type Transform struct {
	n     int
	scale float64

	// basis[k*n : (k+1)*n] is row k of the transform matrix (direct path).
	basis []float64
	ops   *simdops.Ops[float64]

	// FFT path.
	pre  []complex128 // exp(-iπm/N), m < N/2
	post []complex128 // scale · exp(-iπ(k+¼)/N), k < N/2
	pool sync.Pool    // *fftScratch
}

type fftScratch struct {
	fft *fourier.CmplxFFT
	in  []complex128
	out []complex128
}

// New precomputes the size-n transform.
func New(n int) (*Transform, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: size %d", ErrSize, n)
	}

	t := &Transform{
		n:     n,
		scale: math.Sqrt(2 / float64(n)),
		ops:   simdops.Float64Ops(),
	}
	if t.useFFT() {
		t.initFFT()
	} else {
		t.initDirect()
	}
	return t, nil
}

func (t *Transform) useFFT() bool {
	return t.n >= fftThreshold && t.n%2 == 0
}

func (t *Transform) initDirect() {
	n := t.n
	t.basis = make([]float64, n*n)
	for k := range n {
		for i := range n {
			t.basis[k*n+i] = t.scale * math.Cos(math.Pi/float64(n)*(float64(i)+0.5)*(float64(k)+0.5))
		}
	}
}

func (t *Transform) initFFT() {
	n := t.n
	m := n / 2
	t.pre = make([]complex128, m)
	t.post = make([]complex128, m)
	for i := range m {
		t.pre[i] = cmplx.Exp(complex(0, -math.Pi*float64(i)/float64(n)))
		t.post[i] = complex(t.scale, 0) * cmplx.Exp(complex(0, -math.Pi*(float64(i)+0.25)/float64(n)))
	}
	t.pool.New = func() any {
		return &fftScratch{
			fft: fourier.NewCmplxFFT(m),
			in:  make([]complex128, m),
			out: make([]complex128, m),
		}
	}
}

// Size returns the transform length N.
func (t *Transform) Size() int { return t.n }

// Scale returns the normalisation constant sqrt(2/N).
func (t *Transform) Scale() float64 { return t.scale }

// MemoryUsage returns the size of the precomputed tables in bytes.
func (t *Transform) MemoryUsage() int64 {
	const bytesPerFloat64, bytesPerComplex128 = 8, 16
	return int64(len(t.basis))*bytesPerFloat64 + int64(len(t.pre)+len(t.post))*bytesPerComplex128
}

// Forward writes the DCT-IV of src into dst. dst and src must not overlap.
func (t *Transform) Forward(dst, src []float64) error {
	if len(dst) != t.n || len(src) != t.n {
		return fmt.Errorf("%w: size %d, got dst=%d src=%d", ErrSize, t.n, len(dst), len(src))
	}
	t.apply(dst, src)
	return nil
}

// Inverse writes the inverse DCT-IV of src into dst. The inverse is the
// transpose of the forward matrix, which is the forward matrix itself.
func (t *Transform) Inverse(dst, src []float64) error {
	return t.Forward(dst, src)
}

func (t *Transform) apply(dst, src []float64) {
	if t.basis != nil {
		for k := range t.n {
			dst[k] = t.ops.Dot(t.basis[k*t.n:(k+1)*t.n], src)
		}
		return
	}

	s, ok := t.pool.Get().(*fftScratch)
	if !ok {
		panic("dct4: unexpected scratch type")
	}
	defer t.pool.Put(s)

	// z[m] = x[2m] + i·x[N-1-2m], pre-twiddled.
	n := t.n
	for m := range s.in {
		s.in[m] = complex(src[2*m], src[n-1-2*m]) * t.pre[m]
	}
	s.fft.Coefficients(s.out, s.in)
	for k, v := range s.out {
		w := v * t.post[k]
		dst[2*k] = real(w)
		dst[n-1-2*k] = -imag(w)
	}
}

// ApplyRows transforms every row vector of every tap of m. The column count
// of m must equal the transform size. Blocks are transformed independently.
func (t *Transform) ApplyRows(m *polymat.Matrix) (*polymat.Matrix, error) {
	if m == nil {
		return nil, fmt.Errorf("%w: nil matrix", polymat.ErrDimension)
	}
	rows, cols, taps := m.Shape()
	if cols != t.n {
		return nil, fmt.Errorf("%w: matrix has %d columns, transform size is %d",
			polymat.ErrDimension, cols, t.n)
	}

	b, err := polymat.NewBuilder(rows, cols, taps)
	if err != nil {
		return nil, err
	}

	src := make([]float64, t.n)
	dst := make([]float64, t.n)
	for tap := range taps {
		for r := range rows {
			for c := range cols {
				src[c] = m.At(r, c, tap)
			}
			t.apply(dst, src)
			for c, v := range dst {
				b.Set(r, c, tap, v)
			}
		}
	}
	return b.Build(), nil
}
