// Package lapped builds the polynomial matrices of a lapped transform: the
// folding (windowing) matrix and the per-subband delay matrices.
package lapped

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/tphakala/go-mdct/internal/polymat"
)

// Errors returned by the matrix builders.
var (
	// ErrConfiguration indicates an invalid band count or coefficient vector.
	ErrConfiguration = errors.New("invalid filter bank configuration")

	// ErrNumerical indicates a folding matrix that cannot be inverted.
	ErrNumerical = errors.New("folding matrix is not invertible")
)

// maxConditionNumber bounds the condition number accepted for the zero-tap
// slice of the folding matrix. Beyond it the synthesis side keeps fewer than
// four significant digits of float64.
const maxConditionNumber = 1e12

// BandsFor returns the band count N implied by a coefficient vector of the
// given length, or an error when the length is not 3N/2 for an even N > 0.
func BandsFor(length int) (int, error) {
	if length <= 0 || length%3 != 0 {
		return 0, fmt.Errorf("%w: coefficient count %d is not 1.5*N", ErrConfiguration, length)
	}
	n := length / 3 * 2
	if err := ValidateBands(n); err != nil {
		return 0, err
	}
	return n, nil
}

// ValidateBands checks that n is positive and even.
func ValidateBands(n int) error {
	if n <= 0 || n%2 != 0 {
		return fmt.Errorf("%w: number of bands must be positive and even, got %d", ErrConfiguration, n)
	}
	return nil
}

// Folding builds the N × N folding matrix Fa from fb, len(fb) = 1.5·N.
//
// With h = N/2 the matrix is a "diamond" of four anti-/diagonals:
//
//	F[i][h-1-i]   = fb[i]                             upper-left anti-diagonal
//	F[h+i][i]     = fb[h+i]                           lower-left diagonal
//	F[i][h+i]     = fb[N+i]                           upper-right diagonal
//	F[N-1-k][h+k] = -(1 - fb[N+k]·fb[N-1-k]) / fb[k]  lower-right anti-diagonal
//
// Rows {k, N-1-k} and columns {h-1-k, h+k} form independent 2×2 butterflies
// with determinant -1, so Fa is invertible whenever fb[0:h] has no zeros.
// For a symmetric Princen-Bradley window w of length 2N, fb = w[0:1.5N]
// and the derived entries equal the window tail w[2N-1-k].
//
// All delays of the lapped transform live in the delay matrix, so Fa has a
// single tap.
func Folding(fb []float64) (*polymat.Matrix, error) {
	n, err := BandsFor(len(fb))
	if err != nil {
		return nil, err
	}

	h := n / 2
	for i, v := range fb {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("%w: coefficient %d is not finite", ErrNumerical, i)
		}
	}
	for k := range h {
		if fb[k] == 0 {
			return nil, fmt.Errorf("%w: coefficient %d is zero", ErrNumerical, k)
		}
	}

	b, err := polymat.NewBuilder(n, n, 1)
	if err != nil {
		return nil, err
	}
	for i := range h {
		b.Set(i, h-1-i, 0, fb[i])
		b.Set(h+i, i, 0, fb[h+i])
		b.Set(i, h+i, 0, fb[n+i])
	}
	for k := range h {
		b.Set(n-1-k, h+k, 0, -(1-fb[n+k]*fb[n-1-k])/fb[k])
	}
	return b.Build(), nil
}

// InvertZeroTap inverts the zero-tap slice of f and returns it as a
// single-tap matrix. Only the zero tap is considered: this is exact for the
// memoryless folding matrix built by Folding.
func InvertZeroTap(f *polymat.Matrix) (*polymat.Matrix, error) {
	if f == nil {
		return nil, fmt.Errorf("%w: nil matrix", polymat.ErrDimension)
	}
	if f.Rows() != f.Cols() {
		return nil, fmt.Errorf("%w: cannot invert a %dx%d matrix",
			polymat.ErrDimension, f.Rows(), f.Cols())
	}

	n := f.Rows()
	slice := mat.NewDense(n, n, f.Tap(0))

	if cond := mat.Cond(slice, 2); math.IsInf(cond, 1) || math.IsNaN(cond) || cond > maxConditionNumber {
		return nil, fmt.Errorf("%w: condition number %g", ErrNumerical, cond)
	}

	var inv mat.Dense
	if err := inv.Inverse(slice); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNumerical, err)
	}

	return polymat.New(n, n, 1, inv.RawMatrix().Data)
}

// Condition returns the 2-norm condition number of the zero-tap slice of a
// square matrix, +Inf when it is singular.
func Condition(f *polymat.Matrix) (float64, error) {
	if f == nil || f.Rows() != f.Cols() {
		return 0, fmt.Errorf("%w: condition number needs a square matrix", polymat.ErrDimension)
	}
	n := f.Rows()
	return mat.Cond(mat.NewDense(n, n, f.Tap(0)), 2), nil
}
