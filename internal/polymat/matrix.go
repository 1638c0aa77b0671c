// Package polymat implements matrices whose entries are polynomials in the
// delay operator z⁻¹.
//
// A Matrix has shape rows × cols × taps, where tap t holds the coefficient of
// z⁻ᵗ of every entry. Matrices are immutable once built, so a single instance
// can be shared by any number of goroutines.
package polymat

import (
	"errors"
	"fmt"
	"math"
)

// ErrDimension is returned when matrix shapes are incompatible or invalid.
var ErrDimension = errors.New("polynomial matrix dimension mismatch")

// Matrix is an immutable polynomial matrix.
//
// Storage is entry-major: the taps of entry (r, c) are contiguous at
// data[(r*cols+c)*taps : (r*cols+c+1)*taps]. This keeps every polynomial a
// plain slice, which is what the convolution kernels operate on.
type Matrix struct {
	rows int
	cols int
	taps int
	data []float64
}

// New creates a matrix from entry-major data. The data is copied.
func New(rows, cols, taps int, data []float64) (*Matrix, error) {
	if err := checkShape(rows, cols, taps); err != nil {
		return nil, err
	}
	if len(data) != rows*cols*taps {
		return nil, fmt.Errorf("%w: %dx%dx%d matrix needs %d values, got %d",
			ErrDimension, rows, cols, taps, rows*cols*taps, len(data))
	}

	m := zeros(rows, cols, taps)
	copy(m.data, data)
	return m, nil
}

// Identity returns the n × n single-tap identity matrix.
func Identity(n int) (*Matrix, error) {
	b, err := NewBuilder(n, n, 1)
	if err != nil {
		return nil, err
	}
	for i := range n {
		b.Set(i, i, 0, 1)
	}
	return b.Build(), nil
}

func checkShape(rows, cols, taps int) error {
	if rows <= 0 || cols <= 0 || taps <= 0 {
		return fmt.Errorf("%w: invalid shape %dx%dx%d", ErrDimension, rows, cols, taps)
	}
	return nil
}

func zeros(rows, cols, taps int) *Matrix {
	return &Matrix{
		rows: rows,
		cols: cols,
		taps: taps,
		data: make([]float64, rows*cols*taps),
	}
}

// Rows returns the number of rows.
func (m *Matrix) Rows() int { return m.rows }

// Cols returns the number of columns.
func (m *Matrix) Cols() int { return m.cols }

// Taps returns the number of polynomial coefficients per entry.
func (m *Matrix) Taps() int { return m.taps }

// Degree returns the polynomial degree in z⁻¹ (taps - 1).
func (m *Matrix) Degree() int { return m.taps - 1 }

// Shape returns rows, cols and taps.
func (m *Matrix) Shape() (rows, cols, taps int) {
	return m.rows, m.cols, m.taps
}

// At returns the coefficient of z⁻ᵗ of entry (r, c).
// Taps outside [0, Taps()) are zero.
func (m *Matrix) At(r, c, t int) float64 {
	if t < 0 || t >= m.taps {
		return 0
	}
	return m.data[(r*m.cols+c)*m.taps+t]
}

// Entry returns a copy of the polynomial at (r, c).
func (m *Matrix) Entry(r, c int) []float64 {
	out := make([]float64, m.taps)
	copy(out, m.entry(r, c))
	return out
}

// Tap returns the coefficients of z⁻ᵗ as a row-major rows × cols slice.
func (m *Matrix) Tap(t int) []float64 {
	out := make([]float64, m.rows*m.cols)
	if t < 0 || t >= m.taps {
		return out
	}
	for r := range m.rows {
		for c := range m.cols {
			out[r*m.cols+c] = m.data[(r*m.cols+c)*m.taps+t]
		}
	}
	return out
}

// Data returns a copy of the entry-major backing data.
func (m *Matrix) Data() []float64 {
	out := make([]float64, len(m.data))
	copy(out, m.data)
	return out
}

// SliceTaps returns the sub-matrix holding taps [start, end).
func (m *Matrix) SliceTaps(start, end int) (*Matrix, error) {
	if start < 0 || end > m.taps || start >= end {
		return nil, fmt.Errorf("%w: tap range [%d, %d) outside [0, %d)",
			ErrDimension, start, end, m.taps)
	}
	return m.sliceTaps(start, end), nil
}

func (m *Matrix) sliceTaps(start, end int) *Matrix {
	out := zeros(m.rows, m.cols, end-start)
	for e := range m.rows * m.cols {
		copy(out.data[e*out.taps:(e+1)*out.taps], m.data[e*m.taps+start:e*m.taps+end])
	}
	return out
}

// entry returns the backing slice of entry (r, c). Callers must not modify
// it unless they own the matrix.
func (m *Matrix) entry(r, c int) []float64 {
	off := (r*m.cols + c) * m.taps
	return m.data[off : off+m.taps]
}

// InDelta reports whether m and o have the same shape and all coefficients
// differ by at most delta. Missing trailing taps are treated as zero.
func (m *Matrix) InDelta(o *Matrix, delta float64) bool {
	if m == nil || o == nil {
		return m == o
	}
	if m.rows != o.rows || m.cols != o.cols {
		return false
	}
	taps := max(m.taps, o.taps)
	for r := range m.rows {
		for c := range m.cols {
			for t := range taps {
				if math.Abs(m.At(r, c, t)-o.At(r, c, t)) > delta {
					return false
				}
			}
		}
	}
	return true
}

// Builder assembles a Matrix coefficient by coefficient.
// A Builder must not be used after Build.
type Builder struct {
	m *Matrix
}

// NewBuilder returns a builder for a zero rows × cols × taps matrix.
func NewBuilder(rows, cols, taps int) (*Builder, error) {
	if err := checkShape(rows, cols, taps); err != nil {
		return nil, err
	}
	return &Builder{m: zeros(rows, cols, taps)}, nil
}

// Set assigns the coefficient of z⁻ᵗ of entry (r, c).
func (b *Builder) Set(r, c, t int, v float64) {
	b.m.data[(r*b.m.cols+c)*b.m.taps+t] = v
}

// Build returns the finished matrix.
func (b *Builder) Build() *Matrix {
	m := b.m
	b.m = nil
	return m
}
