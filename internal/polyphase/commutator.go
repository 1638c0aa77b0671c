// Package polyphase converts between a flat sample stream and its N-way
// polyphase (blocked) representation.
//
// A blocked signal is a 1 × N × blocks polynomial row vector: tap m holds
// block m, and within a block the samples are stored in reverse arrival order
// (column n of block m is x[m*N + N-1-n]), the commutator convention the
// folding stage is laid out for.
package polyphase

import (
	"errors"
	"fmt"

	"github.com/tphakala/go-mdct/internal/polymat"
)

// ErrInvalidBands is returned for a non-positive band count.
var ErrInvalidBands = errors.New("number of bands must be positive")

// NumBlocks returns the number of length-n blocks needed to hold samples
// samples, including a zero-padded partial block. An empty signal still
// occupies one block.
func NumBlocks(samples, n int) int {
	if samples <= 0 {
		return 1
	}
	return (samples + n - 1) / n
}

// Blocken partitions x into consecutive length-n blocks.
func Blocken(x []float64, n int) (*polymat.Matrix, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidBands, n)
	}

	blocks := NumBlocks(len(x), n)
	b, err := polymat.NewBuilder(1, n, blocks)
	if err != nil {
		return nil, err
	}

	for t, v := range x {
		block := t / n
		b.Set(0, n-1-t%n, block, v)
	}
	return b.Build(), nil
}

// Unblock is the left inverse of Blocken. It returns Taps()*Cols() samples
// in original time order.
func Unblock(m *polymat.Matrix) ([]float64, error) {
	if m == nil {
		return nil, fmt.Errorf("%w: nil matrix", polymat.ErrDimension)
	}
	if m.Rows() != 1 {
		return nil, fmt.Errorf("%w: expected a polyphase row vector, got %d rows",
			polymat.ErrDimension, m.Rows())
	}

	n := m.Cols()
	blocks := m.Taps()
	x := make([]float64, n*blocks)

	for col := range n {
		entry := m.Entry(0, col)
		offset := n - 1 - col
		for block, v := range entry {
			x[block*n+offset] = v
		}
	}
	return x, nil
}
