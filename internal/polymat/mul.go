package polymat

import (
	"context"
	"fmt"

	vecmath "github.com/cwbudde/algo-vecmath"
	"golang.org/x/sync/errgroup"
)

// minParallelTaps is the smallest output tap range handed to one worker.
// Below this the goroutine overhead dominates the convolution work.
const minParallelTaps = 64

// Mul returns the polynomial matrix product C = A·B:
//
//	C[i,j,:] = Σₖ conv(A[i,k,:], B[k,j,:])
//
// The result has A.Taps()+B.Taps()-1 taps.
func Mul(a, b *Matrix) (*Matrix, error) {
	if err := checkProduct(a, b); err != nil {
		return nil, err
	}

	c := zeros(a.rows, b.cols, a.taps+b.taps-1)
	mulInto(c, a, b, a.taps >= b.taps)
	return c, nil
}

// MulParallel computes the same product as Mul, splitting the output tap
// axis across up to workers goroutines.
//
// Output tap n only depends on input taps n-(B.Taps()-1) … n of A, so each
// worker multiplies a slice of A widened by that overlap and writes a
// disjoint range of C. The result is bit-identical to Mul.
func MulParallel(ctx context.Context, a, b *Matrix, workers int) (*Matrix, error) {
	if err := checkProduct(a, b); err != nil {
		return nil, err
	}

	outTaps := a.taps + b.taps - 1
	if workers <= 1 || outTaps < 2*minParallelTaps {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return Mul(a, b)
	}

	chunk := max((outTaps+workers-1)/workers, minParallelTaps)
	longA := a.taps >= b.taps
	c := zeros(a.rows, b.cols, outTaps)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for start := 0; start < outTaps; start += chunk {
		end := min(start+chunk, outTaps)
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			lo := max(0, start-(b.taps-1))
			hi := min(a.taps, end)
			part := a.sliceTaps(lo, hi)

			tmp := zeros(a.rows, b.cols, part.taps+b.taps-1)
			mulInto(tmp, part, b, longA)

			for e := range c.rows * c.cols {
				dst := c.data[e*c.taps : (e+1)*c.taps]
				src := tmp.data[e*tmp.taps : (e+1)*tmp.taps]
				copy(dst[start:end], src[start-lo:end-lo])
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return c, nil
}

func checkProduct(a, b *Matrix) error {
	if a == nil || b == nil {
		return fmt.Errorf("%w: nil operand", ErrDimension)
	}
	if a.cols != b.rows {
		return fmt.Errorf("%w: cannot multiply %dx%d by %dx%d",
			ErrDimension, a.rows, a.cols, b.rows, b.cols)
	}
	return nil
}

// mulInto accumulates A·B into c. longA selects which operand's polynomials
// are treated as the long side of each convolution; it is fixed by the caller
// so that partial products accumulate in the same order as the full product.
func mulInto(c, a, b *Matrix, longA bool) {
	scratch := make([]float64, max(a.taps, b.taps))

	for i := range a.rows {
		for k := range a.cols {
			pa := a.entry(i, k)
			if isZero(pa) {
				continue
			}
			for j := range b.cols {
				pb := b.entry(k, j)
				if isZero(pb) {
					continue
				}
				if longA {
					convolveAdd(c.entry(i, j), pa, pb, scratch)
				} else {
					convolveAdd(c.entry(i, j), pb, pa, scratch)
				}
			}
		}
	}
}

// convolveAdd adds the full linear convolution of long and short to dst.
// dst must hold at least len(long)+len(short)-1 values.
func convolveAdd(dst, long, short, scratch []float64) {
	n := len(long)
	tmp := scratch[:n]

	for m, v := range short {
		if v == 0 {
			continue
		}
		vecmath.ScaleBlock(tmp, long, v)
		vecmath.AddBlockInPlace(dst[m:m+n], tmp)
	}
}

func isZero(p []float64) bool {
	for _, v := range p {
		if v != 0 {
			return false
		}
	}
	return true
}
