package mdct

import (
	"fmt"
	"math"
)

// Coefficients holds subband coefficients: Bands() rows, one per subband,
// and Blocks() columns, one per time block. Storage is row-major.
type Coefficients struct {
	bands  int
	blocks int
	data   []float64
}

// NewCoefficients creates a zero coefficient grid.
func NewCoefficients(bands, blocks int) (*Coefficients, error) {
	if bands <= 0 || blocks <= 0 {
		return nil, fmt.Errorf("%w: invalid coefficient shape %dx%d", ErrDimension, bands, blocks)
	}
	return &Coefficients{bands: bands, blocks: blocks, data: make([]float64, bands*blocks)}, nil
}

// CoefficientsFromRows creates a grid from one slice per subband. All rows
// must have the same length.
func CoefficientsFromRows(rows [][]float64) (*Coefficients, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, fmt.Errorf("%w: empty coefficient grid", ErrDimension)
	}
	c, err := NewCoefficients(len(rows), len(rows[0]))
	if err != nil {
		return nil, err
	}
	for k, row := range rows {
		if len(row) != c.blocks {
			return nil, fmt.Errorf("%w: row %d has %d blocks, want %d", ErrDimension, k, len(row), c.blocks)
		}
		copy(c.data[k*c.blocks:], row)
	}
	return c, nil
}

// Bands returns the number of subbands (rows).
func (c *Coefficients) Bands() int { return c.bands }

// Blocks returns the number of time blocks (columns).
func (c *Coefficients) Blocks() int { return c.blocks }

// Shape returns bands and blocks.
func (c *Coefficients) Shape() (bands, blocks int) { return c.bands, c.blocks }

// At returns the coefficient of subband k in block m.
func (c *Coefficients) At(k, m int) float64 { return c.data[k*c.blocks+m] }

// Set assigns the coefficient of subband k in block m.
func (c *Coefficients) Set(k, m int, v float64) { c.data[k*c.blocks+m] = v }

// Row returns a copy of subband k over all blocks.
func (c *Coefficients) Row(k int) []float64 {
	out := make([]float64, c.blocks)
	copy(out, c.data[k*c.blocks:(k+1)*c.blocks])
	return out
}

// Block returns a copy of all subbands of block m.
func (c *Coefficients) Block(m int) []float64 {
	out := make([]float64, c.bands)
	for k := range c.bands {
		out[k] = c.data[k*c.blocks+m]
	}
	return out
}

// Data returns the row-major backing slice. Modifying it modifies c.
func (c *Coefficients) Data() []float64 { return c.data }

// Clone returns a deep copy.
func (c *Coefficients) Clone() *Coefficients {
	data := make([]float64, len(c.data))
	copy(data, c.data)
	return &Coefficients{bands: c.bands, blocks: c.blocks, data: data}
}

// Quantize rounds every coefficient to a uniform grid of the given step,
// in place. A non-positive step leaves c unchanged.
func (c *Coefficients) Quantize(step float64) {
	if step <= 0 {
		return
	}
	for i, v := range c.data {
		c.data[i] = step * math.Round(v/step)
	}
}
