package mdct

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ReadCoefficients parses a coefficient table: whitespace-separated
// numbers, any number per line. Blank lines and text after '#' are ignored.
// The result is validated as a 1.5·N coefficient vector.
func ReadCoefficients(r io.Reader) ([]float64, error) {
	var fb []float64
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		text := scanner.Text()
		if i := strings.IndexByte(text, '#'); i >= 0 {
			text = text[:i]
		}
		for _, field := range strings.Fields(text) {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("%w: line %d: %w", ErrConfiguration, line, err)
			}
			fb = append(fb, v)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	if _, err := bandsFor(fb); err != nil {
		return nil, err
	}
	return fb, nil
}

// WriteCoefficients writes fb one value per line in a form ReadCoefficients
// reads back exactly.
func WriteCoefficients(w io.Writer, fb []float64) error {
	bw := bufio.NewWriter(w)
	for _, v := range fb {
		if _, err := bw.WriteString(strconv.FormatFloat(v, 'g', -1, 64)); err != nil {
			return err
		}
		if err := bw.WriteByte('\n'); err != nil {
			return err
		}
	}
	return bw.Flush()
}
