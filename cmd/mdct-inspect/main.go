// Command mdct-inspect prints the matrices and responses of a filter bank.
//
// Usage:
//
//	mdct-inspect -n 8                     # Fa, Fa⁻¹, D, Dinv of an 8-band sine bank
//	mdct-inspect -n 64 -window kbd -band 3 -matrices=false
//	mdct-inspect -window custom -coeffs fb.txt
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"math"
	"os"
	"strings"

	mdct "github.com/tphakala/go-mdct"
	"github.com/tphakala/go-mdct/internal/mathutil"
	"github.com/tphakala/go-mdct/internal/polymat"
	"github.com/tphakala/go-mdct/internal/window"
)

const (
	defaultBands  = 8
	defaultPoints = 512

	// Display limits
	maxMatrixBands = 16 // Larger matrices are summarised
	responseRows   = 16 // Rows of the window response table

	// Impulse responses are shown for the second block so that the whole
	// 2N-sample basis function lies inside the output.
	impulseBlock = 1
)

func main() {
	if err := run(os.Stdout, os.Args[1:]); err != nil {
		log.Fatal(err)
	}
}

func run(w io.Writer, args []string) error {
	fs := flag.NewFlagSet("mdct-inspect", flag.ContinueOnError)
	bands := fs.Int("n", defaultBands, "Number of subbands (even)")
	win := fs.String("window", "sine", "Window: sine, kbd, custom")
	alpha := fs.Float64("alpha", mdct.DefaultKBDAlpha, "KBD window shape parameter")
	atten := fs.Float64("atten", 0, "Design the KBD alpha for this stopband attenuation in dB (overrides -alpha)")
	coeffsPath := fs.String("coeffs", "", "Coefficient file for -window custom")
	band := fs.Int("band", 0, "Subband whose impulse response is printed")
	points := fs.Int("points", defaultPoints, "Frequency response resolution")
	matrices := fs.Bool("matrices", true, "Print Fa, Fa⁻¹, D and Dinv")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *atten > 0 {
		*alpha = mathutil.KBDAlpha(*atten)
	}

	bank, err := newBank(*win, *bands, *alpha, *coeffsPath)
	if err != nil {
		return err
	}
	if *band < 0 || *band >= bank.Bands() {
		return fmt.Errorf("band %d out of range [0, %d)", *band, bank.Bands())
	}

	printInfo(w, bank)
	if *matrices {
		if bank.Bands() > maxMatrixBands {
			fmt.Fprintf(w, "\n(matrices omitted for N > %d)\n", maxMatrixBands)
		} else {
			d, dinv := bank.DelayMatrices()
			printMatrix(w, "Fa (folding)", bank.Folding())
			printMatrix(w, "Fa⁻¹ (unfolding)", bank.Unfolding())
			printMatrix(w, "D (analysis delay)", d)
			printMatrix(w, "Dinv (synthesis delay)", dinv)
		}
	}

	h, err := impulseResponse(bank, *band)
	if err != nil {
		return err
	}
	printImpulse(w, *band, h)

	return printWindowResponse(w, bank, *win, *alpha, *points)
}

func newBank(name string, bands int, alpha float64, coeffsPath string) (*mdct.FilterBank, error) {
	win, err := mdct.ParseWindow(name)
	if err != nil {
		return nil, err
	}
	cfg := &mdct.Config{Bands: bands, Window: win}
	switch win {
	case mdct.WindowKBD:
		cfg.KBDAlpha = alpha
	case mdct.WindowCustom:
		f, err := os.Open(coeffsPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open coefficient file: %w", err)
		}
		defer func() { _ = f.Close() }()
		if cfg.Coefficients, err = mdct.ReadCoefficients(f); err != nil {
			return nil, err
		}
		cfg.Bands = 0
	}
	return mdct.New(cfg)
}

func printInfo(w io.Writer, bank *mdct.FilterBank) {
	info := bank.GetInfo()
	fmt.Fprintln(w, "=== Filter bank ===")
	fmt.Fprintf(w, "  Bands:            %d\n", info.Bands)
	fmt.Fprintf(w, "  Window:           %s\n", info.Window)
	fmt.Fprintf(w, "  Coefficients:     %d\n", info.Coefficients)
	fmt.Fprintf(w, "  Latency:          %d samples\n", info.Latency)
	fmt.Fprintf(w, "  Condition number: %.6g\n", info.ConditionNumber)
	fmt.Fprintf(w, "  Memory:           %d bytes\n", info.MemoryUsage)
	if info.SIMDEnabled {
		fmt.Fprintf(w, "  SIMD:             %s\n", info.SIMDType)
	}
}

// printMatrix prints a polynomial matrix, one polynomial in z⁻¹ per entry.
func printMatrix(w io.Writer, title string, m *polymat.Matrix) {
	fmt.Fprintf(w, "\n=== %s: %d×%d, %d tap(s) ===\n", title, m.Rows(), m.Cols(), m.Taps())
	for r := range m.Rows() {
		cells := make([]string, m.Cols())
		for c := range m.Cols() {
			cells[c] = fmt.Sprintf("%12s", formatPoly(m.Entry(r, c)))
		}
		fmt.Fprintln(w, strings.Join(cells, " "))
	}
}

// formatPoly renders taps as a polynomial in z⁻¹: "0.5", "z^-1", "0.3-0.2z^-1".
func formatPoly(taps []float64) string {
	var b strings.Builder
	for t, v := range taps {
		if v == 0 {
			continue
		}
		if b.Len() > 0 && v > 0 {
			b.WriteByte('+')
		}
		switch {
		case t == 0:
			fmt.Fprintf(&b, "%.4g", v)
		case v == 1:
			fmt.Fprintf(&b, "z^-%d", t)
		case v == -1:
			fmt.Fprintf(&b, "-z^-%d", t)
		default:
			fmt.Fprintf(&b, "%.4gz^-%d", v, t)
		}
	}
	if b.Len() == 0 {
		return "0"
	}
	return b.String()
}

// impulseResponse synthesises a single unit coefficient in band k and
// returns the non-zero span of the output.
func impulseResponse(bank *mdct.FilterBank, k int) ([]float64, error) {
	y, err := mdct.NewCoefficients(bank.Bands(), impulseBlock+1)
	if err != nil {
		return nil, err
	}
	y.Set(k, impulseBlock, 1)

	x, err := bank.Synthesize(y)
	if err != nil {
		return nil, err
	}
	first, last := -1, -1
	for i, v := range x {
		if math.Abs(v) > 1e-12 {
			if first < 0 {
				first = i
			}
			last = i
		}
	}
	if first < 0 {
		return nil, nil
	}
	return x[first : last+1], nil
}

func printImpulse(w io.Writer, band int, h []float64) {
	var energy float64
	for _, v := range h {
		energy += v * v
	}
	fmt.Fprintf(w, "\n=== Impulse response of band %d: %d samples, energy %.10f ===\n", band, len(h), energy)
	for i, v := range h {
		fmt.Fprintf(w, "  h[%3d] = %+.10f\n", i, v)
	}
}

func printWindowResponse(w io.Writer, bank *mdct.FilterBank, win string, alpha float64, points int) error {
	full, err := window.Mirror(bank.Coefficients())
	if err != nil {
		return err
	}
	resp := window.FrequencyResponse(full, points)
	dc := resp.Magnitude[0]

	fmt.Fprintf(w, "\n=== Window response (%d taps, %d points) ===\n", len(full), points)
	step := max(1, points/responseRows)
	for i := 0; i < points; i += step {
		fmt.Fprintf(w, "  f=%.4f  %8.2f dB\n", resp.Frequencies[i], window.MagnitudeDB(resp.Magnitude[i]/dc))
	}

	fmt.Fprintf(w, "  Peak sidelobe: %.2f dB\n", sidelobeLevel(resp.Magnitude))
	if strings.EqualFold(win, "kbd") {
		fmt.Fprintf(w, "  Kaiser model (α=%.3f): %.2f dB stopband attenuation\n", alpha, mathutil.KBDAttenuation(alpha))
	}
	return nil
}

// sidelobeLevel returns the largest magnitude past the first null, in dB
// relative to DC.
func sidelobeLevel(mag []float64) float64 {
	if len(mag) < 3 || mag[0] == 0 {
		return math.Inf(-1)
	}
	i := 1
	for i < len(mag) && mag[i] <= mag[i-1] {
		i++
	}
	peak := 0.0
	for ; i < len(mag); i++ {
		peak = max(peak, mag[i])
	}
	return window.MagnitudeDB(peak / mag[0])
}
