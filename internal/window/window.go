// Package window designs the lapped-transform windows whose first 1.5·N
// samples form the filter bank coefficient vector.
package window

import (
	"errors"
	"fmt"
	"math"

	"github.com/tphakala/simd/f64"

	"github.com/tphakala/go-mdct/internal/mathutil"
)

// ErrBands is returned for a band count that is not positive and even.
var ErrBands = errors.New("window: number of bands must be positive and even")

const (
	windowNormalizationFactor = 2.0

	// DefaultKBDAlpha is the Kaiser-Bessel-derived α used by AAC long blocks.
	DefaultKBDAlpha = 4.0

	defaultResponsePoints = 512
)

func checkBands(n int) error {
	if n <= 0 || n%2 != 0 {
		return fmt.Errorf("%w: %d", ErrBands, n)
	}
	return nil
}

// KaiserWindow generates a Kaiser window of the specified length and β parameter.
//
//	w[n] = I₀(β · sqrt(1 - ((n - α)/α)²)) / I₀(β),  α = (length-1)/2
//
// The window is symmetric, w[i] = w[length-1-i], with a peak of 1.
func KaiserWindow(length int, beta float64) []float64 {
	if length < 1 {
		return []float64{}
	}

	window := make([]float64, length)
	if length == 1 {
		window[0] = 1
		return window
	}

	alpha := float64(length-1) / windowNormalizationFactor
	logI0Beta := mathutil.LogBesselI0(beta)
	i0Beta := math.Exp(logI0Beta)

	for n := range length {
		x := (float64(n) - alpha) / alpha
		arg := beta * math.Sqrt(max(0, 1.0-x*x))
		if math.IsInf(i0Beta, 1) {
			// Very sharp kernels: take the ratio in the log domain.
			window[n] = math.Exp(mathutil.LogBesselI0(arg) - logI0Beta)
			continue
		}
		window[n] = mathutil.BesselI0(arg) / i0Beta
	}

	return window
}

// Sine returns the full length-2N sine window
//
//	w[n] = sin(π/(2N) · (n + ½)).
func Sine(n int) ([]float64, error) {
	if err := checkBands(n); err != nil {
		return nil, err
	}
	w := make([]float64, 2*n)
	for i := range w {
		w[i] = math.Sin(math.Pi / float64(2*n) * (float64(i) + 0.5))
	}
	return w, nil
}

// KBD returns the full length-2N Kaiser-Bessel-derived window with shape
// parameter alpha (Kaiser β = π·alpha):
//
//	w[n] = sqrt(Σ_{j≤n} k[j] / Σ_{j≤N} k[j]),  n < N
//	w[2N-1-n] = w[n]
//
// where k is the length-(N+1) Kaiser window.
func KBD(n int, alpha float64) ([]float64, error) {
	if err := checkBands(n); err != nil {
		return nil, err
	}
	if alpha < 0 || math.IsNaN(alpha) || math.IsInf(alpha, 0) {
		return nil, fmt.Errorf("window: invalid KBD alpha %g", alpha)
	}

	kaiser := KaiserWindow(n+1, math.Pi*alpha)
	total := f64.Sum(kaiser)

	w := make([]float64, 2*n)
	var acc float64
	for i := range n {
		acc += kaiser[i]
		w[i] = math.Sqrt(acc / total)
		w[2*n-1-i] = w[i]
	}
	return w, nil
}

// Coefficients returns the first 1.5·N samples of a length-2N window: the
// part of the window that determines the folding matrix.
func Coefficients(w []float64) ([]float64, error) {
	if len(w)%2 != 0 {
		return nil, fmt.Errorf("%w: odd window length %d", ErrBands, len(w))
	}
	n := len(w) / 2
	if err := checkBands(n); err != nil {
		return nil, err
	}
	fb := make([]float64, n*3/2)
	copy(fb, w)
	return fb, nil
}

// Mirror rebuilds the full length-2N window from its first 1.5·N samples,
// assuming it is symmetric: the tail is w[2N-1-k] = fb[k], k < N/2.
func Mirror(fb []float64) ([]float64, error) {
	if len(fb)%3 != 0 {
		return nil, fmt.Errorf("%w: %d coefficients", ErrBands, len(fb))
	}
	n := len(fb) / 3 * 2
	if err := checkBands(n); err != nil {
		return nil, err
	}
	w := make([]float64, 2*n)
	copy(w, fb)
	for k := range n / 2 {
		w[2*n-1-k] = fb[k]
	}
	return w, nil
}

// Response holds the frequency response of a window or impulse response.
type Response struct {
	// Frequencies at which response was calculated (normalized, 0 to 0.5)
	Frequencies []float64

	// Magnitude response at each frequency (linear scale)
	Magnitude []float64

	// Phase response at each frequency (radians)
	Phase []float64
}

// FrequencyResponse evaluates the DTFT of coeffs at numPoints frequencies
// from 0 up to (but excluding) Nyquist. numPoints <= 0 selects 512.
func FrequencyResponse(coeffs []float64, numPoints int) Response {
	if numPoints <= 0 {
		numPoints = defaultResponsePoints
	}

	response := Response{
		Frequencies: make([]float64, numPoints),
		Magnitude:   make([]float64, numPoints),
		Phase:       make([]float64, numPoints),
	}

	for k := range numPoints {
		freq := float64(k) / float64(windowNormalizationFactor*numPoints)
		response.Frequencies[k] = freq

		// H(e^jω) = Σ h[n]·e^(-jωn)
		var realPart, imagPart float64
		omega := windowNormalizationFactor * math.Pi * freq
		for n, h := range coeffs {
			angle := omega * float64(n)
			realPart += h * math.Cos(angle)
			imagPart -= h * math.Sin(angle)
		}

		response.Magnitude[k] = math.Sqrt(realPart*realPart + imagPart*imagPart)
		response.Phase[k] = math.Atan2(imagPart, realPart)
	}

	return response
}

// MagnitudeDB converts linear magnitude to decibels.
func MagnitudeDB(magnitude float64) float64 {
	const (
		minMagnitude = 1e-10 // Avoid log(0)
		dbMultiplier = 20.0
	)

	if magnitude < minMagnitude {
		magnitude = minMagnitude
	}
	return dbMultiplier * math.Log10(magnitude)
}
